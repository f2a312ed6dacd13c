package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/wabridge/internal/contacts"
	"github.com/desertthunder/wabridge/internal/server"
	"github.com/desertthunder/wabridge/internal/session"
	"github.com/desertthunder/wabridge/internal/shared"
	"github.com/desertthunder/wabridge/internal/tasks"
	"github.com/desertthunder/wabridge/internal/wa"
	"github.com/mdp/qrterminal/v3"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// Serve wires the contact source, the messaging session, and the send engine
// behind the HTTP API and runs until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	if port := int(cmd.Int("port")); port != 0 {
		config.Server.Port = port
	}
	r.warnMissing(config)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var source contacts.Source
	if config.Sheets.CredentialsBase64 != "" && config.Sheets.SheetID != "" {
		src, err := contacts.NewSheetsSource(ctx, config.Sheets.CredentialsBase64, config.Sheets.SheetID, config.Sheets.ReadRange)
		if err != nil {
			return fmt.Errorf("failed to initialize contact source: %w", err)
		}
		source = src
		r.logger.Info("contact source ready", "sheet", config.Sheets.SheetID, "range", config.Sheets.ReadRange)
	}

	sessionLog := shared.WithLogger(r.logger, "session")
	client := wa.NewMeowClient(config.WhatsApp.SessionDir, shared.WithLogger(r.logger, "whatsapp"))
	machine := session.NewMachine(session.MachineOpts{
		Logger: sessionLog,
		OnPairingCode: func(code string) {
			r.writePlainln("Scan this code with WhatsApp (Linked Devices):")
			qrterminal.GenerateHalfBlock(code, qrterminal.L, r.output)
		},
	})
	supervisor := session.NewSupervisor(client, machine, session.DefaultRetryPolicy, sessionLog)

	engine := tasks.NewSendEngine(tasks.SendEngineOpts{
		Source: source,
		Sender: client,
		State:  machine.State,
		Logger: shared.WithLogger(r.logger, "engine"),
	})

	go func() {
		if err := supervisor.Run(ctx); err != nil {
			r.logger.Error("session startup failed", "error", err)
		}
	}()
	defer client.Disconnect()

	router := server.NewBasicRouter()
	router.Use(
		server.RequestLogger(shared.WithLogger(r.logger, "http")),
		server.SecurityHeaders(),
		server.CORS(config.API.AllowedOrigins),
		server.RateLimit(config.API.RateLimit, config.API.Burst),
	)
	router.Handler(server.RootHandler{})

	// liveness stays open; everything registered from here on requires the key
	router.Use(server.APIKeyAuth(config.API.Key, r.logger))
	router.Handler(server.NewStatusHandler(machine))
	router.Handler(server.NewSendHandler(engine, r.logger))

	return r.listen(ctx, config.Addr(), router)
}
