package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/wabridge/internal/server"
	"github.com/desertthunder/wabridge/internal/shared"
	"github.com/urfave/cli/v3"
)

// Proxy runs the forwarding layer that fronts the API for browser clients:
// it injects the configured API key so the key never ships to the front end.
func (r *Runner) Proxy(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	backend := cmd.String("backend")
	if backend == "" {
		backend = config.Proxy.BackendURL
	}
	if backend == "" {
		return fmt.Errorf("%w: no backend URL configured, pass --backend or set BACKEND_URL", shared.ErrMissingConfig)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	forwarder := server.NewForwarder(backend, config.API.Key, r.httpClient, shared.WithLogger(r.logger, "proxy"))

	router := server.NewBasicRouter()
	router.Use(
		server.RequestLogger(shared.WithLogger(r.logger, "http")),
		server.SecurityHeaders(),
		server.CORS(config.API.AllowedOrigins),
	)
	router.Handler(forwarder)

	r.logger.Info("forwarding", "backend", server.NormalizeBackendURL(backend))
	return r.listen(ctx, cmd.String("addr"), router)
}
