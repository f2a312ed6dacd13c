package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wabridge/internal/shared"
	"github.com/desertthunder/wabridge/internal/ui"
	"github.com/urfave/cli/v3"
)

// Status launches the interactive session monitor, or with --once prints the
// current status payload and exits.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	backend := cmd.String("backend")
	if backend == "" {
		backend = config.Proxy.BackendURL
	}
	if backend == "" {
		return fmt.Errorf("%w: no backend URL configured, pass --backend or set BACKEND_URL", shared.ErrMissingConfig)
	}

	apiKey := cmd.String("api-key")
	if apiKey == "" {
		apiKey = config.API.Key
	}

	client := ui.NewStatusClient(backend, apiKey, r.httpClient)

	if cmd.Bool("once") {
		status, err := client.FetchStatus(ctx)
		if err != nil {
			return fmt.Errorf("status request failed: %w", err)
		}
		return r.writeJSON(status, true)
	}

	model := ui.NewModel(client, cmd.Duration("interval"))
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running status monitor: %w", err)
	}

	return nil
}
