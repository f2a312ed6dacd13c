package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/desertthunder/wabridge/internal/server"
	"github.com/desertthunder/wabridge/internal/shared"
	"github.com/urfave/cli/v3"
)

// Send posts a message template to a running server and reports the batch
// outcome. The request blocks until the whole batch finishes.
func (r *Runner) Send(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	template, err := resolveTemplate(cmd)
	if err != nil {
		return err
	}

	backend := cmd.String("backend")
	if backend == "" {
		backend = config.Proxy.BackendURL
	}
	if backend == "" {
		return fmt.Errorf("%w: no backend URL configured, pass --backend or set BACKEND_URL", shared.ErrMissingConfig)
	}
	backend = server.NormalizeBackendURL(backend)

	apiKey := cmd.String("api-key")
	if apiKey == "" {
		apiKey = config.API.Key
	}

	body, err := json.Marshal(server.SendRequest{MessageTemplate: template})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, backend+"/send-messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set(server.APIKeyHeader, apiKey)
	}

	r.logger.Info("sending batch", "backend", backend, "template_length", len(template))

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: server returned %d: %s", shared.ErrSendFailed, resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var report server.SendResponse
	if err := json.Unmarshal(payload, &report); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Batch " + report.Status)
	r.writePlain("Contacts in sheet: %d\n", report.TotalContactsInSheet)
	r.writePlain("Messages sent:     %d\n", report.MessagesSuccessfullySent)
	r.writePlain("Failures:          %d\n", len(report.Errors))
	for _, failure := range report.Errors {
		r.writePlain("  ✗ %s (%s): %s\n", failure.Contact.Name, failure.Contact.Phone, failure.Error)
	}

	return nil
}

// resolveTemplate reads the template from --template or --template-file,
// requiring exactly one.
func resolveTemplate(cmd *cli.Command) (string, error) {
	template := cmd.String("template")
	templateFile := cmd.String("template-file")

	if template == "" && templateFile == "" {
		return "", fmt.Errorf("%w: either --template or --template-file must be provided", shared.ErrMissingConfig)
	}
	if template != "" && templateFile != "" {
		return "", fmt.Errorf("%w: cannot specify both --template and --template-file", shared.ErrInvalidConfig)
	}

	if templateFile != "" {
		data, err := os.ReadFile(templateFile)
		if err != nil {
			return "", fmt.Errorf("failed to read template file: %w", err)
		}
		template = string(data)
	}

	return template, nil
}
