package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wabridge/internal/shared"
)

// Forwarder is the front-end proxy layer: it relays browser calls to the
// backend API, injecting the shared-secret credential so the secret never
// reaches the browser. The backend's status code and JSON body pass through
// unchanged; anything unreadable or non-JSON becomes a 502.
type Forwarder struct {
	backendURL string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

// NewForwarder creates a Forwarder targeting the given backend base address.
// Addresses without a protocol get http:// prepended, matching how deployment
// platforms hand out bare hostnames.
func NewForwarder(backendURL, apiKey string, client *http.Client, logger *log.Logger) *Forwarder {
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Forwarder{
		backendURL: NormalizeBackendURL(backendURL),
		apiKey:     apiKey,
		httpClient: client,
		logger:     logger,
	}
}

// NormalizeBackendURL trims the configured backend address and prepends
// http:// when no protocol is present.
func NormalizeBackendURL(raw string) string {
	url := strings.TrimSpace(raw)
	if url == "" {
		return url
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	return strings.TrimSuffix(url, "/")
}

// Routes returns the backend paths the forwarder relays.
func (f *Forwarder) Routes() []string {
	return []string{"GET /get-qr-status", "POST /send-messages"}
}

func (f *Forwarder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if f.backendURL == "" || f.apiKey == "" {
		writeError(w, http.StatusInternalServerError, "Server configuration error: missing backend credentials.")
		return
	}

	target := f.backendURL + r.URL.Path

	var body io.Reader
	if r.Body != nil && r.Method != http.MethodGet {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read request body.")
			return
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, target, body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build backend request.")
		return
	}
	req.Header.Set(APIKeyHeader, f.apiKey)
	req.Header.Set("Accept", "application/json")
	if r.Method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Error("backend unreachable", "target", target, "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   shared.ErrBadGateway.Error(),
			"details": err.Error(),
		})
		return
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   shared.ErrBadGateway.Error(),
			"details": "failed to read backend response",
		})
		return
	}

	if !json.Valid(payload) {
		f.logger.Warn("non-JSON backend response", "target", target, "status", resp.StatusCode)
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":   shared.ErrBadGateway.Error(),
			"details": fmt.Sprintf("backend status %d with non-JSON body", resp.StatusCode),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(payload)
}
