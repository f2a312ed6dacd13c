package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wabridge/internal/session"
	"github.com/desertthunder/wabridge/internal/shared"
	"github.com/desertthunder/wabridge/internal/tasks"
)

// StatusResponse is the polling payload consumed by the front end. QRDataURL
// renders in an <img> tag; QRCode is the raw pairing string for terminal
// clients.
type StatusResponse struct {
	Status    string `json:"status"`
	QRDataURL string `json:"qrDataURL,omitempty"`
	QRCode    string `json:"qrCode,omitempty"`
}

// SendRequest is the body of POST /send-messages.
type SendRequest struct {
	MessageTemplate string `json:"messageTemplate"`
}

// SendResponse reports one completed batch.
type SendResponse struct {
	Status                   string      `json:"status"`
	TotalContactsInSheet     int         `json:"totalContactsInSheet"`
	MessagesSuccessfullySent int         `json:"messagesSuccessfullySent"`
	Errors                   []SendError `json:"errors"`
}

// SendError is one per-recipient failure with the contact as typed in the
// sheet.
type SendError struct {
	Contact SendErrorContact `json:"contact"`
	Error   string           `json:"error"`
}

type SendErrorContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// StatusHandler serves GET /get-qr-status from the session machine snapshot.
type StatusHandler struct {
	machine *session.Machine
}

// NewStatusHandler creates a StatusHandler reading from the given machine.
func NewStatusHandler(machine *session.Machine) *StatusHandler {
	return &StatusHandler{machine: machine}
}

// Routes returns the HTTP routes this handler serves.
func (h *StatusHandler) Routes() []string {
	return []string{"GET /get-qr-status"}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap := h.machine.Snapshot()
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:    string(snap.State),
		QRDataURL: snap.QRDataURL,
		QRCode:    snap.QRCode,
	})
}

// BatchRunner is the narrow view of the send engine the handler needs.
type BatchRunner interface {
	Run(ctx context.Context, template string, progress chan<- tasks.ProgressUpdate) (*tasks.Report, error)
}

// SendHandler serves POST /send-messages by running one batch synchronously
// and reporting the outcome. The response arrives only after the entire batch
// finishes, so slow sheets and pacing make this a long poll.
type SendHandler struct {
	engine BatchRunner
	logger *log.Logger
}

// NewSendHandler creates a SendHandler driving the given engine.
func NewSendHandler(engine BatchRunner, logger *log.Logger) *SendHandler {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SendHandler{engine: engine, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *SendHandler) Routes() []string {
	return []string{"POST /send-messages"}
}

func (h *SendHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	report, err := h.engine.Run(r.Context(), req.MessageTemplate, nil)
	if err != nil {
		h.writeRunError(w, err)
		return
	}

	resp := SendResponse{
		Status:                   "Completed",
		TotalContactsInSheet:     report.TotalContacts,
		MessagesSuccessfullySent: report.Sent,
		Errors:                   make([]SendError, 0, len(report.Failures)),
	}
	for _, f := range report.Failures {
		resp.Errors = append(resp.Errors, SendError{
			Contact: SendErrorContact{Name: f.Name, Phone: f.Phone},
			Error:   f.Reason,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeRunError maps pipeline precondition failures onto HTTP status codes.
func (h *SendHandler) writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrEmptyTemplate):
		writeError(w, http.StatusBadRequest, "Missing messageTemplate in request body.")
	case errors.Is(err, shared.ErrTemplateTooLong):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Message template is too long (max %d chars).", tasks.MaxTemplateLength))
	case errors.Is(err, shared.ErrNotReady):
		var notReady tasks.NotReadyError
		payload := map[string]any{"error": "WhatsApp client not ready."}
		if errors.As(err, &notReady) {
			payload["currentState"] = string(notReady.State())
		}
		writeJSON(w, http.StatusServiceUnavailable, payload)
	case errors.Is(err, shared.ErrBatchInFlight):
		writeError(w, http.StatusConflict, "A batch is already in progress; retry after it completes.")
	case errors.Is(err, shared.ErrSourceUnavailable):
		writeError(w, http.StatusInternalServerError, "Contact source not initialized.")
	case errors.Is(err, shared.ErrNoContacts):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "No contact data found in sheet."})
	default:
		h.logger.Error("batch run failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Internal server error.",
			"details": err.Error(),
		})
	}
}

// RootHandler serves the plain-text liveness check.
type RootHandler struct{}

// Routes returns the HTTP routes this handler serves.
func (h RootHandler) Routes() []string {
	return []string{"GET /{$}"}
}

func (h RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "wabridge backend is running. Use POST /send-messages with an API key and messageTemplate.")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
