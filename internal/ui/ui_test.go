package ui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/wabridge/internal/server"
)

type fakeFetcher struct {
	status *server.StatusResponse
	err    error
}

func (f *fakeFetcher) FetchStatus(ctx context.Context) (*server.StatusResponse, error) {
	return f.status, f.err
}

func updated(t *testing.T, m Model, msg statusMsg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned unexpected model type %T", next)
	}
	return model
}

func TestModelView(t *testing.T) {
	t.Run("ready state enables sends", func(t *testing.T) {
		m := NewModel(&fakeFetcher{}, time.Second)
		m = updated(t, m, statusMsg{status: &server.StatusResponse{Status: "READY"}})

		view := m.View()
		if !strings.Contains(view, "READY") {
			t.Errorf("expected READY in view:\n%s", view)
		}
		if !strings.Contains(view, "Sends enabled") {
			t.Errorf("expected send hint in view:\n%s", view)
		}
	})

	t.Run("qr pending renders pairing code", func(t *testing.T) {
		m := NewModel(&fakeFetcher{}, time.Second)
		m = updated(t, m, statusMsg{status: &server.StatusResponse{
			Status: "QR_PENDING",
			QRCode: "pairing-code-payload",
		}})

		view := m.View()
		if !strings.Contains(view, "QR_PENDING") {
			t.Errorf("expected QR_PENDING in view:\n%s", view)
		}
		if !strings.Contains(view, "Scan this code") {
			t.Errorf("expected pairing instructions in view:\n%s", view)
		}
		if !strings.Contains(view, "Sends disabled") {
			t.Errorf("expected sends disabled hint in view:\n%s", view)
		}
	})

	t.Run("qr art cached across identical polls", func(t *testing.T) {
		m := NewModel(&fakeFetcher{}, time.Second)
		status := &server.StatusResponse{Status: "QR_PENDING", QRCode: "same-code"}

		m = updated(t, m, statusMsg{status: status})
		art := m.qrArt
		m = updated(t, m, statusMsg{status: status})

		if m.qrArt != art {
			t.Error("expected QR art unchanged for identical code")
		}
		if art == "" {
			t.Error("expected non-empty QR art")
		}
	})

	t.Run("artifact cleared when state leaves QR_PENDING", func(t *testing.T) {
		m := NewModel(&fakeFetcher{}, time.Second)
		m = updated(t, m, statusMsg{status: &server.StatusResponse{Status: "QR_PENDING", QRCode: "code"}})
		m = updated(t, m, statusMsg{status: &server.StatusResponse{Status: "READY"}})

		if m.qrArt != "" {
			t.Error("expected QR art cleared once paired")
		}
	})

	t.Run("fetch error shown", func(t *testing.T) {
		m := NewModel(&fakeFetcher{}, time.Second)
		m = updated(t, m, statusMsg{err: fmt.Errorf("backend unreachable")})

		view := m.View()
		if !strings.Contains(view, "status unavailable") {
			t.Errorf("expected error banner in view:\n%s", view)
		}
		if !strings.Contains(view, "backend unreachable") {
			t.Errorf("expected error detail in view:\n%s", view)
		}
	})
}
