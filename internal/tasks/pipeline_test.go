package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/desertthunder/wabridge/internal/contacts"
	"github.com/desertthunder/wabridge/internal/session"
	"github.com/desertthunder/wabridge/internal/shared"
)

type mockSource struct {
	rows     []contacts.Row
	fetchErr error
	fetches  int
}

func (m *mockSource) Fetch(ctx context.Context) ([]contacts.Row, error) {
	m.fetches++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.rows, nil
}

type sentMessage struct {
	address string
	text    string
}

type mockSender struct {
	sent    []sentMessage
	failOn  map[string]string // address → error message
	sendErr error
}

func (m *mockSender) Send(ctx context.Context, address, text string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	if reason, ok := m.failOn[address]; ok {
		return fmt.Errorf("%s", reason)
	}
	m.sent = append(m.sent, sentMessage{address: address, text: text})
	return nil
}

func newTestEngine(source contacts.Source, sender *mockSender, state session.State) *SendEngine {
	return NewSendEngine(SendEngineOpts{
		Source: source,
		Sender: sender,
		State:  func() session.State { return state },
		Delay:  NoDelay{},
		Logger: shared.NewLogger(io.Discard),
	})
}

func sheetRows(data ...[2]string) []contacts.Row {
	rows := []contacts.Row{{Name: "Name", Phone: "Phone"}}
	for _, d := range data {
		rows = append(rows, contacts.Row{Name: d[0], Phone: d[1]})
	}
	return rows
}

func TestSendEngineRun(t *testing.T) {
	ctx := context.Background()

	t.Run("all rows sent", func(t *testing.T) {
		sender := &mockSender{}
		engine := newTestEngine(&mockSource{rows: sheetRows(
			[2]string{"Asha", "7010663166"},
			[2]string{"Ravi", "+919876543210"},
		)}, sender, session.StateReady)

		report, err := engine.Run(ctx, "Hi {name}!", nil)
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}

		if report.TotalContacts != 2 {
			t.Errorf("expected 2 total contacts, got %d", report.TotalContacts)
		}
		if report.Sent != 2 {
			t.Errorf("expected 2 sent, got %d", report.Sent)
		}
		if len(report.Failures) != 0 {
			t.Errorf("expected no failures, got %+v", report.Failures)
		}

		if sender.sent[0].address != "917010663166@s.whatsapp.net" {
			t.Errorf("unexpected first address %s", sender.sent[0].address)
		}
		if sender.sent[0].text != "Hi Asha!" {
			t.Errorf("expected personalized text, got %q", sender.sent[0].text)
		}
	})

	t.Run("sequential order preserved", func(t *testing.T) {
		sender := &mockSender{}
		engine := newTestEngine(&mockSource{rows: sheetRows(
			[2]string{"A", "9000000001"},
			[2]string{"B", "9000000002"},
			[2]string{"C", "9000000003"},
		)}, sender, session.StateReady)

		if _, err := engine.Run(ctx, "hello {name}", nil); err != nil {
			t.Fatalf("Run returned error: %v", err)
		}

		want := []string{
			"919000000001@s.whatsapp.net",
			"919000000002@s.whatsapp.net",
			"919000000003@s.whatsapp.net",
		}
		for i, w := range want {
			if sender.sent[i].address != w {
				t.Errorf("send %d = %s, want %s", i, sender.sent[i].address, w)
			}
		}
	})

	t.Run("missing phone recorded without aborting", func(t *testing.T) {
		sender := &mockSender{}
		engine := newTestEngine(&mockSource{rows: sheetRows(
			[2]string{"Asha", "7010663166"},
			[2]string{"Ravi", ""},
			[2]string{"Meena", "9000000009"},
		)}, sender, session.StateReady)

		report, err := engine.Run(ctx, "Hi {name}", nil)
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}

		if report.TotalContacts != 3 {
			t.Errorf("expected 3 total contacts, got %d", report.TotalContacts)
		}
		if report.Sent != 2 {
			t.Errorf("expected 2 sent, got %d", report.Sent)
		}
		if len(report.Failures) != 1 {
			t.Fatalf("expected 1 failure, got %d", len(report.Failures))
		}
		if report.Failures[0].Reason != "Missing name or phone" {
			t.Errorf("unexpected reason %q", report.Failures[0].Reason)
		}
		if report.Failures[0].Name != "Ravi" {
			t.Errorf("expected failure keyed to Ravi, got %q", report.Failures[0].Name)
		}
		if report.Sent+len(report.Failures) != report.TotalContacts {
			t.Error("sent + failures must equal total contacts")
		}
	})

	t.Run("send failure captured verbatim with raw phone", func(t *testing.T) {
		sender := &mockSender{failOn: map[string]string{
			"917010663166@s.whatsapp.net": "number not on whatsapp",
		}}
		engine := newTestEngine(&mockSource{rows: sheetRows(
			[2]string{"Asha", "(701) 066-3166"},
			[2]string{"Ravi", "9000000002"},
		)}, sender, session.StateReady)

		report, err := engine.Run(ctx, "Hi {name}", nil)
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}

		if report.Sent != 1 {
			t.Errorf("expected 1 sent, got %d", report.Sent)
		}
		if len(report.Failures) != 1 {
			t.Fatalf("expected 1 failure, got %d", len(report.Failures))
		}
		f := report.Failures[0]
		if f.Reason != "number not on whatsapp" {
			t.Errorf("expected verbatim reason, got %q", f.Reason)
		}
		if f.Phone != "(701) 066-3166" {
			t.Errorf("failure must carry the raw phone as typed, got %q", f.Phone)
		}
	})

	t.Run("template validated before anything else", func(t *testing.T) {
		source := &mockSource{rows: sheetRows([2]string{"Asha", "7010663166"})}
		engine := newTestEngine(source, &mockSender{}, session.StateReady)

		if _, err := engine.Run(ctx, "   ", nil); !errors.Is(err, shared.ErrEmptyTemplate) {
			t.Errorf("expected ErrEmptyTemplate, got %v", err)
		}

		long := strings.Repeat("x", MaxTemplateLength+1)
		if _, err := engine.Run(ctx, long, nil); !errors.Is(err, shared.ErrTemplateTooLong) {
			t.Errorf("expected ErrTemplateTooLong, got %v", err)
		}

		if source.fetches != 0 {
			t.Errorf("invalid template must not touch the contact source, got %d fetches", source.fetches)
		}
	})

	t.Run("template at the limit accepted", func(t *testing.T) {
		engine := newTestEngine(&mockSource{rows: sheetRows([2]string{"Asha", "7010663166"})}, &mockSender{}, session.StateReady)

		exact := strings.Repeat("y", MaxTemplateLength)
		if _, err := engine.Run(ctx, exact, nil); err != nil {
			t.Errorf("template of exactly %d runes should pass, got %v", MaxTemplateLength, err)
		}
	})

	t.Run("not ready performs zero sends", func(t *testing.T) {
		source := &mockSource{rows: sheetRows([2]string{"Asha", "7010663166"})}
		sender := &mockSender{}

		for _, state := range []session.State{
			session.StateInitializing,
			session.StateQRPending,
			session.StateDisconnected,
			session.StateAuthFailure,
			session.StateErrorInitializing,
		} {
			engine := newTestEngine(source, sender, state)
			_, err := engine.Run(ctx, "Hi {name}", nil)
			if !errors.Is(err, shared.ErrNotReady) {
				t.Errorf("state %s: expected ErrNotReady, got %v", state, err)
			}

			var notReady NotReadyError
			if !errors.As(err, &notReady) || notReady.State() != state {
				t.Errorf("state %s: error should carry the observed state, got %v", state, err)
			}
		}

		if len(sender.sent) != 0 {
			t.Errorf("expected zero sends, got %d", len(sender.sent))
		}
	})

	t.Run("nil source unavailable", func(t *testing.T) {
		engine := newTestEngine(nil, &mockSender{}, session.StateReady)
		if _, err := engine.Run(ctx, "Hi", nil); !errors.Is(err, shared.ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", err)
		}
	})

	t.Run("header-only sheet has no contacts", func(t *testing.T) {
		engine := newTestEngine(&mockSource{rows: sheetRows()}, &mockSender{}, session.StateReady)
		if _, err := engine.Run(ctx, "Hi", nil); !errors.Is(err, shared.ErrNoContacts) {
			t.Errorf("expected ErrNoContacts, got %v", err)
		}
	})

	t.Run("fetch error propagated", func(t *testing.T) {
		engine := newTestEngine(&mockSource{fetchErr: fmt.Errorf("sheet unreachable")}, &mockSender{}, session.StateReady)
		if _, err := engine.Run(ctx, "Hi", nil); err == nil || !strings.Contains(err.Error(), "sheet unreachable") {
			t.Errorf("expected fetch error, got %v", err)
		}
	})

	t.Run("progress updates emitted", func(t *testing.T) {
		engine := newTestEngine(&mockSource{rows: sheetRows(
			[2]string{"Asha", "7010663166"},
		)}, &mockSender{}, session.StateReady)

		progress := make(chan ProgressUpdate, 16)
		if _, err := engine.Run(ctx, "Hi {name}", progress); err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			phases = append(phases, update.Phase)
		}
		if len(phases) < 3 {
			t.Fatalf("expected fetch/send/done updates, got %v", phases)
		}
		if phases[0] != FetchContacts || phases[len(phases)-1] != Done {
			t.Errorf("unexpected phase order %v", phases)
		}
	})
}

// blockingSender parks the first send until released, so a second Run can be
// attempted while a batch is in flight.
type blockingSender struct {
	entered  chan struct{}
	release  chan struct{}
	sendOnce bool
}

func (b *blockingSender) Send(ctx context.Context, address, text string) error {
	if !b.sendOnce {
		b.sendOnce = true
		close(b.entered)
		<-b.release
	}
	return nil
}

func TestSendEngineSingleFlight(t *testing.T) {
	sender := &blockingSender{entered: make(chan struct{}), release: make(chan struct{})}
	engine := NewSendEngine(SendEngineOpts{
		Source: &mockSource{rows: sheetRows([2]string{"Asha", "7010663166"})},
		Sender: sender,
		State:  func() session.State { return session.StateReady },
		Delay:  NoDelay{},
		Logger: shared.NewLogger(io.Discard),
	})

	done := make(chan error, 1)
	go func() {
		_, err := engine.Run(context.Background(), "Hi {name}", nil)
		done <- err
	}()

	<-sender.entered

	_, err := engine.Run(context.Background(), "Hi {name}", nil)
	if !errors.Is(err, shared.ErrBatchInFlight) {
		t.Errorf("expected ErrBatchInFlight for concurrent batch, got %v", err)
	}

	close(sender.release)
	if err := <-done; err != nil {
		t.Errorf("first batch should complete cleanly, got %v", err)
	}
}

type countingDelay struct {
	pauses int
}

func (d *countingDelay) Pause(ctx context.Context) { d.pauses++ }

func TestSendEnginePacing(t *testing.T) {
	ctx := context.Background()

	t.Run("pauses between rows but not after the last", func(t *testing.T) {
		delay := &countingDelay{}
		engine := NewSendEngine(SendEngineOpts{
			Source: &mockSource{rows: sheetRows(
				[2]string{"Asha", "7010663166"},
				[2]string{"Ravi", "+919876543210"},
				[2]string{"Maya", "9176543210"},
			)},
			Sender: &mockSender{},
			State:  func() session.State { return session.StateReady },
			Delay:  delay,
			Logger: shared.NewLogger(io.Discard),
		})

		report, err := engine.Run(ctx, "Hi {name}!", nil)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if report.Sent != 3 {
			t.Errorf("expected 3 sent, got %d", report.Sent)
		}
		if delay.pauses != 2 {
			t.Errorf("expected 2 pauses for 3 rows, got %d", delay.pauses)
		}
	})

	t.Run("single row finishes without pausing", func(t *testing.T) {
		delay := &countingDelay{}
		engine := NewSendEngine(SendEngineOpts{
			Source: &mockSource{rows: sheetRows([2]string{"Asha", "7010663166"})},
			Sender: &mockSender{},
			State:  func() session.State { return session.StateReady },
			Delay:  delay,
			Logger: shared.NewLogger(io.Discard),
		})

		if _, err := engine.Run(ctx, "Hi {name}!", nil); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if delay.pauses != 0 {
			t.Errorf("expected no pause after the only row, got %d", delay.pauses)
		}
	})
}
