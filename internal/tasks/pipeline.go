package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wabridge/internal/contacts"
	"github.com/desertthunder/wabridge/internal/message"
	"github.com/desertthunder/wabridge/internal/session"
	"github.com/desertthunder/wabridge/internal/shared"
	"github.com/desertthunder/wabridge/internal/wa"
)

// MaxTemplateLength bounds the accepted message template.
const MaxTemplateLength = 2000

// missingContactReason is recorded for rows with a blank name or phone cell.
const missingContactReason = "Missing name or phone"

// NotReadyError reports the session state that blocked a batch. It unwraps to
// [shared.ErrNotReady] so the HTTP boundary can match it while still exposing
// the current state to the caller.
type NotReadyError session.State

func (e NotReadyError) Error() string {
	return fmt.Sprintf("%v: current state %s", shared.ErrNotReady, session.State(e))
}

func (e NotReadyError) Unwrap() error { return shared.ErrNotReady }

// State returns the connection state observed when the batch was rejected.
func (e NotReadyError) State() session.State { return session.State(e) }

// Failure records one per-recipient send failure, keyed to the row's original
// raw phone string so operators can match it back to the spreadsheet as typed.
type Failure struct {
	Name   string
	Phone  string
	Reason string
}

// Report summarizes one batch. TotalContacts counts every data row (header
// excluded) regardless of how many were skipped or failed.
type Report struct {
	TotalContacts int
	Sent          int
	Failures      []Failure
}

// DelayProvider paces the send loop between rows.
type DelayProvider interface {
	Pause(ctx context.Context)
}

// RandomDelay pauses a uniformly distributed interval in [Min, Min+Spread).
// The defaults match the channel's abuse-detection pacing: 1s base plus up to
// 1.5s of jitter.
type RandomDelay struct {
	Min    time.Duration
	Spread time.Duration
}

// Pause blocks for the randomized interval or until the context ends.
func (d RandomDelay) Pause(ctx context.Context) {
	min, spread := d.Min, d.Spread
	if min <= 0 {
		min = time.Second
	}
	if spread <= 0 {
		spread = 1500 * time.Millisecond
	}

	wait := min + time.Duration(rand.Int63n(int64(spread)))
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

// NoDelay skips pacing entirely. Test use only.
type NoDelay struct{}

func (NoDelay) Pause(ctx context.Context) {}

// SendEngine orchestrates batch sends over the shared messaging session.
type SendEngine struct {
	source contacts.Source
	sender wa.Sender
	state  func() session.State
	delay  DelayProvider
	logger *log.Logger

	mu sync.Mutex // at most one batch in flight
}

// SendEngineOpts contains dependencies for creating a [SendEngine].
type SendEngineOpts struct {
	Source contacts.Source
	Sender wa.Sender
	State  func() session.State
	Delay  DelayProvider
	Logger *log.Logger
}

// NewSendEngine creates a SendEngine with the provided dependencies.
func NewSendEngine(opts SendEngineOpts) *SendEngine {
	if opts.Delay == nil {
		opts.Delay = RandomDelay{}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &SendEngine{
		source: opts.Source,
		sender: opts.Sender,
		state:  opts.State,
		delay:  opts.Delay,
		logger: opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *SendEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run executes one batch with the given message template.
//
// Preconditions are checked in order and the first failure wins: non-empty
// template, template within [MaxTemplateLength], session READY, contact
// source configured. Past the preconditions every per-recipient failure is
// captured in the report; Run never aborts a started batch.
func (e *SendEngine) Run(ctx context.Context, template string, progress chan<- ProgressUpdate) (*Report, error) {
	if strings.TrimSpace(template) == "" {
		return nil, shared.ErrEmptyTemplate
	}
	if utf8.RuneCountInString(template) > MaxTemplateLength {
		return nil, shared.ErrTemplateTooLong
	}

	if !e.mu.TryLock() {
		return nil, shared.ErrBatchInFlight
	}
	defer e.mu.Unlock()

	if current := e.state(); current != session.StateReady {
		return nil, NotReadyError(current)
	}
	if e.source == nil {
		return nil, shared.ErrSourceUnavailable
	}

	e.sendProgress(progress, fetchContactsUpdate())
	rows, err := e.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, shared.ErrNoContacts
	}

	// First row is the header.
	dataRows := rows[1:]
	report := &Report{TotalContacts: len(dataRows)}
	e.logger.Info("processing contacts", "count", len(dataRows))

	for i, row := range dataRows {
		e.processRow(ctx, template, row, report)

		e.sendProgress(progress, sendUpdate(i+1, len(dataRows), row.Name))

		// Pacing applies between rows, success or not. The last row has no
		// successor, so the batch result is not held up.
		if i < len(dataRows)-1 {
			e.delay.Pause(ctx)
		}
	}

	e.sendProgress(progress, doneUpdate(report))
	e.logger.Info("batch completed", "total", report.TotalContacts, "sent", report.Sent, "failed", len(report.Failures))
	return report, nil
}

func (e *SendEngine) processRow(ctx context.Context, template string, row contacts.Row, report *Report) {
	if strings.TrimSpace(row.Name) == "" || strings.TrimSpace(row.Phone) == "" {
		report.Failures = append(report.Failures, Failure{Name: row.Name, Phone: row.Phone, Reason: missingContactReason})
		return
	}

	address, err := message.NormalizePhone(row.Phone)
	if err != nil {
		// Unreachable for non-blank input, but recorded rather than dropped.
		report.Failures = append(report.Failures, Failure{Name: row.Name, Phone: row.Phone, Reason: err.Error()})
		return
	}

	text := message.Render(template, row.Name)

	if err := e.sender.Send(ctx, address, text); err != nil {
		e.logger.Error("send failed", "name", row.Name, "address", address, "err", err)
		report.Failures = append(report.Failures, Failure{Name: row.Name, Phone: row.Phone, Reason: err.Error()})
		return
	}

	report.Sent++
}
