package session

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wabridge/internal/shared"
	"github.com/desertthunder/wabridge/internal/wa"
)

// RetryPolicy bounds connection bring-up. The delay is fixed, not
// exponential; a failed attempt waits Delay and tries again until MaxAttempts
// is exhausted.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryPolicy retries bring-up a handful of times with a short fixed
// delay before giving up for good.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Delay: 10 * time.Second}

// Supervisor drives connection bring-up with bounded retries and registers
// itself as the machine's reconnect hook so disconnects trigger a fresh
// supervised attempt.
type Supervisor struct {
	client  wa.Client
	machine *Machine
	policy  RetryPolicy
	logger  *log.Logger
}

// NewSupervisor creates a Supervisor, subscribes the machine's lifecycle
// handlers to the client, and installs the reconnect hook.
func NewSupervisor(client wa.Client, machine *Machine, policy RetryPolicy, logger *log.Logger) *Supervisor {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultRetryPolicy.MaxAttempts
	}
	if policy.Delay <= 0 {
		policy.Delay = DefaultRetryPolicy.Delay
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &Supervisor{client: client, machine: machine, policy: policy, logger: logger}

	client.Subscribe(machine.Events())
	machine.SetReconnect(func() {
		if err := s.Run(context.Background()); err != nil {
			s.logger.Error("reconnect attempt exhausted retries", "err", err)
		}
	})

	return s
}

// Run attempts to bring up the messaging connection, retrying synchronous
// bring-up failures per the policy. A nil return means the transport started;
// readiness remains event-driven. Exhausting the policy parks the machine in
// [StateErrorInitializing].
func (s *Supervisor) Run(ctx context.Context) error {
	var lastErr error

	for attempt := 1; attempt <= s.policy.MaxAttempts; attempt++ {
		s.machine.SetInitializing()

		err := s.client.Start(ctx)
		if err == nil {
			s.logger.Info("messaging client started", "attempt", attempt)
			return nil
		}

		lastErr = err
		s.logger.Error("messaging client start failed", "attempt", attempt, "max", s.policy.MaxAttempts, "err", err)

		if attempt == s.policy.MaxAttempts {
			break
		}

		select {
		case <-time.After(s.policy.Delay):
		case <-ctx.Done():
			s.machine.SetErrorInitializing()
			return fmt.Errorf("%w: %v", shared.ErrInitFailed, ctx.Err())
		}
	}

	s.machine.SetErrorInitializing()
	return fmt.Errorf("%w after %d attempts: %v", shared.ErrInitFailed, s.policy.MaxAttempts, lastErr)
}
