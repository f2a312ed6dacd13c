// package shared defines shared helpers
package shared

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates the root [log.Logger] for the process, writing to the
// specified [io.Writer] with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true, Prefix: "wabridge"}
	return log.NewWithOptions(w, opts)
}

// WithLogger creates a child [log.Logger] tagged with the component it logs
// for, so session, transport and HTTP lines can be told apart.
func WithLogger(l *log.Logger, component string) *log.Logger {
	return l.With("component", component)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}
