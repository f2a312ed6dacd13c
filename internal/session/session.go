// package session owns the single process-wide connection state for the
// messaging session and the current pairing artifact.
//
// The [Machine] is the only writer of both fields. Handlers bound to the
// messaging client's lifecycle events mutate them and optionally schedule
// future work; they never block and never send messages themselves. Readers
// take [Machine.Snapshot] at any concurrency.
package session

import (
	"encoding/base64"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wabridge/internal/shared"
	"github.com/desertthunder/wabridge/internal/wa"
	qrcode "github.com/skip2/go-qrcode"
)

// State is the connection state of the messaging session. Values are the wire
// strings the status endpoint reports.
type State string

const (
	StateInitializing      State = "INITIALIZING"
	StateQRPending         State = "QR_PENDING"
	StateReady             State = "READY"
	StateAuthFailure       State = "AUTH_FAILURE"
	StateDisconnected      State = "DISCONNECTED"
	StateErrorInitializing State = "ERROR_INITIALIZING"
	StateErrorGeneratingQR State = "ERROR_GENERATING_QR"
)

// Status is a point-in-time snapshot of the machine's two fields. QRCode and
// QRDataURL are empty unless State is [StateQRPending].
type Status struct {
	State     State
	QRCode    string
	QRDataURL string
}

// Encoder renders a raw pairing code into a browser-displayable artifact.
type Encoder func(code string) (string, error)

// DataURLEncoder encodes a pairing code as a PNG image data URL.
func DataURLEncoder(code string) (string, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

const (
	// defaultSettleDelay absorbs the window where the transport reports
	// authenticated slightly before it accepts sends.
	defaultSettleDelay = 3 * time.Second

	// defaultReconnectDelay is the fixed backoff before a supervised
	// reconnect attempt after a disconnect.
	defaultReconnectDelay = 5 * time.Second
)

// MachineOpts contains configuration options for creating a [Machine].
// Zero-value fields fall back to production defaults; tests inject an
// immediate Schedule and a deterministic Encoder.
type MachineOpts struct {
	Encoder        Encoder
	SettleDelay    time.Duration
	ReconnectDelay time.Duration
	Schedule       func(d time.Duration, fn func())
	OnPairingCode  func(code string) // optional sink for terminal QR printing
	Logger         *log.Logger
}

// Machine is the session state machine. All mutation happens in the Handle*
// methods and the supervisor's Set* methods; everything else reads snapshots.
type Machine struct {
	mu        sync.RWMutex
	state     State
	qrCode    string
	qrDataURL string
	gen       uint64 // bumped on every transition so stale timers lose

	encode         Encoder
	settleDelay    time.Duration
	reconnectDelay time.Duration
	schedule       func(d time.Duration, fn func())
	onPairingCode  func(code string)
	reconnect      func()
	logger         *log.Logger
}

// NewMachine creates a Machine in [StateInitializing].
func NewMachine(opts MachineOpts) *Machine {
	if opts.Encoder == nil {
		opts.Encoder = DataURLEncoder
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = defaultSettleDelay
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.Schedule == nil {
		opts.Schedule = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Machine{
		state:          StateInitializing,
		encode:         opts.Encoder,
		settleDelay:    opts.SettleDelay,
		reconnectDelay: opts.ReconnectDelay,
		schedule:       opts.Schedule,
		onPairingCode:  opts.OnPairingCode,
		logger:         opts.Logger,
	}
}

// Events returns the lifecycle callback set to register with a [wa.Client].
func (m *Machine) Events() wa.Events {
	return wa.Events{
		QR:            m.HandleQR,
		Authenticated: m.HandleAuthenticated,
		Ready:         m.HandleReady,
		AuthFailure:   m.HandleAuthFailure,
		Disconnected:  m.HandleDisconnected,
	}
}

// SetReconnect installs the callback invoked after the reconnect backoff
// elapses following a disconnect. The supervisor installs itself here.
func (m *Machine) SetReconnect(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconnect = fn
}

// Snapshot returns the current state and pairing artifact.
func (m *Machine) Snapshot() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Status{State: m.state, QRCode: m.qrCode, QRDataURL: m.qrDataURL}
}

// State returns the current connection state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// HandleQR renders a freshly issued pairing code and moves to
// [StateQRPending]. Encoding failures surface as [StateErrorGeneratingQR]
// with the artifact cleared.
func (m *Machine) HandleQR(code string) {
	encoded, err := m.encode(code)

	m.mu.Lock()
	m.gen++
	if err != nil {
		m.logger.Error("failed to encode pairing code", "err", err)
		m.qrCode = ""
		m.qrDataURL = ""
		m.state = StateErrorGeneratingQR
		m.mu.Unlock()
		return
	}
	m.qrCode = code
	m.qrDataURL = encoded
	m.state = StateQRPending
	m.mu.Unlock()

	m.logger.Info("pairing code issued, scan to connect")
	if m.onPairingCode != nil {
		m.onPairingCode(code)
	}
}

// HandleAuthenticated clears the pairing artifact and promotes to
// [StateReady] after the settle delay, unless a later event transitions the
// machine first.
func (m *Machine) HandleAuthenticated() {
	m.mu.Lock()
	m.qrCode = ""
	m.qrDataURL = ""
	m.gen++
	gen := m.gen
	m.mu.Unlock()

	m.logger.Info("session authenticated, settling before ready")
	m.schedule(m.settleDelay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.gen != gen {
			// A later event won the race; leave its state alone.
			return
		}
		m.state = StateReady
	})
}

// HandleReady clears the pairing artifact and moves to [StateReady]
// immediately.
func (m *Machine) HandleReady() {
	m.mu.Lock()
	m.qrCode = ""
	m.qrDataURL = ""
	m.state = StateReady
	m.gen++
	m.mu.Unlock()

	m.logger.Info("messaging session ready")
}

// HandleAuthFailure clears the pairing artifact and moves to
// [StateAuthFailure].
func (m *Machine) HandleAuthFailure(reason string) {
	m.mu.Lock()
	m.qrCode = ""
	m.qrDataURL = ""
	m.state = StateAuthFailure
	m.gen++
	m.mu.Unlock()

	m.logger.Error("authentication failure", "reason", reason)
}

// HandleDisconnected clears the pairing artifact, moves to
// [StateDisconnected], and schedules one supervised reconnect attempt after
// the fixed backoff. Re-entry while already disconnected does not stack
// additional reconnects.
func (m *Machine) HandleDisconnected(reason string) {
	m.mu.Lock()
	already := m.state == StateDisconnected
	m.qrCode = ""
	m.qrDataURL = ""
	m.state = StateDisconnected
	m.gen++
	reconnect := m.reconnect
	m.mu.Unlock()

	m.logger.Warn("session disconnected", "reason", reason)

	if reconnect != nil && !already {
		m.schedule(m.reconnectDelay, reconnect)
	}
}

// SetInitializing marks the start of a connection attempt and clears any
// stale pairing artifact. Called by the supervisor, never by event handlers.
func (m *Machine) SetInitializing() {
	m.mu.Lock()
	m.qrCode = ""
	m.qrDataURL = ""
	m.state = StateInitializing
	m.gen++
	m.mu.Unlock()
}

// SetErrorInitializing marks the terminal bring-up failure state. The process
// keeps serving status requests but messaging stays unavailable until
// restarted.
func (m *Machine) SetErrorInitializing() {
	m.mu.Lock()
	m.qrCode = ""
	m.qrDataURL = ""
	m.state = StateErrorInitializing
	m.gen++
	m.mu.Unlock()
}
