package wa

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/wabridge/internal/shared"
	_ "github.com/mattn/go-sqlite3"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

// MeowClient implements [Client] on top of whatsmeow with a sqlite-backed
// session store, so an authenticated session survives process restarts as long
// as the session directory does.
type MeowClient struct {
	sessionDir string
	logger     *log.Logger

	mu     sync.Mutex
	client *whatsmeow.Client
	events Events
}

// NewMeowClient creates an unstarted whatsmeow-backed client that persists its
// session store under sessionDir.
func NewMeowClient(sessionDir string, logger *log.Logger) *MeowClient {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &MeowClient{sessionDir: sessionDir, logger: logger}
}

// Subscribe registers lifecycle callbacks. Must be called before Start.
func (m *MeowClient) Subscribe(events Events) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = events
}

// Start opens the session store, constructs the whatsmeow client on first use,
// and connects. When no stored device exists the pairing flow begins and QR
// events are emitted until scanned.
func (m *MeowClient) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		if err := m.setup(ctx); err != nil {
			return err
		}
	}

	if m.client.Store.ID == nil {
		// Pairing flow: the QR channel must be claimed before connecting.
		qrChan, err := m.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("%w: failed to open pairing channel: %v", shared.ErrInitFailed, err)
		}
		if err := m.client.Connect(); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInitFailed, err)
		}
		go m.pumpQR(qrChan)
		return nil
	}

	if err := m.client.Connect(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInitFailed, err)
	}
	return nil
}

func (m *MeowClient) setup(ctx context.Context) error {
	if err := os.MkdirAll(m.sessionDir, 0o755); err != nil {
		return fmt.Errorf("%w: failed to create session directory %s: %v", shared.ErrInitFailed, m.sessionDir, err)
	}

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on", filepath.Join(m.sessionDir, "wabridge.db"))
	container, err := sqlstore.New(ctx, "sqlite3", dsn, m.waLogger("store"))
	if err != nil {
		return fmt.Errorf("%w: failed to open session store: %v", shared.ErrInitFailed, err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return fmt.Errorf("%w: failed to load device: %v", shared.ErrInitFailed, err)
	}

	m.client = whatsmeow.NewClient(device, m.waLogger("client"))
	m.client.AddEventHandler(m.handleEvent)
	return nil
}

// pumpQR forwards pairing-channel items to the subscriber until the channel
// closes. whatsmeow closes it once pairing finishes or gives up.
func (m *MeowClient) pumpQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		switch item.Event {
		case "code":
			m.emit(func(ev Events) {
				if ev.QR != nil {
					ev.QR(item.Code)
				}
			})
		case "success":
			m.emit(func(ev Events) {
				if ev.Authenticated != nil {
					ev.Authenticated()
				}
			})
		case "timeout":
			m.emit(func(ev Events) {
				if ev.AuthFailure != nil {
					ev.AuthFailure("pairing timed out before the code was scanned")
				}
			})
		default:
			m.emit(func(ev Events) {
				if ev.AuthFailure != nil {
					ev.AuthFailure(fmt.Sprintf("pairing failed: %s", item.Event))
				}
			})
		}
	}
}

func (m *MeowClient) handleEvent(evt any) {
	switch v := evt.(type) {
	case *events.Connected:
		m.emit(func(ev Events) {
			if ev.Ready != nil {
				ev.Ready()
			}
		})
	case *events.PairSuccess:
		m.emit(func(ev Events) {
			if ev.Authenticated != nil {
				ev.Authenticated()
			}
		})
	case *events.LoggedOut:
		m.emit(func(ev Events) {
			if ev.AuthFailure != nil {
				ev.AuthFailure(fmt.Sprintf("logged out by server (%s)", v.Reason))
			}
		})
	case *events.StreamReplaced:
		m.emit(func(ev Events) {
			if ev.Disconnected != nil {
				ev.Disconnected("stream replaced by another session")
			}
		})
	case *events.Disconnected:
		m.emit(func(ev Events) {
			if ev.Disconnected != nil {
				ev.Disconnected("connection closed")
			}
		})
	}
}

func (m *MeowClient) emit(fn func(Events)) {
	m.mu.Lock()
	ev := m.events
	m.mu.Unlock()
	fn(ev)
}

// Send delivers a single text message to a normalized recipient address.
func (m *MeowClient) Send(ctx context.Context, address, text string) error {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()

	if client == nil {
		return shared.ErrNotInitialized
	}

	jid, err := types.ParseJID(address)
	if err != nil {
		return fmt.Errorf("%w: invalid recipient %s: %v", shared.ErrSendFailed, address, err)
	}

	msg := &waE2E.Message{Conversation: proto.String(text)}
	if _, err := client.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSendFailed, err)
	}
	return nil
}

// Ready reports whether the session is connected and logged in.
func (m *MeowClient) Ready() bool {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	return client != nil && client.IsConnected() && client.IsLoggedIn()
}

// Disconnect tears down the transport connection without clearing the stored
// session.
func (m *MeowClient) Disconnect() {
	m.mu.Lock()
	client := m.client
	m.mu.Unlock()
	if client != nil {
		client.Disconnect()
	}
}

func (m *MeowClient) waLogger(module string) waLog.Logger {
	return &charmAdapter{logger: m.logger.With("module", module)}
}

// charmAdapter bridges whatsmeow's logger interface onto charmbracelet/log.
type charmAdapter struct {
	logger *log.Logger
}

func (a *charmAdapter) Warnf(msg string, args ...any)  { a.logger.Warnf(msg, args...) }
func (a *charmAdapter) Errorf(msg string, args ...any) { a.logger.Errorf(msg, args...) }
func (a *charmAdapter) Infof(msg string, args ...any)  { a.logger.Infof(msg, args...) }
func (a *charmAdapter) Debugf(msg string, args ...any) { a.logger.Debugf(msg, args...) }
func (a *charmAdapter) Sub(module string) waLog.Logger {
	return &charmAdapter{logger: a.logger.With("module", module)}
}
