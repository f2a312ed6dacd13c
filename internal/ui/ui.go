package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/wabridge/internal/server"
	"github.com/desertthunder/wabridge/internal/session"
	"github.com/mdp/qrterminal/v3"
)

// defaultPollInterval matches the web front end's polling cadence.
const defaultPollInterval = 3 * time.Second

// statusMsg carries one poll result into the update loop.
type statusMsg struct {
	status *server.StatusResponse
	err    error
}

// tickMsg requests the next poll.
type tickMsg time.Time

// Model represents the status monitor state.
type Model struct {
	fetcher  StatusFetcher
	interval time.Duration

	status   *server.StatusResponse
	err      error
	qrArt    string
	lastCode string

	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	quitting bool
}

// NewModel creates a status monitor polling through the given fetcher.
func NewModel(fetcher StatusFetcher, interval time.Duration) Model {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.title

	return Model{
		fetcher:  fetcher,
		interval: interval,
		spinner:  sp,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init implements [tea.Model].
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

// fetch polls the status endpoint asynchronously.
func (m Model) fetch() tea.Cmd {
	fetcher := m.fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		status, err := fetcher.FetchStatus(ctx)
		return statusMsg{status: status, err: err}
	}
}

func (m Model) nextTick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements [tea.Model].
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.refresh):
			return m, m.fetch()
		}

	case statusMsg:
		m.status = msg.status
		m.err = msg.err
		m.renderQR()
		return m, m.nextTick()

	case tickMsg:
		return m, m.fetch()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// renderQR regenerates the half-block QR art only when the code changes.
func (m *Model) renderQR() {
	if m.status == nil || m.status.QRCode == "" {
		m.qrArt = ""
		m.lastCode = ""
		return
	}
	if m.status.QRCode == m.lastCode {
		return
	}

	var buf strings.Builder
	qrterminal.GenerateHalfBlock(m.status.QRCode, qrterminal.L, &buf)
	m.qrArt = buf.String()
	m.lastCode = m.status.QRCode
}

// View implements [tea.Model].
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render("wabridge session status"))
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(styles.err.Render("✗ status unavailable"))
		b.WriteString("\n")
		b.WriteString(styles.help.Render(m.err.Error()))
		b.WriteString("\n")
	case m.status == nil:
		b.WriteString(m.spinner.View())
		b.WriteString(" contacting backend...")
		b.WriteString("\n")
	default:
		b.WriteString(m.stateLine())
		b.WriteString("\n")
		if m.qrArt != "" {
			b.WriteString("\n")
			b.WriteString("Scan this code with WhatsApp to pair:\n")
			b.WriteString(m.qrArt)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(m.hintLine())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) stateLine() string {
	state := session.State(m.status.Status)
	label := fmt.Sprintf("state: %s", state)

	switch state {
	case session.StateReady:
		return styles.ok.Render("● " + label)
	case session.StateQRPending:
		return styles.warn.Render("◌ " + label)
	case session.StateInitializing:
		return m.spinner.View() + " " + label
	default:
		return styles.err.Render("✗ " + label)
	}
}

// hintLine mirrors the web form's gating: sends only while READY.
func (m Model) hintLine() string {
	if session.State(m.status.Status) == session.StateReady {
		return styles.ok.Render("Sends enabled: POST /send-messages or run `wabridge send`.")
	}
	return styles.help.Render("Sends disabled until the session is READY.")
}
