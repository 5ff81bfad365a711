// Package tui is the terminal frontend: a bubbletea program playing
// the rendering collaborator for the session engine. All state shown
// here mirrors the orchestrator's stores; the update loop never talks
// to the backend itself, it dispatches engine calls as commands.
package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/RichardoC/Doc-i/internal/models"
	"github.com/RichardoC/Doc-i/internal/orchestrator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"
)

const sidebarWidth = 32

type confirmRequest struct {
	prompt string
	reply  chan bool
}

// Model is the program state for the chat interface.
type Model struct {
	engine *orchestrator.Orchestrator
	logger *zap.Logger

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	sessions []models.Session
	activeID string
	messages []models.Message
	files    []string

	thinking     bool
	revealing    bool
	revealBuf    string
	uploadBusy   bool
	uploadStatus string
	alert        string

	confirm *confirmRequest

	width  int
	height int
	ready  bool
	fatal  error
}

func NewModel(engine *orchestrator.Orchestrator, logger *zap.Logger) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about your documents... (/help for commands)"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		engine: engine,
		logger: logger,
		input:  ti,
		spin:   sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.bootstrap())
}

func (m Model) bootstrap() tea.Cmd {
	return func() tea.Msg {
		return initDoneMsg{err: m.engine.Init(context.Background())}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		chatWidth := m.width - sidebarWidth - 4
		if chatWidth < 20 {
			chatWidth = 20
		}
		if !m.ready {
			m.viewport = viewport.New(chatWidth, m.height-6)
			m.ready = true
		} else {
			m.viewport.Width = chatWidth
			m.viewport.Height = m.height - 6
		}
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(chatWidth-2),
		)
		m.input.Width = m.width - 8
		m.refreshViewport(false)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case initDoneMsg:
		if msg.err != nil {
			// Initialization failure is terminal for this load; the
			// view reports it and nothing is retried.
			m.fatal = msg.err
		}
		return m, nil

	case opDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, orchestrator.ErrBusy) {
				m.alert = "An answer is still being delivered."
			}
		}
		return m, nil

	case sessionsMsg:
		m.sessions = msg.sessions
		if msg.activeID != "" {
			m.activeID = msg.activeID
		}
		return m, nil

	case activeMsg:
		m.activeID = msg.activeID
		return m, nil

	case messageMsg:
		m.messages = append(m.messages, msg.msg)
		m.refreshViewport(true)
		return m, nil

	case transcriptMsg:
		m.messages = msg.messages
		m.revealBuf = ""
		m.revealing = false
		m.refreshViewport(true)
		return m, nil

	case filesMsg:
		m.files = msg.names
		return m, nil

	case thinkingMsg:
		m.thinking = msg.on
		if msg.on {
			m.alert = ""
			return m, m.spin.Tick
		}
		return m, nil

	case revealMsg:
		if msg.done {
			// The full answer is already in the transcript via the
			// engine's final append; drop the overlay.
			m.revealing = false
			m.revealBuf = ""
			m.messages = append(m.messages, models.Message{Role: models.RoleAI, Content: msg.content})
		} else {
			m.revealing = true
			m.revealBuf = msg.content
		}
		m.refreshViewport(true)
		return m, nil

	case scrollMsg:
		m.viewport.GotoBottom()
		return m, nil

	case uploadStateMsg:
		m.uploadBusy = msg.busy
		m.uploadStatus = msg.status
		return m, nil

	case alertMsg:
		m.alert = msg.text
		return m, nil

	case confirmMsg:
		m.confirm = &confirmRequest{prompt: msg.prompt, reply: msg.reply}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// A pending confirmation captures the keyboard until answered.
	if m.confirm != nil {
		switch msg.String() {
		case "y", "Y":
			m.confirm.reply <- true
			m.confirm = nil
		case "n", "N", "esc":
			m.confirm.reply <- false
			m.confirm = nil
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c":
		m.engine.Close()
		return m, tea.Quit
	case "ctrl+n":
		return m, m.engineCmd(func(ctx context.Context) error {
			return m.engine.NewChat(ctx)
		})
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		m.input.SetValue("")
		m.alert = ""
		if strings.HasPrefix(text, "/") {
			return m.handleCommand(text)
		}
		return m, m.engineCmd(func(ctx context.Context) error {
			return m.engine.Send(ctx, text)
		})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// engineCmd runs an engine call off the update loop and reports its
// outcome back as a message.
func (m Model) engineCmd(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: fn(context.Background())}
	}
}

// refreshViewport re-renders the transcript into the viewport; when
// follow is true the view sticks to the bottom, matching the original
// scroll-on-append behavior.
func (m *Model) refreshViewport(follow bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	if follow {
		m.viewport.GotoBottom()
	}
}
