package tui

import (
	"sync"

	"github.com/RichardoC/Doc-i/internal/models"
	tea "github.com/charmbracelet/bubbletea"
)

// Messages posted by the engine bridge into the update loop.
type (
	sessionsMsg struct {
		sessions []models.Session
		activeID string
	}
	activeMsg struct {
		activeID string
	}
	messageMsg struct {
		msg models.Message
	}
	transcriptMsg struct {
		messages []models.Message
	}
	filesMsg struct {
		names []string
	}
	thinkingMsg struct {
		on bool
	}
	revealMsg struct {
		content string
		done    bool
	}
	scrollMsg      struct{}
	uploadStateMsg struct {
		busy   bool
		status string
	}
	alertMsg struct {
		text string
	}
	confirmMsg struct {
		prompt string
		reply  chan bool
	}
	opDoneMsg struct {
		err error
	}
	initDoneMsg struct {
		err error
	}
)

// Bridge adapts the orchestrator's Renderer and Confirmer callbacks,
// which arrive on engine goroutines, into bubbletea messages so every
// view mutation happens on the program's update loop. Messages posted
// before the program is attached are buffered.
type Bridge struct {
	mu      sync.Mutex
	send    func(tea.Msg)
	pending []tea.Msg
}

func NewBridge() *Bridge {
	return &Bridge{}
}

// Attach connects the bridge to a running program and flushes anything
// buffered while the program was starting up.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.send = p.Send
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()
	for _, msg := range pending {
		p.Send(msg)
	}
}

func (b *Bridge) post(msg tea.Msg) {
	b.mu.Lock()
	send := b.send
	if send == nil {
		b.pending = append(b.pending, msg)
	}
	b.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

func (b *Bridge) RenderSessions(sessions []models.Session, activeID string) {
	b.post(sessionsMsg{sessions: sessions, activeID: activeID})
}

func (b *Bridge) RenderActive(activeID string) {
	b.post(activeMsg{activeID: activeID})
}

func (b *Bridge) RenderMessage(msg models.Message) {
	b.post(messageMsg{msg: msg})
}

func (b *Bridge) RenderTranscript(messages []models.Message) {
	b.post(transcriptMsg{messages: messages})
}

func (b *Bridge) RenderFiles(names []string) {
	b.post(filesMsg{names: names})
}

func (b *Bridge) ShowThinking() { b.post(thinkingMsg{on: true}) }
func (b *Bridge) HideThinking() { b.post(thinkingMsg{on: false}) }

func (b *Bridge) RenderReveal(markdown string, done bool) {
	b.post(revealMsg{content: markdown, done: done})
}

func (b *Bridge) ScrollToBottom() { b.post(scrollMsg{}) }

func (b *Bridge) SetUploadState(busy bool, status string) {
	b.post(uploadStateMsg{busy: busy, status: status})
}

func (b *Bridge) Alert(text string) { b.post(alertMsg{text: text}) }

// Confirm blocks the calling engine goroutine until the user answers
// the overlay the update loop shows for this prompt.
func (b *Bridge) Confirm(prompt string) bool {
	reply := make(chan bool, 1)
	b.post(confirmMsg{prompt: prompt, reply: reply})
	return <-reply
}
