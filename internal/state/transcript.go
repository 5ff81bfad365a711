package state

import (
	"sync"

	"github.com/RichardoC/Doc-i/internal/models"
)

// Transcript is the ordered message sequence for the active session.
// It grows by local appends while a session is live and is replaced
// wholesale when a session is loaded; those are the only two mutations.
type Transcript struct {
	mu       sync.RWMutex
	messages []models.Message
	version  uint64
}

func NewTranscript() *Transcript {
	return &Transcript{}
}

func (t *Transcript) Append(role models.Role, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, models.Message{Role: role, Content: content})
	t.version++
}

func (t *Transcript) ReplaceAll(messages []models.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append([]models.Message(nil), messages...)
	t.version++
}

func (t *Transcript) Clear() {
	t.ReplaceAll(nil)
}

func (t *Transcript) Messages() []models.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.Message(nil), t.messages...)
}

func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Version increments on every mutation; renderers use it to detect
// whether their cached view is current.
func (t *Transcript) Version() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.version
}
