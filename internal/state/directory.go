package state

import (
	"sync"

	"github.com/RichardoC/Doc-i/internal/models"
)

// SessionDirectory holds the sidebar's session list and the single
// active-session pointer. Every rendered transcript or file view must
// correspond to the active id; continuations that resolved late check
// against it before writing anywhere.
type SessionDirectory struct {
	mu       sync.RWMutex
	sessions []models.Session
	active   string
}

func NewSessionDirectory() *SessionDirectory {
	return &SessionDirectory{}
}

// Replace swaps in a fresh listing from the backend, preserving its
// order. It reports whether the list content actually changed, so the
// renderer can choose between a full redraw and a cheap highlight-only
// pass.
func (d *SessionDirectory) Replace(sessions []models.Session) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	changed := len(sessions) != len(d.sessions)
	if !changed {
		for i := range sessions {
			if sessions[i] != d.sessions[i] {
				changed = true
				break
			}
		}
	}
	d.sessions = append([]models.Session(nil), sessions...)
	return changed
}

func (d *SessionDirectory) Sessions() []models.Session {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]models.Session(nil), d.sessions...)
}

func (d *SessionDirectory) SetActive(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.active = id
}

func (d *SessionDirectory) Active() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.active
}

func (d *SessionDirectory) Contains(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.sessions {
		if s.ID == id {
			return true
		}
	}
	return false
}

func (d *SessionDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}
