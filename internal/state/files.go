package state

import "sync"

// FileSet is the attachment list for the active session. It is a
// projection of what the backend reports: uploads and deletes never
// mutate it directly, they replace it with the backend's listing,
// because the backend may dedupe or rename on its side.
type FileSet struct {
	mu    sync.RWMutex
	names []string
}

func NewFileSet() *FileSet {
	return &FileSet{}
}

func (f *FileSet) Replace(names []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.names = append([]string(nil), names...)
}

func (f *FileSet) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.names...)
}

func (f *FileSet) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.names)
}
