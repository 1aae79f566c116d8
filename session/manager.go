package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultDir is the session directory relative to the working directory.
const DefaultDir = ".winnow/sessions"

// Manager owns a session directory and tracks the caller's current
// session. It is the history store handed to the compaction engine:
// GetMessages and ReplaceMessages address sessions by name, with the
// empty name resolving to the current session.
type Manager struct {
	dir string

	mu      sync.Mutex
	current *Session
	loaded  map[string]*Session
}

// NewManager creates a manager rooted at dir. An empty dir uses
// DefaultDir.
func NewManager(dir string) *Manager {
	if dir == "" {
		dir = DefaultDir
	}
	return &Manager{
		dir:    dir,
		loaded: make(map[string]*Session),
	}
}

// New creates a fresh session and makes it the current one.
func (m *Manager) New(name string) (*Session, error) {
	path, err := sessionPath(m.dir, name)
	if err != nil {
		return nil, err
	}
	s := &Session{
		Name:     name,
		Messages: []Message{},
		path:     path,
	}
	m.mu.Lock()
	m.loaded[name] = s
	m.current = s
	m.mu.Unlock()
	return s, nil
}

// Load reads an existing session from disk and makes it the current one.
func (m *Manager) Load(name string) (*Session, error) {
	path, err := sessionPath(m.dir, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read session file %s: %w", path, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("could not parse session file %s: %w", path, err)
	}
	s.path = path

	m.mu.Lock()
	m.loaded[name] = &s
	m.current = &s
	m.mu.Unlock()
	return &s, nil
}

// Current returns the current session, or nil when none is active.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// List returns the names of all sessions present in the directory.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not list session directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		names = append(names, e.Name()[:len(e.Name())-len(".json")])
	}
	return names, nil
}

// GetMessages returns the history of the named session. The empty name
// addresses the current session.
func (m *Manager) GetMessages(name string) ([]Message, error) {
	s, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	return s.Messages, nil
}

// ReplaceMessages swaps the named session's history for msgs and
// persists it. The previous message slice is not mutated.
func (m *Manager) ReplaceMessages(name string, msgs []Message) error {
	s, err := m.resolve(name)
	if err != nil {
		return err
	}
	s.Messages = msgs
	return s.Save()
}

func (m *Manager) resolve(name string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == "" {
		if m.current == nil {
			return nil, fmt.Errorf("no current session")
		}
		return m.current, nil
	}
	if s, ok := m.loaded[name]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("unknown session %q", name)
}
