// Package statefile keeps the active session id on the local device.
package statefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/englishmaster/internal/domain"
)

type state struct {
	ActiveSession string `yaml:"active_session"`
}

// Store persists the active session id in a small YAML file.
type Store struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load returns "" when the file does not exist yet.
func (s *Store) Load() (domain.SessionID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading state file: %w", err)
	}

	var st state
	if err := yaml.Unmarshal(data, &st); err != nil {
		return "", fmt.Errorf("parsing state file %s: %w", s.path, err)
	}
	return domain.SessionID(st.ActiveSession), nil
}

// Save writes the file atomically (temp file + rename).
func (s *Store) Save(id domain.SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(state{ActiveSession: string(id)})
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}
	return nil
}

// Memory keeps the active session id for the lifetime of the process.
type Memory struct {
	mu sync.Mutex
	id domain.SessionID
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load() (domain.SessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, nil
}

func (m *Memory) Save(id domain.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = id
	return nil
}
