package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/PabloGalante/englishmaster/internal/adapters/storage/docpath"
	"github.com/PabloGalante/englishmaster/internal/domain"
)

// Store is an in-memory implementation of domain.DocumentStore.
// It is NOT persistent and is only suitable for development / local mode.
type Store struct {
	mu   sync.RWMutex
	root map[string]any
}

func NewStore() *Store {
	return &Store{
		root: make(map[string]any),
	}
}

func (s *Store) Get(_ context.Context, path string) (json.RawMessage, error) {
	parts, err := docpath.Split(path)
	if err != nil {
		return nil, &domain.StoreError{Op: "get", Path: path, Err: err}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var node any = s.root
	for _, p := range parts {
		obj, ok := node.(map[string]any)
		if !ok {
			return nil, nil
		}
		if node, ok = obj[p]; !ok {
			return nil, nil
		}
	}

	raw, err := json.Marshal(node)
	if err != nil {
		return nil, &domain.StoreError{Op: "get", Path: path, Err: err}
	}
	return raw, nil
}

func (s *Store) Put(_ context.Context, path string, value any) error {
	parts, err := docpath.Split(path)
	if err != nil {
		return &domain.StoreError{Op: "put", Path: path, Err: err}
	}

	v, err := docpath.Normalize(value)
	if err != nil {
		return &domain.StoreError{Op: "put", Path: path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if v == nil {
		s.remove(parts)
		return nil
	}

	node := s.root
	for _, p := range parts[:len(parts)-1] {
		child, ok := node[p].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[p] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = v
	return nil
}

func (s *Store) Post(ctx context.Context, path string, value any) (string, error) {
	if _, err := docpath.Split(path); err != nil {
		return "", &domain.StoreError{Op: "post", Path: path, Err: err}
	}

	key := docpath.NewKey()
	if err := s.Put(ctx, docpath.Join(path, key), value); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Store) Delete(_ context.Context, path string) error {
	parts, err := docpath.Split(path)
	if err != nil {
		return &domain.StoreError{Op: "delete", Path: path, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.remove(parts)
	return nil
}

// remove deletes the node at parts and prunes ancestors left empty.
// Caller must hold the write lock.
func (s *Store) remove(parts []string) {
	chain := []map[string]any{s.root}
	node := s.root
	for _, p := range parts[:len(parts)-1] {
		child, ok := node[p].(map[string]any)
		if !ok {
			return
		}
		chain = append(chain, child)
		node = child
	}
	delete(node, parts[len(parts)-1])

	for i := len(chain) - 1; i > 0; i-- {
		if len(chain[i]) > 0 {
			break
		}
		delete(chain[i-1], parts[i-1])
	}
}
