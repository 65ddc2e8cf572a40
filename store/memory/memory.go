// Package memory keeps objects in process. Listing follows insertion order.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"plumcave/tui/store"
)

type Memory struct {
	mu    sync.RWMutex
	order []string
	objs  map[string][]byte
}

func New() *Memory {
	return &Memory{objs: make(map[string][]byte)}
}

func (s *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	body, ok := s.objs[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return slices.Clone(body), nil
}

func (s *Memory) Put(ctx context.Context, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objs[key]; !ok {
		s.order = append(s.order, key)
	}
	s.objs[key] = slices.Clone(body)
	return nil
}

func (s *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.objs[key]; !ok {
		return store.ErrNotFound
	}
	delete(s.objs, key)
	s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == key })
	return nil
}

func (s *Memory) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0)
	for _, k := range s.order {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Len is used by tests.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objs)
}
