// Package herd — store.go описывает контракт хранилища сохранений
// и in-memory реализацию для тестов и локальных прогонов.
package herd

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"serotonyl.ru/herd-bot/internal/common"
)

// Store — хранилище сохранений.
// Save пишет сохранение целиком и атомарно: либо всё, либо ничего.
type Store interface {
	Get(ctx context.Context, id string) (*SaveState, error)
	Save(ctx context.Context, s *SaveState) error
	List(ctx context.Context) ([]*SaveState, error)
}

// MemoryStore хранит копии сохранений в памяти.
type MemoryStore struct {
	mu    sync.RWMutex
	saves map[string]*SaveState
	saved int
}

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{saves: make(map[string]*SaveState)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*SaveState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.saves[id]
	if !ok {
		return nil, fmt.Errorf("%w (id=%s)", common.ErrSaveNotFound, id)
	}
	return s.Clone()
}

func (m *MemoryStore) Save(_ context.Context, s *SaveState) error {
	cp, err := s.Clone()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[s.ID] = cp
	m.saved++
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]*SaveState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.saves))
	for id := range m.saves {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*SaveState, 0, len(ids))
	for _, id := range ids {
		cp, err := m.saves[id].Clone()
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

// SaveCount — сколько раз вызывался Save. Нужен тестам контрольных точек.
func (m *MemoryStore) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saved
}
