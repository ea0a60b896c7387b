package store

import (
	"context"
	"sync"
)

// Memory keeps snapshots in process. Used by tests and throwaway books.
type Memory struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// NewMemoryWith returns a Memory store holding snap.
func NewMemoryWith(snap Snapshot) *Memory {
	return &Memory{snap: snap.Clone()}
}

func (m *Memory) Load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, fail("loading snapshot", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone(), nil
}

func (m *Memory) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return fail("saving snapshot", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.Clone()
	return nil
}

func (m *Memory) Close() error { return nil }
