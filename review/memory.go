package review

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/overtime-engine/attendance"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for CLI/testing)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	batches map[string]*Batch
}

func NewMemory() *Memory {
	return &Memory{batches: make(map[string]*Batch)}
}

func (m *Memory) SaveBatch(_ context.Context, b *Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[b.ID] = b.Clone()
	return nil
}

func (m *Memory) GetBatch(_ context.Context, id string) (*Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.batches[id]
	if !ok {
		return nil, attendance.ErrBatchNotFound
	}
	return b.Clone(), nil
}

func (m *Memory) ListBatches(_ context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Summary, 0, len(m.batches))
	for _, b := range m.batches {
		result = append(result, b.Summary())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *Memory) DeleteBatch(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.batches[id]; !ok {
		return attendance.ErrBatchNotFound
	}
	delete(m.batches, id)
	return nil
}
