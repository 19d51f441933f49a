package repository

import (
	"context"
	"sync"

	"guestbook/pkg/models"
)

// MemoryRepository keeps rows in process; used when DATABASE_URL is unset
// and in tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows []models.Row
}

var _ GuestbookRepository = (*MemoryRepository)(nil)

func NewMemoryRepository(seed ...models.Row) *MemoryRepository {
	return &MemoryRepository{rows: append([]models.Row(nil), seed...)}
}

func (m *MemoryRepository) List(ctx context.Context) ([]models.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Row, len(m.rows))
	copy(out, m.rows)
	return out, nil
}

func (m *MemoryRepository) Insert(ctx context.Context, row models.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, row)
	return nil
}

func (m *MemoryRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.rows {
		if r.ID == id {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
