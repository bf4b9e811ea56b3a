package chart

import (
	"context"
	"sort"
	"sync"
)

// Memory implements Store in process for tests and local runs.
type Memory struct {
	mu   sync.RWMutex
	rows map[string]Row // gameName + "|" + date
}

func NewMemory() *Memory {
	return &Memory{rows: make(map[string]Row)}
}

func (m *Memory) key(r Row) string {
	return r.GameName + "|" + r.Date.Format("2006-01-02")
}

func (m *Memory) Upsert(_ context.Context, r Row) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[m.key(r)] = r
	return nil
}

func (m *Memory) RowsForGame(_ context.Context, gameName string) ([]Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Row
	for _, r := range m.rows {
		if r.GameName == gameName {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}
