package results

import (
	"context"
	"sync"
	"time"
)

type Memory struct {
	mu   sync.RWMutex
	rows map[string]Result
}

func NewMemory() *Memory {
	return &Memory{rows: make(map[string]Result)}
}

func key(gameName string, date time.Time) string {
	return gameName + "|" + truncateDay(date).Format("2006-01-02")
}

func (m *Memory) Get(_ context.Context, gameName string, date time.Time) (Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rows[key(gameName, date)], nil
}

func (m *Memory) Upsert(_ context.Context, r Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[key(r.GameName, r.Date)] = r
	return nil
}
