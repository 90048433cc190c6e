package dedup

import (
	"context"
	"sync"

	"github.com/tkivela/dealwatch/app/alert"
)

var _ Index = (*MemoryIndex)(nil)

// MemoryIndex keeps fingerprints in process memory. State does not survive a
// restart; use the db or redis backend when that matters.
type MemoryIndex struct {
	mu       sync.Mutex
	findings map[string]alert.Finding
	order    []string
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{findings: make(map[string]alert.Finding)}
}

func (m *MemoryIndex) CheckAndInsert(_ context.Context, f alert.Finding) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, seen := m.findings[f.Fingerprint]; seen {
		return false, nil
	}

	m.findings[f.Fingerprint] = f
	m.order = append(m.order, f.Fingerprint)
	return true, nil
}

func (m *MemoryIndex) Recent(_ context.Context, limit int) ([]alert.Finding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 || limit > len(m.order) {
		limit = len(m.order)
	}

	findings := make([]alert.Finding, 0, limit)
	for i := len(m.order) - 1; i >= 0 && len(findings) < limit; i-- {
		findings = append(findings, m.findings[m.order[i]])
	}
	return findings, nil
}

func (m *MemoryIndex) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.findings), nil
}
