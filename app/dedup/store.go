package dedup

import (
	"context"

	"github.com/tkivela/dealwatch/app/alert"
	"github.com/tkivela/dealwatch/app/database"
)

var _ Index = (*StoreIndex)(nil)

// StoreIndex backs the dedup index with the relational finding repository, so
// emitted findings survive restarts. Atomicity comes from the repository's
// conflict-free insert.
type StoreIndex struct {
	repo database.FindingRepository
}

func NewStoreIndex(repo database.FindingRepository) *StoreIndex {
	return &StoreIndex{repo: repo}
}

func (s *StoreIndex) CheckAndInsert(_ context.Context, f alert.Finding) (bool, error) {
	return s.repo.CheckAndInsert(f)
}

func (s *StoreIndex) Recent(_ context.Context, limit int) ([]alert.Finding, error) {
	return s.repo.GetRecentFindings(limit)
}

func (s *StoreIndex) Count(_ context.Context) (int, error) {
	return s.repo.GetFindingCount()
}
