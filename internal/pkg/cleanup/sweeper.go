package cleanup

import (
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/abogadai/abogadai/app/repository"
)

// Default age thresholds for the sweep passes.
const (
	DefaultDraftAgeDays = 1
	DefaultUsageAgeDays = 90
)

// Sweeper removes expired unpaid documents, abandoned drafts and stale usage
// rows. Each pass commits independently: a failure in one pass never rolls
// back what an earlier pass already deleted.
type Sweeper struct {
	cases repository.CaseRepository
	usage repository.UsageRepository
	now   func() time.Time
}

// NewSweeper creates a sweeper from injected repositories.
func NewSweeper(cases repository.CaseRepository, usage repository.UsageRepository) *Sweeper {
	return &Sweeper{cases: cases, usage: usage, now: time.Now}
}

// SweepExpiredDocuments deletes generated, still-locked cases whose
// expiration date has passed. Paid cases are never touched regardless of age.
func (s *Sweeper) SweepExpiredDocuments() (int64, error) {
	deleted, err := s.cases.DeleteExpiredGenerated(s.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Infof("[Cleanup] removed %d expired unpaid documents", deleted)
	}
	return deleted, nil
}

// SweepAbandonedDrafts deletes temporary cases older than the given number of
// days (callers normally pass DefaultDraftAgeDays).
func (s *Sweeper) SweepAbandonedDrafts(olderThanDays int) (int64, error) {
	before := s.now().AddDate(0, 0, -olderThanDays)
	deleted, err := s.cases.DeleteAbandonedDrafts(before)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Infof("[Cleanup] removed %d abandoned draft cases", deleted)
	}
	return deleted, nil
}

// SweepStaleUsage deletes daily usage rows older than the given number of
// days. Pure retention; nothing reads rows that old.
func (s *Sweeper) SweepStaleUsage(olderThanDays int) (int64, error) {
	before := s.now().AddDate(0, 0, -olderThanDays)
	deleted, err := s.usage.DeleteOlderThan(before)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Infof("[Cleanup] removed %d stale daily usage rows", deleted)
	}
	return deleted, nil
}

// Stats summarizes what the sweeps would delete right now, without deleting.
type Stats struct {
	ExpiredDocuments int64 `json:"expired_documents"`
	AbandonedDrafts  int64 `json:"abandoned_drafts"`
	StaleUsageRows   int64 `json:"stale_usage_rows"`
	Total            int64 `json:"total"`
}

// Stats counts the current sweep candidates using the default thresholds.
func (s *Sweeper) Stats() (*Stats, error) {
	now := s.now()

	expired, err := s.cases.CountExpiredGenerated(now)
	if err != nil {
		return nil, err
	}
	drafts, err := s.cases.CountAbandonedDrafts(now.AddDate(0, 0, -DefaultDraftAgeDays))
	if err != nil {
		return nil, err
	}
	stale, err := s.usage.CountOlderThan(now.AddDate(0, 0, -DefaultUsageAgeDays))
	if err != nil {
		return nil, err
	}

	return &Stats{
		ExpiredDocuments: expired,
		AbandonedDrafts:  drafts,
		StaleUsageRows:   stale,
		Total:            expired + drafts + stale,
	}, nil
}
