package cleanup

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
)

type fakeCaseRepo struct {
	cases map[uint]*models.Case
}

func newFakeCaseRepo(cases ...*models.Case) *fakeCaseRepo {
	r := &fakeCaseRepo{cases: make(map[uint]*models.Case)}
	for _, c := range cases {
		r.cases[c.ID] = c
	}
	return r
}

func (r *fakeCaseRepo) Create(c *models.Case) error { r.cases[c.ID] = c; return nil }
func (r *fakeCaseRepo) GetByID(id uint) (*models.Case, error) {
	if c, ok := r.cases[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeCaseRepo) GetByUUID(uuid string) (*models.Case, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeCaseRepo) GetByUserID(userID uint, offset, limit int) ([]models.Case, error) {
	return nil, nil
}
func (r *fakeCaseRepo) Update(c *models.Case) error                { r.cases[c.ID] = c; return nil }
func (r *fakeCaseRepo) Delete(id uint) error                       { delete(r.cases, id); return nil }
func (r *fakeCaseRepo) CountByStatus(status string) (int64, error) { return 0, nil }
func (r *fakeCaseRepo) ListPendingRefunds() ([]models.Case, error) { return nil, nil }
func (r *fakeCaseRepo) GetRefundEvents(caseID uint) ([]models.RefundEvent, error) {
	return nil, nil
}
func (r *fakeCaseRepo) CountRefundRejections(caseID uint) (int64, error) { return 0, nil }
func (r *fakeCaseRepo) DecideRefund(c *models.Case, event *models.RefundEvent, payment *models.Payment) (bool, error) {
	return false, nil
}

func (r *fakeCaseRepo) isExpiredGenerated(c *models.Case, now time.Time) bool {
	return c.Status == models.CaseStatusGenerated && !c.DocumentUnlocked &&
		c.ExpirationDate != nil && c.ExpirationDate.Before(now)
}

func (r *fakeCaseRepo) isAbandonedDraft(c *models.Case, before time.Time) bool {
	return c.Status == models.CaseStatusTemporary && c.CreatedAt.Before(before)
}

func (r *fakeCaseRepo) DeleteExpiredGenerated(now time.Time) (int64, error) {
	var n int64
	for id, c := range r.cases {
		if r.isExpiredGenerated(c, now) {
			delete(r.cases, id)
			n++
		}
	}
	return n, nil
}
func (r *fakeCaseRepo) DeleteAbandonedDrafts(before time.Time) (int64, error) {
	var n int64
	for id, c := range r.cases {
		if r.isAbandonedDraft(c, before) {
			delete(r.cases, id)
			n++
		}
	}
	return n, nil
}
func (r *fakeCaseRepo) CountExpiredGenerated(now time.Time) (int64, error) {
	var n int64
	for _, c := range r.cases {
		if r.isExpiredGenerated(c, now) {
			n++
		}
	}
	return n, nil
}
func (r *fakeCaseRepo) CountAbandonedDrafts(before time.Time) (int64, error) {
	var n int64
	for _, c := range r.cases {
		if r.isAbandonedDraft(c, before) {
			n++
		}
	}
	return n, nil
}

type fakeUsageRepo struct {
	rows []*models.DailyUsage
}

func (r *fakeUsageRepo) GetForDate(userID uint, date time.Time) (*models.DailyUsage, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUsageRepo) Create(u *models.DailyUsage) error { r.rows = append(r.rows, u); return nil }
func (r *fakeUsageRepo) Update(u *models.DailyUsage) error { return nil }
func (r *fakeUsageRepo) DeleteOlderThan(before time.Time) (int64, error) {
	var kept []*models.DailyUsage
	var n int64
	for _, row := range r.rows {
		if row.UsageDate.Before(before) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	r.rows = kept
	return n, nil
}
func (r *fakeUsageRepo) CountOlderThan(before time.Time) (int64, error) {
	var n int64
	for _, row := range r.rows {
		if row.UsageDate.Before(before) {
			n++
		}
	}
	return n, nil
}

func generatedCase(id uint, generatedAt time.Time) *models.Case {
	c := &models.Case{ID: id, UserID: 1, Status: models.CaseStatusGenerated, CreatedAt: generatedAt}
	c.MarkGenerated(generatedAt)
	return c
}

func newTestSweeper(cases *fakeCaseRepo, rows *fakeUsageRepo, now time.Time) *Sweeper {
	s := NewSweeper(cases, rows)
	s.now = func() time.Time { return now }
	return s
}

func TestSweepExpiredDocuments(t *testing.T) {
	now := time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)

	expired := generatedCase(1, now.AddDate(0, 0, -15))
	fresh := generatedCase(2, now.AddDate(0, 0, -3))
	paid := generatedCase(3, now.AddDate(0, 0, -15))
	paid.MarkPaid(now.AddDate(0, 0, -14))

	cases := newFakeCaseRepo(expired, fresh, paid)
	sweeper := newTestSweeper(cases, &fakeUsageRepo{}, now)

	deleted, err := sweeper.SweepExpiredDocuments()
	if err != nil {
		t.Fatalf("SweepExpiredDocuments: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if _, ok := cases.cases[1]; ok {
		t.Fatalf("expired case survived the sweep")
	}
	if _, ok := cases.cases[2]; !ok {
		t.Fatalf("fresh generated case was swept")
	}
	if _, ok := cases.cases[3]; !ok {
		t.Fatalf("paid case must never be swept regardless of age")
	}
}

func TestSweepAbandonedDrafts(t *testing.T) {
	now := time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)

	oldDraft := &models.Case{ID: 1, Status: models.CaseStatusTemporary, CreatedAt: now.AddDate(0, 0, -2)}
	youngDraft := &models.Case{ID: 2, Status: models.CaseStatusTemporary, CreatedAt: now.Add(-12 * time.Hour)}
	oldGenerated := generatedCase(3, now.AddDate(0, 0, -2))

	cases := newFakeCaseRepo(oldDraft, youngDraft, oldGenerated)
	sweeper := newTestSweeper(cases, &fakeUsageRepo{}, now)

	deleted, err := sweeper.SweepAbandonedDrafts(DefaultDraftAgeDays)
	if err != nil {
		t.Fatalf("SweepAbandonedDrafts: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted = %d, want 1", deleted)
	}
	if _, ok := cases.cases[1]; ok {
		t.Fatalf("two-day-old draft survived the sweep")
	}
	if _, ok := cases.cases[2]; !ok {
		t.Fatalf("twelve-hour-old draft was swept")
	}
	if _, ok := cases.cases[3]; !ok {
		t.Fatalf("generated case was swept by the draft pass")
	}
}

func TestSweepStaleUsage(t *testing.T) {
	now := time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)

	rows := &fakeUsageRepo{rows: []*models.DailyUsage{
		{UserID: 1, UsageDate: now.AddDate(0, 0, -91)},
		{UserID: 1, UsageDate: now.AddDate(0, 0, -30)},
		{UserID: 2, UsageDate: now.AddDate(0, 0, -120)},
	}}
	sweeper := newTestSweeper(newFakeCaseRepo(), rows, now)

	deleted, err := sweeper.SweepStaleUsage(DefaultUsageAgeDays)
	if err != nil {
		t.Fatalf("SweepStaleUsage: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("deleted = %d, want 2", deleted)
	}
	if len(rows.rows) != 1 {
		t.Fatalf("remaining rows = %d, want 1", len(rows.rows))
	}
}

func TestStatsCountsCandidates(t *testing.T) {
	now := time.Date(2026, 3, 15, 1, 0, 0, 0, time.UTC)

	cases := newFakeCaseRepo(
		generatedCase(1, now.AddDate(0, 0, -15)),
		&models.Case{ID: 2, Status: models.CaseStatusTemporary, CreatedAt: now.AddDate(0, 0, -3)},
	)
	rows := &fakeUsageRepo{rows: []*models.DailyUsage{
		{UserID: 1, UsageDate: now.AddDate(0, 0, -100)},
	}}
	sweeper := newTestSweeper(cases, rows, now)

	stats, err := sweeper.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.ExpiredDocuments != 1 || stats.AbandonedDrafts != 1 || stats.StaleUsageRows != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Total != 3 {
		t.Fatalf("total = %d, want 3", stats.Total)
	}

	// Stats never deletes anything.
	if len(cases.cases) != 2 || len(rows.rows) != 1 {
		t.Fatalf("Stats mutated data")
	}
}
