package tasks

import (
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
	"github.com/abogadai/abogadai/app/repository"
	"github.com/abogadai/abogadai/internal/pkg/cleanup"
	"github.com/abogadai/abogadai/internal/pkg/tiering"
	"github.com/abogadai/abogadai/internal/pkg/usage"
)

type fakeUserRepo struct {
	listAllErr error
}

func (r *fakeUserRepo) Create(u *models.User) error                   { return nil }
func (r *fakeUserRepo) GetByID(id uint) (*models.User, error)         { return nil, gorm.ErrRecordNotFound }
func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) { return nil, gorm.ErrRecordNotFound }
func (r *fakeUserRepo) Update(u *models.User) error                   { return nil }
func (r *fakeUserRepo) Delete(id uint) error                          { return nil }
func (r *fakeUserRepo) List(offset, limit int) ([]models.User, error) { return nil, nil }
func (r *fakeUserRepo) Count() (int64, error)                         { return 0, nil }
func (r *fakeUserRepo) ListAll() ([]models.User, error) {
	if r.listAllErr != nil {
		return nil, r.listAllErr
	}
	return nil, nil
}
func (r *fakeUserRepo) ResetBonusSessions() (int64, error) { return 3, nil }
func (r *fakeUserRepo) UpdateTierFields(userID uint, tier, paymentsLast30 int, recalcAt time.Time) error {
	return nil
}
func (r *fakeUserRepo) UpdateTierFieldsBulk(updates []repository.TierUpdate) error { return nil }

type fakePaymentRepo struct{}

func (r *fakePaymentRepo) Create(p *models.Payment) error           { return nil }
func (r *fakePaymentRepo) GetByID(id uint) (*models.Payment, error) { return nil, gorm.ErrRecordNotFound }
func (r *fakePaymentRepo) GetByReference(ref string) (*models.Payment, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakePaymentRepo) GetByUserID(userID uint, offset, limit int) ([]models.Payment, error) {
	return nil, nil
}
func (r *fakePaymentRepo) CountSuccessfulSince(userID uint, cutoff time.Time) (int64, error) {
	return 0, nil
}
func (r *fakePaymentRepo) GetActiveSuccessfulByCase(caseID uint) (*models.Payment, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakePaymentRepo) CompletePending(ref string, status string, paidAt time.Time) (bool, error) {
	return false, nil
}

type fakeCaseRepo struct{}

func (r *fakeCaseRepo) Create(c *models.Case) error                       { return nil }
func (r *fakeCaseRepo) GetByID(id uint) (*models.Case, error)             { return nil, gorm.ErrRecordNotFound }
func (r *fakeCaseRepo) GetByUUID(uuid string) (*models.Case, error)       { return nil, gorm.ErrRecordNotFound }
func (r *fakeCaseRepo) GetByUserID(userID uint, offset, limit int) ([]models.Case, error) {
	return nil, nil
}
func (r *fakeCaseRepo) Update(c *models.Case) error                       { return nil }
func (r *fakeCaseRepo) Delete(id uint) error                              { return nil }
func (r *fakeCaseRepo) CountByStatus(status string) (int64, error)        { return 0, nil }
func (r *fakeCaseRepo) ListPendingRefunds() ([]models.Case, error)        { return nil, nil }
func (r *fakeCaseRepo) GetRefundEvents(caseID uint) ([]models.RefundEvent, error) {
	return nil, nil
}
func (r *fakeCaseRepo) CountRefundRejections(caseID uint) (int64, error) { return 0, nil }
func (r *fakeCaseRepo) DecideRefund(c *models.Case, event *models.RefundEvent, payment *models.Payment) (bool, error) {
	return false, nil
}
func (r *fakeCaseRepo) DeleteExpiredGenerated(now time.Time) (int64, error)   { return 2, nil }
func (r *fakeCaseRepo) DeleteAbandonedDrafts(before time.Time) (int64, error) { return 1, nil }
func (r *fakeCaseRepo) CountExpiredGenerated(now time.Time) (int64, error)    { return 0, nil }
func (r *fakeCaseRepo) CountAbandonedDrafts(before time.Time) (int64, error)  { return 0, nil }

type fakeUsageRepo struct{}

func (r *fakeUsageRepo) GetForDate(userID uint, date time.Time) (*models.DailyUsage, error) {
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUsageRepo) Create(u *models.DailyUsage) error               { return nil }
func (r *fakeUsageRepo) Update(u *models.DailyUsage) error               { return nil }
func (r *fakeUsageRepo) DeleteOlderThan(before time.Time) (int64, error) { return 5, nil }
func (r *fakeUsageRepo) CountOlderThan(before time.Time) (int64, error)  { return 5, nil }

func newTestRunner(users *fakeUserRepo) *Runner {
	pays := &fakePaymentRepo{}
	return NewRunner(
		tiering.NewService(users, pays),
		usage.NewTracker(users, &fakeUsageRepo{}),
		cleanup.NewSweeper(&fakeCaseRepo{}, &fakeUsageRepo{}),
	)
}

func TestMidnightRunsAllSteps(t *testing.T) {
	runner := newTestRunner(&fakeUserRepo{})

	results := runner.Midnight()
	if len(results) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(results))
	}
	if !Succeeded(results) {
		t.Fatalf("all steps should succeed: %+v", results)
	}

	names := []string{"recalculate_tiers", "reset_daily_bonuses", "sweep_stale_usage"}
	for i, want := range names {
		if results[i].Name != want {
			t.Fatalf("step %d = %q, want %q", i, results[i].Name, want)
		}
	}
	if results[1].Count != 3 {
		t.Fatalf("bonus reset count = %d, want 3", results[1].Count)
	}
	if results[2].Count != 5 {
		t.Fatalf("stale usage count = %d, want 5", results[2].Count)
	}
}

func TestCleanupRunsAllSteps(t *testing.T) {
	runner := newTestRunner(&fakeUserRepo{})

	results := runner.Cleanup()
	if len(results) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(results))
	}
	if results[0].Count != 2 || results[1].Count != 1 {
		t.Fatalf("unexpected counts: %+v", results)
	}
}

func TestStepFailureIsCapturedNotPropagated(t *testing.T) {
	runner := newTestRunner(&fakeUserRepo{listAllErr: errors.New("db gone")})

	results := runner.Midnight()
	if len(results) != 3 {
		t.Fatalf("a failed step must not stop the batch, got %d steps", len(results))
	}
	if results[0].Success {
		t.Fatalf("tier recalc should have failed")
	}
	if results[0].Error == "" {
		t.Fatalf("failure not captured in the result payload")
	}
	// Later steps still ran.
	if !results[1].Success || !results[2].Success {
		t.Fatalf("later steps should still succeed: %+v", results)
	}
	if Succeeded(results) {
		t.Fatalf("Succeeded must report the failure")
	}
}

func TestRunAllOrdersBatches(t *testing.T) {
	runner := newTestRunner(&fakeUserRepo{})

	results := runner.RunAll()
	if len(results) != 5 {
		t.Fatalf("expected 5 steps, got %d", len(results))
	}
	if results[0].Name != "recalculate_tiers" || results[3].Name != "sweep_expired_documents" {
		t.Fatalf("unexpected step order: %+v", results)
	}
}
