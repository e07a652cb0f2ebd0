package tiering

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
	"github.com/abogadai/abogadai/app/repository"
)

type fakeUserRepo struct {
	users map[uint]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(u *models.User) error { r.users[u.ID] = u; return nil }
func (r *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakeUserRepo) Update(u *models.User) error { r.users[u.ID] = u; return nil }
func (r *fakeUserRepo) Delete(id uint) error        { delete(r.users, id); return nil }
func (r *fakeUserRepo) List(offset, limit int) ([]models.User, error) { return nil, nil }
func (r *fakeUserRepo) Count() (int64, error)                         { return int64(len(r.users)), nil }
func (r *fakeUserRepo) ListAll() ([]models.User, error) {
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}
func (r *fakeUserRepo) ResetBonusSessions() (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.BonusSessionsToday > 0 {
			u.BonusSessionsToday = 0
			n++
		}
	}
	return n, nil
}
func (r *fakeUserRepo) UpdateTierFields(userID uint, tier, paymentsLast30 int, recalcAt time.Time) error {
	u, ok := r.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Tier = tier
	u.PaymentsLast30Days = paymentsLast30
	u.LastTierRecalc = &recalcAt
	return nil
}
func (r *fakeUserRepo) UpdateTierFieldsBulk(updates []repository.TierUpdate) error {
	for _, up := range updates {
		if err := r.UpdateTierFields(up.UserID, up.Tier, up.PaymentsLast30, up.RecalcAt); err != nil {
			return err
		}
	}
	return nil
}

type fakePaymentRepo struct {
	payments []*models.Payment
}

func (r *fakePaymentRepo) Create(p *models.Payment) error { r.payments = append(r.payments, p); return nil }
func (r *fakePaymentRepo) GetByID(id uint) (*models.Payment, error) { return nil, gorm.ErrRecordNotFound }
func (r *fakePaymentRepo) GetByReference(ref string) (*models.Payment, error) {
	for _, p := range r.payments {
		if p.Reference == ref {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakePaymentRepo) GetByUserID(userID uint, offset, limit int) ([]models.Payment, error) {
	return nil, nil
}
func (r *fakePaymentRepo) CountSuccessfulSince(userID uint, cutoff time.Time) (int64, error) {
	var n int64
	for _, p := range r.payments {
		if p.UserID != userID || p.Status != models.PaymentStatusSuccessful || p.PaymentDate == nil {
			continue
		}
		if !p.PaymentDate.Before(cutoff) {
			n++
		}
	}
	return n, nil
}
func (r *fakePaymentRepo) GetActiveSuccessfulByCase(caseID uint) (*models.Payment, error) {
	for _, p := range r.payments {
		if p.CaseID == caseID && p.Status == models.PaymentStatusSuccessful {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (r *fakePaymentRepo) CompletePending(ref string, status string, paidAt time.Time) (bool, error) {
	for _, p := range r.payments {
		if p.Reference == ref && p.Status == models.PaymentStatusPending {
			p.Status = status
			p.PaymentDate = &paidAt
			return true, nil
		}
	}
	return false, nil
}

func successfulPayment(userID uint, daysAgo int, now time.Time) *models.Payment {
	at := now.AddDate(0, 0, -daysAgo)
	return &models.Payment{
		UserID:      userID,
		Status:      models.PaymentStatusSuccessful,
		PaymentDate: &at,
	}
}

func TestCalculateTierBuckets(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		payments int
		want     int
	}{
		{name: "no payments stays free", payments: 0, want: models.TierFree},
		{name: "one payment is bronce", payments: 1, want: models.TierBronce},
		{name: "two payments is plata", payments: 2, want: models.TierPlata},
		{name: "three payments is oro", payments: 3, want: models.TierOro},
		{name: "more than three stays oro", payments: 7, want: models.TierOro},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := newFakeUserRepo(&models.User{ID: 1, Status: models.STATUS_ACTIVE})
			pays := &fakePaymentRepo{}
			for i := 0; i < tt.payments; i++ {
				pays.payments = append(pays.payments, successfulPayment(1, i+1, now))
			}

			svc := NewService(users, pays)
			svc.now = func() time.Time { return now }

			got, err := svc.CalculateTier(1)
			if err != nil {
				t.Fatalf("CalculateTier: %v", err)
			}
			if got != tt.want {
				t.Fatalf("CalculateTier with %d payments = %d, want %d", tt.payments, got, tt.want)
			}
		})
	}
}

func TestCalculateTierWindowIsInclusive(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	users := newFakeUserRepo(&models.User{ID: 1, Status: models.STATUS_ACTIVE})
	pays := &fakePaymentRepo{payments: []*models.Payment{
		successfulPayment(1, TierWindowDays, now), // exactly on the boundary
		successfulPayment(1, TierWindowDays+1, now),
	}}

	svc := NewService(users, pays)
	svc.now = func() time.Time { return now }

	got, err := svc.CalculateTier(1)
	if err != nil {
		t.Fatalf("CalculateTier: %v", err)
	}
	if got != models.TierBronce {
		t.Fatalf("expected only the boundary payment to count, got tier %d", got)
	}
}

func TestCalculateTierIgnoresOtherPayments(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	failed := now.AddDate(0, 0, -2)
	users := newFakeUserRepo(&models.User{ID: 1, Status: models.STATUS_ACTIVE})
	pays := &fakePaymentRepo{payments: []*models.Payment{
		successfulPayment(1, 1, now),
		successfulPayment(2, 1, now), // different user
		{UserID: 1, Status: models.PaymentStatusFailed, PaymentDate: &failed},
		{UserID: 1, Status: models.PaymentStatusPending},
	}}

	svc := NewService(users, pays)
	svc.now = func() time.Time { return now }

	got, err := svc.CalculateTier(1)
	if err != nil {
		t.Fatalf("CalculateTier: %v", err)
	}
	if got != models.TierBronce {
		t.Fatalf("expected only own successful payments to count, got tier %d", got)
	}
}

func TestRecalculateUserPersistsTierFields(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	user := &models.User{ID: 1, Status: models.STATUS_ACTIVE, Tier: models.TierFree}
	users := newFakeUserRepo(user)
	pays := &fakePaymentRepo{payments: []*models.Payment{
		successfulPayment(1, 3, now),
		successfulPayment(1, 10, now),
	}}

	svc := NewService(users, pays)
	svc.now = func() time.Time { return now }

	result, err := svc.RecalculateUser(1)
	if err != nil {
		t.Fatalf("RecalculateUser: %v", err)
	}
	if result.PreviousTier != models.TierFree || result.NewTier != models.TierPlata {
		t.Fatalf("unexpected result: %+v", result)
	}
	if user.Tier != models.TierPlata {
		t.Fatalf("tier not persisted, got %d", user.Tier)
	}
	if user.PaymentsLast30Days != 2 {
		t.Fatalf("payment count not persisted, got %d", user.PaymentsLast30Days)
	}
	if user.LastTierRecalc == nil || !user.LastTierRecalc.Equal(now) {
		t.Fatalf("recalc timestamp not persisted: %v", user.LastTierRecalc)
	}
}

func TestRecalculateUserUnknownUser(t *testing.T) {
	svc := NewService(newFakeUserRepo(), &fakePaymentRepo{})
	if _, err := svc.RecalculateUser(99); err != ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRecalculateAll(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	u1 := &models.User{ID: 1, Status: models.STATUS_ACTIVE}
	u2 := &models.User{ID: 2, Status: models.STATUS_ACTIVE, Tier: models.TierOro}
	users := newFakeUserRepo(u1, u2)
	pays := &fakePaymentRepo{payments: []*models.Payment{
		successfulPayment(1, 5, now),
		successfulPayment(2, 45, now), // aged out of the window
	}}

	svc := NewService(users, pays)
	svc.now = func() time.Time { return now }

	n, err := svc.RecalculateAll()
	if err != nil {
		t.Fatalf("RecalculateAll: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 users processed, got %d", n)
	}
	if u1.Tier != models.TierBronce {
		t.Fatalf("user 1 tier = %d, want %d", u1.Tier, models.TierBronce)
	}
	if u2.Tier != models.TierFree {
		t.Fatalf("user 2 should have decayed to free, got %d", u2.Tier)
	}
}

func TestHandleSuccessfulPaymentUpgradesImmediately(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	user := &models.User{ID: 1, Status: models.STATUS_ACTIVE, Tier: models.TierPlata}
	users := newFakeUserRepo(user)
	pays := &fakePaymentRepo{payments: []*models.Payment{
		successfulPayment(1, 1, now),
		successfulPayment(1, 2, now),
		successfulPayment(1, 3, now),
	}}

	svc := NewService(users, pays)
	svc.now = func() time.Time { return now }

	result, err := svc.HandleSuccessfulPayment(1)
	if err != nil {
		t.Fatalf("HandleSuccessfulPayment: %v", err)
	}
	if result.NewTier != models.TierOro {
		t.Fatalf("expected immediate upgrade to oro, got %d", result.NewTier)
	}
}
