package tiering

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/repository"
	"github.com/abogadai/abogadai/internal/pkg/cache"
	"github.com/abogadai/abogadai/internal/pkg/entitlements"
)

// TierWindowDays is the trailing window over which successful payments count
// towards a user's tier. The lower bound is inclusive.
const TierWindowDays = 30

const limitsCacheTTL = 6 * time.Hour

// ErrUserNotFound is returned when a tier operation references an unknown user.
var ErrUserNotFound = errors.New("tiering: user not found")

// Service computes and caches user tiers from payment history. The tier
// column on users is an explicit cache with exactly two invalidation points:
// RecalculateAll (nightly) and HandleSuccessfulPayment (post-payment hook).
type Service struct {
	users    repository.UserRepository
	payments repository.PaymentRepository
	now      func() time.Time
}

// NewService creates a tiering service from injected repositories.
func NewService(users repository.UserRepository, payments repository.PaymentRepository) *Service {
	return &Service{users: users, payments: payments, now: time.Now}
}

// CalculateTier derives the tier for one user from the payment ledger without
// touching the cached columns.
func (s *Service) CalculateTier(userID uint) (int, error) {
	count, err := s.countRecentPayments(userID)
	if err != nil {
		return 0, err
	}
	return entitlements.TierForPaymentCount(count), nil
}

// RecalcResult reports one user's tier recomputation.
type RecalcResult struct {
	UserID       uint      `json:"user_id"`
	PreviousTier int       `json:"previous_tier"`
	NewTier      int       `json:"new_tier"`
	Payments     int       `json:"payments_last_30_days"`
	RecalcAt     time.Time `json:"recalc_at"`
}

// RecalculateUser recomputes and persists one user's tier and invalidates the
// cached entitlement snapshot.
func (s *Service) RecalculateUser(userID uint) (*RecalcResult, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	count, err := s.countRecentPayments(userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	tier := entitlements.TierForPaymentCount(count)
	if err := s.users.UpdateTierFields(userID, tier, count, now); err != nil {
		return nil, err
	}
	s.invalidateLimits(userID)

	return &RecalcResult{
		UserID:       userID,
		PreviousTier: user.Tier,
		NewTier:      tier,
		Payments:     count,
		RecalcAt:     now,
	}, nil
}

// HandleSuccessfulPayment is the synchronous post-payment hook: it runs right
// after a payment succeeds so entitlements reflect the new state without
// waiting for the nightly batch.
func (s *Service) HandleSuccessfulPayment(userID uint) (*RecalcResult, error) {
	return s.RecalculateUser(userID)
}

// RecalculateAll recomputes every user's tier and writes the whole batch in a
// single transaction. Returns the number of users processed.
func (s *Service) RecalculateAll() (int, error) {
	users, err := s.users.ListAll()
	if err != nil {
		return 0, err
	}

	now := s.now()
	updates := make([]repository.TierUpdate, 0, len(users))
	for _, user := range users {
		count, err := s.countRecentPayments(user.ID)
		if err != nil {
			return 0, err
		}
		updates = append(updates, repository.TierUpdate{
			UserID:         user.ID,
			Tier:           entitlements.TierForPaymentCount(count),
			PaymentsLast30: count,
			RecalcAt:       now,
		})
	}

	if err := s.users.UpdateTierFieldsBulk(updates); err != nil {
		return 0, err
	}
	for _, u := range updates {
		s.invalidateLimits(u.UserID)
	}
	return len(updates), nil
}

// UserLimits is the entitlement snapshot handed to the session layer.
type UserLimits struct {
	Tier     int                `json:"tier"`
	TierName string             `json:"tier_name"`
	Limits   entitlements.Limits `json:"limits"`
}

// GetUserLimits returns the current entitlement snapshot for a user, served
// from the redis cache when possible. The cached copy is dropped whenever the
// tier is recomputed, so it can never outlive a tier change.
func (s *Service) GetUserLimits(userID uint) (*UserLimits, error) {
	key := limitsCacheKey(userID)
	if raw, err := cache.Get(key); err == nil {
		var cached UserLimits
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	limits := &UserLimits{
		Tier:     user.Tier,
		TierName: entitlements.TierName(user.Tier),
		Limits:   entitlements.ForTier(user.Tier),
	}
	if payload, err := json.Marshal(limits); err == nil {
		if err := cache.Set(key, payload, limitsCacheTTL); err != nil {
			log.Debugf("[Tiering] could not cache limits for user %d: %v", userID, err)
		}
	}
	return limits, nil
}

func (s *Service) countRecentPayments(userID uint) (int, error) {
	cutoff := s.now().AddDate(0, 0, -TierWindowDays)
	count, err := s.payments.CountSuccessfulSince(userID, cutoff)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *Service) invalidateLimits(userID uint) {
	if err := cache.Delete(limitsCacheKey(userID)); err != nil {
		log.Debugf("[Tiering] could not invalidate limits cache for user %d: %v", userID, err)
	}
}

func limitsCacheKey(userID uint) string {
	return fmt.Sprintf("entitlements:user:%d", userID)
}
