package usage

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/models"
	"github.com/abogadai/abogadai/app/repository"
	"github.com/abogadai/abogadai/internal/pkg/entitlements"
)

var (
	// ErrUserNotFound is returned when a usage operation references an unknown user.
	ErrUserNotFound = errors.New("usage: user not found")
	// ErrSessionLimitReached is returned when today's session allowance is exhausted.
	ErrSessionLimitReached = errors.New("usage: daily session limit reached")
	// ErrMinuteLimitReached is returned when today's minute allowance is exhausted.
	ErrMinuteLimitReached = errors.New("usage: daily minute limit reached")
)

// Tracker enforces the per-day session allowances derived from a user's tier.
// Day rows are created lazily on the first session of the day, snapshotting
// the allowance in force at that moment.
type Tracker struct {
	users repository.UserRepository
	usage repository.UsageRepository
	now   func() time.Time
}

// NewTracker creates a usage tracker from injected repositories.
func NewTracker(users repository.UserRepository, usage repository.UsageRepository) *Tracker {
	return &Tracker{users: users, usage: usage, now: time.Now}
}

// Snapshot is the current day's usage state for one user.
type Snapshot struct {
	Tier              int  `json:"tier"`
	SessionsCreated   int  `json:"sessions_created"`
	MinutesConsumed   int  `json:"minutes_consumed"`
	AvailableSessions int  `json:"available_sessions"`
	// AvailableMinutes is nil when the tier has no daily minute cap.
	AvailableMinutes  *int `json:"available_minutes"`
	MinutesPerSession int  `json:"minutes_per_session"`
}

// GetOrCreateToday returns today's usage row for a user, creating it lazily
// with the allowance snapshot for the user's current tier.
func (t *Tracker) GetOrCreateToday(userID uint) (*models.DailyUsage, error) {
	user, err := t.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	today := t.today()
	row, err := t.usage.GetForDate(userID, today)
	if err == nil {
		return row, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	limits := entitlements.ForTier(user.Tier)
	row = &models.DailyUsage{
		UserID:              userID,
		UsageDate:           today,
		BaseSessionsAllowed: limits.SessionsPerDay,
		BonusSessions:       user.BonusSessionsToday,
	}
	if err := t.usage.Create(row); err != nil {
		return nil, err
	}
	return row, nil
}

// Today returns the current usage snapshot without consuming anything. A
// pure read: when no day row exists yet the snapshot is computed from the
// current allowances and the row stays uncreated until the first session.
func (t *Tracker) Today(userID uint) (*Snapshot, error) {
	user, err := t.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	row, err := t.usage.GetForDate(userID, t.today())
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		limits := entitlements.ForTier(user.Tier)
		row = &models.DailyUsage{
			UserID:              userID,
			UsageDate:           t.today(),
			BaseSessionsAllowed: limits.SessionsPerDay,
			BonusSessions:       user.BonusSessionsToday,
		}
	}
	return t.snapshot(user.Tier, row), nil
}

// StartSession consumes one session from today's allowance. It fails without
// mutating anything when either the session or the minute budget is exhausted.
func (t *Tracker) StartSession(userID uint) (*Snapshot, error) {
	user, err := t.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	row, err := t.GetOrCreateToday(userID)
	if err != nil {
		return nil, err
	}

	if row.AvailableSessions() == 0 {
		return nil, ErrSessionLimitReached
	}
	limits := entitlements.ForTier(user.Tier)
	if remaining := row.AvailableMinutes(limits.TotalMinutes); remaining != nil && *remaining == 0 {
		return nil, ErrMinuteLimitReached
	}

	row.SessionsCreated++
	if err := t.usage.Update(row); err != nil {
		return nil, err
	}
	return t.snapshot(user.Tier, row), nil
}

// AddMinutes accumulates consumed minutes onto today's row.
func (t *Tracker) AddMinutes(userID uint, minutes int) (*Snapshot, error) {
	if minutes < 0 {
		minutes = 0
	}
	user, err := t.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	row, err := t.GetOrCreateToday(userID)
	if err != nil {
		return nil, err
	}

	row.MinutesConsumed += minutes
	if err := t.usage.Update(row); err != nil {
		return nil, err
	}
	return t.snapshot(user.Tier, row), nil
}

// GrantBonusSession adds one same-day extra session from a successful
// payment. The grant lands on the user row and is mirrored into today's
// usage row if it already exists; it expires with the midnight reset.
func (t *Tracker) GrantBonusSession(userID uint) error {
	user, err := t.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	user.BonusSessionsToday++
	if err := t.users.Update(user); err != nil {
		return err
	}

	row, err := t.usage.GetForDate(userID, t.today())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No row yet today; the lazy creation will pick the bonus up.
			return nil
		}
		return err
	}
	row.BonusSessions++
	return t.usage.Update(row)
}

// ResetDailyBonuses zeroes every user's bonus sessions. Runs at midnight;
// bonuses are single-day grants and never carry over.
func (t *Tracker) ResetDailyBonuses() (int64, error) {
	return t.users.ResetBonusSessions()
}

func (t *Tracker) snapshot(tier int, row *models.DailyUsage) *Snapshot {
	limits := entitlements.ForTier(tier)
	return &Snapshot{
		Tier:              tier,
		SessionsCreated:   row.SessionsCreated,
		MinutesConsumed:   row.MinutesConsumed,
		AvailableSessions: row.AvailableSessions(),
		AvailableMinutes:  row.AvailableMinutes(limits.TotalMinutes),
		MinutesPerSession: limits.MinutesPerSession,
	}
}

func (t *Tracker) today() time.Time {
	now := t.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
