package models

import "time"

// DailyUsage tracks per-user session consumption for one calendar day. There
// is at most one row per (user, date); it is created lazily on the first
// session of the day and swept after 90 days. The allowance columns are
// snapshots taken at row creation so later tier or limit changes never rewrite
// what a past day permitted.
type DailyUsage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:ux_daily_usage_user_date,unique,priority:1" json:"user_id"`
	UsageDate time.Time `gorm:"type:date;not null;index:ux_daily_usage_user_date,unique,priority:2;index" json:"usage_date"`

	SessionsCreated int `gorm:"not null;default:0" json:"sessions_created"`
	MinutesConsumed int `gorm:"not null;default:0" json:"minutes_consumed"`

	// Snapshots for audit.
	BaseSessionsAllowed int `gorm:"not null" json:"base_sessions_allowed"`
	BonusSessions       int `gorm:"not null;default:0" json:"bonus_sessions"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (DailyUsage) TableName() string {
	return "daily_usage"
}

// AvailableSessions returns how many sessions remain today, never negative.
func (d *DailyUsage) AvailableSessions() int {
	remaining := d.BaseSessionsAllowed + d.BonusSessions - d.SessionsCreated
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AvailableMinutes returns remaining minutes against a daily total, or nil
// when the caller's tier has no daily minute cap. The nil sentinel is the only
// representation of "unlimited"; it is never encoded as a large number.
func (d *DailyUsage) AvailableMinutes(totalLimit *int) *int {
	if totalLimit == nil {
		return nil
	}
	remaining := *totalLimit - d.MinutesConsumed
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
