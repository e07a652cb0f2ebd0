package entitlements

import "github.com/abogadai/abogadai/app/models"

// Limits is the per-tier session allowance table. TotalMinutes is nil when the
// tier has no daily minute cap; that pointer is the only "unlimited" encoding.
type Limits struct {
	SessionsPerDay    int  `json:"sessions_per_day"`
	MinutesPerSession int  `json:"minutes_per_session"`
	TotalMinutes      *int `json:"total_minutes"`
}

// totalMinutesByTier uses -1 for "uncapped"; ForTier turns everything else
// into a fresh pointer so callers can never alias into this table.
var totalMinutesByTier = map[int]int{
	models.TierFree:   30,
	models.TierBronce: 50,
	models.TierPlata:  70,
	models.TierOro:    -1,
}

var limitsByTier = map[int]Limits{
	models.TierFree:   {SessionsPerDay: 3, MinutesPerSession: 10},
	models.TierBronce: {SessionsPerDay: 5, MinutesPerSession: 10},
	models.TierPlata:  {SessionsPerDay: 7, MinutesPerSession: 10},
	models.TierOro:    {SessionsPerDay: 10, MinutesPerSession: 15},
}

var namesByTier = map[int]string{
	models.TierFree:   "FREE",
	models.TierBronce: "BRONCE",
	models.TierPlata:  "PLATA",
	models.TierOro:    "ORO",
}

// TierForPaymentCount buckets a trailing-30-day successful payment count into
// a tier: 0 -> FREE, 1 -> BRONCE, 2 -> PLATA, 3 or more -> ORO.
func TierForPaymentCount(payments int) int {
	switch {
	case payments <= 0:
		return models.TierFree
	case payments == 1:
		return models.TierBronce
	case payments == 2:
		return models.TierPlata
	default:
		return models.TierOro
	}
}

// ForTier returns the allowance row for a tier. Unknown tiers fall back to
// the FREE row rather than failing. Each call builds its own TotalMinutes
// pointer, so mutating a returned Limits never leaks into other callers.
func ForTier(tier int) Limits {
	l, ok := limitsByTier[tier]
	if !ok {
		tier = models.TierFree
		l = limitsByTier[tier]
	}
	if total := totalMinutesByTier[tier]; total >= 0 {
		l.TotalMinutes = &total
	}
	return l
}

// TierName returns the display name for a tier, FREE for anything unknown.
func TierName(tier int) string {
	if n, ok := namesByTier[tier]; ok {
		return n
	}
	return namesByTier[models.TierFree]
}
