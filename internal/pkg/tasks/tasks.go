package tasks

import (
	"time"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/abogadai/abogadai/app/repository"
	"github.com/abogadai/abogadai/internal/pkg/cleanup"
	"github.com/abogadai/abogadai/internal/pkg/tiering"
	"github.com/abogadai/abogadai/internal/pkg/usage"
)

// Result is the outcome of one batch step. Errors are captured into the
// payload instead of propagating; the scheduler decides what to do with a
// failed run.
type Result struct {
	Name       string    `json:"name"`
	Count      int64     `json:"count"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Succeeded reports whether every step in a run came back clean.
func Succeeded(results []Result) bool {
	for _, r := range results {
		if !r.Success {
			return false
		}
	}
	return true
}

// Runner bundles the services behind the scheduled maintenance entry points.
// Runs are not guarded against overlapping invocations; the external
// scheduler is expected to not start a run while the previous one is alive.
type Runner struct {
	tiers   *tiering.Service
	tracker *usage.Tracker
	sweeper *cleanup.Sweeper
}

// NewRunner creates a task runner from injected services.
func NewRunner(tiers *tiering.Service, tracker *usage.Tracker, sweeper *cleanup.Sweeper) *Runner {
	return &Runner{tiers: tiers, tracker: tracker, sweeper: sweeper}
}

// NewRunnerFromDB creates a task runner from a GORM DB handle.
func NewRunnerFromDB(db *gorm.DB) *Runner {
	repos := repository.NewRepositories(db)
	return NewRunner(
		tiering.NewService(repos.User, repos.Payment),
		usage.NewTracker(repos.User, repos.Usage),
		cleanup.NewSweeper(repos.Case, repos.Usage),
	)
}

// Midnight is the 00:00 batch: recalculate every tier, expire the day's bonus
// sessions, and drop usage rows past the retention window.
func (r *Runner) Midnight() []Result {
	return []Result{
		r.step("recalculate_tiers", func() (int64, error) {
			n, err := r.tiers.RecalculateAll()
			return int64(n), err
		}),
		r.step("reset_daily_bonuses", r.tracker.ResetDailyBonuses),
		r.step("sweep_stale_usage", func() (int64, error) {
			return r.sweeper.SweepStaleUsage(cleanup.DefaultUsageAgeDays)
		}),
	}
}

// Cleanup is the 01:00 batch: remove expired unpaid documents and abandoned
// drafts.
func (r *Runner) Cleanup() []Result {
	return []Result{
		r.step("sweep_expired_documents", r.sweeper.SweepExpiredDocuments),
		r.step("sweep_abandoned_drafts", func() (int64, error) {
			return r.sweeper.SweepAbandonedDrafts(cleanup.DefaultDraftAgeDays)
		}),
	}
}

// RunAll executes both batches in order, for manual maintenance.
func (r *Runner) RunAll() []Result {
	results := r.Midnight()
	return append(results, r.Cleanup()...)
}

func (r *Runner) step(name string, fn func() (int64, error)) Result {
	result := Result{Name: name, StartedAt: time.Now()}

	count, err := fn()
	result.Count = count
	result.FinishedAt = time.Now()
	if err != nil {
		result.Error = err.Error()
		log.Errorf("[Tasks] %s failed: %v", name, err)
		return result
	}

	result.Success = true
	log.Infof("[Tasks] %s completed, %d rows affected", name, count)
	return result
}
