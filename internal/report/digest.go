// Package report runs the daily calorie digest: once per schedule it
// sums every user's previous-day calories and logs a RED/GREEN line
// against the configured expectation. Read-only; it never mutates
// storage.
package report

import (
	"context"
	"sync"
	"time"

	"github.com/meal-tracker/internal/config"
	"github.com/meal-tracker/internal/logger"
	"github.com/meal-tracker/internal/mealquery"
	"github.com/meal-tracker/internal/model"
	"github.com/robfig/cron/v3"
)

type UserLister interface {
	FindAll(ctx context.Context) ([]model.User, error)
}

type MealLister interface {
	FindByOwner(ctx context.Context, ownerID string) ([]model.Meal, error)
}

// Digest owns the cron entry and its lifecycle.
type Digest struct {
	cron    *cron.Cron
	users   UserLister
	meals   MealLister
	cfg     config.DigestConfig
	log     *logger.Logger
	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewDigest(cfg config.DigestConfig, users UserLister, meals MealLister, log *logger.Logger) *Digest {
	return &Digest{
		cron:  cron.New(cron.WithSeconds()),
		users: users,
		meals: meals,
		cfg:   cfg,
		log:   log,
	}
}

// Start schedules the digest and starts the cron loop.
func (d *Digest) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return nil
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	_, err := d.cron.AddFunc(d.cfg.Schedule, func() {
		d.Run(d.ctx, time.Now())
	})
	if err != nil {
		return err
	}

	d.cron.Start()
	d.running = true
	d.log.Info().Str("schedule", d.cfg.Schedule).Msg("daily digest started")
	return nil
}

// Stop stops the cron loop and waits for a running digest to finish.
func (d *Digest) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return
	}

	d.cancel()
	<-d.cron.Stop().Done()
	d.running = false
	d.log.Info().Msg("daily digest stopped")
}

func (d *Digest) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Run produces one digest for the day before now. Split out from the
// cron closure so tests can invoke it with a fixed clock.
func (d *Digest) Run(ctx context.Context, now time.Time) {
	day := now.AddDate(0, 0, -1)

	users, err := d.users.FindAll(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("digest: failed to list users")
		return
	}

	for _, user := range users {
		// Managers hold no meal data; nothing to report.
		if user.Role == model.UserRoleManager {
			continue
		}

		meals, err := d.meals.FindByOwner(ctx, user.ID)
		if err != nil {
			d.log.Error().Err(err).Str("user_id", user.ID).Msg("digest: failed to list meals")
			continue
		}

		total := mealquery.DailyTotal(meals, day)
		status := mealquery.StatusGreen
		if total >= d.cfg.CalorieExpected {
			status = mealquery.StatusRed
		}

		d.log.Info().
			Str("user_id", user.ID).
			Str("email", user.Email).
			Str("day", day.Format("2006-01-02")).
			Int("calories", total).
			Int("expected", d.cfg.CalorieExpected).
			Str("status", string(status)).
			Msg("daily calorie digest")
	}
}
