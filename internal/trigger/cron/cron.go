package cron

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caesium-cloud/cimon/internal/metrics"
	"github.com/caesium-cloud/cimon/internal/models"
	"github.com/caesium-cloud/cimon/internal/syncer"
	"github.com/caesium-cloud/cimon/internal/trigger"
	"github.com/caesium-cloud/cimon/pkg/log"
	"github.com/robfig/cron"
)

// Config selects when scheduled syncs run.
type Config struct {
	Expression string
	Timezone   string
}

type Cron struct {
	schedule   cron.Schedule
	expression string
	location   *time.Location
	syncer     syncer.Syncer
	now        func() time.Time
}

var _ trigger.Trigger = (*Cron)(nil)

// Expression derives a schedule from a polling interval in minutes.
func Expression(minutes int) string {
	minutes = models.ClampPollingInterval(minutes)
	if minutes >= 60 {
		return "0 * * * *"
	}
	return fmt.Sprintf("*/%d * * * *", minutes)
}

func New(cfg Config, s syncer.Syncer) (*Cron, error) {
	expr := strings.TrimSpace(cfg.Expression)
	if expr == "" {
		return nil, fmt.Errorf("cron trigger configuration missing expression")
	}

	loc, err := extractLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	parser := cron.NewParser(
		cron.Minute |
			cron.Hour |
			cron.Dom |
			cron.Month |
			cron.Dow,
	)

	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, err
	}

	return &Cron{
		schedule:   sched,
		expression: expr,
		location:   loc,
		syncer:     s,
		now:        time.Now,
	}, nil
}

// Run fires on every tick until ctx is done.
func (c *Cron) Run(ctx context.Context) error {
	log.Info("trigger listening", "schedule", c.expression)

	for ctx.Err() == nil {
		c.Listen(ctx)
	}
	return nil
}

// Listen waits for the next tick and fires once.
func (c *Cron) Listen(ctx context.Context) {
	timer := time.NewTimer(time.Until(c.nextTick()))
	defer timer.Stop()

	select {
	case <-timer.C:
		if err := c.Fire(ctx); err != nil {
			log.Error("scheduled sync failure", "schedule", c.expression, "error", err)
		}
	case <-ctx.Done():
		return
	}
}

func (c *Cron) Fire(ctx context.Context) error {
	log.Info("trigger firing", "schedule", c.expression)
	metrics.SchedulerFiresTotal.WithLabelValues(c.expression).Inc()

	result := c.syncer.SyncAll(ctx)
	log.Info("scheduled sync finished", "summary", result.Summary())

	return result.Err()
}

func (c *Cron) ID() string {
	return c.expression
}

func extractLocation(tz string) (*time.Location, error) {
	if strings.TrimSpace(tz) == "" {
		return nil, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

func (c *Cron) nextTick() time.Time {
	base := c.now()
	if c.location != nil {
		base = base.In(c.location)
	}
	return c.schedule.Next(base)
}
