// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically expires idle sessions on a cron schedule.
type Sweeper struct {
	cron *cron.Cron
}

// StartSweeper schedules Sweep(ttl) on the store using a standard
// five-field cron expression and starts it. Stop the returned sweeper
// on shutdown.
func StartSweeper(store *Store, ttl time.Duration, schedule string, logger *slog.Logger) (*Sweeper, error) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		removed := store.Sweep(ttl)
		if len(removed) > 0 {
			logger.Info("swept expired sessions", "count", len(removed), "ttl", ttl.String())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid cleanup schedule %q: %w", schedule, err)
	}

	c.Start()
	return &Sweeper{cron: c}, nil
}

// Stop halts the schedule. Running sweeps finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
