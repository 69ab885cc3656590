// Package cleanup expires render caches that were never discarded, such as
// those left behind when the host stopped in the middle of a render.
package cleanup

import (
	"context"
	"time"

	"github.com/birbparty/birb-fetch/internal/telemetry"
	"github.com/sirupsen/logrus"
)

// Expirer is the store a Sweeper maintains
type Expirer interface {
	ExpirePersistent(ctx context.Context, prefix string, ttl time.Duration) (int, error)
}

// Sweeper periodically gives orphaned render keys an expiry so Redis
// reclaims them.
type Sweeper struct {
	store  Expirer
	config SweepConfig
}

// SweepConfig contains configuration for the sweeper
type SweepConfig struct {
	// Prefix selects the keys to sweep, relative to the cache key prefix
	Prefix    string
	OrphanTTL time.Duration
	Interval  time.Duration
}

// NewSweeper creates a new sweeper
func NewSweeper(store Expirer, config SweepConfig) *Sweeper {
	if config.Prefix == "" {
		config.Prefix = "render:"
	}
	if config.OrphanTTL == 0 {
		config.OrphanTTL = 10 * time.Minute
	}
	if config.Interval == 0 {
		config.Interval = 5 * time.Minute
	}

	return &Sweeper{
		store:  store,
		config: config,
	}
}

// Start runs a sweep immediately and then on every interval until ctx ends
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	log := s.log()
	log.Info("Sweeper started")

	s.Sweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			log.Info("Sweeper stopped")
			return
		}
	}
}

// Sweep runs one cycle and returns the number of keys given an expiry
func (s *Sweeper) Sweep(ctx context.Context) int {
	n, err := s.store.ExpirePersistent(ctx, s.config.Prefix, s.config.OrphanTTL)
	if err != nil {
		s.log().WithError(err).WithField("expired", n).Error("Sweep failed")
		return n
	}
	if n > 0 {
		s.log().WithField("expired", n).Info("Orphaned render keys expired")
	}
	return n
}

func (s *Sweeper) log() *logrus.Entry {
	return telemetry.L().WithFields(logrus.Fields{
		"component":  "sweeper",
		"prefix":     s.config.Prefix,
		"orphan_ttl": s.config.OrphanTTL.String(),
	})
}
