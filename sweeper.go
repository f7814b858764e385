package authcore

import (
	"context"
	"log/slog"
	"time"

	"github.com/mdreyer7/authcore/session"
)

// sweeper periodically removes session records whose stored expiry has
// passed. Redis TTLs already bound record lifetime; the sweeper tightens the
// window for records written with loose TTLs.
type sweeper struct {
	store    *session.Store
	interval time.Duration
	logger   *slog.Logger
	done     chan struct{}
	stopped  chan struct{}
}

func startSweeper(store *session.Store, interval time.Duration, logger *slog.Logger) *sweeper {
	sw := &sweeper{
		store:    store,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go sw.run()
	return sw
}

func (sw *sweeper) run() {
	defer close(sw.stopped)

	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := sw.store.Sweep(context.Background())
			if err != nil {
				sw.logger.Warn("session sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				sw.logger.Info("session sweep", "removed", removed)
			}
		case <-sw.done:
			return
		}
	}
}

func (sw *sweeper) stop() {
	if sw == nil {
		return
	}
	close(sw.done)
	<-sw.stopped
}
