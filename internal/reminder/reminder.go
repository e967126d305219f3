// Package reminder contains the post-reminder loop. It periodically finds
// users who have not posted for a while and nudges them through the
// notification collaborator.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/miraj-net/miraj/internal/notifier"
	"github.com/miraj-net/miraj/internal/storage"
)

var log = logrus.WithField("package", "reminder")

// Reminder ...
type Reminder struct {
	s storage.Storage
	n notifier.Notifier

	interval  time.Duration
	staleness time.Duration
}

// New creates new instance of Reminder. Every interval it reminds users
// whose last post is older than staleness.
func New(s storage.Storage, n notifier.Notifier, interval, staleness time.Duration) *Reminder {
	return &Reminder{
		s:         s,
		n:         n,
		interval:  interval,
		staleness: staleness,
	}
}

// Run starts the loop and blocks until ctx is done.
func (r *Reminder) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if err := r.remind(ctx); err != nil {
				log.WithError(err).Error("failed to remind users")
			}
		}
	}
}

func (r *Reminder) remind(ctx context.Context) error {
	ids, err := r.s.ListStaleUsers(ctx, time.Now().UTC().Add(-r.staleness))
	if err != nil {
		return fmt.Errorf("failed to list stale users: %w", err)
	}

	for _, id := range ids {
		// at-most-once, a failed nudge is only logged
		if err := r.n.PostReminder(ctx, id); err != nil {
			log.WithError(err).WithField("user", id).Error("failed to send reminder")
		}
	}

	return nil
}

// Ping implements health.Pinger.
func (r *Reminder) Ping(ctx context.Context) (interface{}, error) {
	if _, err := r.s.ListStaleUsers(ctx, time.Now().UTC()); err != nil {
		return nil, err
	}

	return nil, nil
}

// Name implements health.Pinger.
func (r *Reminder) Name() string {
	return "reminder"
}
