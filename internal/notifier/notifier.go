// Package notifier contains interface of the push-notification collaborator.
// Delivery is fire-and-forget, at-most-once.
package notifier

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

//go:generate mockgen -destination=./mock/notifier.go -package=mock -source=notifier.go

// Notifier accepts user-activity events for out-of-band delivery.
type Notifier interface {
	// LastPostedChanged tells the collaborator that the user's last-posted
	// mark moved.
	LastPostedChanged(ctx context.Context, userID string, t time.Time) error
	// PostReminder asks the collaborator to nudge the user to post.
	PostReminder(ctx context.Context, userID string) error
}

type logNotifier struct {
	log *logrus.Entry
}

// NewLog returns a Notifier which writes events to the log. It stands in
// for a real delivery service.
func NewLog() Notifier {
	return logNotifier{
		log: logrus.WithField("package", "notifier"),
	}
}

func (n logNotifier) LastPostedChanged(_ context.Context, userID string, t time.Time) error {
	n.log.WithField("user", userID).WithField("last_posted_at", t).Info("last posted changed")
	return nil
}

func (n logNotifier) PostReminder(_ context.Context, userID string) error {
	n.log.WithField("user", userID).Info("post reminder")
	return nil
}
