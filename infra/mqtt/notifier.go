package mqtt

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kilianp07/dayplan/core/events"
	coremqtt "github.com/kilianp07/dayplan/core/mqtt"
	"github.com/kilianp07/dayplan/infra/logger"
	"github.com/kilianp07/dayplan/internal/eventbus"
)

// Notifier publishes schedule events as JSON on
// <prefix>/<user>/<date>/committed and <prefix>/<user>/<date>/rejected.
type Notifier struct {
	pub    coremqtt.Publisher
	prefix string
	log    logger.Logger
}

// NewNotifier returns a notifier publishing through pub under prefix.
func NewNotifier(pub coremqtt.Publisher, prefix string) *Notifier {
	if prefix == "" {
		prefix = "dayplan"
	}
	return &Notifier{pub: pub, prefix: strings.TrimSuffix(prefix, "/"), log: logger.New("mqtt_notifier")}
}

// CommittedTopic returns the topic of committed schedules of user on date.
func (n *Notifier) CommittedTopic(user, date string) string {
	return n.prefix + "/" + topicLevel(user) + "/" + topicLevel(date) + "/committed"
}

// RejectedTopic returns the topic of rejected requests of user on date.
func (n *Notifier) RejectedTopic(user, date string) string {
	return n.prefix + "/" + topicLevel(user) + "/" + topicLevel(date) + "/rejected"
}

// NotifyCommitted publishes ev.
func (n *Notifier) NotifyCommitted(ev events.ScheduleCommitted) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.pub.Publish(n.CommittedTopic(ev.User, ev.Date), payload)
}

// NotifyRejected publishes ev.
func (n *Notifier) NotifyRejected(ev events.ScheduleRejected) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.pub.Publish(n.RejectedTopic(ev.User, ev.Date), payload)
}

// Start forwards events from the buses until ctx is canceled or both buses
// are closed. Either bus may be nil. Publish failures are logged. The
// returned channel is closed once forwarding has stopped.
func (n *Notifier) Start(ctx context.Context,
	committed *eventbus.TypedBus[events.ScheduleCommitted],
	rejected *eventbus.TypedBus[events.ScheduleRejected]) <-chan struct{} {
	done := make(chan struct{})
	var okSub <-chan events.ScheduleCommitted
	var failSub <-chan events.ScheduleRejected
	if committed != nil {
		okSub = committed.Subscribe()
	}
	if rejected != nil {
		failSub = rejected.Subscribe()
	}
	go func() {
		defer close(done)
		defer func() {
			if committed != nil {
				committed.Unsubscribe(okSub)
			}
			if rejected != nil {
				rejected.Unsubscribe(failSub)
			}
		}()
		for okSub != nil || failSub != nil {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-okSub:
				if !ok {
					okSub = nil
					continue
				}
				if err := n.NotifyCommitted(ev); err != nil {
					n.log.Errorf("notify committed %s/%s: %v", ev.User, ev.Date, err)
				}
			case ev, ok := <-failSub:
				if !ok {
					failSub = nil
					continue
				}
				if err := n.NotifyRejected(ev); err != nil {
					n.log.Errorf("notify rejected %s/%s: %v", ev.User, ev.Date, err)
				}
			}
		}
	}()
	return done
}

// topicLevel makes s safe as a single topic level.
func topicLevel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#':
			return '_'
		}
		return r
	}, s)
}
