package hook

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/reactcam/internal/gesture"
	"github.com/ayusman/reactcam/internal/live"
)

// Dispatcher runs the subscribed hooks every time the label changes.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
	log      logrus.FieldLogger
}

// NewDispatcher creates a Dispatcher over the hooks in manager.
func NewDispatcher(manager *Manager, executor *Executor, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		manager:  manager,
		executor: executor,
		log:      log.WithField("component", "hooks"),
	}
}

// Run consumes hub updates until ctx is cancelled. Hooks run one at a time
// on this goroutine; changes published while a hook runs may be dropped by
// the hub.
func (d *Dispatcher) Run(ctx context.Context, hub *live.Hub) {
	updates, cancel := hub.Subscribe(4)
	defer cancel()

	previous := hub.Latest().Label
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if u.Label == previous {
				continue
			}
			d.Dispatch(ctx, &Event{
				Event:     EventReactionChanged,
				Label:     u.Label.String(),
				Title:     u.Title,
				Previous:  previous.String(),
				Timestamp: u.Timestamp,
			}, u.Label)
			previous = u.Label
		}
	}
}

// Dispatch runs every hook subscribed to label and returns how many
// succeeded.
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event, label gesture.Label) int {
	ok := 0
	for _, h := range d.manager.For(label) {
		log := d.log.WithFields(logrus.Fields{"hook": h.Manifest.Name, "label": event.Label})

		resp, err := d.executor.Execute(ctx, h, event)
		if err != nil {
			log.WithError(err).Warn("hook failed")
			continue
		}
		if !resp.Success {
			log.WithField("error", resp.Error).Warn("hook reported failure")
			continue
		}
		log.Debug("hook ran")
		ok++
	}
	return ok
}
