package metrics

import (
	"context"
	"time"

	"github.com/gridhub/aggcoord/core/coordinator"
	coremetrics "github.com/gridhub/aggcoord/core/metrics"
	"github.com/gridhub/aggcoord/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records job lifecycle
// events on the sink. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.Sink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	starts := map[string]time.Time{}
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				e, ok := ev.(coordinator.JobStateEvent)
				if !ok {
					continue
				}
				if _, seen := starts[e.JobID]; !seen {
					starts[e.JobID] = e.Time
				}
				terminal := e.State.Terminal()
				var dur time.Duration
				if terminal {
					dur = e.Time.Sub(starts[e.JobID])
					delete(starts, e.JobID)
				}
				_ = sink.RecordJobState(coremetrics.JobStateEvent{
					JobID:       e.JobID,
					ProcessType: e.ProcessType.String(),
					State:       e.State.String(),
					Terminal:    terminal,
					Duration:    dur,
					Time:        e.Time,
				})
			}
		}
	}()
}
