package starbaseapp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/catherinevee/starfleet/internal/dispatcher"
	"github.com/catherinevee/starfleet/internal/fanout"
	"github.com/catherinevee/starfleet/internal/registry"
)

// TimedEvent is the invocation payload for the timed entrypoint, woken
// periodically on a schedule external to this process: {"name": "<frequency-token>"}.
type TimedEvent struct {
	Frequency registry.TimedFrequency `json:"name"`
}

// HandleTimedEvent runs stage 1 of tasking for one timed frequency bucket.
func (a *App) HandleTimedEvent(ctx context.Context, event TimedEvent) error {
	return dispatcher.DispatchTimed(ctx, a.DispatcherDeps, event.Frequency)
}

// FanOutMessage is the wire shape of a fan-out queue message body:
// {"worker_ship": "...", "template_prefix": "..."}.
type FanOutMessage struct {
	WorkerName   string `json:"worker_ship"`
	TemplatePath string `json:"template_prefix"`
}

// HandleFanOutMessage runs stage 2 of tasking for a single fan-out queue
// message.
func (a *App) HandleFanOutMessage(ctx context.Context, body []byte) error {
	var msg FanOutMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decoding fan-out message: %w", err)
	}
	return fanout.FanOut(ctx, a.FanOutDeps, fanout.Request{WorkerName: msg.WorkerName, TemplatePath: msg.TemplatePath})
}

// HandleStoreChangeEvent routes a single object-store change notification
// record to its owning worker, fanning out directly in this same call.
func (a *App) HandleStoreChangeEvent(ctx context.Context, event dispatcher.StoreChangeEvent) error {
	return dispatcher.DispatchStoreChange(ctx, a.DispatcherDeps, event)
}
