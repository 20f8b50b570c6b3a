// Package dispatcher implements the first stage of tasking: matching timed
// events against enabled workers and batching fan-out requests, or routing
// a store-change event to its owning worker.
package dispatcher

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/catherinevee/starfleet/internal/fanout"
	"github.com/catherinevee/starfleet/internal/metrics"
	"github.com/catherinevee/starfleet/internal/objectstore"
	"github.com/catherinevee/starfleet/internal/queue"
	"github.com/catherinevee/starfleet/internal/registry"
	"github.com/catherinevee/starfleet/internal/starerrors"
	"github.com/catherinevee/starfleet/internal/templates"
)

// Deps bundles the dispatcher's collaborators, constructed once and passed
// explicitly rather than held as package-level globals.
type Deps struct {
	Store          objectstore.ObjectStore
	FanOutQueue    queue.Queue
	Registry       *registry.Registry
	TemplateBucket string
	FanOutQueueURL string
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
	// FanOutDeps is reused for the store-change direct-call path: a
	// store-change event fans out in the same invocation, with no queue
	// round-trip.
	FanOutDeps fanout.Deps
}

const maxBatchSize = 10

// fanOutRequestBody is the wire shape of a fan-out queue message:
// {"worker_ship": "...", "template_prefix": "..."}.
type fanOutRequestBody struct {
	WorkerName   string `json:"worker_ship"`
	TemplatePath string `json:"template_prefix"`
}

// DispatchTimed handles a timed event: for every enabled worker whose
// InvocationSources include TIMED and whose TimedFrequency matches the
// event, list its templates and enqueue one fan-out request per template,
// batched at most 10 per call.
func DispatchTimed(ctx context.Context, deps Deps, frequency registry.TimedFrequency) error {
	for _, name := range deps.Registry.All() {
		worker, cfg, ok := deps.Registry.Get(name)
		if !ok || !cfg.HasTimedSource() || cfg.TimedFrequency != frequency {
			continue
		}
		deps.Metrics.TimedEventsMatched.Inc()

		templatePaths, err := templates.ListTemplates(ctx, deps.Store, deps.TemplateBucket, cfg.TemplatePrefix)
		if err != nil {
			return err
		}
		if len(templatePaths) == 0 {
			deps.Logger.Info().Str("worker", worker.Name()).Msg("no templates found, skipping")
			continue
		}
		deps.Metrics.TemplatesListed.Add(float64(len(templatePaths)))

		entries := make([]queue.BatchEntry, 0, len(templatePaths))
		for i, path := range templatePaths {
			body, err := json.Marshal(fanOutRequestBody{WorkerName: worker.Name(), TemplatePath: path})
			if err != nil {
				return err
			}
			entries = append(entries, queue.BatchEntry{ID: strconv.Itoa(i + 1), Body: string(body)})
		}

		if err := sendBatches(ctx, deps, entries); err != nil {
			return err
		}
		deps.Metrics.FanOutRequestsSent.Add(float64(len(entries)))
	}
	return nil
}

func sendBatches(ctx context.Context, deps Deps, entries []queue.BatchEntry) error {
	for start := 0; start < len(entries); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := deps.FanOutQueue.SendMessageBatch(ctx, deps.FanOutQueueURL, entries[start:end]); err != nil {
			return starerrors.Wrapf(starerrors.EnqueueFailure, err, "sending fan-out batch of %d requests", end-start)
		}
	}
	return nil
}

// StoreChangeEvent is a single record from an object-store change
// notification.
type StoreChangeEvent struct {
	Bucket    string
	ObjectKey string // URL-encoded, as delivered by the store
}

// DispatchStoreChange handles a store-change event. A batched delivery
// containing more than one record should have each processed independently
// by the caller via repeated calls to this function — the core expects one
// record per invocation but tolerates more.
func DispatchStoreChange(ctx context.Context, deps Deps, event StoreChangeEvent) error {
	if event.Bucket != deps.TemplateBucket {
		return starerrors.Newf(starerrors.InvalidBucket, "store-change event references bucket %q, expected %q", event.Bucket, deps.TemplateBucket)
	}

	key, err := url.QueryUnescape(event.ObjectKey)
	if err != nil {
		deps.Logger.Warn().Str("key", event.ObjectKey).Msg("failed to URL-decode object key, dropping")
		deps.Metrics.StoreEventsDropped.Inc()
		return nil
	}

	if !strings.HasSuffix(key, ".yaml") {
		deps.Logger.Info().Str("key", key).Msg("object key is not a .yaml template, dropping")
		deps.Metrics.StoreEventsDropped.Inc()
		return nil
	}

	var owner string
	for _, name := range deps.Registry.All() {
		_, cfg, ok := deps.Registry.Get(name)
		if !ok {
			continue
		}
		if cfg.TemplatePrefix == key || strings.HasPrefix(key, cfg.TemplatePrefix) {
			owner = name
			break
		}
	}

	if owner == "" {
		deps.Logger.Info().Str("key", key).Msg("no enabled worker owns this template path, dropping")
		deps.Metrics.StoreEventsDropped.Inc()
		return nil
	}

	deps.Metrics.StoreEventsHandled.Inc()
	return fanout.FanOut(ctx, deps.FanOutDeps, fanout.Request{WorkerName: owner, TemplatePath: key})
}
