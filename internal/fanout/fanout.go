// Package fanout implements the second stage of tasking: validating a
// fetched template against its worker's payload schema and expanding it
// into one or more invocation-queue messages.
package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/catherinevee/starfleet/internal/accountindex"
	"github.com/catherinevee/starfleet/internal/metrics"
	"github.com/catherinevee/starfleet/internal/objectstore"
	"github.com/catherinevee/starfleet/internal/queue"
	"github.com/catherinevee/starfleet/internal/registry"
	"github.com/catherinevee/starfleet/internal/resolver"
	"github.com/catherinevee/starfleet/internal/starerrors"
	"github.com/catherinevee/starfleet/internal/templates"
)

const maxBatchSize = 10

// Deps bundles the collaborators FanOut needs, constructed once in
// cmd/starbase's main() and passed explicitly rather than referenced as
// package-level globals.
type Deps struct {
	Store          objectstore.ObjectStore
	Queue          queue.Queue
	Index          *accountindex.Index
	Registry       *registry.Registry
	TemplateBucket string
	ScopeToRegions map[string]struct{}
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

// Request is one fan-out invocation's input: either the stage-1 envelope
// {worker_ship, template_prefix} or a forwarded store-change record carrying
// the same two fields.
type Request struct {
	WorkerName   string
	TemplatePath string
}

// FanOut resolves worker and template, validates the payload, and enqueues
// one or more invocation messages.
func FanOut(ctx context.Context, deps Deps, req Request) error {
	deps.Metrics.FanOutInvocations.Inc()

	worker, workerCfg, ok := deps.Registry.Get(req.WorkerName)
	if !ok {
		deps.Metrics.HardErrors.WithLabelValues(string(starerrors.NoShipPlugin)).Inc()
		return starerrors.Newf(starerrors.NoShipPlugin, "unknown worker %q", req.WorkerName)
	}

	fetched, err := templates.FetchTemplate(ctx, deps.Store, deps.TemplateBucket, req.TemplatePath)
	if err != nil {
		deps.Metrics.HardErrors.WithLabelValues(string(starerrors.TemplateFetch)).Inc()
		return err
	}

	validated, err := worker.ValidatePayload(fetched.Body)
	if err != nil {
		deps.Metrics.HardErrors.WithLabelValues(string(starerrors.PayloadValidation)).Inc()
		return err
	}

	switch worker.FanOutStrategy() {
	case registry.StrategySingle:
		return fanOutSingle(ctx, deps, workerCfg, fetched)
	case registry.StrategyAccount:
		return fanOutAccount(ctx, deps, workerCfg, validated)
	case registry.StrategyAccountRegion:
		return fanOutAccountRegion(ctx, deps, workerCfg, validated)
	default:
		deps.Metrics.HardErrors.WithLabelValues(string(starerrors.InvalidTemplateForFanout)).Inc()
		return starerrors.Newf(starerrors.InvalidTemplateForFanout, "worker %q declares unknown fan-out strategy %q", worker.Name(), worker.FanOutStrategy())
	}
}

// fanOutSingle enqueues the template's pre-validation body verbatim — a
// SINGLE-strategy worker sees exactly what was authored.
func fanOutSingle(ctx context.Context, deps Deps, cfg registry.WorkerConfig, fetched *templates.Fetched) error {
	entries := []queue.BatchEntry{{ID: "single", Body: string(fetched.Raw)}}
	if err := sendBatches(ctx, deps, cfg.InvocationQueueURL, entries); err != nil {
		return err
	}
	deps.Metrics.InvocationsEnqueued.Inc()
	return nil
}

func fanOutAccount(ctx context.Context, deps Deps, cfg registry.WorkerConfig, payload templates.Payload) error {
	accountPayload, ok := payload.(*templates.AccountPayload)
	if !ok {
		deps.Metrics.HardErrors.WithLabelValues(string(starerrors.InvalidTemplateForFanout)).Inc()
		return starerrors.New(starerrors.InvalidTemplateForFanout, "ACCOUNT worker's validated payload is not an AccountPayload")
	}

	targets := resolver.ResolveAccounts(deps.Index, accountPayload)
	deps.Metrics.ResolvedTargetCount.Observe(float64(len(targets)))

	if len(targets) == 0 {
		deps.Logger.Info().Msg("ACCOUNT fan-out resolved zero targets, stopping")
		deps.Metrics.SoftStops.Inc()
		return nil
	}

	ids := make([]string, 0, len(targets))
	for id := range targets {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]queue.BatchEntry, 0, len(ids))
	for _, id := range ids {
		assigned := *accountPayload
		assigned.StarbaseAssignedAccount = id
		body, err := json.Marshal(assigned)
		if err != nil {
			return fmt.Errorf("encoding assigned payload for account %s: %w", id, err)
		}
		entries = append(entries, queue.BatchEntry{ID: id, Body: string(body)})
	}

	if err := sendBatches(ctx, deps, cfg.InvocationQueueURL, entries); err != nil {
		return err
	}
	deps.Metrics.InvocationsEnqueued.Add(float64(len(entries)))
	return nil
}

func fanOutAccountRegion(ctx context.Context, deps Deps, cfg registry.WorkerConfig, payload templates.Payload) error {
	accountRegionPayload, ok := payload.(*templates.AccountRegionPayload)
	if !ok {
		deps.Metrics.HardErrors.WithLabelValues(string(starerrors.InvalidTemplateForFanout)).Inc()
		return starerrors.New(starerrors.InvalidTemplateForFanout, "ACCOUNT_REGION worker's validated payload is not an AccountRegionPayload")
	}

	targets := resolver.ResolveAccountRegions(deps.Index, accountRegionPayload, deps.Index.AllRegions(), deps.ScopeToRegions, true)

	total := 0
	accountIDs := make([]string, 0, len(targets))
	for id, regions := range targets {
		total += len(regions)
		accountIDs = append(accountIDs, id)
	}
	sort.Strings(accountIDs)
	deps.Metrics.ResolvedTargetCount.Observe(float64(total))

	if total == 0 {
		deps.Logger.Info().Msg("ACCOUNT_REGION fan-out resolved zero account/region pairs, stopping")
		deps.Metrics.SoftStops.Inc()
		return nil
	}

	entries := make([]queue.BatchEntry, 0, total)
	for _, accountID := range accountIDs {
		regions := make([]string, 0, len(targets[accountID]))
		for region := range targets[accountID] {
			regions = append(regions, region)
		}
		sort.Strings(regions)

		for _, region := range regions {
			assigned := *accountRegionPayload
			assigned.StarbaseAssignedAccount = accountID
			assigned.StarbaseAssignedRegion = region
			body, err := json.Marshal(assigned)
			if err != nil {
				return fmt.Errorf("encoding assigned payload for %s/%s: %w", accountID, region, err)
			}
			entries = append(entries, queue.BatchEntry{ID: accountID + "||" + region, Body: string(body)})
		}
	}

	if err := sendBatches(ctx, deps, cfg.InvocationQueueURL, entries); err != nil {
		return err
	}
	deps.Metrics.InvocationsEnqueued.Add(float64(len(entries)))
	return nil
}

// sendBatches enqueues entries in atomic batches of at most maxBatchSize,
// never mutating a prior batch's already-sent bodies.
func sendBatches(ctx context.Context, deps Deps, queueURL string, entries []queue.BatchEntry) error {
	for start := 0; start < len(entries); start += maxBatchSize {
		end := start + maxBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		batch := entries[start:end]
		deps.Metrics.BatchSize.Observe(float64(len(batch)))

		if err := deps.Queue.SendMessageBatch(ctx, queueURL, batch); err != nil {
			deps.Metrics.HardErrors.WithLabelValues(string(starerrors.EnqueueFailure)).Inc()
			return starerrors.Wrapf(starerrors.EnqueueFailure, err, "sending batch of %d messages to %s", len(batch), queueURL)
		}
	}
	return nil
}
