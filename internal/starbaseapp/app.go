// Package starbaseapp wires the core tasking pipeline's collaborators
// together once per process, explicitly, in place of global singletons.
// cmd/starbase's handlers take an *App rather than reaching for
// package-level state.
package starbaseapp

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/catherinevee/starfleet/internal/accountindex"
	"github.com/catherinevee/starfleet/internal/alerting"
	"github.com/catherinevee/starfleet/internal/dispatcher"
	"github.com/catherinevee/starfleet/internal/fanout"
	"github.com/catherinevee/starfleet/internal/logging"
	"github.com/catherinevee/starfleet/internal/metrics"
	"github.com/catherinevee/starfleet/internal/objectstore"
	"github.com/catherinevee/starfleet/internal/objectstore/s3"
	"github.com/catherinevee/starfleet/internal/queue/sqs"
	"github.com/catherinevee/starfleet/internal/registry"
	"github.com/catherinevee/starfleet/internal/secrets"
	"github.com/catherinevee/starfleet/internal/secrets/secretsmanager"
	"github.com/catherinevee/starfleet/internal/sfconfig"
)

// App bundles every collaborator the Lambda-style handlers in cmd/starbase
// need, built once at cold start.
type App struct {
	Config         *sfconfig.Manager
	Logger         zerolog.Logger
	Metrics        *metrics.Metrics
	Index          *accountindex.Index
	Registry       *registry.Registry
	Alerts         *alerting.Sink
	DispatcherDeps dispatcher.Deps
	FanOutDeps     fanout.Deps
}

// New loads configuration, the account index snapshot, and the worker
// registry, and constructs the AWS-backed ObjectStore/Queue/SecretStore
// implementations, returning a fully wired App. configDir is the directory
// of YAML configuration fragments.
func New(ctx context.Context, configDir string) (*App, error) {
	configManager, err := sfconfig.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	doc := configManager.Get()

	logCfg := logging.Config{
		Level:                  doc.Starfleet.LogLevel,
		ThirdPartyLoggerLevels: doc.Starfleet.ThirdPartyLoggerLevels,
	}
	logger := logging.New(logCfg)

	store, err := s3.New(ctx, doc.Starfleet.DeploymentRegion)
	if err != nil {
		return nil, fmt.Errorf("constructing object store client: %w", err)
	}

	fanOutQueue, err := sqs.New(ctx, doc.Starfleet.DeploymentRegion)
	if err != nil {
		return nil, fmt.Errorf("constructing fan-out queue client: %w", err)
	}

	indexName := doc.Starfleet.AccountIndex
	indexRaw := doc.WorkerSection(indexName)
	if indexRaw == nil {
		return nil, fmt.Errorf("account index plugin %q has no configuration subsection", indexName)
	}
	indexCfg, err := accountindex.DecodeConfig(indexRaw)
	if err != nil {
		return nil, err
	}

	var indexStore objectstore.ObjectStore = store
	if indexCfg.BucketRegion != doc.Starfleet.DeploymentRegion {
		regionalStore, err := s3.New(ctx, indexCfg.BucketRegion)
		if err != nil {
			return nil, fmt.Errorf("constructing object store client for account index region %s: %w", indexCfg.BucketRegion, err)
		}
		indexStore = regionalStore
	}

	index, err := accountindex.LoadFromStore(ctx, indexStore, indexCfg)
	if err != nil {
		return nil, err
	}

	reg, err := registry.Discover(doc, index.AllRegions, logger)
	if err != nil {
		return nil, err
	}

	var alertStore secrets.SecretStore = secretsmanager.New()
	alertCfg := alerting.Config{Enabled: doc.Starfleet.SlackEnabled}
	if doc.Starfleet.SecretsManager != nil {
		alertCfg.SecretID = doc.Starfleet.SecretsManager.SecretID
		alertCfg.SecretRegion = doc.Starfleet.SecretsManager.SecretRegion
	}
	alerts, err := alerting.NewSink(ctx, alertCfg, alertStore, logging.WithComponent(logger, logCfg, "alerting"))
	if err != nil {
		return nil, fmt.Errorf("constructing alert sink: %w", err)
	}

	m := metrics.New()

	scopeToRegions := accountindex.NewSet(doc.Starfleet.ScopeToRegions)

	fanOutDeps := fanout.Deps{
		Store:          store,
		Queue:          fanOutQueue,
		Index:          index,
		Registry:       reg,
		TemplateBucket: doc.Starfleet.TemplateBucket,
		ScopeToRegions: scopeToRegions,
		Metrics:        m,
		Logger:         logging.WithComponent(logger, logCfg, "fanout"),
	}

	dispatcherDeps := dispatcher.Deps{
		Store:          store,
		FanOutQueue:    fanOutQueue,
		Registry:       reg,
		TemplateBucket: doc.Starfleet.TemplateBucket,
		FanOutQueueURL: doc.Starfleet.FanOutQueueURL,
		Metrics:        m,
		Logger:         logging.WithComponent(logger, logCfg, "dispatcher"),
		FanOutDeps:     fanOutDeps,
	}

	return &App{
		Config:         configManager,
		Logger:         logger,
		Metrics:        m,
		Index:          index,
		Registry:       reg,
		Alerts:         alerts,
		DispatcherDeps: dispatcherDeps,
		FanOutDeps:     fanOutDeps,
	}, nil
}
