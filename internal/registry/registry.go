// Package registry implements the worker plugin registry. Go has no
// runtime-reflective package-scanning facility for discovering plugins by
// namespace walk, so individual worker business logic is treated as an
// opaque plugin configured entirely through its configuration subsection:
// the subsection itself declares the worker's fan-out strategy, and the
// registry builds a generic Worker from it rather than instantiating a
// bespoke Go type per worker.
package registry

import (
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/catherinevee/starfleet/internal/sfconfig"
	"github.com/catherinevee/starfleet/internal/starerrors"
	"github.com/catherinevee/starfleet/internal/templates"
)

// FanOutStrategy selects how the fan-out engine expands a worker's
// resolved targets into invocation messages.
type FanOutStrategy string

const (
	StrategySingle        FanOutStrategy = "SINGLE"
	StrategyAccount       FanOutStrategy = "ACCOUNT"
	StrategyAccountRegion FanOutStrategy = "ACCOUNT_REGION"
)

// InvocationSource is one trigger the dispatcher matches against.
type InvocationSource string

const (
	SourceTimed      InvocationSource = "TIMED"
	SourceStoreEvent InvocationSource = "STORE_EVENT"
)

// TimedFrequency is the set of supported timed-invocation cadences.
type TimedFrequency string

const (
	Freq5Min   TimedFrequency = "5M"
	Freq15Min  TimedFrequency = "15M"
	Freq30Min  TimedFrequency = "30M"
	FreqHourly TimedFrequency = "HOURLY"
	Freq6Hour  TimedFrequency = "6H"
	Freq12Hour TimedFrequency = "12H"
	FreqDaily  TimedFrequency = "DAILY"
)

// WorkerConfig is a worker's validated configuration subsection.
type WorkerConfig struct {
	FanOutStrategy     FanOutStrategy     `yaml:"FanOutStrategy" validate:"required,oneof=SINGLE ACCOUNT ACCOUNT_REGION"`
	Enabled            bool               `yaml:"Enabled"`
	TemplatePrefix     string             `yaml:"TemplatePrefix" validate:"required"`
	InvocationQueueURL string             `yaml:"InvocationQueueUrl" validate:"required,url"`
	InvocationSources  []InvocationSource `yaml:"InvocationSources" validate:"required,min=1"`
	TimedFrequency     TimedFrequency     `yaml:"TimedFrequency"`
}

func (c WorkerConfig) hasSource(source InvocationSource) bool {
	for _, s := range c.InvocationSources {
		if s == source {
			return true
		}
	}
	return false
}

// HasTimedSource reports whether this worker is triggered by timed events.
func (c WorkerConfig) HasTimedSource() bool { return c.hasSource(SourceTimed) }

// HasStoreEventSource reports whether this worker is triggered by
// store-change events.
func (c WorkerConfig) HasStoreEventSource() bool { return c.hasSource(SourceStoreEvent) }

// Worker is the capability set the fan-out engine needs from a plugin — a
// capability set, not a class hierarchy.
type Worker interface {
	Name() string
	FanOutStrategy() FanOutStrategy
	ValidatePayload(raw map[string]interface{}) (templates.Payload, error)
}

// genericWorker implements Worker purely from its validated WorkerConfig,
// per this package's registry-level (rather than per-plugin) treatment of
// business logic.
type genericWorker struct {
	name         string
	strategy     FanOutStrategy
	knownRegions func() map[string]struct{}
}

func (w *genericWorker) Name() string                 { return w.name }
func (w *genericWorker) FanOutStrategy() FanOutStrategy { return w.strategy }

func (w *genericWorker) ValidatePayload(raw map[string]interface{}) (templates.Payload, error) {
	switch w.strategy {
	case StrategySingle:
		return templates.DecodeBasePayload(raw)
	case StrategyAccount:
		return templates.DecodeAccountPayload(raw)
	case StrategyAccountRegion:
		regions := map[string]struct{}{}
		if w.knownRegions != nil {
			regions = w.knownRegions()
		}
		return templates.DecodeAccountRegionPayload(raw, regions)
	default:
		return nil, starerrors.Newf(starerrors.InvalidTemplateForFanout, "worker %s declares unknown fan-out strategy %s", w.name, w.strategy)
	}
}

// Registry holds every enabled worker discovered from configuration.
type Registry struct {
	workers map[string]Worker
	configs map[string]WorkerConfig
	order   []string
}

// Discover builds the registry from the configuration document: every
// top-level key besides STARFLEET and the configured account-index
// subsection is treated as a candidate worker subsection. The account-index
// plugin lives in its own top-level section but is not itself a fan-out
// worker, so it is excluded here rather than rejected by WorkerConfig
// validation. Absent worker subsections are simply not workers (nothing to
// skip-and-log, since there is no separate static plugin list to compare
// against); a subsection that IS present but fails schema validation is a
// hard error, and one that validates but has Enabled=false is skipped.
func Discover(doc *sfconfig.Document, knownRegions func() map[string]struct{}, logger zerolog.Logger) (*Registry, error) {
	reg := &Registry{
		workers: make(map[string]Worker),
		configs: make(map[string]WorkerConfig),
	}

	validate := validator.New()

	names := make([]string, 0, len(doc.Raw))
	for name := range doc.Raw {
		if name == "STARFLEET" || name == doc.Starfleet.AccountIndex {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw := doc.Raw[name]

		var cfg WorkerConfig
		encoded, err := yaml.Marshal(raw)
		if err != nil {
			return nil, starerrors.Wrapf(starerrors.BadConfiguration, err, "re-encoding worker %s configuration", name)
		}
		if err := yaml.Unmarshal(encoded, &cfg); err != nil {
			return nil, starerrors.Wrapf(starerrors.BadConfiguration, err, "decoding worker %s configuration", name)
		}
		if err := validate.Struct(cfg); err != nil {
			return nil, starerrors.Wrapf(starerrors.BadConfiguration, err, "worker %s configuration failed schema validation", name)
		}
		if cfg.HasTimedSource() && cfg.TimedFrequency == "" {
			return nil, starerrors.Newf(starerrors.BadConfiguration, "worker %s declares TIMED invocation source but no TimedFrequency", name)
		}

		if !cfg.Enabled {
			logger.Info().Str("worker", name).Msg("worker disabled, skipping")
			continue
		}

		reg.workers[name] = &genericWorker{name: name, strategy: cfg.FanOutStrategy, knownRegions: knownRegions}
		reg.configs[name] = cfg
		reg.order = append(reg.order, name)
	}

	return reg, nil
}

// Get returns a worker and its configuration by name.
func (r *Registry) Get(name string) (Worker, WorkerConfig, bool) {
	worker, ok := r.workers[name]
	if !ok {
		return nil, WorkerConfig{}, false
	}
	return worker, r.configs[name], true
}

// All returns the names of every enabled worker, in discovery order, which
// is alphabetical by worker name (Discover sorts the candidate names).
func (r *Registry) All() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// String renders a worker's name and strategy for CLI display.
func (r *Registry) String(name string) string {
	worker, cfg, ok := r.Get(name)
	if !ok {
		return name
	}
	return fmt.Sprintf("%s (%s, prefix=%s)", worker.Name(), worker.FanOutStrategy(), cfg.TemplatePrefix)
}
