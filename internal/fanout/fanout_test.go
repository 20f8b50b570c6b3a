package fanout

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catherinevee/starfleet/internal/accountindex"
	"github.com/catherinevee/starfleet/internal/logging"
	"github.com/catherinevee/starfleet/internal/metrics"
	"github.com/catherinevee/starfleet/internal/registry"
	"github.com/catherinevee/starfleet/internal/sfconfig"
	"github.com/catherinevee/starfleet/internal/testsupport/awsfakes"
)

func buildIndex(t *testing.T, count int) *accountindex.Index {
	t.Helper()
	accounts := map[string]interface{}{}
	for i := 1; i <= count; i++ {
		accounts[fmt.Sprintf("%012d", i)] = map[string]interface{}{
			"Name":    fmt.Sprintf("Account %d", i),
			"Parents": []map[string]interface{}{
				{"Id": "ou-prod", "Name": "Production", "Type": "ORGANIZATIONAL_UNIT"},
				{"Id": "r-root1", "Name": "Root", "Type": "ROOT"},
			},
			"Regions": []string{"us-east-1", "us-west-2"},
			"Tags":    map[string]string{},
		}
	}
	raw, err := json.Marshal(map[string]interface{}{"accounts": accounts})
	require.NoError(t, err)
	idx, err := accountindex.Load(raw)
	require.NoError(t, err)
	return idx
}

func buildRegistry(t *testing.T, workers map[string]map[string]interface{}) *registry.Registry {
	t.Helper()
	raw := map[string]map[string]interface{}{"STARFLEET": {}}
	for name, cfg := range workers {
		raw[name] = cfg
	}
	doc := &sfconfig.Document{Raw: raw}
	reg, err := registry.Discover(doc, func() map[string]struct{} { return map[string]struct{}{"us-east-1": {}, "us-west-2": {}} }, logging.Nop())
	require.NoError(t, err)
	return reg
}

func TestFanOutUnknownWorkerIsHardError(t *testing.T) {
	deps := Deps{
		Store:    awsfakes.NewObjectStore(),
		Queue:    awsfakes.NewQueue(),
		Index:    buildIndex(t, 1),
		Registry: buildRegistry(t, nil),
		Metrics:  metrics.Nop(),
		Logger:   logging.Nop(),
	}
	err := FanOut(context.Background(), deps, Request{WorkerName: "does_not_exist", TemplatePath: "x.yaml"})
	assert.Error(t, err)
}

func TestFanOutSingleEnqueuesRawBody(t *testing.T) {
	store := awsfakes.NewObjectStore()
	rawTemplate := "TemplateName: t\nTemplateDescription: d\n"
	store.Put("templates", "github_sync/single.yaml", []byte(rawTemplate))

	q := awsfakes.NewQueue()
	reg := buildRegistry(t, map[string]map[string]interface{}{
		"github_sync": {
			"FanOutStrategy":     "SINGLE",
			"Enabled":            true,
			"TemplatePrefix":     "github_sync/single.yaml",
			"InvocationQueueUrl": "https://sqs.us-east-1.amazonaws.com/1234/github_sync",
			"InvocationSources":  []string{"STORE_EVENT"},
		},
	})

	deps := Deps{
		Store:          store,
		Queue:          q,
		Index:          buildIndex(t, 1),
		Registry:       reg,
		TemplateBucket: "templates",
		Metrics:        metrics.Nop(),
		Logger:         logging.Nop(),
	}

	err := FanOut(context.Background(), deps, Request{WorkerName: "github_sync", TemplatePath: "github_sync/single.yaml"})
	require.NoError(t, err)

	entries := q.AllEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, rawTemplate, entries[0].Body)
}

func TestFanOutAccountEnqueuesOneMessagePerResolvedAccount(t *testing.T) {
	store := awsfakes.NewObjectStore()
	store.Put("templates", "aws_config/t.yaml", []byte(`
TemplateName: t
TemplateDescription: d
IncludeAccounts:
  AllAccounts: true
`))

	q := awsfakes.NewQueue()
	reg := buildRegistry(t, map[string]map[string]interface{}{
		"aws_config": {
			"FanOutStrategy":     "ACCOUNT",
			"Enabled":            true,
			"TemplatePrefix":     "aws_config/",
			"InvocationQueueUrl": "https://sqs.us-east-1.amazonaws.com/1234/aws_config",
			"InvocationSources":  []string{"TIMED"},
			"TimedFrequency":     "HOURLY",
		},
	})

	deps := Deps{
		Store:          store,
		Queue:          q,
		Index:          buildIndex(t, 15),
		Registry:       reg,
		TemplateBucket: "templates",
		Metrics:        metrics.Nop(),
		Logger:         logging.Nop(),
	}

	err := FanOut(context.Background(), deps, Request{WorkerName: "aws_config", TemplatePath: "aws_config/t.yaml"})
	require.NoError(t, err)

	entries := q.AllEntries()
	assert.Len(t, entries, 15)

	batches := q.Batches()
	require.Len(t, batches, 2)
	assert.Len(t, batches[0].Entries, 10)
	assert.Len(t, batches[1].Entries, 5)
}

func TestFanOutAccountSoftStopsOnEmptyTargets(t *testing.T) {
	store := awsfakes.NewObjectStore()
	store.Put("templates", "aws_config/t.yaml", []byte(`
TemplateName: t
TemplateDescription: d
IncludeAccounts:
  ByNames: ["nonexistent"]
`))

	q := awsfakes.NewQueue()
	reg := buildRegistry(t, map[string]map[string]interface{}{
		"aws_config": {
			"FanOutStrategy":     "ACCOUNT",
			"Enabled":            true,
			"TemplatePrefix":     "aws_config/",
			"InvocationQueueUrl": "https://sqs.us-east-1.amazonaws.com/1234/aws_config",
			"InvocationSources":  []string{"TIMED"},
			"TimedFrequency":     "HOURLY",
		},
	})

	deps := Deps{
		Store:          store,
		Queue:          q,
		Index:          buildIndex(t, 5),
		Registry:       reg,
		TemplateBucket: "templates",
		Metrics:        metrics.Nop(),
		Logger:         logging.Nop(),
	}

	err := FanOut(context.Background(), deps, Request{WorkerName: "aws_config", TemplatePath: "aws_config/t.yaml"})
	require.NoError(t, err)
	assert.Empty(t, q.AllEntries())
}

func TestFanOutAccountRegionEnqueuesPerAccountRegionPair(t *testing.T) {
	store := awsfakes.NewObjectStore()
	store.Put("templates", "multi_region/t.yaml", []byte(`
TemplateName: t
TemplateDescription: d
IncludeAccounts:
  AllAccounts: true
IncludeRegions: ["us-east-1", "us-west-2"]
`))

	q := awsfakes.NewQueue()
	reg := buildRegistry(t, map[string]map[string]interface{}{
		"multi_region": {
			"FanOutStrategy":     "ACCOUNT_REGION",
			"Enabled":            true,
			"TemplatePrefix":     "multi_region/",
			"InvocationQueueUrl": "https://sqs.us-east-1.amazonaws.com/1234/multi_region",
			"InvocationSources":  []string{"TIMED"},
			"TimedFrequency":     "DAILY",
		},
	})

	deps := Deps{
		Store:          store,
		Queue:          q,
		Index:          buildIndex(t, 3),
		Registry:       reg,
		TemplateBucket: "templates",
		Metrics:        metrics.Nop(),
		Logger:         logging.Nop(),
	}

	err := FanOut(context.Background(), deps, Request{WorkerName: "multi_region", TemplatePath: "multi_region/t.yaml"})
	require.NoError(t, err)
	assert.Len(t, q.AllEntries(), 6)
}

func TestFanOutStrategyMismatchIsHardError(t *testing.T) {
	store := awsfakes.NewObjectStore()
	store.Put("templates", "aws_config/t.yaml", []byte(`
TemplateName: t
TemplateDescription: d
`))

	q := awsfakes.NewQueue()
	reg := buildRegistry(t, map[string]map[string]interface{}{
		"aws_config": {
			"FanOutStrategy":     "ACCOUNT",
			"Enabled":            true,
			"TemplatePrefix":     "aws_config/",
			"InvocationQueueUrl": "https://sqs.us-east-1.amazonaws.com/1234/aws_config",
			"InvocationSources":  []string{"TIMED"},
			"TimedFrequency":     "HOURLY",
		},
	})

	deps := Deps{
		Store:          store,
		Queue:          q,
		Index:          buildIndex(t, 3),
		Registry:       reg,
		TemplateBucket: "templates",
		Metrics:        metrics.Nop(),
		Logger:         logging.Nop(),
	}

	err := FanOut(context.Background(), deps, Request{WorkerName: "aws_config", TemplatePath: "aws_config/t.yaml"})
	assert.Error(t, err)
}
