package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catherinevee/starfleet/internal/logging"
	"github.com/catherinevee/starfleet/internal/sfconfig"
	"github.com/catherinevee/starfleet/internal/templates"
)

func docWith(raw map[string]map[string]interface{}) *sfconfig.Document {
	return &sfconfig.Document{Raw: raw}
}

func testRegions() map[string]struct{} {
	return map[string]struct{}{"us-east-1": {}}
}

func TestDiscoverRegistersEnabledWorkers(t *testing.T) {
	doc := docWith(map[string]map[string]interface{}{
		"STARFLEET": {"DeploymentRegion": "us-east-1"},
		"aws_config": {
			"FanOutStrategy":     "ACCOUNT",
			"Enabled":            true,
			"TemplatePrefix":     "aws_config/",
			"InvocationQueueUrl": "https://sqs.us-east-1.amazonaws.com/1234/aws_config",
			"InvocationSources":  []string{"TIMED"},
			"TimedFrequency":     "HOURLY",
		},
	})

	reg, err := Discover(doc, testRegions, logging.Nop())
	require.NoError(t, err)

	worker, cfg, ok := reg.Get("aws_config")
	require.True(t, ok)
	assert.Equal(t, StrategyAccount, worker.FanOutStrategy())
	assert.True(t, cfg.HasTimedSource())
	assert.Equal(t, []string{"aws_config"}, reg.All())
}

func TestDiscoverSkipsDisabledWorkers(t *testing.T) {
	doc := docWith(map[string]map[string]interface{}{
		"STARFLEET": {"DeploymentRegion": "us-east-1"},
		"github_sync": {
			"FanOutStrategy":     "SINGLE",
			"Enabled":            false,
			"TemplatePrefix":     "github_sync/single.yaml",
			"InvocationQueueUrl": "https://sqs.us-east-1.amazonaws.com/1234/github_sync",
			"InvocationSources":  []string{"STORE_EVENT"},
		},
	})

	reg, err := Discover(doc, testRegions, logging.Nop())
	require.NoError(t, err)

	_, _, ok := reg.Get("github_sync")
	assert.False(t, ok)
	assert.Empty(t, reg.All())
}

func TestDiscoverFailsOnBadStrategy(t *testing.T) {
	doc := docWith(map[string]map[string]interface{}{
		"STARFLEET": {"DeploymentRegion": "us-east-1"},
		"broken": {
			"FanOutStrategy":     "NOT_A_STRATEGY",
			"Enabled":            true,
			"TemplatePrefix":     "broken/",
			"InvocationQueueUrl": "https://sqs.us-east-1.amazonaws.com/1234/broken",
			"InvocationSources":  []string{"TIMED"},
			"TimedFrequency":     "HOURLY",
		},
	})

	_, err := Discover(doc, testRegions, logging.Nop())
	assert.Error(t, err)
}

func TestDiscoverFailsOnMissingTimedFrequency(t *testing.T) {
	doc := docWith(map[string]map[string]interface{}{
		"STARFLEET": {"DeploymentRegion": "us-east-1"},
		"aws_config": {
			"FanOutStrategy":     "ACCOUNT",
			"Enabled":            true,
			"TemplatePrefix":     "aws_config/",
			"InvocationQueueUrl": "https://sqs.us-east-1.amazonaws.com/1234/aws_config",
			"InvocationSources":  []string{"TIMED"},
		},
	})

	_, err := Discover(doc, testRegions, logging.Nop())
	assert.Error(t, err)
}

func TestDiscoverSkipsAccountIndexSubsection(t *testing.T) {
	doc := &sfconfig.Document{
		Starfleet: sfconfig.Starfleet{DeploymentRegion: "us-east-1", AccountIndex: "StarfleetDefaultAccountIndex"},
		Raw: map[string]map[string]interface{}{
			"STARFLEET": {"DeploymentRegion": "us-east-1"},
			"StarfleetDefaultAccountIndex": {
				"Bucket": "account-index-bucket",
				"Key":    "index.json",
			},
			"aws_config": {
				"FanOutStrategy":     "ACCOUNT",
				"Enabled":            true,
				"TemplatePrefix":     "aws_config/",
				"InvocationQueueUrl": "https://sqs.us-east-1.amazonaws.com/1234/aws_config",
				"InvocationSources":  []string{"TIMED"},
				"TimedFrequency":     "HOURLY",
			},
		},
	}

	reg, err := Discover(doc, testRegions, logging.Nop())
	require.NoError(t, err)

	_, _, ok := reg.Get("StarfleetDefaultAccountIndex")
	assert.False(t, ok)

	_, _, ok = reg.Get("aws_config")
	assert.True(t, ok)
	assert.Equal(t, []string{"aws_config"}, reg.All())
}

func TestGenericWorkerValidatePayloadBySingleStrategy(t *testing.T) {
	worker := &genericWorker{name: "single_worker", strategy: StrategySingle}
	payload, err := worker.ValidatePayload(map[string]interface{}{
		"TemplateName":        "t",
		"TemplateDescription": "d",
	})
	require.NoError(t, err)
	assert.IsType(t, &templates.BasePayload{}, payload)
}
