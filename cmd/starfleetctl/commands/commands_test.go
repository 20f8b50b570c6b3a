package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFragment(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestWorkersListCmdPrintsEnabledWorkers(t *testing.T) {
	dir := t.TempDir()
	writeFragment(t, dir, "base.yaml", `
STARFLEET:
  DeploymentRegion: us-east-1
  TemplateBucket: starfleet-templates
  FanOutQueueUrl: https://sqs.us-east-1.amazonaws.com/1234/fanout
aws_config:
  FanOutStrategy: ACCOUNT
  Enabled: true
  TemplatePrefix: aws_config/
  InvocationQueueUrl: https://sqs.us-east-1.amazonaws.com/1234/aws_config
  InvocationSources: [TIMED]
  TimedFrequency: HOURLY
`)

	configDir = dir
	cmd := workersListCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, cmd.RunE(cmd, nil))
	assert.Contains(t, out.String(), "aws_config")
}

func TestValidateCmdRejectsMissingStarfleetSection(t *testing.T) {
	dir := t.TempDir()
	writeFragment(t, dir, "base.yaml", `
aws_config:
  Enabled: true
  TemplatePrefix: aws_config/
`)

	configDir = dir
	cmd := validateCmd()
	err := cmd.RunE(cmd, nil)
	assert.Error(t, err)
}

func TestValidateCmdAcceptsWellFormedConfiguration(t *testing.T) {
	dir := t.TempDir()
	writeFragment(t, dir, "base.yaml", `
STARFLEET:
  DeploymentRegion: us-east-1
  TemplateBucket: starfleet-templates
  FanOutQueueUrl: https://sqs.us-east-1.amazonaws.com/1234/fanout
`)

	configDir = dir
	cmd := validateCmd()
	assert.NoError(t, cmd.RunE(cmd, nil))
}
