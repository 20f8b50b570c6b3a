// Package alerting implements a priority-gated Slack notifier with four
// call styles, in the style of a post_info/post_success/post_important/
// post_problem helper built on slack-go/slack.
package alerting

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"

	"github.com/catherinevee/starfleet/internal/secrets"
	"github.com/catherinevee/starfleet/internal/starerrors"
)

// Priority is the alert severity ladder: NONE disables alerting entirely;
// everything above it is ordered low to high.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityProblem
	PriorityImportant
	PrioritySuccess
	PriorityInformational
)

func (p Priority) String() string {
	switch p {
	case PriorityNone:
		return "NONE"
	case PriorityProblem:
		return "PROBLEM"
	case PriorityImportant:
		return "IMPORTANT"
	case PrioritySuccess:
		return "SUCCESS"
	case PriorityInformational:
		return "INFORMATIONAL"
	default:
		return "UNKNOWN"
	}
}

// ParsePriority maps a configuration string to a Priority.
func ParsePriority(s string) (Priority, error) {
	switch s {
	case "NONE":
		return PriorityNone, nil
	case "PROBLEM":
		return PriorityProblem, nil
	case "IMPORTANT":
		return PriorityImportant, nil
	case "SUCCESS":
		return PrioritySuccess, nil
	case "INFORMATIONAL":
		return PriorityInformational, nil
	default:
		return PriorityNone, fmt.Errorf("unknown alert priority %q", s)
	}
}

// Sink is the Slack-backed notifier. A Sink with an unconfigured token (no
// SlackEnabled) is a silent no-op, matching the original's
// "not enabled -> return success" behavior.
type Sink struct {
	client           *slack.Client
	enabled          bool
	configuredLevel  Priority
	defaultChannelID string
	logger           zerolog.Logger
}

// Config carries everything needed to construct a Sink.
type Config struct {
	Enabled          bool
	SecretID         string
	SecretRegion     string
	DefaultChannelID string
	ConfiguredLevel  Priority
	// APIURL overrides the Slack API base URL; used by tests to point the
	// client at an httptest.Server instead of the real Slack API.
	APIURL string
}

// NewSink builds a Sink, lazily fetching the Slack token from the secret
// store only when alerting is enabled.
func NewSink(ctx context.Context, cfg Config, store secrets.SecretStore, logger zerolog.Logger) (*Sink, error) {
	sink := &Sink{
		enabled:          cfg.Enabled,
		configuredLevel:  cfg.ConfiguredLevel,
		defaultChannelID: cfg.DefaultChannelID,
		logger:           logger,
	}

	if !cfg.Enabled {
		return sink, nil
	}

	values, err := store.GetSecret(ctx, cfg.SecretID, cfg.SecretRegion)
	if err != nil {
		return nil, starerrors.Wrapf(starerrors.SinkError, err, "fetching Slack token from secret %s", cfg.SecretID)
	}
	token, ok := values["SlackToken"]
	if !ok {
		return nil, starerrors.Newf(starerrors.SinkError, "secret %s does not contain a SlackToken key", cfg.SecretID)
	}

	opts := []slack.Option{}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	sink.client = slack.New(token, opts...)
	return sink, nil
}

// SendAlert emits to the notifier iff configuredLevel >= priority > NONE.
// Problem-priority alerts raise on sink error; all others log on sink error.
func (s *Sink) SendAlert(ctx context.Context, priority Priority, title, body string) error {
	if priority == PriorityNone || s.configuredLevel < priority {
		return nil
	}

	var err error
	switch priority {
	case PriorityInformational:
		err = s.postInfo(ctx, title, body)
	case PrioritySuccess:
		err = s.postSuccess(ctx, title, body)
	case PriorityImportant:
		err = s.postImportant(ctx, title, body)
	case PriorityProblem:
		err = s.postProblem(ctx, title, body)
	}

	if err == nil {
		return nil
	}

	if priority == PriorityProblem {
		return starerrors.Wrapf(starerrors.SinkError, err, "failed to post problem alert %q", title)
	}
	s.logger.Error().Err(err).Str("title", title).Str("priority", priority.String()).Msg("failed to post alert to Slack")
	return nil
}

func (s *Sink) postInfo(ctx context.Context, title, body string) error {
	return s.post(ctx, "ℹ️  "+title, body)
}

func (s *Sink) postSuccess(ctx context.Context, title, body string) error {
	return s.post(ctx, "✅  "+title, body)
}

func (s *Sink) postImportant(ctx context.Context, title, body string) error {
	return s.post(ctx, "\U0001F4E3  "+title, body)
}

func (s *Sink) postProblem(ctx context.Context, title, body string) error {
	return s.post(ctx, "\U0001F6A8  "+title, body)
}

// post sends a two-block structured message: a plain-text header and a
// markdown section, matching the original's block layout.
func (s *Sink) post(ctx context.Context, header, body string) error {
	if !s.enabled {
		return nil
	}

	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, header, true, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, body, false, false), nil, nil),
	}

	_, _, _, err := s.client.SendMessageContext(ctx, s.defaultChannelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(header, false),
	)
	return err
}
