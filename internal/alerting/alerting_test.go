package alerting

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catherinevee/starfleet/internal/logging"
	"github.com/catherinevee/starfleet/internal/testsupport/awsfakes"
)

func TestParsePriorityRoundTrips(t *testing.T) {
	for _, name := range []string{"NONE", "PROBLEM", "IMPORTANT", "SUCCESS", "INFORMATIONAL"} {
		priority, err := ParsePriority(name)
		require.NoError(t, err)
		assert.Equal(t, name, priority.String())
	}
}

func TestParsePriorityRejectsUnknown(t *testing.T) {
	_, err := ParsePriority("VERY_BAD")
	assert.Error(t, err)
}

func TestNewSinkDisabledIsNoopWithoutSecretLookup(t *testing.T) {
	store := awsfakes.NewSecretStore() // no secrets seeded
	sink, err := NewSink(context.Background(), Config{Enabled: false}, store, logging.Nop())
	require.NoError(t, err)

	assert.NoError(t, sink.SendAlert(context.Background(), PriorityProblem, "t", "b"))
}

func TestNewSinkEnabledRequiresSlackTokenInSecret(t *testing.T) {
	store := awsfakes.NewSecretStore()
	store.Put("starfleet-secret", "us-east-1", map[string]string{"NotTheRightKey": "x"})

	_, err := NewSink(context.Background(), Config{Enabled: true, SecretID: "starfleet-secret", SecretRegion: "us-east-1"}, store, logging.Nop())
	assert.Error(t, err)
}

func TestSendAlertGatesOnPriority(t *testing.T) {
	store := awsfakes.NewSecretStore()
	store.Put("starfleet-secret", "us-east-1", map[string]string{"SlackToken": "xoxb-test"})

	sink, err := NewSink(context.Background(), Config{
		Enabled:         true,
		SecretID:        "starfleet-secret",
		SecretRegion:    "us-east-1",
		ConfiguredLevel: PriorityImportant,
	}, store, logging.Nop())
	require.NoError(t, err)

	// NONE is always a no-op regardless of configured level, so no Slack
	// endpoint is contacted.
	assert.NoError(t, sink.SendAlert(context.Background(), PriorityNone, "t", "b"))
}

func newFakeSlackServer(t *testing.T, calls *int, fail bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
			return
		}
		w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1234567890.000100"}`))
	}))
}

func newTestSink(t *testing.T, server *httptest.Server, level Priority) *Sink {
	t.Helper()
	store := awsfakes.NewSecretStore()
	store.Put("starfleet-secret", "us-east-1", map[string]string{"SlackToken": "xoxb-test"})

	sink, err := NewSink(context.Background(), Config{
		Enabled:         true,
		SecretID:        "starfleet-secret",
		SecretRegion:    "us-east-1",
		DefaultChannelID: "C123",
		ConfiguredLevel: level,
		APIURL:          server.URL + "/",
	}, store, logging.Nop())
	require.NoError(t, err)
	return sink
}

func TestSendAlertPostsToSlackWhenAtOrBelowConfiguredLevel(t *testing.T) {
	var calls int
	server := newFakeSlackServer(t, &calls, false)
	defer server.Close()

	sink := newTestSink(t, server, PriorityInformational)

	for _, priority := range []Priority{PriorityInformational, PrioritySuccess, PriorityImportant, PriorityProblem} {
		assert.NoError(t, sink.SendAlert(context.Background(), priority, "title", "body"))
	}
	assert.Equal(t, 4, calls)
}

func TestSendAlertSkipsWhenAboveConfiguredLevel(t *testing.T) {
	var calls int
	server := newFakeSlackServer(t, &calls, false)
	defer server.Close()

	sink := newTestSink(t, server, PriorityProblem)

	assert.NoError(t, sink.SendAlert(context.Background(), PriorityImportant, "title", "body"))
	assert.NoError(t, sink.SendAlert(context.Background(), PrioritySuccess, "title", "body"))
	assert.NoError(t, sink.SendAlert(context.Background(), PriorityInformational, "title", "body"))
	assert.Zero(t, calls)

	assert.NoError(t, sink.SendAlert(context.Background(), PriorityProblem, "title", "body"))
	assert.Equal(t, 1, calls)
}

func TestSendAlertProblemPriorityRaisesSinkErrorOnFailure(t *testing.T) {
	var calls int
	server := newFakeSlackServer(t, &calls, true)
	defer server.Close()

	sink := newTestSink(t, server, PriorityInformational)

	err := sink.SendAlert(context.Background(), PriorityProblem, "title", "body")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestSendAlertNonProblemPriorityLogsOnFailureWithoutError(t *testing.T) {
	var calls int
	server := newFakeSlackServer(t, &calls, true)
	defer server.Close()

	sink := newTestSink(t, server, PriorityInformational)

	err := sink.SendAlert(context.Background(), PriorityImportant, "title", "body")
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}
