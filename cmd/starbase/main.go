// Command starbase is the core tasking pipeline's process entrypoint. It is
// deliberately invocation-shim agnostic: main() reads one event envelope
// from stdin and dispatches to the matching handler, so it can be wrapped by
// whatever scheduler or event-source adapter (Lambda, a cron container, an
// SQS poller) the deployment target provides, without this binary depending
// on any particular runtime SDK.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/catherinevee/starfleet/internal/dispatcher"
	"github.com/catherinevee/starfleet/internal/starbaseapp"
)

// envelope is the on-disk/stdin shape this binary expects: a handler
// selector plus its event body, mirroring how an adapter would demultiplex
// EventBridge, SQS, or S3 notification events onto these three handlers.
type envelope struct {
	Handler string          `json:"handler"`
	Event   json.RawMessage `json:"event"`
}

func main() {
	var (
		configDir = flag.String("config", "/etc/starbase/config.d", "Configuration fragment directory")
		handler   = flag.String("handler", "", "Handler to invoke: timed, fanout, or store-change (overrides the envelope's own handler field if set)")
	)
	flag.Parse()

	ctx := context.Background()

	app, err := starbaseapp.New(ctx, *configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "starbase: failed to initialize: %v\n", err)
		os.Exit(1)
	}

	body, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "starbase: failed to read event from stdin: %v\n", err)
		os.Exit(1)
	}

	var env envelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			fmt.Fprintf(os.Stderr, "starbase: failed to decode event envelope: %v\n", err)
			os.Exit(1)
		}
	}
	if *handler != "" {
		env.Handler = *handler
	}

	if err := dispatch(ctx, app, env); err != nil {
		app.Logger.Error().Err(err).Str("handler", env.Handler).Msg("handler invocation failed")
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, app *starbaseapp.App, env envelope) error {
	switch env.Handler {
	case "timed":
		var event starbaseapp.TimedEvent
		if err := json.Unmarshal(env.Event, &event); err != nil {
			return fmt.Errorf("decoding timed event: %w", err)
		}
		return app.HandleTimedEvent(ctx, event)

	case "fanout":
		return app.HandleFanOutMessage(ctx, env.Event)

	case "store-change":
		var event dispatcher.StoreChangeEvent
		if err := json.Unmarshal(env.Event, &event); err != nil {
			return fmt.Errorf("decoding store-change event: %w", err)
		}
		return app.HandleStoreChangeEvent(ctx, event)

	default:
		return fmt.Errorf("unknown handler %q (want timed, fanout, or store-change)", env.Handler)
	}
}
