package templates

import (
	"context"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/catherinevee/starfleet/internal/objectstore"
	"github.com/catherinevee/starfleet/internal/starerrors"
)

// ListTemplates resolves a worker's template prefix to a concrete list of
// template keys. A prefix already ending in ".yaml" is treated as a single
// explicit template and returned without contacting the store; otherwise
// every object under the prefix ending in ".yaml" is kept.
func ListTemplates(ctx context.Context, store objectstore.ObjectStore, bucket, prefix string) ([]string, error) {
	if strings.HasSuffix(prefix, ".yaml") {
		return []string{prefix}, nil
	}

	keys, err := store.ListObjects(ctx, bucket, prefix)
	if err != nil {
		return nil, starerrors.Wrapf(starerrors.TemplateFetch, err, "listing templates under %s/%s", bucket, prefix)
	}

	var out []string
	for _, key := range keys {
		if strings.HasSuffix(key, ".yaml") {
			out = append(out, key)
		}
	}
	return out, nil
}

// Fetched is the dual view of a fetched template: the raw authored form
// (used verbatim for SINGLE-strategy enqueue and for re-encoding bodies
// after assignment) alongside the decoded map ready for schema validation.
type Fetched struct {
	Raw  []byte
	Body map[string]interface{}
}

// FetchTemplate reads and parses a single template object. Missing objects
// and malformed YAML produce distinct error kinds.
func FetchTemplate(ctx context.Context, store objectstore.ObjectStore, bucket, key string) (*Fetched, error) {
	raw, err := store.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, starerrors.Wrapf(starerrors.TemplateFetch, err, "fetching template %s/%s", bucket, key)
	}

	var body map[string]interface{}
	if err := yaml.Unmarshal(raw, &body); err != nil {
		return nil, starerrors.Wrapf(starerrors.PayloadValidation, err, "parsing template %s/%s", bucket, key)
	}

	return &Fetched{Raw: raw, Body: body}, nil
}

// DecodeAccountPayload re-marshals the raw template body into an
// AccountPayload and validates it.
func DecodeAccountPayload(body map[string]interface{}) (*AccountPayload, error) {
	var payload AccountPayload
	if err := remarshal(body, &payload); err != nil {
		return nil, starerrors.Wrapf(starerrors.PayloadValidation, err, "decoding AccountPayload")
	}
	if err := payload.Validate(nil); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DecodeAccountRegionPayload re-marshals the raw template body into an
// AccountRegionPayload and validates it against the known region universe.
func DecodeAccountRegionPayload(body map[string]interface{}, knownRegions map[string]struct{}) (*AccountRegionPayload, error) {
	var payload AccountRegionPayload
	if err := remarshal(body, &payload); err != nil {
		return nil, starerrors.Wrapf(starerrors.PayloadValidation, err, "decoding AccountRegionPayload")
	}
	if err := payload.Validate(knownRegions); err != nil {
		return nil, err
	}
	return &payload, nil
}

// DecodeBasePayload re-marshals the raw template body into a BasePayload
// and validates it, used for SINGLE-strategy workers.
func DecodeBasePayload(body map[string]interface{}) (*BasePayload, error) {
	var payload BasePayload
	if err := remarshal(body, &payload); err != nil {
		return nil, starerrors.Wrapf(starerrors.PayloadValidation, err, "decoding base template")
	}
	if err := payload.Validate(nil); err != nil {
		return nil, err
	}
	return &payload, nil
}

func remarshal(body map[string]interface{}, target interface{}) error {
	raw, err := yaml.Marshal(body)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(raw, target)
}
