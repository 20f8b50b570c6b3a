package accountindex

import (
	"context"

	"gopkg.in/yaml.v3"

	"github.com/catherinevee/starfleet/internal/objectstore"
	"github.com/catherinevee/starfleet/internal/starerrors"
)

// Config is the worker-shaped configuration subsection named by
// STARFLEET.AccountIndex, keyed by the index plugin's own name (default
// "StarfleetDefaultAccountIndex").
type Config struct {
	IndexBucket     string `yaml:"IndexBucket" validate:"required"`
	IndexObjectPath string `yaml:"IndexObjectPath"`
	BucketRegion    string `yaml:"BucketRegion" validate:"required"`
}

const defaultIndexObjectPath = "accountIndex.json"

// ObjectPath returns the configured snapshot key, defaulting to
// accountIndex.json when unset.
func (c Config) ObjectPath() string {
	if c.IndexObjectPath == "" {
		return defaultIndexObjectPath
	}
	return c.IndexObjectPath
}

// DecodeConfig re-encodes a raw configuration subsection (as produced by
// sfconfig's merged document) into a Config.
func DecodeConfig(raw map[string]interface{}) (Config, error) {
	var cfg Config
	encoded, err := yaml.Marshal(raw)
	if err != nil {
		return Config{}, starerrors.Wrapf(starerrors.UnknownAccountIndex, err, "re-encoding account index configuration")
	}
	if err := yaml.Unmarshal(encoded, &cfg); err != nil {
		return Config{}, starerrors.Wrapf(starerrors.UnknownAccountIndex, err, "decoding account index configuration")
	}
	if cfg.IndexBucket == "" || cfg.BucketRegion == "" {
		return Config{}, starerrors.Newf(starerrors.UnknownAccountIndex, "account index configuration missing IndexBucket or BucketRegion")
	}
	return cfg, nil
}

// LoadFromStore fetches the snapshot object named by cfg from store and
// builds the Index from it. The index is built once, from a snapshot
// document, at process start.
func LoadFromStore(ctx context.Context, store objectstore.ObjectStore, cfg Config) (*Index, error) {
	data, err := store.GetObject(ctx, cfg.IndexBucket, cfg.ObjectPath())
	if err != nil {
		return nil, starerrors.Wrapf(starerrors.UnknownAccountIndex, err, "fetching account index snapshot %s/%s", cfg.IndexBucket, cfg.ObjectPath())
	}
	idx, err := Load(data)
	if err != nil {
		return nil, starerrors.Wrapf(starerrors.UnknownAccountIndex, err, "parsing account index snapshot %s/%s", cfg.IndexBucket, cfg.ObjectPath())
	}
	return idx, nil
}
