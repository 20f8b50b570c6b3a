package accountindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catherinevee/starfleet/internal/testsupport/awsfakes"
)

func TestDecodeConfigDefaultsObjectPath(t *testing.T) {
	cfg, err := DecodeConfig(map[string]interface{}{
		"IndexBucket":  "starfleet-index",
		"BucketRegion": "us-east-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "accountIndex.json", cfg.ObjectPath())
}

func TestDecodeConfigRejectsMissingFields(t *testing.T) {
	_, err := DecodeConfig(map[string]interface{}{"IndexBucket": "starfleet-index"})
	assert.Error(t, err)
}

func TestLoadFromStoreBuildsIndex(t *testing.T) {
	store := awsfakes.NewObjectStore()
	store.Put("starfleet-index", "accountIndex.json", []byte(sampleSnapshot))

	cfg := Config{IndexBucket: "starfleet-index", BucketRegion: "us-east-1"}
	idx, err := LoadFromStore(context.Background(), store, cfg)
	require.NoError(t, err)
	assert.Len(t, idx.GetAll(), 3)
}

func TestLoadFromStoreWrapsMissingObject(t *testing.T) {
	store := awsfakes.NewObjectStore()
	cfg := Config{IndexBucket: "starfleet-index", BucketRegion: "us-east-1"}
	_, err := LoadFromStore(context.Background(), store, cfg)
	assert.Error(t, err)
}
