// Package awsfakes provides in-memory stand-ins for the ObjectStore, Queue,
// and SecretStore interfaces, used throughout the dispatcher/fan-out/
// resolver test suites instead of hitting real AWS services.
package awsfakes

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/catherinevee/starfleet/internal/queue"
)

// ObjectStore is an in-memory objectstore.ObjectStore keyed by
// "bucket/key".
type ObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewObjectStore builds an empty fake store.
func NewObjectStore() *ObjectStore {
	return &ObjectStore{objects: make(map[string][]byte)}
}

// Put seeds an object for later ListObjects/GetObject calls.
func (s *ObjectStore) Put(bucket, key string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = body
}

// ListObjects returns every seeded key under bucket/prefix, sorted.
func (s *ObjectStore) ListObjects(_ context.Context, bucket, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefixPath := bucket + "/" + prefix
	var keys []string
	for full := range s.objects {
		if !strings.HasPrefix(full, bucket+"/") {
			continue
		}
		if !strings.HasPrefix(full, prefixPath) {
			continue
		}
		keys = append(keys, strings.TrimPrefix(full, bucket+"/"))
	}
	sort.Strings(keys)
	return keys, nil
}

// GetObject returns a previously seeded object, or an error if absent.
func (s *ObjectStore) GetObject(_ context.Context, bucket, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	body, ok := s.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("no such object: %s/%s", bucket, key)
	}
	return body, nil
}

// Batch is one recorded SendMessageBatch call.
type Batch struct {
	QueueURL string
	Entries  []queue.BatchEntry
}

// Queue is an in-memory queue.Queue that records every batch sent to it.
type Queue struct {
	mu      sync.Mutex
	batches []Batch
	FailOn  func(queueURL string, entries []queue.BatchEntry) error
}

// NewQueue builds an empty fake queue.
func NewQueue() *Queue {
	return &Queue{}
}

// SendMessageBatch records the batch, or returns FailOn's error if set.
func (q *Queue) SendMessageBatch(_ context.Context, queueURL string, entries []queue.BatchEntry) error {
	if q.FailOn != nil {
		if err := q.FailOn(queueURL, entries); err != nil {
			return err
		}
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.batches = append(q.batches, Batch{QueueURL: queueURL, Entries: entries})
	return nil
}

// Batches returns every batch sent so far, in send order.
func (q *Queue) Batches() []Batch {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Batch, len(q.batches))
	copy(out, q.batches)
	return out
}

// AllEntries flattens every batch into a single ordered entry list.
func (q *Queue) AllEntries() []queue.BatchEntry {
	var out []queue.BatchEntry
	for _, batch := range q.Batches() {
		out = append(out, batch.Entries...)
	}
	return out
}

// SecretStore is an in-memory secrets.SecretStore.
type SecretStore struct {
	mu      sync.Mutex
	secrets map[string]map[string]string
}

// NewSecretStore builds an empty fake secret store.
func NewSecretStore() *SecretStore {
	return &SecretStore{secrets: make(map[string]map[string]string)}
}

// Put seeds a secret payload for a given secretID/region pair.
func (s *SecretStore) Put(secretID, region string, values map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[secretID+"/"+region] = values
}

// GetSecret returns a previously seeded secret payload, or an error if
// absent.
func (s *SecretStore) GetSecret(_ context.Context, secretID, region string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	values, ok := s.secrets[secretID+"/"+region]
	if !ok {
		return nil, fmt.Errorf("no such secret: %s/%s", secretID, region)
	}
	return values, nil
}
