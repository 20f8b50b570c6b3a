// Package queue declares the message-queue abstraction the dispatcher and
// fan-out engine enqueue onto, independent of any particular backend.
package queue

import "context"

// BatchEntry is one message within a batched send. Each entry carries a
// batch-unique identifier.
type BatchEntry struct {
	ID   string
	Body string
}

// Queue sends a batch of messages to a queue URL in a single atomic call.
type Queue interface {
	SendMessageBatch(ctx context.Context, queueURL string, entries []BatchEntry) error
}
