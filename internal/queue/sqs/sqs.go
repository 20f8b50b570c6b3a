// Package sqs implements queue.Queue against AWS SQS.
package sqs

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/catherinevee/starfleet/internal/queue"
)

// Queue is an SQS-backed queue.Queue.
type Queue struct {
	client *sqs.Client
}

// New builds a Queue from the default AWS credential chain for the given
// region.
func New(ctx context.Context, region string) (*Queue, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for queue client: %w", err)
	}
	return &Queue{client: sqs.NewFromConfig(cfg)}, nil
}

// SendMessageBatch sends up to 10 entries as a single atomic SQS batch call.
// Chunking a larger entry set into multiple calls is the caller's
// responsibility; this method does not chunk beyond what SQS allows per call.
func (q *Queue) SendMessageBatch(ctx context.Context, queueURL string, entries []queue.BatchEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batchEntries := make([]types.SendMessageBatchRequestEntry, len(entries))
	for i, entry := range entries {
		batchEntries[i] = types.SendMessageBatchRequestEntry{
			Id:          aws.String(entry.ID),
			MessageBody: aws.String(entry.Body),
		}
	}

	out, err := q.client.SendMessageBatch(ctx, &sqs.SendMessageBatchInput{
		QueueUrl: aws.String(queueURL),
		Entries:  batchEntries,
	})
	if err != nil {
		return fmt.Errorf("sending batch of %d messages to %s: %w", len(entries), queueURL, err)
	}
	if len(out.Failed) > 0 {
		return fmt.Errorf("%d of %d messages failed in batch to %s: %s", len(out.Failed), len(entries), queueURL, aws.ToString(out.Failed[0].Message))
	}

	return nil
}
