// Package secretsmanager implements secrets.SecretStore against AWS Secrets
// Manager.
package secretsmanager

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// Store is a Secrets Manager-backed secrets.SecretStore. It caches clients
// per region since a single process may fetch secrets from a region other
// than its own deployment region.
type Store struct {
	clients map[string]*secretsmanager.Client
}

// New builds an empty Store; clients are created lazily per region.
func New() *Store {
	return &Store{clients: make(map[string]*secretsmanager.Client)}
}

func (s *Store) clientFor(ctx context.Context, region string) (*secretsmanager.Client, error) {
	if client, ok := s.clients[region]; ok {
		return client, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for secrets manager in %s: %w", region, err)
	}
	client := secretsmanager.NewFromConfig(cfg)
	s.clients[region] = client
	return client, nil
}

// GetSecret fetches a secret and decodes its JSON payload into a flat
// key/value map, matching the shape the Slack notifier expects (a
// SlackToken key).
func (s *Store) GetSecret(ctx context.Context, secretID, region string) (map[string]string, error) {
	client, err := s.clientFor(ctx, region)
	if err != nil {
		return nil, err
	}

	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching secret %s in %s: %w", secretID, region, err)
	}

	var values map[string]string
	if err := json.Unmarshal([]byte(aws.ToString(out.SecretString)), &values); err != nil {
		return nil, fmt.Errorf("decoding secret %s as JSON key/value map: %w", secretID, err)
	}

	return values, nil
}
