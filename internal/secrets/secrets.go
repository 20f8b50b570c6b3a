// Package secrets declares the secret-store abstraction the alert sink uses
// to retrieve Slack (or other) credentials.
package secrets

import "context"

// SecretStore fetches a named secret's key/value payload from a region.
type SecretStore interface {
	GetSecret(ctx context.Context, secretID, region string) (map[string]string, error)
}
