// Package secrets provides secret values for job files. Providers look up a value by key,
// DBProvider also stores encrypted values in a database.
package secrets

import "errors"

// ErrNotFound returned by providers for unknown keys
var ErrNotFound = errors.New("secret not found")

// Provider returns a secret value by key
type Provider interface {
	Get(key string) (string, error)
}

// NoOpProvider is a provider that does nothing.
type NoOpProvider struct{}

// Get returns an error on every key.
func (p *NoOpProvider) Get(_ string) (string, error) {
	return "", errors.New("no secrets provider configured")
}
