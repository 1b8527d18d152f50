package secrets

import (
	"fmt"
	"strings"
)

// MemoryProvider keeps secrets in a map. Used for secrets passed on the command line and in tests.
type MemoryProvider struct {
	secrets map[string]string
}

// NewMemoryProvider makes a provider with a copy of secrets, keys are trimmed
func NewMemoryProvider(secrets map[string]string) *MemoryProvider {
	res := &MemoryProvider{secrets: make(map[string]string, len(secrets))}
	for k, v := range secrets {
		res.secrets[strings.TrimSpace(k)] = v
	}
	return res
}

// Get returns the secret of the key, ErrNotFound if there is no such key
func (m *MemoryProvider) Get(key string) (string, error) {
	if v, ok := m.secrets[key]; ok {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, key)
}
