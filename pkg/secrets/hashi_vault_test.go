package secrets

import (
	"context"
	"testing"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestHashiVaultProvider_Get(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping vault container in short mode")
	}
	vaultC, vaultAddr := createVaultTestContainer(t)
	defer vaultC.Terminate(context.Background()) //nolint

	vaultClient, err := api.NewClient(&api.Config{Address: vaultAddr})
	require.NoError(t, err, "failed to create Vault client")
	vaultClient.SetToken("myroot-token")

	_, err = vaultClient.Logical().Write("secret/data/lext", map[string]any{
		"data": map[string]any{"pg-pass": "test-secret", "port": 5432},
	})
	require.NoError(t, err, "failed to write secret to Vault")

	p, err := NewHashiVaultProvider(vaultAddr, "secret/data/lext", "myroot-token")
	require.NoError(t, err)

	t.Run("existed key", func(t *testing.T) {
		val, err := p.Get("pg-pass")
		require.NoError(t, err)
		assert.Equal(t, "test-secret", val)
	})

	t.Run("non-existed key", func(t *testing.T) {
		_, err := p.Get("key2")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("not a string", func(t *testing.T) {
		_, err := p.Get("port")
		require.EqualError(t, err, "unexpected secret value format")
	})

	t.Run("missing path", func(t *testing.T) {
		other, err := NewHashiVaultProvider(vaultAddr, "secret/data/other", "myroot-token")
		require.NoError(t, err)
		_, err = other.Get("pg-pass")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid token", func(t *testing.T) {
		invalid, err := NewHashiVaultProvider(vaultAddr, "secret/data/lext", "invalid-token")
		require.NoError(t, err)
		_, err = invalid.Get("pg-pass")
		require.ErrorContains(t, err, "permission denied")
	})
}

func TestHashiVaultProvider_BadAddress(t *testing.T) {
	p, err := NewHashiVaultProvider("http://127.0.0.1:1", "secret/data/lext", "myroot-token")
	require.NoError(t, err)
	_, err = p.Get("key1")
	require.ErrorContains(t, err, "can't read secret from vault")
}

func createVaultTestContainer(t *testing.T) (vaultC testcontainers.Container, vaultAddr string) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "hashicorp/vault:1.15",
		ExposedPorts: []string{"8200/tcp"},
		Env: map[string]string{
			"VAULT_DEV_ROOT_TOKEN_ID":  "myroot-token",
			"VAULT_DEV_LISTEN_ADDRESS": "0.0.0.0:8200",
		},
		WaitingFor: wait.ForHTTP("/v1/sys/init").WithPort("8200/tcp"),
	}

	vaultC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start Vault container: %v", err)
	}

	host, _ := vaultC.Host(ctx)
	port, _ := vaultC.MappedPort(ctx, "8200")
	return vaultC, "http://" + host + ":" + port.Port()
}
