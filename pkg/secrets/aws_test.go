package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umputun/lext/pkg/secrets/mocks"
)

func TestAWSSecretsProvider_Get(t *testing.T) {
	a, err := NewAWSSecretsProvider("key", "secret", "us-east-1")
	require.NoError(t, err, "failed to create AWSSecretsProvider")

	sm := &mocks.SecretsManagerClient{
		GetSecretValueFunc: func(_ context.Context, params *secretsmanager.GetSecretValueInput,
			_ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
			switch *params.SecretId {
			case "key1":
				res := "test-secret"
				return &secretsmanager.GetSecretValueOutput{SecretString: &res}, nil
			case "binary":
				return &secretsmanager.GetSecretValueOutput{SecretBinary: []byte{1, 2}}, nil
			}
			return nil, errors.New("error 123")
		},
	}
	a.client = sm

	t.Run("secret found", func(t *testing.T) {
		val, err := a.Get("key1")
		require.NoError(t, err)
		assert.Equal(t, "test-secret", val)
	})

	t.Run("secret not found", func(t *testing.T) {
		_, err := a.Get("key2")
		require.EqualError(t, err, "can't read aws secret for \"key2\": error 123")
	})

	t.Run("binary secret", func(t *testing.T) {
		_, err := a.Get("binary")
		require.EqualError(t, err, "aws secret has no string value")
	})
	require.Len(t, sm.GetSecretValueCalls(), 3)
	assert.Equal(t, "key2", *sm.GetSecretValueCalls()[1].Params.SecretId)
}
