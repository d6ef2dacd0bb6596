package env

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/anicord/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetReadsMappedVariable(t *testing.T) {
	t.Setenv("ANICORD_TEST_TOKEN", "  from-env\n")

	store := NewStore(map[string]string{"anicord/discord/token": "ANICORD_TEST_TOKEN"})

	value, err := store.Get(context.Background(), "anicord/discord/token")
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)
}

func TestStoreGetNotFound(t *testing.T) {
	t.Parallel()

	store := NewStore(map[string]string{"anicord/discord/token": "TOKEN"})
	store.lookup = func(string) (string, bool) { return "", false }

	testCases := []struct {
		name string
		key  string
	}{
		{name: "unset variable", key: "anicord/discord/token"},
		{name: "unmapped key", key: "other"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Get(context.Background(), tc.key)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ports.ErrCredentialNotFound))
		})
	}
}

func TestStoreIsReadOnly(t *testing.T) {
	t.Parallel()

	store := NewStore(nil)

	err := store.Put(context.Background(), "k", "v")
	assert.True(t, errors.Is(err, ports.ErrCredentialReadOnly))

	err = store.Delete(context.Background(), "k")
	assert.True(t, errors.Is(err, ports.ErrCredentialReadOnly))
}
