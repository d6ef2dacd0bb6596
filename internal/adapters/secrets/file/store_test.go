package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/anicord/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tokenKey = "anicord/discord/token"

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	testCases := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "empty", key: "", wantErr: "secret key is empty"},
		{name: "whitespace", key: "   ", wantErr: "secret key is empty"},
		{name: "absolute", key: "/absolute/path", wantErr: "invalid secret key"},
		{name: "traversal", key: "../escape", wantErr: "invalid secret key"},
		{name: "deep traversal", key: "../../secret", wantErr: "invalid secret key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Put(context.Background(), tc.key, "value")
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStorePutGetRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	want := "top-secret"

	err := store.Put(context.Background(), tokenKey, want)
	require.NoError(t, err)

	got, err := store.Get(context.Background(), tokenKey)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(filepath.Join(root, tokenKey))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(secretFileMod), info.Mode().Perm())
}

func TestStoreGetMissingWrapsNotFound(t *testing.T) {
	t.Parallel()

	_, err := NewStore(t.TempDir()).Get(context.Background(), tokenKey)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrCredentialNotFound))
}

func TestStoreGetFallsBackToLegacyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	legacy := filepath.Join(dir, ".token")
	require.NoError(t, os.WriteFile(legacy, []byte("legacy-token\n"), 0o600))

	store := NewStore(filepath.Join(dir, "secrets"), WithLegacyPath(tokenKey, legacy))

	got, err := store.Get(context.Background(), tokenKey)
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", got)

	require.NoError(t, store.Put(context.Background(), tokenKey, "fresh"))
	got, err = store.Get(context.Background(), tokenKey)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)

	require.NoError(t, store.Delete(context.Background(), tokenKey))
	_, err = os.Stat(legacy)
	require.NoError(t, err, "legacy file must survive delete")
}

func TestStoreEmptyLegacyFileIsNotFound(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	legacy := filepath.Join(dir, ".token")
	require.NoError(t, os.WriteFile(legacy, []byte("  \n"), 0o600))

	_, err := NewStore(dir, WithLegacyPath(tokenKey, legacy)).Get(context.Background(), tokenKey)
	assert.True(t, errors.Is(err, ports.ErrCredentialNotFound))
}

func TestStoreDeleteIsIdempotentWhenSecretMissing(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	err := store.Delete(context.Background(), tokenKey)
	require.NoError(t, err)

	err = store.Delete(context.Background(), tokenKey)
	require.NoError(t, err)
}
