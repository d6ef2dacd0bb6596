package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bnema/anicord/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepository(t *testing.T) (*Repository, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "db", "anicord.db")
	repo, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo, path
}

func TestRepositoryRostersRoundTrip(t *testing.T) {
	t.Parallel()

	repo, _ := openTestRepository(t)
	rosters := domain.Rosters{
		"guild-1": {
			"u1": {ChatUserID: "u1", CatalogUserID: 10, CatalogUserName: "Alice", DisplayName: "Ally"},
			"u2": {ChatUserID: "u2", CatalogUserID: 11, CatalogUserName: "Bob", DisplayName: "Bobby"},
		},
		"guild-2": {},
	}

	require.NoError(t, repo.Save(context.Background(), rosters))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rosters, got)
}

func TestRepositorySaveReplacesWholeDocument(t *testing.T) {
	t.Parallel()

	repo, _ := openTestRepository(t)
	require.NoError(t, repo.Save(context.Background(), domain.Rosters{
		"guild-1": {"u1": {ChatUserID: "u1", CatalogUserID: 10, CatalogUserName: "Alice"}},
	}))
	require.NoError(t, repo.Save(context.Background(), domain.Rosters{"guild-2": {}}))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.Rosters{"guild-2": {}}, got)
}

func TestRepositoryPersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	repo, path := openTestRepository(t)
	require.NoError(t, repo.Save(context.Background(), domain.Rosters{
		"guild-1": {"u1": {ChatUserID: "u1", CatalogUserID: 10, CatalogUserName: "Alice", DisplayName: "Ally"}},
	}))
	require.NoError(t, repo.SaveSettings(context.Background(), domain.Settings{Prefix: "$"}))
	require.NoError(t, repo.Close())

	reopened, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	rosters, err := reopened.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Alice", rosters["guild-1"]["u1"].CatalogUserName)

	settings, err := reopened.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "$", settings.Prefix)
}

func TestRepositorySettingsRoundTrip(t *testing.T) {
	t.Parallel()

	repo, _ := openTestRepository(t)

	settings, err := repo.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPrefix, settings.Prefix)
	assert.Empty(t, settings.Guilds)

	want := domain.Settings{
		Prefix: "?",
		Guilds: map[string]domain.GuildSettings{
			"guild-1": {Channels: []string{"c2", "c1"}},
			"guild-2": {},
		},
	}
	require.NoError(t, repo.SaveSettings(context.Background(), want))

	got, err := repo.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRepositoryDuplicateMemberRollsBack(t *testing.T) {
	t.Parallel()

	repo, _ := openTestRepository(t)
	before := domain.Rosters{"guild-1": {"u1": {ChatUserID: "u1", CatalogUserID: 10, CatalogUserName: "Alice"}}}
	require.NoError(t, repo.Save(context.Background(), before))

	// Two map keys carrying the same chat user ID collide on the primary key.
	err := repo.Save(context.Background(), domain.Rosters{"guild-1": {
		"a": {ChatUserID: "dup", CatalogUserID: 1, CatalogUserName: "X"},
		"b": {ChatUserID: "dup", CatalogUserID: 2, CatalogUserName: "Y"},
	}})
	require.Error(t, err)

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, got)
}

func TestRepositoryCanceledContext(t *testing.T) {
	t.Parallel()

	repo, _ := openTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, domain.Rosters{})
	assert.True(t, errors.Is(err, context.Canceled))
	_, err = repo.Load(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
