package application

import (
	"context"
	"testing"

	"github.com/bnema/anicord/internal/domain"
	"github.com/bnema/anicord/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsServiceDefaults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := mocks.NewMockSettingsStore(t)
	store.On("LoadSettings", ctx).Return(domain.Settings{}, nil).Once()

	svc, err := NewSettingsService(ctx, store, "")
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultPrefix, svc.Prefix())
	assert.True(t, svc.Allowed("g1", "c1"))
}

func TestSettingsServicePrefixOverride(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := mocks.NewMockSettingsStore(t)
	store.On("LoadSettings", ctx).Return(domain.Settings{Prefix: "?"}, nil).Once()

	svc, err := NewSettingsService(ctx, store, " ~ ")
	require.NoError(t, err)
	assert.Equal(t, "~", svc.Prefix())
}

func TestSettingsServiceSetChannels(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := mocks.NewMockSettingsStore(t)
	store.On("LoadSettings", ctx).Return(domain.Settings{Prefix: "!"}, nil).Once()
	store.On("SaveSettings", ctx, domain.Settings{
		Prefix: "!",
		Guilds: map[string]domain.GuildSettings{"g1": {Channels: []string{"c1", "c2"}}},
	}).Return(nil).Once()
	store.On("SaveSettings", ctx, domain.Settings{
		Prefix: "!",
		Guilds: map[string]domain.GuildSettings{"g1": {}},
	}).Return(nil).Once()

	svc, err := NewSettingsService(ctx, store, "")
	require.NoError(t, err)

	require.NoError(t, svc.SetChannels(ctx, "g1", []string{"c1", " c2 ", "c1", ""}))
	assert.True(t, svc.Allowed("g1", "c2"))
	assert.False(t, svc.Allowed("g1", "c3"))
	assert.True(t, svc.Allowed("g2", "c3"))
	assert.Equal(t, []string{"c1", "c2"}, svc.Channels("g1"))

	require.NoError(t, svc.SetChannels(ctx, "g1", nil))
	assert.True(t, svc.Allowed("g1", "c3"))
}

func TestSettingsServiceKeepsStateOnSaveFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := mocks.NewMockSettingsStore(t)
	store.On("LoadSettings", ctx).Return(domain.Settings{}, nil).Once()
	store.On("SaveSettings", ctx, domain.Settings{
		Prefix: "!",
		Guilds: map[string]domain.GuildSettings{"g1": {Channels: []string{"c1"}}},
	}).Return(errBoom).Once()

	svc, err := NewSettingsService(ctx, store, "")
	require.NoError(t, err)

	require.ErrorIs(t, svc.SetChannels(ctx, "g1", []string{"c1"}), errBoom)
	assert.True(t, svc.Allowed("g1", "c9"))
}

func TestSettingsServiceEnsureGuild(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := mocks.NewMockSettingsStore(t)
	store.On("LoadSettings", ctx).Return(domain.Settings{}, nil).Once()
	store.On("SaveSettings", ctx, domain.Settings{
		Prefix: "!",
		Guilds: map[string]domain.GuildSettings{"g1": {}},
	}).Return(nil).Once()

	svc, err := NewSettingsService(ctx, store, "")
	require.NoError(t, err)

	require.NoError(t, svc.EnsureGuild(ctx, "g1"))
	require.NoError(t, svc.EnsureGuild(ctx, "g1"))
}
