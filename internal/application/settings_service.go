package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bnema/anicord/internal/domain"
	"github.com/bnema/anicord/internal/ports"
)

// SettingsService holds the bot prefix and per-guild channel restrictions.
type SettingsService struct {
	store ports.SettingsStore

	mu       sync.RWMutex
	settings domain.Settings
	saveMu   sync.Mutex
}

// NewSettingsService loads persisted settings. A non-empty prefixOverride
// replaces the stored prefix for this process only.
func NewSettingsService(ctx context.Context, store ports.SettingsStore, prefixOverride string) (*SettingsService, error) {
	settings, err := store.LoadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if trimmed := strings.TrimSpace(prefixOverride); trimmed != "" {
		settings.Prefix = trimmed
	}
	settings.ApplyDefaults()

	return &SettingsService{store: store, settings: settings}, nil
}

func (s *SettingsService) Prefix() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Prefix
}

// EnsureGuild records a guild with no channel restriction the first time it
// is seen.
func (s *SettingsService) EnsureGuild(ctx context.Context, guildID string) error {
	s.mu.RLock()
	_, ok := s.settings.Guilds[guildID]
	s.mu.RUnlock()
	if ok {
		return nil
	}

	return s.update(ctx, func(settings *domain.Settings) bool {
		if _, ok := settings.Guilds[guildID]; ok {
			return false
		}
		settings.Guilds[guildID] = domain.GuildSettings{}
		return true
	})
}

// SetChannels restricts commands to channels. An empty list lifts the
// restriction.
func (s *SettingsService) SetChannels(ctx context.Context, guildID string, channels []string) error {
	deduped := make([]string, 0, len(channels))
	seen := make(map[string]struct{}, len(channels))
	for _, channel := range channels {
		channel = strings.TrimSpace(channel)
		if channel == "" {
			continue
		}
		if _, ok := seen[channel]; ok {
			continue
		}
		seen[channel] = struct{}{}
		deduped = append(deduped, channel)
	}

	return s.update(ctx, func(settings *domain.Settings) bool {
		settings.Guilds[guildID] = domain.GuildSettings{Channels: deduped}
		return true
	})
}

func (s *SettingsService) Channels(guildID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.settings.Guilds[guildID].Channels...)
}

// Allowed reports whether commands may run in channelID of guildID.
func (s *SettingsService) Allowed(guildID, channelID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.Guilds[guildID].Allows(channelID)
}

func (s *SettingsService) update(ctx context.Context, fn func(*domain.Settings) bool) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	next := s.settings.Clone()
	s.mu.RUnlock()

	if !fn(&next) {
		return nil
	}
	if err := s.store.SaveSettings(ctx, next.Clone()); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	s.mu.Lock()
	s.settings = next
	s.mu.Unlock()
	return nil
}
