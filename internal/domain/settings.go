package domain

import "strings"

const DefaultPrefix = "!"

type Settings struct {
	Prefix string
	Guilds map[string]GuildSettings
}

// GuildSettings holds per-guild options. An empty channel list means commands
// are accepted in every channel.
type GuildSettings struct {
	Channels []string
}

func (g GuildSettings) Allows(channelID string) bool {
	if len(g.Channels) == 0 {
		return true
	}
	for _, channel := range g.Channels {
		if channel == channelID {
			return true
		}
	}
	return false
}

func (s *Settings) ApplyDefaults() {
	if strings.TrimSpace(s.Prefix) == "" {
		s.Prefix = DefaultPrefix
	}
	if s.Guilds == nil {
		s.Guilds = map[string]GuildSettings{}
	}
}

func (s Settings) Clone() Settings {
	cloned := Settings{Prefix: s.Prefix, Guilds: make(map[string]GuildSettings, len(s.Guilds))}
	for guildID, guild := range s.Guilds {
		cloned.Guilds[guildID] = GuildSettings{Channels: append([]string(nil), guild.Channels...)}
	}
	return cloned
}
