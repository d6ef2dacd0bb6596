package toml

import "fmt"

const currentSchemaVersion = 1

type usersFileSchema struct {
	Version int           `toml:"version"`
	Guilds  []guildSchema `toml:"guilds"`
}

type guildSchema struct {
	ID      string         `toml:"id"`
	Members []memberSchema `toml:"members,omitempty"`
}

type memberSchema struct {
	ChatUserID      string `toml:"chat_user_id"`
	CatalogUserID   int    `toml:"catalog_user_id"`
	CatalogUserName string `toml:"catalog_user_name"`
	DisplayName     string `toml:"display_name"`
}

type settingsFileSchema struct {
	Version int                   `toml:"version"`
	Prefix  string                `toml:"prefix"`
	Guilds  []guildSettingsSchema `toml:"guilds"`
}

type guildSettingsSchema struct {
	ID       string   `toml:"id"`
	Channels []string `toml:"channels"`
}

func (s *usersFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s usersFileSchema) validateVersion() error {
	return validateVersion("users", s.Version)
}

func (s *settingsFileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s settingsFileSchema) validateVersion() error {
	return validateVersion("settings", s.Version)
}

func validateVersion(kind string, version int) error {
	if version > currentSchemaVersion {
		return fmt.Errorf("unsupported %s schema version %d (current %d)", kind, version, currentSchemaVersion)
	}

	return nil
}
