package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/bnema/anicord/internal/domain"
	"github.com/bnema/anicord/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	StoreDirKey      = "store.dir"
	usersFileName    = "users.toml"
	settingsFileName = "settings.toml"
	defaultConfigDir = ".config/anicord"
	storeFileMode    = 0o600
	storeDirMode     = 0o700
)

// Repository keeps rosters in users.toml and bot settings in settings.toml.
// Every save rewrites the whole file atomically.
type Repository struct {
	usersPath    string
	settingsPath string
	usersMu      *sync.RWMutex
	settingsMu   *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var (
	_ ports.IdentityStore = (*Repository)(nil)
	_ ports.SettingsStore = (*Repository)(nil)
)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	dir := cfg.GetString(StoreDirKey)
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(homeDir, defaultConfigDir)
	}

	dir, err := normalizeDir(dir)
	if err != nil {
		return nil, err
	}

	usersPath := filepath.Join(dir, usersFileName)
	settingsPath := filepath.Join(dir, settingsFileName)
	return &Repository{
		usersPath:    usersPath,
		settingsPath: settingsPath,
		usersMu:      lockForPath(usersPath),
		settingsMu:   lockForPath(settingsPath),
	}, nil
}

func (r *Repository) Load(ctx context.Context) (domain.Rosters, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.usersMu.RLock()
	defer r.usersMu.RUnlock()

	var file usersFileSchema
	if err := readSchema(r.usersPath, "users", &file); err != nil {
		return nil, err
	}
	if err := file.validateVersion(); err != nil {
		return nil, err
	}

	return rostersFromSchema(file), nil
}

func (r *Repository) Save(ctx context.Context, rosters domain.Rosters) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file := rostersToSchema(rosters)
	file.applyDefaults()

	r.usersMu.Lock()
	defer r.usersMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return writeSchema(r.usersPath, "users", file)
}

func (r *Repository) LoadSettings(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}

	r.settingsMu.RLock()
	defer r.settingsMu.RUnlock()

	var file settingsFileSchema
	if err := readSchema(r.settingsPath, "settings", &file); err != nil {
		return domain.Settings{}, err
	}
	if err := file.validateVersion(); err != nil {
		return domain.Settings{}, err
	}

	settings := domain.Settings{Prefix: file.Prefix, Guilds: make(map[string]domain.GuildSettings, len(file.Guilds))}
	for _, guild := range file.Guilds {
		settings.Guilds[guild.ID] = domain.GuildSettings{Channels: guild.Channels}
	}
	settings.ApplyDefaults()
	return settings, nil
}

func (r *Repository) SaveSettings(ctx context.Context, settings domain.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	settings.ApplyDefaults()
	file := settingsFileSchema{Prefix: settings.Prefix, Guilds: make([]guildSettingsSchema, 0, len(settings.Guilds))}
	for id, guild := range settings.Guilds {
		channels := guild.Channels
		if channels == nil {
			channels = []string{}
		}
		file.Guilds = append(file.Guilds, guildSettingsSchema{ID: id, Channels: channels})
	}
	sort.Slice(file.Guilds, func(i, j int) bool { return file.Guilds[i].ID < file.Guilds[j].ID })
	file.applyDefaults()

	r.settingsMu.Lock()
	defer r.settingsMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return writeSchema(r.settingsPath, "settings", file)
}

func (r *Repository) UsersPath() string {
	return r.usersPath
}

func rostersToSchema(rosters domain.Rosters) usersFileSchema {
	file := usersFileSchema{Guilds: make([]guildSchema, 0, len(rosters))}
	for guildID, roster := range rosters {
		guild := guildSchema{ID: guildID, Members: make([]memberSchema, 0, len(roster))}
		for _, identity := range roster {
			guild.Members = append(guild.Members, memberSchema{
				ChatUserID:      identity.ChatUserID,
				CatalogUserID:   identity.CatalogUserID,
				CatalogUserName: identity.CatalogUserName,
				DisplayName:     identity.DisplayName,
			})
		}
		sort.Slice(guild.Members, func(i, j int) bool { return guild.Members[i].ChatUserID < guild.Members[j].ChatUserID })
		file.Guilds = append(file.Guilds, guild)
	}
	sort.Slice(file.Guilds, func(i, j int) bool { return file.Guilds[i].ID < file.Guilds[j].ID })
	return file
}

func rostersFromSchema(file usersFileSchema) domain.Rosters {
	rosters := make(domain.Rosters, len(file.Guilds))
	for _, guild := range file.Guilds {
		roster := make(domain.Roster, len(guild.Members))
		for _, member := range guild.Members {
			roster[member.ChatUserID] = domain.LinkedIdentity{
				ChatUserID:      member.ChatUserID,
				CatalogUserID:   member.CatalogUserID,
				CatalogUserName: member.CatalogUserName,
				DisplayName:     member.DisplayName,
			}
		}
		rosters[guild.ID] = roster
	}
	return rosters
}

func readSchema(path, kind string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s file: %w", kind, err)
	}

	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s file: %w", kind, err)
	}
	return nil
}

func writeSchema(path, kind string, file any) error {
	if err := os.MkdirAll(filepath.Dir(path), storeDirMode); err != nil {
		return fmt.Errorf("create %s directory: %w", kind, err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode %s file: %w", kind, err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(path), "."+kind+"-*.toml.tmp")
	if err != nil {
		return fmt.Errorf("create temp %s file: %w", kind, err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp %s file: %w", kind, err)
	}

	if err := tempFile.Chmod(storeFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp %s file: %w", kind, err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp %s file: %w", kind, err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace %s file: %w", kind, err)
	}

	cleanup = false
	return nil
}

func normalizeDir(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve store directory: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
