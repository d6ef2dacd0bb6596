package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bnema/anicord/internal/domain"
	"github.com/bnema/anicord/internal/ports"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS guilds (
  id TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS members (
  guild_id TEXT NOT NULL,
  chat_user_id TEXT NOT NULL,
  catalog_user_id INTEGER NOT NULL,
  catalog_user_name TEXT NOT NULL,
  display_name TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (guild_id, chat_user_id)
);
CREATE TABLE IF NOT EXISTS settings (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS guild_settings (
  guild_id TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS guild_channels (
  guild_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  channel_id TEXT NOT NULL,
  PRIMARY KEY (guild_id, position)
);
`

const prefixKey = "prefix"

// Repository stores rosters and settings in one SQLite database. Saves
// replace the stored document inside a single transaction.
type Repository struct {
	db *sql.DB
}

var (
	_ ports.IdentityStore = (*Repository)(nil)
	_ ports.SettingsStore = (*Repository)(nil)
)

func Open(ctx context.Context, path string) (*Repository, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Load(ctx context.Context) (domain.Rosters, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rosters := domain.Rosters{}

	guildRows, err := r.db.QueryContext(ctx, `SELECT id FROM guilds`)
	if err != nil {
		return nil, fmt.Errorf("query guilds: %w", err)
	}
	defer guildRows.Close()
	for guildRows.Next() {
		var id string
		if err := guildRows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan guild: %w", err)
		}
		rosters[id] = domain.Roster{}
	}
	if err := guildRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guilds: %w", err)
	}

	memberRows, err := r.db.QueryContext(ctx, `SELECT guild_id, chat_user_id, catalog_user_id, catalog_user_name, display_name FROM members`)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer memberRows.Close()
	for memberRows.Next() {
		var guildID string
		var identity domain.LinkedIdentity
		if err := memberRows.Scan(&guildID, &identity.ChatUserID, &identity.CatalogUserID, &identity.CatalogUserName, &identity.DisplayName); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		roster, ok := rosters[guildID]
		if !ok {
			roster = domain.Roster{}
			rosters[guildID] = roster
		}
		roster[identity.ChatUserID] = identity
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}

	return rosters, nil
}

func (r *Repository) Save(ctx context.Context, rosters domain.Rosters) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM members`); err != nil {
			return fmt.Errorf("clear members: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM guilds`); err != nil {
			return fmt.Errorf("clear guilds: %w", err)
		}

		for guildID, roster := range rosters {
			if _, err := tx.ExecContext(ctx, `INSERT INTO guilds (id) VALUES (?)`, guildID); err != nil {
				return fmt.Errorf("insert guild %s: %w", guildID, err)
			}
			for _, identity := range roster {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO members (guild_id, chat_user_id, catalog_user_id, catalog_user_name, display_name) VALUES (?, ?, ?, ?, ?)`,
					guildID, identity.ChatUserID, identity.CatalogUserID, identity.CatalogUserName, identity.DisplayName,
				)
				if err != nil {
					return fmt.Errorf("insert member %s of guild %s: %w", identity.ChatUserID, guildID, err)
				}
			}
		}
		return nil
	})
}

func (r *Repository) LoadSettings(ctx context.Context) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}

	settings := domain.Settings{Guilds: map[string]domain.GuildSettings{}}

	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, prefixKey).Scan(&settings.Prefix)
	if err != nil && err != sql.ErrNoRows {
		return domain.Settings{}, fmt.Errorf("query prefix: %w", err)
	}

	guildRows, err := r.db.QueryContext(ctx, `SELECT guild_id FROM guild_settings`)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("query guild settings: %w", err)
	}
	defer guildRows.Close()
	for guildRows.Next() {
		var guildID string
		if err := guildRows.Scan(&guildID); err != nil {
			return domain.Settings{}, fmt.Errorf("scan guild settings: %w", err)
		}
		settings.Guilds[guildID] = domain.GuildSettings{}
	}
	if err := guildRows.Err(); err != nil {
		return domain.Settings{}, fmt.Errorf("iterate guild settings: %w", err)
	}

	channelRows, err := r.db.QueryContext(ctx, `SELECT guild_id, channel_id FROM guild_channels ORDER BY guild_id, position`)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("query guild channels: %w", err)
	}
	defer channelRows.Close()
	for channelRows.Next() {
		var guildID, channelID string
		if err := channelRows.Scan(&guildID, &channelID); err != nil {
			return domain.Settings{}, fmt.Errorf("scan guild channel: %w", err)
		}
		guild := settings.Guilds[guildID]
		guild.Channels = append(guild.Channels, channelID)
		settings.Guilds[guildID] = guild
	}
	if err := channelRows.Err(); err != nil {
		return domain.Settings{}, fmt.Errorf("iterate guild channels: %w", err)
	}

	settings.ApplyDefaults()
	return settings, nil
}

func (r *Repository) SaveSettings(ctx context.Context, settings domain.Settings) error {
	settings.ApplyDefaults()

	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			prefixKey, settings.Prefix,
		)
		if err != nil {
			return fmt.Errorf("store prefix: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM guild_channels`); err != nil {
			return fmt.Errorf("clear guild channels: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM guild_settings`); err != nil {
			return fmt.Errorf("clear guild settings: %w", err)
		}

		for guildID, guild := range settings.Guilds {
			if _, err := tx.ExecContext(ctx, `INSERT INTO guild_settings (guild_id) VALUES (?)`, guildID); err != nil {
				return fmt.Errorf("insert guild settings %s: %w", guildID, err)
			}
			for position, channelID := range guild.Channels {
				_, err := tx.ExecContext(ctx,
					`INSERT INTO guild_channels (guild_id, position, channel_id) VALUES (?, ?, ?)`,
					guildID, position, channelID,
				)
				if err != nil {
					return fmt.Errorf("insert channel %s of guild %s: %w", channelID, guildID, err)
				}
			}
		}
		return nil
	})
}

func (r *Repository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
