// Package sqlite implements the persistence gateway over a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gamma-delta/tater-board/internal/platform/storage/sqlitemigrate"
	"github.com/gamma-delta/tater-board/internal/storage"
	_ "modernc.org/sqlite"

	"github.com/gamma-delta/tater-board/internal/storage/sqlite/migrations"
)

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Store implements guild persistence over SQLite.
//
// A single SQLite file backs every guild so config and count writes share
// the same transaction and visibility boundaries.
type Store struct {
	sqlDB *sql.DB
	clock func() time.Time
}

// Open opens a store at the provided path and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB, clock: time.Now}, nil
}

// Close releases the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// SaveConfig persists a guild's configuration, replacing the previous one.
func (s *Store) SaveConfig(ctx context.Context, guildID string, cfg storage.ConfigRecord) error {
	if strings.TrimSpace(guildID) == "" {
		return fmt.Errorf("guild id is required")
	}

	now := toMillis(s.clock())
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO guild_config (guild_id, trigger_word, pin_channel, threshold, emoji, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(guild_id) DO UPDATE SET
    trigger_word = excluded.trigger_word,
    pin_channel  = excluded.pin_channel,
    threshold    = excluded.threshold,
    emoji        = excluded.emoji,
    updated_at   = excluded.updated_at
`, guildID, cfg.TriggerWord, cfg.PinChannel, int64(cfg.Threshold), cfg.Emoji, now); err != nil {
			return fmt.Errorf("upsert guild config: %w", err)
		}

		if err := replaceIDRows(ctx, tx, "guild_admins", "user_id", guildID, cfg.Admins); err != nil {
			return fmt.Errorf("replace admins: %w", err)
		}
		if err := replaceIDRows(ctx, tx, "guild_blacklist", "channel_id", guildID, cfg.Blacklist); err != nil {
			return fmt.Errorf("replace blacklist: %w", err)
		}
		return nil
	})
}

// SaveCounts persists both count tables, replacing the previous rows. Row
// positions record the tables' iteration order.
func (s *Store) SaveCounts(ctx context.Context, guildID string, received, given []storage.CountRecord) error {
	if strings.TrimSpace(guildID) == "" {
		return fmt.Errorf("guild id is required")
	}

	now := toMillis(s.clock())
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM tater_counts WHERE guild_id = ?", guildID); err != nil {
			return fmt.Errorf("clear counts: %w", err)
		}
		if err := insertCounts(ctx, tx, guildID, "received", received, now); err != nil {
			return err
		}
		return insertCounts(ctx, tx, guildID, "given", given, now)
	})
}

// LoadGuild fetches a guild's full durable record.
// Returns storage.ErrNotFound when the guild has never been saved.
func (s *Store) LoadGuild(ctx context.Context, guildID string) (storage.GuildRecord, error) {
	if strings.TrimSpace(guildID) == "" {
		return storage.GuildRecord{}, fmt.Errorf("guild id is required")
	}

	record := storage.GuildRecord{GuildID: guildID}

	var threshold int64
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT trigger_word, pin_channel, threshold, emoji
FROM guild_config
WHERE guild_id = ?
`, guildID)
	err := row.Scan(&record.Config.TriggerWord, &record.Config.PinChannel, &threshold, &record.Config.Emoji)
	switch {
	case err == sql.ErrNoRows:
		// Counts can exist without a config row (an explicit save before any
		// admin configuration); treat a guild with neither as not found.
		received, given, countErr := s.loadCounts(ctx, guildID)
		if countErr != nil {
			return storage.GuildRecord{}, countErr
		}
		if len(received) == 0 && len(given) == 0 {
			return storage.GuildRecord{}, storage.ErrNotFound
		}
		record.Received, record.Given = received, given
		return record, nil
	case err != nil:
		return storage.GuildRecord{}, fmt.Errorf("load guild config: %w", err)
	}
	record.Config.Threshold = uint64(threshold)

	if record.Config.Admins, err = s.loadIDRows(ctx, "guild_admins", "user_id", guildID); err != nil {
		return storage.GuildRecord{}, fmt.Errorf("load admins: %w", err)
	}
	if record.Config.Blacklist, err = s.loadIDRows(ctx, "guild_blacklist", "channel_id", guildID); err != nil {
		return storage.GuildRecord{}, fmt.Errorf("load blacklist: %w", err)
	}
	if record.Received, record.Given, err = s.loadCounts(ctx, guildID); err != nil {
		return storage.GuildRecord{}, err
	}
	return record, nil
}

// ListGuildIDs returns every guild with any durable state.
func (s *Store) ListGuildIDs(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT guild_id FROM guild_config
UNION
SELECT guild_id FROM tater_counts
ORDER BY guild_id
`)
	if err != nil {
		return nil, fmt.Errorf("list guilds: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan guild id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AppendTelemetryEvent records one operational event.
func (s *Store) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if strings.TrimSpace(event.ID) == "" {
		return fmt.Errorf("event id is required")
	}
	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = s.clock()
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO telemetry_events (id, guild_id, command, severity, message, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, event.ID, event.GuildID, event.Command, event.Severity, event.Message, toMillis(timestamp))
	if err != nil {
		return fmt.Errorf("append telemetry event: %w", err)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func replaceIDRows(ctx context.Context, tx *sql.Tx, table, column, guildID string, ids []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE guild_id = ?", guildID); err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO "+table+" (guild_id, "+column+") VALUES (?, ?)", guildID, id); err != nil {
			return err
		}
	}
	return nil
}

func insertCounts(ctx context.Context, tx *sql.Tx, guildID, kind string, records []storage.CountRecord, now int64) error {
	for position, record := range records {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO tater_counts (guild_id, kind, user_id, count, position, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`, guildID, kind, record.UserID, int64(record.Count), position, now); err != nil {
			return fmt.Errorf("insert %s count: %w", kind, err)
		}
	}
	return nil
}

func (s *Store) loadIDRows(ctx context.Context, table, column, guildID string) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+column+" FROM "+table+" WHERE guild_id = ? ORDER BY "+column, guildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) loadCounts(ctx context.Context, guildID string) (received, given []storage.CountRecord, err error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT kind, user_id, count
FROM tater_counts
WHERE guild_id = ?
ORDER BY kind, position
`, guildID)
	if err != nil {
		return nil, nil, fmt.Errorf("load counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, userID string
		var count int64
		if err := rows.Scan(&kind, &userID, &count); err != nil {
			return nil, nil, fmt.Errorf("scan count row: %w", err)
		}
		record := storage.CountRecord{UserID: userID, Count: uint64(count)}
		if kind == "given" {
			given = append(given, record)
		} else {
			received = append(received, record)
		}
	}
	return received, given, rows.Err()
}
