// Package taterboard parses taterboard command flags and starts the local
// operator console.
package taterboard

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/gamma-delta/tater-board/internal/dispatch"
	"github.com/gamma-delta/tater-board/internal/guild"
	entrypoint "github.com/gamma-delta/tater-board/internal/platform/cmd"
	"github.com/gamma-delta/tater-board/internal/storage"
	"github.com/gamma-delta/tater-board/internal/storage/sqlite"
	"github.com/gamma-delta/tater-board/internal/telemetry"
)

// Config holds taterboard command configuration.
type Config struct {
	DBPath string `env:"TATERBOARD_DB_PATH" envDefault:"taterboard.db"`
	// Trigger is the prefix freshly created guilds expect commands to
	// start with. Per-guild trigger words override it once loaded.
	Trigger string `env:"TATERBOARD_TRIGGER_WORD" envDefault:"!!"`
	// BotID is the bot's own user ID; its messages are never dispatched.
	BotID string `env:"TATERBOARD_BOT_ID"`
	// GuildID and AuthorID identify the console session's guild and
	// operator.
	GuildID  string `env:"TATERBOARD_GUILD_ID" envDefault:"console"`
	AuthorID string `env:"TATERBOARD_AUTHOR_ID" envDefault:"0"`
	// Admin grants the console operator an administrator-equivalent role.
	Admin bool `env:"TATERBOARD_ADMIN" envDefault:"true"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Path to the SQLite database file")
	fs.StringVar(&cfg.Trigger, "trigger", cfg.Trigger, "Default trigger word for new guilds")
	fs.StringVar(&cfg.GuildID, "guild", cfg.GuildID, "Guild ID the console session acts in")
	fs.StringVar(&cfg.AuthorID, "author", cfg.AuthorID, "User ID the console session acts as")
	fs.BoolVar(&cfg.Admin, "admin", cfg.Admin, "Grant the console operator an admin role")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run opens the store, loads every persisted guild into the registry, and
// serves the operator console until ctx is cancelled or stdin closes.
func Run(ctx context.Context, cfg Config) error {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	registry := guild.NewRegistry(cfg.Trigger)
	if err := loadGuilds(ctx, registry, store); err != nil {
		return fmt.Errorf("load guilds: %w", err)
	}

	dispatcher := dispatch.New(registry, store, nil, telemetry.NewEmitter(store), cfg.BotID)
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceTaterboard, func(ctx context.Context) error {
		console := newConsole(dispatcher, cfg, os.Stdin, os.Stdout)
		return console.run(ctx)
	})
}

// loadGuilds seeds the registry with every guild the store knows about.
// A guild present in the ID listing but missing a record is skipped.
func loadGuilds(ctx context.Context, registry *guild.Registry, gateway storage.Gateway) error {
	ids, err := gateway.ListGuildIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		record, err := gateway.LoadGuild(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		registry.Seed(id, record.State())
	}
	return nil
}
