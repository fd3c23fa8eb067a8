// Package storage defines the persistence gateway the dispatcher writes
// through, plus the record types exchanged with it.
package storage

import (
	"context"
	"time"

	"github.com/gamma-delta/tater-board/internal/guild"
	apperrors "github.com/gamma-delta/tater-board/internal/platform/errors"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate a first-seen guild from storage failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// ConfigRecord captures a guild's durable configuration.
type ConfigRecord struct {
	TriggerWord string
	Admins      []string
	Blacklist   []string
	PinChannel  string
	Threshold   uint64
	Emoji       string
}

// CountRecord is one participant's durable tater total. Slice order is the
// count table's iteration order and must be preserved across reloads: the
// leaderboard tie-break depends on it.
type CountRecord struct {
	UserID string
	Count  uint64
}

// GuildRecord is the full durable state of one guild.
type GuildRecord struct {
	GuildID  string
	Config   ConfigRecord
	Received []CountRecord
	Given    []CountRecord
}

// Gateway durably stores and loads guild state. The dispatcher calls the
// save methods synchronously from within the command's critical section and
// surfaces failures verbatim to the requester.
type Gateway interface {
	SaveConfig(ctx context.Context, guildID string, cfg ConfigRecord) error
	SaveCounts(ctx context.Context, guildID string, received, given []CountRecord) error
	LoadGuild(ctx context.Context, guildID string) (GuildRecord, error)
	ListGuildIDs(ctx context.Context) ([]string, error)
}

// TelemetryEvent records one operational event for later inspection.
type TelemetryEvent struct {
	ID        string
	GuildID   string
	Command   string
	Severity  string
	Message   string
	Timestamp time.Time
}

// TelemetryStore appends operational telemetry events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, event TelemetryEvent) error
}

// RecordFromConfig snapshots a guild config into its durable form.
func RecordFromConfig(cfg guild.Config) ConfigRecord {
	return ConfigRecord{
		TriggerWord: cfg.TriggerWord,
		Admins:      cfg.AdminIDs(),
		Blacklist:   cfg.BlacklistIDs(),
		PinChannel:  cfg.PinChannel,
		Threshold:   cfg.Threshold,
		Emoji:       cfg.Emoji.String(),
	}
}

// RecordFromCounts snapshots a count table in iteration order.
func RecordFromCounts(counts *guild.Counts) []CountRecord {
	entries := counts.Entries()
	records := make([]CountRecord, 0, len(entries))
	for _, entry := range entries {
		records = append(records, CountRecord{UserID: entry.UserID, Count: entry.Count})
	}
	return records
}

// State rebuilds the in-memory guild state from a durable record.
func (r GuildRecord) State() *guild.State {
	state := guild.NewState(r.Config.TriggerWord)
	state.Config.PinChannel = r.Config.PinChannel
	state.Config.Threshold = r.Config.Threshold
	if r.Config.Emoji != "" {
		state.Config.Emoji = guild.Reaction(r.Config.Emoji)
	}
	for _, id := range r.Config.Admins {
		state.Config.AddAdmin(id)
	}
	for _, id := range r.Config.Blacklist {
		state.Config.AddToBlacklist(id)
	}
	for _, record := range r.Received {
		state.Received.Set(record.UserID, record.Count)
	}
	for _, record := range r.Given {
		state.Given.Set(record.UserID, record.Count)
	}
	return state
}
