// Package dispatch parses trigger-prefixed command lines, authorizes them,
// applies them to guild state, and performs the persistence writes each
// command obligates.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/gamma-delta/tater-board/internal/guild"
	"github.com/gamma-delta/tater-board/internal/leaderboard"
	apperrors "github.com/gamma-delta/tater-board/internal/platform/errors"
	"github.com/gamma-delta/tater-board/internal/storage"
	"github.com/gamma-delta/tater-board/internal/telemetry"
)

// Obligation flags which durable writes a dispatch performed. A single
// dispatch can save both config and counts (an admin running save).
type Obligation uint8

const (
	ObligationNone       Obligation = 0
	ObligationSaveConfig Obligation = 1 << 0
	ObligationSaveCounts Obligation = 1 << 1
)

// Has reports whether the flag is set.
func (o Obligation) Has(flag Obligation) bool {
	return o&flag != 0
}

// Embed is a structured response for leaderboard queries. Rendering the embed
// visually is the transport's concern; the content is the dispatcher's.
type Embed struct {
	Title       string
	Description string
	Footer      string
}

// Message is one response line to deliver to the requester.
type Message struct {
	Text  string
	Embed *Embed
	// SuppressMentions asks the transport not to resolve mention markup,
	// so echoing an unknown command cannot ping anyone.
	SuppressMentions bool
}

// Request is one inbound command line with its caller context.
type Request struct {
	GuildID  string
	AuthorID string
	// HasAdminRole is supplied by the transport: whether the author holds
	// an administrator-equivalent role. Opaque to the dispatcher.
	HasAdminRole bool
	Content      string
	Locale       string
}

// Result is the outcome of one dispatch. Handled is false for no-ops (wrong
// trigger, bot author, too few tokens, no guild context).
type Result struct {
	Handled    bool
	Messages   []Message
	Obligation Obligation
}

// Directory resolves user display information for listings and leaderboard
// rendering. Lookups are fallible and never consulted for authorization.
type Directory interface {
	Mention(ctx context.Context, userID string) (string, error)
	Tag(ctx context.Context, userID string) (string, error)
}

// MentionDirectory formats user references locally, without remote lookups.
type MentionDirectory struct{}

func (MentionDirectory) Mention(_ context.Context, userID string) (string, error) {
	return userMention(userID), nil
}

func (MentionDirectory) Tag(_ context.Context, userID string) (string, error) {
	return userMention(userID), nil
}

// Dispatcher routes command lines to guild state mutations and leaderboard
// queries. It is stateless between calls; all state lives in the registry.
type Dispatcher struct {
	registry  *guild.Registry
	gateway   storage.Gateway
	directory Directory
	emitter   *telemetry.Emitter
	botID     string
}

// New creates a dispatcher. A nil directory falls back to local mention
// formatting; a nil emitter disables telemetry. botID is the bot's own user
// ID, whose messages are never dispatched.
func New(registry *guild.Registry, gateway storage.Gateway, directory Directory, emitter *telemetry.Emitter, botID string) *Dispatcher {
	if directory == nil {
		directory = MentionDirectory{}
	}
	return &Dispatcher{
		registry:  registry,
		gateway:   gateway,
		directory: directory,
		emitter:   emitter,
		botID:     botID,
	}
}

// Handle runs one command line to completion. All failures are recovered here
// and rendered as response messages; nothing propagates to other guilds or
// later commands. Persistence writes happen inside the guild's critical
// section so they always observe a consistent snapshot.
func (d *Dispatcher) Handle(ctx context.Context, req Request) Result {
	if d.botID != "" && req.AuthorID == d.botID {
		return Result{}
	}
	if req.GuildID == "" {
		return Result{}
	}

	var res Result
	var word string
	var failure error

	d.registry.With(req.GuildID, func(state *guild.State) error {
		if !strings.HasPrefix(req.Content, state.Config.TriggerWord) {
			return nil
		}
		tokens := strings.Fields(req.Content)
		if len(tokens) < 2 {
			return nil
		}

		cmd := Decode(tokens)
		word = cmd.Word
		// Evaluated fresh every dispatch; admin membership can change
		// between commands.
		isAdmin := guild.IsAdmin(state.Config, req.AuthorID, req.HasAdminRole)

		res.Handled = true
		if cmd.Kind == KindUnknown || (cmd.AdminOnly() && !isAdmin) {
			res.Messages = append(res.Messages, Message{
				Text:             "Unknown command: " + cmd.Word,
				SuppressMentions: true,
			})
		} else {
			msgs, obligation, err := d.execute(ctx, req, state, cmd, isAdmin)
			res.Messages = append(res.Messages, msgs...)
			res.Obligation |= obligation
			if err != nil {
				failure = err
				res.Messages = append(res.Messages, errorMessage(err, req.Locale))
				if isParseError(err) {
					// Validation failures never mutate state, so
					// there is nothing worth persisting.
					return nil
				}
			}
		}

		// Any command handled for an admin saves config, even read-only
		// ones. Deliberately blunt: admin commands are rare and the config
		// snapshot is small.
		if isAdmin {
			if req.GuildID == "" {
				res.Messages = append(res.Messages, Message{
					Text: "Unable to save config because there was no guild ID (are you in a PM?)",
				})
				return nil
			}
			record := storage.RecordFromConfig(state.Config)
			if err := d.gateway.SaveConfig(ctx, req.GuildID, record); err != nil {
				failure = storageError(err)
				res.Messages = append(res.Messages, errorMessage(failure, req.Locale))
				return nil
			}
			res.Obligation |= ObligationSaveConfig
		}
		return nil
	})

	d.emit(ctx, req, word, res, failure)
	return res
}

func (d *Dispatcher) execute(ctx context.Context, req Request, state *guild.State, cmd Command, isAdmin bool) ([]Message, Obligation, error) {
	switch cmd.Kind {
	case KindHelp:
		msgs := []Message{{Text: helpText}}
		if isAdmin {
			msgs = append(msgs, Message{Text: adminHelpText})
		}
		return msgs, ObligationNone, nil

	case KindReceivers, KindGivers:
		table, verb := state.Received, "received"
		if cmd.Kind == KindGivers {
			table, verb = state.Given, "given"
		}
		msg, err := d.renderLeaderboard(ctx, req, state, table, verb, cmd.Args)
		if err != nil {
			return nil, ObligationNone, err
		}
		return []Message{msg}, ObligationNone, nil

	case KindSetPinChannel:
		channelID, err := firstIDArg(cmd.Args)
		if err != nil {
			return nil, ObligationNone, err
		}
		added := state.Config.SetPinChannel(channelID)
		text := fmt.Sprintf("Set pins channel to `%s`, and it was already blacklisted", channelMention(channelID))
		if added {
			text = fmt.Sprintf("Set pins channel to `%s` and added it to the blacklist", channelMention(channelID))
		}
		return []Message{{Text: text}}, ObligationNone, nil

	case KindSetThreshold:
		arg, err := firstArg(cmd.Args)
		if err != nil {
			return nil, ObligationNone, err
		}
		threshold, err := strconv.ParseUint(arg, 10, 64)
		if err != nil {
			return nil, ObligationNone, invalidInteger(arg)
		}
		state.Config.Threshold = threshold
		return []Message{{Text: fmt.Sprintf("Threshold changed to %d", threshold)}}, ObligationNone, nil

	case KindBlacklist:
		channelID, err := firstIDArg(cmd.Args)
		if err != nil {
			return nil, ObligationNone, err
		}
		text := fmt.Sprintf("`%s` was already blacklisted", channelMention(channelID))
		if state.Config.AddToBlacklist(channelID) {
			text = fmt.Sprintf("Blacklisted `%s`", channelMention(channelID))
		}
		return []Message{{Text: text}}, ObligationNone, nil

	case KindUnblacklist:
		channelID, err := firstIDArg(cmd.Args)
		if err != nil {
			return nil, ObligationNone, err
		}
		text := fmt.Sprintf("`%s` was not blacklisted", channelMention(channelID))
		if state.Config.RemoveFromBlacklist(channelID) {
			text = fmt.Sprintf("Unblacklisted `%s`", channelMention(channelID))
		}
		return []Message{{Text: text}}, ObligationNone, nil

	case KindShowBlacklist:
		lines := make([]string, 0, len(state.Config.Blacklist))
		for _, channelID := range state.Config.BlacklistIDs() {
			lines = append(lines, "- "+channelMention(channelID))
		}
		return []Message{{Text: strings.Join(lines, "\n")}}, ObligationNone, nil

	case KindSetPotato:
		arg, err := firstArg(cmd.Args)
		if err != nil {
			return nil, ObligationNone, err
		}
		emoji, err := guild.ParseReaction(arg)
		if err != nil {
			return nil, ObligationNone, err
		}
		old := state.Config.Emoji
		state.Config.Emoji = emoji
		return []Message{{Text: fmt.Sprintf("Set potato emoji to %s (from %s)", arg, old)}}, ObligationNone, nil

	case KindAdmin:
		userID, err := firstIDArg(cmd.Args)
		if err != nil {
			return nil, ObligationNone, err
		}
		text := fmt.Sprintf("`%s` was already an admin", userID)
		if state.Config.AddAdmin(userID) {
			text = fmt.Sprintf("Added `%s` as a new admin", userID)
		}
		return []Message{{Text: text}}, ObligationNone, nil

	case KindUnadmin:
		userID, err := firstIDArg(cmd.Args)
		if err != nil {
			return nil, ObligationNone, err
		}
		text := fmt.Sprintf("`%s` was not an admin", userID)
		if state.Config.RemoveAdmin(userID) {
			text = fmt.Sprintf("Removed `%s` from being an admin", userID)
		}
		return []Message{{Text: text}}, ObligationNone, nil

	case KindListAdmins:
		var sb strings.Builder
		sb.WriteString("Admins:")
		for _, userID := range state.Config.AdminIDs() {
			tag, err := d.directory.Tag(ctx, userID)
			if err != nil {
				return nil, ObligationNone, lookupError(userID, err)
			}
			sb.WriteString("\n- " + tag)
		}
		return []Message{{Text: sb.String()}}, ObligationNone, nil

	case KindSave:
		if req.GuildID == "" {
			return nil, ObligationNone, apperrors.New(apperrors.CodeGuildContextMissing, "no guild id")
		}
		received := storage.RecordFromCounts(state.Received)
		given := storage.RecordFromCounts(state.Given)
		if err := d.gateway.SaveCounts(ctx, req.GuildID, received, given); err != nil {
			return nil, ObligationNone, storageError(err)
		}
		return []Message{{Text: "Saved this server's taters!"}}, ObligationSaveCounts, nil
	}
	return nil, ObligationNone, nil
}

func (d *Dispatcher) renderLeaderboard(ctx context.Context, req Request, state *guild.State, table *guild.Counts, verb string, args []string) (Message, error) {
	// A missing or unparsable page number is not an error; it reads as
	// page zero.
	pageIndex := 0
	if len(args) > 0 {
		if n, err := strconv.Atoi(args[0]); err == nil && n >= 0 {
			pageIndex = n
		}
	}

	page := leaderboard.Rank(table.Entries(), req.AuthorID, pageIndex, leaderboard.DefaultPageSize)

	mentions := make([]string, 0, len(page.Entries))
	for _, entry := range page.Entries {
		mention, err := d.directory.Mention(ctx, entry.UserID)
		if err != nil {
			return Message{}, lookupError(entry.UserID, err)
		}
		mentions = append(mentions, mention)
	}

	return Message{Embed: &Embed{
		Title:       "Leaderboard - Taters " + verb,
		Description: renderBoard(page, verb, mentions),
		Footer:      renderFooter(page, pageIndex, state.Config.Emoji),
	}}, nil
}

// emit records one telemetry event per handled command, mirroring severity to
// the outcome. Emit failures are logged, never surfaced.
func (d *Dispatcher) emit(ctx context.Context, req Request, word string, res Result, failure error) {
	if !res.Handled || d.emitter == nil {
		return
	}
	severity := telemetry.SeverityInfo
	message := "command handled"
	if failure != nil {
		severity = telemetry.SeverityError
		message = failure.Error()
	}
	err := d.emitter.Emit(ctx, storage.TelemetryEvent{
		GuildID:  req.GuildID,
		Command:  word,
		Severity: string(severity),
		Message:  message,
	})
	if err != nil {
		log.Printf("telemetry emit %s: %v", word, err)
	}
}

func firstArg(args []string) (string, error) {
	if len(args) == 0 {
		return "", apperrors.WithMetadata(apperrors.CodeArgumentMissing, "missing argument",
			map[string]string{"Expected": "1"})
	}
	return args[0], nil
}

// firstIDArg validates the first argument as a decimal snowflake ID and
// returns it in string form.
func firstIDArg(args []string) (string, error) {
	arg, err := firstArg(args)
	if err != nil {
		return "", err
	}
	if _, err := strconv.ParseUint(arg, 10, 64); err != nil {
		return "", invalidInteger(arg)
	}
	return arg, nil
}

func invalidInteger(value string) error {
	return apperrors.WithMetadata(apperrors.CodeArgumentInvalidInteger, "invalid integer argument",
		map[string]string{"Value": value})
}

func storageError(err error) error {
	e := apperrors.WithMetadata(apperrors.CodeStorageFailure, "storage write failed",
		map[string]string{"Detail": err.Error()})
	e.Cause = err
	return e
}

func lookupError(userID string, err error) error {
	e := apperrors.WithMetadata(apperrors.CodeLookupFailure, "user lookup failed",
		map[string]string{"UserID": userID})
	e.Cause = err
	return e
}

func isParseError(err error) bool {
	return apperrors.IsCode(err, apperrors.CodeArgumentMissing) ||
		apperrors.IsCode(err, apperrors.CodeArgumentInvalidInteger) ||
		apperrors.IsCode(err, apperrors.CodeArgumentInvalidEmoji)
}

func errorMessage(err error, locale string) Message {
	return Message{Text: "An error occurred:\n" + apperrors.UserMessage(err, locale)}
}
