package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/gamma-delta/tater-board/internal/guild"
	"github.com/gamma-delta/tater-board/internal/storage"
)

type fakeGateway struct {
	configs     map[string]storage.ConfigRecord
	received    map[string][]storage.CountRecord
	given       map[string][]storage.CountRecord
	configSaves int
	countsSaves int
	configErr   error
	countsErr   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		configs:  make(map[string]storage.ConfigRecord),
		received: make(map[string][]storage.CountRecord),
		given:    make(map[string][]storage.CountRecord),
	}
}

func (f *fakeGateway) SaveConfig(ctx context.Context, guildID string, cfg storage.ConfigRecord) error {
	if f.configErr != nil {
		return f.configErr
	}
	f.configs[guildID] = cfg
	f.configSaves++
	return nil
}

func (f *fakeGateway) SaveCounts(ctx context.Context, guildID string, received, given []storage.CountRecord) error {
	if f.countsErr != nil {
		return f.countsErr
	}
	f.received[guildID] = received
	f.given[guildID] = given
	f.countsSaves++
	return nil
}

func (f *fakeGateway) LoadGuild(ctx context.Context, guildID string) (storage.GuildRecord, error) {
	return storage.GuildRecord{}, storage.ErrNotFound
}

func (f *fakeGateway) ListGuildIDs(ctx context.Context) ([]string, error) {
	return nil, nil
}

type failingDirectory struct{}

func (failingDirectory) Mention(_ context.Context, userID string) (string, error) {
	return "", errors.New("directory unavailable")
}

func (failingDirectory) Tag(_ context.Context, userID string) (string, error) {
	return "", errors.New("directory unavailable")
}

func newDispatcher(t *testing.T) (*Dispatcher, *guild.Registry, *fakeGateway) {
	t.Helper()
	registry := guild.NewRegistry("")
	gateway := newFakeGateway()
	return New(registry, gateway, nil, nil, "bot-1"), registry, gateway
}

func request(content string) Request {
	return Request{GuildID: "g1", AuthorID: "100", Content: content}
}

func adminRequest(content string) Request {
	req := request(content)
	req.HasAdminRole = true
	return req
}

func snapshotState(t *testing.T, registry *guild.Registry, guildID string) guild.State {
	t.Helper()
	var snap guild.State
	registry.With(guildID, func(state *guild.State) error {
		snap = *state
		return nil
	})
	return snap
}

func TestHandleIgnoresBotAuthor(t *testing.T) {
	d, _, gateway := newDispatcher(t)
	req := request("!! help")
	req.AuthorID = "bot-1"
	req.HasAdminRole = true

	res := d.Handle(context.Background(), req)
	if res.Handled {
		t.Fatal("bot's own message was dispatched")
	}
	if gateway.configSaves != 0 {
		t.Fatalf("config saves = %d, want 0", gateway.configSaves)
	}
}

func TestHandleIgnoresMissingGuild(t *testing.T) {
	d, _, _ := newDispatcher(t)
	req := request("!! help")
	req.GuildID = ""

	res := d.Handle(context.Background(), req)
	if res.Handled {
		t.Fatal("guildless message was dispatched")
	}
}

func TestHandleIgnoresWrongTrigger(t *testing.T) {
	d, _, _ := newDispatcher(t)

	res := d.Handle(context.Background(), request("?? help"))
	if res.Handled {
		t.Fatal("non-trigger message was dispatched")
	}
}

func TestHandleIgnoresTriggerAlone(t *testing.T) {
	d, _, _ := newDispatcher(t)

	res := d.Handle(context.Background(), request("!!"))
	if res.Handled {
		t.Fatal("trigger without a command was dispatched")
	}
}

func TestHelpForRegularUser(t *testing.T) {
	d, _, gateway := newDispatcher(t)

	res := d.Handle(context.Background(), request("!! help"))
	if !res.Handled {
		t.Fatal("help was not dispatched")
	}
	if len(res.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(res.Messages))
	}
	if res.Messages[0].Text != helpText {
		t.Fatalf("help text = %q", res.Messages[0].Text)
	}
	if res.Obligation != ObligationNone {
		t.Fatalf("obligation = %v, want none", res.Obligation)
	}
	if gateway.configSaves != 0 {
		t.Fatalf("config saves = %d, want 0", gateway.configSaves)
	}
}

func TestHelpForAdminIncludesAdminBlockAndSavesConfig(t *testing.T) {
	d, _, gateway := newDispatcher(t)

	res := d.Handle(context.Background(), adminRequest("!! help"))
	if len(res.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(res.Messages))
	}
	if res.Messages[1].Text != adminHelpText {
		t.Fatalf("admin help text = %q", res.Messages[1].Text)
	}
	if !res.Obligation.Has(ObligationSaveConfig) {
		t.Fatal("admin help did not flag a config save")
	}
	if gateway.configSaves != 1 {
		t.Fatalf("config saves = %d, want 1", gateway.configSaves)
	}
}

func TestReceiversRanksTiesByInsertionOrder(t *testing.T) {
	d, registry, _ := newDispatcher(t)
	state := guild.NewState("")
	state.Received.Add("a", 5)
	state.Received.Add("b", 10)
	state.Received.Add("c", 10)
	registry.Seed("g1", state)

	req := request("!! receivers")
	req.AuthorID = "b"
	res := d.Handle(context.Background(), req)
	if len(res.Messages) != 1 || res.Messages[0].Embed == nil {
		t.Fatalf("want a single embed message, got %+v", res.Messages)
	}

	embed := res.Messages[0].Embed
	if embed.Title != "Leaderboard - Taters received" {
		t.Fatalf("title = %q", embed.Title)
	}
	want := "🏅 1: <@b> has received 10x taters\n" +
		"🥈 2: <@c> has received 10x taters\n" +
		"🥉 3: <@a> has received 5x taters\n"
	if embed.Description != want {
		t.Fatalf("board = %q, want %q", embed.Description, want)
	}
	if embed.Footer != "Your place: #1/3 with 10x 🥔 | Page 1/1" {
		t.Fatalf("footer = %q", embed.Footer)
	}
	if res.Obligation != ObligationNone {
		t.Fatalf("obligation = %v, want none", res.Obligation)
	}
}

func TestGiversEmptyTable(t *testing.T) {
	d, _, _ := newDispatcher(t)

	res := d.Handle(context.Background(), request("!! givers"))
	embed := res.Messages[0].Embed
	if embed == nil {
		t.Fatal("want an embed message")
	}
	if embed.Description != "" {
		t.Fatalf("board = %q, want empty", embed.Description)
	}
	if embed.Footer != "Your place: #?/0 with ?x 🥔 | Page 1/1" {
		t.Fatalf("footer = %q", embed.Footer)
	}
}

func TestReceiversPastEndIsEmptyPage(t *testing.T) {
	d, registry, _ := newDispatcher(t)
	state := guild.NewState("")
	state.Received.Add("a", 1)
	registry.Seed("g1", state)

	res := d.Handle(context.Background(), request("!! receivers 4"))
	embed := res.Messages[0].Embed
	if embed.Description != "" {
		t.Fatalf("board = %q, want empty", embed.Description)
	}
	if !strings.HasSuffix(embed.Footer, "Page 5/1") {
		t.Fatalf("footer = %q", embed.Footer)
	}
}

func TestReceiversBadPageNumberReadsAsPageZero(t *testing.T) {
	d, registry, _ := newDispatcher(t)
	state := guild.NewState("")
	state.Received.Add("a", 1)
	registry.Seed("g1", state)

	res := d.Handle(context.Background(), request("!! receivers soon"))
	embed := res.Messages[0].Embed
	if !strings.Contains(embed.Description, "<@a>") {
		t.Fatalf("board = %q, want page zero content", embed.Description)
	}
}

func TestLeaderboardLookupFailure(t *testing.T) {
	registry := guild.NewRegistry("")
	d := New(registry, newFakeGateway(), failingDirectory{}, nil, "bot-1")
	state := guild.NewState("")
	state.Received.Add("a", 1)
	registry.Seed("g1", state)

	res := d.Handle(context.Background(), request("!! receivers"))
	if len(res.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(res.Messages))
	}
	if res.Messages[0].Text != "An error occurred:\nCould not look up user a" {
		t.Fatalf("error message = %q", res.Messages[0].Text)
	}
}

func TestSetPinChannelAddsToBlacklist(t *testing.T) {
	d, registry, gateway := newDispatcher(t)

	res := d.Handle(context.Background(), adminRequest("!! set_pin_channel 555"))
	if res.Messages[0].Text != "Set pins channel to `<#555>` and added it to the blacklist" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}

	state := snapshotState(t, registry, "g1")
	if state.Config.PinChannel != "555" {
		t.Fatalf("pin channel = %q, want 555", state.Config.PinChannel)
	}
	if _, ok := state.Config.Blacklist["555"]; !ok {
		t.Fatal("pin channel not blacklisted")
	}
	if gateway.configSaves != 1 {
		t.Fatalf("config saves = %d, want 1", gateway.configSaves)
	}

	res = d.Handle(context.Background(), adminRequest("!! set_pin_channel 555"))
	if res.Messages[0].Text != "Set pins channel to `<#555>`, and it was already blacklisted" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
}

func TestSetThreshold(t *testing.T) {
	d, registry, _ := newDispatcher(t)

	res := d.Handle(context.Background(), adminRequest("!! set_threshold 12"))
	if res.Messages[0].Text != "Threshold changed to 12" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
	state := snapshotState(t, registry, "g1")
	if state.Config.Threshold != 12 {
		t.Fatalf("threshold = %d, want 12", state.Config.Threshold)
	}
}

func TestSetThresholdRejectsNonNumeric(t *testing.T) {
	d, registry, gateway := newDispatcher(t)

	res := d.Handle(context.Background(), adminRequest("!! set_threshold abc"))
	if len(res.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(res.Messages))
	}
	if res.Messages[0].Text != "An error occurred:\n`abc` is not a valid number" {
		t.Fatalf("error message = %q", res.Messages[0].Text)
	}
	if res.Obligation != ObligationNone {
		t.Fatalf("obligation = %v, want none", res.Obligation)
	}
	if gateway.configSaves != 0 {
		t.Fatalf("config saves = %d, want 0", gateway.configSaves)
	}
	state := snapshotState(t, registry, "g1")
	if state.Config.Threshold != guild.DefaultThreshold {
		t.Fatalf("threshold = %d, want default", state.Config.Threshold)
	}
}

func TestSetThresholdMissingArgument(t *testing.T) {
	d, _, _ := newDispatcher(t)

	res := d.Handle(context.Background(), adminRequest("!! set_threshold"))
	if res.Messages[0].Text != "An error occurred:\nNot enough arguments (1 expected)" {
		t.Fatalf("error message = %q", res.Messages[0].Text)
	}
}

func TestBlacklistIdempotent(t *testing.T) {
	d, _, _ := newDispatcher(t)

	res := d.Handle(context.Background(), adminRequest("!! blacklist 42"))
	if res.Messages[0].Text != "Blacklisted `<#42>`" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
	res = d.Handle(context.Background(), adminRequest("!! blacklist 42"))
	if res.Messages[0].Text != "`<#42>` was already blacklisted" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}

	res = d.Handle(context.Background(), adminRequest("!! unblacklist 42"))
	if res.Messages[0].Text != "Unblacklisted `<#42>`" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
	res = d.Handle(context.Background(), adminRequest("!! unblacklist 42"))
	if res.Messages[0].Text != "`<#42>` was not blacklisted" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
}

func TestShowBlacklist(t *testing.T) {
	d, registry, _ := newDispatcher(t)
	state := guild.NewState("")
	state.Config.AddToBlacklist("2")
	state.Config.AddToBlacklist("1")
	registry.Seed("g1", state)

	res := d.Handle(context.Background(), adminRequest("!! show_blacklist"))
	if res.Messages[0].Text != "- <#1>\n- <#2>" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
}

func TestSetPotato(t *testing.T) {
	d, registry, _ := newDispatcher(t)

	res := d.Handle(context.Background(), adminRequest("!! set_potato 🍠"))
	if res.Messages[0].Text != "Set potato emoji to 🍠 (from 🥔)" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
	state := snapshotState(t, registry, "g1")
	if state.Config.Emoji != "🍠" {
		t.Fatalf("emoji = %q, want 🍠", state.Config.Emoji)
	}
}

func TestSetPotatoRejectsPlainText(t *testing.T) {
	d, registry, gateway := newDispatcher(t)

	res := d.Handle(context.Background(), adminRequest("!! set_potato potato"))
	if res.Messages[0].Text != "An error occurred:\n`potato` is not a valid emoji" {
		t.Fatalf("error message = %q", res.Messages[0].Text)
	}
	if gateway.configSaves != 0 {
		t.Fatalf("config saves = %d, want 0", gateway.configSaves)
	}
	state := snapshotState(t, registry, "g1")
	if state.Config.Emoji != guild.DefaultEmoji {
		t.Fatalf("emoji = %q, want default", state.Config.Emoji)
	}
}

func TestAdminIdempotent(t *testing.T) {
	d, registry, _ := newDispatcher(t)

	res := d.Handle(context.Background(), adminRequest("!! admin 7"))
	if res.Messages[0].Text != "Added `7` as a new admin" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
	res = d.Handle(context.Background(), adminRequest("!! admin 7"))
	if res.Messages[0].Text != "`7` was already an admin" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
	state := snapshotState(t, registry, "g1")
	if len(state.Config.Admins) != 1 {
		t.Fatalf("admins = %d, want 1", len(state.Config.Admins))
	}

	res = d.Handle(context.Background(), adminRequest("!! unadmin 7"))
	if res.Messages[0].Text != "Removed `7` from being an admin" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
	res = d.Handle(context.Background(), adminRequest("!! unadmin 7"))
	if res.Messages[0].Text != "`7` was not an admin" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
}

func TestListAdmins(t *testing.T) {
	d, registry, _ := newDispatcher(t)
	state := guild.NewState("")
	state.Config.AddAdmin("9")
	state.Config.AddAdmin("3")
	registry.Seed("g1", state)

	res := d.Handle(context.Background(), adminRequest("!! list_admins"))
	if res.Messages[0].Text != "Admins:\n- <@3>\n- <@9>" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
}

func TestSaveWritesCounts(t *testing.T) {
	d, registry, gateway := newDispatcher(t)
	state := guild.NewState("")
	state.AddTater("g", "r")
	registry.Seed("g1", state)

	res := d.Handle(context.Background(), adminRequest("!! save"))
	if res.Messages[0].Text != "Saved this server's taters!" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
	if !res.Obligation.Has(ObligationSaveCounts) {
		t.Fatal("save did not flag a counts save")
	}
	if !res.Obligation.Has(ObligationSaveConfig) {
		t.Fatal("admin save did not flag a config save")
	}
	if gateway.countsSaves != 1 || gateway.configSaves != 1 {
		t.Fatalf("saves = %d counts / %d config, want 1/1", gateway.countsSaves, gateway.configSaves)
	}
	if got := gateway.received["g1"]; len(got) != 1 || got[0].UserID != "r" || got[0].Count != 1 {
		t.Fatalf("received records = %+v", got)
	}
}

func TestSaveFailureReported(t *testing.T) {
	d, _, gateway := newDispatcher(t)
	gateway.countsErr = errors.New("disk full")

	res := d.Handle(context.Background(), adminRequest("!! save"))
	if res.Messages[0].Text != "An error occurred:\nCould not write to storage: disk full" {
		t.Fatalf("error message = %q", res.Messages[0].Text)
	}
	if res.Obligation.Has(ObligationSaveCounts) {
		t.Fatal("failed save flagged a counts save")
	}
}

func TestConfigSaveFailureReported(t *testing.T) {
	d, _, gateway := newDispatcher(t)
	gateway.configErr = errors.New("disk full")

	res := d.Handle(context.Background(), adminRequest("!! set_threshold 3"))
	if len(res.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(res.Messages))
	}
	if res.Messages[1].Text != "An error occurred:\nCould not write to storage: disk full" {
		t.Fatalf("error message = %q", res.Messages[1].Text)
	}
	if res.Obligation.Has(ObligationSaveConfig) {
		t.Fatal("failed config save still flagged")
	}
}

func TestNonAdminCannotRunAdminCommands(t *testing.T) {
	d, registry, gateway := newDispatcher(t)

	res := d.Handle(context.Background(), request("!! blacklist 123"))
	if len(res.Messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(res.Messages))
	}
	got := res.Messages[0]
	if got.Text != "Unknown command: blacklist" || !got.SuppressMentions {
		t.Fatalf("rejection = %+v", got)
	}
	if res.Obligation != ObligationNone {
		t.Fatalf("obligation = %v, want none", res.Obligation)
	}
	if gateway.configSaves != 0 {
		t.Fatalf("config saves = %d, want 0", gateway.configSaves)
	}
	state := snapshotState(t, registry, "g1")
	if len(state.Config.Blacklist) != 0 {
		t.Fatal("rejected command mutated the blacklist")
	}

	unknown := d.Handle(context.Background(), request("!! bogus"))
	if unknown.Messages[0].Text != "Unknown command: bogus" {
		t.Fatalf("unknown response = %q", unknown.Messages[0].Text)
	}
}

func TestListedAdminPassesWithoutRole(t *testing.T) {
	d, registry, _ := newDispatcher(t)
	state := guild.NewState("")
	state.Config.AddAdmin("100")
	registry.Seed("g1", state)

	res := d.Handle(context.Background(), request("!! set_threshold 9"))
	if res.Messages[0].Text != "Threshold changed to 9" {
		t.Fatalf("message = %q", res.Messages[0].Text)
	}
}

func TestCustomTriggerWord(t *testing.T) {
	d, registry, _ := newDispatcher(t)
	state := guild.NewState("tater!")
	registry.Seed("g1", state)

	if res := d.Handle(context.Background(), request("!! help")); res.Handled {
		t.Fatal("default trigger dispatched under a custom trigger word")
	}
	res := d.Handle(context.Background(), request("tater! help"))
	if !res.Handled {
		t.Fatal("custom trigger was not dispatched")
	}
}

func TestCommandNamesAreCaseSensitive(t *testing.T) {
	d, _, _ := newDispatcher(t)

	res := d.Handle(context.Background(), request("!! Help"))
	if res.Messages[0].Text != "Unknown command: Help" {
		t.Fatalf("response = %q", res.Messages[0].Text)
	}
}

func TestPaginationAcrossPages(t *testing.T) {
	d, registry, _ := newDispatcher(t)
	state := guild.NewState("")
	for i := 0; i < 12; i++ {
		state.Given.Add(fmt.Sprintf("u%02d", i), uint64(100-i))
	}
	registry.Seed("g1", state)

	res := d.Handle(context.Background(), request("!! givers 1"))
	embed := res.Messages[0].Embed
	want := "🎖️ 11: <@u10> has given 90x taters\n" +
		"🎖️ 12: <@u11> has given 89x taters\n"
	if embed.Description != want {
		t.Fatalf("board = %q, want %q", embed.Description, want)
	}
	if !strings.HasSuffix(embed.Footer, "| Page 2/2") {
		t.Fatalf("footer = %q", embed.Footer)
	}
}
