package dispatch

// Kind is the closed set of commands the dispatcher understands.
type Kind int

const (
	KindUnknown Kind = iota
	KindHelp
	KindReceivers
	KindGivers
	KindSetPinChannel
	KindSetThreshold
	KindBlacklist
	KindUnblacklist
	KindShowBlacklist
	KindSetPotato
	KindAdmin
	KindUnadmin
	KindListAdmins
	KindSave
)

// commandNames maps the wire command word to its kind. Command names are
// case-sensitive.
var commandNames = map[string]Kind{
	"help":            KindHelp,
	"receivers":       KindReceivers,
	"givers":          KindGivers,
	"set_pin_channel": KindSetPinChannel,
	"set_threshold":   KindSetThreshold,
	"blacklist":       KindBlacklist,
	"unblacklist":     KindUnblacklist,
	"show_blacklist":  KindShowBlacklist,
	"set_potato":      KindSetPotato,
	"admin":           KindAdmin,
	"unadmin":         KindUnadmin,
	"list_admins":     KindListAdmins,
	"save":            KindSave,
}

// adminOnly marks the kinds gated behind the admin policy.
var adminOnly = map[Kind]bool{
	KindSetPinChannel: true,
	KindSetThreshold:  true,
	KindBlacklist:     true,
	KindUnblacklist:   true,
	KindShowBlacklist: true,
	KindSetPotato:     true,
	KindAdmin:         true,
	KindUnadmin:       true,
	KindListAdmins:    true,
	KindSave:          true,
}

// Command is one decoded command line: the recognized kind, the raw command
// word as typed, and the remaining argument tokens.
type Command struct {
	Kind Kind
	Word string
	Args []string
}

// Decode resolves whitespace-split tokens (trigger word first, command word
// second) into a Command. An unrecognized command word decodes to KindUnknown
// with the word preserved for the rejection response.
func Decode(tokens []string) Command {
	if len(tokens) < 2 {
		return Command{Kind: KindUnknown}
	}
	word := tokens[1]
	kind, ok := commandNames[word]
	if !ok {
		kind = KindUnknown
	}
	return Command{Kind: kind, Word: word, Args: tokens[2:]}
}

// AdminOnly reports whether the command requires the admin policy to pass.
func (c Command) AdminOnly() bool {
	return adminOnly[c.Kind]
}
