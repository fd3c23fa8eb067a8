// Package guild holds the per-guild tater ledger state: configuration,
// count tables, the admin policy, and the process-wide state registry.
package guild

import "sort"

const (
	// DefaultTriggerWord is the command prefix used by freshly created guilds.
	DefaultTriggerWord = "!!"
	// DefaultThreshold is the pin threshold used by freshly created guilds.
	DefaultThreshold = 5
	// DefaultEmoji is the reaction counted by freshly created guilds.
	DefaultEmoji Reaction = "🥔"
)

// Config is the mutable per-guild configuration.
type Config struct {
	// TriggerWord is the prefix a message must start with to be a command.
	TriggerWord string
	// Admins holds user IDs allowed to run administrative commands.
	Admins map[string]struct{}
	// Blacklist holds channel IDs excluded from pin eligibility.
	Blacklist map[string]struct{}
	// PinChannel is the channel pinned messages are reposted to. Empty means unset.
	PinChannel string
	// Threshold is how many reactions a message needs before it is pinned.
	Threshold uint64
	// Emoji is the reaction counted as a tater.
	Emoji Reaction
}

// State is the complete mutable record for one guild.
// All access is mediated by the Registry lock; State itself is not safe for
// concurrent use.
type State struct {
	Config   Config
	Received *Counts
	Given    *Counts
}

// NewState creates a default-configured guild state.
func NewState(triggerWord string) *State {
	if triggerWord == "" {
		triggerWord = DefaultTriggerWord
	}
	return &State{
		Config: Config{
			TriggerWord: triggerWord,
			Admins:      make(map[string]struct{}),
			Blacklist:   make(map[string]struct{}),
			Threshold:   DefaultThreshold,
			Emoji:       DefaultEmoji,
		},
		Received: NewCounts(),
		Given:    NewCounts(),
	}
}

// AddTater records one reaction given by giver on a message authored by receiver.
func (s *State) AddTater(giver, receiver string) {
	s.Given.Add(giver, 1)
	s.Received.Add(receiver, 1)
}

// AddAdmin inserts a user into the admin set. Reports whether the set changed.
func (c *Config) AddAdmin(userID string) bool {
	if _, ok := c.Admins[userID]; ok {
		return false
	}
	c.Admins[userID] = struct{}{}
	return true
}

// RemoveAdmin removes a user from the admin set. Reports whether the set changed.
func (c *Config) RemoveAdmin(userID string) bool {
	if _, ok := c.Admins[userID]; !ok {
		return false
	}
	delete(c.Admins, userID)
	return true
}

// AddToBlacklist inserts a channel into the blacklist. Reports whether the set changed.
func (c *Config) AddToBlacklist(channelID string) bool {
	if _, ok := c.Blacklist[channelID]; ok {
		return false
	}
	c.Blacklist[channelID] = struct{}{}
	return true
}

// RemoveFromBlacklist removes a channel from the blacklist. Reports whether the set changed.
func (c *Config) RemoveFromBlacklist(channelID string) bool {
	if _, ok := c.Blacklist[channelID]; !ok {
		return false
	}
	delete(c.Blacklist, channelID)
	return true
}

// SetPinChannel designates the pin channel and blacklists it so pinned
// reposts can never themselves be pinned. Reports whether the channel was
// newly added to the blacklist.
func (c *Config) SetPinChannel(channelID string) bool {
	c.PinChannel = channelID
	return c.AddToBlacklist(channelID)
}

// AdminIDs returns the admin set in a stable sorted order.
func (c *Config) AdminIDs() []string {
	return sortedKeys(c.Admins)
}

// BlacklistIDs returns the blacklist in a stable sorted order.
func (c *Config) BlacklistIDs() []string {
	return sortedKeys(c.Blacklist)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
