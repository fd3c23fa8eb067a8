package dispatch

import (
	"fmt"
	"strings"

	"github.com/gamma-delta/tater-board/internal/guild"
	"github.com/gamma-delta/tater-board/internal/leaderboard"
)

const helpText = ` === PotatoBoard Help ===
- ` + "`help`" + `: Get this message.
- ` + "`receivers <page_number>`" + `: See the most protatolific receivers of potatoes. ` + "`page_number`" + ` is optional.
- ` + "`givers <page_number>`" + `: See the most protatolific givers of potatoes. ` + "`page_number`" + ` is optional.`

const adminHelpText = `You're an admin! Here's the admin commands:
- ` + "`set_pin_channel <channel_id>`" + `: Set the channel that pinned messages to go, and adds it to the potato blacklist.
- ` + "`set_potato <emoji>`" + `: Set the given emoji to be the operative one.
- ` + "`set_threshold <number>`" + `: Set how many potatoes have to be on a message before it is pinned.
- ` + "`blacklist <channel_id>`" + `: Make the channel no longer eligible for pinning messages, regardless of potato count.
- ` + "`unblacklist <channel_id>`" + `: Unblacklist this channel so messages from it can be pinned again.
- ` + "`show_blacklist`" + `: Show which channels are ineligible for pinning messages.
- ` + "`admin <user_id>`" + `: Let this user access this bot's admin commands on this server.
- ` + "`unadmin <user_id>`" + `: Stops this user from being an admin on this server.
- ` + "`list_admins`" + `: Print a list of admins.
- ` + "`save`" + `: Flush any in-memory state to disk.
People with any role with an Administrator privilege are always admins of this bot.`

// userMention formats a user reference the chat surface renders as a mention.
func userMention(userID string) string {
	return "<@" + userID + ">"
}

// channelMention formats a channel reference.
func channelMention(channelID string) string {
	return "<#" + channelID + ">"
}

// medal picks the badge shown ahead of a leaderboard rank.
func medal(rank int) string {
	switch rank {
	case 1:
		return "🏅"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return "🎖️"
	}
}

// renderBoard formats the leaderboard page body, one row per ranked entry.
func renderBoard(page leaderboard.Page, verb string, mentions []string) string {
	var board strings.Builder
	for i, entry := range page.Entries {
		fmt.Fprintf(&board, "%s %d: %s has %s %dx taters\n",
			medal(entry.Rank), entry.Rank, mentions[i], verb, entry.Count)
	}
	return board.String()
}

// renderFooter formats the requester-standing footer. An absent standing
// renders as "?" for both place and score.
func renderFooter(page leaderboard.Page, pageIndex int, emoji guild.Reaction) string {
	place, score := "?", "?"
	if page.Requester != nil {
		place = fmt.Sprintf("%d", page.Requester.Rank)
		score = fmt.Sprintf("%d", page.Requester.Count)
	}
	return fmt.Sprintf("Your place: #%s/%d with %sx %s | Page %d/%d",
		place, page.TotalEntries, score, emoji, pageIndex+1, page.TotalPages)
}
