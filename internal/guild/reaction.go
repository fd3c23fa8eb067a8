package guild

import (
	"fmt"
	"strings"
	"unicode"

	apperrors "github.com/gamma-delta/tater-board/internal/platform/errors"
)

// Reaction is a reaction symbol: either a unicode emoji or a custom guild
// emoji in its chat wire form `<:name:id>` (or `<a:name:id>` when animated).
type Reaction string

// String returns the wire form of the reaction, suitable for message text.
func (r Reaction) String() string {
	return string(r)
}

// ParseReaction validates a single reaction-symbol token.
//
// Custom emoji must match `<:name:id>` or `<a:name:id>` with a decimal id.
// Anything else is accepted as a unicode emoji only when it carries at least
// one non-ASCII rune, so plain words are rejected rather than silently stored.
func ParseReaction(token string) (Reaction, error) {
	if token == "" || strings.ContainsFunc(token, unicode.IsSpace) {
		return "", invalidEmoji(token)
	}

	if strings.HasPrefix(token, "<") {
		if !isCustomEmoji(token) {
			return "", invalidEmoji(token)
		}
		return Reaction(token), nil
	}

	for _, r := range token {
		if r > unicode.MaxASCII {
			return Reaction(token), nil
		}
	}
	return "", invalidEmoji(token)
}

// isCustomEmoji reports whether token is a well-formed custom emoji tag.
func isCustomEmoji(token string) bool {
	if !strings.HasSuffix(token, ">") {
		return false
	}
	body := strings.TrimSuffix(strings.TrimPrefix(token, "<"), ">")
	body = strings.TrimPrefix(body, "a")
	parts := strings.Split(body, ":")
	if len(parts) != 3 || parts[0] != "" || parts[1] == "" || parts[2] == "" {
		return false
	}
	for _, r := range parts[2] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func invalidEmoji(token string) error {
	return apperrors.WithMetadata(
		apperrors.CodeArgumentInvalidEmoji,
		fmt.Sprintf("invalid reaction symbol %q", token),
		map[string]string{"Value": token},
	)
}
