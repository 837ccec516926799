package security

import (
	"regexp"
	"strings"
)

// Room codes double as hub identities: short, URL-safe, no lookalike
// ambiguity to resolve. The relay rejects anything else before touching
// the registry.
var roomCodeRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{2,63}$`)

// ValidateRoomCode checks if a room code is well formed.
func ValidateRoomCode(code string) bool {
	if code == "" {
		return false
	}
	return roomCodeRegex.MatchString(code)
}

// ValidateRole checks the websocket role query parameter.
func ValidateRole(role string) bool {
	return role == "hub" || role == "client"
}

// SanitizeInput removes null bytes and control characters except
// newline and tab.
func SanitizeInput(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	var result strings.Builder
	for _, r := range input {
		if r >= 32 || r == '\n' || r == '\t' || r == '\r' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
