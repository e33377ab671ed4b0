package proto

import (
	"strings"
	"unicode"
)

// Verb identifies the command type of an inbound protocol line.
type Verb int

const (
	// VerbUnknown is any verb outside the supported set. It is never an error.
	VerbUnknown Verb = iota
	VerbPass
	VerbNick
	VerbUser
	VerbJoin
	VerbPrivmsg
	VerbPing
	VerbPart
	VerbQuit
)

var verbNames = map[string]Verb{
	"PASS":    VerbPass,
	"NICK":    VerbNick,
	"USER":    VerbUser,
	"JOIN":    VerbJoin,
	"PRIVMSG": VerbPrivmsg,
	"PING":    VerbPing,
	"PART":    VerbPart,
	"QUIT":    VerbQuit,
}

// String returns the wire spelling of the verb.
func (v Verb) String() string {
	for name, verb := range verbNames {
		if verb == v {
			return name
		}
	}
	return "UNKNOWN"
}

// Decode splits one line into its verb and raw parameter string.
// The verb is matched case-insensitively; the parameters are returned
// untouched apart from a trailing carriage return.
func Decode(line string) (Verb, string) {
	line = strings.TrimRight(line, "\r\n")

	name, params := line, ""
	if idx := strings.IndexFunc(line, unicode.IsSpace); idx >= 0 {
		name, params = line[:idx], line[idx+1:]
	}

	verb, ok := verbNames[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return VerbUnknown, params
	}
	return verb, params
}

// SplitFirst cuts s at its first whitespace character. rest is empty when
// s holds a single token.
func SplitFirst(s string) (first, rest string) {
	idx := strings.IndexFunc(s, unicode.IsSpace)
	if idx < 0 {
		return s, ""
	}
	return s[:idx], s[idx+1:]
}
