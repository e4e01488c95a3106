package irc

import (
	"regexp"
	"strings"
)

// ctcpDelim is the CTCP framing byte used by both queries and replies.
const ctcpDelim = '\x01'

var ctcpRegex = regexp.MustCompile("^\x01([^ \x01]+) ?([^\x01]*)\x01?$")

// ParseCTCP detects whether body (a PRIVMSG or NOTICE trailing parameter)
// is CTCP-framed, returning the subcommand and payload if so.
func ParseCTCP(body string) (subcommand, payload string, ok bool) {
	if len(body) == 0 || body[0] != ctcpDelim {
		return "", "", false
	}
	parts := ctcpRegex.FindStringSubmatch(body)
	if parts == nil {
		return "", "", false
	}
	return parts[1], parts[2], true
}

// EncodeCTCP wraps message in CTCP framing for subcommand command, for use
// in a PRIVMSG body.
func EncodeCTCP(command, message string) string {
	return string(ctcpDelim) + command + " " + message + string(ctcpDelim)
}

// formatStripper removes the IRC formatting control codes (bold, color,
// reset, reverse, italic) from text, as required before handing a message to
// command hooks. Stripping is idempotent: running it twice is the same as
// running it once.
var formatStripper = regexp.MustCompile("\x02|\x03([0-9]{1,2}(,[0-9]{1,2})?)?|\x1D|\x1F|\x16|\x0F")

// StripFormatting removes IRC formatting control characters (bold \x02,
// color \x03 with optional digit pairs, italic \x1D, underline \x1F, reverse
// \x16, reset \x0F) from s.
func StripFormatting(s string) string {
	if !strings.ContainsAny(s, "\x02\x03\x1D\x1F\x16\x0F") {
		return s
	}
	return formatStripper.ReplaceAllString(s, "")
}
