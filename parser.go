package irc

import (
	"fmt"
	"strings"
)

// Parse parses a single UTF-8 wire line, already stripped of its trailing
// CRLF, into a Message.
//
// If the first token begins with ':' it is treated as the prefix: the
// leading colon is stripped and the remainder is split on '!' or '@'. Three
// resulting fields are taken as nick, user, host; anything else is treated
// as a bare server name and assigned to Host only.
//
// The next token is the command (verb or numeric). Remaining tokens are
// plain params until a token whose original form was preceded by " :", at
// which point everything from there to the end of the line (minus the
// leading colon) becomes the trailing parameter. A line with no trailing
// component leaves HasTrailing false, distinct from an empty trailing
// component.
func Parse(line string) (*Message, error) {
	m := &Message{Raw: line}

	rest := line
	if strings.HasPrefix(rest, ":") {
		sp := strings.IndexByte(rest, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("irc: malformed line, prefix with no command: %q", line)
		}
		prefixToken := rest[1:sp]
		rest = rest[sp+1:]
		m.Source = parsePrefix(prefixToken)
	}

	left := rest
	if body, trailing, ok := strings.Cut(rest, " :"); ok {
		left = body
		m.Trailing = trailing
		m.HasTrailing = true
	}

	fields := strings.Fields(left)
	if len(fields) == 0 {
		return nil, fmt.Errorf("irc: malformed line, no command: %q", line)
	}
	m.Command = Command(fields[0])
	if len(fields) > 1 {
		m.Params = Params(fields[1:])
	}
	return m, nil
}

// parsePrefix splits a prefix token (with its leading ':' already removed)
// into nick/user/host, or treats it as a bare server name when it doesn't
// split into exactly three fields.
func parsePrefix(token string) Prefix {
	parts := splitNickUserHost(token)
	if len(parts) != 3 {
		return Prefix{Host: token}
	}
	return Prefix{Nick: Nickname(parts[0]), User: parts[1], Host: parts[2]}
}

// splitNickUserHost splits a "nick!user@host" token on '!' and '@' in order,
// returning nil if the token doesn't contain both delimiters.
func splitNickUserHost(token string) []string {
	bang := strings.IndexByte(token, '!')
	if bang < 0 {
		return nil
	}
	at := strings.IndexByte(token[bang+1:], '@')
	if at < 0 {
		return nil
	}
	at += bang + 1
	return []string{token[:bang], token[bang+1 : at], token[at+1:]}
}
