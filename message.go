package irc

import (
	"strings"
)

// parameterLimit is the maximum number of parameters a message may contain as
// defined by the protocol. Clients should never send more than this but
// should accept any number.
const parameterLimit = 15

// Nickname is an IRC nickname.
type Nickname string

// String implements fmt.Stringer.
func (n Nickname) String() string {
	return string(n)
}

// Is determines whether a nickname matches a string using simple
// case-insensitive comparison. Servers vary in their actual casemapping
// rules (ascii, rfc1459, rfc1459-strict); this is deliberately the
// lowest-common-denominator comparison.
func (n Nickname) Is(other string) bool {
	return strings.EqualFold(n.String(), other)
}

// Prefix is the optional message prefix that identifies the origin of a
// message: either a server name, or a nick!user@host triple.
//
// Example server prefix:
//
//	:irc.example.net NOTICE * :*** Looking up your hostname...
//
// Example full-address prefix:
//
//	:alice!a@example.com PRIVMSG #chan :hi
type Prefix struct {
	Nick Nickname
	User string
	Host string
}

// IsServer reports whether the prefix looks like it originated from a
// server rather than a user (a bare hostname with no nick/user).
func (p Prefix) IsServer() bool {
	return p.Host != "" && p.Nick == "" && p.User == ""
}

// String implements fmt.Stringer.
func (p Prefix) String() string {
	switch {
	case p.Nick == "" && p.User == "" && p.Host == "":
		return ""
	case p.Nick == "" && p.User == "":
		return p.Host
	case p.User == "":
		return p.Nick.String()
	default:
		return p.Nick.String() + "!" + p.User + "@" + p.Host
	}
}

// Command is the IRC verb or numeric (e.g. PRIVMSG, JOIN, 001).
type Command string

// String implements fmt.Stringer.
func (c Command) String() string {
	return string(c)
}

func (c *Command) normalize() {
	*c = Command(strings.ToUpper(string(*c)))
}

// is performs a case-insensitive compare, useful when c came from a string
// constant that might not match server casing exactly.
func (c Command) is(oc Command) bool {
	return strings.EqualFold(string(c), string(oc))
}

// Params holds the non-trailing, whitespace-split arguments of a message, in
// wire order.
type Params []string

// Get returns the nth parameter (1-indexed), or "" if it doesn't exist.
// Positional meaning depends on which command/verb was used, so callers
// don't need to distinguish "missing" from "empty" here -- use Message's
// HasTrailing when that distinction matters for the trailing component.
func (p Params) Get(n int) string {
	if n < 1 || n > len(p) {
		return ""
	}
	return p[n-1]
}

// Message represents a single parsed inbound line, or a line under
// construction for sending. It is immutable after construction by Parse or
// NewMessage: callers should treat its fields as read-only, though nothing
// enforces that at the type level.
//
// This is the "Command" entity from the framework's design: prefix, verb,
// ordered args, and an optional trailing parameter distinct from an absent
// one. The Command type name was already taken by the verb field, so the
// wire record keeps the name Message, as it does in the library this was
// adapted from.
type Message struct {
	// Source is where the message originated. Empty for messages we send.
	Source Prefix

	// Command is the verb or 3-digit numeric.
	Command Command

	// Params holds the whitespace-split arguments before any trailing
	// component.
	Params Params

	// Trailing is the optional parameter introduced by " :". HasTrailing
	// distinguishes an empty trailing component from none at all.
	Trailing    string
	HasTrailing bool

	// Raw is the original wire line this message was parsed from. Empty
	// for messages constructed for sending that haven't been marshaled
	// yet.
	Raw string
}

// NewMessage constructs a Message to be sent, with cmd as the verb and args
// as the parameters. Only the last argument may contain SPACE; it is always
// encoded as the trailing component.
func NewMessage(cmd Command, args ...string) *Message {
	cmd.normalize()
	m := &Message{Command: cmd}
	if len(args) == 0 {
		return m
	}
	m.Params = make(Params, len(args)-1, parameterLimit)
	copy(m.Params, args[:len(args)-1])
	m.Trailing = args[len(args)-1]
	m.HasTrailing = true
	return m
}

// MarshalText implements encoding.TextMarshaler. The returned bytes always
// end in "\r\n".
func (m *Message) MarshalText() ([]byte, error) {
	var b strings.Builder
	if src := m.Source.String(); src != "" {
		b.WriteByte(':')
		b.WriteString(src)
		b.WriteByte(' ')
	}
	b.WriteString(m.Command.String())
	for _, p := range m.Params {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	if m.HasTrailing {
		b.WriteString(" :")
		b.WriteString(m.Trailing)
	}
	b.WriteString("\r\n")
	return []byte(b.String()), nil
}

// Text returns the free-form text portion of a message for the well-known
// commands that carry one (PRIVMSG, NOTICE, TOPIC, KICK, PART, QUIT, ERROR,
// MODE). Returns "" for anything else.
func (m *Message) Text() string {
	switch {
	case m.Command.is(CmdQuit), m.Command.is(CmdError):
		return m.Trailing
	case m.Command.is(CmdPrivmsg), m.Command.is(CmdNotice), m.Command.is(CmdTopic),
		m.Command.is(CmdKick), m.Command.is(CmdPart), m.Command.is(CmdMode):
		return m.Trailing
	default:
		return ""
	}
}

// Target returns the intended target of a message (channel or nickname) for
// commands where the first parameter, Params.Get(1), carries it.
func (m *Message) Target() string {
	switch {
	case m.Command.is(CmdPrivmsg), m.Command.is(CmdNotice), m.Command.is(CmdInvite),
		m.Command.is(CmdTopic), m.Command.is(CmdKick), m.Command.is(CmdPart), m.Command.is(CmdMode):
		return m.Params.Get(1)
	default:
		return ""
	}
}
