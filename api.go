package irc

import "fmt"

// API is the surface extensions and application code program against: it
// wraps a connection's network worker, dispatcher, and state tracker behind
// the convenience emitters and mode mutators the framework's extensions are
// written in terms of, mirroring the original's bound API object that every
// extension method received as its first argument.
type API struct {
	net      *NetWorker
	dispatch *Dispatcher
	tracker  *Tracker
}

// NewAPI binds an API surface to a specific connection's components.
func NewAPI(net *NetWorker, dispatch *Dispatcher, tracker *Tracker) *API {
	return &API{net: net, dispatch: dispatch, tracker: tracker}
}

// send marshals and enqueues msg for sending.
func (a *API) send(msg *Message) {
	raw, _ := msg.MarshalText()
	a.net.Send(raw)
}

// SendRaw enqueues a preformatted line (without trailing CRLF) for sending
// verbatim.
func (a *API) SendRaw(line string) {
	a.net.Send([]byte(line))
}

// Nick returns the nickname this connection currently holds.
func (a *API) Nick() string {
	return a.tracker.OwnNick()
}

// Channels returns a snapshot of tracked channels, keyed by folded name. The
// map is a copy; the *Channel values in it are the tracker's live entries.
func (a *API) Channels() map[string]*Channel {
	return a.tracker.Channels()
}

// Users returns a snapshot of tracked users, keyed by folded nick. The map
// is a copy; the *User values in it are the tracker's live entries.
func (a *API) Users() map[string]*User {
	return a.tracker.Users()
}

// Msg sends a PRIVMSG to target.
func (a *API) Msg(target, message string) { a.send(Msg(target, message)) }

// Notice sends a NOTICE to target.
func (a *API) Notice(target, message string) { a.send(Notice(target, message)) }

// Describe sends a CTCP ACTION ("/me") to target.
func (a *API) Describe(target, action string) { a.send(Describe(target, action)) }

// Join joins channel with no key.
func (a *API) Join(channel string) { a.send(Join(channel)) }

// JoinWithKey joins a key-protected channel.
func (a *API) JoinWithKey(channel, key string) { a.send(JoinWithKey(channel, key)) }

// Part leaves channel with no reason.
func (a *API) Part(channel string) { a.send(Part(channel)) }

// PartWithReason leaves channel with reason.
func (a *API) PartWithReason(channel, reason string) { a.send(PartWithReason(channel, reason)) }

// Invite invites nick to channel.
func (a *API) Invite(nick, channel string) { a.send(Invite(nick, channel)) }

// Kick removes nick from channel with no reason.
func (a *API) Kick(channel, nick string) { a.send(Kick(channel, nick)) }

// KickWithReason removes nick from channel, shown reason.
func (a *API) KickWithReason(channel, nick, reason string) { a.send(KickWithReason(channel, nick, reason)) }

// KickBan bans nick from channel, then kicks them.
func (a *API) KickBan(channel, nick, reason string) {
	a.Ban(channel, nick)
	a.send(KickWithReason(channel, nick, reason))
}

// Away sets or clears (with an empty message) an away status.
func (a *API) Away(message string) { a.send(NewMessage(CmdAway, message)) }

func (a *API) mode(channel, flag, param string) {
	a.send(Mode(channel, flag, param))
}

// Voice grants +v to nick in channel.
func (a *API) Voice(channel, nick string) { a.mode(channel, "+v", nick) }

// Devoice removes +v from nick in channel.
func (a *API) Devoice(channel, nick string) { a.mode(channel, "-v", nick) }

// Hop grants +h (halfop) to nick in channel.
func (a *API) Hop(channel, nick string) { a.mode(channel, "+h", nick) }

// Dehop removes +h from nick in channel.
func (a *API) Dehop(channel, nick string) { a.mode(channel, "-h", nick) }

// Op grants +o to nick in channel.
func (a *API) Op(channel, nick string) { a.mode(channel, "+o", nick) }

// Deop removes +o from nick in channel.
func (a *API) Deop(channel, nick string) { a.mode(channel, "-o", nick) }

// Protect grants +a (protected/admin) to nick in channel.
func (a *API) Protect(channel, nick string) { a.mode(channel, "+a", nick) }

// Deprotect removes +a from nick in channel.
func (a *API) Deprotect(channel, nick string) { a.mode(channel, "-a", nick) }

// Owner grants +q (owner) to nick in channel.
func (a *API) Owner(channel, nick string) { a.mode(channel, "+q", nick) }

// Deowner removes +q from nick in channel.
func (a *API) Deowner(channel, nick string) { a.mode(channel, "-q", nick) }

// Ban sets +b on nick!*@*. For a more precise mask, use BanByMask.
func (a *API) Ban(channel, nick string) {
	a.mode(channel, "+b", fmt.Sprintf("%s!*@*", nick))
}

// Unban removes +b for nick!*@*. For a more precise mask, use UnbanByMask.
func (a *API) Unban(channel, nick string) {
	a.mode(channel, "-b", fmt.Sprintf("%s!*@*", nick))
}

// BanByMask sets +b on an explicit hostmask pattern.
func (a *API) BanByMask(channel, mask string) { a.mode(channel, "+b", mask) }

// UnbanByMask removes +b for an explicit hostmask pattern.
func (a *API) UnbanByMask(channel, mask string) { a.mode(channel, "-b", mask) }

// Stats summarizes buffer usage across every tracked channel and user.
type Stats struct {
	BufferCount            int
	TotalBufferContainment int
}

// GetStats returns summary counts over the message buffers of every
// tracked channel and user.
func (a *API) GetStats() Stats {
	var s Stats
	for _, u := range a.tracker.Users() {
		s.BufferCount++
		s.TotalBufferContainment += len(u.Buffer())
	}
	for _, c := range a.tracker.Channels() {
		s.BufferCount++
		s.TotalBufferContainment += len(c.Buffer())
	}
	return s
}

// HookRaw registers a raw wire-protocol hook: callback runs whenever a
// message of the given command arrives and predicate (nil meaning "always")
// matches.
func (a *API) HookRaw(command Command, predicate HookPredicate, callback func(*Message)) func() {
	return a.dispatch.HookRaw(command, predicate, callback)
}

// HookCommand registers a command-prefix hook, run when the first word of a
// PRIVMSG's stripped text is exactly trigger in a matching context.
func (a *API) HookCommand(trigger string, ctx Context, fn func(*PrivateMessage)) func() {
	return a.tracker.HookCommand(trigger, ctx, fn)
}
