package irc

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Context describes where a command-hook-triggering message arrived: in a
// channel, in a private message, or (as a hook registration) either.
type Context int

const (
	ContextChannel Context = 1 << iota
	ContextPrivate
	ContextAny = ContextChannel | ContextPrivate
)

// PrivateMessage is the normalized view of a PRIVMSG handed to command
// hooks: the tracked sender (or a TransientUser), the channel it arrived in
// (nil for a private message), whether it came via channel or private
// message, the formatting-stripped text, and the raw underlying Message for
// callbacks that need more than the normalized view.
type PrivateMessage struct {
	Sender     *User
	Transient  *TransientUser
	Channel    *Channel
	Context    Context
	Message    string
	RawMessage *Message
}

// SenderNick returns the nick of whoever sent this message, whether or not
// it was tracked.
func (p *PrivateMessage) SenderNick() string {
	if p.Sender != nil {
		return p.Sender.Nick()
	}
	if p.Transient != nil {
		return p.Transient.Nick
	}
	return ""
}

// commandHookEntry pairs a registered command-hook callback with the
// trigger word and context it's gated on.
type commandHookEntry struct {
	trigger string
	context Context
	fn      func(*PrivateMessage)
}

// Tracker maintains the live channel/user membership view and drives the
// command-prefix dispatch built on top of raw PRIVMSG traffic. It installs
// its own raw hooks on a Dispatcher to stay current; nothing outside this
// file needs to know about PING/JOIN/PART/KICK/QUIT/NAMES/MODE/NICK wire
// traffic directly.
type Tracker struct {
	mu       sync.RWMutex
	channels map[string]*Channel
	users    map[string]*User
	ownNick  string

	cmdMu        sync.RWMutex
	commandHooks []*commandHookEntry

	// awaitingUmodeR and onUmodeR implement the NickServ-identify deferral:
	// once armed by AwaitUmodeR, onMode fires onUmodeR (and disarms) the
	// next time it observes user mode +r added on our own nick.
	awaitingUmodeR bool
	onUmodeR       func()

	net           *NetWorker
	Log           logrus.FieldLogger
	CommandPrefix string
	VersionReply  string
}

// NewTracker constructs a Tracker that sends auto-responses (PONG, CTCP
// VERSION replies) over net.
func NewTracker(ownNick string, net *NetWorker, log logrus.FieldLogger) *Tracker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tracker{
		channels:      make(map[string]*Channel),
		users:         make(map[string]*User),
		ownNick:       ownNick,
		net:           net,
		Log:           log,
		CommandPrefix: "!",
		VersionReply:  "midori-go",
	}
}

// AwaitUmodeR arms fn to run once, the next time this tracker observes user
// mode +r added on our own nick, instead of running immediately -- how a
// Supervisor defers auto-join until NickServ identification completes.
// Calling it again before fn runs replaces the pending callback.
func (t *Tracker) AwaitUmodeR(fn func()) {
	t.mu.Lock()
	t.awaitingUmodeR = true
	t.onUmodeR = fn
	t.mu.Unlock()
}

// OwnNick returns the nickname this tracker currently believes we hold.
func (t *Tracker) OwnNick() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ownNick
}

// Channel returns the tracked channel by name, or nil if we aren't in it.
func (t *Tracker) Channel(name string) *Channel {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.channels[foldNick(name)]
}

// Channels returns a snapshot of all tracked channels.
func (t *Tracker) Channels() map[string]*Channel {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]*Channel, len(t.channels))
	for k, v := range t.channels {
		out[k] = v
	}
	return out
}

// User returns the tracked user by nick, or nil if unknown.
func (t *Tracker) User(nick string) *User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.users[foldNick(nick)]
}

// Users returns a snapshot of all tracked users.
func (t *Tracker) Users() map[string]*User {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]*User, len(t.users))
	for k, v := range t.users {
		out[k] = v
	}
	return out
}

func (t *Tracker) getOrCreateChannel(name string) *Channel {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := foldNick(name)
	c, ok := t.channels[key]
	if !ok {
		c = newChannel(name)
		t.channels[key] = c
	}
	return c
}

func (t *Tracker) getOrCreateUser(nick, userName, hostmask string) *User {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := foldNick(nick)
	u, ok := t.users[key]
	if !ok {
		u = newUser(nick, userName, hostmask)
		t.users[key] = u
		return u
	}
	u.setHostInfo(userName, hostmask)
	return u
}

func (t *Tracker) dropChannel(name string) {
	t.mu.Lock()
	delete(t.channels, foldNick(name))
	t.mu.Unlock()
}

func (t *Tracker) dropUserIfOrphaned(nick string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := foldNick(nick)
	u, ok := t.users[key]
	if !ok {
		return
	}
	if u.channelCount() == 0 {
		delete(t.users, key)
	}
}

func (t *Tracker) renameUser(oldNick, newNick string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	oldKey, newKey := foldNick(oldNick), foldNick(newNick)
	if foldNick(t.ownNick) == oldKey {
		t.ownNick = newNick
	}
	u, ok := t.users[oldKey]
	if !ok {
		return
	}
	delete(t.users, oldKey)
	u.setNick(newNick)
	t.users[newKey] = u
}

// InstallHooks registers the tracker's raw hooks on d. It must be called
// once per connection, after the Tracker and Dispatcher are both
// constructed and before the dispatcher's Run loop starts.
func (t *Tracker) InstallHooks(d *Dispatcher) {
	d.HookRaw(CmdPing, nil, t.onPing)
	d.HookRaw(RplWelcome, nil, t.onWelcome)
	d.HookRaw(CmdJoin, nil, t.onJoin)
	d.HookRaw(CmdPart, nil, t.onPart)
	d.HookRaw(CmdKick, nil, t.onKick)
	d.HookRaw(CmdQuit, nil, t.onQuit)
	d.HookRaw(CmdNick, nil, t.onNick)
	d.HookRaw(CmdMode, nil, t.onMode)
	d.HookRaw(RplNamReply, nil, t.onNames)
	d.HookRaw(CmdPrivmsg, nil, t.onPrivmsg)
}

func (t *Tracker) onPing(m *Message) {
	reply, _ := Pong(m.Trailing).MarshalText()
	t.net.Send(reply)
}

func (t *Tracker) onWelcome(m *Message) {
	if nick := m.Params.Get(1); nick != "" {
		t.mu.Lock()
		t.ownNick = nick
		t.mu.Unlock()
	}
}

func (t *Tracker) onJoin(m *Message) {
	channel := m.Params.Get(1)
	if channel == "" {
		channel = m.Trailing
	}
	if channel == "" {
		return
	}
	nick := m.Source.Nick.String()
	u := t.getOrCreateUser(nick, m.Source.User, m.Source.Host)
	c := t.getOrCreateChannel(channel)
	c.addUser(nick)
	u.joinChannel(channel)
}

func (t *Tracker) onPart(m *Message) {
	channel := m.Params.Get(1)
	nick := m.Source.Nick.String()
	c := t.Channel(channel)
	if c == nil {
		t.Log.WithField("channel", channel).Debug("irc: PART for untracked channel, dropping")
		return
	}
	c.removeUser(nick)
	if Nickname(t.OwnNick()).Is(nick) {
		t.dropChannel(channel)
		return
	}
	if u := t.User(nick); u != nil {
		u.leaveChannel(channel)
		t.dropUserIfOrphaned(nick)
	}
}

func (t *Tracker) onKick(m *Message) {
	channel := m.Params.Get(1)
	kicked := m.Params.Get(2)
	c := t.Channel(channel)
	if c == nil {
		t.Log.WithField("channel", channel).Debug("irc: KICK for untracked channel, dropping")
		return
	}
	c.removeUser(kicked)
	if Nickname(t.OwnNick()).Is(kicked) {
		t.dropChannel(channel)
		return
	}
	if u := t.User(kicked); u != nil {
		u.leaveChannel(channel)
		t.dropUserIfOrphaned(kicked)
	}
}

func (t *Tracker) onQuit(m *Message) {
	nick := m.Source.Nick.String()
	u := t.User(nick)
	if u == nil {
		return
	}
	for _, ch := range u.Channels() {
		if c := t.Channel(ch); c != nil {
			c.removeUser(nick)
		}
	}
	t.mu.Lock()
	delete(t.users, foldNick(nick))
	t.mu.Unlock()
}

func (t *Tracker) onNick(m *Message) {
	oldNick := m.Source.Nick.String()
	newNick := m.Trailing
	if newNick == "" {
		newNick = m.Params.Get(1)
	}
	if newNick == "" {
		return
	}
	for _, ch := range t.channelsFor(oldNick) {
		if c := t.Channel(ch); c != nil {
			c.removeUser(oldNick)
			c.addUser(newNick)
		}
	}
	t.renameUser(oldNick, newNick)
}

func (t *Tracker) channelsFor(nick string) []string {
	u := t.User(nick)
	if u == nil {
		return nil
	}
	return u.Channels()
}

func (t *Tracker) onMode(m *Message) {
	target := m.Params.Get(1)
	if target == "" {
		return
	}
	if c := t.Channel(target); c != nil {
		// Membership mode changes (+o/+v/etc) are recorded at the
		// channel-presence granularity this tracker keeps; per-user
		// privilege flags are left to extensions that need them.
		t.Log.WithField("channel", target).WithField("modes", m.Params[1:]).Debug("irc: channel mode change observed")
		return
	}

	if !Nickname(t.OwnNick()).Is(target) {
		return
	}

	t.mu.Lock()
	awaiting, cb := t.awaitingUmodeR, t.onUmodeR
	t.mu.Unlock()
	if !awaiting {
		return
	}

	tokens := append([]string(nil), m.Params[1:]...)
	if m.HasTrailing {
		tokens = append(tokens, m.Trailing)
	}

	adding := false
	for _, field := range tokens {
		for _, r := range field {
			switch r {
			case '+':
				adding = true
			case '-':
				adding = false
			case 'r':
				if !adding {
					continue
				}
				t.mu.Lock()
				t.awaitingUmodeR = false
				t.onUmodeR = nil
				t.mu.Unlock()
				if cb != nil {
					cb()
				}
				return
			}
		}
	}
}

func (t *Tracker) onNames(m *Message) {
	// RPL_NAMREPLY: "<client> <symbol> <channel> :<names>"
	channel := m.Params.Get(3)
	if channel == "" {
		return
	}
	c := t.getOrCreateChannel(channel)
	own := t.OwnNick()
	for _, nick := range strings.Fields(m.Trailing) {
		nick = strings.TrimLeft(nick, "!~&@%+")
		if nick == "" {
			continue
		}
		if Nickname(own).Is(nick) {
			continue
		}
		u := t.getOrCreateUser(nick, "", "")
		c.addUser(nick)
		u.joinChannel(channel)
	}
}

func (t *Tracker) onPrivmsg(m *Message) {
	body := m.Trailing
	if sub, payload, ok := ParseCTCP(body); ok {
		t.handleCTCP(m, sub, payload)
		return
	}

	target := m.Params.Get(1)
	stripped := StripFormatting(body)
	nick := m.Source.Nick.String()

	pm := &PrivateMessage{
		Message:    stripped,
		RawMessage: m,
	}
	if u := t.User(nick); u != nil {
		pm.Sender = u
	} else {
		pm.Transient = &TransientUser{Nick: nick, UserName: m.Source.User, Hostmask: m.Source.Host}
	}

	if strings.HasPrefix(target, "#") || strings.HasPrefix(target, "&") {
		pm.Context = ContextChannel
		pm.Channel = t.Channel(target)
		if pm.Channel != nil {
			pm.Channel.pushBuffer(stripped)
		}
	} else {
		pm.Context = ContextPrivate
	}
	if pm.Sender != nil {
		pm.Sender.pushBuffer(stripped)
	}

	t.dispatchCommand(pm)
}

func (t *Tracker) handleCTCP(m *Message, sub, payload string) {
	nick := m.Source.Nick.String()
	switch strings.ToUpper(sub) {
	case "VERSION":
		reply, _ := CTCPReply(nick, "VERSION", t.VersionReply).MarshalText()
		t.net.Send(reply)
	case "PING":
		reply, _ := CTCPReply(nick, "PING", payload).MarshalText()
		t.net.Send(reply)
	}
}

func (t *Tracker) dispatchCommand(pm *PrivateMessage) {
	prefix := t.CommandPrefix
	if prefix == "" || !strings.HasPrefix(pm.Message, prefix) {
		return
	}
	fields := strings.Fields(pm.Message)
	if len(fields) == 0 {
		return
	}
	trigger := fields[0]

	t.cmdMu.RLock()
	entries := append([]*commandHookEntry(nil), t.commandHooks...)
	t.cmdMu.RUnlock()

	for _, e := range entries {
		if e.trigger != trigger {
			continue
		}
		if e.context&pm.Context == 0 {
			continue
		}
		e.fn(pm)
	}
}

// HookCommand registers fn to run whenever the first whitespace-separated
// word of a PRIVMSG's stripped text is exactly trigger (which must include
// its own prefix character, e.g. "!seen") in a context matching ctx. It
// returns an unhook function.
func (t *Tracker) HookCommand(trigger string, ctx Context, fn func(*PrivateMessage)) func() {
	e := &commandHookEntry{trigger: trigger, context: ctx, fn: fn}
	t.cmdMu.Lock()
	t.commandHooks = append(t.commandHooks, e)
	t.cmdMu.Unlock()
	return func() { t.unhookCommand(e) }
}

func (t *Tracker) unhookCommand(e *commandHookEntry) {
	t.cmdMu.Lock()
	defer t.cmdMu.Unlock()
	for i, existing := range t.commandHooks {
		if existing == e {
			t.commandHooks = append(t.commandHooks[:i], t.commandHooks[i+1:]...)
			return
		}
	}
}
