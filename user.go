package irc

import "sync"

// userBufferSize mirrors channelBufferSize but per-user, for extensions that
// track a user's own recent lines across channels (e.g. "seen").
const userBufferSize = 10

// User tracks what the framework knows about a single nick: its current
// user@host, the channels it shares with us, and its most recent lines.
type User struct {
	mu       sync.RWMutex
	nick     string
	userName string
	hostmask string
	channels map[string]struct{}
	buffer   []string
}

func newUser(nick, userName, hostmask string) *User {
	return &User{
		nick:     nick,
		userName: userName,
		hostmask: hostmask,
		channels: make(map[string]struct{}),
	}
}

// Nick returns the user's current nickname.
func (u *User) Nick() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.nick
}

func (u *User) setNick(nick string) {
	u.mu.Lock()
	u.nick = nick
	u.mu.Unlock()
}

// UserName returns the ident/username portion of the user's hostmask, if
// known.
func (u *User) UserName() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.userName
}

// Hostmask returns the host portion of the user's hostmask, if known.
func (u *User) Hostmask() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.hostmask
}

func (u *User) setHostInfo(userName, hostmask string) {
	u.mu.Lock()
	if userName != "" {
		u.userName = userName
	}
	if hostmask != "" {
		u.hostmask = hostmask
	}
	u.mu.Unlock()
}

func (u *User) joinChannel(name string) {
	u.mu.Lock()
	u.channels[foldNick(name)] = struct{}{}
	u.mu.Unlock()
}

func (u *User) leaveChannel(name string) {
	u.mu.Lock()
	delete(u.channels, foldNick(name))
	u.mu.Unlock()
}

func (u *User) channelCount() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.channels)
}

// Channels returns a snapshot of the (folded) channel names this user
// currently shares with us.
func (u *User) Channels() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]string, 0, len(u.channels))
	for ch := range u.channels {
		out = append(out, ch)
	}
	return out
}

func (u *User) pushBuffer(line string) {
	u.mu.Lock()
	u.buffer = append(u.buffer, line)
	if len(u.buffer) > userBufferSize {
		u.buffer = u.buffer[len(u.buffer)-userBufferSize:]
	}
	u.mu.Unlock()
}

// Buffer returns a copy of this user's last userBufferSize lines, oldest
// first.
func (u *User) Buffer() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]string, len(u.buffer))
	copy(out, u.buffer)
	return out
}

// TransientUser describes a nick seen speaking (or acting) that the tracker
// has no membership record for -- typically a PRIVMSG sender from a channel
// we haven't received NAMES/JOIN data for yet. It is never inserted into the
// tracker's user table: it exists only to give callers a consistent view
// with the same shape as User, without the tracker quietly fabricating
// membership state for a nick it can't actually vouch for.
type TransientUser struct {
	Nick     string
	UserName string
	Hostmask string
}
