package irc

import (
	"strings"
	"sync"
)

// channelBufferSize is how many of a channel's most recent message lines are
// retained for extensions that want recent context (e.g. "seen"-style
// lookups before the triggering line itself).
const channelBufferSize = 10

// Channel tracks the membership and recent activity of a single joined
// channel. All access goes through its methods, which take the channel's own
// lock -- the owning Tracker's lock only ever protects the top-level name ->
// *Channel map, never a Channel's internals, so channel updates don't
// serialize against lookups of other channels.
type Channel struct {
	mu     sync.RWMutex
	name   string
	users  map[string]struct{}
	topic  string
	buffer []string
}

func newChannel(name string) *Channel {
	return &Channel{
		name:  name,
		users: make(map[string]struct{}),
	}
}

// Name returns the channel name as given at creation (join-cased).
func (c *Channel) Name() string {
	return c.name
}

func (c *Channel) addUser(nick string) {
	c.mu.Lock()
	c.users[foldNick(nick)] = struct{}{}
	c.mu.Unlock()
}

func (c *Channel) removeUser(nick string) {
	c.mu.Lock()
	delete(c.users, foldNick(nick))
	c.mu.Unlock()
}

// HasUser reports whether nick is a tracked member of this channel.
func (c *Channel) HasUser(nick string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.users[foldNick(nick)]
	return ok
}

// Users returns a snapshot of member nicks. The slice is not ordered.
func (c *Channel) Users() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.users))
	for nick := range c.users {
		out = append(out, nick)
	}
	return out
}

func (c *Channel) userCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}

// Topic returns the last topic seen for this channel.
func (c *Channel) Topic() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topic
}

func (c *Channel) setTopic(topic string) {
	c.mu.Lock()
	c.topic = topic
	c.mu.Unlock()
}

func (c *Channel) pushBuffer(line string) {
	c.mu.Lock()
	c.buffer = append(c.buffer, line)
	if len(c.buffer) > channelBufferSize {
		c.buffer = c.buffer[len(c.buffer)-channelBufferSize:]
	}
	c.mu.Unlock()
}

// Buffer returns a copy of the last channelBufferSize lines seen in this
// channel, oldest first.
func (c *Channel) Buffer() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.buffer))
	copy(out, c.buffer)
	return out
}

// foldNick normalizes a nick for use as a map key. Servers vary in their
// actual casemapping rules; this package uses plain ASCII lowercasing as the
// lowest-common-denominator choice, consistent with Nickname.Is.
func foldNick(nick string) string {
	return strings.ToLower(nick)
}
