package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker() *Tracker {
	return NewTracker("bot", nil, nil)
}

func TestTrackerJoinPartMembership(t *testing.T) {
	tr := newTestTracker()

	join, err := Parse(":alice!a@host JOIN #chan")
	require.NoError(t, err)
	tr.onJoin(join)

	c := tr.Channel("#chan")
	require.NotNil(t, c)
	assert.True(t, c.HasUser("alice"))

	u := tr.User("alice")
	require.NotNil(t, u)
	assert.Contains(t, u.Channels(), "#chan")

	part, err := Parse(":alice!a@host PART #chan")
	require.NoError(t, err)
	tr.onPart(part)

	c = tr.Channel("#chan")
	require.NotNil(t, c)
	assert.False(t, c.HasUser("alice"))
	assert.Nil(t, tr.User("alice"))
}

func TestTrackerSelfPartDropsChannel(t *testing.T) {
	tr := newTestTracker()

	join, _ := Parse(":bot!b@host JOIN #chan")
	tr.onJoin(join)
	require.NotNil(t, tr.Channel("#chan"))

	part, _ := Parse(":bot!b@host PART #chan")
	tr.onPart(part)
	assert.Nil(t, tr.Channel("#chan"))
}

func TestTrackerKickRemovesMembership(t *testing.T) {
	tr := newTestTracker()

	join, _ := Parse(":alice!a@host JOIN #chan")
	tr.onJoin(join)

	kick, _ := Parse(":op!o@host KICK #chan alice :begone")
	tr.onKick(kick)

	c := tr.Channel("#chan")
	require.NotNil(t, c)
	assert.False(t, c.HasUser("alice"))
	assert.Nil(t, tr.User("alice"))
}

func TestTrackerSelfKickDropsChannel(t *testing.T) {
	tr := newTestTracker()

	join, _ := Parse(":bot!b@host JOIN #chan")
	tr.onJoin(join)

	kick, _ := Parse(":op!o@host KICK #chan bot :begone")
	tr.onKick(kick)

	assert.Nil(t, tr.Channel("#chan"))
}

func TestTrackerQuitRemovesFromAllChannels(t *testing.T) {
	tr := newTestTracker()

	j1, _ := Parse(":alice!a@host JOIN #one")
	j2, _ := Parse(":alice!a@host JOIN #two")
	tr.onJoin(j1)
	tr.onJoin(j2)

	quit, _ := Parse(":alice!a@host QUIT :bye")
	tr.onQuit(quit)

	assert.False(t, tr.Channel("#one").HasUser("alice"))
	assert.False(t, tr.Channel("#two").HasUser("alice"))
	assert.Nil(t, tr.User("alice"))
}

func TestTrackerQuitUnknownUserIsNoop(t *testing.T) {
	tr := newTestTracker()
	quit, _ := Parse(":ghost!g@host QUIT :bye")
	assert.NotPanics(t, func() { tr.onQuit(quit) })
}

func TestTrackerPartUnknownChannelIsNoop(t *testing.T) {
	tr := newTestTracker()
	part, _ := Parse(":alice!a@host PART #nowhere")
	assert.NotPanics(t, func() { tr.onPart(part) })
}

func TestTrackerNickRekeysAcrossChannels(t *testing.T) {
	tr := newTestTracker()

	j1, _ := Parse(":alice!a@host JOIN #one")
	j2, _ := Parse(":alice!a@host JOIN #two")
	tr.onJoin(j1)
	tr.onJoin(j2)

	nick, _ := Parse(":alice!a@host NICK :alicia")
	tr.onNick(nick)

	assert.Nil(t, tr.User("alice"))
	u := tr.User("alicia")
	require.NotNil(t, u)
	assert.Contains(t, u.Channels(), "#one")
	assert.Contains(t, u.Channels(), "#two")
	assert.True(t, tr.Channel("#one").HasUser("alicia"))
	assert.False(t, tr.Channel("#one").HasUser("alice"))
}

func TestTrackerNamesIngest(t *testing.T) {
	tr := newTestTracker()

	names, err := Parse(":irc.example.net 353 bot = #chan :bot @op +voiced plain")
	require.NoError(t, err)
	tr.onNames(names)

	c := tr.Channel("#chan")
	require.NotNil(t, c)
	assert.False(t, c.HasUser("bot"), "own nick should be skipped while ingesting NAMES")
	assert.True(t, c.HasUser("op"))
	assert.True(t, c.HasUser("voiced"))
	assert.True(t, c.HasUser("plain"))
}

func TestCommandHookDispatchRespectsContext(t *testing.T) {
	tr := newTestTracker()

	var channelHits, privateHits int
	tr.HookCommand("!ping", ContextChannel, func(pm *PrivateMessage) { channelHits++ })
	tr.HookCommand("!ping", ContextPrivate, func(pm *PrivateMessage) { privateHits++ })

	tr.dispatchCommand(&PrivateMessage{Message: "!ping", Context: ContextChannel})
	assert.Equal(t, 1, channelHits)
	assert.Equal(t, 0, privateHits)

	tr.dispatchCommand(&PrivateMessage{Message: "!ping", Context: ContextPrivate})
	assert.Equal(t, 1, channelHits)
	assert.Equal(t, 1, privateHits)
}

func TestUnhookCommandStopsDispatch(t *testing.T) {
	tr := newTestTracker()

	var hits int
	unhook := tr.HookCommand("!x", ContextAny, func(pm *PrivateMessage) { hits++ })

	tr.dispatchCommand(&PrivateMessage{Message: "!x", Context: ContextChannel})
	assert.Equal(t, 1, hits)

	unhook()
	tr.dispatchCommand(&PrivateMessage{Message: "!x", Context: ContextChannel})
	assert.Equal(t, 1, hits)
}
