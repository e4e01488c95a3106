package irc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/midori-irc/midori/irctest"
)

// testConn wires a mock server, a NetWorker, a WorkerPool, a Dispatcher, and
// a Tracker together the way Supervisor.runOnce does, minus the dial step.
type testConn struct {
	server   *irctest.Server
	pool     *WorkerPool
	net      *NetWorker
	dispatch *Dispatcher
	tracker  *Tracker
}

func newTestConn(t *testing.T) *testConn {
	t.Helper()
	server, clientConn := irctest.NewServer()

	pool := NewWorkerPool(2, nil)
	net := NewNetWorker("", "", false, pool, nil)
	net.UseConn(clientConn)
	dispatch := NewDispatcher(net, pool, nil)
	tracker := NewTracker("bot", net, nil)
	tracker.InstallHooks(dispatch)

	stop := make(chan struct{})
	go dispatch.Run(stop)

	t.Cleanup(func() {
		close(stop)
		net.Stop()
		pool.Stop()
		server.Close()
	})

	return &testConn{server: server, pool: pool, net: net, dispatch: dispatch, tracker: tracker}
}

func recvLine(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case line, ok := <-ch:
		if !ok {
			t.Fatal("client disconnected before sending expected line")
		}
		return line
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client to send a line")
		return ""
	}
}

func TestE2EPingPong(t *testing.T) {
	tc := newTestConn(t)
	tc.server.WriteString("PING :12345")
	line := recvLine(t, tc.server.Recv())
	assert.Equal(t, "PONG :12345", line)
}

func TestE2ENamesIngest(t *testing.T) {
	tc := newTestConn(t)
	tc.server.WriteString(":irc.example.net 353 bot = #chan :bot @alice +bob")

	require.Eventually(t, func() bool {
		c := tc.tracker.Channel("#chan")
		return c != nil && c.HasUser("alice") && c.HasUser("bob")
	}, time.Second, 10*time.Millisecond)
}

func TestE2ENickChange(t *testing.T) {
	tc := newTestConn(t)
	tc.server.WriteString(":alice!a@host JOIN #chan")

	require.Eventually(t, func() bool {
		c := tc.tracker.Channel("#chan")
		return c != nil && c.HasUser("alice")
	}, time.Second, 10*time.Millisecond)

	tc.server.WriteString(":alice!a@host NICK :alicia")

	require.Eventually(t, func() bool {
		return tc.tracker.User("alicia") != nil && tc.tracker.Channel("#chan").HasUser("alicia")
	}, time.Second, 10*time.Millisecond)
	assert.Nil(t, tc.tracker.User("alice"))
}

func TestE2ECTCPVersionReply(t *testing.T) {
	tc := newTestConn(t)
	tc.tracker.VersionReply = "midori-go-test"
	tc.server.WriteString(":alice!a@host PRIVMSG bot :\x01VERSION\x01")

	line := recvLine(t, tc.server.Recv())
	assert.Equal(t, "NOTICE alice :\x01VERSION midori-go-test\x01", line)
}

func TestE2EWelcomeSetsOwnNick(t *testing.T) {
	tc := newTestConn(t)
	tc.server.WriteString(":irc.example.net 001 newnick :Welcome to the network newnick")

	require.Eventually(t, func() bool {
		return tc.tracker.OwnNick() == "newnick"
	}, time.Second, 10*time.Millisecond)
}
