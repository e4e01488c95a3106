package irc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/midori-irc/midori/irctest"
)

// newTestSupervisor wires a Supervisor the way runOnce does, minus the dial
// step, handing it one end of an in-memory connection.
func newTestSupervisor(t *testing.T, cfg *Config) (*Supervisor, *irctest.Server) {
	t.Helper()
	server, clientConn := irctest.NewServer()

	s := NewSupervisor(cfg, nil)
	s.pool = NewWorkerPool(2, s.Log)
	s.net = NewNetWorker("", "", false, s.pool, s.Log)
	s.net.UseConn(clientConn)
	s.dispatch = NewDispatcher(s.net, s.pool, s.Log)
	s.tracker = NewTracker(cfg.Nick, s.net, s.Log)
	s.api = NewAPI(s.net, s.dispatch, s.tracker)
	s.dispatch.SetOwnNick(s.tracker.OwnNick)
	s.tracker.InstallHooks(s.dispatch)
	s.dispatch.HookRaw(RplWelcome, nil, s.onWelcome)

	stop := make(chan struct{})
	go s.dispatch.Run(stop)

	t.Cleanup(func() {
		close(stop)
		s.net.Stop()
		s.pool.Stop()
		server.Close()
	})

	return s, server
}

func TestSupervisorWelcomeAutoJoinNoNickServ(t *testing.T) {
	cfg := &Config{Nick: "me", Modes: "+wpsC", Channels: []string{"#a", "#b"}}
	_, server := newTestSupervisor(t, cfg)

	server.WriteString(":srv 001 me :Welcome")

	assert.Equal(t, "MODE me +wpsC", recvLine(t, server.Recv()))
	assert.Equal(t, "JOIN :#a", recvLine(t, server.Recv()))
	assert.Equal(t, "JOIN :#b", recvLine(t, server.Recv()))
}

func TestSupervisorWelcomeNickServDefersJoin(t *testing.T) {
	cfg := &Config{
		Nick:             "me",
		Modes:            "+wpsC",
		Channels:         []string{"#a"},
		NickServ:         true,
		NickServPassword: "x",
	}
	_, server := newTestSupervisor(t, cfg)

	server.WriteString(":srv 001 me :Welcome")

	assert.Equal(t, "MODE me +wpsC", recvLine(t, server.Recv()))
	assert.Equal(t, "PRIVMSG NickServ :IDENTIFY x", recvLine(t, server.Recv()))

	select {
	case line, ok := <-server.Recv():
		if ok {
			t.Fatalf("join sent before +r was observed: %q", line)
		}
	case <-time.After(100 * time.Millisecond):
	}

	server.WriteString(":srv MODE me +r")
	assert.Equal(t, "JOIN :#a", recvLine(t, server.Recv()))
}
