package irc

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// reconnectDelay is the fixed pause between a dropped connection and the
// next connection attempt. The original used a flat delay with no jitter or
// backoff; this keeps that behavior rather than inventing a backoff policy
// the spec never asked for.
const reconnectDelay = 360 * time.Second

// connState is the supervisor's connection lifecycle state.
type connState int

const (
	stateDisconnected connState = iota
	stateHandshake
	stateReady
	stateDraining
)

func (s connState) String() string {
	switch s {
	case stateDisconnected:
		return "disconnected"
	case stateHandshake:
		return "handshake"
	case stateReady:
		return "ready"
	case stateDraining:
		return "draining"
	default:
		return "unknown"
	}
}

// Supervisor owns the full lifecycle of one bot run: connecting, the
// handshake, wiring the dispatcher/tracker/extensions together, running
// until disconnect, and reconnecting -- the Go counterpart of the original's
// Midori core run loop.
type Supervisor struct {
	Config *Config
	Log    logrus.FieldLogger

	state connState

	pool     *WorkerPool
	net      *NetWorker
	dispatch *Dispatcher
	tracker  *Tracker
	api      *API
	loader   *Loader
}

// NewSupervisor constructs a Supervisor from a validated config.
func NewSupervisor(cfg *Config, log logrus.FieldLogger) *Supervisor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Supervisor{Config: cfg, Log: log}
}

// Run connects, handshakes, and drives the bot until ctx is canceled,
// reconnecting with reconnectDelay between attempts whenever the connection
// drops.
func (s *Supervisor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if err := s.runOnce(ctx); err != nil {
			s.Log.WithError(err).Error("irc: connection attempt failed")
		}
		s.state = stateDisconnected

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context) error {
	cfg := s.Config

	s.pool = NewWorkerPool(cfg.WorkersSize, s.Log)
	defer s.pool.Stop()

	s.net = NewNetWorker(cfg.Addr(), cfg.BindAddr, cfg.UseSSL, s.pool, s.Log)
	if err := s.net.Connect(ctx); err != nil {
		return fmt.Errorf("irc: connecting: %w", err)
	}
	defer s.net.Stop()

	s.dispatch = NewDispatcher(s.net, s.pool, s.Log)
	s.tracker = NewTracker(cfg.Nick, s.net, s.Log)
	s.api = NewAPI(s.net, s.dispatch, s.tracker)
	s.dispatch.SetOwnNick(s.tracker.OwnNick)
	s.tracker.InstallHooks(s.dispatch)

	s.dispatch.HookRaw(RplWelcome, nil, s.onWelcome)

	s.loader = NewLoader(cfg.ExtensionBlacklist, s.Log)
	if _, err := s.loader.LoadAll(s.api, s.tracker); err != nil {
		return fmt.Errorf("irc: loading extensions: %w", err)
	}
	defer s.loader.StopAll()

	s.state = stateHandshake
	s.handshake()

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			close(stop)
		case <-s.dispatch.Disconnected:
		}
	}()

	s.dispatch.Run(stop)
	s.state = stateDraining
	return nil
}

// handshake sends PASS (if configured), NICK, and USER, optionally pausing
// HandshakeDelaySeconds between each -- a knob the original didn't have
// (it sends all three back to back), kept at zero by default to preserve
// that behavior exactly.
func (s *Supervisor) handshake() {
	cfg := s.Config
	delay := time.Duration(cfg.HandshakeDelaySeconds) * time.Second

	if cfg.Password != "" {
		s.sendHandshakeLine(Pass(cfg.Password))
		s.sleep(delay)
	}
	s.sendHandshakeLine(Nick(cfg.Nick))
	s.sleep(delay)
	s.sendHandshakeLine(User(cfg.User, cfg.RealName))
}

func (s *Supervisor) sendHandshakeLine(m *Message) {
	raw, _ := m.MarshalText()
	s.net.Send(raw)
}

func (s *Supervisor) sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

// onWelcome marks the connection ready, sets our connect-time user modes,
// and either joins the configured channels immediately or -- when a
// NickServ password is configured -- identifies with NickServ first and
// defers the joins until Tracker observes user mode +r on us, mirroring
// irc_base.py's on_ready/on_mode pairing.
func (s *Supervisor) onWelcome(m *Message) {
	s.state = stateReady
	cfg := s.Config

	if cfg.Modes != "" {
		raw, _ := UserMode(s.tracker.OwnNick(), cfg.Modes).MarshalText()
		s.net.Send(raw)
	}

	if cfg.NickServPassword != "" {
		s.api.Msg("NickServ", "IDENTIFY "+cfg.NickServPassword)
		s.tracker.AwaitUmodeR(s.joinConfiguredChannels)
		return
	}
	s.joinConfiguredChannels()
}

func (s *Supervisor) joinConfiguredChannels() {
	for _, channel := range s.Config.Channels {
		s.api.Join(channel)
	}
}
