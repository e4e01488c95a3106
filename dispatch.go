package irc

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// idleTimeout is how long the dispatcher waits for any inbound traffic
// before sending itself a PING to keep the connection alive and detect a
// silently dead socket.
const idleTimeout = 300 * time.Second

// HookPredicate decides whether a raw hook's callback should run for a given
// message. A nil predicate always matches.
type HookPredicate func(*Message) bool

// rawHook pairs a callback with the predicate that gates it.
type rawHook struct {
	callback  func(*Message)
	predicate HookPredicate
}

// Dispatcher reads parsed messages off a network worker's inbound queue,
// matches them against registered raw hooks, and runs matching callbacks on
// a worker pool. It is the single-threaded observer loop the rest of the
// framework's concurrency model depends on: hook registration and the
// match-and-submit step are not reentrant with respect to each other, which
// is why hook tables are guarded by a mutex even though only one goroutine
// drives dispatch at a time -- HookRaw and the unhook functions it returns may be called from pool
// worker goroutines while the dispatch loop is running concurrently.
type Dispatcher struct {
	Log logrus.FieldLogger

	net  *NetWorker
	pool *WorkerPool

	mu    sync.RWMutex
	hooks map[Command][]*rawHook

	// Disconnected is closed when the dispatch loop exits because it read
	// the nil sentinel from the network worker's inbound channel.
	Disconnected chan struct{}

	// ownNick, if set, reports the nick selfPing should ping. Set once via
	// SetOwnNick before Run starts; not guarded by mu since it is only ever
	// written before the dispatch loop begins reading it.
	ownNick func() string
}

// NewDispatcher wires a dispatcher to a specific network worker and pool.
func NewDispatcher(net *NetWorker, pool *WorkerPool, log logrus.FieldLogger) *Dispatcher {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		Log:          log,
		net:          net,
		pool:         pool,
		hooks:        make(map[Command][]*rawHook),
		Disconnected: make(chan struct{}),
	}
}

// HookRaw registers callback to run on the worker pool whenever a message of
// the given command arrives and predicate (if non-nil) returns true for it.
// It returns an unhook function.
func (d *Dispatcher) HookRaw(command Command, predicate HookPredicate, callback func(*Message)) func() {
	command.normalize()
	h := &rawHook{callback: callback, predicate: predicate}
	d.mu.Lock()
	d.hooks[command] = append(d.hooks[command], h)
	d.mu.Unlock()
	return func() { d.unhookRaw(command, h) }
}

// SetOwnNick arms the nick getter selfPing uses for its keepalive PING.
// Call it once, before Run starts.
func (d *Dispatcher) SetOwnNick(f func() string) {
	d.ownNick = f
}

func (d *Dispatcher) unhookRaw(command Command, h *rawHook) {
	d.mu.Lock()
	defer d.mu.Unlock()
	hooks := d.hooks[command]
	for i, existing := range hooks {
		if existing == h {
			d.hooks[command] = append(hooks[:i], hooks[i+1:]...)
			return
		}
	}
}

// Run drives the dispatch loop until the network worker signals disconnect
// (a nil message) or stop is closed. It sends a self-PING after idleTimeout
// of no inbound traffic.
func (d *Dispatcher) Run(stop <-chan struct{}) {
	timer := time.NewTimer(idleTimeout)
	defer timer.Stop()
	for {
		select {
		case m, ok := <-d.net.Inbound:
			if !ok || m == nil {
				close(d.Disconnected)
				return
			}
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(idleTimeout)
			d.dispatch(m)
		case <-timer.C:
			d.selfPing()
			timer.Reset(idleTimeout)
		case <-stop:
			return
		}
	}
}

func (d *Dispatcher) dispatch(m *Message) {
	d.mu.RLock()
	hooks := append([]*rawHook(nil), d.hooks[m.Command]...)
	d.mu.RUnlock()
	for _, h := range hooks {
		h := h
		if h.predicate != nil && !h.predicate(m) {
			continue
		}
		d.pool.Submit(func() {
			defer func() {
				if r := recover(); r != nil {
					d.Log.WithField("panic", r).WithField("command", m.Command).Error("irc: hook callback panicked")
				}
			}()
			h.callback(m)
		})
	}
}

func (d *Dispatcher) selfPing() {
	nick := "*"
	if d.ownNick != nil {
		if n := d.ownNick(); n != "" {
			nick = n
		}
	}
	raw, _ := Ping(nick).MarshalText()
	d.net.Send(raw)
}
