package irc

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/midori-irc/midori/ircdebug"
)

// readChunkSize bounds a single Read call against the connection. Lines
// straddling chunk boundaries are reassembled by the buffered scanner.
const readChunkSize = 4096

// NetWorker owns one TCP connection to an IRC server: it reads bytes, splits
// them on CRLF, hands each line to the worker pool for parsing, and drains
// an outbound queue of raw lines onto the wire.
//
// Exactly one NetWorker exists per connection attempt; Connect and the
// goroutines it starts must not be reused across reconnects.
type NetWorker struct {
	// Addr is "host:port" to dial.
	Addr string
	// BindAddr is the local address to bind before dialing. Address
	// family is inferred from the presence of ':' (IPv6 if present).
	BindAddr string
	// UseTLS wraps the dialed connection in TLS when true.
	UseTLS bool
	// Pool runs the per-line parse step off the network goroutines.
	Pool *WorkerPool
	// Log receives diagnostic output. Defaults to logrus's standard logger.
	Log logrus.FieldLogger

	// Inbound receives parsed messages as they arrive. A nil value
	// signals that the connection has ended (EOF or a fatal read/write
	// error) and the caller should treat this worker as dead.
	Inbound chan *Message

	conn      net.Conn
	rw        io.ReadWriteCloser
	outbound  chan []byte
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewNetWorker constructs a NetWorker ready to Connect.
func NewNetWorker(addr, bindAddr string, useTLS bool, pool *WorkerPool, log logrus.FieldLogger) *NetWorker {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &NetWorker{
		Addr:     addr,
		BindAddr: bindAddr,
		UseTLS:   useTLS,
		Pool:     pool,
		Log:      log,
		Inbound:  make(chan *Message, 64),
		outbound: make(chan []byte, 64),
		done:     make(chan struct{}),
	}
}

// Connect dials the server, optionally wrapping the connection in TLS, and
// starts the reader and writer goroutines. It returns once the connection is
// established; the goroutines run until the connection ends or Stop is
// called.
func (w *NetWorker) Connect(ctx context.Context) error {
	dialer := &net.Dialer{}
	if w.BindAddr != "" {
		network := "tcp4"
		if strings.Contains(w.BindAddr, ":") {
			network = "tcp6"
		}
		local, err := net.ResolveTCPAddr(network, net.JoinHostPort(w.BindAddr, "0"))
		if err != nil {
			return fmt.Errorf("net: resolving bind address %q: %w", w.BindAddr, err)
		}
		dialer.LocalAddr = local
	}

	conn, err := dialer.DialContext(ctx, "tcp", w.Addr)
	if err != nil {
		return fmt.Errorf("net: dial %s: %w", w.Addr, err)
	}
	if w.UseTLS {
		tconn := tls.Client(conn, &tls.Config{ServerName: hostOnly(w.Addr)})
		if err := tconn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return fmt.Errorf("net: tls handshake with %s: %w", w.Addr, err)
		}
		conn = tconn
	}
	w.conn = conn
	w.start()
	return nil
}

// UseConn adopts an already-established connection instead of dialing one,
// and starts the reader and writer goroutines. It is meant for tests, which
// hand NetWorker one end of a net.Pipe instead of a real TCP socket.
func (w *NetWorker) UseConn(conn net.Conn) {
	w.conn = conn
	w.start()
}

// debugConnEnv, when set, tees all connection traffic to stderr with
// directional prefixes -- useful while developing a new extension against a
// live network.
const debugConnEnv = "MIDORI_DEBUG_CONN"

func (w *NetWorker) start() {
	w.rw = w.conn
	if os.Getenv(debugConnEnv) != "" {
		w.rw = ircdebug.WriteTo(os.Stderr, w.conn, "-> ", "<- ")
	}
	w.wg.Add(2)
	go w.readLoop()
	go w.writeLoop()
}

// Send enqueues a raw line for writing, first appending CRLF if raw does not
// already end in one. Send does not block on the network; it only
// blocks if the outbound queue itself is full, which acts as the
// backpressure the spec calls for.
func (w *NetWorker) Send(raw []byte) {
	if !strings.HasSuffix(string(raw), "\r\n") {
		raw = append(raw, '\r', '\n')
	}
	select {
	case w.outbound <- raw:
	case <-w.done:
	}
}

// Stop drains the outbound queue, closes the connection, and waits for both
// goroutines to exit.
func (w *NetWorker) Stop() {
	w.closeOnce.Do(func() {
		close(w.done)
		if w.conn != nil {
			// The writer closes the connection once it has drained; the
			// deadline keeps an unresponsive peer from stalling that drain.
			w.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		}
	})
	w.wg.Wait()
}

func (w *NetWorker) readLoop() {
	defer w.wg.Done()
	scanner := bufio.NewScanner(w.rw)
	scanner.Buffer(make([]byte, 0, readChunkSize), 64*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		w.Pool.Submit(func() {
			m, err := Parse(line)
			if err != nil {
				w.Log.WithError(err).WithField("line", line).Warn("irc: dropping malformed line")
				return
			}
			select {
			case w.Inbound <- m:
			case <-w.done:
			}
		})
	}
	// An empty read (EOF) or any fatal error both end the scan loop; either
	// way we enqueue the disconnect sentinel.
	select {
	case w.Inbound <- nil:
	case <-w.done:
	}
}

func (w *NetWorker) writeLoop() {
	defer w.wg.Done()
	for {
		select {
		case raw := <-w.outbound:
			if _, err := w.rw.Write(raw); err != nil {
				w.Log.WithError(err).Warn("irc: write error, closing connection")
				w.conn.Close()
				return
			}
		case <-w.done:
			// Drain anything already queued, then close the connection so
			// the reader's blocked Read returns.
			for {
				select {
				case raw := <-w.outbound:
					_, _ = w.rw.Write(raw)
				default:
					w.conn.Close()
					return
				}
			}
		}
	}
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
