/*
Package irc implements a modular IRC client/bot framework: wire protocol
parsing and encoding, a concurrent network worker, a raw-hook dispatcher, a
fixed-size worker pool, channel/user state tracking, and a build-time
extension registry.

API

The pieces you assemble a running connection from:

	// NetWorker owns one connection: a reader goroutine parses inbound
	// lines onto Inbound, a writer goroutine drains outbound sends.
	net := NewNetWorker(addr, bindAddr, useTLS, pool, log)
	net.Connect(ctx)

	// Dispatcher reads net.Inbound and runs matching raw hooks on pool.
	dispatch := NewDispatcher(net, pool, log)

	// Tracker keeps channel/user membership current and layers
	// command-prefix dispatch on top of PRIVMSG traffic.
	tracker := NewTracker(nick, net, log)
	tracker.InstallHooks(dispatch)

	// API is what extensions and application code call: send helpers,
	// mode mutators, and hook registration.
	api := NewAPI(net, dispatch, tracker)

Supervisor wires all of the above together from a Config, runs the
handshake, loads extensions from the build-time extension registry, and reconnects on
disconnect. See cmd/midori for the runnable entrypoint.

Encoding and Decoding

Message implements encoding.TextMarshaler; Parse decodes a raw wire line
(without its trailing CRLF) into a Message.

Extensions

Extensions register themselves with RegisterExtension from an init()
function; Loader resolves their declared dependencies and constructs them in
order when a Supervisor starts a connection.
*/
package irc
