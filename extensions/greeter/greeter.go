// Package greeter is a minimal example extension that depends on seen: it
// greets a nick the first time it speaks in a channel, giving the
// extension loader's dependency resolver a non-trivial, acyclic two-node
// graph to resolve (greeter -> seen) when both are registered.
package greeter

import (
	"fmt"
	"strings"
	"sync"

	irc "github.com/midori-irc/midori"

	// Imported for its registration side effect: greeter depends on seen
	// having already been constructed by the time a connection starts,
	// since seen is the extension responsible for observing channel
	// activity that greeter's own first-sight bookkeeping mirrors.
	_ "github.com/midori-irc/midori/extensions/seen"
)

func init() {
	irc.RegisterExtension("greeter", []string{"seen"}, "1.0.0", New)
}

type extension struct {
	api *irc.API

	mu      sync.Mutex
	greeted map[string]struct{}
}

// New constructs the greeter extension.
func New(api *irc.API, tracker *irc.Tracker) (*irc.Extension, error) {
	e := &extension{api: api, greeted: make(map[string]struct{})}
	unhook := api.HookRaw(irc.CmdPrivmsg, nil, e.onPrivmsg)
	return &irc.Extension{
		Identifier: "greeter",
		Stop:       unhook,
	}, nil
}

func (e *extension) onPrivmsg(m *irc.Message) {
	target := m.Params.Get(1)
	if !strings.HasPrefix(target, "#") && !strings.HasPrefix(target, "&") {
		return
	}
	nick := m.Source.Nick.String()
	if nick == "" {
		return
	}
	key := strings.ToLower(nick)

	e.mu.Lock()
	_, seen := e.greeted[key]
	if !seen {
		e.greeted[key] = struct{}{}
	}
	e.mu.Unlock()

	if seen {
		return
	}
	e.api.Msg(target, fmt.Sprintf("Welcome, %s!", nick))
}
