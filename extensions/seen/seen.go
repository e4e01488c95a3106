// Package seen is a minimal example extension with no dependencies: it
// records the last time each nick was observed speaking and answers
// "!seen <nick>" in either a channel or a private message.
package seen

import (
	"fmt"
	"strings"
	"sync"
	"time"

	irc "github.com/midori-irc/midori"
)

func init() {
	irc.RegisterExtension("seen", nil, "1.0.0", New)
}

type record struct {
	channel string
	when    time.Time
}

type extension struct {
	api *irc.API

	mu   sync.RWMutex
	last map[string]record
}

// New constructs the seen extension: a raw hook recording activity from
// every PRIVMSG, and a "!seen" command hook answering lookups.
func New(api *irc.API, tracker *irc.Tracker) (*irc.Extension, error) {
	e := &extension{api: api, last: make(map[string]record)}

	unhookRaw := api.HookRaw(irc.CmdPrivmsg, nil, e.observe)
	unhookCmd := api.HookCommand("!seen", irc.ContextAny, e.reply)

	return &irc.Extension{
		Identifier: "seen",
		Stop: func() {
			unhookRaw()
			unhookCmd()
		},
	}, nil
}

func (e *extension) observe(m *irc.Message) {
	nick := m.Source.Nick.String()
	if nick == "" {
		return
	}
	target := m.Params.Get(1)
	e.mu.Lock()
	e.last[strings.ToLower(nick)] = record{channel: target, when: time.Now()}
	e.mu.Unlock()
}

func (e *extension) reply(pm *irc.PrivateMessage) {
	fields := strings.Fields(pm.Message)
	if len(fields) < 2 {
		return
	}
	who := fields[1]

	e.mu.RLock()
	rec, ok := e.last[strings.ToLower(who)]
	e.mu.RUnlock()

	target := pm.SenderNick()
	if pm.Channel != nil {
		target = pm.Channel.Name()
	}
	if !ok {
		e.api.Msg(target, fmt.Sprintf("I haven't seen %s.", who))
		return
	}
	e.api.Msg(target, fmt.Sprintf("%s was last seen in %s at %s.", who, rec.channel, rec.when.Format(time.RFC3339)))
}
