package irc

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// maxDependencyDepth guards against runaway or cyclic dependency graphs
// during extension resolution.
const maxDependencyDepth = 15

// Extension is a constructed, running extension instance. Extensions close
// over the API surface and Tracker they were constructed with; Stop (if
// non-nil) unregisters any hooks and releases resources on shutdown.
type Extension struct {
	Identifier string
	Stop       func()
}

// ExtensionFactory constructs an Extension bound to a specific connection's
// API surface. It is called once per connection, in dependency order, after
// all of an extension's declared dependencies have already been
// constructed.
type ExtensionFactory func(api *API, tracker *Tracker) (*Extension, error)

// extensionDescriptor is the metadata an extension package registers at
// init() time: an identifier, the identifiers it depends on, a version
// string, and the factory that builds it.
type extensionDescriptor struct {
	identifier   string
	dependencies []string
	version      string
	factory      ExtensionFactory
}

// registry is the build-time stand-in for the original's directory-scanning
// dynamic loader: Go has no equivalent to imp.load_source, so extension
// packages register themselves here via an init() function calling
// RegisterExtension, and the program that wants them simply imports the
// package for its side effect.
var registry = make(map[string]*extensionDescriptor)

// RegisterExtension adds an extension descriptor to the build-time
// registry. It is meant to be called from an extension package's init()
// function. A duplicate identifier is a programming error and panics, since
// it can only happen from code within this binary (unlike the original's
// duplicate-file-on-disk case, which was a configuration-time, non-fatal
// situation).
func RegisterExtension(identifier string, dependencies []string, version string, factory ExtensionFactory) {
	if _, exists := registry[identifier]; exists {
		panic(fmt.Sprintf("irc: extension %q registered twice", identifier))
	}
	registry[identifier] = &extensionDescriptor{
		identifier:   identifier,
		dependencies: dependencies,
		version:      version,
		factory:      factory,
	}
}

// Loader resolves and constructs extensions from the build-time registry,
// honoring a blacklist and a dependency order, mirroring the validation and
// construction semantics of the original's extloader.
type Loader struct {
	Log logrus.FieldLogger

	blacklist map[string]struct{}
	resolved  map[string]*Extension
	building  map[string]bool
}

// NewLoader constructs a Loader with the given blacklisted identifiers.
func NewLoader(blacklist []string, log logrus.FieldLogger) *Loader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	bl := make(map[string]struct{}, len(blacklist))
	for _, id := range blacklist {
		bl[id] = struct{}{}
	}
	return &Loader{
		Log:       log,
		blacklist: bl,
		resolved:  make(map[string]*Extension),
		building:  make(map[string]bool),
	}
}

// LoadAll constructs every non-blacklisted registered extension along with
// their dependencies, in dependency order, and returns the constructed set
// keyed by identifier. It never returns a non-nil error: when an extension
// cannot be loaded -- a missing or blacklisted dependency, a dependency
// cycle, or a non-nil error from its factory -- the failure is logged and
// that extension, along with anything that depends on it, is skipped, while
// the remaining extensions still load.
func (l *Loader) LoadAll(api *API, tracker *Tracker) (map[string]*Extension, error) {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if _, blacklisted := l.blacklist[id]; blacklisted {
			l.Log.WithField("extension", id).Info("irc: extension blacklisted, skipping")
			continue
		}
		if _, err := l.resolve(id, api, tracker, 0); err != nil {
			l.Log.WithError(err).WithField("extension", id).Warn("irc: extension failed to load")
		}
	}
	return l.resolved, nil
}

func (l *Loader) resolve(id string, api *API, tracker *Tracker, depth int) (*Extension, error) {
	if ext, ok := l.resolved[id]; ok {
		return ext, nil
	}
	if depth > maxDependencyDepth {
		return nil, fmt.Errorf("irc: dependency depth exceeded resolving %q (cycle?)", id)
	}
	if l.building[id] {
		return nil, fmt.Errorf("irc: dependency cycle detected at %q", id)
	}
	if _, blacklisted := l.blacklist[id]; blacklisted {
		return nil, fmt.Errorf("irc: %q is blacklisted", id)
	}
	desc, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("irc: unknown extension dependency %q", id)
	}

	l.building[id] = true
	defer delete(l.building, id)

	for _, dep := range desc.dependencies {
		if _, err := l.resolve(dep, api, tracker, depth+1); err != nil {
			return nil, fmt.Errorf("irc: %q requires %q: %w", id, dep, err)
		}
	}

	ext, err := desc.factory(api, tracker)
	if err != nil {
		return nil, fmt.Errorf("irc: constructing %q: %w", id, err)
	}
	l.resolved[id] = ext
	return ext, nil
}

// StopAll stops every constructed extension, in reverse of construction
// order isn't tracked explicitly here since extensions only observe the API
// surface rather than each other once running; each Stop is independent.
func (l *Loader) StopAll() {
	for id, ext := range l.resolved {
		if ext.Stop == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					l.Log.WithField("panic", r).WithField("extension", id).Error("irc: extension panicked during stop")
				}
			}()
			ext.Stop()
		}()
	}
}
