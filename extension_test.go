package irc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetRegistry saves and clears the package-level extension registry for
// the duration of a test, since RegisterExtension panics on duplicate
// identifiers and extensions are normally registered once at init() time.
func resetRegistry(t *testing.T) {
	t.Helper()
	saved := registry
	registry = make(map[string]*extensionDescriptor)
	t.Cleanup(func() { registry = saved })
}

func TestLoaderResolvesDependencyOrder(t *testing.T) {
	resetRegistry(t)

	var order []string
	RegisterExtension("base", nil, "1.0.0", func(api *API, tr *Tracker) (*Extension, error) {
		order = append(order, "base")
		return &Extension{Identifier: "base"}, nil
	})
	RegisterExtension("top", []string{"base"}, "1.0.0", func(api *API, tr *Tracker) (*Extension, error) {
		order = append(order, "top")
		return &Extension{Identifier: "top"}, nil
	})

	l := NewLoader(nil, nil)
	loaded, err := l.LoadAll(nil, nil)
	require.NoError(t, err)

	assert.Len(t, loaded, 2)
	assert.Equal(t, []string{"base", "top"}, order)
}

func TestLoaderBlacklist(t *testing.T) {
	resetRegistry(t)

	RegisterExtension("blocked", nil, "1.0.0", func(api *API, tr *Tracker) (*Extension, error) {
		return &Extension{Identifier: "blocked"}, nil
	})

	l := NewLoader([]string{"blocked"}, nil)
	loaded, err := l.LoadAll(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoaderMissingDependencyFailsDependent(t *testing.T) {
	resetRegistry(t)

	RegisterExtension("needs-ghost", []string{"ghost"}, "1.0.0", func(api *API, tr *Tracker) (*Extension, error) {
		return &Extension{Identifier: "needs-ghost"}, nil
	})

	l := NewLoader(nil, nil)
	loaded, err := l.LoadAll(nil, nil)
	require.NoError(t, err) // LoadAll itself never fails; per-extension errors are logged and skipped
	assert.Empty(t, loaded)
}

func TestLoaderCycleDetected(t *testing.T) {
	resetRegistry(t)

	RegisterExtension("a", []string{"b"}, "1.0.0", func(api *API, tr *Tracker) (*Extension, error) {
		return &Extension{Identifier: "a"}, nil
	})
	RegisterExtension("b", []string{"a"}, "1.0.0", func(api *API, tr *Tracker) (*Extension, error) {
		return &Extension{Identifier: "b"}, nil
	})

	l := NewLoader(nil, nil)
	loaded, err := l.LoadAll(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoaderValidationFailureIsNonFatalToSiblings(t *testing.T) {
	resetRegistry(t)

	RegisterExtension("broken", nil, "1.0.0", func(api *API, tr *Tracker) (*Extension, error) {
		return nil, errors.New("invalid configuration")
	})
	RegisterExtension("fine", nil, "1.0.0", func(api *API, tr *Tracker) (*Extension, error) {
		return &Extension{Identifier: "fine"}, nil
	})

	l := NewLoader(nil, nil)
	loaded, err := l.LoadAll(nil, nil)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Contains(t, loaded, "fine")
}
