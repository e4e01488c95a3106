package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServerPrefix(t *testing.T) {
	m, err := Parse(":irc.example.net NOTICE * :*** Looking up your hostname...")
	require.NoError(t, err)
	assert.True(t, m.Source.IsServer())
	assert.Equal(t, "irc.example.net", m.Source.Host)
	assert.Equal(t, Command("NOTICE"), m.Command)
	assert.Equal(t, "*", m.Params.Get(1))
	assert.True(t, m.HasTrailing)
	assert.Equal(t, "*** Looking up your hostname...", m.Trailing)
}

func TestParseUserPrefix(t *testing.T) {
	m, err := Parse(":alice!a@example.com PRIVMSG #chan :hi there")
	require.NoError(t, err)
	assert.Equal(t, Nickname("alice"), m.Source.Nick)
	assert.Equal(t, "a", m.Source.User)
	assert.Equal(t, "example.com", m.Source.Host)
	assert.Equal(t, "#chan", m.Params.Get(1))
	assert.Equal(t, "hi there", m.Trailing)
}

func TestParseNoPrefix(t *testing.T) {
	m, err := Parse("PING :server1")
	require.NoError(t, err)
	assert.Equal(t, Prefix{}, m.Source)
	assert.Equal(t, Command("PING"), m.Command)
	assert.Equal(t, "server1", m.Trailing)
}

func TestParseNoTrailing(t *testing.T) {
	m, err := Parse("JOIN #chan")
	require.NoError(t, err)
	assert.False(t, m.HasTrailing)
	assert.Equal(t, "", m.Trailing)
	assert.Equal(t, "#chan", m.Params.Get(1))
}

func TestParseEmptyTrailing(t *testing.T) {
	m, err := Parse("PRIVMSG #chan :")
	require.NoError(t, err)
	assert.True(t, m.HasTrailing)
	assert.Equal(t, "", m.Trailing)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(":onlyprefix")
	assert.Error(t, err)

	_, err = Parse("")
	assert.Error(t, err)
}

// TestParseMarshalRoundTrip checks that the subset of lines this package
// constructs itself survives a marshal-then-parse cycle unchanged in
// meaning.
func TestParseMarshalRoundTrip(t *testing.T) {
	original := NewMessage(CmdPrivmsg, "#chan", "hello world")
	raw, err := original.MarshalText()
	require.NoError(t, err)

	reparsed, err := Parse(string(raw[:len(raw)-2])) // strip CRLF
	require.NoError(t, err)

	assert.Equal(t, original.Command, reparsed.Command)
	assert.Equal(t, original.Params, reparsed.Params)
	assert.Equal(t, original.Trailing, reparsed.Trailing)
	assert.Equal(t, original.HasTrailing, reparsed.HasTrailing)
}
