package irc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCTCP(t *testing.T) {
	sub, payload, ok := ParseCTCP("\x01VERSION\x01")
	assert.True(t, ok)
	assert.Equal(t, "VERSION", sub)
	assert.Equal(t, "", payload)

	sub, payload, ok = ParseCTCP("\x01ACTION slaps Bob\x01")
	assert.True(t, ok)
	assert.Equal(t, "ACTION", sub)
	assert.Equal(t, "slaps Bob", payload)

	_, _, ok = ParseCTCP("not ctcp")
	assert.False(t, ok)
}

func TestEncodeCTCP(t *testing.T) {
	got := EncodeCTCP("PING", "12345")
	assert.Equal(t, "\x01PING 12345\x01", got)

	sub, payload, ok := ParseCTCP(got)
	assert.True(t, ok)
	assert.Equal(t, "PING", sub)
	assert.Equal(t, "12345", payload)
}

func TestStripFormattingIdempotent(t *testing.T) {
	s := "\x02bold\x0F \x0304red\x03 \x1Funderline\x1F plain"
	once := StripFormatting(s)
	twice := StripFormatting(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, "bold red underline plain", once)
}

func TestStripFormattingNoop(t *testing.T) {
	s := "nothing to strip here"
	assert.Equal(t, s, StripFormatting(s))
}
