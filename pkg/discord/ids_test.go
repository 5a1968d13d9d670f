package discord

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCustomIDRoundTrip(t *testing.T) {
	id := customID(actionSelect, "abc-123")
	assert.Equal(t, "game-select:abc-123", id)

	action, sid, ok := parseCustomID(id)
	assert.True(t, ok)
	assert.Equal(t, actionSelect, action)
	assert.Equal(t, "abc-123", sid)
}

func TestParseCustomIDMalformed(t *testing.T) {
	_, _, ok := parseCustomID("no-separator")
	assert.False(t, ok)
}
