package session

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		budget int
		want   string
	}{
		{"short stays intact", "Trade, build, settle.", 500, "Trade, build, settle."},
		{"exact budget stays intact", "abcde", 5, "abcde"},
		{"over budget gets ellipsis", "abcdef", 5, "abcde..."},
		{"trailing space trimmed before ellipsis", "abcd ef", 5, "abcd..."},
		{"zero budget", "abc", 0, ""},
		{"empty input", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.budget))
		})
	}
}

func TestTruncateNeverSplitsRunes(t *testing.T) {
	in := strings.Repeat("ö", 10) + strings.Repeat("語", 10)

	for budget := 1; budget < 25; budget++ {
		out := Truncate(in, budget)
		assert.True(t, utf8.ValidString(out), "budget %d produced invalid UTF-8", budget)
	}

	assert.Equal(t, strings.Repeat("ö", 5)+"...", Truncate(in, 5))
}
