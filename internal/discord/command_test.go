package discord

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		content  string
		wantArgs string
		wantOK   bool
	}{
		{"!grades waxman, j 211", "waxman, j 211", true},
		{"!grades", "", true},
		{"  !grades   lee  ", "lee", true},
		{"!grades\twaxman", "waxman", true},
		{"!gradesx waxman", "", false},
		{"!grade waxman", "", false},
		{"hello !grades waxman", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			args, ok := ParseCommand("!grades", tt.content)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantArgs, args)
		})
	}

	_, ok := ParseCommand("", "!grades lee")
	assert.False(t, ok)
}

func TestSplitMessage(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, []string{"hello"}, splitMessage("hello", 10))
	})

	t.Run("splits on lines", func(t *testing.T) {
		got := splitMessage("aaaa\nbbbb\ncccc", 10)
		assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, got)
	})

	t.Run("long line is cut", func(t *testing.T) {
		got := splitMessage(strings.Repeat("x", 25), 10)
		assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, got)
	})

	t.Run("every chunk within limit", func(t *testing.T) {
		var b strings.Builder
		for i := 0; i < 300; i++ {
			b.WriteString("CSCI 1234: Some Course Name\n")
		}
		for _, chunk := range splitMessage(b.String(), maxMessageLen) {
			assert.LessOrEqual(t, len(chunk), maxMessageLen)
		}
	})
}
