package ml

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short input untouched", in: "ok", n: 8, want: "ok"},
		{name: "exact length untouched", in: "abcd", n: 4, want: "abcd"},
		{name: "ascii cut", in: "abcdef", n: 3, want: "abc..."},
		{name: "backs off a two-byte rune", in: "aé", n: 2, want: "a..."},
		{name: "backs off a four-byte rune", in: "ab😀", n: 4, want: "ab..."},
		{name: "cut on rune boundary", in: "éé", n: 2, want: "é..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate([]byte(tt.in), tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
