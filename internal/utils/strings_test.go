package utils

import (
	"strings"
	"testing"
)

func TestTruncateString(t *testing.T) {
	long := strings.Repeat("a", DefaultMaxStringLength+1)
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 5, "hello... (truncated, total: 11 chars)"},
		{"rune boundary", "héllo", 2, "h... (truncated, total: 6 chars)"},
		{"default limit", long, 0, long[:DefaultMaxStringLength] + "... (truncated, total: 501 chars)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("TruncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
