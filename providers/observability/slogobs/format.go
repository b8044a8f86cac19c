package slogobs

import (
	"os"
	"strings"
)

// Format is the log line layout.
type Format string

const (
	// FormatCompact writes one logfmt-style line per record:
	// 2026-01-02 15:04:05  INFO chat request provider=openai model=gpt-4o
	FormatCompact Format = "compact"

	// FormatJSON writes one JSON object per record, for log shippers.
	FormatJSON Format = "json"
)

// ParseFormat maps a format name to a Format. "text" is accepted as an alias
// for compact; anything unknown falls back to compact.
func ParseFormat(s string) Format {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "json":
		return FormatJSON
	default:
		return FormatCompact
	}
}

// GetFormatFromEnv reads CHATGATE_LOG_FORMAT, then LOG_FORMAT.
func GetFormatFromEnv() Format {
	if format := os.Getenv("CHATGATE_LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		return ParseFormat(format)
	}
	return FormatCompact
}

func (f Format) String() string {
	return string(f)
}
