package domain

import (
	"strings"
	"time"
)

// TimestampLayout is the stored form of every record timestamp. It is fixed
// width and always UTC, so comparing two stored values as text orders them
// by instant.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// CanonicalTimestamp parses an RFC3339 timestamp of any precision and
// offset and re-emits it in TimestampLayout. Empty input stays empty.
func CanonicalTimestamp(field, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", InvalidArgument(field + " must be an RFC3339 timestamp")
	}
	return FormatTimestamp(parsed), nil
}
