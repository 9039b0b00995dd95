package core

import (
	"fmt"
	"time"
)

// TimeFormat is the wire format for human-readable timestamps: UTC with
// millisecond precision.
const TimeFormat = "2006-01-02T15:04:05.000Z"

// uploadTimeSeconds is the seconds part of the upload sort key. The
// microsecond suffix is appended separately because '_' cannot introduce a
// fraction in a time layout, and '.' is reserved as the key separator.
const uploadTimeSeconds = "20060102T150405"

// FormatTime renders a timestamp in the wire format.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// NowFormatted returns the current time in the wire format.
func NowFormatted() string {
	return FormatTime(time.Now())
}

// FormatUploadTime renders a timestamp as a record sort key: lexically
// sortable, microsecond precision, restricted to characters valid in KV
// keys. Example: 20240615T120000_000123.
func FormatUploadTime(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%s_%06d", u.Format(uploadTimeSeconds), u.Nanosecond()/1000)
}
