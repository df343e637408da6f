package common

import (
	"errors"
	"strconv"
	"time"
)

// ErrTimeFormat is returned by ParseTime for input it cannot read.
var ErrTimeFormat = errors.New("invalid time format; use RFC3339 or unix seconds")

// ParseTime accepts either RFC3339 or Unix seconds and returns UTC.
func ParseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, ErrTimeFormat
}
