package util

import "time"

const ISO8601Format = "2006-01-02T15:04:05Z"

// TimeToISO8601Str renders t in UTC with second precision.
func TimeToISO8601Str(t time.Time) string {
	return t.UTC().Format(ISO8601Format)
}

// ParseISO8601 accepts the UTC form written by TimeToISO8601Str as well as RFC 3339
// timestamps with an offset, and returns the instant in UTC.
func ParseISO8601(s string) (time.Time, error) {
	t, err := time.Parse(ISO8601Format, s)
	if err == nil {
		return t, nil
	}
	t, rfcErr := time.Parse(time.RFC3339, s)
	if rfcErr != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
