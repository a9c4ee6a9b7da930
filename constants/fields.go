package constants

import "strings"

// Field names a ticket record can carry.
const (
	FieldTitle  = "title"
	FieldDate   = "date"
	FieldTime   = "time"
	FieldVenue  = "venue"
	FieldArtist = "artist"
	FieldSeat   = "seat"
)

var defaultFields = []string{
	FieldTitle,
	FieldDate,
	FieldTime,
	FieldVenue,
	FieldArtist,
	FieldSeat,
}

// DefaultFields returns a fresh copy of the default allow-list.
func DefaultFields() []string {
	out := make([]string, len(defaultFields))
	copy(out, defaultFields)
	return out
}

// ParseFieldList splits a comma separated list, trimming blanks and duplicates.
// An empty input yields the default allow-list.
func ParseFieldList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return DefaultFields()
	}
	seen := make(map[string]struct{})
	var out []string
	for _, part := range strings.Split(s, ",") {
		k := strings.TrimSpace(part)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
