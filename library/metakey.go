package library

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// normalizeFragment lowers a string and strips everything that is not a
// letter or digit, so "Róisín (Remix)" and "roisin remix" key the same.
func normalizeFragment(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BuildMetadataKey builds a grouping key from the requested fields in order.
// String fields are lower-cased and stripped of non-alphanumerics, numeric
// fields round to the nearest integer. A field that is absent on the track
// contributes nothing at all (no placeholder), so two tracks that both lack
// a field still agree on it. Unknown field names are ignored.
//
// Supported fields: artist, title, album, duration, bpm, key.
func BuildMetadataKey(t Track, fields []string) string {
	var b strings.Builder
	for _, field := range fields {
		switch strings.ToLower(field) {
		case "artist":
			b.WriteString(normalizeFragment(t.Artist))
		case "title":
			b.WriteString(normalizeFragment(t.Name))
		case "album":
			b.WriteString(normalizeFragment(t.Album))
		case "key":
			b.WriteString(normalizeFragment(t.Key))
		case "duration":
			if t.Duration > 0 {
				b.WriteString(strconv.Itoa(int(math.Round(t.Duration))))
			}
		case "bpm":
			if t.BPM != nil {
				b.WriteString(strconv.Itoa(int(math.Round(*t.BPM))))
			}
		}
	}
	return b.String()
}

// knownMetadataFields filters a field list down to the names BuildMetadataKey
// understands, preserving order. The confidence calculation counts only
// these, so an unknown name neither keys nor dilutes a set's score.
func knownMetadataFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		switch strings.ToLower(f) {
		case "artist", "title", "album", "duration", "bpm", "key":
			out = append(out, strings.ToLower(f))
		}
	}
	return out
}
