package library

import (
	"regexp"
	"strings"
)

var trackNumberPrefix = regexp.MustCompile(`^\d+[\s.\-]+`)

// parseBasename attempts to extract (title, artist) from an "Artist - Title"
// style basename (extension already stripped). Handles the common variants:
//   - "01. Artist - Title" / "01 Artist - Title"
//   - "Artist - Title"
//   - "Artist feat. Other - Title"
//   - "Artist_Title"
//
// When no separator is found the whole name is returned as the title with
// an empty artist, which still lets substring matching do something useful.
func parseBasename(name string) (title string, artist string) {
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}

	name = strings.TrimSpace(trackNumberPrefix.ReplaceAllString(name, ""))

	if strings.Contains(name, " - ") {
		parts := strings.SplitN(name, " - ", 2)
		artistPart := strings.TrimSpace(parts[0])
		titlePart := strings.TrimSpace(parts[1])
		if artistPart != "" && titlePart != "" {
			// Strip a trailing feat-clause from the artist side so
			// "Delerium feat. Sarah - Silence" keys on "Delerium".
			for _, marker := range []string{" feat. ", " feat ", " ft. ", " ft ", " featuring "} {
				if idx := strings.Index(strings.ToLower(artistPart), marker); idx > 0 {
					artistPart = strings.TrimSpace(artistPart[:idx])
					break
				}
			}
			return titlePart, artistPart
		}
	}

	if strings.Contains(name, "-") {
		parts := strings.SplitN(name, "-", 2)
		artistPart := strings.TrimSpace(parts[0])
		titlePart := strings.TrimSpace(parts[1])
		if artistPart != "" && titlePart != "" {
			return titlePart, artistPart
		}
	}

	return name, ""
}
