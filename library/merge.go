package library

import (
	"strings"

	"github.com/hbollon/go-edlib"
)

// defaultMergeScoreThreshold: merge two metadata sets when their
// representative (title, artist) pairs score at least this. 100 requires an
// exact title plus decent artist agreement, or a very strong fuzzy match.
const defaultMergeScoreThreshold = 100

// MergeSimilarSets merges metadata-based duplicate sets whose titles and
// artists score as the same track despite keying differently ("feat." vs
// comma-separated artists, remix suffixes and the like). Fingerprint sets
// are never touched. Each merged set keeps the lower of the two
// confidences; member tracks are deduplicated by id.
func MergeSimilarSets(sets []DuplicateSet, scoreThreshold int) []DuplicateSet {
	if len(sets) <= 1 {
		return sets
	}

	merged := make([]DuplicateSet, 0, len(sets))
	consumed := make(map[int]bool)

	for i := 0; i < len(sets); i++ {
		if consumed[i] {
			continue
		}
		current := sets[i]
		if current.MatchType != MatchMetadata {
			merged = append(merged, current)
			continue
		}

		for j := i + 1; j < len(sets); j++ {
			if consumed[j] || sets[j].MatchType != MatchMetadata {
				continue
			}
			other := sets[j]
			if !setsLookAlike(current, other, scoreThreshold) {
				continue
			}

			ids := make(map[string]bool, len(current.Tracks))
			for _, t := range current.Tracks {
				ids[t.ID] = true
			}
			for _, t := range other.Tracks {
				if !ids[t.ID] {
					ids[t.ID] = true
					current.Tracks = append(current.Tracks, t)
				}
			}
			if other.Confidence < current.Confidence {
				current.Confidence = other.Confidence
			}
			consumed[j] = true
		}
		merged = append(merged, current)
	}

	return merged
}

// setsLookAlike compares two sets via their first member's title/artist and
// a duration gate (within 2 seconds, same tolerance the pairwise field
// comparator uses).
func setsLookAlike(a, b DuplicateSet, scoreThreshold int) bool {
	ta, tb := a.Tracks[0], b.Tracks[0]
	d := ta.Duration - tb.Duration
	if d < 0 {
		d = -d
	}
	if ta.Duration > 0 && tb.Duration > 0 && d >= 2 {
		return false
	}
	return scoreTrackPair(ta.Name, ta.Artist, tb.Name, tb.Artist) >= scoreThreshold
}

// scoreTrackPair scores how likely two (title, artist) pairs name the same
// track: exact match, word overlap, substring containment and tiered
// Jaro-Winkler similarity, titles weighted above artists.
func scoreTrackPair(titleA, artistA, titleB, artistB string) int {
	norm := func(s string) string {
		s = strings.ToLower(strings.TrimSpace(s))
		s = strings.ReplaceAll(s, "'", "")
		s = strings.ReplaceAll(s, "&", "and")
		return s
	}
	titleA, titleB = norm(titleA), norm(titleB)
	artistA, artistB = norm(artistA), norm(artistB)

	score := 0

	if titleA == titleB && titleA != "" {
		score += 100
	} else {
		score += wordOverlapScore(titleA, titleB, 60)
		if titleB != "" && strings.Contains(titleB, titleA) && titleA != "" {
			score += 30
		} else if titleA != "" && strings.Contains(titleA, titleB) && titleB != "" {
			score += 20
		}
		if titleA != "" && titleB != "" {
			if sim, err := edlib.StringsSimilarity(titleA, titleB, edlib.JaroWinkler); err == nil {
				switch {
				case sim >= 0.90:
					score += 55
				case sim >= 0.85:
					score += 45
				case sim >= 0.75:
					score += 30
				case sim >= 0.65:
					score += 15
				}
			}
		}
	}

	if artistA == artistB && artistA != "" {
		score += 50
	} else if artistA != "" && artistB != "" {
		if strings.Contains(artistB, artistA) {
			score += 30
		} else if strings.Contains(artistA, artistB) {
			score += 20
		} else {
			score += wordOverlapScore(artistA, artistB, 10)
		}
		if sim, err := edlib.StringsSimilarity(artistA, artistB, edlib.JaroWinkler); err == nil {
			switch {
			case sim >= 0.90:
				score += 40
			case sim >= 0.80:
				score += 25
			}
		}
	}

	return score
}

// wordOverlapScore scales weight by the fraction of a's words (length >= 2)
// that also appear in b.
func wordOverlapScore(a, b string, weight int) int {
	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	if len(wordsA) == 0 {
		return 0
	}
	matched := 0
	for _, w := range wordsA {
		if len(w) < 2 {
			continue
		}
		for _, r := range wordsB {
			if w == r {
				matched++
				break
			}
		}
	}
	return int(float64(matched) / float64(len(wordsA)) * float64(weight))
}
