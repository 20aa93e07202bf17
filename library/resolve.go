package library

import (
	"sort"
	"strings"
)

// Strategy selects which member of a duplicate set survives resolution.
type Strategy string

const (
	KeepHighestQuality Strategy = "keep-highest-quality"
	KeepNewest         Strategy = "keep-newest"
	KeepOldest         Strategy = "keep-oldest"
	KeepPreferredPath  Strategy = "keep-preferred-path"
	KeepManual         Strategy = "manual"
)

// Resolve picks one canonical track per set and merges the other members'
// auxiliary data into it. The result maps winning track id to the merged
// track; sets the strategy produces no winner for (manual with no
// selection) are skipped, not defaulted. Inputs are never mutated.
//
// pathPreferences is only consulted by keep-preferred-path and
// manualSelections (set id -> track id) only by manual.
func Resolve(sets []DuplicateSet, strategy Strategy, pathPreferences []string, manualSelections map[string]string) (map[string]Track, error) {
	switch strategy {
	case KeepHighestQuality, KeepNewest, KeepOldest, KeepPreferredPath, KeepManual:
	default:
		return nil, &ConfigError{Field: "strategy", Reason: "unknown strategy " + string(strategy)}
	}

	resolved := make(map[string]Track)
	for _, set := range sets {
		winner, ok := selectWinner(set, strategy, pathPreferences, manualSelections)
		if !ok {
			continue
		}
		resolved[winner.ID] = mergeSet(winner, set.Tracks)
	}
	return resolved, nil
}

func selectWinner(set DuplicateSet, strategy Strategy, prefs []string, manual map[string]string) (Track, bool) {
	if len(set.Tracks) == 0 {
		return Track{}, false
	}

	switch strategy {
	case KeepManual:
		id, ok := manual[set.ID]
		if !ok {
			return Track{}, false
		}
		for _, t := range set.Tracks {
			if t.ID == id {
				return t, true
			}
		}
		return Track{}, false

	case KeepNewest:
		best := set.Tracks[0]
		for _, t := range set.Tracks[1:] {
			if t.DateModified == nil {
				continue
			}
			if best.DateModified == nil || t.DateModified.After(*best.DateModified) {
				best = t
			}
		}
		return best, true

	case KeepOldest:
		best := set.Tracks[0]
		for _, t := range set.Tracks[1:] {
			if t.DateAdded == nil {
				continue
			}
			if best.DateAdded == nil || t.DateAdded.Before(*best.DateAdded) {
				best = t
			}
		}
		return best, true

	case KeepPreferredPath:
		best := set.Tracks[0]
		bestPrio := pathPriority(best.Location, prefs)
		bestQuality := qualityScore(best)
		for _, t := range set.Tracks[1:] {
			prio := pathPriority(t.Location, prefs)
			if prio < bestPrio || (prio == bestPrio && qualityScore(t) > bestQuality) {
				best = t
				bestPrio = prio
				bestQuality = qualityScore(t)
			}
		}
		return best, true

	default: // KeepHighestQuality
		best := set.Tracks[0]
		bestScore := qualityScore(best)
		for _, t := range set.Tracks[1:] {
			if s := qualityScore(t); s > bestScore {
				best = t
				bestScore = s
			}
		}
		return best, true
	}
}

// qualityScore weighs bitrate and size, with flat bonuses for the DJ
// metadata a track carries: analyzed bpm and key, cue points, loops and a
// beatgrid all represent work worth keeping.
func qualityScore(t Track) float64 {
	score := float64(t.Bitrate) * 10
	if t.Size != nil {
		score += float64(*t.Size) / 1_000_000
	}
	if t.BPM != nil {
		score += 100
	}
	if t.Key != "" {
		score += 100
	}
	if len(t.CuePoints) > 0 {
		score += 200
	}
	if len(t.Loops) > 0 {
		score += 150
	}
	if t.Beatgrid != nil {
		score += 150
	}
	return score
}

// pathPriority is the index of the first preference substring the location
// contains (case-insensitive); no match ranks below every preference.
func pathPriority(location string, prefs []string) int {
	loc := strings.ToLower(location)
	for i, p := range prefs {
		if p != "" && strings.Contains(loc, strings.ToLower(p)) {
			return i
		}
	}
	return len(prefs)
}

// mergeSet folds the losing members' auxiliary data into a copy of the
// winner: union of cues (deduped by type+start), loops (start+end) and
// playlist names, max play count and rating. Merging the same set again
// yields the same result.
func mergeSet(winner Track, members []Track) Track {
	merged := winner
	merged.CuePoints = append([]CuePoint(nil), winner.CuePoints...)
	merged.Loops = append([]LoopRegion(nil), winner.Loops...)

	cueSeen := make(map[CuePoint]bool)
	for _, c := range merged.CuePoints {
		cueSeen[cueIdentity(c)] = true
	}
	loopSeen := make(map[LoopRegion]bool)
	for _, l := range merged.Loops {
		loopSeen[loopIdentity(l)] = true
	}
	playlistSeen := make(map[string]bool)
	for _, p := range winner.Playlists {
		playlistSeen[p] = true
	}
	playlists := append([]string(nil), winner.Playlists...)

	for _, m := range members {
		for _, c := range m.CuePoints {
			if id := cueIdentity(c); !cueSeen[id] {
				cueSeen[id] = true
				merged.CuePoints = append(merged.CuePoints, c)
			}
		}
		for _, l := range m.Loops {
			if id := loopIdentity(l); !loopSeen[id] {
				loopSeen[id] = true
				merged.Loops = append(merged.Loops, l)
			}
		}
		for _, p := range m.Playlists {
			if !playlistSeen[p] {
				playlistSeen[p] = true
				playlists = append(playlists, p)
			}
		}
		if m.PlayCount > merged.PlayCount {
			merged.PlayCount = m.PlayCount
		}
		if m.Rating > merged.Rating {
			merged.Rating = m.Rating
		}
	}

	sort.Strings(playlists)
	merged.Playlists = playlists
	return merged
}

// cueIdentity drops the label so cues dedupe on (type, start) alone.
func cueIdentity(c CuePoint) CuePoint { return CuePoint{Type: c.Type, Start: c.Start} }

// loopIdentity drops the label so loops dedupe on (start, end) alone.
func loopIdentity(l LoopRegion) LoopRegion { return LoopRegion{Start: l.Start, End: l.End} }
