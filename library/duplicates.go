package library

import (
	"context"
	"log"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"
)

const duplicateLogPrefix = "[DuplicateScan]"

// FindDuplicates groups tracks into duplicate sets. The fingerprint pass
// runs first and claims its members; the metadata pass then groups only the
// unclaimed remainder, so a track id never appears in both kinds of set in
// one call. Fingerprint sets come first in the result.
//
// A fingerprinting failure for one track degrades to its metadata fallback
// key and is logged; it never aborts the scan. Cancelling the context
// returns the sets built so far along with ctx.Err().
func (fp *Fingerprinter) FindDuplicates(ctx context.Context, tracks []Track, opts DuplicateOptions) ([]DuplicateSet, error) {
	opts = opts.withDefaults()

	var sets []DuplicateSet
	claimed := make(map[string]bool)

	if opts.UseFingerprint {
		keys, err := fp.fingerprintAll(ctx, tracks, opts.WorkerCount)
		if err != nil {
			return sets, err
		}

		buckets := make(map[string][]Track)
		var order []string
		for i, t := range tracks {
			key := keys[i]
			if key == "" {
				continue
			}
			if _, seen := buckets[key]; !seen {
				order = append(order, key)
			}
			buckets[key] = append(buckets[key], t)
		}

		for _, key := range order {
			members := buckets[key]
			if len(members) < 2 {
				continue
			}
			sets = append(sets, DuplicateSet{
				ID:         uuid.NewString(),
				Tracks:     members,
				MatchType:  MatchFingerprint,
				Confidence: 100,
			})
			for _, m := range members {
				claimed[m.ID] = true
			}
		}
	}

	if opts.UseMetadata {
		fields := knownMetadataFields(opts.MetadataFields)
		if len(fields) == 0 {
			return sets, nil
		}
		stringFields, withDuration, withBPM := partitionMetadataFields(fields)

		// Bucket on the string fields only; numeric fields split the
		// buckets afterwards so near-equal durations still group (exact
		// key equality would separate 240s from 241s). An empty key is a
		// valid bucket: tracks that all lack the requested fields agree
		// on them, so they group together.
		buckets := make(map[string][]Track)
		var order []string
		for i, t := range tracks {
			if i%64 == 0 {
				select {
				case <-ctx.Done():
					return sets, ctx.Err()
				default:
				}
			}
			if claimed[t.ID] {
				continue
			}
			key := BuildMetadataKey(t, stringFields)
			if _, seen := buckets[key]; !seen {
				order = append(order, key)
			}
			buckets[key] = append(buckets[key], t)
		}

		var metaSets []DuplicateSet
		for _, key := range order {
			groups := [][]Track{buckets[key]}
			if withDuration {
				groups = splitGroups(groups, durationValue, 2)
			}
			if withBPM {
				groups = splitGroups(groups, bpmValue, 1)
			}
			for _, members := range groups {
				if len(members) < 2 {
					continue
				}
				metaSets = append(metaSets, DuplicateSet{
					ID:         uuid.NewString(),
					Tracks:     members,
					MatchType:  MatchMetadata,
					Confidence: metadataConfidence(members, fields),
				})
			}
		}
		if opts.MergeSimilar {
			metaSets = MergeSimilarSets(metaSets, defaultMergeScoreThreshold)
		}
		sets = append(sets, metaSets...)
	}

	return sets, nil
}

// partitionMetadataFields separates the string-valued bucketing fields from
// the numeric tolerance fields. Input must already be filtered through
// knownMetadataFields.
func partitionMetadataFields(fields []string) (stringFields []string, withDuration, withBPM bool) {
	for _, f := range fields {
		switch f {
		case "duration":
			withDuration = true
		case "bpm":
			withBPM = true
		default:
			stringFields = append(stringFields, f)
		}
	}
	return stringFields, withDuration, withBPM
}

func durationValue(t Track) (float64, bool) {
	if t.Duration > 0 {
		return t.Duration, true
	}
	return 0, false
}

func bpmValue(t Track) (float64, bool) {
	if t.BPM != nil {
		return *t.BPM, true
	}
	return 0, false
}

func splitGroups(groups [][]Track, value func(Track) (float64, bool), tol float64) [][]Track {
	var out [][]Track
	for _, g := range groups {
		out = append(out, splitByTolerance(g, value, tol)...)
	}
	return out
}

// splitByTolerance partitions members into runs whose value stays within
// tol of the run's smallest member. Tracks missing the value form one group
// of their own, so two tracks that both lack a field still match on it.
// Input order is preserved inside each run.
func splitByTolerance(members []Track, value func(Track) (float64, bool), tol float64) [][]Track {
	type indexed struct {
		pos int
		val float64
	}
	var present []indexed
	var absent []Track
	for i, m := range members {
		if v, ok := value(m); ok {
			present = append(present, indexed{pos: i, val: v})
		} else {
			absent = append(absent, m)
		}
	}
	sort.SliceStable(present, func(i, j int) bool { return present[i].val < present[j].val })

	var groups [][]Track
	var run []indexed
	flush := func() {
		if len(run) == 0 {
			return
		}
		sort.SliceStable(run, func(i, j int) bool { return run[i].pos < run[j].pos })
		group := make([]Track, 0, len(run))
		for _, it := range run {
			group = append(group, members[it.pos])
		}
		groups = append(groups, group)
		run = nil
	}
	for _, it := range present {
		if len(run) > 0 && it.val-run[0].val >= tol {
			flush()
		}
		run = append(run, it)
	}
	flush()
	if len(absent) > 0 {
		groups = append(groups, absent)
	}
	return groups
}

// fingerprintAll computes one key per track on a bounded worker pool,
// preserving input order. Failures fall back per track and are logged.
func (fp *Fingerprinter) fingerprintAll(ctx context.Context, tracks []Track, workers int) ([]string, error) {
	if workers <= 0 {
		workers = runtime.NumCPU() * 2
		if workers < 2 {
			workers = 2
		}
	}
	if workers > len(tracks) {
		workers = len(tracks)
	}

	keys := make([]string, len(tracks))
	sem := make(chan struct{}, max(workers, 1))
	var wg sync.WaitGroup

	for i, t := range tracks {
		select {
		case <-ctx.Done():
			wg.Wait()
			return keys, ctx.Err()
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, track Track) {
			defer wg.Done()
			defer func() { <-sem }()
			key, err := fp.Fingerprint(track)
			if err != nil {
				log.Printf("%s track %s: %v", duplicateLogPrefix, track.ID, err)
			}
			keys[idx] = key
		}(i, t)
	}

	wg.Wait()
	return keys, nil
}

// metadataConfidence scores a metadata set by how many (pair, field)
// combinations agree under the field tolerances: duration within 2s, bpm
// within 1, strings by normalized equality. A field absent on both tracks
// of a pair counts as agreement, matching the key-building policy.
func metadataConfidence(members []Track, fields []string) int {
	pairs := len(members) * (len(members) - 1) / 2
	total := pairs * len(fields)
	if total == 0 {
		return 0
	}

	matched := 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			for _, field := range fields {
				if fieldPairMatches(members[i], members[j], field) {
					matched++
				}
			}
		}
	}
	return int(math.Round(100 * float64(matched) / float64(total)))
}

func fieldPairMatches(a, b Track, field string) bool {
	switch field {
	case "artist":
		return normalizeFragment(a.Artist) == normalizeFragment(b.Artist)
	case "title":
		return normalizeFragment(a.Name) == normalizeFragment(b.Name)
	case "album":
		return normalizeFragment(a.Album) == normalizeFragment(b.Album)
	case "key":
		return normalizeFragment(a.Key) == normalizeFragment(b.Key)
	case "duration":
		return math.Abs(a.Duration-b.Duration) < 2
	case "bpm":
		if a.BPM == nil || b.BPM == nil {
			return a.BPM == nil && b.BPM == nil
		}
		return math.Abs(*a.BPM-*b.BPM) < 1
	}
	return false
}
