package library

import (
	"context"
	"os"
	"sync"
)

// ScanMissing partitions the catalog by filesystem existence and returns
// the tracks whose files are gone, preserving input order. Any stat error
// counts as missing (fail-safe toward re-scanning rather than silently
// skipping a broken path). Tracks without a location are neither present
// nor missing and are skipped entirely.
//
// Existence checks run concurrently per track; cancelling the context
// returns the portion checked so far.
func ScanMissing(ctx context.Context, tracks []Track) []Track {
	missing := make([]bool, len(tracks))

	const workers = 16
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, t := range tracks {
		if t.Location == "" {
			continue
		}
		select {
		case <-ctx.Done():
			wg.Wait()
			return collectMissing(tracks, missing)
		default:
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, location string) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := os.Stat(location); err != nil {
				missing[idx] = true
			}
		}(i, t.Location)
	}

	wg.Wait()
	return collectMissing(tracks, missing)
}

func collectMissing(tracks []Track, missing []bool) []Track {
	var out []Track
	for i, t := range tracks {
		if missing[i] {
			out = append(out, t)
		}
	}
	return out
}
