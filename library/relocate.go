package library

import (
	"context"
	"io/fs"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const relocateLogPrefix = "[Relocate]"

// candidateFile is one enumerated file under a search root.
type candidateFile struct {
	path string
	base string // basename without extension
	size int64
}

// FindCandidates searches the configured roots for files that could be the
// new location of a missing track and ranks them by signal strength: exact
// basename match, fuzzy basename similarity, artist+title substring match,
// and file-size proximity. The result is deduplicated by path (first
// occurrence wins), sorted by descending score with first-seen order
// breaking ties, and capped at 10 entries.
//
// A root that does not exist, or fails to enumerate, is logged and skipped;
// only an empty SearchPaths list fails the whole call. Cancellation between
// roots returns the candidates gathered so far with ctx.Err().
func FindCandidates(ctx context.Context, track Track, opts RelocationOptions) ([]RelocationCandidate, error) {
	if len(opts.SearchPaths) == 0 {
		return nil, &ConfigError{Field: "search_paths", Reason: "at least one search path is required"}
	}
	opts = opts.withDefaults()

	originalBase := baseName(track.Location)
	seen := make(map[string]bool)
	var candidates []RelocationCandidate

	for _, root := range opts.SearchPaths {
		select {
		case <-ctx.Done():
			return finishCandidates(candidates), ctx.Err()
		default:
		}

		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			log.Printf("%s search path %s does not exist, skipping", relocateLogPrefix, root)
			continue
		}

		files, err := enumerateFiles(root, opts)
		if err != nil {
			log.Printf("%s enumerating %s: %v, skipping root", relocateLogPrefix, root, err)
			continue
		}

		candidates = append(candidates, searchRoot(track, originalBase, files, opts, seen)...)
	}

	return finishCandidates(candidates), nil
}

// searchRoot applies the four match tiers to one root's files. seen is
// shared across roots so the first root to propose a path keeps it.
func searchRoot(track Track, originalBase string, files []candidateFile, opts RelocationOptions, seen map[string]bool) []RelocationCandidate {
	var out []RelocationCandidate
	add := func(c RelocationCandidate) {
		if !seen[c.Path] {
			seen[c.Path] = true
			out = append(out, c)
		}
	}

	// Exact: basename equality, ignoring case and extension.
	if originalBase != "" {
		for _, f := range files {
			if strings.EqualFold(f.base, originalBase) {
				add(RelocationCandidate{
					Path:       f.path,
					Score:      100,
					MatchType:  CandidateExact,
					Confidence: 0.95,
				})
			}
		}
	}

	// Fuzzy: top 5 basenames clearing the similarity threshold. Only this
	// tier is gated by MatchThreshold.
	if originalBase != "" {
		type scored struct {
			file candidateFile
			sim  float64
		}
		var matches []scored
		for _, f := range files {
			if seen[f.path] {
				continue
			}
			if sim := Similarity(originalBase, f.base); sim >= opts.MatchThreshold {
				matches = append(matches, scored{file: f, sim: sim})
			}
		}
		sort.SliceStable(matches, func(i, j int) bool { return matches[i].sim > matches[j].sim })
		if len(matches) > 5 {
			matches = matches[:5]
		}
		for _, m := range matches {
			add(RelocationCandidate{
				Path:       m.file.path,
				Score:      int(math.Round(m.sim * 100)),
				MatchType:  CandidateFuzzy,
				Confidence: m.sim * 0.8,
			})
		}
	}

	// Metadata: basename contains both artist and title, up to 3. Fields
	// the tags don't carry fall back to parsing the original basename, so
	// a track with only an artist can still borrow its filename's title.
	artist, name := track.Artist, track.Name
	if artist == "" || name == "" {
		pt, pa := parseBasename(originalBase)
		if name == "" {
			name = pt
		}
		if artist == "" {
			artist = pa
		}
	}
	if artist != "" && name != "" {
		found := 0
		for _, f := range files {
			if found >= 3 {
				break
			}
			if seen[f.path] {
				continue
			}
			base := strings.ToLower(f.base)
			if strings.Contains(base, strings.ToLower(artist)) && strings.Contains(base, strings.ToLower(name)) {
				add(RelocationCandidate{
					Path:       f.path,
					Score:      80,
					MatchType:  CandidateMetadata,
					Confidence: 0.7,
				})
				found++
			}
		}
	}

	// Size: relative difference within 5%, first 20 not-yet-added files.
	if track.Size != nil && *track.Size > 0 {
		checked := 0
		for _, f := range files {
			if seen[f.path] {
				continue
			}
			if checked >= 20 {
				break
			}
			checked++
			relDiff := math.Abs(float64(f.size-*track.Size)) / float64(*track.Size)
			if relDiff <= 0.05 {
				add(RelocationCandidate{
					Path:       f.path,
					Score:      int(math.Round((1 - relDiff) * 100)),
					MatchType:  CandidateSize,
					Confidence: 0.6,
				})
			}
		}
	}

	return out
}

// finishCandidates orders by descending score (stable, so earlier-seen
// paths win ties) and caps the list at 10.
func finishCandidates(candidates []RelocationCandidate) []RelocationCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > 10 {
		candidates = candidates[:10]
	}
	return candidates
}

// enumerateFiles lists files under root matching the extension filter.
// When IncludeSubdirectories is set the walk is bounded by SearchDepth
// (1 = the root's immediate children); otherwise only the root level is
// read. Order is the walker's lexical order, which keeps results
// deterministic.
func enumerateFiles(root string, opts RelocationOptions) ([]candidateFile, error) {
	exts := make(map[string]bool, len(opts.FileExtensions))
	for _, e := range opts.FileExtensions {
		exts["."+strings.ToLower(strings.TrimPrefix(e, "."))] = true
	}

	var files []candidateFile
	appendFile := func(path string, size int64) {
		files = append(files, candidateFile{
			path: path,
			base: baseName(path),
			size: size,
		})
	}

	if !opts.IncludeSubdirectories {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !exts[strings.ToLower(filepath.Ext(entry.Name()))] {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			appendFile(filepath.Join(root, entry.Name()), info.Size())
		}
		return files, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil // unreadable subtree, keep walking
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(rel, string(os.PathSeparator))
		if d.IsDir() {
			if rel != "." && depth >= opts.SearchDepth {
				return fs.SkipDir
			}
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		appendFile(path, info.Size())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ApplyRelocation returns a copy of the track pointing at the candidate's
// path. The catalog itself is the caller's to update; nothing is persisted
// here.
func ApplyRelocation(track Track, candidate RelocationCandidate) Track {
	track.Location = candidate.Path
	return track
}

// baseName strips the directory and extension from a path.
func baseName(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(os.PathSeparator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
