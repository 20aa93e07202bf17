package library

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const catalogLogPrefix = "[Catalog]"

// LoadCatalog reads a track collection from a JSON catalog file. The engine
// treats the catalog format as a black box owned by whoever produced it;
// this loader exists so the CLI host has something to feed the engine.
func LoadCatalog(path string) ([]Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var tracks []Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	return tracks, nil
}

// SaveCatalog writes the track collection back to disk atomically.
func SaveCatalog(path string, tracks []Track) error {
	data, err := json.MarshalIndent(tracks, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp catalog: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

// BuildCatalog bootstraps a catalog by walking a music directory, probing
// each audio file's tags and stat data. Files whose tags cannot be read
// still get an entry with title/artist parsed from the filename, so the
// catalog covers everything on disk. Duration and bitrate are filled only
// where the format's headers expose them (FLAC); mp3 entries carry zero
// until the host supplies them, which weakens their fingerprints to
// size + content prefix. Walk depth is unbounded here; this is a one-shot
// import, not a search.
func BuildCatalog(ctx context.Context, root string) ([]Track, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("music directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("music directory %s is not a directory", root)
	}

	exts := make(map[string]bool, len(DefaultAudioExtensions))
	for _, e := range DefaultAudioExtensions {
		exts["."+e] = true
	}

	var tracks []Track
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() || !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			log.Printf("%s stat %s: %v, skipping", catalogLogPrefix, path, err)
			return nil
		}

		track := Track{
			ID:       uuid.NewString(),
			Location: path,
		}
		size := fileInfo.Size()
		track.Size = &size
		mod := fileInfo.ModTime()
		track.DateModified = &mod
		added := time.Now()
		track.DateAdded = &added

		if tags, err := ProbeTags(path); err == nil {
			if tags.Title != "" || tags.Artist != "" {
				track.Name = tags.Title
				track.Artist = tags.Artist
				track.Album = tags.Album
			}
			track.Duration = tags.Duration
			track.Bitrate = tags.Bitrate
		}
		if track.Name == "" {
			title, artist := parseBasename(baseName(path))
			track.Name = title
			if track.Artist == "" {
				track.Artist = artist
			}
		}

		tracks = append(tracks, track)
		return nil
	})
	if err != nil {
		return tracks, err
	}
	return tracks, nil
}
