package library

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FingerprintCacheEntry is one persisted fingerprint, with the stat data
// needed to detect staleness on load.
type FingerprintCacheEntry struct {
	Location    string `json:"location"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ModTimeUnix int64  `json:"mod_time_unix"`
	SavedAt     string `json:"saved_at,omitempty"`
}

// SaveCache persists the fingerprinter's current cache for the given
// library root so a later run can skip re-hashing unchanged files. The
// engine never calls this on its own; persistence is strictly the host's
// decision. The file is written atomically via a temp file and rename.
func (fp *Fingerprinter) SaveCache(rootPath string) error {
	cachePath, err := fingerprintCachePath(rootPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	entries := make(map[string]FingerprintCacheEntry)
	for location, key := range fp.CachedKeys() {
		info, err := os.Stat(location)
		if err != nil {
			continue // file gone since fingerprinting, don't persist
		}
		entries[location] = FingerprintCacheEntry{
			Location:    location,
			Key:         key,
			Size:        info.Size(),
			ModTimeUnix: info.ModTime().Unix(),
			SavedAt:     now,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fingerprint cache: %w", err)
	}

	tmp := cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp fingerprint cache: %w", err)
	}
	if err := os.Rename(tmp, cachePath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("save fingerprint cache: %w", err)
	}
	return nil
}

// LoadCache seeds the fingerprinter from a previously saved cache. Entries
// whose file no longer exists, or whose size or mtime changed, are skipped.
// A missing cache file is not an error. Returns how many entries were
// loaded.
func (fp *Fingerprinter) LoadCache(rootPath string) (int, error) {
	cachePath, err := fingerprintCachePath(rootPath)
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read fingerprint cache: %w", err)
	}

	var entries map[string]FingerprintCacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("unmarshal fingerprint cache: %w", err)
	}

	loaded := 0
	for location, entry := range entries {
		info, err := os.Stat(location)
		if err != nil || info.Size() != entry.Size || info.ModTime().Unix() != entry.ModTimeUnix {
			continue
		}
		fp.seed(location, entry.Key)
		loaded++
	}
	return loaded, nil
}

// ClearCache removes the persisted cache file for a root. Removing a file
// that does not exist is a no-op.
func ClearCache(rootPath string) error {
	cachePath, err := fingerprintCachePath(rootPath)
	if err != nil {
		return err
	}
	if err := os.Remove(cachePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove fingerprint cache: %w", err)
	}
	return nil
}

// fingerprintCachePath derives a stable per-root cache file under the user
// cache directory, hashing the root so different libraries don't collide.
func fingerprintCachePath(rootPath string) (string, error) {
	if rootPath == "" {
		return "", &ConfigError{Field: "root_path", Reason: "root path is required"}
	}
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		userCacheDir = os.TempDir()
	}
	sum := sha1.Sum([]byte(rootPath))
	return filepath.Join(userCacheDir, "cratescan",
		fmt.Sprintf("fingerprints_%s.json", hex.EncodeToString(sum[:]))), nil
}
