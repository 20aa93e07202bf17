package library

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
)

// fingerprintPrefixBytes is how much of the file the content fingerprint
// hashes. Reading a bounded prefix keeps fingerprinting cheap on large
// lossless files while still catching re-encodes as different content.
const fingerprintPrefixBytes = 1 << 20 // 1 MiB

// Fingerprinter derives stable identity keys for track files and caches
// them per location for the life of the instance. The cache is safe for
// concurrent read and insert; on a race the first writer wins and the
// losing computation is simply discarded. Hosts own the instance and decide
// its lifetime (there is no package-level cache).
type Fingerprinter struct {
	mu    sync.RWMutex
	cache map[string]string
}

func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{cache: make(map[string]string)}
}

// Fingerprint returns the identity key for the track's file. On any I/O
// failure it returns a deterministic metadata-only fallback key together
// with a *FingerprintError describing the failure; the key is always
// usable, so batch operations never starve on unreadable files. Fallback
// keys are not cached, letting a later successful read replace them within
// the same run.
func (fp *Fingerprinter) Fingerprint(t Track) (string, error) {
	if t.Location != "" {
		fp.mu.RLock()
		key, ok := fp.cache[t.Location]
		fp.mu.RUnlock()
		if ok {
			return key, nil
		}
	}

	key, err := contentKey(t)
	if err != nil {
		return metadataFallbackKey(t), &FingerprintError{Location: t.Location, Err: err}
	}

	if t.Location != "" {
		fp.mu.Lock()
		if existing, ok := fp.cache[t.Location]; ok {
			key = existing // first writer wins
		} else {
			fp.cache[t.Location] = key
		}
		fp.mu.Unlock()
	}
	return key, nil
}

// CachedKeys returns a copy of the current location -> key cache. Used by
// the cache persistence helpers and handy for diagnostics.
func (fp *Fingerprinter) CachedKeys() map[string]string {
	fp.mu.RLock()
	defer fp.mu.RUnlock()
	out := make(map[string]string, len(fp.cache))
	for loc, key := range fp.cache {
		out[loc] = key
	}
	return out
}

// seed inserts a precomputed key, keeping first-writer-wins semantics.
func (fp *Fingerprinter) seed(location, key string) {
	fp.mu.Lock()
	if _, ok := fp.cache[location]; !ok {
		fp.cache[location] = key
	}
	fp.mu.Unlock()
}

// contentKey hashes the leading 1 MiB of the file and combines it with the
// coarse signals (rounded duration, bitrate, file size) in a second hash
// pass, so files that share a prefix but differ in length or encoding still
// diverge.
func contentKey(t Track) (string, error) {
	if t.Location == "" {
		return "", fmt.Errorf("track %s has no location", t.ID)
	}

	f, err := os.Open(t.Location)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat: %w", err)
	}

	h := sha1.New()
	if _, err := io.Copy(h, io.LimitReader(f, fingerprintPrefixBytes)); err != nil {
		return "", fmt.Errorf("read prefix: %w", err)
	}
	prefixHash := hex.EncodeToString(h.Sum(nil))

	combined := sha1.Sum([]byte(fmt.Sprintf("%d|%d|%d|%s",
		int(math.Round(t.Duration)), t.Bitrate, info.Size(), prefixHash)))
	return hex.EncodeToString(combined[:]), nil
}

// metadataFallbackKey builds a deterministic key from tag data alone. It is
// weaker than a content key but guarantees every track groups somewhere.
func metadataFallbackKey(t Track) string {
	var size int64
	if t.Size != nil {
		size = *t.Size
	}
	sum := sha1.Sum([]byte(fmt.Sprintf("meta|%s|%s|%d|%d",
		normalizeFragment(t.Artist), normalizeFragment(t.Name),
		int(math.Round(t.Duration)), size)))
	return "meta-" + hex.EncodeToString(sum[:])
}
