package library

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTempAudio(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestFingerprintIdenticalContent(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte("audio"), 2048)
	pathA := writeTempAudio(t, dir, "a.mp3", content)
	pathB := writeTempAudio(t, dir, "b.mp3", content)

	fp := NewFingerprinter()
	trackA := Track{ID: "1", Location: pathA, Duration: 240, Bitrate: 320}
	trackB := Track{ID: "2", Location: pathB, Duration: 240, Bitrate: 320}

	keyA, err := fp.Fingerprint(trackA)
	if err != nil {
		t.Fatalf("fingerprint a: %v", err)
	}
	keyB, err := fp.Fingerprint(trackB)
	if err != nil {
		t.Fatalf("fingerprint b: %v", err)
	}
	if keyA != keyB {
		t.Errorf("identical content/duration/bitrate should fingerprint the same: %s vs %s", keyA, keyB)
	}
}

func TestFingerprintDivergesOnSignals(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte("audio"), 2048)
	path := writeTempAudio(t, dir, "a.mp3", content)

	fp := NewFingerprinter()
	base := Track{ID: "1", Location: path, Duration: 240, Bitrate: 320}
	baseKey, err := fp.Fingerprint(base)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}

	// Same file, different coarse signals: must not share a key. Separate
	// fingerprinter instances, otherwise the location cache short-circuits.
	differentDuration := base
	differentDuration.Duration = 300
	key2, err := NewFingerprinter().Fingerprint(differentDuration)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if key2 == baseKey {
		t.Error("different duration should change the fingerprint")
	}

	differentBitrate := base
	differentBitrate.Bitrate = 128
	key3, err := NewFingerprinter().Fingerprint(differentBitrate)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if key3 == baseKey {
		t.Error("different bitrate should change the fingerprint")
	}
}

func TestFingerprintCacheHit(t *testing.T) {
	dir := t.TempDir()
	path := writeTempAudio(t, dir, "a.mp3", []byte("original content"))

	fp := NewFingerprinter()
	track := Track{ID: "1", Location: path, Duration: 200, Bitrate: 192}
	first, err := fp.Fingerprint(track)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}

	// Rewrite the file; the cache must still answer with the first key
	// (invalidation only happens on process restart).
	if err := os.WriteFile(path, []byte("changed content entirely"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	second, err := fp.Fingerprint(track)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if first != second {
		t.Errorf("cached fingerprint should be stable: %s vs %s", first, second)
	}
}

func TestFingerprintFallbackOnMissingFile(t *testing.T) {
	fp := NewFingerprinter()
	track := Track{
		ID:       "1",
		Name:     "Track",
		Artist:   "DJ",
		Location: filepath.Join(t.TempDir(), "nope.mp3"),
		Duration: 240,
		Size:     int64Ptr(8_000_000),
	}

	key, err := fp.Fingerprint(track)
	if err == nil {
		t.Fatal("expected a FingerprintError for a missing file")
	}
	var fpErr *FingerprintError
	if !errors.As(err, &fpErr) {
		t.Fatalf("expected *FingerprintError, got %T", err)
	}
	if key == "" {
		t.Fatal("fallback must still yield a key")
	}

	// Deterministic: same metadata, same fallback key.
	again, _ := fp.Fingerprint(track)
	if again != key {
		t.Errorf("fallback key not deterministic: %s vs %s", key, again)
	}
}

func TestFingerprintFallbackNotCached(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "late.mp3")

	fp := NewFingerprinter()
	track := Track{ID: "1", Name: "Late", Artist: "DJ", Location: path, Duration: 100}

	fallback, err := fp.Fingerprint(track)
	if err == nil {
		t.Fatal("expected fallback for missing file")
	}

	// File appears later in the run: a retry must produce a content key.
	writeTempAudio(t, dir, "late.mp3", []byte("now it exists"))
	content, err := fp.Fingerprint(track)
	if err != nil {
		t.Fatalf("fingerprint after file appeared: %v", err)
	}
	if content == fallback {
		t.Error("fallback key should not have been cached")
	}
}

func TestFingerprintConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	path := writeTempAudio(t, dir, "a.mp3", bytes.Repeat([]byte("x"), 4096))
	track := Track{ID: "1", Location: path, Duration: 180, Bitrate: 256}

	fp := NewFingerprinter()
	keys := make(chan string, 8)
	for i := 0; i < 8; i++ {
		go func() {
			key, _ := fp.Fingerprint(track)
			keys <- key
		}()
	}

	first := <-keys
	for i := 1; i < 8; i++ {
		if k := <-keys; k != first {
			t.Errorf("concurrent fingerprints disagree: %s vs %s", first, k)
		}
	}
}
