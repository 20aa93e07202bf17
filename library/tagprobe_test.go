package library

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
)

func writeTaggedMP3(t *testing.T, dir, name, title, artist, album string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte{}, 0o644); err != nil {
		t.Fatal(err)
	}
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("open tag: %v", err)
	}
	tag.SetTitle(title)
	tag.SetArtist(artist)
	tag.SetAlbum(album)
	if err := tag.Save(); err != nil {
		t.Fatalf("save tag: %v", err)
	}
	if err := tag.Close(); err != nil {
		t.Fatalf("close tag: %v", err)
	}
	return path
}

func TestProbeTagsMP3(t *testing.T) {
	path := writeTaggedMP3(t, t.TempDir(), "tagged.mp3", "Sandstorm", "Darude", "Before the Storm")

	info, err := ProbeTags(path)
	if err != nil {
		t.Fatalf("ProbeTags: %v", err)
	}
	if info.Title != "Sandstorm" || info.Artist != "Darude" || info.Album != "Before the Storm" {
		t.Errorf("tags = %+v", info)
	}
}

func TestVerifyCandidate(t *testing.T) {
	dir := t.TempDir()
	path := writeTaggedMP3(t, dir, "candidate.mp3", "Sandstorm", "Darude", "")

	tests := []struct {
		name  string
		track Track
		want  bool
	}{
		{"matching tags", Track{Name: "Sandstorm", Artist: "Darude"}, true},
		{"case difference tolerated", Track{Name: "SANDSTORM", Artist: "darude"}, true},
		{"wrong title", Track{Name: "Children", Artist: "Darude"}, false},
		{"wrong artist", Track{Name: "Sandstorm", Artist: "Robert Miles"}, false},
		{"nothing to compare", Track{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := VerifyCandidate(tt.track, path)
			if err != nil {
				t.Fatalf("VerifyCandidate: %v", err)
			}
			if ok != tt.want {
				t.Errorf("VerifyCandidate = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestStreamDuration(t *testing.T) {
	tests := []struct {
		name    string
		samples int64
		rate    int
		want    float64
	}{
		{"cd rate", 44100 * 225, 44100, 225},
		{"hi-res", 96000 * 300, 96000, 300},
		{"zero samples", 0, 44100, 0},
		{"zero rate", 44100, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := streamDuration(tt.samples, tt.rate); got != tt.want {
				t.Errorf("streamDuration(%d, %d) = %f, want %f", tt.samples, tt.rate, got, tt.want)
			}
		})
	}
}

func TestEstimateBitrate(t *testing.T) {
	// 30 MB over 240 seconds is 1000 kbps, a typical FLAC.
	if got := estimateBitrate(30_000_000, 240); got != 1000 {
		t.Errorf("estimateBitrate = %d, want 1000", got)
	}
	if got := estimateBitrate(0, 240); got != 0 {
		t.Errorf("estimateBitrate with no size = %d, want 0", got)
	}
	if got := estimateBitrate(30_000_000, 0); got != 0 {
		t.Errorf("estimateBitrate with no duration = %d, want 0", got)
	}
}

func TestVerifyCandidateUnreadableFile(t *testing.T) {
	track := Track{Name: "Sandstorm", Artist: "Darude"}
	if _, err := VerifyCandidate(track, filepath.Join(t.TempDir(), "gone.mp3")); err == nil {
		t.Fatal("expected an error for an unreadable candidate")
	}
}
