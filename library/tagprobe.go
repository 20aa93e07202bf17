package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	dhtag "github.com/dhowden/tag"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
)

// TagInfo is the tag data the engine cares about when verifying a file
// against a catalog entry. Duration and Bitrate are filled only for
// formats whose headers expose them (FLAC stream info); they stay zero
// for mp3 and the generic formats, whose readers don't decode frames.
type TagInfo struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	Duration float64 `json:"duration,omitempty"`
	Bitrate  int     `json:"bitrate,omitempty"` // kbps, derived from file size
}

// ProbeTags reads title/artist/album tags from an audio file. MP3 goes
// through the ID3v2 parser and FLAC through its vorbis comment block;
// everything else (m4a, ogg, wav, aiff) uses the generic reader.
func ProbeTags(path string) (*TagInfo, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return probeID3(path)
	case ".flac":
		return probeFLAC(path)
	default:
		return probeGeneric(path)
	}
}

func probeID3(path string) (*TagInfo, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("id3v2 open: %w", err)
	}
	defer tag.Close()

	return &TagInfo{
		Title:  tag.Title(),
		Artist: tag.Artist(),
		Album:  tag.Album(),
	}, nil
}

func probeFLAC(path string) (*TagInfo, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("flac parse: %w", err)
	}

	info := &TagInfo{}
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment {
			continue
		}
		cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
		if err != nil {
			return nil, fmt.Errorf("vorbis comment: %w", err)
		}
		if vals, err := cmt.Get(flacvorbis.FIELD_TITLE); err == nil && len(vals) > 0 {
			info.Title = vals[0]
		}
		if vals, err := cmt.Get(flacvorbis.FIELD_ARTIST); err == nil && len(vals) > 0 {
			info.Artist = vals[0]
		}
		if vals, err := cmt.Get(flacvorbis.FIELD_ALBUM); err == nil && len(vals) > 0 {
			info.Album = vals[0]
		}
		break
	}

	if si, err := f.GetStreamInfo(); err == nil {
		info.Duration = streamDuration(si.SampleCount, si.SampleRate)
		if st, err := os.Stat(path); err == nil {
			info.Bitrate = estimateBitrate(st.Size(), info.Duration)
		}
	}
	return info, nil
}

// streamDuration converts a stream info block's sample count into seconds.
func streamDuration(sampleCount int64, sampleRate int) float64 {
	if sampleCount <= 0 || sampleRate <= 0 {
		return 0
	}
	return float64(sampleCount) / float64(sampleRate)
}

// estimateBitrate derives an average kbps from the file size. For FLAC this
// is the effective (compressed) bitrate, which is what quality scoring
// compares anyway.
func estimateBitrate(sizeBytes int64, durationSec float64) int {
	if sizeBytes <= 0 || durationSec <= 0 {
		return 0
	}
	return int(float64(sizeBytes) * 8 / durationSec / 1000)
}

func probeGeneric(path string) (*TagInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	m, err := dhtag.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}
	return &TagInfo{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
	}, nil
}

// verifySimilarityFloor is the per-field similarity a candidate's tags must
// clear against the catalog entry to count as agreeing.
const verifySimilarityFloor = 0.8

// VerifyCandidate reads the candidate file's tags and reports whether they
// agree with the missing track's metadata, for hosts that want a second
// opinion before applying a relocation. Fields the track does not carry are
// not checked; a track with no artist and no name cannot be verified and
// reports false without an error.
func VerifyCandidate(track Track, candidatePath string) (bool, error) {
	info, err := ProbeTags(candidatePath)
	if err != nil {
		return false, err
	}

	checked := false
	if track.Name != "" && info.Title != "" {
		checked = true
		if Similarity(track.Name, info.Title) < verifySimilarityFloor {
			return false, nil
		}
	}
	if track.Artist != "" && info.Artist != "" {
		checked = true
		if Similarity(track.Artist, info.Artist) < verifySimilarityFloor {
			return false, nil
		}
	}
	return checked, nil
}
