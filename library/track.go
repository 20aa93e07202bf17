package library

import "time"

// Track is a single catalog entry. Tracks are immutable value objects: the
// engine only reads them and returns derived or merged copies, never mutates
// a caller's track in place. Optional numeric attributes are pointers so
// "absent" is distinguishable from zero.
type Track struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Artist   string   `json:"artist"`
	Album    string   `json:"album,omitempty"`
	Genre    string   `json:"genre,omitempty"`
	Key      string   `json:"key,omitempty"`
	BPM      *float64 `json:"bpm,omitempty"`
	Location string   `json:"location"`
	Size     *int64   `json:"size,omitempty"`

	// Bitrate is in kbps, Duration in seconds.
	Bitrate  int     `json:"bitrate,omitempty"`
	Duration float64 `json:"duration,omitempty"`

	DateAdded    *time.Time `json:"date_added,omitempty"`
	DateModified *time.Time `json:"date_modified,omitempty"`

	PlayCount int `json:"play_count,omitempty"`
	Rating    int `json:"rating,omitempty"` // 0-5

	CuePoints []CuePoint   `json:"cue_points,omitempty"`
	Loops     []LoopRegion `json:"loops,omitempty"`
	Beatgrid  *Beatgrid    `json:"beatgrid,omitempty"`
	Playlists []string     `json:"playlists,omitempty"`
}

// CuePoint marks a position of interest inside a track.
type CuePoint struct {
	Type  string  `json:"type"`
	Start float64 `json:"start"` // seconds
	Label string  `json:"label,omitempty"`
}

// LoopRegion is a saved loop between two positions.
type LoopRegion struct {
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
	Label string  `json:"label,omitempty"`
}

// Beatgrid anchors a constant-tempo grid to the audio.
type Beatgrid struct {
	FirstBeat float64 `json:"first_beat"` // seconds
	BPM       float64 `json:"bpm"`
}

// DuplicateMatchType says which pass produced a DuplicateSet.
type DuplicateMatchType string

const (
	MatchFingerprint DuplicateMatchType = "fingerprint"
	MatchMetadata    DuplicateMatchType = "metadata"
)

// DuplicateSet is a group of at least two tracks judged to reference the
// same underlying audio. Sets are never mutated after creation.
// Confidence is a 0-100 integer; this is a different scale than
// RelocationCandidate.Confidence on purpose.
type DuplicateSet struct {
	ID         string             `json:"id"`
	Tracks     []Track            `json:"tracks"`
	MatchType  DuplicateMatchType `json:"match_type"`
	Confidence int                `json:"confidence"`
}

// CandidateMatchType says which signal produced a RelocationCandidate.
type CandidateMatchType string

const (
	CandidateExact    CandidateMatchType = "exact"
	CandidateFuzzy    CandidateMatchType = "fuzzy"
	CandidateMetadata CandidateMatchType = "metadata"
	CandidateSize     CandidateMatchType = "size"
)

// RelocationCandidate is a scored filesystem path proposed as the new
// location for a missing track. Score is a 0-100 integer; Confidence is a
// 0.0-1.0 float. The two scales are deliberately distinct.
type RelocationCandidate struct {
	Path       string             `json:"path"`
	Score      int                `json:"score"`
	MatchType  CandidateMatchType `json:"match_type"`
	Confidence float64            `json:"confidence"`
}

// DuplicateOptions controls FindDuplicates.
type DuplicateOptions struct {
	// UseFingerprint enables the content-fingerprint pass. Fingerprint sets
	// claim their members; the metadata pass only sees unclaimed tracks.
	UseFingerprint bool `json:"use_fingerprint"`

	// UseMetadata enables grouping the remaining tracks by normalized
	// metadata key.
	UseMetadata bool `json:"use_metadata"`

	// MetadataFields are the fields the metadata key is built from, in
	// order. Defaults to artist, title, duration. Unknown names are ignored.
	MetadataFields []string `json:"metadata_fields"`

	// MergeSimilar runs an extra fuzzy pass that merges metadata sets whose
	// title/artist pairs score as the same track. Off by default because it
	// loosens the exact-key grouping semantics.
	MergeSimilar bool `json:"merge_similar"`

	// WorkerCount controls concurrent fingerprint reads. If 0 a default is
	// chosen.
	WorkerCount int `json:"worker_count"`
}

// DefaultDuplicateOptions returns the options used when the host has no
// opinion: both passes on, artist/title/duration keying.
func DefaultDuplicateOptions() DuplicateOptions {
	return DuplicateOptions{
		UseFingerprint: true,
		UseMetadata:    true,
		MetadataFields: []string{"artist", "title", "duration"},
	}
}

// RelocationOptions controls FindCandidates.
type RelocationOptions struct {
	// SearchPaths are the roots to enumerate. At least one is required.
	SearchPaths []string `json:"search_paths"`

	// SearchDepth bounds recursion below each root when
	// IncludeSubdirectories is set. Defaults to 3.
	SearchDepth int `json:"search_depth"`

	// MatchThreshold gates the fuzzy tier only (0..1). Defaults to 0.7.
	MatchThreshold float64 `json:"match_threshold"`

	IncludeSubdirectories bool `json:"include_subdirectories"`

	// FileExtensions filters enumerated files, case-insensitive, without
	// leading dot. Defaults to the usual audio set.
	FileExtensions []string `json:"file_extensions"`
}

// DefaultAudioExtensions is the default extension filter for relocation
// searches and catalog building.
var DefaultAudioExtensions = []string{"mp3", "m4a", "wav", "flac", "aiff", "aif", "ogg"}

// withDefaults fills zero values with the documented defaults.
func (o RelocationOptions) withDefaults() RelocationOptions {
	if o.SearchDepth <= 0 {
		o.SearchDepth = 3
	}
	if o.MatchThreshold <= 0 {
		o.MatchThreshold = 0.7
	}
	if len(o.FileExtensions) == 0 {
		o.FileExtensions = DefaultAudioExtensions
	}
	return o
}

func (o DuplicateOptions) withDefaults() DuplicateOptions {
	if len(o.MetadataFields) == 0 {
		o.MetadataFields = []string{"artist", "title", "duration"}
	}
	return o
}
