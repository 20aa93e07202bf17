package library

import "testing"

func TestMergeSimilarSets(t *testing.T) {
	featured := DuplicateSet{
		ID: "s1",
		Tracks: []Track{
			{ID: "a", Name: "Silence", Artist: "Delerium feat. Sarah McLachlan", Duration: 415},
			{ID: "b", Name: "Silence", Artist: "Delerium feat. Sarah McLachlan", Duration: 415},
		},
		MatchType:  MatchMetadata,
		Confidence: 95,
	}
	plain := DuplicateSet{
		ID: "s2",
		Tracks: []Track{
			{ID: "c", Name: "Silence", Artist: "Delerium", Duration: 415},
			{ID: "d", Name: "Silence", Artist: "Delerium", Duration: 416},
		},
		MatchType:  MatchMetadata,
		Confidence: 88,
	}

	merged := MergeSimilarSets([]DuplicateSet{featured, plain}, defaultMergeScoreThreshold)
	if len(merged) != 1 {
		t.Fatalf("expected the feat. variant to merge, got %d sets", len(merged))
	}
	if len(merged[0].Tracks) != 4 {
		t.Errorf("merged set has %d members, want 4", len(merged[0].Tracks))
	}
	if merged[0].Confidence != 88 {
		t.Errorf("merged confidence = %d, want the lower of the two (88)", merged[0].Confidence)
	}
}

func TestMergeSimilarSetsDurationGate(t *testing.T) {
	radioEdit := DuplicateSet{
		ID:         "s1",
		Tracks:     []Track{{ID: "a", Name: "Children", Artist: "Robert Miles", Duration: 225}, {ID: "b", Name: "Children", Artist: "Robert Miles", Duration: 225}},
		MatchType:  MatchMetadata,
		Confidence: 95,
	}
	fullLength := DuplicateSet{
		ID:         "s2",
		Tracks:     []Track{{ID: "c", Name: "Children", Artist: "Robert Miles", Duration: 417}, {ID: "d", Name: "Children", Artist: "Robert Miles", Duration: 417}},
		MatchType:  MatchMetadata,
		Confidence: 95,
	}

	merged := MergeSimilarSets([]DuplicateSet{radioEdit, fullLength}, defaultMergeScoreThreshold)
	if len(merged) != 2 {
		t.Errorf("radio edit and full length must stay separate, got %d sets", len(merged))
	}
}

func TestMergeSimilarSetsLeavesFingerprintSetsAlone(t *testing.T) {
	fpSet := DuplicateSet{
		ID:         "fp",
		Tracks:     []Track{{ID: "a", Name: "Same", Artist: "X"}, {ID: "b", Name: "Same", Artist: "X"}},
		MatchType:  MatchFingerprint,
		Confidence: 100,
	}
	metaSet := DuplicateSet{
		ID:         "meta",
		Tracks:     []Track{{ID: "c", Name: "Same", Artist: "X"}, {ID: "d", Name: "Same", Artist: "X"}},
		MatchType:  MatchMetadata,
		Confidence: 90,
	}

	merged := MergeSimilarSets([]DuplicateSet{fpSet, metaSet}, defaultMergeScoreThreshold)
	if len(merged) != 2 {
		t.Fatalf("fingerprint sets must never merge, got %d sets", len(merged))
	}
	for _, s := range merged {
		if s.ID == "fp" && len(s.Tracks) != 2 {
			t.Errorf("fingerprint set gained members: %d", len(s.Tracks))
		}
	}
}

func TestMergeSimilarSetsDedupesMembers(t *testing.T) {
	a := DuplicateSet{
		ID:         "s1",
		Tracks:     []Track{{ID: "x", Name: "Track", Artist: "DJ"}, {ID: "y", Name: "Track", Artist: "DJ"}},
		MatchType:  MatchMetadata,
		Confidence: 90,
	}
	b := DuplicateSet{
		ID:         "s2",
		Tracks:     []Track{{ID: "y", Name: "Track", Artist: "DJ"}, {ID: "z", Name: "Track", Artist: "DJ"}},
		MatchType:  MatchMetadata,
		Confidence: 90,
	}

	merged := MergeSimilarSets([]DuplicateSet{a, b}, defaultMergeScoreThreshold)
	if len(merged) != 1 {
		t.Fatalf("expected one merged set, got %d", len(merged))
	}
	if len(merged[0].Tracks) != 3 {
		t.Errorf("members = %d, want y deduplicated down to 3", len(merged[0].Tracks))
	}
}

func TestScoreTrackPair(t *testing.T) {
	tests := []struct {
		name                           string
		titleA, artistA, titleB, artistB string
		atLeast, below                 int
	}{
		{
			name:   "identical",
			titleA: "Sandstorm", artistA: "Darude",
			titleB: "Sandstorm", artistB: "Darude",
			atLeast: 150,
		},
		{
			name:   "remix suffix",
			titleA: "One More Time", artistA: "Daft Punk",
			titleB: "One More Time (Radio Edit)", artistB: "Daft Punk",
			atLeast: 100,
		},
		{
			name:   "ampersand variant",
			titleA: "Insomnia", artistA: "Faithless & Dido",
			titleB: "Insomnia", artistB: "Faithless and Dido",
			atLeast: 150,
		},
		{
			name:   "unrelated",
			titleA: "Sandstorm", artistA: "Darude",
			titleB: "Children", artistB: "Robert Miles",
			below: 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoreTrackPair(tt.titleA, tt.artistA, tt.titleB, tt.artistB)
			if tt.atLeast > 0 && got < tt.atLeast {
				t.Errorf("score = %d, want >= %d", got, tt.atLeast)
			}
			if tt.below > 0 && got >= tt.below {
				t.Errorf("score = %d, want < %d", got, tt.below)
			}
		})
	}
}
