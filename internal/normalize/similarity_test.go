package normalize

import "testing"

func TestSimilarityIdentical(t *testing.T) {
	if got := Similarity("juan perez", "juan perez"); got != 1.0 {
		t.Errorf("Similarity(identical) = %v, want 1.0", got)
	}
}

func TestSimilarityBothEmpty(t *testing.T) {
	if got := Similarity("", ""); got != 1.0 {
		t.Errorf("Similarity(\"\", \"\") = %v, want 1.0", got)
	}
}

func TestSimilarityOneEmpty(t *testing.T) {
	if got := Similarity("juan", ""); got != 0.0 {
		t.Errorf("Similarity(\"juan\", \"\") = %v, want 0.0", got)
	}
}

// Names differing only in diacritics are identical after normalization, so
// the pair must score exactly 1.0 through the Normalizer+Matcher pipeline.
func TestSimilarityAfterNormalization(t *testing.T) {
	a := Name("Jose Raul Mulino")
	b := Name("José Raúl Mulino")
	if got := Similarity(a, b); got != 1.0 {
		t.Errorf("Similarity(%q, %q) = %v, want 1.0", a, b, got)
	}
}

func TestSimilarityDistinctNamesBelowThreshold(t *testing.T) {
	got := Similarity(Name("Juan Perez"), Name("Pedro Gomez"))
	if got >= 0.85 {
		t.Errorf("Similarity(juan perez, pedro gomez) = %v, want < 0.85", got)
	}
}

func TestSimilarityMultibyteRunes(t *testing.T) {
	// Length is counted in runes, not bytes: "é" vs "x" is one
	// substitution over length one, not over the two UTF-8 bytes.
	if got := Similarity("é", "x"); got != 0.0 {
		t.Errorf("Similarity(\"é\", \"x\") = %v, want 0.0", got)
	}
	if got := Similarity("maría", "maría"); got != 1.0 {
		t.Errorf("Similarity(identical accented) = %v, want 1.0", got)
	}
}

func TestSimilarityCloseVariants(t *testing.T) {
	// One-character typo on a 10-char name: distance 1 → 0.9.
	got := Similarity("juan perez", "juan peres")
	if got < 0.85 {
		t.Errorf("Similarity(typo variant) = %v, want >= 0.85", got)
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"ana", "ana", 0},
	}

	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
