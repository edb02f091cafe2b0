package matching

import (
	"github.com/Ramsey-B/clover/pkg/normalizers"
)

// Scorer computes bounded [0,1] similarity between two raw strings.
// Token overlap tolerates word reordering and institutional boilerplate;
// character similarity tolerates typos inside a token. The score is the
// 50/50 average of both, which is what the 0.85 threshold is calibrated to.
type Scorer struct {
	stopWords normalizers.StopWordSet
}

// NewScorer creates a new Scorer using the default institutional stop words
func NewScorer() *Scorer {
	return &Scorer{stopWords: normalizers.DefaultStopWords}
}

// NewScorerWithStopWords creates a Scorer with a custom stop word set
func NewScorerWithStopWords(stopWords normalizers.StopWordSet) *Scorer {
	return &Scorer{stopWords: stopWords}
}

// Similarity scores two raw strings. Total over all inputs; an empty string
// scores 0 against any non-empty counterpart.
func (s *Scorer) Similarity(a, b string) float64 {
	dice := s.TokenDice(a, b)

	na := normalizers.Normalize(a)
	nb := normalizers.Normalize(b)
	charSim := s.Levenshtein(na, nb)

	return (dice + charSim) / 2
}

// TokenDice computes the Dice coefficient over the stop-word-filtered token
// sets of both strings: 2*|A∩B| / (|A|+|B|). Zero when either set is empty.
func (s *Scorer) TokenDice(a, b string) float64 {
	ta := normalizers.TokenSet(a, s.stopWords)
	tb := normalizers.TokenSet(b, s.stopWords)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	common := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			common++
		}
	}
	return 2.0 * float64(common) / float64(len(ta)+len(tb))
}

// Levenshtein returns a character similarity in [0,1] between two already
// normalized strings: 1 - distance/max(len). Zero when both are empty.
func (s *Scorer) Levenshtein(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 0.0
	}
	distance := s.LevenshteinDistance(ra, rb)
	return 1.0 - float64(distance)/float64(maxLen)
}

// LevenshteinDistance calculates the classic edit distance (insert, delete,
// substitute, each cost 1) between two rune slices
func (s *Scorer) LevenshteinDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two rows of dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}
