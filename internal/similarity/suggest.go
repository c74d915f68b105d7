package similarity

import (
	"cmp"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/klauern/skilltrigger/internal/logging"
)

// DefaultThreshold is the lowest score reported as a suggestion.
const DefaultThreshold = 0.75

// Suggestion is a known name close to the one asked for.
type Suggestion struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Suggester ranks known command names against a mistyped one.
type Suggester struct {
	// Threshold is the minimum score in (0, 1]. Zero uses DefaultThreshold.
	Threshold float64
	// Limit caps the number of suggestions. Zero means no cap.
	Limit int
}

// Score returns the larger of the Levenshtein and Jaro-Winkler
// similarities of the normalized names.
func Score(a, b string) float64 {
	a, b = normalize(a), normalize(b)
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return max(LevenshteinSimilarity(a, b), JaroWinkler(a, b))
}

// Suggest returns the candidates scoring at least the threshold against
// target, best first. Ties keep candidate order. An exact match is never
// suggested.
func (s Suggester) Suggest(target string, candidates []string) []Suggestion {
	threshold := s.Threshold
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}

	var out []Suggestion
	for _, c := range candidates {
		if c == target {
			continue
		}
		if score := Score(target, c); score >= threshold {
			out = append(out, Suggestion{Name: c, Score: score})
		}
	}
	slices.SortStableFunc(out, func(a, b Suggestion) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if s.Limit > 0 && len(out) > s.Limit {
		out = out[:s.Limit]
	}

	logging.Debug("command suggestions",
		slog.String("target", target),
		logging.Count(len(out)),
		slog.Float64("threshold", threshold),
	)
	return out
}

// normalize lowercases s and collapses separator runs (including the
// plugin namespace colon) to a single space.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	sep := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			sep = false
		case strings.ContainsRune("-_:. /", r):
			if !sep {
				b.WriteByte(' ')
				sep = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
