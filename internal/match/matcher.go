package match

import (
	"github.com/eparkir/setoran/internal/logging"
)

// Threshold is the minimum similarity score for a match to be accepted.
// Weaker scores are treated as no match at all.
const Threshold = 0.4

// score rates the similarity of two normalized strings in [0, 1].
func score(a, b string) float64 {
	if a == b {
		return 1.0
	}

	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 0
	}

	return 1.0 - float64(levenshtein(a, b))/float64(longest)
}

// FindClosest returns the candidate most similar to the raw detected street
// name, if its score reaches the threshold. Candidates are scanned linearly
// (the canonical list is tens of names); the strictly highest score wins and
// ties keep the first candidate seen.
func FindClosest(rawDetected string, candidates []string) (string, bool) {
	norm := Normalize(rawDetected)
	if norm == "" {
		return "", false
	}

	var best string
	highest := 0.0

	for _, candidate := range candidates {
		s := score(norm, Normalize(candidate))
		if s > highest {
			highest = s
			best = candidate
		}
	}

	logging.Debug("Fuzzy street match", logging.Fields{
		"raw":        rawDetected,
		"normalized": norm,
		"best":       best,
		"score":      highest,
	})

	if highest >= Threshold && best != "" {
		return best, true
	}
	return "", false
}
