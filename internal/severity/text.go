package severity

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const fictionPenalty = 0.25

type weightedTerm struct {
	term   string
	weight float64
}

var (
	keywordsByWeight = sortedTerms(keywordWeights)
	realByWeight     = sortedTerms(realContentWeights)
)

// sortedTerms orders terms by descending weight, then alphabetically so
// iteration is deterministic.
func sortedTerms(weights map[string]float64) []weightedTerm {
	terms := make([]weightedTerm, 0, len(weights))
	for term, weight := range weights {
		terms = append(terms, weightedTerm{term: term, weight: weight})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].weight != terms[j].weight {
			return terms[i].weight > terms[j].weight
		}
		return terms[i].term < terms[j].term
	})
	return terms
}

// ScoreText rates text in [0,1] from weighted graphic-content terms. Each
// matching term adds its weight once, saturating at 1.0. Fictional or staged
// content is penalised and claims of real footage add a bonus. Empty text
// scores 0.
func ScoreText(text string) float64 {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	lower := strings.ToLower(text)

	total := 0.0
	for _, kw := range keywordsByWeight {
		if !containsTerm(lower, kw.term) || isFalsePositive(lower, kw.term) {
			continue
		}
		total += kw.weight
		if total >= 1 {
			total = 1
			break
		}
	}

	for _, indicator := range fictionIndicators {
		if containsTerm(lower, indicator) {
			total *= fictionPenalty
			break
		}
	}

	for _, phrase := range realByWeight {
		if containsTerm(lower, phrase.term) {
			total = min(1, total+phrase.weight)
			break
		}
	}

	return clampUnit(total)
}

func isFalsePositive(lower, keyword string) bool {
	for _, excl := range falsePositiveExclusions[keyword] {
		if strings.Contains(lower, excl) {
			return true
		}
	}
	return false
}

// containsTerm reports whether term occurs in text starting at a word
// boundary. Any suffix may follow, so "murder" matches "murdered" while
// "killed" does not match "skilled".
func containsTerm(text, term string) bool {
	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], term)
		if idx < 0 {
			return false
		}
		start := offset + idx
		if boundaryBefore(text, start) {
			return true
		}
		offset = start + 1
	}
	return false
}

func boundaryBefore(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func clampUnit(v float64) float64 {
	switch {
	case v != v:
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
