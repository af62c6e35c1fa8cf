package knowledge

import (
	"strings"
	"unicode"
)

// Scoring weights and the acceptance threshold for retrieval.
//
// Each question token earns at most one score: an exact keyword match wins
// over a partial one, and the topic-word score applies only to tokens that
// matched no keyword. The sum is normalized by the token count; a candidate
// is returned only when its normalized score strictly exceeds
// matchThreshold.
const (
	exactKeywordScore   = 2.0
	partialKeywordScore = 1.0
	topicWordScore      = 1.5
	matchThreshold      = 0.3
)

// minTokenLen drops stop-word-sized tokens before scoring.
const minTokenLen = 3

// Matcher scores approved records against incoming questions.
//
// Scoring is purely lexical: exact and partial keyword matches plus topic
// word matches, O(records × tokens × keywords). Matching performs no store
// mutation; the caller records usage separately so read-only evaluation
// stays side-effect free.
type Matcher struct{}

// NewMatcher creates the retrieval scorer.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// BestMatch returns the highest-scoring candidate above the acceptance
// threshold, or nil when nothing qualifies. Ties keep the first candidate
// encountered, so callers wanting deterministic results must pass
// candidates in a stable order.
func (m *Matcher) BestMatch(question string, candidates []*Record) (*Record, float64) {
	tokens := Tokenize(question)
	if len(tokens) == 0 {
		return nil, 0
	}

	var best *Record
	var bestScore float64

	for _, rec := range candidates {
		score := m.score(tokens, rec)
		if score > bestScore {
			best = rec
			bestScore = score
		}
	}

	if bestScore <= matchThreshold {
		return nil, 0
	}
	return best, bestScore
}

// score computes the normalized relevance of one record.
func (m *Matcher) score(tokens []string, rec *Record) float64 {
	keywords := make([]string, len(rec.Keywords))
	for i, kw := range rec.Keywords {
		keywords[i] = strings.ToLower(kw)
	}
	topicWords := Tokenize(rec.Topic)

	var score float64
	for _, tok := range tokens {
		if s := keywordScore(tok, keywords); s > 0 {
			score += s
			continue
		}
		if matchesAnyWord(tok, topicWords) {
			score += topicWordScore
		}
	}

	return score / float64(max(len(tokens), 1))
}

// keywordScore returns the score one token earns against the keyword list.
// An exact match wins; otherwise the first partial match counts once.
func keywordScore(token string, keywords []string) float64 {
	for _, kw := range keywords {
		if token == kw {
			return exactKeywordScore
		}
	}
	for _, kw := range keywords {
		if strings.Contains(kw, token) || strings.Contains(token, kw) {
			return partialKeywordScore
		}
	}
	return 0
}

// matchesAnyWord reports whether the token partially matches any word.
func matchesAnyWord(token string, words []string) bool {
	for _, w := range words {
		if strings.Contains(w, token) || strings.Contains(token, w) {
			return true
		}
	}
	return false
}

// Tokenize splits text into lowercase word tokens longer than two
// characters. Shared by retrieval scoring and topic-word extraction.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= minTokenLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
