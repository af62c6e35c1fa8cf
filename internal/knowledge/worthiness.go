package knowledge

import (
	"regexp"
	"strings"
)

// Worthiness thresholds. An exchange failing any gate is never extracted.
const (
	minQuestionLen    = 15
	minResponseLen    = 100
	minCombinedWords  = 50
	repeatedRunLength = 5
)

// Rejection reasons reported to callers. Stable strings: the chat layer
// shows some of them to end users.
const (
	ReasonQuestionTooShort = "question too short"
	ReasonResponseTooShort = "response too short"
	ReasonTooBrief         = "exchange too brief"
	ReasonSpam             = "spam or test input"
	ReasonAnalysisRequest  = "analysis request, not generalizable"
	ReasonPersonalData     = "contains personal data"
	ReasonRateLimited      = "rate limit exceeded"
	ReasonExtractionFailed = "extraction failed"
	ReasonLowConfidence    = "confidence below threshold"
	ReasonDuplicate        = "duplicate of existing knowledge"
)

// Verdict is the outcome of the worthiness filter.
type Verdict struct {
	Worthy bool
	Reason string
}

// Patterns are compiled once; the filter itself is stateless and safe for
// concurrent use.
var (
	// Test/filler questions, in full. Covers English and Indonesian filler.
	spamPattern = regexp.MustCompile(`(?i)^(?:\s*(?:test|tes|testing|coba|halo|hai|hello|hi|ok|oke|asdf\w*|qwerty\w*)[\s!?.,]*)+$`)

	// Social handles. The leading boundary keeps email addresses out of
	// this rule so they fall through to the personal-data gate.
	handlePattern = regexp.MustCompile(`(?:^|[\s("'])@\w{2,}`)

	// "Analyze my account/video/score" phrasings, English and Indonesian.
	analysisPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\banal(?:yze|yse|ysis|isa|isis)\b.{0,30}\b(?:akun|account|video|profil|profile|konten|content|channel|score|skor)\b`),
		regexp.MustCompile(`(?i)\b(?:review|cek|check|nilai|rate)\s+(?:my\s+|punya\s+)?(?:akun|account|video|profil|profile|konten|content)\b`),
		regexp.MustCompile(`(?i)\b(?:skor|score|nilai)\s+(?:saya|aku|gue|ku|my)\b`),
	}

	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

	// Phone-shaped digit runs: at least ten digits allowing separators.
	phonePattern = regexp.MustCompile(`\+?\d(?:[\s().-]?\d){8,}`)
)

// WorthinessFilter gates exchanges before any extraction work happens.
//
// Evaluation is deterministic and side-effect free: the same exchange always
// yields the same verdict. Rules run in a fixed order and short-circuit on
// the first rejection.
type WorthinessFilter struct{}

// NewWorthinessFilter creates the exchange gate.
func NewWorthinessFilter() *WorthinessFilter {
	return &WorthinessFilter{}
}

// Evaluate decides whether an exchange contains generalizable knowledge
// worth extracting.
func (f *WorthinessFilter) Evaluate(exchange Exchange) Verdict {
	question := strings.TrimSpace(exchange.Question)
	response := strings.TrimSpace(exchange.Response)

	if len(question) < minQuestionLen {
		return Verdict{Reason: ReasonQuestionTooShort}
	}
	if len(response) < minResponseLen {
		return Verdict{Reason: ReasonResponseTooShort}
	}
	if len(strings.Fields(question))+len(strings.Fields(response)) < minCombinedWords {
		return Verdict{Reason: ReasonTooBrief}
	}
	if isSpam(question) {
		return Verdict{Reason: ReasonSpam}
	}
	if isAnalysisRequest(question) {
		return Verdict{Reason: ReasonAnalysisRequest}
	}
	if containsPersonalData(question) || containsPersonalData(response) {
		return Verdict{Reason: ReasonPersonalData}
	}

	return Verdict{Worthy: true}
}

// isSpam detects test strings, near-empty token sequences, and
// repeated-character runs.
func isSpam(question string) bool {
	if spamPattern.MatchString(question) {
		return true
	}
	if hasRepeatedRun(question, repeatedRunLength) {
		return true
	}

	// Questions built entirely from one- and two-character tokens carry
	// no extractable content.
	tokens := strings.Fields(question)
	short := true
	for _, tok := range tokens {
		if len(tok) > 2 {
			short = false
			break
		}
	}
	return short
}

// isAnalysisRequest detects requests to analyze a specific account, video,
// or score. Those are inherently tied to one user and never generalizable.
func isAnalysisRequest(question string) bool {
	if handlePattern.MatchString(question) {
		return true
	}
	for _, p := range analysisPatterns {
		if p.MatchString(question) {
			return true
		}
	}
	return false
}

// containsPersonalData detects phone-number-shaped digit runs and email
// addresses.
func containsPersonalData(text string) bool {
	return emailPattern.MatchString(text) || phonePattern.MatchString(text)
}

// hasRepeatedRun reports whether s contains n or more identical consecutive
// runes. Go's regexp has no backreferences, so this is a manual scan.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}
