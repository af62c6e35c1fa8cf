package knowledge

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors for knowledge operations.
var (
	ErrRecordNotFound    = errors.New("knowledge record not found")
	ErrInvalidRecord     = errors.New("invalid knowledge record")
	ErrEmptyTopic        = errors.New("record topic cannot be empty")
	ErrEmptyNarrative    = errors.New("record narrative cannot be empty")
	ErrEmptyKeywords     = errors.New("record keywords cannot be empty")
	ErrInvalidConfidence = errors.New("confidence must be between 0.0 and 1.0")
	ErrInvalidDomain     = errors.New("unknown coaching domain")
	ErrInvalidTransition = errors.New("record status is terminal")
)

// maxSourceQuestionLen bounds the retained copy of the original question.
// Kept for moderation audit only, never used for matching.
const maxSourceQuestionLen = 500

// Domain identifies a coaching domain.
type Domain string

const (
	// DomainTikTok covers short-video content coaching.
	DomainTikTok Domain = "tiktok"

	// DomainPresentation covers public-speaking coaching.
	DomainPresentation Domain = "presentation"

	// DomainGeneral is a category for records applicable to every domain.
	// It is valid as a record category but not as an exchange mode.
	DomainGeneral Domain = "general"
)

// ParseDomain converts a string into a Domain for use as an exchange mode.
func ParseDomain(s string) (Domain, error) {
	switch Domain(strings.ToLower(strings.TrimSpace(s))) {
	case DomainTikTok:
		return DomainTikTok, nil
	case DomainPresentation:
		return DomainPresentation, nil
	default:
		return "", ErrInvalidDomain
	}
}

// SubcategoryGeneral is the fallback subcategory for every domain.
const SubcategoryGeneral = "general"

// subcategories is the closed subcategory enum per domain.
var subcategories = map[Domain][]string{
	DomainTikTok:       {"algorithm", "content", "engagement", "growth", "monetization", SubcategoryGeneral},
	DomainPresentation: {"delivery", "structure", "audience", "confidence", SubcategoryGeneral},
}

// SubcategoriesFor returns the closed subcategory enum for a domain.
func SubcategoriesFor(domain Domain) []string {
	subs := subcategories[domain]
	out := make([]string, len(subs))
	copy(out, subs)
	return out
}

// NormalizeSubcategory maps an extractor-provided subcategory onto the
// domain's closed enum, falling back to "general" for unrecognized values.
func NormalizeSubcategory(domain Domain, sub string) string {
	sub = strings.ToLower(strings.TrimSpace(sub))
	for _, s := range subcategories[domain] {
		if s == sub {
			return s
		}
	}
	return SubcategoryGeneral
}

// Status is the moderation lifecycle state of a record.
type Status string

const (
	// StatusPending is the initial state of every persisted record.
	StatusPending Status = "pending"

	// StatusApproved is terminal; only approved records are retrievable.
	StatusApproved Status = "approved"

	// StatusRejected is terminal.
	StatusRejected Status = "rejected"
)

// Exchange is one question/response pair evaluated for knowledge extraction.
// Exchanges are ephemeral: they are consumed by the worthiness filter and
// the extractor and never persisted as-is.
type Exchange struct {
	Question  string `json:"question"`
	Response  string `json:"response"`
	Mode      Domain `json:"mode"`
	SessionID string `json:"session_id,omitempty"`
}

// Candidate is the structured output of an extraction call, before
// admission checks (confidence threshold, duplicate detection) run.
type Candidate struct {
	Topic       string   `json:"topic"`
	Narrative   string   `json:"narrative"`
	Keywords    []string `json:"keywords"`
	Subcategory string   `json:"subcategory"`
	Confidence  float64  `json:"confidenceScore"`
}

// Extractor turns a worthy exchange into a structured candidate record.
//
// Implementations wrap an external summarization call; any malformed or
// incomplete response must surface as an error, never as a partially
// populated Candidate.
type Extractor interface {
	Extract(ctx context.Context, exchange Exchange) (*Candidate, error)
}

// Limiter bounds how many extractions a session may trigger.
type Limiter interface {
	// Acquire atomically checks the session's budget and consumes one
	// slot. Returns false when the session is over its cap.
	Acquire(sessionID string) bool
}

// Record is a curated piece of knowledge owned by the store.
type Record struct {
	// ID is the unique record identifier (UUID), immutable after creation.
	ID string `json:"id"`

	// Topic is a short human-readable title.
	Topic string `json:"topic"`

	// Narrative is a 2-4 sentence generalized summary. Paraphrased by the
	// extractor, never a verbatim excerpt of the source exchange.
	Narrative string `json:"narrative"`

	// Keywords are the matching tokens. Order is preserved for display
	// but irrelevant for matching.
	Keywords []string `json:"keywords"`

	// Category is the coaching domain this record belongs to, or "general".
	Category Domain `json:"category"`

	// Subcategory is a member of the domain's closed enum.
	Subcategory string `json:"subcategory"`

	// SourceQuestion is the truncated original question, retained for
	// moderation audit only.
	SourceQuestion string `json:"source_question"`

	// SourceSession is the originating session id.
	SourceSession string `json:"source_session,omitempty"`

	// ConfidenceScore is the extractor's estimate in [0,1], immutable
	// after creation.
	ConfidenceScore float64 `json:"confidence_score"`

	// Status is the moderation lifecycle state.
	Status Status `json:"status"`

	// UseCount counts retrieval hits. Monotonically increasing.
	UseCount int `json:"use_count"`

	// HelpfulCount and NotHelpfulCount are user feedback tallies.
	// Informational for moderators; not fed back into scoring.
	HelpfulCount    int `json:"helpful_count"`
	NotHelpfulCount int `json:"not_helpful_count"`

	// ApprovedBy and ApprovedAt are set on the pending -> approved transition.
	ApprovedBy string     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	// RejectionReason is set on the pending -> rejected transition. May be empty.
	RejectionReason string `json:"rejection_reason,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// NewRecord builds a pending record from an admitted candidate.
func NewRecord(candidate *Candidate, exchange Exchange) *Record {
	question := exchange.Question
	if len(question) > maxSourceQuestionLen {
		question = question[:maxSourceQuestionLen]
	}

	return &Record{
		ID:              uuid.New().String(),
		Topic:           candidate.Topic,
		Narrative:       candidate.Narrative,
		Keywords:        candidate.Keywords,
		Category:        exchange.Mode,
		Subcategory:     NormalizeSubcategory(exchange.Mode, candidate.Subcategory),
		SourceQuestion:  question,
		SourceSession:   exchange.SessionID,
		ConfidenceScore: candidate.Confidence,
		Status:          StatusPending,
		CreatedAt:       time.Now(),
	}
}

// Validate checks record invariants before persistence.
func (r *Record) Validate() error {
	if r.ID == "" {
		return ErrInvalidRecord
	}
	if _, err := uuid.Parse(r.ID); err != nil {
		return ErrInvalidRecord
	}
	if r.Topic == "" {
		return ErrEmptyTopic
	}
	if r.Narrative == "" {
		return ErrEmptyNarrative
	}
	if len(r.Keywords) == 0 {
		return ErrEmptyKeywords
	}
	if r.ConfidenceScore < 0.0 || r.ConfidenceScore > 1.0 {
		return ErrInvalidConfidence
	}
	switch r.Category {
	case DomainTikTok, DomainPresentation, DomainGeneral:
	default:
		return ErrInvalidDomain
	}
	switch r.Status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return ErrInvalidRecord
	}
	return nil
}
