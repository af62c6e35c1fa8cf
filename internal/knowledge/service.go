package knowledge

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// MinConfidence is the extractor confidence below which a candidate is
// rejected before persistence.
const MinConfidence = 0.5

// ProcessResult reports the outcome of running an exchange through the
// curation pipeline. Policy rejections (unworthy, rate limited, low
// confidence, duplicate) and extraction failures set Saved=false with a
// Reason; they are not errors. Errors are reserved for persistence
// failures.
type ProcessResult struct {
	Saved  bool    `json:"saved"`
	Reason string  `json:"reason,omitempty"`
	Record *Record `json:"record,omitempty"`
}

// MatchResult reports the outcome of a retrieval lookup. Found=false means
// no stored knowledge scored above the threshold; lookup failures are
// returned as errors, never as an empty result.
type MatchResult struct {
	Found  bool    `json:"found"`
	Record *Record `json:"record,omitempty"`
}

// Stats summarizes the catalog for the moderation view.
type Stats struct {
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}

// Service is the knowledge curation and retrieval engine.
//
// The curation pipeline runs: worthiness filter, per-session rate limiter,
// extraction call, confidence gate, duplicate check, then persistence with
// status pending. Retrieval scores approved records against a question and
// records usage on hits. All mutation goes through the injected Store.
//
// The duplicate check is read-then-compare without transactional isolation:
// two near-simultaneous extractions of near-duplicate content can both be
// admitted. Accepted race; a uniqueness constraint would close it.
type Service struct {
	store      Store
	extractor  Extractor
	limiter    Limiter
	filter     *WorthinessFilter
	duplicates *DuplicateDetector
	matcher    *Matcher
	logger     *zap.Logger
}

// NewService creates the engine. Store, extractor, and limiter are
// required; a nil logger falls back to a no-op.
func NewService(store Store, extractor Extractor, limiter Limiter, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if extractor == nil {
		return nil, fmt.Errorf("extractor cannot be nil")
	}
	if limiter == nil {
		return nil, fmt.Errorf("limiter cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:      store,
		extractor:  extractor,
		limiter:    limiter,
		filter:     NewWorthinessFilter(),
		duplicates: NewDuplicateDetector(),
		matcher:    NewMatcher(),
		logger:     logger,
	}, nil
}

// ProcessExchange runs one exchange through the curation pipeline.
//
// A failed exchange never corrupts stored records and is never re-queued:
// each outcome is local to this single call.
func (s *Service) ProcessExchange(ctx context.Context, exchange Exchange) (*ProcessResult, error) {
	if _, err := ParseDomain(string(exchange.Mode)); err != nil {
		return nil, fmt.Errorf("processing exchange: %w", err)
	}

	verdict := s.filter.Evaluate(exchange)
	if !verdict.Worthy {
		s.logger.Debug("exchange not worthy",
			zap.String("reason", verdict.Reason),
			zap.String("session", exchange.SessionID))
		return &ProcessResult{Reason: verdict.Reason}, nil
	}

	// The limiter is consulted before the extraction call so an over-cap
	// session never reaches the LLM.
	if !s.limiter.Acquire(exchange.SessionID) {
		s.logger.Debug("extraction rate limited",
			zap.String("session", exchange.SessionID))
		return &ProcessResult{Reason: ReasonRateLimited}, nil
	}

	candidate, err := s.extractor.Extract(ctx, exchange)
	if err != nil {
		// Extraction failure is handled like a policy rejection: logged
		// with its cause, nothing persisted, no retry.
		s.logger.Warn("extraction failed",
			zap.String("session", exchange.SessionID),
			zap.Error(err))
		return &ProcessResult{Reason: ReasonExtractionFailed}, nil
	}

	if candidate.Confidence < MinConfidence {
		s.logger.Debug("candidate below confidence threshold",
			zap.String("topic", candidate.Topic),
			zap.Float64("confidence", candidate.Confidence))
		return &ProcessResult{Reason: ReasonLowConfidence}, nil
	}

	// Duplicate check runs against records of every status.
	existing, err := s.store.List(ctx, ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing records for duplicate check: %w", err)
	}
	if s.duplicates.IsDuplicate(candidate.Topic, candidate.Keywords, existing) {
		s.logger.Debug("duplicate candidate dropped",
			zap.String("topic", candidate.Topic))
		return &ProcessResult{Reason: ReasonDuplicate}, nil
	}

	record := NewRecord(candidate, exchange)
	if err := record.Validate(); err != nil {
		s.logger.Warn("extracted candidate failed validation",
			zap.String("topic", candidate.Topic),
			zap.Error(err))
		return &ProcessResult{Reason: ReasonExtractionFailed}, nil
	}

	if err := s.store.Insert(ctx, record); err != nil {
		return nil, fmt.Errorf("persisting record: %w", err)
	}

	s.logger.Info("knowledge record created",
		zap.String("id", record.ID),
		zap.String("topic", record.Topic),
		zap.String("category", string(record.Category)),
		zap.Float64("confidence", record.ConfidenceScore))

	return &ProcessResult{Saved: true, Record: record}, nil
}

// FindMatch scores approved records against a question and returns the
// best one above the threshold. On a hit the record's use count and
// last-used timestamp are updated through a separate store call, keeping
// Matcher itself read-only.
func (s *Service) FindMatch(ctx context.Context, question string, domain Domain) (*MatchResult, error) {
	if _, err := ParseDomain(string(domain)); err != nil {
		return nil, fmt.Errorf("matching question: %w", err)
	}

	candidates, err := s.store.List(ctx, ListFilter{
		Status:     StatusApproved,
		Categories: []Domain{domain, DomainGeneral},
	})
	if err != nil {
		return nil, fmt.Errorf("listing approved records: %w", err)
	}

	// Stable candidate order makes tie-breaks deterministic: equal scores
	// resolve to the oldest record.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.Before(candidates[j].CreatedAt)
	})

	best, score := s.matcher.BestMatch(question, candidates)
	if best == nil {
		return &MatchResult{}, nil
	}

	if err := s.store.RecordUse(ctx, best.ID, time.Now()); err != nil {
		return nil, fmt.Errorf("recording use of %s: %w", best.ID, err)
	}
	best.UseCount++

	s.logger.Debug("knowledge match",
		zap.String("id", best.ID),
		zap.String("topic", best.Topic),
		zap.Float64("score", score))

	return &MatchResult{Found: true, Record: best}, nil
}

// ListPending returns records awaiting moderation, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]*Record, error) {
	records, err := s.store.List(ctx, ListFilter{Status: StatusPending})
	if err != nil {
		return nil, fmt.Errorf("listing pending records: %w", err)
	}
	return records, nil
}

// Approve transitions a pending record to approved. The moderator may
// override the narrative at this transition; an empty narrative keeps the
// stored one.
func (s *Service) Approve(ctx context.Context, id, approvedBy, narrative string) error {
	if id == "" {
		return fmt.Errorf("record id cannot be empty")
	}
	if approvedBy == "" {
		return fmt.Errorf("approvedBy cannot be empty")
	}

	if err := s.store.Approve(ctx, id, approvedBy, narrative, time.Now()); err != nil {
		return fmt.Errorf("approving %s: %w", id, err)
	}

	s.logger.Info("record approved",
		zap.String("id", id),
		zap.String("approved_by", approvedBy))
	return nil
}

// Reject transitions a pending record to rejected. Reason may be empty.
func (s *Service) Reject(ctx context.Context, id, reason string) error {
	if id == "" {
		return fmt.Errorf("record id cannot be empty")
	}

	if err := s.store.Reject(ctx, id, reason); err != nil {
		return fmt.Errorf("rejecting %s: %w", id, err)
	}

	s.logger.Info("record rejected",
		zap.String("id", id),
		zap.String("reason", reason))
	return nil
}

// Update edits a record's curated content at any status without changing
// its lifecycle state.
func (s *Service) Update(ctx context.Context, id string, update ContentUpdate) error {
	if id == "" {
		return fmt.Errorf("record id cannot be empty")
	}

	if err := s.store.UpdateContent(ctx, id, update); err != nil {
		return fmt.Errorf("updating %s: %w", id, err)
	}

	s.logger.Info("record updated", zap.String("id", id))
	return nil
}

// Delete removes a record permanently. Allowed from any status.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("record id cannot be empty")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}

	s.logger.Info("record deleted", zap.String("id", id))
	return nil
}

// Rate records user feedback on a matched record. Pure counter increment:
// no effect on status or future matching weight. Nothing guards against
// the same user rating a record repeatedly.
func (s *Service) Rate(ctx context.Context, id string, helpful bool) error {
	if id == "" {
		return fmt.Errorf("record id cannot be empty")
	}

	if err := s.store.AddFeedback(ctx, id, helpful); err != nil {
		return fmt.Errorf("rating %s: %w", id, err)
	}

	s.logger.Debug("feedback recorded",
		zap.String("id", id),
		zap.Bool("helpful", helpful))
	return nil
}

// Stats returns catalog counts by moderation status.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	return &Stats{
		Pending:  counts[StatusPending],
		Approved: counts[StatusApproved],
		Rejected: counts[StatusRejected],
	}, nil
}
