package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/praktiklabs/kurator/internal/knowledge"
)

// MemoryStore is an in-memory knowledge.Store used in tests and for
// ephemeral single-process deployments. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*knowledge.Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*knowledge.Record),
	}
}

// Insert persists a new record.
func (s *MemoryStore) Insert(_ context.Context, record *knowledge.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = cloneRecord(record)
	return nil
}

// Get returns a record by ID.
func (s *MemoryStore) Get(_ context.Context, id string) (*knowledge.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, knowledge.ErrRecordNotFound
	}
	return cloneRecord(rec), nil
}

// List returns records matching the filter, oldest first.
func (s *MemoryStore) List(_ context.Context, filter knowledge.ListFilter) ([]*knowledge.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*knowledge.Record
	for _, rec := range s.records {
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if len(filter.Categories) > 0 && !containsDomain(filter.Categories, rec.Category) {
			continue
		}
		records = append(records, cloneRecord(rec))
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records, nil
}

// Approve transitions a pending record to approved.
func (s *MemoryStore) Approve(_ context.Context, id, approvedBy, narrative string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return knowledge.ErrRecordNotFound
	}
	if rec.Status != knowledge.StatusPending {
		return knowledge.ErrInvalidTransition
	}

	rec.Status = knowledge.StatusApproved
	rec.ApprovedBy = approvedBy
	rec.ApprovedAt = &at
	if narrative != "" {
		rec.Narrative = narrative
	}
	return nil
}

// Reject transitions a pending record to rejected.
func (s *MemoryStore) Reject(_ context.Context, id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return knowledge.ErrRecordNotFound
	}
	if rec.Status != knowledge.StatusPending {
		return knowledge.ErrInvalidTransition
	}

	rec.Status = knowledge.StatusRejected
	rec.RejectionReason = reason
	return nil
}

// UpdateContent edits curated fields without touching status.
func (s *MemoryStore) UpdateContent(_ context.Context, id string, update knowledge.ContentUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return knowledge.ErrRecordNotFound
	}

	if update.Topic != nil {
		rec.Topic = *update.Topic
	}
	if update.Narrative != nil {
		rec.Narrative = *update.Narrative
	}
	if update.Keywords != nil {
		rec.Keywords = append([]string(nil), update.Keywords...)
	}
	if update.Subcategory != nil {
		rec.Subcategory = *update.Subcategory
	}
	return nil
}

// Delete removes a record at any status.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return knowledge.ErrRecordNotFound
	}
	delete(s.records, id)
	return nil
}

// RecordUse increments the use count and stamps the last-used time.
func (s *MemoryStore) RecordUse(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return knowledge.ErrRecordNotFound
	}
	rec.UseCount++
	rec.LastUsedAt = &at
	return nil
}

// AddFeedback increments one of the feedback counters.
func (s *MemoryStore) AddFeedback(_ context.Context, id string, helpful bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return knowledge.ErrRecordNotFound
	}
	if helpful {
		rec.HelpfulCount++
	} else {
		rec.NotHelpfulCount++
	}
	return nil
}

// CountByStatus returns record counts per lifecycle state.
func (s *MemoryStore) CountByStatus(_ context.Context) (map[knowledge.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[knowledge.Status]int)
	for _, rec := range s.records {
		counts[rec.Status]++
	}
	return counts, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// cloneRecord copies a record so callers never share mutable state with
// the store.
func cloneRecord(rec *knowledge.Record) *knowledge.Record {
	clone := *rec
	clone.Keywords = append([]string(nil), rec.Keywords...)
	if rec.ApprovedAt != nil {
		t := *rec.ApprovedAt
		clone.ApprovedAt = &t
	}
	if rec.LastUsedAt != nil {
		t := *rec.LastUsedAt
		clone.LastUsedAt = &t
	}
	return &clone
}

func containsDomain(domains []knowledge.Domain, d knowledge.Domain) bool {
	for _, domain := range domains {
		if domain == d {
			return true
		}
	}
	return false
}

// Ensure the interface is implemented.
var _ knowledge.Store = (*MemoryStore)(nil)
