package knowledge

import "strings"

// duplicateOverlapThreshold is the keyword overlap ratio at or above which
// a candidate is considered a duplicate of an existing record.
const duplicateOverlapThreshold = 0.7

// DuplicateDetector compares candidates against previously stored records.
//
// Two tests, either sufficient: case-insensitive topic equality, or keyword
// overlap ratio >= 0.7 where the ratio is |candidate ∩ existing| divided by
// the candidate's keyword count (not the union). Candidates are compared
// against records of every status, so a rejected record still blocks
// re-admission of the same content.
//
// The comparison is O(records × keywords). Fine for catalogs in the
// hundreds to low thousands; a keyword index would be needed beyond that.
type DuplicateDetector struct{}

// NewDuplicateDetector creates the admission-time duplicate check.
func NewDuplicateDetector() *DuplicateDetector {
	return &DuplicateDetector{}
}

// IsDuplicate reports whether the candidate topic/keywords duplicate any
// existing record.
func (d *DuplicateDetector) IsDuplicate(topic string, keywords []string, existing []*Record) bool {
	topic = strings.ToLower(strings.TrimSpace(topic))

	candidate := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			candidate = append(candidate, kw)
		}
	}

	for _, rec := range existing {
		if strings.ToLower(strings.TrimSpace(rec.Topic)) == topic {
			return true
		}
		if len(candidate) == 0 {
			continue
		}
		if overlapRatio(candidate, rec.Keywords) >= duplicateOverlapThreshold {
			return true
		}
	}
	return false
}

// overlapRatio computes |candidate ∩ existing| / |candidate| with
// case-insensitive set membership.
func overlapRatio(candidate, existing []string) float64 {
	set := make(map[string]struct{}, len(existing))
	for _, kw := range existing {
		set[strings.ToLower(strings.TrimSpace(kw))] = struct{}{}
	}

	matched := 0
	for _, kw := range candidate {
		if _, ok := set[kw]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(candidate))
}
