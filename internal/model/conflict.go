package model

// ConflictKind identifies a configuration or input inconsistency.
type ConflictKind string

const (
	ConflictDuplicateThreshold ConflictKind = "duplicate_threshold"
	ConflictNegativeThreshold  ConflictKind = "negative_threshold"
	ConflictPassedOrdering     ConflictKind = "passed_ordering"
	ConflictWindowOrder        ConflictKind = "window_order"
	ConflictReviewEndMissing   ConflictKind = "review_end_missing"
	ConflictResultDateMissing  ConflictKind = "result_date_missing"
	ConflictInconsistentCounts ConflictKind = "inconsistent_counts"
)

// Conflict is a non-fatal warning. Callers surface it and keep rendering
// best-effort results.
type Conflict struct {
	Kind     ConflictKind `json:"kind"`
	Field    string       `json:"field,omitempty"`
	Message  string       `json:"message"`
	LevelIDs []int64      `json:"level_ids,omitempty"`
}
