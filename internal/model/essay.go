package model

// Essay is one writer's submission together with its correction state.
type Essay struct {
	ID                int64    `json:"id"`
	WriterID          int64    `json:"writer_id"`
	TaskID            int64    `json:"task_id"`
	Points            *float64 `json:"points,omitempty"`
	Finalized         bool     `json:"finalized"`
	Attended          bool     `json:"attended"`
	WritingAuthorized Instant  `json:"writing_authorized"`
	WritingExcluded   Instant  `json:"writing_excluded"`
	GradeLevelID      *int64   `json:"grade_level_id,omitempty"`
}

// Authorized reports whether the writer has submitted the essay.
func (e Essay) Authorized() bool { return e.WritingAuthorized.IsSet() }

// Excluded reports whether the writer was excluded from writing.
func (e Essay) Excluded() bool { return e.WritingExcluded.IsSet() }
