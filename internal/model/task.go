package model

import "time"

// ResultAvailableType enumerates when a writer may see the corrected result.
type ResultAvailableType string

const (
	ResultAvailableFinalised ResultAvailableType = "finalised"
	ResultAvailableReview    ResultAvailableType = "review"
	ResultAvailableDate      ResultAvailableType = "date"
)

// Valid reports whether t is one of the known modes.
func (t ResultAvailableType) Valid() bool {
	switch t {
	case ResultAvailableFinalised, ResultAvailableReview, ResultAvailableDate:
		return true
	}
	return false
}

// TaskSettings holds the configured time windows and disclosure modes of an essay task.
type TaskSettings struct {
	TaskID                 int64               `json:"task_id"`
	Title                  string              `json:"title"`
	Description            string              `json:"description"`
	ClosingMessage         string              `json:"closing_message"`
	WritingStart           Instant             `json:"writing_start"`
	WritingEnd             Instant             `json:"writing_end"`
	CorrectionStart        Instant             `json:"correction_start"`
	CorrectionEnd          Instant             `json:"correction_end"`
	ReviewEnabled          bool                `json:"review_enabled"`
	ReviewStart            Instant             `json:"review_start"`
	ReviewEnd              Instant             `json:"review_end"`
	ReviewNotification     bool                `json:"review_notification"`
	ReviewNotificationText string              `json:"review_notification_text,omitempty"`
	ResultAvailableType    ResultAvailableType `json:"result_available_type"`
	ResultAvailableDate    Instant             `json:"result_available_date"`
	SolutionAvailable      bool                `json:"solution_available"`
	SolutionAvailableDate  Instant             `json:"solution_available_date"`
	KeepEssayAvailable     bool                `json:"keep_essay_available"`
	AllowWritingReview     bool                `json:"allow_writing_review"`
	UpdatedAt              time.Time           `json:"updated_at"`
}

// UpdateTaskSettingsRequest is the payload for saving task settings.
type UpdateTaskSettingsRequest struct {
	Title                  string              `json:"title" binding:"required,min=1,max=255"`
	Description            string              `json:"description" binding:"omitempty,max=65535"`
	ClosingMessage         string              `json:"closing_message" binding:"omitempty,max=65535"`
	WritingStart           Instant             `json:"writing_start"`
	WritingEnd             Instant             `json:"writing_end"`
	CorrectionStart        Instant             `json:"correction_start"`
	CorrectionEnd          Instant             `json:"correction_end"`
	ReviewEnabled          bool                `json:"review_enabled"`
	ReviewStart            Instant             `json:"review_start"`
	ReviewEnd              Instant             `json:"review_end"`
	ReviewNotification     bool                `json:"review_notification"`
	ReviewNotificationText string              `json:"review_notification_text" binding:"omitempty,max=4000"`
	ResultAvailableType    ResultAvailableType `json:"result_available_type" binding:"required,oneof=finalised review date"`
	ResultAvailableDate    Instant             `json:"result_available_date"`
	SolutionAvailable      bool                `json:"solution_available"`
	SolutionAvailableDate  Instant             `json:"solution_available_date"`
	KeepEssayAvailable     bool                `json:"keep_essay_available"`
	AllowWritingReview     bool                `json:"allow_writing_review"`
}

// Apply copies the request onto settings for taskID. Dates that belong to a
// disabled option are dropped, as the settings form does.
func (r UpdateTaskSettingsRequest) Apply(taskID int64) TaskSettings {
	s := TaskSettings{
		TaskID:              taskID,
		Title:               r.Title,
		Description:         r.Description,
		ClosingMessage:      r.ClosingMessage,
		WritingStart:        r.WritingStart,
		WritingEnd:          r.WritingEnd,
		CorrectionStart:     r.CorrectionStart,
		CorrectionEnd:       r.CorrectionEnd,
		ReviewEnabled:       r.ReviewEnabled,
		ResultAvailableType: r.ResultAvailableType,
		SolutionAvailable:   r.SolutionAvailable,
		KeepEssayAvailable:  r.KeepEssayAvailable,
		AllowWritingReview:  r.AllowWritingReview,
	}
	if r.ReviewEnabled {
		s.ReviewStart = r.ReviewStart
		s.ReviewEnd = r.ReviewEnd
		s.ReviewNotification = r.ReviewNotification
		if r.ReviewNotification {
			s.ReviewNotificationText = r.ReviewNotificationText
		}
	}
	if r.ResultAvailableType == ResultAvailableDate {
		s.ResultAvailableDate = r.ResultAvailableDate
	}
	if r.SolutionAvailable {
		s.SolutionAvailableDate = r.SolutionAvailableDate
	}
	return s
}
