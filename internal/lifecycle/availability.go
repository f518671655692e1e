package lifecycle

import (
	"time"

	"github.com/stemsi/exstem-essay/internal/model"
)

// IsResultAvailable decides whether a writer may see the corrected result.
// A mode whose date is missing never makes the result available;
// CheckResultAvailability reports that configuration.
func IsResultAvailable(now time.Time, settings model.TaskSettings, essayFinalized bool) bool {
	switch settings.ResultAvailableType {
	case model.ResultAvailableFinalised:
		return essayFinalized
	case model.ResultAvailableReview:
		return settings.ReviewEnd.Reached(now)
	case model.ResultAvailableDate:
		return settings.ResultAvailableDate.Reached(now)
	default:
		return false
	}
}

// CheckResultAvailability reports disclosure modes that can never release a result.
func CheckResultAvailability(settings model.TaskSettings) []model.Conflict {
	var conflicts []model.Conflict
	switch settings.ResultAvailableType {
	case model.ResultAvailableReview:
		if !settings.ReviewEnd.IsSet() {
			conflicts = append(conflicts, model.Conflict{
				Kind:    model.ConflictReviewEndMissing,
				Field:   "review_end",
				Message: "results are released after review but no review end is configured",
			})
		}
	case model.ResultAvailableDate:
		if !settings.ResultAvailableDate.IsSet() {
			conflicts = append(conflicts, model.Conflict{
				Kind:    model.ConflictResultDateMissing,
				Field:   "result_available_date",
				Message: "results are released on a date but no date is configured",
			})
		}
	}
	return conflicts
}
