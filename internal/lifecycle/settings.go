package lifecycle

import (
	"fmt"

	"github.com/stemsi/exstem-essay/internal/model"
)

type window struct {
	name       string
	startField string
	start      model.Instant
	endField   string
	end        model.Instant
}

// ValidateSettings reports advisory problems in the task configuration.
// Windows are never reordered; an inverted window is only flagged.
func ValidateSettings(settings model.TaskSettings) []model.Conflict {
	windows := []window{
		{"writing", "writing_start", settings.WritingStart, "writing_end", settings.WritingEnd},
		{"correction", "correction_start", settings.CorrectionStart, "correction_end", settings.CorrectionEnd},
	}
	if settings.ReviewEnabled {
		windows = append(windows, window{"review", "review_start", settings.ReviewStart, "review_end", settings.ReviewEnd})
	}

	var conflicts []model.Conflict
	for _, w := range windows {
		if w.end.Before(w.start) {
			conflicts = append(conflicts, model.Conflict{
				Kind:    model.ConflictWindowOrder,
				Field:   w.endField,
				Message: fmt.Sprintf("%s window ends (%s) before it starts (%s at %s)", w.name, w.end, w.startField, w.start),
			})
		}
	}

	return append(conflicts, CheckResultAvailability(settings)...)
}
