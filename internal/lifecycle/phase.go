// Package lifecycle derives the phase of an essay task for one writer from
// the task's configured windows and decides what the writer may do or see.
// All functions are pure.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/stemsi/exstem-essay/internal/model"
)

// Phase is a stage of the task lifecycle. The numeric value is the phase
// ordinal; it never decreases while time moves forward.
type Phase int

const (
	PhaseNotStarted Phase = iota
	PhaseWriting
	PhaseWritingClosed
	PhaseUnderCorrection
	PhaseResultPending
	PhaseResultAvailable
)

var phaseNames = [...]string{
	PhaseNotStarted:      "not_started",
	PhaseWriting:         "writing",
	PhaseWritingClosed:   "writing_closed",
	PhaseUnderCorrection: "under_correction",
	PhaseResultPending:   "result_pending",
	PhaseResultAvailable: "result_available",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Ordinal returns the position of p in the lifecycle.
func (p Phase) Ordinal() int { return int(p) }

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText decodes a phase name.
func (p *Phase) UnmarshalText(b []byte) error {
	for i, n := range phaseNames {
		if n == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(b))
}

// Review is the state of the review window, orthogonal to Phase.
type Review string

const (
	ReviewNone   Review = "none"
	ReviewOpen   Review = "open"
	ReviewClosed Review = "closed"
)

// WriterState is what the caller knows about the writer's essay.
type WriterState struct {
	EssayExists bool
	Authorized  bool
	Excluded    bool
	Finalized   bool
}

// Capabilities are permission flags already resolved by access control.
type Capabilities struct {
	ReviewWrittenEssay bool
}

// PhaseState is the lifecycle position of one writer and the actions it permits.
type PhaseState struct {
	Phase                 Phase         `json:"phase"`
	PhaseOrdinal          int           `json:"phase_ordinal"`
	Review                Review        `json:"review"`
	CanWrite              bool          `json:"can_write"`
	CanReviewWrittenEssay bool          `json:"can_review_written_essay"`
	CanViewResult         bool          `json:"can_view_result"`
	CanViewSolution       bool          `json:"can_view_solution"`
	CanViewWrittenEssay   bool          `json:"can_view_written_essay"`
	CanDownloadCorrection bool          `json:"can_download_correction"`
	EffectiveWritingEnd   model.Instant `json:"effective_writing_end"`
}

// EffectiveWritingEnd is the writing end shifted by the writer's extension.
// An unset writing end stays unbounded.
func EffectiveWritingEnd(settings model.TaskSettings, extensionSeconds int64) model.Instant {
	return settings.WritingEnd.Add(time.Duration(extensionSeconds) * time.Second)
}

// ComputePhase returns the phase of the task for one writer at now.
// extensionSeconds must already be validated as non-negative.
func ComputePhase(now time.Time, settings model.TaskSettings, extensionSeconds int64, writer WriterState, caps Capabilities) PhaseState {
	effectiveEnd := EffectiveWritingEnd(settings, extensionSeconds)
	resultVisible := IsResultAvailable(now, settings, writer.Finalized)

	var phase Phase
	switch {
	case resultVisible:
		phase = PhaseResultAvailable
	case writer.Authorized || effectiveEnd.Reached(now):
		switch {
		case settings.CorrectionEnd.Reached(now):
			phase = PhaseResultPending
		case settings.CorrectionStart.Reached(now):
			phase = PhaseUnderCorrection
		default:
			phase = PhaseWritingClosed
		}
	case !settings.WritingStart.IsSet() || settings.WritingStart.Reached(now):
		phase = PhaseWriting
	default:
		phase = PhaseNotStarted
	}

	return PhaseState{
		Phase:                 phase,
		PhaseOrdinal:          phase.Ordinal(),
		Review:                reviewState(now, settings),
		CanWrite:              phase == PhaseWriting && !writer.Excluded,
		CanReviewWrittenEssay: writer.EssayExists && !writer.Authorized && caps.ReviewWrittenEssay,
		CanViewResult:         resultVisible,
		CanViewSolution:       settings.SolutionAvailable && (!settings.SolutionAvailableDate.IsSet() || settings.SolutionAvailableDate.Reached(now)),
		CanViewWrittenEssay:   writer.Authorized && settings.KeepEssayAvailable,
		CanDownloadCorrection: resultVisible && writer.Finalized,
		EffectiveWritingEnd:   effectiveEnd,
	}
}

func reviewState(now time.Time, settings model.TaskSettings) Review {
	if !settings.ReviewEnabled {
		return ReviewNone
	}
	started := !settings.ReviewStart.IsSet() || settings.ReviewStart.Reached(now)
	if started && !settings.ReviewEnd.Reached(now) {
		return ReviewOpen
	}
	return ReviewClosed
}
