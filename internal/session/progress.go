package session

import "github.com/intelliscript/tui/internal/api"

// Stage status values, mirroring what the backend reports.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusError      = "error"
)

// FallbackStage names a report that arrives without a stage identifier.
const FallbackStage = "Processing"

// StageProgress is the client's view of one named pipeline stage.
type StageProgress struct {
	Stage    string
	Progress int
	Status   string
	Message  string
}

// FromReport derives a StageProgress from a raw backend report. The backend
// signals a stage failure with a negative progress value.
func FromReport(r api.ProgressReport) StageProgress {
	stage := r.Stage
	if stage == "" {
		stage = FallbackStage
	}

	status := r.Status
	if status == "" {
		switch {
		case r.Progress >= 100:
			status = StatusCompleted
		case r.Progress < 0:
			status = StatusError
		default:
			status = StatusProcessing
		}
	}

	return StageProgress{
		Stage:    stage,
		Progress: r.Progress,
		Status:   status,
		Message:  r.Message,
	}
}

// Merge applies one raw report to an ordered stage list. A report for a
// known stage replaces that entry at its existing index; a new stage is
// appended. The input slice is never mutated, so a partially applied merge
// can't be observed. Applying the same report twice is a no-op the second
// time.
func Merge(stages []StageProgress, r api.ProgressReport) []StageProgress {
	entry := FromReport(r)

	merged := make([]StageProgress, len(stages))
	copy(merged, stages)

	for i, s := range merged {
		if s.Stage == entry.Stage {
			merged[i] = entry
			return merged
		}
	}
	return append(merged, entry)
}
