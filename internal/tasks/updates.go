package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running import.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Import stage
	Step    int    // Current step number within the stage
	Total   int    // Total steps in this stage
	Message string // Human-readable message for display
	Data    any    // Optional stage-specific data for advanced UIs
}

// Import stage enumeration
type Phase int

const (
	ImportSpeeches Phase = iota
	ImportActivities
	ImportSongs
	ImportPrograms
	ResyncPrograms
)

func (p Phase) String() string {
	switch p {
	case ImportSpeeches:
		return "import_speeches"
	case ImportActivities:
		return "import_activities"
	case ImportSongs:
		return "import_songs"
	case ImportPrograms:
		return "import_programs"
	case ResyncPrograms:
		return "resync_programs"
	default:
		return ""
	}
}

func stageStartUpdate(phase Phase, total int, what string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Importing %d %s...", total, what),
	}
}

func itemUpdate(phase Phase, step, total int, result ImportResult) ProgressUpdate {
	marker := "✓"
	if result.Status == StatusFailed {
		marker = "✗"
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s (%s)", step, total, marker, result.Title, result.Status),
		Data:    result,
	}
}

func resyncStartUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResyncPrograms,
		Step:    0,
		Total:   total,
		Message: "Resyncing programs against new content...",
	}
}
