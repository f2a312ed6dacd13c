package tasks

import "fmt"

// ProgressUpdate represents a progress event during a batch send.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchContacts Phase = iota
	Send
	Done
)

func (p Phase) String() string {
	switch p {
	case FetchContacts:
		return "fetch_contacts"
	case Send:
		return "send"
	case Done:
		return "done"
	default:
		return ""
	}
}

func fetchContactsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchContacts,
		Step:    1,
		Total:   1,
		Message: "Fetching contacts from sheet...",
	}
}

func sendUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Send,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, name),
	}
}

func doneUpdate(report *Report) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sent %d of %d messages", report.Sent, report.TotalContacts),
		Data:    report,
	}
}
