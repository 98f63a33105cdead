package model

// Action is the verdict of a commit decision.
type Action string

// Action constants.
const (
	ActionAddToTracker Action = "add_to_tracker"
	ActionDiscard      Action = "discard"
)

// CommitDecision is the authoritative verdict for converting a staging record
// into a tracked application or discarding it.
type CommitDecision struct {
	Action  Action
	Company string
	Role    string
	Status  ApplicationStatus
	Reason  string
	// Degraded marks a fail-closed decision produced because the external
	// service timed out, failed, or returned malformed output.
	Degraded bool
}

// Discard builds a discard decision with the given reason.
func Discard(reason string, degraded bool) CommitDecision {
	return CommitDecision{
		Action:   ActionDiscard,
		Reason:   reason,
		Degraded: degraded,
	}
}

// Extraction is the enrichment payload of an extraction-only LLM call.
type Extraction struct {
	Company string
	Role    string
	JobURL  string
}

// Empty reports whether no field was extracted.
func (e Extraction) Empty() bool {
	return e.Company == "" && e.Role == "" && e.JobURL == ""
}
