package llm

import (
	"strings"

	"github.com/krishhsuri/Orbit/internal/model"
)

// statusTable maps external status vocabulary, including classification
// categories, onto the closed application status enum.
var statusTable = map[string]model.ApplicationStatus{
	"applied":              model.StatusApplied,
	"application_received": model.StatusApplied,
	"submitted":            model.StatusApplied,
	"received":             model.StatusApplied,
	"screening":            model.StatusScreening,
	"phone_screen":         model.StatusScreening,
	"recruiter_screen":     model.StatusScreening,
	"oa":                   model.StatusOA,
	"online_assessment":    model.StatusOA,
	"assessment":           model.StatusOA,
	"assessment_invite":    model.StatusOA,
	"take_home":            model.StatusOA,
	"interview":            model.StatusInterview,
	"interviewing":         model.StatusInterview,
	"interview_invite":     model.StatusInterview,
	"offer":                model.StatusOffer,
	"offer_letter":         model.StatusOffer,
	"offered":              model.StatusOffer,
	"accepted":             model.StatusAccepted,
	"rejected":             model.StatusRejected,
	"rejection":            model.StatusRejected,
	"application_rejected": model.StatusRejected,
	"declined":             model.StatusRejected,
	"withdrawn":            model.StatusWithdrawn,
}

// MapStatus normalizes an external status string. Unknown values, and
// ghosted (which only ghost detection may assign), map to applied.
func MapStatus(raw string) model.ApplicationStatus {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if status, ok := statusTable[key]; ok {
		return status
	}
	return model.StatusApplied
}
