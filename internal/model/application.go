package model

import (
	"fmt"
	"time"
)

// ApplicationStatus is the closed lifecycle enum of a tracked application.
type ApplicationStatus string

// Application status constants.
const (
	StatusApplied   ApplicationStatus = "applied"
	StatusScreening ApplicationStatus = "screening"
	StatusOA        ApplicationStatus = "oa"
	StatusInterview ApplicationStatus = "interview"
	StatusOffer     ApplicationStatus = "offer"
	StatusAccepted  ApplicationStatus = "accepted"
	StatusRejected  ApplicationStatus = "rejected"
	StatusWithdrawn ApplicationStatus = "withdrawn"
	StatusGhosted   ApplicationStatus = "ghosted"
)

// ApplicationStatuses lists every valid status.
var ApplicationStatuses = []ApplicationStatus{
	StatusApplied, StatusScreening, StatusOA, StatusInterview, StatusOffer,
	StatusAccepted, StatusRejected, StatusWithdrawn, StatusGhosted,
}

// GhostableStatuses are the only statuses from which an application may be ghosted.
var GhostableStatuses = []ApplicationStatus{StatusApplied, StatusScreening}

// Valid reports whether s is a member of the closed enum.
func (s ApplicationStatus) Valid() bool {
	for _, v := range ApplicationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Ghostable reports whether s may transition to ghosted.
func (s ApplicationStatus) Ghostable() bool {
	return s == StatusApplied || s == StatusScreening
}

// CanTransition reports whether an automatic (non-user) transition from s to next is allowed.
// Ghosted is entered only by the ghost detector and never left automatically.
func (s ApplicationStatus) CanTransition(next ApplicationStatus) error {
	if !next.Valid() {
		return fmt.Errorf("invalid application status %q", next)
	}
	if s == StatusGhosted {
		return fmt.Errorf("application is ghosted and cannot be updated automatically")
	}
	if next == StatusGhosted {
		return fmt.Errorf("ghosted is only reachable through ghost detection")
	}
	return nil
}

// TrackedApplication is a confirmed job application.
type TrackedApplication struct {
	AppliedDate     time.Time
	StatusUpdatedAt time.Time
	CreatedAt       time.Time
	DeletedAt       *time.Time
	ID              string
	UserID          string
	CompanyName     string
	RoleTitle       string
	JobURL          string
	Source          string
	Status          ApplicationStatus
}

// Application sources.
const (
	SourceManual    = "manual"
	SourceGmailAuto = "gmail_auto"
	SourceGmailAI   = "gmail_ai"
)

// Event types recorded in the application audit log.
const (
	EventCreated       = "created"
	EventStatusChanged = "status_changed"
	EventAutoGhosted   = "auto_ghosted"
	EventEmailLinked   = "email_linked"
)

// ApplicationEvent is an immutable audit-log entry for an application.
type ApplicationEvent struct {
	CreatedAt      time.Time
	ID             string
	ApplicationID  string
	EventType      string
	Title          string
	Description    string
	PreviousStatus ApplicationStatus
	NewStatus      ApplicationStatus
	DaysElapsed    int
}

// GhostEvent describes one ghost transition (or candidate, when previewing).
type GhostEvent struct {
	ApplicationID  string
	CompanyName    string
	RoleTitle      string
	PreviousStatus ApplicationStatus
	DaysSince      int
}
