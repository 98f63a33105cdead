package model

import "time"

// StagingStatus is the review lifecycle of a staging record.
type StagingStatus string

// Staging status constants.
const (
	StagingPending   StagingStatus = "pending"
	StagingConfirmed StagingStatus = "confirmed"
	StagingRejected  StagingStatus = "rejected"
)

// StagingRecord is a not-yet-confirmed candidate application extracted from one email.
// It is unique on (UserID, SourceID).
type StagingRecord struct {
	EmailDate  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ID         string
	UserID     string
	SourceID   string
	Subject    string
	Snippet    string
	Sender     string
	Company    string
	Role       string
	JobURL     string
	Category   Category
	Origin     Origin
	Status     StagingStatus
	Confidence float64
}

// NewStagingRecord builds a pending record from a classified email.
func NewStagingRecord(userID string, email RawEmail, result ClassificationResult) StagingRecord {
	snippet := email.Snippet
	if len(snippet) > 1000 {
		snippet = snippet[:1000]
	}
	emailDate := email.ReceivedAt
	if emailDate.IsZero() {
		emailDate = time.Now()
	}
	return StagingRecord{
		UserID:     userID,
		SourceID:   email.SourceID,
		Subject:    email.Subject,
		Snippet:    snippet,
		Sender:     email.FromAddress,
		EmailDate:  emailDate,
		Company:    result.Entities.Company,
		Role:       result.Entities.Role,
		JobURL:     result.Entities.JobURL,
		Category:   result.Category,
		Origin:     result.Origin,
		Confidence: result.Confidence,
		Status:     StagingPending,
	}
}

// Email rebuilds the message view of a staged record for re-classification.
func (r StagingRecord) Email() RawEmail {
	return RawEmail{
		SourceID:    r.SourceID,
		Subject:     r.Subject,
		Snippet:     r.Snippet,
		BodyPreview: r.Snippet,
		FromAddress: r.Sender,
		ReceivedAt:  r.EmailDate,
	}
}
