package model

import "time"

// Label is the verdict attached to a training example.
type Label string

// Label constants.
const (
	LabelPositive Label = "positive"
	LabelNegative Label = "negative"
)

// FeedbackReason explains a user's confirm or reject decision.
type FeedbackReason string

// Feedback reasons. Only trainable reasons produce training examples.
const (
	ReasonConfirmed     FeedbackReason = "confirmed"
	ReasonNotJobRelated FeedbackReason = "not_job_related"
	ReasonPromotional   FeedbackReason = "promotional"
	ReasonDuplicate     FeedbackReason = "duplicate"
	ReasonWrongDetails  FeedbackReason = "wrong_details"
	ReasonNotForMe      FeedbackReason = "not_for_me"
	ReasonOther         FeedbackReason = "other"
)

// ParseFeedbackReason normalizes user input into a known reason, defaulting to ReasonOther.
func ParseFeedbackReason(s string) FeedbackReason {
	switch r := FeedbackReason(s); r {
	case ReasonConfirmed, ReasonNotJobRelated, ReasonPromotional, ReasonDuplicate,
		ReasonWrongDetails, ReasonNotForMe, ReasonOther:
		return r
	}
	return ReasonOther
}

// Trainable reports whether the reason says something about the email itself
// rather than about the user's tracker state.
func (r FeedbackReason) Trainable() bool {
	switch r {
	case ReasonConfirmed, ReasonNotJobRelated, ReasonPromotional:
		return true
	}
	return false
}

// Label returns the training label for a trainable reason.
func (r FeedbackReason) Label() Label {
	if r == ReasonConfirmed {
		return LabelPositive
	}
	return LabelNegative
}

// TrainingExample is one persisted user decision used to retrain the learned filter.
type TrainingExample struct {
	CreatedAt time.Time
	ID        string
	UserID    string
	Subject   string
	Snippet   string
	Sender    string
	Label     Label
}

// Text returns the feature text in the same shape used at prediction time.
func (t TrainingExample) Text() string {
	return t.Subject + " " + t.Snippet + " " + t.Sender
}
