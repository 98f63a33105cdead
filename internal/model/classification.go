package model

// Category is the lifecycle stage an email represents.
type Category string

// Category constants. The first five are produced by the pattern cascade.
const (
	CategoryApplicationReceived Category = "application_received"
	CategoryApplicationRejected Category = "application_rejected"
	CategoryInterviewInvite     Category = "interview_invite"
	CategoryAssessmentInvite    Category = "assessment_invite"
	CategoryOfferLetter         Category = "offer_letter"
	CategoryGeneralHR           Category = "general_hr"
	CategoryNotForUser          Category = "not_for_user"
	CategoryNotJobRelated       Category = "not_job_related"
)

// IsJobRelated reports whether a staging record should be created for the category.
func (c Category) IsJobRelated() bool {
	switch c {
	case CategoryApplicationReceived, CategoryApplicationRejected, CategoryInterviewInvite,
		CategoryAssessmentInvite, CategoryOfferLetter, CategoryGeneralHR:
		return true
	}
	return false
}

// Origin records which layer produced a classification.
type Origin string

// Origin constants.
const (
	OriginLocal   Origin = "local"
	OriginLearned Origin = "learned"
	OriginLLM     Origin = "llm"
)

// Entities holds the fields extracted from an email.
type Entities struct {
	Company string
	Role    string
	JobURL  string
	Dates   []string
}

// ClassificationResult is the output of the classification cascade.
type ClassificationResult struct {
	Category   Category
	Origin     Origin
	Reason     string
	Entities   Entities
	Confidence float64
}

// NotJobRelated builds the default negative result.
func NotJobRelated(confidence float64, origin Origin, reason string) ClassificationResult {
	return ClassificationResult{
		Category:   CategoryNotJobRelated,
		Confidence: confidence,
		Origin:     origin,
		Reason:     reason,
	}
}
