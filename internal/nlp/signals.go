// Package nlp extracts job-related signals from an email: weighted keyword
// scores, a heuristic email type, sender signals, entities and a company guess.
package nlp

import "github.com/krishhsuri/Orbit/internal/model"

// EntitySet holds named entities found in an email.
type EntitySet struct {
	Organizations []string
	Persons       []string
	Dates         []string
}

// SenderSignals describes what the sender address and name reveal.
type SenderSignals struct {
	IsRecruiter   bool
	IsJobPlatform bool
	IsBigTech     bool
	IsAutomated   bool
}

// Signals is the output of Analyzer.Analyze.
type Signals struct {
	// DetectedType is empty when no type pattern matched.
	DetectedType     model.Category
	Company          string
	Entities         EntitySet
	Sender           SenderSignals
	KeywordScore     int
	TypeConfidence   float64
	RelevanceScore   float64
	LikelyJobRelated bool
}

// HasDetectedType reports whether a type pattern matched.
func (s Signals) HasDetectedType() bool {
	return s.DetectedType != ""
}
