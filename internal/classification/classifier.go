// Package classification implements the local email classifier: an ordered
// chain of decision strategies over regex cascades and NLP signals.
package classification

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/nlp"
)

const (
	notForUserConfidence   = 0.90
	multiRecipientDemotion = 0.85
	specificPatternLength  = 20
	nlpFallbackThreshold   = 0.7
	generalHRConfidence    = 0.6
	defaultConfidence      = 0.9
	maxBoostedConfidence   = 0.99
	minCleanLocalPartChars = 4
)

// Categories that can be demoted to not_for_user when the message addresses
// many candidates at once.
var listSensitive = map[model.Category]bool{
	model.CategoryInterviewInvite:     true,
	model.CategoryApplicationRejected: true,
	model.CategoryApplicationReceived: true,
	model.CategoryAssessmentInvite:    true,
	model.CategoryOfferLetter:         true,
}

var localPartNoise = regexp.MustCompile(`[0-9._]+`)

// Pattern maps one regex to the category it signals.
type Pattern struct {
	Category model.Category
	Regex    string
}

// CompiledPattern holds a compiled regex pattern with metadata.
type CompiledPattern struct {
	compiledRegex *regexp.Regexp
	Pattern
}

// Input is everything a strategy may consider.
type Input struct {
	Email     model.RawEmail
	UserEmail string
	Signals   nlp.Signals
	// text is the lowercased visible text (subject and body).
	text string
}

// Strategy is one link in the decision chain. It returns ok=false to defer
// to the next strategy.
type Strategy interface {
	Name() string
	Decide(in Input) (result model.ClassificationResult, ok bool)
}

// StrategyFunc adapts a function into a named Strategy.
type StrategyFunc struct {
	Fn    func(in Input) (model.ClassificationResult, bool)
	Label string
}

// Name implements Strategy.
func (s StrategyFunc) Name() string { return s.Label }

// Decide implements Strategy.
func (s StrategyFunc) Decide(in Input) (model.ClassificationResult, bool) { return s.Fn(in) }

// PatternClassifier classifies emails by running its strategies in order.
// It holds no mutable state and is safe for concurrent use.
type PatternClassifier struct {
	strategies []Strategy
}

// NewPatternClassifier builds the default chain:
// candidate-list override, category cascade, NLP fallback, relatedness
// fallback and the not_job_related default.
func NewPatternClassifier() *PatternClassifier {
	pc, err := NewPatternClassifierWith(DefaultPatterns())
	if err != nil {
		panic(err)
	}
	return pc
}

// NewPatternClassifierWith builds the default chain around a custom cascade.
func NewPatternClassifierWith(patterns []Pattern) (*PatternClassifier, error) {
	compiled := make([]CompiledPattern, 0, len(patterns))
	for _, p := range patterns {
		regex, err := regexp.Compile("(?i)" + p.Regex)
		if err != nil {
			return nil, fmt.Errorf("failed to compile pattern %q: %w", p.Regex, err)
		}
		compiled = append(compiled, CompiledPattern{Pattern: p, compiledRegex: regex})
	}

	return NewChain(
		CandidateListOverride(common.CompileFold(candidateListPatterns...)),
		CategoryCascade(compiled, common.CompileFold(multiCandidatePatterns...)),
		NLPFallback(),
		RelatednessFallback(),
		Default(),
	), nil
}

// NewChain builds a classifier from an explicit strategy order.
func NewChain(strategies ...Strategy) *PatternClassifier {
	return &PatternClassifier{strategies: strategies}
}

// Strategies returns the chain's strategy names in evaluation order.
func (pc *PatternClassifier) Strategies() []string {
	names := make([]string, len(pc.strategies))
	for i, s := range pc.strategies {
		names[i] = s.Name()
	}
	return names
}

// Classify returns the first strategy result. userEmail may be empty, which
// disables the recipient checks. The result is deterministic for identical inputs.
func (pc *PatternClassifier) Classify(email model.RawEmail, signals nlp.Signals, userEmail string) model.ClassificationResult {
	in := Input{
		Email:     email,
		Signals:   signals,
		UserEmail: strings.TrimSpace(userEmail),
		text:      strings.ToLower(email.Subject + " " + email.Body()),
	}

	for _, s := range pc.strategies {
		if result, ok := s.Decide(in); ok {
			result.Origin = model.OriginLocal
			if result.Category.IsJobRelated() {
				result.Entities = model.Entities{
					Company: signals.Company,
					Dates:   signals.Entities.Dates,
				}
			}
			return result
		}
	}
	return model.NotJobRelated(defaultConfidence, model.OriginLocal, "no_strategy")
}

// CandidateListOverride rejects roster emails that do not name the user.
// It outranks every category pattern.
func CandidateListOverride(patterns []*regexp.Regexp) Strategy {
	return StrategyFunc{Label: "candidate_list_override", Fn: func(in Input) (model.ClassificationResult, bool) {
		if in.UserEmail == "" || common.MatchAny(patterns, in.text) == nil {
			return model.ClassificationResult{}, false
		}
		if userNamed(in.text, in.UserEmail, true) {
			return model.ClassificationResult{}, false
		}
		return model.ClassificationResult{
			Category:   model.CategoryNotForUser,
			Confidence: notForUserConfidence,
			Reason:     "candidate_list_user_not_found",
		}, true
	}}
}

// CategoryCascade tries each pattern in order; the first match wins.
func CategoryCascade(patterns []CompiledPattern, multiCandidate []*regexp.Regexp) Strategy {
	return StrategyFunc{Label: "category_cascade", Fn: func(in Input) (model.ClassificationResult, bool) {
		for _, p := range patterns {
			if !p.compiledRegex.MatchString(in.text) {
				continue
			}

			confidence := 0.8
			if len(p.Regex) > specificPatternLength {
				confidence = 0.9
			}
			if in.Signals.DetectedType == p.Category {
				confidence = min(maxBoostedConfidence, confidence+0.1)
			}

			if in.UserEmail != "" && listSensitive[p.Category] &&
				common.MatchAny(multiCandidate, in.text) != nil &&
				!userNamed(in.text, in.UserEmail, false) {
				return model.ClassificationResult{
					Category:   model.CategoryNotForUser,
					Confidence: multiRecipientDemotion,
					Reason:     "multi_candidate_user_not_found",
				}, true
			}

			return model.ClassificationResult{
				Category:   p.Category,
				Confidence: confidence,
				Reason:     "pattern:" + p.Regex,
			}, true
		}
		return model.ClassificationResult{}, false
	}}
}

// NLPFallback trusts a confident NLP type detection.
func NLPFallback() Strategy {
	return StrategyFunc{Label: "nlp_fallback", Fn: func(in Input) (model.ClassificationResult, bool) {
		if !in.Signals.HasDetectedType() || in.Signals.TypeConfidence <= nlpFallbackThreshold {
			return model.ClassificationResult{}, false
		}
		return model.ClassificationResult{
			Category:   in.Signals.DetectedType,
			Confidence: in.Signals.TypeConfidence,
			Reason:     "nlp_detected_type",
		}, true
	}}
}

// RelatednessFallback emits general_hr for job-related mail with no specific stage.
func RelatednessFallback() Strategy {
	return StrategyFunc{Label: "relatedness_fallback", Fn: func(in Input) (model.ClassificationResult, bool) {
		if !in.Signals.LikelyJobRelated {
			return model.ClassificationResult{}, false
		}
		return model.ClassificationResult{
			Category:   model.CategoryGeneralHR,
			Confidence: generalHRConfidence,
			Reason:     "likely_job_related",
		}, true
	}}
}

// Default always answers not_job_related.
func Default() Strategy {
	return StrategyFunc{Label: "default", Fn: func(Input) (model.ClassificationResult, bool) {
		return model.NotJobRelated(defaultConfidence, model.OriginLocal, "default"), true
	}}
}

// userNamed reports whether the user's address or local part appears in text.
// With allowCleaned, the local part stripped of digits, dots and underscores
// also counts when it keeps at least four characters.
func userNamed(text, userEmail string, allowCleaned bool) bool {
	addr := strings.ToLower(userEmail)
	local, _, _ := strings.Cut(addr, "@")

	if strings.Contains(text, addr) || (local != "" && strings.Contains(text, local)) {
		return true
	}
	if !allowCleaned {
		return false
	}
	cleaned := localPartNoise.ReplaceAllString(local, "")
	return len(cleaned) >= minCleanLocalPartChars && strings.Contains(text, cleaned)
}
