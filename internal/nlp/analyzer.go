package nlp

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/model"
)

const (
	maxBodyChars   = 1000
	maxEntityChars = 2000

	likelyKeywordScore = 3
	maxTypeConfidence  = 0.95
)

type weightedKeyword struct {
	term   string
	weight int
}

var jobKeywords = []weightedKeyword{
	{"application", 2}, {"interview", 3}, {"offer", 3}, {"position", 2},
	{"role", 2}, {"candidate", 2}, {"hiring", 2}, {"recruiter", 2},
	{"opportunity", 1}, {"resume", 2}, {"cv", 2}, {"assessment", 2},
	{"coding challenge", 3}, {"technical interview", 3}, {"phone screen", 2},
	{"onsite", 2}, {"next steps", 2}, {"applied", 2}, {"submitted", 1},
	{"congratulations", 2}, {"unfortunately", 2}, {"regret", 2},
	{"rejected", 3}, {"offer letter", 3}, {"compensation", 2}, {"salary", 2},
}

type typePattern struct {
	re     *regexp.Regexp
	source string
}

type typeRule struct {
	category model.Category
	patterns []typePattern
}

func newTypeRule(category model.Category, patterns ...string) typeRule {
	compiled := common.CompileFold(patterns...)
	rule := typeRule{category: category, patterns: make([]typePattern, len(patterns))}
	for i, p := range patterns {
		rule.patterns[i] = typePattern{source: p, re: compiled[i]}
	}
	return rule
}

// Evaluated in order; earlier types win ties on confidence.
var typeRules = []typeRule{
	newTypeRule(model.CategoryApplicationReceived,
		`application.*received`,
		`thank you for applying`,
		`we have received your application`,
		`application submitted`,
		`successfully applied`,
	),
	newTypeRule(model.CategoryInterviewInvite,
		`interview.*schedule`,
		`schedule.*interview`,
		`phone screen`,
		`technical interview`,
		`onsite interview`,
		`video interview`,
		`next round`,
		`meet.*team`,
	),
	newTypeRule(model.CategoryOfferLetter,
		`offer letter`,
		`job offer`,
		`pleased to offer`,
		`extend.*offer`,
		`congratulations.*offer`,
		`compensation package`,
	),
	newTypeRule(model.CategoryApplicationRejected,
		`unfortunately`,
		`regret to inform`,
		`not moving forward`,
		`decided not to proceed`,
		`other candidates`,
		`not selected`,
	),
	newTypeRule(model.CategoryAssessmentInvite,
		`coding challenge`,
		`coding test`,
		`assessment`,
		`hackerrank`,
		`codility`,
		`take-home`,
	),
}

// EntityExtractor finds named entities in free text.
type EntityExtractor interface {
	Extract(text string) (EntitySet, error)
}

// Analyzer computes Signals for an email. It is safe for concurrent use.
type Analyzer struct {
	extractor EntityExtractor
}

// NewAnalyzer creates an analyzer. A nil extractor disables entity
// extraction; entity lists are then always empty.
func NewAnalyzer(extractor EntityExtractor) *Analyzer {
	return &Analyzer{extractor: extractor}
}

// Analyze never fails. A missing or failing entity extractor degrades to
// empty entity lists.
func (a *Analyzer) Analyze(email model.RawEmail) Signals {
	text := email.Subject + " " + truncate(email.Body(), maxBodyChars)
	lower := strings.ToLower(text)

	var s Signals
	s.Entities = a.extractEntities(text)
	s.KeywordScore = KeywordScore(lower)
	s.DetectedType, s.TypeConfidence = DetectType(lower)
	s.Sender = AnalyzeSender(email.FromAddress, email.FromName)

	s.LikelyJobRelated = s.KeywordScore >= likelyKeywordScore ||
		s.HasDetectedType() ||
		s.Sender.IsRecruiter ||
		s.Sender.IsJobPlatform

	s.RelevanceScore = min(1.0, float64(s.KeywordScore)/10.0)
	if s.LikelyJobRelated {
		s.RelevanceScore = max(s.RelevanceScore, 0.5)
	}

	s.Company = CompanyFromAddress(email.FromAddress)
	if s.Company == "" && len(s.Entities.Organizations) > 0 {
		s.Company = s.Entities.Organizations[0]
	}
	return s
}

func (a *Analyzer) extractEntities(text string) EntitySet {
	if a == nil || a.extractor == nil {
		return EntitySet{}
	}
	entities, err := a.extractor.Extract(truncate(text, maxEntityChars))
	if err != nil {
		slog.Warn("Entity extraction failed", "error", err)
		return EntitySet{}
	}
	return entities
}

// KeywordScore sums the weights of every vocabulary term present in lower.
func KeywordScore(lower string) int {
	score := 0
	for _, k := range jobKeywords {
		if strings.Contains(lower, k.term) {
			score += k.weight
		}
	}
	return score
}

// DetectType returns the email type whose first matching pattern is the most
// specific, with confidence 0.7 + len(pattern)/100 capped at 0.95.
func DetectType(lower string) (model.Category, float64) {
	var (
		detected   model.Category
		confidence float64
	)
	for _, rule := range typeRules {
		for _, p := range rule.patterns {
			if !p.re.MatchString(lower) {
				continue
			}
			c := min(maxTypeConfidence, 0.7+float64(len(p.source))/100)
			if c > confidence {
				detected, confidence = rule.category, c
			}
			break
		}
	}
	return detected, confidence
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
