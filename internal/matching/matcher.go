// Package matching resolves an incoming email to an already tracked
// application by comparing company names.
package matching

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/krishhsuri/Orbit/internal/model"
	"github.com/krishhsuri/Orbit/internal/nlp"
	"github.com/pmezard/go-difflib/difflib"
)

const (
	// ExactConfidence is returned for a case-insensitive company equality.
	ExactConfidence = 0.95
	// DefaultFuzzyThreshold is the minimum similarity ratio accepted for a fuzzy match.
	DefaultFuzzyThreshold = 0.75
	minSenderCompanyLen   = 2
)

var (
	ignoredDomains = map[string]bool{
		"gmail": true, "yahoo": true, "outlook": true, "hotmail": true, "icloud": true,
		"protonmail": true, "aol": true, "mail": true, "zoho": true, "yandex": true,
	}
	atsDomains = map[string]bool{
		"greenhouse": true, "lever": true, "workday": true,
		"icims": true, "taleo": true, "jobvite": true,
	}
	legalSuffix = regexp.MustCompile(`(?i)\s*(inc|llc|corp|ltd|limited)\.?$`)
)

// Match is the outcome of Matcher.Match. ApplicationID is empty when nothing qualified.
type Match struct {
	ApplicationID string
	Candidate     string
	Confidence    float64
	Exact         bool
}

// Found reports whether an application was matched.
func (m Match) Found() bool {
	return m.ApplicationID != ""
}

// Matcher links emails to tracked applications.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher using DefaultFuzzyThreshold.
func NewMatcher() *Matcher {
	return &Matcher{threshold: DefaultFuzzyThreshold}
}

// Threshold returns the minimum accepted fuzzy ratio.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match compares every company candidate found in email (and signals, when
// non-nil) against every application. The first exact match returns
// immediately; otherwise the best ratio at or above the threshold wins.
func (m *Matcher) Match(email model.RawEmail, apps []model.TrackedApplication, signals *nlp.Signals) Match {
	if len(apps) == 0 {
		return Match{}
	}

	candidates := Candidates(email, signals)
	if len(candidates) == 0 {
		slog.Debug("No company candidates in email", "source_id", email.SourceID)
		return Match{}
	}

	var best Match
	for _, app := range apps {
		company := strings.ToLower(strings.TrimSpace(app.CompanyName))
		if company == "" || app.ID == "" {
			continue
		}
		for _, candidate := range candidates {
			if company == candidate {
				slog.Info("Exact company match", "company", candidate, "application_id", app.ID)
				return Match{ApplicationID: app.ID, Candidate: candidate, Confidence: ExactConfidence, Exact: true}
			}
			ratio := Similarity(company, candidate)
			if ratio > best.Confidence && ratio >= m.threshold {
				best = Match{ApplicationID: app.ID, Candidate: candidate, Confidence: ratio}
			}
		}
	}

	if best.Found() {
		slog.Info("Fuzzy company match", "score", best.Confidence, "application_id", best.ApplicationID)
	}
	return best
}

// Candidates returns the lowercased, de-duplicated company names mentioned by
// an email, sorted so matching is deterministic.
func Candidates(email model.RawEmail, signals *nlp.Signals) []string {
	set := make(map[string]struct{})
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			set[s] = struct{}{}
		}
	}

	if signals != nil {
		for _, org := range signals.Entities.Organizations {
			add(org)
		}
		add(signals.Company)
	}
	add(companyFromDomain(email.FromAddress))
	add(companyFromSenderName(email.FromName))

	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Similarity returns the difflib ratio of a and b compared rune by rune.
func Similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func companyFromDomain(address string) string {
	_, domain, ok := strings.Cut(address, "@")
	if !ok {
		return ""
	}
	label, _, _ := strings.Cut(strings.ToLower(domain), ".")
	if label == "" || ignoredDomains[label] || atsDomains[label] {
		return ""
	}
	return label
}

// companyFromSenderName handles display names like "Jane from Acme Inc".
func companyFromSenderName(name string) string {
	lower := strings.ToLower(name)
	_, company, ok := strings.Cut(lower, "from ")
	if !ok {
		return ""
	}
	company = legalSuffix.ReplaceAllString(strings.TrimSpace(company), "")
	if len(company) <= minSenderCompanyLen {
		return ""
	}
	return company
}
