package nlp

import (
	"strings"
	"unicode"
)

var (
	recruiterPatterns = []string{"recruiter", "recruiting", "talent", "hr", "hiring", "careers", "people"}

	atsPlatforms = []string{
		"greenhouse.io", "lever.co", "workable.com", "ashbyhq.com",
		"smartrecruiters.com", "myworkdayjobs.com", "taleo.net",
		"icims.com", "jobvite.com", "workday.com", "bamboohr.com",
	}

	bigTechDomains = []string{"@google.com", "@meta.com", "@amazon.com", "@microsoft.com", "@apple.com"}

	automatedMarkers = []string{"noreply", "donotreply", "no-reply"}

	consumerProviders = map[string]bool{
		"gmail": true, "yahoo": true, "outlook": true, "hotmail": true,
		"icloud": true, "proton": true, "aol": true,
	}

	atsLabels = map[string]bool{
		"greenhouse": true, "lever": true, "workable": true,
		"ashby": true, "icims": true, "taleo": true,
	}
)

// AnalyzeSender derives recruiter, platform, big-tech and automation signals
// from the sender address and display name.
func AnalyzeSender(address, name string) SenderSignals {
	addr := strings.ToLower(address)
	display := strings.ToLower(name)

	var s SenderSignals
	for _, p := range recruiterPatterns {
		if strings.Contains(addr, p) || strings.Contains(display, p) {
			s.IsRecruiter = true
			break
		}
	}
	s.IsJobPlatform = containsAny(addr, atsPlatforms)
	s.IsBigTech = containsAny(addr, bigTechDomains)
	s.IsAutomated = containsAny(addr, automatedMarkers)
	return s
}

// CompanyFromAddress guesses a company from the first label of the sender's
// domain. Consumer mail providers and ATS domains yield "".
func CompanyFromAddress(address string) string {
	at := strings.Index(address, "@")
	if at < 0 {
		return ""
	}
	domain := address[at+1:]
	label, _, _ := strings.Cut(domain, ".")
	lower := strings.ToLower(label)
	if lower == "" || consumerProviders[lower] || atsLabels[lower] {
		return ""
	}
	return titleCase(label)
}

func titleCase(s string) string {
	var b strings.Builder
	upperNext := true
	for _, r := range strings.ToLower(s) {
		if upperNext {
			r = unicode.ToUpper(r)
		}
		upperNext = !unicode.IsLetter(r)
		b.WriteRune(r)
	}
	return b.String()
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
