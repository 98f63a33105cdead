package nlp

import (
	"regexp"
	"strings"
)

var (
	orgSuffixPattern = regexp.MustCompile(
		`\b((?:[A-Z][\w&.-]*\s){0,3}[A-Z][\w&.-]*)\s+(?:Inc|LLC|Ltd|Limited|Corp|Corporation|Technologies|Labs|Systems|Group|GmbH)\b\.?`)
	orgContextPattern = regexp.MustCompile(
		`\b(?:at|with|from|join|to)\s+((?:[A-Z][\w&-]*)(?:\s+[A-Z][\w&-]*){0,2})`)
	personPattern = regexp.MustCompile(
		`\b(?:Hi|Hello|Dear|Hey|Regards,|Thanks,|Best,|Sincerely,)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?`),
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
		regexp.MustCompile(`(?i)\b(?:Monday|Tuesday|Wednesday|Thursday|Friday|Saturday|Sunday)\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}(?::\d{2})?\s?(?:am|pm)\b`),
		regexp.MustCompile(`(?i)\b(?:tomorrow|next week)\b`),
	}
)

// Capitalized words that open sentences or name roles rather than organizations.
var orgStopWords = map[string]bool{
	"The": true, "Your": true, "You": true, "We": true, "Our": true, "This": true,
	"Thank": true, "Thanks": true, "Hi": true, "Hello": true, "Dear": true, "Team": true,
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true, "Friday": true,
	"Saturday": true, "Sunday": true, "Software": true, "Senior": true, "Engineer": true,
	"Engineering": true, "Application": true, "Interview": true, "Us": true, "LinkedIn": true,
}

// RuleExtractor is a dependency-free EntityExtractor based on capitalization,
// corporate suffixes, greetings and date shapes. It favors precision.
type RuleExtractor struct{}

// Extract implements EntityExtractor.
func (RuleExtractor) Extract(text string) (EntitySet, error) {
	var set EntitySet
	seen := map[string]bool{}

	addOrg := func(name string) {
		name = strings.TrimSpace(strings.TrimRight(name, ".,"))
		first, _, _ := strings.Cut(name, " ")
		if len(name) < 2 || orgStopWords[first] || seen["org:"+name] {
			return
		}
		seen["org:"+name] = true
		set.Organizations = append(set.Organizations, name)
	}

	for _, m := range orgSuffixPattern.FindAllStringSubmatch(text, -1) {
		addOrg(m[1])
	}
	for _, m := range orgContextPattern.FindAllStringSubmatch(text, -1) {
		addOrg(m[1])
	}
	for _, m := range personPattern.FindAllStringSubmatch(text, -1) {
		if !seen["person:"+m[1]] {
			seen["person:"+m[1]] = true
			set.Persons = append(set.Persons, m[1])
		}
	}
	for _, re := range datePatterns {
		for _, m := range re.FindAllString(text, -1) {
			if !seen["date:"+m] {
				seen["date:"+m] = true
				set.Dates = append(set.Dates, m)
			}
		}
	}
	return set, nil
}
