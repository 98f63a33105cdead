package classification

import "github.com/krishhsuri/Orbit/internal/model"

func group(category model.Category, regexes ...string) []Pattern {
	out := make([]Pattern, len(regexes))
	for i, r := range regexes {
		out[i] = Pattern{Category: category, Regex: r}
	}
	return out
}

// DefaultPatterns returns the ordered category cascade. Categories are tried
// in this order and the first matching pattern wins.
func DefaultPatterns() []Pattern {
	var patterns []Pattern
	patterns = append(patterns, group(model.CategoryApplicationReceived,
		`application.*received`,
		`thank.*for.*applying`,
		`we.*received.*your.*application`,
		`application.*submitted`,
		`recieved.*application`,
		`confirmation.*application`,
		`thanks.*application`,
		`application.*was.*sent`,
		`applied.*on`,
		`successfully.*submitted`,
		`successfully.*applied`,
		`your.*application.*to`,
		`you.*applied`,
		`thank.*you.*for.*your.*interest`,
		`we.*will.*review`,
		`reviewing.*your.*application`,
		`application.*under.*review`,
		`your.*profile.*has.*been`,
		`submitted.*your.*application`,
		`applied.*for.*the.*position`,
		`applied.*for.*this.*job`,
	)...)
	patterns = append(patterns, group(model.CategoryApplicationRejected,
		`unfortunately`,
		`not.*moving forward`,
		`decided.*not.*proceed`,
		`other candidates`,
		`not.*selected`,
		`will not be moving forward`,
		`pursue other`,
		`thank.*but`,
		`volume of application`,
		`regret.*to.*inform`,
		`after.*careful.*consideration`,
		`not.*the.*right.*fit`,
		`position.*has.*been.*filled`,
		`decided.*to.*move.*forward.*with`,
		`won't.*be.*proceeding`,
	)...)
	patterns = append(patterns, group(model.CategoryInterviewInvite,
		`interview`,
		`schedule.*call`,
		`meet.*team`,
		`next.*round`,
		`phone.*screen`,
		`video.*call`,
		`availability.*call`,
		`time.*chat`,
		`discuss.*role`,
		`would.*like.*to.*speak`,
		`set.*up.*a.*call`,
		`schedule.*a.*time`,
		`book.*a.*slot`,
		`calendly`,
		`zoom.*meeting`,
		`teams.*meeting`,
		`google.*meet`,
		`recruiter.*call`,
		`hiring.*manager`,
		`meet.*with.*you`,
	)...)
	patterns = append(patterns, group(model.CategoryAssessmentInvite,
		`online.*assessment`,
		`coding.*challenge`,
		`hackerrank`,
		`codesignal`,
		`technical.*assessment`,
		`complete.*test`,
		`take.*test`,
		`home.*assignment`,
		`take-home`,
		`codility`,
		`leetcode`,
		`skills.*assessment`,
		`technical.*test`,
		`programming.*test`,
		`oa.*link`,
		`assessment.*link`,
	)...)
	patterns = append(patterns, group(model.CategoryOfferLetter,
		`offer.*letter`,
		`pleased.*to.*offer`,
		`extend.*offer`,
		`congratulations.*offer`,
		`offer.*employment`,
		`job.*offer`,
		`compensation.*package`,
		`salary.*offer`,
		`start.*date`,
		`onboarding`,
		`welcome.*to.*the.*team`,
	)...)
	return patterns
}

// Language that signals a message addressed to many candidates at once.
var multiCandidatePatterns = []string{
	`list\s+of.*(?:accepted|selected|shortlisted|eligible|volunteer)`,
	`following\s+(?:candidates|students|applicants|aspirants)`,
	`here\s+are\s+(?:the\s+)?(?:selected|accepted|shortlisted)`,
	`(?:selected|accepted|shortlisted|eligible)\s+(?:candidates|students|applicants)\s*:`,
	`congratulations\s+to\s+(?:the\s+following|all)`,
	`students\s+(?:selected|accepted)\s+for`,
	`candidates\s+moving\s+(?:forward|to\s+the\s+next)`,
	`regret\s+to\s+inform\s+(?:the\s+)?following`,
	`(?:not\s+selected|rejected)\s+(?:candidates|students|applicants)\s*:`,
	`unfortunately.*(?:following|listed)\s+(?:candidates|students)`,
	`will\s+not\s+be\s+(?:proceeding|moving)\s+with\s*:`,
	`(?:candidates|applicants)\s+(?:not|who\s+were\s+not)\s+selected`,
	`attached\s+(?:is|are)\s+the\s+(?:list|names)`,
	`please\s+see\s+(?:the\s+)?(?:list|names)\s+(?:of|below)`,
	`(?:cc|bcc|copied)\s+(?:to|on)\s+(?:this|the)\s+(?:email|message)`,
}

// Roster and placement-cell language. A match here means the user must be
// named in the visible text for the message to concern them.
var candidateListPatterns = []string{
	`list\s+of\s+(?:volunteered|eligible|shortlisted)\s+(?:aspirants|students|candidates)`,
	`(?:find|see)\s+(?:below|attached)\s+the\s+names`,
	`(?:enrollment|roll\s*no|s\.?\s*no)\s+.*(?:name|email)`,
	`eligible\s+volunteer\s+students`,
	`kind\s+attention\s+to\s+(?:the\s+)?aspirants`,
	`hiring\s+for\s+(?:summer\s+)?internship.*batch`,
	`registration\s+link.*(?:students|candidates)`,
	`complete.*registration.*(?:recruitment|placement)`,
	`message\s+clipped`,
}
