// Package filter implements the first, cheapest layer of the inbox cascade:
// an admit/reject heuristic over sender and subject.
package filter

import (
	"log/slog"
	"strings"
)

// Reason explains why a verdict was reached.
type Reason string

// Verdict reasons, in evaluation order.
const (
	ReasonJobPlatform   Reason = "job_platform"
	ReasonJobSignal     Reason = "job_signal"
	ReasonBlockedSender Reason = "blocked_sender"
	ReasonPromoSubject  Reason = "promo_subject"
	ReasonDefault       Reason = "default_allow"
)

// Verdict is the outcome of a quick filter check.
type Verdict struct {
	Reason   Reason
	Matched  string
	Admitted bool
}

// Substrings of the sender address that identify a job platform or ATS.
var jobPlatformSenders = []string{
	"linkedin.com", "indeed.com", "glassdoor.com", "monster.com",
	"ziprecruiter.com", "greenhouse.io", "lever.co", "workable.com",
	"ashbyhq.com", "smartrecruiters.com", "myworkdayjobs.com",
	"taleo.net", "icims.com", "jobvite.com", "workday.com",
	"wellfound.com", "angellist.com", "angel.co", "hired.com",
	"triplebyte.com", "otta.com", "huntr.co", "builtin.com",
	"hire.", "careers.", "jobs.", "recruiting.", "talent.",
}

var subjectJobSignals = []string{
	"application", "applied", "interview", "offer",
	"position", "role", "opportunity", "candidate",
	"assessment", "coding", "next steps", "thank you for",
	"regarding your", "following up", "recruiter",
	"hiring", "job", "career", "resume", "cv",
	"shortlisted", "profile", "vacancy", "opening",
	"talent", "screening", "onboarding", "background check",
	"hackerrank", "codesignal", "codility", "leetcode",
	"technical", "phone screen", "video call", "zoom",
	"calendly", "schedule", "availability", "meet",
	"congratulations", "unfortunately", "regret",
	"selected", "moving forward", "proceed",
}

var blockedSenderPatterns = []string{
	"newsletter", "marketing", "promo", "deals", "offers",
	"digest", "weekly-digest", "recommendation", "news",
	"unsubscribe", "mailer-daemon",
}

var promoSubjectPatterns = []string{
	"unsubscribe", "newsletter", "weekly digest", "sale", "discount",
	"% off", "limited time", "act now", "free trial", "click here",
}

// Narrower lists used by IsPotentialJobEmail.
var (
	potentialSubjectSignals = subjectJobSignals[:15]
	potentialSenderSignals  = []string{"recruit", "talent", "hiring", "careers", "hr@", "jobs@"}
)

// QuickFilter is a pure, stateless admit/reject heuristic.
type QuickFilter struct{}

// New returns a QuickFilter.
func New() QuickFilter {
	return QuickFilter{}
}

// Admit decides whether an email should continue down the cascade.
// Job platforms and job signals short-circuit to admit; blocked senders and
// promotional subjects reject; everything else is admitted.
func (QuickFilter) Admit(sender, subject string) Verdict {
	senderLower := strings.ToLower(sender)
	subjectLower := strings.ToLower(subject)

	if m := firstContained(senderLower, jobPlatformSenders); m != "" {
		return Verdict{Admitted: true, Reason: ReasonJobPlatform, Matched: m}
	}
	if m := firstContained(subjectLower, subjectJobSignals); m != "" {
		return Verdict{Admitted: true, Reason: ReasonJobSignal, Matched: m}
	}
	if m := firstContained(senderLower, blockedSenderPatterns); m != "" {
		slog.Debug("Quick filter rejected sender", "sender", sender, "pattern", m)
		return Verdict{Admitted: false, Reason: ReasonBlockedSender, Matched: m}
	}
	if m := firstContained(subjectLower, promoSubjectPatterns); m != "" {
		slog.Debug("Quick filter rejected subject", "subject", subject, "pattern", m)
		return Verdict{Admitted: false, Reason: ReasonPromoSubject, Matched: m}
	}
	return Verdict{Admitted: true, Reason: ReasonDefault}
}

// IsPotentialJobEmail is a stricter positive check: it requires an explicit
// job signal in the subject or sender rather than defaulting to admit.
func IsPotentialJobEmail(sender, subject string) bool {
	senderLower := strings.ToLower(sender)
	subjectLower := strings.ToLower(subject)

	return firstContained(subjectLower, potentialSubjectSignals) != "" ||
		firstContained(senderLower, potentialSenderSignals) != "" ||
		firstContained(senderLower, jobPlatformSenders) != ""
}

// IsJobPlatform reports whether the sender belongs to a known job platform.
func IsJobPlatform(sender string) bool {
	return firstContained(strings.ToLower(sender), jobPlatformSenders) != ""
}

func firstContained(s string, needles []string) string {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return n
		}
	}
	return ""
}
