package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdmit(t *testing.T) {
	f := New()

	tests := []struct {
		name     string
		sender   string
		subject  string
		admitted bool
		reason   Reason
	}{
		{
			name:     "linkedin application sent",
			sender:   "jobs-noreply@linkedin.com",
			subject:  "Your application was sent to Acme",
			admitted: true,
			reason:   ReasonJobPlatform,
		},
		{
			name:     "platform wins over promo subject",
			sender:   "no-reply@greenhouse.io",
			subject:  "50% off everything, limited time",
			admitted: true,
			reason:   ReasonJobPlatform,
		},
		{
			name:     "job signal wins over blocked sender",
			sender:   "newsletter@acme.com",
			subject:  "Interview availability",
			admitted: true,
			reason:   ReasonJobSignal,
		},
		{
			name:     "blocked sender",
			sender:   "deals@shop.example",
			subject:  "Big savings inside",
			admitted: false,
			reason:   ReasonBlockedSender,
		},
		{
			name:     "promotional subject",
			sender:   "hello@shop.example",
			subject:  "Flash SALE ends tonight",
			admitted: false,
			reason:   ReasonPromoSubject,
		},
		{
			name:     "default allow",
			sender:   "friend@example.org",
			subject:  "Lunch tomorrow?",
			admitted: true,
			reason:   ReasonDefault,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := f.Admit(tt.sender, tt.subject)
			assert.Equal(t, tt.admitted, v.Admitted)
			assert.Equal(t, tt.reason, v.Reason)
		})
	}
}

func TestAdmitPlatformSenderIgnoresSubject(t *testing.T) {
	f := New()
	subjects := []string{"", "unsubscribe", "weekly digest", "click here", "free trial", "% off"}
	for _, platform := range jobPlatformSenders {
		for _, subject := range subjects {
			v := f.Admit("notify@"+platform+"example", subject)
			assert.True(t, v.Admitted, "%s / %q", platform, subject)
		}
	}
}

func TestAdmitRejectsPromoWithoutSignals(t *testing.T) {
	f := New()
	for _, p := range promoSubjectPatterns {
		v := f.Admit("store@shop.example", "Today only "+p)
		assert.False(t, v.Admitted, p)
	}
}

func TestIsPotentialJobEmail(t *testing.T) {
	assert.True(t, IsPotentialJobEmail("recruiting@acme.com", "Hello"))
	assert.True(t, IsPotentialJobEmail("x@example.com", "Next steps for your candidacy"))
	assert.True(t, IsPotentialJobEmail("alerts@indeed.com", "New matches"))
	assert.False(t, IsPotentialJobEmail("friend@example.org", "Lunch tomorrow?"))
	// "hiring" is an admit signal but not a potential-job signal in the subject.
	assert.False(t, IsPotentialJobEmail("friend@example.org", "We are hiring"))
	assert.True(t, New().Admit("friend@example.org", "We are hiring").Admitted)
}
