package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/krishhsuri/Orbit/internal/common"
	"github.com/krishhsuri/Orbit/internal/model"
)

type decisionPayload struct {
	Action  *string `json:"action"`
	Company *string `json:"company"`
	Role    *string `json:"role"`
	Status  *string `json:"status"`
	Reason  *string `json:"reason"`
}

type extractionPayload struct {
	Company *string `json:"company"`
	Role    *string `json:"role"`
	JobURL  *string `json:"job_url"`
}

// cleanJSON strips a markdown code fence and any prose around the outermost object.
func cleanJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		return content[start : end+1]
	}
	return strings.TrimSpace(content)
}

func parseDecision(content string) (model.CommitDecision, error) {
	var p decisionPayload
	if err := json.Unmarshal([]byte(cleanJSON(content)), &p); err != nil {
		return model.CommitDecision{}, fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
	}
	if p.Action == nil {
		return model.CommitDecision{}, fmt.Errorf("%w: missing action", common.ErrMalformedResponse)
	}

	decision := model.CommitDecision{
		Company: value(p.Company),
		Role:    value(p.Role),
		Reason:  value(p.Reason),
	}
	switch model.Action(strings.ToLower(strings.TrimSpace(*p.Action))) {
	case model.ActionAddToTracker:
		decision.Action = model.ActionAddToTracker
		decision.Status = MapStatus(value(p.Status))
	case model.ActionDiscard:
		decision.Action = model.ActionDiscard
	default:
		return model.CommitDecision{}, fmt.Errorf("%w: unknown action %q", common.ErrMalformedResponse, *p.Action)
	}
	return decision, nil
}

func parseExtraction(content string) (model.Extraction, error) {
	var p extractionPayload
	if err := json.Unmarshal([]byte(cleanJSON(content)), &p); err != nil {
		return model.Extraction{}, fmt.Errorf("%w: %w", common.ErrMalformedResponse, err)
	}
	return model.Extraction{
		Company: value(p.Company),
		Role:    value(p.Role),
		JobURL:  value(p.JobURL),
	}, nil
}

// value dereferences s, treating placeholder strings as absent.
func value(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	switch strings.ToLower(v) {
	case "null", "none", "n/a", "unknown", "...":
		return ""
	}
	return v
}
