// Package model defines the core domain models used throughout the application.
package model

import (
	"strings"
	"time"
)

// RawEmail is one inbox message as delivered by the mailbox collaborator.
// SourceID is the identity key used for idempotent intake.
type RawEmail struct {
	ReceivedAt  time.Time `json:"received_at"`
	SourceID    string    `json:"source_id"`
	ThreadID    string    `json:"thread_id,omitempty"`
	Subject     string    `json:"subject"`
	FromAddress string    `json:"from_address"`
	FromName    string    `json:"from_name,omitempty"`
	Snippet     string    `json:"snippet"`
	BodyPreview string    `json:"body_preview,omitempty"`
}

// Text returns the visible text used by the local classifiers.
// The body preview is preferred; the snippet is the fallback.
func (e RawEmail) Text() string {
	body := e.BodyPreview
	if body == "" {
		body = e.Snippet
	}
	return strings.TrimSpace(e.Subject + " " + body)
}

// Body returns the best available body text.
func (e RawEmail) Body() string {
	if e.BodyPreview != "" {
		return e.BodyPreview
	}
	return e.Snippet
}

// IsMalformed reports whether the message lacks the fields required for classification.
func (e RawEmail) IsMalformed() bool {
	return strings.TrimSpace(e.Subject) == "" &&
		strings.TrimSpace(e.Snippet) == "" &&
		strings.TrimSpace(e.BodyPreview) == ""
}

// ParseSender splits a From header such as `"Jane Doe" <jane@acme.com>` into
// its display name and address. Values without angle brackets are treated as
// a bare address.
func ParseSender(from string) (name, address string) {
	from = strings.TrimSpace(from)
	open := strings.LastIndex(from, "<")
	end := strings.LastIndex(from, ">")
	if open >= 0 && end > open {
		address = strings.TrimSpace(from[open+1 : end])
		name = strings.Trim(strings.TrimSpace(from[:open]), `"'`)
		return name, address
	}
	return "", from
}
