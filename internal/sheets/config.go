// Package sheets exports tracked applications to a Google Sheets spreadsheet.
package sheets

import (
	"fmt"
	"time"
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SpreadsheetName:  "Job Applications",
		TimeZone:         "UTC",
		BatchSize:        500,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
		EnableFormatting: true,
	}
}

// Configured reports whether any authentication method is set.
func (c *Config) Configured() bool {
	return c.ServiceAccountPath != "" || c.ClientID != "" || c.RefreshToken != ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("no authentication method configured")
	}
	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}
	if c.SpreadsheetID == "" && c.SpreadsheetName == "" {
		return fmt.Errorf("spreadsheet id or name is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	return nil
}
