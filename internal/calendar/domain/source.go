package domain

import (
	"errors"
	"strings"
)

// ErrInvalidSource is returned for unknown calendar sources.
var ErrInvalidSource = errors.New("invalid calendar source")

// Source identifies where a calendar event came from.
type Source string

const (
	// SourceGoogle is Google Calendar (OAuth2 + Calendar API).
	SourceGoogle Source = "google"
	// SourceOutlook is Microsoft Outlook/365 (OAuth2 + Microsoft Graph).
	SourceOutlook Source = "outlook"
	// SourceCalDAV is any CalDAV server (Fastmail, Nextcloud, iCloud).
	SourceCalDAV Source = "caldav"
	// SourceManual covers events entered by hand or imported from ICS files.
	SourceManual Source = "manual"
	// SourcePlugin covers events served by out-of-process plugins.
	SourcePlugin Source = "plugin"
)

// String returns the string representation of the source.
func (s Source) String() string {
	return string(s)
}

// IsValid returns true if the source is recognized.
func (s Source) IsValid() bool {
	switch s {
	case SourceGoogle, SourceOutlook, SourceCalDAV, SourceManual, SourcePlugin:
		return true
	default:
		return false
	}
}

// RequiresOAuth returns true if the source authenticates with OAuth2.
func (s Source) RequiresOAuth() bool {
	return s == SourceGoogle || s == SourceOutlook
}

// DisplayName returns a human-readable name for the source.
func (s Source) DisplayName() string {
	switch s {
	case SourceGoogle:
		return "Google Calendar"
	case SourceOutlook:
		return "Microsoft Outlook"
	case SourceCalDAV:
		return "CalDAV"
	case SourceManual:
		return "Manual"
	case SourcePlugin:
		return "Plugin"
	default:
		return string(s)
	}
}

// ParseSource parses a source name. "microsoft" is accepted for outlook.
func ParseSource(s string) (Source, error) {
	name := Source(strings.ToLower(strings.TrimSpace(s)))
	if name == "microsoft" {
		return SourceOutlook, nil
	}
	if !name.IsValid() {
		return "", ErrInvalidSource
	}
	return name, nil
}

// AllSources returns all supported sources.
func AllSources() []Source {
	return []Source{SourceGoogle, SourceOutlook, SourceCalDAV, SourceManual, SourcePlugin}
}
