// Package oauth builds OAuth2 token sources for calendar importers.
package oauth

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
)

// ErrNoRefreshToken is returned when a provider has no stored refresh token.
var ErrNoRefreshToken = errors.New("no refresh token configured")

// GoogleCalendarScope is the read-only Google Calendar scope.
const GoogleCalendarScope = "https://www.googleapis.com/auth/calendar.readonly"

// OutlookCalendarScope is the read-only Microsoft Graph calendar scope.
const OutlookCalendarScope = "https://graph.microsoft.com/Calendars.Read"

// RefreshTokenProvider exchanges a long-lived refresh token for access
// tokens. One token source is kept per user so refreshed tokens are reused.
type RefreshTokenProvider struct {
	config       *oauth2.Config
	refreshToken string

	mu      sync.Mutex
	sources map[uuid.UUID]oauth2.TokenSource
}

// NewRefreshTokenProvider creates a provider for config.
func NewRefreshTokenProvider(config *oauth2.Config, refreshToken string) *RefreshTokenProvider {
	return &RefreshTokenProvider{
		config:       config,
		refreshToken: refreshToken,
		sources:      make(map[uuid.UUID]oauth2.TokenSource),
	}
}

// NewGoogleProvider configures Google's OAuth2 endpoint.
func NewGoogleProvider(clientID, clientSecret, refreshToken string) *RefreshTokenProvider {
	return NewRefreshTokenProvider(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoints.Google,
		Scopes:       []string{GoogleCalendarScope},
	}, refreshToken)
}

// NewOutlookProvider configures the Microsoft identity platform for tenant.
// An empty tenant means "common".
func NewOutlookProvider(tenant, clientID, clientSecret, refreshToken string) *RefreshTokenProvider {
	if tenant == "" {
		tenant = "common"
	}
	return NewRefreshTokenProvider(&oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     endpoints.AzureAD(tenant),
		Scopes:       []string{OutlookCalendarScope, "offline_access"},
	}, refreshToken)
}

// TokenSource returns the cached token source for userID.
func (p *RefreshTokenProvider) TokenSource(ctx context.Context, userID uuid.UUID) (oauth2.TokenSource, error) {
	if p.refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if ts, ok := p.sources[userID]; ok {
		return ts, nil
	}
	// The token source outlives ctx, so it must not carry its cancellation.
	ts := oauth2.ReuseTokenSource(nil, p.config.TokenSource(context.WithoutCancel(ctx), &oauth2.Token{RefreshToken: p.refreshToken}))
	p.sources[userID] = ts
	return ts, nil
}
