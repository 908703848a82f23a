package setup

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	calendarPlugin "github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/plugin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type staticOAuthProvider struct{}

func (staticOAuthProvider) TokenSource(context.Context, uuid.UUID) (oauth2.TokenSource, error) {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}), nil
}

func TestRegisterImporters_AllSources(t *testing.T) {
	registry := application.NewImporterRegistry()
	host := calendarPlugin.NewHost(nil)
	defer host.Close()

	RegisterImporters(registry, ImporterConfig{
		GoogleOAuth:  staticOAuthProvider{},
		OutlookOAuth: staticOAuthProvider{},
		CalDAV:       CalDAVConfig{URL: "https://caldav.example.com", Username: "user", Password: "pass"},
		ICSPath:      "/tmp/personal.ics",
		PluginHost:   host,
		PluginPaths:  []string{"/opt/cadence/calendar-plugin-ics"},
	})

	assert.Equal(t, []domain.Source{
		domain.SourceGoogle, domain.SourceOutlook, domain.SourceCalDAV, domain.SourceManual, domain.SourcePlugin,
	}, registry.Sources())

	userID := uuid.New()
	for _, source := range []domain.Source{domain.SourceGoogle, domain.SourceOutlook, domain.SourceCalDAV, domain.SourceManual} {
		importer, err := registry.Create(context.Background(), source, userID)
		require.NoError(t, err, source)
		assert.Equal(t, source, importer.Source())
	}

	manual, err := registry.Create(context.Background(), domain.SourceManual, userID)
	require.NoError(t, err)
	_, partial := manual.(application.PartialImporter)
	assert.True(t, partial)
}

func TestRegisterImporters_Empty(t *testing.T) {
	registry := application.NewImporterRegistry()

	RegisterImporters(registry, ImporterConfig{})

	assert.Empty(t, registry.Sources())
}

func TestRegisterImporters_MissingPlugin(t *testing.T) {
	registry := application.NewImporterRegistry()
	host := calendarPlugin.NewHost(nil)
	defer host.Close()
	RegisterImporters(registry, ImporterConfig{
		PluginHost:  host,
		PluginPaths: []string{filepath.Join(t.TempDir(), "missing-plugin")},
	})

	_, err := registry.Create(context.Background(), domain.SourcePlugin, uuid.New())

	assert.ErrorIs(t, err, application.ErrSourceUnavailable)
}

func TestRegisterImporters_CalDAVWithoutUsername(t *testing.T) {
	registry := application.NewImporterRegistry()
	RegisterImporters(registry, ImporterConfig{CalDAV: CalDAVConfig{URL: "https://caldav.example.com"}})

	_, err := registry.Create(context.Background(), domain.SourceCalDAV, uuid.New())

	assert.Error(t, err)
}
