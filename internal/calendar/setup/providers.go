// Package setup registers the configured calendar importers.
package setup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/application"
	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/caldav"
	googleCal "github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/google"
	"github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/ics"
	microsoftCal "github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/microsoft"
	calendarPlugin "github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/plugin"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// OAuthTokenProvider provides OAuth2 tokens for a user.
type OAuthTokenProvider interface {
	TokenSource(ctx context.Context, userID uuid.UUID) (oauth2.TokenSource, error)
}

// CalDAVConfig locates a CalDAV calendar.
type CalDAVConfig struct {
	URL          string
	Username     string
	Password     string
	CalendarPath string
}

// ImporterConfig holds everything needed to build the importers. Sources
// left empty are not registered.
type ImporterConfig struct {
	GoogleOAuth      OAuthTokenProvider
	GoogleCalendarID string

	OutlookOAuth      OAuthTokenProvider
	OutlookCalendarID string

	CalDAV CalDAVConfig

	ICSPath string

	PluginHost  *calendarPlugin.Host
	PluginPaths []string

	Location *time.Location
	Clock    sharedDomain.Clock
	Logger   *slog.Logger
}

// RegisterImporters registers a factory for every configured source.
func RegisterImporters(registry *application.ImporterRegistry, config ImporterConfig) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := config.Clock
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}

	if config.GoogleOAuth != nil {
		registry.Register(domain.SourceGoogle, func(_ context.Context, userID uuid.UUID) (application.Importer, error) {
			importer := googleCal.NewImporter(config.GoogleOAuth, userID, logger).
				WithLocation(config.Location).
				WithClock(clock)
			if config.GoogleCalendarID != "" {
				importer.WithCalendarID(config.GoogleCalendarID)
			}
			return importer, nil
		})
		logger.Debug("registered calendar importer", "source", domain.SourceGoogle)
	}

	if config.OutlookOAuth != nil {
		registry.Register(domain.SourceOutlook, func(_ context.Context, userID uuid.UUID) (application.Importer, error) {
			importer := microsoftCal.NewImporter(config.OutlookOAuth, userID, logger).
				WithLocation(config.Location).
				WithClock(clock)
			if config.OutlookCalendarID != "" {
				importer.WithCalendarID(config.OutlookCalendarID)
			}
			return importer, nil
		})
		logger.Debug("registered calendar importer", "source", domain.SourceOutlook)
	}

	if config.CalDAV.URL != "" {
		dav := config.CalDAV
		registry.Register(domain.SourceCalDAV, func(_ context.Context, userID uuid.UUID) (application.Importer, error) {
			if dav.Username == "" {
				return nil, fmt.Errorf("caldav username not configured")
			}
			return caldav.NewImporter(dav.URL, dav.Username, dav.Password, userID, logger).
				WithCalendarPath(dav.CalendarPath).
				WithLocation(config.Location).
				WithClock(clock), nil
		})
		logger.Debug("registered calendar importer", "source", domain.SourceCalDAV)
	}

	if config.ICSPath != "" {
		registry.Register(domain.SourceManual, func(_ context.Context, userID uuid.UUID) (application.Importer, error) {
			return ics.NewImporter(config.ICSPath, userID, logger).
				WithLocation(config.Location).
				WithClock(clock), nil
		})
		logger.Debug("registered calendar importer", "source", domain.SourceManual)
	}

	if config.PluginHost != nil && len(config.PluginPaths) > 0 {
		host, paths := config.PluginHost, config.PluginPaths
		registry.Register(domain.SourcePlugin, func(_ context.Context, userID uuid.UUID) (application.Importer, error) {
			sources := make([]calendarPlugin.NamedSource, 0, len(paths))
			for _, path := range paths {
				source, err := host.Launch(path)
				if err != nil {
					return nil, fmt.Errorf("%w: %v", application.ErrSourceUnavailable, err)
				}
				sources = append(sources, source)
			}
			return calendarPlugin.NewImporter(userID, logger, sources...).
				WithLocation(config.Location).
				WithClock(clock), nil
		})
		logger.Debug("registered calendar importer", "source", domain.SourcePlugin, "plugins", len(paths))
	}
}
