package application

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
)

// ErrSourceUnavailable marks an import that could not reach its source.
var ErrSourceUnavailable = errors.New("calendar source unavailable")

// Importer reads the busy time of one calendar source.
type Importer interface {
	Source() domain.Source
	// Import returns the source's events overlapping [from, to). The result
	// is the complete set for that window.
	Import(ctx context.Context, from, to time.Time) ([]*domain.Event, error)
}

// PartialImporter shares its source with other writers. Stored events it
// does not own survive its imports.
type PartialImporter interface {
	Importer
	Owns(externalID string) bool
}
