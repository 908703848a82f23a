package application

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/felixgeelhaar/cadence/internal/calendar/domain"
	"github.com/google/uuid"
)

// ErrSourceNotRegistered is returned for a source without an importer.
var ErrSourceNotRegistered = errors.New("calendar source not registered")

// ImporterFactory creates the importer of one source for a user.
type ImporterFactory func(ctx context.Context, userID uuid.UUID) (Importer, error)

// ImporterRegistry maps calendar sources to importer factories.
type ImporterRegistry struct {
	mu        sync.RWMutex
	factories map[domain.Source]ImporterFactory
}

// NewImporterRegistry creates an empty registry.
func NewImporterRegistry() *ImporterRegistry {
	return &ImporterRegistry{factories: make(map[domain.Source]ImporterFactory)}
}

// Register sets the factory for source, replacing any earlier one.
func (r *ImporterRegistry) Register(source domain.Source, factory ImporterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[source] = factory
}

// Has reports whether source is registered.
func (r *ImporterRegistry) Has(source domain.Source) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[source]
	return ok
}

// Sources returns the registered sources in domain.AllSources order.
func (r *ImporterRegistry) Sources() []domain.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sources []domain.Source
	for _, s := range domain.AllSources() {
		if _, ok := r.factories[s]; ok {
			sources = append(sources, s)
		}
	}
	return sources
}

// Create builds the importer for source.
func (r *ImporterRegistry) Create(ctx context.Context, source domain.Source, userID uuid.UUID) (Importer, error) {
	r.mu.RLock()
	factory, ok := r.factories[source]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotRegistered, source)
	}
	return factory(ctx, userID)
}
