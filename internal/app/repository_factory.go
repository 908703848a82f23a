package app

import (
	"database/sql"
	"errors"
	"fmt"

	calendarDomain "github.com/felixgeelhaar/cadence/internal/calendar/domain"
	calendarPersistence "github.com/felixgeelhaar/cadence/internal/calendar/infrastructure/persistence"
	"github.com/felixgeelhaar/cadence/internal/productivity/domain/task"
	productivityPersistence "github.com/felixgeelhaar/cadence/internal/productivity/infrastructure/persistence"
	projectDomain "github.com/felixgeelhaar/cadence/internal/projects/domain"
	projectPersistence "github.com/felixgeelhaar/cadence/internal/projects/infrastructure/persistence"
	schedulingDomain "github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	schedulingPersistence "github.com/felixgeelhaar/cadence/internal/scheduling/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	errNoPostgresPool = errors.New("PostgreSQL pool not configured")
	errNoSQLiteDB     = errors.New("SQLite database not configured")
)

// Repositories groups every store the application uses.
type Repositories struct {
	Tasks       task.Repository
	Projects    projectDomain.Repository
	Blocks      schedulingDomain.BlockRepository
	Preferences schedulingDomain.PreferencesRepository
	Events      calendarDomain.EventRepository
	SyncStates  calendarDomain.SyncStateRepository
	Outbox      outbox.Repository
	UnitOfWork  sharedApplication.UnitOfWork
}

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	driver database.Driver
	pool   *pgxpool.Pool
	db     *sql.DB
}

// NewPostgresRepositoryFactory creates a factory backed by pool.
func NewPostgresRepositoryFactory(pool *pgxpool.Pool) *RepositoryFactory {
	return &RepositoryFactory{driver: database.DriverPostgres, pool: pool}
}

// NewSQLiteRepositoryFactory creates a factory backed by db.
func NewSQLiteRepositoryFactory(db *sql.DB) *RepositoryFactory {
	return &RepositoryFactory{driver: database.DriverSQLite, db: db}
}

// Driver returns the database driver.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Build creates every repository plus the matching unit of work.
func (f *RepositoryFactory) Build() (*Repositories, error) {
	switch f.driver {
	case database.DriverPostgres:
		pool, err := f.getPostgresPool()
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Tasks:       productivityPersistence.NewPostgresTaskRepository(pool),
			Projects:    projectPersistence.NewPostgresProjectRepository(pool),
			Blocks:      schedulingPersistence.NewPostgresBlockRepository(pool),
			Preferences: schedulingPersistence.NewPostgresPreferencesRepository(pool),
			Events:      calendarPersistence.NewPostgresEventRepository(pool),
			SyncStates:  calendarPersistence.NewPostgresSyncStateRepository(pool),
			Outbox:      outbox.NewPostgresRepository(pool),
			UnitOfWork:  sharedPersistence.NewPostgresUnitOfWork(pool),
		}, nil

	case database.DriverSQLite:
		db, err := f.getSQLiteDB()
		if err != nil {
			return nil, err
		}
		return &Repositories{
			Tasks:       productivityPersistence.NewSQLiteTaskRepository(db),
			Projects:    projectPersistence.NewSQLiteProjectRepository(db),
			Blocks:      schedulingPersistence.NewSQLiteBlockRepository(db),
			Preferences: schedulingPersistence.NewSQLitePreferencesRepository(db),
			Events:      calendarPersistence.NewSQLiteEventRepository(db),
			SyncStates:  calendarPersistence.NewSQLiteSyncStateRepository(db),
			Outbox:      outbox.NewSQLiteRepository(db),
			UnitOfWork:  sharedPersistence.NewSQLiteUnitOfWork(db),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

func (f *RepositoryFactory) getPostgresPool() (*pgxpool.Pool, error) {
	if f.pool == nil {
		return nil, errNoPostgresPool
	}
	return f.pool, nil
}

func (f *RepositoryFactory) getSQLiteDB() (*sql.DB, error) {
	if f.db == nil {
		return nil, errNoSQLiteDB
	}
	return f.db, nil
}
