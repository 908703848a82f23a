// Package pgnotify turns Postgres change notifications into schedule triggers.
package pgnotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/cadence/internal/scheduling/domain"
	sharedDomain "github.com/felixgeelhaar/cadence/internal/shared/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Channel is the notification channel raised by notify_cadence_recompute().
const Channel = "cadence_recompute"

const (
	minReconnect = 10 * time.Second
	maxReconnect = time.Minute
	pingInterval = 90 * time.Second

	// DefaultDebounce coalesces the per-row notifications of one sync.
	DefaultDebounce = 500 * time.Millisecond
)

// Source yields notifications. *pq.Listener satisfies it.
type Source interface {
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// Listener submits a CalendarSynced trigger for every user whose calendar
// rows changed.
type Listener struct {
	source   Source
	sink     domain.TriggerSink
	clock    sharedDomain.Clock
	logger   *slog.Logger
	debounce time.Duration
	// users are recomputed after a reconnect, since notifications sent while
	// disconnected are lost.
	users []uuid.UUID
}

// Config configures a Listener.
type Config struct {
	Debounce time.Duration
	Users    []uuid.UUID
	Clock    sharedDomain.Clock
	Logger   *slog.Logger
}

// Open connects a pq.Listener to dsn and subscribes to Channel.
func Open(dsn string, sink domain.TriggerSink, cfg Config) (*Listener, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pl := pq.NewListener(dsn, minReconnect, maxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("postgres listener event", "event", ev, "error", err)
		}
	})
	if err := pl.Listen(Channel); err != nil {
		_ = pl.Close()
		return nil, fmt.Errorf("listen on %s: %w", Channel, err)
	}
	return New(pl, sink, cfg), nil
}

// New creates a Listener over an existing source.
func New(source Source, sink domain.TriggerSink, cfg Config) *Listener {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Clock == nil {
		cfg.Clock = sharedDomain.SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Listener{
		source:   source,
		sink:     sink,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
		debounce: cfg.Debounce,
		users:    cfg.Users,
	}
}

// Run consumes notifications until ctx is done, then closes the source.
func (l *Listener) Run(ctx context.Context) error {
	defer l.source.Close()

	l.logger.Info("postgres listener started", "channel", Channel)
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	pending := map[uuid.UUID]struct{}{}
	var flush <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("postgres listener stopped")
			return ctx.Err()

		case n, ok := <-l.source.NotificationChannel():
			if !ok {
				return errors.New("postgres listener closed")
			}
			for _, id := range l.usersFor(n) {
				pending[id] = struct{}{}
			}
			if flush == nil && len(pending) > 0 {
				flush = time.After(l.debounce)
			}

		case <-flush:
			l.submit(ctx, pending)
			pending = map[uuid.UUID]struct{}{}
			flush = nil

		case <-ping.C:
			if err := l.source.Ping(); err != nil {
				l.logger.Warn("postgres listener ping failed", "error", err)
			}
		}
	}
}

// usersFor maps a notification to the users to recompute. A nil
// notification means the connection was re-established.
func (l *Listener) usersFor(n *pq.Notification) []uuid.UUID {
	if n == nil {
		l.logger.Info("postgres listener reconnected", "users", len(l.users))
		return l.users
	}
	if n.Channel != Channel {
		return nil
	}
	id, err := uuid.Parse(n.Extra)
	if err != nil {
		l.logger.Warn("ignoring notification with invalid user id", "payload", n.Extra)
		return nil
	}
	return []uuid.UUID{id}
}

func (l *Listener) submit(ctx context.Context, users map[uuid.UUID]struct{}) {
	now := l.clock.Now()
	for id := range users {
		if err := l.sink.Submit(ctx, id, domain.CalendarSynced{Time: now}); err != nil {
			l.logger.Error("failed to submit calendar trigger", "user_id", id, "error", err)
		}
	}
}
