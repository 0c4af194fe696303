package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cimillas/seatlease/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ChangeSink receives decoded availability changes.
type ChangeSink interface {
	Publish(domain.AvailabilityChange) int
	// Resync is called after a reconnect, when notifications may have been
	// missed.
	Resync()
}

// ChangeListener LISTENs on the availability channel and forwards every
// notification to a sink.
type ChangeListener struct {
	pool    *pgxpool.Pool
	channel string
	sink    ChangeSink
	logger  *slog.Logger
	backoff time.Duration
}

func NewChangeListener(pool *pgxpool.Pool, channel string, sink ChangeSink, logger *slog.Logger) *ChangeListener {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChangeListener{
		pool:    pool,
		channel: channel,
		sink:    sink,
		logger:  logger,
		backoff: time.Second,
	}
}

// Run listens until ctx is cancelled, reconnecting after connection errors.
func (l *ChangeListener) Run(ctx context.Context) error {
	connected := false
	for {
		err := l.listen(ctx, func() {
			if connected {
				l.logger.InfoContext(ctx, "change listener reconnected", slog.String("channel", l.channel))
				l.sink.Resync()
			}
			connected = true
		})
		if ctx.Err() != nil {
			return nil
		}
		l.logger.WarnContext(ctx, "change listener interrupted",
			slog.String("channel", l.channel),
			slog.Any("error", err),
			slog.Duration("retry_in", l.backoff),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.backoff):
		}
	}
}

func (l *ChangeListener) listen(ctx context.Context, onListen func()) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listener conn: %w", err)
	}
	// A LISTENing connection must not go back to the pool.
	pc := conn.Hijack()
	defer pc.Close(context.Background())

	if _, err := pc.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	onListen()

	for {
		n, err := pc.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		var change domain.AvailabilityChange
		if err := json.Unmarshal([]byte(n.Payload), &change); err != nil {
			l.logger.WarnContext(ctx, "discarding malformed change", slog.Any("error", err))
			continue
		}
		l.sink.Publish(change)
	}
}
