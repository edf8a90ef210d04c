package persist

import (
	"context"
	"fmt"
	"time"
)

// LogRow is one saved send_message log.
type LogRow struct {
	Type      string
	Message   string
	Channels  []string
	X, Y, Z   float64
	Verbosity int
	CreatedAt time.Time
}

type LogRepo struct {
	db *DB
}

func NewLogRepo(db *DB) *LogRepo {
	return &LogRepo{db: db}
}

// SaveBatch writes logs in a single transaction.
func (r *LogRepo) SaveBatch(ctx context.Context, logs []LogRow) error {
	if len(logs) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("logs begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, l := range logs {
		channels := l.Channels
		if channels == nil {
			channels = []string{}
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO logs (type, message, channels, x, y, z, verbosity, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			l.Type, l.Message, channels, l.X, l.Y, l.Z, l.Verbosity, l.CreatedAt,
		); err != nil {
			return fmt.Errorf("logs insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}
