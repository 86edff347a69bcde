package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sakif/activities-portal/internal/repository"
)

// compile-time check that *DB implements repository.LocalStorage
var _ repository.LocalStorage = (*DB)(nil)

// Get returns the value stored under (visitorID, key), or
// repository.ErrNotFound.
func (db *DB) Get(ctx context.Context, visitorID, key string) (string, error) {
	var value string
	err := db.conn.QueryRowContext(ctx,
		`SELECT value FROM local_storage WHERE visitor_id = ? AND key = ?`,
		visitorID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("sqlite: getting %s for visitor %s: %w", key, visitorID, err)
	}
	return value, nil
}

// Set stores value under (visitorID, key), replacing any previous value.
func (db *DB) Set(ctx context.Context, visitorID, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO local_storage (visitor_id, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (visitor_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		visitorID, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: setting %s for visitor %s: %w", key, visitorID, err)
	}
	return nil
}

// Remove deletes (visitorID, key). Removing an absent key is not an error,
// like localStorage.removeItem.
func (db *DB) Remove(ctx context.Context, visitorID, key string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM local_storage WHERE visitor_id = ? AND key = ?`,
		visitorID, key,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing %s for visitor %s: %w", key, visitorID, err)
	}
	return nil
}

// PurgeBefore deletes every entry not written since cutoff and returns how
// many rows went. Browsers that never come back would otherwise keep their
// slot forever.
func (db *DB) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM local_storage WHERE updated_at < ?`, cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: purging entries before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting purged entries: %w", err)
	}
	return n, nil
}
