package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/google/uuid"
)

// AttemptRepo provides data access to the attempts table.  One row is
// written per redemption call, before the outcome is known, so failed and
// successful tries alike count toward the client's budget.  Rows are
// immutable once written and are keyed purely by the hashed client
// identity; there is no reference back to any code.
type AttemptRepo struct {
    db *sql.DB
}

// NewAttemptRepo returns a new AttemptRepo bound to the provided database.
func NewAttemptRepo(db *sql.DB) *AttemptRepo { return &AttemptRepo{db: db} }

// CountRecent returns the number of attempts recorded for the given client
// hash within the trailing window.  Callers check this before recording the
// current attempt, so the count only ever covers prior tries.
func (r *AttemptRepo) CountRecent(ctx context.Context, ipHash string, window time.Duration) (int, error) {
    const q = `SELECT COUNT(*) FROM attempts
               WHERE ip_hash = ? AND created_at > DATE_SUB(UTC_TIMESTAMP(), INTERVAL ? SECOND)`
    var n int
    err := r.db.QueryRowContext(ctx, q, ipHash, int64(window/time.Second)).Scan(&n)
    if err != nil {
        return 0, err
    }
    return n, nil
}

// Record inserts an attempt row for the given client hash and returns its
// generated id.
func (r *AttemptRepo) Record(ctx context.Context, ipHash string) (string, error) {
    id := uuid.NewString()
    // created_at is written explicitly in UTC so CountRecent's comparison
    // against UTC_TIMESTAMP() sees the same zone.
    const q = `INSERT INTO attempts (id, ip_hash, created_at) VALUES (?, ?, ?)`
    if _, err := r.db.ExecContext(ctx, q, id, ipHash, formatUTC(time.Now())); err != nil {
        return "", err
    }
    return id, nil
}
