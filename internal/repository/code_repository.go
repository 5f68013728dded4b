package repository

import (
    "context"
    "database/sql"
    "time"
)

// CodeRecord mirrors the schema of the codes table.  Codes are keyed by the
// SHA-256 hash of their plaintext; the plaintext itself is never stored.
// A code is redeemable while uses < max_uses and now < expires_at.  Rows
// are never deleted: a spent or expired code stays behind for auditing.
type CodeRecord struct {
    CodeHash  string
    ExpiresAt time.Time
    MaxUses   uint32
    Uses      uint32
    CreatedAt time.Time
}

// CodeRepo encapsulates database operations for redemption codes.
type CodeRepo struct {
    db *sql.DB
}

// NewCodeRepo returns a new CodeRepo bound to the given database.
func NewCodeRepo(db *sql.DB) *CodeRepo { return &CodeRepo{db: db} }

// Upsert stores a fresh single-use code record for the given hash.  When a
// row with the same hash already exists its state is reset: new expiry,
// uses back to zero.  With a five-digit keyspace the occasional plaintext
// collision is expected, and resetting the record is the accepted policy
// rather than an error.
func (r *CodeRepo) Upsert(ctx context.Context, codeHash string, expiresAt time.Time) error {
    // created_at keeps the first issuance time on a collision; only the
    // expiry and counters are re-armed.
    const q = `INSERT INTO codes (code_hash, expires_at, max_uses, uses, created_at)
               VALUES (?, ?, 1, 0, ?)
               ON DUPLICATE KEY UPDATE expires_at = VALUES(expires_at), max_uses = 1, uses = 0`
    _, err := r.db.ExecContext(ctx, q, codeHash, formatUTC(expiresAt), formatUTC(time.Now()))
    return err
}

// Consume atomically spends one use of the code identified by hash.  The
// single conditional UPDATE is the serialization point for the whole
// system: concurrent redemptions of the same code race on it, and the row
// guard (uses < max_uses AND expiry in the future) guarantees at most one
// of them increments past the threshold.  It returns true when exactly one
// row was affected, false when the code is unknown, spent or expired.
func (r *CodeRepo) Consume(ctx context.Context, codeHash string) (bool, error) {
    const q = `UPDATE codes
               SET uses = uses + 1
               WHERE code_hash = ? AND uses < max_uses AND UTC_TIMESTAMP() < expires_at`
    res, err := r.db.ExecContext(ctx, q, codeHash)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n == 1, nil
}

// Get loads a code record by hash.  It returns sql.ErrNoRows when the hash
// is unknown.  Used by report tooling and tests, not by the hot path.
func (r *CodeRepo) Get(ctx context.Context, codeHash string) (*CodeRecord, error) {
    const q = `SELECT code_hash, expires_at, max_uses, uses, created_at
               FROM codes WHERE code_hash = ?`
    var rec CodeRecord
    err := r.db.QueryRowContext(ctx, q, codeHash).Scan(
        &rec.CodeHash, &rec.ExpiresAt, &rec.MaxUses, &rec.Uses, &rec.CreatedAt,
    )
    if err != nil {
        return nil, err
    }
    return &rec, nil
}
