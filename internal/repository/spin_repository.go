package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/google/uuid"
)

// SpinRecord mirrors the spins table.  A row is written only after its code
// was atomically consumed, and is immutable afterwards.
type SpinRecord struct {
    ID         string
    CodeHash   string
    PrizeCents int
    IPHash     string
    CreatedAt  time.Time
}

// WinItem is a single awarded prize as returned to the operator dashboard.
type WinItem struct {
    ID         string    `json:"id"`
    PrizeCents int       `json:"prizeCents"`
    CreatedAt  time.Time `json:"createdAt"`
}

// WinsSummary aggregates awarded prizes over a time range.
type WinsSummary struct {
    TotalCents int       `json:"totalCents"`
    Count      int       `json:"count"`
    Items      []WinItem `json:"items"`
}

// maxWinItems caps the item list returned by Summarize.  Totals always
// cover the full range regardless of the cap.
const maxWinItems = 200

// SpinRepo provides data access to the spins table.
type SpinRepo struct {
    db *sql.DB
}

// NewSpinRepo returns a new SpinRepo bound to the provided database.
func NewSpinRepo(db *sql.DB) *SpinRepo { return &SpinRepo{db: db} }

// Insert writes an award row referencing the consumed code's hash and
// returns the generated spin id.
func (r *SpinRepo) Insert(ctx context.Context, codeHash string, prizeCents int, ipHash string) (string, error) {
    id := uuid.NewString()
    const q = `INSERT INTO spins (id, code_hash, prize_cents, ip_hash, created_at) VALUES (?, ?, ?, ?, ?)`
    if _, err := r.db.ExecContext(ctx, q, id, codeHash, prizeCents, ipHash, formatUTC(time.Now())); err != nil {
        return "", err
    }
    return id, nil
}

// Summarize reports the total awarded amount, the award count and the most
// recent awards (newest first, capped) whose timestamps fall in the
// half-open range [from, to).  Read-only; callers supply the range, with
// the trailing-30-days default applied upstream.
func (r *SpinRepo) Summarize(ctx context.Context, from, to time.Time) (WinsSummary, error) {
    fromStr := formatUTC(from)
    toStr := formatUTC(to)

    var sum WinsSummary
    const totals = `SELECT COALESCE(SUM(prize_cents), 0), COUNT(*)
                    FROM spins WHERE created_at >= ? AND created_at < ?`
    if err := r.db.QueryRowContext(ctx, totals, fromStr, toStr).Scan(&sum.TotalCents, &sum.Count); err != nil {
        return WinsSummary{}, err
    }

    const recent = `SELECT id, prize_cents, created_at
                    FROM spins WHERE created_at >= ? AND created_at < ?
                    ORDER BY created_at DESC LIMIT ?`
    rows, err := r.db.QueryContext(ctx, recent, fromStr, toStr, maxWinItems)
    if err != nil {
        return WinsSummary{}, err
    }
    defer rows.Close()

    sum.Items = make([]WinItem, 0, maxWinItems)
    for rows.Next() {
        var it WinItem
        if err := rows.Scan(&it.ID, &it.PrizeCents, &it.CreatedAt); err != nil {
            return WinsSummary{}, err
        }
        sum.Items = append(sum.Items, it)
    }
    if err := rows.Err(); err != nil {
        return WinsSummary{}, err
    }
    return sum, nil
}
