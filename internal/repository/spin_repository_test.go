package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"io"
	"strings"
	"testing"
	"time"
)

// stubConnector hands out a single in-memory connection that records every
// query Summarize issues and replays canned rows, so the query shape and
// row scanning can be checked without a MySQL server.
type stubConnector struct{ conn *stubConn }

func (c *stubConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c *stubConnector) Driver() driver.Driver                        { return stubDriver{} }

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return nil, io.EOF }

type capturedQuery struct {
	query string
	args  []driver.NamedValue
}

type stubConn struct {
	queries []capturedQuery
	totals  []driver.Value   // one row for the aggregate query
	recent  [][]driver.Value // rows for the item query
}

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, io.EOF }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return nil, io.EOF }

func (c *stubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.queries = append(c.queries, capturedQuery{query: query, args: args})
	if strings.Contains(query, "SUM") {
		return &stubRows{cols: []string{"total", "count"}, rows: [][]driver.Value{c.totals}}, nil
	}
	return &stubRows{cols: []string{"id", "prize_cents", "created_at"}, rows: c.recent}, nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	pos  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

func TestSummarizeQueryShape(t *testing.T) {
	newer := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)
	conn := &stubConn{
		totals: []driver.Value{int64(3500), int64(2)},
		recent: [][]driver.Value{
			{"spin-2", int64(2500), newer},
			{"spin-1", int64(1000), older},
		},
	}
	db := sql.OpenDB(&stubConnector{conn: conn})
	defer db.Close()

	from := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	sum, err := NewSpinRepo(db).Summarize(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if sum.TotalCents != 3500 || sum.Count != 2 {
		t.Errorf("totals = (%d, %d), want (3500, 2)", sum.TotalCents, sum.Count)
	}
	if len(sum.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(sum.Items))
	}
	// Rows arrive newest first from the database; the slice must keep that
	// order rather than re-sort.
	if sum.Items[0].ID != "spin-2" || sum.Items[1].ID != "spin-1" {
		t.Errorf("item order = [%s, %s], want [spin-2, spin-1]", sum.Items[0].ID, sum.Items[1].ID)
	}
	if !sum.Items[0].CreatedAt.Equal(newer) || sum.Items[0].PrizeCents != 2500 {
		t.Errorf("first item = %+v, want spin-2 at %v for 2500", sum.Items[0], newer)
	}

	if len(conn.queries) != 2 {
		t.Fatalf("got %d queries, want 2", len(conn.queries))
	}
	itemQ := conn.queries[1]
	if !strings.Contains(itemQ.query, "ORDER BY created_at DESC") {
		t.Errorf("item query lacks newest-first ordering: %q", itemQ.query)
	}
	if !strings.Contains(itemQ.query, "LIMIT ?") {
		t.Errorf("item query lacks a limit: %q", itemQ.query)
	}
	if len(itemQ.args) != 3 {
		t.Fatalf("item query got %d args, want 3", len(itemQ.args))
	}
	if got := itemQ.args[2].Value; got != int64(maxWinItems) {
		t.Errorf("limit arg = %v, want %d", got, maxWinItems)
	}

	// Both queries compare created_at against the same UTC-formatted range.
	wantFrom, wantTo := formatUTC(from), formatUTC(to)
	for _, q := range conn.queries {
		if q.args[0].Value != wantFrom || q.args[1].Value != wantTo {
			t.Errorf("range args = (%v, %v), want (%q, %q)", q.args[0].Value, q.args[1].Value, wantFrom, wantTo)
		}
	}
}
