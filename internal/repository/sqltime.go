package repository

import "time"

// sqlTimeLayout matches the DATETIME columns.  Every timestamp is written
// from Go in UTC through formatUTC; the only server-side clock the queries
// consult is UTC_TIMESTAMP().  Stored and compared values therefore share
// one zone regardless of the time_zone the server session runs in — a
// CURRENT_TIMESTAMP column default would instead write in the session
// zone and silently shift the attempt window and wins ranges.
const sqlTimeLayout = "2006-01-02 15:04:05"

func formatUTC(t time.Time) string { return t.UTC().Format(sqlTimeLayout) }
