// Package logger configures the process-wide zerolog logger.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets up the global logger with a console writer.  Debug mode lowers
// the level threshold; production stays at info.  All timestamps are UTC so
// log lines line up with the DATETIME values in the database.
func Init(debug bool) {
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}).With().Timestamp().Logger()
}
