// Package telemetry configures the service's zerolog output, adding an
// always-on file sink mirroring log.py's single app.log FileHandler at
// DEBUG level with "{asctime} - {levelname} - {message}" formatting.
package telemetry

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const defaultLogFile = "app.log"

// Configure sets up the global zerolog logger: a human-readable console
// writer on stderr for interactive use, fanned out to a DEBUG-level file
// sink at ORDERBOOKD_LOG_FILE (default app.log), matching log.py's
// LogHandler.
func Configure() (closeFn func(), err error) {
	zerolog.TimeFieldFormat = "2006-01-02 15:04:05"

	logPath := os.Getenv("ORDERBOOKD_LOG_FILE")
	if logPath == "" {
		logPath = defaultLogFile
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	file := zerolog.ConsoleWriter{
		Out:        f,
		NoColor:    true,
		TimeFormat: "2006-01-02 15:04:05",
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: func(i interface{}) string {
			return fmt.Sprintf("- %s -", strings.ToUpper(fmt.Sprint(i)))
		},
	}
	multi := zerolog.MultiLevelWriter(console, file)

	log.Logger = zerolog.New(multi).Level(zerolog.DebugLevel).With().Timestamp().Logger()

	return func() { f.Close() }, nil
}
