package obs

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	loggerOnce sync.Once
	logger     zerolog.Logger
)

// Setup configures the process-wide logger. In dev mode output is
// human-readable console lines at debug level; otherwise JSON at info.
func Setup(dev bool) zerolog.Logger {
	loggerOnce.Do(func() {
		level := zerolog.InfoLevel
		if dev {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
		if dev {
			logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, FormatTimestamp: func(i any) string {
				return time.Now().Format(time.RFC3339)
			}})
		}
	})
	return logger
}

// Logger returns the shared logger, initializing it with production
// defaults if Setup was never called.
func Logger() zerolog.Logger {
	return Setup(false)
}
