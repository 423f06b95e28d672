package observability

import (
	"log/slog"

	"github.com/couchcryptid/aqi-forecast-etl/internal/config"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// newSharedLogger is swapped in tests to capture the arguments.
var newSharedLogger = sharedobs.NewLogger

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and makes
// it the slog default.
func NewLogger(cfg *config.Config) *slog.Logger {
	return newSharedLogger(cfg.LogLevel, cfg.LogFormat)
}
