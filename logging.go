package metric

import (
	"os"

	"github.com/rs/zerolog"
)

// defaultLogger is the library-wide fallback logger used by any component
// constructed without an explicit zerolog.Logger (A1). It writes to stderr
// with no level filter, so a consumer that never configures logging still
// sees pusher and handler failures.
var defaultLogger = zerolog.New(os.Stderr).With().Timestamp().Str("component", "metric").Logger()

// SetLogger replaces the library-wide fallback logger.
func SetLogger(l zerolog.Logger) {
	defaultLogger = l
}
