package testlog

import (
	"testing"

	"github.com/danmuck/orwellctl/internal/logging"
	"github.com/rs/zerolog"
)

// Start returns a debug logger bound to t and records the test name.
func Start(t testing.TB) zerolog.Logger {
	t.Helper()
	opts := logging.DefaultOptions(logging.ProfileTest)
	logging.ApplyEnv(&opts)
	opts.Out = zerolog.NewTestWriter(t)
	opts.JSON = false
	logger := logging.New(opts)
	logger.Info().Msgf("test=%s", t.Name())
	return logger
}
