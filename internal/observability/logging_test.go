package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/complaint-service/internal/config"
)

func TestNewLoggerLevels(t *testing.T) {
	app := config.AppConfig{Name: "complaint-service", Env: "test"}

	logger, err := NewLogger(app, config.LoggerConfig{Level: "DEBUG"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger(app, config.LoggerConfig{Level: "loud"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}
