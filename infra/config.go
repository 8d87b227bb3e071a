package infra

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds process settings. Values come from SCRIPTFLOW_* environment
// variables; command line flags override them.
type Config struct {
	DataDir  string
	APIPort  int
	Tick     time.Duration
	LogLevel string
	// MaxLogs bounds each instance's in-memory log.
	MaxLogs int
}

func DefaultConfig() Config {
	return Config{
		DataDir:  "data",
		APIPort:  8080,
		Tick:     16 * time.Millisecond,
		LogLevel: "info",
		MaxLogs:  1000,
	}
}

// LoadConfig reads the environment on top of DefaultConfig. Malformed
// values keep the default.
func LoadConfig() Config {
	c := DefaultConfig()
	if v := os.Getenv("SCRIPTFLOW_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v, err := strconv.Atoi(os.Getenv("SCRIPTFLOW_API_PORT")); err == nil && v > 0 {
		c.APIPort = v
	}
	if v, err := time.ParseDuration(os.Getenv("SCRIPTFLOW_TICK")); err == nil && v > 0 {
		c.Tick = v
	}
	if v := os.Getenv("SCRIPTFLOW_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v, err := strconv.Atoi(os.Getenv("SCRIPTFLOW_MAX_LOGS")); err == nil && v > 0 {
		c.MaxLogs = v
	}
	return c
}

// NewLogger builds the process logger at the given level. Unknown levels
// fall back to info.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg.Build()
}
