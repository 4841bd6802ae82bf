// Package logging builds the process logger.
package logging

import (
	"fmt"
	"strings"

	"homebox-voice-mcp/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects where log output goes.
type Options struct {
	// Verbose forces debug level regardless of config.
	Verbose bool
	// ToFile writes to cfg.LogFile instead of stderr. Stdio transport needs
	// this because stderr output interferes with MCP framing on some clients.
	ToFile bool
}

// New builds a production JSON logger from server config.
func New(cfg config.ServerConfig, opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if name := strings.ToLower(strings.TrimSpace(cfg.LogLevel)); name != "" {
		var err error
		if level, err = zapcore.ParseLevel(name); err != nil {
			return nil, err
		}
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if opts.ToFile && cfg.LogFile != "" {
		zc.OutputPaths = []string{cfg.LogFile}
		zc.ErrorOutputPaths = []string{cfg.LogFile}
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.With(zap.String("server", cfg.Name)), nil
}
