package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"prompt-feeder/internal/runstore"
)

// newRunLogger builds the structured run log. It goes to logFile when given,
// otherwise to stderr next to the console lines.
func newRunLogger(verbose bool, logFile, runID string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if strings.TrimSpace(logFile) != "" {
		if err := runstore.Mkdir(filepath.Dir(logFile)); err != nil {
			return nil, err
		}
		config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		config.OutputPaths = []string{logFile}
	}
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	return logger.With(zap.String("run_id", runID)), nil
}
