// Package logging builds the shared zap logger for the AIDSENSE backend.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates a zap logger appropriate for the runtime environment.
// Production environments get JSON output at INFO level; everything else
// gets the human-readable development encoder at DEBUG level.
func New(env string) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)

	if env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger, nil
}
