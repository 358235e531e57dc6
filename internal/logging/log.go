// SPDX-License-Identifier: AGPL-3.0-or-later
// IonoVox - HF-propagation-simulated voice conferencing server

// Package logging wires the process-wide slog default logger using a tint
// console handler, selected by configured log level.
package logging

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// Level mirrors the config-level log-level enumeration without importing
// the config package.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Setup installs a tint-backed slog.Logger as the process default.
func Setup(level Level) {
	var handler slog.Handler
	switch level {
	case LevelDebug:
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelDebug})
	case LevelInfo:
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo})
	case LevelWarn:
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn})
	case LevelError:
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelError})
	default:
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}
