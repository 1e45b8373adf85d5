// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and Gardener contributors
//
// SPDX-License-Identifier: Apache-2.0

package slog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/lmittmann/tint"

	"github.com/gardener/sdaf-landscapes/pkg/core/config"
)

// ErrInvalidLogLevel is an error, which is returned when an invalid log level
// has been configured.
var ErrInvalidLogLevel = errors.New("invalid log level")

// ErrInvalidLogFormat is an error, which is returned when an invalid log format
// has been configured.
var ErrInvalidLogFormat = errors.New("invalid log format")

// LogLevel represents the log level.
type LogLevel string

var (
	// LevelInfo specifies INFO log level.
	LevelInfo LogLevel = "info"
	// LevelWarn specifies WARN log level.
	LevelWarn LogLevel = "warn"
	// LevelError specifies ERROR log level.
	LevelError LogLevel = "error"
	// LevelDebug specifies DEBUG log level.
	LevelDebug LogLevel = "debug"
)

// LogFormat represents the format of log events.
type LogFormat string

var (
	// FormatText specifies text log format.
	FormatText LogFormat = "text"
	// FormatJSON specifies JSON log format.
	FormatJSON LogFormat = "json"
	// FormatConsole specifies a colorized, human friendly log format.
	FormatConsole LogFormat = "console"
)

// levels maps the supported log levels to their [slog.Level].
var levels = map[LogLevel]slog.Level{
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
	LevelDebug: slog.LevelDebug,
}

// NewFromConfig creates a new [slog.Logger] based on the provided
// [config.LoggingConfig] settings. The returned logger outputs to the given
// [io.Writer].
func NewFromConfig(w io.Writer, conf config.LoggingConfig) (*slog.Logger, error) {
	// Defaults, if we don't have any logging settings
	logLevel := LevelInfo
	logFormat := FormatText

	if conf.Level != "" {
		logLevel = LogLevel(strings.ToLower(conf.Level))
	}

	if conf.Format != "" {
		logFormat = LogFormat(strings.ToLower(conf.Format))
	}

	level, ok := levels[logLevel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidLogLevel, logLevel)
	}

	var handler slog.Handler
	switch logFormat {
	case FormatText:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{
			AddSource: conf.AddSource,
			Level:     level,
		})
	case FormatJSON:
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource: conf.AddSource,
			Level:     level,
		})
	case FormatConsole:
		handler = tint.NewHandler(w, &tint.Options{
			AddSource: conf.AddSource,
			Level:     level,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidLogFormat, logFormat)
	}

	// Default attributes are sorted, so that output is stable.
	keys := make([]string, 0, len(conf.Attributes))
	for k := range conf.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, slog.String(k, conf.Attributes[k]))
	}
	logger := slog.New(handler.WithAttrs(attrs))

	return logger, nil
}
