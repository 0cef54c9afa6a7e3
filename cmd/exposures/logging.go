// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds the process logger. Stack traces are attached only at
// error level.
func newLogger(cfg LoggingConfig) (*zap.Logger, error) {
	zapConfig := zap.NewProductionConfig()

	logLevel := zap.InfoLevel
	if cfg.Level != "" {
		if err := logLevel.UnmarshalText([]byte(cfg.Level)); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid log level %q, using INFO: %v\n", cfg.Level, err)
			logLevel = zap.InfoLevel
		}
	}
	zapConfig.Level = zap.NewAtomicLevelAt(logLevel)

	switch cfg.Format {
	case "json", "":
	case "text", "console":
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("invalid logging.format %q (must be json or text)", cfg.Format)
	}

	// Logs go to stderr so they never mix with command output.
	zapConfig.OutputPaths = []string{"stderr"}
	if cfg.File != "" {
		zapConfig.OutputPaths = []string{cfg.File}
		zapConfig.ErrorOutputPaths = []string{cfg.File}
	}

	return zapConfig.Build(zap.AddStacktrace(zap.ErrorLevel))
}
