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
package fabric

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const queryPreviewLen = 500

// InstrumentedBackend wraps any ExecutionBackend and logs every operation
// with its duration, row count and error type.
type InstrumentedBackend struct {
	backend ExecutionBackend
	logger  *zap.Logger
}

// NewInstrumentedBackend creates a new instrumented execution backend.
func NewInstrumentedBackend(backend ExecutionBackend, logger *zap.Logger) *InstrumentedBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedBackend{
		backend: backend,
		logger:  logger.With(zap.String("backend", backend.Name())),
	}
}

// Name returns the underlying backend name.
func (ib *InstrumentedBackend) Name() string {
	return ib.backend.Name()
}

// ExecuteQuery executes a query and logs the outcome.
func (ib *InstrumentedBackend) ExecuteQuery(ctx context.Context, query string, args ...any) (*QueryResult, error) {
	start := time.Now()
	result, err := ib.backend.ExecuteQuery(ctx, query, args...)
	duration := time.Since(start)

	if err != nil {
		ib.logger.Debug("backend query failed",
			zap.String("query", preview(query)),
			zap.Int("args", len(args)),
			zap.String("error_type", fmt.Sprintf("%T", err)),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, err
	}

	ib.logger.Debug("backend query completed",
		zap.String("query", preview(query)),
		zap.Int("args", len(args)),
		zap.Int("row_count", result.RowCount),
		zap.Int("column_count", len(result.Columns)),
		zap.Duration("duration", duration))
	return result, nil
}

// GetSchema retrieves schema and logs the outcome.
func (ib *InstrumentedBackend) GetSchema(ctx context.Context, resource string) (*Schema, error) {
	start := time.Now()
	schema, err := ib.backend.GetSchema(ctx, resource)
	if err != nil {
		ib.logger.Debug("backend schema failed",
			zap.String("resource", resource),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}
	ib.logger.Debug("backend schema retrieved",
		zap.String("resource", resource),
		zap.Int("field_count", len(schema.Fields)),
		zap.Duration("duration", time.Since(start)))
	return schema, nil
}

// Ping checks backend health.
func (ib *InstrumentedBackend) Ping(ctx context.Context) error {
	if err := ib.backend.Ping(ctx); err != nil {
		ib.logger.Warn("backend ping failed", zap.Error(err))
		return err
	}
	return nil
}

// Close closes the underlying backend.
func (ib *InstrumentedBackend) Close() error {
	return ib.backend.Close()
}

func preview(query string) string {
	if len(query) > queryPreviewLen {
		return query[:queryPreviewLen] + "..."
	}
	return query
}
