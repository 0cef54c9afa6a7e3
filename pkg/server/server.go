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

// Package server exposes the turn engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/baylisoj/exposures/pkg/fabric"
	"github.com/baylisoj/exposures/pkg/rag"
	"github.com/baylisoj/exposures/pkg/types"
)

// turnRequestSchema is the JSON Schema for POST /api/turn bodies.
const turnRequestSchema = `{
	"type": "object",
	"required": ["question"],
	"additionalProperties": false,
	"properties": {
		"question": {"type": "string", "minLength": 1},
		"conversation": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["role", "content"],
				"additionalProperties": false,
				"properties": {
					"role": {"enum": ["system", "user", "assistant"]},
					"content": {"type": "string"}
				}
			}
		}
	}
}`

// TurnProcessor runs turns and describes the dataset. *rag.Engine satisfies it.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, question string, prior []types.Message) (*rag.TurnResult, error)
	Schema(ctx context.Context) (*fabric.Schema, error)
}

// Config holds server settings.
type Config struct {
	// ListenAddr is host:port, e.g. "127.0.0.1:6061".
	ListenAddr string
}

// TurnRequest is the body of POST /api/turn.
type TurnRequest struct {
	Question     string          `json:"question"`
	Conversation []types.Message `json:"conversation,omitempty"`
}

// ErrorResponse is returned for rejected requests.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// SchemaField is one column in GET /api/schema.
type SchemaField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// SchemaResponse is the body of GET /api/schema.
type SchemaResponse struct {
	Source string        `json:"source"`
	Fields []SchemaField `json:"fields"`
}

// Server serves the turn endpoint.
type Server struct {
	config Config
	engine TurnProcessor
	schema *gojsonschema.Schema
	logger *zap.Logger
	app    *fiber.App
}

// New creates a server and registers its routes.
func New(config Config, engine TurnProcessor, logger *zap.Logger) (*Server, error) {
	if engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(turnRequestSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile request schema: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		engine: engine,
		schema: schema,
		logger: logger,
		app:    app,
	}

	app.Post("/api/turn", s.handleTurn)
	app.Get("/api/schema", s.handleSchema)
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on the configured address until Shutdown.
func (s *Server) Run() error {
	s.logger.Info("starting server", zap.String("listen", s.config.ListenAddr))
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown stops accepting requests and waits for in-flight turns.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleTurn(c *fiber.Ctx) error {
	start := time.Now()

	if details, err := s.validate(c.Body()); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error(), Details: details})
	}

	var req TurnRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if err := checkConversation(req.Conversation); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	result, err := s.engine.ProcessTurn(c.UserContext(), req.Question, req.Conversation)
	if err != nil {
		if errors.Is(err, rag.ErrEmptyQuestion) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("turn processing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
	}

	s.logger.Info("turn processed",
		zap.String("turn_id", result.TurnID),
		zap.Bool("success", result.Success),
		zap.Bool("used_fallback", result.UsedFallback),
		zap.Duration("duration", time.Since(start)))

	return c.JSON(result)
}

// checkConversation rejects a system message anywhere but the first entry.
// The engine inserts one at the front when it is missing.
func checkConversation(conv []types.Message) error {
	for i, m := range conv {
		if i > 0 && m.Role == types.RoleSystem {
			return fmt.Errorf("conversation[%d]: system message is only allowed as the first entry", i)
		}
	}
	return nil
}

// validate checks body against the request schema.
func (s *Server) validate(body []byte) ([]string, error) {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("invalid request body")
	}
	if !result.Valid() {
		details := make([]string, len(result.Errors()))
		for i, e := range result.Errors() {
			details[i] = e.String()
		}
		return details, fmt.Errorf("request does not match schema")
	}
	return nil, nil
}

func (s *Server) handleSchema(c *fiber.Ctx) error {
	schema, err := s.engine.Schema(c.UserContext())
	if err != nil {
		s.logger.Warn("schema unavailable", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "dataset unavailable"})
	}

	resp := SchemaResponse{Source: schema.Name, Fields: make([]SchemaField, len(schema.Fields))}
	for i, f := range schema.Fields {
		resp.Fields[i] = SchemaField{Name: f.Name, Type: f.Type, Nullable: f.Nullable}
	}
	return c.JSON(resp)
}
