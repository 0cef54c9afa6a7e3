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
package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultRows is the number of records written when no count is given.
const DefaultRows = 100

// Generator produces synthetic exposure records. Not safe for concurrent use.
type Generator struct {
	faker *gofakeit.Faker
	title cases.Caser
}

// NewGenerator creates a generator over a PCG source. A zero seed draws a
// random one; any other seed makes the output reproducible.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		faker: gofakeit.New(seed),
		title: cases.Title(language.English),
	}
}

// Exposure returns the n-th record (1-based).
func (g *Generator) Exposure(n int) Exposure {
	vessel := g.faker.Company() + " " + g.title.String(g.faker.Noun())
	operator := g.faker.Company()
	value := round2(g.faker.Float64Range(1_000_000, 200_000_000))
	risk := round2(g.beta28() * 100)

	return Exposure{
		VesselID:  FormatVesselID(n),
		Vessel:    vessel,
		Operator:  operator,
		Year:      g.faker.IntRange(1970, 2023),
		Type:      g.faker.RandomString(VesselTypes),
		Value:     value,
		Tonnage:   round2(g.faker.Float64Range(1000, 300_000)),
		Length:    round2(g.faker.Float64Range(50, 400)),
		CargoType: g.faker.RandomString(CargoTypes),
		Premium:   round2(value * 0.002 * (1 + risk/200)),
	}
}

// Generate returns rows records numbered from 1.
func (g *Generator) Generate(rows int) []Exposure {
	out := make([]Exposure, rows)
	for i := range out {
		out[i] = g.Exposure(i + 1)
	}
	return out
}

// beta28 samples Beta(2, 8): the second smallest of nine uniform draws.
func (g *Generator) beta28() float64 {
	lowest, second := math.Inf(1), math.Inf(1)
	for range 9 {
		u := g.faker.Float64()
		switch {
		case u < lowest:
			lowest, second = u, lowest
		case u < second:
			second = u
		}
	}
	return second
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// WriteParquet writes records to a Parquet file at path, creating parent
// directories as needed.
func WriteParquet(ctx context.Context, path string, records []Exposure) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}

	return runDuckDB(ctx, path, func(ctx context.Context, db *sql.DB) error {
		conn, err := db.Conn(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire connection: %w", err)
		}
		defer func() { _ = conn.Close() }()

		if _, err := conn.ExecContext(ctx, createTableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
		if err := insertExposures(ctx, conn, records); err != nil {
			return err
		}

		copySQL := fmt.Sprintf("COPY exposures TO %s (FORMAT PARQUET)", sqlString(path))
		if _, err := conn.ExecContext(ctx, copySQL); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	})
}

func insertExposures(ctx context.Context, conn *sql.Conn, records []Exposure) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO exposures VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.values()...); err != nil {
			return fmt.Errorf("failed to insert %s: %w", rec.VesselID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit records: %w", err)
	}
	return nil
}
