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
package rag

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/baylisoj/exposures/pkg/backends/duckdb"
	"github.com/baylisoj/exposures/pkg/fabric"
)

func writeExposures(t *testing.T) *duckdb.Backend {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exposures.parquet")

	b, err := duckdb.NewBackend(duckdb.Config{Path: path})
	require.NoError(t, err)

	err = b.WithDB(context.Background(), func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, fmt.Sprintf(`COPY (
			SELECT * FROM (VALUES
				('VSL-00001', 'Northwind Harbor', 'Northwind', 1998, 'Tanker', 1000.0::DOUBLE),
				('VSL-00002', 'Contoso Spirit', 'Contoso', 2005, 'Container', 5000.0::DOUBLE),
				('VSL-00003', 'Fabrikam Dawn', 'Fabrikam', 2012, 'Bulk Carrier', 2000.0::DOUBLE)
			) t(vesselId, vessel, operator, year, type, tonnage)
		) TO '%s' (FORMAT PARQUET)`, path))
		return err
	})
	require.NoError(t, err)
	return b
}

func TestEngine_DuckDB(t *testing.T) {
	store := writeExposures(t)
	instrumented := fabric.NewInstrumentedBackend(store, zaptest.NewLogger(t))

	tests := []struct {
		name         string
		question     string
		generated    string
		wantFallback bool
		wantVessels  []string
	}{
		{
			name:        "generated query",
			question:    "Which vessel has the highest tonnage?",
			generated:   "```sql\nSELECT vessel, tonnage FROM '%s' ORDER BY tonnage DESC LIMIT 1\n```",
			wantVessels: []string{"Contoso Spirit"},
		},
		{
			name:         "unknown column falls back to keyword match",
			question:     "contoso",
			generated:    "SELECT no_such_column FROM '%s'",
			wantFallback: true,
			wantVessels:  []string{"Contoso Spirit"},
		},
		{
			name:         "syntax error falls back and quotes survive binding",
			question:     "O'Brien",
			generated:    "SELEC vessel FROM '%s'",
			wantFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &scriptedLLM{replies: []llmReply{
				{content: fmt.Sprintf(tt.generated, store.Path())},
				{content: "answer"},
			}}
			e, err := NewEngine(DefaultConfig(store.Path()), instrumented, llm, zaptest.NewLogger(t))
			require.NoError(t, err)

			res, err := e.ProcessTurn(context.Background(), tt.question, nil)
			require.NoError(t, err)
			require.True(t, res.Success, res.Error)
			assert.Equal(t, tt.wantFallback, res.UsedFallback)

			var vessels []string
			for _, row := range res.Rows {
				vessels = append(vessels, fmt.Sprint(row["vessel"]))
			}
			assert.Equal(t, tt.wantVessels, vessels)

			if len(tt.wantVessels) == 0 {
				assert.Equal(t, EmptyResultSentinel, res.Sources)
			} else {
				assert.True(t, strings.HasPrefix(res.Sources, "| vessel"))
			}

			// The generation prompt carries the live schema.
			assert.Contains(t, llm.calls[0].messages[0].Content, "- tonnage (DOUBLE)")
			assert.Contains(t, llm.calls[0].messages[0].Content, "FROM '"+store.Path()+"'")
		})
	}
}
