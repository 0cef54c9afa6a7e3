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
package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const exposuresCSV = `vesselId,vessel,operator,type,cargoType
VSL-00001,Northwind Harbor,Northwind,Tanker,Oil
VSL-00002,Contoso Spirit,Contoso,Container,Containers
VSL-00003,Fabrikam Dawn,Fabrikam,Chemical Tanker,Chemicals
VSL-00004,"Pipe | Line",Contoso,Bulk Carrier,Dry Bulk
`

func loadFixture(t *testing.T) *Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exposures.csv")
	require.NoError(t, os.WriteFile(path, []byte(exposuresCSV), 0o600))

	idx, err := LoadCSV(context.Background(), path, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func vesselIDs(t *testing.T, idx *Index, query string, limit int) []string {
	t.Helper()
	res, err := idx.Search(context.Background(), query, limit)
	require.NoError(t, err)
	var ids []string
	for _, row := range res.Rows {
		ids = append(ids, row["vesselId"].(string))
	}
	return ids
}

func TestLoadCSV(t *testing.T) {
	idx := loadFixture(t)
	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, []string{"vesselId", "vessel", "operator", "type", "cargoType"}, idx.Columns())
}

func TestLoadCSV_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCSV(context.Background(), filepath.Join(dir, "missing.csv"), nil)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = LoadCSV(context.Background(), empty, nil)
	assert.ErrorContains(t, err, "no header row")
}

func TestIndex_Search(t *testing.T) {
	idx := loadFixture(t)

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"single term", "contoso", 0, []string{"VSL-00002", "VSL-00004"}},
		{"stemming", "tankers", 0, []string{"VSL-00001", "VSL-00003"}},
		{"identifier", "VSL-00003", 0, []string{"VSL-00003"}},
		{"any term matches", "fabrikam northwind", 0, []string{"VSL-00001", "VSL-00003"}},
		{"limit", "contoso", 1, nil},
		{"no match", "zeppelin", 0, nil},
		{"blank", "   ", 0, nil},
		{"fts syntax is literal", `operator:contoso OR (NEAR "`, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := vesselIDs(t, idx, tt.query, tt.limit)
			if tt.name == "limit" {
				assert.Len(t, got, 1)
				return
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestIndex_SearchRanksBestFirst(t *testing.T) {
	idx := loadFixture(t)
	// Only VSL-00004 matches both terms, and "bulk" is the rarer one.
	got := vesselIDs(t, idx, "bulk contoso", 0)
	require.NotEmpty(t, got)
	assert.Equal(t, "VSL-00004", got[0])
}

func TestIndex_SearchResultShape(t *testing.T) {
	idx := loadFixture(t)
	res, err := idx.Search(context.Background(), "pipe", 0)
	require.NoError(t, err)

	require.Len(t, res.Columns, 5)
	assert.Equal(t, "VARCHAR", res.Columns[0].Type)
	assert.Equal(t, 1, res.RowCount)
	assert.Equal(t, "Pipe | Line", res.Rows[0]["vessel"])
}

func TestNewIndex_ShortRows(t *testing.T) {
	idx, err := NewIndex(context.Background(), []string{"a", "b"}, [][]string{{"only"}}, nil)
	require.NoError(t, err)
	defer idx.Close()

	res, err := idx.Search(context.Background(), "only", 0)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Nil(t, res.Rows[0]["b"])

	_, err = NewIndex(context.Background(), nil, nil, nil)
	assert.Error(t, err)
}

func TestBuildMatchQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"tanker", `"tanker"`},
		{"oil  tanker", `"oil" OR "tanker"`},
		{`say "hi"`, `"say" OR """hi"""`},
		{"a AND b", `"a" OR "AND" OR "b"`},
		{"-- ! oil", `"oil"`},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BuildMatchQuery(tt.in), tt.in)
	}
}
