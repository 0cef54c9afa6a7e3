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

package sqlitedriver_test

import (
	"database/sql"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baylisoj/exposures/internal/sqlitedriver"
)

func TestDriverRegistered(t *testing.T) {
	assert.True(t, slices.Contains(sql.Drivers(), sqlitedriver.DriverName))
	assert.Contains(t, []string{"sqlcipher", "modernc"}, sqlitedriver.Implementation)
}

func TestFTS5_BM25(t *testing.T) {
	db, err := sql.Open(sqlitedriver.DriverName, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE VIRTUAL TABLE rows_fts USING fts5(body, tokenize='porter unicode61')")
	require.NoError(t, err, "FTS5 should be available")

	for _, body := range []string{"VSL-00001 Northwind Tanker", "VSL-00002 Contoso Container tankers"} {
		_, err = db.Exec("INSERT INTO rows_fts (body) VALUES (?)", body)
		require.NoError(t, err)
	}

	rows, err := db.Query("SELECT rowid FROM rows_fts WHERE rows_fts MATCH ? ORDER BY bm25(rows_fts)", "tanker")
	require.NoError(t, err)
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	assert.ElementsMatch(t, []int64{1, 2}, ids, "porter stemming matches tanker and tankers")
}
