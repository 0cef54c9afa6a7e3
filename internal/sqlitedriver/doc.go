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

// Package sqlitedriver registers an FTS5-capable SQLite database/sql driver
// under DriverName. Builds with CGO and the fts5 tag use go-sqlcipher, whose
// FTS5 module is only compiled in under that tag. All other builds use the
// pure-Go modernc.org/sqlite driver, which always includes FTS5.
//
//	go build -tags fts5 ./...
//
// Import this package for its side effects:
//
//	import _ "github.com/baylisoj/exposures/internal/sqlitedriver"
package sqlitedriver

// DriverName is the database/sql driver name to pass to sql.Open.
const DriverName = "sqlite3"
