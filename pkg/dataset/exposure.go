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

// Package dataset creates, converts and inspects the vessel exposure dataset.
// All file I/O goes through short-lived DuckDB sessions.
package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Exposure is one insured vessel.
type Exposure struct {
	VesselID  string  `json:"vesselId"`
	Vessel    string  `json:"vessel"`
	Operator  string  `json:"operator"`
	Year      int     `json:"year"`
	Type      string  `json:"type"`
	Value     float64 `json:"value"`
	Tonnage   float64 `json:"tonnage"`
	Length    float64 `json:"length"`
	CargoType string  `json:"cargoType"`
	Premium   float64 `json:"premium"`
}

// Columns are the dataset's column names in file order.
var Columns = []string{
	"vesselId", "vessel", "operator", "year", "type",
	"value", "tonnage", "length", "cargoType", "premium",
}

// createTableSQL mirrors Columns.
const createTableSQL = `CREATE TABLE exposures (
	vesselId  VARCHAR,
	vessel    VARCHAR,
	operator  VARCHAR,
	year      INTEGER,
	type      VARCHAR,
	value     DOUBLE,
	tonnage   DOUBLE,
	length    DOUBLE,
	cargoType VARCHAR,
	premium   DOUBLE
)`

// VesselTypes are the hull categories assigned by the generator.
var VesselTypes = []string{
	"Bulk Carrier", "Container", "Tanker", "Passenger",
	"General Cargo", "Chemical Tanker", "LNG Carrier", "Offshore Support",
}

// CargoTypes are the cargo categories assigned by the generator.
var CargoTypes = []string{
	"General Cargo", "Dry Bulk", "Oil", "Chemicals", "Containers", "Liquified Gas",
}

// values returns the record as insert arguments in Columns order.
func (e Exposure) values() []any {
	return []any{
		e.VesselID, e.Vessel, e.Operator, e.Year, e.Type,
		e.Value, e.Tonnage, e.Length, e.CargoType, e.Premium,
	}
}

// FormatVesselID renders the n-th (1-based) vessel identifier.
func FormatVesselID(n int) string {
	return fmt.Sprintf("VSL-%05d", n)
}

// sqlString quotes s as a SQL string literal.
func sqlString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteIdent double-quotes an identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ReplaceExt swaps the extension of path, e.g. data/x.parquet -> data/x.csv.
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
