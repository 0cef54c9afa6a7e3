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
	"errors"
	"fmt"
)

// ExecutionError is the failure variant of a query outcome: the store was
// reachable but rejected or failed to run the query.
type ExecutionError struct {
	Query  string
	Detail string
	Err    error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query execution failed: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("query execution failed: %s", e.Detail)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// AsExecutionError reports whether err carries an *ExecutionError and returns it.
func AsExecutionError(err error) (*ExecutionError, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr, true
	}
	return nil, false
}
