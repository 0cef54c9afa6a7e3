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

// Package config locates the exposures data directory.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// DataDirEnv overrides the data directory.
const DataDirEnv = "EXPOSURES_DATA_DIR"

// GetDataDir returns the directory holding exposures.yaml, .env and
// transcripts.
//
// Priority:
// 1. EXPOSURES_DATA_DIR (if set and non-empty)
// 2. ~/.exposures
//
// The result is absolute; a leading ~ is expanded. This runs before the
// config file is read (it locates that file), so it reads the environment
// directly rather than through viper.
//
// Examples:
//
//	EXPOSURES_DATA_DIR=/srv/exposures  -> /srv/exposures
//	EXPOSURES_DATA_DIR=~/fleet         -> /home/user/fleet
//	EXPOSURES_DATA_DIR not set         -> /home/user/.exposures
func GetDataDir() string {
	if dataDir := os.Getenv(DataDirEnv); dataDir != "" {
		return ExpandPath(dataDir)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".exposures"
	}
	return filepath.Join(homeDir, ".exposures")
}

// GetSubDir returns a subdirectory of the data directory.
// Example: GetSubDir("transcripts") returns ~/.exposures/transcripts
func GetSubDir(subdir string) string {
	return filepath.Join(GetDataDir(), subdir)
}

// ExpandPath expands a leading ~/ and makes path absolute.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}
