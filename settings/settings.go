// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/poiesic/recall/search"
)

const (
	appDirName = "recall"
	fileName   = "settings.yaml"
	dbDirName  = "db"
	filePerm   = 0o600
	dirPerm    = 0o700
)

// Settings holds user configuration persisted between runs. The zero
// value is usable: no API key, automatic search method, default paths.
type Settings struct {
	// OpenAIAPIKey enables the remote embedding backend when non-empty.
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"`

	// SearchMethod is the default search method: auto, remote, local
	// or keyword. Empty means auto.
	SearchMethod string `yaml:"search_method,omitempty"`

	// DatabasePath overrides where the memory database is stored.
	DatabasePath string `yaml:"database_path,omitempty"`
}

// DefaultPath returns the settings file location under the user's
// configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(dir, appDirName, fileName), nil
}

// DefaultDatabasePath returns where the memory database lives when
// DatabasePath is not set.
func DefaultDatabasePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(dir, appDirName, dbDirName), nil
}

// Load reads settings from path. A missing file is not an error; it
// yields zero-value settings so first runs work without setup.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Save writes settings to path, creating parent directories as needed.
// The file is written with owner-only permissions since it may hold an
// API key.
func (s *Settings) Save(path string) error {
	if err := s.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// Validate checks that the settings are internally consistent.
func (s *Settings) Validate() error {
	if _, err := search.ParseMethod(s.SearchMethod); err != nil {
		return err
	}
	return nil
}

// Method returns the configured search method, defaulting to auto.
func (s *Settings) Method() search.Method {
	m, err := search.ParseMethod(s.SearchMethod)
	if err != nil {
		return search.MethodAuto
	}
	return m
}
