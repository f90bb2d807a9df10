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


package core

import (
	"fmt"
	"time"
)

// ValidateMemory validates a Memory according to domain rules.
//
// Validation rules:
//   - Text, Title and URL must not be empty
//   - CreatedAt must not be in the future
//   - Embedding, if present, must have a known backend dimension
//
// NOT validated (populated by processors):
//   - Id (0 is valid before a database sequence assigns one)
//   - Domain, ContentHash (derived at save time)
func ValidateMemory(memory *Memory) error {
	if memory == nil {
		return fmt.Errorf("%w: memory is nil", ErrInvalidMemory)
	}

	if memory.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMemory, ErrEmptyText)
	}
	if memory.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMemory, ErrEmptyTitle)
	}
	if memory.URL == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMemory, ErrEmptyURL)
	}

	if !memory.CreatedAt.IsZero() && !IsValidTimestamp(memory.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidMemory, ErrInvalidTimestamp)
	}

	if err := ValidateEmbedding(memory.Embedding); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMemory, err)
	}

	return nil
}

// ValidateEmbedding checks that a vector, if present, has a length matching
// exactly one of the known backend dimensions. An absent vector is valid.
func ValidateEmbedding(vector []float32) error {
	if len(vector) == 0 {
		return nil
	}
	if len(vector) != LocalDimensions && len(vector) != RemoteDimensions {
		return fmt.Errorf("%w: got length %d", ErrInvalidEmbedding, len(vector))
	}
	return nil
}

// ValidateDateRange checks that start does not come after end.
func ValidateDateRange(r DateRange) error {
	if r.Start.After(r.End) {
		return ErrInvalidDateRange
	}
	return nil
}

// IsValidTimestamp returns true if the timestamp is not in the future.
// A small clock-skew allowance is applied.
func IsValidTimestamp(t time.Time) bool {
	return !t.After(time.Now().Add(time.Minute))
}
