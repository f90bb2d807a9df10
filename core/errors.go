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

import "errors"

// Domain validation errors
var (
	// ErrInvalidMemory indicates a Memory failed validation.
	ErrInvalidMemory = errors.New("invalid memory")

	// ErrEmptyText indicates the Text field is empty.
	ErrEmptyText = errors.New("memory text cannot be empty")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("memory title cannot be empty")

	// ErrEmptyURL indicates the URL field is empty.
	ErrEmptyURL = errors.New("source url cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrInvalidEmbedding indicates a stored vector has a length that matches
	// neither known backend dimension.
	ErrInvalidEmbedding = errors.New("embedding length matches no known backend")

	// ErrInvalidDateRange indicates a range whose start is after its end.
	ErrInvalidDateRange = errors.New("date range start must not be after end")
)
