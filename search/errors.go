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


package search

import "errors"

var (
	// ErrIndexRequired is returned when a chunk index is not provided.
	ErrIndexRequired = errors.New("chunk index required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidK is returned when k or fetchK is not positive or fetchK < k.
	ErrInvalidK = errors.New("k must be positive and not greater than fetch k")

	// ErrInvalidLambda is returned when the MMR lambda is outside [0, 1].
	ErrInvalidLambda = errors.New("mmr lambda must be within [0, 1]")

	// ErrEmptyQuery is returned when the query is empty.
	ErrEmptyQuery = errors.New("query cannot be empty")
)
