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


// Package storage provides the vector index abstraction for minirag.
//
// This package defines the ChunkIndex interface that decouples the index
// implementation from the ingestion and retrieval pipelines. Two backends
// exist: a hosted Qdrant collection (package qdrant) and an embedded BadgerDB
// store (package badger) for local runs and tests.
//
// # Constructor Return Type Pattern
//
// Public constructors return the storage.ChunkIndex interface:
//
//	index, err := badger.NewIndex(badger.WithPath("/path/to/db"))  // returns storage.ChunkIndex
//	index, err := qdrant.NewIndex(url, "mini-rag-index")            // returns storage.ChunkIndex
//
// # Namespaces
//
// Every operation is scoped to a namespace. Chunks from different sources can
// share one namespace; the index is additive and only DeleteNamespace removes
// points.
//
// # Point Identity
//
// Point ids are derived from (namespace, source, chunk id) with PointID, so
// upserting the same chunk twice overwrites the first copy.
//
// # Thread Safety
//
// All implementations must be safe for concurrent use.
package storage
