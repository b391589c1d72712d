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


// Package ai provides abstractions for the hosted AI services used by minirag.
//
// The pipeline depends on three external capabilities, each behind its own
// interface:
//
//   - Embedder: turns text into fixed-length vectors
//   - Reranker: reorders candidate passages by relevance to a query
//   - Generator: answers a question from a numbered context block
//
// AIProvider aggregates the three so they can share configuration and be
// closed together.
//
// # Implementation Packages
//
//   - ai/openai: embeddings and chat completion through langchaingo against
//     any OpenAI-compatible endpoint
//   - ai/cohere: the Cohere rerank API
//   - ai/mock: test doubles with injectable behavior and call counters
//
// Public constructors in the implementation packages return interface types.
// Mock constructors return concrete types so tests can inspect them.
//
// # Call Policy
//
// CallPolicy bounds every outbound call with a per-attempt timeout and an
// optional retry with exponential backoff. The default is a single attempt.
//
//	policy := ai.DefaultCallPolicy()
//	err := policy.Do(ctx, func(ctx context.Context) error {
//	    vector, err = embedder.EmbedText(ctx, question)
//	    return err
//	})
package ai
