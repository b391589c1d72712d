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


// Package search retrieves candidate chunks for a question.
//
// The Retriever embeds the question, over-fetches nearest neighbours from a
// storage.ChunkIndex and narrows them with maximal marginal relevance (MMR)
// so the result balances relevance to the question against redundancy among
// the chosen chunks. Results keep MMR selection order.
package search
