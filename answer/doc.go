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


// Package answer turns a question into a cited answer.
//
// A Pipeline retrieves candidate chunks, reranks them, assembles the top
// documents into a numbered context block, asks a generator for an answer
// and checks the answer's bracketed citations against the sources. The
// helpers it uses are exported on their own:
//
//   - Assemble builds the "[1] ...\n\n[2] ..." context block
//   - CheckCitations and ApplyCitationPolicy validate [n] markers
//   - Measure computes latency and an approximate cost
package answer
