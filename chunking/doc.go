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


// Package chunking splits source text into overlapping, size-bounded chunks.
//
// Splitting is recursive: text is cut at paragraph breaks first, then line
// breaks, then spaces, and only as a last resort between characters. Sizes
// are measured in runes. Each chunk carries its source label, a zero-based
// sequential id and a short preview.
package chunking
