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

import "github.com/poiesic/minirag/core"

// SelectMMR picks up to k candidates by maximal marginal relevance.
//
// Each step takes the candidate maximizing
//
//	lambda*sim(query, c) - (1-lambda)*max(sim(c, s) for s in selected)
//
// so lambda 1 is pure relevance and lambda 0 pure diversity. Candidates
// without a vector use their index score as relevance and never count as
// redundant. Ties go to the earlier candidate. The result is in selection
// order.
func SelectMMR(query []float32, candidates []core.Candidate, k int, lambda float64) []core.Candidate {
	if k <= 0 || len(candidates) == 0 {
		return []core.Candidate{}
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	relevance := make([]float64, len(candidates))
	for i, c := range candidates {
		if len(c.Vector) == 0 {
			relevance[i] = float64(c.Score)
			continue
		}
		relevance[i] = float64(core.CosineSimilarity(query, c.Vector))
	}

	// redundancy[i] is the highest similarity of candidate i to any selected one.
	redundancy := make([]float64, len(candidates))
	compared := make([]bool, len(candidates))
	used := make([]bool, len(candidates))
	selected := make([]core.Candidate, 0, k)

	for len(selected) < k {
		best := -1
		bestScore := 0.0
		for i := range candidates {
			if used[i] {
				continue
			}
			score := relevance[i]
			if len(selected) > 0 {
				score = lambda*relevance[i] - (1-lambda)*redundancy[i]
			}
			if best == -1 || score > bestScore {
				best, bestScore = i, score
			}
		}

		used[best] = true
		chosen := candidates[best]
		selected = append(selected, chosen)

		if len(chosen.Vector) == 0 {
			continue
		}
		for i := range candidates {
			if used[i] || len(candidates[i].Vector) == 0 {
				continue
			}
			sim := float64(core.CosineSimilarity(chosen.Vector, candidates[i].Vector))
			if !compared[i] || sim > redundancy[i] {
				redundancy[i] = sim
				compared[i] = true
			}
		}
	}
	return selected
}
