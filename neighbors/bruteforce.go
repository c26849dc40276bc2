// Copyright 2025 manifold Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package neighbors

import (
	"sort"

	"github.com/samber/lo"
)

// bruteNeighbors computes all pairwise distances and selects the k smallest
// per row. Ties break toward the smaller index.
func bruteNeighbors[T any](items []T, dist func(a, b T) float64, k int) Neighbors {
	n := len(items)
	nn := make(Neighbors, n)
	for i := 0; i < n; i++ {
		scores := make([]lo.Tuple2[int, float64], 0, n-1)
		for j := 0; j < n; j++ {
			if j != i {
				scores = append(scores, lo.Tuple2[int, float64]{A: j, B: dist(items[i], items[j])})
			}
		}
		sort.Slice(scores, func(p, q int) bool {
			if scores[p].B != scores[q].B {
				return scores[p].B < scores[q].B
			}
			return scores[p].A < scores[q].A
		})
		nn[i] = lo.Map(scores[:k], func(s lo.Tuple2[int, float64], _ int) int {
			return s.A
		})
	}
	return nn
}
