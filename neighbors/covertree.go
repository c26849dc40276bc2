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
	"math"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/manifold-io/manifold/base/heap"
	"github.com/samber/lo"
)

// coverTree is a metric tree with covering radius 2^level per node. Children
// of a node at level l live at a lower level and lie within covdist(l) of it.
type coverTree[T any] struct {
	items []T
	dist  func(a, b T) float64
	root  *coverNode
}

type coverNode struct {
	idx      int
	level    int
	children []*coverNode
}

func covdist(level int) float64 {
	return math.Exp2(float64(level))
}

// maxdist bounds the distance from a node to any of its descendants.
func maxdist(level int) float64 {
	return 2 * covdist(level)
}

func newCoverTree[T any](items []T, dist func(a, b T) float64) *coverTree[T] {
	t := &coverTree[T]{items: items, dist: dist}
	for i := range items {
		t.insert(i)
	}
	return t
}

func (t *coverTree[T]) d(a, b int) float64 {
	return t.dist(t.items[a], t.items[b])
}

func (t *coverTree[T]) insert(p int) {
	if t.root == nil {
		t.root = &coverNode{idx: p, level: 0}
		return
	}
	d := t.d(t.root.idx, p)
	if d > covdist(t.root.level) {
		// grow the root level until its ball covers p
		level := t.root.level
		for d > covdist(level) {
			level++
		}
		t.root = &coverNode{idx: t.root.idx, level: level, children: []*coverNode{t.root}}
	}
	t.insertInto(t.root, p)
}

func (t *coverTree[T]) insertInto(n *coverNode, p int) {
	// descend into the nearest child whose ball covers p
	var best *coverNode
	bestDist := math.Inf(1)
	for _, c := range n.children {
		if d := t.d(c.idx, p); d <= covdist(c.level) && d < bestDist {
			best, bestDist = c, d
		}
	}
	if best != nil {
		t.insertInto(best, p)
		return
	}
	n.children = append(n.children, &coverNode{idx: p, level: n.level - 1})
}

// knn returns the k nearest items to query index q, excluding q itself.
// Traversal is branch-and-bound over the candidate queue ordered by the lower
// bound of each subtree.
func (t *coverTree[T]) knn(q, k int) []int {
	best := heap.NewPriorityQueue(true) // k current nearest, worst on top
	seen := mapset.NewThreadUnsafeSet[int]()
	nodes := []*coverNode{t.root}
	candidates := heap.NewPriorityQueue(false)
	candidates.Push(0, math.Max(0, t.d(t.root.idx, q)-maxdist(t.root.level)))
	for candidates.Len() > 0 {
		id, bound := candidates.Pop()
		if best.Len() >= k {
			if _, worst := best.Peek(); bound > worst {
				break
			}
		}
		node := nodes[id]
		// the same point may appear at several levels of the tree
		if node.idx != q && !seen.Contains(node.idx) {
			seen.Add(node.idx)
			d := t.d(node.idx, q)
			if best.Len() < k {
				best.Push(int32(node.idx), d)
			} else if _, worst := best.Peek(); d < worst {
				best.Pop()
				best.Push(int32(node.idx), d)
			}
		}
		for _, c := range node.children {
			nodes = append(nodes, c)
			lower := math.Max(0, t.d(c.idx, q)-maxdist(c.level))
			candidates.Push(int32(len(nodes)-1), lower)
		}
	}
	result := make([]lo.Tuple2[int, float64], 0, best.Len())
	for best.Len() > 0 {
		v, w := best.Pop()
		result = append(result, lo.Tuple2[int, float64]{A: int(v), B: w})
	}
	sort.Slice(result, func(p, r int) bool {
		if result[p].B != result[r].B {
			return result[p].B < result[r].B
		}
		return result[p].A < result[r].A
	})
	return lo.Map(result, func(s lo.Tuple2[int, float64], _ int) int {
		return s.A
	})
}

func coverTreeNeighbors[T any](items []T, dist func(a, b T) float64, k int) Neighbors {
	tree := newCoverTree(items, dist)
	nn := make(Neighbors, len(items))
	for i := range items {
		nn[i] = tree.knn(i, k)
	}
	return nn
}
