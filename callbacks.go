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

package manifold

import "math"

// KernelFunc returns a symmetric positive semi-definite kernel value of two items.
type KernelFunc[T any] func(a, b T) float64

// DistanceFunc returns a symmetric non-negative distance of two items, zero
// for identical ones.
type DistanceFunc[T any] func(a, b T) float64

// FeatureFunc writes the dense feature vector of an item into out. The length
// of out is the current dimension.
type FeatureFunc[T any] func(item T, out []float64)

// Callbacks bundles the user callbacks a method may consume. A method that
// never touches one of the three leaves it nil.
type Callbacks[T any] struct {
	Kernel   KernelFunc[T]
	Distance DistanceFunc[T]
	Feature  FeatureFunc[T]
}

// KernelDistance derives the kernel-induced distance
// sqrt(max(0, K(a,a)+K(b,b)-2K(a,b))).
func (c Callbacks[T]) KernelDistance() DistanceFunc[T] {
	kernel := c.Kernel
	return func(a, b T) float64 {
		return math.Sqrt(math.Max(0, kernel(a, a)+kernel(b, b)-2*kernel(a, b)))
	}
}
