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

import "gonum.org/v1/gonum/mat"

// Result holds the outcome of a single embedding call.
type Result struct {
	// Embedding is the N×target_dimension coordinate matrix.
	Embedding *mat.Dense
	// Eigenvalues of the solved problem, one per embedding column, when the
	// method is spectral.
	Eigenvalues []float64
	// Projection maps new feature vectors into the embedding. Only linear
	// methods produce one.
	Projection *ProjectingFunction
}

// ProjectingFunction is a reusable linear map into the embedding space. It
// owns its own copies of the projection matrix and mean vector and is the
// only object that outlives the embedding call.
type ProjectingFunction struct {
	components *mat.Dense // D×d
	mean       []float64
}

func newProjectingFunction(components *mat.Dense, mean []float64) *ProjectingFunction {
	var owned mat.Dense
	owned.CloneFrom(components)
	return &ProjectingFunction{
		components: &owned,
		mean:       append([]float64(nil), mean...),
	}
}

// Project maps a raw feature vector x to Pᵀ(x−μ).
func (p *ProjectingFunction) Project(x []float64) []float64 {
	d, target := p.components.Dims()
	centered := mat.NewVecDense(d, nil)
	for i := 0; i < d; i++ {
		centered.SetVec(i, x[i]-p.mean[i])
	}
	out := mat.NewVecDense(target, nil)
	out.MulVec(p.components.T(), centered)
	return out.RawVector().Data
}

// InputDimension returns the expected length of raw feature vectors.
func (p *ProjectingFunction) InputDimension() int {
	d, _ := p.components.Dims()
	return d
}

// OutputDimension returns the embedding dimension.
func (p *ProjectingFunction) OutputDimension() int {
	_, target := p.components.Dims()
	return target
}
