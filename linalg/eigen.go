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

package linalg

import (
	"math"
	"math/rand"
	"sort"

	"github.com/juju/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrEigenFailure reports a solver that did not converge or a matrix singular
// beyond regularization.
const ErrEigenFailure = errors.ConstError("eigen failure")

// Method selects the eigen solver implementation.
type Method int

const (
	// Arpack is an iterative Lanczos solver for a few extreme eigenpairs.
	Arpack Method = iota
	// Dense is a full symmetric decomposition.
	Dense
	// Randomized is a randomized subspace solver.
	Randomized
)

func (m Method) String() string {
	switch m {
	case Arpack:
		return "Arpack"
	case Dense:
		return "Dense"
	case Randomized:
		return "Randomized"
	default:
		return "Unknown"
	}
}

// Skip policies for structurally null eigenpairs.
const (
	SkipNoEigenvalues = 0
	SkipOneEigenvalue = 1
)

// Operator is a symmetric linear operator the solvers consume. Iterative
// methods use MulVec only; the dense method materializes the matrix.
type Operator interface {
	Dim() int
	MulVec(dst, x []float64)
	Sym() *mat.SymDense
}

// SymOperator adapts a dense symmetric matrix to the Operator interface.
type SymOperator struct {
	Matrix *mat.SymDense
}

func (o SymOperator) Dim() int {
	return o.Matrix.SymmetricDim()
}

func (o SymOperator) MulVec(dst, x []float64) {
	n := o.Dim()
	v := mat.NewVecDense(n, dst)
	v.MulVec(o.Matrix, mat.NewVecDense(n, x))
}

func (o SymOperator) Sym() *mat.SymDense {
	return o.Matrix
}

// shifted wraps sigma·I − A so the largest eigenpairs of the wrapper are the
// smallest of A.
type shifted struct {
	op    Operator
	sigma float64
}

func (s shifted) Dim() int { return s.op.Dim() }

func (s shifted) MulVec(dst, x []float64) {
	s.op.MulVec(dst, x)
	for i := range dst {
		dst[i] = s.sigma*x[i] - dst[i]
	}
}

func (s shifted) Sym() *mat.SymDense {
	m := s.op.Sym()
	n := m.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := -m.At(i, j)
			if i == j {
				v += s.sigma
			}
			out.SetSym(i, j, v)
		}
	}
	return out
}

// EigenEmbedding computes d eigenvectors of op. With largest=true it returns
// the d dominant eigenpairs in descending eigenvalue order; otherwise the d
// smallest in ascending order, discarding skip leading ones. Every returned
// eigenvector has its first nonzero entry positive.
func EigenEmbedding(method Method, op Operator, d, skip int, largest bool) (*mat.Dense, []float64, error) {
	n := op.Dim()
	if d+skip > n {
		return nil, nil, errors.Annotatef(ErrEigenFailure,
			"requested %v eigenpairs of an order %v operator", d+skip, n)
	}
	var (
		vectors *mat.Dense
		values  []float64
		err     error
	)
	switch method {
	case Dense:
		vectors, values, err = denseEigen(op.Sym(), d, skip, largest)
	case Arpack:
		vectors, values, err = lanczosEigen(op, d, skip, largest)
	case Randomized:
		vectors, values, err = randomizedEigen(op, d, skip, largest)
	default:
		vectors, values, err = denseEigen(op.Sym(), d, skip, largest)
	}
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	fixSigns(vectors)
	return vectors, values, nil
}

// GeneralizedEigenEmbedding solves A v = λ B v by Cholesky reduction to a
// standard problem, under the same selection and sign conventions.
func GeneralizedEigenEmbedding(method Method, a, b *mat.SymDense, d, skip int, largest bool) (*mat.Dense, []float64, error) {
	n := a.SymmetricDim()
	if b.SymmetricDim() != n {
		return nil, nil, errors.Errorf("dimension mismatch: %v != %v", n, b.SymmetricDim())
	}
	var chol mat.Cholesky
	if !chol.Factorize(b) {
		return nil, nil, errors.Annotatef(ErrEigenFailure, "right-hand matrix is not positive definite")
	}
	var l mat.TriDense
	chol.LTo(&l)
	// C = L⁻¹ A L⁻ᵀ
	var y, c mat.Dense
	if err := y.Solve(&l, a); err != nil {
		return nil, nil, errors.Annotatef(ErrEigenFailure, "triangular solve failed")
	}
	if err := c.Solve(&l, y.T()); err != nil {
		return nil, nil, errors.Annotatef(ErrEigenFailure, "triangular solve failed")
	}
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			sym.SetSym(i, j, (c.At(i, j)+c.At(j, i))/2)
		}
	}
	reduced, values, err := EigenEmbedding(method, SymOperator{sym}, d, skip, largest)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	// back-transform: v = L⁻ᵀ y
	var vectors mat.Dense
	if err := vectors.Solve(l.T(), reduced); err != nil {
		return nil, nil, errors.Annotatef(ErrEigenFailure, "triangular solve failed")
	}
	fixSigns(&vectors)
	return &vectors, values, nil
}

func denseEigen(m *mat.SymDense, d, skip int, largest bool) (*mat.Dense, []float64, error) {
	n := m.SymmetricDim()
	var es mat.EigenSym
	if !es.Factorize(m, true) {
		return nil, nil, errors.Annotatef(ErrEigenFailure, "symmetric decomposition of order %v failed", n)
	}
	all := es.Values(nil) // ascending
	var full mat.Dense
	es.VectorsTo(&full)
	vectors := mat.NewDense(n, d, nil)
	values := make([]float64, d)
	for j := 0; j < d; j++ {
		src := skip + j
		if largest {
			src = n - 1 - skip - j
		}
		values[j] = all[src]
		for i := 0; i < n; i++ {
			vectors.Set(i, j, full.At(i, src))
		}
	}
	return vectors, values, nil
}

// lanczosEigen runs Lanczos with full reorthogonalization. Smallest eigenpairs
// are obtained by running on sigma·I − A with sigma above the spectrum.
func lanczosEigen(op Operator, d, skip int, largest bool) (*mat.Dense, []float64, error) {
	if !largest {
		sigma, err := spectralBound(op)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		vectors, values, err := lanczosLargest(shifted{op: op, sigma: sigma}, d+skip)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		return unshift(vectors, values, sigma, d, skip)
	}
	vectors, values, err := lanczosLargest(op, d+skip)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return takeLeading(vectors, values, d, skip)
}

func lanczosLargest(op Operator, k int) (*mat.Dense, []float64, error) {
	n := op.Dim()
	m := 4*k + 32
	if m > n {
		m = n
	}
	basis := make([][]float64, 0, m)
	alpha := make([]float64, 0, m)
	beta := make([]float64, 0, m)

	rng := rand.New(rand.NewSource(1))
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	normalize(v)
	basis = append(basis, v)

	w := make([]float64, n)
	for j := 0; j < m; j++ {
		op.MulVec(w, basis[j])
		if j > 0 {
			axpy(w, basis[j-1], -beta[j-1])
		}
		a := dot(w, basis[j])
		alpha = append(alpha, a)
		axpy(w, basis[j], -a)
		// full reorthogonalization
		for _, u := range basis {
			axpy(w, u, -dot(w, u))
		}
		b := norm(w)
		if b < 1e-12 {
			beta = append(beta, 0)
			break
		}
		beta = append(beta, b)
		if j+1 < m {
			next := make([]float64, n)
			for i := range next {
				next[i] = w[i] / b
			}
			basis = append(basis, next)
		}
	}

	steps := len(alpha)
	if steps < k {
		return nil, nil, errors.Annotatef(ErrEigenFailure,
			"Lanczos breakdown after %v of %v steps", steps, k)
	}
	tri := mat.NewSymDense(steps, nil)
	for i := 0; i < steps; i++ {
		tri.SetSym(i, i, alpha[i])
		if i+1 < steps {
			tri.SetSym(i, i+1, beta[i])
		}
	}
	var es mat.EigenSym
	if !es.Factorize(tri, true) {
		return nil, nil, errors.Annotatef(ErrEigenFailure, "tridiagonal decomposition failed")
	}
	ritz := es.Values(nil)
	var y mat.Dense
	es.VectorsTo(&y)
	// lift the top k Ritz vectors
	vectors := mat.NewDense(n, k, nil)
	values := make([]float64, k)
	for j := 0; j < k; j++ {
		src := steps - 1 - j
		values[j] = ritz[src]
		for i := 0; i < n; i++ {
			sum := 0.0
			for s := 0; s < steps; s++ {
				sum += basis[s][i] * y.At(s, src)
			}
			vectors.Set(i, j, sum)
		}
	}
	return vectors, values, nil
}

// randomizedEigen uses a randomized range finder followed by a small dense
// decomposition.
func randomizedEigen(op Operator, d, skip int, largest bool) (*mat.Dense, []float64, error) {
	if !largest {
		sigma, err := spectralBound(op)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		vectors, values, err := randomizedLargest(shifted{op: op, sigma: sigma}, d+skip)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		return unshift(vectors, values, sigma, d, skip)
	}
	vectors, values, err := randomizedLargest(op, d+skip)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return takeLeading(vectors, values, d, skip)
}

func randomizedLargest(op Operator, k int) (*mat.Dense, []float64, error) {
	n := op.Dim()
	p := k + 8
	if p > n {
		p = n
	}
	rng := rand.New(rand.NewSource(1))
	sample := mat.NewDense(n, p, nil)
	col := make([]float64, n)
	product := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := range col {
			col[i] = rng.NormFloat64()
		}
		op.MulVec(product, col)
		for i := 0; i < n; i++ {
			sample.Set(i, j, product[i])
		}
	}
	var qr mat.QR
	var q mat.Dense
	// subspace iteration, re-orthonormalized after every product, sharpens the range
	for iter := 0; iter < 4; iter++ {
		qr.Factorize(sample)
		qr.QTo(&q)
		for j := 0; j < p; j++ {
			for i := 0; i < n; i++ {
				col[i] = q.At(i, j)
			}
			op.MulVec(product, col)
			for i := 0; i < n; i++ {
				sample.Set(i, j, product[i])
			}
		}
	}
	qr.Factorize(sample)
	qr.QTo(&q)
	basis := q.Slice(0, n, 0, p).(*mat.Dense)
	// B = Qᵀ A Q
	aq := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			col[i] = basis.At(i, j)
		}
		op.MulVec(product, col)
		for i := 0; i < n; i++ {
			aq.Set(i, j, product[i])
		}
	}
	var small mat.Dense
	small.Mul(basis.T(), aq)
	sym := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			sym.SetSym(i, j, (small.At(i, j)+small.At(j, i))/2)
		}
	}
	reduced, values, err := denseEigen(sym, k, 0, true)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	var vectors mat.Dense
	vectors.Mul(basis, reduced)
	return &vectors, values, nil
}

// spectralBound estimates an upper bound of the spectrum by power iteration.
func spectralBound(op Operator) (float64, error) {
	n := op.Dim()
	rng := rand.New(rand.NewSource(1))
	v := make([]float64, n)
	for i := range v {
		v[i] = rng.NormFloat64()
	}
	normalize(v)
	w := make([]float64, n)
	estimate := 0.0
	for iter := 0; iter < 50; iter++ {
		op.MulVec(w, v)
		estimate = norm(w)
		if estimate < 1e-300 {
			return 1, nil
		}
		for i := range v {
			v[i] = w[i] / estimate
		}
	}
	if math.IsNaN(estimate) || math.IsInf(estimate, 0) {
		return 0, errors.Annotatef(ErrEigenFailure, "power iteration diverged")
	}
	return estimate*1.01 + 1e-9, nil
}

// unshift converts eigenpairs of sigma·I − A back to eigenpairs of A, sorted
// ascending, and drops the skip leading ones.
func unshift(vectors *mat.Dense, values []float64, sigma float64, d, skip int) (*mat.Dense, []float64, error) {
	n, _ := vectors.Dims()
	type pair struct {
		value float64
		col   int
	}
	pairs := make([]pair, len(values))
	for j, v := range values {
		pairs[j] = pair{value: sigma - v, col: j}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })
	out := mat.NewDense(n, d, nil)
	outValues := make([]float64, d)
	for j := 0; j < d; j++ {
		outValues[j] = pairs[skip+j].value
		for i := 0; i < n; i++ {
			out.Set(i, j, vectors.At(i, pairs[skip+j].col))
		}
	}
	return out, outValues, nil
}

func takeLeading(vectors *mat.Dense, values []float64, d, skip int) (*mat.Dense, []float64, error) {
	n, _ := vectors.Dims()
	out := mat.NewDense(n, d, nil)
	outValues := make([]float64, d)
	for j := 0; j < d; j++ {
		outValues[j] = values[skip+j]
		for i := 0; i < n; i++ {
			out.Set(i, j, vectors.At(i, skip+j))
		}
	}
	return out, outValues, nil
}

// fixSigns flips columns so the first nonzero entry of every eigenvector is
// positive.
func fixSigns(m *mat.Dense) {
	rows, cols := m.Dims()
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			v := m.At(i, j)
			if math.Abs(v) > 1e-12 {
				if v < 0 {
					for r := 0; r < rows; r++ {
						m.Set(r, j, -m.At(r, j))
					}
				}
				break
			}
		}
	}
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func norm(a []float64) float64 {
	return math.Sqrt(dot(a, a))
}

func normalize(a []float64) {
	n := norm(a)
	if n == 0 {
		return
	}
	for i := range a {
		a[i] /= n
	}
}

func axpy(dst, x []float64, alpha float64) {
	for i := range dst {
		dst[i] += alpha * x[i]
	}
}
