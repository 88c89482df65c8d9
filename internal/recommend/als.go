// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// DefaultSeed seeds factor initialization when ALSParams.Seed is zero.
const DefaultSeed int64 = 42

// initScale is the standard deviation of the initial factor entries.
const initScale = 0.01

// ALSParams configures confidence-weighted implicit ALS.
type ALSParams struct {
	// Rank is the dimension of the latent factor vectors.
	Rank int `json:"rank"`

	// Regularization is the L2 penalty lambda applied to every factor row.
	Regularization float64 `json:"regularization"`

	// Alpha scales the confidence transform c = 1 + alpha * r.
	Alpha float64 `json:"alpha"`

	// Iterations is the number of full user+item rounds. Zero or negative
	// returns the initial factors unchanged.
	Iterations int `json:"iterations"`

	// Seed drives factor initialization. Zero selects DefaultSeed.
	Seed int64 `json:"seed"`

	// Workers is the number of goroutines solving rows within a half-round.
	// If <= 0, defaults to 4.
	Workers int `json:"workers"`
}

// DefaultALSParams returns the stock hyperparameters.
func DefaultALSParams() ALSParams {
	return ALSParams{
		Rank:           20,
		Regularization: 0.1,
		Alpha:          15,
		Iterations:     50,
		Workers:        4,
	}
}

// Validate checks the parameters without touching any data.
func (p ALSParams) Validate() error {
	if p.Rank <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidRank, p.Rank)
	}
	if math.IsNaN(p.Regularization) || p.Regularization < 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidRegularization, p.Regularization)
	}
	if math.IsNaN(p.Alpha) || p.Alpha < 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidConfidence, p.Alpha)
	}
	return nil
}

// Factors holds fitted user (rows x rank) and item (cols x rank) factors.
// Factors are never modified after FitALS returns them.
type Factors struct {
	Users *mat.Dense
	Items *mat.Dense
}

// Rank returns the latent dimension.
func (f *Factors) Rank() int {
	_, k := f.Users.Dims()
	return k
}

// Predict returns the raw affinity of user row u for every item.
func (f *Factors) Predict(u int) []float64 {
	items, _ := f.Items.Dims()
	out := mat.NewVecDense(items, nil)
	out.MulVec(f.Items, f.Users.RowView(u))
	return out.RawVector().Data
}

// Equal reports whether both factor sets are element-wise identical.
func (f *Factors) Equal(other *Factors) bool {
	if f == nil || other == nil {
		return f == other
	}
	return mat.Equal(f.Users, other.Users) && mat.Equal(f.Items, other.Items)
}

// FactorsData is the exported row-major form used for persistence.
type FactorsData struct {
	Rank     int       `json:"rank"`
	NumUsers int       `json:"num_users"`
	NumItems int       `json:"num_items"`
	Users    []float64 `json:"users"`
	Items    []float64 `json:"items"`
}

// Data returns a copy of the factors in exported form.
func (f *Factors) Data() FactorsData {
	users, k := f.Users.Dims()
	items, _ := f.Items.Dims()
	return FactorsData{
		Rank:     k,
		NumUsers: users,
		NumItems: items,
		Users:    mat.DenseCopyOf(f.Users).RawMatrix().Data,
		Items:    mat.DenseCopyOf(f.Items).RawMatrix().Data,
	}
}

// FactorsFromData rebuilds factors from their exported form.
//
//nolint:gocritic // FactorsData passed by value mirrors Data()
func FactorsFromData(d FactorsData) (*Factors, error) {
	if d.Rank <= 0 || d.NumUsers <= 0 || d.NumItems <= 0 {
		return nil, fmt.Errorf("invalid factor shape: %d users, %d items, rank %d", d.NumUsers, d.NumItems, d.Rank)
	}
	if len(d.Users) != d.NumUsers*d.Rank || len(d.Items) != d.NumItems*d.Rank {
		return nil, fmt.Errorf("factor data length mismatch: %d users, %d items", len(d.Users), len(d.Items))
	}
	return &Factors{
		Users: mat.NewDense(d.NumUsers, d.Rank, append([]float64(nil), d.Users...)),
		Items: mat.NewDense(d.NumItems, d.Rank, append([]float64(nil), d.Items...)),
	}, nil
}

// InitFactors draws the starting factors for a users x items matrix:
// users first, then items, each entry N(0, 1) * 0.01.
func InitFactors(numUsers, numItems, rank int, seed int64) *Factors {
	if seed == 0 {
		seed = DefaultSeed
	}
	//nolint:gosec // reproducible initialization, not security sensitive
	rng := rand.New(rand.NewSource(seed))

	users := make([]float64, numUsers*rank)
	for i := range users {
		users[i] = rng.NormFloat64() * initScale
	}
	items := make([]float64, numItems*rank)
	for i := range items {
		items[i] = rng.NormFloat64() * initScale
	}

	return &Factors{
		Users: mat.NewDense(numUsers, rank, users),
		Items: mat.NewDense(numItems, rank, items),
	}
}

// FitALS factorizes train with confidence-weighted implicit ALS
// (Hu, Koren, Volinsky 2008).
//
// The objective minimized is
//
//	sum_{u,i} c_ui (p_ui - x_u . y_i)^2 + lambda (||x_u||^2 + ||y_i||^2)
//
// with c_ui = 1 + alpha * r_ui and p_ui = 1 where r_ui > 0.
//
// Each half-round solves every row from the previous half-round's factors
// and publishes the new matrix only after all workers finish. Cancellation
// is checked between half-rounds.
func FitALS(ctx context.Context, train *InteractionMatrix, params ALSParams) (*Factors, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	numUsers, numItems := train.Dims()
	if numUsers == 0 || numItems == 0 {
		return nil, ErrEmptyMatrix
	}

	workers := params.Workers
	if workers <= 0 {
		workers = 4
	}

	f := InitFactors(numUsers, numItems, params.Rank, params.Seed)
	if params.Iterations <= 0 {
		return f, nil
	}

	byItem := train.Transpose()

	for iter := 0; iter < params.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f.Users = solveSide(train, f.Items, params, workers)

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f.Items = solveSide(byItem, f.Users, params, workers)
	}

	return f, nil
}

// solveSide computes a new factor row for every row of m, holding fixed
// constant. Rows are split into contiguous chunks, one per worker.
func solveSide(m *InteractionMatrix, fixed *mat.Dense, params ALSParams, workers int) *mat.Dense {
	rows, _ := m.Dims()
	k := params.Rank

	// YtY + lambda*I, shared read-only by all workers
	gram := mat.NewSymDense(k, nil)
	gram.SymOuterK(1, fixed.T())
	for d := 0; d < k; d++ {
		gram.SetSym(d, d, gram.At(d, d)+params.Regularization)
	}

	out := mat.NewDense(rows, k, nil)

	var wg sync.WaitGroup
	chunkSize := (rows + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > rows {
			end = rows
		}
		if start >= end {
			break
		}

		wg.Add(1)
		go func(rStart, rEnd int) {
			defer wg.Done()

			a := mat.NewSymDense(k, nil)
			b := mat.NewVecDense(k, nil)
			x := mat.NewVecDense(k, nil)
			for r := rStart; r < rEnd; r++ {
				solveRow(m, r, fixed, gram, params.Alpha, a, b, x)
				out.SetRow(r, x.RawVector().Data)
			}
		}(start, end)
	}

	wg.Wait()
	return out
}

// solveRow solves (YtY + Yt(C-I)Y + lambda*I) x = Yt C p for one row.
// a, b and x are per-worker scratch space.
//
//nolint:gocritic // argument names follow the normal-equation notation
func solveRow(m *InteractionMatrix, r int, fixed *mat.Dense, gram *mat.SymDense, alpha float64, a *mat.SymDense, b, x *mat.VecDense) {
	a.CopySym(gram)
	b.Zero()

	cols, vals := m.Row(r)
	for i, c := range cols {
		y := fixed.RowView(c)
		conf := 1 + alpha*vals[i]
		// A += (c - 1) y y'
		a.SymRankOne(a, conf-1, y)
		// b += c y (preference is 1 for every stored cell)
		b.AddScaledVec(b, conf, y)
	}

	if len(cols) == 0 {
		x.Zero()
		return
	}

	var chol mat.Cholesky
	if chol.Factorize(a) {
		if err := chol.SolveVecTo(x, b); err == nil && finite(x.RawVector().Data) {
			return
		}
	}

	// Not positive definite (e.g. lambda = 0 with fewer items than rank):
	// fall back to a general solve, then to the zero vector.
	// A Condition error still carries a usable solution.
	x.Zero()
	_ = x.SolveVec(a, b)
	if !finite(x.RawVector().Data) {
		x.Zero()
	}
}

func finite(v []float64) bool {
	for _, e := range v {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return false
		}
	}
	return true
}
