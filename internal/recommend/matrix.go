// Viewrec - Implicit Feedback Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/viewrec

package recommend

import (
	"fmt"
	"sort"
)

// Cell addresses one entry of an InteractionMatrix.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// InteractionMatrix is an immutable sparse users x items matrix in
// compressed sparse row form. Only nonzero values are stored, and column
// indices within a row are strictly increasing.
//
// Slices returned by accessor methods alias internal storage and must not be
// modified by callers.
type InteractionMatrix struct {
	rows    int
	cols    int
	indptr  []int
	indices []int
	values  []float64
}

// newMatrixFromRows compacts per-row maps into CSR form, dropping zeros.
func newMatrixFromRows(rows, cols int, data []map[int]float64) *InteractionMatrix {
	m := &InteractionMatrix{
		rows:   rows,
		cols:   cols,
		indptr: make([]int, rows+1),
	}

	nnz := 0
	for _, row := range data {
		nnz += len(row)
	}
	m.indices = make([]int, 0, nnz)
	m.values = make([]float64, 0, nnz)

	colBuf := make([]int, 0)
	for r := 0; r < rows; r++ {
		var row map[int]float64
		if r < len(data) {
			row = data[r]
		}

		colBuf = colBuf[:0]
		for c, v := range row {
			if v != 0 {
				colBuf = append(colBuf, c)
			}
		}
		sort.Ints(colBuf)

		for _, c := range colBuf {
			m.indices = append(m.indices, c)
			m.values = append(m.values, row[c])
		}
		m.indptr[r+1] = len(m.indices)
	}

	return m
}

// Dims returns the number of rows (users) and columns (items).
func (m *InteractionMatrix) Dims() (rows, cols int) {
	return m.rows, m.cols
}

// NNZ returns the number of stored nonzero cells.
func (m *InteractionMatrix) NNZ() int {
	return len(m.values)
}

// Row returns the column indices and values of row r.
func (m *InteractionMatrix) Row(r int) (cols []int, vals []float64) {
	if r < 0 || r >= m.rows {
		return nil, nil
	}
	start, end := m.indptr[r], m.indptr[r+1]
	return m.indices[start:end], m.values[start:end]
}

// RowNNZ returns the number of nonzero cells in row r.
func (m *InteractionMatrix) RowNNZ(r int) int {
	if r < 0 || r >= m.rows {
		return 0
	}
	return m.indptr[r+1] - m.indptr[r]
}

// At returns the value at (r, c); out-of-range coordinates read as zero.
func (m *InteractionMatrix) At(r, c int) float64 {
	cols, vals := m.Row(r)
	i := sort.SearchInts(cols, c)
	if i < len(cols) && cols[i] == c {
		return vals[i]
	}
	return 0
}

// Sum returns the total of all stored values.
func (m *InteractionMatrix) Sum() float64 {
	var total float64
	for _, v := range m.values {
		total += v
	}
	return total
}

// Cells returns the coordinates of every nonzero cell in row-major order.
// The order is stable for a given matrix and is the candidate ordering used
// by SplitMatrix.
func (m *InteractionMatrix) Cells() []Cell {
	cells := make([]Cell, 0, len(m.values))
	for r := 0; r < m.rows; r++ {
		for i := m.indptr[r]; i < m.indptr[r+1]; i++ {
			cells = append(cells, Cell{Row: r, Col: m.indices[i]})
		}
	}
	return cells
}

// ColumnSums returns the sum of each column (item popularity).
func (m *InteractionMatrix) ColumnSums() []float64 {
	sums := make([]float64, m.cols)
	for i, c := range m.indices {
		sums[c] += m.values[i]
	}
	return sums
}

// Binarize returns a copy with every nonzero value replaced by 1.
func (m *InteractionMatrix) Binarize() *InteractionMatrix {
	out := m.clone()
	for i := range out.values {
		out.values[i] = 1
	}
	return out
}

// Transpose returns the items x users matrix.
func (m *InteractionMatrix) Transpose() *InteractionMatrix {
	t := &InteractionMatrix{
		rows:    m.cols,
		cols:    m.rows,
		indptr:  make([]int, m.cols+1),
		indices: make([]int, len(m.indices)),
		values:  make([]float64, len(m.values)),
	}

	for _, c := range m.indices {
		t.indptr[c+1]++
	}
	for c := 0; c < m.cols; c++ {
		t.indptr[c+1] += t.indptr[c]
	}

	next := make([]int, m.cols)
	copy(next, t.indptr[:m.cols])
	for r := 0; r < m.rows; r++ {
		for i := m.indptr[r]; i < m.indptr[r+1]; i++ {
			c := m.indices[i]
			dst := next[c]
			t.indices[dst] = r
			t.values[dst] = m.values[i]
			next[c]++
		}
	}

	return t
}

// Equal reports whether both matrices have the same shape and cells.
func (m *InteractionMatrix) Equal(other *InteractionMatrix) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.rows != other.rows || m.cols != other.cols || len(m.values) != len(other.values) {
		return false
	}
	for i := range m.indptr {
		if m.indptr[i] != other.indptr[i] {
			return false
		}
	}
	for i := range m.indices {
		if m.indices[i] != other.indices[i] || m.values[i] != other.values[i] {
			return false
		}
	}
	return true
}

// without returns a copy with the given cells removed from storage.
func (m *InteractionMatrix) without(masked map[Cell]struct{}) *InteractionMatrix {
	if len(masked) == 0 {
		return m.clone()
	}

	out := &InteractionMatrix{
		rows:    m.rows,
		cols:    m.cols,
		indptr:  make([]int, m.rows+1),
		indices: make([]int, 0, max(len(m.indices)-len(masked), 0)),
		values:  make([]float64, 0, max(len(m.values)-len(masked), 0)),
	}

	for r := 0; r < m.rows; r++ {
		for i := m.indptr[r]; i < m.indptr[r+1]; i++ {
			if _, drop := masked[Cell{Row: r, Col: m.indices[i]}]; drop {
				continue
			}
			out.indices = append(out.indices, m.indices[i])
			out.values = append(out.values, m.values[i])
		}
		out.indptr[r+1] = len(out.indices)
	}

	return out
}

func (m *InteractionMatrix) clone() *InteractionMatrix {
	out := &InteractionMatrix{
		rows:    m.rows,
		cols:    m.cols,
		indptr:  make([]int, len(m.indptr)),
		indices: make([]int, len(m.indices)),
		values:  make([]float64, len(m.values)),
	}
	copy(out.indptr, m.indptr)
	copy(out.indices, m.indices)
	copy(out.values, m.values)
	return out
}

// MatrixData is the exported CSR representation used for persistence.
type MatrixData struct {
	Rows    int       `json:"rows"`
	Cols    int       `json:"cols"`
	Indptr  []int     `json:"indptr"`
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

// Data returns a copy of the matrix in exported CSR form.
func (m *InteractionMatrix) Data() MatrixData {
	c := m.clone()
	return MatrixData{
		Rows:    c.rows,
		Cols:    c.cols,
		Indptr:  c.indptr,
		Indices: c.indices,
		Values:  c.values,
	}
}

// MatrixFromData rebuilds a matrix from its CSR form, checking structure.
//
//nolint:gocritic // MatrixData passed by value mirrors Data()
func MatrixFromData(d MatrixData) (*InteractionMatrix, error) {
	if d.Rows < 0 || d.Cols < 0 {
		return nil, fmt.Errorf("matrix shape %dx%d is negative", d.Rows, d.Cols)
	}
	if len(d.Indptr) != d.Rows+1 {
		return nil, fmt.Errorf("indptr length %d, want %d", len(d.Indptr), d.Rows+1)
	}
	if len(d.Indices) != len(d.Values) || d.Indptr[d.Rows] != len(d.Values) || d.Indptr[0] != 0 {
		return nil, fmt.Errorf("inconsistent CSR storage: %d indices, %d values", len(d.Indices), len(d.Values))
	}

	for r := 0; r < d.Rows; r++ {
		start, end := d.Indptr[r], d.Indptr[r+1]
		if start > end {
			return nil, fmt.Errorf("row %d: decreasing indptr", r)
		}
		for i := start; i < end; i++ {
			c := d.Indices[i]
			if c < 0 || c >= d.Cols {
				return nil, fmt.Errorf("row %d: column %d out of range", r, c)
			}
			if i > start && d.Indices[i-1] >= c {
				return nil, fmt.Errorf("row %d: columns not strictly increasing", r)
			}
			if d.Values[i] == 0 {
				return nil, fmt.Errorf("row %d: explicit zero at column %d", r, c)
			}
		}
	}

	m := &InteractionMatrix{
		rows:    d.Rows,
		cols:    d.Cols,
		indptr:  append([]int(nil), d.Indptr...),
		indices: append([]int(nil), d.Indices...),
		values:  append([]float64(nil), d.Values...),
	}
	return m, nil
}
