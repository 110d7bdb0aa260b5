// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package matrix

import (
	"fmt"
	"math"
	"strings"
)

// Unknown marks a dimension which is only resolved at a later stage (e.g. from
// a runtime-supplied size).
const Unknown = math.MaxUint

// Matrix is a two-dimensional container of values stored in row-major order.
// A scalar is represented as a 1x1 matrix, and a vector as a 1xn matrix.
// Matrices whose dimensions are not yet known grow on demand as elements are
// assigned, and are otherwise required to have consistent row widths.
type Matrix[T any] struct {
	rows    uint
	cols    uint
	values  []T
	unknown bool
}

// New constructs a matrix of the given dimensions, with every element set to
// the zero value of T.
func New[T any](rows, cols uint) Matrix[T] {
	return Matrix[T]{rows, cols, make([]T, rows*cols), false}
}

// NewUnknown constructs an (initially empty) matrix whose dimensions are
// resolved as elements are assigned.
func NewUnknown[T any]() Matrix[T] {
	return Matrix[T]{0, 0, nil, true}
}

// Vector constructs a 1xn matrix from the given values.
func Vector[T any](values ...T) Matrix[T] {
	return Matrix[T]{1, uint(len(values)), values, false}
}

// Scalar constructs a 1x1 matrix holding the given value.
func Scalar[T any](value T) Matrix[T] {
	return Matrix[T]{1, 1, []T{value}, false}
}

// FromValues constructs a matrix of the given dimensions from its elements in
// row-major order.
func FromValues[T any](rows, cols uint, values []T) Matrix[T] {
	if uint(len(values)) != rows*cols {
		panic(fmt.Sprintf("%d values for %dx%d matrix", len(values), rows, cols))
	}
	//
	return Matrix[T]{rows, cols, values, false}
}

// FromRows constructs a matrix from a sequence of rows, or returns an error if
// the row widths are inconsistent.
func FromRows[T any](rows [][]T) (Matrix[T], error) {
	var m Matrix[T]
	//
	if len(rows) == 0 {
		return m, nil
	}
	//
	m.rows = uint(len(rows))
	m.cols = uint(len(rows[0]))
	//
	for i, row := range rows {
		if uint(len(row)) != m.cols {
			return Matrix[T]{}, fmt.Errorf("row %d has %d columns (expected %d)", i, len(row), m.cols)
		}
		//
		m.values = append(m.values, row...)
	}
	//
	return m, nil
}

// Rows returns the number of rows in this matrix.
func (p Matrix[T]) Rows() uint {
	return p.rows
}

// Cols returns the number of columns in this matrix.
func (p Matrix[T]) Cols() uint {
	return p.cols
}

// Len returns the total number of elements in this matrix.
func (p Matrix[T]) Len() uint {
	return uint(len(p.values))
}

// IsUnknown indicates whether the dimensions of this matrix are still to be
// resolved.
func (p Matrix[T]) IsUnknown() bool {
	return p.unknown
}

// IsVector indicates whether this matrix has exactly one row.
func (p Matrix[T]) IsVector() bool {
	return p.rows == 1
}

// InBounds checks whether a given position lies within this matrix.
func (p Matrix[T]) InBounds(row, col uint) bool {
	return row < p.rows && col < p.cols
}

// Get returns the element at a given position.  This panics if the position
// is out of bounds.
func (p Matrix[T]) Get(row, col uint) T {
	if !p.InBounds(row, col) {
		panic(fmt.Sprintf("matrix access (%d,%d) out-of-bounds (%dx%d)", row, col, p.rows, p.cols))
	}
	//
	return p.values[row*p.cols+col]
}

// Row returns a given row of this matrix as a 1xn matrix.
func (p Matrix[T]) Row(row uint) Matrix[T] {
	if row >= p.rows {
		panic(fmt.Sprintf("matrix row %d out-of-bounds (%dx%d)", row, p.rows, p.cols))
	}
	//
	values := make([]T, p.cols)
	copy(values, p.values[row*p.cols:(row+1)*p.cols])
	//
	return Vector(values...)
}

// Set assigns the element at a given position.  Matrices of unknown dimension
// grow to accommodate the position, whilst any other matrix panics when the
// position is out of bounds.
func (p *Matrix[T]) Set(row, col uint, value T) {
	if !p.InBounds(row, col) {
		if !p.unknown {
			panic(fmt.Sprintf("matrix assignment (%d,%d) out-of-bounds (%dx%d)", row, col, p.rows, p.cols))
		}
		//
		p.grow(max(p.rows, row+1), max(p.cols, col+1))
	}
	//
	p.values[row*p.cols+col] = value
}

// Resolve fixes the dimensions of a matrix whose dimensions were unknown.
// Elements already assigned are retained, and an error is returned if any lies
// outside the resolved dimensions.
func (p *Matrix[T]) Resolve(rows, cols uint) error {
	if !p.unknown {
		return fmt.Errorf("matrix dimensions already known (%dx%d)", p.rows, p.cols)
	} else if p.rows > rows || p.cols > cols {
		return fmt.Errorf("matrix (%dx%d) exceeds resolved dimensions (%dx%d)", p.rows, p.cols, rows, cols)
	}
	//
	p.grow(rows, cols)
	p.unknown = false
	//
	return nil
}

// Values returns the elements of this matrix in row-major order.
func (p Matrix[T]) Values() []T {
	return p.values
}

// Transpose returns the transpose of this matrix.
func (p Matrix[T]) Transpose() Matrix[T] {
	var r = Matrix[T]{p.cols, p.rows, make([]T, len(p.values)), p.unknown}
	//
	for i := range p.rows {
		for j := range p.cols {
			r.values[j*p.rows+i] = p.values[i*p.cols+j]
		}
	}
	//
	return r
}

// Rotate cyclically shifts the elements of this matrix, taken in row-major
// order, left by k positions.  That is, element i of the result is element
// (i+k) mod n of the original.  Negative offsets shift right.
func (p Matrix[T]) Rotate(k int) Matrix[T] {
	var (
		n = len(p.values)
		r = Matrix[T]{p.rows, p.cols, make([]T, n), p.unknown}
	)
	//
	if n == 0 {
		return r
	}
	//
	k = ((k % n) + n) % n
	//
	for i := range n {
		r.values[i] = p.values[(i+k)%n]
	}
	//
	return r
}

// Map applies a given function to every element of a matrix, producing a new
// matrix of the same dimensions.
func Map[S any, T any](m Matrix[S], fn func(S) T) Matrix[T] {
	values := make([]T, len(m.values))
	//
	for i, v := range m.values {
		values[i] = fn(v)
	}
	//
	return Matrix[T]{m.rows, m.cols, values, m.unknown}
}

// MapErr applies a function which can fail to every element of a matrix.
func MapErr[S any, T any](m Matrix[S], fn func(S) (T, error)) (Matrix[T], error) {
	var (
		values = make([]T, len(m.values))
		err    error
	)
	//
	for i, v := range m.values {
		if values[i], err = fn(v); err != nil {
			return Matrix[T]{}, err
		}
	}
	//
	return Matrix[T]{m.rows, m.cols, values, m.unknown}, nil
}

// Zip combines two matrices of identical dimensions element-wise.
func Zip[S any, T any, U any](lhs Matrix[S], rhs Matrix[T], fn func(S, T) (U, error)) (Matrix[U], error) {
	if lhs.rows != rhs.rows || lhs.cols != rhs.cols {
		return Matrix[U]{}, fmt.Errorf("incompatible dimensions (%dx%d vs %dx%d)", lhs.rows, lhs.cols,
			rhs.rows, rhs.cols)
	}
	//
	values := make([]U, len(lhs.values))
	//
	for i := range lhs.values {
		var err error
		//
		if values[i], err = fn(lhs.values[i], rhs.values[i]); err != nil {
			return Matrix[U]{}, err
		}
	}
	//
	return Matrix[U]{lhs.rows, lhs.cols, values, false}, nil
}

// Equal checks whether two matrices have the same dimensions and elements,
// according to a given equality function.
func Equal[T any](lhs Matrix[T], rhs Matrix[T], eq func(T, T) bool) bool {
	if lhs.rows != rhs.rows || lhs.cols != rhs.cols {
		return false
	}
	//
	for i := range lhs.values {
		if !eq(lhs.values[i], rhs.values[i]) {
			return false
		}
	}
	//
	return true
}

// String returns a string representation of a matrix using a given function to
// render each element.
func String[T any](m Matrix[T], fn func(T) string) string {
	var builder strings.Builder
	//
	builder.WriteString("[")
	//
	for i := range m.rows {
		if i != 0 {
			builder.WriteString("; ")
		}
		//
		for j := range m.cols {
			if j != 0 {
				builder.WriteString(" ")
			}
			//
			builder.WriteString(fn(m.values[i*m.cols+j]))
		}
	}
	//
	builder.WriteString("]")
	//
	return builder.String()
}

func (p *Matrix[T]) grow(rows, cols uint) {
	if rows == p.rows && cols == p.cols {
		return
	}
	//
	values := make([]T, rows*cols)
	//
	for i := range p.rows {
		copy(values[i*cols:], p.values[i*p.cols:(i+1)*p.cols])
	}
	//
	p.rows, p.cols, p.values = rows, cols, values
}
