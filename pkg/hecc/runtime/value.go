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
package runtime

import (
	"fmt"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/backend"
	"github.com/consensys/go-hecc/pkg/util/matrix"
)

// Value is the result of evaluating an expression, which is either a public
// scalar, a public matrix or an encrypted value.
type Value interface {
	fmt.Stringer
	// Shape returns the dimensions of this value, where scalars have zero rows
	// and columns.
	Shape() Shape
}

// Plain is a public scalar value.
type Plain struct {
	Value ast.Constant
}

// PlainMatrix is a public matrix (or vector) value.
type PlainMatrix struct {
	Value matrix.Matrix[ast.Constant]
}

// Cipher is an encrypted scalar, vector or matrix.  An encrypted scalar is
// replicated across every slot of its ciphertext.  Otherwise, the elements of
// an encrypted matrix occupy the leading slots in row-major order, and every
// remaining slot holds zero.
type Cipher struct {
	Ciphertext backend.Ciphertext
	// Kind of the encrypted elements.
	Kind ast.Kind
	// Dimensions of the encrypted value (zero for scalars).
	Rows uint
	Cols uint
}

// Shape returns the dimensions of a value.
type Shape struct {
	Rows uint
	Cols uint
}

// IsScalar indicates whether this is the shape of a scalar.
func (s Shape) IsScalar() bool {
	return s.Rows == 0 && s.Cols == 0
}

// Len returns the number of elements of a value with this shape.
func (s Shape) Len() uint {
	if s.IsScalar() {
		return 1
	}
	//
	return s.Rows * s.Cols
}

// Combine determines the shape resulting from an element-wise operation over
// values of two shapes.  Scalars are broadcast, whilst values of different
// shape are flattened into vectors and the shorter is extended with zeros.
func (s Shape) Combine(o Shape) Shape {
	switch {
	case s == o || o.IsScalar():
		return s
	case s.IsScalar():
		return o
	default:
		return Shape{1, max(s.Len(), o.Len())}
	}
}

func (s Shape) String() string {
	if s.IsScalar() {
		return "scalar"
	}
	//
	return fmt.Sprintf("%dx%d", s.Rows, s.Cols)
}

// Shape implementation for Value interface.
func (p *Plain) Shape() Shape { return Shape{} }

// Shape implementation for Value interface.
func (p *PlainMatrix) Shape() Shape { return Shape{p.Value.Rows(), p.Value.Cols()} }

// Shape implementation for Value interface.
func (p *Cipher) Shape() Shape { return Shape{p.Rows, p.Cols} }

func (p *Plain) String() string {
	return p.Value.String()
}

func (p *PlainMatrix) String() string {
	return matrix.String(p.Value, ast.Constant.String)
}

func (p *Cipher) String() string {
	if p.Rows == 0 {
		return fmt.Sprintf("secret %s", p.Kind)
	}
	//
	return fmt.Sprintf("secret %s[%d][%d]", p.Kind, p.Rows, p.Cols)
}

// Int constructs a public integer value.
func Int(i int64) Value {
	return &Plain{ast.Int(i)}
}

// Float constructs a public floating-point value.
func Float(f float64) Value {
	return &Plain{ast.Float(f)}
}

// Bool constructs a public boolean value.
func Bool(b bool) Value {
	return &Plain{ast.Bool(b)}
}

// Ints constructs a public integer vector.
func Ints(values ...int64) Value {
	elements := make([]ast.Constant, len(values))
	//
	for i, v := range values {
		elements[i] = ast.Int(v)
	}
	//
	return &PlainMatrix{matrix.Vector(elements...)}
}

// ============================================================================
// Public arithmetic
// ============================================================================

// Flatten the elements of a public value into a vector of a given length,
// extending with zeros as necessary.  Scalars are replicated.
func elements(v Value, n uint) []ast.Constant {
	values := make([]ast.Constant, n)
	//
	switch v := v.(type) {
	case *Plain:
		for i := range values {
			values[i] = v.Value
		}
	case *PlainMatrix:
		for i := range values {
			if i < len(v.Value.Values()) {
				values[i] = v.Value.Values()[i]
			} else {
				values[i] = ast.Neutral(kindOf(v))
			}
		}
	}
	//
	return values
}

// Construct a public value of a given shape from its elements.
func plainOf(shape Shape, values []ast.Constant) Value {
	if shape.IsScalar() {
		return &Plain{values[0]}
	}
	//
	return &PlainMatrix{matrix.FromValues(shape.Rows, shape.Cols, values)}
}

// Apply a binary operator element-wise over public values.
func plainBinary(op ast.Op, lhs Value, rhs Value) (Value, error) {
	var (
		shape = lhs.Shape().Combine(rhs.Shape())
		n     = shape.Len()
		l     = elements(lhs, n)
		r     = elements(rhs, n)
		out   = make([]ast.Constant, n)
	)
	//
	for i := range out {
		var err error
		//
		if out[i], err = ast.Apply(op, l[i], r[i]); err != nil {
			return nil, err
		}
	}
	//
	return plainOf(shape, out), nil
}

// Apply a unary operator element-wise over a public value.
func plainUnary(op ast.Op, v Value) (Value, error) {
	var (
		shape = v.Shape()
		in    = elements(v, shape.Len())
		out   = make([]ast.Constant, len(in))
	)
	//
	for i := range out {
		var err error
		//
		if out[i], err = ast.ApplyUnary(op, in[i]); err != nil {
			return nil, err
		}
	}
	//
	return plainOf(shape, out), nil
}

// Convert public elements into slot values, failing for non-numeric elements.
func slotValues(values []ast.Constant) ([]float64, error) {
	slots := make([]float64, len(values))
	//
	for i, v := range values {
		if !v.IsNumeric() {
			return nil, fmt.Errorf("%s cannot be encrypted", v.Kind())
		}
		//
		slots[i] = v.AsFloat()
	}
	//
	return slots, nil
}

// Kind of the elements of a public value.
func kindOf(v Value) ast.Kind {
	switch v := v.(type) {
	case *Plain:
		return v.Value.Kind()
	case *PlainMatrix:
		if len(v.Value.Values()) > 0 {
			return v.Value.Values()[0].Kind()
		}
	case *Cipher:
		return v.Kind
	}
	//
	return ast.INT
}
