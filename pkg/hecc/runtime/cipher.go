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
	"errors"
	"math"
	"slices"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/backend"
	"github.com/consensys/go-hecc/pkg/util/matrix"
)

// Ciphertext operations for a given arithmetic operator.
type cipherOp struct {
	fresh        func(backend.Ciphertext, backend.Ciphertext) (backend.Ciphertext, error)
	inPlace      func(backend.Ciphertext, backend.Ciphertext) error
	freshPlain   func(backend.Ciphertext, backend.Plaintext) (backend.Ciphertext, error)
	inPlacePlain func(backend.Ciphertext, backend.Plaintext) error
}

var cipherOps = map[ast.Op]cipherOp{
	ast.ADD: {backend.Ciphertext.Add, backend.Ciphertext.AddInPlace, backend.Ciphertext.AddPlain,
		backend.Ciphertext.AddPlainInPlace},
	ast.SUB: {backend.Ciphertext.Sub, backend.Ciphertext.SubInPlace, backend.Ciphertext.SubPlain,
		backend.Ciphertext.SubPlainInPlace},
	ast.MUL: {backend.Ciphertext.Mul, backend.Ciphertext.MulInPlace, backend.Ciphertext.MulPlain,
		backend.Ciphertext.MulPlainInPlace},
}

// Encrypt converts a public value into an encrypted value.  Encrypted values
// are returned as is.
func (p *Visitor) Encrypt(val Value) (*Cipher, error) {
	var (
		shape  = val.Shape()
		values []float64
		err    error
	)
	//
	switch val := val.(type) {
	case *Cipher:
		return val, nil
	case *Plain:
		values, err = slotValues(elements(val, p.backend.Slots()))
	case *PlainMatrix:
		if err = p.fits(shape); err == nil {
			values, err = slotValues(val.Value.Values())
		}
	}
	//
	if err != nil {
		return nil, mismatch(err)
	}
	//
	ct, err := p.backend.Encrypt(values)
	if err != nil {
		return nil, err
	}
	//
	return &Cipher{ct, kindOf(val), shape.Rows, shape.Cols}, nil
}

// Decrypt converts an encrypted value into a public value.  Public values are
// returned as is.
func (p *Visitor) Decrypt(val Value) (Value, error) {
	c, ok := val.(*Cipher)
	//
	if !ok {
		return val, nil
	}
	//
	slots, err := p.backend.Decrypt(c.Ciphertext)
	if err != nil {
		return nil, err
	}
	//
	var (
		shape  = c.Shape()
		values = make([]ast.Constant, shape.Len())
	)
	//
	for i := range values {
		values[i] = constant(c.Kind, slots[i])
	}
	//
	return plainOf(shape, values), nil
}

// Evaluate an arithmetic operator where at least one operand is encrypted.
// Operands flagged as temporary are not referenced elsewhere, and hence can be
// overwritten.
func (p *Visitor) arithmetic(op ast.Op, lhs Value, ltemp bool, rhs Value, rtemp bool) (*Cipher, error) {
	var (
		shape  = lhs.Shape().Combine(rhs.Shape())
		kind   = numeric(max(kindOf(lhs), kindOf(rhs)))
		fns    = cipherOps[op]
		lc, lx = lhs.(*Cipher)
		rc, rx = rhs.(*Cipher)
		ct     backend.Ciphertext
		err    error
	)
	//
	if err := p.fits(shape); err != nil {
		return nil, err
	}
	// Replicated scalars must be confined to the leading slots, except when
	// multiplying where the other operand does this.
	if op != ast.MUL && !shape.IsScalar() {
		if lx && lc.Shape().IsScalar() {
			if lc, err = p.expand(lc, shape); err != nil {
				return nil, err
			}
			//
			ltemp = true
		}
		//
		if rx && rc.Shape().IsScalar() {
			if rc, err = p.expand(rc, shape); err != nil {
				return nil, err
			}
			//
			rtemp = true
		}
	}
	//
	switch {
	case lx && rx && ltemp:
		ct, err = lc.Ciphertext, fns.inPlace(lc.Ciphertext, rc.Ciphertext)
	case lx && rx:
		ct, err = fns.fresh(lc.Ciphertext, rc.Ciphertext)
	case lx:
		ct, err = p.withPlain(fns, lc, ltemp, rhs, shape)
	case op == ast.SUB:
		// public - secret = -secret + public
		if ct, err = p.negate(rc, rtemp); err == nil {
			ct, err = p.withPlain(cipherOps[ast.ADD], &Cipher{ct, kind, shape.Rows, shape.Cols}, true, lhs, shape)
		}
	default:
		ct, err = p.withPlain(fns, rc, rtemp, lhs, shape)
	}
	//
	if err != nil {
		return nil, err
	}
	//
	return &Cipher{ct, kind, shape.Rows, shape.Cols}, nil
}

func (p *Visitor) withPlain(fns cipherOp, c *Cipher, temp bool, val Value, shape Shape) (backend.Ciphertext, error) {
	pt, err := p.encode(val, shape)
	//
	if err != nil {
		return nil, err
	} else if temp {
		return c.Ciphertext, fns.inPlacePlain(c.Ciphertext, pt)
	}
	//
	return fns.freshPlain(c.Ciphertext, pt)
}

func (p *Visitor) negate(c *Cipher, temp bool) (backend.Ciphertext, error) {
	if temp {
		return c.Ciphertext, c.Ciphertext.NegateInPlace()
	}
	//
	return c.Ciphertext.Negate()
}

// Evaluate a logical operator where at least one operand is encrypted.
// Encrypted booleans hold zero or one, so each operator has an arithmetic
// equivalent.
func (p *Visitor) logical(op ast.Op, lhs Value, ltemp bool, rhs Value, rtemp bool) (*Cipher, error) {
	var (
		a   = truth(lhs)
		b   = truth(rhs)
		r   *Cipher
		err error
	)
	//
	switch op {
	case ast.AND:
		r, err = p.arithmetic(ast.MUL, a, ltemp, b, rtemp)
	case ast.OR, ast.XOR:
		// a || b = a + b - ab, and a ^ b = a + b - 2ab
		var ab, sum *Cipher
		//
		if ab, err = p.arithmetic(ast.MUL, a, false, b, false); err != nil {
			return nil, err
		} else if op == ast.XOR {
			if ab, err = p.arithmetic(ast.ADD, ab, true, ab, false); err != nil {
				return nil, err
			}
		}
		//
		if sum, err = p.arithmetic(ast.ADD, a, ltemp, b, rtemp); err != nil {
			return nil, err
		}
		//
		r, err = p.arithmetic(ast.SUB, sum, true, ab, true)
	default:
		return nil, ast.NewError(ast.UnsupportedOperation, ast.NIL, "operator %s", op)
	}
	//
	if err != nil {
		return nil, err
	}
	//
	r.Kind = ast.BOOL
	//
	return r, nil
}

// Evaluate logical negation of an encrypted value, as 1 - a.
func (p *Visitor) not(c *Cipher, temp bool) (*Cipher, error) {
	r, err := p.arithmetic(ast.SUB, &Plain{ast.Int(1)}, false, c, temp)
	if err != nil {
		return nil, err
	}
	//
	r.Kind = ast.BOOL
	//
	return r, nil
}

// Evaluate a relational operator where at least one operand is encrypted, for
// which the backend must be able to compare ciphertexts.
func (p *Visitor) compare(op ast.Op, lhs Value, rhs Value) (*Cipher, error) {
	var (
		shape = lhs.Shape().Combine(rhs.Shape())
		l, r  *Cipher
		err   error
	)
	//
	comparator, ok := p.backend.(backend.Comparator)
	//
	if !ok {
		return nil, ast.NewError(ast.UnsupportedOperation, ast.NIL, "%s backend cannot compare ciphertexts",
			p.backend.Name())
	} else if l, err = p.encryptAs(lhs, shape); err != nil {
		return nil, err
	} else if r, err = p.encryptAs(rhs, shape); err != nil {
		return nil, err
	}
	//
	ct, err := comparator.Compare(op, l.Ciphertext, r.Ciphertext)
	if err != nil {
		return nil, err
	}
	// Trailing zeros compare equal
	if !shape.IsScalar() {
		if err = ct.MulPlainInPlace(p.ones(shape.Len())); err != nil {
			return nil, err
		}
	}
	//
	return &Cipher{ct, ast.BOOL, shape.Rows, shape.Cols}, nil
}

// Evaluate division of an encrypted value by a public value, which is
// supported only for floating-point values.
func (p *Visitor) divide(op ast.Op, lhs Value, ltemp bool, rhs Value) (*Cipher, error) {
	var kind = max(kindOf(lhs), kindOf(rhs))
	//
	if _, ok := rhs.(*Cipher); ok || op != ast.DIV || kind != ast.FLOAT {
		return nil, ast.NewError(ast.UnsupportedOperation, ast.NIL, "operator %s over ciphertexts", op)
	}
	//
	reciprocal, err := plainBinary(ast.DIV, &Plain{ast.Float(1)}, rhs)
	if err != nil {
		return nil, mismatch(err)
	}
	//
	return p.arithmetic(ast.MUL, lhs, ltemp, reciprocal, true)
}

// Rotate an encrypted value left by k elements, cyclically over its elements.
func (p *Visitor) rotate(c *Cipher, k int) (*Cipher, error) {
	var (
		n     = c.Shape().Len()
		shift = ((k % int(n)) + int(n)) % int(n)
		ct    backend.Ciphertext
		err   error
	)
	//
	switch {
	case c.Shape().IsScalar() || shift == 0:
		return c, nil
	case n == p.backend.Slots():
		ct, err = c.Ciphertext.Rotate(shift)
	default:
		ct, err = p.permute(c, func(i uint) uint { return (i + uint(shift)) % n })
	}
	//
	if err != nil {
		return nil, err
	}
	//
	return &Cipher{ct, c.Kind, c.Rows, c.Cols}, nil
}

// Transpose an encrypted matrix.
func (p *Visitor) transpose(c *Cipher) (*Cipher, error) {
	var (
		rows, cols = c.Rows, c.Cols
		ct         = c.Ciphertext
		err        error
	)
	// Vectors have the same layout either way
	if rows > 1 && cols > 1 {
		ct, err = p.permute(c, func(d uint) uint { return (d%rows)*cols + d/rows })
		if err != nil {
			return nil, err
		}
	}
	//
	return &Cipher{ct, c.Kind, cols, rows}, nil
}

// Rearrange the elements of an encrypted value, such that element i of the
// result is element src(i) of the original.  Elements moving by the same
// distance are rotated together, and then masked into place.
func (p *Visitor) permute(c *Cipher, src func(uint) uint) (backend.Ciphertext, error) {
	var (
		n       = c.Shape().Len()
		groups  = make(map[int][]uint)
		amounts []int
		result  backend.Ciphertext
	)
	//
	for i := range n {
		amount := int(src(i)) - int(i)
		//
		if _, ok := groups[amount]; !ok {
			amounts = append(amounts, amount)
		}
		//
		groups[amount] = append(groups[amount], i)
	}
	//
	slices.Sort(amounts)
	//
	for _, amount := range amounts {
		rotated, err := c.Ciphertext.Rotate(amount)
		if err != nil {
			return nil, err
		}
		//
		mask := make([]float64, n)
		//
		for _, i := range groups[amount] {
			mask[i] = 1
		}
		//
		pt, err := p.backend.Encode(mask)
		if err != nil {
			return nil, err
		} else if err = rotated.MulPlainInPlace(pt); err != nil {
			return nil, err
		}
		//
		if result == nil {
			result = rotated
		} else if err = result.AddInPlace(rotated); err != nil {
			return nil, err
		}
	}
	//
	return result, nil
}

// Extract an element of an encrypted matrix as an encrypted scalar.  The
// element is rotated into the first slot, isolated and then replicated.
func (p *Visitor) element(c *Cipher, k uint) (*Cipher, error) {
	ct, err := c.Ciphertext.Rotate(int(k))
	//
	if err != nil {
		return nil, err
	} else if err = ct.MulPlainInPlace(p.ones(1)); err != nil {
		return nil, err
	}
	// Replicate the first slot by doubling
	for covered, slots := uint(1), p.backend.Slots(); covered < slots; {
		var (
			step = min(covered, slots-covered)
			t    = ct
		)
		//
		if step < covered {
			if t, err = ct.MulPlain(p.ones(step)); err != nil {
				return nil, err
			}
		}
		//
		shifted, err := t.Rotate(-int(covered))
		if err != nil {
			return nil, err
		} else if err = ct.AddInPlace(shifted); err != nil {
			return nil, err
		}
		//
		covered += step
	}
	//
	return &Cipher{ct, c.Kind, 0, 0}, nil
}

// Replace an element of a matrix, at least one of which is encrypted, with a
// scalar value.
func (p *Visitor) update(target Value, k uint, val Value) (Value, error) {
	var shape = target.Shape()
	//
	if !val.Shape().IsScalar() {
		return nil, ast.NewError(ast.TypeMismatch, ast.NIL, "cannot assign %s to matrix element", val.Shape())
	}
	// Clear the element, then add the new value in its place
	var (
		keep  = make([]ast.Constant, shape.Len())
		place = make([]ast.Constant, shape.Len())
	)
	//
	for i := range keep {
		keep[i], place[i] = ast.Int(1), ast.Int(0)
	}
	//
	keep[k], place[k] = ast.Int(0), ast.Int(1)
	//
	cleared, err := p.binary(ast.MUL, target, false, plainOf(shape, keep), true)
	if err != nil {
		return nil, err
	}
	//
	placed, err := p.binary(ast.MUL, val, false, plainOf(shape, place), true)
	if err != nil {
		return nil, err
	}
	//
	return p.binary(ast.ADD, cleared, true, placed, true)
}

// Construct a matrix from scalar elements, at least one of which is
// encrypted.  Each encrypted element is masked into its slot.
func (p *Visitor) assemble(shape Shape, values []Value) (Value, error) {
	var (
		public = make([]ast.Constant, len(values))
		result = Value(nil)
	)
	//
	for i, val := range values {
		public[i] = ast.Int(0)
		//
		switch val := val.(type) {
		case *Plain:
			public[i] = val.Value
		case *Cipher:
			if !val.Shape().IsScalar() {
				return nil, ast.NewError(ast.TypeMismatch, ast.NIL, "matrix element has shape %s", val.Shape())
			}
			//
			mask := make([]ast.Constant, len(values))
			//
			for j := range mask {
				mask[j] = ast.Int(0)
			}
			//
			mask[i] = ast.Int(1)
			//
			term, err := p.arithmetic(ast.MUL, val, false, plainOf(shape, mask), true)
			if err != nil {
				return nil, err
			}
			//
			if result == nil {
				result = term
			} else if result, err = p.arithmetic(ast.ADD, result, true, term, true); err != nil {
				return nil, err
			}
		default:
			return nil, ast.NewError(ast.TypeMismatch, ast.NIL, "matrix element has shape %s", val.Shape())
		}
	}
	//
	if result == nil {
		return plainOf(shape, public), nil
	}
	//
	return p.arithmetic(ast.ADD, result, true, plainOf(shape, public), true)
}

// Encode a public value as a plaintext for combination with an encrypted
// value of a given shape.
func (p *Visitor) encode(val Value, shape Shape) (backend.Plaintext, error) {
	var n = shape.Len()
	//
	if shape.IsScalar() {
		n = p.backend.Slots()
	}
	//
	values, err := slotValues(elements(val, n))
	if err != nil {
		return nil, mismatch(err)
	}
	//
	return p.backend.Encode(values)
}

// Encrypt a value, adapting it to a given shape.
func (p *Visitor) encryptAs(val Value, shape Shape) (*Cipher, error) {
	switch {
	case shape.IsScalar() || !val.Shape().IsScalar():
		return p.Encrypt(val)
	case isCipher(val):
		return p.expand(val.(*Cipher), shape)
	default:
		return p.Encrypt(plainOf(shape, elements(val, shape.Len())))
	}
}

// Confine an encrypted scalar to the leading slots of a given shape.
func (p *Visitor) expand(c *Cipher, shape Shape) (*Cipher, error) {
	ct, err := c.Ciphertext.MulPlain(p.ones(shape.Len()))
	if err != nil {
		return nil, err
	}
	//
	return &Cipher{ct, c.Kind, shape.Rows, shape.Cols}, nil
}

// Construct a plaintext holding one in each of the leading n slots.
func (p *Visitor) ones(n uint) backend.Plaintext {
	pt, err := p.backend.Encode(backend.Replicate(1, n))
	// Callers have already checked n fits
	if err != nil {
		panic(err)
	}
	//
	return pt
}

// Check a value of a given shape fits within the slots of a ciphertext.
func (p *Visitor) fits(shape Shape) error {
	if shape.Len() > p.backend.Slots() {
		return ast.NewError(ast.UnsupportedOperation, ast.NIL, "%s matrix exceeds %d slots", shape,
			p.backend.Slots())
	}
	//
	return nil
}

// Map the elements of a public value to zero or one according to their
// truthiness.  Encrypted values are returned as is.
func truth(val Value) Value {
	switch val := val.(type) {
	case *Plain:
		return &Plain{ast.Int(b2i(val.Value.AsBool()))}
	case *PlainMatrix:
		return &PlainMatrix{matrix.Map(val.Value, func(c ast.Constant) ast.Constant {
			return ast.Int(b2i(c.AsBool()))
		})}
	default:
		return val
	}
}

// Kind of encrypted values holding elements of a given kind.  Booleans are
// encrypted as integers once used in arithmetic.
func numeric(kind ast.Kind) ast.Kind {
	if kind == ast.FLOAT {
		return ast.FLOAT
	}
	//
	return ast.INT
}

// Convert a decrypted slot into a constant of a given kind.
func constant(kind ast.Kind, value float64) ast.Constant {
	switch kind {
	case ast.BOOL:
		return ast.Bool(math.Round(value) != 0)
	case ast.FLOAT:
		return ast.Float(value)
	default:
		return ast.Int(int64(math.Round(value)))
	}
}

func isCipher(val Value) bool {
	_, ok := val.(*Cipher)
	return ok
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	//
	return 0
}

// Report a failure to convert a value as a type mismatch, unless it already
// carries a more specific kind.
func mismatch(err error) error {
	var e *ast.Error
	//
	if errors.As(err, &e) {
		return err
	}
	//
	return ast.NewError(ast.TypeMismatch, ast.NIL, "%s", err)
}
