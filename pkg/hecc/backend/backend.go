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
package backend

import (
	"fmt"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
)

// Plaintext is an encoded (but unencrypted) vector of slot values, suitable for
// use as the second operand of a ciphertext operation.
type Plaintext interface {
	// Size returns the number of slots of this plaintext.
	Size() uint
	// Values returns the slot values of this plaintext.
	Values() []float64
}

// Ciphertext is an encrypted vector of slot values.  Every ciphertext spans
// all slots of the backend which produced it.  Operations without the InPlace
// suffix return a fresh ciphertext and leave their receiver untouched, whilst
// InPlace operations overwrite the receiver.  Callers must only use InPlace
// operations when no other reference to the receiver is live.
type Ciphertext interface {
	// Add returns the slot-wise sum of this and another ciphertext.
	Add(other Ciphertext) (Ciphertext, error)
	// AddInPlace adds another ciphertext to this ciphertext.
	AddInPlace(other Ciphertext) error
	// AddPlain returns the slot-wise sum of this ciphertext and a plaintext.
	AddPlain(other Plaintext) (Ciphertext, error)
	// AddPlainInPlace adds a plaintext to this ciphertext.
	AddPlainInPlace(other Plaintext) error
	// Sub returns the slot-wise difference of this and another ciphertext.
	Sub(other Ciphertext) (Ciphertext, error)
	// SubInPlace subtracts another ciphertext from this ciphertext.
	SubInPlace(other Ciphertext) error
	// SubPlain returns the slot-wise difference of this ciphertext and a
	// plaintext.
	SubPlain(other Plaintext) (Ciphertext, error)
	// SubPlainInPlace subtracts a plaintext from this ciphertext.
	SubPlainInPlace(other Plaintext) error
	// Mul returns the slot-wise product of this and another ciphertext.
	Mul(other Ciphertext) (Ciphertext, error)
	// MulInPlace multiplies this ciphertext by another ciphertext.
	MulInPlace(other Ciphertext) error
	// MulPlain returns the slot-wise product of this ciphertext and a
	// plaintext.
	MulPlain(other Plaintext) (Ciphertext, error)
	// MulPlainInPlace multiplies this ciphertext by a plaintext.
	MulPlainInPlace(other Plaintext) error
	// Negate returns the slot-wise negation of this ciphertext.
	Negate() (Ciphertext, error)
	// NegateInPlace negates this ciphertext.
	NegateInPlace() error
	// Rotate returns this ciphertext cyclically rotated left by k slots, such
	// that slot i of the result holds slot i+k of this ciphertext.
	Rotate(k int) (Ciphertext, error)
	// RotateInPlace cyclically rotates this ciphertext left by k slots.
	RotateInPlace(k int) error
	// Equal determines whether this and another ciphertext encrypt the same
	// slot values.
	Equal(other Ciphertext) bool
	// Size returns the number of slots of this ciphertext.
	Size() uint
	// Clone returns an independent copy of this ciphertext.
	Clone() Ciphertext
}

// Backend is a concrete encryption scheme which produces ciphertexts and
// plaintexts.  Values given to Encode or Encrypt which are shorter than the
// number of slots are padded with zeros.
type Backend interface {
	// Name returns the name of this backend.
	Name() string
	// Slots returns the number of slots in every ciphertext.
	Slots() uint
	// Encode a vector of values as a plaintext.
	Encode(values []float64) (Plaintext, error)
	// Encrypt a vector of values.
	Encrypt(values []float64) (Ciphertext, error)
	// Decrypt a ciphertext, returning its slot values.
	Decrypt(ct Ciphertext) ([]float64, error)
}

// Comparator is an optional capability of a backend which can evaluate
// relational operators over encrypted values.  The result holds one in every
// slot where the comparison holds, and zero elsewhere.
type Comparator interface {
	Compare(op ast.Op, lhs Ciphertext, rhs Ciphertext) (Ciphertext, error)
}

// Pad a vector of values to a given number of slots, failing if there are too
// many values.
func Pad(values []float64, slots uint) ([]float64, error) {
	if uint(len(values)) > slots {
		return nil, fmt.Errorf("%d values exceed %d slots", len(values), slots)
	}
	//
	padded := make([]float64, slots)
	copy(padded, values)
	//
	return padded, nil
}

// Replicate constructs a vector holding the same value in every slot.
func Replicate(value float64, slots uint) []float64 {
	values := make([]float64, slots)
	//
	for i := range values {
		values[i] = value
	}
	//
	return values
}

// Compare evaluates a relational operator slot-wise over two vectors of
// values, as used by backends which can observe their slot values.
func Compare(op ast.Op, lhs []float64, rhs []float64) ([]float64, error) {
	if !op.IsComparison() {
		return nil, fmt.Errorf("operator %s is not a comparison", op)
	}
	//
	result := make([]float64, len(lhs))
	//
	for i := range lhs {
		c, err := ast.Apply(op, ast.Float(lhs[i]), ast.Float(rhs[i]))
		if err != nil {
			return nil, err
		}
		//
		if c.AsBool() {
			result[i] = 1
		}
	}
	//
	return result, nil
}
