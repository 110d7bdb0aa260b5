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
package dummy

import (
	"fmt"
	"math"
	"slices"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/backend"
)

// DefaultSlots is the number of slots used when none is given.
const DefaultSlots = 16

// Backend simulates an encryption scheme by holding slot values in the clear.
// It performs no encryption whatsoever, and exists to test programs
// independently of any real scheme.
type Backend struct {
	slots uint
}

// Ciphertext is a "ciphertext" of the dummy backend.
type Ciphertext struct {
	values []float64
}

// Plaintext is a plaintext of the dummy backend.
type Plaintext struct {
	values []float64
}

// New constructs a dummy backend with a given number of slots.
func New(slots uint) *Backend {
	if slots == 0 {
		slots = DefaultSlots
	}
	//
	return &Backend{slots}
}

// Name implementation for the backend.Backend interface.
func (p *Backend) Name() string {
	return "dummy"
}

// Slots implementation for the backend.Backend interface.
func (p *Backend) Slots() uint {
	return p.slots
}

// Encode implementation for the backend.Backend interface.
func (p *Backend) Encode(values []float64) (backend.Plaintext, error) {
	padded, err := backend.Pad(values, p.slots)
	if err != nil {
		return nil, err
	}
	//
	return &Plaintext{padded}, nil
}

// Encrypt implementation for the backend.Backend interface.
func (p *Backend) Encrypt(values []float64) (backend.Ciphertext, error) {
	padded, err := backend.Pad(values, p.slots)
	if err != nil {
		return nil, err
	}
	//
	return &Ciphertext{padded}, nil
}

// Decrypt implementation for the backend.Backend interface.
func (p *Backend) Decrypt(ct backend.Ciphertext) ([]float64, error) {
	c, err := cast(ct)
	if err != nil {
		return nil, err
	}
	//
	return slices.Clone(c.values), nil
}

// Compare implementation for the backend.Comparator interface.
func (p *Backend) Compare(op ast.Op, lhs backend.Ciphertext, rhs backend.Ciphertext) (backend.Ciphertext, error) {
	l, err1 := cast(lhs)
	r, err2 := cast(rhs)
	//
	if err1 != nil {
		return nil, err1
	} else if err2 != nil {
		return nil, err2
	}
	//
	values, err := backend.Compare(op, l.values, r.values)
	if err != nil {
		return nil, err
	}
	//
	return &Ciphertext{values}, nil
}

// Size implementation for the backend.Plaintext interface.
func (p *Plaintext) Size() uint {
	return uint(len(p.values))
}

// Values implementation for the backend.Plaintext interface.
func (p *Plaintext) Values() []float64 {
	return p.values
}

// ============================================================================
// Ciphertext
// ============================================================================

// Add implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Add(other backend.Ciphertext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.AddInPlace(other) })
}

// AddInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) AddInPlace(other backend.Ciphertext) error {
	return p.apply(other, func(x, y float64) float64 { return x + y })
}

// AddPlain implementation for the backend.Ciphertext interface.
func (p *Ciphertext) AddPlain(other backend.Plaintext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.AddPlainInPlace(other) })
}

// AddPlainInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) AddPlainInPlace(other backend.Plaintext) error {
	return p.applyPlain(other, func(x, y float64) float64 { return x + y })
}

// Sub implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Sub(other backend.Ciphertext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.SubInPlace(other) })
}

// SubInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) SubInPlace(other backend.Ciphertext) error {
	return p.apply(other, func(x, y float64) float64 { return x - y })
}

// SubPlain implementation for the backend.Ciphertext interface.
func (p *Ciphertext) SubPlain(other backend.Plaintext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.SubPlainInPlace(other) })
}

// SubPlainInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) SubPlainInPlace(other backend.Plaintext) error {
	return p.applyPlain(other, func(x, y float64) float64 { return x - y })
}

// Mul implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Mul(other backend.Ciphertext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.MulInPlace(other) })
}

// MulInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) MulInPlace(other backend.Ciphertext) error {
	return p.apply(other, func(x, y float64) float64 { return x * y })
}

// MulPlain implementation for the backend.Ciphertext interface.
func (p *Ciphertext) MulPlain(other backend.Plaintext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.MulPlainInPlace(other) })
}

// MulPlainInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) MulPlainInPlace(other backend.Plaintext) error {
	return p.applyPlain(other, func(x, y float64) float64 { return x * y })
}

// Negate implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Negate() (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.NegateInPlace() })
}

// NegateInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) NegateInPlace() error {
	for i := range p.values {
		p.values[i] = -p.values[i]
	}
	//
	return nil
}

// Rotate implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Rotate(k int) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.RotateInPlace(k) })
}

// RotateInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) RotateInPlace(k int) error {
	var (
		n       = len(p.values)
		rotated = make([]float64, n)
	)
	//
	for i := range n {
		rotated[i] = p.values[((i+k)%n+n)%n]
	}
	//
	p.values = rotated
	//
	return nil
}

// Equal implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Equal(other backend.Ciphertext) bool {
	if c, ok := other.(*Ciphertext); ok {
		return slices.Equal(p.values, c.values)
	}
	//
	return false
}

// Size implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Size() uint {
	return uint(len(p.values))
}

// Clone implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Clone() backend.Ciphertext {
	return &Ciphertext{slices.Clone(p.values)}
}

func (p *Ciphertext) String() string {
	return fmt.Sprintf("%v", p.values)
}

func (p *Ciphertext) fresh(fn func(*Ciphertext) error) (backend.Ciphertext, error) {
	c := &Ciphertext{slices.Clone(p.values)}
	//
	if err := fn(c); err != nil {
		return nil, err
	}
	//
	return c, nil
}

func (p *Ciphertext) apply(other backend.Ciphertext, fn func(float64, float64) float64) error {
	c, err := cast(other)
	if err != nil {
		return err
	}
	//
	return p.zip(c.values, fn)
}

func (p *Ciphertext) applyPlain(other backend.Plaintext, fn func(float64, float64) float64) error {
	return p.zip(other.Values(), fn)
}

func (p *Ciphertext) zip(values []float64, fn func(float64, float64) float64) error {
	if len(values) != len(p.values) {
		return fmt.Errorf("slot mismatch (%d vs %d)", len(p.values), len(values))
	}
	//
	for i, v := range values {
		p.values[i] = fn(p.values[i], v)
		// Reject non-finite results
		if math.IsInf(p.values[i], 0) || math.IsNaN(p.values[i]) {
			return fmt.Errorf("slot %d overflowed", i)
		}
	}
	//
	return nil
}

func cast(ct backend.Ciphertext) (*Ciphertext, error) {
	if c, ok := ct.(*Ciphertext); ok {
		return c, nil
	}
	//
	return nil, fmt.Errorf("ciphertext of foreign backend (%T)", ct)
}
