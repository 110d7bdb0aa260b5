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
package modular

import (
	"fmt"
	"slices"
	"strings"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/backend"
)

// DefaultSlots is the number of slots used when none is given.
const DefaultSlots = 16

// Backend simulates an exact integer scheme (in the style of BFV), whose slots
// hold elements of a prime field.  Fractional values are rounded to the
// nearest integer on encoding.  As for the dummy backend, values are not
// actually encrypted.
type Backend struct {
	slots uint
}

// Ciphertext is a ciphertext of the modular backend.
type Ciphertext struct {
	elements []Element
}

// Plaintext is a plaintext of the modular backend.
type Plaintext struct {
	elements []Element
}

// New constructs a modular backend with a given number of slots.
func New(slots uint) *Backend {
	if slots == 0 {
		slots = DefaultSlots
	}
	//
	return &Backend{slots}
}

// Name implementation for the backend.Backend interface.
func (p *Backend) Name() string {
	return "modular"
}

// Slots implementation for the backend.Backend interface.
func (p *Backend) Slots() uint {
	return p.slots
}

// Encode implementation for the backend.Backend interface.
func (p *Backend) Encode(values []float64) (backend.Plaintext, error) {
	elements, err := p.encode(values)
	if err != nil {
		return nil, err
	}
	//
	return &Plaintext{elements}, nil
}

// Encrypt implementation for the backend.Backend interface.
func (p *Backend) Encrypt(values []float64) (backend.Ciphertext, error) {
	elements, err := p.encode(values)
	if err != nil {
		return nil, err
	}
	//
	return &Ciphertext{elements}, nil
}

// Decrypt implementation for the backend.Backend interface.
func (p *Backend) Decrypt(ct backend.Ciphertext) ([]float64, error) {
	c, err := cast(ct)
	if err != nil {
		return nil, err
	}
	//
	return decode(c.elements), nil
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
	values, err := backend.Compare(op, decode(l.elements), decode(r.elements))
	if err != nil {
		return nil, err
	}
	//
	return p.Encrypt(values)
}

func (p *Backend) encode(values []float64) ([]Element, error) {
	padded, err := backend.Pad(values, p.slots)
	if err != nil {
		return nil, err
	}
	//
	elements := make([]Element, len(padded))
	//
	for i, v := range padded {
		elements[i] = FromFloat(v)
	}
	//
	return elements, nil
}

func decode(elements []Element) []float64 {
	values := make([]float64, len(elements))
	//
	for i, e := range elements {
		values[i] = e.ToFloat()
	}
	//
	return values
}

// Size implementation for the backend.Plaintext interface.
func (p *Plaintext) Size() uint {
	return uint(len(p.elements))
}

// Values implementation for the backend.Plaintext interface.
func (p *Plaintext) Values() []float64 {
	return decode(p.elements)
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
	return p.apply(other, Element.Add)
}

// AddPlain implementation for the backend.Ciphertext interface.
func (p *Ciphertext) AddPlain(other backend.Plaintext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.AddPlainInPlace(other) })
}

// AddPlainInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) AddPlainInPlace(other backend.Plaintext) error {
	return p.applyPlain(other, Element.Add)
}

// Sub implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Sub(other backend.Ciphertext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.SubInPlace(other) })
}

// SubInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) SubInPlace(other backend.Ciphertext) error {
	return p.apply(other, Element.Sub)
}

// SubPlain implementation for the backend.Ciphertext interface.
func (p *Ciphertext) SubPlain(other backend.Plaintext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.SubPlainInPlace(other) })
}

// SubPlainInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) SubPlainInPlace(other backend.Plaintext) error {
	return p.applyPlain(other, Element.Sub)
}

// Mul implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Mul(other backend.Ciphertext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.MulInPlace(other) })
}

// MulInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) MulInPlace(other backend.Ciphertext) error {
	return p.apply(other, Element.Mul)
}

// MulPlain implementation for the backend.Ciphertext interface.
func (p *Ciphertext) MulPlain(other backend.Plaintext) (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.MulPlainInPlace(other) })
}

// MulPlainInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) MulPlainInPlace(other backend.Plaintext) error {
	return p.applyPlain(other, Element.Mul)
}

// Negate implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Negate() (backend.Ciphertext, error) {
	return p.fresh(func(c *Ciphertext) error { return c.NegateInPlace() })
}

// NegateInPlace implementation for the backend.Ciphertext interface.
func (p *Ciphertext) NegateInPlace() error {
	for i, e := range p.elements {
		p.elements[i] = e.Neg()
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
		n       = len(p.elements)
		rotated = make([]Element, n)
	)
	//
	for i := range n {
		rotated[i] = p.elements[((i+k)%n+n)%n]
	}
	//
	p.elements = rotated
	//
	return nil
}

// Equal implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Equal(other backend.Ciphertext) bool {
	if c, ok := other.(*Ciphertext); ok {
		return slices.EqualFunc(p.elements, c.elements, Element.Equal)
	}
	//
	return false
}

// Size implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Size() uint {
	return uint(len(p.elements))
}

// Clone implementation for the backend.Ciphertext interface.
func (p *Ciphertext) Clone() backend.Ciphertext {
	// Elements are never mutated, so can be shared
	return &Ciphertext{slices.Clone(p.elements)}
}

func (p *Ciphertext) String() string {
	var texts []string
	//
	for _, e := range p.elements {
		texts = append(texts, e.Text(10))
	}
	//
	return fmt.Sprintf("[%s]", strings.Join(texts, " "))
}

func (p *Ciphertext) fresh(fn func(*Ciphertext) error) (backend.Ciphertext, error) {
	c := p.Clone().(*Ciphertext)
	//
	if err := fn(c); err != nil {
		return nil, err
	}
	//
	return c, nil
}

func (p *Ciphertext) apply(other backend.Ciphertext, fn func(Element, Element) Element) error {
	c, err := cast(other)
	if err != nil {
		return err
	}
	//
	return p.zip(c.elements, fn)
}

func (p *Ciphertext) applyPlain(other backend.Plaintext, fn func(Element, Element) Element) error {
	var elements []Element
	//
	if q, ok := other.(*Plaintext); ok {
		elements = q.elements
	} else {
		for _, v := range other.Values() {
			elements = append(elements, FromFloat(v))
		}
	}
	//
	return p.zip(elements, fn)
}

func (p *Ciphertext) zip(elements []Element, fn func(Element, Element) Element) error {
	if len(elements) != len(p.elements) {
		return fmt.Errorf("slot mismatch (%d vs %d)", len(p.elements), len(elements))
	}
	//
	for i, e := range elements {
		p.elements[i] = fn(p.elements[i], e)
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
