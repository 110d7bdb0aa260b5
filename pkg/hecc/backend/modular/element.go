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
	"math"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// Element wraps fr.Element to give a value-oriented arithmetic over the scalar
// field of BLS12-377.  Signed integers are represented in the usual way, with
// negative values occupying the upper half of the field.
type Element struct {
	*fr.Element
}

// FromFloat constructs the element for the nearest integer to a given value.
func FromFloat(value float64) Element {
	var res fr.Element
	//
	res.SetInt64(int64(math.Round(value)))
	//
	return Element{&res}
}

// Zero returns the additive identity.
func Zero() Element {
	return Element{new(fr.Element).SetZero()}
}

// Add x + y
func (x Element) Add(y Element) Element {
	return Element{new(fr.Element).Add(x.Element, y.Element)}
}

// Sub x - y
func (x Element) Sub(y Element) Element {
	return Element{new(fr.Element).Sub(x.Element, y.Element)}
}

// Mul x * y
func (x Element) Mul(y Element) Element {
	return Element{new(fr.Element).Mul(x.Element, y.Element)}
}

// Neg -x
func (x Element) Neg() Element {
	return Element{new(fr.Element).Neg(x.Element)}
}

// Equal determines whether x = y.
func (x Element) Equal(y Element) bool {
	return x.Element.Equal(y.Element)
}

// ToFloat returns the signed integer value of x, which is negative when x lies
// in the upper half of the field.  Values which are too large to represent are
// reported as infinite.
func (x Element) ToFloat() float64 {
	if x.LexicographicallyLargest() {
		neg := x.Neg()
		//
		if !neg.IsUint64() {
			return math.Inf(-1)
		}
		//
		return -float64(neg.Uint64())
	} else if !x.IsUint64() {
		return math.Inf(1)
	}
	//
	return float64(x.Uint64())
}

// Text returns the numerical value of x in the given base.
func (x Element) Text(base int) string {
	return x.Element.Text(base)
}
