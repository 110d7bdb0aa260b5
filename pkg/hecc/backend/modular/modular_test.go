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
	"testing"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/backend"
	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_Element_01(t *testing.T) {
	x := FromFloat(-3)
	y := FromFloat(5)
	//
	assert.Equal(t, float64(-3), x.ToFloat())
	assert.Equal(t, float64(2), x.Add(y).ToFloat())
	assert.Equal(t, float64(-8), x.Sub(y).ToFloat())
	assert.Equal(t, float64(-15), x.Mul(y).ToFloat())
	assert.Equal(t, float64(3), x.Neg().ToFloat())
	// Rounds to the nearest integer
	assert.Equal(t, float64(3), FromFloat(2.6).ToFloat())
	assert.True(t, Zero().Equal(x.Add(x.Neg())))
}

func Test_Modular_01(t *testing.T) {
	b := New(4)
	x := encrypt(t, b, 1, -2, 3, 4)
	y := encrypt(t, b, 10, 20, -30, 40)
	//
	sum, _ := x.Add(y)
	check_Decrypt(t, b, sum, 11, 18, -27, 44)
	prod, _ := x.Mul(y)
	check_Decrypt(t, b, prod, 10, -40, -90, 160)
	diff, _ := x.Sub(y)
	check_Decrypt(t, b, diff, -9, -22, 33, -36)
	neg, _ := x.Negate()
	check_Decrypt(t, b, neg, -1, 2, -3, -4)
	// Operands are untouched
	check_Decrypt(t, b, x, 1, -2, 3, 4)
}

func Test_Modular_02(t *testing.T) {
	b := New(4)
	x := encrypt(t, b, 1, 2, 3, 4)
	mask, _ := b.Encode([]float64{0, 0, 1})
	//
	assert.True(t, x.RotateInPlace(2) == nil)
	check_Decrypt(t, b, x, 3, 4, 1, 2)
	assert.True(t, x.MulPlainInPlace(mask) == nil)
	check_Decrypt(t, b, x, 0, 0, 1, 0)
	assert.True(t, x.SubPlainInPlace(mask) == nil)
	check_Decrypt(t, b, x, 0, 0, 0, 0)
}

func Test_Modular_03(t *testing.T) {
	b := New(2)
	x := encrypt(t, b, -1, 7)
	y := encrypt(t, b, 3, 7)
	//
	gt, err := b.Compare(ast.GTEQ, x, y)
	assert.True(t, err == nil)
	check_Decrypt(t, b, gt, 0, 1)
	//
	assert.True(t, x.Equal(x.Clone()))
	assert.False(t, x.Equal(y))
}

// ===================================================================
// Test Helpers
// ===================================================================

func encrypt(t *testing.T, b *Backend, values ...float64) backend.Ciphertext {
	ct, err := b.Encrypt(values)
	if err != nil {
		t.Fatal(err)
	}
	//
	return ct
}

func check_Decrypt(t *testing.T, b *Backend, ct backend.Ciphertext, expected ...float64) {
	values, err := b.Decrypt(ct)
	if err != nil {
		t.Fatal(err)
	}
	//
	assert.Equal(t, expected, values)
}
