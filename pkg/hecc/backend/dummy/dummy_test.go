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
	"testing"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/backend"
	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_Dummy_01(t *testing.T) {
	b := New(4)
	x := encrypt(t, b, 1, 2, 3, 4)
	y := encrypt(t, b, 10, 20, 30, 40)
	//
	sum, err := x.Add(y)
	assert.True(t, err == nil)
	check_Decrypt(t, b, sum, 11, 22, 33, 44)
	// Operands are untouched
	check_Decrypt(t, b, x, 1, 2, 3, 4)
	//
	assert.True(t, x.MulInPlace(y) == nil)
	check_Decrypt(t, b, x, 10, 40, 90, 160)
	assert.True(t, x.SubInPlace(y) == nil)
	check_Decrypt(t, b, x, 0, 20, 60, 120)
	assert.True(t, x.NegateInPlace() == nil)
	check_Decrypt(t, b, x, 0, -20, -60, -120)
}

func Test_Dummy_02(t *testing.T) {
	b := New(4)
	x := encrypt(t, b, 1, 2, 3, 4)
	//
	rotated, err := x.Rotate(1)
	assert.True(t, err == nil)
	check_Decrypt(t, b, rotated, 2, 3, 4, 1)
	//
	rotated, _ = x.Rotate(-1)
	check_Decrypt(t, b, rotated, 4, 1, 2, 3)
	//
	assert.True(t, x.RotateInPlace(6) == nil)
	check_Decrypt(t, b, x, 3, 4, 1, 2)
}

func Test_Dummy_03(t *testing.T) {
	b := New(4)
	x := encrypt(t, b, 1, 2)
	mask, _ := b.Encode([]float64{0, 1})
	// Short vectors are padded
	check_Decrypt(t, b, x, 1, 2, 0, 0)
	//
	masked, _ := x.MulPlain(mask)
	check_Decrypt(t, b, masked, 0, 2, 0, 0)
	//
	shifted, _ := x.AddPlain(mask)
	check_Decrypt(t, b, shifted, 1, 3, 0, 0)
	//
	_, err := b.Encrypt([]float64{1, 2, 3, 4, 5})
	assert.True(t, err != nil)
}

func Test_Dummy_04(t *testing.T) {
	b := New(4)
	x := encrypt(t, b, 1, 5, 3, 0)
	y := encrypt(t, b, 2, 5, 1, 0)
	//
	lt, err := b.Compare(ast.LT, x, y)
	assert.True(t, err == nil)
	check_Decrypt(t, b, lt, 1, 0, 0, 0)
	//
	eq, _ := b.Compare(ast.EQ, x, y)
	check_Decrypt(t, b, eq, 0, 1, 0, 1)
	//
	_, err = b.Compare(ast.ADD, x, y)
	assert.True(t, err != nil)
}

func Test_Dummy_05(t *testing.T) {
	b := New(2)
	x := encrypt(t, b, 1, 2)
	y := x.Clone()
	//
	assert.True(t, x.Equal(y))
	assert.True(t, y.AddInPlace(x) == nil)
	assert.False(t, x.Equal(y))
	assert.Equal(t, uint(2), y.Size())
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
