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
package ckks

import (
	"math"
	"testing"

	"github.com/consensys/go-hecc/pkg/hecc/backend"
	"github.com/tuneinsight/lattigo/v6/schemes/ckks"
)

func Test_Ckks_01(t *testing.T) {
	b := newBackend(t)
	x := encrypt(t, b, 1.5, 2, -3)
	y := encrypt(t, b, 2, 0.5, 4)
	//
	sum, err := x.Add(y)
	if err != nil {
		t.Fatal(err)
	}
	//
	check_Decrypt(t, b, sum, 3.5, 2.5, 1)
	//
	prod, err := x.Mul(y)
	if err != nil {
		t.Fatal(err)
	}
	//
	check_Decrypt(t, b, prod, 3, 1, -12)
	//
	diff, _ := prod.Sub(sum)
	check_Decrypt(t, b, diff, -0.5, -1.5, -13)
}

func Test_Ckks_02(t *testing.T) {
	b := newBackend(t)
	x := encrypt(t, b, 1, 2, 3)
	mask, _ := b.Encode([]float64{0, 1})
	//
	rotated, err := x.Rotate(1)
	if err != nil {
		t.Fatal(err)
	}
	//
	check_Decrypt(t, b, rotated, 2, 3, 0)
	//
	masked, err := x.MulPlain(mask)
	if err != nil {
		t.Fatal(err)
	}
	//
	check_Decrypt(t, b, masked, 0, 2, 0)
	//
	neg, _ := x.Negate()
	check_Decrypt(t, b, neg, -1, -2, -3)
	//
	if !x.Equal(x.Clone()) || x.Equal(neg) {
		t.Errorf("unexpected equality")
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func newBackend(t *testing.T) *Backend {
	b, err := New(ckks.ParametersLiteral{
		LogN:            10,
		LogQ:            []int{50, 40, 40},
		LogP:            []int{45},
		LogDefaultScale: 40,
	})
	//
	if err != nil {
		t.Fatal(err)
	}
	//
	return b
}

func encrypt(t *testing.T, b *Backend, values ...float64) backend.Ciphertext {
	ct, err := b.Encrypt(values)
	if err != nil {
		t.Fatal(err)
	}
	//
	return ct
}

// Check the leading slots of a ciphertext agree with the expected values.
func check_Decrypt(t *testing.T, b *Backend, ct backend.Ciphertext, expected ...float64) {
	values, err := b.Decrypt(ct)
	if err != nil {
		t.Fatal(err)
	}
	//
	for i, e := range expected {
		if math.Abs(values[i]-e) > Tolerance {
			t.Errorf("slot %d: expected %f, got %f", i, e, values[i])
		}
	}
}
