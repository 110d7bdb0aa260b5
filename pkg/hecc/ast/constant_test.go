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
package ast

import (
	"errors"
	"testing"

	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_Constant_01(t *testing.T) {
	check_Apply(t, ADD, Int(2), Int(3), Int(5))
	check_Apply(t, SUB, Int(2), Int(3), Int(-1))
	check_Apply(t, MUL, Int(2), Int(3), Int(6))
	check_Apply(t, DIV, Int(7), Int(2), Int(3))
	check_Apply(t, MOD, Int(7), Int(2), Int(1))
}

func Test_Constant_02(t *testing.T) {
	check_Apply(t, ADD, Int(2), Float(0.5), Float(2.5))
	check_Apply(t, MUL, Float(1.5), Float(2), Float(3))
	check_Apply(t, LT, Float(1.5), Int(2), Bool(true))
}

func Test_Constant_03(t *testing.T) {
	// Booleans promote to integers in arithmetic
	check_Apply(t, MUL, Bool(true), Int(7), Int(7))
	check_Apply(t, SUB, Int(1), Bool(false), Int(1))
	check_Apply(t, AND, Bool(true), Int(0), Bool(false))
	check_Apply(t, OR, Bool(false), Int(3), Bool(true))
	check_Apply(t, XOR, Bool(true), Bool(true), Bool(false))
}

func Test_Constant_04(t *testing.T) {
	check_Apply(t, ADD, String("ab"), String("cd"), String("abcd"))
	check_Apply(t, EQ, String("ab"), String("ab"), Bool(true))
	//
	_, err := Apply(MUL, String("ab"), Int(1))
	assert.True(t, err != nil)
}

func Test_Constant_05(t *testing.T) {
	_, err := Apply(DIV, Int(1), Int(0))
	assert.True(t, errors.Is(err, ErrDivisionByZero))
	//
	c, err := ApplyUnary(NEG, Int(3))
	assert.True(t, err == nil)
	assert.Equal(t, Int(-3), c)
	//
	c, err = ApplyUnary(NOT, Bool(false))
	assert.True(t, err == nil)
	assert.Equal(t, Bool(true), c)
}

func Test_Constant_06(t *testing.T) {
	for _, text := range []string{"true", "false", "42", "-7", "1.5", "2.0", "'hello'"} {
		c, ok := ParseConstant(text)
		assert.True(t, ok, "failed parsing %s", text)
		assert.Equal(t, text, c.String())
	}
	//
	_, ok := ParseConstant("x")
	assert.False(t, ok)
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Apply(t *testing.T, op Op, lhs Constant, rhs Constant, expected Constant) {
	actual, err := Apply(op, lhs, rhs)
	//
	if err != nil {
		t.Fatalf("%s %s %s failed: %s", lhs, op, rhs, err)
	} else if !actual.Equal(expected) {
		t.Errorf("%s %s %s: expected %s, got %s", lhs, op, rhs, expected, actual)
	}
}
