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
package matrix

import (
	"testing"

	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_Matrix_01(t *testing.T) {
	m := check_FromRows(t, [][]int{{1, 2, 3}, {4, 5, 6}})
	//
	assert.Equal(t, uint(2), m.Rows())
	assert.Equal(t, uint(3), m.Cols())
	assert.Equal(t, 6, m.Get(1, 2))
	assert.Equal(t, []int{1, 4, 2, 5, 3, 6}, m.Transpose().Values())
}

func Test_Matrix_02(t *testing.T) {
	_, err := FromRows([][]int{{1, 2}, {3}})
	assert.True(t, err != nil, "inconsistent rows accepted")
}

func Test_Matrix_03(t *testing.T) {
	m := Vector(1, 2, 3, 4)
	//
	assert.Equal(t, []int{2, 3, 4, 1}, m.Rotate(1).Values())
	assert.Equal(t, []int{4, 1, 2, 3}, m.Rotate(-1).Values())
	assert.Equal(t, []int{1, 2, 3, 4}, m.Rotate(8).Values())
}

func Test_Matrix_04(t *testing.T) {
	m := NewUnknown[int]()
	m.Set(0, 1, 7)
	m.Set(2, 0, 9)
	//
	assert.True(t, m.IsUnknown())
	assert.Equal(t, uint(3), m.Rows())
	assert.Equal(t, uint(2), m.Cols())
	assert.Equal(t, 7, m.Get(0, 1))
	assert.Equal(t, 9, m.Get(2, 0))
	// Resolve dimensions
	assert.True(t, m.Resolve(3, 3) == nil)
	assert.False(t, m.IsUnknown())
	assert.Equal(t, 7, m.Get(0, 1))
	assert.Equal(t, 9, m.Get(2, 0))
	assert.True(t, m.Resolve(4, 4) != nil)
}

func Test_Matrix_05(t *testing.T) {
	lhs := Vector(1, 2, 3)
	rhs := Vector(4, 5, 6)
	//
	sum, err := Zip(lhs, rhs, func(a, b int) (int, error) { return a + b, nil })
	//
	assert.True(t, err == nil)
	assert.Equal(t, []int{5, 7, 9}, sum.Values())
	//
	_, err = Zip(lhs, Vector(1), func(a, b int) (int, error) { return a + b, nil })
	assert.True(t, err != nil)
}

func Test_Matrix_06(t *testing.T) {
	m := check_FromRows(t, [][]int{{1, 2}, {3, 4}})
	//
	assert.Equal(t, "[1 2; 3 4]", String(m, func(i int) string { return string(rune('0' + i)) }))
	assert.Equal(t, []int{3, 4}, m.Row(1).Values())
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_FromRows(t *testing.T, rows [][]int) Matrix[int] {
	m, err := FromRows(rows)
	if err != nil {
		t.Fatal(err)
	}
	//
	return m
}
