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
package source

import (
	"slices"
	"testing"

	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_SourceMap_01(t *testing.T) {
	srcmap := NewSourceMap[int](*NewSourceFile("test", []byte("(a (b c))")))
	srcmap.Put(1, NewSpan(0, 9))
	srcmap.Put(2, NewSpan(3, 8))
	// First mapped candidate wins
	span, ok := srcmap.Locate(slices.Values([]int{7, 2, 1}))
	assert.True(t, ok)
	assert.Equal(t, NewSpan(3, 8), span)
	// No mapped candidates
	_, ok = srcmap.Locate(slices.Values([]int{7, 8}))
	assert.False(t, ok)
}

func Test_SourceMap_02(t *testing.T) {
	srcmap := NewSourceMap[int](*NewSourceFile("test", []byte("(a (b c))")))
	srcmap.Put(2, NewSpan(3, 8))
	// Unmapped errors are reported at the start of the file
	err := srcmap.SyntaxError(slices.Values([]int{5}), "oops")
	assert.Equal(t, 0, err.Span().Length())
	assert.Equal(t, "oops", err.Message())
	//
	err = srcmap.SyntaxError(slices.Values([]int{5, 2}), "oops")
	assert.Equal(t, NewSpan(3, 8), err.Span())
}

func Test_SourceMap_03(t *testing.T) {
	srcmap := NewSourceMap[int](*NewSourceFile("test", []byte("(a)")))
	srcmap.Put(1, NewSpan(0, 3))
	// Mapping an item twice is a programming error
	defer func() {
		assert.True(t, recover() != nil)
	}()
	//
	srcmap.Put(1, NewSpan(1, 2))
}
