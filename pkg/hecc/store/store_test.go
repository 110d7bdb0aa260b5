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
package store

import (
	"context"
	"errors"
	"testing"

	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_Store_01(t *testing.T) {
	check_PutGet(t, NewMemoryStore())
}

func Test_Store_02(t *testing.T) {
	var (
		store = NewMemoryStore()
		ctx   = context.Background()
	)
	//
	_, err := store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "expected not found")
}

func Test_Store_03(t *testing.T) {
	var (
		store = NewMemoryStore()
		ctx   = context.Background()
		first = &Result{Function: "f", Output: "1"}
	)
	// Identifiers are allocated in order
	assert.True(t, store.Put(ctx, first) == nil)
	assert.True(t, store.Put(ctx, &Result{Function: "g", Output: "2"}) == nil)
	assert.Equal(t, "1", first.ID)
	// Overwriting keeps the original position
	first.Output = "3"
	assert.True(t, store.Put(ctx, first) == nil)
	//
	ids, err := store.List(ctx)
	assert.True(t, err == nil)
	assert.Equal(t, 2, len(ids))
	assert.Equal(t, "1", ids[0])
	assert.Equal(t, "2", ids[1])
	//
	r, _ := store.Get(ctx, "1")
	assert.Equal(t, "3", r.Output)
}

func Test_Store_04(t *testing.T) {
	var (
		store  = NewMemoryStore()
		ctx    = context.Background()
		result = &Result{ID: "x", Inputs: map[string]string{"a": "1"}}
	)
	//
	assert.True(t, store.Put(ctx, result) == nil)
	// Mutating the caller's copy does not affect the stored one
	result.Inputs["a"] = "2"
	r, _ := store.Get(ctx, "x")
	assert.Equal(t, "1", r.Inputs["a"])
	// Nor does mutating a retrieved copy
	r.Inputs["a"] = "3"
	r, _ = store.Get(ctx, "x")
	assert.Equal(t, "1", r.Inputs["a"])
}

func Test_Store_05(t *testing.T) {
	var (
		store       = NewMemoryStore()
		ctx, cancel = context.WithCancel(context.Background())
	)
	//
	cancel()
	assert.True(t, errors.Is(store.Put(ctx, &Result{}), context.Canceled))
}

func Test_Store_06(t *testing.T) {
	store, err := Open("memory")
	assert.True(t, err == nil)
	check_PutGet(t, store)
	//
	store, err = Open("")
	assert.True(t, err == nil)
	check_PutGet(t, store)
}

func Test_Store_07(t *testing.T) {
	_, err := Open("ftp://localhost")
	assert.True(t, err != nil, "expected unknown store")
	//
	_, err = Open("redis://localhost:6379/notadb")
	assert.True(t, err != nil, "expected invalid url")
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_PutGet(t *testing.T, store Store) {
	var (
		ctx    = context.Background()
		result = &Result{
			Source:   "test.hecc",
			Function: "main",
			Backend:  "dummy",
			Inputs:   map[string]string{"x": "8"},
			Output:   "-8",
		}
	)
	//
	defer store.Close()
	//
	if err := store.Put(ctx, result); err != nil {
		t.Fatal(err)
	}
	//
	assert.True(t, result.ID != "", "expected identifier")
	assert.False(t, result.CreatedAt.IsZero(), "expected timestamp")
	//
	r, err := store.Get(ctx, result.ID)
	if err != nil {
		t.Fatal(err)
	}
	//
	assert.Equal(t, result.Function, r.Function)
	assert.Equal(t, result.Output, r.Output)
	assert.Equal(t, "8", r.Inputs["x"])
}
