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
	"strconv"
	"sync"
	"time"
)

// MemoryStore holds results in memory, and is safe for concurrent use.
type MemoryStore struct {
	mux     sync.Mutex
	results map[string]Result
	order   []string
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]Result)}
}

// Put implementation for the Store interface.
func (p *MemoryStore) Put(ctx context.Context, result *Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	//
	p.mux.Lock()
	defer p.mux.Unlock()
	//
	if result.ID == "" {
		result.ID = strconv.Itoa(len(p.order) + 1)
	}
	//
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	//
	if _, ok := p.results[result.ID]; !ok {
		p.order = append(p.order, result.ID)
	}
	//
	p.results[result.ID] = clone(result)
	//
	return nil
}

// Get implementation for the Store interface.
func (p *MemoryStore) Get(ctx context.Context, id string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	//
	p.mux.Lock()
	defer p.mux.Unlock()
	//
	if r, ok := p.results[id]; ok {
		r = clone(&r)
		return &r, nil
	}
	//
	return nil, ErrNotFound
}

// List implementation for the Store interface.
func (p *MemoryStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	//
	p.mux.Lock()
	defer p.mux.Unlock()
	//
	return append([]string(nil), p.order...), nil
}

// Close implementation for the Store interface.
func (p *MemoryStore) Close() error {
	return nil
}

// Results are copied in and out, since their inputs are mutable.
func clone(result *Result) Result {
	r := *result
	r.Inputs = make(map[string]string, len(result.Inputs))
	//
	for k, v := range result.Inputs {
		r.Inputs[k] = v
	}
	//
	return r
}
