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
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound indicates no result is stored under a given identifier.
var ErrNotFound = errors.New("result not found")

// Result records a single execution of a compiled program.
type Result struct {
	ID        string            `json:"id"`
	Source    string            `json:"source"`
	Function  string            `json:"function"`
	Backend   string            `json:"backend"`
	Inputs    map[string]string `json:"inputs"`
	Output    string            `json:"output"`
	Batches   uint              `json:"batches"`
	CreatedAt time.Time         `json:"created_at"`
}

// Store persists execution results.
type Store interface {
	// Put records a result, assigning it an identifier if it has none.
	Put(ctx context.Context, result *Result) error
	// Get retrieves a result by identifier.
	Get(ctx context.Context, id string) (*Result, error)
	// List returns the identifiers of all results in the order they were
	// stored.
	List(ctx context.Context) ([]string, error)
	// Close releases any underlying connection.
	Close() error
}

// Open a store from a given locator, which is either "memory" or a redis URL
// (e.g. "redis://localhost:6379/0").
func Open(locator string) (Store, error) {
	switch {
	case locator == "" || locator == "memory":
		return NewMemoryStore(), nil
	case strings.HasPrefix(locator, "redis://") || strings.HasPrefix(locator, "rediss://"):
		options, err := redis.ParseURL(locator)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		//
		return NewRedisStore(redis.NewClient(options), DefaultPrefix)
	default:
		return nil, fmt.Errorf("unknown store \"%s\"", locator)
	}
}
