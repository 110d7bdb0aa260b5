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
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// DefaultPrefix is the prefix of every key written by a redis store.
const DefaultPrefix = "hecc:"

// Expiry of stored results.
const Expiry = 7 * 24 * time.Hour

// RedisStore holds results in redis.  Each result is stored as JSON under its
// own key, whilst a list records identifiers in the order they were stored.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a store over a given client, checking the server is
// reachable.
func NewRedisStore(client *redis.Client, prefix string) (*RedisStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	//
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	//
	log.Debugf("connected to redis at %s", client.Options().Addr)
	//
	return &RedisStore{client, prefix}, nil
}

// Put implementation for the Store interface.
func (p *RedisStore) Put(ctx context.Context, result *Result) error {
	if result.ID == "" {
		next, err := p.client.Incr(ctx, p.prefix+"next").Result()
		if err != nil {
			return fmt.Errorf("allocate result id: %w", err)
		}
		//
		result.ID = strconv.FormatInt(next, 10)
	}
	//
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	//
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	//
	pipe := p.client.TxPipeline()
	pipe.Set(ctx, p.resultKey(result.ID), data, Expiry)
	pipe.LRem(ctx, p.listKey(), 0, result.ID)
	pipe.RPush(ctx, p.listKey(), result.ID)
	//
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put result: %w", err)
	}
	//
	return nil
}

// Get implementation for the Store interface.
func (p *RedisStore) Get(ctx context.Context, id string) (*Result, error) {
	data, err := p.client.Get(ctx, p.resultKey(id)).Bytes()
	//
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	//
	var result Result
	//
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	//
	return &result, nil
}

// List implementation for the Store interface.  Identifiers whose results have
// expired are omitted.
func (p *RedisStore) List(ctx context.Context) ([]string, error) {
	ids, err := p.client.LRange(ctx, p.listKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	//
	var live []string
	//
	for _, id := range ids {
		if n, err := p.client.Exists(ctx, p.resultKey(id)).Result(); err != nil {
			return nil, fmt.Errorf("list results: %w", err)
		} else if n > 0 {
			live = append(live, id)
		}
	}
	//
	return live, nil
}

// Close implementation for the Store interface.
func (p *RedisStore) Close() error {
	return p.client.Close()
}

func (p *RedisStore) resultKey(id string) string {
	return p.prefix + "result:" + id
}

func (p *RedisStore) listKey() string {
	return p.prefix + "results"
}
