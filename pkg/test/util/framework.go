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
package util

import (
	"github.com/consensys/go-hecc/pkg/hecc/backend"
	"github.com/consensys/go-hecc/pkg/hecc/backend/dummy"
	"github.com/consensys/go-hecc/pkg/hecc/backend/modular"
	"github.com/consensys/go-hecc/pkg/hecc/compiler"
)

// TestDir determines the (relative) location of the test directory.  That is
// where the source files for valid and invalid programs are found.
const TestDir = "../../testdata"

// SLOTS is the number of slots of every backend used for testing.
const SLOTS uint = 16

// Backend constructs a fresh backend for testing.
type Backend func() backend.Backend

// BACKENDS identifies the backends against which every valid program is
// executed.
var BACKENDS = []Backend{
	func() backend.Backend { return dummy.New(SLOTS) },
	func() backend.Backend { return modular.New(SLOTS) },
}

// CONFIGS identifies the compiler configurations under which every valid
// program is compiled.  Every configuration must give the same results.
var CONFIGS = []compiler.Config{
	{LoopBound: 16, SlotWidth: SLOTS, Vectorize: true, Simplify: true, Rebalance: true, Validate: true},
	{LoopBound: 16, SlotWidth: SLOTS, Vectorize: false, Simplify: true, Rebalance: true, Validate: true},
	{LoopBound: 16, SlotWidth: SLOTS, Vectorize: true, Simplify: false, Rebalance: false, Validate: true},
	{LoopBound: 16, SlotWidth: SLOTS, Vectorize: false, Simplify: false, Rebalance: false, Validate: true},
	{LoopBound: 16, SlotWidth: SLOTS, Vectorize: false, Simplify: false, Rebalance: true, Validate: true},
}
