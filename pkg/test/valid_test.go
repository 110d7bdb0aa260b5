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
package test

import (
	"testing"

	"github.com/consensys/go-hecc/pkg/test/util"
)

// ===================================================================
// Secret Control-Flow
// ===================================================================

func Test_Valid_Select_01(t *testing.T) {
	checkValid(t, "valid/select")
}

func Test_Valid_Max_01(t *testing.T) {
	checkValid(t, "valid/max")
}

func Test_Valid_Loop_01(t *testing.T) {
	checkValid(t, "valid/loop")
}

// ===================================================================
// Batching
// ===================================================================

func Test_Valid_Batch_01(t *testing.T) {
	checkValid(t, "valid/batch")
}

func Test_Valid_Dot_01(t *testing.T) {
	checkValid(t, "valid/dot")
}

// ===================================================================
// Public
// ===================================================================

func Test_Valid_Call_01(t *testing.T) {
	checkValid(t, "valid/call")
}

// ===================================================================
// Test Helpers
// ===================================================================

func checkValid(t *testing.T, test string) {
	util.CheckValid(t, test, nil)
}
