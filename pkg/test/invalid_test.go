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

	"github.com/consensys/go-hecc/pkg/hecc/compiler"
	"github.com/consensys/go-hecc/pkg/test/util"
	"github.com/consensys/go-hecc/pkg/util/source"
)

// ===================================================================
// Parsing
// ===================================================================

func Test_Invalid_Type_01(t *testing.T) {
	checkInvalid(t, "invalid/type_invalid_01")
}

func Test_Invalid_Type_02(t *testing.T) {
	checkInvalid(t, "invalid/type_invalid_02")
}

func Test_Invalid_Bound_01(t *testing.T) {
	checkInvalid(t, "invalid/bound_invalid_01")
}

func Test_Invalid_Body_01(t *testing.T) {
	checkInvalid(t, "invalid/body_invalid_01")
}

func Test_Invalid_Matrix_01(t *testing.T) {
	checkInvalid(t, "invalid/matrix_invalid_01")
}

func Test_Invalid_Decl_01(t *testing.T) {
	checkInvalid(t, "invalid/decl_invalid_01")
}

// ===================================================================
// Analysis
// ===================================================================

func Test_Invalid_Scope_01(t *testing.T) {
	checkInvalid(t, "invalid/scope_invalid_01")
}

func Test_Invalid_Scope_02(t *testing.T) {
	checkInvalid(t, "invalid/scope_invalid_02")
}

func Test_Invalid_Extern_01(t *testing.T) {
	checkInvalid(t, "invalid/extern_invalid_01")
}

// ===================================================================
// Lowering
// ===================================================================

func Test_Invalid_Loop_01(t *testing.T) {
	checkInvalid(t, "invalid/loop_invalid_01")
}

// ===================================================================
// Test Helpers
// ===================================================================

func checkInvalid(t *testing.T, test string) {
	util.CheckInvalid(t, test, "hecc", compileHecc)
}

func compileHecc(srcfile source.File) []source.SyntaxError {
	_, errors := compiler.CompileSourceFile(&srcfile, nil, compiler.DefaultConfig())
	//
	return errors
}
