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
package extern

import (
	"strings"
	"testing"

	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_Registry_01(t *testing.T) {
	r := NewRegistry(Declaration{Name: "log", SideEffectFree: false}, Declaration{Name: "abs", SideEffectFree: true})
	//
	d, ok := r.Lookup("abs")
	assert.True(t, ok)
	assert.True(t, d.SideEffectFree)
	//
	_, ok = r.Lookup("sqrt")
	assert.False(t, ok)
	assert.Equal(t, "abs log", strings.Join(r.Names(), " "))
}

func Test_Registry_02(t *testing.T) {
	var r *Registry
	//
	_, ok := r.Lookup("abs")
	assert.False(t, ok, "nil registry has no declarations")
}

func Test_Registry_03(t *testing.T) {
	r, err := ParseRegistry([]byte(`[
		{"name": "abs", "side_effect_free": true, "public_result": true},
		{"name": "rand", "secret_result": true}
	]`))
	//
	if err != nil {
		t.Fatal(err)
	}
	//
	abs, _ := r.Lookup("abs")
	rand, _ := r.Lookup("rand")
	//
	assert.True(t, abs.PublicResult)
	assert.False(t, rand.SideEffectFree)
	assert.True(t, rand.SecretResult)
}

func Test_Registry_Invalid_01(t *testing.T) {
	check_Invalid(t, `[{"name": "f", "public_result": true, "secret_result": true}]`)
	check_Invalid(t, `[{"side_effect_free": true}]`)
	check_Invalid(t, `{"name": "f"}`)
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Invalid(t *testing.T, input string) {
	_, err := ParseRegistry([]byte(input))
	assert.True(t, err != nil, input)
}
