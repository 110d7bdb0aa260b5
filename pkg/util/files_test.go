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
	"os"
	"path/filepath"
	"testing"

	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_ReadFile_01(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "input.json")
	//
	if err := os.WriteFile(filename, []byte(`{"x": 1}`), 0644); err != nil {
		t.Fatal(err)
	}
	//
	name, bytes, err := ReadFile(filename)
	assert.True(t, err == nil)
	assert.Equal(t, filename, name)
	assert.Equal(t, `{"x": 1}`, string(bytes))
}

func Test_ReadFile_02(t *testing.T) {
	_, _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, os.IsNotExist(err))
}
