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
	"compress/bzip2"
	"io"
	"os"
	"path"
	"strings"
)

// ReadFile reads the contents of a given file, decompressing it when it has a
// ".bz2" extension.  The returned filename has any compression extension
// removed, such that callers can dispatch on the underlying format.
func ReadFile(filename string) (string, []byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		return filename, nil, err
	}
	//
	defer file.Close()
	// apply compression
	var reader io.Reader = file
	//
	if path.Ext(filename) == ".bz2" {
		reader = bzip2.NewReader(file)
		filename = strings.TrimSuffix(filename, ".bz2")
	}
	//
	bytes, err := io.ReadAll(reader)
	//
	return filename, bytes, err
}
