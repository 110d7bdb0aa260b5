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
package termio

import (
	"strings"
	"testing"

	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_Table_01(t *testing.T) {
	table := NewTablePrinter(2, 2)
	table.SetRow(0, "id", "output")
	table.SetRow(1, "1", "-8")
	//
	check_Table(t, table, " id | output |\n 1  | -8     |\n")
}

func Test_Table_02(t *testing.T) {
	table := NewTablePrinter(1, 1)
	table.Set(0, 0, "abcdefgh")
	table.SetMaxWidths(5)
	//
	check_Table(t, table, " abc.. |\n")
}

func Test_Table_03(t *testing.T) {
	table := NewTablePrinter(1, 1)
	table.Set(0, 0, "x")
	table.SetEscape(0, 0, BoldAnsiEscape().Build())
	table.AnsiEscapes(false)
	//
	check_Table(t, table, " x |\n")
	//
	table.AnsiEscapes(true)
	check_Table(t, table, "\033[1m x\033[0m |\n")
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Table(t *testing.T, table *TablePrinter, expected string) {
	var builder strings.Builder
	//
	table.Print(&builder)
	assert.Equal(t, expected, builder.String())
}
