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
	"encoding/json"
	"fmt"
	"strings"

	"github.com/consensys/go-hecc/pkg/util/source"
)

// ExpectedRun describes a single execution of a program along with its
// expected result.
type ExpectedRun struct {
	// Line on which this run was declared
	Line int
	// Function to execute
	Function string
	// Inputs for each parameter of the function
	Inputs map[string]json.RawMessage
	// Expected (decrypted) result
	Output string
}

func (p ExpectedRun) String() string {
	return fmt.Sprintf("line %d: %s => %s", p.Line, p.Function, p.Output)
}

// ExpectedRuns extracts the runs declared by a source file, each written
// ";;run f {"x": 1} => 2".  The inputs are a JSON object mapping parameter names
// to values, and can be omitted for functions without parameters.
func ExpectedRuns(srcfile *source.File) ([]ExpectedRun, []error) {
	var (
		directives, errs = Directives(srcfile, "run")
		runs             []ExpectedRun
	)
	//
	for _, d := range directives {
		if run, err := parseExpectedRun(d); err != nil {
			errs = append(errs, err)
		} else {
			runs = append(runs, run)
		}
	}
	//
	return runs, errs
}

func parseExpectedRun(d Directive) (ExpectedRun, error) {
	var run = ExpectedRun{Line: d.Line.Number()}
	//
	lhs, output, ok := strings.Cut(d.Body, " => ")
	if !ok {
		return run, d.Errorf("missing output, should be e.g. \";;run f {} => 0\"")
	}
	//
	function, inputs, _ := strings.Cut(strings.TrimSpace(lhs), " ")
	//
	if strings.TrimSpace(inputs) == "" {
		inputs = "{}"
	}
	//
	if err := json.Unmarshal([]byte(inputs), &run.Inputs); err != nil {
		return run, d.Errorf("invalid inputs (%s)", err)
	}
	//
	run.Function = function
	run.Output = strings.TrimSpace(output)
	//
	return run, nil
}
