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
	"errors"
	"fmt"
	"testing"

	"github.com/consensys/go-hecc/pkg/hecc/compiler"
	"github.com/consensys/go-hecc/pkg/hecc/extern"
)

// CheckValid checks that a given source file compiles under every test
// configuration and that, for each, every expected run produces its expected
// result on every test backend.
func CheckValid(t *testing.T, test string, registry *extern.Registry) {
	var filename = fmt.Sprintf("%s/%s.hecc", TestDir, test)
	// Enable testing in parallel
	t.Parallel()
	//
	srcfile := readSourceFile(t, filename)
	// Extract expected runs
	runs, errs := ExpectedRuns(srcfile)
	//
	if len(errs) > 0 {
		t.Fatal(errors.Join(errs...))
	} else if len(runs) == 0 {
		t.Fatalf("missing any runs for %s", test)
	}
	//
	for _, config := range CONFIGS {
		program, errs := compiler.CompileSourceFile(srcfile, registry, config)
		//
		if len(errs) > 0 {
			t.Fatalf("%s (%+v): %s", filename, config, describe(errs[0].SourceFile(), errs[0].Span(), errs[0].Message()))
		}
		//
		for _, backend := range BACKENDS {
			for _, run := range runs {
				checkRun(t, filename, config, program, backend, run)
			}
		}
	}
}

func checkRun(t *testing.T, filename string, config compiler.Config, program *compiler.Program,
	backend Backend, run ExpectedRun) {
	//
	args, err := program.Inputs(run.Function, run.Inputs)
	if err != nil {
		t.Fatalf("%s %s: %s", filename, run, err)
	}
	//
	b := backend()
	//
	output, err := program.Run(b, nil, run.Function, args...)
	if err != nil {
		t.Errorf("%s %s (%s, %+v): %s", filename, run, b.Name(), config, err)
		return
	}
	//
	var actual = "void"
	//
	if output != nil {
		actual = output.String()
	}
	//
	if actual != run.Output {
		t.Errorf("%s %s (%s, %+v): found %s", filename, run, b.Name(), config, actual)
	}
}
