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
	"os"
	"strings"
	"testing"

	"github.com/consensys/go-hecc/pkg/util/source"
)

// ErrorCompiler compiles a source file, returning the errors reported.
type ErrorCompiler func(source.File) []source.SyntaxError

// CheckInvalid compiles a test file which should not compile, and checks the
// errors reported against those declared by its ";;error" directives.
func CheckInvalid(t *testing.T, test, ext string, compiler ErrorCompiler) {
	var filename = fmt.Sprintf("%s/%s.%s", TestDir, test, ext)
	//
	t.Parallel()
	//
	srcfile := readSourceFile(t, filename)
	//
	expected, errs := ExpectedErrors(srcfile)
	if len(errs) > 0 {
		t.Fatal(errors.Join(errs...))
	} else if len(expected) == 0 {
		t.Fatalf("%s declares no errors", filename)
	}
	//
	actual := compiler(*srcfile)
	//
	if len(actual) == 0 {
		t.Fatalf("%s should not have compiled", filename)
	} else if report := mismatches(expected, actual); report != "" {
		t.Fatalf("%s\n%s", filename, report)
	}
}

// Describe every position at which the reported errors differ from those
// expected, or return the empty string if there are none.
func mismatches(expected []ExpectedError, actual []source.SyntaxError) string {
	var report strings.Builder
	//
	for i := range max(len(expected), len(actual)) {
		if i < len(expected) && i < len(actual) && expected[i].Matches(actual[i]) {
			continue
		}
		//
		if i < len(actual) {
			fmt.Fprintf(&report, "  reported %s\n", describe(actual[i].SourceFile(), actual[i].Span(),
				actual[i].Message()))
		}
		//
		if i < len(expected) && i < len(actual) {
			fmt.Fprintf(&report, "  expected %s\n", describe(actual[i].SourceFile(), expected[i].Span,
				expected[i].Message()))
		} else if i < len(expected) {
			fmt.Fprintf(&report, "  expected %s (not reported)\n", expected[i].Message())
		}
	}
	//
	return report.String()
}

// Describe an error in the notation of its directive.
func describe(srcfile *source.File, span source.Span, msg string) string {
	var (
		line   = srcfile.FindFirstEnclosingLine(span)
		offset = span.Start() - line.Start()
	)
	//
	return fmt.Sprintf("%d:%d-%d %s", line.Number(), 1+offset, 1+offset+span.Length(), msg)
}

func readSourceFile(t *testing.T, filename string) *source.File {
	bytes, err := os.ReadFile(filename)
	//
	if err != nil {
		t.Fatal(err)
	}
	//
	return source.NewSourceFile(filename, bytes)
}
