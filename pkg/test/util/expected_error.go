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
	"fmt"
	"strconv"
	"strings"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/util/source"
)

// ExpectedError is an error which compiling a source file should report.  It
// is written ";;error L:X-Y message" for a failure of parsing, and
// ";;error[kind] L:X-Y message" for a failure of the compiler proper, where
// kind names an error kind (e.g. "loop bound exceeded").  Columns X (inclusive)
// and Y (exclusive) are numbered from 1 on line L.
type ExpectedError struct {
	// Kind of compiler error, or nil for a parsing error.
	Kind *ast.ErrorKind
	Span source.Span
	Msg  string
}

// Message returns the message expected of the reported error.
func (p ExpectedError) Message() string {
	if p.Kind == nil {
		return p.Msg
	}
	//
	return p.Kind.String() + ": " + p.Msg
}

// Matches checks whether a reported error is the one expected.
func (p ExpectedError) Matches(actual source.SyntaxError) bool {
	return p.Span == actual.Span() && p.Message() == actual.Message()
}

// ExpectedErrors extracts the errors which compiling a source file should
// report, in order.
func ExpectedErrors(srcfile *source.File) ([]ExpectedError, []error) {
	var (
		directives, errs = Directives(srcfile, "error")
		lines            = srcfile.Lines()
		expected         []ExpectedError
	)
	//
	for _, d := range directives {
		if e, err := parseExpectedError(d, lines); err != nil {
			errs = append(errs, err)
		} else {
			expected = append(expected, e)
		}
	}
	//
	return expected, errs
}

func parseExpectedError(d Directive, lines []source.Line) (ExpectedError, error) {
	var expected ExpectedError
	//
	if d.Tag != "" {
		kind, ok := ast.ParseErrorKind(d.Tag)
		if !ok {
			return expected, d.Errorf("unknown error kind \"%s\"", d.Tag)
		}
		//
		expected.Kind = &kind
	}
	//
	location, msg, ok := strings.Cut(d.Body, " ")
	if !ok {
		return expected, d.Errorf("missing message, should be e.g. \";;error 1:2-3 message\"")
	}
	//
	span, err := parseLocation(location, lines)
	if err != nil {
		return expected, d.Errorf("%s", err)
	}
	//
	expected.Span, expected.Msg = span, msg
	//
	return expected, nil
}

// Parse a location "L:X-Y" into a span of the file.
func parseLocation(location string, lines []source.Line) (source.Span, error) {
	var (
		lineno, start, end int
		err                error
	)
	//
	l, columns, ok := strings.Cut(location, ":")
	x, y, ok2 := strings.Cut(columns, "-")
	//
	if !ok || !ok2 {
		return source.Span{}, fmt.Errorf("malformed location \"%s\", should be L:X-Y", location)
	} else if lineno, err = strconv.Atoi(l); err != nil || lineno < 1 || lineno > len(lines) {
		return source.Span{}, fmt.Errorf("invalid line \"%s\"", l)
	} else if start, err = strconv.Atoi(x); err != nil || start < 1 {
		return source.Span{}, fmt.Errorf("invalid column \"%s\" (numbered from 1)", x)
	} else if end, err = strconv.Atoi(y); err != nil || end < start {
		return source.Span{}, fmt.Errorf("invalid column \"%s\"", y)
	}
	//
	line := lines[lineno-1]
	//
	if end-1 > line.Length() {
		return source.Span{}, fmt.Errorf("location \"%s\" overflows line %d", location, lineno)
	}
	//
	return source.NewSpan(line.Start()+start-1, line.Start()+end-1), nil
}
