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
	"strings"

	"github.com/consensys/go-hecc/pkg/util/source"
)

// Directive is an instruction to the test harness embedded in a source file,
// written as a comment line of the form ";;name body" or ";;name[tag] body".
// For example, ";;run f {"x": 1} => 2" or ";;error[unbound variable] 2:3-4
// unknown variable y".
type Directive struct {
	Line source.Line
	Name string
	Tag  string
	Body string
}

// Errorf reports a malformed directive.
func (p Directive) Errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %s (in \"%s\")", p.Line.Number(), fmt.Sprintf(format, args...), p.Line.String())
}

// Directives returns the directives of a given name in a source file, in order
// of appearance.  Comment lines are only directives when the comment marker is
// immediately followed by a name.
func Directives(srcfile *source.File, name string) ([]Directive, []error) {
	var (
		directives []Directive
		errors     []error
	)
	//
	for _, line := range srcfile.Lines() {
		d, ok, err := parseDirective(line)
		//
		if err != nil {
			errors = append(errors, err)
		} else if ok && d.Name == name {
			directives = append(directives, d)
		}
	}
	//
	return directives, errors
}

func parseDirective(line source.Line) (Directive, bool, error) {
	var d = Directive{Line: line}
	//
	rest, ok := strings.CutPrefix(line.String(), ";;")
	if !ok {
		return d, false, nil
	}
	//
	i := strings.IndexAny(rest, " [")
	if i < 0 {
		i = len(rest)
	}
	//
	if d.Name, rest = rest[:i], rest[i:]; d.Name == "" {
		return d, false, nil
	} else if strings.HasPrefix(rest, "[") {
		if d.Tag, rest, ok = strings.Cut(rest[1:], "]"); !ok {
			return d, true, d.Errorf("unterminated tag")
		}
	}
	//
	d.Body = strings.TrimSpace(rest)
	//
	return d, true, nil
}
