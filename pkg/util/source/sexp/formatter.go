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
package sexp

import (
	"math"
	"strings"
)

// maxPriority bounds how many times the formatter retries with more aggressive
// line breaking before giving up on the target width.
const maxPriority = 10

// FormattingChunk is an element of a list which may be moved onto a new line
// when formatting at (or above) the given priority.
type FormattingChunk struct {
	Priority uint
	Indent   uint
	Contents SExp
}

// Formatter pretty-prints S-Expressions, breaking lines according to its rules
// until the output fits within a given width.
type Formatter struct {
	maxWidth uint
	rules    []FormattingRule
}

// NewFormatter constructs a formatter targeting a given width.
func NewFormatter(width uint) *Formatter {
	return &Formatter{width, nil}
}

// Add a formatting rule.  Rules are tried in the order they are added.
func (p *Formatter) Add(rule FormattingRule) {
	p.rules = append(p.rules, rule)
}

// Format a given S-Expression.
func (p *Formatter) Format(sexp SExp) string {
	var text *layout
	//
	for priority := uint(0); ; priority++ {
		text = &layout{formatter: p, priority: priority}
		text.write(sexp, false)
		//
		if text.width() <= p.maxWidth || priority >= maxPriority {
			return text.String()
		}
	}
}

// layout accumulates indented lines for a single formatting attempt.
type layout struct {
	formatter *Formatter
	priority  uint
	indent    int
	lines     []string
}

func (p *layout) String() string {
	var builder strings.Builder
	//
	for _, line := range p.lines {
		builder.WriteString(line)
		builder.WriteString("\n")
	}
	//
	return builder.String()
}

func (p *layout) newline() {
	p.lines = append(p.lines, strings.Repeat("   ", p.indent))
}

func (p *layout) append(str string) {
	if n := len(p.lines); n == 0 {
		p.lines = append(p.lines, str)
	} else {
		p.lines[n-1] += str
	}
}

func (p *layout) lineWidth() uint {
	if n := len(p.lines); n > 0 {
		return uint(len(p.lines[n-1]))
	}
	//
	return 0
}

func (p *layout) width() uint {
	var w uint
	//
	for _, line := range p.lines {
		w = max(w, uint(len(line)))
	}
	//
	return w
}

// write an S-Expression, where fresh indicates the current line was started
// specifically for it.
func (p *layout) write(sexp SExp, fresh bool) {
	switch sexp := sexp.(type) {
	case *Symbol, *Array:
		p.append(sexp.String(false))
	case *List:
		saved := p.priority
		defer func() { p.priority = saved }()
		// Lists which fit on the current line are never broken.
		if p.lineWidth()+uint(len(sexp.String(false))) <= p.formatter.maxWidth {
			p.priority = 0
		}
		//
		for _, rule := range p.formatter.rules {
			if chunks, indent := rule.Split(sexp); chunks != nil {
				p.writeChunks(fresh, chunks, indent)
				return
			}
		}
		//
		p.append("(")
		//
		for i := 0; i < sexp.Len(); i++ {
			if i != 0 {
				p.append(" ")
			}
			//
			p.write(sexp.Get(i), false)
		}
		//
		p.append(")")
	default:
		panic("unreachable")
	}
}

func (p *layout) writeChunks(fresh bool, chunks []FormattingChunk, indent uint) {
	outer := indent != math.MaxUint && !fresh
	//
	if outer {
		p.indent += int(indent)
		p.newline()
	}
	//
	p.append("(")
	//
	for i, chunk := range chunks {
		broken := chunk.Priority <= p.priority
		//
		if broken {
			p.indent += int(chunk.Indent)
			p.newline()
		} else if i != 0 {
			p.append(" ")
		}
		p.write(chunk.Contents, broken)
		//
		if broken {
			p.indent -= int(chunk.Indent)
		}
	}
	//
	p.append(")")
	//
	if outer {
		p.indent -= int(indent)
	}
}
