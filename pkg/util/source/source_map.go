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
package source

import (
	"fmt"
	"iter"
)

// Span is a half-open range [start,end) of character offsets within a source
// file.
type Span struct {
	start int
	end   int
}

// NewSpan constructs a span, which must not end before it starts.
func NewSpan(start int, end int) Span {
	if start > end {
		panic(fmt.Sprintf("invalid span %d-%d", start, end))
	}
	//
	return Span{start, end}
}

// Start returns the offset of the first character covered by this span.
func (p Span) Start() int {
	return p.start
}

// End returns the offset one past the last character covered by this span.
func (p Span) End() int {
	return p.end
}

// Length returns the number of characters covered by this span.
func (p Span) Length() int {
	return p.end - p.start
}

// Map associates items (typically the nodes of a program) with the spans of
// text from which they were parsed.  Items derived from parsed items (e.g. by
// a rewrite) are not mapped themselves, but can be located through the items
// they derive from.
type Map[T comparable] struct {
	spans   map[T]Span
	srcfile File
}

// NewSourceMap constructs an empty map over a given source file.
func NewSourceMap[T comparable](srcfile File) *Map[T] {
	return &Map[T]{make(map[T]Span), srcfile}
}

// Source returns the file whose text this map refers to.
func (p *Map[T]) Source() File {
	return p.srcfile
}

// Put maps an item to a span.  Each item can be mapped at most once, and
// mapping it again is a programming error.
func (p *Map[T]) Put(item T, span Span) {
	if s, ok := p.spans[item]; ok {
		panic(fmt.Sprintf("item %v already mapped to %d-%d", item, s.start, s.end))
	}
	//
	p.spans[item] = span
}

// Get returns the span of a mapped item, and panics for any other item.
func (p *Map[T]) Get(item T) Span {
	s, ok := p.spans[item]
	//
	if !ok {
		panic(fmt.Sprintf("item %v not mapped", item))
	}
	//
	return s
}

// Locate returns the span of the first mapped item in a given sequence of
// candidates, such as the ancestors of a node which was not itself parsed.
func (p *Map[T]) Locate(candidates iter.Seq[T]) (Span, bool) {
	for item := range candidates {
		if s, ok := p.spans[item]; ok {
			return s, true
		}
	}
	//
	return Span{}, false
}

// SyntaxError reports an error against the first mapped item of a given
// sequence of candidates or, if there are none, the start of the file.
func (p *Map[T]) SyntaxError(candidates iter.Seq[T], msg string) *SyntaxError {
	span, _ := p.Locate(candidates)
	//
	return p.srcfile.SyntaxError(span, msg)
}
