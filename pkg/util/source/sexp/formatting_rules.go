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

import "math"

// FormattingRule directs how a list is broken across lines.  Split returns the
// chunks of a list it handles (or nil otherwise), along with the indent to
// apply when the list itself starts on a new line.  An indent of math.MaxUint
// means the list is never moved onto a new line of its own.
type FormattingRule interface {
	Split(*List) ([]FormattingChunk, uint)
}

// LFormatter keeps the head inline and breaks before every child:
//
//	(head
//	  child1
//	  ...
//	  childn)
type LFormatter struct {
	Head     string
	Priority uint
}

// Split implementation for FormattingRule.
func (p *LFormatter) Split(list *List) ([]FormattingChunk, uint) {
	return splitHeaded(list, p.Head, 1, p.Priority, 1)
}

// SFormatter keeps both the head and its first child inline:
//
//	(head child1
//	  child2
//	  ...
//	  childn)
type SFormatter struct {
	Head     string
	Priority uint
}

// Split implementation for FormattingRule.
func (p *SFormatter) Split(list *List) ([]FormattingChunk, uint) {
	return splitHeaded(list, p.Head, 2, p.Priority, 1)
}

// IFormatter allows a break before any element, including the head, but never
// starts the list itself on a fresh line.
type IFormatter struct {
	Head     string
	Priority uint
}

// Split implementation for FormattingRule.
func (p *IFormatter) Split(list *List) ([]FormattingChunk, uint) {
	return splitHeaded(list, p.Head, 0, p.Priority, math.MaxUint)
}

// splitHeaded chunks a list whose head matches.  The first "inline" elements
// are never broken, the remainder break at the given priority.
func splitHeaded(list *List, head string, inline int, priority uint, indent uint) ([]FormattingChunk, uint) {
	if list.Len() == 0 {
		return nil, 0
	} else if sym, ok := list.Get(0).(*Symbol); ok && sym.Value != head {
		return nil, 0
	}
	//
	chunks := make([]FormattingChunk, list.Len())
	//
	for i := range chunks {
		chunks[i].Contents = list.Get(i)
		//
		if i < inline {
			chunks[i].Priority = math.MaxUint
		} else {
			chunks[i].Priority = priority
			chunks[i].Indent = 1
		}
	}
	//
	return chunks, indent
}
