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
package cfg

import (
	"fmt"
	"sort"
	"strings"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
)

// EdgeKind identifies how control passes from one block to another.
type EdgeKind uint8

const (
	// UNCONDITIONAL edges fall through from one block to the next.
	UNCONDITIONAL EdgeKind = iota
	// TRUE_BRANCH edges are taken when a condition holds.
	TRUE_BRANCH
	// FALSE_BRANCH edges are taken when a condition fails.
	FALSE_BRANCH
	// LOOP_BACK edges return from the end of a loop body to its header.
	LOOP_BACK
)

var edgeKindNames = []string{"->", "true", "false", "loop"}

func (k EdgeKind) String() string {
	return edgeKindNames[k]
}

// Edge connects two basic blocks.
type Edge struct {
	From uint
	To   uint
	Kind EdgeKind
}

// Access records how a block uses a given variable.
type Access uint8

const (
	// READ indicates a variable is read.
	READ Access = 1
	// WRITE indicates a variable is written.
	WRITE Access = 2
	// READ_WRITE indicates a variable is both read and written.
	READ_WRITE Access = READ | WRITE
)

// BasicBlock is a maximal sequence of statements with no internal branching.
// A block ending in a conditional or loop header records the corresponding
// node as its branch.
type BasicBlock struct {
	index      uint
	statements []ast.Id
	branch     ast.Id
	accesses   map[ast.Id]Access
}

// Index returns the position of this block within its graph.
func (p *BasicBlock) Index() uint {
	return p.index
}

// Statements returns the statements of this block in execution order.
func (p *BasicBlock) Statements() []ast.Id {
	return p.statements
}

// Branch returns the conditional or loop whose condition terminates this
// block, or NIL if it falls through.
func (p *BasicBlock) Branch() ast.Id {
	return p.branch
}

// Access returns how this block uses a given variable (zero if unused).
func (p *BasicBlock) Access(decl ast.Id) Access {
	return p.accesses[decl]
}

// Writes returns the variables written by this block, in increasing order of
// declaration.
func (p *BasicBlock) Writes() []ast.Id {
	return filter(p.accesses, WRITE)
}

// Reads returns the variables read by this block, in increasing order of
// declaration.
func (p *BasicBlock) Reads() []ast.Id {
	return filter(p.accesses, READ)
}

func (p *BasicBlock) access(decl ast.Id, access Access) {
	p.accesses[decl] |= access
}

// Graph is the control-flow graph of a single statement (typically a
// conditional or loop).  Block 0 is the unique entry, and every block is
// reachable from it.
type Graph struct {
	origin ast.Id
	blocks []*BasicBlock
	edges  []Edge
}

// Origin returns the statement from which this graph was built.
func (p *Graph) Origin() ast.Id {
	return p.origin
}

// Entry returns the entry block.
func (p *Graph) Entry() *BasicBlock {
	return p.blocks[0]
}

// Blocks returns the blocks of this graph.
func (p *Graph) Blocks() []*BasicBlock {
	return p.blocks
}

// Edges returns the edges of this graph.
func (p *Graph) Edges() []Edge {
	return p.edges
}

// Successors returns the outgoing edges of a given block.
func (p *Graph) Successors(block uint) []Edge {
	var edges []Edge
	//
	for _, e := range p.edges {
		if e.From == block {
			edges = append(edges, e)
		}
	}
	//
	return edges
}

// Predecessors returns the incoming edges of a given block.
func (p *Graph) Predecessors(block uint) []Edge {
	var edges []Edge
	//
	for _, e := range p.edges {
		if e.To == block {
			edges = append(edges, e)
		}
	}
	//
	return edges
}

// Writes returns every variable written anywhere in this graph, in increasing
// order of declaration.
func (p *Graph) Writes() []ast.Id {
	return p.union(WRITE)
}

// Reads returns every variable read anywhere in this graph, in increasing
// order of declaration.
func (p *Graph) Reads() []ast.Id {
	return p.union(READ)
}

func (p *Graph) union(access Access) []ast.Id {
	all := make(map[ast.Id]Access)
	//
	for _, b := range p.blocks {
		for decl, a := range b.accesses {
			all[decl] |= a
		}
	}
	//
	return filter(all, access)
}

func (p *Graph) String() string {
	var builder strings.Builder
	//
	for _, b := range p.blocks {
		builder.WriteString(fmt.Sprintf("B%d %v", b.index, b.statements))
		//
		for _, e := range p.Successors(b.index) {
			builder.WriteString(fmt.Sprintf(" %s:B%d", e.Kind, e.To))
		}
		//
		builder.WriteString("\n")
	}
	//
	return builder.String()
}

func filter(accesses map[ast.Id]Access, access Access) []ast.Id {
	var decls []ast.Id
	//
	for decl, a := range accesses {
		if a&access != 0 {
			decls = append(decls, decl)
		}
	}
	//
	sort.Slice(decls, func(i, j int) bool { return decls[i] < decls[j] })
	//
	return decls
}
