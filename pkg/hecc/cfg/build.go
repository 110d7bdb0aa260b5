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
	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/scope"
)

// Build the control-flow graph of a given statement.  Variable accesses are
// resolved to their declarations using the given scope tree, which must be up
// to date with respect to the graph.  Blocks unreachable from the entry (e.g.
// those following a return) are removed.
func Build(g *ast.Graph, scopes *scope.Tree, stmt ast.Id) (*Graph, error) {
	b := builder{graph: g, scopes: scopes, cfg: &Graph{origin: stmt}}
	b.current = b.newBlock()
	//
	if err := b.stmt(stmt); err != nil {
		return nil, err
	}
	//
	b.cfg.prune()
	//
	return b.cfg, nil
}

type builder struct {
	graph  *ast.Graph
	scopes *scope.Tree
	cfg    *Graph
	// Block currently being filled.
	current *BasicBlock
	// Indicates the current block ends in a return.
	returned bool
}

func (b *builder) newBlock() *BasicBlock {
	block := &BasicBlock{uint(len(b.cfg.blocks)), nil, ast.NIL, make(map[ast.Id]Access)}
	b.cfg.blocks = append(b.cfg.blocks, block)
	//
	return block
}

func (b *builder) edge(from *BasicBlock, to *BasicBlock, kind EdgeKind) {
	b.cfg.edges = append(b.cfg.edges, Edge{from.index, to.index, kind})
}

// Begin a new block, connected to the current one (unless it returned).
func (b *builder) follow(kind EdgeKind) *BasicBlock {
	next := b.newBlock()
	//
	if !b.returned {
		b.edge(b.current, next, kind)
	}
	//
	b.current, b.returned = next, false
	//
	return next
}

func (b *builder) stmt(id ast.Id) error {
	if id == ast.NIL {
		return nil
	}
	//
	switch n := b.graph.Node(id).(type) {
	case *ast.Block:
		for _, s := range n.Statements {
			if err := b.stmt(s); err != nil {
				return err
			}
		}
	case *ast.If:
		return b.conditional(id, n)
	case *ast.While:
		header := b.follow(UNCONDITIONAL)
		header.branch = id
		//
		if err := b.reads(n.Condition); err != nil {
			return err
		}
		//
		return b.loop(header, n.Body, ast.NIL)
	case *ast.For:
		if err := b.stmt(n.Init); err != nil {
			return err
		}
		//
		header := b.follow(UNCONDITIONAL)
		header.branch = id
		//
		if err := b.reads(n.Condition); err != nil {
			return err
		}
		//
		return b.loop(header, n.Body, n.Update)
	case *ast.Assign:
		b.current.statements = append(b.current.statements, id)
		//
		decl := b.scopes.Target(b.graph, id)
		if decl == ast.NIL {
			return ast.NewError(ast.UnboundVariable, id, "assignment to unknown variable")
		}
		//
		if _, ok := b.graph.Node(n.Target).(*ast.IndexAccess); ok {
			// Partial update, so reads from the matrix being updated.
			b.current.access(decl, READ_WRITE)
			//
			for _, c := range b.graph.Children(n.Target)[1:] {
				if err := b.reads(c); err != nil {
					return err
				}
			}
		} else {
			b.current.access(decl, WRITE)
		}
		//
		return b.reads(n.Value)
	case *ast.VarDecl:
		b.current.statements = append(b.current.statements, id)
		b.current.access(id, WRITE)
		//
		return b.reads(n.Init)
	case *ast.Return:
		b.current.statements = append(b.current.statements, id)
		//
		if err := b.reads(n.Value); err != nil {
			return err
		}
		//
		b.returned = true
		// Anything which follows is dead.
		b.current = b.newBlock()
	default:
		// Expression statement
		b.current.statements = append(b.current.statements, id)
		//
		return b.reads(id)
	}
	//
	return nil
}

func (b *builder) conditional(id ast.Id, n *ast.If) error {
	if err := b.reads(n.Condition); err != nil {
		return err
	}
	//
	var (
		head = b.current
		ends []*BasicBlock
	)
	//
	head.branch = id
	// True branch
	b.follow(TRUE_BRANCH)
	//
	if err := b.stmt(n.Then); err != nil {
		return err
	} else if !b.returned {
		ends = append(ends, b.current)
	}
	// False branch
	b.current, b.returned = head, false
	//
	if n.Else != ast.NIL {
		b.follow(FALSE_BRANCH)
		//
		if err := b.stmt(n.Else); err != nil {
			return err
		} else if !b.returned {
			ends = append(ends, b.current)
		}
		//
		b.current = b.newBlock()
	} else {
		b.current = b.newBlock()
		b.edge(head, b.current, FALSE_BRANCH)
	}
	// Join
	for _, end := range ends {
		b.edge(end, b.current, UNCONDITIONAL)
	}
	//
	b.returned = false
	//
	return nil
}

func (b *builder) loop(header *BasicBlock, body ast.Id, update ast.Id) error {
	b.follow(TRUE_BRANCH)
	//
	if err := b.stmt(body); err != nil {
		return err
	} else if err := b.stmt(update); err != nil {
		return err
	}
	//
	if !b.returned {
		b.edge(b.current, header, LOOP_BACK)
	}
	//
	b.current, b.returned = b.newBlock(), false
	b.edge(header, b.current, FALSE_BRANCH)
	//
	return nil
}

// Record the variables read by an expression within the current block.
func (b *builder) reads(id ast.Id) error {
	var err error
	//
	ast.Walk(b.graph, id, ast.VisitorFunc(func(g *ast.Graph, id ast.Id) bool {
		if _, ok := g.Node(id).(*ast.Variable); ok {
			if decl, ok := b.scopes.Declaration(id); ok {
				b.current.access(decl, READ)
			} else if err == nil {
				err = ast.NewError(ast.UnboundVariable, id, "unknown variable %s", g.Node(id).(*ast.Variable).Name)
			}
		}
		//
		return true
	}))
	//
	return err
}

// Remove blocks unreachable from the entry, renumbering those which remain.
func (p *Graph) prune() {
	var (
		reachable = make([]bool, len(p.blocks))
		worklist  = []uint{0}
	)
	//
	reachable[0] = true
	//
	for len(worklist) > 0 {
		next := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		//
		for _, e := range p.Successors(next) {
			if !reachable[e.To] {
				reachable[e.To] = true
				worklist = append(worklist, e.To)
			}
		}
	}
	//
	var (
		blocks  []*BasicBlock
		edges   []Edge
		mapping = make([]uint, len(p.blocks))
	)
	//
	for i, b := range p.blocks {
		if reachable[i] {
			mapping[i] = uint(len(blocks))
			b.index = mapping[i]
			blocks = append(blocks, b)
		}
	}
	//
	for _, e := range p.edges {
		if reachable[e.From] {
			edges = append(edges, Edge{mapping[e.From], mapping[e.To], e.Kind})
		}
	}
	//
	p.blocks, p.edges = blocks, edges
}
