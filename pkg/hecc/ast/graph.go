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
package ast

import (
	"fmt"
	"slices"
)

// Graph is an arena holding every node of a program, where each node is owned
// by at most one parent.  Parent links are non-owning back-references
// resolved through the arena, and are maintained exclusively by the mutation
// operations of the graph.  Node identifiers are allocated sequentially by the
// graph itself.
type Graph struct {
	nodes []entry
	root  Id
}

type entry struct {
	node Node
	// Parent of this node, or NIL if detached (or the root).
	parent Id
	// Node from which this node was cloned, or NIL.
	origin Id
	// Number of additional owners permitted whilst shared.
	shares uint
}

// NewGraph constructs an empty graph.
func NewGraph() *Graph {
	return &Graph{nil, NIL}
}

// Len returns the number of nodes allocated in this graph, including those no
// longer reachable from the root.
func (g *Graph) Len() uint {
	return uint(len(g.nodes))
}

// Add allocates a new node in this graph, taking ownership of its children.
// Every child must either be detached or have been explicitly shared.
func (g *Graph) Add(n Node) Id {
	id := Id(len(g.nodes))
	g.nodes = append(g.nodes, entry{n, NIL, NIL, 0})
	//
	for _, c := range n.Children() {
		if c != NIL {
			g.adopt(id, c)
		}
	}
	//
	return id
}

// Node returns the node with a given identifier.
func (g *Graph) Node(id Id) Node {
	return g.nodes[id].node
}

// Root returns the root of this graph.
func (g *Graph) Root() Id {
	return g.root
}

// SetRoot makes a given (detached) node the root of this graph.
func (g *Graph) SetRoot(id Id) {
	if g.nodes[id].parent != NIL {
		panic(fmt.Sprintf("root #%d has parent #%d", id, g.nodes[id].parent))
	}
	//
	g.root = id
}

// Parent returns the parent of a given node, or NIL if it has none.
func (g *Graph) Parent(id Id) Id {
	return g.nodes[id].parent
}

// Origin returns the node from which a given node was (transitively) cloned,
// or the node itself if it is not a clone.
func (g *Graph) Origin(id Id) Id {
	for g.nodes[id].origin != NIL {
		id = g.nodes[id].origin
	}
	//
	return id
}

// SetOrigin records that a given node was derived from another.  This is used
// by rewrites which synthesise nodes on behalf of an existing node, so that
// errors can be attributed to the source construct.
func (g *Graph) SetOrigin(id Id, origin Id) {
	if g.nodes[id].origin == NIL && id != origin {
		g.nodes[id].origin = origin
	}
}

// Children returns the (non-absent) children of a given node in order.
func (g *Graph) Children(id Id) []Id {
	var children []Id
	//
	for _, c := range g.nodes[id].node.Children() {
		if c != NIL {
			children = append(children, c)
		}
	}
	//
	return children
}

// IsAncestor determines whether a given node is an ancestor of (or identical
// to) another node.
func (g *Graph) IsAncestor(ancestor Id, id Id) bool {
	for ; id != NIL; id = g.nodes[id].parent {
		if id == ancestor {
			return true
		}
	}
	//
	return false
}

// SetChild assigns the ith child slot of a given parent.  The new child is
// first detached from any existing parent, whilst the previous occupant of the
// slot becomes detached.
func (g *Graph) SetChild(parent Id, i int, child Id) {
	var old = g.nodes[parent].node.Children()[i]
	//
	if old == child {
		return
	} else if child != NIL {
		g.Detach(child)
		// Detaching a sibling may have shifted the statements of a block.
		if b, ok := g.nodes[parent].node.(*Block); ok {
			i = slices.Index(b.Statements, old)
		}
	}
	//
	g.nodes[parent].node.setChild(i, child)
	//
	if old != NIL && g.nodes[old].parent == parent {
		g.nodes[old].parent = NIL
	}
	//
	if child != NIL {
		g.adopt(parent, child)
	}
}

// Replace substitutes one node for another in its parent's child slot, after
// which the original node is detached.  If the replacement is currently
// attached elsewhere (e.g. it is a child of the node being replaced), it is
// first detached from there.  This fails with a dangling reference when the
// node has no parent and is not the root.
func (g *Graph) Replace(node Id, replacement Id) error {
	if node == replacement {
		return nil
	}
	//
	parent := g.nodes[node].parent
	//
	if parent == NIL && node != g.root {
		return NewError(DanglingReference, node, "cannot replace detached node")
	}
	//
	g.Detach(replacement)
	//
	if parent == NIL {
		g.root = replacement
		return nil
	}
	//
	i := slices.Index(g.nodes[parent].node.Children(), node)
	//
	if i < 0 {
		return NewError(StructuralError, node, "parent #%d does not list node as child", parent)
	}
	//
	g.SetChild(parent, i, replacement)
	//
	return nil
}

// ReplaceWith substitutes a statement within its enclosing block by zero or
// more statements.
func (g *Graph) ReplaceWith(stmt Id, stmts ...Id) error {
	var (
		parent = g.nodes[stmt].parent
		block  *Block
		ok     bool
	)
	//
	if parent == NIL {
		return NewError(DanglingReference, stmt, "cannot replace detached statement")
	} else if block, ok = g.nodes[parent].node.(*Block); !ok {
		return NewError(StructuralError, stmt, "statement not enclosed by block")
	}
	//
	i := slices.Index(block.Statements, stmt)
	g.Detach(stmt)
	g.InsertStatements(parent, i, stmts...)
	//
	return nil
}

// InsertStatements inserts zero or more (detached) statements into a block at
// a given position.
func (g *Graph) InsertStatements(block Id, at int, stmts ...Id) {
	b, ok := g.nodes[block].node.(*Block)
	//
	if !ok {
		panic(fmt.Sprintf("node #%d is not a block", block))
	}
	//
	for _, s := range stmts {
		g.Detach(s)
	}
	//
	b.Statements = slices.Insert(b.Statements, at, stmts...)
	//
	for _, s := range stmts {
		g.adopt(block, s)
	}
}

// Detach removes a node from its parent.  Statements are removed from their
// enclosing block, whilst any other child slot is set to NIL.  Detaching NIL
// has no effect.
func (g *Graph) Detach(id Id) {
	if id == NIL {
		return
	}
	//
	var parent = g.nodes[id].parent
	//
	if parent == NIL {
		return
	}
	//
	switch p := g.nodes[parent].node.(type) {
	case *Block:
		p.Statements = slices.DeleteFunc(p.Statements, func(s Id) bool { return s == id })
	default:
		i := slices.Index(p.Children(), id)
		p.setChild(i, NIL)
	}
	//
	g.nodes[id].parent = NIL
}

// Clone performs a deep copy of the subtree rooted at a given node, allocating
// fresh identifiers throughout.  Each copied node records the node it was
// cloned from.
func (g *Graph) Clone(id Id) Id {
	if id == NIL {
		return NIL
	}
	//
	n := g.nodes[id].node.clone()
	//
	for i, c := range n.Children() {
		if c != NIL {
			n.setChild(i, g.Clone(c))
		}
	}
	//
	nid := g.Add(n)
	g.nodes[nid].origin = id
	//
	return nid
}

// Share permits a node to be owned by one additional parent.  Sharing is only
// transient, and must be resolved by Reconcile before the graph is handed on.
func (g *Graph) Share(id Id) Id {
	g.nodes[id].shares++
	return id
}

// Reconcile restores single ownership after sharing.  The first reference to
// a shared node (in depth-first order from the root) retains the node, whilst
// every subsequent reference is given its own deep copy.
func (g *Graph) Reconcile() {
	var seen = make(map[Id]bool)
	//
	g.reconcile(g.root, seen)
	//
	for i := range g.nodes {
		g.nodes[i].shares = 0
	}
}

func (g *Graph) reconcile(id Id, seen map[Id]bool) {
	seen[id] = true
	//
	for i, c := range g.nodes[id].node.Children() {
		if c == NIL {
			continue
		} else if seen[c] {
			dup := g.Clone(c)
			g.nodes[id].node.setChild(i, dup)
			g.nodes[dup].parent = id
		} else {
			g.nodes[c].parent = id
			g.reconcile(c, seen)
		}
	}
}

// Validate checks that every node reachable from the root is owned by exactly
// one parent, and that parent links agree with child slots.
func (g *Graph) Validate() error {
	var seen = make(map[Id]bool)
	//
	if g.root == NIL {
		return nil
	} else if g.nodes[g.root].parent != NIL {
		return NewError(StructuralError, g.root, "root has parent #%d", g.nodes[g.root].parent)
	}
	//
	return g.validate(g.root, seen)
}

func (g *Graph) validate(id Id, seen map[Id]bool) error {
	seen[id] = true
	//
	for _, c := range g.nodes[id].node.Children() {
		if c == NIL {
			continue
		} else if uint(c) >= uint(len(g.nodes)) {
			return NewError(StructuralError, id, "child #%d does not exist", c)
		} else if seen[c] {
			return NewError(StructuralError, c, "node reachable from multiple owners")
		} else if p := g.nodes[c].parent; p != id {
			return NewError(StructuralError, c, "parent link #%d disagrees with owner #%d", p, id)
		} else if err := g.validate(c, seen); err != nil {
			return err
		}
	}
	//
	return nil
}

func (g *Graph) adopt(parent Id, child Id) {
	var e = &g.nodes[child]
	//
	if e.parent != NIL || child == g.root {
		if e.shares == 0 {
			panic(fmt.Sprintf("node #%d already owned by #%d", child, e.parent))
		}
		// Shared reference
		e.shares--
		//
		return
	}
	//
	e.parent = parent
}
