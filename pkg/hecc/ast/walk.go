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

// Visitor is applied to nodes during a traversal of the graph.  A visitor
// handles the node kinds it is interested in, and returns true to descend into
// the children of a node (which is the default for kinds it does not handle).
type Visitor interface {
	Visit(g *Graph, id Id) bool
}

// VisitorFunc adapts an ordinary function into a Visitor.
type VisitorFunc func(g *Graph, id Id) bool

// Visit implementation for the Visitor interface.
func (f VisitorFunc) Visit(g *Graph, id Id) bool {
	return f(g, id)
}

// Walk performs a pre-order traversal of the subtree rooted at a given node.
// Children are determined after the node has been visited, so a visitor may
// rewrite the children of the node it is visiting.
func Walk(g *Graph, id Id, v Visitor) {
	if id == NIL || !v.Visit(g, id) {
		return
	}
	//
	for _, c := range g.Children(id) {
		Walk(g, c, v)
	}
}

// PostOrder returns the nodes of the subtree rooted at a given node, with
// children ordered before their parents.
func PostOrder(g *Graph, id Id) []Id {
	var order []Id
	//
	postOrder(g, id, &order)
	//
	return order
}

func postOrder(g *Graph, id Id, order *[]Id) {
	if id == NIL {
		return
	}
	//
	for _, c := range g.Children(id) {
		postOrder(g, c, order)
	}
	//
	*order = append(*order, id)
}

// Functions returns the function declarations of a program, i.e. those which
// are statements of the root block.
func Functions(g *Graph) []Id {
	var fns []Id
	//
	if root, ok := g.Node(g.Root()).(*Block); ok {
		for _, s := range root.Statements {
			if _, ok := g.Node(s).(*Function); ok {
				fns = append(fns, s)
			}
		}
	}
	//
	return fns
}

// FindFunction returns the declaration of a named function, or NIL.
func FindFunction(g *Graph, name string) Id {
	for _, f := range Functions(g) {
		if g.Node(f).(*Function).Name == name {
			return f
		}
	}
	//
	return NIL
}

// EnclosingFunction returns the function enclosing a given node, or NIL.
func EnclosingFunction(g *Graph, id Id) Id {
	for ; id != NIL; id = g.Parent(id) {
		if _, ok := g.Node(id).(*Function); ok {
			return id
		}
	}
	//
	return NIL
}
