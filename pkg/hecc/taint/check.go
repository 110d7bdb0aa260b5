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
package taint

import (
	"github.com/consensys/go-hecc/pkg/hecc/ast"
)

// Check that all secret-controlled constructs within a statement can be made
// oblivious.  A secret loop cannot contain a return, since the number of
// iterations actually executed is unknown.  Likewise, a secret conditional can
// contain returns only in "terminal" form, where both branches end by
// returning and there are no other returns.  Finally, external functions with
// side effects cannot be called under secret control, since both branches are
// executed.
func (a *analyser) check(id ast.Id, secret bool) error {
	if id == ast.NIL {
		return nil
	}
	//
	switch n := a.graph.Node(id).(type) {
	case *ast.If:
		if a.result.controlled[id] {
			secret = true
			//
			if containsReturn(a.graph, id) && !a.terminal(id) {
				return ast.NewError(ast.UnsupportedControlFlow, id, "return within secret-controlled conditional")
			}
		}
	case *ast.While, *ast.For:
		if a.result.controlled[id] {
			secret = true
			//
			if containsReturn(a.graph, id) {
				return ast.NewError(ast.UnsupportedControlFlow, id, "return within secret-controlled loop")
			}
		}
	case *ast.CallExternal:
		if decl, _ := a.registry.Lookup(n.Name); secret && !decl.SideEffectFree {
			return ast.NewError(ast.UnsupportedControlFlow, id,
				"external function %s has side effects within secret-controlled code", n.Name)
		}
	}
	//
	for _, c := range a.graph.Children(id) {
		if err := a.check(c, secret); err != nil {
			return err
		}
	}
	//
	return nil
}

// Determine whether a conditional is in terminal form, meaning both branches
// end in a return (or another terminal conditional), with no other returns.
func (a *analyser) terminal(id ast.Id) bool {
	n := a.graph.Node(id).(*ast.If)
	//
	return n.Else != ast.NIL && Terminates(a.graph, n.Then) && Terminates(a.graph, n.Else)
}

// Terminates determines whether a statement always ends by returning, where
// the only returns it contains are in tail position.  Blocks terminate when
// their last statement does, and conditionals terminate when both branches
// do.
func Terminates(g *ast.Graph, id ast.Id) bool {
	switch n := g.Node(id).(type) {
	case *ast.Return:
		return true
	case *ast.If:
		return n.Else != ast.NIL && Terminates(g, n.Then) && Terminates(g, n.Else)
	case *ast.Block:
		if len(n.Statements) == 0 {
			return false
		}
		//
		last := len(n.Statements) - 1
		//
		for _, s := range n.Statements[:last] {
			if containsReturn(g, s) {
				return false
			}
		}
		//
		return Terminates(g, n.Statements[last])
	default:
		return false
	}
}

func containsReturn(g *ast.Graph, id ast.Id) bool {
	found := false
	//
	ast.Walk(g, id, ast.VisitorFunc(func(g *ast.Graph, id ast.Id) bool {
		if _, ok := g.Node(id).(*ast.Return); ok {
			found = true
		}
		//
		return !found
	}))
	//
	return found
}
