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
package scope

import (
	"github.com/consensys/go-hecc/pkg/hecc/ast"
)

// Tree records the scopes of a program, along with the declaration to which
// every variable access and call resolves.
type Tree struct {
	root *Scope
	// Scopes indexed by the node which introduced them.
	scopes map[ast.Id]*Scope
	// Maps each variable access and call to its declaration.
	uses map[ast.Id]ast.Id
}

// Root returns the outermost scope, in which functions are declared.
func (p *Tree) Root() *Scope {
	return p.root
}

// Scope returns the scope introduced by a given node (i.e. a block, for-loop
// or function), or nil if it introduces no scope.
func (p *Tree) Scope(owner ast.Id) *Scope {
	return p.scopes[owner]
}

// Declaration returns the declaration to which a variable access (or call)
// resolves.
func (p *Tree) Declaration(use ast.Id) (ast.Id, bool) {
	decl, ok := p.uses[use]
	return decl, ok
}

// Target returns the declaration of the variable written by an assignment,
// which is either a variable or an element of a matrix variable.
func (p *Tree) Target(g *ast.Graph, assign ast.Id) ast.Id {
	target := g.Node(assign).(*ast.Assign).Target
	//
	for {
		if index, ok := g.Node(target).(*ast.IndexAccess); ok {
			target = index.Target
		} else {
			break
		}
	}
	//
	decl, _ := p.Declaration(target)
	//
	return decl
}

// Resolve constructs the scope tree of a program, resolving every variable
// access and call to its declaration.  Functions may be called before they are
// declared, but variables must be declared before use.  This fails with an
// unbound variable or a duplicate declaration.
func Resolve(g *ast.Graph) (*Tree, error) {
	var (
		root = g.Root()
		tree = &Tree{NewScope(root, nil), make(map[ast.Id]*Scope), make(map[ast.Id]ast.Id)}
	)
	//
	tree.scopes[root] = tree.root
	// Functions are visible throughout.
	for _, fn := range ast.Functions(g) {
		if !tree.root.Declare(Name(g, fn), fn) {
			return nil, ast.NewError(ast.DuplicateDeclaration, fn, "function %s already declared", Name(g, fn))
		}
	}
	//
	resolver := resolver{g, tree}
	//
	for _, stmt := range g.Children(root) {
		if err := resolver.resolve(stmt, tree.root); err != nil {
			return nil, err
		}
	}
	//
	return tree, nil
}

type resolver struct {
	graph *ast.Graph
	tree  *Tree
}

func (r *resolver) open(owner ast.Id, parent *Scope) *Scope {
	s := NewScope(owner, parent)
	r.tree.scopes[owner] = s
	//
	return s
}

func (r *resolver) declare(decl ast.Id, scope *Scope) error {
	name := Name(r.graph, decl)
	//
	if !scope.Declare(name, decl) {
		return ast.NewError(ast.DuplicateDeclaration, decl, "%s already declared in scope", name)
	}
	//
	return nil
}

func (r *resolver) resolveAll(ids []ast.Id, scope *Scope) error {
	for _, id := range ids {
		if id == ast.NIL {
			continue
		} else if err := r.resolve(id, scope); err != nil {
			return err
		}
	}
	//
	return nil
}

func (r *resolver) resolve(id ast.Id, scope *Scope) error {
	switch n := r.graph.Node(id).(type) {
	case *ast.Function:
		inner := r.open(id, scope)
		//
		for _, p := range n.Params {
			if err := r.declare(p, inner); err != nil {
				return err
			}
		}
		//
		return r.resolve(n.Body, inner)
	case *ast.Block:
		return r.resolveAll(n.Statements, r.open(id, scope))
	case *ast.For:
		return r.resolveAll(n.Children(), r.open(id, scope))
	case *ast.VarDecl:
		// Initialiser cannot refer to the variable being declared
		if n.Init != ast.NIL {
			if err := r.resolve(n.Init, scope); err != nil {
				return err
			}
		}
		//
		return r.declare(id, scope)
	case *ast.Variable:
		decl, ok := scope.Lookup(n.Name)
		//
		if !ok {
			return ast.NewError(ast.UnboundVariable, id, "unknown variable %s", n.Name)
		} else if _, isFn := r.graph.Node(decl).(*ast.Function); isFn {
			return ast.NewError(ast.UnboundVariable, id, "%s is a function", n.Name)
		}
		//
		r.tree.uses[id] = decl
		//
		return nil
	case *ast.Call:
		decl, ok := r.tree.root.LookupLocal(n.Name)
		//
		if !ok {
			return ast.NewError(ast.UnboundVariable, id, "unknown function %s", n.Name)
		}
		//
		r.tree.uses[id] = decl
		//
		return r.resolveAll(n.Args, scope)
	default:
		return r.resolveAll(n.Children(), scope)
	}
}
