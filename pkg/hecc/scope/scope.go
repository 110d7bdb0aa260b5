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
	"sort"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
)

// Scope represents a region of a program (e.g. a block, loop or function) in
// which identifiers are bound to their declarations.  Scopes observe the
// nodes of a graph, but do not own them.  Lookups which fail locally continue
// in the enclosing scope.
type Scope struct {
	// Node introducing this scope.
	owner ast.Id
	// Enclosing scope (or nil for the root).
	parent *Scope
	// Maps identifiers to their declarations.
	bindings map[string]ast.Id
}

// NewScope constructs an initially empty scope for a given node, enclosed by
// a given parent scope.
func NewScope(owner ast.Id, parent *Scope) *Scope {
	return &Scope{owner, parent, make(map[string]ast.Id)}
}

// Owner returns the node which introduced this scope.
func (p *Scope) Owner() ast.Id {
	return p.owner
}

// Parent returns the enclosing scope, or nil if this is the root scope.
func (p *Scope) Parent() *Scope {
	return p.parent
}

// Declare binds a given identifier to a declaration in this scope.  This
// fails if the identifier is already bound in this scope (though it may
// shadow a binding in an enclosing scope).
func (p *Scope) Declare(name string, decl ast.Id) bool {
	if _, ok := p.bindings[name]; ok {
		return false
	}
	//
	p.bindings[name] = decl
	//
	return true
}

// LookupLocal resolves an identifier in this scope only.
func (p *Scope) LookupLocal(name string) (ast.Id, bool) {
	decl, ok := p.bindings[name]
	return decl, ok
}

// Lookup resolves an identifier by walking outwards through the enclosing
// scopes until it is found, or the root scope is exhausted.
func (p *Scope) Lookup(name string) (ast.Id, bool) {
	for s := p; s != nil; s = s.parent {
		if decl, ok := s.bindings[name]; ok {
			return decl, true
		}
	}
	//
	return ast.NIL, false
}

// Names returns the identifiers bound in this scope, in sorted order.
func (p *Scope) Names() []string {
	names := make([]string, 0, len(p.bindings))
	//
	for n := range p.bindings {
		names = append(names, n)
	}
	//
	sort.Strings(names)
	//
	return names
}

// Name returns the identifier introduced by a given declaration.
func Name(g *ast.Graph, decl ast.Id) string {
	switch d := g.Node(decl).(type) {
	case *ast.VarDecl:
		return d.Name
	case *ast.Param:
		return d.Name
	case *ast.Function:
		return d.Name
	default:
		panic("unknown declaration encountered")
	}
}

// Type returns the declared type of a given variable or parameter declaration.
func Type(g *ast.Graph, decl ast.Id) ast.Datatype {
	switch d := g.Node(decl).(type) {
	case *ast.VarDecl:
		return d.Type
	case *ast.Param:
		return d.Type
	case *ast.Function:
		return d.Result
	default:
		panic("unknown declaration encountered")
	}
}
