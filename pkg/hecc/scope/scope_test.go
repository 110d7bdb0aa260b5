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
	"errors"
	"testing"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_Scope_01(t *testing.T) {
	outer := NewScope(0, nil)
	inner := NewScope(1, outer)
	//
	assert.True(t, outer.Declare("x", 10))
	assert.False(t, outer.Declare("x", 11))
	assert.True(t, inner.Declare("x", 12))
	assert.True(t, inner.Declare("y", 13))
	//
	check_Lookup(t, inner, "x", 12)
	check_Lookup(t, inner, "y", 13)
	check_Lookup(t, outer, "x", 10)
	//
	_, ok := outer.Lookup("y")
	assert.False(t, ok)
	assert.Equal(t, []string{"x", "y"}, inner.Names())
}

func Test_Scope_02(t *testing.T) {
	g, x, uses := buildProgram()
	tree, err := Resolve(g)
	//
	assert.True(t, err == nil)
	// Every use of x resolves to the parameter
	for _, u := range uses {
		decl, ok := tree.Declaration(u)
		assert.True(t, ok)
		assert.Equal(t, x, decl)
	}
	//
	assert.Equal(t, INT_TYPE, Type(g, x))
	assert.Equal(t, "x", Name(g, x))
}

func Test_Scope_03(t *testing.T) {
	g := ast.NewGraph()
	body := g.NewBlock(g.Add(&ast.Return{g.NewVariable("z")}))
	fn := g.Add(&ast.Function{"f", nil, INT_TYPE, body})
	g.SetRoot(g.NewBlock(fn))
	//
	_, err := Resolve(g)
	//
	assert.True(t, errors.Is(err, ast.ErrUnboundVariable))
}

func Test_Scope_04(t *testing.T) {
	g := ast.NewGraph()
	body := g.NewBlock(
		g.NewVarDecl("a", INT_TYPE, g.NewLiteral(ast.Int(1))),
		g.NewVarDecl("a", INT_TYPE, g.NewLiteral(ast.Int(2))))
	fn := g.Add(&ast.Function{"f", nil, ast.Scalar(ast.VOID, false), body})
	g.SetRoot(g.NewBlock(fn))
	//
	_, err := Resolve(g)
	//
	assert.True(t, errors.Is(err, ast.ErrDuplicateDeclaration))
}

func Test_Scope_05(t *testing.T) {
	g := ast.NewGraph()
	// Inner block shadows outer declaration
	inner := g.NewVarDecl("a", INT_TYPE, g.NewLiteral(ast.Int(2)))
	use := g.NewVariable("a")
	outer := g.NewVarDecl("a", INT_TYPE, g.NewLiteral(ast.Int(1)))
	body := g.NewBlock(outer, g.NewBlock(inner, g.Add(&ast.Return{use})))
	// Call is resolved before the callee is declared
	call := g.Add(&ast.Call{"f", nil})
	main := g.Add(&ast.Function{"main", nil, INT_TYPE, g.NewBlock(g.Add(&ast.Return{call}))})
	fn := g.Add(&ast.Function{"f", nil, INT_TYPE, body})
	g.SetRoot(g.NewBlock(main, fn))
	//
	tree, err := Resolve(g)
	assert.True(t, err == nil)
	//
	decl, _ := tree.Declaration(use)
	assert.Equal(t, inner, decl)
	decl, _ = tree.Declaration(call)
	assert.Equal(t, fn, decl)
	assert.True(t, tree.Scope(body) != nil)
	assert.True(t, tree.Scope(body).Parent() == tree.Scope(fn))
}

// ===================================================================
// Test Helpers
// ===================================================================

var INT_TYPE = ast.Scalar(ast.INT, false)

// Build "int f(int x) { x = x + 1; return x; }"
func buildProgram() (*ast.Graph, ast.Id, []ast.Id) {
	g := ast.NewGraph()
	x := g.Add(&ast.Param{"x", INT_TYPE})
	u1, u2, u3 := g.NewVariable("x"), g.NewVariable("x"), g.NewVariable("x")
	assign := g.Add(&ast.Assign{u1, g.NewBinary(ast.ADD, u2, g.NewLiteral(ast.Int(1)))})
	body := g.NewBlock(assign, g.Add(&ast.Return{u3}))
	fn := g.Add(&ast.Function{"f", []ast.Id{x}, INT_TYPE, body})
	g.SetRoot(g.NewBlock(fn))
	//
	return g, x, []ast.Id{u1, u2, u3}
}

func check_Lookup(t *testing.T, scope *Scope, name string, expected ast.Id) {
	decl, ok := scope.Lookup(name)
	//
	if !ok {
		t.Fatalf("failed to resolve %s", name)
	}
	//
	assert.Equal(t, expected, decl)
}
