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
	"errors"
	"testing"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/extern"
	"github.com/consensys/go-hecc/pkg/hecc/scope"
	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_Taint_01(t *testing.T) {
	// int f(secret int x, int y) { var int z = x + y; var int w = y * 2; return z; }
	g := ast.NewGraph()
	x, y := param(g, "x", true), param(g, "y", false)
	z := g.NewVarDecl("z", INT, g.NewBinary(ast.ADD, g.NewVariable("x"), g.NewVariable("y")))
	w := g.NewVarDecl("w", INT, g.NewBinary(ast.MUL, g.NewVariable("y"), g.NewLiteral(ast.Int(2))))
	ret := g.Add(&ast.Return{g.NewVariable("z")})
	fn := function(g, "f", []ast.Id{x, y}, z, w, ret)
	//
	r := check_Analyse(t, g, nil)
	//
	assert.Equal(t, SECRET, r.Variable(x))
	assert.Equal(t, PUBLIC, r.Variable(y))
	assert.Equal(t, SECRET, r.Variable(z))
	assert.Equal(t, PUBLIC, r.Variable(w))
	assert.True(t, r.IsSecret(ret))
	assert.True(t, r.IsSecret(fn))
	assert.Equal(t, 0, len(r.SecretControlled()))
}

func Test_Taint_02(t *testing.T) {
	// void f(secret int x) { var int y = 0; if (x > 0) { y = 1; } }
	g := ast.NewGraph()
	x := param(g, "x", true)
	y := g.NewVarDecl("y", INT, g.NewLiteral(ast.Int(0)))
	cond := g.NewBinary(ast.GT, g.NewVariable("x"), g.NewLiteral(ast.Int(0)))
	then := g.NewBlock(g.NewAssign("y", g.NewLiteral(ast.Int(1))))
	ifs := g.Add(&ast.If{cond, then, ast.NIL})
	function(g, "f", []ast.Id{x}, y, ifs)
	//
	r := check_Analyse(t, g, nil)
	// Implicit flow through the condition
	assert.Equal(t, SECRET, r.Variable(y))
	assert.True(t, r.IsSecretControlled(ifs))
	assert.Equal(t, []ast.Id{ifs}, r.SecretControlled())
}

func Test_Taint_03(t *testing.T) {
	// Flipping an input to secret never makes anything public.
	public := check_Analyse(t, buildChain(false), nil)
	secret := check_Analyse(t, buildChain(true), nil)
	//
	for id := range ast.Id(20) {
		if public.IsSecret(id) {
			assert.True(t, secret.IsSecret(id))
		}
	}
	// Everything derived from the input is now secret
	assert.True(t, secret.IsSecret(ast.FindFunction(buildChain(true), "f")))
	assert.False(t, public.IsSecret(ast.FindFunction(buildChain(false), "f")))
}

func Test_Taint_04(t *testing.T) {
	// Labels flow backwards through a loop: "a = b; b = x;"
	g := ast.NewGraph()
	x := param(g, "x", true)
	a := g.NewVarDecl("a", INT, g.NewLiteral(ast.Int(0)))
	b := g.NewVarDecl("b", INT, g.NewLiteral(ast.Int(0)))
	i := g.NewVarDecl("i", INT, g.NewLiteral(ast.Int(0)))
	cond := g.NewBinary(ast.LT, g.NewVariable("i"), g.NewLiteral(ast.Int(2)))
	body := g.NewBlock(
		g.NewAssign("a", g.NewVariable("b")),
		g.NewAssign("b", g.NewVariable("x")),
		g.NewAssign("i", g.NewBinary(ast.ADD, g.NewVariable("i"), g.NewLiteral(ast.Int(1)))))
	loop := g.Add(&ast.While{cond, body, 0})
	function(g, "f", []ast.Id{x}, a, b, i, loop)
	//
	r := check_Analyse(t, g, nil)
	//
	assert.Equal(t, SECRET, r.Variable(a))
	assert.Equal(t, SECRET, r.Variable(b))
	assert.Equal(t, PUBLIC, r.Variable(i))
	assert.False(t, r.IsSecretControlled(loop))
}

func Test_Taint_05(t *testing.T) {
	// Taint flows through parameters and results of calls
	g := ast.NewGraph()
	a := param(g, "a", false)
	id := function(g, "id", []ast.Id{a}, g.Add(&ast.Return{g.NewVariable("a")}))
	x := param(g, "x", true)
	call := g.Add(&ast.Call{"id", []ast.Id{g.NewVariable("x")}})
	main := g.Add(&ast.Function{"main", []ast.Id{x}, INT, g.NewBlock(g.Add(&ast.Return{call}))})
	addFunction(g, main)
	//
	r := check_Analyse(t, g, nil)
	//
	assert.Equal(t, SECRET, r.Variable(a))
	assert.True(t, r.IsSecret(call))
	assert.True(t, r.IsSecret(id))
}

func Test_Taint_06(t *testing.T) {
	g := ast.NewGraph()
	x := param(g, "x", true)
	call := g.Add(&ast.CallExternal{"log", []ast.Id{g.NewVariable("x")}})
	function(g, "f", []ast.Id{x}, call)
	//
	_, err := analyse(g, nil)
	//
	assert.True(t, errors.Is(err, ast.ErrUnknownExternalDeclaration))
}

func Test_Taint_07(t *testing.T) {
	registry := extern.NewRegistry(
		extern.Declaration{Name: "len", SideEffectFree: true, PublicResult: true},
		extern.Declaration{Name: "abs", SideEffectFree: true},
		extern.Declaration{Name: "seed", SecretResult: true, SideEffectFree: true})
	//
	g := ast.NewGraph()
	x := param(g, "x", true)
	n := g.NewVarDecl("n", INT, g.Add(&ast.CallExternal{"len", []ast.Id{g.NewVariable("x")}}))
	m := g.NewVarDecl("m", INT, g.Add(&ast.CallExternal{"abs", []ast.Id{g.NewVariable("x")}}))
	s := g.NewVarDecl("s", INT, g.Add(&ast.CallExternal{"seed", nil}))
	function(g, "f", []ast.Id{x}, n, m, s)
	//
	r := check_Analyse(t, g, registry)
	//
	assert.Equal(t, PUBLIC, r.Variable(n))
	assert.Equal(t, SECRET, r.Variable(m))
	assert.Equal(t, SECRET, r.Variable(s))
}

func Test_Taint_08(t *testing.T) {
	// External function with side effects under secret control
	registry := extern.NewRegistry(extern.Declaration{Name: "print"})
	g := ast.NewGraph()
	x := param(g, "x", true)
	call := g.Add(&ast.CallExternal{"print", []ast.Id{g.NewLiteral(ast.Int(1))}})
	ifs := g.Add(&ast.If{g.NewVariable("x"), g.NewBlock(call), ast.NIL})
	function(g, "f", []ast.Id{x}, ifs)
	//
	_, err := analyse(g, registry)
	//
	assert.True(t, errors.Is(err, ast.ErrUnsupportedControlFlow))
}

func Test_Taint_09(t *testing.T) {
	// Return within secret loop
	g := ast.NewGraph()
	x := param(g, "x", true)
	body := g.NewBlock(g.Add(&ast.Return{g.NewLiteral(ast.Int(1))}))
	loop := g.Add(&ast.While{g.NewVariable("x"), body, 4})
	function(g, "f", []ast.Id{x}, loop, g.Add(&ast.Return{g.NewLiteral(ast.Int(0))}))
	//
	_, err := analyse(g, nil)
	//
	assert.True(t, errors.Is(err, ast.ErrUnsupportedControlFlow))
}

func Test_Taint_10(t *testing.T) {
	// Early return from one branch only
	g := ast.NewGraph()
	x := param(g, "x", true)
	then := g.NewBlock(g.Add(&ast.Return{g.NewLiteral(ast.Int(1))}))
	ifs := g.Add(&ast.If{g.NewVariable("x"), then, ast.NIL})
	function(g, "f", []ast.Id{x}, ifs, g.Add(&ast.Return{g.NewLiteral(ast.Int(0))}))
	//
	_, err := analyse(g, nil)
	//
	assert.True(t, errors.Is(err, ast.ErrUnsupportedControlFlow))
}

func Test_Taint_11(t *testing.T) {
	// Terminal form: if (x) { return 1; } else { if (x) { return 2; } else { return 3; } }
	g := ast.NewGraph()
	x := param(g, "x", true)
	inner := g.Add(&ast.If{g.NewVariable("x"),
		g.NewBlock(g.Add(&ast.Return{g.NewLiteral(ast.Int(2))})),
		g.NewBlock(g.Add(&ast.Return{g.NewLiteral(ast.Int(3))}))})
	outer := g.Add(&ast.If{g.NewVariable("x"),
		g.NewBlock(g.Add(&ast.Return{g.NewLiteral(ast.Int(1))})),
		g.NewBlock(inner)})
	function(g, "f", []ast.Id{x}, outer)
	//
	r := check_Analyse(t, g, nil)
	//
	assert.True(t, Terminates(g, g.Node(outer).(*ast.If).Else))
	assert.Equal(t, []ast.Id{inner, outer}, r.SecretControlled())
	assert.True(t, r.IsSecret(ast.FindFunction(g, "f")))
}

func Test_Taint_12(t *testing.T) {
	// Matrix dimensions are public even for secret matrices.
	g := ast.NewGraph()
	m := g.Add(&ast.Param{"m", ast.Datatype{Kind: ast.INT, Secret: true, Rows: 2, Cols: 2}})
	size := g.Add(&ast.MatrixSize{g.NewVariable("m"), 0})
	n := g.NewVarDecl("n", INT, size)
	index := g.Add(&ast.IndexAccess{g.NewVariable("m"), g.NewLiteral(ast.Int(0)), g.NewLiteral(ast.Int(1))})
	e := g.NewVarDecl("e", INT, index)
	function(g, "f", []ast.Id{m}, n, e)
	//
	r := check_Analyse(t, g, nil)
	//
	assert.Equal(t, PUBLIC, r.Variable(n))
	assert.Equal(t, SECRET, r.Variable(e))
	assert.True(t, r.IsSecret(index))
}

// ===================================================================
// Test Helpers
// ===================================================================

var INT = ast.Scalar(ast.INT, false)

func param(g *ast.Graph, name string, secret bool) ast.Id {
	return g.Add(&ast.Param{name, ast.Scalar(ast.INT, secret)})
}

// Construct a function and append it to the program.
func function(g *ast.Graph, name string, params []ast.Id, stmts ...ast.Id) ast.Id {
	fn := g.Add(&ast.Function{name, params, INT, g.NewBlock(stmts...)})
	addFunction(g, fn)
	//
	return fn
}

func addFunction(g *ast.Graph, fn ast.Id) {
	if g.Root() == ast.NIL {
		g.SetRoot(g.NewBlock(fn))
	} else {
		g.InsertStatements(g.Root(), len(g.Children(g.Root())), fn)
	}
}

// Build "int f(x) { var int a = x * 2; var int b = a + 1; return b; }"
func buildChain(secret bool) *ast.Graph {
	g := ast.NewGraph()
	x := param(g, "x", secret)
	a := g.NewVarDecl("a", INT, g.NewBinary(ast.MUL, g.NewVariable("x"), g.NewLiteral(ast.Int(2))))
	b := g.NewVarDecl("b", INT, g.NewBinary(ast.ADD, g.NewVariable("a"), g.NewLiteral(ast.Int(1))))
	function(g, "f", []ast.Id{x}, a, b, g.Add(&ast.Return{g.NewVariable("b")}))
	//
	return g
}

func analyse(g *ast.Graph, registry *extern.Registry) (*Result, error) {
	scopes, err := scope.Resolve(g)
	if err != nil {
		return nil, err
	}
	//
	return Analyse(g, scopes, registry)
}

func check_Analyse(t *testing.T, g *ast.Graph, registry *extern.Registry) *Result {
	r, err := analyse(g, registry)
	//
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	//
	return r
}
