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
package batch

import (
	"testing"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/scope"
	"github.com/consensys/go-hecc/pkg/hecc/taint"
	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_Batch_01(t *testing.T) {
	// var p = a*b; var q = c*d; return p + q;
	g := ast.NewGraph()
	p := g.NewVarDecl("p", INT, mul(g, "a", "b"))
	q := g.NewVarDecl("q", INT, mul(g, "c", "d"))
	ret := g.Add(&ast.Return{g.NewBinary(ast.ADD, g.NewVariable("p"), g.NewVariable("q"))})
	function(g, []string{"a", "b", "c", "d"}, p, q, ret)
	//
	batches := check_Vectorize(t, g, 4)
	//
	assert.Equal(t, 1, len(batches))
	assert.Equal(t, uint(2), batches[0].Width())
	assert.Equal(t, uint(0), batches[0].Rotations)
	assert.Equal(t, []uint{0, 1}, batches[0].Slots)
	assert.Equal(t, "(* v v)", batches[0].Signature)
	assert.Equal(t, "(get __batch1 0)", ast.Dump(g, g.Node(p).(*ast.VarDecl).Init).String(false))
	assert.Equal(t, "(get __batch1 1)", ast.Dump(g, g.Node(q).(*ast.VarDecl).Init).String(false))
	// Declared ahead of the first member
	body := g.Node(ast.FindFunction(g, "f")).(*ast.Function).Body
	assert.Equal(t, batches[0].Decl, g.Children(body)[0])
}

func Test_Batch_02(t *testing.T) {
	// Narrow vectors disable batching
	g := ast.NewGraph()
	p := g.NewVarDecl("p", INT, mul(g, "a", "b"))
	q := g.NewVarDecl("q", INT, mul(g, "c", "d"))
	function(g, []string{"a", "b", "c", "d"}, p, q)
	//
	assert.Equal(t, 0, len(check_Vectorize(t, g, 1)))
}

func Test_Batch_03(t *testing.T) {
	// var p = a*b; a = p; var q = a*d;
	g := ast.NewGraph()
	p := g.NewVarDecl("p", INT, mul(g, "a", "b"))
	update := g.NewAssign("a", g.NewVariable("p"))
	q := g.NewVarDecl("q", INT, mul(g, "a", "d"))
	function(g, []string{"a", "b", "c", "d"}, p, update, q)
	//
	assert.Equal(t, 0, len(check_Vectorize(t, g, 4)))
}

func Test_Batch_04(t *testing.T) {
	// Operations of different shape are not batched together
	g := ast.NewGraph()
	p := g.NewVarDecl("p", INT, mul(g, "a", "b"))
	q := g.NewVarDecl("q", INT, g.NewBinary(ast.ADD, g.NewVariable("c"), g.NewVariable("d")))
	r := g.NewVarDecl("r", INT, g.NewBinary(ast.ADD, g.NewVariable("a"), g.NewLiteral(ast.Int(1))))
	function(g, []string{"a", "b", "c", "d"}, p, q, r)
	//
	assert.Equal(t, 0, len(check_Vectorize(t, g, 4)))
}

func Test_Batch_05(t *testing.T) {
	// Aligned vector elements need no rotation
	g := ast.NewGraph()
	p := g.NewVarDecl("p", INT, g.NewBinary(ast.MUL, element(g, "v", 0), element(g, "w", 0)))
	q := g.NewVarDecl("q", INT, g.NewBinary(ast.MUL, element(g, "v", 1), element(g, "w", 1)))
	r := g.NewVarDecl("r", INT, g.NewBinary(ast.MUL, element(g, "v", 2), element(g, "w", 2)))
	vectors(g, p, q, r)
	//
	batches := check_Vectorize(t, g, 4)
	//
	assert.Equal(t, 1, len(batches))
	assert.Equal(t, uint(3), batches[0].Width())
	assert.Equal(t, uint(0), batches[0].Rotations)
	assert.Equal(t, []uint{0, 1, 2}, batches[0].Slots)
}

func Test_Batch_06(t *testing.T) {
	// Misaligned elements are rotated into place
	g := ast.NewGraph()
	p := g.NewVarDecl("p", INT, g.NewBinary(ast.MUL, element(g, "v", 2), element(g, "w", 2)))
	q := g.NewVarDecl("q", INT, g.NewBinary(ast.MUL, element(g, "v", 3), element(g, "w", 0)))
	vectors(g, p, q)
	//
	batches := check_Vectorize(t, g, 4)
	//
	assert.Equal(t, 1, len(batches))
	assert.Equal(t, uint(1), batches[0].Rotations)
	assert.Equal(t, []uint{0, 2}, batches[0].Slots)
	slot, _ := batches[0].Slot(batches[0].Members[1])
	assert.Equal(t, uint(2), slot)
	assert.Equal(t, "(get __batch1 2)", ast.Dump(g, g.Node(p).(*ast.VarDecl).Init).String(false))
}

func Test_Batch_07(t *testing.T) {
	// Groups larger than the slot width are split
	g := ast.NewGraph()
	var stmts []ast.Id
	//
	for _, name := range []string{"p", "q", "r", "s", "u"} {
		stmts = append(stmts, g.NewVarDecl(name, INT, mul(g, "a", "b")))
	}
	//
	function(g, []string{"a", "b", "c", "d"}, stmts...)
	//
	batches := check_Vectorize(t, g, 2)
	// The final operation has no peer
	assert.Equal(t, 2, len(batches))
	assert.Equal(t, "(* a b)", ast.Dump(g, g.Node(stmts[4]).(*ast.VarDecl).Init).String(false))
}

// ===================================================================
// Test Helpers
// ===================================================================

var INT = ast.Scalar(ast.INT, false)

func mul(g *ast.Graph, lhs string, rhs string) ast.Id {
	return g.NewBinary(ast.MUL, g.NewVariable(lhs), g.NewVariable(rhs))
}

func element(g *ast.Graph, name string, index int64) ast.Id {
	return g.Add(&ast.IndexAccess{g.NewVariable(name), g.NewLiteral(ast.Int(index)), ast.NIL})
}

// Construct "void f(secret int p1, ...) { stmts }".
func function(g *ast.Graph, params []string, stmts ...ast.Id) {
	var ids []ast.Id
	//
	for _, p := range params {
		ids = append(ids, g.Add(&ast.Param{p, ast.Scalar(ast.INT, true)}))
	}
	//
	fn := g.Add(&ast.Function{"f", ids, ast.Scalar(ast.VOID, false), g.NewBlock(stmts...)})
	g.SetRoot(g.NewBlock(fn))
}

// Construct "void f(secret int[1,4] v, secret int[1,4] w) { stmts }".
func vectors(g *ast.Graph, stmts ...ast.Id) {
	var (
		datatype = ast.Datatype{Kind: ast.INT, Secret: true, Rows: 1, Cols: 4}
		v        = g.Add(&ast.Param{"v", datatype})
		w        = g.Add(&ast.Param{"w", datatype})
	)
	//
	fn := g.Add(&ast.Function{"f", []ast.Id{v, w}, ast.Scalar(ast.VOID, false), g.NewBlock(stmts...)})
	g.SetRoot(g.NewBlock(fn))
}

func check_Vectorize(t *testing.T, g *ast.Graph, width uint) []Batch {
	scopes, err := scope.Resolve(g)
	if err != nil {
		t.Fatal(err)
	}
	//
	labels, err := taint.Analyse(g, scopes, nil)
	if err != nil {
		t.Fatal(err)
	}
	//
	batches, err := Vectorize(g, labels, Config{width})
	if err != nil {
		t.Fatal(err)
	}
	//
	assert.True(t, g.Validate() == nil)
	_, err = scope.Resolve(g)
	assert.True(t, err == nil)
	//
	return batches
}
