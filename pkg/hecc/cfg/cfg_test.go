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
	"errors"
	"testing"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/scope"
	"github.com/consensys/go-hecc/pkg/hecc/taint"
	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_Build_01(t *testing.T) {
	// if (x > 0) { r = 1; } else { r = 2; }
	g, ifs, r := buildConditional(true)
	cfg := check_Build(t, g, ifs)
	//
	assert.Equal(t, 4, len(cfg.Blocks()))
	assert.Equal(t, ifs, cfg.Entry().Branch())
	assert.Equal(t, []Edge{{0, 1, TRUE_BRANCH}, {0, 2, FALSE_BRANCH}}, cfg.Successors(0))
	assert.Equal(t, 2, len(cfg.Predecessors(3)))
	assert.Equal(t, []ast.Id{r}, cfg.Writes())
	assert.Equal(t, WRITE, cfg.Blocks()[1].Access(r))
	assert.Equal(t, Access(0), cfg.Entry().Access(r))
}

func Test_Build_02(t *testing.T) {
	// if (x > 0) { r = 1; }
	g, ifs, _ := buildConditional(false)
	cfg := check_Build(t, g, ifs)
	//
	assert.Equal(t, 3, len(cfg.Blocks()))
	assert.Equal(t, []Edge{{0, 1, TRUE_BRANCH}, {0, 2, FALSE_BRANCH}, {1, 2, UNCONDITIONAL}}, cfg.Edges())
}

func Test_Build_03(t *testing.T) {
	// while (i < 4) { i = i + 1; }
	g := ast.NewGraph()
	i := g.NewVarDecl("i", INT, g.NewLiteral(ast.Int(0)))
	cond := g.NewBinary(ast.LT, g.NewVariable("i"), g.NewLiteral(ast.Int(4)))
	loop := g.Add(&ast.While{cond, g.NewBlock(increment(g, "i")), 0})
	function(g, "f", nil, i, loop)
	//
	cfg := check_Build(t, g, g.Node(ast.FindFunction(g, "f")).(*ast.Function).Body)
	// entry, header, body, exit
	assert.Equal(t, 4, len(cfg.Blocks()))
	assert.Equal(t, []Edge{{0, 1, UNCONDITIONAL}, {1, 2, TRUE_BRANCH}, {2, 1, LOOP_BACK}, {1, 3, FALSE_BRANCH}},
		cfg.Edges())
	assert.Equal(t, loop, cfg.Blocks()[1].Branch())
	assert.Equal(t, READ_WRITE, cfg.Blocks()[2].Access(i))
	assert.Equal(t, READ, cfg.Blocks()[1].Access(i))
}

func Test_Build_04(t *testing.T) {
	// Statements following a return are unreachable
	g := ast.NewGraph()
	ret := g.Add(&ast.Return{g.NewLiteral(ast.Int(1))})
	dead := g.NewVarDecl("d", INT, g.NewLiteral(ast.Int(2)))
	function(g, "f", nil, ret, dead)
	//
	cfg := check_Build(t, g, g.Node(ast.FindFunction(g, "f")).(*ast.Function).Body)
	//
	assert.Equal(t, 1, len(cfg.Blocks()))
	assert.Equal(t, []ast.Id{ret}, cfg.Entry().Statements())
	assert.Equal(t, 0, len(cfg.Writes()))
}

func Test_Lower_01(t *testing.T) {
	// var r = 0; if (x > 0) { r = x + y; } else { r = x - y; } return r;
	for _, x := range []int64{5, -5, 0} {
		g := ast.NewGraph()
		r := g.NewVarDecl("r", INT, g.NewLiteral(ast.Int(0)))
		cond := g.NewBinary(ast.GT, g.NewVariable("x"), g.NewLiteral(ast.Int(0)))
		then := g.NewBlock(g.NewAssign("r", g.NewBinary(ast.ADD, g.NewVariable("x"), g.NewVariable("y"))))
		otherwise := g.NewBlock(g.NewAssign("r", g.NewBinary(ast.SUB, g.NewVariable("x"), g.NewVariable("y"))))
		ifs := g.Add(&ast.If{cond, then, otherwise})
		function(g, "f", []ast.Id{param(g, "x", true), param(g, "y", false)}, r, ifs,
			g.Add(&ast.Return{g.NewVariable("r")}))
		//
		check_Lower(t, g, Config{}, 1)
		//
		expected := x - 3
		if x > 0 {
			expected = x + 3
		}
		//
		check_Eval(t, g, expected, x, 3)
	}
}

func Test_Lower_02(t *testing.T) {
	// Terminal form: if (x > 0) { return x + y; } else { return x - y; }
	for _, x := range []int64{5, -5} {
		g := ast.NewGraph()
		cond := g.NewBinary(ast.GT, g.NewVariable("x"), g.NewLiteral(ast.Int(0)))
		then := g.NewBlock(g.Add(&ast.Return{g.NewBinary(ast.ADD, g.NewVariable("x"), g.NewVariable("y"))}))
		otherwise := g.NewBlock(g.Add(&ast.Return{g.NewBinary(ast.SUB, g.NewVariable("x"), g.NewVariable("y"))}))
		function(g, "f", []ast.Id{param(g, "x", true), param(g, "y", false)}, g.Add(&ast.If{cond, then, otherwise}))
		//
		check_Lower(t, g, Config{}, 1)
		//
		if x > 0 {
			check_Eval(t, g, 8, x, 3)
		} else {
			check_Eval(t, g, -8, x, 3)
		}
	}
}

func Test_Lower_03(t *testing.T) {
	// Nested: if (x > 0) { if (x > 10) { r = 2; } else { r = 1; } }
	for x, expected := range map[int64]int64{20: 2, 5: 1, -1: 0} {
		g := ast.NewGraph()
		r := g.NewVarDecl("r", INT, g.NewLiteral(ast.Int(0)))
		inner := g.Add(&ast.If{g.NewBinary(ast.GT, g.NewVariable("x"), g.NewLiteral(ast.Int(10))),
			g.NewBlock(g.NewAssign("r", g.NewLiteral(ast.Int(2)))),
			g.NewBlock(g.NewAssign("r", g.NewLiteral(ast.Int(1))))})
		outer := g.Add(&ast.If{g.NewBinary(ast.GT, g.NewVariable("x"), g.NewLiteral(ast.Int(0))),
			g.NewBlock(inner), ast.NIL})
		function(g, "f", []ast.Id{param(g, "x", true), param(g, "y", false)}, r, outer,
			g.Add(&ast.Return{g.NewVariable("r")}))
		//
		check_Lower(t, g, Config{}, 2)
		check_Eval(t, g, expected, x, 0)
	}
}

func Test_Lower_04(t *testing.T) {
	// var s = 0; var i = 0; while (i < x) { s = s + 2; i = i + 1; }
	for x, expected := range map[int64]int64{0: 0, 3: 6, 4: 8, 10: 8} {
		g := buildWhile(4)
		check_Lower(t, g, Config{}, 1+4)
		check_Eval(t, g, expected, x, 0)
	}
}

func Test_Lower_05(t *testing.T) {
	// Loop bound taken from configuration
	g := buildWhile(0)
	check_Lower(t, g, Config{LoopBound: 2}, 1+2)
	check_Eval(t, g, 4, 3, 0)
	// No bound at all
	_, err := lower(buildWhile(0), Config{})
	assert.True(t, errors.Is(err, ast.ErrLoopBoundExceeded))
}

func Test_Lower_06(t *testing.T) {
	// for (i = 0; i < 3 && i < x; i = i + 1) { s = s + 1; } with bound 3 is fine
	g := buildFor(3, 3)
	check_Lower(t, g, Config{}, 1+3)
	check_Eval(t, g, 3, 100, 0)
	check_Eval(t, g, 1, 1, 0)
	// but bound 2 is exceeded by the public trip count
	_, err := lower(buildFor(3, 2), Config{})
	assert.True(t, errors.Is(err, ast.ErrLoopBoundExceeded))
}

func Test_Lower_07(t *testing.T) {
	// A bound of n admits n iterations, but not n+1
	for n := uint(1); n <= 5; n++ {
		g := buildFor(n, n)
		check_Lower(t, g, Config{}, 1+n)
		check_Eval(t, g, int64(n), 100, 0)
		check_Eval(t, g, 1, 1, 0)
		check_Eval(t, g, 0, -1, 0)
		//
		_, err := lower(buildFor(n+1, n), Config{})
		assert.True(t, errors.Is(err, ast.ErrLoopBoundExceeded), n)
	}
}

func Test_Lower_08(t *testing.T) {
	// var r = 0; if (x > 0) { r = x + y; } return r;
	for x, expected := range map[int64]int64{5: 8, -5: 0, 0: 0} {
		g := ast.NewGraph()
		r := g.NewVarDecl("r", INT, g.NewLiteral(ast.Int(0)))
		cond := g.NewBinary(ast.GT, g.NewVariable("x"), g.NewLiteral(ast.Int(0)))
		then := g.NewBlock(g.NewAssign("r", g.NewBinary(ast.ADD, g.NewVariable("x"), g.NewVariable("y"))))
		ifs := g.Add(&ast.If{cond, then, ast.NIL})
		function(g, "f", []ast.Id{param(g, "x", true), param(g, "y", false)}, r, ifs,
			g.Add(&ast.Return{g.NewVariable("r")}))
		//
		check_Lower(t, g, Config{}, 1)
		check_Eval(t, g, expected, x, 3)
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

var INT = ast.Scalar(ast.INT, false)

func param(g *ast.Graph, name string, secret bool) ast.Id {
	return g.Add(&ast.Param{name, ast.Scalar(ast.INT, secret)})
}

func function(g *ast.Graph, name string, params []ast.Id, stmts ...ast.Id) ast.Id {
	fn := g.Add(&ast.Function{name, params, INT, g.NewBlock(stmts...)})
	g.SetRoot(g.NewBlock(fn))
	//
	return fn
}

func increment(g *ast.Graph, name string) ast.Id {
	return g.NewAssign(name, g.NewBinary(ast.ADD, g.NewVariable(name), g.NewLiteral(ast.Int(1))))
}

func buildConditional(withElse bool) (*ast.Graph, ast.Id, ast.Id) {
	g := ast.NewGraph()
	x := param(g, "x", true)
	r := g.NewVarDecl("r", INT, g.NewLiteral(ast.Int(0)))
	cond := g.NewBinary(ast.GT, g.NewVariable("x"), g.NewLiteral(ast.Int(0)))
	then := g.NewBlock(g.NewAssign("r", g.NewLiteral(ast.Int(1))))
	otherwise := ast.NIL
	//
	if withElse {
		otherwise = g.NewBlock(g.NewAssign("r", g.NewLiteral(ast.Int(2))))
	}
	//
	ifs := g.Add(&ast.If{cond, then, otherwise})
	function(g, "f", []ast.Id{x}, r, ifs)
	//
	return g, ifs, r
}

func buildWhile(bound uint) *ast.Graph {
	g := ast.NewGraph()
	s := g.NewVarDecl("s", INT, g.NewLiteral(ast.Int(0)))
	i := g.NewVarDecl("i", INT, g.NewLiteral(ast.Int(0)))
	cond := g.NewBinary(ast.LT, g.NewVariable("i"), g.NewVariable("x"))
	body := g.NewBlock(
		g.NewAssign("s", g.NewBinary(ast.ADD, g.NewVariable("s"), g.NewLiteral(ast.Int(2)))),
		increment(g, "i"))
	loop := g.Add(&ast.While{cond, body, bound})
	function(g, "f", []ast.Id{param(g, "x", true), param(g, "y", false)}, s, i, loop,
		g.Add(&ast.Return{g.NewVariable("s")}))
	//
	return g
}

// Construct a loop with a given public trip count, and a given bound.
func buildFor(trips uint, bound uint) *ast.Graph {
	g := ast.NewGraph()
	s := g.NewVarDecl("s", INT, g.NewLiteral(ast.Int(0)))
	init := g.NewVarDecl("i", INT, g.NewLiteral(ast.Int(0)))
	cond := g.NewBinary(ast.AND,
		g.NewBinary(ast.LT, g.NewVariable("i"), g.NewLiteral(ast.Int(int64(trips)))),
		g.NewBinary(ast.LT, g.NewVariable("i"), g.NewVariable("x")))
	body := g.NewBlock(g.NewAssign("s", g.NewBinary(ast.ADD, g.NewVariable("s"), g.NewLiteral(ast.Int(1)))))
	loop := g.Add(&ast.For{init, cond, increment(g, "i"), body, bound})
	function(g, "f", []ast.Id{param(g, "x", true), param(g, "y", false)}, s, loop,
		g.Add(&ast.Return{g.NewVariable("s")}))
	//
	return g
}

func check_Build(t *testing.T, g *ast.Graph, stmt ast.Id) *Graph {
	scopes, err := scope.Resolve(g)
	if err != nil {
		t.Fatal(err)
	}
	//
	cfg, err := Build(g, scopes, stmt)
	if err != nil {
		t.Fatal(err)
	}
	//
	return cfg
}

func lower(g *ast.Graph, config Config) (uint, error) {
	scopes, err := scope.Resolve(g)
	if err != nil {
		return 0, err
	}
	//
	labels, err := taint.Analyse(g, scopes, nil)
	if err != nil {
		return 0, err
	}
	//
	return Lower(g, labels, config)
}

func check_Lower(t *testing.T, g *ast.Graph, config Config, expected uint) {
	n, err := lower(g, config)
	if err != nil {
		t.Fatal(err)
	}
	//
	assert.Equal(t, expected, n)
	// No control flow remains, and the graph is consistent.
	ast.Walk(g, g.Root(), ast.VisitorFunc(func(g *ast.Graph, id ast.Id) bool {
		if ast.IsControl(g.Node(id)) {
			t.Fatalf("control flow remains at #%d", id)
		}
		//
		return true
	}))
	//
	assert.True(t, g.Validate() == nil)
	_, err = scope.Resolve(g)
	assert.True(t, err == nil)
}

// Evaluate function "f" on public integers using a simple interpreter.
func check_Eval(t *testing.T, g *ast.Graph, expected int64, x int64, y int64) {
	var (
		fn     = g.Node(ast.FindFunction(g, "f")).(*ast.Function)
		interp = interpreter{g, []map[string]ast.Constant{{"x": ast.Int(x), "y": ast.Int(y)}}}
	)
	//
	result, ok := interp.stmt(t, fn.Body)
	//
	if !ok {
		t.Fatalf("function did not return")
	}
	//
	assert.Equal(t, expected, result.AsInt())
}

type interpreter struct {
	graph  *ast.Graph
	frames []map[string]ast.Constant
}

func (p *interpreter) lookup(name string) *ast.Constant {
	for i := len(p.frames) - 1; i >= 0; i-- {
		if _, ok := p.frames[i][name]; ok {
			v := p.frames[i][name]
			return &v
		}
	}
	//
	return nil
}

func (p *interpreter) assign(name string, value ast.Constant) {
	for i := len(p.frames) - 1; i >= 0; i-- {
		if _, ok := p.frames[i][name]; ok {
			p.frames[i][name] = value
			return
		}
	}
}

func (p *interpreter) stmt(t *testing.T, id ast.Id) (ast.Constant, bool) {
	switch n := p.graph.Node(id).(type) {
	case *ast.Block:
		p.frames = append(p.frames, make(map[string]ast.Constant))
		defer func() { p.frames = p.frames[:len(p.frames)-1] }()
		//
		for _, s := range n.Statements {
			if v, ok := p.stmt(t, s); ok {
				return v, true
			}
		}
	case *ast.VarDecl:
		v := ast.Neutral(n.Type.Kind)
		//
		if n.Init != ast.NIL {
			v = p.expr(t, n.Init)
		}
		//
		p.frames[len(p.frames)-1][n.Name] = v
	case *ast.Assign:
		p.assign(p.graph.Node(n.Target).(*ast.Variable).Name, p.expr(t, n.Value))
	case *ast.Return:
		return p.expr(t, n.Value), true
	default:
		t.Fatalf("unexpected statement %s", ast.KindName(n))
	}
	//
	return ast.Constant{}, false
}

func (p *interpreter) expr(t *testing.T, id ast.Id) ast.Constant {
	var (
		result ast.Constant
		err    error
	)
	//
	switch n := p.graph.Node(id).(type) {
	case *ast.Literal:
		return n.Value
	case *ast.Variable:
		v := p.lookup(n.Name)
		if v == nil {
			t.Fatalf("unknown variable %s", n.Name)
		}
		//
		return *v
	case *ast.BinaryExpr:
		result, err = ast.Apply(n.Op, p.expr(t, n.Lhs), p.expr(t, n.Rhs))
	case *ast.UnaryExpr:
		result, err = ast.ApplyUnary(n.Op, p.expr(t, n.Operand))
	default:
		t.Fatalf("unexpected expression %s", ast.KindName(n))
	}
	//
	if err != nil {
		t.Fatal(err)
	}
	//
	return result
}
