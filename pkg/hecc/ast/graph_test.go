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
	"errors"
	"strings"
	"testing"

	"github.com/consensys/go-hecc/pkg/util/assert"
)

func Test_Graph_01(t *testing.T) {
	g := NewGraph()
	x := g.NewVariable("x")
	one := g.NewLiteral(Int(1))
	add := g.NewBinary(ADD, x, one)
	g.SetRoot(g.NewBlock(g.NewAssign("y", add)))
	//
	assert.Equal(t, add, g.Parent(x))
	assert.Equal(t, []Id{x, one}, g.Children(add))
	assert.True(t, g.Validate() == nil)
}

func Test_Graph_02(t *testing.T) {
	g := NewGraph()
	x := g.NewVariable("x")
	one := g.NewLiteral(Int(1))
	add := g.NewBinary(ADD, x, one)
	g.SetRoot(g.NewBlock(g.NewAssign("y", add)))
	// Replace x+1 with x
	assert.True(t, g.Replace(add, x) == nil)
	assert.Equal(t, NIL, g.Parent(add))
	assert.Equal(t, add, g.Parent(one))
	assert.True(t, g.Validate() == nil)
	assert.Equal(t, "(block (= y x))", Dump(g, g.Root()).String(false))
}

func Test_Graph_03(t *testing.T) {
	g := NewGraph()
	detached := g.NewVariable("x")
	other := g.NewVariable("y")
	g.SetRoot(g.NewBlock(g.NewAssign("z", g.NewLiteral(Int(0)))))
	//
	err := g.Replace(detached, other)
	//
	assert.True(t, errors.Is(err, ErrDanglingReference))
	assert.True(t, errors.Is(err, ErrStructural))
	assert.False(t, errors.Is(err, ErrUnboundVariable))
}

func Test_Graph_04(t *testing.T) {
	g := NewGraph()
	body := g.NewBlock(g.NewAssign("x", g.NewBinary(MUL, g.NewVariable("x"), g.NewLiteral(Int(2)))))
	g.SetRoot(g.NewBlock(body))
	//
	dup := g.Clone(body)
	//
	assert.True(t, dup != body)
	assert.Equal(t, NIL, g.Parent(dup))
	assert.Equal(t, body, g.Origin(dup))
	assert.Equal(t, Dump(g, body).String(false), Dump(g, dup).String(false))
	// Fresh identifiers throughout
	for _, id := range PostOrder(g, dup) {
		assert.False(t, g.IsAncestor(body, id))
		assert.True(t, g.IsAncestor(dup, id))
	}
}

func Test_Graph_05(t *testing.T) {
	g := NewGraph()
	x := g.NewVariable("x")
	lhs := g.NewBinary(ADD, x, g.NewLiteral(Int(1)))
	// Share x into a second expression
	rhs := g.NewBinary(MUL, g.Share(x), g.NewLiteral(Int(2)))
	g.SetRoot(g.NewBlock(g.NewAssign("a", lhs), g.NewAssign("b", rhs)))
	// Invariant is violated until reconciled
	assert.True(t, errors.Is(g.Validate(), ErrStructural))
	//
	g.Reconcile()
	//
	assert.True(t, g.Validate() == nil)
	assert.Equal(t, "(block (= a (+ x 1)) (= b (* x 2)))", Dump(g, g.Root()).String(false))
	assert.True(t, g.Node(rhs).(*BinaryExpr).Lhs != x)
}

func Test_Graph_06(t *testing.T) {
	g := NewGraph()
	s1 := g.NewAssign("a", g.NewLiteral(Int(1)))
	s2 := g.NewAssign("b", g.NewLiteral(Int(2)))
	block := g.NewBlock(s1, s2)
	g.SetRoot(block)
	// Expand s1 into two statements
	s3 := g.NewAssign("c", g.NewLiteral(Int(3)))
	assert.True(t, g.ReplaceWith(s1, s3, g.NewAssign("d", g.NewLiteral(Int(4)))) == nil)
	//
	assert.Equal(t, "(block (= c 3) (= d 4) (= b 2))", Dump(g, g.Root()).String(false))
	assert.True(t, g.Validate() == nil)
	// Detached statement cannot be expanded
	assert.True(t, errors.Is(g.ReplaceWith(s1), ErrDanglingReference))
}

func Test_Graph_07(t *testing.T) {
	g := NewGraph()
	cond := g.NewBinary(GT, g.NewVariable("x"), g.NewLiteral(Int(0)))
	ifs := g.Add(&If{cond, g.NewBlock(g.NewAssign("y", g.NewLiteral(Int(1)))), NIL})
	g.SetRoot(g.NewBlock(ifs))
	//
	fields := Fields(g, ifs)
	//
	assert.Equal(t, 3, len(fields))
	assert.Equal(t, "condition", fields[0].Name)
	assert.Equal(t, cond, fields[0].Child)
	assert.Equal(t, NIL, fields[2].Child)
	assert.Equal(t, ">", Fields(g, cond)[0].Literal)
}

func Test_Graph_08(t *testing.T) {
	g := NewGraph()
	param := g.Add(&Param{"x", Scalar(INT, true)})
	body := g.NewBlock(g.Add(&Return{g.NewVariable("x")}))
	fn := g.Add(&Function{"main", []Id{param}, Scalar(INT, true), body})
	g.SetRoot(g.NewBlock(fn))
	//
	text := Format(g, fn, 80)
	//
	assert.True(t, strings.Contains(text, "(defun main"), text)
	assert.Equal(t, "(defun main ((secret int x)) secret int (block (return x)))", Dump(g, fn).String(false))
	assert.Equal(t, fn, FindFunction(g, "main"))
	assert.Equal(t, fn, EnclosingFunction(g, g.Node(body).(*Block).Statements[0]))
}

func Test_Graph_09(t *testing.T) {
	g := NewGraph()
	x := g.NewVariable("x")
	g.Add(&UnaryExpr{NEG, x})
	// x is now owned, so cannot be owned again
	defer func() {
		assert.True(t, recover() != nil, "double ownership accepted")
	}()
	//
	g.Add(&UnaryExpr{NOT, x})
}

func Test_Graph_10(t *testing.T) {
	g := NewGraph()
	stmts := []Id{g.NewVariable("x"), g.NewVariable("y"), g.NewVariable("z")}
	block := g.NewBlock(stmts...)
	// Rewriting the block leaves the caller's statements untouched
	g.Detach(stmts[0])
	g.InsertStatements(block, 1, g.NewVariable("w"))
	//
	assert.Equal(t, 3, len(stmts))
	assert.Equal(t, "y", g.Node(stmts[1]).(*Variable).Name)
	assert.Equal(t, "(block y w z)", Dump(g, block).String(false))
	// Nor do changes to returned children affect the block
	children := g.Node(block).Children()
	children[0] = stmts[0]
	assert.Equal(t, "(block y w z)", Dump(g, block).String(false))
}

func Test_Graph_11(t *testing.T) {
	g := NewGraph()
	ifs := g.Add(&If{g.NewVariable("c"), g.NewBlock(), NIL})
	// Detaching an absent child does nothing
	g.Detach(NIL)
	g.Detach(g.Node(ifs).(*If).Else)
	//
	assert.Equal(t, NIL, g.Node(ifs).(*If).Else)
	assert.True(t, g.Node(ifs).(*If).Then != NIL)
}
