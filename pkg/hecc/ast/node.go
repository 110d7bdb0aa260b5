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
	"math"
	"slices"

	"github.com/consensys/go-hecc/pkg/util/matrix"
)

// Id identifies a node within the arena of a given graph.
type Id uint

// NIL marks an absent child (e.g. a missing else branch) or a missing parent.
const NIL = Id(math.MaxUint)

// Node is a single element of the program graph.  The set of node kinds is
// closed, and each pass dispatches over them with an exhaustive type switch.
// Nodes refer to their children by identifier only, and child slots must only
// be updated through the owning Graph so that parent links remain consistent.
type Node interface {
	// Children returns the child slots of this node in order.  Absent children
	// are reported as NIL.
	Children() []Id
	// Assign the ith child slot of this node.
	setChild(i int, child Id)
	// Construct a shallow copy of this node.
	clone() Node
}

// ============================================================================
// Expressions
// ============================================================================

// Literal is a scalar constant.
type Literal struct {
	Value Constant
}

// LiteralMatrix is a matrix whose elements are all constant.
type LiteralMatrix struct {
	Value matrix.Matrix[Constant]
}

// MatrixExpr is a matrix whose elements are arbitrary expressions.
type MatrixExpr struct {
	Elements matrix.Matrix[Id]
}

// Variable reads (or, as the target of an assignment, writes) a named
// variable.
type Variable struct {
	Name string
}

// UnaryExpr applies a unary operator to an operand.
type UnaryExpr struct {
	Op      Op
	Operand Id
}

// BinaryExpr applies a binary operator to two operands.
type BinaryExpr struct {
	Op  Op
	Lhs Id
	Rhs Id
}

// OperatorExpr applies an associative operator across two or more operands.
type OperatorExpr struct {
	Op       Op
	Operands []Id
}

// IndexAccess reads an element (or, when Column is NIL, a row) of a matrix.
type IndexAccess struct {
	Target Id
	Row    Id
	Column Id
}

// Rotate cyclically shifts the elements of a vector left by a given offset.
type Rotate struct {
	Operand Id
	Offset  Id
}

// Transpose transposes a matrix.
type Transpose struct {
	Operand Id
}

// MatrixSize returns the number of rows (dimension 0) or columns (dimension 1)
// of a matrix.
type MatrixSize struct {
	Operand   Id
	Dimension uint
}

// Call invokes a function defined within the program.
type Call struct {
	Name string
	Args []Id
}

// CallExternal invokes an opaque function supplied by the environment.
type CallExternal struct {
	Name string
	Args []Id
}

// ============================================================================
// Control
// ============================================================================

// If conditionally executes one of two blocks.  Else may be NIL.
type If struct {
	Condition Id
	Then      Id
	Else      Id
}

// For is a loop with an initialiser, condition and update.  Bound is the
// declared maximum number of iterations (zero if undeclared).
type For struct {
	Init      Id
	Condition Id
	Update    Id
	Body      Id
	Bound     uint
}

// While is a loop guarded by a condition.  Bound is the declared maximum
// number of iterations (zero if undeclared).
type While struct {
	Condition Id
	Body      Id
	Bound     uint
}

// ============================================================================
// Declarations & Statements
// ============================================================================

// VarDecl declares a variable with an optional initialiser.
type VarDecl struct {
	Name string
	Type Datatype
	Init Id
}

// Function declares a function with zero or more parameters.
type Function struct {
	Name   string
	Params []Id
	Result Datatype
	Body   Id
}

// Param declares a function parameter.
type Param struct {
	Name string
	Type Datatype
}

// Block is a sequence of statements executed in order, which also delimits a
// scope.
type Block struct {
	Statements []Id
}

// Assign writes a value to a variable or matrix element.
type Assign struct {
	Target Id
	Value  Id
}

// Return returns from the enclosing function, with an optional value.
type Return struct {
	Value Id
}

// ============================================================================
// Children
// ============================================================================

// Children implementation for Node interface.
func (p *Literal) Children() []Id { return nil }

// Children implementation for Node interface.
func (p *LiteralMatrix) Children() []Id { return nil }

// Children implementation for Node interface.
func (p *MatrixExpr) Children() []Id { return p.Elements.Values() }

// Children implementation for Node interface.
func (p *Variable) Children() []Id { return nil }

// Children implementation for Node interface.
func (p *UnaryExpr) Children() []Id { return []Id{p.Operand} }

// Children implementation for Node interface.
func (p *BinaryExpr) Children() []Id { return []Id{p.Lhs, p.Rhs} }

// Children implementation for Node interface.
func (p *OperatorExpr) Children() []Id { return p.Operands }

// Children implementation for Node interface.
func (p *IndexAccess) Children() []Id { return []Id{p.Target, p.Row, p.Column} }

// Children implementation for Node interface.
func (p *Rotate) Children() []Id { return []Id{p.Operand, p.Offset} }

// Children implementation for Node interface.
func (p *Transpose) Children() []Id { return []Id{p.Operand} }

// Children implementation for Node interface.
func (p *MatrixSize) Children() []Id { return []Id{p.Operand} }

// Children implementation for Node interface.
func (p *Call) Children() []Id { return p.Args }

// Children implementation for Node interface.
func (p *CallExternal) Children() []Id { return p.Args }

// Children implementation for Node interface.
func (p *If) Children() []Id { return []Id{p.Condition, p.Then, p.Else} }

// Children implementation for Node interface.
func (p *For) Children() []Id { return []Id{p.Init, p.Condition, p.Update, p.Body} }

// Children implementation for Node interface.
func (p *While) Children() []Id { return []Id{p.Condition, p.Body} }

// Children implementation for Node interface.
func (p *VarDecl) Children() []Id { return []Id{p.Init} }

// Children implementation for Node interface.
func (p *Function) Children() []Id { return append(slices.Clone(p.Params), p.Body) }

// Children implementation for Node interface.
func (p *Param) Children() []Id { return nil }

// Children implementation for Node interface.
func (p *Block) Children() []Id { return slices.Clone(p.Statements) }

// Children implementation for Node interface.
func (p *Assign) Children() []Id { return []Id{p.Target, p.Value} }

// Children implementation for Node interface.
func (p *Return) Children() []Id { return []Id{p.Value} }

// ============================================================================
// Child assignment
// ============================================================================

func (p *Literal) setChild(int, Id)       { panic("literal has no children") }
func (p *LiteralMatrix) setChild(int, Id) { panic("literal matrix has no children") }
func (p *Variable) setChild(int, Id)      { panic("variable has no children") }
func (p *Param) setChild(int, Id)         { panic("parameter has no children") }

func (p *MatrixExpr) setChild(i int, child Id) {
	cols := p.Elements.Cols()
	p.Elements.Set(uint(i)/cols, uint(i)%cols, child)
}

func (p *UnaryExpr) setChild(_ int, child Id) { p.Operand = child }

func (p *BinaryExpr) setChild(i int, child Id) {
	if i == 0 {
		p.Lhs = child
	} else {
		p.Rhs = child
	}
}

func (p *OperatorExpr) setChild(i int, child Id) { p.Operands[i] = child }

func (p *IndexAccess) setChild(i int, child Id) {
	switch i {
	case 0:
		p.Target = child
	case 1:
		p.Row = child
	default:
		p.Column = child
	}
}

func (p *Rotate) setChild(i int, child Id) {
	if i == 0 {
		p.Operand = child
	} else {
		p.Offset = child
	}
}

func (p *Transpose) setChild(_ int, child Id)    { p.Operand = child }
func (p *MatrixSize) setChild(_ int, child Id)   { p.Operand = child }
func (p *Call) setChild(i int, child Id)         { p.Args[i] = child }
func (p *CallExternal) setChild(i int, child Id) { p.Args[i] = child }

func (p *If) setChild(i int, child Id) {
	switch i {
	case 0:
		p.Condition = child
	case 1:
		p.Then = child
	default:
		p.Else = child
	}
}

func (p *For) setChild(i int, child Id) {
	switch i {
	case 0:
		p.Init = child
	case 1:
		p.Condition = child
	case 2:
		p.Update = child
	default:
		p.Body = child
	}
}

func (p *While) setChild(i int, child Id) {
	if i == 0 {
		p.Condition = child
	} else {
		p.Body = child
	}
}

func (p *VarDecl) setChild(_ int, child Id) { p.Init = child }

func (p *Function) setChild(i int, child Id) {
	if i < len(p.Params) {
		p.Params[i] = child
	} else {
		p.Body = child
	}
}

func (p *Block) setChild(i int, child Id) { p.Statements[i] = child }

func (p *Assign) setChild(i int, child Id) {
	if i == 0 {
		p.Target = child
	} else {
		p.Value = child
	}
}

func (p *Return) setChild(_ int, child Id) { p.Value = child }

// ============================================================================
// Cloning
// ============================================================================

func (p *Literal) clone() Node { return &Literal{p.Value} }

func (p *LiteralMatrix) clone() Node {
	return &LiteralMatrix{matrix.Map(p.Value, func(c Constant) Constant { return c })}
}

func (p *MatrixExpr) clone() Node {
	return &MatrixExpr{matrix.Map(p.Elements, func(id Id) Id { return id })}
}

func (p *Variable) clone() Node     { return &Variable{p.Name} }
func (p *UnaryExpr) clone() Node    { return &UnaryExpr{p.Op, p.Operand} }
func (p *BinaryExpr) clone() Node   { return &BinaryExpr{p.Op, p.Lhs, p.Rhs} }
func (p *OperatorExpr) clone() Node { return &OperatorExpr{p.Op, slices.Clone(p.Operands)} }
func (p *IndexAccess) clone() Node  { return &IndexAccess{p.Target, p.Row, p.Column} }
func (p *Rotate) clone() Node       { return &Rotate{p.Operand, p.Offset} }
func (p *Transpose) clone() Node    { return &Transpose{p.Operand} }
func (p *MatrixSize) clone() Node   { return &MatrixSize{p.Operand, p.Dimension} }
func (p *Call) clone() Node         { return &Call{p.Name, slices.Clone(p.Args)} }
func (p *CallExternal) clone() Node { return &CallExternal{p.Name, slices.Clone(p.Args)} }
func (p *If) clone() Node           { return &If{p.Condition, p.Then, p.Else} }
func (p *For) clone() Node          { return &For{p.Init, p.Condition, p.Update, p.Body, p.Bound} }
func (p *While) clone() Node        { return &While{p.Condition, p.Body, p.Bound} }
func (p *VarDecl) clone() Node      { return &VarDecl{p.Name, p.Type, p.Init} }
func (p *Param) clone() Node        { return &Param{p.Name, p.Type} }
func (p *Block) clone() Node        { return &Block{slices.Clone(p.Statements)} }
func (p *Assign) clone() Node       { return &Assign{p.Target, p.Value} }
func (p *Return) clone() Node       { return &Return{p.Value} }

func (p *Function) clone() Node {
	return &Function{p.Name, slices.Clone(p.Params), p.Result, p.Body}
}

// IsExpr determines whether a given node produces a value.
func IsExpr(n Node) bool {
	switch n.(type) {
	case *Literal, *LiteralMatrix, *MatrixExpr, *Variable, *UnaryExpr, *BinaryExpr, *OperatorExpr,
		*IndexAccess, *Rotate, *Transpose, *MatrixSize, *Call, *CallExternal:
		return true
	default:
		return false
	}
}

// IsControl determines whether a given node is a conditional or a loop.
func IsControl(n Node) bool {
	switch n.(type) {
	case *If, *For, *While:
		return true
	default:
		return false
	}
}
