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

import "slices"

// NewLiteral allocates a scalar literal.
func (g *Graph) NewLiteral(c Constant) Id {
	return g.Add(&Literal{c})
}

// NewVariable allocates a variable access.
func (g *Graph) NewVariable(name string) Id {
	return g.Add(&Variable{name})
}

// NewUnary allocates a unary expression.
func (g *Graph) NewUnary(op Op, operand Id) Id {
	return g.Add(&UnaryExpr{op, operand})
}

// NewBinary allocates a binary expression.
func (g *Graph) NewBinary(op Op, lhs Id, rhs Id) Id {
	return g.Add(&BinaryExpr{op, lhs, rhs})
}

// NewVarDecl allocates a variable declaration.
func (g *Graph) NewVarDecl(name string, datatype Datatype, init Id) Id {
	return g.Add(&VarDecl{name, datatype, init})
}

// NewAssign allocates an assignment to a named variable.
func (g *Graph) NewAssign(name string, value Id) Id {
	return g.Add(&Assign{g.NewVariable(name), value})
}

// NewBlock allocates a block of statements.  The block takes a copy of the
// given statements.
func (g *Graph) NewBlock(stmts ...Id) Id {
	return g.Add(&Block{slices.Clone(stmts)})
}

// NewSelect allocates the arithmetic select "c*t + (1-c)*e", where c is the
// name of a variable holding 0 or 1.
func (g *Graph) NewSelect(cond string, then Id, otherwise Id) Id {
	var (
		taken    = g.NewBinary(MUL, g.NewVariable(cond), then)
		inverse  = g.NewBinary(SUB, g.NewLiteral(Int(1)), g.NewVariable(cond))
		notTaken = g.NewBinary(MUL, inverse, otherwise)
	)
	//
	return g.NewBinary(ADD, taken, notTaken)
}
