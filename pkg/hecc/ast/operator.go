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

import "fmt"

// Op identifies an arithmetic, logical or relational operator.
type Op uint8

const (
	// ADD is addition (or string concatenation).
	ADD Op = iota
	// SUB is subtraction.
	SUB
	// MUL is multiplication.
	MUL
	// DIV is division.
	DIV
	// MOD is the remainder of integer division.
	MOD
	// LT is less than.
	LT
	// LTEQ is less than or equal.
	LTEQ
	// GT is greater than.
	GT
	// GTEQ is greater than or equal.
	GTEQ
	// EQ is equality.
	EQ
	// NEQ is inequality.
	NEQ
	// AND is logical conjunction.
	AND
	// OR is logical disjunction.
	OR
	// XOR is logical exclusive-or.
	XOR
	// NEG is arithmetic negation (unary).
	NEG
	// NOT is logical negation (unary).
	NOT
)

var opSymbols = []string{"+", "-", "*", "/", "%", "<", "<=", ">", ">=", "==", "!=", "&&", "||", "^", "-", "!"}

func (op Op) String() string {
	if int(op) < len(opSymbols) {
		return opSymbols[op]
	}
	//
	return fmt.Sprintf("op(%d)", op)
}

// IsArithmetic determines whether this is one of the arithmetic operators.
func (op Op) IsArithmetic() bool {
	return op <= MOD
}

// IsComparison determines whether this is one of the relational operators.
func (op Op) IsComparison() bool {
	return op >= LT && op <= NEQ
}

// IsLogical determines whether this is one of the logical operators.
func (op Op) IsLogical() bool {
	return op == AND || op == OR || op == XOR || op == NOT
}

// IsUnary determines whether this is a unary operator.
func (op Op) IsUnary() bool {
	return op == NEG || op == NOT
}

// IsAssociative determines whether operands of this operator can be freely
// regrouped, which is a prerequisite for n-ary operator expressions.
func (op Op) IsAssociative() bool {
	switch op {
	case ADD, MUL, AND, OR, XOR:
		return true
	default:
		return false
	}
}

// BinaryOp parses the symbol of a binary operator.
func BinaryOp(symbol string) (Op, bool) {
	for i, s := range opSymbols[:NEG] {
		if s == symbol {
			return Op(i), true
		}
	}
	//
	return 0, false
}

// UnaryOp parses the symbol of a unary operator.
func UnaryOp(symbol string) (Op, bool) {
	switch symbol {
	case "-":
		return NEG, true
	case "!":
		return NOT, true
	default:
		return 0, false
	}
}
