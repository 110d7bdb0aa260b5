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
	"fmt"
	"math"
	"strconv"
)

// Constant is a scalar value known at compile time.  Constants are also used
// by the runtime to represent public (i.e. unencrypted) scalar values.
type Constant struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
}

// Bool constructs a boolean constant.
func Bool(b bool) Constant {
	return Constant{kind: BOOL, b: b}
}

// Int constructs an integer constant.
func Int(i int64) Constant {
	return Constant{kind: INT, i: i}
}

// Float constructs a floating-point constant.
func Float(f float64) Constant {
	return Constant{kind: FLOAT, f: f}
}

// String constructs a string constant.
func String(s string) Constant {
	return Constant{kind: STRING, s: s}
}

// Neutral returns the neutral constant of a given kind.
func Neutral(kind Kind) Constant {
	switch kind {
	case BOOL:
		return Bool(false)
	case FLOAT:
		return Float(0)
	case STRING:
		return String("")
	default:
		return Int(0)
	}
}

// ParseConstant parses the textual representation of a constant, as used in
// source files and dumps.  Strings are enclosed in single quotes.
func ParseConstant(text string) (Constant, bool) {
	if text == "true" || text == "false" {
		return Bool(text == "true"), true
	} else if len(text) >= 2 && text[0] == '\'' && text[len(text)-1] == '\'' {
		return String(text[1 : len(text)-1]), true
	} else if i, err := strconv.ParseInt(text, 0, 64); err == nil {
		return Int(i), true
	} else if f, err := strconv.ParseFloat(text, 64); err == nil {
		return Float(f), true
	}
	//
	return Constant{}, false
}

// Kind returns the kind of this constant.
func (c Constant) Kind() Kind {
	return c.kind
}

// IsNumeric determines whether this constant participates in arithmetic.
// Booleans are treated as the integers 0 and 1.
func (c Constant) IsNumeric() bool {
	return c.kind == BOOL || c.kind == INT || c.kind == FLOAT
}

// AsBool returns the truthiness of this constant.
func (c Constant) AsBool() bool {
	switch c.kind {
	case BOOL:
		return c.b
	case INT:
		return c.i != 0
	case FLOAT:
		return c.f != 0
	case STRING:
		return c.s != ""
	default:
		return false
	}
}

// AsInt returns the integer value of this constant, truncating floats.
func (c Constant) AsInt() int64 {
	switch c.kind {
	case BOOL:
		if c.b {
			return 1
		}
		//
		return 0
	case INT:
		return c.i
	case FLOAT:
		return int64(c.f)
	default:
		return 0
	}
}

// AsFloat returns the value of this constant as a float.
func (c Constant) AsFloat() float64 {
	if c.kind == FLOAT {
		return c.f
	}
	//
	return float64(c.AsInt())
}

// AsString returns the string value of this constant.
func (c Constant) AsString() string {
	if c.kind == STRING {
		return c.s
	}
	//
	return c.String()
}

// IsZero determines whether this constant is a numeric zero (or false).
func (c Constant) IsZero() bool {
	return c.IsNumeric() && c.AsFloat() == 0
}

// IsOne determines whether this constant is a numeric one (or true).
func (c Constant) IsOne() bool {
	return c.IsNumeric() && c.AsFloat() == 1
}

// Equal determines whether two constants have the same kind and value.
func (c Constant) Equal(o Constant) bool {
	return c == o
}

func (c Constant) String() string {
	switch c.kind {
	case BOOL:
		return strconv.FormatBool(c.b)
	case INT:
		return strconv.FormatInt(c.i, 10)
	case FLOAT:
		s := strconv.FormatFloat(c.f, 'g', -1, 64)
		// Ensure floats remain distinguishable from ints
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			s += ".0"
		}
		//
		return s
	case STRING:
		return fmt.Sprintf("'%s'", c.s)
	default:
		return "void"
	}
}

// ErrDivisionByZero is returned when a constant is divided by zero.
var ErrDivisionByZero = errors.New("division by zero")

// ApplyUnary applies a unary operator to a constant.
func ApplyUnary(op Op, c Constant) (Constant, error) {
	switch {
	case op == NOT:
		return Bool(!c.AsBool()), nil
	case op == NEG && c.kind == FLOAT:
		return Float(-c.f), nil
	case op == NEG && c.IsNumeric():
		return Int(-c.AsInt()), nil
	}
	//
	return Constant{}, fmt.Errorf("operator %s not applicable to %s", op, c.kind)
}

// Apply applies a binary operator to two constants.  Booleans are promoted to
// integers in arithmetic, and integers to floats when mixed with floats.
func Apply(op Op, lhs, rhs Constant) (Constant, error) {
	switch {
	case op.IsLogical():
		return applyLogical(op, lhs.AsBool(), rhs.AsBool()), nil
	case lhs.kind == STRING && rhs.kind == STRING:
		return applyString(op, lhs.s, rhs.s)
	case !lhs.IsNumeric() || !rhs.IsNumeric():
		return Constant{}, fmt.Errorf("operator %s not applicable to %s and %s", op, lhs.kind, rhs.kind)
	case lhs.kind == FLOAT || rhs.kind == FLOAT:
		return applyFloat(op, lhs.AsFloat(), rhs.AsFloat())
	default:
		return applyInt(op, lhs.AsInt(), rhs.AsInt())
	}
}

func applyLogical(op Op, lhs, rhs bool) Constant {
	switch op {
	case AND:
		return Bool(lhs && rhs)
	case OR:
		return Bool(lhs || rhs)
	default:
		return Bool(lhs != rhs)
	}
}

func applyString(op Op, lhs, rhs string) (Constant, error) {
	switch op {
	case ADD:
		return String(lhs + rhs), nil
	case EQ:
		return Bool(lhs == rhs), nil
	case NEQ:
		return Bool(lhs != rhs), nil
	case LT:
		return Bool(lhs < rhs), nil
	case LTEQ:
		return Bool(lhs <= rhs), nil
	case GT:
		return Bool(lhs > rhs), nil
	case GTEQ:
		return Bool(lhs >= rhs), nil
	default:
		return Constant{}, fmt.Errorf("operator %s not applicable to strings", op)
	}
}

func applyInt(op Op, lhs, rhs int64) (Constant, error) {
	switch op {
	case ADD:
		return Int(lhs + rhs), nil
	case SUB:
		return Int(lhs - rhs), nil
	case MUL:
		return Int(lhs * rhs), nil
	case DIV, MOD:
		if rhs == 0 {
			return Constant{}, ErrDivisionByZero
		} else if op == DIV {
			return Int(lhs / rhs), nil
		}
		//
		return Int(lhs % rhs), nil
	default:
		return compare(op, lhs, rhs), nil
	}
}

func applyFloat(op Op, lhs, rhs float64) (Constant, error) {
	switch op {
	case ADD:
		return Float(lhs + rhs), nil
	case SUB:
		return Float(lhs - rhs), nil
	case MUL:
		return Float(lhs * rhs), nil
	case DIV:
		if rhs == 0 {
			return Constant{}, ErrDivisionByZero
		}
		//
		return Float(lhs / rhs), nil
	case MOD:
		if rhs == 0 {
			return Constant{}, ErrDivisionByZero
		}
		//
		return Float(math.Mod(lhs, rhs)), nil
	default:
		return compare(op, lhs, rhs), nil
	}
}

func compare[T int64 | float64](op Op, lhs, rhs T) Constant {
	switch op {
	case LT:
		return Bool(lhs < rhs)
	case LTEQ:
		return Bool(lhs <= rhs)
	case GT:
		return Bool(lhs > rhs)
	case GTEQ:
		return Bool(lhs >= rhs)
	case EQ:
		return Bool(lhs == rhs)
	case NEQ:
		return Bool(lhs != rhs)
	default:
		panic(fmt.Sprintf("unknown operator %s", op))
	}
}
