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
	"fmt"
	"strings"

	"github.com/consensys/go-hecc/pkg/util/matrix"
)

// Kind identifies the underlying category of a value.
type Kind uint8

const (
	// VOID is the kind of functions which produce no value.
	VOID Kind = iota
	// BOOL is the kind of boolean values.
	BOOL
	// INT is the kind of (signed) integer values.
	INT
	// FLOAT is the kind of floating-point values.
	FLOAT
	// STRING is the kind of string values.
	STRING
)

var kindNames = []string{"void", "bool", "int", "float", "string"}

func (k Kind) String() string {
	return kindNames[k]
}

// ParseKind parses the name of a value kind.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	//
	return VOID, false
}

// Datatype describes the type of a declared variable, parameter or function
// result.  A datatype has an underlying kind, an indication of whether values
// are encrypted, and (for matrices) a number of rows and columns.  Scalars
// have zero rows and columns, whilst matrix.Unknown marks a dimension resolved
// only at runtime.
type Datatype struct {
	Kind   Kind
	Secret bool
	Rows   uint
	Cols   uint
}

// Scalar constructs a scalar datatype of the given kind.
func Scalar(kind Kind, secret bool) Datatype {
	return Datatype{kind, secret, 0, 0}
}

// IsMatrix determines whether this type describes a matrix (or vector).
func (p Datatype) IsMatrix() bool {
	return p.Rows != 0 || p.Cols != 0
}

// IsNumeric determines whether values of this type support arithmetic.
func (p Datatype) IsNumeric() bool {
	return p.Kind == BOOL || p.Kind == INT || p.Kind == FLOAT
}

// Public returns this datatype with its secret marker cleared.
func (p Datatype) Public() Datatype {
	p.Secret = false
	return p
}

// Neutral returns the neutral value of this type (i.e. zero, false or the
// empty string).  For matrix types of known dimension, this is a matrix of
// neutral values.
func (p Datatype) Neutral() Node {
	if !p.IsMatrix() {
		return &Literal{Neutral(p.Kind)}
	}
	//
	var m matrix.Matrix[Constant]
	//
	if p.Rows == matrix.Unknown || p.Cols == matrix.Unknown {
		m = matrix.NewUnknown[Constant]()
	} else {
		m = matrix.New[Constant](p.Rows, p.Cols)
		//
		for i := range p.Rows {
			for j := range p.Cols {
				m.Set(i, j, Neutral(p.Kind))
			}
		}
	}
	//
	return &LiteralMatrix{m}
}

func (p Datatype) String() string {
	var builder strings.Builder
	//
	if p.Secret {
		builder.WriteString("secret ")
	}
	//
	builder.WriteString(p.Kind.String())
	//
	if p.IsMatrix() {
		builder.WriteString(fmt.Sprintf("[%s][%s]", dimString(p.Rows), dimString(p.Cols)))
	}
	//
	return builder.String()
}

func dimString(d uint) string {
	if d == matrix.Unknown {
		return "?"
	}
	//
	return fmt.Sprintf("%d", d)
}
