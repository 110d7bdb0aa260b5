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
package simplify

import (
	"errors"
	"math"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/taint"
	"github.com/consensys/go-hecc/pkg/util/matrix"
	log "github.com/sirupsen/logrus"
)

// Simplify performs constant folding and algebraic simplification over an
// entire program, returning the number of rewrites applied.  Labels are used
// to prevent simplifications which would discard secret operands (e.g. x*0),
// and are assumed to be up to date.  Any node without a label is treated as
// secret.  Folding a statically-invalid matrix access fails with an index out
// of bounds error.  Passes are repeated until one makes no further rewrites,
// hence simplification is idempotent.
func Simplify(g *ast.Graph, labels *taint.Result) (uint, error) {
	var (
		s      = simplifier{g, labels, g.Len(), 0}
		passes = 0
	)
	//
	for last := uint(math.MaxUint); s.rewrites != last; passes++ {
		last = s.rewrites
		//
		if _, err := s.node(g.Root()); err != nil {
			return s.rewrites, err
		}
	}
	//
	log.Debugf("applied %d simplifications in %d passes", s.rewrites, passes)
	//
	return s.rewrites, nil
}

type simplifier struct {
	graph  *ast.Graph
	labels *taint.Result
	// Nodes allocated by this pass (i.e. from here onwards) have no label.
	labelled uint
	rewrites uint
}

// Simplify a node and its descendents, returning the node which now occupies
// its position.
func (s *simplifier) node(id ast.Id) (ast.Id, error) {
	var g = s.graph
	// Children first
	for _, c := range g.Node(id).Children() {
		if c != ast.NIL {
			if _, err := s.node(c); err != nil {
				return id, err
			}
		}
	}
	//
	var (
		replacement = ast.NIL
		err         error
	)
	//
	switch n := g.Node(id).(type) {
	case *ast.UnaryExpr:
		replacement, err = s.unary(id, n)
	case *ast.BinaryExpr:
		replacement, err = s.binary(id, n.Op, n.Lhs, n.Rhs)
	case *ast.OperatorExpr:
		replacement, err = s.operator(id, n)
	case *ast.MatrixExpr:
		replacement = s.matrix(n)
	case *ast.IndexAccess:
		replacement, err = s.index(id, n)
	case *ast.Transpose:
		replacement = s.transpose(n)
	case *ast.Rotate:
		replacement = s.rotate(n)
	case *ast.MatrixSize:
		if m, ok := g.Node(n.Operand).(*ast.LiteralMatrix); ok && !m.Value.IsUnknown() {
			replacement = s.constant(ast.Int(int64(dimension(m.Value, n.Dimension))))
		}
	case *ast.If:
		replacement = s.conditional(n)
	case *ast.While:
		if c, ok := s.literal(n.Condition); ok && !c.AsBool() {
			replacement = g.NewBlock()
		}
	}
	//
	if err != nil || replacement == ast.NIL || replacement == id {
		return id, err
	}
	//
	s.rewrites++
	g.SetOrigin(replacement, g.Origin(id))
	//
	return replacement, g.Replace(id, replacement)
}

func (s *simplifier) unary(id ast.Id, n *ast.UnaryExpr) (ast.Id, error) {
	var g = s.graph
	//
	switch operand := g.Node(n.Operand).(type) {
	case *ast.Literal:
		c, err := ast.ApplyUnary(n.Op, operand.Value)
		if err != nil {
			return ast.NIL, ast.NewError(ast.TypeMismatch, id, "%s", err.Error())
		}
		//
		return s.constant(c), nil
	case *ast.LiteralMatrix:
		m, err := matrix.MapErr(operand.Value, func(c ast.Constant) (ast.Constant, error) {
			return ast.ApplyUnary(n.Op, c)
		})
		//
		if err != nil {
			return ast.NIL, ast.NewError(ast.TypeMismatch, id, "%s", err.Error())
		}
		//
		return g.Add(&ast.LiteralMatrix{m}), nil
	case *ast.UnaryExpr:
		// Double negation
		if operand.Op == n.Op && (n.Op == ast.NEG || s.isBoolean(operand.Operand)) {
			return operand.Operand, nil
		}
	}
	//
	return ast.NIL, nil
}

func (s *simplifier) binary(id ast.Id, op ast.Op, lhs ast.Id, rhs ast.Id) (ast.Id, error) {
	var (
		g     = s.graph
		l, lc = s.literal(lhs)
		r, rc = s.literal(rhs)
	)
	// Fully constant
	switch {
	case lc && rc:
		c, err := ast.Apply(op, l, r)
		if errors.Is(err, ast.ErrDivisionByZero) {
			// Left for the runtime to report
			return ast.NIL, nil
		} else if err != nil {
			return ast.NIL, ast.NewError(ast.TypeMismatch, id, "%s", err.Error())
		}
		//
		return s.constant(c), nil
	case isMatrix(g, lhs) || isMatrix(g, rhs):
		return s.elementwise(id, op, lhs, rhs)
	case !lc && !rc:
		return ast.NIL, nil
	}
	// Partially constant
	switch op {
	case ast.ADD:
		if lc && l.IsZero() && !isString(l) {
			return rhs, nil
		} else if rc && r.IsZero() && !isString(r) {
			return lhs, nil
		}
	case ast.SUB:
		if rc && r.IsZero() {
			return lhs, nil
		}
	case ast.MUL:
		if lc && l.IsOne() {
			return rhs, nil
		} else if rc && r.IsOne() {
			return lhs, nil
		} else if lc && l.IsZero() && s.public(rhs) {
			return s.constant(l), nil
		} else if rc && r.IsZero() && s.public(lhs) {
			return s.constant(r), nil
		}
	case ast.DIV:
		if rc && r.IsOne() {
			return lhs, nil
		}
	case ast.AND, ast.OR:
		return s.logical(op, lhs, rhs), nil
	}
	//
	return ast.NIL, nil
}

// Short-circuit collapse and identities for logical operators.
func (s *simplifier) logical(op ast.Op, lhs ast.Id, rhs ast.Id) ast.Id {
	var (
		c, other = ast.Constant{}, ast.NIL
		ok       bool
	)
	//
	if c, ok = s.literal(lhs); ok {
		other = rhs
	} else if c, ok = s.literal(rhs); ok {
		other = lhs
	} else {
		return ast.NIL
	}
	// Absorbing element: false && x, true || x
	if (op == ast.AND) != c.AsBool() {
		if s.public(other) {
			return s.constant(ast.Bool(c.AsBool()))
		}
		//
		return ast.NIL
	}
	// Identity element: true && x, false || x
	if s.isBoolean(other) {
		return other
	}
	//
	return ast.NIL
}

// Fold n-ary operators by combining their constant operands.
func (s *simplifier) operator(id ast.Id, n *ast.OperatorExpr) (ast.Id, error) {
	if !n.Op.IsAssociative() || len(n.Operands) == 0 {
		return ast.NIL, nil
	}
	//
	var (
		g        = s.graph
		acc      ast.Constant
		count    = 0
		operands []ast.Id
	)
	//
	for _, o := range n.Operands {
		c, ok := s.literal(o)
		//
		switch {
		case !ok:
			operands = append(operands, o)
		case count == 0:
			acc, count = c, 1
		default:
			var err error
			//
			if acc, err = ast.Apply(n.Op, acc, c); errors.Is(err, ast.ErrDivisionByZero) {
				return ast.NIL, nil
			} else if err != nil {
				return ast.NIL, ast.NewError(ast.TypeMismatch, id, "%s", err.Error())
			}
			//
			count++
		}
	}
	//
	switch {
	case count == 0:
		return ast.NIL, nil
	case len(operands) == 0:
		return s.constant(acc), nil
	case count == 1 && !identity(n.Op, acc):
		// Nothing to combine
		return ast.NIL, nil
	}
	// Rebuild from the remaining operands
	for _, o := range operands {
		g.Detach(o)
	}
	//
	if identity(n.Op, acc) && len(operands) == 1 {
		return operands[0], nil
	} else if identity(n.Op, acc) {
		return g.Add(&ast.OperatorExpr{n.Op, operands}), nil
	}
	//
	return g.Add(&ast.OperatorExpr{n.Op, append(operands, s.constant(acc))}), nil
}

// Element-wise operators over constant matrices, with scalars broadcast.
func (s *simplifier) elementwise(id ast.Id, op ast.Op, lhs ast.Id, rhs ast.Id) (ast.Id, error) {
	var (
		g      = s.graph
		l, lok = constantMatrix(g, lhs)
		r, rok = constantMatrix(g, rhs)
		result matrix.Matrix[ast.Constant]
		err    error
		apply  = func(a, b ast.Constant) (ast.Constant, error) { return ast.Apply(op, a, b) }
	)
	//
	switch {
	case !lok || !rok || l.IsUnknown() || r.IsUnknown():
		return ast.NIL, nil
	case l.Len() == 1 && r.Len() != 1:
		result, err = matrix.MapErr(r, func(c ast.Constant) (ast.Constant, error) { return apply(l.Values()[0], c) })
	case r.Len() == 1 && l.Len() != 1:
		result, err = matrix.MapErr(l, func(c ast.Constant) (ast.Constant, error) { return apply(c, r.Values()[0]) })
	case l.Rows() != r.Rows() || l.Cols() != r.Cols():
		return ast.NIL, ast.NewError(ast.TypeMismatch, id, "incompatible dimensions %dx%d and %dx%d",
			l.Rows(), l.Cols(), r.Rows(), r.Cols())
	default:
		result, err = matrix.Zip(l, r, apply)
	}
	//
	if errors.Is(err, ast.ErrDivisionByZero) {
		return ast.NIL, nil
	} else if err != nil {
		return ast.NIL, ast.NewError(ast.TypeMismatch, id, "%s", err.Error())
	}
	//
	return g.Add(&ast.LiteralMatrix{result}), nil
}

// A matrix expression whose elements are all constant becomes a literal.
func (s *simplifier) matrix(n *ast.MatrixExpr) ast.Id {
	values, ok := make([]ast.Constant, 0, n.Elements.Len()), true
	//
	for _, e := range n.Elements.Values() {
		c, isConstant := s.literal(e)
		values, ok = append(values, c), ok && isConstant
	}
	//
	if !ok || n.Elements.IsUnknown() {
		return ast.NIL
	}
	//
	m := matrix.FromValues(n.Elements.Rows(), n.Elements.Cols(), values)
	//
	return s.graph.Add(&ast.LiteralMatrix{m})
}

func (s *simplifier) index(id ast.Id, n *ast.IndexAccess) (ast.Id, error) {
	var (
		g          = s.graph
		row, rok   = s.literal(n.Row)
		col, cok   = s.literal(n.Column)
		rows, cols uint
	)
	//
	if !rok || (n.Column != ast.NIL && !cok) {
		return ast.NIL, nil
	}
	//
	switch t := g.Node(n.Target).(type) {
	case *ast.LiteralMatrix:
		rows, cols = t.Value.Rows(), t.Value.Cols()
	case *ast.MatrixExpr:
		rows, cols = t.Elements.Rows(), t.Elements.Cols()
	default:
		return ast.NIL, nil
	}
	//
	if rows == matrix.Unknown || cols == matrix.Unknown {
		return ast.NIL, nil
	}
	//
	r, c, ok := position(row, col, n.Column != ast.NIL, rows, cols)
	if !ok {
		return ast.NIL, ast.NewError(ast.IndexOutOfBounds, id, "index %s out of bounds for %dx%d matrix",
			indexString(row, col, n.Column != ast.NIL), rows, cols)
	}
	//
	switch t := g.Node(n.Target).(type) {
	case *ast.LiteralMatrix:
		return s.constant(t.Value.Get(r, c)), nil
	default:
		return t.(*ast.MatrixExpr).Elements.Get(r, c), nil
	}
}

func (s *simplifier) transpose(n *ast.Transpose) ast.Id {
	switch operand := s.graph.Node(n.Operand).(type) {
	case *ast.LiteralMatrix:
		return s.graph.Add(&ast.LiteralMatrix{operand.Value.Transpose()})
	case *ast.Transpose:
		return operand.Operand
	}
	//
	return ast.NIL
}

func (s *simplifier) rotate(n *ast.Rotate) ast.Id {
	offset, ok := s.literal(n.Offset)
	//
	switch {
	case !ok:
		return ast.NIL
	case offset.AsInt() == 0:
		return n.Operand
	}
	//
	if m, ok := s.graph.Node(n.Operand).(*ast.LiteralMatrix); ok && !m.Value.IsUnknown() {
		return s.graph.Add(&ast.LiteralMatrix{m.Value.Rotate(int(offset.AsInt()))})
	}
	//
	return ast.NIL
}

// Conditionals on a constant (hence public) condition reduce to one branch.
func (s *simplifier) conditional(n *ast.If) ast.Id {
	c, ok := s.literal(n.Condition)
	//
	switch {
	case !ok:
		return ast.NIL
	case c.AsBool():
		return n.Then
	case n.Else != ast.NIL:
		return n.Else
	default:
		return s.graph.NewBlock()
	}
}

// ===================================================================
// Helpers
// ===================================================================

func (s *simplifier) constant(c ast.Constant) ast.Id {
	return s.graph.NewLiteral(c)
}

func (s *simplifier) literal(id ast.Id) (ast.Constant, bool) {
	if id == ast.NIL {
		return ast.Constant{}, false
	} else if l, ok := s.graph.Node(id).(*ast.Literal); ok {
		return l.Value, true
	}
	//
	return ast.Constant{}, false
}

// Determine whether a node is known to be public.
func (s *simplifier) public(id ast.Id) bool {
	switch s.graph.Node(id).(type) {
	case *ast.Literal, *ast.LiteralMatrix:
		return true
	}
	//
	return s.labels != nil && uint(id) < s.labelled && !s.labels.IsSecret(id)
}

// Determine whether an expression is known to produce a boolean.
func (s *simplifier) isBoolean(id ast.Id) bool {
	switch n := s.graph.Node(id).(type) {
	case *ast.Literal:
		return n.Value.Kind() == ast.BOOL
	case *ast.BinaryExpr:
		return n.Op.IsComparison() || n.Op.IsLogical()
	case *ast.OperatorExpr:
		return n.Op.IsComparison() || n.Op.IsLogical()
	case *ast.UnaryExpr:
		return n.Op == ast.NOT
	default:
		return false
	}
}

// Determine whether a constant is the identity of an operator.
func identity(op ast.Op, c ast.Constant) bool {
	switch op {
	case ast.ADD:
		return c.IsZero() && !isString(c)
	case ast.MUL:
		return c.IsOne()
	case ast.AND:
		return c.Kind() == ast.BOOL && c.AsBool()
	case ast.OR, ast.XOR:
		return c.Kind() == ast.BOOL && !c.AsBool()
	}
	//
	return false
}

func isString(c ast.Constant) bool {
	return c.Kind() == ast.STRING
}

func isMatrix(g *ast.Graph, id ast.Id) bool {
	_, ok := g.Node(id).(*ast.LiteralMatrix)
	return ok
}

// View a constant operand as a matrix, where scalars are 1x1.
func constantMatrix(g *ast.Graph, id ast.Id) (matrix.Matrix[ast.Constant], bool) {
	switch n := g.Node(id).(type) {
	case *ast.Literal:
		return matrix.Scalar(n.Value), true
	case *ast.LiteralMatrix:
		return n.Value, true
	default:
		return matrix.Matrix[ast.Constant]{}, false
	}
}

func dimension[T any](m matrix.Matrix[T], dim uint) uint {
	if dim == 0 {
		return m.Rows()
	}
	//
	return m.Cols()
}

// Determine the position of an element.  A single index addresses the
// elements in row-major order.
func position(row ast.Constant, col ast.Constant, hasColumn bool, rows, cols uint) (uint, uint, bool) {
	r := row.AsInt()
	//
	if !hasColumn {
		if r < 0 || uint(r) >= rows*cols || cols == 0 {
			return 0, 0, false
		}
		//
		return uint(r) / cols, uint(r) % cols, true
	}
	//
	c := col.AsInt()
	//
	if r < 0 || c < 0 || uint(r) >= rows || uint(c) >= cols {
		return 0, 0, false
	}
	//
	return uint(r), uint(c), true
}

func indexString(row ast.Constant, col ast.Constant, hasColumn bool) string {
	if hasColumn {
		return "(" + row.String() + "," + col.String() + ")"
	}
	//
	return "(" + row.String() + ")"
}
