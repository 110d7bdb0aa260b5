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
package runtime

import (
	"errors"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/backend"
	"github.com/consensys/go-hecc/pkg/util/matrix"
	log "github.com/sirupsen/logrus"
)

// Handler implements an external function.
type Handler func(args []Value) (Value, error)

// Visitor evaluates a (lowered) program, dispatching operations over secret
// values to a given backend.  Values are only encrypted at the boundary (i.e.
// for secret parameters and declarations), and public values are otherwise
// computed in the clear.  The visitor holds no state between runs other than
// its registered handlers.
type Visitor struct {
	graph    *ast.Graph
	backend  backend.Backend
	handlers map[string]Handler
}

// New constructs a visitor for a given program and backend.
func New(g *ast.Graph, b backend.Backend) *Visitor {
	return &Visitor{g, b, make(map[string]Handler)}
}

// Backend returns the backend used by this visitor.
func (p *Visitor) Backend() backend.Backend {
	return p.backend
}

// Register a handler for an external function.
func (p *Visitor) Register(name string, handler Handler) {
	p.handlers[name] = handler
}

// Run a given function with a given set of arguments, which are encrypted
// where the corresponding parameter is secret.  The result is nil for a
// function which returns no value.
func (p *Visitor) Run(function string, args ...Value) (Value, error) {
	fn := ast.FindFunction(p.graph, function)
	//
	if fn == ast.NIL {
		return nil, ast.NewError(ast.UnboundVariable, ast.NIL, "unknown function %s", function)
	}
	//
	log.Debugf("running %s on %s backend", function, p.backend.Name())
	//
	return p.call(fn, args)
}

func (p *Visitor) call(fn ast.Id, args []Value) (Value, error) {
	var (
		n = p.graph.Node(fn).(*ast.Function)
		f = newFrame()
	)
	//
	if len(args) != len(n.Params) {
		return nil, ast.NewError(ast.TypeMismatch, fn, "%s expects %d arguments (found %d)", n.Name, len(n.Params),
			len(args))
	}
	//
	for i, id := range n.Params {
		var (
			param = p.graph.Node(id).(*ast.Param)
			arg   = args[i]
			err   error
		)
		//
		if param.Type.Secret {
			if arg, err = p.Encrypt(arg); err != nil {
				return nil, p.fail(id, err)
			}
		}
		//
		f.declare(param.Name, arg)
	}
	//
	returned, val, err := p.exec(n.Body, f)
	//
	if err != nil {
		return nil, err
	} else if !returned && n.Result.Kind != ast.VOID {
		return p.neutral(n.Result), nil
	}
	//
	return val, nil
}

// ============================================================================
// Statements
// ============================================================================

// Execute a statement, indicating whether a return was encountered and, if so,
// the value returned.
func (p *Visitor) exec(id ast.Id, f *frame) (bool, Value, error) {
	switch n := p.graph.Node(id).(type) {
	case *ast.Block:
		f.push()
		defer f.pop()
		//
		for _, s := range n.Statements {
			if returned, val, err := p.exec(s, f); err != nil || returned {
				return returned, val, err
			}
		}
	case *ast.VarDecl:
		return false, nil, p.declare(id, n, f)
	case *ast.Assign:
		return false, nil, p.assign(n, f)
	case *ast.If:
		cond, err := p.condition(n.Condition, f)
		//
		if err != nil {
			return false, nil, err
		} else if cond {
			return p.exec(n.Then, f)
		} else if n.Else != ast.NIL {
			return p.exec(n.Else, f)
		}
	case *ast.While:
		return p.loop(n.Condition, n.Body, ast.NIL, f)
	case *ast.For:
		f.push()
		defer f.pop()
		//
		if n.Init != ast.NIL {
			if _, _, err := p.exec(n.Init, f); err != nil {
				return false, nil, err
			}
		}
		//
		return p.loop(n.Condition, n.Body, n.Update, f)
	case *ast.Return:
		if n.Value == ast.NIL {
			return true, nil, nil
		}
		//
		val, _, err := p.expr(n.Value, f)
		//
		return err == nil, val, err
	case *ast.Function:
		return false, nil, ast.NewError(ast.UnsupportedControlFlow, id, "nested function %s", n.Name)
	default:
		_, _, err := p.expr(id, f)
		return false, nil, err
	}
	//
	return false, nil, nil
}

func (p *Visitor) loop(condition ast.Id, body ast.Id, update ast.Id, f *frame) (bool, Value, error) {
	for {
		if condition != ast.NIL {
			if cond, err := p.condition(condition, f); err != nil || !cond {
				return false, nil, err
			}
		}
		//
		if returned, val, err := p.exec(body, f); err != nil || returned {
			return returned, val, err
		}
		//
		if update != ast.NIL {
			if _, _, err := p.exec(update, f); err != nil {
				return false, nil, err
			}
		}
	}
}

// Evaluate the condition of a control construct, which must be public.
func (p *Visitor) condition(id ast.Id, f *frame) (bool, error) {
	val, _, err := p.expr(id, f)
	//
	if err != nil {
		return false, err
	} else if c, ok := val.(*Plain); ok {
		return c.Value.AsBool(), nil
	}
	//
	return false, ast.NewError(ast.UnsupportedControlFlow, id, "condition is %s", val)
}

func (p *Visitor) declare(id ast.Id, n *ast.VarDecl, f *frame) error {
	var (
		val Value
		err error
	)
	//
	if n.Init == ast.NIL {
		val = p.neutral(n.Type)
	} else if val, _, err = p.expr(n.Init, f); err != nil {
		return err
	}
	// Unknown dimensions are resolved by later assignments
	if n.Type.Secret && !isUnknown(val) {
		if val, err = p.Encrypt(val); err != nil {
			return p.fail(id, err)
		}
	}
	//
	f.declare(n.Name, val)
	//
	return nil
}

func (p *Visitor) assign(n *ast.Assign, f *frame) error {
	val, _, err := p.expr(n.Value, f)
	if err != nil {
		return err
	}
	//
	switch t := p.graph.Node(n.Target).(type) {
	case *ast.Variable:
		if !f.assign(t.Name, val) {
			return ast.NewError(ast.UnboundVariable, n.Target, "unknown variable %s", t.Name)
		}
	case *ast.IndexAccess:
		v, ok := p.graph.Node(t.Target).(*ast.Variable)
		if !ok {
			return ast.NewError(ast.UnsupportedOperation, n.Target, "assignment to nested element")
		}
		//
		current, ok := f.lookup(v.Name)
		if !ok {
			return ast.NewError(ast.UnboundVariable, t.Target, "unknown variable %s", v.Name)
		}
		//
		k, err := p.position(n.Target, t, current, f)
		if err != nil {
			return err
		}
		//
		if m, ok := current.(*PlainMatrix); ok && !isCipher(val) {
			updated := matrix.Map(m.Value, func(c ast.Constant) ast.Constant { return c })
			//
			if err := setElement(&updated, k, val); err != nil {
				return p.fail(n.Target, err)
			}
			//
			f.assign(v.Name, &PlainMatrix{updated})
		} else if updated, err := p.update(current, k.flat, val); err != nil {
			return p.fail(n.Target, err)
		} else {
			f.assign(v.Name, updated)
		}
	default:
		return ast.NewError(ast.StructuralError, n.Target, "invalid assignment target")
	}
	//
	return nil
}

// ============================================================================
// Expressions
// ============================================================================

// Evaluate an expression, indicating whether the result is a temporary value
// (i.e. one which is not referenced by any variable).
func (p *Visitor) expr(id ast.Id, f *frame) (Value, bool, error) {
	val, temp, err := p.evaluate(id, f)
	//
	if err != nil {
		return nil, false, p.fail(id, err)
	}
	//
	return val, temp, nil
}

func (p *Visitor) evaluate(id ast.Id, f *frame) (Value, bool, error) {
	switch n := p.graph.Node(id).(type) {
	case *ast.Literal:
		return &Plain{n.Value}, true, nil
	case *ast.LiteralMatrix:
		return &PlainMatrix{n.Value}, true, nil
	case *ast.MatrixExpr:
		return p.matrix(n, f)
	case *ast.Variable:
		val, ok := f.lookup(n.Name)
		if !ok {
			return nil, false, ast.NewError(ast.UnboundVariable, id, "unknown variable %s", n.Name)
		}
		//
		return val, false, nil
	case *ast.UnaryExpr:
		return p.unary(n, f)
	case *ast.BinaryExpr:
		lhs, ltemp, err := p.expr(n.Lhs, f)
		if err != nil {
			return nil, false, err
		}
		//
		rhs, rtemp, err := p.expr(n.Rhs, f)
		if err != nil {
			return nil, false, err
		}
		//
		val, err := p.binary(n.Op, lhs, ltemp, rhs, rtemp)
		//
		return val, true, err
	case *ast.OperatorExpr:
		return p.operator(n, f)
	case *ast.IndexAccess:
		return p.index(id, n, f)
	case *ast.Rotate:
		return p.rotation(n, f)
	case *ast.Transpose:
		return p.transposition(n, f)
	case *ast.MatrixSize:
		val, _, err := p.expr(n.Operand, f)
		if err != nil {
			return nil, false, err
		}
		//
		return &Plain{ast.Int(int64(dimension(val.Shape(), n.Dimension)))}, true, nil
	case *ast.Call:
		return p.invoke(id, n, f)
	case *ast.CallExternal:
		return p.external(id, n, f)
	default:
		return nil, false, ast.NewError(ast.StructuralError, id, "%s is not an expression", ast.KindName(n))
	}
}

// Apply a binary operator to two values.
func (p *Visitor) binary(op ast.Op, lhs Value, ltemp bool, rhs Value, rtemp bool) (Value, error) {
	switch {
	case !isCipher(lhs) && !isCipher(rhs):
		return plainBinary(op, lhs, rhs)
	case op.IsComparison():
		return p.compare(op, lhs, rhs)
	case op.IsLogical():
		return p.logical(op, lhs, ltemp, rhs, rtemp)
	case op == ast.DIV || op == ast.MOD:
		return p.divide(op, lhs, ltemp, rhs)
	default:
		return p.arithmetic(op, lhs, ltemp, rhs, rtemp)
	}
}

func (p *Visitor) unary(n *ast.UnaryExpr, f *frame) (Value, bool, error) {
	val, temp, err := p.expr(n.Operand, f)
	//
	if err != nil {
		return nil, false, err
	}
	//
	c, ok := val.(*Cipher)
	//
	switch {
	case !ok:
		val, err = plainUnary(n.Op, val)
	case n.Op == ast.NOT:
		val, err = p.not(c, temp)
	default:
		var ct backend.Ciphertext
		//
		if ct, err = p.negate(c, temp); err == nil {
			val = &Cipher{ct, c.Kind, c.Rows, c.Cols}
		}
	}
	//
	return val, true, err
}

func (p *Visitor) operator(n *ast.OperatorExpr, f *frame) (Value, bool, error) {
	acc, temp, err := p.expr(n.Operands[0], f)
	//
	if err != nil {
		return nil, false, err
	}
	//
	for _, operand := range n.Operands[1:] {
		val, vtemp, err := p.expr(operand, f)
		if err != nil {
			return nil, false, err
		}
		//
		if acc, err = p.binary(n.Op, acc, temp, val, vtemp); err != nil {
			return nil, false, err
		}
		//
		temp = true
	}
	//
	return acc, temp, nil
}

func (p *Visitor) matrix(n *ast.MatrixExpr, f *frame) (Value, bool, error) {
	var (
		ids    = n.Elements.Values()
		values = make([]Value, len(ids))
		public = make([]ast.Constant, len(ids))
		secret bool
	)
	//
	for i, e := range ids {
		val, _, err := p.expr(e, f)
		if err != nil {
			return nil, false, err
		}
		//
		switch val := val.(type) {
		case *Plain:
			public[i] = val.Value
		case *Cipher:
			secret = true
		default:
			return nil, false, ast.NewError(ast.TypeMismatch, e, "matrix element has shape %s", val.Shape())
		}
		//
		values[i] = val
	}
	//
	shape := Shape{n.Elements.Rows(), n.Elements.Cols()}
	//
	if !secret {
		return plainOf(shape, public), true, nil
	} else if err := p.fits(shape); err != nil {
		return nil, false, err
	}
	//
	val, err := p.assemble(shape, values)
	//
	return val, true, err
}

func (p *Visitor) index(id ast.Id, n *ast.IndexAccess, f *frame) (Value, bool, error) {
	target, _, err := p.expr(n.Target, f)
	if err != nil {
		return nil, false, err
	}
	//
	k, err := p.position(id, n, target, f)
	if err != nil {
		return nil, false, err
	}
	//
	switch t := target.(type) {
	case *PlainMatrix:
		return &Plain{t.Value.Values()[k.flat]}, true, nil
	case *Cipher:
		val, err := p.element(t, k.flat)
		return val, true, err
	default:
		return nil, false, ast.NewError(ast.TypeMismatch, id, "cannot index %s", target)
	}
}

// Position of an element within a matrix.
type position struct {
	row, col, flat uint
}

// Determine the (flat) position accessed by an index expression.  The row is
// itself a flat index when no column is given.
func (p *Visitor) position(id ast.Id, n *ast.IndexAccess, target Value, f *frame) (position, error) {
	var shape = target.Shape()
	//
	if shape.IsScalar() && !isUnknown(target) {
		return position{}, ast.NewError(ast.TypeMismatch, id, "cannot index %s", target)
	}
	//
	row, err := p.offset(n.Row, f)
	if err != nil {
		return position{}, err
	}
	//
	if n.Column == ast.NIL {
		if row < 0 || (uint(row) >= shape.Len() && !isUnknown(target)) {
			return position{}, ast.NewError(ast.IndexOutOfBounds, id, "index %d for %s value", row, shape)
		}
		//
		return position{0, uint(row), uint(row)}, nil
	}
	//
	col, err := p.offset(n.Column, f)
	//
	if err != nil {
		return position{}, err
	} else if row < 0 || col < 0 {
		return position{}, ast.NewError(ast.IndexOutOfBounds, id, "index [%d][%d]", row, col)
	} else if !isUnknown(target) && (uint(row) >= shape.Rows || uint(col) >= shape.Cols) {
		return position{}, ast.NewError(ast.IndexOutOfBounds, id, "index [%d][%d] for %s value", row, col, shape)
	}
	//
	return position{uint(row), uint(col), uint(row)*shape.Cols + uint(col)}, nil
}

// Evaluate an expression which must produce a public integer.
func (p *Visitor) offset(id ast.Id, f *frame) (int64, error) {
	val, _, err := p.expr(id, f)
	//
	if err != nil {
		return 0, err
	} else if c, ok := val.(*Plain); ok && c.Value.IsNumeric() {
		return c.Value.AsInt(), nil
	}
	//
	return 0, ast.NewError(ast.UnsupportedOperation, id, "index must be a public integer (found %s)", val)
}

func (p *Visitor) rotation(n *ast.Rotate, f *frame) (Value, bool, error) {
	val, _, err := p.expr(n.Operand, f)
	if err != nil {
		return nil, false, err
	}
	//
	k, err := p.offset(n.Offset, f)
	if err != nil {
		return nil, false, err
	}
	//
	switch v := val.(type) {
	case *PlainMatrix:
		return &PlainMatrix{v.Value.Rotate(int(k))}, true, nil
	case *Cipher:
		r, err := p.rotate(v, int(k))
		return r, r != v, err
	default:
		return val, false, nil
	}
}

func (p *Visitor) transposition(n *ast.Transpose, f *frame) (Value, bool, error) {
	val, _, err := p.expr(n.Operand, f)
	if err != nil {
		return nil, false, err
	}
	//
	switch v := val.(type) {
	case *PlainMatrix:
		return &PlainMatrix{v.Value.Transpose()}, true, nil
	case *Cipher:
		r, err := p.transpose(v)
		// Vectors share the ciphertext of their operand
		return r, false, err
	default:
		return val, false, nil
	}
}

func (p *Visitor) invoke(id ast.Id, n *ast.Call, f *frame) (Value, bool, error) {
	fn := ast.FindFunction(p.graph, n.Name)
	//
	if fn == ast.NIL {
		return nil, false, ast.NewError(ast.UnboundVariable, id, "unknown function %s", n.Name)
	}
	//
	args, err := p.arguments(n.Args, f)
	if err != nil {
		return nil, false, err
	}
	//
	val, err := p.call(fn, args)
	//
	return val, true, err
}

func (p *Visitor) external(id ast.Id, n *ast.CallExternal, f *frame) (Value, bool, error) {
	handler, ok := p.handlers[n.Name]
	//
	if !ok {
		return nil, false, ast.NewError(ast.UnknownExternalCall, id, "no handler for %s", n.Name)
	}
	//
	args, err := p.arguments(n.Args, f)
	if err != nil {
		return nil, false, err
	}
	//
	val, err := handler(args)
	//
	return val, true, err
}

func (p *Visitor) arguments(ids []ast.Id, f *frame) ([]Value, error) {
	args := make([]Value, len(ids))
	//
	for i, arg := range ids {
		var err error
		//
		if args[i], _, err = p.expr(arg, f); err != nil {
			return nil, err
		}
	}
	//
	return args, nil
}

// Construct the (public) neutral value of a given type.
func (p *Visitor) neutral(datatype ast.Datatype) Value {
	switch n := datatype.Neutral().(type) {
	case *ast.Literal:
		return &Plain{n.Value}
	case *ast.LiteralMatrix:
		return &PlainMatrix{n.Value}
	default:
		panic("unreachable")
	}
}

// Attribute an error to a given node, unless it is already attributed.
func (p *Visitor) fail(id ast.Id, err error) error {
	var e *ast.Error
	//
	if errors.As(err, &e) {
		if e.Node != ast.NIL {
			return e
		}
		//
		return &ast.Error{Kind: e.Kind, Node: id, Msg: e.Msg}
	}
	//
	return ast.NewError(ast.UnsupportedOperation, id, "%s", err)
}

// Assign an element of a public matrix.
func setElement(m *matrix.Matrix[ast.Constant], k position, val Value) error {
	c, ok := val.(*Plain)
	//
	if !ok {
		return ast.NewError(ast.TypeMismatch, ast.NIL, "cannot assign %s to matrix element", val.Shape())
	} else if m.IsUnknown() || m.Cols() == 0 {
		m.Set(k.row, k.col, c.Value)
	} else {
		m.Set(k.flat/m.Cols(), k.flat%m.Cols(), c.Value)
	}
	//
	return nil
}

func isUnknown(val Value) bool {
	m, ok := val.(*PlainMatrix)
	return ok && m.Value.IsUnknown()
}

func dimension(shape Shape, dim uint) uint {
	switch {
	case shape.IsScalar():
		return 1
	case dim == 0:
		return shape.Rows
	default:
		return shape.Cols
	}
}
