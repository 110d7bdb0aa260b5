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
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/util/matrix"
	"github.com/consensys/go-hecc/pkg/util/source"
	"github.com/consensys/go-hecc/pkg/util/source/sexp"
)

// ===================================================================
// Public
// ===================================================================

// ParseSourceFile parses the contents of a single source file into a program
// graph, whose root is a block holding every function declared in the file.
// A source map is returned identifying the span of every parsed node.
func ParseSourceFile(srcfile *source.File) (*ast.Graph, *source.Map[ast.Id], []source.SyntaxError) {
	// Parse bytes into an S-Expression
	terms, srcmap, err := sexp.ParseAll(srcfile)
	// Check file parsed ok
	if err != nil {
		return nil, nil, []source.SyntaxError{*err}
	}
	//
	var (
		p         = NewParser(srcfile, srcmap)
		functions []ast.Id
		errors    []source.SyntaxError
	)
	//
	for _, term := range terms {
		if l := term.AsList(); l == nil || !l.MatchSymbols(1, "defun") {
			errors = append(errors, *p.translator.SyntaxError(term, "expected function declaration"))
		} else if fn, errs := p.translator.Translate(term); len(errs) > 0 {
			errors = append(errors, errs...)
		} else {
			functions = append(functions, fn)
		}
	}
	//
	if len(errors) > 0 {
		return nil, nil, errors
	}
	//
	p.graph.SetRoot(p.graph.NewBlock(functions...))
	//
	return p.graph, p.translator.SourceMap(), nil
}

// Parser translates S-expressions into nodes of a program graph.  The parser
// is deliberately simplistic and only checks the shape of each construct (e.g.
// that an "if" has two or three arguments).  Checking that variables are
// declared, and that secret values do not leak, is left to later passes.
type Parser struct {
	graph      *ast.Graph
	translator *sexp.Translator[ast.Id]
}

// NewParser constructs a new parser using a given mapping from S-Expressions to
// spans in the underlying source file.
func NewParser(srcfile *source.File, srcmap *source.Map[sexp.SExp]) *Parser {
	var (
		t      = sexp.NewTranslator[ast.Id](srcfile, srcmap)
		parser = &Parser{ast.NewGraph(), t}
	)
	// Configure expression translator
	t.AddSymbolRule(parser.constantRule)
	t.AddSymbolRule(parser.variableRule)
	//
	for _, op := range []ast.Op{ast.ADD, ast.SUB, ast.MUL, ast.DIV, ast.MOD, ast.LT, ast.LTEQ, ast.GT, ast.GTEQ,
		ast.EQ, ast.NEQ, ast.AND, ast.OR, ast.XOR} {
		t.AddRecursiveListRule(op.String(), parser.operatorRule)
	}
	//
	t.AddRecursiveListRule(ast.NOT.String(), parser.operatorRule)
	t.AddRecursiveListRule("get", parser.getRule)
	t.AddRecursiveListRule("rotate", parser.rotateRule)
	t.AddRecursiveListRule("transpose", parser.transposeRule)
	t.AddRecursiveListRule("block", parser.blockRule)
	t.AddRecursiveListRule("=", parser.assignRule)
	t.AddRecursiveListRule("return", parser.returnRule)
	t.AddListRule("size", parser.sizeRule)
	t.AddListRule("call", parser.callRule)
	t.AddListRule("extern", parser.callRule)
	t.AddListRule("matrix", parser.matrixRule)
	t.AddListRule("if", parser.ifRule)
	t.AddListRule("while", parser.whileRule)
	t.AddListRule("for", parser.forRule)
	t.AddListRule("var", parser.varRule)
	t.AddListRule("defun", parser.defunRule)
	//
	return parser
}

// ===================================================================
// Symbols
// ===================================================================

func (p *Parser) constantRule(symbol string) (ast.Id, bool, error) {
	if c, ok := ast.ParseConstant(symbol); ok {
		return p.graph.NewLiteral(c), true, nil
	}
	//
	return ast.NIL, false, nil
}

func (p *Parser) variableRule(symbol string) (ast.Id, bool, error) {
	if !isIdentifier(symbol) {
		return ast.NIL, true, fmt.Errorf("invalid identifier \"%s\"", symbol)
	}
	//
	return p.graph.NewVariable(symbol), true, nil
}

// ===================================================================
// Expressions
// ===================================================================

func (p *Parser) operatorRule(symbol string, args []ast.Id) (ast.Id, error) {
	binary, isBinary := ast.BinaryOp(symbol)
	unary, isUnary := ast.UnaryOp(symbol)
	//
	switch {
	case len(args) == 1 && isUnary:
		return p.graph.NewUnary(unary, args[0]), nil
	case len(args) == 2 && isBinary:
		return p.graph.NewBinary(binary, args[0], args[1]), nil
	case len(args) > 2 && isBinary && isAssociative(binary):
		return p.graph.Add(&ast.OperatorExpr{Op: binary, Operands: args}), nil
	default:
		return ast.NIL, fmt.Errorf("incorrect number of arguments for %s", symbol)
	}
}

func (p *Parser) getRule(_ string, args []ast.Id) (ast.Id, error) {
	switch len(args) {
	case 2:
		return p.graph.Add(&ast.IndexAccess{Target: args[0], Row: args[1], Column: ast.NIL}), nil
	case 3:
		return p.graph.Add(&ast.IndexAccess{Target: args[0], Row: args[1], Column: args[2]}), nil
	default:
		return ast.NIL, errors.New("expected target with one or two indices")
	}
}

func (p *Parser) rotateRule(_ string, args []ast.Id) (ast.Id, error) {
	if len(args) != 2 {
		return ast.NIL, errors.New("expected operand and offset")
	}
	//
	return p.graph.Add(&ast.Rotate{Operand: args[0], Offset: args[1]}), nil
}

func (p *Parser) transposeRule(_ string, args []ast.Id) (ast.Id, error) {
	if len(args) != 1 {
		return ast.NIL, errors.New("expected exactly one operand")
	}
	//
	return p.graph.Add(&ast.Transpose{Operand: args[0]}), nil
}

func (p *Parser) sizeRule(l *sexp.List) (ast.Id, []source.SyntaxError) {
	if l.Len() != 3 || l.Get(2).AsSymbol() == nil {
		return ast.NIL, p.translator.SyntaxErrors(l, "expected operand and dimension")
	}
	//
	dimension, err := strconv.ParseUint(l.Get(2).AsSymbol().Value, 10, 8)
	if err != nil || dimension > 1 {
		return ast.NIL, p.translator.SyntaxErrors(l.Get(2), "dimension must be 0 or 1")
	}
	//
	operand, errs := p.translator.Translate(l.Get(1))
	if len(errs) > 0 {
		return ast.NIL, errs
	}
	//
	return p.graph.Add(&ast.MatrixSize{Operand: operand, Dimension: uint(dimension)}), nil
}

func (p *Parser) callRule(l *sexp.List) (ast.Id, []source.SyntaxError) {
	if l.Len() < 2 || l.Get(1).AsSymbol() == nil {
		return ast.NIL, p.translator.SyntaxErrors(l, "expected function name")
	}
	//
	name := l.Get(1).AsSymbol().Value
	args, errs := p.translateAll(l.Elements[2:])
	//
	if len(errs) > 0 {
		return ast.NIL, errs
	} else if l.Head() == "extern" {
		return p.graph.Add(&ast.CallExternal{Name: name, Args: args}), nil
	}
	//
	return p.graph.Add(&ast.Call{Name: name, Args: args}), nil
}

// Parse a matrix "(matrix [a b] [c d])".  When every element is constant, this
// produces a literal matrix.
func (p *Parser) matrixRule(l *sexp.List) (ast.Id, []source.SyntaxError) {
	var (
		rows     = l.Elements[1:]
		cols     int
		elements []sexp.SExp
	)
	//
	for i, row := range rows {
		if row.AsArray() == nil {
			return ast.NIL, p.translator.SyntaxErrors(row, "expected matrix row")
		} else if i == 0 {
			cols = row.AsArray().Len()
		} else if row.AsArray().Len() != cols {
			return ast.NIL, p.translator.SyntaxErrors(row, "inconsistent row length")
		}
		//
		elements = append(elements, row.AsArray().Elements...)
	}
	//
	if len(elements) == 0 {
		return ast.NIL, p.translator.SyntaxErrors(l, "empty matrix")
	} else if constants, ok := asConstants(elements); ok {
		m := matrix.FromValues(uint(len(rows)), uint(cols), constants)
		return p.graph.Add(&ast.LiteralMatrix{Value: m}), nil
	}
	//
	ids, errs := p.translateAll(elements)
	if len(errs) > 0 {
		return ast.NIL, errs
	}
	//
	return p.graph.Add(&ast.MatrixExpr{Elements: matrix.FromValues(uint(len(rows)), uint(cols), ids)}), nil
}

// ===================================================================
// Statements
// ===================================================================

func (p *Parser) blockRule(_ string, args []ast.Id) (ast.Id, error) {
	return p.graph.NewBlock(args...), nil
}

func (p *Parser) assignRule(_ string, args []ast.Id) (ast.Id, error) {
	if len(args) != 2 {
		return ast.NIL, errors.New("expected target and value")
	}
	//
	switch p.graph.Node(args[0]).(type) {
	case *ast.Variable, *ast.IndexAccess:
		return p.graph.Add(&ast.Assign{Target: args[0], Value: args[1]}), nil
	default:
		return ast.NIL, errors.New("invalid assignment target")
	}
}

func (p *Parser) returnRule(_ string, args []ast.Id) (ast.Id, error) {
	switch len(args) {
	case 0:
		return p.graph.Add(&ast.Return{Value: ast.NIL}), nil
	case 1:
		return p.graph.Add(&ast.Return{Value: args[0]}), nil
	default:
		return ast.NIL, errors.New("expected at most one value")
	}
}

func (p *Parser) ifRule(l *sexp.List) (ast.Id, []source.SyntaxError) {
	if l.Len() != 3 && l.Len() != 4 {
		return ast.NIL, p.translator.SyntaxErrors(l, "expected condition and one or two branches")
	}
	//
	args, errs := p.translateAll(l.Elements[1:])
	if len(errs) > 0 {
		return ast.NIL, errs
	}
	//
	args = append(args, ast.NIL)
	//
	return p.graph.Add(&ast.If{Condition: args[0], Then: args[1], Else: args[2]}), nil
}

// Parse "(while [:bound n] cond body)".
func (p *Parser) whileRule(l *sexp.List) (ast.Id, []source.SyntaxError) {
	bound, elements, errs := p.parseBound(l.Elements[1:])
	//
	if len(errs) > 0 {
		return ast.NIL, errs
	} else if len(elements) != 2 {
		return ast.NIL, p.translator.SyntaxErrors(l, "expected condition and body")
	}
	//
	args, errs := p.translateAll(elements)
	if len(errs) > 0 {
		return ast.NIL, errs
	}
	//
	return p.graph.Add(&ast.While{Condition: args[0], Body: args[1], Bound: bound}), nil
}

// Parse "(for [:bound n] init cond update body)", where any of the first three
// may be the empty list.
func (p *Parser) forRule(l *sexp.List) (ast.Id, []source.SyntaxError) {
	bound, elements, errs := p.parseBound(l.Elements[1:])
	//
	if len(errs) > 0 {
		return ast.NIL, errs
	} else if len(elements) != 4 {
		return ast.NIL, p.translator.SyntaxErrors(l, "expected initialiser, condition, update and body")
	}
	//
	args, errs := p.translateAll(elements)
	if len(errs) > 0 {
		return ast.NIL, errs
	}
	//
	return p.graph.Add(&ast.For{Init: args[0], Condition: args[1], Update: args[2], Body: args[3],
		Bound: bound}), nil
}

// Parse "(var [secret] type name [init])".
func (p *Parser) varRule(l *sexp.List) (ast.Id, []source.SyntaxError) {
	datatype, rest, errs := p.parseType(l, l.Elements[1:])
	//
	if len(errs) > 0 {
		return ast.NIL, errs
	} else if len(rest) == 0 || len(rest) > 2 || rest[0].AsSymbol() == nil {
		return ast.NIL, p.translator.SyntaxErrors(l, "expected variable name and optional initialiser")
	}
	//
	var (
		name = rest[0].AsSymbol().Value
		init = ast.NIL
	)
	//
	if !isIdentifier(name) {
		return ast.NIL, p.translator.SyntaxErrors(rest[0], "invalid identifier")
	} else if len(rest) == 2 {
		if init, errs = p.translator.Translate(rest[1]); len(errs) > 0 {
			return ast.NIL, errs
		}
	}
	//
	return p.graph.NewVarDecl(name, datatype, init), nil
}

// Parse "(defun name (params...) [secret] type body)".
func (p *Parser) defunRule(l *sexp.List) (ast.Id, []source.SyntaxError) {
	if l.Len() < 5 || l.Get(1).AsSymbol() == nil || l.Get(2).AsList() == nil {
		return ast.NIL, p.translator.SyntaxErrors(l, "expected function name, parameters, result and body")
	}
	//
	var (
		name   = l.Get(1).AsSymbol().Value
		params []ast.Id
		errors []source.SyntaxError
	)
	//
	for _, s := range l.Get(2).AsList().Elements {
		param, errs := p.parseParam(s)
		//
		errors = append(errors, errs...)
		params = append(params, param)
	}
	//
	result, rest, errs := p.parseType(l, l.Elements[3:])
	errors = append(errors, errs...)
	//
	if len(errors) > 0 {
		return ast.NIL, errors
	} else if len(rest) != 1 {
		return ast.NIL, p.translator.SyntaxErrors(l, "expected function body")
	}
	//
	body, errs := p.translator.Translate(rest[0])
	if len(errs) > 0 {
		return ast.NIL, errs
	} else if _, ok := p.graph.Node(body).(*ast.Block); !ok {
		return ast.NIL, p.translator.SyntaxErrors(rest[0], "function body must be a block")
	}
	//
	return p.graph.Add(&ast.Function{Name: name, Params: params, Result: result, Body: body}), nil
}

// Parse a parameter "([secret] type name)".
func (p *Parser) parseParam(s sexp.SExp) (ast.Id, []source.SyntaxError) {
	l := s.AsList()
	//
	if l == nil {
		return ast.NIL, p.translator.SyntaxErrors(s, "expected parameter declaration")
	}
	//
	datatype, rest, errs := p.parseType(l, l.Elements)
	//
	if len(errs) > 0 {
		return ast.NIL, errs
	} else if len(rest) != 1 || rest[0].AsSymbol() == nil || !isIdentifier(rest[0].AsSymbol().Value) {
		return ast.NIL, p.translator.SyntaxErrors(s, "expected parameter name")
	}
	//
	param := p.graph.Add(&ast.Param{Name: rest[0].AsSymbol().Value, Type: datatype})
	p.translator.Map(param, s)
	//
	return param, nil
}

// Parse a type "[secret] kind" or "[secret] (kind rows cols)", returning any
// remaining elements.  A dimension of "?" is resolved at runtime.
func (p *Parser) parseType(l *sexp.List, elements []sexp.SExp) (ast.Datatype, []sexp.SExp, []source.SyntaxError) {
	var datatype ast.Datatype
	//
	if len(elements) > 0 && elements[0].AsSymbol() != nil && elements[0].AsSymbol().Value == "secret" {
		datatype.Secret = true
		elements = elements[1:]
	}
	//
	if len(elements) == 0 {
		return datatype, nil, p.translator.SyntaxErrors(l, "missing type")
	}
	//
	switch t := elements[0].(type) {
	case *sexp.Symbol:
		kind, ok := ast.ParseKind(t.Value)
		if !ok {
			return datatype, nil, p.translator.SyntaxErrors(t, "unknown type")
		}
		//
		datatype.Kind = kind
	case *sexp.List:
		var (
			ok         bool
			kind       ast.Kind
			rows, cols uint
		)
		//
		if t.Len() == 3 && t.Get(0).AsSymbol() != nil {
			kind, ok = ast.ParseKind(t.Get(0).AsSymbol().Value)
			rows, ok = parseDimension(t.Get(1), ok)
			cols, ok = parseDimension(t.Get(2), ok)
		}
		//
		if !ok || kind == ast.VOID {
			return datatype, nil, p.translator.SyntaxErrors(t, "invalid matrix type")
		}
		//
		datatype = ast.Datatype{Kind: kind, Secret: datatype.Secret, Rows: rows, Cols: cols}
	default:
		return datatype, nil, p.translator.SyntaxErrors(elements[0], "invalid type")
	}
	//
	return datatype, elements[1:], nil
}

// Parse an optional ":bound n" annotation.
func (p *Parser) parseBound(elements []sexp.SExp) (uint, []sexp.SExp, []source.SyntaxError) {
	if len(elements) == 0 || elements[0].AsSymbol() == nil || elements[0].AsSymbol().Value != ":bound" {
		return 0, elements, nil
	} else if len(elements) < 2 || elements[1].AsSymbol() == nil {
		return 0, nil, p.translator.SyntaxErrors(elements[0], "missing loop bound")
	}
	//
	bound, err := strconv.ParseUint(elements[1].AsSymbol().Value, 10, 32)
	if err != nil || bound == 0 {
		return 0, nil, p.translator.SyntaxErrors(elements[1], "invalid loop bound")
	}
	//
	return uint(bound), elements[2:], nil
}

// Translate zero or more S-expressions, where the empty list denotes an absent
// node.
func (p *Parser) translateAll(elements []sexp.SExp) ([]ast.Id, []source.SyntaxError) {
	var (
		ids    = make([]ast.Id, len(elements))
		errors []source.SyntaxError
	)
	//
	for i, s := range elements {
		if l := s.AsList(); l != nil && l.Len() == 0 {
			ids[i] = ast.NIL
		} else {
			var errs []source.SyntaxError
			ids[i], errs = p.translator.Translate(s)
			errors = append(errors, errs...)
		}
	}
	//
	return ids, errors
}

// ===================================================================
// Helpers
// ===================================================================

func parseDimension(s sexp.SExp, ok bool) (uint, bool) {
	if !ok || s.AsSymbol() == nil {
		return 0, false
	} else if s.AsSymbol().Value == "?" {
		return matrix.Unknown, true
	}
	//
	n, err := strconv.ParseUint(s.AsSymbol().Value, 10, 32)
	//
	return uint(n), err == nil && n > 0
}

func asConstants(elements []sexp.SExp) ([]ast.Constant, bool) {
	constants := make([]ast.Constant, len(elements))
	//
	for i, s := range elements {
		var ok bool
		//
		if s.AsSymbol() == nil {
			return nil, false
		} else if constants[i], ok = ast.ParseConstant(s.AsSymbol().Value); !ok {
			return nil, false
		}
	}
	//
	return constants, true
}

func isAssociative(op ast.Op) bool {
	return op == ast.ADD || op == ast.MUL || op == ast.AND || op == ast.OR
}

func isIdentifier(name string) bool {
	for i, c := range name {
		if c != '_' && !unicode.IsLetter(c) && (i == 0 || !unicode.IsDigit(c)) {
			return false
		}
	}
	//
	return name != ""
}
