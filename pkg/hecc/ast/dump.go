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
	"strconv"

	"github.com/consensys/go-hecc/pkg/util/matrix"
	"github.com/consensys/go-hecc/pkg/util/source/sexp"
)

// Field is one entry in the structural dump of a node.  A field holds either a
// child node, or (when Child is NIL) a literal attribute rendered as text.
type Field struct {
	Name    string
	Child   Id
	Literal string
}

func child(name string, id Id) Field {
	return Field{name, id, ""}
}

func attr(name string, value any) Field {
	return Field{name, NIL, fmt.Sprintf("%v", value)}
}

func children(name string, ids []Id) []Field {
	fields := make([]Field, len(ids))
	//
	for i, id := range ids {
		fields[i] = child(fmt.Sprintf("%s[%d]", name, i), id)
	}
	//
	return fields
}

// KindName returns a short name identifying the kind of a node.
func KindName(n Node) string {
	switch n.(type) {
	case *Literal:
		return "Literal"
	case *LiteralMatrix:
		return "LiteralMatrix"
	case *MatrixExpr:
		return "MatrixExpr"
	case *Variable:
		return "Variable"
	case *UnaryExpr:
		return "UnaryExpr"
	case *BinaryExpr:
		return "BinaryExpr"
	case *OperatorExpr:
		return "OperatorExpr"
	case *IndexAccess:
		return "IndexAccess"
	case *Rotate:
		return "Rotate"
	case *Transpose:
		return "Transpose"
	case *MatrixSize:
		return "MatrixSize"
	case *Call:
		return "Call"
	case *CallExternal:
		return "CallExternal"
	case *If:
		return "If"
	case *For:
		return "For"
	case *While:
		return "While"
	case *VarDecl:
		return "VarDecl"
	case *Function:
		return "Function"
	case *Param:
		return "Param"
	case *Block:
		return "Block"
	case *Assign:
		return "Assign"
	case *Return:
		return "Return"
	default:
		panic("unknown node encountered")
	}
}

// Fields returns the structural dump of a given node, as an ordered sequence
// of named children and literal attributes.  This is sufficient to display or
// reconstruct the node.
func Fields(g *Graph, id Id) []Field {
	switch n := g.Node(id).(type) {
	case *Literal:
		return []Field{attr("value", n.Value)}
	case *LiteralMatrix:
		return []Field{attr("value", matrix.String(n.Value, Constant.String))}
	case *MatrixExpr:
		return append([]Field{attr("rows", n.Elements.Rows()), attr("cols", n.Elements.Cols())},
			children("element", n.Elements.Values())...)
	case *Variable:
		return []Field{attr("name", n.Name)}
	case *UnaryExpr:
		return []Field{attr("op", n.Op), child("operand", n.Operand)}
	case *BinaryExpr:
		return []Field{attr("op", n.Op), child("lhs", n.Lhs), child("rhs", n.Rhs)}
	case *OperatorExpr:
		return append([]Field{attr("op", n.Op)}, children("operand", n.Operands)...)
	case *IndexAccess:
		return []Field{child("target", n.Target), child("row", n.Row), child("column", n.Column)}
	case *Rotate:
		return []Field{child("operand", n.Operand), child("offset", n.Offset)}
	case *Transpose:
		return []Field{child("operand", n.Operand)}
	case *MatrixSize:
		return []Field{child("operand", n.Operand), attr("dimension", n.Dimension)}
	case *Call:
		return append([]Field{attr("name", n.Name)}, children("arg", n.Args)...)
	case *CallExternal:
		return append([]Field{attr("name", n.Name)}, children("arg", n.Args)...)
	case *If:
		return []Field{child("condition", n.Condition), child("then", n.Then), child("else", n.Else)}
	case *For:
		return []Field{child("init", n.Init), child("condition", n.Condition), child("update", n.Update),
			child("body", n.Body), attr("bound", n.Bound)}
	case *While:
		return []Field{child("condition", n.Condition), child("body", n.Body), attr("bound", n.Bound)}
	case *VarDecl:
		return []Field{attr("name", n.Name), attr("type", n.Type), child("init", n.Init)}
	case *Function:
		fields := []Field{attr("name", n.Name), attr("result", n.Result)}
		fields = append(fields, children("param", n.Params)...)
		//
		return append(fields, child("body", n.Body))
	case *Param:
		return []Field{attr("name", n.Name), attr("type", n.Type)}
	case *Block:
		return children("statement", n.Statements)
	case *Assign:
		return []Field{child("target", n.Target), child("value", n.Value)}
	case *Return:
		return []Field{child("value", n.Value)}
	default:
		panic("unknown node encountered")
	}
}

// ============================================================================
// S-Expression rendering
// ============================================================================

// Format renders the subtree rooted at a given node in the S-expression
// surface syntax, breaking lines to fit a given width where possible.
func Format(g *Graph, id Id, width uint) string {
	formatter := sexp.NewFormatter(width)
	formatter.Add(&sexp.SFormatter{Head: "defun", Priority: 0})
	formatter.Add(&sexp.LFormatter{Head: "block", Priority: 0})
	formatter.Add(&sexp.SFormatter{Head: "if", Priority: 1})
	formatter.Add(&sexp.SFormatter{Head: "while", Priority: 1})
	formatter.Add(&sexp.SFormatter{Head: "for", Priority: 1})
	formatter.Add(&sexp.IFormatter{Head: "=", Priority: 3})
	formatter.Add(&sexp.IFormatter{Head: "var", Priority: 3})
	//
	return formatter.Format(Dump(g, id))
}

// Dump converts the subtree rooted at a given node into the S-expression
// surface syntax.
func Dump(g *Graph, id Id) sexp.SExp {
	if id == NIL {
		return sexp.EmptyList()
	}
	//
	switch n := g.Node(id).(type) {
	case *Literal:
		return sexp.NewSymbol(n.Value.String())
	case *LiteralMatrix:
		return dumpMatrix(n.Value, func(c Constant) sexp.SExp { return sexp.NewSymbol(c.String()) })
	case *MatrixExpr:
		return dumpMatrix(n.Elements, func(e Id) sexp.SExp { return Dump(g, e) })
	case *Variable:
		return sexp.NewSymbol(n.Name)
	case *UnaryExpr:
		return dumpList(n.Op.String(), Dump(g, n.Operand))
	case *BinaryExpr:
		return dumpList(n.Op.String(), Dump(g, n.Lhs), Dump(g, n.Rhs))
	case *OperatorExpr:
		return dumpList(n.Op.String(), dumpAll(g, n.Operands)...)
	case *IndexAccess:
		if n.Column == NIL {
			return dumpList("get", Dump(g, n.Target), Dump(g, n.Row))
		}
		//
		return dumpList("get", Dump(g, n.Target), Dump(g, n.Row), Dump(g, n.Column))
	case *Rotate:
		return dumpList("rotate", Dump(g, n.Operand), Dump(g, n.Offset))
	case *Transpose:
		return dumpList("transpose", Dump(g, n.Operand))
	case *MatrixSize:
		return dumpList("size", Dump(g, n.Operand), sexp.NewSymbol(strconv.FormatUint(uint64(n.Dimension), 10)))
	case *Call:
		return dumpList("call", append([]sexp.SExp{sexp.NewSymbol(n.Name)}, dumpAll(g, n.Args)...)...)
	case *CallExternal:
		return dumpList("extern", append([]sexp.SExp{sexp.NewSymbol(n.Name)}, dumpAll(g, n.Args)...)...)
	case *If:
		if n.Else == NIL {
			return dumpList("if", Dump(g, n.Condition), Dump(g, n.Then))
		}
		//
		return dumpList("if", Dump(g, n.Condition), Dump(g, n.Then), Dump(g, n.Else))
	case *For:
		return dumpList("for", append(dumpBound(n.Bound), Dump(g, n.Init), Dump(g, n.Condition),
			Dump(g, n.Update), Dump(g, n.Body))...)
	case *While:
		return dumpList("while", append(dumpBound(n.Bound), Dump(g, n.Condition), Dump(g, n.Body))...)
	case *VarDecl:
		elements := append(dumpType(n.Type), sexp.NewSymbol(n.Name))
		//
		if n.Init != NIL {
			elements = append(elements, Dump(g, n.Init))
		}
		//
		return dumpList("var", elements...)
	case *Function:
		params := make([]sexp.SExp, len(n.Params))
		//
		for i, p := range n.Params {
			param := g.Node(p).(*Param)
			params[i] = sexp.NewList(append(dumpType(param.Type), sexp.NewSymbol(param.Name)))
		}
		//
		elements := []sexp.SExp{sexp.NewSymbol(n.Name), sexp.NewList(params)}
		elements = append(elements, dumpType(n.Result)...)
		//
		return dumpList("defun", append(elements, Dump(g, n.Body))...)
	case *Param:
		return sexp.NewList(append(dumpType(n.Type), sexp.NewSymbol(n.Name)))
	case *Block:
		return dumpList("block", dumpAll(g, n.Statements)...)
	case *Assign:
		return dumpList("=", Dump(g, n.Target), Dump(g, n.Value))
	case *Return:
		if n.Value == NIL {
			return dumpList("return")
		}
		//
		return dumpList("return", Dump(g, n.Value))
	default:
		panic("unknown node encountered")
	}
}

func dumpList(head string, elements ...sexp.SExp) *sexp.List {
	return sexp.NewList(append([]sexp.SExp{sexp.NewSymbol(head)}, elements...))
}

func dumpAll(g *Graph, ids []Id) []sexp.SExp {
	elements := make([]sexp.SExp, len(ids))
	//
	for i, id := range ids {
		elements[i] = Dump(g, id)
	}
	//
	return elements
}

func dumpBound(bound uint) []sexp.SExp {
	if bound == 0 {
		return nil
	}
	//
	return []sexp.SExp{sexp.NewSymbol(":bound"), sexp.NewSymbol(strconv.FormatUint(uint64(bound), 10))}
}

func dumpType(t Datatype) []sexp.SExp {
	var (
		elements []sexp.SExp
		kind     sexp.SExp = sexp.NewSymbol(t.Kind.String())
	)
	//
	if t.Secret {
		elements = append(elements, sexp.NewSymbol("secret"))
	}
	//
	if t.IsMatrix() {
		kind = dumpList(t.Kind.String(), sexp.NewSymbol(dimString(t.Rows)), sexp.NewSymbol(dimString(t.Cols)))
	}
	//
	return append(elements, kind)
}

func dumpMatrix[T any](m matrix.Matrix[T], fn func(T) sexp.SExp) sexp.SExp {
	rows := []sexp.SExp{sexp.NewSymbol("matrix")}
	//
	for i := range m.Rows() {
		row := make([]sexp.SExp, m.Cols())
		//
		for j := range m.Cols() {
			row[j] = fn(m.Get(i, j))
		}
		//
		rows = append(rows, sexp.NewArray(row))
	}
	//
	return sexp.NewList(rows)
}
