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
package taint

import (
	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/extern"
	"github.com/consensys/go-hecc/pkg/hecc/scope"
	log "github.com/sirupsen/logrus"
)

// Analyse classifies every node and variable of a program as public or
// secret.  Labels are propagated forwards from declared secret parameters and
// variables, through assignments (including implicit flows from secret
// conditions) and calls, until a fixed point is reached.  Since labels only
// ever grow, this terminates.  Once complete, the program is checked for
// control flow which cannot be made oblivious.
func Analyse(g *ast.Graph, scopes *scope.Tree, registry *extern.Registry) (*Result, error) {
	a := analyser{g, scopes, registry, newResult(), make(map[ast.Id]Label), true}
	//
	fns := ast.Functions(g)
	// Declared labels
	for _, fn := range fns {
		f := g.Node(fn).(*ast.Function)
		//
		for _, p := range f.Params {
			if g.Node(p).(*ast.Param).Type.Secret {
				a.raise(p, SECRET)
			}
		}
		//
		if f.Result.Secret {
			a.returns[fn] = SECRET
		}
	}
	// Iterate to fixed point
	for iteration := 1; a.changed; iteration++ {
		a.changed = false
		//
		for _, fn := range fns {
			if err := a.stmt(g.Node(fn).(*ast.Function).Body, PUBLIC); err != nil {
				return nil, err
			}
		}
		//
		log.Debugf("taint iteration %d (changed=%t)", iteration, a.changed)
	}
	// Function nodes carry the label of their result
	for _, fn := range fns {
		a.mark(fn, a.returns[fn])
	}
	//
	for _, fn := range fns {
		if err := a.check(g.Node(fn).(*ast.Function).Body, false); err != nil {
			return nil, err
		}
	}
	//
	return a.result, nil
}

type analyser struct {
	graph    *ast.Graph
	scopes   *scope.Tree
	registry *extern.Registry
	result   *Result
	// Labels of function results.
	returns map[ast.Id]Label
	// Indicates some label was raised in the current iteration.
	changed bool
}

// Raise the label of a variable.
func (a *analyser) raise(decl ast.Id, l Label) {
	if a.result.vars[decl] < l {
		a.result.vars[decl] = l
		a.changed = true
	}
	//
	a.mark(decl, a.result.vars[decl])
}

// Raise the label of a node.
func (a *analyser) mark(id ast.Id, l Label) {
	if a.result.nodes[id] < l {
		a.result.nodes[id] = l
		a.changed = true
	}
}

// Analyse a statement executing under a given "program counter" label, which
// is secret when execution of the statement depends upon a secret condition.
func (a *analyser) stmt(id ast.Id, pc Label) error {
	if id == ast.NIL {
		return nil
	}
	//
	switch n := a.graph.Node(id).(type) {
	case *ast.Block:
		for _, s := range n.Statements {
			if err := a.stmt(s, pc); err != nil {
				return err
			}
		}
	case *ast.VarDecl:
		l := pc
		//
		if n.Type.Secret {
			l = SECRET
		}
		//
		if n.Init != ast.NIL {
			init, err := a.expr(n.Init)
			if err != nil {
				return err
			}
			//
			l = l.Join(init)
		}
		//
		a.raise(id, l)
	case *ast.Assign:
		l, err := a.expr(n.Value)
		if err != nil {
			return err
		}
		// Labels of the target itself (including any indices)
		target, err := a.expr(n.Target)
		if err != nil {
			return err
		}
		//
		if index, ok := a.graph.Node(n.Target).(*ast.IndexAccess); ok {
			// Writing at a secret index reveals nothing, but taints the matrix.
			l = l.Join(a.result.Label(index.Row)).Join(a.result.Label(index.Column))
		}
		//
		l = l.Join(pc)
		//
		a.raise(a.scopes.Target(a.graph, id), l)
		a.mark(id, l.Join(target))
	case *ast.If:
		c, err := a.condition(id, n.Condition)
		if err != nil {
			return err
		}
		//
		if err := a.stmt(n.Then, pc.Join(c)); err != nil {
			return err
		}
		//
		return a.stmt(n.Else, pc.Join(c))
	case *ast.While:
		c, err := a.condition(id, n.Condition)
		if err != nil {
			return err
		}
		//
		return a.stmt(n.Body, pc.Join(c))
	case *ast.For:
		if err := a.stmt(n.Init, pc); err != nil {
			return err
		}
		//
		c, err := a.condition(id, n.Condition)
		if err != nil {
			return err
		}
		//
		if err := a.stmt(n.Body, pc.Join(c)); err != nil {
			return err
		}
		//
		return a.stmt(n.Update, pc.Join(c))
	case *ast.Return:
		l := pc
		//
		if n.Value != ast.NIL {
			v, err := a.expr(n.Value)
			if err != nil {
				return err
			}
			//
			l = l.Join(v)
		}
		//
		a.mark(id, l)
		//
		if fn := ast.EnclosingFunction(a.graph, id); fn != ast.NIL && a.returns[fn] < l {
			a.returns[fn] = l
			a.changed = true
		}
	case *ast.Function:
		// Nested function declarations are not supported.
		return ast.NewError(ast.UnsupportedControlFlow, id, "nested function %s", n.Name)
	default:
		// Expression statement
		_, err := a.expr(id)
		return err
	}
	//
	return nil
}

func (a *analyser) condition(construct ast.Id, cond ast.Id) (Label, error) {
	if cond == ast.NIL {
		return PUBLIC, nil
	}
	//
	c, err := a.expr(cond)
	if err != nil {
		return c, err
	}
	//
	if c == SECRET {
		a.result.controlled[construct] = true
	}
	//
	a.mark(construct, c)
	//
	return c, nil
}

func (a *analyser) expr(id ast.Id) (Label, error) {
	var l Label
	//
	switch n := a.graph.Node(id).(type) {
	case *ast.Literal, *ast.LiteralMatrix:
		l = PUBLIC
	case *ast.Variable:
		decl, ok := a.scopes.Declaration(id)
		if !ok {
			return l, ast.NewError(ast.UnboundVariable, id, "unknown variable %s", n.Name)
		}
		//
		l = a.result.vars[decl]
	case *ast.MatrixSize:
		// Dimensions are never secret
		if _, err := a.expr(n.Operand); err != nil {
			return l, err
		}
	case *ast.Call:
		fn, ok := a.scopes.Declaration(id)
		if !ok {
			return l, ast.NewError(ast.UnboundVariable, id, "unknown function %s", n.Name)
		}
		//
		params := a.graph.Node(fn).(*ast.Function).Params
		if len(params) != len(n.Args) {
			return l, ast.NewError(ast.TypeMismatch, id, "%s expects %d arguments, found %d", n.Name,
				len(params), len(n.Args))
		}
		//
		for i, arg := range n.Args {
			v, err := a.expr(arg)
			if err != nil {
				return l, err
			}
			//
			a.raise(params[i], v)
		}
		//
		l = a.returns[fn]
	case *ast.CallExternal:
		decl, ok := a.registry.Lookup(n.Name)
		if !ok {
			return l, ast.NewError(ast.UnknownExternalDeclaration, id, "undeclared external function %s", n.Name)
		}
		//
		args, err := a.exprs(n.Args)
		if err != nil {
			return l, err
		}
		//
		switch {
		case decl.SecretResult:
			l = SECRET
		case decl.SideEffectFree && decl.PublicResult:
			l = PUBLIC
		default:
			l = args
		}
	default:
		var err error
		//
		if l, err = a.exprs(n.Children()); err != nil {
			return l, err
		}
	}
	//
	a.mark(id, l)
	//
	return a.result.nodes[id], nil
}

// Join the labels of zero or more expressions.
func (a *analyser) exprs(ids []ast.Id) (Label, error) {
	l := PUBLIC
	//
	for _, id := range ids {
		if id == ast.NIL {
			continue
		}
		//
		v, err := a.expr(id)
		if err != nil {
			return l, err
		}
		//
		l = l.Join(v)
	}
	//
	return l, nil
}
