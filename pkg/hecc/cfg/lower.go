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
package cfg

import (
	"fmt"
	"slices"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/scope"
	"github.com/consensys/go-hecc/pkg/hecc/taint"
	log "github.com/sirupsen/logrus"
)

// Config determines how secret-controlled loops are unrolled.
type Config struct {
	// Number of iterations to unroll for secret loops which declare no bound
	// of their own.  Zero means such loops are rejected.
	LoopBound uint
}

// Lower rewrites every secret-controlled conditional and loop into
// straight-line (data-oblivious) code.  Conditionals execute both branches on
// private copies of the variables they write, after which each such variable
// is updated with an arithmetic select on the (0 or 1) condition.  Loops are
// unrolled up to their bound, with each iteration guarded by a secret
// conditional which is then rewritten in turn.  Constructs are rewritten
// innermost first, and the number of rewrites is returned.
func Lower(g *ast.Graph, labels *taint.Result, config Config) (uint, error) {
	var (
		l       = lowerer{graph: g, config: config}
		targets = make(map[ast.Id]bool)
		order   []ast.Id
	)
	//
	for _, id := range labels.SecretControlled() {
		targets[id] = true
	}
	// Children before parents
	for _, id := range ast.PostOrder(g, g.Root()) {
		if targets[id] {
			order = append(order, id)
		}
	}
	//
	for _, id := range order {
		var err error
		//
		switch g.Node(id).(type) {
		case *ast.If:
			err = l.conditional(id)
		case *ast.While, *ast.For:
			err = l.loop(id)
		}
		//
		if err != nil {
			return l.rewrites, err
		}
	}
	//
	return l.rewrites, nil
}

type lowerer struct {
	graph  *ast.Graph
	config Config
	// Counter used to generate fresh names.
	fresh uint
	// Number of constructs rewritten.
	rewrites uint
}

// Rewrite a secret conditional:
//
//	if (c) { x = 1; } else { x = 2; }
//
// becomes (roughly):
//
//	{ var c' = c; var x' = x; var x'' = x; { x' = 1; } { x'' = 2; } x = c'*x' + (1-c')*x''; }
//
// When both branches end in a return, the tail returns instead assign to
// fresh result variables and a single select is returned.
func (l *lowerer) conditional(id ast.Id) error {
	scopes, err := scope.Resolve(l.graph)
	if err != nil {
		return err
	}
	//
	cfg, err := Build(l.graph, scopes, id)
	if err != nil {
		return err
	}
	//
	var (
		g        = l.graph
		n        = g.Node(id).(*ast.If)
		k        = l.next()
		cond     = fmt.Sprintf("__cond%d", k)
		terminal = n.Else != ast.NIL && taint.Terminates(g, n.Then) && taint.Terminates(g, n.Else)
		stmts    []ast.Id
		selects  []ast.Id
	)
	// Variables declared within the branches are not copied
	writes := slices.DeleteFunc(cfg.Writes(), func(decl ast.Id) bool { return g.IsAncestor(id, decl) })
	//
	condition, then, otherwise := n.Condition, n.Then, n.Else
	g.Detach(condition)
	g.Detach(then)
	//
	if otherwise != ast.NIL {
		g.Detach(otherwise)
	}
	//
	stmts = append(stmts, l.derived(g.NewVarDecl(cond, ast.Scalar(ast.BOOL, true), condition), id))
	// Copy every outer variable written by either branch
	for _, decl := range writes {
		var (
			name     = scope.Name(g, decl)
			datatype = scope.Type(g, decl)
			thenName = fmt.Sprintf("%s__then%d", name, k)
			elseName = name
		)
		//
		stmts = append(stmts, l.derived(g.NewVarDecl(thenName, datatype, g.NewVariable(name)), id))
		rename(g, scopes, then, decl, thenName)
		//
		if otherwise != ast.NIL {
			elseName = fmt.Sprintf("%s__else%d", name, k)
			stmts = append(stmts, l.derived(g.NewVarDecl(elseName, datatype, g.NewVariable(name)), id))
			rename(g, scopes, otherwise, decl, elseName)
		}
		//
		if !terminal {
			sel := g.NewSelect(cond, g.NewVariable(thenName), g.NewVariable(elseName))
			selects = append(selects, l.derived(g.NewAssign(name, sel), id))
		}
	}
	//
	if terminal {
		ret, err := l.terminal(id, k, then, otherwise)
		if err != nil {
			return err
		}
		//
		stmts = append(stmts, ret...)
	} else {
		stmts = append(stmts, block(g, then))
		//
		if otherwise != ast.NIL {
			stmts = append(stmts, block(g, otherwise))
		}
		//
		stmts = append(stmts, selects...)
	}
	//
	log.Debugf("lowered secret conditional #%d (%d variables written)", id, len(selects))
	//
	l.rewrites++
	//
	return g.Replace(id, l.derived(g.NewBlock(stmts...), id))
}

// Rewrite the tail returns of both branches of a terminal conditional,
// producing the statements which replace the conditional.
func (l *lowerer) terminal(id ast.Id, k uint, then ast.Id, otherwise ast.Id) ([]ast.Id, error) {
	var (
		g        = l.graph
		fn       = ast.EnclosingFunction(g, id)
		datatype = ast.Scalar(ast.VOID, false)
		rt       = fmt.Sprintf("__rt%d", k)
		re       = fmt.Sprintf("__re%d", k)
		stmts    []ast.Id
	)
	//
	if fn != ast.NIL {
		datatype = g.Node(fn).(*ast.Function).Result
	}
	//
	void := datatype.Kind == ast.VOID
	//
	if !void {
		stmts = append(stmts, l.derived(g.NewVarDecl(rt, datatype, ast.NIL), id))
		stmts = append(stmts, l.derived(g.NewVarDecl(re, datatype, ast.NIL), id))
	}
	//
	then, otherwise = block(g, then), block(g, otherwise)
	//
	for _, branch := range []struct {
		body ast.Id
		name string
	}{{then, rt}, {otherwise, re}} {
		returns := tailReturns(g, branch.body)
		if len(returns) == 0 {
			return nil, ast.NewError(ast.UnsupportedControlFlow, id, "branch does not end in return")
		}
		//
		for _, ret := range returns {
			value := g.Node(ret).(*ast.Return).Value
			//
			if void || value == ast.NIL {
				g.Detach(ret)
				continue
			}
			//
			g.Detach(value)
			//
			if err := g.Replace(ret, l.derived(g.NewAssign(branch.name, value), ret)); err != nil {
				return nil, err
			}
		}
		//
		stmts = append(stmts, branch.body)
	}
	//
	var result = ast.NIL
	//
	if !void {
		result = g.NewSelect(fmt.Sprintf("__cond%d", k), g.NewVariable(rt), g.NewVariable(re))
	}
	//
	return append(stmts, l.derived(g.Add(&ast.Return{result}), id)), nil
}

// Rewrite a secret loop by unrolling it up to its bound:
//
//	while (c) { body }
//
// becomes:
//
//	{ var cont = 1; cont = cont * c; if (cont) { body } ... }
//
// where the guarded iteration is repeated once per iteration of the bound.
// The generated conditionals are then rewritten themselves.
func (l *lowerer) loop(id ast.Id) error {
	var (
		g         = l.graph
		bound     uint
		init      = ast.NIL
		update    = ast.NIL
		condition ast.Id
		body      ast.Id
	)
	//
	switch n := g.Node(id).(type) {
	case *ast.While:
		bound, condition, body = n.Bound, n.Condition, n.Body
	case *ast.For:
		bound, init, condition, update, body = n.Bound, n.Init, n.Condition, n.Update, n.Body
	}
	//
	if bound == 0 {
		bound = l.config.LoopBound
	}
	//
	if bound == 0 {
		return ast.NewError(ast.LoopBoundExceeded, id, "secret loop has no iteration bound")
	}
	//
	iterations := bound
	// Public parts of the condition may determine the trip count
	if n, ok := g.Node(id).(*ast.For); ok {
		if trips, known := l.tripCount(n, bound); known && trips > bound {
			return ast.NewError(ast.LoopBoundExceeded, id, "loop requires more than %d iterations", bound)
		} else if known {
			iterations = trips
		}
	}
	//
	var (
		k      = l.next()
		cont   = fmt.Sprintf("__cont%d", k)
		stmts  []ast.Id
		guards []ast.Id
	)
	//
	if init != ast.NIL {
		g.Detach(init)
		stmts = append(stmts, init)
	}
	//
	stmts = append(stmts, l.derived(g.NewVarDecl(cont, ast.Scalar(ast.BOOL, true), g.NewLiteral(ast.Int(1))), id))
	//
	for range iterations {
		step := g.NewBinary(ast.MUL, g.NewVariable(cont), g.Clone(condition))
		iteration := g.NewBlock(g.Clone(body))
		//
		if update != ast.NIL {
			g.InsertStatements(iteration, 1, g.Clone(update))
		}
		//
		guard := l.derived(g.Add(&ast.If{g.NewVariable(cont), iteration, ast.NIL}), id)
		stmts = append(stmts, l.derived(g.NewAssign(cont, step), id), guard)
		guards = append(guards, guard)
	}
	//
	log.Debugf("unrolled secret loop #%d (%d iterations)", id, iterations)
	//
	l.rewrites++
	//
	if err := g.Replace(id, l.derived(g.NewBlock(stmts...), id)); err != nil {
		return err
	}
	//
	for _, guard := range guards {
		if err := l.conditional(guard); err != nil {
			return err
		}
	}
	//
	return nil
}

// Determine the number of iterations permitted by a loop's condition, by
// simulating its counter.  This requires an initialiser and update over a
// single counter which the body does not modify, and one or more conjuncts of
// the condition which depend only on that counter.  The result is only
// computed up to one more than the bound.
func (l *lowerer) tripCount(n *ast.For, bound uint) (uint, bool) {
	var (
		g         = l.graph
		env       = make(map[string]ast.Constant)
		conjuncts []ast.Id
		counter   string
	)
	//
	if n.Init == ast.NIL || n.Condition == ast.NIL || n.Update == ast.NIL {
		return 0, false
	}
	//
	switch init := g.Node(n.Init).(type) {
	case *ast.VarDecl:
		counter = init.Name
		//
		if v, ok := evaluate(g, init.Init, env); ok {
			env[counter] = v
		}
	case *ast.Assign:
		if target, ok := g.Node(init.Target).(*ast.Variable); ok {
			counter = target.Name
			//
			if v, ok := evaluate(g, init.Value, env); ok {
				env[counter] = v
			}
		}
	}
	//
	update, ok := g.Node(n.Update).(*ast.Assign)
	if len(env) == 0 || !ok || writes(g, n.Body, counter) {
		return 0, false
	} else if target, ok := g.Node(update.Target).(*ast.Variable); !ok || target.Name != counter {
		return 0, false
	}
	//
	for _, c := range split(g, n.Condition) {
		if _, ok := evaluate(g, c, env); ok {
			conjuncts = append(conjuncts, c)
		}
	}
	//
	if len(conjuncts) == 0 {
		return 0, false
	}
	//
	for trips := uint(0); trips <= bound; trips++ {
		for _, c := range conjuncts {
			if v, ok := evaluate(g, c, env); !ok {
				return 0, false
			} else if !v.AsBool() {
				return trips, true
			}
		}
		//
		v, ok := evaluate(g, update.Value, env)
		if !ok {
			return 0, false
		}
		//
		env[counter] = v
	}
	//
	return bound + 1, true
}

func (l *lowerer) next() uint {
	l.fresh++
	return l.fresh
}

// Record that a generated node stands in for a given source node.
func (l *lowerer) derived(id ast.Id, origin ast.Id) ast.Id {
	l.graph.SetOrigin(id, l.graph.Origin(origin))
	return id
}

// Rename every access within a subtree which resolves to a given declaration.
func rename(g *ast.Graph, scopes *scope.Tree, root ast.Id, decl ast.Id, name string) {
	ast.Walk(g, root, ast.VisitorFunc(func(g *ast.Graph, id ast.Id) bool {
		if v, ok := g.Node(id).(*ast.Variable); ok {
			if d, ok := scopes.Declaration(id); ok && d == decl {
				v.Name = name
			}
		}
		//
		return true
	}))
}

// Determine whether a statement assigns a given variable name.
func writes(g *ast.Graph, stmt ast.Id, name string) bool {
	found := false
	//
	ast.Walk(g, stmt, ast.VisitorFunc(func(g *ast.Graph, id ast.Id) bool {
		if assign, ok := g.Node(id).(*ast.Assign); ok {
			if v, ok := g.Node(assign.Target).(*ast.Variable); ok && v.Name == name {
				found = true
			}
		}
		//
		return !found
	}))
	//
	return found
}

// Ensure a statement is a block, so that its declarations remain local.
func block(g *ast.Graph, stmt ast.Id) ast.Id {
	if _, ok := g.Node(stmt).(*ast.Block); ok {
		return stmt
	}
	//
	return g.NewBlock(stmt)
}

// Find the returns in tail position of a terminating statement.  Public
// conditionals in tail position contribute the returns of both branches.
func tailReturns(g *ast.Graph, id ast.Id) []ast.Id {
	if id == ast.NIL {
		return nil
	}
	//
	switch n := g.Node(id).(type) {
	case *ast.Return:
		return []ast.Id{id}
	case *ast.If:
		return append(tailReturns(g, n.Then), tailReturns(g, n.Else)...)
	case *ast.Block:
		if len(n.Statements) > 0 {
			return tailReturns(g, n.Statements[len(n.Statements)-1])
		}
	}
	//
	return nil
}

// Split a condition into its conjuncts.
func split(g *ast.Graph, id ast.Id) []ast.Id {
	switch n := g.Node(id).(type) {
	case *ast.BinaryExpr:
		if n.Op == ast.AND {
			return append(split(g, n.Lhs), split(g, n.Rhs)...)
		}
	case *ast.OperatorExpr:
		if n.Op == ast.AND {
			var conjuncts []ast.Id
			//
			for _, c := range n.Operands {
				conjuncts = append(conjuncts, split(g, c)...)
			}
			//
			return conjuncts
		}
	}
	//
	return []ast.Id{id}
}

// Evaluate a public expression over known variables.
func evaluate(g *ast.Graph, id ast.Id, env map[string]ast.Constant) (ast.Constant, bool) {
	var empty ast.Constant
	//
	if id == ast.NIL {
		return empty, false
	}
	//
	switch n := g.Node(id).(type) {
	case *ast.Literal:
		return n.Value, true
	case *ast.Variable:
		v, ok := env[n.Name]
		return v, ok
	case *ast.UnaryExpr:
		if v, ok := evaluate(g, n.Operand, env); ok {
			r, err := ast.ApplyUnary(n.Op, v)
			return r, err == nil
		}
	case *ast.BinaryExpr:
		lhs, ok1 := evaluate(g, n.Lhs, env)
		rhs, ok2 := evaluate(g, n.Rhs, env)
		//
		if ok1 && ok2 {
			r, err := ast.Apply(n.Op, lhs, rhs)
			return r, err == nil
		}
	case *ast.OperatorExpr:
		if len(n.Operands) == 0 {
			return empty, false
		}
		//
		acc, ok := evaluate(g, n.Operands[0], env)
		//
		for _, c := range n.Operands[1:] {
			v, ok2 := evaluate(g, c, env)
			if !ok || !ok2 {
				return empty, false
			}
			//
			var err error
			if acc, err = ast.Apply(n.Op, acc, v); err != nil {
				return empty, false
			}
		}
		//
		return acc, ok
	}
	//
	return empty, false
}
