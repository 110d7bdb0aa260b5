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
package depth

import (
	"cmp"
	"slices"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/taint"
	log "github.com/sirupsen/logrus"
)

// Upper bound on the number of rewrites applied to any one expression.
const maxRewrites = 256

// Optimise rewrites the secret expressions of a program so as to reduce their
// multiplicative depth, returning the number of rewrites applied.  Only the
// critical path of an expression is considered for rewriting, and a rewrite
// is only applied when it strictly reduces the depth of the product it
// replaces.  Two kinds of rewrite are used:
//
// (1) Cone rewriting.  A product whose critical input is a sum of products is
// distributed over that sum, such that the deepest factor is multiplied last
// (e.g. "((a*b)+c)*d" becomes "(a*(b*d))+(c*d)").  Without an intervening sum,
// this reduces to reassociation (e.g. "(a*b)*d" becomes "a*(b*d)").  The same
// applies to conjunction over exclusive-or.
//
// (2) Multi-input gates.  A product of three or more operands, which would
// otherwise be evaluated from left to right, is rebuilt as a tree which
// combines its shallowest operands first.
//
// Factors are never reordered within a product, except in multi-input gates.
// Labels are assumed to be up to date and any node without a label (other
// than a copy of a labelled node) is treated as secret.
func Optimise(g *ast.Graph, labels *taint.Result) (uint, error) {
	var o = optimiser{g, labels, g.Len(), 0}
	//
	for _, fn := range ast.Functions(g) {
		before, _ := o.function(fn, false)
		//
		after, err := o.function(fn, true)
		if err != nil {
			return o.rewrites, err
		}
		//
		if after < before {
			log.Debugf("reduced multiplicative depth of %s from %d to %d", g.Node(fn).(*ast.Function).Name,
				before, after)
		}
	}
	//
	return o.rewrites, nil
}

// Depth returns the multiplicative depth of a given function.  That is, the
// largest number of ciphertext-ciphertext multiplications along any path from
// its parameters to a value it computes.  Multiplications by public values are
// not counted.
func Depth(g *ast.Graph, labels *taint.Result, fn ast.Id) uint {
	var o = optimiser{g, labels, g.Len(), 0}
	//
	depth, _ := o.function(fn, false)
	//
	return depth
}

type optimiser struct {
	graph  *ast.Graph
	labels *taint.Result
	// Nodes allocated from here onwards have no label.
	labelled uint
	rewrites uint
}

// Summary of an expression.
type info struct {
	depth  uint
	secret bool
}

// Determine the depth of a function, optionally rewriting the values of its
// statements as we go.  Variables are assigned the depth of the last value
// written to them, which is exact for straight-line code.
func (o *optimiser) function(fn ast.Id, rewrite bool) (uint, error) {
	var (
		g     = o.graph
		env   = make(map[string]uint)
		depth uint
	)
	//
	for _, id := range ast.PostOrder(g, g.Node(fn).(*ast.Function).Body) {
		var value ast.Id
		//
		switch n := g.Node(id).(type) {
		case *ast.VarDecl:
			value = n.Init
		case *ast.Assign:
			value = n.Value
		case *ast.Return:
			value = n.Value
		}
		//
		if value == ast.NIL {
			continue
		} else if rewrite {
			var err error
			//
			if value, err = o.expression(env, value); err != nil {
				return depth, err
			}
		}
		//
		d := o.info(env, value).depth
		depth = max(depth, d)
		//
		switch n := g.Node(id).(type) {
		case *ast.VarDecl:
			env[n.Name] = d
		case *ast.Assign:
			if name, whole := base(g, n.Target); whole {
				env[name] = d
			} else {
				env[name] = max(env[name], d)
			}
		}
	}
	//
	return depth, nil
}

// Rewrite an expression until no further rewrite applies, returning the node
// which now occupies its position.
func (o *optimiser) expression(env map[string]uint, root ast.Id) (ast.Id, error) {
	for i := 0; i < maxRewrites; i++ {
		next, changed, err := o.search(env, root)
		//
		if err != nil || !changed {
			return next, err
		}
		//
		root = next
		o.rewrites++
	}
	//
	return root, nil
}

// Search along the critical paths of an expression for the first product
// which can be rewritten, and rewrite it.  This returns the node now occupying
// the position of the given node.
func (o *optimiser) search(env map[string]uint, id ast.Id) (ast.Id, bool, error) {
	if next, ok, err := o.rewrite(env, id); ok || err != nil {
		return next, ok, err
	}
	//
	var (
		children = o.graph.Children(id)
		infos    = make([]info, len(children))
		deepest  uint
	)
	//
	for i, c := range children {
		infos[i] = o.info(env, c)
		deepest = max(deepest, infos[i].depth)
	}
	//
	for i, c := range children {
		if infos[i].secret && infos[i].depth == deepest {
			if _, ok, err := o.search(env, c); ok || err != nil {
				return id, ok, err
			}
		}
	}
	//
	return id, false, nil
}

func (o *optimiser) rewrite(env map[string]uint, id ast.Id) (ast.Id, bool, error) {
	switch n := o.graph.Node(id).(type) {
	case *ast.BinaryExpr:
		if isProduct(n.Op) {
			return o.cone(env, id, n)
		}
	case *ast.OperatorExpr:
		if isProduct(n.Op) && len(n.Operands) > 2 {
			return o.gate(env, id, n)
		}
	}
	//
	return id, false, nil
}

// ============================================================================
// Cones
// ============================================================================

// A candidate rewrite of some product "d*x" or "x*d", where x is either "a*b"
// or a sum of "a*b" and c.
type cone struct {
	op ast.Op
	// Indicates d is the left operand of the product.
	left bool
	// Operator of the sum (if applicable).
	sum ast.Op
	// Indicates "a*b" is the left operand of the sum.
	first      bool
	a, b, c, d ast.Id
}

// Attempt to rewrite a given product by distributing it over its critical
// input.
func (o *optimiser) cone(env map[string]uint, v ast.Id, n *ast.BinaryExpr) (ast.Id, bool, error) {
	var current = o.info(env, v).depth
	//
	for _, r := range o.cones(n) {
		if o.estimate(env, r).depth < current {
			next, err := o.apply(v, r)
			return next, true, err
		}
	}
	//
	return v, false, nil
}

// Enumerate the candidate cones rooted at a given product.
func (o *optimiser) cones(n *ast.BinaryExpr) []cone {
	var (
		g     = o.graph
		cones []cone
	)
	//
	for _, left := range []bool{false, true} {
		var x, d = n.Lhs, n.Rhs
		//
		if left {
			x, d = n.Rhs, n.Lhs
		}
		//
		inner, ok := g.Node(x).(*ast.BinaryExpr)
		//
		switch {
		case !ok:
			continue
		case inner.Op == n.Op:
			cones = append(cones, cone{n.Op, left, 0, false, inner.Lhs, inner.Rhs, ast.NIL, d})
		case isSum(n.Op, inner.Op) && pure(g, d):
			for i, y := range []ast.Id{inner.Lhs, inner.Rhs} {
				if p, ok := g.Node(y).(*ast.BinaryExpr); ok && p.Op == n.Op {
					c := inner.Rhs
					//
					if i == 1 {
						c = inner.Lhs
					}
					//
					cones = append(cones, cone{n.Op, left, inner.Op, i == 0, p.Lhs, p.Rhs, c, d})
				}
			}
		}
	}
	//
	return cones
}

// Estimate the result of applying a given cone rewrite.
func (o *optimiser) estimate(env map[string]uint, r cone) info {
	var (
		a, b, d = o.info(env, r.a), o.info(env, r.b), o.info(env, r.d)
		product info
	)
	//
	if r.left {
		product = combine(r.op, combine(r.op, d, a), b)
	} else {
		product = combine(r.op, a, combine(r.op, b, d))
	}
	//
	if r.c == ast.NIL {
		return product
	}
	//
	return combine(r.sum, product, combine(r.op, o.info(env, r.c), d))
}

func (o *optimiser) apply(v ast.Id, r cone) (ast.Id, error) {
	var (
		g       = o.graph
		product ast.Id
		result  ast.Id
	)
	//
	for _, id := range []ast.Id{r.a, r.b, r.c, r.d} {
		g.Detach(id)
	}
	//
	if r.left {
		product = o.binary(v, r.op, o.binary(v, r.op, r.d, r.a), r.b)
	} else {
		product = o.binary(v, r.op, r.a, o.binary(v, r.op, r.b, r.d))
	}
	//
	result = product
	//
	if r.c != ast.NIL {
		var other ast.Id
		//
		if r.left {
			other = o.binary(v, r.op, g.Clone(r.d), r.c)
		} else {
			other = o.binary(v, r.op, r.c, g.Clone(r.d))
		}
		//
		if r.first {
			result = o.binary(v, r.sum, product, other)
		} else {
			result = o.binary(v, r.sum, other, product)
		}
	}
	//
	return result, g.Replace(v, result)
}

// ============================================================================
// Gates
// ============================================================================

type operand struct {
	id ast.Id
	info
}

// Attempt to rebuild a product of many operands as a tree of minimal depth.
func (o *optimiser) gate(env map[string]uint, v ast.Id, n *ast.OperatorExpr) (ast.Id, bool, error) {
	var (
		g        = o.graph
		operands = make([]operand, len(n.Operands))
		current  = o.info(env, v).depth
	)
	//
	for i, id := range n.Operands {
		operands[i] = operand{id, o.info(env, id)}
	}
	//
	estimate := balance(n.Op, operands, func(operand, operand) ast.Id { return ast.NIL })
	//
	if estimate.depth >= current {
		return v, false, nil
	}
	//
	for _, id := range n.Operands {
		g.Detach(id)
	}
	//
	tree := balance(n.Op, operands, func(l, r operand) ast.Id { return o.binary(v, n.Op, l.id, r.id) })
	//
	return tree.id, true, g.Replace(v, tree.id)
}

// Combine operands pairwise, shallowest first, until only one remains.
func balance(op ast.Op, operands []operand, join func(operand, operand) ast.Id) operand {
	operands = slices.Clone(operands)
	//
	for len(operands) > 1 {
		slices.SortStableFunc(operands, func(l, r operand) int {
			if c := cmp.Compare(l.depth, r.depth); c != 0 {
				return c
			} else if l.secret == r.secret {
				return 0
			} else if r.secret {
				return -1
			}
			//
			return 1
		})
		//
		l, r := operands[0], operands[1]
		operands = append(operands[2:], operand{join(l, r), combine(op, l.info, r.info)})
	}
	//
	return operands[0]
}

// ============================================================================
// Helpers
// ============================================================================

// Summarise an expression.  Operator expressions are evaluated from left to
// right.
func (o *optimiser) info(env map[string]uint, id ast.Id) info {
	var g = o.graph
	//
	switch n := g.Node(id).(type) {
	case *ast.Literal, *ast.LiteralMatrix:
		return info{}
	case *ast.Variable:
		return info{env[n.Name], o.secret(id)}
	case *ast.BinaryExpr:
		return combine(n.Op, o.info(env, n.Lhs), o.info(env, n.Rhs))
	case *ast.OperatorExpr:
		acc := o.info(env, n.Operands[0])
		//
		for _, operand := range n.Operands[1:] {
			acc = combine(n.Op, acc, o.info(env, operand))
		}
		//
		return acc
	default:
		acc := info{0, o.secret(id)}
		//
		for _, c := range g.Children(id) {
			ci := o.info(env, c)
			acc = info{max(acc.depth, ci.depth), acc.secret || ci.secret}
		}
		//
		return acc
	}
}

// Determine whether a leaf (or opaque) expression is secret.  Copies made by
// this pass inherit the label of the node they were copied from.
func (o *optimiser) secret(id ast.Id) bool {
	if o.labels == nil {
		return true
	} else if uint(id) >= o.labelled {
		id = o.graph.Origin(id)
	}
	//
	return uint(id) >= o.labelled || o.labels.IsSecret(id)
}

// Allocate a binary expression on behalf of a given node.
func (o *optimiser) binary(origin ast.Id, op ast.Op, lhs ast.Id, rhs ast.Id) ast.Id {
	id := o.graph.NewBinary(op, lhs, rhs)
	o.graph.SetOrigin(id, origin)
	//
	return id
}

func combine(op ast.Op, lhs info, rhs info) info {
	var r = info{max(lhs.depth, rhs.depth), lhs.secret || rhs.secret}
	//
	if lhs.secret && rhs.secret && multiplies(op) {
		r.depth++
	}
	//
	return r
}

// Determine whether an operator multiplies its operands when both are
// encrypted.  Disjunction and exclusive-or are both evaluated using a product
// of their operands.
func multiplies(op ast.Op) bool {
	return op == ast.MUL || op == ast.AND || op == ast.OR || op == ast.XOR
}

func isProduct(op ast.Op) bool {
	return op == ast.MUL || op == ast.AND
}

// Determine whether a product distributes over a given operator.
func isSum(product ast.Op, op ast.Op) bool {
	if product == ast.AND {
		return op == ast.XOR
	}
	//
	return op == ast.ADD || op == ast.SUB
}

// Determine whether an expression can be duplicated without changing the
// behaviour of the program.
func pure(g *ast.Graph, id ast.Id) bool {
	var ok = true
	//
	ast.Walk(g, id, ast.VisitorFunc(func(g *ast.Graph, id ast.Id) bool {
		switch g.Node(id).(type) {
		case *ast.Call, *ast.CallExternal:
			ok = false
		}
		//
		return ok
	}))
	//
	return ok
}

// Identify the variable written by an assignment, and whether it is written
// in its entirety.
func base(g *ast.Graph, target ast.Id) (string, bool) {
	switch n := g.Node(target).(type) {
	case *ast.Variable:
		return n.Name, true
	case *ast.IndexAccess:
		name, _ := base(g, n.Target)
		return name, false
	default:
		return "", false
	}
}
