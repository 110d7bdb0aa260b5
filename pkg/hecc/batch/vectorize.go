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
package batch

import (
	"fmt"
	"slices"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/cfg"
	"github.com/consensys/go-hecc/pkg/hecc/scope"
	"github.com/consensys/go-hecc/pkg/hecc/taint"
	"github.com/consensys/go-hecc/pkg/util/matrix"
	log "github.com/sirupsen/logrus"
)

// Vectorize packs independent secret operations of identical shape into
// vector operations.  Candidates are the right-hand sides of declarations,
// assignments and returns whose root is a secret arithmetic operation over
// variables, literals and constant-index element accesses.  Candidates within
// the same block are grouped by shape, and each group is packed greedily into
// batches of up to the slot width.  Operations whose operands are already
// aligned (i.e. element i sits at slot i) are placed first, since they need no
// rotation.  Operations without peers are left untouched.
//
// Each batch is computed into a fresh vector variable declared before its
// earliest member, from which each member then extracts its slot.  Operations
// are only batched when none of the variables they read is modified between
// that declaration and the operation itself.
func Vectorize(g *ast.Graph, labels *taint.Result, config Config) ([]Batch, error) {
	if config.SlotWidth < 2 {
		return nil, nil
	}
	//
	scopes, err := scope.Resolve(g)
	if err != nil {
		return nil, err
	}
	//
	var (
		v      = vectoriser{g, scopes, labels, config, nil}
		blocks []ast.Id
	)
	// Collect blocks before any are modified
	ast.Walk(g, g.Root(), ast.VisitorFunc(func(g *ast.Graph, id ast.Id) bool {
		if _, ok := g.Node(id).(*ast.Block); ok {
			blocks = append(blocks, id)
		}
		//
		return true
	}))
	//
	for _, block := range blocks {
		if err := v.block(block); err != nil {
			return v.batches, err
		}
	}
	// Leaves were shared between members and vectors
	g.Reconcile()
	//
	log.Debugf("formed %d batches", len(v.batches))
	//
	return v.batches, g.Validate()
}

type vectoriser struct {
	graph   *ast.Graph
	scopes  *scope.Tree
	labels  *taint.Result
	config  Config
	batches []Batch
}

func (v *vectoriser) block(block ast.Id) error {
	var (
		g          = v.graph
		statements = slices.Clone(g.Node(block).(*ast.Block).Statements)
		writes     = make([]map[ast.Id]bool, len(statements))
		groups     = make(map[string][]*member)
		signatures []string
	)
	//
	for i, stmt := range statements {
		flow, err := cfg.Build(g, v.scopes, stmt)
		if err != nil {
			return err
		}
		//
		writes[i] = make(map[ast.Id]bool)
		//
		for _, decl := range flow.Writes() {
			writes[i][decl] = true
		}
		//
		if m, signature := v.candidate(stmt, i); m != nil {
			if _, ok := groups[signature]; !ok {
				signatures = append(signatures, signature)
			}
			//
			groups[signature] = append(groups[signature], m)
		}
	}
	//
	for _, signature := range signatures {
		if err := v.group(block, statements, writes, signature, groups[signature]); err != nil {
			return err
		}
	}
	//
	return nil
}

// Pack a group of operations with the same signature into batches.
func (v *vectoriser) group(block ast.Id, statements []ast.Id, writes []map[ast.Id]bool, signature string,
	members []*member) error {
	//
	for len(members) > 0 {
		var (
			width    = v.config.SlotWidth
			first    = members[0].index
			slots    = make([]*member, width)
			deferred []*member
		)
		// Determine whether a member can be evaluated ahead of its statement.
		independent := func(m *member) bool {
			for j := first; j < m.index; j++ {
				for _, r := range m.reads {
					if writes[j][r] {
						return false
					}
				}
			}
			//
			return true
		}
		// The earliest member always has a slot.
		placed := make(map[*member]bool)
		slot, _ := members[0].place(slots, false)
		slots[slot], placed[members[0]] = members[0], true
		// Then aligned members, followed by the remainder
		for _, aligned := range []bool{true, false} {
			for _, m := range members {
				if placed[m] || !independent(m) {
					continue
				} else if slot, ok := m.place(slots, aligned); ok {
					slots[slot] = m
					placed[m] = true
				}
			}
		}
		//
		for _, m := range members {
			if !placed[m] {
				deferred = append(deferred, m)
			}
		}
		//
		if len(placed) > 1 {
			if err := v.materialise(block, statements[first], signature, slots); err != nil {
				return err
			}
		}
		//
		members = deferred
	}
	//
	return nil
}

// Find a slot for a member, either at its preferred (aligned) slot or, when
// alignment is not required, at the first available slot.
func (p *member) place(slots []*member, aligned bool) (uint, bool) {
	var limit = min(p.limit, uint(len(slots)))
	//
	if p.preferred >= 0 && uint(p.preferred) < limit && slots[p.preferred] == nil {
		return uint(p.preferred), true
	} else if aligned {
		return 0, false
	}
	//
	for i := range limit {
		if slots[i] == nil {
			return i, true
		}
	}
	//
	return 0, false
}

// Construct the vector computation for a batch, and redirect each member to
// its slot.
func (v *vectoriser) materialise(block ast.Id, before ast.Id, signature string, slots []*member) error {
	var (
		g       = v.graph
		width   = uint(len(slots))
		name    = fmt.Sprintf("__batch%d", len(v.batches)+1)
		batch   = Batch{Name: name, Signature: signature}
		members []*member
		indices []uint
	)
	//
	for slot, m := range slots {
		if m != nil {
			members = append(members, m)
			indices = append(indices, uint(slot))
			batch.Members = append(batch.Members, m.root)
			batch.Slots = append(batch.Slots, uint(slot))
			batch.Rotations += m.rotations(uint(slot))
		}
	}
	//
	position := 0
	vector := v.vector(members[0].root, members, indices, width, &position)
	kind := ast.INT
	//
	if v.isFloat(members) {
		kind = ast.FLOAT
	}
	//
	datatype := ast.Datatype{Kind: kind, Secret: true, Rows: 1, Cols: width}
	batch.Decl = g.NewVarDecl(name, datatype, vector)
	//
	g.InsertStatements(block, slices.Index(g.Node(block).(*ast.Block).Statements, before), batch.Decl)
	//
	for i, m := range members {
		access := g.Add(&ast.IndexAccess{g.NewVariable(name), g.NewLiteral(ast.Int(int64(indices[i]))), ast.NIL})
		g.SetOrigin(access, m.root)
		//
		if err := g.Replace(m.root, access); err != nil {
			return err
		}
	}
	//
	log.Debugf("batch %s", batch.String())
	//
	v.batches = append(v.batches, batch)
	//
	return nil
}

// Construct the vector equivalent of an operation tree, using the tree of the
// first member as a template.  Each leaf position becomes a vector whose slot
// i holds the corresponding leaf of the member placed at slot i.
func (v *vectoriser) vector(template ast.Id, members []*member, slots []uint, width uint, position *int) ast.Id {
	var g = v.graph
	//
	if n, ok := g.Node(template).(*ast.BinaryExpr); ok {
		lhs := v.vector(n.Lhs, members, slots, width, position)
		rhs := v.vector(n.Rhs, members, slots, width, position)
		//
		return g.NewBinary(n.Op, lhs, rhs)
	}
	//
	var (
		p     = *position
		terms []ast.Id
	)
	//
	*position = p + 1
	// Constant leaves form a single constant vector
	if _, ok := g.Node(template).(*ast.Literal); ok {
		values := make([]ast.Constant, width)
		//
		for i := range values {
			values[i] = ast.Int(0)
		}
		//
		for i, m := range members {
			values[slots[i]] = g.Node(m.leaves[p].node).(*ast.Literal).Value
		}
		//
		return g.Add(&ast.LiteralMatrix{matrix.Vector(values...)})
	}
	//
	for i, m := range members {
		var (
			l       = m.leaves[p]
			operand ast.Id
		)
		//
		if l.element {
			operand = g.Share(g.Node(l.node).(*ast.IndexAccess).Target)
			// Bring the element into its slot
			if offset := int64(l.offset) - int64(slots[i]); offset != 0 {
				operand = g.Add(&ast.Rotate{operand, g.NewLiteral(ast.Int(offset))})
			}
		} else {
			operand = g.Share(l.node)
		}
		//
		terms = append(terms, g.NewBinary(ast.MUL, operand, g.Add(&ast.LiteralMatrix{mask(width, slots[i])})))
	}
	//
	if len(terms) == 1 {
		return terms[0]
	}
	//
	return g.Add(&ast.OperatorExpr{ast.ADD, terms})
}

func (v *vectoriser) isFloat(members []*member) bool {
	for _, m := range members {
		for _, l := range m.leaves {
			if lit, ok := v.graph.Node(l.node).(*ast.Literal); ok && lit.Value.Kind() == ast.FLOAT {
				return true
			}
		}
	}
	//
	return false
}

// Determine whether a statement computes a batchable operation, returning its
// signature if so.
func (v *vectoriser) candidate(stmt ast.Id, index int) (*member, string) {
	var (
		g    = v.graph
		root = ast.NIL
	)
	//
	switch n := g.Node(stmt).(type) {
	case *ast.VarDecl:
		root = n.Init
	case *ast.Assign:
		root = n.Value
	case *ast.Return:
		root = n.Value
	}
	//
	if root == ast.NIL || v.labels == nil || !v.labels.IsSecret(root) {
		return nil, ""
	} else if _, ok := g.Node(root).(*ast.BinaryExpr); !ok {
		return nil, ""
	}
	//
	m := &member{root: root, index: index, preferred: -1, limit: v.config.SlotWidth}
	signature, ok := v.shape(root, m)
	//
	if !ok {
		return nil, ""
	}
	// Aligned when every element leaf has the same offset
	var offsets []uint
	//
	for _, l := range m.leaves {
		if l.element {
			offsets = append(offsets, l.offset)
			m.limit = min(m.limit, l.length)
		}
	}
	//
	slices.Sort(offsets)
	//
	if len(offsets) > 0 && offsets[0] == offsets[len(offsets)-1] {
		m.preferred = int(offsets[0])
	}
	//
	return m, signature
}

// Compute the shape of an operation tree, collecting its leaves and the
// variables it reads.
func (v *vectoriser) shape(id ast.Id, m *member) (string, bool) {
	var g = v.graph
	//
	switch n := g.Node(id).(type) {
	case *ast.BinaryExpr:
		if n.Op != ast.ADD && n.Op != ast.SUB && n.Op != ast.MUL {
			return "", false
		}
		//
		lhs, ok1 := v.shape(n.Lhs, m)
		rhs, ok2 := v.shape(n.Rhs, m)
		//
		return fmt.Sprintf("(%s %s %s)", n.Op, lhs, rhs), ok1 && ok2
	case *ast.Literal:
		if !n.Value.IsNumeric() {
			return "", false
		}
		//
		m.leaves = append(m.leaves, leaf{node: id})
		//
		return "c", true
	case *ast.Variable:
		decl, ok := v.scopes.Declaration(id)
		if !ok || scope.Type(g, decl).IsMatrix() {
			return "", false
		}
		//
		m.reads = append(m.reads, decl)
		m.leaves = append(m.leaves, leaf{node: id})
		//
		return "v", true
	case *ast.IndexAccess:
		l, decl, ok := v.element(id, n)
		if !ok {
			return "", false
		}
		//
		m.reads = append(m.reads, decl)
		m.leaves = append(m.leaves, l)
		//
		return "e", true
	default:
		return "", false
	}
}

// Determine whether an index access reads a constant position from a vector
// (or matrix) variable of known dimensions.
func (v *vectoriser) element(id ast.Id, n *ast.IndexAccess) (leaf, ast.Id, bool) {
	var g = v.graph
	//
	if _, ok := g.Node(n.Target).(*ast.Variable); !ok {
		return leaf{}, ast.NIL, false
	}
	//
	decl, ok := v.scopes.Declaration(n.Target)
	datatype := scope.Type(g, decl)
	//
	if !ok || !datatype.IsMatrix() || datatype.Rows == matrix.Unknown || datatype.Cols == matrix.Unknown {
		return leaf{}, ast.NIL, false
	}
	//
	row, ok1 := g.Node(n.Row).(*ast.Literal)
	if !ok1 || row.Value.AsInt() < 0 {
		return leaf{}, ast.NIL, false
	}
	//
	var (
		length = datatype.Rows * datatype.Cols
		offset = uint(row.Value.AsInt())
	)
	//
	if n.Column != ast.NIL {
		col, ok2 := g.Node(n.Column).(*ast.Literal)
		if !ok2 || col.Value.AsInt() < 0 || uint(col.Value.AsInt()) >= datatype.Cols {
			return leaf{}, ast.NIL, false
		}
		//
		offset = offset*datatype.Cols + uint(col.Value.AsInt())
	}
	//
	if offset >= length {
		return leaf{}, ast.NIL, false
	}
	//
	return leaf{id, true, offset, length}, decl, true
}
