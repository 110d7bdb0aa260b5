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
	"sort"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
)

// Label classifies a value as either public, or secret (i.e. derived from
// encrypted input).  Labels form a two-point lattice where secret dominates.
type Label uint8

const (
	// PUBLIC values are known to every party.
	PUBLIC Label = iota
	// SECRET values are derived (directly or indirectly) from encrypted data.
	SECRET
)

// Join returns the least upper bound of two labels.
func (l Label) Join(other Label) Label {
	return max(l, other)
}

func (l Label) String() string {
	if l == SECRET {
		return "secret"
	}
	//
	return "public"
}

// Result holds the outcome of the analysis: a label for every node and every
// declared variable, along with the control constructs whose condition is
// secret.
type Result struct {
	// Labels for nodes.
	nodes map[ast.Id]Label
	// Labels for variables, indexed by declaration.
	vars map[ast.Id]Label
	// Conditionals and loops whose condition is secret.
	controlled map[ast.Id]bool
}

func newResult() *Result {
	return &Result{make(map[ast.Id]Label), make(map[ast.Id]Label), make(map[ast.Id]bool)}
}

// Label returns the label of a given node.  Nodes which do not produce values
// (e.g. blocks) are public.
func (r *Result) Label(id ast.Id) Label {
	return r.nodes[id]
}

// IsSecret determines whether a given node is secret.
func (r *Result) IsSecret(id ast.Id) bool {
	return r.nodes[id] == SECRET
}

// Variable returns the label of a variable, identified by its declaration.
func (r *Result) Variable(decl ast.Id) Label {
	return r.vars[decl]
}

// IsSecretControlled determines whether a given conditional or loop has a
// secret condition.
func (r *Result) IsSecretControlled(id ast.Id) bool {
	return r.controlled[id]
}

// SecretControlled returns the conditionals and loops with secret conditions,
// in increasing order of identifier.
func (r *Result) SecretControlled() []ast.Id {
	var ids []ast.Id
	//
	for id := range r.controlled {
		ids = append(ids, id)
	}
	//
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	//
	return ids
}
