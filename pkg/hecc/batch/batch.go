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
	"strings"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/util/matrix"
)

// Config determines how operations are packed.
type Config struct {
	// Number of slots available in each vector.  Widths below two disable
	// batching altogether.
	SlotWidth uint
}

// Batch describes a group of structurally identical operations which are
// evaluated together as a single vector operation.
type Batch struct {
	// Name of the variable holding the vector result.
	Name string
	// Declaration of the vector result.
	Decl ast.Id
	// Shape shared by every member.
	Signature string
	// Original operations in this batch (now detached from the program).
	Members []ast.Id
	// Slot assigned to each member.
	Slots []uint
	// Number of rotations required to align operands.
	Rotations uint
}

// Width returns the number of members in this batch.
func (p *Batch) Width() uint {
	return uint(len(p.Members))
}

// Slot returns the slot assigned to a given member, or false if it is not a
// member.
func (p *Batch) Slot(member ast.Id) (uint, bool) {
	for i, m := range p.Members {
		if m == member {
			return p.Slots[i], true
		}
	}
	//
	return 0, false
}

func (p *Batch) String() string {
	var builder strings.Builder
	//
	builder.WriteString(fmt.Sprintf("%s %s {", p.Name, p.Signature))
	//
	for i, m := range p.Members {
		if i != 0 {
			builder.WriteString(", ")
		}
		//
		builder.WriteString(fmt.Sprintf("#%d@%d", m, p.Slots[i]))
	}
	//
	builder.WriteString(fmt.Sprintf("} rotations=%d", p.Rotations))
	//
	return builder.String()
}

// A batchable operation.
type member struct {
	// Root of the operation.
	root ast.Id
	// Position of the enclosing statement within its block.
	index int
	// Variables read by the operation.
	reads []ast.Id
	// Leaves of the operation tree, in order.
	leaves []leaf
	// Slot at which no rotation is required, or -1.
	preferred int
	// Slots at or beyond this limit cannot be used.
	limit uint
}

// Number of rotations needed if this member is placed at a given slot.
func (p *member) rotations(slot uint) uint {
	var count uint
	//
	for _, l := range p.leaves {
		if l.element && l.offset != slot {
			count++
		}
	}
	//
	return count
}

// A leaf of an operation tree.
type leaf struct {
	node ast.Id
	// Indicates the leaf reads an element from a vector or matrix.
	element bool
	// Position of the element within its vector (row-major).
	offset uint
	// Number of elements in the vector.
	length uint
}

// Construct a vector of the given width with a one at a given slot, and zero
// everywhere else.
func mask(width uint, slot uint) matrix.Matrix[ast.Constant] {
	values := make([]ast.Constant, width)
	//
	for i := range values {
		values[i] = ast.Int(0)
	}
	//
	values[slot] = ast.Int(1)
	//
	return matrix.Vector(values...)
}
