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

// Frame holds the variables of a single function invocation, organised as a
// stack of lexical scopes.
type frame struct {
	scopes []map[string]Value
}

func newFrame() *frame {
	return &frame{[]map[string]Value{make(map[string]Value)}}
}

// Enter a nested scope.
func (p *frame) push() {
	p.scopes = append(p.scopes, make(map[string]Value))
}

// Leave the innermost scope, discarding its variables.
func (p *frame) pop() {
	p.scopes = p.scopes[:len(p.scopes)-1]
}

// Declare a variable in the innermost scope.
func (p *frame) declare(name string, val Value) {
	p.scopes[len(p.scopes)-1][name] = val
}

// Lookup the current value of a variable in the nearest enclosing scope which
// declares it.
func (p *frame) lookup(name string) (Value, bool) {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if val, ok := p.scopes[i][name]; ok {
			return val, true
		}
	}
	//
	return nil, false
}

// Update the value of a variable in the nearest enclosing scope which declares
// it, returning false if there is no such scope.
func (p *frame) assign(name string, val Value) bool {
	for i := len(p.scopes) - 1; i >= 0; i-- {
		if _, ok := p.scopes[i][name]; ok {
			p.scopes[i][name] = val
			return true
		}
	}
	//
	return false
}
