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
package extern

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Declaration describes the information-flow behaviour of an external (i.e.
// opaque) function.  By default, the result of an external call is secret
// whenever any argument is secret.
type Declaration struct {
	// Name of the external function.
	Name string `json:"name"`
	// Indicates the function has no observable effects, and so can be
	// executed unconditionally within secret-controlled code.
	SideEffectFree bool `json:"side_effect_free"`
	// Indicates the result reveals nothing about the arguments, and so is
	// public even when arguments are secret.  This applies only to functions
	// which are also side-effect free.
	PublicResult bool `json:"public_result"`
	// Indicates the result is secret even when all arguments are public.
	SecretResult bool `json:"secret_result"`
}

// Registry maps the names of external functions to their declarations.
type Registry struct {
	decls map[string]Declaration
}

// NewRegistry constructs a registry holding the given declarations.
func NewRegistry(decls ...Declaration) *Registry {
	r := &Registry{make(map[string]Declaration)}
	//
	for _, d := range decls {
		r.Register(d)
	}
	//
	return r
}

// Register adds (or replaces) a declaration.
func (p *Registry) Register(decl Declaration) {
	if decl.PublicResult && decl.SecretResult {
		panic(fmt.Sprintf("external %s cannot have both public and secret result", decl.Name))
	}
	//
	p.decls[decl.Name] = decl
}

// Lookup returns the declaration of a given external function.
func (p *Registry) Lookup(name string) (Declaration, bool) {
	if p == nil {
		return Declaration{}, false
	}
	//
	decl, ok := p.decls[name]
	//
	return decl, ok
}

// Names returns the names of all registered functions in sorted order.
func (p *Registry) Names() []string {
	var names []string
	//
	for n := range p.decls {
		names = append(names, n)
	}
	//
	sort.Strings(names)
	//
	return names
}

// ParseRegistry parses a JSON array of declarations into a registry.
func ParseRegistry(bytes []byte) (*Registry, error) {
	var decls []Declaration
	//
	if err := json.Unmarshal(bytes, &decls); err != nil {
		return nil, err
	}
	//
	for _, d := range decls {
		if d.Name == "" {
			return nil, fmt.Errorf("external declaration without name")
		} else if d.PublicResult && d.SecretResult {
			return nil, fmt.Errorf("external %s cannot have both public and secret result", d.Name)
		}
	}
	//
	return NewRegistry(decls...), nil
}
