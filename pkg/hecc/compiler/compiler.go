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
package compiler

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/backend"
	"github.com/consensys/go-hecc/pkg/hecc/batch"
	"github.com/consensys/go-hecc/pkg/hecc/cfg"
	"github.com/consensys/go-hecc/pkg/hecc/compiler/parser"
	"github.com/consensys/go-hecc/pkg/hecc/depth"
	"github.com/consensys/go-hecc/pkg/hecc/extern"
	"github.com/consensys/go-hecc/pkg/hecc/runtime"
	"github.com/consensys/go-hecc/pkg/hecc/scope"
	"github.com/consensys/go-hecc/pkg/hecc/simplify"
	"github.com/consensys/go-hecc/pkg/hecc/taint"
	"github.com/consensys/go-hecc/pkg/util"
	"github.com/consensys/go-hecc/pkg/util/source"
	log "github.com/sirupsen/logrus"
)

// Config determines which passes are applied during compilation, and how.
type Config struct {
	// Iterations unrolled for secret loops which declare no bound.
	LoopBound uint
	// Number of slots available for batching.
	SlotWidth uint
	// Enables the batching pass.
	Vectorize bool
	// Enables the simplification pass.
	Simplify bool
	// Enables rewriting of secret expressions to reduce multiplicative depth.
	Rebalance bool
	// Checks structural integrity of the graph after compilation.
	Validate bool
}

// DefaultConfig returns the default compiler configuration.
func DefaultConfig() Config {
	return Config{
		LoopBound: 16,
		SlotWidth: 16,
		Vectorize: true,
		Simplify:  true,
		Rebalance: true,
		Validate:  true,
	}
}

// Program is the result of compilation, which is free from secret-dependent
// control-flow and can be executed against any backend.
type Program struct {
	// Compiled graph
	Graph *ast.Graph
	// Taint labels for the compiled graph.
	Labels *taint.Result
	// Batches formed by vectorisation.
	Batches []batch.Batch
	// Number of secret-controlled constructs rewritten.
	Lowered uint
	// Number of simplifications applied.
	Simplified uint
	// Number of depth-reducing rewrites applied.
	Rebalanced uint
}

// Compile a program graph in place.  Analyses are rerun after every pass which
// changes the graph, such that later passes always see up-to-date labels.
// Compilation stops at the first error.
func Compile(g *ast.Graph, registry *extern.Registry, config Config) (*Program, error) {
	var (
		program = &Program{Graph: g}
		err     error
	)
	// Secret-tainting
	if program.Labels, err = analyse(g, registry); err != nil {
		return nil, err
	}
	// Data-oblivious lowering
	stats := util.NewPerfStats()
	//
	if program.Lowered, err = cfg.Lower(g, program.Labels, cfg.Config{LoopBound: config.LoopBound}); err != nil {
		return nil, err
	} else if program.Lowered > 0 {
		if program.Labels, err = analyse(g, registry); err != nil {
			return nil, err
		}
	}
	//
	stats.Log("Lowering secret control-flow")
	// Simplification
	if config.Simplify {
		stats = util.NewPerfStats()
		//
		if program.Simplified, err = simplify.Simplify(g, program.Labels); err != nil {
			return nil, err
		} else if program.Labels, err = analyse(g, registry); err != nil {
			return nil, err
		}
		//
		stats.Log("Simplifying expressions")
	}
	// Depth reduction
	if config.Rebalance {
		stats = util.NewPerfStats()
		//
		if program.Rebalanced, err = depth.Optimise(g, program.Labels); err != nil {
			return nil, err
		} else if program.Rebalanced > 0 {
			if program.Labels, err = analyse(g, registry); err != nil {
				return nil, err
			}
		}
		//
		stats.Log("Reducing multiplicative depth")
	}
	// Vectorisation
	if config.Vectorize {
		var bconfig = batch.Config{SlotWidth: config.SlotWidth}
		//
		stats = util.NewPerfStats()
		//
		if program.Batches, err = batch.Vectorize(g, program.Labels, bconfig); err != nil {
			return nil, err
		} else if program.Labels, err = analyse(g, registry); err != nil {
			return nil, err
		}
		//
		stats.Log("Batching operations")
	}
	//
	if config.Validate {
		if err = g.Validate(); err != nil {
			return nil, err
		}
	}
	//
	log.Debugf("lowered %d constructs, applied %d simplifications and %d depth rewrites, formed %d batches",
		program.Lowered, program.Simplified, program.Rebalanced, len(program.Batches))
	//
	return program, nil
}

// CompileSourceFile parses and compiles a single source file.  Failures of the
// compiler are reported as syntax errors against the construct responsible.
func CompileSourceFile(srcfile *source.File, registry *extern.Registry, config Config) (*Program,
	[]source.SyntaxError) {
	//
	g, srcmap, errs := parser.ParseSourceFile(srcfile)
	if len(errs) > 0 {
		return nil, errs
	}
	//
	program, err := Compile(g, registry, config)
	if err != nil {
		return nil, []source.SyntaxError{*SyntaxError(g, srcmap, err)}
	}
	//
	return program, nil
}

// Check parses and analyses a single source file without transforming it,
// returning the graph and its taint labels.
func Check(srcfile *source.File, registry *extern.Registry) (*ast.Graph, *taint.Result, []source.SyntaxError) {
	g, srcmap, errs := parser.ParseSourceFile(srcfile)
	if len(errs) > 0 {
		return nil, nil, errs
	}
	//
	labels, err := analyse(g, registry)
	if err != nil {
		return nil, nil, []source.SyntaxError{*SyntaxError(g, srcmap, err)}
	}
	//
	return g, labels, nil
}

// SyntaxError converts an error arising from a given graph into a syntax
// error.  Nodes created by the compiler are attributed to the node they were
// derived from or, failing that, to their nearest mapped ancestor.  Errors
// which cannot be attributed are reported against the start of the file.
func SyntaxError(g *ast.Graph, srcmap *source.Map[ast.Id], err error) *source.SyntaxError {
	var e *ast.Error
	//
	if !errors.As(err, &e) {
		return srcmap.SyntaxError(slices.Values([]ast.Id{}), err.Error())
	}
	//
	candidates := func(yield func(ast.Id) bool) {
		for id := e.Node; id != ast.NIL; id = g.Parent(id) {
			if !yield(g.Origin(id)) || !yield(id) {
				return
			}
		}
	}
	//
	return srcmap.SyntaxError(candidates, e.Kind.String()+": "+e.Msg)
}

// Run a function of this program on a given backend, returning its (decrypted)
// result.  Handlers are registered for external functions.
func (p *Program) Run(b backend.Backend, handlers map[string]runtime.Handler, function string,
	args ...runtime.Value) (runtime.Value, error) {
	//
	visitor := runtime.New(p.Graph, b)
	//
	for name, handler := range handlers {
		visitor.Register(name, handler)
	}
	//
	result, err := visitor.Run(function, args...)
	//
	if err != nil || result == nil {
		return nil, err
	}
	//
	return visitor.Decrypt(result)
}

// Inputs decodes the arguments for a given function from a JSON object mapping
// each parameter name to its value.  Arguments are returned in the order of
// the function's parameters.
func (p *Program) Inputs(function string, inputs map[string]json.RawMessage) ([]runtime.Value, error) {
	var id = ast.FindFunction(p.Graph, function)
	//
	if id == ast.NIL {
		return nil, fmt.Errorf("unknown function \"%s\"", function)
	}
	//
	var (
		fn   = p.Graph.Node(id).(*ast.Function)
		args = make([]runtime.Value, len(fn.Params))
	)
	//
	for i, id := range fn.Params {
		var (
			param   = p.Graph.Node(id).(*ast.Param)
			raw, ok = inputs[param.Name]
			err     error
		)
		//
		if !ok {
			return nil, fmt.Errorf("missing input \"%s\"", param.Name)
		} else if args[i], err = runtime.Decode(param.Type, raw); err != nil {
			return nil, fmt.Errorf("input \"%s\": %w", param.Name, err)
		}
	}
	//
	if len(inputs) != len(fn.Params) {
		return nil, fmt.Errorf("%s expects %d inputs, found %d", function, len(fn.Params), len(inputs))
	}
	//
	return args, nil
}

func analyse(g *ast.Graph, registry *extern.Registry) (*taint.Result, error) {
	scopes, err := scope.Resolve(g)
	if err != nil {
		return nil, err
	}
	//
	return taint.Analyse(g, scopes, registry)
}
