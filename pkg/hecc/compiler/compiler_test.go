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
	"strings"
	"testing"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/backend"
	"github.com/consensys/go-hecc/pkg/hecc/backend/dummy"
	"github.com/consensys/go-hecc/pkg/hecc/backend/modular"
	"github.com/consensys/go-hecc/pkg/hecc/depth"
	"github.com/consensys/go-hecc/pkg/hecc/extern"
	"github.com/consensys/go-hecc/pkg/hecc/runtime"
	"github.com/consensys/go-hecc/pkg/util/assert"
	"github.com/consensys/go-hecc/pkg/util/source"
)

const selectProgram = `
(defun f ((secret int x) (secret int y)) secret int
  (block
    (if (> x 0)
        (block (return (+ x y)))
        (block (return (- x y))))))`

const batchProgram = `
(defun f ((secret int a) (secret int b) (secret int c) (secret int d)) secret int
  (block
    (var secret int p (* a b))
    (var secret int q (* c d))
    (return (+ p q))))`

const vectorProgram = `
(defun f ((secret (int 1 4) v) (secret (int 1 4) w)) secret int
  (block
    (var secret int p (* (get v 0) (get w 0)))
    (var secret int q (* (get v 1) (get w 1)))
    (var secret int r (* (get v 2) (get w 2)))
    (return (+ p q r))))`

const coneProgram = `
(defun f ((secret int x) (secret int a) (secret int c) (secret int d)) secret int
  (block
    (var secret int b (* (* x x) x))
    (return (* d (- c (* a b))))))`

const loopProgram = `
(defun f ((secret int x)) int
  (block
    (var int s 0)
    (for :bound %d (var int i 0) (&& (< i 3) (< i x)) (= i (+ i 1))
      (block (= s (+ s 1))))
    (return s)))`

func Test_Compiler_01(t *testing.T) {
	program := check_Compile(t, selectProgram, DefaultConfig())
	//
	assert.Equal(t, uint(1), program.Lowered)
	//
	for _, b := range []backend.Backend{dummy.New(0), modular.New(0)} {
		check_Run(t, program, b, "8", runtime.Int(5), runtime.Int(3))
		check_Run(t, program, b, "-8", runtime.Int(-5), runtime.Int(3))
	}
}

func Test_Compiler_02(t *testing.T) {
	program := check_Compile(t, batchProgram, DefaultConfig())
	//
	assert.Equal(t, 1, len(program.Batches))
	assert.Equal(t, uint(2), program.Batches[0].Width())
	assert.Equal(t, uint(0), program.Batches[0].Rotations)
	//
	check_Run(t, program, dummy.New(0), "26", runtime.Int(2), runtime.Int(3), runtime.Int(4), runtime.Int(5))
}

func Test_Compiler_03(t *testing.T) {
	// Batching does not change results
	args := [][]runtime.Value{
		{runtime.Int(2), runtime.Int(3), runtime.Int(4), runtime.Int(5)},
		{runtime.Int(-1), runtime.Int(7), runtime.Int(0), runtime.Int(9)},
	}
	//
	for _, a := range args {
		check_Equivalent(t, batchProgram, a...)
	}
	//
	check_Equivalent(t, vectorProgram, runtime.Ints(1, 2, 3, 4), runtime.Ints(5, 6, 7, 8))
}

func Test_Compiler_04(t *testing.T) {
	program := check_Compile(t, vectorProgram, DefaultConfig())
	//
	assert.Equal(t, 1, len(program.Batches))
	assert.Equal(t, uint(3), program.Batches[0].Width())
	//
	check_Run(t, program, dummy.New(0), "38", runtime.Ints(1, 2, 3, 4), runtime.Ints(5, 6, 7, 8))
}

func Test_Compiler_05(t *testing.T) {
	program := check_Compile(t, strings.Replace(loopProgram, "%d", "3", 1), DefaultConfig())
	//
	check_Run(t, program, dummy.New(0), "3", runtime.Int(100))
	check_Run(t, program, dummy.New(0), "1", runtime.Int(1))
	check_Run(t, program, dummy.New(0), "0", runtime.Int(-4))
}

func Test_Compiler_06(t *testing.T) {
	check_Error(t, strings.Replace(loopProgram, "%d", "2", 1), ast.LoopBoundExceeded, "(for")
}

func Test_Compiler_07(t *testing.T) {
	text := "(defun f ((secret int x)) int (block (return (extern leak x))))"
	// Unknown externals are rejected
	check_Error(t, text, ast.UnknownExternalDeclaration, "(extern")
	// Known externals are accepted
	registry := extern.NewRegistry(extern.Declaration{Name: "leak", SideEffectFree: true, PublicResult: true})
	//
	program, errs := CompileSourceFile(source.NewSourceFile("test.hec", []byte(text)), registry, DefaultConfig())
	if len(errs) > 0 {
		t.Fatal(errs[0].Message())
	}
	//
	handlers := map[string]runtime.Handler{
		"leak": func(args []runtime.Value) (runtime.Value, error) { return runtime.Int(1), nil },
	}
	//
	result, err := program.Run(dummy.New(0), handlers, "f", runtime.Int(3))
	//
	assert.True(t, err == nil)
	assert.Equal(t, "1", result.String())
}

func Test_Compiler_08(t *testing.T) {
	check_Error(t, "(defun f ((secret int x)) int (block (return y)))", ast.UnboundVariable, "y")
}

func Test_Compiler_09(t *testing.T) {
	// Public computation is folded away entirely
	text := "(defun f () int (block (return (+ (* 2 3) 1))))"
	program := check_Compile(t, text, DefaultConfig())
	//
	assert.True(t, program.Simplified > 0)
	assert.Equal(t, "(defun f () int (block (return 7)))", ast.Dump(program.Graph, ast.FindFunction(program.Graph,
		"f")).String(false))
}

func Test_Compiler_10(t *testing.T) {
	g, labels, errs := Check(source.NewSourceFile("test.hec", []byte(selectProgram)), nil)
	//
	if len(errs) > 0 {
		t.Fatal(errs[0].Message())
	}
	//
	fn := g.Node(ast.FindFunction(g, "f")).(*ast.Function)
	body := g.Node(fn.Body).(*ast.Block)
	//
	assert.True(t, labels.IsSecretControlled(body.Statements[0]))
}

func Test_Compiler_11(t *testing.T) {
	var (
		program = check_Compile(t, vectorProgram, DefaultConfig())
		inputs  map[string]json.RawMessage
	)
	//
	if err := json.Unmarshal([]byte(`{"w": [5, 6, 7, 8], "v": [1, 2, 3, 4]}`), &inputs); err != nil {
		t.Fatal(err)
	}
	//
	args, err := program.Inputs("f", inputs)
	if err != nil {
		t.Fatal(err)
	}
	// Arguments follow parameter order
	assert.Equal(t, "[1 2 3 4]", args[0].String())
	assert.Equal(t, "[5 6 7 8]", args[1].String())
	check_Run(t, program, dummy.New(0), "38", args...)
	// Missing, surplus and unknown inputs
	delete(inputs, "w")
	_, err = program.Inputs("f", inputs)
	assert.True(t, err != nil)
	//
	inputs["w"] = json.RawMessage("[1, 2, 3, 4]")
	inputs["z"] = json.RawMessage("1")
	_, err = program.Inputs("f", inputs)
	assert.True(t, err != nil)
	//
	_, err = program.Inputs("g", inputs)
	assert.True(t, err != nil)
}

func Test_Compiler_12(t *testing.T) {
	var (
		config = DefaultConfig()
		args   = []runtime.Value{runtime.Int(3), runtime.Int(2), runtime.Int(5), runtime.Int(-2)}
	)
	// Batching is disabled so that depth is measured over scalar code
	config.Vectorize = false
	//
	for _, rebalance := range []bool{true, false} {
		config.Rebalance = rebalance
		//
		var (
			program  = check_Compile(t, coneProgram, config)
			fn       = ast.FindFunction(program.Graph, "f")
			expected = uint(4)
		)
		//
		if rebalance {
			expected = 3
		}
		//
		assert.Equal(t, rebalance, program.Rebalanced > 0)
		assert.Equal(t, expected, depth.Depth(program.Graph, program.Labels, fn))
		check_Run(t, program, dummy.New(0), "98", args...)
	}
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Compile(t *testing.T, text string, config Config) *Program {
	program, errs := CompileSourceFile(source.NewSourceFile("test.hec", []byte(text)), nil, config)
	//
	if len(errs) > 0 {
		t.Fatal(errs[0].Message())
	}
	//
	return program
}

func check_Run(t *testing.T, program *Program, b backend.Backend, expected string, args ...runtime.Value) {
	result, err := program.Run(b, nil, "f", args...)
	//
	if err != nil {
		t.Fatal(err)
	}
	//
	assert.Equal(t, expected, result.String(), b.Name())
}

// Check a program computes the same result with and without batching.
func check_Equivalent(t *testing.T, text string, args ...runtime.Value) {
	var (
		scalar  = DefaultConfig()
		batched = check_Compile(t, text, DefaultConfig())
	)
	//
	scalar.Vectorize = false
	//
	expected, err := check_Compile(t, text, scalar).Run(dummy.New(0), nil, "f", args...)
	if err != nil {
		t.Fatal(err)
	}
	//
	actual, err := batched.Run(dummy.New(0), nil, "f", args...)
	if err != nil {
		t.Fatal(err)
	}
	//
	assert.True(t, len(batched.Batches) > 0)
	assert.Equal(t, expected.String(), actual.String())
}

// Check compilation fails with an error of a given kind, reported against a
// construct starting with a given prefix.
func check_Error(t *testing.T, text string, kind ast.ErrorKind, prefix string) {
	srcfile := source.NewSourceFile("test.hec", []byte(text))
	_, errs := CompileSourceFile(srcfile, nil, DefaultConfig())
	//
	if len(errs) == 0 {
		t.Fatalf("expected %s", kind)
	}
	//
	var (
		span     = errs[0].Span()
		contents = string(srcfile.Contents()[span.Start():span.End()])
	)
	//
	assert.True(t, strings.HasPrefix(errs[0].Message(), kind.String()), errs[0].Message())
	assert.True(t, strings.HasPrefix(contents, prefix), contents)
}
