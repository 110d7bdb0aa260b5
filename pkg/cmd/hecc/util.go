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
package hecc

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/backend"
	"github.com/consensys/go-hecc/pkg/hecc/backend/ckks"
	"github.com/consensys/go-hecc/pkg/hecc/backend/dummy"
	"github.com/consensys/go-hecc/pkg/hecc/backend/modular"
	"github.com/consensys/go-hecc/pkg/hecc/compiler"
	"github.com/consensys/go-hecc/pkg/hecc/extern"
	"github.com/consensys/go-hecc/pkg/hecc/store"
	"github.com/consensys/go-hecc/pkg/hecc/taint"
	"github.com/consensys/go-hecc/pkg/util"
	"github.com/consensys/go-hecc/pkg/util/source"
	"github.com/consensys/go-hecc/pkg/util/termio"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// GetFlag gets an expected flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetUint gets an expected unsigned integer flag, or exits if an error
// arises.
func GetUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string flag, or exits if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetConfig constructs the compiler configuration determined by the command's
// flags.
func GetConfig(cmd *cobra.Command) compiler.Config {
	config := compiler.DefaultConfig()
	config.LoopBound = GetUint(cmd, "loop-bound")
	config.SlotWidth = GetUint(cmd, "slots")
	config.Vectorize = GetFlag(cmd, "vectorize")
	config.Simplify = GetFlag(cmd, "simplify")
	config.Rebalance = GetFlag(cmd, "rebalance")
	//
	if config.SlotWidth == 0 {
		fmt.Println("slot width must be positive")
		os.Exit(2)
	}
	//
	return config
}

// GetRegistry reads the external declarations named by the "externs" flag, if
// any.
func GetRegistry(cmd *cobra.Command) *extern.Registry {
	filename := GetString(cmd, "externs")
	//
	if filename == "" {
		return extern.NewRegistry()
	}
	//
	_, bytes, err := util.ReadFile(filename)
	if err == nil {
		var registry *extern.Registry
		//
		if registry, err = extern.ParseRegistry(bytes); err == nil {
			log.Debugf("declared %d external functions", len(registry.Names()))
			return registry
		}
	}
	// Handle error
	fmt.Println(err)
	os.Exit(2)
	// unreachable
	return nil
}

// GetBackend constructs the backend named by the "backend" flag.
func GetBackend(cmd *cobra.Command) backend.Backend {
	var (
		name  = GetString(cmd, "backend")
		slots = GetUint(cmd, "slots")
	)
	//
	switch name {
	case "dummy":
		return dummy.New(slots)
	case "modular":
		return modular.New(slots)
	case "ckks":
		b, err := ckks.New(ckks.DefaultParameters)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		return b
	default:
		fmt.Printf("unknown backend \"%s\"\n", name)
		os.Exit(2)
	}
	// unreachable
	return nil
}

// GetStore opens the result store named by the "store" flag, or returns nil if
// there is none.
func GetStore(cmd *cobra.Command) store.Store {
	locator := GetString(cmd, "store")
	//
	if locator == "" {
		return nil
	}
	//
	s, err := store.Open(locator)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}
	//
	return s
}

// ParseInputFile parses a given input file (which is currently assumed to be
// JSON).  An input file maps the name of each parameter of the function being
// executed to its value.
func ParseInputFile(filename string) map[string]json.RawMessage {
	var inputs map[string]json.RawMessage
	// Read input file
	filename, bytes, err := util.ReadFile(filename)
	//
	if err == nil {
		ext := path.Ext(filename)
		//
		switch ext {
		case ".json":
			if err = json.Unmarshal(bytes, &inputs); err == nil {
				return inputs
			}
		default:
			err = fmt.Errorf("unknown input file format: %s", ext)
		}
	}
	// Handle error
	fmt.Println(err)
	os.Exit(2)
	// unreachable
	return nil
}

// readSourceFile reads a given source file, or exits if an error arises.
func readSourceFile(filename string) *source.File {
	log.Debug(fmt.Sprintf("including source file %s", filename))
	// Read source file
	bytes, err := os.ReadFile(filename)
	// Sanity check for errors
	if err != nil {
		fmt.Println(err)
		os.Exit(3)
	}
	//
	return source.NewSourceFile(filename, bytes)
}

// CompileSourceFile compiles a given source file into a program.  This can
// result, for example, in one or more syntax errors, etc.
func CompileSourceFile(cmd *cobra.Command, filename string) *compiler.Program {
	var (
		srcfile  = readSourceFile(filename)
		registry = GetRegistry(cmd)
		config   = GetConfig(cmd)
	)
	// Compile source file
	program, errors := compiler.CompileSourceFile(srcfile, registry, config)
	// Check for errors
	if len(errors) != 0 {
		printSyntaxErrors(errors)
	}
	// Done
	return program
}

// CheckSourceFile parses and analyses a given source file.
func CheckSourceFile(cmd *cobra.Command, filename string) (*ast.Graph, *taint.Result) {
	var (
		srcfile  = readSourceFile(filename)
		registry = GetRegistry(cmd)
	)
	//
	g, labels, errors := compiler.Check(srcfile, registry)
	// Check for errors
	if len(errors) != 0 {
		printSyntaxErrors(errors)
	}
	//
	return g, labels
}

// Print all syntax errors and exit.
func printSyntaxErrors(errors []source.SyntaxError) {
	for _, err := range errors {
		printSyntaxError(&err)
	}
	// Fail
	os.Exit(4)
}

// Print a syntax error with appropriate highlighting.
func printSyntaxError(err *source.SyntaxError) {
	span := err.Span()
	line := err.FirstEnclosingLine()
	lineOffset := span.Start() - line.Start()
	// Calculate length (ensures don't overflow line)
	length := max(1, min(line.Length()-lineOffset, span.Length()))
	// Print error + line number
	fmt.Printf("%s:%d:%d-%d %s\n", err.SourceFile().Filename(),
		line.Number(), 1+lineOffset, 1+lineOffset+length, err.Message())
	// Print separator line
	fmt.Println()
	// Print line
	fmt.Println(line.String())
	// Print indent (todo: account for tabs)
	fmt.Print(strings.Repeat(" ", lineOffset))
	// Print highlight
	if termio.IsTerminal(os.Stdout) {
		highlight := termio.BoldAnsiEscape().FgColour(termio.TERM_RED).Build()
		fmt.Println(highlight + strings.Repeat("^", length) + termio.ResetAnsiEscape().Build())
	} else {
		fmt.Println(strings.Repeat("^", length))
	}
}
