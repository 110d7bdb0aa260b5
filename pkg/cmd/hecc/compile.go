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
	"fmt"
	"os"
	"strings"

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/batch"
	"github.com/consensys/go-hecc/pkg/util/termio"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] file.hecc",
	Short: "compile a source file into data-oblivious form.",
	Long: `Compile a given source file, printing the program which results from lowering
secret control-flow, simplification and batching.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		// Compile source file, or print errors
		program := CompileSourceFile(cmd, args[0])
		//
		if !GetFlag(cmd, "quiet") {
			fmt.Println(ast.Format(program.Graph, program.Graph.Root(), termio.Width(os.Stdout)))
		}
		//
		if GetFlag(cmd, "batches") {
			writeBatches(program.Graph, program.Batches)
		}
		//
		log.Infof("lowered %d constructs, applied %d simplifications and %d depth rewrites, formed %d batches",
			program.Lowered, program.Simplified, program.Rebalanced, len(program.Batches))
	},
}

func writeBatches(g *ast.Graph, batches []batch.Batch) {
	var (
		table  = termio.NewTablePrinter(5, uint(1+len(batches)))
		ansi   = termio.IsTerminal(os.Stdout)
		header = termio.BoldAnsiEscape().Build()
	)
	//
	table.SetRow(0, "batch", "shape", "width", "rotations", "members")
	//
	for col := uint(0); col < 5; col++ {
		table.SetEscape(col, 0, header)
	}
	//
	for i, b := range batches {
		var members = make([]string, len(b.Members))
		//
		for j, m := range b.Members {
			members[j] = ast.Dump(g, m).String(false)
		}
		//
		table.SetRow(uint(i+1), b.Name, b.Signature, fmt.Sprintf("%d", b.Width()), fmt.Sprintf("%d", b.Rotations),
			strings.Join(members, " "))
	}
	//
	table.SetMaxWidth(4, termio.Width(os.Stdout)/2)
	table.AnsiEscapes(ansi)
	table.Print(os.Stdout)
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(compileCmd)
	compileCmd.Flags().Bool("batches", false, "report the batches formed by vectorisation")
	compileCmd.Flags().BoolP("quiet", "q", false, "suppress output of the compiled program")
}
