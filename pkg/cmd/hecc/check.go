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

	"github.com/consensys/go-hecc/pkg/hecc/ast"
	"github.com/consensys/go-hecc/pkg/hecc/taint"
	"github.com/consensys/go-hecc/pkg/util/termio"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] file.hecc",
	Short: "check a source file for well-formedness.",
	Long: `Parse and analyse a given source file without transforming it, reporting the
secrecy of every variable and the constructs controlled by secret conditions.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		g, labels := CheckSourceFile(cmd, args[0])
		//
		if GetFlag(cmd, "report") {
			writeLabels(g, labels)
			writeSecretControlled(g, labels)
		}
	},
}

func writeLabels(g *ast.Graph, labels *taint.Result) {
	var rows [][]string
	//
	for _, fn := range ast.Functions(g) {
		var name = g.Node(fn).(*ast.Function).Name
		//
		ast.Walk(g, fn, ast.VisitorFunc(func(g *ast.Graph, id ast.Id) bool {
			switch n := g.Node(id).(type) {
			case *ast.Param:
				rows = append(rows, []string{name, n.Name, n.Type.String(), labels.Variable(id).String()})
			case *ast.VarDecl:
				rows = append(rows, []string{name, n.Name, n.Type.String(), labels.Variable(id).String()})
			}
			//
			return true
		}))
	}
	//
	table := termio.NewTablePrinter(4, uint(1+len(rows)))
	table.SetRow(0, "function", "variable", "type", "label")
	//
	for i, row := range rows {
		table.SetRow(uint(i+1), row...)
		//
		if row[3] == taint.SECRET.String() {
			table.SetEscape(3, uint(i+1), termio.NewAnsiEscape().FgColour(termio.TERM_RED).Build())
		}
	}
	//
	table.AnsiEscapes(termio.IsTerminal(os.Stdout))
	table.Print(os.Stdout)
}

func writeSecretControlled(g *ast.Graph, labels *taint.Result) {
	var width = termio.Width(os.Stdout)
	//
	for _, id := range labels.SecretControlled() {
		fmt.Printf("secret-controlled %s\n", ast.KindName(g.Node(id)))
		fmt.Println(ast.Format(g, id, width))
	}
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().Bool("report", false, "report secrecy labels and secret-controlled constructs")
}
