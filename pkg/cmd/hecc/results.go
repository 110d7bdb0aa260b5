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
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/consensys/go-hecc/pkg/hecc/store"
	"github.com/consensys/go-hecc/pkg/util/termio"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results [flags] [id...]",
	Short: "List stored execution results.",
	Long: `List the results of previous executions held in a result store, or show the
results with the given identifiers.`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			results = GetStore(cmd)
			ctx     = context.Background()
			err     error
		)
		//
		if results == nil {
			fmt.Println("no result store given (use --store)")
			os.Exit(2)
		}
		//
		defer results.Close()
		//
		if len(args) == 0 {
			if args, err = results.List(ctx); err != nil {
				fmt.Println(err)
				os.Exit(5)
			}
		}
		//
		var records []*store.Result
		//
		for _, id := range args {
			record, err := results.Get(ctx, id)
			//
			if errors.Is(err, store.ErrNotFound) {
				fmt.Printf("unknown result \"%s\"\n", id)
				os.Exit(2)
			} else if err != nil {
				fmt.Println(err)
				os.Exit(5)
			}
			//
			records = append(records, record)
		}
		//
		writeResults(records)
	},
}

func writeResults(records []*store.Result) {
	table := termio.NewTablePrinter(7, uint(1+len(records)))
	table.SetRow(0, "id", "created", "source", "function", "backend", "inputs", "output")
	//
	for col := uint(0); col < 7; col++ {
		table.SetEscape(col, 0, termio.BoldAnsiEscape().Build())
	}
	//
	for i, r := range records {
		table.SetRow(uint(i+1), r.ID, r.CreatedAt.Format(time.DateTime), r.Source, r.Function, r.Backend,
			formatInputs(r.Inputs), r.Output)
	}
	//
	table.SetMaxWidths(termio.Width(os.Stdout) / 4)
	table.AnsiEscapes(termio.IsTerminal(os.Stdout))
	table.Print(os.Stdout)
}

func formatInputs(inputs map[string]string) string {
	var names []string
	//
	for name := range inputs {
		names = append(names, name)
	}
	//
	sort.Strings(names)
	//
	for i, name := range names {
		names[i] = fmt.Sprintf("%s=%s", name, inputs[name])
	}
	//
	return strings.Join(names, " ")
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}
