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
	"fmt"
	"os"
	"time"

	"github.com/consensys/go-hecc/pkg/hecc/store"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var executeCmd = &cobra.Command{
	Use:   "execute [flags] input.json file.hecc",
	Short: "Execute a compiled program.",
	Long: `Compile a given source file and execute one of its functions on encrypted
inputs, printing the decrypted result.  Inputs are given as a JSON object mapping
each parameter name to its value.`,
	Aliases: []string{"exec"},
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		// Configure log level
		if GetFlag(cmd, "verbose") {
			log.SetLevel(log.DebugLevel)
		}
		//
		var (
			function = GetString(cmd, "function")
			inputs   = ParseInputFile(args[0])
			program  = CompileSourceFile(cmd, args[1])
			backend  = GetBackend(cmd)
			results  = GetStore(cmd)
		)
		//
		values, err := program.Inputs(function, inputs)
		if err != nil {
			fmt.Println(err)
			os.Exit(2)
		}
		//
		start := time.Now()
		//
		output, err := program.Run(backend, nil, function, values...)
		if err != nil {
			log.Error(err)
			os.Exit(4)
		}
		//
		log.Debugf("executed %s on %s backend in %s", function, backend.Name(), time.Since(start))
		//
		var result = "void"
		//
		if output != nil {
			result = output.String()
		}
		//
		fmt.Println(result)
		// Record result (if applicable)
		if results != nil {
			defer results.Close()
			//
			record := &store.Result{
				Source:   args[1],
				Function: function,
				Backend:  backend.Name(),
				Inputs:   make(map[string]string),
				Output:   result,
				Batches:  uint(len(program.Batches)),
			}
			//
			for name, raw := range inputs {
				record.Inputs[name] = string(raw)
			}
			//
			if err := results.Put(context.Background(), record); err != nil {
				log.Error(err)
				os.Exit(5)
			}
			//
			log.Infof("stored result %s", record.ID)
		}
	},
}

//nolint:errcheck
func init() {
	rootCmd.AddCommand(executeCmd)
	executeCmd.Flags().StringP("function", "f", "main", "function to execute")
	executeCmd.Flags().StringP("backend", "b", "dummy", "backend to execute on (dummy, modular or ckks)")
}
