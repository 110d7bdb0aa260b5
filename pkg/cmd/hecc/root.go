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
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is filled when building with make, but *not* when installing via "go
// install".
var Version string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hecc",
	Short: "A compiler for homomorphically encrypted programs.",
	Long: `A compiler (and general toolbox) for programs over homomorphically encrypted data.
Secret-dependent control-flow is rewritten into data-oblivious form, and independent
operations are batched into vectors before execution on a chosen backend.`,
	Run: func(cmd *cobra.Command, args []string) {
		if GetFlag(cmd, "version") {
			fmt.Print("hecc ")
			if Version != "" {
				// Built via "make"
				fmt.Printf("%s", Version)
			} else if info, ok := debug.ReadBuildInfo(); ok {
				// Built via "go install"
				fmt.Printf("%s", info.Main.Version)
			} else {
				// Unknown, perhaps "go run"
				fmt.Printf("(unknown version)")
			}
			fmt.Println()
		} else {
			_ = cmd.Help()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().Bool("version", false, "print version information")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase logging verbosity")
	rootCmd.PersistentFlags().Uint("loop-bound", 16, "iterations unrolled for secret loops without a declared bound")
	rootCmd.PersistentFlags().Uint("slots", 16, "number of slots available for batching")
	rootCmd.PersistentFlags().Bool("vectorize", true, "apply operation batching")
	rootCmd.PersistentFlags().Bool("simplify", true, "apply constant folding and algebraic simplification")
	rootCmd.PersistentFlags().Bool("rebalance", true, "rewrite secret expressions to reduce multiplicative depth")
	rootCmd.PersistentFlags().String("externs", "", "JSON file declaring external functions")
	rootCmd.PersistentFlags().String("store", "", "result store (\"memory\" or a redis URL)")
}
