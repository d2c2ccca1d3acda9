// Copyright 2025 Contriboss
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command pubgrub-demo reads a YAML manifest describing a root package and
// the packages it can depend on, runs it through the resolver, and prints
// either the resolved versions or a human-readable derivation tree on
// failure.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/contriboss/pubgrub-go"
)

var collapsed bool

var rootCmd = &cobra.Command{
	Use:   "pubgrub-demo",
	Short: "Resolve a YAML package manifest with the pubgrub solver",
}

var solveCmd = &cobra.Command{
	Use:   "solve <manifest.yaml>",
	Short: "Resolve the given manifest and print the result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		m, err := loadManifest(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "[pubgrub-demo] Error: %v\n", err)
			os.Exit(1)
		}

		provider, root, rootVersion, err := buildProvider(m)
		if err != nil {
			fmt.Fprintf(os.Stderr, "[pubgrub-demo] Error: %v\n", err)
			os.Exit(1)
		}

		solver := pubgrub.NewSolverWithOptions(provider, pubgrub.WithIncompatibilityTracking(true))
		solution, err := solver.Solve(root, rootVersion)
		if err != nil {
			printFailure(err)
			os.Exit(1)
		}

		fmt.Println("✅ Dependencies resolved successfully!")
		for _, pkg := range solution {
			fmt.Printf("  📦 %s %s\n", pkg.Name.Value(), pkg.Version.String())
		}
	},
}

// printFailure prints a NoSolutionError's derivation tree when tracking
// produced one, otherwise falls back to the plain error summary.
func printFailure(err error) {
	var nse *pubgrub.NoSolutionError
	if e, ok := err.(*pubgrub.NoSolutionError); ok {
		nse = e
	}
	if nse == nil {
		fmt.Fprintf(os.Stderr, "[pubgrub-demo] Error: %v\n", err)
		return
	}

	reporter := nse.Reporter
	if reporter == nil {
		if collapsed {
			reporter = &pubgrub.CollapsedReporter{}
		} else {
			reporter = &pubgrub.DefaultReporter{}
		}
	}
	fmt.Fprintln(os.Stderr, "❌ No solution found:")
	fmt.Fprintln(os.Stderr, reporter.Report(nse.Tree))
}

func init() {
	solveCmd.Flags().BoolVar(&collapsed, "collapsed", false, "use the collapsed (flat) derivation report format")
	rootCmd.AddCommand(solveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
