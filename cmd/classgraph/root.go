// Package main is a thin demonstration CLI over the classgraph library. It
// is not part of the core engine (the scan/parse/link packages have no
// dependency on cobra or any CLI concern); every real engine in this
// corpus ships something runnable atop its library, the way the teacher
// ships cmd/scan.go and cmd/query.go atop its own graph/dsl/evaluator
// core, so this wraps classpath.Scan the same way.
package main

import (
	"github.com/spf13/cobra"

	"github.com/go-classgraph/classgraph/analytics"
)

var rootCmd = &cobra.Command{
	Use:   "classgraph",
	Short: "Scan a JVM classpath and build a class-relationship graph",
	Long:  `classgraph resolves, parses, and links the classes reachable from a JVM classpath into a queryable relationship graph.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		disableMetrics, _ := cmd.Flags().GetBool("disable-metrics") //nolint:all
		analytics.LoadEnvFile()
		analytics.Init(disableMetrics)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("disable-metrics", false, "Disable metrics collection")
}
