package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-classgraph/classgraph/analytics"
	"github.com/go-classgraph/classgraph/classpath"
	"github.com/go-classgraph/classgraph/internal/config"
	"github.com/go-classgraph/classgraph/internal/scanlog"
)

var scanCmd = &cobra.Command{
	Use:   "scan [classpath-element ...]",
	Short: "Scan a classpath and print a summary of the resulting class graph",
	Long: `Scan resolves every classpath element (directories, jars, and
nested jar-in-jar archives), parses the classfiles it finds, and links
them into a class-relationship graph.

Examples:
  # Scan a directory of .class files restricted to one package prefix
  classgraph scan --packages com.example ./build/classes

  # Scan a jar restricted to one package prefix
  classgraph scan --packages com.example lib/app.jar`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return fmt.Errorf("at least one classpath element is required")
		}

		packages, _ := cmd.Flags().GetStringSlice("packages")
		configPath, _ := cmd.Flags().GetString("config")
		sarifPath, _ := cmd.Flags().GetString("sarif")

		resolved, err := config.Load("", configPath, packages...)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		logger := scanlog.Default()
		analytics.ReportEvent(analytics.ScanStarted)
		start := time.Now()

		result, err := classpath.Scan(context.Background(), resolved.Spec, ".", args, nil, nil)
		if err != nil {
			analytics.ReportEvent(analytics.ScanFailed)
			return fmt.Errorf("scan failed: %w", err)
		}

		logger.DeferredErrors("classpath", result.DeferredErrors)

		analytics.ReportScanFinished(analytics.ScanSummary{
			Elements:     len(result.OrderedElements),
			ClassesFound: result.Graph.Len(),
			Duration:     time.Since(start),
			Errors:       len(result.DeferredErrors),
		})

		fmt.Printf("Scanned %d classpath elements in %s\n", len(result.OrderedElements), time.Since(start).Round(time.Millisecond))
		fmt.Printf("Classes linked: %d\n", result.Graph.Len())
		fmt.Printf("Deferred errors: %d\n", len(result.DeferredErrors))

		if sarifPath != "" {
			if err := writeSARIFReport(sarifPath, result); err != nil {
				return fmt.Errorf("writing sarif report: %w", err)
			}
		}
		return nil
	},
}

func writeSARIFReport(path string, result *classpath.ScanResult) error {
	diagnostics := make([]scanlog.Diagnostic, 0, len(result.DeferredErrors))
	for _, err := range result.DeferredErrors {
		diagnostics = append(diagnostics, scanlog.Diagnostic{Component: "classpath", Message: err.Error()})
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return scanlog.WriteSARIF(f, diagnostics)
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringSlice("packages", nil, "Allowed package prefixes (repeatable, comma-separated)")
	scanCmd.Flags().String("config", "", "Path to a YAML scan configuration file")
	scanCmd.Flags().String("sarif", "", "Write scan diagnostics as a SARIF report to this path")
}
