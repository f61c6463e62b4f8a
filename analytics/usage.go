// Package analytics reports opt-out, count-only usage events for scan
// lifecycle milestones. It never reports classpath tokens, file paths, or
// class names — only aggregate counts and timings — adapted from the
// teacher's own per-install UUID + godotenv + posthog-go usage reporter,
// repointed from CLI command names onto scan-start/scan-finish events.
package analytics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/posthog/posthog-go"
)

// Event names reported over a scan's lifecycle.
const (
	ScanStarted  = "scan_started"
	ScanFinished = "scan_finished"
	ScanFailed   = "scan_failed"
)

var (
	PublicKey     string
	enableMetrics bool
)

func Init(disableMetrics bool) {
	enableMetrics = !disableMetrics
}

func createEnvFile() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Println("Error getting user home directory:", err)
		return
	}
	envFile := filepath.Join(homeDir, ".classgraph", ".env")
	// create .env file
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		// create directory
		if err := os.MkdirAll(filepath.Dir(envFile), os.ModePerm); err != nil {
			fmt.Println("Error creating directory:", err)
			return
		}
		env := map[string]string{
			"uuid": uuid.New().String(),
		}
		err = godotenv.Write(env, envFile)
		if err != nil {
			fmt.Println("Error writing to .env file:", err)
		}
	}
}

func LoadEnvFile() {
	createEnvFile()
	envFile := filepath.Join(os.Getenv("HOME"), ".classgraph", ".env")
	err := godotenv.Load(envFile)
	if err != nil {
		return
	}
}

// ScanSummary is the count-only payload attached to a scan_finished event.
type ScanSummary struct {
	Elements     int
	ClassesFound int
	ArchiveCount int
	DirCount     int
	Duration     time.Duration
	Errors       int
}

// ReportEvent reports a bare named event with no properties.
func ReportEvent(event string) {
	reportWithProperties(event, nil)
}

// ReportScanFinished reports a scan_finished event carrying only aggregate
// counts and elapsed time.
func ReportScanFinished(summary ScanSummary) {
	reportWithProperties(ScanFinished, posthog.NewProperties().
		Set("elements", summary.Elements).
		Set("classes_found", summary.ClassesFound).
		Set("archive_count", summary.ArchiveCount).
		Set("dir_count", summary.DirCount).
		Set("duration_ms", summary.Duration.Milliseconds()).
		Set("errors", summary.Errors))
}

func reportWithProperties(event string, props posthog.Properties) {
	if !enableMetrics || PublicKey == "" {
		return
	}
	client, err := posthog.NewWithConfig(
		PublicKey,
		posthog.Config{
			Endpoint: "https://us.i.posthog.com",
		},
	)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer client.Close()

	capture := posthog.Capture{
		DistinctId: os.Getenv("uuid"),
		Event:      event,
	}
	if props != nil {
		capture.Properties = props
	}
	if err := client.Enqueue(capture); err != nil {
		fmt.Println(err)
	}
}
