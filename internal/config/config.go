// Package config loads scan defaults in the layered order the teacher
// uses for its own per-user settings (analytics.LoadEnvFile): built-in
// defaults first, then environment variables, then an optional YAML file
// naming explicit scan-spec tokens and toggles.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/go-classgraph/classgraph/scanspec"
)

// File is the on-disk shape of an optional scan-spec config file, e.g.:
//
//	toggles:
//	  scanArchives: true
//	  ignoreVisibility: false
//	packages:
//	  - com.example
//	  - "-com.example.internal"
//	workers: 8
type File struct {
	Toggles  FileToggles `yaml:"toggles"`
	Packages []string    `yaml:"packages"`
	Workers  int         `yaml:"workers"`
}

// FileToggles mirrors scanspec.Toggles with yaml tags; zero values mean
// "use the default," so every field is a *bool rather than bool.
type FileToggles struct {
	ScanArchives           *bool `yaml:"scanArchives"`
	ScanDirectories        *bool `yaml:"scanDirectories"`
	IndexFieldTypes        *bool `yaml:"indexFieldTypes"`
	IndexMethodAnnotations *bool `yaml:"indexMethodAnnotations"`
	IndexFieldAnnotations  *bool `yaml:"indexFieldAnnotations"`
	CaptureFieldInfo       *bool `yaml:"captureFieldInfo"`
	CaptureMethodInfo      *bool `yaml:"captureMethodInfo"`
	StrictExternalFilter   *bool `yaml:"strictExternalFilter"`
	IgnoreVisibility       *bool `yaml:"ignoreVisibility"`
	RecursionEnabled       *bool `yaml:"recursionEnabled"`
}

// Resolved is the fully-layered scan configuration: a built Spec plus the
// worker-pool size to run the scan with.
type Resolved struct {
	Spec    *scanspec.Spec
	Workers int
}

// Load layers defaults, the process environment, and an optional YAML file
// at path (skipped entirely if path is empty or the file does not exist)
// into a
// Resolved configuration. envFile, if non-empty, is loaded into the
// process environment first via godotenv, the same two-step
// LoadEnvFile/Init the teacher's analytics package performs before any
// flag parsing happens.
func Load(envFile, path string, extraPackages ...string) (*Resolved, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile) // missing .env is not an error; defaults stand
	}

	toggles := scanspec.DefaultToggles()
	workers := workersFromEnv()

	var f File
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: reading %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	applyFileToggles(&toggles, f.Toggles)
	if f.Workers > 0 {
		workers = f.Workers
	}

	tokens := append(append([]string(nil), f.Packages...), extraPackages...)
	spec, err := scanspec.New(toggles, tokens...)
	if err != nil {
		return nil, fmt.Errorf("config: building scan spec: %w", err)
	}

	return &Resolved{Spec: spec, Workers: workers}, nil
}

func workersFromEnv() int {
	v := os.Getenv("CLASSGRAPH_WORKERS")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

func applyFileToggles(t *scanspec.Toggles, ft FileToggles) {
	set := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	set(&t.ScanArchives, ft.ScanArchives)
	set(&t.ScanDirectories, ft.ScanDirectories)
	set(&t.IndexFieldTypes, ft.IndexFieldTypes)
	set(&t.IndexMethodAnnotations, ft.IndexMethodAnnotations)
	set(&t.IndexFieldAnnotations, ft.IndexFieldAnnotations)
	set(&t.CaptureFieldInfo, ft.CaptureFieldInfo)
	set(&t.CaptureMethodInfo, ft.CaptureMethodInfo)
	set(&t.StrictExternalFilter, ft.StrictExternalFilter)
	set(&t.IgnoreVisibility, ft.IgnoreVisibility)
	set(&t.RecursionEnabled, ft.RecursionEnabled)
}
