// Package element models one classpath root — a directory or an archive —
// and walks it to collect classfile and auxiliary-file matches, driven by
// the scan spec's path_match_status decisions. Grounded in structure on the
// teacher's directory-walking source collectors (tree/java's filesystem
// discovery) but rebuilt around ZIP/JAR archive traversal and manifest
// Class-Path expansion, which the teacher never needed.
package element

import (
	"github.com/go-classgraph/classgraph/pathres"
)

// Kind distinguishes a Directory Element from an Archive Element.
type Kind int

const (
	KindDirectory Kind = iota
	KindArchive
)

// FileMatcher tests a traversed file's relative path against a
// user-configured pattern outside the classfile stream (e.g. resource
// files a caller wants to collect alongside classes).
type FileMatcher interface {
	Name() string
	Matches(relPath string) bool
}

// MatchResult accumulates what one element's traversal found.
type MatchResult struct {
	// Classfiles are relative paths (archive-base-stripped for Archive
	// Elements) ending in ".class".
	Classfiles []string

	// Files maps a FileMatcher's Name() to every relative path it accepted.
	Files map[string][]string
}

func newMatchResult() *MatchResult {
	return &MatchResult{Files: make(map[string][]string)}
}

func (r *MatchResult) addFile(matcherName, relPath string) {
	r.Files[matcherName] = append(r.Files[matcherName], relPath)
}

// Element is one classpath root, either freshly resolved or discovered as
// a manifest Class-Path child.
type Element struct {
	Kind     Kind
	Identity pathres.Identity

	// NestedRootPrefixes are relative-path prefixes this element's
	// traversal must skip because Ordering determined another element's
	// canonical directory lies beneath this one (spec.md §4.5's
	// nested-classpath-root rule). Only meaningful for KindDirectory.
	NestedRootPrefixes []string
}

// RelativeRoot returns the directory path traversal should walk (for
// KindDirectory) or the archive's in-archive base prefix to strip (for
// KindArchive).
func (e Element) RelativeRoot() string {
	if e.Kind == KindDirectory {
		return e.Identity.Path
	}
	return e.Identity.InArchiveBaseDir
}

func isUnderAnyPrefix(relPath string, prefixes []string) bool {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if relPath == p || len(relPath) > len(p) && relPath[:len(p)] == p && relPath[len(p)] == '/' {
			return true
		}
	}
	return false
}
