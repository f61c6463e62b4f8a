package element

import (
	"archive/zip"
	"context"
	"io"
	"strings"

	"github.com/go-classgraph/classgraph/scanspec"
	"github.com/go-classgraph/classgraph/workqueue"
)

// SubmitChild enqueues a manifest-declared Class-Path child as a new raw
// classpath token, resolved against the archive's containing directory.
type SubmitChild func(resolvedPath string)

// TraverseArchive makes a single pass over an archive's entries per
// spec.md §4.5: directory entries are skipped; entries outside the
// in-archive base prefix are skipped; the parent directory's match status
// is cached across consecutive entries sharing a parent, since archive
// entries are conventionally grouped by directory. archiveDir is the
// filesystem directory containing the archive file itself, used to resolve
// any Class-Path manifest entries found. ctx is polled every
// workqueue.PollEvery archive entries, per spec.md §5's interruption
// cadence for long inner loops.
func TraverseArchive(ctx context.Context, zr *zip.Reader, baseDir, archiveDir string, spec *scanspec.Spec, nestedSkip []string, matchers []FileMatcher, submit SubmitChild) (*MatchResult, error) {
	result := newMatchResult()

	var cachedParent string
	var cachedStatus scanspec.MatchStatus
	haveCache := false

	var poll workqueue.PollCount
	for _, f := range zr.File {
		if poll.Tick() {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
		}
		if strings.HasSuffix(f.Name, "/") {
			continue // directory entry
		}

		rel := f.Name
		if baseDir != "" {
			if !strings.HasPrefix(rel, baseDir) {
				continue
			}
			rel = strings.TrimPrefix(rel, baseDir)
			rel = strings.TrimPrefix(rel, "/")
		}
		if rel == "" {
			continue
		}

		if rel == "META-INF/MANIFEST.MF" {
			children, err := readManifestChildren(f, archiveDir)
			if err != nil {
				return nil, err
			}
			for _, child := range children {
				submit(child)
			}
		}

		if isUnderAnyPrefix(rel, nestedSkip) {
			continue
		}

		parent := parentOf(rel)
		var status scanspec.MatchStatus
		if haveCache && parent == cachedParent {
			status = cachedStatus
		} else {
			status = spec.PathMatchStatus(parent)
			cachedParent, cachedStatus, haveCache = parent, status, true
		}

		recordFile(result, spec, status, rel, matchers)
	}

	return result, nil
}

func readManifestChildren(f *zip.File, archiveDir string) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	tokens, err := parseManifestClassPath(raw)
	if err != nil {
		return nil, err
	}
	children := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		children = append(children, resolveManifestClassPathEntry(archiveDir, tok))
	}
	return children, nil
}
