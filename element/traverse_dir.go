package element

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-classgraph/classgraph/scanspec"
	"github.com/go-classgraph/classgraph/workqueue"
)

// TraverseDirectory walks a Directory Element's filesystem tree, classifying
// each subdirectory by path_match_status and pruning or recording per
// spec.md §4.5: within_denied prunes, ancestor_of_allowed recurses,
// within_allowed records every regular file, at_allowed_class_package
// records only specifically-allowed classfiles, not_within_allowed is
// pruned. nestedSkip are relative prefixes belonging to a nested classpath
// root that this element must not double-scan. ctx is polled every
// workqueue.PollEvery directory entries, per spec.md §5's interruption
// cadence for long inner loops.
func TraverseDirectory(ctx context.Context, root string, spec *scanspec.Spec, nestedSkip []string, matchers []FileMatcher) (*MatchResult, error) {
	result := newMatchResult()
	var poll workqueue.PollCount

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if poll.Tick() {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			rel = ""
		}

		if d.IsDir() {
			if rel != "" && isUnderAnyPrefix(rel, nestedSkip) {
				return filepath.SkipDir
			}
			if rel == "" {
				return nil // root itself is never pruned
			}
			switch spec.PathMatchStatus(rel) {
			case scanspec.WithinDenied, scanspec.NotWithinAllowed:
				return filepath.SkipDir
			default:
				return nil
			}
		}

		if rel != "" && isUnderAnyPrefix(rel, nestedSkip) {
			return nil
		}

		parentDir := parentOf(rel)
		status := spec.PathMatchStatus(parentDir)
		recordFile(result, spec, status, rel, matchers)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func parentOf(rel string) string {
	idx := strings.LastIndexByte(rel, '/')
	if idx < 0 {
		return ""
	}
	return rel[:idx]
}

func recordFile(result *MatchResult, spec *scanspec.Spec, status scanspec.MatchStatus, rel string, matchers []FileMatcher) {
	switch status {
	case scanspec.WithinAllowed:
		classifyFile(result, rel, matchers)
	case scanspec.AtAllowedClassPackage:
		if strings.HasSuffix(rel, ".class") && spec.IsSpecificallyAllowedClass(rel) {
			result.Classfiles = append(result.Classfiles, rel)
		}
	default:
		// within_denied, ancestor_of_allowed (no file here is itself
		// allowed by virtue of being an ancestor), not_within_allowed.
	}
}

func classifyFile(result *MatchResult, rel string, matchers []FileMatcher) {
	if strings.HasSuffix(rel, ".class") {
		result.Classfiles = append(result.Classfiles, rel)
		return
	}
	for _, m := range matchers {
		if m.Matches(rel) {
			result.addFile(m.Name(), rel)
		}
	}
}
