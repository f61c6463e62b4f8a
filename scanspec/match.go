package scanspec

import (
	"regexp"
	"strings"
)

// PathMatchStatus implements spec.md §4.1's path_match_status over a
// relative directory path (always "/"-separated, no leading slash except
// the root which is represented as "").
//
// Tie-breaks, in order: denial wins over allowance; a path that is both an
// ancestor of an allow-listed path and itself allow-listed is
// within_allowed; the root is an ancestor of every allowed path when
// recursion is enabled. When recursion is disabled a directory is
// within_allowed only if it exactly equals an allowed prefix.
func (s *Spec) PathMatchStatus(relDirPath string) MatchStatus {
	dir := normalizeDir(relDirPath)

	for _, denied := range s.deniedPackages {
		if withinPrefix(dir, denied) {
			return WithinDenied
		}
	}

	if s.toggles.RecursionEnabled {
		for _, allowed := range s.allowedPackages {
			if withinPrefix(dir, allowed) {
				return WithinAllowed
			}
		}
		for _, allowed := range s.allowedPackages {
			if isAncestorOf(dir, allowed) {
				return AncestorOfAllowed
			}
		}
	} else {
		for _, allowed := range s.allowedPackages {
			if dir == strings.TrimSuffix(allowed, "/") {
				return WithinAllowed
			}
		}
	}

	if s.hasAllowedClassInPackage(dir) {
		return AtAllowedClassPackage
	}

	return NotWithinAllowed
}

// withinPrefix reports whether dir equals or is a descendant of prefix
// (prefix carries a trailing "/", "" denotes the root which matches
// everything).
func withinPrefix(dir, prefix string) bool {
	if prefix == "" {
		return true
	}
	return dir == strings.TrimSuffix(prefix, "/") || strings.HasPrefix(dir, prefix)
}

// isAncestorOf reports whether dir is a strict ancestor directory of
// prefix, i.e. prefix lies somewhere below dir. The root ("") is always an
// ancestor of any non-root prefix.
func isAncestorOf(dir, prefix string) bool {
	if prefix == "" {
		return false
	}
	trimmed := strings.TrimSuffix(prefix, "/")
	if dir == "" {
		return trimmed != ""
	}
	return strings.HasPrefix(trimmed, dir+"/") || strings.HasPrefix(trimmed+"/", dir+"/")
}

func (s *Spec) hasAllowedClassInPackage(dir string) bool {
	prefix := dir
	if prefix != "" {
		prefix += "/"
	}
	for rel := range s.allowedClasses {
		idx := strings.LastIndex(rel, "/")
		pkg := ""
		if idx >= 0 {
			pkg = rel[:idx+1]
		}
		if pkg == prefix {
			return true
		}
	}
	return false
}

func normalizeDir(p string) string {
	p = strings.Trim(p, "/")
	if p == "." {
		return ""
	}
	return p
}

// IsSpecificallyAllowedClass implements spec.md §4.1's
// is_specifically_allowed_class: true iff the classfile relative path is
// explicitly allowed and not explicitly denied.
func (s *Spec) IsSpecificallyAllowedClass(relativePath string) bool {
	relativePath = strings.TrimPrefix(relativePath, "/")
	if s.deniedClasses[relativePath] {
		return false
	}
	return s.allowedClasses[relativePath]
}

// ClassIsDenied implements spec.md §4.1's class_is_denied: true if the
// class is specifically denied, or falls under a denied package prefix.
// className is dotted source form (e.g. "com.example.Foo").
func (s *Spec) ClassIsDenied(className string) bool {
	rel := classNameToRelativePath(className)
	if s.deniedClasses[rel] {
		return true
	}
	pkgPath := packageNameToPathPrefix(packageOf(className))
	for _, denied := range s.deniedPackages {
		if withinPrefix(strings.TrimSuffix(pkgPath, "/"), denied) {
			return true
		}
	}
	return false
}

func packageOf(className string) string {
	idx := strings.LastIndex(className, ".")
	if idx < 0 {
		return ""
	}
	return className[:idx]
}

// ArchiveIsAllowed implements spec.md §4.1's archive_is_allowed: deny takes
// precedence over allow; an empty allow-set means every archive is
// allowed.
func (s *Spec) ArchiveIsAllowed(name string) bool {
	return matchAllowDeny(name, s.archiveAllowExact, s.archiveDenyExact, s.archiveAllowGlob, s.archiveDenyGlob)
}

// DirectoryIsAllowed is the symmetric partner to ArchiveIsAllowed for
// "dir:"-scoped tokens, matching a Directory Element's base name.
func (s *Spec) DirectoryIsAllowed(name string) bool {
	return matchAllowDeny(name, s.dirAllowExact, s.dirDenyExact, s.dirAllowGlob, s.dirDenyGlob)
}

func matchAllowDeny(name string, allowExact, denyExact map[string]bool, allowGlob, denyGlob []*regexp.Regexp) bool {
	if denyExact[name] {
		return false
	}
	for _, re := range denyGlob {
		if re.MatchString(name) {
			return false
		}
	}

	if len(allowExact) == 0 && len(allowGlob) == 0 {
		return true
	}
	if allowExact[name] {
		return true
	}
	for _, re := range allowGlob {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
