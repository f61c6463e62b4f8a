// Package scanspec implements the immutable scan specification: the
// package/class/archive allow- and deny-lists and the toggles that drive
// every other stage of a scan.
package scanspec

import (
	"regexp"
	"strings"
)

// MatchStatus is the result of testing a relative directory path against
// the package allow/deny lists.
type MatchStatus int

const (
	// WithinDenied means the path (or an ancestor of it) is explicitly
	// denied; the subtree must be pruned.
	WithinDenied MatchStatus = iota
	// WithinAllowed means the path is itself allow-listed, or is a
	// descendant of an allow-listed prefix.
	WithinAllowed
	// AncestorOfAllowed means the path is a strict ancestor of some
	// allow-listed prefix and traversal must recurse into it.
	AncestorOfAllowed
	// AtAllowedClassPackage means the path is the package directory of a
	// specifically-allowed class: only that class should be read, not the
	// whole directory.
	AtAllowedClassPackage
	// NotWithinAllowed means the path is unrelated to anything allowed and
	// must be pruned.
	NotWithinAllowed
)

func (s MatchStatus) String() string {
	switch s {
	case WithinDenied:
		return "within_denied"
	case WithinAllowed:
		return "within_allowed"
	case AncestorOfAllowed:
		return "ancestor_of_allowed"
	case AtAllowedClassPackage:
		return "at_allowed_class_package"
	case NotWithinAllowed:
		return "not_within_allowed"
	default:
		return "unknown"
	}
}

// Toggles are the boolean scan options enumerated in spec.md §2/§4.1.
type Toggles struct {
	ScanArchives           bool
	ScanDirectories        bool
	IndexFieldTypes        bool
	IndexMethodAnnotations bool
	IndexFieldAnnotations  bool
	CaptureFieldInfo       bool
	CaptureMethodInfo      bool
	StrictExternalFilter   bool
	IgnoreVisibility       bool
	RecursionEnabled       bool
	// AnnotationRetentionClass, when true, makes RuntimeInvisibleAnnotations
	// also decoded in addition to RuntimeVisibleAnnotations (CLASS
	// retention, per spec.md §4.7).
	AnnotationRetentionClass bool
}

// DefaultToggles mirrors a typical full scan: both element kinds enabled,
// field/method info captured and indexed, recursion on, retention filter at
// RUNTIME only (the conservative default).
func DefaultToggles() Toggles {
	return Toggles{
		ScanArchives:           true,
		ScanDirectories:        true,
		IndexFieldTypes:        true,
		IndexMethodAnnotations: true,
		IndexFieldAnnotations:  true,
		CaptureFieldInfo:       true,
		CaptureMethodInfo:      true,
		RecursionEnabled:       true,
	}
}

// defaultDeniedPackages are denied unless explicitly overridden by a
// "!"/"!!" override token, per spec.md §4.1; an allow token for one of
// them does not lift the denial.
var defaultDeniedPackages = []string{"java/", "javax/", "sun/"}

type globRule struct {
	exact *regexp.Regexp
	name  string // original pattern, kept for exact-set membership tests
}

// Spec is the immutable scan specification. Construct with New; it is safe
// for concurrent read access from every worker once built.
type Spec struct {
	toggles Toggles

	allowedPackages []string // each with trailing "/"
	deniedPackages  []string

	allowedClasses map[string]bool // relative classfile path, e.g. "com/example/Foo.class"
	deniedClasses  map[string]bool

	archiveAllowExact map[string]bool
	archiveDenyExact  map[string]bool
	archiveAllowGlob  []*regexp.Regexp
	archiveDenyGlob   []*regexp.Regexp

	dirAllowExact map[string]bool
	dirDenyExact  map[string]bool
	dirAllowGlob  []*regexp.Regexp
	dirDenyGlob   []*regexp.Regexp

	systemPackagesDenied bool
	systemArchivesDenied bool
}

// New builds an immutable Spec from a sequence of spec tokens plus the
// toggle set. Tokens follow spec.md §4.1's grammar:
//
//	"!"            disable system-package denial (java/, javax/, sun/)
//	"!!"           disable both system-package and system-archive denial
//	"-xxx"         deny xxx
//	"xxx"          allow xxx
//	"jar:xxx"      allow/deny an archive file name pattern
//	"dir:xxx"      allow/deny a plain-directory element name pattern
//
// A plain-package-or-class token is classified as a class (rather than a
// package prefix) when the last "."-delimited segment starts with an
// uppercase letter — the same heuristic spec.md §4.1 and §9 call out as
// occasionally misclassifying uppercase-led packages, by design: document
// it, don't work around it.
func New(toggles Toggles, tokens ...string) (*Spec, error) {
	s := &Spec{
		toggles:              toggles,
		allowedClasses:       map[string]bool{},
		deniedClasses:        map[string]bool{},
		archiveAllowExact:    map[string]bool{},
		archiveDenyExact:     map[string]bool{},
		dirAllowExact:        map[string]bool{},
		dirDenyExact:         map[string]bool{},
		systemPackagesDenied: true,
		systemArchivesDenied: true,
	}

	for _, tok := range tokens {
		if err := s.applyToken(tok); err != nil {
			return nil, err
		}
	}

	if len(s.allowedPackages) == 0 && len(s.allowedClasses) == 0 {
		// Nothing explicitly allowed: everything not denied is in scope.
		// Represent this with the root prefix so path_match_status treats
		// "/" itself as within_allowed.
		s.allowedPackages = []string{""}
	}

	if s.systemPackagesDenied {
		s.deniedPackages = append(append([]string{}, defaultDeniedPackages...), s.deniedPackages...)
	}

	return s, nil
}

func (s *Spec) applyToken(tok string) error {
	switch tok {
	case "!":
		s.systemPackagesDenied = false
		return nil
	case "!!":
		s.systemPackagesDenied = false
		s.systemArchivesDenied = false
		return nil
	}

	deny := false
	rest := tok
	if strings.HasPrefix(rest, "-") {
		deny = true
		rest = rest[1:]
	}

	switch {
	case strings.HasPrefix(rest, "jar:"):
		return s.addArchiveRule(rest[len("jar:"):], deny)
	case strings.HasPrefix(rest, "dir:"):
		return s.addDirRule(rest[len("dir:"):], deny)
	default:
		s.addPackageOrClassRule(rest, deny)
		return nil
	}
}

func (s *Spec) addPackageOrClassRule(dotted string, deny bool) {
	if isClassToken(dotted) {
		rel := classNameToRelativePath(dotted)
		if deny {
			s.deniedClasses[rel] = true
		} else {
			s.allowedClasses[rel] = true
		}
		return
	}
	prefix := packageNameToPathPrefix(dotted)
	if deny {
		s.deniedPackages = append(s.deniedPackages, prefix)
	} else {
		s.allowedPackages = append(s.allowedPackages, prefix)
	}
}

func (s *Spec) addArchiveRule(pattern string, deny bool) error {
	if !strings.ContainsAny(pattern, "*?") {
		if deny {
			s.archiveDenyExact[pattern] = true
		} else {
			s.archiveAllowExact[pattern] = true
		}
		return nil
	}
	re, err := compileGlob(pattern)
	if err != nil {
		return err
	}
	if deny {
		s.archiveDenyGlob = append(s.archiveDenyGlob, re)
	} else {
		s.archiveAllowGlob = append(s.archiveAllowGlob, re)
	}
	return nil
}

func (s *Spec) addDirRule(pattern string, deny bool) error {
	if !strings.ContainsAny(pattern, "*?") {
		if deny {
			s.dirDenyExact[pattern] = true
		} else {
			s.dirAllowExact[pattern] = true
		}
		return nil
	}
	re, err := compileGlob(pattern)
	if err != nil {
		return err
	}
	if deny {
		s.dirDenyGlob = append(s.dirDenyGlob, re)
	} else {
		s.dirAllowGlob = append(s.dirAllowGlob, re)
	}
	return nil
}

// compileGlob turns a shell-style glob into an anchored regexp: "*"
// expands to ".*", "." is escaped to a literal dot, everything else is
// taken literally.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range pattern {
		switch r {
		case '*':
			b.WriteString(".*")
		case '.':
			b.WriteString(`\.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return regexp.Compile(b.String())
}

func isClassToken(dotted string) bool {
	segs := strings.Split(dotted, ".")
	last := segs[len(segs)-1]
	if last == "" {
		return false
	}
	r := []rune(last)[0]
	return r >= 'A' && r <= 'Z'
}

func packageNameToPathPrefix(dotted string) string {
	if dotted == "" {
		return ""
	}
	p := strings.ReplaceAll(dotted, ".", "/")
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

func classNameToRelativePath(dotted string) string {
	return strings.ReplaceAll(dotted, ".", "/") + ".class"
}

// Toggles returns the scan toggle set.
func (s *Spec) Toggles() Toggles { return s.toggles }

func (s *Spec) ArchivesEnabled() bool           { return s.toggles.ScanArchives }
func (s *Spec) DirectoriesEnabled() bool        { return s.toggles.ScanDirectories }
func (s *Spec) IndexFieldTypes() bool           { return s.toggles.IndexFieldTypes }
func (s *Spec) IndexMethodAnnotations() bool    { return s.toggles.IndexMethodAnnotations }
func (s *Spec) IndexFieldAnnotations() bool     { return s.toggles.IndexFieldAnnotations }
func (s *Spec) CaptureFieldInfo() bool          { return s.toggles.CaptureFieldInfo }
func (s *Spec) CaptureMethodInfo() bool         { return s.toggles.CaptureMethodInfo }
func (s *Spec) StrictExternalFilter() bool      { return s.toggles.StrictExternalFilter }
func (s *Spec) IgnoreVisibility() bool          { return s.toggles.IgnoreVisibility }
func (s *Spec) RecursionEnabled() bool          { return s.toggles.RecursionEnabled }
func (s *Spec) ClassRetentionIncludesClass() bool { return s.toggles.AnnotationRetentionClass }
func (s *Spec) SystemPackagesDenied() bool      { return s.systemPackagesDenied }
func (s *Spec) SystemArchivesDenied() bool      { return s.systemArchivesDenied }
