package pathres

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Spec describes the subset of scanspec.Spec that the resolver needs,
// avoiding an import cycle between pathres and scanspec.
type Spec interface {
	ArchivesEnabled() bool
	DirectoriesEnabled() bool
	ArchiveIsAllowed(name string) bool
	SystemArchivesDenied() bool
}

// StdlibLocator returns the canonical paths of the current runtime's
// standard-library archives. The core never implements this itself (see
// spec.md §1 Out of scope); it is supplied by the external collaborator
// that knows how to find the running JVM's rt.jar/jrt image.
type StdlibLocator func() []string

// memoCacheSize bounds the per-scan canonicalization cache. Sized generously
// relative to a typical classpath; eviction only matters for degenerate
// inputs with enormous numbers of distinct raw tokens.
const memoCacheSize = 4096

// Resolver canonicalizes raw classpath tokens for a single scan. It is
// scan-scoped (never a package-level global, per the "no global state"
// design note) and safe for concurrent use.
type Resolver struct {
	baseDir string
	stdlib  StdlibLocator

	mu    sync.Mutex
	cache *lru.Cache[string, Resolved]
}

// NewResolver constructs a Resolver rooted at baseDir (used to make
// relative raw tokens absolute). stdlib may be nil if standard-library
// detection is not needed (system archives will then never match).
func NewResolver(baseDir string, stdlib StdlibLocator) (*Resolver, error) {
	cache, err := lru.New[string, Resolved](memoCacheSize)
	if err != nil {
		return nil, fmt.Errorf("pathres: building memo cache: %w", err)
	}
	return &Resolver{baseDir: baseDir, stdlib: stdlib, cache: cache}, nil
}

// Resolve canonicalizes rawToken, memoizing the result for the lifetime of
// the Resolver.
func (r *Resolver) Resolve(rawToken string) (Resolved, error) {
	r.mu.Lock()
	if cached, ok := r.cache.Get(rawToken); ok {
		r.mu.Unlock()
		return cached, nil
	}
	r.mu.Unlock()

	resolved, err := Resolve(r.baseDir, rawToken)
	if err != nil {
		return Resolved{}, err
	}

	r.mu.Lock()
	r.cache.Add(rawToken, resolved)
	r.mu.Unlock()
	return resolved, nil
}

// IsValidElement implements spec.md §4.2 is_valid_element: the resolved
// path must exist (or be materializable — nested archives are checked by
// their outer archive's existence only, since the inner entry can't be
// probed without opening the outer archive), match the directories/archives
// toggles, respect archive name allow/deny, and respect system-archive
// denial for the runtime standard library.
func (r *Resolver) IsValidElement(spec Spec, resolved Resolved) (bool, error) {
	info, err := os.Stat(resolved.Identity.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("pathres: stat %s: %w", resolved.Identity.Path, err)
	}

	if info.IsDir() {
		if resolved.Identity.InArchiveBaseDir != "" {
			// A directory can never carry an in-archive base dir.
			return false, nil
		}
		return spec.DirectoriesEnabled(), nil
	}

	if !spec.ArchivesEnabled() {
		return false, nil
	}
	name := filepath.Base(resolved.Identity.Path)
	if !spec.ArchiveIsAllowed(name) {
		return false, nil
	}
	if spec.SystemArchivesDenied() && r.isStdlibArchive(resolved.Identity.Path) {
		return false, nil
	}
	return true, nil
}

func (r *Resolver) isStdlibArchive(canonicalPath string) bool {
	if r.stdlib == nil {
		return false
	}
	for _, p := range r.stdlib() {
		if filepath.Clean(p) == canonicalPath {
			return true
		}
	}
	return false
}

// Canonicalize follows symlinks to obtain a stable filesystem identity.
// Neither Resolve nor IsValidElement calls it: identities are the cleaned
// token paths, so two tokens that reach one element through different
// symlinks get different identities.
func Canonicalize(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", fmt.Errorf("pathres: canonicalize %s: %w", path, err)
	}
	return resolved, nil
}
