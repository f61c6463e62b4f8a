package classpath

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/go-classgraph/classgraph/archivepool"
	"github.com/go-classgraph/classgraph/classfile"
	"github.com/go-classgraph/classgraph/element"
	"github.com/go-classgraph/classgraph/linker"
	"github.com/go-classgraph/classgraph/pathres"
	"github.com/go-classgraph/classgraph/scanspec"
	"github.com/go-classgraph/classgraph/workqueue"
)

// resolvedEntry is everything the scan accumulates about one raw classpath
// token during the resolution/traversal phase. Mutated only from within a
// work unit holding entriesMu, then read-only once the resolve/traverse
// queue has drained.
type resolvedEntry struct {
	token       string
	identity    pathres.Identity
	nestedChain []string
	kind        element.Kind
	canonical   string // outermost archive file path, or directory path
	archiveDir  string // directory containing the outermost archive file

	handle *archivepool.Handle // open handle onto the innermost archive; nil for directories
	base   string              // in-archive base prefix within handle, after resolving any nesting

	result   *element.MatchResult
	children []string // further raw tokens discovered via this entry's manifest
}

// ScanResult is everything a completed scan produces: the linked class
// graph, the ordered classpath elements that contributed to it, and
// bookkeeping needed by a caller that wants to reason about staleness or
// surface non-fatal failures.
type ScanResult struct {
	ID string

	Graph *linker.Graph

	// OrderedElements is the authoritative scan order computed by
	// Ordering & Masking.
	OrderedElements []string

	FileLastModified map[string]time.Time

	// Files maps a FileMatcher's Name() to every matched generic-file
	// resource's relative-to-root path, masked the same way classfiles are
	// (spec.md §4.6): a path already claimed by an earlier element is
	// dropped rather than duplicated.
	Files map[string][]string

	// DeferredErrors holds recoverable per-classfile and per-element
	// failures (truncation, bad constant pool tags, unreadable archive
	// entries) that were logged and skipped rather than aborting the scan.
	DeferredErrors []error

	Spec *scanspec.Spec
}

// Scan resolves, orders, masks, traverses and parses every classpath root
// reachable from classpathTokens, then links the result into a class
// graph. baseDir anchors relative tokens; stdlib locates the running
// JVM's standard-library archives so the caller's Scan Spec can deny them
// by default per spec.md §4.1/§4.6. The returned ScanResult's Graph is
// read-only.
func Scan(ctx context.Context, spec *scanspec.Spec, baseDir string, classpathTokens []string, stdlib pathres.StdlibLocator, matchers []element.FileMatcher) (*ScanResult, error) {
	return ScanWithProvider(ctx, spec, baseDir, StaticProvider(classpathTokens), stdlib, matchers)
}

// ScanWithProvider is Scan generalized over a Provider, so a caller can
// attach a ClassLoaderRef to each classpath root; every class linked
// from a root carries that reference (stringified) in its ClassLoaders.
// matchers collects generic-file resources (spec.md §3/§4.5) alongside
// classfiles; the result is exposed per matcher name on ScanResult.Files.
func ScanWithProvider(ctx context.Context, spec *scanspec.Spec, baseDir string, provider Provider, stdlib pathres.StdlibLocator, matchers []element.FileMatcher) (*ScanResult, error) {
	classpathTokens := provider.ClasspathTokens()

	resolver, err := pathres.NewResolver(baseDir, stdlib)
	if err != nil {
		return nil, err
	}

	pool, err := archivepool.New()
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	// entries is the singleton registry spec.md §3/§5 require: keyed by
	// resolved identity, not raw token, so two differently-spelled tokens
	// that canonicalize to the same archive/directory share one entry and
	// are traversed/parsed exactly once. tokenIdentity records which
	// identity each raw token (including manifest-discovered aliases)
	// resolved to, so later steps can still look entries up by the token
	// strings depthFirstOrder works in terms of.
	entries := make(map[pathres.Identity]*resolvedEntry)
	tokenIdentity := make(map[string]pathres.Identity)
	var entriesMu sync.Mutex

	var deferredMu sync.Mutex
	var deferred []error
	logDeferred := func(err error) {
		deferredMu.Lock()
		deferred = append(deferred, err)
		deferredMu.Unlock()
	}

	resolveQ := workqueue.New(ctx, workerCount())

	var resolveToken func(token string) workqueue.Unit
	resolveToken = func(token string) workqueue.Unit {
		return func(ctx context.Context, submit workqueue.Submitter) error {
			resolved, err := resolver.Resolve(token)
			if err != nil {
				logDeferred(fmt.Errorf("classpath: %s: %w", token, err))
				return nil
			}
			ok, err := resolver.IsValidElement(spec, resolved)
			if err != nil {
				logDeferred(fmt.Errorf("classpath: %s: %w", token, err))
				return nil
			}
			if !ok {
				return nil // filtered out by is_valid_element
			}

			identity := resolved.Identity

			entriesMu.Lock()
			tokenIdentity[token] = identity
			if _, seen := entries[identity]; seen {
				entriesMu.Unlock()
				return nil // this identity is already resolved/claimed by another alias token
			}
			entries[identity] = &resolvedEntry{} // claim the identity before releasing the lock
			entriesMu.Unlock()

			entry, err := traverseResolved(ctx, pool, spec, resolved, token, matchers)
			if err != nil {
				logDeferred(fmt.Errorf("classpath: %s: %w", token, err))
				entriesMu.Lock()
				delete(entries, identity)
				entriesMu.Unlock()
				return nil
			}

			entriesMu.Lock()
			entries[identity] = entry
			entriesMu.Unlock()

			for _, child := range entry.children {
				submit(resolveToken(child))
			}
			return nil
		}
	}

	initial := make([]workqueue.Unit, 0, len(classpathTokens))
	for _, tok := range classpathTokens {
		initial = append(initial, resolveToken(tok))
	}
	if err := resolveQ.Run(initial...); err != nil {
		return nil, err
	}

	// identityAndEntry resolves a raw token back to the identity it
	// claimed and its (possibly shared, when another alias token claimed
	// the same identity first) entry. ok is false for tokens that failed
	// resolution/validation/traversal entirely.
	identityAndEntry := func(token string) (pathres.Identity, *resolvedEntry, bool) {
		entriesMu.Lock()
		defer entriesMu.Unlock()
		identity, ok := tokenIdentity[token]
		if !ok {
			return pathres.Identity{}, nil, false
		}
		e, ok := entries[identity]
		if !ok {
			return pathres.Identity{}, nil, false
		}
		return identity, e, true
	}

	childrenOf := func(token string) []string {
		if _, e, ok := identityAndEntry(token); ok {
			return e.children
		}
		return nil
	}
	order := depthFirstOrder(classpathTokens, childrenOf)

	// seenIdentities collapses every raw token down to the first token
	// that claimed its identity: two tokens naming the same physical
	// archive/directory are one Classpath Element, per spec.md §3/§5, and
	// must contribute exactly one entry to OrderedElements and one set of
	// parse jobs, not one per alias.
	seenIdentities := make(map[pathres.Identity]bool)

	resolvedPaths := make([]resolvedElementPath, 0, len(order))
	orderedTokens := make([]string, 0, len(order))
	for _, tok := range order {
		identity, e, ok := identityAndEntry(tok)
		if !ok || seenIdentities[identity] {
			continue
		}
		seenIdentities[identity] = true
		orderedTokens = append(orderedTokens, tok)
		resolvedPaths = append(resolvedPaths, resolvedElementPath{
			Token:     tok,
			Canonical: e.canonical,
			IsArchive: e.kind == element.KindArchive,
		})
	}
	// Nested-root prefixes are computed here but not applied: every
	// directory was already traversed in full. An outer directory's
	// traversal therefore also records a nested root's files, under paths
	// that begin with the nested root's prefix; those paths differ from
	// the nested element's own relative paths, so the masking step below
	// does not drop them.
	_ = detectNestedRoots(resolvedPaths)

	claimed := make(map[string]bool)
	lastModified := make(map[string]time.Time)

	type parseJob struct {
		token   string
		relPath string
		entry   *resolvedEntry
	}
	dedupedForJobs := make(map[pathres.Identity]bool, len(seenIdentities))
	var jobs []parseJob
	files := make(map[string][]string)
	for _, tok := range order {
		identity, e, ok := identityAndEntry(tok)
		if !ok || dedupedForJobs[identity] || e.result == nil {
			continue
		}
		dedupedForJobs[identity] = true
		kept, _ := maskPaths(claimed, e.result.Classfiles)
		for _, rel := range kept {
			jobs = append(jobs, parseJob{token: tok, relPath: rel, entry: e})
		}
		for name, matched := range e.result.Files {
			keptFiles, _ := maskPaths(claimed, matched)
			if len(keptFiles) > 0 {
				files[name] = append(files[name], keptFiles...)
			}
		}
	}

	var inputsMu sync.Mutex
	var inputs []linker.Input
	interner := classfile.NewInterner()

	parseQ := workqueue.New(ctx, workerCount())
	parseUnits := make([]workqueue.Unit, 0, len(jobs))
	for _, job := range jobs {
		job := job
		parseUnits = append(parseUnits, func(ctx context.Context, submit workqueue.Submitter) error {
			data, modTime, err := readClassfileBytes(job.entry, job.relPath)
			if err != nil {
				logDeferred(fmt.Errorf("classpath: read %s!/%s: %w", job.token, job.relPath, err))
				return nil
			}
			rec, err := classfile.ParseBytes(data, classfile.Options{
				Spec:         spec,
				Interner:     interner,
				RelativePath: job.relPath,
			})
			if err != nil {
				logDeferred(fmt.Errorf("classpath: parse %s!/%s: %w", job.token, job.relPath, err))
				return nil
			}
			if rec == nil {
				return nil
			}
			inputsMu.Lock()
			inputs = append(inputs, linker.Input{
				Record:          rec,
				ClasspathOrigin: job.token,
				ClassLoader:     classLoaderKey(provider.ClassLoaderFor(job.token)),
			})
			if !modTime.IsZero() {
				lastModified[job.relPath] = modTime
			}
			inputsMu.Unlock()
			return nil
		})
	}
	if err := parseQ.Run(parseUnits...); err != nil {
		return nil, err
	}

	graph, err := linker.Link(inputs)
	if err != nil {
		return nil, err
	}

	return &ScanResult{
		ID:               uuid.NewString(),
		Graph:            graph,
		OrderedElements:  orderedTokens,
		FileLastModified: lastModified,
		Files:            files,
		DeferredErrors:   deferred,
		Spec:             spec,
	}, nil
}

func workerCount() int {
	n := os.Getenv("CLASSGRAPH_WORKERS")
	if n == "" {
		return 4
	}
	var count int
	if _, err := fmt.Sscanf(n, "%d", &count); err != nil || count < 1 {
		return 4
	}
	return count
}

// traverseResolved opens a resolution's archive chain (materializing any
// nested archives) and traverses it, or walks it directly if it names a
// directory. The caller is responsible for resolution, validation against
// is_valid_element, and identity-keyed dedup before calling this.
func traverseResolved(ctx context.Context, pool *archivepool.Pool, spec *scanspec.Spec, resolved pathres.Resolved, token string, matchers []element.FileMatcher) (*resolvedEntry, error) {
	entry := &resolvedEntry{
		token:       token,
		identity:    resolved.Identity,
		nestedChain: resolved.NestedChain,
		canonical:   resolved.Identity.Path,
	}

	info, statErr := os.Stat(entry.canonical)
	if statErr != nil {
		return nil, statErr
	}

	if info.IsDir() {
		entry.kind = element.KindDirectory
		result, err := element.TraverseDirectory(ctx, entry.canonical, spec, nil, matchers)
		if err != nil {
			return nil, err
		}
		entry.result = result
		return entry, nil
	}

	entry.kind = element.KindArchive
	entry.archiveDir = filepath.Dir(entry.canonical)

	handle, base, err := openArchiveChain(pool, entry)
	if err != nil {
		return nil, err
	}
	entry.handle = handle
	entry.base = base

	var children []string
	result, err := element.TraverseArchive(ctx, handle.Reader, base, entry.archiveDir, spec, nil, matchers, func(resolved string) {
		children = append(children, resolved)
	})
	if err != nil {
		return nil, err
	}
	entry.result = result
	entry.children = children
	return entry, nil
}

// openArchiveChain opens a resolved entry's archive, materializing every
// intermediate nested archive named in its chain to a temp file via the
// pool. The chain's final segment is the in-archive base directory within
// the innermost archive (possibly empty, meaning the archive's own root).
func openArchiveChain(pool *archivepool.Pool, entry *resolvedEntry) (*archivepool.Handle, string, error) {
	if len(entry.nestedChain) <= 1 {
		h, err := pool.OpenFile(entry.canonical)
		return h, entry.identity.InArchiveBaseDir, err
	}

	h, err := pool.OpenFile(entry.canonical)
	if err != nil {
		return nil, "", err
	}
	for i := 1; i < len(entry.nestedChain)-1; i++ {
		archiveName := entry.nestedChain[i]
		f := findZipEntry(h.Reader, archiveName)
		if f == nil {
			return nil, "", fmt.Errorf("archivepool: nested archive %q not found", archiveName)
		}
		h, err = pool.OpenNested(f)
		if err != nil {
			return nil, "", err
		}
	}
	return h, entry.nestedChain[len(entry.nestedChain)-1], nil
}

func findZipEntry(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func readClassfileBytes(entry *resolvedEntry, relPath string) ([]byte, time.Time, error) {
	if entry.kind == element.KindDirectory {
		full := filepath.Join(entry.canonical, filepath.FromSlash(relPath))
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, time.Time{}, err
		}
		info, statErr := os.Stat(full)
		if statErr != nil {
			return data, time.Time{}, nil
		}
		return data, info.ModTime(), nil
	}

	fullName := relPath
	if entry.base != "" {
		fullName = entry.base + "/" + relPath
	}
	f := findZipEntry(entry.handle.Reader, fullName)
	if f == nil {
		return nil, time.Time{}, fmt.Errorf("classpath: %s not found in %s", relPath, entry.canonical)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, time.Time{}, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, time.Time{}, err
	}
	return data, f.Modified, nil
}
