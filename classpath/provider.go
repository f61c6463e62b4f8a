package classpath

import "fmt"

// ClassLoaderRef is an opaque handle associated with one classpath root.
// Scan never invokes it — only stringifies and propagates it through to
// every class linked from that root's ClassLoaders field, for the
// caller's own later use (spec.md §6: "the core never invokes them, only
// propagates them through Class Info for later use").
type ClassLoaderRef any

// Provider supplies the ordered raw classpath tokens for a scan, each
// optionally augmented with a class loader reference. It replaces a bare
// []string when a caller wants token order and loader association to
// come from the same place (e.g. a build tool's own classpath model)
// rather than having Scan introspect the environment itself.
type Provider interface {
	// ClasspathTokens returns the ordered raw classpath tokens, exactly
	// as they would appear in a path-separated classpath string.
	ClasspathTokens() []string

	// ClassLoaderFor returns the class loader reference associated with
	// one of the tokens returned by ClasspathTokens, or nil if none.
	ClassLoaderFor(token string) ClassLoaderRef
}

// StaticProvider is a Provider for the common case: a fixed token list
// with no class loader association.
type StaticProvider []string

func (p StaticProvider) ClasspathTokens() []string                 { return p }
func (p StaticProvider) ClassLoaderFor(token string) ClassLoaderRef { return nil }

// classLoaderKey stringifies an opaque ClassLoaderRef for storage in
// linker.Input.ClassLoader / ClassInfo.ClassLoaders, which are plain
// strings deduplicated by equality. A nil ref yields "", which the
// linker already treats as "no loader" and skips recording.
func classLoaderKey(ref ClassLoaderRef) string {
	if ref == nil {
		return ""
	}
	if s, ok := ref.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", ref)
}
