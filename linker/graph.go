// Package linker merges classfile.UnlinkedClassRecord values into a typed,
// queryable class-relationship graph and answers closure queries over it.
// Grounded in shape on the teacher's graph package (construct.go's
// worker-pool ingestion into a shared node map, callgraph's edge-typed
// adjacency lists) but rebuilt around JVM class relationships instead of
// call edges.
package linker

import (
	"errors"
	"sort"
	"strings"
)

// RelType names one kind of directed edge between two ClassInfo nodes. Every
// edge is recorded in both directions: the forward relation on the source
// node and its inverse on the target, so BFS closure queries can walk
// either way without a second index.
type RelType int

const (
	RelSuperclass RelType = iota
	RelSubclass
	RelInterface
	RelImplementingClass
	RelClassAnnotation
	RelAnnotatedClass
	RelMethodAnnotation
	RelAnnotatedMethodHolder
	RelFieldAnnotation
	RelAnnotatedFieldHolder
	RelFieldType
	RelFieldTypeUser
	RelContainingOuter
	RelContainingInner
)

// inverse returns the RelType that represents the same edge in the
// opposite direction.
func (r RelType) inverse() RelType {
	switch r {
	case RelSuperclass:
		return RelSubclass
	case RelSubclass:
		return RelSuperclass
	case RelInterface:
		return RelImplementingClass
	case RelImplementingClass:
		return RelInterface
	case RelClassAnnotation:
		return RelAnnotatedClass
	case RelAnnotatedClass:
		return RelClassAnnotation
	case RelMethodAnnotation:
		return RelAnnotatedMethodHolder
	case RelAnnotatedMethodHolder:
		return RelMethodAnnotation
	case RelFieldAnnotation:
		return RelAnnotatedFieldHolder
	case RelAnnotatedFieldHolder:
		return RelFieldAnnotation
	case RelFieldType:
		return RelFieldTypeUser
	case RelFieldTypeUser:
		return RelFieldType
	case RelContainingOuter:
		return RelContainingInner
	case RelContainingInner:
		return RelContainingOuter
	default:
		return r
	}
}

// ClassMask filters closure-query results by class kind.
type ClassMask int

const (
	MaskStandard ClassMask = iota
	MaskInterface
	MaskAnnotation
	MaskInterfaceOrAnnotation
	MaskAll
)

// AnnotationParam is one (name, value) pair on an applied annotation, with
// HasExplicitValue distinguishing an explicitly-supplied value from one
// filled in from the annotation type's own AnnotationDefault (spec.md
// §4.8's "merge any previously recorded default parameter values").
type AnnotationParam struct {
	Name             string
	Value            any
	HasExplicitValue bool
}

// AppliedAnnotation is one annotation instance attached to a class, field,
// or method, with its parameters resolved against any defaults known at
// link time.
type AppliedAnnotation struct {
	TypeName string
	Params   []AnnotationParam
}

// FieldInfo is the linked view of a field record; its type is kept by name
// (FieldTypeName), not as a link to a node.
type FieldInfo struct {
	Name             string
	Descriptor       string
	FieldTypeName    string
	Flags            uint16
	HasConstantValue bool
	ConstantValue    any
	Annotations      []AppliedAnnotation
}

// MethodInfo is the linked view of a method.
type MethodInfo struct {
	Name        string
	Descriptor  string
	ParamTypes  []string
	ReturnType  string
	Flags       uint16
	Annotations []AppliedAnnotation
}

// ClassInfo is one node of the class graph: a fully linked class, or a
// placeholder ("external") node created only because some other class
// referenced it without ever being scanned itself.
type ClassInfo struct {
	Name string

	ClassfileScanned bool // false means this is an external reference-only node
	IsInterface      bool
	IsAnnotation     bool
	Modifiers        uint16

	ClasspathOrigins []string // deduplicated, first-seen order
	ClassLoaders     []string

	Fields  []FieldInfo
	Methods []MethodInfo

	// AnnotationDefaults holds an annotation type's own element defaults,
	// populated only for classes with IsAnnotation == true, keyed by
	// element name.
	AnnotationDefaults map[string]any

	ClassAnnotations []AppliedAnnotation

	EnclosingClass  string
	EnclosingMethod string

	relations map[RelType]map[string]bool // edge set, keyed by target class name
}

func newClassInfo(name string) *ClassInfo {
	return &ClassInfo{
		Name:      name,
		relations: make(map[RelType]map[string]bool),
	}
}

func (c *ClassInfo) addRelation(rel RelType, target string) {
	set, ok := c.relations[rel]
	if !ok {
		set = make(map[string]bool)
		c.relations[rel] = set
	}
	set[target] = true
}

// Neighbors returns the class names directly reachable from c via rel,
// sorted for deterministic iteration.
func (c *ClassInfo) Neighbors(rel RelType) []string {
	set := c.relations[rel]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for name := range set {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (c *ClassInfo) mask() ClassMask {
	switch {
	case c.IsInterface && c.IsAnnotation:
		return MaskInterfaceOrAnnotation
	case c.IsInterface:
		return MaskInterface
	case c.IsAnnotation:
		return MaskAnnotation
	default:
		return MaskStandard
	}
}

func (c *ClassInfo) matchesMask(m ClassMask) bool {
	switch m {
	case MaskAll:
		return true
	case MaskInterfaceOrAnnotation:
		return c.IsInterface || c.IsAnnotation
	case MaskInterface:
		return c.IsInterface && !c.IsAnnotation
	case MaskAnnotation:
		return c.IsAnnotation
	default:
		return !c.IsInterface && !c.IsAnnotation
	}
}

// Graph is the complete, queryable class-relationship graph produced by
// Link. It is read-only once Link returns.
type Graph struct {
	nodes map[string]*ClassInfo
}

// Lookup returns the node for a class name, if the graph has one (either
// scanned or external).
func (g *Graph) Lookup(name string) (*ClassInfo, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Len reports the number of nodes (scanned plus external) in the graph.
func (g *Graph) Len() int { return len(g.nodes) }

// ErrMultipleOrigins is a sentinel reserved for callers that want to treat
// a class scanned from more than one classpath origin as noteworthy; the
// linker itself does not treat it as an error (spec.md §3 allows multiple
// origins), it simply accumulates them.
var ErrMultipleOrigins = errors.New("linker: class scanned from multiple classpath origins")

// ErrIndexingDisabled names the failure of a query over a relationship the
// scan spec's toggles did not index (e.g. field-type references when
// IndexFieldTypes was off). No function in this package returns it:
// Reachable walks whatever edges were recorded, so a relationship that was
// not indexed yields an empty result rather than this error.
var ErrIndexingDisabled = errors.New("linker: requested relationship was not indexed for this scan")

func stripScalaAuxSuffix(name string) (base string, wasAux bool) {
	if strings.HasSuffix(name, "$class") {
		return strings.TrimSuffix(name, "$class"), true
	}
	if strings.HasSuffix(name, "$") {
		return strings.TrimSuffix(name, "$"), true
	}
	return name, false
}
