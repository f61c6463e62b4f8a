package linker

// Reachable performs a BFS over rel-typed edges starting from the direct
// neighbors of "from" (the origin itself is never included), with a
// visited-set that breaks cycles, per spec.md §4.8. Results are filtered by
// mask and, when strict is true, external (never-classfile-scanned) nodes
// are excluded.
//
// For RelAnnotatedMethodHolder and RelAnnotatedFieldHolder the walk also
// follows RelAnnotatedClass out of any annotation node it visits, so that a
// meta-annotation (an annotation applied to another annotation type) is
// expanded into every class whose methods/fields carry the inner
// annotation — not just the classes that use the outer one directly.
func (g *Graph) Reachable(from string, rel RelType, mask ClassMask, strict bool) []*ClassInfo {
	origin, ok := g.nodes[from]
	if !ok {
		return nil
	}

	visited := map[string]bool{from: true}
	var order []string
	queue := origin.Neighbors(rel)

	metaExpand := rel == RelAnnotatedMethodHolder || rel == RelAnnotatedFieldHolder

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if visited[name] {
			continue
		}
		visited[name] = true
		order = append(order, name)

		node, ok := g.nodes[name]
		if !ok {
			continue
		}

		queue = append(queue, node.Neighbors(rel)...)

		if metaExpand && node.IsAnnotation {
			for _, metaUser := range node.Neighbors(RelAnnotatedClass) {
				if !visited[metaUser] {
					if metaNode, ok := g.nodes[metaUser]; ok {
						queue = append(queue, metaNode.Neighbors(rel)...)
					}
				}
			}
		}
	}

	out := make([]*ClassInfo, 0, len(order))
	for _, name := range order {
		node, ok := g.nodes[name]
		if !ok {
			continue
		}
		if strict && !node.ClassfileScanned {
			continue
		}
		if !node.matchesMask(mask) {
			continue
		}
		out = append(out, node)
	}
	return out
}

// annotationInheritedTypeName is the source-form name of
// java.lang.annotation.Inherited, the meta-annotation that extends a
// classes-with-annotation result to every subclass of a direct hit.
const annotationInheritedTypeName = "java.lang.annotation.Inherited"

// extendInheritedAnnotations implements spec.md §4.8's final step: for
// every annotation type itself marked @Inherited, every direct
// classes-with-annotation hit additionally propagates the annotation edge
// to its subclasses (recursively), so closure queries see it without the
// caller needing to walk RelSubclass separately.
func extendInheritedAnnotations(g *Graph) {
	for _, annNode := range g.nodes {
		if !isMarkedInherited(annNode) {
			continue
		}
		directHits := annNode.Neighbors(RelAnnotatedClass)
		for _, hitName := range directHits {
			hitNode, ok := g.nodes[hitName]
			if !ok {
				continue
			}
			propagateToSubclasses(g, annNode, hitNode, map[string]bool{hitName: true})
		}
	}
}

func isMarkedInherited(annNode *ClassInfo) bool {
	for _, ann := range annNode.ClassAnnotations {
		if ann.TypeName == annotationInheritedTypeName {
			return true
		}
	}
	return false
}

func propagateToSubclasses(g *Graph, annNode, hitNode *ClassInfo, seen map[string]bool) {
	for _, subName := range hitNode.Neighbors(RelSubclass) {
		if seen[subName] {
			continue
		}
		seen[subName] = true
		subNode, ok := g.nodes[subName]
		if !ok {
			continue
		}
		annNode.addRelation(RelAnnotatedClass, subNode.Name)
		subNode.addRelation(RelClassAnnotation, annNode.Name)
		propagateToSubclasses(g, annNode, subNode, seen)
	}
}
