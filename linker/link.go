package linker

import (
	"github.com/go-classgraph/classgraph/classfile"
)

// Input pairs an UnlinkedClassRecord with the provenance the linker must
// record on its ClassInfo: which classpath element it was scanned from and
// which class loader (if any) the caller associates with that element.
type Input struct {
	Record          *classfile.UnlinkedClassRecord
	ClasspathOrigin string
	ClassLoader     string
}

// Link runs the two-pass linking algorithm over a batch of parsed
// classfile records, producing the complete class graph. It is meant to
// run single-threaded after every parser worker has drained, per spec.md
// §4.8.
func Link(inputs []Input) (*Graph, error) {
	g := &Graph{nodes: make(map[string]*ClassInfo)}

	// Pass 1: annotation-default carrying records establish their
	// defaults first, so pass 2 can merge them into any annotation usage
	// regardless of processing order.
	for _, in := range inputs {
		rec := in.Record
		if rec == nil {
			continue
		}
		defaults := collectMethodDefaults(rec)
		if len(defaults) == 0 {
			continue
		}
		base, _ := stripScalaAuxSuffix(rec.Name)
		node := g.getOrCreate(base)
		node.IsAnnotation = true
		if node.AnnotationDefaults == nil {
			node.AnnotationDefaults = make(map[string]any)
		}
		for name, val := range defaults {
			node.AnnotationDefaults[name] = val
		}
	}

	// Pass 2: full linking for every record.
	for _, in := range inputs {
		if in.Record == nil {
			continue
		}
		if err := g.linkOne(in); err != nil {
			return nil, err
		}
	}

	extendInheritedAnnotations(g)

	return g, nil
}

func collectMethodDefaults(rec *classfile.UnlinkedClassRecord) map[string]any {
	var defaults map[string]any
	for _, m := range rec.Methods {
		if !m.HasDefault {
			continue
		}
		if defaults == nil {
			defaults = make(map[string]any)
		}
		defaults[m.Name] = annotationValueToGo(m.Default)
	}
	return defaults
}

func (g *Graph) getOrCreate(name string) *ClassInfo {
	if n, ok := g.nodes[name]; ok {
		return n
	}
	n := newClassInfo(name)
	g.nodes[name] = n
	return n
}

func (g *Graph) linkOne(in Input) error {
	rec := in.Record
	base, wasAux := stripScalaAuxSuffix(rec.Name)
	node := g.getOrCreate(base)

	if !wasAux {
		// Aux classes (Foo$, Foo$class) contribute their members to the
		// base node but never set ClassfileScanned with a "half" record
		// on their own; the base node is what downstream consumers see
		// as Foo.
		node.ClassfileScanned = true
	}
	node.IsInterface = node.IsInterface || rec.Flags.IsInterface()
	node.IsAnnotation = node.IsAnnotation || rec.Flags.IsAnnotation()
	node.Modifiers |= uint16(rec.Flags)
	node.EnclosingClass = firstNonEmpty(node.EnclosingClass, rec.EnclosingClass)
	node.EnclosingMethod = firstNonEmpty(node.EnclosingMethod, rec.EnclosingMethod)

	appendDeduped(&node.ClasspathOrigins, in.ClasspathOrigin)
	appendDeduped(&node.ClassLoaders, in.ClassLoader)

	if rec.Super != "" {
		superNode := g.getOrCreate(rec.Super)
		node.addRelation(RelSuperclass, superNode.Name)
		superNode.addRelation(RelSubclass, node.Name)
	}

	for _, iface := range rec.Interfaces {
		ifaceNode := g.getOrCreate(iface)
		node.addRelation(RelInterface, ifaceNode.Name)
		ifaceNode.addRelation(RelImplementingClass, node.Name)
	}

	for _, ann := range rec.Annotations {
		g.linkAnnotationEdge(node, ann, RelClassAnnotation, RelAnnotatedClass)
		node.ClassAnnotations = append(node.ClassAnnotations, g.resolveAnnotation(ann))
	}

	for _, inner := range rec.InnerClasses {
		if inner.InnerName == "" || inner.OuterName == "" {
			continue
		}
		if inner.InnerName != base {
			continue
		}
		outerNode := g.getOrCreate(inner.OuterName)
		node.addRelation(RelContainingOuter, outerNode.Name)
		outerNode.addRelation(RelContainingInner, node.Name)
	}

	node.Fields = append(node.Fields, linkFields(g, rec)...)
	node.Methods = append(node.Methods, linkMethods(g, rec)...)

	return nil
}

func linkFields(g *Graph, rec *classfile.UnlinkedClassRecord) []FieldInfo {
	out := make([]FieldInfo, 0, len(rec.Fields))
	selfName, _ := stripScalaAuxSuffix(rec.Name)
	self := g.getOrCreate(selfName)
	for _, f := range rec.Fields {
		if f.FieldType != "" {
			typeNode := g.getOrCreate(baseTypeName(f.FieldType))
			self.addRelation(RelFieldType, typeNode.Name)
			typeNode.addRelation(RelFieldTypeUser, self.Name)
		}
		var applied []AppliedAnnotation
		for _, ann := range f.Annotations {
			g.linkAnnotationEdge(self, ann, RelFieldAnnotation, RelAnnotatedFieldHolder)
			applied = append(applied, g.resolveAnnotation(ann))
		}
		out = append(out, FieldInfo{
			Name:             f.Name,
			Descriptor:       f.Descriptor,
			FieldTypeName:    f.FieldType,
			Flags:            uint16(f.Flags),
			HasConstantValue: f.HasConstantValue,
			ConstantValue:    f.ConstantValue,
			Annotations:      applied,
		})
	}
	return out
}

func linkMethods(g *Graph, rec *classfile.UnlinkedClassRecord) []MethodInfo {
	out := make([]MethodInfo, 0, len(rec.Methods))
	selfName, _ := stripScalaAuxSuffix(rec.Name)
	self := g.getOrCreate(selfName)
	for _, m := range rec.Methods {
		var applied []AppliedAnnotation
		for _, ann := range m.Annotations {
			g.linkAnnotationEdge(self, ann, RelMethodAnnotation, RelAnnotatedMethodHolder)
			applied = append(applied, g.resolveAnnotation(ann))
		}
		out = append(out, MethodInfo{
			Name:        m.Name,
			Descriptor:  m.Descriptor,
			ParamTypes:  m.ParamTypes,
			ReturnType:  m.ReturnType,
			Flags:       uint16(m.Flags),
			Annotations: applied,
		})
	}
	return out
}

func (g *Graph) linkAnnotationEdge(node *ClassInfo, ann classfile.AnnotationInfo, fwd, inv RelType) {
	annNode := g.getOrCreate(ann.TypeName)
	node.addRelation(fwd, annNode.Name)
	annNode.addRelation(inv, node.Name)
}

// resolveAnnotation turns a parsed AnnotationInfo into an AppliedAnnotation,
// merging in any default values recorded for parameters the usage site did
// not explicitly supply.
func (g *Graph) resolveAnnotation(ann classfile.AnnotationInfo) AppliedAnnotation {
	annNode, hasNode := g.nodes[ann.TypeName]

	seen := make(map[string]bool, len(ann.Elements))
	params := make([]AnnotationParam, 0, len(ann.Elements))
	for name, v := range ann.Elements {
		seen[name] = true
		params = append(params, AnnotationParam{Name: name, Value: annotationValueToGo(v), HasExplicitValue: true})
	}
	if hasNode {
		for name, def := range annNode.AnnotationDefaults {
			if seen[name] {
				continue
			}
			params = append(params, AnnotationParam{Name: name, Value: def, HasExplicitValue: false})
		}
	}
	return AppliedAnnotation{TypeName: ann.TypeName, Params: params}
}

func annotationValueToGo(v classfile.AnnotationValue) any {
	switch v.Kind {
	case 'Z':
		return v.Bool
	case 'B', 'C', 'I', 'S', 'J':
		return v.Int
	case 'F', 'D':
		return v.Float
	case 's':
		return v.String
	case 'e':
		return v.EnumType + "." + v.EnumConst
	case 'c':
		return v.ClassName
	case '@':
		if v.Annotation == nil {
			return nil
		}
		return v.Annotation.TypeName
	case '[':
		out := make([]any, 0, len(v.Array))
		for _, e := range v.Array {
			out = append(out, annotationValueToGo(e))
		}
		return out
	default:
		return nil
	}
}

func baseTypeName(t string) string {
	for len(t) >= 2 && t[len(t)-2:] == "[]" {
		t = t[:len(t)-2]
	}
	return t
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func appendDeduped(list *[]string, v string) {
	if v == "" {
		return
	}
	for _, existing := range *list {
		if existing == v {
			return
		}
	}
	*list = append(*list, v)
}
