package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-classgraph/classgraph/classfile"
)

func rec(name, super string, interfaces ...string) *classfile.UnlinkedClassRecord {
	return &classfile.UnlinkedClassRecord{Name: name, Super: super, Interfaces: interfaces}
}

func TestLinkBuildsSuperclassAndSubclassEdges(t *testing.T) {
	inputs := []Input{
		{Record: rec("com.example.Animal", "java.lang.Object")},
		{Record: rec("com.example.Dog", "com.example.Animal")},
	}
	g, err := Link(inputs)
	require.NoError(t, err)

	animal, ok := g.Lookup("com.example.Animal")
	require.True(t, ok)
	assert.Contains(t, animal.Neighbors(RelSubclass), "com.example.Dog")

	dog, ok := g.Lookup("com.example.Dog")
	require.True(t, ok)
	assert.Contains(t, dog.Neighbors(RelSuperclass), "com.example.Animal")

	obj, ok := g.Lookup("java.lang.Object")
	require.True(t, ok)
	assert.False(t, obj.ClassfileScanned, "external reference-only node")
}

func TestLinkStripsScalaAuxSuffixes(t *testing.T) {
	inputs := []Input{
		{Record: rec("com.example.Foo", "java.lang.Object")},
		{Record: rec("com.example.Foo$", "java.lang.Object")},
		{Record: rec("com.example.Foo$class", "java.lang.Object")},
	}
	g, err := Link(inputs)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Len()) // Foo + Object, the aux suffixes merge into Foo
	foo, ok := g.Lookup("com.example.Foo")
	require.True(t, ok)
	assert.True(t, foo.ClassfileScanned)
}

func TestReachableSubclassClosure(t *testing.T) {
	inputs := []Input{
		{Record: rec("com.example.A", "")},
		{Record: rec("com.example.B", "com.example.A")},
		{Record: rec("com.example.C", "com.example.B")},
	}
	g, err := Link(inputs)
	require.NoError(t, err)

	result := g.Reachable("com.example.A", RelSubclass, MaskAll, false)
	var names []string
	for _, n := range result {
		names = append(names, n.Name)
	}
	assert.ElementsMatch(t, []string{"com.example.B", "com.example.C"}, names)
}

func TestAnnotationDefaultMergedIntoUsage(t *testing.T) {
	annotationRec := &classfile.UnlinkedClassRecord{
		Name:  "com.example.Checked",
		Flags: classfile.AccessFlags(0x2000 | 0x0200 | 0x0400), // annotation|interface|abstract
		Methods: []classfile.MethodRecord{
			{Name: "value", HasDefault: true, Default: classfile.AnnotationValue{Kind: 's', String: "default-val"}},
		},
	}

	usageRec := &classfile.UnlinkedClassRecord{
		Name: "com.example.Thing",
		Annotations: []classfile.AnnotationInfo{
			{TypeName: "com.example.Checked", Elements: map[string]classfile.AnnotationValue{}},
		},
	}

	g, err := Link([]Input{{Record: annotationRec}, {Record: usageRec}})
	require.NoError(t, err)

	thing, ok := g.Lookup("com.example.Thing")
	require.True(t, ok)
	require.Len(t, thing.ClassAnnotations, 1)
	ann := thing.ClassAnnotations[0]
	require.Len(t, ann.Params, 1)
	assert.Equal(t, "value", ann.Params[0].Name)
	assert.Equal(t, "default-val", ann.Params[0].Value)
	assert.False(t, ann.Params[0].HasExplicitValue)
}

func TestInheritedAnnotationPropagatesToSubclasses(t *testing.T) {
	inheritedMarker := &classfile.UnlinkedClassRecord{Name: "java.lang.annotation.Inherited"}
	checkedAnnotation := &classfile.UnlinkedClassRecord{
		Name: "com.example.Checked",
		Annotations: []classfile.AnnotationInfo{
			{TypeName: "java.lang.annotation.Inherited", Elements: map[string]classfile.AnnotationValue{}},
		},
	}
	base := &classfile.UnlinkedClassRecord{
		Name: "com.example.Base",
		Annotations: []classfile.AnnotationInfo{
			{TypeName: "com.example.Checked", Elements: map[string]classfile.AnnotationValue{}},
		},
	}
	sub := rec("com.example.Sub", "com.example.Base")

	g, err := Link([]Input{
		{Record: inheritedMarker},
		{Record: checkedAnnotation},
		{Record: base},
		{Record: sub},
	})
	require.NoError(t, err)

	result := g.Reachable("com.example.Checked", RelAnnotatedClass, MaskAll, false)
	var names []string
	for _, n := range result {
		names = append(names, n.Name)
	}
	assert.Contains(t, names, "com.example.Base")
	assert.Contains(t, names, "com.example.Sub")
}
