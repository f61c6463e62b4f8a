package classfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-classgraph/classgraph/scanspec"
)

func TestParseBasicClass(t *testing.T) {
	w := newClassWriter()
	w.writeHeader(0, 52, accPublic|accSuper, "com/example/Foo", "java/lang/Object", []string{"java/io/Serializable"})
	w.fieldsCount(0)
	w.methodsCount(0)
	w.classAttrsCount(0)

	rec, err := Parse(bytes.NewReader(w.bytes()), Options{})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "com.example.Foo", rec.Name)
	assert.Equal(t, "java.lang.Object", rec.Super)
	assert.Equal(t, []string{"java.io.Serializable"}, rec.Interfaces)
	assert.True(t, rec.Flags.IsPublic())
	assert.Equal(t, uint16(52), rec.MajorVersion)
}

func TestParseBadMagicRejected(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 52}
	_, err := Parse(bytes.NewReader(data), Options{})
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestParseTruncatedStreamRejected(t *testing.T) {
	w := newClassWriter()
	w.writeHeader(0, 52, accPublic, "com/example/Foo", "java/lang/Object", nil)
	full := w.bytes()
	truncated := full[:len(full)-2]

	_, err := Parse(bytes.NewReader(truncated), Options{})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestParseFieldWithConstantValue(t *testing.T) {
	w := newClassWriter()
	w.writeHeader(0, 52, accPublic, "com/example/Foo", "java/lang/Object", nil)
	constIdx := w.integer(42)
	w.fieldsCount(1)
	w.fieldWithConstantValue(accPublic|accStatic|accFinal, "ANSWER", "I", constIdx)
	w.methodsCount(0)
	w.classAttrsCount(0)

	rec, err := Parse(bytes.NewReader(w.bytes()), Options{})
	require.NoError(t, err)
	require.Len(t, rec.Fields, 1)
	f := rec.Fields[0]
	assert.Equal(t, "ANSWER", f.Name)
	assert.Equal(t, "int", f.FieldType)
	assert.True(t, f.HasConstantValue)
	assert.Equal(t, int64(42), f.ConstantValue)
}

func TestParseFieldWithStringConstantValue(t *testing.T) {
	w := newClassWriter()
	w.writeHeader(0, 52, accPublic, "com/example/Foo", "java/lang/Object", nil)
	constIdx := w.stringConst("hello")
	w.fieldsCount(1)
	w.fieldWithConstantValue(accPublic|accStatic|accFinal, "GREETING", "Ljava/lang/String;", constIdx)
	w.methodsCount(0)
	w.classAttrsCount(0)

	rec, err := Parse(bytes.NewReader(w.bytes()), Options{})
	require.NoError(t, err)
	require.Len(t, rec.Fields, 1)
	assert.Equal(t, "hello", rec.Fields[0].ConstantValue)
	assert.Equal(t, "java.lang.String", rec.Fields[0].FieldType)
}

func TestParseMethodDescriptorAndAnnotation(t *testing.T) {
	w := newClassWriter()
	w.writeHeader(0, 52, accPublic, "com/example/Foo", "java/lang/Object", nil)
	w.fieldsCount(0)
	w.methodsCount(1)
	w.methodWithAnnotation(accPublic, "compute", "(ILjava/lang/String;)Z", "com/example/Checked")
	w.classAttrsCount(0)

	rec, err := Parse(bytes.NewReader(w.bytes()), Options{})
	require.NoError(t, err)
	require.Len(t, rec.Methods, 1)
	m := rec.Methods[0]
	assert.Equal(t, "compute", m.Name)
	assert.Equal(t, []string{"int", "java.lang.String"}, m.ParamTypes)
	assert.Equal(t, "boolean", m.ReturnType)
	require.Len(t, m.Annotations, 1)
	assert.Equal(t, "com.example.Checked", m.Annotations[0].TypeName)
	assert.True(t, m.Annotations[0].Visible)
}

func TestParseArraysAndNestedDescriptors(t *testing.T) {
	params, ret, err := parseMethodDescriptor("([I[[Ljava/lang/String;)[D")
	require.NoError(t, err)
	assert.Equal(t, []string{"int[]", "java.lang.String[][]"}, params)
	assert.Equal(t, "double[]", ret)
}

func TestToSourceFormConvertsSlashesToDots(t *testing.T) {
	assert.Equal(t, "java.util.List", ToSourceForm("java/util/List"))
}

func TestInternerDeduplicates(t *testing.T) {
	in := NewInterner()
	a := in.intern("java.lang.String")
	b := in.intern("java.lang.String")
	assert.Equal(t, a, b)
}

func TestIdempotentParseProducesEqualRecords(t *testing.T) {
	w := newClassWriter()
	w.writeHeader(0, 52, accPublic, "com/example/Foo", "java/lang/Object", []string{"java/io/Serializable"})
	w.fieldsCount(0)
	w.methodsCount(0)
	w.classAttrsCount(0)
	data := w.bytes()

	rec1, err := Parse(bytes.NewReader(data), Options{})
	require.NoError(t, err)
	rec2, err := Parse(bytes.NewReader(data), Options{})
	require.NoError(t, err)
	assert.Equal(t, rec1, rec2)
}

func TestParseSkipsInvisibleAnnotationsByDefault(t *testing.T) {
	w := newClassWriter()
	w.writeHeader(0, 52, accPublic, "com/example/Foo", "java/lang/Object", nil)
	w.fieldsCount(0)
	w.methodsCount(0)
	w.classAttrsWithAnnotation("RuntimeInvisibleAnnotations", "com/example/Internal")

	spec, err := scanspec.New(scanspec.DefaultToggles(), "com.example")
	require.NoError(t, err)

	rec, err := Parse(bytes.NewReader(w.bytes()), Options{Spec: spec})
	require.NoError(t, err)
	assert.Empty(t, rec.Annotations, "RuntimeInvisibleAnnotations must not be decoded without CLASS retention")
}

func TestParseDecodesInvisibleAnnotationsWithClassRetention(t *testing.T) {
	w := newClassWriter()
	w.writeHeader(0, 52, accPublic, "com/example/Foo", "java/lang/Object", nil)
	w.fieldsCount(0)
	w.methodsCount(0)
	w.classAttrsWithAnnotation("RuntimeInvisibleAnnotations", "com/example/Internal")

	toggles := scanspec.DefaultToggles()
	toggles.AnnotationRetentionClass = true
	spec, err := scanspec.New(toggles, "com.example")
	require.NoError(t, err)

	rec, err := Parse(bytes.NewReader(w.bytes()), Options{Spec: spec})
	require.NoError(t, err)
	require.Len(t, rec.Annotations, 1)
	assert.Equal(t, "com.example.Internal", rec.Annotations[0].TypeName)
	assert.False(t, rec.Annotations[0].Visible)
}
