package classfile

import (
	"bytes"
	"fmt"

	"github.com/go-classgraph/classgraph/scanspec"
)

// rawAttribute is an attribute table entry before it is dispatched to a
// specific handler by name. Reading the table generically first, then
// dispatching by name second, mirrors how the classfile format itself
// treats attributes: unknown ones are legal and must be skipped, not
// rejected.
type rawAttribute struct {
	name string
	data []byte
}

func readAttributes(r *byteReader, cp *ConstantPool, count uint16) ([]rawAttribute, error) {
	attrs := make([]rawAttribute, 0, count)
	for i := 0; i < int(count); i++ {
		nameIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, err := cp.Utf8(nameIndex)
		if err != nil {
			return nil, err
		}
		length, err := r.u4()
		if err != nil {
			return nil, err
		}
		data, err := r.bytes(int(length))
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, rawAttribute{name: name, data: data})
	}
	return attrs, nil
}

func findAttribute(attrs []rawAttribute, name string) (rawAttribute, bool) {
	for _, a := range attrs {
		if a.name == name {
			return a, true
		}
	}
	return rawAttribute{}, false
}

// parseConstantValue decodes the ConstantValue attribute attached to a
// static final field, widening the referenced constant pool entry to the
// appropriate Go type (int64 covers byte/char/short/int/boolean per the
// classfile's int-encodes-all-narrow-types convention; long is int64,
// float and double are both widened to float64, and String stays string).
func parseConstantValue(attrs []rawAttribute, cp *ConstantPool) (any, bool, error) {
	a, ok := findAttribute(attrs, "ConstantValue")
	if !ok {
		return nil, false, nil
	}
	r := newByteReader(bytes.NewReader(a.data))
	index, err := r.u2()
	if err != nil {
		return nil, false, err
	}
	e, err := cp.entry(index)
	if err != nil {
		return nil, false, err
	}
	switch e.tag {
	case tagInteger:
		return int64(e.intVal), true, nil
	case tagLong:
		return e.longVal, true, nil
	case tagFloat:
		return float64(e.floatVal), true, nil
	case tagDouble:
		return e.doubleVal, true, nil
	case tagString:
		s, err := cp.Utf8(e.nameIndex)
		if err != nil {
			return nil, false, err
		}
		return s, true, nil
	default:
		return nil, false, fmt.Errorf("%w: ConstantValue references tag %d", ErrBadConstantRef, e.tag)
	}
}

// parseAnnotations decodes every RuntimeVisibleAnnotations attribute
// present in attrs, plus RuntimeInvisibleAnnotations only when spec
// requests CLASS retention (spec.md §4.7); a nil spec is treated as
// requesting it, matching the other opts.Spec == nil defaults in parse.go.
func parseAnnotations(attrs []rawAttribute, cp *ConstantPool, spec *scanspec.Spec) ([]AnnotationInfo, error) {
	var out []AnnotationInfo
	for _, ent := range []struct {
		name    string
		visible bool
	}{
		{"RuntimeVisibleAnnotations", true},
		{"RuntimeInvisibleAnnotations", false},
	} {
		if !ent.visible && spec != nil && !spec.ClassRetentionIncludesClass() {
			continue
		}
		a, ok := findAttribute(attrs, ent.name)
		if !ok {
			continue
		}
		r := newByteReader(bytes.NewReader(a.data))
		count, err := r.u2()
		if err != nil {
			return nil, err
		}
		for i := 0; i < int(count); i++ {
			info, err := parseAnnotation(r, cp)
			if err != nil {
				return nil, err
			}
			info.Visible = ent.visible
			out = append(out, *info)
		}
	}
	return out, nil
}

// parseAnnotationDefault decodes the AnnotationDefault attribute present on
// an annotation type's element methods.
func parseAnnotationDefault(attrs []rawAttribute, cp *ConstantPool) (AnnotationValue, bool, error) {
	a, ok := findAttribute(attrs, "AnnotationDefault")
	if !ok {
		return AnnotationValue{}, false, nil
	}
	r := newByteReader(bytes.NewReader(a.data))
	v, err := parseElementValue(r, cp)
	if err != nil {
		return AnnotationValue{}, false, err
	}
	return v, true, nil
}

// parseSignature decodes the Signature attribute's generic-type string, if
// present. Callers only invoke this when field/method-type indexing is
// enabled, per spec.md §4.1.
func parseSignature(attrs []rawAttribute, cp *ConstantPool) (string, bool, error) {
	a, ok := findAttribute(attrs, "Signature")
	if !ok {
		return "", false, nil
	}
	r := newByteReader(bytes.NewReader(a.data))
	index, err := r.u2()
	if err != nil {
		return "", false, err
	}
	sig, err := cp.Utf8(index)
	if err != nil {
		return "", false, err
	}
	return sig, true, nil
}

// parseInnerClasses decodes the InnerClasses attribute.
func parseInnerClasses(attrs []rawAttribute, cp *ConstantPool) ([]InnerClassRef, error) {
	a, ok := findAttribute(attrs, "InnerClasses")
	if !ok {
		return nil, nil
	}
	r := newByteReader(bytes.NewReader(a.data))
	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	out := make([]InnerClassRef, 0, count)
	for i := 0; i < int(count); i++ {
		innerIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		outerIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		simpleNameIdx, err := r.u2()
		if err != nil {
			return nil, err
		}
		flags, err := r.u2()
		if err != nil {
			return nil, err
		}

		ref := InnerClassRef{Flags: AccessFlags(flags)}
		if innerIdx != 0 {
			ref.InnerName, err = cp.ClassName(innerIdx)
			if err != nil {
				return nil, err
			}
			ref.InnerName = ToSourceForm(ref.InnerName)
		}
		if outerIdx != 0 {
			ref.OuterName, err = cp.ClassName(outerIdx)
			if err != nil {
				return nil, err
			}
			ref.OuterName = ToSourceForm(ref.OuterName)
		}
		if simpleNameIdx != 0 {
			ref.InnerSimpleName, err = cp.Utf8(simpleNameIdx)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, ref)
	}
	return out, nil
}

// parseEnclosingMethod decodes the EnclosingMethod attribute.
func parseEnclosingMethod(attrs []rawAttribute, cp *ConstantPool) (class, method string, ok bool, err error) {
	a, found := findAttribute(attrs, "EnclosingMethod")
	if !found {
		return "", "", false, nil
	}
	r := newByteReader(bytes.NewReader(a.data))
	classIdx, err := r.u2()
	if err != nil {
		return "", "", false, err
	}
	methodIdx, err := r.u2()
	if err != nil {
		return "", "", false, err
	}
	class, err = cp.ClassName(classIdx)
	if err != nil {
		return "", "", false, err
	}
	class = ToSourceForm(class)
	if methodIdx != 0 {
		method, _, err = cp.NameAndType(methodIdx)
		if err != nil {
			return "", "", false, err
		}
	}
	return class, method, true, nil
}

// parseAnnotation decodes one annotation structure: a type_index followed
// by a table of element_name_index/element_value pairs.
func parseAnnotation(r *byteReader, cp *ConstantPool) (*AnnotationInfo, error) {
	typeIndex, err := r.u2()
	if err != nil {
		return nil, err
	}
	descriptor, err := cp.Utf8(typeIndex)
	if err != nil {
		return nil, err
	}
	typeName, _, err := parseFieldType(descriptor, 0)
	if err != nil {
		return nil, err
	}

	count, err := r.u2()
	if err != nil {
		return nil, err
	}
	elements := make(map[string]AnnotationValue, count)
	for i := 0; i < int(count); i++ {
		nameIndex, err := r.u2()
		if err != nil {
			return nil, err
		}
		name, err := cp.Utf8(nameIndex)
		if err != nil {
			return nil, err
		}
		v, err := parseElementValue(r, cp)
		if err != nil {
			return nil, err
		}
		elements[name] = v
	}
	return &AnnotationInfo{TypeName: typeName, Elements: elements}, nil
}

// parseElementValue decodes one element_value structure, recursing into
// nested annotations and arrays as spec.md §4.7 requires.
func parseElementValue(r *byteReader, cp *ConstantPool) (AnnotationValue, error) {
	tag, err := r.u1()
	if err != nil {
		return AnnotationValue{}, err
	}

	switch tag {
	case 'B', 'C', 'I', 'S', 'Z':
		idx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		e, err := cp.entry(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: tag, Int: int64(e.intVal), Bool: e.intVal != 0}, nil
	case 'J':
		idx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		e, err := cp.entry(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: tag, Int: e.longVal}, nil
	case 'F':
		idx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		e, err := cp.entry(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: tag, Float: float64(e.floatVal)}, nil
	case 'D':
		idx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		e, err := cp.entry(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: tag, Float: e.doubleVal}, nil
	case 's':
		idx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		s, err := cp.Utf8(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: tag, String: s}, nil
	case 'e':
		typeIdx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		constIdx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		typeDesc, err := cp.Utf8(typeIdx)
		if err != nil {
			return AnnotationValue{}, err
		}
		enumType, _, err := parseFieldType(typeDesc, 0)
		if err != nil {
			return AnnotationValue{}, err
		}
		constName, err := cp.Utf8(constIdx)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: tag, EnumType: enumType, EnumConst: constName}, nil
	case 'c':
		idx, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		classDesc, err := cp.Utf8(idx)
		if err != nil {
			return AnnotationValue{}, err
		}
		className, _, err := parseFieldType(classDesc, 0)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: tag, ClassName: className}, nil
	case '@':
		nested, err := parseAnnotation(r, cp)
		if err != nil {
			return AnnotationValue{}, err
		}
		return AnnotationValue{Kind: tag, Annotation: nested}, nil
	case '[':
		count, err := r.u2()
		if err != nil {
			return AnnotationValue{}, err
		}
		arr := make([]AnnotationValue, 0, count)
		for i := 0; i < int(count); i++ {
			v, err := parseElementValue(r, cp)
			if err != nil {
				return AnnotationValue{}, err
			}
			arr = append(arr, v)
		}
		return AnnotationValue{Kind: tag, Array: arr}, nil
	default:
		return AnnotationValue{}, fmt.Errorf("classfile: unrecognized annotation element tag %q", tag)
	}
}
