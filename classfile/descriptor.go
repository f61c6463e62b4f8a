package classfile

import (
	"fmt"
	"strings"
)

// parseFieldType parses a single field descriptor (e.g. "I", "Ljava/lang/String;",
// "[[I") starting at s[i], returning the source-form type name and the index
// just past it.
func parseFieldType(s string, i int) (string, int, error) {
	if i >= len(s) {
		return "", i, fmt.Errorf("classfile: truncated descriptor %q", s)
	}
	arrayDepth := 0
	for i < len(s) && s[i] == '[' {
		arrayDepth++
		i++
	}
	if i >= len(s) {
		return "", i, fmt.Errorf("classfile: truncated descriptor %q", s)
	}

	var base string
	switch s[i] {
	case 'B':
		base, i = "byte", i+1
	case 'C':
		base, i = "char", i+1
	case 'D':
		base, i = "double", i+1
	case 'F':
		base, i = "float", i+1
	case 'I':
		base, i = "int", i+1
	case 'J':
		base, i = "long", i+1
	case 'S':
		base, i = "short", i+1
	case 'Z':
		base, i = "boolean", i+1
	case 'V':
		base, i = "void", i+1
	case 'L':
		end := strings.IndexByte(s[i:], ';')
		if end < 0 {
			return "", i, fmt.Errorf("classfile: unterminated class descriptor %q", s)
		}
		base = ToSourceForm(s[i+1 : i+end])
		i += end + 1
	default:
		return "", i, fmt.Errorf("classfile: unrecognized descriptor char %q in %q", s[i], s)
	}

	return base + strings.Repeat("[]", arrayDepth), i, nil
}

// parseMethodDescriptor parses a method descriptor of the form
// "(paramTypes)returnType" into its parameter and return types in source
// form.
func parseMethodDescriptor(descriptor string) (params []string, ret string, err error) {
	if len(descriptor) == 0 || descriptor[0] != '(' {
		return nil, "", fmt.Errorf("classfile: malformed method descriptor %q", descriptor)
	}
	i := 1
	for i < len(descriptor) && descriptor[i] != ')' {
		var t string
		t, i, err = parseFieldType(descriptor, i)
		if err != nil {
			return nil, "", err
		}
		params = append(params, t)
	}
	if i >= len(descriptor) {
		return nil, "", fmt.Errorf("classfile: unterminated method descriptor %q", descriptor)
	}
	i++ // skip ')'
	ret, _, err = parseFieldType(descriptor, i)
	if err != nil {
		return nil, "", err
	}
	return params, ret, nil
}
