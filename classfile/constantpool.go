package classfile

import "fmt"

// cpEntry holds one constant pool slot. Only the fields relevant to its tag
// are populated; the rest are zero. Long and double entries occupy two
// index slots in the surrounding pool (the slot after them is left with tag
// 0 and is never dereferenced), per the classfile format's documented quirk.
type cpEntry struct {
	tag byte

	utf8 string

	intVal    int32
	floatVal  float32
	longVal   int64
	doubleVal float64

	// Class, String
	nameIndex uint16

	// NameAndType
	descriptorIndex uint16

	// Fieldref, Methodref, InterfaceMethodref
	classIndex       uint16
	nameAndTypeIndex uint16

	// MethodHandle
	refKind  byte
	refIndex uint16

	// MethodType
	descIndex uint16

	// InvokeDynamic
	bootstrapMethodAttrIndex uint16
}

// ConstantPool is the parsed constant pool of a single classfile, indexed
// the way the format itself indexes it: valid entries run from 1 to
// count-1, with index 0 never used and the slot following a Long or Double
// entry unused as well.
type ConstantPool struct {
	entries []cpEntry // entries[0] is the unused zero slot
}

func (cp *ConstantPool) entry(index uint16) (cpEntry, error) {
	if int(index) <= 0 || int(index) >= len(cp.entries) {
		return cpEntry{}, fmt.Errorf("%w: index %d", ErrBadConstantRef, index)
	}
	return cp.entries[index], nil
}

// Utf8 returns the string stored at index, which must reference a
// CONSTANT_Utf8 entry.
func (cp *ConstantPool) Utf8(index uint16) (string, error) {
	e, err := cp.entry(index)
	if err != nil {
		return "", err
	}
	if e.tag != tagUtf8 {
		return "", fmt.Errorf("%w: index %d is not Utf8", ErrBadConstantRef, index)
	}
	return e.utf8, nil
}

// ClassName resolves a CONSTANT_Class entry to its internal-form name (slash
// separated, e.g. "java/util/List"). Callers convert to source form at
// consumption time via ToSourceForm, never eagerly, per spec.md §4.7.
func (cp *ConstantPool) ClassName(index uint16) (string, error) {
	e, err := cp.entry(index)
	if err != nil {
		return "", err
	}
	if e.tag != tagClass {
		return "", fmt.Errorf("%w: index %d is not Class", ErrBadConstantRef, index)
	}
	return cp.Utf8(e.nameIndex)
}

// NameAndType resolves a CONSTANT_NameAndType entry to its name and
// descriptor strings.
func (cp *ConstantPool) NameAndType(index uint16) (name, descriptor string, err error) {
	e, err := cp.entry(index)
	if err != nil {
		return "", "", err
	}
	if e.tag != tagNameAndType {
		return "", "", fmt.Errorf("%w: index %d is not NameAndType", ErrBadConstantRef, index)
	}
	name, err = cp.Utf8(e.nameIndex)
	if err != nil {
		return "", "", err
	}
	descriptor, err = cp.Utf8(e.descriptorIndex)
	if err != nil {
		return "", "", err
	}
	return name, descriptor, nil
}

// String returns the string literal referenced by a CONSTANT_String entry.
func (cp *ConstantPool) String(index uint16) (string, error) {
	e, err := cp.entry(index)
	if err != nil {
		return "", err
	}
	if e.tag != tagString {
		return "", fmt.Errorf("%w: index %d is not String", ErrBadConstantRef, index)
	}
	return cp.Utf8(e.nameIndex)
}

// ToSourceForm converts an internal-form class name ("java/util/List", or
// an array descriptor component) to source form ("java.util.List").
func ToSourceForm(internalName string) string {
	out := make([]byte, len(internalName))
	for i := 0; i < len(internalName); i++ {
		if internalName[i] == '/' {
			out[i] = '.'
		} else {
			out[i] = internalName[i]
		}
	}
	return string(out)
}

// readConstantPool reads the constant pool out of r. count is the raw
// constant_pool_count field (one more than the number of usable entries).
func readConstantPool(r *byteReader, count uint16) (*ConstantPool, error) {
	entries := make([]cpEntry, count)
	for i := 1; i < int(count); i++ {
		tag, err := r.u1()
		if err != nil {
			return nil, err
		}
		var e cpEntry
		e.tag = tag
		switch tag {
		case tagUtf8:
			length, err := r.u2()
			if err != nil {
				return nil, err
			}
			raw, err := r.bytes(int(length))
			if err != nil {
				return nil, err
			}
			e.utf8 = modifiedUTF8ToString(raw)
		case tagInteger:
			v, err := r.u4()
			if err != nil {
				return nil, err
			}
			e.intVal = int32(v)
		case tagFloat:
			v, err := r.u4()
			if err != nil {
				return nil, err
			}
			e.floatVal = bitsToFloat32(v)
		case tagLong:
			v, err := r.u8()
			if err != nil {
				return nil, err
			}
			e.longVal = int64(v)
		case tagDouble:
			v, err := r.u8()
			if err != nil {
				return nil, err
			}
			e.doubleVal = bitsToFloat64(v)
		case tagClass, tagString:
			v, err := r.u2()
			if err != nil {
				return nil, err
			}
			e.nameIndex = v
		case tagFieldref, tagMethodref, tagInterfaceMethodref:
			ci, err := r.u2()
			if err != nil {
				return nil, err
			}
			nt, err := r.u2()
			if err != nil {
				return nil, err
			}
			e.classIndex, e.nameAndTypeIndex = ci, nt
		case tagNameAndType:
			ni, err := r.u2()
			if err != nil {
				return nil, err
			}
			di, err := r.u2()
			if err != nil {
				return nil, err
			}
			e.nameIndex, e.descriptorIndex = ni, di
		case tagMethodHandle:
			kind, err := r.u1()
			if err != nil {
				return nil, err
			}
			ref, err := r.u2()
			if err != nil {
				return nil, err
			}
			e.refKind, e.refIndex = kind, ref
		case tagMethodType:
			di, err := r.u2()
			if err != nil {
				return nil, err
			}
			e.descIndex = di
		case tagInvokeDynamic:
			bm, err := r.u2()
			if err != nil {
				return nil, err
			}
			nt, err := r.u2()
			if err != nil {
				return nil, err
			}
			e.bootstrapMethodAttrIndex, e.nameAndTypeIndex = bm, nt
		default:
			return nil, fmt.Errorf("%w: tag %d at index %d", ErrBadConstantTag, tag, i)
		}
		entries[i] = e
		if tag == tagLong || tag == tagDouble {
			i++ // long/double consume two index slots
		}
	}
	return &ConstantPool{entries: entries}, nil
}
