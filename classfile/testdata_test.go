package classfile

import (
	"bytes"
	"encoding/binary"
)

// classWriter builds synthetic classfile byte streams for tests. It is
// intentionally minimal: just enough of the constant pool and structure
// machinery to exercise the parser, not a general-purpose bytecode
// assembler.
type classWriter struct {
	buf bytes.Buffer // everything after the constant pool

	minor, major uint16

	cpEntries [][]byte // raw encoded entries, index 0 unused
	cpIndex   map[string]uint16
}

func newClassWriter() *classWriter {
	w := &classWriter{cpIndex: map[string]uint16{}}
	w.cpEntries = append(w.cpEntries, nil) // index 0 placeholder
	return w
}

func (w *classWriter) u1(v byte)      { w.buf.WriteByte(v) }
func (w *classWriter) u2(v uint16)    { var b [2]byte; binary.BigEndian.PutUint16(b[:], v); w.buf.Write(b[:]) }
func (w *classWriter) u4(v uint32)    { var b [4]byte; binary.BigEndian.PutUint32(b[:], v); w.buf.Write(b[:]) }
func (w *classWriter) u8(v uint64)    { var b [8]byte; binary.BigEndian.PutUint64(b[:], v); w.buf.Write(b[:]) }

func (w *classWriter) addEntry(tag byte, body []byte) uint16 {
	entry := append([]byte{tag}, body...)
	w.cpEntries = append(w.cpEntries, entry)
	return uint16(len(w.cpEntries) - 1)
}

func (w *classWriter) utf8(s string) uint16 {
	if idx, ok := w.cpIndex["utf8:"+s]; ok {
		return idx
	}
	body := make([]byte, 2+len(s))
	binary.BigEndian.PutUint16(body[:2], uint16(len(s)))
	copy(body[2:], s)
	idx := w.addEntry(tagUtf8, body)
	w.cpIndex["utf8:"+s] = idx
	return idx
}

func (w *classWriter) class(internalName string) uint16 {
	if idx, ok := w.cpIndex["class:"+internalName]; ok {
		return idx
	}
	nameIdx := w.utf8(internalName)
	body := make([]byte, 2)
	binary.BigEndian.PutUint16(body, nameIdx)
	idx := w.addEntry(tagClass, body)
	w.cpIndex["class:"+internalName] = idx
	return idx
}

func (w *classWriter) nameAndType(name, descriptor string) uint16 {
	nameIdx := w.utf8(name)
	descIdx := w.utf8(descriptor)
	body := make([]byte, 4)
	binary.BigEndian.PutUint16(body[0:2], nameIdx)
	binary.BigEndian.PutUint16(body[2:4], descIdx)
	return w.addEntry(tagNameAndType, body)
}

func (w *classWriter) integer(v int32) uint16 {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, uint32(v))
	return w.addEntry(tagInteger, body)
}

func (w *classWriter) stringConst(s string) uint16 {
	nameIdx := w.utf8(s)
	body := make([]byte, 2)
	binary.BigEndian.PutUint16(body, nameIdx)
	return w.addEntry(tagString, body)
}

// writeHeader records the version and writes access_flags, this_class,
// super_class and the interfaces table into buf (fields/methods/attributes
// are appended by the test after calling writeHeader). The magic number,
// version and constant pool are emitted by bytes(), so pool entries added
// after writeHeader are still included. The caller is responsible for
// overall ordering: writeHeader must be called first.
func (w *classWriter) writeHeader(minor, major uint16, flags AccessFlags, thisClass, superClass string, interfaces []string) {
	w.minor, w.major = minor, major

	thisIdx := w.class(thisClass)
	var superIdx uint16
	if superClass != "" {
		superIdx = w.class(superClass)
	}
	ifaceIdx := make([]uint16, len(interfaces))
	for i, iface := range interfaces {
		ifaceIdx[i] = w.class(iface)
	}

	w.u2(uint16(flags))
	w.u2(thisIdx)
	w.u2(superIdx)
	w.u2(uint16(len(interfaces)))
	for _, idx := range ifaceIdx {
		w.u2(idx)
	}
}

// fieldWithConstantValue writes one field_info carrying a ConstantValue
// attribute when constValIdx is non-zero, and no attributes otherwise.
func (w *classWriter) fieldWithConstantValue(flags AccessFlags, name, descriptor string, constValIdx uint16) {
	w.u2(uint16(flags))
	w.u2(w.utf8(name))
	w.u2(w.utf8(descriptor))
	if constValIdx == 0 {
		w.u2(0) // attributes_count
		return
	}
	w.u2(1)
	w.u2(w.utf8("ConstantValue"))
	w.u4(2)
	w.u2(constValIdx)
}

// method writes one method_info with zero attributes.
func (w *classWriter) method(flags AccessFlags, name, descriptor string) {
	w.u2(uint16(flags))
	w.u2(w.utf8(name))
	w.u2(w.utf8(descriptor))
	w.u2(0)
}

// methodWithAnnotation writes one method_info carrying a single
// RuntimeVisibleAnnotations attribute with one no-arg annotation.
func (w *classWriter) methodWithAnnotation(flags AccessFlags, name, descriptor, annotationType string) {
	w.u2(uint16(flags))
	w.u2(w.utf8(name))
	w.u2(w.utf8(descriptor))
	w.u2(1)
	w.buf.Write(w.annotationAttr("RuntimeVisibleAnnotations", annotationType))
}

// annotationAttr encodes one {Runtime,}{Visible,Invisible}Annotations
// attribute carrying a single no-arg annotation of annotationType.
func (w *classWriter) annotationAttr(attrName, annotationType string) []byte {
	var body bytes.Buffer
	var num [2]byte
	binary.BigEndian.PutUint16(num[:], 1) // num_annotations
	body.Write(num[:])

	typeIdx := w.utf8("L" + annotationType + ";")
	var typeBuf [2]byte
	binary.BigEndian.PutUint16(typeBuf[:], typeIdx)
	body.Write(typeBuf[:])
	body.Write([]byte{0, 0}) // num_element_value_pairs = 0

	var out bytes.Buffer
	var nameBuf [2]byte
	binary.BigEndian.PutUint16(nameBuf[:], w.utf8(attrName))
	out.Write(nameBuf[:])
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(body.Len()))
	out.Write(lenBuf[:])
	out.Write(body.Bytes())
	return out.Bytes()
}

// classAttrsWithAnnotation writes a class attribute table containing a
// single annotation attribute of the given visibility.
func (w *classWriter) classAttrsWithAnnotation(attrName, annotationType string) {
	w.classAttrsCount(1)
	w.buf.Write(w.annotationAttr(attrName, annotationType))
}

// bytes assembles the classfile: magic number, version, the constant pool
// as it stands now, then everything written into buf.
func (w *classWriter) bytes() []byte {
	var out bytes.Buffer
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], classMagic)
	out.Write(b[:])
	// constant_pool_count = len(cpEntries) since index 0 is a placeholder
	// and entries are 1-indexed.
	for _, v := range []uint16{w.minor, w.major, uint16(len(w.cpEntries))} {
		binary.BigEndian.PutUint16(b[:2], v)
		out.Write(b[:2])
	}
	for i := 1; i < len(w.cpEntries); i++ {
		out.Write(w.cpEntries[i])
	}
	out.Write(w.buf.Bytes())
	return out.Bytes()
}

func (w *classWriter) fieldsCount(n uint16) { w.u2(n) }
func (w *classWriter) methodsCount(n uint16) { w.u2(n) }
func (w *classWriter) classAttrsCount(n uint16) { w.u2(n) }
