package classfile

// AnnotationValue is the decoded value of one annotation element, tagged by
// the single-byte element_value tag the format itself uses: primitives
// (B C D F I J S Z), String (s), enum constants (e), nested annotations
// (@), class literals (c), and arrays ([). Exactly one of the typed fields
// is meaningful, selected by Kind.
type AnnotationValue struct {
	Kind byte

	// primitives and strings
	Int    int64
	Float  float64
	String string
	Bool   bool

	// enum constant: EnumType is the source-form enum type, EnumConst is
	// the constant's name
	EnumType  string
	EnumConst string

	// class literal, source form
	ClassName string

	// nested annotation
	Annotation *AnnotationInfo

	// array of further values
	Array []AnnotationValue
}

// AnnotationInfo is one parsed RuntimeVisibleAnnotations /
// RuntimeInvisibleAnnotations entry: an annotation type plus its
// element/value pairs.
type AnnotationInfo struct {
	TypeName string // source form
	Elements map[string]AnnotationValue
	Visible  bool
}

// FieldRecord describes one field survivng the scan spec's filters.
type FieldRecord struct {
	Name       string
	Descriptor string
	FieldType  string // source-form resolved type, from Descriptor
	Flags      AccessFlags

	// ConstantValue attribute, if present on a static final field.
	HasConstantValue bool
	ConstantValue    any

	Annotations []AnnotationInfo

	// Signature attribute's generic field type, only populated when
	// field-type indexing is enabled.
	GenericSignature string
}

// MethodRecord describes one method or constructor.
type MethodRecord struct {
	Name       string
	Descriptor string
	ParamTypes []string // source form
	ReturnType string   // source form
	Flags      AccessFlags

	Annotations []AnnotationInfo

	// AnnotationDefault value, present only on an annotation type's
	// elements.
	HasDefault bool
	Default    AnnotationValue

	GenericSignature string
}

// InnerClassRef is one entry of the InnerClasses attribute, recording a
// containment relationship between an outer and inner class.
type InnerClassRef struct {
	InnerName      string // source form
	OuterName      string // source form, empty for anonymous/local classes
	InnerSimpleName string
	Flags          AccessFlags
}

// UnlinkedClassRecord is everything the binary parser extracts from one
// classfile, before the graph linker resolves cross-class relationships.
// "Unlinked" because superclass/interface/annotation names here are plain
// strings: the linker is what turns them into graph edges.
type UnlinkedClassRecord struct {
	Name       string // source form
	Flags      AccessFlags
	Super      string // source form, empty for java.lang.Object
	Interfaces []string

	Fields  []FieldRecord
	Methods []MethodRecord

	Annotations []AnnotationInfo

	InnerClasses []InnerClassRef

	// EnclosingMethod attribute: the class (and, if present, method) this
	// class is lexically enclosed by.
	EnclosingClass  string
	EnclosingMethod string

	GenericSignature string

	MinorVersion uint16
	MajorVersion uint16
}
