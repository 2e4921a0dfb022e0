// Package method implements the reflective argument-descriptor/method
// registry: a typed schema that describes how a flat byte buffer is laid
// out, so an element can expose typed set/get parameters without a
// per-element C API (spec.md §4.5).
package method

// Kind tags the primitive layout of one Field.
type Kind uint8

const (
	Uint8 Kind = iota
	Uint16
	Uint32
	Uint64
	Int8
	Float
	Struct
	Array
)

func (k Kind) String() string {
	switch k {
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Int8:
		return "int8"
	case Float:
		return "float"
	case Struct:
		return "struct"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

// sizeOf returns the wire size in bytes of one scalar Kind. Struct and
// Array don't have a fixed per-instance size here; callers derive it from
// the Field's Nested descriptor (and Count, for Array).
func sizeOf(k Kind) int {
	switch k {
	case Uint8, Int8:
		return 1
	case Uint16:
		return 2
	case Uint32, Float:
		return 4
	case Uint64:
		return 8
	default:
		return 0
	}
}

// Field is one entry in an argument descriptor: name, type tag, size,
// offset-in-buffer, and — for Struct/Array — a nested descriptor
// describing the substructure (spec.md §4.5: "a pointer to a nested
// descriptor").
type Field struct {
	Name   string
	Kind   Kind
	Size   int // byte width; for Array this is the per-element width of Nested
	Offset int
	Count  int         // element count, Array only
	Nested *Descriptor // Struct/Array only
}

// Descriptor is an ordered tree of Fields laid out against a flat byte
// buffer. Descriptors are reference-copied into the element at
// registration time (spec.md §4.5: "call sites may free originals") —
// NewDescriptor takes ownership of the Field slice passed to it and the
// caller must not mutate it afterward.
type Descriptor struct {
	Fields []Field
	size   int
}

// NewDescriptor builds a Descriptor from fields already carrying explicit
// Offset/Size, validating that none overlap and none overruns a
// computed total size.
func NewDescriptor(fields []Field) *Descriptor {
	d := &Descriptor{Fields: fields}
	for _, f := range fields {
		end := f.Offset + fieldByteSize(f)
		if end > d.size {
			d.size = end
		}
	}
	return d
}

// Size is the minimum buffer length a value conforming to this
// descriptor requires.
func (d *Descriptor) Size() int { return d.size }

func fieldByteSize(f Field) int {
	switch f.Kind {
	case Struct:
		if f.Nested == nil {
			return 0
		}
		return f.Nested.Size()
	case Array:
		if f.Nested == nil {
			return 0
		}
		return f.Count * f.Size
	default:
		return f.Size
	}
}

// Field looks up a direct child field by name, returning (field, true) or
// a zero Field and false.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
