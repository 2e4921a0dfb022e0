package method

import (
	"math"

	"github.com/jangala-dev/gmf/gmferr"
)

// Values is the typed tree a caller hands to Marshal or receives from
// Unmarshal: scalar leaves use a Go numeric type matching the Field's
// Kind, Struct fields nest as Values, Array fields nest as []Values
// (Struct elements) or a flat slice of the scalar Go type.
type Values map[string]any

// Marshal packs v against d into a freshly allocated buffer sized
// d.Size(), using explicit little-endian bit manipulation rather than
// encoding/binary reflection — the same preference for allocation-light,
// explicit encode/decode helpers as the teacher's x/conv package.
func Marshal(d *Descriptor, v Values) ([]byte, error) {
	buf := make([]byte, d.Size())
	if err := marshalInto(d, v, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Unmarshal decodes buf against d into a fresh Values tree.
func Unmarshal(d *Descriptor, buf []byte) (Values, error) {
	if len(buf) < d.Size() {
		return nil, gmferr.New("method.Unmarshal", gmferr.InvalidArgument, "buffer shorter than descriptor size", nil)
	}
	out := Values{}
	for _, f := range d.Fields {
		val, err := unmarshalField(f, buf)
		if err != nil {
			return nil, err
		}
		out[f.Name] = val
	}
	return out, nil
}

func marshalInto(d *Descriptor, v Values, buf []byte) error {
	for _, f := range d.Fields {
		val, ok := v[f.Name]
		if !ok {
			return gmferr.New("method.Marshal", gmferr.InvalidArgument, "missing field "+f.Name, nil)
		}
		if err := marshalField(f, val, buf); err != nil {
			return err
		}
	}
	return nil
}

func marshalField(f Field, val any, buf []byte) error {
	switch f.Kind {
	case Struct:
		nested, ok := val.(Values)
		if !ok {
			return gmferr.New("method.Marshal", gmferr.InvalidArgument, "field "+f.Name+" expects Values", nil)
		}
		return marshalInto(f.Nested, nested, buf[f.Offset:])
	case Array:
		return marshalArray(f, val, buf)
	default:
		u, err := toUint(f, val)
		if err != nil {
			return err
		}
		putUint(buf[f.Offset:f.Offset+f.Size], f.Size, u)
		return nil
	}
}

func marshalArray(f Field, val any, buf []byte) error {
	if f.Nested == nil {
		return gmferr.New("method.Marshal", gmferr.InvalidArgument, "array field "+f.Name+" has no element descriptor", nil)
	}
	elems, ok := val.([]Values)
	if !ok {
		return gmferr.New("method.Marshal", gmferr.InvalidArgument, "field "+f.Name+" expects []Values", nil)
	}
	if len(elems) != f.Count {
		return gmferr.New("method.Marshal", gmferr.InvalidArgument, "field "+f.Name+" element count mismatch", nil)
	}
	stride := f.Size
	for i, e := range elems {
		off := f.Offset + i*stride
		if err := marshalInto(f.Nested, e, buf[off:]); err != nil {
			return err
		}
	}
	return nil
}

func unmarshalField(f Field, buf []byte) (any, error) {
	switch f.Kind {
	case Struct:
		return Unmarshal(f.Nested, buf[f.Offset:])
	case Array:
		if f.Nested == nil {
			return nil, gmferr.New("method.Unmarshal", gmferr.InvalidArgument, "array field "+f.Name+" has no element descriptor", nil)
		}
		out := make([]Values, f.Count)
		stride := f.Size
		for i := 0; i < f.Count; i++ {
			off := f.Offset + i*stride
			v, err := Unmarshal(f.Nested, buf[off:])
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		u := getUint(buf[f.Offset:f.Offset+f.Size], f.Size)
		return fromUint(f, u), nil
	}
}

func toUint(f Field, val any) (uint64, error) {
	switch f.Kind {
	case Uint8:
		v, ok := val.(uint8)
		if !ok {
			return 0, wrongType(f)
		}
		return uint64(v), nil
	case Uint16:
		v, ok := val.(uint16)
		if !ok {
			return 0, wrongType(f)
		}
		return uint64(v), nil
	case Uint32:
		v, ok := val.(uint32)
		if !ok {
			return 0, wrongType(f)
		}
		return uint64(v), nil
	case Uint64:
		v, ok := val.(uint64)
		if !ok {
			return 0, wrongType(f)
		}
		return v, nil
	case Int8:
		v, ok := val.(int8)
		if !ok {
			return 0, wrongType(f)
		}
		return uint64(uint8(v)), nil
	case Float:
		v, ok := val.(float32)
		if !ok {
			return 0, wrongType(f)
		}
		return uint64(math.Float32bits(v)), nil
	default:
		return 0, wrongType(f)
	}
}

func fromUint(f Field, u uint64) any {
	switch f.Kind {
	case Uint8:
		return uint8(u)
	case Uint16:
		return uint16(u)
	case Uint32:
		return uint32(u)
	case Uint64:
		return u
	case Int8:
		return int8(uint8(u))
	case Float:
		return math.Float32frombits(uint32(u))
	default:
		return nil
	}
}

func wrongType(f Field) error {
	return gmferr.New("method.Marshal", gmferr.InvalidArgument, "field "+f.Name+" expects a "+f.Kind.String(), nil)
}

// putUint writes the low 'size' bytes of u into buf, little-endian.
func putUint(buf []byte, size int, u uint64) {
	for i := 0; i < size; i++ {
		buf[i] = byte(u >> (8 * i))
	}
}

// getUint reads 'size' little-endian bytes from buf.
func getUint(buf []byte, size int) uint64 {
	var u uint64
	for i := 0; i < size; i++ {
		u |= uint64(buf[i]) << (8 * i)
	}
	return u
}
