package method

import "testing"

func scalarDescriptor() *Descriptor {
	return NewDescriptor([]Field{
		{Name: "x", Kind: Uint32, Size: 4, Offset: 0},
		{Name: "y", Kind: Int8, Size: 1, Offset: 4},
	})
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	d := scalarDescriptor()
	in := Values{"x": uint32(0xDEADBEEF), "y": int8(-5)}

	buf, err := Marshal(d, in)
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) != d.Size() {
		t.Fatalf("expected buffer of size %d, got %d", d.Size(), len(buf))
	}

	out, err := Unmarshal(d, buf)
	if err != nil {
		t.Fatal(err)
	}
	if out["x"] != in["x"] || out["y"] != in["y"] {
		t.Fatalf("round trip mismatch: in=%v out=%v", in, out)
	}
}

// mockArgsDescriptor mirrors spec.md §8 scenario 5: "Register a method
// with a nested struct descriptor (two mock_args_* substructs + a
// scalar)."
func mockArgsDescriptor() *Descriptor {
	sub := NewDescriptor([]Field{
		{Name: "a", Kind: Uint16, Size: 2, Offset: 0},
		{Name: "b", Kind: Uint16, Size: 2, Offset: 2},
	})
	return NewDescriptor([]Field{
		{Name: "mock_args_one", Kind: Struct, Offset: 0, Nested: sub},
		{Name: "mock_args_two", Kind: Struct, Offset: sub.Size(), Nested: sub},
		{Name: "scalar", Kind: Uint32, Size: 4, Offset: 2 * sub.Size()},
	})
}

func TestMethodRoundTripNestedStruct(t *testing.T) {
	d := mockArgsDescriptor()
	r := NewRegistry()
	if err := RegisterStore(r, "set_args", "get_args", d); err != nil {
		t.Fatal(err)
	}

	in := Values{
		"mock_args_one": Values{"a": uint16(1), "b": uint16(2)},
		"mock_args_two": Values{"a": uint16(3), "b": uint16(4)},
		"scalar":        uint32(0x11223344),
	}
	bufIn, err := Marshal(d, in)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Invoke("set_args", bufIn); err != nil {
		t.Fatal(err)
	}

	bufOut := make([]byte, d.Size())
	if err := r.Invoke("get_args", bufOut); err != nil {
		t.Fatal(err)
	}

	for i := range bufIn {
		if bufIn[i] != bufOut[i] {
			t.Fatalf("byte-exact round trip failed at offset %d: in=%x out=%x", i, bufIn, bufOut)
		}
	}

	out, err := Unmarshal(d, bufOut)
	if err != nil {
		t.Fatal(err)
	}
	one := out["mock_args_one"].(Values)
	if one["a"] != uint16(1) || one["b"] != uint16(2) {
		t.Fatalf("nested struct mismatch: %v", one)
	}
	if out["scalar"] != uint32(0x11223344) {
		t.Fatalf("scalar mismatch: %v", out["scalar"])
	}
}

func TestRegistrySetGetConvenience(t *testing.T) {
	d := scalarDescriptor()
	r := NewRegistry()
	if err := RegisterStore(r, "set_scalar", "get_scalar", d); err != nil {
		t.Fatal(err)
	}

	in := Values{"x": uint32(42), "y": int8(7)}
	if err := r.Set("set_scalar", in); err != nil {
		t.Fatal(err)
	}
	out, err := r.Get("get_scalar")
	if err != nil {
		t.Fatal(err)
	}
	if out["x"] != in["x"] || out["y"] != in["y"] {
		t.Fatalf("Set/Get round trip mismatch: in=%v out=%v", in, out)
	}
}

func TestInvokeUnknownMethodIsNotFound(t *testing.T) {
	r := NewRegistry()
	if err := r.Invoke("nope", nil); err == nil {
		t.Fatal("expected an error for an unregistered method")
	}
}

func TestDuplicateRegistrationRejected(t *testing.T) {
	d := scalarDescriptor()
	r := NewRegistry()
	noop := func(*Descriptor, []byte) error { return nil }
	if err := r.Register("m", d, noop); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("m", d, noop); err == nil {
		t.Fatal("expected duplicate registration to be rejected")
	}
}
