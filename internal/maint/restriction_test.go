package maint

import (
	"testing"

	"aficiogolang/internal/rdh"
)

func TestRestrictionDirtyOnlyOnChange(t *testing.T) {
	r := NewRestriction(true, false, false, false)
	if r.Dirty() {
		t.Fatalf("expected a fresh restriction block to be clean")
	}
	// Writing the stored value must not mark the block, in contrast to
	// the statistics counters.
	r.SetCopy(true)
	if r.Dirty() {
		t.Fatalf("expected same-value write to keep the block clean")
	}
	r.SetCopy(false)
	if !r.Dirty() {
		t.Fatalf("expected value change to mark dirty")
	}
}

func TestRestrictionEncodeDecodeRoundTripAllCombinations(t *testing.T) {
	for bits := 0; bits < 16; bits++ {
		in := NewRestriction(bits&1 != 0, bits&2 != 0, bits&4 != 0, bits&8 != 0)
		out := decodeRestriction(in.encode())
		if !out.Equal(in) {
			t.Fatalf("bits %04b: round trip %s != %s", bits, out, in)
		}
		if out.Dirty() {
			t.Fatalf("bits %04b: expected decoded restriction to be clean", bits)
		}
	}
}

func TestRestrictionDecodeDefaultsToDeny(t *testing.T) {
	if r := decodeRestriction(rdh.FieldList{}); r.AnyGranted() {
		t.Fatalf("expected empty field list to grant nothing, got %s", r)
	}
	fields := rdh.FieldList{}
	fields.AddEnum(rdh.FieldRestrictCopy, "maybe")
	fields.AddEnum(rdh.FieldRestrictPrinter, rdh.RestrictOff)
	r := decodeRestriction(fields)
	if r.Copy() {
		t.Fatalf("expected unknown flag value to deny")
	}
	if !r.Printer() {
		t.Fatalf("expected OFF restriction flag to grant")
	}
	if r.Scanner() || r.Storage() {
		t.Fatalf("expected absent flags to deny, got %s", r)
	}
}

func TestRestrictionEncodeInvertsSense(t *testing.T) {
	fields := NewRestriction(true, false, true, false).encode()
	want := map[string]string{
		rdh.FieldRestrictCopy:    rdh.RestrictOff,
		rdh.FieldRestrictPrinter: rdh.RestrictOn,
		rdh.FieldRestrictScanner: rdh.RestrictOff,
		rdh.FieldRestrictStorage: rdh.RestrictOn,
	}
	if len(fields.Items) != len(want) {
		t.Fatalf("encoded %d fields, want %d", len(fields.Items), len(want))
	}
	for _, f := range fields.Items {
		if f.Value != want[f.Name] {
			t.Fatalf("field %q = %q, want %q", f.Name, f.Value, want[f.Name])
		}
		if f.Type != rdh.FieldTypeEnum {
			t.Fatalf("field %q type = %d, want %d", f.Name, f.Type, rdh.FieldTypeEnum)
		}
	}
}

func TestRestrictionRevokeAllAndAnyGranted(t *testing.T) {
	r := NewRestriction(true, true, false, true)
	if !r.AnyGranted() {
		t.Fatalf("expected grants before revocation")
	}
	r.RevokeAll()
	if r.AnyGranted() {
		t.Fatalf("expected no grants after RevokeAll, got %s", r)
	}
	if !r.Dirty() {
		t.Fatalf("expected revocation to mark dirty")
	}

	clean := NewRestriction(false, false, false, false)
	clean.RevokeAll()
	if clean.Dirty() {
		t.Fatalf("expected revoking nothing to keep the block clean")
	}
}
