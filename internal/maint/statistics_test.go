package maint

import (
	"testing"

	"aficiogolang/internal/rdh"
)

func TestStatisticsTotalsCountA3Twice(t *testing.T) {
	s := NewStatistics(1, 2, 3, 4, 5, 6)
	if got := s.CopyTotal(); got != 5 {
		t.Fatalf("CopyTotal = %d, want 5", got)
	}
	if got := s.PrintTotal(); got != 11 {
		t.Fatalf("PrintTotal = %d, want 11", got)
	}
	if got := s.ScanTotal(); got != 17 {
		t.Fatalf("ScanTotal = %d, want 17", got)
	}
}

func TestStatisticsIsZero(t *testing.T) {
	if !NewStatistics(0, 0, 0, 0, 0, 0).IsZero() {
		t.Fatalf("expected all-zero statistics to be zero")
	}
	tests := []*Statistics{
		NewStatistics(1, 0, 0, 0, 0, 0),
		NewStatistics(0, 1, 0, 0, 0, 0),
		NewStatistics(0, 0, 0, 1, 0, 0),
		NewStatistics(0, 0, 0, 0, 0, 1),
	}
	for i, s := range tests {
		if s.IsZero() {
			t.Fatalf("case %d: expected non-zero statistics", i)
		}
	}
}

func TestStatisticsFreshBlockIsDirty(t *testing.T) {
	if !NewStatistics(0, 0, 0, 0, 0, 0).Dirty() {
		t.Fatalf("expected a fresh statistics block to be dirty")
	}
}

func TestStatisticsSetAlwaysMarksDirty(t *testing.T) {
	s := decodeStatistics(NewStatistics(7, 0, 0, 0, 0, 0).encode())
	if s.Dirty() {
		t.Fatalf("expected decoded statistics to start clean")
	}
	// Writing the value already stored must still mark the block.
	s.SetCopyA4(7)
	if !s.Dirty() {
		t.Fatalf("expected same-value write to mark dirty")
	}
}

func TestStatisticsEncodeDecodeRoundTrip(t *testing.T) {
	tests := []*Statistics{
		NewStatistics(0, 0, 0, 0, 0, 0),
		NewStatistics(1, 2, 3, 4, 5, 6),
		NewStatistics(100, 0, 250000, 1, 0, 99),
		NewStatistics(4294967295, 1, 0, 0, 7, 0),
	}
	for i, in := range tests {
		out := decodeStatistics(in.encode())
		if !out.Equal(in) {
			t.Fatalf("case %d: round trip %s != %s", i, out, in)
		}
		if out.Dirty() {
			t.Fatalf("case %d: expected round-tripped statistics to be clean", i)
		}
	}
}

func TestStatisticsEncodeUsesFixedOrderAndUnsignedType(t *testing.T) {
	fields := NewStatistics(1, 2, 3, 4, 5, 6).encode()
	want := []string{
		rdh.FieldCopyA4, rdh.FieldCopyA3,
		rdh.FieldPrintA4, rdh.FieldPrintA3,
		rdh.FieldScanA4, rdh.FieldScanA3,
	}
	if len(fields.Items) != len(want) {
		t.Fatalf("encoded %d fields, want %d", len(fields.Items), len(want))
	}
	for i, name := range want {
		if fields.Items[i].Name != name {
			t.Fatalf("field %d = %q, want %q", i, fields.Items[i].Name, name)
		}
		if fields.Items[i].Type != rdh.FieldTypeUnsigned {
			t.Fatalf("field %q type = %d, want %d", name, fields.Items[i].Type, rdh.FieldTypeUnsigned)
		}
	}
}

func TestStatisticsDecodeDefaultsMissingAndIgnoresUnknown(t *testing.T) {
	fields := rdh.FieldList{}
	fields.AddUnsigned(rdh.FieldCopyA4, 7)
	fields.AddUnsigned("faxBlack", 55)
	s := decodeStatistics(fields)
	if s.CopyA4() != 7 {
		t.Fatalf("CopyA4 = %d, want 7", s.CopyA4())
	}
	if s.CopyA3() != 0 || s.PrintA4() != 0 || s.PrintA3() != 0 || s.ScanA4() != 0 || s.ScanA3() != 0 {
		t.Fatalf("expected missing counters to default to zero, got %s", s)
	}
	if s.Dirty() {
		t.Fatalf("expected decoded statistics to be clean")
	}
}

func TestStatisticsSetZero(t *testing.T) {
	s := decodeStatistics(NewStatistics(1, 2, 3, 4, 5, 6).encode())
	s.SetZero()
	if !s.IsZero() {
		t.Fatalf("expected zeroed statistics, got %s", s)
	}
	if !s.Dirty() {
		t.Fatalf("expected reset to mark the block dirty")
	}
}
