package maint

import (
	"fmt"

	"aficiogolang/internal/rdh"
)

// Statistics holds one user's black-and-white page counters, split by
// function and by paper size class (A4 and under, A3 and over).
//
// Every counter write marks the value dirty, even when the stored value
// does not change; a later flush then rewrites the counter row
// verbatim. Restriction setters detect changes instead.
type Statistics struct {
	copyA4  uint
	copyA3  uint
	printA4 uint
	printA3 uint
	scanA4  uint
	scanA3  uint
	dirty   bool
}

// NewStatistics returns a fresh counter block, marked dirty so that a
// newly attached block is written out on the next flush.
func NewStatistics(copyA4, copyA3, printA4, printA3, scanA4, scanA3 uint) *Statistics {
	return &Statistics{
		copyA4:  copyA4,
		copyA3:  copyA3,
		printA4: printA4,
		printA3: printA3,
		scanA4:  scanA4,
		scanA3:  scanA3,
		dirty:   true,
	}
}

// decodeStatistics reads a counter object's field list. Missing fields
// default to zero and unknown fields are ignored. The result is clean:
// decoded data mirrors the device and is nothing to write back.
func decodeStatistics(fields rdh.FieldList) *Statistics {
	return &Statistics{
		copyA4:  uint(fields.Uint(rdh.FieldCopyA4)),
		copyA3:  uint(fields.Uint(rdh.FieldCopyA3)),
		printA4: uint(fields.Uint(rdh.FieldPrintA4)),
		printA3: uint(fields.Uint(rdh.FieldPrintA3)),
		scanA4:  uint(fields.Uint(rdh.FieldScanA4)),
		scanA3:  uint(fields.Uint(rdh.FieldScanA3)),
	}
}

// encode renders the counters in the device's fixed field order.
func (s *Statistics) encode() rdh.FieldList {
	fields := rdh.FieldList{}
	fields.AddUnsigned(rdh.FieldCopyA4, uint64(s.copyA4))
	fields.AddUnsigned(rdh.FieldCopyA3, uint64(s.copyA3))
	fields.AddUnsigned(rdh.FieldPrintA4, uint64(s.printA4))
	fields.AddUnsigned(rdh.FieldPrintA3, uint64(s.printA3))
	fields.AddUnsigned(rdh.FieldScanA4, uint64(s.scanA4))
	fields.AddUnsigned(rdh.FieldScanA3, uint64(s.scanA3))
	return fields
}

func (s *Statistics) CopyA4() uint  { return s.copyA4 }
func (s *Statistics) CopyA3() uint  { return s.copyA3 }
func (s *Statistics) PrintA4() uint { return s.printA4 }
func (s *Statistics) PrintA3() uint { return s.printA3 }
func (s *Statistics) ScanA4() uint  { return s.scanA4 }
func (s *Statistics) ScanA3() uint  { return s.scanA3 }

func (s *Statistics) SetCopyA4(v uint) {
	s.dirty = true
	s.copyA4 = v
}

func (s *Statistics) SetCopyA3(v uint) {
	s.dirty = true
	s.copyA3 = v
}

func (s *Statistics) SetPrintA4(v uint) {
	s.dirty = true
	s.printA4 = v
}

func (s *Statistics) SetPrintA3(v uint) {
	s.dirty = true
	s.printA3 = v
}

func (s *Statistics) SetScanA4(v uint) {
	s.dirty = true
	s.scanA4 = v
}

func (s *Statistics) SetScanA3(v uint) {
	s.dirty = true
	s.scanA3 = v
}

// SetZero clears every counter, marking the block dirty so the reset
// reaches the device on the next flush.
func (s *Statistics) SetZero() {
	s.SetCopyA4(0)
	s.SetCopyA3(0)
	s.SetPrintA4(0)
	s.SetPrintA3(0)
	s.SetScanA4(0)
	s.SetScanA3(0)
}

// An A3 sheet counts as two A4 sheets in the billing totals.

func (s *Statistics) CopyTotal() uint  { return s.copyA4 + 2*s.copyA3 }
func (s *Statistics) PrintTotal() uint { return s.printA4 + 2*s.printA3 }
func (s *Statistics) ScanTotal() uint  { return s.scanA4 + 2*s.scanA3 }

// IsZero reports whether all three billing totals are zero.
func (s *Statistics) IsZero() bool {
	return s.CopyTotal() == 0 && s.PrintTotal() == 0 && s.ScanTotal() == 0
}

func (s *Statistics) Dirty() bool {
	return s != nil && s.dirty
}

func (s *Statistics) clearDirty() {
	if s != nil {
		s.dirty = false
	}
}

// Equal compares the six counters, ignoring dirty state.
func (s *Statistics) Equal(o *Statistics) bool {
	if s == nil || o == nil {
		return s == o
	}
	return s.copyA4 == o.copyA4 && s.copyA3 == o.copyA3 &&
		s.printA4 == o.printA4 && s.printA3 == o.printA3 &&
		s.scanA4 == o.scanA4 && s.scanA3 == o.scanA3
}

func (s *Statistics) String() string {
	if s == nil {
		return "<nil>"
	}
	state := "unmodified"
	if s.dirty {
		state = "modified"
	}
	return fmt.Sprintf("c%d,%d p%d,%d s%d,%d %s",
		s.copyA4, s.copyA3, s.printA4, s.printA3, s.scanA4, s.scanA3, state)
}
