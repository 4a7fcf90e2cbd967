package maint

import (
	"fmt"

	"aficiogolang/internal/rdh"
)

// Restriction records which device functions a user may use. The device
// stores the inverse: a function whose restriction flag reads OFF is
// the one that is granted.
//
// Assigning a grant marks the block dirty only when the value actually
// changes, unlike Statistics where every write marks dirty.
type Restriction struct {
	copy    bool
	printer bool
	scanner bool
	storage bool
	dirty   bool
}

// NewRestriction returns a clean restriction block with the given
// grants. Attaching it to an account through Account.SetRestriction
// marks it dirty, because attachment itself is a pending change.
func NewRestriction(copy, printer, scanner, storage bool) *Restriction {
	return &Restriction{copy: copy, printer: printer, scanner: scanner, storage: storage}
}

// decodeRestriction reads a restriction object's field list. A function
// is granted only when its field is present and reads the unrestricted
// sentinel; anything else, including an absent field, denies.
func decodeRestriction(fields rdh.FieldList) *Restriction {
	granted := func(name string) bool {
		v, ok := fields.Lookup(name)
		return ok && v == rdh.RestrictOff
	}
	return &Restriction{
		copy:    granted(rdh.FieldRestrictCopy),
		printer: granted(rdh.FieldRestrictPrinter),
		scanner: granted(rdh.FieldRestrictScanner),
		storage: granted(rdh.FieldRestrictStorage),
	}
}

func (r *Restriction) encode() rdh.FieldList {
	flag := func(granted bool) string {
		if granted {
			return rdh.RestrictOff
		}
		return rdh.RestrictOn
	}
	fields := rdh.FieldList{}
	fields.AddEnum(rdh.FieldRestrictCopy, flag(r.copy))
	fields.AddEnum(rdh.FieldRestrictPrinter, flag(r.printer))
	fields.AddEnum(rdh.FieldRestrictScanner, flag(r.scanner))
	fields.AddEnum(rdh.FieldRestrictStorage, flag(r.storage))
	return fields
}

func (r *Restriction) Copy() bool    { return r.copy }
func (r *Restriction) Printer() bool { return r.printer }
func (r *Restriction) Scanner() bool { return r.scanner }
func (r *Restriction) Storage() bool { return r.storage }

func (r *Restriction) SetCopy(granted bool) {
	if r.copy == granted {
		return
	}
	r.copy = granted
	r.dirty = true
}

func (r *Restriction) SetPrinter(granted bool) {
	if r.printer == granted {
		return
	}
	r.printer = granted
	r.dirty = true
}

func (r *Restriction) SetScanner(granted bool) {
	if r.scanner == granted {
		return
	}
	r.scanner = granted
	r.dirty = true
}

func (r *Restriction) SetStorage(granted bool) {
	if r.storage == granted {
		return
	}
	r.storage = granted
	r.dirty = true
}

// RevokeAll withdraws every grant.
func (r *Restriction) RevokeAll() {
	r.SetCopy(false)
	r.SetPrinter(false)
	r.SetScanner(false)
	r.SetStorage(false)
}

// AnyGranted reports whether the user may use any function at all.
func (r *Restriction) AnyGranted() bool {
	return r.copy || r.printer || r.scanner || r.storage
}

func (r *Restriction) Dirty() bool {
	return r != nil && r.dirty
}

func (r *Restriction) clearDirty() {
	if r != nil {
		r.dirty = false
	}
}

func (r *Restriction) markDirty() {
	if r != nil {
		r.dirty = true
	}
}

// Equal compares the four grants, ignoring dirty state.
func (r *Restriction) Equal(o *Restriction) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.copy == o.copy && r.printer == o.printer &&
		r.scanner == o.scanner && r.storage == o.storage
}

func (r *Restriction) String() string {
	if r == nil {
		return "<nil>"
	}
	mark := func(granted bool) byte {
		if granted {
			return '1'
		}
		return '0'
	}
	return fmt.Sprintf("c%cp%cs%cst%c",
		mark(r.copy), mark(r.printer), mark(r.scanner), mark(r.storage))
}
