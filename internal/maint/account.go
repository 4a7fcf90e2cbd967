package maint

import (
	"fmt"
	"unicode/utf8"
)

// MaxNameLength is the longest display name the directory accepts.
const MaxNameLength = 20

// Account is one accounting user on the device: the numeric code
// entered at the panel, the display name stored in the directory, and
// optionally attached counter and restriction blocks. The directory
// entry id assigned by the device stays stable across code renames.
//
// An account remembers the code the device last confirmed. The first
// reassignment to a different code captures the previous value, and
// later reassignments before a flush leave that capture alone, so an
// edit made after a rename still addresses the right device objects.
type Account struct {
	code        int
	origCode    int // zero while no rename is pending
	name        string
	entryID     string
	stats       *Statistics
	restriction *Restriction
}

// NewAccount validates code and name and returns a detached account.
// The device assigns the entry id when the account is added.
func NewAccount(code int, name string) (*Account, error) {
	if code <= 0 {
		return nil, wrapValidation("new account", fmt.Errorf("user code %d not positive", code))
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	return &Account{code: code, name: name}, nil
}

func validateName(name string) error {
	if n := utf8.RuneCountInString(name); n > MaxNameLength {
		return wrapValidation("set name",
			fmt.Errorf("user name %q too long, max %d characters", name, MaxNameLength))
	}
	return nil
}

func (a *Account) Code() int { return a.code }

// OrigCode returns the code the device currently knows this account
// under: the captured pre-rename code while a rename is pending,
// otherwise the current code.
func (a *Account) OrigCode() int {
	if a.origCode != 0 {
		return a.origCode
	}
	return a.code
}

// SetCode reassigns the user code. The value known to the device is
// captured once, on the first change after a flush.
func (a *Account) SetCode(code int) error {
	if code <= 0 {
		return wrapValidation("set code", fmt.Errorf("user code %d not positive", code))
	}
	if code == a.code {
		return nil
	}
	if a.origCode == 0 {
		a.origCode = a.code
	}
	a.code = code
	return nil
}

func (a *Account) Name() string { return a.name }

// SetName replaces the display name, rejecting overlong names without
// touching the current value.
func (a *Account) SetName(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	a.name = name
	return nil
}

// EntryID returns the directory entry id, or "" for an account the
// device has not assigned one yet.
func (a *Account) EntryID() string { return a.entryID }

func (a *Account) setEntryID(id string) { a.entryID = id }

func (a *Account) Statistics() *Statistics   { return a.stats }
func (a *Account) Restriction() *Restriction { return a.restriction }

// SetStatistics attaches a counter block, discarding any previous one.
// A block built by NewStatistics is already dirty and will be written
// on the next flush.
func (a *Account) SetStatistics(s *Statistics) {
	a.stats = s
}

// SetRestriction attaches a restriction block, discarding any previous
// one and marking the new block dirty: attachment itself is a pending
// change.
func (a *Account) SetRestriction(r *Restriction) {
	a.restriction = r
	r.markDirty()
}

// attachLoaded installs device-decoded blocks without touching dirty
// state.
func (a *Account) attachLoaded(s *Statistics, r *Restriction) {
	if s != nil {
		a.stats = s
	}
	if r != nil {
		a.restriction = r
	}
}

// NotifyFlushed records that the device has confirmed the account's
// current state: the pending rename capture collapses to the current
// code and both attached blocks become clean. Calling it again without
// an intervening change is a no-op.
func (a *Account) NotifyFlushed() {
	a.origCode = 0
	a.stats.clearDirty()
	a.restriction.clearDirty()
}

func (a *Account) String() string {
	return fmt.Sprintf("<User %q (#%d, %s, %s)>", a.name, a.code, a.restriction, a.stats)
}
