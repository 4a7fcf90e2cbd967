// Package maint manages the print-accounting users of a Ricoh Aficio
// device through its remote management services. A Session bulk-loads
// every account into memory; callers inspect and mutate the returned
// Account values and write changes back selectively, guided by the
// per-block dirty flags.
package maint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"aficiogolang/internal/rdh"
)

// InfoRequest selects which parts of an account a lookup asks for. The
// bulk load always fetches every block, so the mask does not narrow
// what a lookup returns; it exists for compatibility with the
// interface this replaces.
type InfoRequest uint

const (
	RequestCode InfoRequest = 1 << iota
	RequestName
	RequestRestriction
	RequestStatistics

	RequestAll = RequestCode | RequestName | RequestRestriction | RequestStatistics
)

const (
	defaultBusyRetryLimit    = 4
	defaultBusyRetryInterval = 2 * time.Second
)

// Session is a bulk maintenance view of one device's accounting users.
//
// Construction loads every usage-counter row, its directory entry and
// any matching usage-restriction row into a cache keyed by directory
// entry id. The cache is not refreshed behind the caller's back;
// changes made by other clients require a fresh Session.
//
// A Session is not safe for concurrent use. The device lock taken
// around write-backs serializes management clients against each other,
// not goroutines within one process.
type Session struct {
	client *rdh.Client

	// Retry policy applied when the device reports busy while the
	// configuration lock is being taken. The interval is constant and
	// the attempt count bounded; no other operation is retried.
	BusyRetryLimit    uint64
	BusyRetryInterval time.Duration

	accounts     map[string]*Account
	order        []string
	loadFailures int
}

var statisticsFields = []string{
	rdh.FieldCopyA4, rdh.FieldCopyA3,
	rdh.FieldPrintA4, rdh.FieldPrintA3,
	rdh.FieldScanA4, rdh.FieldScanA3,
}

var restrictionFields = []string{
	rdh.FieldRestrictCopy, rdh.FieldRestrictPrinter,
	rdh.FieldRestrictScanner, rdh.FieldRestrictStorage,
}

var directoryProps = []string{rdh.PropName, rdh.PropAuthName}

// OpenSession connects to the device and bulk-loads the account cache.
func OpenSession(ctx context.Context, client *rdh.Client) (*Session, error) {
	if client == nil {
		return nil, wrapValidation("open session", errors.New("nil device client"))
	}
	s := &Session{
		client:            client,
		BusyRetryLimit:    defaultBusyRetryLimit,
		BusyRetryInterval: defaultBusyRetryInterval,
		accounts:          make(map[string]*Account),
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) load(ctx context.Context) (err error) {
	const op = "load accounts"
	dm := s.client.DeviceManagement()
	ud := s.client.UserDirectory()

	dmSession, err := dm.StartSession(ctx, 0)
	if err != nil {
		return wrapDevice(op, 0, err)
	}
	defer func() {
		if terr := dm.TerminateSession(ctx, dmSession); terr != nil && err == nil {
			err = wrapDevice(op, 0, terr)
		}
	}()

	udSession, err := ud.StartSession(ctx, 0, rdh.LockShared)
	if err != nil {
		return wrapDevice(op, 0, err)
	}
	defer func() {
		if terr := ud.TerminateSession(ctx, udSession); terr != nil && err == nil {
			err = wrapDevice(op, 0, terr)
		}
	}()

	counterIDs, err := dm.GetObjects(ctx, dmSession, rdh.DefaultScope, rdh.ClassUserCounter)
	if err != nil {
		return wrapDevice(op, 0, err)
	}
	restrictIDs, err := dm.GetObjects(ctx, dmSession, rdh.DefaultScope, rdh.ClassUserRestrict)
	if err != nil {
		return wrapDevice(op, 0, err)
	}

	// One broken row must not take down the whole listing: failures
	// are counted and logged, the row is skipped.
	for _, id := range counterIDs {
		if lerr := s.loadCounter(ctx, dm, ud, dmSession, udSession, id); lerr != nil {
			s.loadFailures++
			log.Printf("maint: skipping counter object %s: %v", id, lerr)
		}
	}
	for _, id := range restrictIDs {
		if lerr := s.loadRestriction(ctx, dm, dmSession, id); lerr != nil {
			s.loadFailures++
			log.Printf("maint: skipping restriction object %s: %v", id, lerr)
		}
	}
	return nil
}

func (s *Session) loadCounter(ctx context.Context, dm rdh.DeviceManagement, ud rdh.UserDirectory, dmSession, udSession, objectID string) error {
	obj, err := dm.GetObject(ctx, dmSession, rdh.DefaultScope, objectID, statisticsFields)
	if err != nil {
		return err
	}
	entryID := strings.TrimSpace(obj.Name)
	if entryID == "" {
		return errors.New("counter object names no directory entry")
	}
	props, err := ud.GetObjectsProps(ctx, udSession, []string{entryID}, directoryProps)
	if err != nil {
		return err
	}
	if len(props) == 0 {
		return fmt.Errorf("directory entry %s not found", entryID)
	}
	account, err := accountFromProps(entryID, props[0])
	if err != nil {
		return err
	}
	account.attachLoaded(decodeStatistics(obj.Fields), nil)
	s.put(account)
	return nil
}

func (s *Session) loadRestriction(ctx context.Context, dm rdh.DeviceManagement, dmSession, objectID string) error {
	obj, err := dm.GetObject(ctx, dmSession, rdh.DefaultScope, objectID, restrictionFields)
	if err != nil {
		return err
	}
	account := s.accounts[strings.TrimSpace(obj.Name)]
	if account == nil {
		// No loaded owner; the counter pass already reported whatever
		// went wrong with it.
		return nil
	}
	account.attachLoaded(nil, decodeRestriction(obj.Fields))
	return nil
}

func accountFromProps(entryID string, props rdh.PropList) (*Account, error) {
	name := rdh.DecodeDirectoryString(props.Get(rdh.PropName))
	code, err := strconv.Atoi(strings.TrimSpace(props.Get(rdh.PropAuthName)))
	if err != nil {
		return nil, fmt.Errorf("entry %s: unusable user code: %w", entryID, err)
	}
	account, err := NewAccount(code, name)
	if err != nil {
		return nil, err
	}
	account.setEntryID(entryID)
	return account, nil
}

func (s *Session) put(account *Account) {
	if _, exists := s.accounts[account.entryID]; !exists {
		s.order = append(s.order, account.entryID)
	}
	s.accounts[account.entryID] = account
}

func (s *Session) remove(entryID string) {
	delete(s.accounts, entryID)
	for i, id := range s.order {
		if id == entryID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// LoadFailures reports how many device objects the bulk load skipped.
func (s *Session) LoadFailures() int { return s.loadFailures }

// GetUserInfo returns the cached account with the given code, or nil
// when no such user exists. When the device holds duplicate codes, the
// first loaded match wins.
func (s *Session) GetUserInfo(code int, _ InfoRequest) *Account {
	for _, id := range s.order {
		if a := s.accounts[id]; a != nil && a.code == code {
			return a
		}
	}
	return nil
}

// GetUserInfos returns every cached account in load order.
func (s *Session) GetUserInfos(_ InfoRequest) []*Account {
	out := make([]*Account, 0, len(s.order))
	for _, id := range s.order {
		if a := s.accounts[id]; a != nil {
			out = append(out, a)
		}
	}
	return out
}

// AddUser creates the directory entry for a detached account, captures
// the device-assigned entry id into it and writes its restriction row
// under the device lock. Without an attached restriction an all-revoked
// one is written; a brand-new account should not print before someone
// grants it something. Counter rows are device-initialized at zero, so
// AddUser writes none: seed counters with SetUserInfo afterwards.
//
// The two phases are not atomic. When the restriction write fails, the
// directory entry already exists; that partial state is reported to the
// caller, not rolled back.
func (s *Session) AddUser(ctx context.Context, account *Account) error {
	const op = "add user"
	if account == nil {
		return wrapValidation(op, errors.New("nil account"))
	}
	if account.entryID != "" {
		return &Error{Kind: ErrorValidation, Op: op, UserCode: account.code,
			Err: fmt.Errorf("account already bound to directory entry %s", account.entryID)}
	}
	props, err := newEntryProps(account)
	if err != nil {
		return &Error{Kind: ErrorValidation, Op: op, UserCode: account.code, Err: err}
	}

	err = s.withDirectory(ctx, rdh.LockExclusive, func(ud rdh.UserDirectory, session string) error {
		ids, err := ud.PutObjects(ctx, session, []rdh.PropList{props})
		if err != nil {
			return err
		}
		if len(ids) == 0 || strings.TrimSpace(ids[0]) == "" {
			return errors.New("device assigned no entry id")
		}
		account.setEntryID(strings.TrimSpace(ids[0]))
		return nil
	})
	if err != nil {
		return wrapDevice(op, account.code, err)
	}

	restriction := account.restriction
	if restriction == nil {
		restriction = NewRestriction(false, false, false, false)
		account.SetRestriction(restriction)
	}
	err = s.withDeviceLock(ctx, func(dm rdh.DeviceManagement, session string) error {
		return dm.UpdateObject(ctx, session, rdh.DefaultScope,
			rdh.UserRestrictOID(account.entryID), restriction.encode())
	})
	if err != nil {
		return wrapDevice(op, account.code, err)
	}
	account.NotifyFlushed()
	s.put(account)
	return nil
}

func newEntryProps(account *Account) (rdh.PropList, error) {
	name, err := rdh.EncodeDirectoryString(account.name)
	if err != nil {
		return rdh.PropList{}, err
	}
	props := rdh.PropList{}
	props.Add(rdh.PropEntryType, rdh.EntryTypeUser)
	props.Add(rdh.PropName, name)
	props.Add(rdh.PropAuthName, strconv.Itoa(account.code))
	props.Add(rdh.PropAuth, "true")
	props.Add(rdh.PropPassword, rdh.PlaceholderPassword)
	props.Add(rdh.PropPasswordEncoding, rdh.PasswordEncodingGwpwes2)
	return props, nil
}

// DeleteUser disables the account with the given code. The entry is
// soft-deleted: its authentication property is switched off while the
// directory object stays. Deleting an unknown code is a successful
// no-op, so repeating a delete does not fail.
func (s *Session) DeleteUser(ctx context.Context, code int) error {
	const op = "delete user"
	account := s.GetUserInfo(code, RequestAll)
	if account == nil {
		return nil
	}
	err := s.withDirectory(ctx, rdh.LockExclusive, func(ud rdh.UserDirectory, session string) error {
		props := rdh.PropList{}
		props.Add(rdh.PropAuth, "false")
		return ud.PutObjectProps(ctx, session, account.entryID, props)
	})
	if err != nil {
		return wrapDevice(op, code, err)
	}
	s.remove(account.entryID)
	return nil
}

// SetUserInfo writes an account's pending changes back to the device.
//
// The directory entry is resolved through the account's entry id or,
// for a detached account, through the cache under the code the device
// last confirmed, which is what keeps a renamed account addressable.
// Identity (name and code) goes to the directory first; then, under
// the device lock, the dirty restriction and counter blocks are
// written, restriction before counters. That order is kept as a
// firmware compatibility constraint. A failed restriction write aborts
// before the counters are touched; the lock is released on every path.
func (s *Session) SetUserInfo(ctx context.Context, account *Account) error {
	const op = "set user info"
	if account == nil {
		return wrapValidation(op, errors.New("nil account"))
	}
	if account.entryID == "" {
		cached := s.GetUserInfo(account.OrigCode(), RequestAll)
		if cached == nil {
			return wrapNotFound(op, account.OrigCode())
		}
		account.setEntryID(cached.entryID)
	}

	name, err := rdh.EncodeDirectoryString(account.name)
	if err != nil {
		return &Error{Kind: ErrorValidation, Op: op, UserCode: account.code, Err: err}
	}
	err = s.withDirectory(ctx, rdh.LockExclusive, func(ud rdh.UserDirectory, session string) error {
		props := rdh.PropList{}
		props.Add(rdh.PropName, name)
		props.Add(rdh.PropAuthName, strconv.Itoa(account.code))
		return ud.PutObjectProps(ctx, session, account.entryID, props)
	})
	if err != nil {
		return wrapDevice(op, account.code, err)
	}

	err = s.withDeviceLock(ctx, func(dm rdh.DeviceManagement, session string) error {
		if account.restriction.Dirty() {
			if uerr := dm.UpdateObject(ctx, session, rdh.DefaultScope,
				rdh.UserRestrictOID(account.entryID), account.restriction.encode()); uerr != nil {
				return uerr
			}
		}
		if account.stats.Dirty() {
			if uerr := dm.UpdateObject(ctx, session, rdh.DefaultScope,
				rdh.UserCounterOID(account.entryID), account.stats.encode()); uerr != nil {
				return uerr
			}
		}
		return nil
	})
	if err != nil {
		return wrapDevice(op, account.code, err)
	}
	account.NotifyFlushed()
	s.put(account)
	return nil
}

// withDirectory runs fn inside a short-lived directory session,
// guaranteeing termination on every path.
func (s *Session) withDirectory(ctx context.Context, lockMode string, fn func(ud rdh.UserDirectory, session string) error) (err error) {
	ud := s.client.UserDirectory()
	session, err := ud.StartSession(ctx, 0, lockMode)
	if err != nil {
		return err
	}
	defer func() {
		if terr := ud.TerminateSession(ctx, session); terr != nil && err == nil {
			err = terr
		}
	}()
	return fn(ud, session)
}

// withDeviceLock runs fn inside a device-management session holding the
// device configuration lock. Unlock and termination run on every path,
// including when fn fails.
func (s *Session) withDeviceLock(ctx context.Context, fn func(dm rdh.DeviceManagement, session string) error) (err error) {
	dm := s.client.DeviceManagement()
	session, err := dm.StartSession(ctx, 0)
	if err != nil {
		return err
	}
	defer func() {
		if terr := dm.TerminateSession(ctx, session); terr != nil && err == nil {
			err = terr
		}
	}()

	token, err := s.lockDevice(ctx, dm, session)
	if err != nil {
		return err
	}
	defer func() {
		if uerr := dm.UnlockDevice(ctx, session, token); uerr != nil && err == nil {
			err = uerr
		}
	}()
	return fn(dm, session)
}

// lockDevice takes the configuration lock, retrying a busy device at a
// constant interval up to the session's retry limit. Any other failure
// stops the attempts immediately.
func (s *Session) lockDevice(ctx context.Context, dm rdh.DeviceManagement, session string) (string, error) {
	var token string
	attempt := func() error {
		t, err := dm.LockDevice(ctx, session)
		if err != nil {
			if rdh.IsBusy(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		token = t
		return nil
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(s.BusyRetryInterval), s.BusyRetryLimit),
		ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		return "", err
	}
	return token, nil
}
