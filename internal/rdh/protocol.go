// Package rdh speaks the remote management protocol of Ricoh Aficio
// office machines. The embedded web server exposes two SOAP services:
// a device-management service holding object tables (usage counters,
// usage restrictions) and a user-directory service holding address
// book entries. Both are bracketed by API-level session tokens; there
// is no connection state beyond the individual HTTP round trip.
package rdh

// Service namespaces and endpoint paths on the device's web server.
const (
	DeviceManagementNS   = "http://www.ricoh.co.jp/xmlns/soap/rdh/devicemanagement"
	UserDirectoryNS      = "http://www.ricoh.co.jp/xmlns/soap/rdh/udirectory"
	DeviceManagementPath = "/DH/devicemanagement"
	UserDirectoryPath    = "/DH/udirectory"
)

// Object classes of the per-user rows in the device-management tables.
const (
	ClassUserCounter  = "usageCounter.userCounter"
	ClassUserRestrict = "usageControl.userRestrict"
)

// DefaultScope selects the device-local object space in enumeration and
// read calls.
const DefaultScope = 0

// Object class of user-directory entries created through PutObjects.
const ClassEntry = "entry"

// returnValue codes shared by both services. Anything other than OK is
// surfaced as a StatusError; StatusBusy means another management client
// currently holds the subsystem.
const (
	ReturnOK   = "OK"
	StatusBusy = "systemBusy"
)

// Directory session lock modes passed to the directory StartSession.
const (
	LockShared    = "S"
	LockExclusive = "X"
)

// Type markers carried in field-list entries.
const (
	FieldTypeUnsigned = 1
	FieldTypeEnum     = 2
)

// Field names of a usageCounter.userCounter object. The device schema
// mixes "print" and "printer" prefixes for the two print counters; both
// spellings are fixed firmware-side.
const (
	FieldCopyA4  = "copyBlack"
	FieldCopyA3  = "copyBlackA3Over"
	FieldPrintA4 = "printBlack"
	FieldPrintA3 = "printerBlackA3Over"
	FieldScanA4  = "scannerBlack"
	FieldScanA3  = "scannerBlackA3Over"
)

// Field names of a usageControl.userRestrict object.
const (
	FieldRestrictCopy    = "copy"
	FieldRestrictPrinter = "printer"
	FieldRestrictScanner = "scanner"
	FieldRestrictStorage = "localStorage"
)

// Restriction flag values. The sense is inverted relative to the grant
// they express: OFF means the function is unrestricted and therefore
// available to the user.
const (
	RestrictOn  = "ON"
	RestrictOff = "OFF"
)

// Property names of a user-directory entry. Authentication-related
// properties live under the "auth:" prefix; "auth:name" holds the
// numeric user code entered at the panel.
const (
	PropEntryType        = "entryType"
	PropName             = "name"
	PropAuth             = "auth:"
	PropAuthName         = "auth:name"
	PropPassword         = "passwd:password"
	PropPasswordEncoding = "passwd:encoding"
)

// EntryTypeUser marks a directory entry as a user account.
const EntryTypeUser = "user"

// Newly created accounts receive a fixed placeholder credential; the
// scheme marker is the only password encoding the firmware accepts.
const (
	PlaceholderPassword     = "MDAwMA=="
	PasswordEncodingGwpwes2 = "gwpwes002"
)

// Per-user rows in the device-management tables are addressed by
// prefixing the owning table's number to the user's directory entry id.
const (
	userCounterTable  = "10"
	userRestrictTable = "11"
)

// UserCounterOID returns the usage-counter object id of the user owning
// the given directory entry.
func UserCounterOID(entryID string) string { return userCounterTable + entryID }

// UserRestrictOID returns the usage-restriction object id of the user
// owning the given directory entry.
func UserRestrictOID(entryID string) string { return userRestrictTable + entryID }
