package rdh

import (
	"strconv"
	"strings"
)

// Field is one name/value/type triple of a device-management object.
type Field struct {
	Name  string `xml:"name"`
	Value string `xml:"value"`
	Type  int    `xml:"type"`
}

// FieldList carries the fields of one object in device order.
type FieldList struct {
	Items []Field `xml:"item"`
}

func (l *FieldList) AddUnsigned(name string, v uint64) {
	l.Items = append(l.Items, Field{Name: name, Value: strconv.FormatUint(v, 10), Type: FieldTypeUnsigned})
}

func (l *FieldList) AddEnum(name, value string) {
	l.Items = append(l.Items, Field{Name: name, Value: value, Type: FieldTypeEnum})
}

// Lookup returns the value of the named field and whether it is present.
func (l FieldList) Lookup(name string) (string, bool) {
	for _, f := range l.Items {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Uint returns the named field parsed as an unsigned counter. Absent or
// malformed fields read as zero.
func (l FieldList) Uint(name string) uint64 {
	v, ok := l.Lookup(name)
	if !ok {
		return 0
	}
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Object is a device-management object as returned by GetObject. For
// per-user counter and restriction rows the name holds the directory
// entry id of the owning user.
type Object struct {
	Name   string
	Fields FieldList
}

// Prop is one name/value pair of a user-directory entry.
type Prop struct {
	Name  string `xml:"propName"`
	Value string `xml:"propVal"`
}

// PropList carries the properties of one directory entry.
type PropList struct {
	Items []Prop `xml:"item"`
}

func (l *PropList) Add(name, value string) {
	l.Items = append(l.Items, Prop{Name: name, Value: value})
}

// Lookup returns the value of the named property and whether it is
// present.
func (l PropList) Lookup(name string) (string, bool) {
	for _, p := range l.Items {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Get returns the value of the named property, or "" when absent.
func (l PropList) Get(name string) string {
	v, _ := l.Lookup(name)
	return v
}
