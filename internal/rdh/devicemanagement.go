package rdh

import (
	"context"
	"encoding/xml"
)

// DeviceManagement issues operations against the device-management
// service, which owns the usage-counter and usage-restriction tables
// and the device-wide configuration lock.
type DeviceManagement struct {
	c *Client
}

type dmStartSession struct {
	XMLName   xml.Name `xml:"http://www.ricoh.co.jp/xmlns/soap/rdh/devicemanagement StartSession"`
	StringIn  string   `xml:"stringIn"`
	TimeLimit int      `xml:"timeLimit"`
}

type dmTerminateSession struct {
	XMLName   xml.Name `xml:"http://www.ricoh.co.jp/xmlns/soap/rdh/devicemanagement TerminateSession"`
	SessionID string   `xml:"sessionId"`
}

type dmGetObjects struct {
	XMLName   xml.Name `xml:"http://www.ricoh.co.jp/xmlns/soap/rdh/devicemanagement GetObjects"`
	SessionID string   `xml:"sessionId"`
	Scope     int      `xml:"scope"`
	Class     string   `xml:"objectClass"`
}

type dmGetObject struct {
	XMLName   xml.Name   `xml:"http://www.ricoh.co.jp/xmlns/soap/rdh/devicemanagement GetObject"`
	SessionID string     `xml:"sessionId"`
	Scope     int        `xml:"scope"`
	ObjectID  string     `xml:"objectId"`
	Fields    stringList `xml:"fieldName"`
}

type getObjectResponse struct {
	ReturnValue string    `xml:"returnValue"`
	Name        string    `xml:"objectOut>name"`
	Fields      FieldList `xml:"objectOut>fieldList"`
}

type dmUpdateObject struct {
	XMLName   xml.Name  `xml:"http://www.ricoh.co.jp/xmlns/soap/rdh/devicemanagement UpdateObject"`
	SessionID string    `xml:"sessionId"`
	Scope     int       `xml:"scope"`
	ObjectID  string    `xml:"objectIn>objectId"`
	Fields    FieldList `xml:"objectIn>fieldList"`
	Options   string    `xml:"options"`
}

type dmLockDevice struct {
	XMLName   xml.Name `xml:"http://www.ricoh.co.jp/xmlns/soap/rdh/devicemanagement LockDevice"`
	SessionID string   `xml:"sessionId"`
	Option    string   `xml:"option"`
}

type dmUnlockDevice struct {
	XMLName   xml.Name `xml:"http://www.ricoh.co.jp/xmlns/soap/rdh/devicemanagement UnlockDevice"`
	SessionID string   `xml:"sessionId"`
	StringIn  string   `xml:"stringIn"`
}

func (s DeviceManagement) call(ctx context.Context, op string, payload, out any) error {
	return s.c.call(ctx, DeviceManagementPath, DeviceManagementNS, op, payload, out)
}

// StartSession opens a management session and returns its token. A
// timeLimit of zero asks for the firmware default.
func (s DeviceManagement) StartSession(ctx context.Context, timeLimit int) (string, error) {
	out := stringOutResponse{}
	err := s.call(ctx, "StartSession", dmStartSession{StringIn: s.c.Credential, TimeLimit: timeLimit}, &out)
	if err != nil {
		return "", err
	}
	if err := checkReturn("devicemanagement.StartSession", out.ReturnValue); err != nil {
		return "", err
	}
	return out.StringOut, nil
}

func (s DeviceManagement) TerminateSession(ctx context.Context, session string) error {
	out := returnValueResponse{}
	if err := s.call(ctx, "TerminateSession", dmTerminateSession{SessionID: session}, &out); err != nil {
		return err
	}
	return checkReturn("devicemanagement.TerminateSession", out.ReturnValue)
}

// GetObjects enumerates the object ids of every row in the given class.
func (s DeviceManagement) GetObjects(ctx context.Context, session string, scope int, class string) ([]string, error) {
	out := idListResponse{}
	err := s.call(ctx, "GetObjects", dmGetObjects{SessionID: session, Scope: scope, Class: class}, &out)
	if err != nil {
		return nil, err
	}
	if err := checkReturn("devicemanagement.GetObjects", out.ReturnValue); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// GetObject fetches one object restricted to the named fields. For
// per-user rows the returned object name holds the directory entry id
// of the owning user.
func (s DeviceManagement) GetObject(ctx context.Context, session string, scope int, objectID string, fields []string) (Object, error) {
	out := getObjectResponse{}
	err := s.call(ctx, "GetObject", dmGetObject{
		SessionID: session,
		Scope:     scope,
		ObjectID:  objectID,
		Fields:    stringList{Items: fields},
	}, &out)
	if err != nil {
		return Object{}, err
	}
	if err := checkReturn("devicemanagement.GetObject", out.ReturnValue); err != nil {
		return Object{}, err
	}
	return Object{Name: out.Name, Fields: out.Fields}, nil
}

// UpdateObject writes the given fields of one object.
func (s DeviceManagement) UpdateObject(ctx context.Context, session string, scope int, objectID string, fields FieldList) error {
	out := returnValueResponse{}
	err := s.call(ctx, "UpdateObject", dmUpdateObject{
		SessionID: session,
		Scope:     scope,
		ObjectID:  objectID,
		Fields:    fields,
	}, &out)
	if err != nil {
		return err
	}
	return checkReturn("devicemanagement.UpdateObject", out.ReturnValue)
}

// LockDevice takes the device-wide configuration lock and returns the
// token UnlockDevice expects back.
func (s DeviceManagement) LockDevice(ctx context.Context, session string) (string, error) {
	out := stringOutResponse{}
	if err := s.call(ctx, "LockDevice", dmLockDevice{SessionID: session}, &out); err != nil {
		return "", err
	}
	if err := checkReturn("devicemanagement.LockDevice", out.ReturnValue); err != nil {
		return "", err
	}
	return out.StringOut, nil
}

func (s DeviceManagement) UnlockDevice(ctx context.Context, session, token string) error {
	out := returnValueResponse{}
	if err := s.call(ctx, "UnlockDevice", dmUnlockDevice{SessionID: session, StringIn: token}, &out); err != nil {
		return err
	}
	return checkReturn("devicemanagement.UnlockDevice", out.ReturnValue)
}
