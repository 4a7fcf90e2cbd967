package rdh

import (
	"context"
	"encoding/xml"
)

// UserDirectory issues operations against the user-directory service,
// which owns address book entries and their authentication properties.
type UserDirectory struct {
	c *Client
}

type udStartSession struct {
	XMLName   xml.Name `xml:"http://www.ricoh.co.jp/xmlns/soap/rdh/udirectory StartSession"`
	StringIn  string   `xml:"stringIn"`
	TimeLimit int      `xml:"timeLimit"`
	LockMode  string   `xml:"lockMode"`
}

type udTerminateSession struct {
	XMLName   xml.Name `xml:"http://www.ricoh.co.jp/xmlns/soap/rdh/udirectory TerminateSession"`
	SessionID string   `xml:"sessionId"`
}

type udGetObjectsProps struct {
	XMLName   xml.Name   `xml:"http://www.ricoh.co.jp/xmlns/soap/rdh/udirectory GetObjectsProps"`
	SessionID string     `xml:"sessionId"`
	ObjectIDs stringList `xml:"objectIdList"`
	Names     stringList `xml:"propName"`
}

type propListsResponse struct {
	ReturnValue string     `xml:"returnValue"`
	Lists       []PropList `xml:"item"`
}

type udPutObjects struct {
	XMLName   xml.Name   `xml:"http://www.ricoh.co.jp/xmlns/soap/rdh/udirectory PutObjects"`
	SessionID string     `xml:"sessionId"`
	Class     string     `xml:"objectClass"`
	PropLists []PropList `xml:"propListList>item"`
}

type udPutObjectProps struct {
	XMLName   xml.Name `xml:"http://www.ricoh.co.jp/xmlns/soap/rdh/udirectory PutObjectProps"`
	SessionID string   `xml:"sessionId"`
	ObjectID  string   `xml:"objectId"`
	Props     PropList `xml:"propList"`
}

func (s UserDirectory) call(ctx context.Context, op string, payload, out any) error {
	return s.c.call(ctx, UserDirectoryPath, UserDirectoryNS, op, payload, out)
}

// StartSession opens a directory session holding the given lock mode:
// LockShared for reads, LockExclusive for writes. A timeLimit of zero
// asks for the firmware default.
func (s UserDirectory) StartSession(ctx context.Context, timeLimit int, lockMode string) (string, error) {
	out := stringOutResponse{}
	err := s.call(ctx, "StartSession", udStartSession{
		StringIn:  s.c.Credential,
		TimeLimit: timeLimit,
		LockMode:  lockMode,
	}, &out)
	if err != nil {
		return "", err
	}
	if err := checkReturn("udirectory.StartSession", out.ReturnValue); err != nil {
		return "", err
	}
	return out.StringOut, nil
}

func (s UserDirectory) TerminateSession(ctx context.Context, session string) error {
	out := returnValueResponse{}
	if err := s.call(ctx, "TerminateSession", udTerminateSession{SessionID: session}, &out); err != nil {
		return err
	}
	return checkReturn("udirectory.TerminateSession", out.ReturnValue)
}

// GetObjectsProps fetches the selected properties of several entries in
// one round trip. The result carries one prop list per requested id, in
// request order.
func (s UserDirectory) GetObjectsProps(ctx context.Context, session string, objectIDs, names []string) ([]PropList, error) {
	out := propListsResponse{}
	err := s.call(ctx, "GetObjectsProps", udGetObjectsProps{
		SessionID: session,
		ObjectIDs: stringList{Items: objectIDs},
		Names:     stringList{Items: names},
	}, &out)
	if err != nil {
		return nil, err
	}
	if err := checkReturn("udirectory.GetObjectsProps", out.ReturnValue); err != nil {
		return nil, err
	}
	return out.Lists, nil
}

// PutObjects creates new directory entries and returns their ids, in
// request order.
func (s UserDirectory) PutObjects(ctx context.Context, session string, props []PropList) ([]string, error) {
	out := idListResponse{}
	err := s.call(ctx, "PutObjects", udPutObjects{
		SessionID: session,
		Class:     ClassEntry,
		PropLists: props,
	}, &out)
	if err != nil {
		return nil, err
	}
	if err := checkReturn("udirectory.PutObjects", out.ReturnValue); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// PutObjectProps overwrites the given properties of one entry, leaving
// the rest untouched.
func (s UserDirectory) PutObjectProps(ctx context.Context, session, objectID string, props PropList) error {
	out := returnValueResponse{}
	err := s.call(ctx, "PutObjectProps", udPutObjectProps{
		SessionID: session,
		ObjectID:  objectID,
		Props:     props,
	}, &out)
	if err != nil {
		return err
	}
	return checkReturn("udirectory.PutObjectProps", out.ReturnValue)
}
