package rdh

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"
)

type capturedCall struct {
	path        string
	action      string
	contentType string
	body        string
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("split server host: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	return NewClient(host, WithPort(port), WithCredential("admin-pass"), WithTimeout(5*time.Second))
}

// soapResponder answers every request with the given body element,
// wrapped in a prefixed envelope the way the firmware writes it, and
// feeds what it received into calls.
func soapResponder(t *testing.T, inner string, calls chan<- capturedCall) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read request: %v", err)
		}
		calls <- capturedCall{
			path:        r.URL.Path,
			action:      r.Header.Get("SOAPAction"),
			contentType: r.Header.Get("Content-Type"),
			body:        string(body),
		}
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
			`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>`+
			inner+`</s:Body></s:Envelope>`)
	})
}

func dmResponse(element, inner string) string {
	return "<tns:" + element + ` xmlns:tns="` + DeviceManagementNS + `">` + inner + "</tns:" + element + ">"
}

func udResponse(element, inner string) string {
	return "<tns:" + element + ` xmlns:tns="` + UserDirectoryNS + `">` + inner + "</tns:" + element + ">"
}

func TestDeviceManagementStartSessionRequestShape(t *testing.T) {
	calls := make(chan capturedCall, 1)
	client := newTestClient(t, soapResponder(t,
		dmResponse("StartSessionResponse", "<returnValue>OK</returnValue><stringOut>sess-1</stringOut>"), calls))

	session, err := client.DeviceManagement().StartSession(context.Background(), 30)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if session != "sess-1" {
		t.Fatalf("session = %q, want sess-1", session)
	}

	call := <-calls
	if call.path != DeviceManagementPath {
		t.Fatalf("path = %q, want %q", call.path, DeviceManagementPath)
	}
	if want := "\"" + DeviceManagementNS + "#StartSession\""; call.action != want {
		t.Fatalf("SOAPAction = %q, want %q", call.action, want)
	}
	if call.contentType != "text/xml; charset=utf-8" {
		t.Fatalf("Content-Type = %q", call.contentType)
	}
	if !strings.HasPrefix(call.body, xml.Header) {
		t.Fatalf("request body lacks XML declaration: %q", call.body[:40])
	}
	for _, want := range []string{
		`<StartSession xmlns="` + DeviceManagementNS + `">`,
		"<stringIn>admin-pass</stringIn>",
		"<timeLimit>30</timeLimit>",
	} {
		if !strings.Contains(call.body, want) {
			t.Fatalf("request body missing %q:\n%s", want, call.body)
		}
	}
}

func TestDeviceManagementGetObjectsParsesIDList(t *testing.T) {
	calls := make(chan capturedCall, 1)
	client := newTestClient(t, soapResponder(t,
		dmResponse("GetObjectsResponse",
			"<returnValue>OK</returnValue><item>1000001</item><item>1000002</item><item>1100001</item>"), calls))

	ids, err := client.DeviceManagement().GetObjects(context.Background(), "sess-1", DefaultScope, ClassUserCounter)
	if err != nil {
		t.Fatalf("GetObjects: %v", err)
	}
	want := []string{"1000001", "1000002", "1100001"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}

	call := <-calls
	for _, wantPart := range []string{
		"<sessionId>sess-1</sessionId>",
		"<scope>0</scope>",
		"<objectClass>" + ClassUserCounter + "</objectClass>",
	} {
		if !strings.Contains(call.body, wantPart) {
			t.Fatalf("request body missing %q:\n%s", wantPart, call.body)
		}
	}
}

func TestDeviceManagementGetObjectParsesNameAndFields(t *testing.T) {
	calls := make(chan capturedCall, 1)
	client := newTestClient(t, soapResponder(t,
		dmResponse("GetObjectResponse",
			"<returnValue>OK</returnValue><objectOut><name>00007</name><fieldList>"+
				"<item><name>copyBlack</name><value>12</value><type>1</type></item>"+
				"<item><name>copyBlackA3Over</name><value>3</value><type>1</type></item>"+
				"</fieldList></objectOut>"), calls))

	obj, err := client.DeviceManagement().GetObject(context.Background(), "sess-1", DefaultScope,
		UserCounterOID("00007"), []string{FieldCopyA4, FieldCopyA3})
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if obj.Name != "00007" {
		t.Fatalf("object name = %q, want 00007", obj.Name)
	}
	if got := obj.Fields.Uint(FieldCopyA4); got != 12 {
		t.Fatalf("copyBlack = %d, want 12", got)
	}
	if got := obj.Fields.Uint(FieldCopyA3); got != 3 {
		t.Fatalf("copyBlackA3Over = %d, want 3", got)
	}

	call := <-calls
	for _, want := range []string{
		"<objectId>1000007</objectId>",
		"<fieldName><item>copyBlack</item><item>copyBlackA3Over</item></fieldName>",
	} {
		if !strings.Contains(call.body, want) {
			t.Fatalf("request body missing %q:\n%s", want, call.body)
		}
	}
}

func TestDeviceManagementUpdateObjectEncodesFieldList(t *testing.T) {
	calls := make(chan capturedCall, 1)
	client := newTestClient(t, soapResponder(t,
		dmResponse("UpdateObjectResponse", "<returnValue>OK</returnValue>"), calls))

	fields := FieldList{}
	fields.AddUnsigned(FieldCopyA4, 5)
	fields.AddEnum(FieldRestrictCopy, RestrictOn)
	err := client.DeviceManagement().UpdateObject(context.Background(), "sess-1", DefaultScope, "1100042", fields)
	if err != nil {
		t.Fatalf("UpdateObject: %v", err)
	}

	call := <-calls
	want := "<objectIn><objectId>1100042</objectId><fieldList>" +
		"<item><name>copyBlack</name><value>5</value><type>1</type></item>" +
		"<item><name>copy</name><value>ON</value><type>2</type></item>" +
		"</fieldList></objectIn>"
	if !strings.Contains(call.body, want) {
		t.Fatalf("request body missing %q:\n%s", want, call.body)
	}
}

func TestDeviceManagementLockDeviceBusyStatus(t *testing.T) {
	client := newTestClient(t, soapResponder(t,
		dmResponse("LockDeviceResponse", "<returnValue>"+StatusBusy+"</returnValue>"),
		make(chan capturedCall, 1)))

	_, err := client.DeviceManagement().LockDevice(context.Background(), "sess-1")
	if err == nil {
		t.Fatalf("expected busy error")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if se.Status != StatusBusy {
		t.Fatalf("status = %q, want %q", se.Status, StatusBusy)
	}
	if !IsBusy(err) {
		t.Fatalf("expected IsBusy to hold for %v", err)
	}
}

func TestDeviceManagementStatusErrorMessage(t *testing.T) {
	client := newTestClient(t, soapResponder(t,
		dmResponse("UpdateObjectResponse", "<returnValue>operationError</returnValue>"),
		make(chan capturedCall, 1)))

	err := client.DeviceManagement().UpdateObject(context.Background(), "sess-1", DefaultScope, "1000001", FieldList{})
	if err == nil {
		t.Fatalf("expected status error")
	}
	if IsBusy(err) {
		t.Fatalf("operationError must not classify as busy")
	}
	if !strings.Contains(err.Error(), `device returned "operationError"`) {
		t.Fatalf("unexpected error text: %v", err)
	}
	if !strings.Contains(err.Error(), "devicemanagement.UpdateObject") {
		t.Fatalf("error does not name the operation: %v", err)
	}
}

func TestSoapFaultSurfacesOnServerError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?>`+
			`<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>`+
			`<s:Fault><faultcode>s:Client</faultcode><faultstring>bad session</faultstring></s:Fault>`+
			`</s:Body></s:Envelope>`)
	}))

	err := client.DeviceManagement().TerminateSession(context.Background(), "stale")
	if err == nil {
		t.Fatalf("expected fault")
	}
	var fault *Fault
	if !errors.As(err, &fault) {
		t.Fatalf("expected Fault, got %T: %v", err, err)
	}
	if fault.Code != "s:Client" {
		t.Fatalf("fault code = %q, want s:Client", fault.Code)
	}
	if !strings.Contains(err.Error(), "bad session") {
		t.Fatalf("fault text lost: %v", err)
	}
}

func TestServerErrorWithoutFaultBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))

	_, err := client.DeviceManagement().StartSession(context.Background(), 0)
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if err.Error() != "502 Bad Gateway" {
		t.Fatalf("error = %q, want 502 Bad Gateway", err.Error())
	}
}

func TestUserDirectoryStartSessionSendsLockMode(t *testing.T) {
	calls := make(chan capturedCall, 1)
	client := newTestClient(t, soapResponder(t,
		udResponse("StartSessionResponse", "<returnValue>OK</returnValue><stringOut>ud-1</stringOut>"), calls))

	session, err := client.UserDirectory().StartSession(context.Background(), 0, LockExclusive)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if session != "ud-1" {
		t.Fatalf("session = %q, want ud-1", session)
	}

	call := <-calls
	if call.path != UserDirectoryPath {
		t.Fatalf("path = %q, want %q", call.path, UserDirectoryPath)
	}
	if want := "\"" + UserDirectoryNS + "#StartSession\""; call.action != want {
		t.Fatalf("SOAPAction = %q, want %q", call.action, want)
	}
	for _, want := range []string{
		"<timeLimit>0</timeLimit>",
		"<lockMode>X</lockMode>",
	} {
		if !strings.Contains(call.body, want) {
			t.Fatalf("request body missing %q:\n%s", want, call.body)
		}
	}
}

func TestUserDirectoryGetObjectsPropsRoundTrip(t *testing.T) {
	calls := make(chan capturedCall, 1)
	client := newTestClient(t, soapResponder(t,
		udResponse("GetObjectsPropsResponse",
			"<returnValue>OK</returnValue>"+
				"<item><item><propName>name</propName><propVal>QWxpY2U=</propVal></item>"+
				"<item><propName>auth:name</propName><propVal>100</propVal></item></item>"+
				"<item><item><propName>name</propName><propVal>Qm9i</propVal></item>"+
				"<item><propName>auth:name</propName><propVal>200</propVal></item></item>"), calls))

	lists, err := client.UserDirectory().GetObjectsProps(context.Background(), "ud-1",
		[]string{"00001", "00002"}, []string{PropName, PropAuthName})
	if err != nil {
		t.Fatalf("GetObjectsProps: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("got %d prop lists, want 2", len(lists))
	}
	if got := lists[0].Get(PropName); got != "QWxpY2U=" {
		t.Fatalf("first name = %q, want QWxpY2U=", got)
	}
	if got := lists[1].Get(PropAuthName); got != "200" {
		t.Fatalf("second code = %q, want 200", got)
	}

	call := <-calls
	for _, want := range []string{
		"<objectIdList><item>00001</item><item>00002</item></objectIdList>",
		"<propName><item>name</item><item>auth:name</item></propName>",
	} {
		if !strings.Contains(call.body, want) {
			t.Fatalf("request body missing %q:\n%s", want, call.body)
		}
	}
}

func TestUserDirectoryPutObjectsRequestShape(t *testing.T) {
	calls := make(chan capturedCall, 1)
	client := newTestClient(t, soapResponder(t,
		udResponse("PutObjectsResponse", "<returnValue>OK</returnValue><item>00042</item>"), calls))

	props := PropList{}
	props.Add(PropEntryType, EntryTypeUser)
	props.Add(PropAuthName, "300")
	ids, err := client.UserDirectory().PutObjects(context.Background(), "ud-1", []PropList{props})
	if err != nil {
		t.Fatalf("PutObjects: %v", err)
	}
	if len(ids) != 1 || ids[0] != "00042" {
		t.Fatalf("ids = %v, want [00042]", ids)
	}

	call := <-calls
	for _, want := range []string{
		"<objectClass>" + ClassEntry + "</objectClass>",
		"<propListList><item>" +
			"<item><propName>entryType</propName><propVal>user</propVal></item>" +
			"<item><propName>auth:name</propName><propVal>300</propVal></item>" +
			"</item></propListList>",
	} {
		if !strings.Contains(call.body, want) {
			t.Fatalf("request body missing %q:\n%s", want, call.body)
		}
	}
}

func TestUserDirectoryPutObjectPropsRequestShape(t *testing.T) {
	calls := make(chan capturedCall, 1)
	client := newTestClient(t, soapResponder(t,
		udResponse("PutObjectPropsResponse", "<returnValue>OK</returnValue>"), calls))

	props := PropList{}
	props.Add(PropAuth, "false")
	if err := client.UserDirectory().PutObjectProps(context.Background(), "ud-1", "00005", props); err != nil {
		t.Fatalf("PutObjectProps: %v", err)
	}

	call := <-calls
	for _, want := range []string{
		"<objectId>00005</objectId>",
		"<propList><item><propName>auth:</propName><propVal>false</propVal></item></propList>",
	} {
		if !strings.Contains(call.body, want) {
			t.Fatalf("request body missing %q:\n%s", want, call.body)
		}
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(" printer.example.com ")
	if c.Host != "printer.example.com" {
		t.Fatalf("host = %q", c.Host)
	}
	if c.Port != 80 {
		t.Fatalf("port = %d, want 80", c.Port)
	}
	if c.Timeout != 60*time.Second {
		t.Fatalf("timeout = %v, want 60s", c.Timeout)
	}
	if got := c.serviceURL(DeviceManagementPath); got != "http://printer.example.com:80/DH/devicemanagement" {
		t.Fatalf("service url = %q", got)
	}

	secure := NewClient("", WithTLS(true))
	if secure.Host != "localhost" {
		t.Fatalf("default host = %q, want localhost", secure.Host)
	}
	if secure.Port != 443 {
		t.Fatalf("tls port = %d, want 443", secure.Port)
	}
	if got := secure.serviceURL(UserDirectoryPath); got != "https://localhost:443/DH/udirectory" {
		t.Fatalf("tls service url = %q", got)
	}

	custom := NewClient("host", WithPort(8080), WithTLS(true))
	if custom.Port != 8080 {
		t.Fatalf("explicit port = %d, want 8080", custom.Port)
	}
}
