package rdh

import (
	"encoding/xml"
	"fmt"
)

type requestEnvelope struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Envelope"`
	Body    requestBody
}

type requestBody struct {
	XMLName xml.Name `xml:"http://schemas.xmlsoap.org/soap/envelope/ Body"`
	Payload any
}

type responseEnvelope struct {
	XMLName xml.Name     `xml:"Envelope"`
	Body    responseBody `xml:"Body"`
}

type responseBody struct {
	Fault *Fault `xml:"Fault"`
	Inner []byte `xml:",innerxml"`
}

// Fault is a SOAP fault returned in place of an operation response.
type Fault struct {
	Code   string `xml:"faultcode"`
	Reason string `xml:"faultstring"`
	Detail string `xml:"detail"`
}

func (f *Fault) Error() string {
	if f == nil {
		return ""
	}
	if f.Reason == "" {
		return "soap fault " + f.Code
	}
	return fmt.Sprintf("soap fault %s: %s", f.Code, f.Reason)
}

func marshalEnvelope(payload any) ([]byte, error) {
	data, err := xml.Marshal(requestEnvelope{Body: requestBody{Payload: payload}})
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(xml.Header)+len(data))
	out = append(out, xml.Header...)
	return append(out, data...), nil
}

// unmarshalEnvelope decodes a response body into out, returning the
// body's fault instead when one is present. Response elements are
// matched by local name only; the firmware is not consistent about
// namespace prefixes.
func unmarshalEnvelope(data []byte, out any) error {
	env := responseEnvelope{}
	if err := xml.Unmarshal(data, &env); err != nil {
		return err
	}
	if env.Body.Fault != nil {
		return env.Body.Fault
	}
	if out == nil {
		return nil
	}
	return xml.Unmarshal(env.Body.Inner, out)
}

func extractFault(data []byte) *Fault {
	env := responseEnvelope{}
	if err := xml.Unmarshal(data, &env); err != nil {
		return nil
	}
	return env.Body.Fault
}

// stringList marshals a repeated <item> element sequence.
type stringList struct {
	Items []string `xml:"item"`
}

// Responses share a handful of shapes across both services; these are
// matched by local element name, so one struct serves all operations
// returning that shape.

type returnValueResponse struct {
	ReturnValue string `xml:"returnValue"`
}

type stringOutResponse struct {
	ReturnValue string `xml:"returnValue"`
	StringOut   string `xml:"stringOut"`
}

type idListResponse struct {
	ReturnValue string   `xml:"returnValue"`
	Items       []string `xml:"item"`
}
