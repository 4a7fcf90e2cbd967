package devstat

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	goipp "github.com/OpenPrinting/goipp"
)

// PrinterState mirrors the IPP printer-state enum.
type PrinterState int

const (
	StateIdle       PrinterState = 3
	StateProcessing PrinterState = 4
	StateStopped    PrinterState = 5
)

func (s PrinterState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateProcessing:
		return "processing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// IPPStatus is the printer's view of itself over IPP.
type IPPStatus struct {
	State        PrinterState
	StateReasons []string
	MakeAndModel string
	QueuedJobs   int
}

var ippStatusAttributes = []string{
	"printer-state",
	"printer-state-reasons",
	"printer-make-and-model",
	"queued-job-count",
}

// FetchIPPStatus asks the device for its printer state with a
// Get-Printer-Attributes request. The uri may use the ipp, ipps, http
// or https scheme.
func FetchIPPStatus(ctx context.Context, uri string, timeout time.Duration, insecure bool) (IPPStatus, error) {
	httpURL, printerURI, useTLS, err := resolveIPPURL(uri)
	if err != nil {
		return IPPStatus{}, err
	}

	req := goipp.NewRequest(goipp.DefaultVersion, goipp.OpGetPrinterAttributes, uint32(time.Now().UnixNano()))
	req.Operation.Add(goipp.MakeAttribute("attributes-charset", goipp.TagCharset, goipp.String("utf-8")))
	req.Operation.Add(goipp.MakeAttribute("attributes-natural-language", goipp.TagLanguage, goipp.String("en-US")))
	req.Operation.Add(goipp.MakeAttribute("printer-uri", goipp.TagURI, goipp.String(printerURI)))
	values := make([]goipp.Value, 0, len(ippStatusAttributes))
	for _, name := range ippStatusAttributes {
		values = append(values, goipp.String(name))
	}
	req.Operation.Add(goipp.MakeAttr("requested-attributes", goipp.TagKeyword, values[0], values[1:]...))

	payload, err := req.EncodeBytes()
	if err != nil {
		return IPPStatus{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, httpURL, bytes.NewReader(payload))
	if err != nil {
		return IPPStatus{}, err
	}
	httpReq.Header.Set("Content-Type", goipp.ContentType)
	httpReq.Header.Set("Accept", goipp.ContentType)

	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if useTLS && insecure {
		tlsConfig.InsecureSkipVerify = true
	}
	client := &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{TLSClientConfig: tlsConfig},
	}
	resp, err := client.Do(httpReq)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return IPPStatus{}, err
	}
	if resp.StatusCode/100 != 2 {
		return IPPStatus{}, errors.New(resp.Status)
	}
	msg := &goipp.Message{}
	if err := msg.Decode(resp.Body); err != nil {
		return IPPStatus{}, err
	}
	if status := goipp.Status(msg.Code); status >= goipp.StatusRedirectionOtherSite {
		return IPPStatus{}, errors.New(status.String())
	}
	return decodeIPPStatus(msg), nil
}

func decodeIPPStatus(msg *goipp.Message) IPPStatus {
	out := IPPStatus{}
	for _, attr := range msg.Printer {
		switch attr.Name {
		case "printer-state":
			if n, ok := attrInt(attr); ok {
				out.State = PrinterState(n)
			}
		case "printer-state-reasons":
			for _, v := range attr.Values {
				reason := strings.TrimSpace(v.V.String())
				if reason != "" && reason != "none" {
					out.StateReasons = append(out.StateReasons, reason)
				}
			}
		case "printer-make-and-model":
			if len(attr.Values) > 0 {
				out.MakeAndModel = attr.Values[0].V.String()
			}
		case "queued-job-count":
			if n, ok := attrInt(attr); ok {
				out.QueuedJobs = n
			}
		}
	}
	return out
}

func attrInt(attr goipp.Attribute) (int, bool) {
	if len(attr.Values) == 0 {
		return 0, false
	}
	if n, ok := attr.Values[0].V.(goipp.Integer); ok {
		return int(n), true
	}
	return 0, false
}

// resolveIPPURL maps an ipp/ipps uri onto the http url to POST to,
// keeping the original uri for the printer-uri attribute.
func resolveIPPURL(uri string) (string, string, bool, error) {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return "", "", false, err
	}
	if u.Host == "" {
		return "", "", false, errors.New("missing printer host")
	}
	scheme := strings.ToLower(u.Scheme)
	useTLS := scheme == "ipps" || scheme == "https"
	httpScheme := "http"
	if useTLS {
		httpScheme = "https"
	}
	host := u.Host
	if u.Port() == "" && (scheme == "ipp" || scheme == "ipps") {
		host = net.JoinHostPort(u.Hostname(), "631")
	}
	httpURL := httpScheme + "://" + host + u.RequestURI()
	return httpURL, uri, useTLS, nil
}
