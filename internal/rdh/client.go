package rdh

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Client talks to the two remote-management services of one device.
// The zero value is not usable; NewClient fills in defaults.
type Client struct {
	Host               string
	Port               int
	UseTLS             bool
	Credential         string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

type ClientOption func(*Client)

func WithPort(port int) ClientOption {
	return func(c *Client) {
		if port > 0 {
			c.Port = port
		}
	}
}

func WithTLS(enable bool) ClientOption {
	return func(c *Client) {
		if enable {
			c.UseTLS = true
		}
	}
}

// WithCredential sets the authentication string passed to StartSession
// on both services.
func WithCredential(credential string) ClientOption {
	return func(c *Client) {
		if credential != "" {
			c.Credential = credential
		}
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

func WithInsecureTLS(skipVerify bool) ClientOption {
	return func(c *Client) {
		if skipVerify {
			c.InsecureSkipVerify = true
		}
	}
}

func NewClient(host string, opts ...ClientOption) *Client {
	client := &Client{
		Host:    strings.TrimSpace(host),
		Timeout: 60 * time.Second,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.Host == "" {
		client.Host = "localhost"
	}
	if client.Port == 0 {
		if client.UseTLS {
			client.Port = 443
		} else {
			client.Port = 80
		}
	}
	return client
}

// DeviceManagement returns the device-management service surface.
func (c *Client) DeviceManagement() DeviceManagement { return DeviceManagement{c} }

// UserDirectory returns the user-directory service surface.
func (c *Client) UserDirectory() UserDirectory { return UserDirectory{c} }

func (c *Client) serviceURL(path string) string {
	scheme := "http"
	if c.UseTLS {
		scheme = "https"
	}
	return scheme + "://" + c.Host + ":" + strconv.Itoa(c.Port) + path
}

func (c *Client) call(ctx context.Context, path, ns, op string, payload, out any) error {
	body, err := marshalEnvelope(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL(path), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "\""+ns+"#"+op+"\"")

	client := &http.Client{
		Timeout: c.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12, InsecureSkipVerify: c.InsecureSkipVerify},
		},
	}
	resp, err := client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return err
	}
	data, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		// SOAP 1.1 carries faults on a 500 response.
		if fault := extractFault(data); fault != nil {
			return fault
		}
		return errors.New(resp.Status)
	}
	if readErr != nil {
		return readErr
	}
	return unmarshalEnvelope(data, out)
}
