// Package discover browses DNS-SD on the local network so an
// administrator can locate the copier without knowing its address.
package discover

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// Device is one advertised print service.
type Device struct {
	Name     string
	Host     string
	Port     int
	URI      string
	Model    string
	Location string
}

const defaultQueryTimeout = 2 * time.Second

var browseServices = []string{
	"_ipp._tcp",
	"_ipps._tcp",
	"_printer._tcp",
	"_pdl-datastream._tcp",
}

// Browse queries each print service type in turn and returns every
// device that answered. perQuery bounds the wait per service type; a
// canceled ctx stops the walk early and returns what was found so far.
func Browse(ctx context.Context, perQuery time.Duration) []Device {
	if perQuery <= 0 {
		perQuery = defaultQueryTimeout
	}
	seen := map[string]bool{}
	var devices []Device
	for _, service := range browseServices {
		browseService(ctx, service, perQuery, func(entry *mdns.ServiceEntry) {
			d, ok := entryDevice(service, entry)
			if !ok {
				return
			}
			key := d.Host + ":" + strconv.Itoa(d.Port) + "/" + entry.Name
			if seen[key] {
				return
			}
			seen[key] = true
			devices = append(devices, d)
		})
		if ctx.Err() != nil {
			break
		}
	}
	return dedupe(devices)
}

func browseService(ctx context.Context, service string, timeout time.Duration, emit func(*mdns.ServiceEntry)) {
	entries := make(chan *mdns.ServiceEntry, 64)
	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	go func() {
		_ = mdns.Query(&mdns.QueryParam{
			Service: service,
			Domain:  "local",
			Timeout: timeout,
			Entries: entries,
		})
		close(entries)
	}()
	for {
		select {
		case <-qctx.Done():
			return
		case entry, ok := <-entries:
			if !ok {
				return
			}
			emit(entry)
		}
	}
}

func entryDevice(service string, entry *mdns.ServiceEntry) (Device, bool) {
	if entry == nil {
		return Device{}, false
	}
	host := entryHost(entry)
	if host == "" || entry.Port == 0 {
		return Device{}, false
	}
	txt := parseTXT(entry.InfoFields)
	d := Device{
		Name:     instanceLabel(entry.Name, service),
		Host:     host,
		Port:     entry.Port,
		URI:      serviceURI(service, host, entry.Port, txt),
		Model:    firstNonEmpty(txt["ty"], txt["product"], txt["usb_mdl"]),
		Location: txt["note"],
	}
	if d.Name == "" {
		d.Name = host
	}
	return d, true
}

func entryHost(entry *mdns.ServiceEntry) string {
	host := strings.TrimSuffix(entry.Host, ".")
	if host == "" && entry.AddrV4 != nil {
		host = entry.AddrV4.String()
	}
	if host == "" && entry.AddrV6 != nil {
		host = entry.AddrV6.String()
	}
	return host
}

// instanceLabel strips the service type and domain from a full
// advertisement name and undoes DNS character escaping.
func instanceLabel(name, service string) string {
	name = strings.TrimSuffix(name, ".")
	lower := strings.ToLower(name)
	if idx := strings.Index(lower, strings.ToLower(service)); idx >= 0 {
		name = name[:idx]
	}
	name = strings.TrimSuffix(name, ".")
	return strings.TrimSpace(unescapeDNS(name))
}

func unescapeDNS(s string) string {
	s = strings.ReplaceAll(s, `\032`, " ")
	s = strings.ReplaceAll(s, `\ `, " ")
	s = strings.ReplaceAll(s, `\.`, ".")
	return s
}

func parseTXT(records []string) map[string]string {
	out := map[string]string{}
	for _, record := range records {
		record = strings.TrimSpace(record)
		if record == "" {
			continue
		}
		key, val, ok := strings.Cut(record, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[strings.ToLower(key)] = strings.TrimSpace(val)
	}
	return out
}

func serviceURI(service, host string, port int, txt map[string]string) string {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	switch {
	case strings.Contains(service, "_pdl-datastream"):
		return "socket://" + addr
	case strings.Contains(service, "_printer"):
		queue := strings.TrimPrefix(txt["rp"], "/")
		if queue == "" {
			queue = "lp"
		}
		return "lpd://" + addr + "/" + queue
	default:
		scheme := "ipp"
		if strings.Contains(service, "ipps") {
			scheme = "ipps"
		}
		resource := strings.TrimPrefix(txt["rp"], "/")
		if resource == "" {
			resource = "ipp/print"
		}
		return scheme + "://" + addr + "/" + resource
	}
}

func dedupe(devices []Device) []Device {
	seen := map[string]bool{}
	out := make([]Device, 0, len(devices))
	for _, d := range devices {
		key := strings.ToLower(strings.TrimSpace(d.URI))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
