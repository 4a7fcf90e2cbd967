// Package config loads the shared settings of the maintenance tools
// from /etc/aficio2060.conf and the AFICIO_* environment.
package config

import (
	"bufio"
	"fmt"
	"net"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
)

const defaultConfPath = "/etc/aficio2060.conf"

// Config carries the settings shared by the maintenance tools: where
// the device lives, how to talk to it, and where the logs go.
type Config struct {
	Host        string
	Port        int
	UseTLS      bool
	InsecureTLS bool
	Password    string
	Timeout     int // seconds

	// UserCodeRegions limits which user codes the administrative tools
	// may touch. Empty means unrestricted.
	UserCodeRegions RegionList

	SNMPCommunity string
	SNMPPort      int

	ErrorLogPath string
	AuditLogPath string
	MaxLogSize   int64

	BusyRetryLimit    int
	BusyRetryInterval int // seconds
}

// Load reads the configuration file named by AFICIO_CONF (falling back
// to /etc/aficio2060.conf), then lets the environment override it. A
// missing file is not an error; every setting has a default.
func Load() Config {
	cfg := Config{
		Timeout:           60,
		SNMPCommunity:     "public",
		SNMPPort:          161,
		MaxLogSize:        1024 * 1024,
		BusyRetryLimit:    4,
		BusyRetryInterval: 2,
	}
	path := defaultConfPath
	if v := strings.TrimSpace(os.Getenv("AFICIO_CONF")); v != "" {
		path = v
	}
	parseConf(path, &cfg)
	applyEnvOverrides(&cfg)
	return cfg
}

func parseConf(path string, cfg *Config) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		key := fields[0]
		value := strings.TrimSpace(strings.TrimPrefix(line, key))
		value = strings.Trim(value, " \"'")
		switch strings.ToLower(key) {
		case "printer":
			cfg.ApplyPrinter(value)
		case "encryption":
			applyEncryption(cfg, value)
		case "password":
			if value != "" {
				cfg.Password = value
			}
		case "timeout":
			if n, ok := parseTimeSeconds(value); ok && n > 0 {
				cfg.Timeout = n
			}
		case "usercoderegions":
			if regions, err := ParseRegions(value); err == nil {
				cfg.UserCodeRegions = regions
			}
		case "snmpcommunity":
			if value != "" {
				cfg.SNMPCommunity = value
			}
		case "snmpport":
			if n, err := strconv.Atoi(value); err == nil && n > 0 {
				cfg.SNMPPort = n
			}
		case "errorlog":
			cfg.ErrorLogPath = value
		case "auditlog":
			cfg.AuditLogPath = value
		case "maxlogsize":
			if n, ok := parseSize(value); ok {
				cfg.MaxLogSize = n
			}
		case "busyretrylimit":
			if n, err := strconv.Atoi(value); err == nil && n >= 0 {
				cfg.BusyRetryLimit = n
			}
		case "busyretryinterval":
			if n, ok := parseTimeSeconds(value); ok {
				cfg.BusyRetryInterval = n
			}
		case "validatecerts":
			if v, ok := parseBool(value); ok {
				cfg.InsecureTLS = !v
			}
		}
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("AFICIO_PRINTER")); v != "" {
		cfg.ApplyPrinter(v)
	}
	if v := strings.TrimSpace(os.Getenv("AFICIO_ENCRYPTION")); v != "" {
		applyEncryption(cfg, v)
	}
	if v := os.Getenv("AFICIO_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("AFICIO_TIMEOUT"); v != "" {
		if n, ok := parseTimeSeconds(v); ok && n > 0 {
			cfg.Timeout = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("AFICIO_USERCODE_REGIONS")); v != "" {
		if regions, err := ParseRegions(v); err == nil {
			cfg.UserCodeRegions = regions
		}
	}
	if v := strings.TrimSpace(os.Getenv("AFICIO_SNMP_COMMUNITY")); v != "" {
		cfg.SNMPCommunity = v
	}
	if v := strings.TrimSpace(os.Getenv("AFICIO_ERROR_LOG")); v != "" {
		cfg.ErrorLogPath = v
	}
	if v := strings.TrimSpace(os.Getenv("AFICIO_AUDIT_LOG")); v != "" {
		cfg.AuditLogPath = v
	}
	if v, ok := parseBoolEnv("AFICIO_INSECURE"); ok {
		cfg.InsecureTLS = v
	}
}

func applyEncryption(cfg *Config, value string) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "never":
		cfg.UseTLS = false
	case "required", "always":
		cfg.UseTLS = true
	default:
		// ifrequested keeps whatever the printer directive implied
	}
}

// ApplyPrinter overrides the device endpoint, accepting the same forms
// as the Printer directive: "host", "host:port" or an http(s) URL.
func (c *Config) ApplyPrinter(value string) {
	host, port, tls := parsePrinter(value)
	if host == "" {
		return
	}
	c.Host = host
	if port > 0 {
		c.Port = port
	}
	if tls {
		c.UseTLS = true
	}
}

func parsePrinter(value string) (string, int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", 0, false
	}
	if strings.Contains(value, "://") {
		u, err := url.Parse(value)
		if err != nil || u.Hostname() == "" {
			return "", 0, false
		}
		port := 0
		if p := u.Port(); p != "" {
			if n, err := strconv.Atoi(p); err == nil {
				port = n
			}
		}
		tls := strings.EqualFold(u.Scheme, "https")
		return u.Hostname(), port, tls
	}
	if host, portStr, err := net.SplitHostPort(value); err == nil {
		if n, err := strconv.Atoi(portStr); err == nil {
			return host, n, false
		}
		return host, 0, false
	}
	return value, 0, false
}

// Region is an inclusive range of user codes.
type Region struct {
	Lo, Hi int
}

func (r Region) Contains(code int) bool { return code >= r.Lo && code <= r.Hi }

func (r Region) String() string {
	if r.Lo == r.Hi {
		return strconv.Itoa(r.Lo)
	}
	return fmt.Sprintf("%d-%d", r.Lo, r.Hi)
}

// RegionList is a set of user-code regions, kept sorted by lower bound.
type RegionList []Region

// ParseRegions parses a comma-separated list of inclusive ranges such
// as "100-199,500-599". A bare number is a single-code region.
func ParseRegions(value string) (RegionList, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	var out RegionList
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, err := parseRegion(part)
		if err != nil {
			return nil, err
		}
		out = append(out, Region{Lo: lo, Hi: hi})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lo < out[j].Lo })
	return out, nil
}

func parseRegion(part string) (int, int, error) {
	loStr, hiStr, ranged := strings.Cut(part, "-")
	lo, err := strconv.Atoi(strings.TrimSpace(loStr))
	if err != nil {
		return 0, 0, fmt.Errorf("bad user code region %q", part)
	}
	hi := lo
	if ranged {
		hi, err = strconv.Atoi(strings.TrimSpace(hiStr))
		if err != nil {
			return 0, 0, fmt.Errorf("bad user code region %q", part)
		}
	}
	if lo <= 0 || hi < lo {
		return 0, 0, fmt.Errorf("bad user code region %q", part)
	}
	return lo, hi, nil
}

// Contains reports whether any region covers the code. An empty list
// contains nothing; callers treat empty as unrestricted via
// Unrestricted.
func (l RegionList) Contains(code int) bool {
	for _, r := range l {
		if r.Contains(code) {
			return true
		}
	}
	return false
}

// Unrestricted reports whether no regions are configured.
func (l RegionList) Unrestricted() bool { return len(l) == 0 }

func (l RegionList) String() string {
	parts := make([]string, 0, len(l))
	for _, r := range l {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, ",")
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func parseBoolEnv(name string) (bool, bool) {
	if v := os.Getenv(name); v != "" {
		return parseBool(v)
	}
	return false, false
}

func parseSize(value string) (int64, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, false
	}
	mult := int64(1)
	switch v[len(v)-1] {
	case 'k', 'K':
		mult = 1024
		v = v[:len(v)-1]
	case 'm', 'M':
		mult = 1024 * 1024
		v = v[:len(v)-1]
	case 'g', 'G':
		mult = 1024 * 1024 * 1024
		v = v[:len(v)-1]
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || num < 0 {
		return 0, false
	}
	return int64(num * float64(mult)), true
}

func parseTimeSeconds(value string) (int, bool) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, false
	}
	mult := 1
	switch v[len(v)-1] {
	case 's', 'S':
		v = v[:len(v)-1]
	case 'm', 'M':
		mult = 60
		v = v[:len(v)-1]
	case 'h', 'H':
		mult = 60 * 60
		v = v[:len(v)-1]
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return 0, false
	}
	return n * mult, true
}
