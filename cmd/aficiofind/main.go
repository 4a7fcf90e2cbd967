package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"aficiogolang/internal/config"
	"aficiogolang/internal/devstat"
	"aficiogolang/internal/discover"
)

type options struct {
	timeout     int
	longListing bool
	model       string
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fail(err)
	}
	cfg := config.Load()
	ctx := context.Background()
	devices := discover.Browse(ctx, time.Duration(opts.timeout)*time.Second)
	for _, d := range devices {
		if !matchDevice(d, opts.model) {
			continue
		}
		if opts.longListing {
			printDeviceLong(ctx, cfg, d)
		} else {
			fmt.Println(deviceLine(d))
		}
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "aficiofind:", err)
	os.Exit(1)
}

func parseArgs(args []string) (options, error) {
	opts := options{}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-l":
			opts.longListing = true
		case "-m":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -m")
			}
			i++
			opts.model = args[i]
		case "-t":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -t")
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil || n <= 0 {
				return opts, fmt.Errorf("bad timeout %q", args[i])
			}
			opts.timeout = n
		}
	}
	return opts, nil
}

func matchDevice(d discover.Device, filter string) bool {
	if filter == "" {
		return true
	}
	needle := strings.ToLower(filter)
	for _, hay := range []string{d.Model, d.Name, d.Host} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

func deviceLine(d discover.Device) string {
	model := d.Model
	if model == "" {
		model = "unknown"
	}
	return fmt.Sprintf("%s %q (%s)", d.URI, d.Name, model)
}

func printDeviceLong(ctx context.Context, cfg config.Config, d discover.Device) {
	ident := identify(ctx, cfg, d)
	d = mergedIdentity(d, ident)
	fmt.Printf("device-uri %s\n", d.URI)
	fmt.Printf("device-host %s\n", d.Host)
	fmt.Printf("device-info %s\n", d.Name)
	if d.Model != "" {
		fmt.Printf("device-make-and-model %s\n", d.Model)
	}
	if d.Location != "" {
		fmt.Printf("device-location %s\n", d.Location)
	}
	if ident.Name != "" {
		fmt.Printf("device-name %s\n", ident.Name)
	}
	if ident.PageCount > 0 {
		fmt.Printf("device-pages %d\n", ident.PageCount)
	}
	fmt.Println()
}

// identify asks the device over SNMP who it is. Devices without a
// reachable agent yield an empty identity and the browse data stands
// alone.
func identify(ctx context.Context, cfg config.Config, d discover.Device) devstat.Identity {
	ident, err := devstat.FetchIdentity(ctx, devstat.Target{
		Host:      d.Host,
		Port:      cfg.SNMPPort,
		Community: cfg.SNMPCommunity,
	})
	if err != nil {
		return devstat.Identity{}
	}
	return ident
}

// mergedIdentity fills gaps in the browse record from the SNMP
// identity. Advertised TXT values take precedence.
func mergedIdentity(d discover.Device, ident devstat.Identity) discover.Device {
	if d.Model == "" {
		d.Model = ident.Model
	}
	if d.Location == "" {
		d.Location = ident.Location
	}
	return d
}
