package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh/terminal"

	"aficiogolang/internal/config"
	"aficiogolang/internal/devstat"
	"aficiogolang/internal/logging"
	"aficiogolang/internal/maint"
	"aficiogolang/internal/rdh"
)

type options struct {
	host        string
	encrypt     bool
	longListing bool
	zeroOnly    bool
	showUsers   bool
	showSupply  bool
	showState   bool
	showAll     bool
	userFilter  []int
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fail(err)
	}
	if opts.showAll {
		opts.showUsers = true
		opts.showSupply = true
		opts.showState = true
	}
	if !opts.showUsers && !opts.showSupply && !opts.showState {
		opts.showUsers = true
	}

	cfg := config.Load()
	if opts.host != "" {
		cfg.ApplyPrinter(opts.host)
	}
	if opts.encrypt {
		cfg.UseTLS = true
	}
	logging.Configure(cfg.ErrorLogPath, cfg.AuditLogPath, cfg.MaxLogSize)
	log.SetOutput(logging.ErrorWriter())
	if cfg.Host == "" {
		fail(errors.New("no printer configured; set Printer in /etc/aficio2060.conf or pass -h host"))
	}

	ctx := context.Background()
	if opts.showState {
		if err := printDeviceState(ctx, cfg); err != nil {
			fail(err)
		}
	}
	if opts.showSupply {
		if err := printSupplies(ctx, cfg); err != nil {
			fail(err)
		}
	}
	if opts.showUsers {
		if err := printUsers(ctx, cfg, opts); err != nil {
			fail(err)
		}
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "aficiostat:", err)
	os.Exit(1)
}

func parseArgs(args []string) (options, error) {
	opts := options{}
	seenOther := false
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h":
			if seenOther {
				return opts, fmt.Errorf("-h must appear before all other options")
			}
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -h")
			}
			i++
			opts.host = args[i]
		case "-E":
			opts.encrypt = true
		case "-l":
			opts.longListing = true
		case "-z":
			opts.zeroOnly = true
			opts.showUsers = true
		case "-u":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -u")
			}
			i++
			codes, err := parseCodeList(args[i])
			if err != nil {
				return opts, err
			}
			opts.userFilter = append(opts.userFilter, codes...)
			opts.showUsers = true
		case "-s":
			opts.showSupply = true
		case "-d":
			opts.showState = true
		case "-t":
			opts.showAll = true
		}
		if args[i] != "-h" && args[i] != "-E" {
			seenOther = true
		}
	}
	return opts, nil
}

func parseCodeList(value string) ([]int, error) {
	parts := strings.Split(value, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad user code %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func printDeviceState(ctx context.Context, cfg config.Config) error {
	status, err := devstat.FetchIPPStatus(ctx, "ipp://"+cfg.Host, time.Duration(cfg.Timeout)*time.Second, cfg.InsecureTLS)
	if err != nil {
		return err
	}
	if len(status.StateReasons) > 0 {
		fmt.Printf("printer state: %s (%s)\n", status.State, strings.Join(status.StateReasons, ", "))
	} else {
		fmt.Printf("printer state: %s\n", status.State)
	}
	if status.MakeAndModel != "" {
		fmt.Printf("make and model: %s\n", status.MakeAndModel)
	}
	fmt.Printf("queued jobs: %d\n", status.QueuedJobs)
	return nil
}

func printSupplies(ctx context.Context, cfg config.Config) error {
	target := devstat.Target{
		Host:      cfg.Host,
		Port:      cfg.SNMPPort,
		Community: cfg.SNMPCommunity,
	}
	ident, err := devstat.FetchIdentity(ctx, target)
	if err != nil {
		return err
	}
	name := ident.Name
	if name == "" {
		name = cfg.Host
	}
	model := ident.Model
	if model == "" {
		model = "unknown model"
	}
	fmt.Printf("device %s: %s\n", name, model)
	if ident.Location != "" {
		fmt.Printf("location: %s\n", ident.Location)
	}
	if ident.PageCount > 0 {
		fmt.Printf("pages printed: %d\n", ident.PageCount)
	}
	status, err := devstat.FetchSupplies(ctx, target)
	if err != nil {
		return err
	}
	for _, s := range status.Supplies {
		fmt.Println(formatSupply(s))
	}
	fmt.Printf("supply state: %s\n", status.State)
	return nil
}

func formatSupply(s devstat.Supply) string {
	if p := s.Percent(); p >= 0 {
		return fmt.Sprintf("supply %q: %d%%", s.Description, p)
	}
	return fmt.Sprintf("supply %q: level unknown", s.Description)
}

func printUsers(ctx context.Context, cfg config.Config, opts options) error {
	password, err := devicePassword(cfg.Password)
	if err != nil {
		return err
	}
	client := rdh.NewClient(cfg.Host,
		rdh.WithPort(cfg.Port),
		rdh.WithTLS(cfg.UseTLS),
		rdh.WithInsecureTLS(cfg.InsecureTLS),
		rdh.WithCredential(password),
		rdh.WithTimeout(time.Duration(cfg.Timeout)*time.Second),
	)
	ses, err := maint.OpenSession(ctx, client)
	if err != nil {
		return err
	}
	if n := ses.LoadFailures(); n > 0 {
		fmt.Fprintf(os.Stderr, "aficiostat: %d accounts could not be loaded\n", n)
	}
	for _, account := range ses.GetUserInfos(maint.RequestAll) {
		if !listable(cfg.UserCodeRegions, opts.userFilter, account.Code()) {
			continue
		}
		st := account.Statistics()
		if opts.zeroOnly && (st == nil || !st.IsZero()) {
			continue
		}
		if opts.longListing {
			printAccountLong(account)
		} else {
			fmt.Println(accountLine(account))
		}
	}
	return nil
}

func devicePassword(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	fd := int(os.Stdin.Fd())
	if terminal.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "Device password: ")
		raw, err := terminal.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// listable reports whether a listing includes the code. Explicit -u
// selections always list; otherwise the administered code regions bound
// the output.
func listable(regions config.RegionList, filter []int, code int) bool {
	if len(filter) > 0 {
		return matchesFilter(filter, code)
	}
	return regions.Unrestricted() || regions.Contains(code)
}

func matchesFilter(filter []int, code int) bool {
	if len(filter) == 0 {
		return true
	}
	for _, c := range filter {
		if c == code {
			return true
		}
	}
	return false
}

func accountLine(account *maint.Account) string {
	var copies, prints, scans uint
	if st := account.Statistics(); st != nil {
		copies, prints, scans = st.CopyTotal(), st.PrintTotal(), st.ScanTotal()
	}
	return fmt.Sprintf("%6d %-20s copy %6d  print %6d  scan %6d",
		account.Code(), account.Name(), copies, prints, scans)
}

func printAccountLong(account *maint.Account) {
	fmt.Printf("user %d %q\n", account.Code(), account.Name())
	if st := account.Statistics(); st != nil {
		fmt.Printf("\tcopies: %d A4, %d A3 (weighted %d)\n", st.CopyA4(), st.CopyA3(), st.CopyTotal())
		fmt.Printf("\tprints: %d A4, %d A3 (weighted %d)\n", st.PrintA4(), st.PrintA3(), st.PrintTotal())
		fmt.Printf("\tscans: %d A4, %d A3 (weighted %d)\n", st.ScanA4(), st.ScanA3(), st.ScanTotal())
	}
	fmt.Printf("\tpermissions: %s\n", permissionNames(account.Restriction()))
	fmt.Println()
}

func permissionNames(r *maint.Restriction) string {
	if r == nil {
		return "not on file"
	}
	var names []string
	if r.Copy() {
		names = append(names, "copy")
	}
	if r.Printer() {
		names = append(names, "printer")
	}
	if r.Scanner() {
		names = append(names, "scanner")
	}
	if r.Storage() {
		names = append(names, "storage")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, " ")
}
