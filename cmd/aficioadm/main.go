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
	"aficiogolang/internal/logging"
	"aficiogolang/internal/maint"
	"aficiogolang/internal/rdh"
)

type options struct {
	host       string
	encrypt    bool
	prompt     bool
	code       int
	deleteCode int
	name       string
	newCode    int
	grants     grantSet
	grantsSet  bool
	zero       bool
}

type grantSet struct {
	copy, printer, scanner, storage bool
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fail(err)
	}
	if opts.code == 0 && opts.deleteCode == 0 {
		fail(errors.New("nothing to do; use -p code to add or modify a user, -x code to delete one"))
	}
	if opts.code == 0 && (opts.name != "" || opts.newCode != 0 || opts.grantsSet || opts.zero) {
		fail(errors.New("-n, -c, -g and -z require -p code"))
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

	password, err := devicePassword(cfg.Password, opts.prompt)
	if err != nil {
		fail(err)
	}

	ctx := context.Background()
	ses, err := openSession(ctx, cfg, password)
	if err != nil {
		fail(err)
	}
	if n := ses.LoadFailures(); n > 0 {
		fmt.Fprintf(os.Stderr, "aficioadm: %d accounts could not be loaded\n", n)
	}

	if opts.deleteCode != 0 {
		if err := deleteUser(ctx, ses, opts.deleteCode); err != nil {
			fail(err)
		}
	}
	if opts.code != 0 {
		if err := addOrModify(ctx, ses, cfg, opts); err != nil {
			fail(err)
		}
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "aficioadm:", err)
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
		case "-W":
			opts.prompt = true
		case "-p":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -p")
			}
			i++
			code, err := parseUserCode(args[i])
			if err != nil {
				return opts, err
			}
			opts.code = code
		case "-x":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -x")
			}
			i++
			code, err := parseUserCode(args[i])
			if err != nil {
				return opts, err
			}
			opts.deleteCode = code
		case "-n":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -n")
			}
			i++
			opts.name = args[i]
		case "-c":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -c")
			}
			i++
			code, err := parseUserCode(args[i])
			if err != nil {
				return opts, err
			}
			opts.newCode = code
		case "-g":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("missing argument for -g")
			}
			i++
			grants, err := parseGrants(args[i])
			if err != nil {
				return opts, err
			}
			opts.grants = grants
			opts.grantsSet = true
		case "-z":
			opts.zero = true
		}
		if args[i] != "-h" && args[i] != "-E" && args[i] != "-W" {
			seenOther = true
		}
	}
	return opts, nil
}

func parseUserCode(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("bad user code %q", value)
	}
	return n, nil
}

func parseGrants(value string) (grantSet, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "none":
		return grantSet{}, nil
	case "all":
		return grantSet{copy: true, printer: true, scanner: true, storage: true}, nil
	}
	g := grantSet{}
	for _, part := range strings.Split(value, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "copy":
			g.copy = true
		case "printer", "print":
			g.printer = true
		case "scanner", "scan":
			g.scanner = true
		case "storage", "localstorage":
			g.storage = true
		case "":
		default:
			return grantSet{}, fmt.Errorf("unknown permission %q in -g", strings.TrimSpace(part))
		}
	}
	return g, nil
}

// devicePassword returns the configured password, or prompts for one
// when none is configured or -W forces a prompt.
func devicePassword(configured string, force bool) (string, error) {
	if configured != "" && !force {
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

func openSession(ctx context.Context, cfg config.Config, password string) (*maint.Session, error) {
	client := rdh.NewClient(cfg.Host,
		rdh.WithPort(cfg.Port),
		rdh.WithTLS(cfg.UseTLS),
		rdh.WithInsecureTLS(cfg.InsecureTLS),
		rdh.WithCredential(password),
		rdh.WithTimeout(time.Duration(cfg.Timeout)*time.Second),
	)
	ses, err := maint.OpenSession(ctx, client)
	if err != nil {
		return nil, err
	}
	ses.BusyRetryLimit = uint64(cfg.BusyRetryLimit)
	ses.BusyRetryInterval = time.Duration(cfg.BusyRetryInterval) * time.Second
	return ses, nil
}

func addOrModify(ctx context.Context, ses *maint.Session, cfg config.Config, opts options) error {
	account := ses.GetUserInfo(opts.code, maint.RequestAll)
	if account == nil {
		if opts.newCode != 0 {
			return fmt.Errorf("no user with code %d", opts.code)
		}
		return addUser(ctx, ses, cfg, opts)
	}
	return modifyUser(ctx, ses, cfg, account, opts)
}

func addUser(ctx context.Context, ses *maint.Session, cfg config.Config, opts options) error {
	if opts.name == "" {
		return fmt.Errorf("user code %d does not exist; pass -n name to create it", opts.code)
	}
	if err := checkRegion(cfg, opts.code); err != nil {
		return err
	}
	account, err := maint.NewAccount(opts.code, opts.name)
	if err != nil {
		return err
	}
	if opts.grantsSet {
		g := opts.grants
		account.SetRestriction(maint.NewRestriction(g.copy, g.printer, g.scanner, g.storage))
	}
	if err := ses.AddUser(ctx, account); err != nil {
		audit("add", opts.code, opts.name, "failed")
		return err
	}
	audit("add", opts.code, opts.name, "ok")
	return nil
}

func modifyUser(ctx context.Context, ses *maint.Session, cfg config.Config, account *maint.Account, opts options) error {
	if opts.newCode != 0 && opts.newCode != account.Code() {
		if err := checkRegion(cfg, opts.newCode); err != nil {
			return err
		}
		if ses.GetUserInfo(opts.newCode, maint.RequestCode) != nil {
			return fmt.Errorf("user code %d is already taken", opts.newCode)
		}
		if err := account.SetCode(opts.newCode); err != nil {
			return err
		}
	}
	if opts.name != "" && opts.name != account.Name() {
		if err := account.SetName(opts.name); err != nil {
			return err
		}
	}
	if opts.grantsSet {
		applyGrants(account, opts.grants)
	}
	if opts.zero {
		if st := account.Statistics(); st != nil {
			st.SetZero()
		}
	}
	if err := ses.SetUserInfo(ctx, account); err != nil {
		audit("modify", account.OrigCode(), account.Name(), "failed")
		return err
	}
	audit("modify", account.Code(), account.Name(), "ok")
	return nil
}

func applyGrants(account *maint.Account, g grantSet) {
	r := account.Restriction()
	if r == nil {
		account.SetRestriction(maint.NewRestriction(g.copy, g.printer, g.scanner, g.storage))
		return
	}
	r.SetCopy(g.copy)
	r.SetPrinter(g.printer)
	r.SetScanner(g.scanner)
	r.SetStorage(g.storage)
}

func deleteUser(ctx context.Context, ses *maint.Session, code int) error {
	account := ses.GetUserInfo(code, maint.RequestCode)
	if account == nil {
		return fmt.Errorf("no user with code %d", code)
	}
	name := account.Name()
	if err := ses.DeleteUser(ctx, code); err != nil {
		audit("delete", code, name, "failed")
		return err
	}
	audit("delete", code, name, "ok")
	return nil
}

func checkRegion(cfg config.Config, code int) error {
	if cfg.UserCodeRegions.Unrestricted() || cfg.UserCodeRegions.Contains(code) {
		return nil
	}
	return fmt.Errorf("user code %d is outside the administered regions (%s)", code, cfg.UserCodeRegions)
}

func audit(action string, code int, name, result string) {
	logging.Audit(logging.AuditLine("aficioadm", action, code, name, result))
}
