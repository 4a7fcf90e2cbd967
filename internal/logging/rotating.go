package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// RotatingFile appends log lines to a file, renaming it to "<path>.old"
// once the next write would push it past maxSize. One backup generation
// is kept. The path sentinels "stderr" ("-"), "stdout", "syslog" and
// "none" redirect or drop output instead of writing a file.
type RotatingFile struct {
	mu      sync.Mutex
	path    string
	maxSize int64
	sink    io.Writer // set for stream sentinels, nil for real files
	discard bool
}

func NewRotatingFile(path string, maxSize int64) *RotatingFile {
	r := &RotatingFile{maxSize: maxSize}
	switch strings.ToLower(strings.TrimSpace(path)) {
	case "", "none", "off", "syslog":
		r.discard = true
	case "stderr", "-":
		r.sink = os.Stderr
	case "stdout":
		r.sink = os.Stdout
	default:
		r.path = strings.TrimSpace(path)
	}
	return r
}

func (r *RotatingFile) Enabled() bool {
	return r != nil && !r.discard
}

func (r *RotatingFile) WriteLine(line string) error {
	if r == nil {
		return nil
	}
	_, err := r.Write([]byte(line + "\n"))
	return err
}

func (r *RotatingFile) Write(p []byte) (int, error) {
	if r == nil {
		return len(p), nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.discard {
		return len(p), nil
	}
	if r.sink != nil {
		return r.sink.Write(p)
	}
	if dir := filepath.Dir(r.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, err
		}
	}
	if err := r.rotate(int64(len(p))); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.Write(p)
}

func (r *RotatingFile) rotate(next int64) error {
	if r.maxSize <= 0 {
		return nil
	}
	info, err := os.Stat(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size()+next <= r.maxSize {
		return nil
	}
	backup := r.path + ".old"
	_ = os.Remove(backup)
	if err := os.Rename(r.path, backup); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var _ io.Writer = (*RotatingFile)(nil)
