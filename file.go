package objgraph

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/signadot/objgraph/ir"
	"github.com/signadot/objgraph/parse"
)

// IOError reports a failure to open, read, write or replace a file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// EncodeToFile writes values to path and returns the path written, which
// has ".gz" appended when Gzip is set. The document is written to a
// temporary file next to path and renamed into place, so readers never
// see a partial file.
func EncodeToFile(path string, values []any, opts ...EncodeOption) (string, error) {
	cfg := newEncodeConfig(opts)
	if cfg.gzip && !strings.HasSuffix(path, ".gz") {
		path += ".gz"
	}
	root, err := encodeRoot(values, cfg)
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return "", &IOError{Op: "create", Path: path, Err: err}
	}
	tmp := f.Name()
	done := false
	defer func() {
		if !done {
			f.Close()
			os.Remove(tmp)
		}
	}()
	bw := bufio.NewWriter(f)
	if err := writeRoot(bw, root, cfg); err != nil {
		return "", &IOError{Op: "write", Path: tmp, Err: err}
	}
	if err := bw.Flush(); err != nil {
		return "", &IOError{Op: "write", Path: tmp, Err: err}
	}
	if err := f.Sync(); err != nil {
		return "", &IOError{Op: "sync", Path: tmp, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &IOError{Op: "close", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", &IOError{Op: "rename", Path: path, Err: err}
	}
	done = true
	return path, nil
}

// DecodeFromFile reads the document at path. Files named *.gz must be
// gzip compressed; others are decompressed when they carry the gzip
// magic.
func DecodeFromFile(path string, opts ...DecodeOption) (*Result, error) {
	cfg := newDecodeConfig(opts)
	if err := checkRequested(cfg.requested); err != nil {
		return nil, err
	}
	root, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return decodeRoot(root, cfg)
}

// ParseFile reads the document at path as a wire tree without mapping it
// to Go values.
func ParseFile(path string) (*ir.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	src, closer, err := maybeGunzip(f, strings.HasSuffix(path, ".gz"))
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	defer closer()
	root, err := parse.ParseReader(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// ListEntries lists the top-level names of the document at path.
func ListEntries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	names, err := ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return names, nil
}
