package objgraph

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/signadot/objgraph/encode"
	"github.com/signadot/objgraph/gomap"
	"github.com/signadot/objgraph/ir"
	"github.com/signadot/objgraph/parse"
)

var (
	// ErrDuplicateName is returned when two encoded values share a name.
	ErrDuplicateName = errors.New("duplicate entry name")
	// ErrMissingEntry is reported when a requested name is not in the
	// document.
	ErrMissingEntry = errors.New("missing entry")
	// ErrNotDocument is returned when the top level is not an object.
	ErrNotDocument = errors.New("top level is not an object")
)

// Encode writes values as one document.
func Encode(values []any, opts ...EncodeOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeTo(&buf, values, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo writes values as one document to w.
func EncodeTo(w io.Writer, values []any, opts ...EncodeOption) error {
	cfg := newEncodeConfig(opts)
	root, err := encodeRoot(values, cfg)
	if err != nil {
		return err
	}
	return writeRoot(w, root, cfg)
}

// encodeRoot maps every value in one session. A value that cannot be
// encoded at all is reported and left out.
func encodeRoot(values []any, cfg *encodeConfig) (*ir.Node, error) {
	if len(cfg.names) > len(values) {
		return nil, fmt.Errorf("%d names for %d values", len(cfg.names), len(values))
	}
	names := make([]string, len(values))
	seen := make(map[string]bool, len(values))
	for i := range values {
		name := ir.ElementKey(i)
		if i < len(cfg.names) && cfg.names[i] != "" {
			name = cfg.names[i]
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		seen[name] = true
		names[i] = name
	}
	enc := gomap.NewEncoder(cfg.mapOptions()...)
	defer enc.Reset()
	root := ir.NewObject()
	for i, v := range values {
		node, err := enc.Encode(names[i], v)
		if err != nil {
			continue
		}
		root.Add(ir.EscapeKey(names[i]), node)
	}
	cfg.logger.Debug("encoded", zap.Int("entries", len(root.Fields)), zap.Int("handles", enc.Handles()))
	return root, nil
}

func writeRoot(w io.Writer, root *ir.Node, cfg *encodeConfig) error {
	var eopts []encode.EncodeOption
	if !cfg.pretty {
		eopts = append(eopts, encode.EncodeWire(true))
	}
	if !cfg.gzip {
		return encode.Encode(root, w, eopts...)
	}
	zw := gzip.NewWriter(w)
	if err := encode.Encode(root, zw, eopts...); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// Result is a decoded document.
type Result struct {
	// Names are the entry names, in document order or in the order
	// requested.
	Names  []string
	Values []any
	// Handles maps every handle of the document to the value built for it.
	Handles  map[int64]any
	Warnings []error
}

// Get returns the value bound to name.
func (r *Result) Get(name string) (any, bool) {
	i := slices.Index(r.Names, name)
	if i < 0 {
		return nil, false
	}
	return r.Values[i], true
}

// Bind stores the value bound to name into dst, which must be a non-nil
// pointer. Numbers are converted to the kind of dst.
func (r *Result) Bind(name string, dst any) error {
	v, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingEntry, name)
	}
	if err := gomap.Assign(dst, v); err != nil {
		return fmt.Errorf("bind %q: %w", name, err)
	}
	return nil
}

// Decode reads a document. Gzip-compressed input is recognized by its
// magic bytes.
func Decode(data []byte, opts ...DecodeOption) (*Result, error) {
	return DecodeFrom(bytes.NewReader(data), opts...)
}

// DecodeFrom reads a document from r.
func DecodeFrom(r io.Reader, opts ...DecodeOption) (*Result, error) {
	cfg := newDecodeConfig(opts)
	if err := checkRequested(cfg.requested); err != nil {
		return nil, err
	}
	src, closer, err := maybeGunzip(r, false)
	if err != nil {
		return nil, err
	}
	defer closer()
	root, err := parse.ParseReader(src)
	if err != nil {
		return nil, err
	}
	return decodeRoot(root, cfg)
}

// DecodeNode decodes an already parsed document.
func DecodeNode(root *ir.Node, opts ...DecodeOption) (*Result, error) {
	cfg := newDecodeConfig(opts)
	if err := checkRequested(cfg.requested); err != nil {
		return nil, err
	}
	return decodeRoot(root, cfg)
}

func checkRequested(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return &gomap.DuplicateRequestError{Name: name}
		}
		seen[name] = true
	}
	return nil
}

func decodeRoot(root *ir.Node, cfg *decodeConfig) (*Result, error) {
	if root.Type != ir.ObjectType {
		return nil, fmt.Errorf("%w: %s", ErrNotDocument, root.Type)
	}
	entries := ir.UserFields(root)
	res := &Result{}
	var missing []error
	if cfg.requested == nil {
		for _, kv := range entries {
			res.Names = append(res.Names, kv.Key)
		}
	} else {
		res.Names = slices.Clone(cfg.requested)
	}
	res.Values = make([]any, len(res.Names))

	dec := gomap.NewDecoder(cfg.unmapOptions()...)
	for i, name := range res.Names {
		j := slices.IndexFunc(entries, func(kv ir.KeyVal) bool { return kv.Key == name })
		if j < 0 {
			err := fmt.Errorf("%w: %q", ErrMissingEntry, name)
			cfg.logger.Warn("decode", zap.Error(err))
			if cfg.warn != nil {
				cfg.warn(err)
			}
			missing = append(missing, err)
			continue
		}
		// The error is recorded as a warning by the decoder.
		_ = dec.Decode(name, entries[j].Val, &res.Values[i])
	}
	res.Warnings = append(missing, dec.Finish()...)
	res.Handles = dec.Handles()
	cfg.logger.Debug("decoded", zap.Int("entries", len(res.Names)), zap.Int("handles", len(res.Handles)), zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

var gzipMagic = []byte{0x1f, 0x8b}

// maybeGunzip returns r, decompressed when it starts with the gzip magic
// or when force is set.
func maybeGunzip(r io.Reader, force bool) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	if !force && !bytes.Equal(head, gzipMagic) {
		return br, func() {}, nil
	}
	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, nil, fmt.Errorf("gzip: %w", err)
	}
	return zr, func() { zr.Close() }, nil
}

// ReadEntries lists the top-level names of the document in r without
// decoding the values.
func ReadEntries(r io.Reader) ([]string, error) {
	src, closer, err := maybeGunzip(r, false)
	if err != nil {
		return nil, err
	}
	defer closer()
	keys, err := parse.Keys(src)
	if err != nil {
		return nil, err
	}
	res := make([]string, 0, len(keys))
	for _, k := range keys {
		if ir.IsReservedKey(k) {
			continue
		}
		res = append(res, ir.UnescapeKey(k))
	}
	return res, nil
}
