package objgraph

import (
	"go.uber.org/zap"

	"github.com/signadot/objgraph/gomap"
)

// EncodeOption configures Encode, EncodeTo and EncodeToFile.
type EncodeOption interface {
	applyEncode(*encodeConfig)
}

// DecodeOption configures Decode, DecodeFrom and DecodeFromFile.
type DecodeOption interface {
	applyDecode(*decodeConfig)
}

// Option applies to both directions.
type Option interface {
	EncodeOption
	DecodeOption
}

type common struct {
	types  *gomap.Types
	logger *zap.Logger
	warn   func(error)
}

type encodeConfig struct {
	common
	names       []string
	pretty      bool
	gzip        bool
	base64      bool
	passthrough bool
}

type decodeConfig struct {
	common
	requested []string
}

func newEncodeConfig(opts []EncodeOption) *encodeConfig {
	cfg := &encodeConfig{}
	for _, opt := range opts {
		opt.applyEncode(cfg)
	}
	cfg.defaults()
	return cfg
}

func newDecodeConfig(opts []DecodeOption) *decodeConfig {
	cfg := &decodeConfig{}
	for _, opt := range opts {
		opt.applyDecode(cfg)
	}
	cfg.defaults()
	return cfg
}

func (c *common) defaults() {
	if c.logger == nil {
		c.logger = gomap.Logger()
	}
}

func (c *common) options() []gomap.Option {
	res := []gomap.Option{gomap.WithLogger(c.logger)}
	if c.types != nil {
		res = append(res, gomap.WithTypes(c.types))
	}
	if c.warn != nil {
		res = append(res, gomap.OnWarning(c.warn))
	}
	return res
}

func (c *encodeConfig) mapOptions() []gomap.MapOption {
	var res []gomap.MapOption
	for _, o := range c.options() {
		res = append(res, o)
	}
	return append(res, gomap.Base64(c.base64), gomap.PassthroughMap(c.passthrough))
}

func (c *decodeConfig) unmapOptions() []gomap.UnmapOption {
	var res []gomap.UnmapOption
	for _, o := range c.options() {
		res = append(res, o)
	}
	return res
}

type commonOption func(*common)

func (f commonOption) applyEncode(c *encodeConfig) { f(&c.common) }
func (f commonOption) applyDecode(c *decodeConfig) { f(&c.common) }

type encodeOption func(*encodeConfig)

func (f encodeOption) applyEncode(c *encodeConfig) { f(c) }

type decodeOption func(*decodeConfig)

func (f decodeOption) applyDecode(c *decodeConfig) { f(c) }

// WithTypes sets the table of registered struct types.
func WithTypes(t *gomap.Types) Option {
	return commonOption(func(c *common) { c.types = t })
}

// WithLogger sets the logger; the default is gomap.Logger().
func WithLogger(l *zap.Logger) Option {
	return commonOption(func(c *common) { c.logger = l })
}

// OnWarning registers a function called with every recoverable error.
func OnWarning(f func(error)) Option {
	return commonOption(func(c *common) { c.warn = f })
}

// Names binds the values being encoded to entry names, by position.
// Values without a name, or with an empty one, are written under "[i]".
func Names(names ...string) EncodeOption {
	return encodeOption(func(c *encodeConfig) { c.names = names })
}

// Pretty writes indented JSON instead of the compact form.
func Pretty(v bool) EncodeOption {
	return encodeOption(func(c *encodeConfig) { c.pretty = v })
}

// Gzip compresses the output. EncodeToFile also appends ".gz" to the path.
func Gzip(v bool) EncodeOption {
	return encodeOption(func(c *encodeConfig) { c.gzip = v })
}

// Base64 allows the base64 encoding for long numeric arrays.
func Base64(v bool) EncodeOption {
	return encodeOption(func(c *encodeConfig) { c.base64 = v })
}

// PassthroughMap writes string-keyed maps as plain objects.
func PassthroughMap(v bool) EncodeOption {
	return encodeOption(func(c *encodeConfig) { c.passthrough = v })
}

// Requested limits decoding to the named entries, returned in that order.
func Requested(names ...string) DecodeOption {
	return decodeOption(func(c *decodeConfig) { c.requested = names })
}
