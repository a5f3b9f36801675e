package gomap

import "go.uber.org/zap"

// MapOption is an option for controlling the mapping process from Go
// values to wire nodes.
type MapOption interface {
	applyMap(*mapConfig)
}

// UnmapOption is an option for controlling the unmapping process from wire
// nodes to Go values.
type UnmapOption interface {
	applyUnmap(*unmapConfig)
}

// Option applies to both directions.
type Option interface {
	MapOption
	UnmapOption
}

type common struct {
	types  *Types
	logger *zap.Logger
	warn   func(error)
}

type mapConfig struct {
	common
	base64         bool
	passthroughMap bool
}

type unmapConfig struct {
	common
}

func newMapConfig(opts []MapOption) *mapConfig {
	cfg := &mapConfig{}
	for _, opt := range opts {
		opt.applyMap(cfg)
	}
	cfg.defaults()
	return cfg
}

func newUnmapConfig(opts []UnmapOption) *unmapConfig {
	cfg := &unmapConfig{}
	for _, opt := range opts {
		opt.applyUnmap(cfg)
	}
	cfg.defaults()
	return cfg
}

func (c *common) defaults() {
	if c.types == nil {
		c.types = NewTypes()
	}
	if c.logger == nil {
		c.logger = Logger()
	}
}

type commonOption func(*common)

func (f commonOption) applyMap(c *mapConfig)     { f(&c.common) }
func (f commonOption) applyUnmap(c *unmapConfig) { f(&c.common) }

type mapOption func(*mapConfig)

func (f mapOption) applyMap(c *mapConfig) { f(c) }

// WithTypes sets the table of registered struct types.
func WithTypes(t *Types) Option {
	return commonOption(func(c *common) { c.types = t })
}

// WithLogger sets the logger for one call.
func WithLogger(l *zap.Logger) Option {
	return commonOption(func(c *common) { c.logger = l })
}

// OnWarning receives every recoverable error: encoding errors while
// mapping, format and reference errors while unmapping.
func OnWarning(f func(error)) Option {
	return commonOption(func(c *common) { c.warn = f })
}

// Base64 allows base64 payloads for long numeric arrays.
func Base64(v bool) MapOption {
	return mapOption(func(c *mapConfig) { c.base64 = v })
}

// PassthroughMap writes string-keyed maps as plain objects instead of
// tagged map nodes.
func PassthroughMap(v bool) MapOption {
	return mapOption(func(c *mapConfig) { c.passthroughMap = v })
}
