package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/scott-cotton/cli"
	"go.uber.org/zap"

	"github.com/signadot/objgraph"
	"github.com/signadot/objgraph/encode"
	"github.com/signadot/objgraph/format"
)

// Defaults are read from $OBJGRAPH_CONFIG, or
// ~/.config/objgraph/config.toml, and are overridden by flags.
type Defaults struct {
	Color       bool `toml:"color"`
	YAML        bool `toml:"yaml"`
	Indent      int  `toml:"indent"`
	Gzip        bool `toml:"gzip"`
	Base64      bool `toml:"base64"`
	Passthrough bool `toml:"passthrough"`
}

func defaultsPath() string {
	if p := os.Getenv("OBJGRAPH_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "objgraph", "config.toml")
}

func loadDefaults() *Defaults {
	d, err := readDefaults(defaultsPath())
	if err != nil {
		log.Warn("ignoring config", "err", err)
		return &Defaults{}
	}
	return d
}

// readDefaults reads the defaults at path. A missing file gives zero
// defaults.
func readDefaults(path string) (*Defaults, error) {
	d := &Defaults{}
	if path == "" {
		return d, nil
	}
	md, err := toml.DecodeFile(path, d)
	if errors.Is(err, fs.ErrNotExist) {
		return d, nil
	}
	if err != nil {
		return nil, err
	}
	if undec := md.Undecoded(); len(undec) != 0 {
		return nil, fmt.Errorf("%s: unknown keys %v", path, undec)
	}
	if d.Indent < 0 {
		return nil, fmt.Errorf("%s: negative indent %d", path, d.Indent)
	}
	return d, nil
}

type MainConfig struct {
	V     bool `cli:"name=v aliases=verbose desc='debug logging'"`
	Color bool `cli:"name=color desc='encode with color'"`

	Out      string
	CloseOut func() error

	Defaults *Defaults
	Log      *log.Logger
	zlog     *zap.Logger

	Main *cli.Command
}

// setup runs once the global flags are parsed.
func (cfg *MainConfig) setup() error {
	level := log.InfoLevel
	cfg.zlog = zap.NewNop()
	if cfg.V {
		level = log.DebugLevel
		zl, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		cfg.zlog = zl
	}
	cfg.Log = newLogger(os.Stderr, level)
	return nil
}

func (cfg *MainConfig) encOpts(w io.Writer) []encode.EncodeOption {
	var res []encode.EncodeOption
	if n := cfg.Defaults.Indent; n > 0 {
		res = append(res, encode.Indent(n))
	}
	if cfg.useColor(w) {
		res = append(res, encode.EncodeColors(encode.NewColors()))
	}
	return res
}

// useColor reports whether output to w is colored: always with -color,
// never with -color=false, and otherwise when w is a terminal.
func (cfg *MainConfig) useColor(w io.Writer) bool {
	if cfg.Color {
		return true
	}
	for _, opt := range cfg.Main.Opts {
		if opt.Name == "color" && opt.Value != nil {
			return false
		}
	}
	f, ok := w.(*os.File)
	return ok && encode.TerminalColors(f) != nil
}

// libOpts hands the engine the zap logger and routes its warnings to the
// command log.
func (cfg *MainConfig) libOpts() []objgraph.Option {
	return []objgraph.Option{
		objgraph.WithLogger(cfg.zlog),
		objgraph.OnWarning(func(err error) {
			cfg.Log.Warn("warning", "err", err)
		}),
	}
}

func (cfg *MainConfig) decodeOpts() []objgraph.DecodeOption {
	var res []objgraph.DecodeOption
	for _, o := range cfg.libOpts() {
		res = append(res, o)
	}
	return res
}

func (cfg *MainConfig) encodeOpts() []objgraph.EncodeOption {
	var res []objgraph.EncodeOption
	for _, o := range cfg.libOpts() {
		res = append(res, o)
	}
	return res
}

type ListConfig struct {
	*MainConfig

	List *cli.Command
}

type CatConfig struct {
	*MainConfig
	YAML    bool `cli:"name=y aliases=yaml desc='render as yaml'"`
	Compact bool `cli:"name=compact desc='render compact json'"`

	Cat *cli.Command
}

func (cfg *CatConfig) encOpts(w io.Writer) []encode.EncodeOption {
	res := cfg.MainConfig.encOpts(w)
	if cfg.YAML {
		res = append(res, encode.EncodeFormat(format.YAMLFormat))
	}
	return append(res, encode.EncodeWire(cfg.Compact))
}

type CheckConfig struct {
	*MainConfig

	Check *cli.Command
}

type ConvertConfig struct {
	*MainConfig
	Gzip        bool `cli:"name=gz aliases=gzip desc='gzip the output'"`
	Base64      bool `cli:"name=b64 aliases=base64 desc='base64 encode long arrays'"`
	Passthrough bool `cli:"name=passthrough desc='write string keyed maps as plain objects'"`

	Convert *cli.Command
}

type DiffConfig struct {
	*MainConfig
	Reverse bool `cli:"name=r desc='reverse the diff'"`

	Diff *cli.Command
}
