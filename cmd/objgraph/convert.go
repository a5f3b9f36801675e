package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/signadot/objgraph"
)

func convert(cfg *ConvertConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Convert.Parse(cc, args)
	if err != nil {
		cfg.Convert.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: convert requires 2 args, got %v", cli.ErrUsage, args)
	}
	in, out := args[0], args[1]
	res, err := objgraph.DecodeFromFile(in, cfg.decodeOpts()...)
	if err != nil {
		return err
	}
	opts := append(cfg.encodeOpts(),
		objgraph.Names(res.Names...),
		objgraph.Gzip(cfg.Gzip),
		objgraph.Base64(cfg.Base64),
		objgraph.PassthroughMap(cfg.Passthrough))
	path, err := objgraph.EncodeToFile(out, res.Values, opts...)
	if err != nil {
		return err
	}
	cfg.Log.Info("wrote", "path", path, "entries", len(res.Names), "handles", len(res.Handles))
	return nil
}
