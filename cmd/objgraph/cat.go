package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/signadot/objgraph"
	"github.com/signadot/objgraph/encode"
)

func cat(cfg *CatConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Cat.Parse(cc, args)
	if err != nil {
		cfg.Cat.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if cfg.YAML && cfg.Compact {
		return fmt.Errorf("%w: -y and -compact are exclusive", cli.ErrUsage)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: cat requires at least one file", cli.ErrUsage)
	}
	for _, arg := range args {
		root, err := objgraph.ParseFile(arg)
		if err != nil {
			return err
		}
		if err := encode.Encode(root, cc.Out, cfg.encOpts(cc.Out)...); err != nil {
			return fmt.Errorf("error encoding %s: %w", arg, err)
		}
		if cfg.Compact {
			fmt.Fprintln(cc.Out)
		}
	}
	return nil
}
