package main

import (
	"fmt"

	"github.com/scott-cotton/cli"

	"github.com/signadot/objgraph"
)

func list(cfg *ListConfig, cc *cli.Context, args []string) error {
	args, err := cfg.List.Parse(cc, args)
	if err != nil {
		cfg.List.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: ls requires at least one file", cli.ErrUsage)
	}
	for _, arg := range args {
		names, err := objgraph.ListEntries(arg)
		if err != nil {
			return err
		}
		for _, name := range names {
			if len(args) > 1 {
				fmt.Fprintf(cc.Out, "%s: %s\n", arg, name)
				continue
			}
			fmt.Fprintln(cc.Out, name)
		}
	}
	return nil
}
