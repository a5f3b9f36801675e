package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/scott-cotton/cli"

	"github.com/signadot/objgraph"
	"github.com/signadot/objgraph/ir"
)

func check(cfg *CheckConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Check.Parse(cc, args)
	if err != nil {
		cfg.Check.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: check requires at least one file", cli.ErrUsage)
	}
	nWarn := 0
	for _, arg := range args {
		start := time.Now()
		root, err := objgraph.ParseFile(arg)
		if err != nil {
			return err
		}
		res, err := objgraph.DecodeNode(root, cfg.decodeOpts()...)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}
		cfg.Log.Debug("decoded", "file", arg, "elapsed", time.Since(start).Round(time.Millisecond))
		nWarn += len(res.Warnings)
		if err := writeReport(cc.Out, arg, res, encodingHistogram(root)); err != nil {
			return err
		}
	}
	if nWarn != 0 {
		cfg.Log.Error("check failed", "warnings", nWarn)
		return cli.ExitCodeErr(1)
	}
	return nil
}

// encodingHistogram counts the arrays of a document by encoding. Arrays
// are leaves: their payload is not searched for nested arrays.
func encodingHistogram(root *ir.Node) map[ir.Encoding]int {
	res := map[ir.Encoding]int{}
	root.Visit(func(n *ir.Node, isPost bool) (bool, error) {
		if isPost {
			return false, nil
		}
		if ir.ShapeOf(n) == ir.ArrayShape {
			res[ir.EncodingOf(n)]++
			return false, nil
		}
		return true, nil
	})
	return res
}

func writeReport(w io.Writer, path string, res *objgraph.Result, hist map[ir.Encoding]int) error {
	var arrays []string
	for _, enc := range ir.Encodings() {
		if n := hist[enc]; n != 0 {
			arrays = append(arrays, fmt.Sprintf("%s=%d", enc, n))
		}
	}
	if len(arrays) == 0 {
		arrays = append(arrays, "none")
	}
	_, err := fmt.Fprintf(w, "%s: %d entries, %d handles, %d warnings\n  entries: %s\n  arrays: %s\n",
		path, len(res.Names), len(res.Handles), len(res.Warnings),
		strings.Join(res.Names, " "), strings.Join(arrays, " "))
	return err
}
