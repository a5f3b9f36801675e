package main

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/scott-cotton/cli"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	"github.com/signadot/objgraph"
	"github.com/signadot/objgraph/encode"
	"github.com/signadot/objgraph/ir"
)

func diff(cfg *DiffConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Diff.Parse(cc, args)
	if err != nil {
		cfg.Diff.Usage(cc, err)
		return cli.ExitCodeErr(1)
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: diff requires 2 args, got %v", cli.ErrUsage, args)
	}
	from, to := args[0], args[1]
	if cfg.Reverse {
		from, to = to, from
	}
	differ, err := diffFiles(cc.Out, from, to, cfg.useColor(cc.Out))
	if err != nil {
		return err
	}
	if differ {
		return cli.ExitCodeErr(1)
	}
	return nil
}

// diffFiles writes the line diff of the documents at from and to. Trees
// that are already equal are not rendered.
func diffFiles(w io.Writer, from, to string, colored bool) (bool, error) {
	na, err := objgraph.ParseFile(from)
	if err != nil {
		return false, err
	}
	nb, err := objgraph.ParseFile(to)
	if err != nil {
		return false, err
	}
	if ir.Equal(na, nb) {
		return false, nil
	}
	a, err := render(from, na)
	if err != nil {
		return false, err
	}
	b, err := render(to, nb)
	if err != nil {
		return false, err
	}
	return writeLineDiff(w, a, b, colored)
}

// render is the uncolored pretty form of the document read from path.
func render(path string, root *ir.Node) (string, error) {
	var buf bytes.Buffer
	if err := encode.Encode(root, &buf); err != nil {
		return "", fmt.Errorf("error encoding %s: %w", path, err)
	}
	return buf.String(), nil
}

// writeLineDiff writes the lines of a and b that differ, prefixed with
// '-' and '+', and reports whether there were any.
func writeLineDiff(w io.Writer, a, b string, colored bool) (bool, error) {
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)
	del, ins := fmt.Sprint, fmt.Sprint
	if colored {
		red, green := color.New(color.FgRed), color.New(color.FgGreen)
		red.EnableColor()
		green.EnableColor()
		del, ins = red.Sprint, green.Sprint
	}
	differ := false
	for _, d := range diffs {
		var (
			prefix string
			paint  = fmt.Sprint
		)
		switch d.Type {
		case diffpatch.DiffEqual:
			continue
		case diffpatch.DiffDelete:
			prefix, paint = "-", del
		case diffpatch.DiffInsert:
			prefix, paint = "+", ins
		}
		differ = true
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			if !strings.HasSuffix(line, "\n") {
				line += "\n"
			}
			if _, err := io.WriteString(w, paint(prefix+line)); err != nil {
				return differ, err
			}
		}
	}
	return differ, nil
}
