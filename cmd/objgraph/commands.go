package main

import (
	"github.com/scott-cotton/cli"
)

func MainCommand(defaults *Defaults) *cli.Command {
	cfg := &MainConfig{Defaults: defaults, Color: defaults.Color}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	opts := append(sOpts, &cli.Opt{
		Name:        "o",
		Description: "output file (default stdout)",
		Type:        cli.NamedFuncOpt(cfg.outOpt, "(filepath)"),
	})

	return cli.NewCommandAt(&cfg.Main, "objgraph").
		WithSynopsis("objgraph [opts] command [opts]").
		WithDescription("objgraph inspects and converts saved object graph documents.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return objgraphMain(cfg, cc, args)
		}).
		WithSubs(
			ListCommand(cfg),
			CatCommand(cfg),
			CheckCommand(cfg),
			ConvertCommand(cfg),
			DiffCommand(cfg))
}

func ListCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &ListConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.List, "ls").
		WithAliases("l", "list").
		WithSynopsis("ls files...").
		WithDescription("list the entry names of documents").
		WithRun(func(cc *cli.Context, args []string) error {
			return list(cfg, cc, args)
		})
}

func CatCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CatConfig{MainConfig: mainCfg, YAML: mainCfg.Defaults.YAML}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Cat, "cat").
		WithAliases("c").
		WithSynopsis("cat [-y] [-compact] files...").
		WithDescription("render documents as pretty json or yaml").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return cat(cfg, cc, args)
		})
}

func CheckCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &CheckConfig{MainConfig: mainCfg}
	return cli.NewCommandAt(&cfg.Check, "check").
		WithAliases("ch").
		WithSynopsis("check files...").
		WithDescription(checkDescription).
		WithRun(func(cc *cli.Context, args []string) error {
			return check(cfg, cc, args)
		})
}

const checkDescription = `check decodes documents without the producing program's types.

Every typed object is decoded as a generic object, so the whole graph,
handles included, is resolved. check prints the entry names, the number of
handles and how the arrays of the document are encoded. Warnings are
logged, and check exits 1 if there were any.`

func ConvertCommand(mainCfg *MainConfig) *cli.Command {
	d := mainCfg.Defaults
	cfg := &ConvertConfig{MainConfig: mainCfg, Gzip: d.Gzip, Base64: d.Base64, Passthrough: d.Passthrough}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Convert, "convert").
		WithAliases("cv").
		WithSynopsis("convert [-gz] [-b64] [-passthrough] in out").
		WithDescription("decode a document and write it again with other options").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return convert(cfg, cc, args)
		})
}

func DiffCommand(mainCfg *MainConfig) *cli.Command {
	cfg := &DiffConfig{MainConfig: mainCfg}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Diff, "diff").
		WithAliases("d", "di").
		WithSynopsis("diff a b").
		WithDescription("line diff of two documents rendered as pretty json").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return diff(cfg, cc, args)
		})
}
