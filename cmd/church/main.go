package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/churchlang/church/compiler"
	"github.com/churchlang/church/compiler/ast"
	"github.com/churchlang/church/compiler/config"
	"github.com/churchlang/church/compiler/format"
	"github.com/churchlang/church/compiler/wasm"
)

func main() {
	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "print abstract syntax tree",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile source file to a WebAssembly module",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("output,o", "", "output file, stdout if empty or -"),
		},
	}

	fmtCmd := &cli.Command{
		Name:        "fmt",
		Description: "print source in canonical form",
		Action:      fmtAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("write,w", false, "write result to the source file"),
		},
	}

	dumpCmd := &cli.Command{
		Name:        "dump",
		Description: "print WebAssembly module in text form",
		Action:      dumpAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "church",
		Description: "church compiles integer declarations to WebAssembly",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("config", "", "config file, church.toml is searched for next to the source if empty"),
			cli.NewFlag("log", "stderr", "log destination: stderr, none or file path"),
			cli.NewFlag("verbosity,v", "", "logger verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			parseCmd,
			compileCmd,
			fmtCmd,
			dumpCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	return setupLogger(c.String("log"), c.String("verbosity"))
}

func setupLogger(dst, verbosity string) error {
	var w io.Writer

	switch dst {
	case "stderr":
		w = os.Stderr
	case "none", "":
		w = io.Discard
	default:
		f, err := os.Create(dst)
		if err != nil {
			return errors.Wrap(err, "open log")
		}

		w = f
	}

	tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(w, tlog.LstdFlags))
	tlog.SetVerbosity(verbosity)

	return nil
}

func parseAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		x, err := compiler.BuildFile(ctx, a)
		if err != nil {
			return classify(errors.Wrap(err, "parse %v", a))
		}

		printAST(os.Stdout, x)
	}

	return nil
}

func printAST(w io.Writer, x *ast.AST) {
	fmt.Fprintf(w, "module: %q exports: %d\n", x.Module.Name, len(x.Module.Exports))

	for _, d := range x.Sorted() {
		fmt.Fprintf(w, "decl %d: %s = %v\n", d.Index, d.Name, d.Value)
	}
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	if len(c.Args) != 1 {
		return errors.New("expected exactly one source file, got %d", len(c.Args))
	}

	src := c.Args[0]

	cfg, err := loadConfig(c, src)
	if err != nil {
		return err
	}

	obj, err := compiler.CompileFile(ctx, src, cfg.Analyze())
	if err != nil {
		return classify(errors.Wrap(err, "compile %v", src))
	}

	out := c.String("output")
	if out == "" {
		out = cfg.OutputPath()
	}

	if out == "" || out == "-" {
		_, err = os.Stdout.Write(obj)
		return errors.Wrap(err, "write")
	}

	if dir := filepath.Dir(out); dir != "." {
		err = os.MkdirAll(dir, 0o755)
		if err != nil {
			return errors.Wrap(err, "create output dir")
		}
	}

	err = os.WriteFile(out, obj, 0o644)
	if err != nil {
		return errors.Wrap(err, "write")
	}

	tlog.Printw("written", "file", out, "size", len(obj))

	return nil
}

func fmtAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		x, err := compiler.BuildFile(ctx, a)
		if err != nil {
			return classify(errors.Wrap(err, "parse %v", a))
		}

		b, err := format.Format(ctx, nil, x)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		if !c.Bool("write") {
			_, err = os.Stdout.Write(b)
			if err != nil {
				return errors.Wrap(err, "write")
			}

			continue
		}

		err = os.WriteFile(a, b, 0o644)
		if err != nil {
			return errors.Wrap(err, "write %v", a)
		}
	}

	return nil
}

func dumpAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		data, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read file")
		}

		m, err := wasm.Decode(data)
		if err != nil {
			return errors.Wrap(err, "decode %v", a)
		}

		b, err := format.Dump(ctx, nil, m)
		if err != nil {
			return errors.Wrap(err, "dump %v", a)
		}

		_, err = os.Stdout.Write(b)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func loadConfig(c *cli.Command, src string) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}

	cfg, err := config.FindAndLoad(filepath.Dir(src))
	if err != nil {
		return nil, errors.Wrap(err, "find config")
	}

	return cfg, nil
}

func classify(err error) error {
	switch {
	case compiler.IsSyntax(err):
		return errors.Wrap(err, "syntax error")
	case compiler.IsSemantic(err):
		return errors.Wrap(err, "semantic error")
	default:
		return err
	}
}
