// Command pantryctl checks the consistency of the pantry data files.
//
// Usage:
//
//	pantryctl validate [-data dir] [-format text|yaml]
//	pantryctl aliases [-data dir] [-format text|yaml] [-strict]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"pantry/internal/catalog"
	"pantry/internal/config"
	"pantry/internal/store"
)

const (
	exitOK       = 0
	exitProblems = 1
	exitUsage    = 2
)

type report struct {
	Command  string   `yaml:"command"`
	OK       bool     `yaml:"ok"`
	Problems []string `yaml:"problems"`
}

type options struct {
	dataDir string
	format  string
	strict  bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}
	cmd := args[0]

	flags := flag.NewFlagSet("pantryctl "+cmd, flag.ContinueOnError)
	flags.SetOutput(stderr)
	var opts options
	flags.StringVar(&opts.dataDir, "data", "", "data directory (defaults to DATA_DIR)")
	flags.StringVar(&opts.format, "format", "text", "report format: text or yaml")
	if cmd == "aliases" {
		flags.BoolVar(&opts.strict, "strict", false, "exit non-zero when aliases conflict")
	}

	var check func(context.Context, *store.FileStore) ([]string, error)
	switch cmd {
	case "validate":
		check = validate
	case "aliases":
		check = aliases
	default:
		usage(stderr)
		return exitUsage
	}
	if err := flags.Parse(args[1:]); err != nil {
		return exitUsage
	}
	if opts.format != "text" && opts.format != "yaml" {
		fmt.Fprintf(stderr, "unknown format %q\n", opts.format)
		return exitUsage
	}

	fs, err := openStore(opts.dataDir)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	problems, err := check(context.Background(), fs)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	rep := report{Command: cmd, OK: len(problems) == 0, Problems: problems}
	if rep.Problems == nil {
		rep.Problems = []string{}
	}
	if err := write(stdout, opts.format, rep); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if len(problems) == 0 {
		return exitOK
	}
	if cmd == "aliases" && !opts.strict {
		return exitOK
	}
	return exitProblems
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: pantryctl validate|aliases [-data dir] [-format text|yaml] [-strict]")
}

func openStore(dataDir string) (*store.FileStore, error) {
	cfg, err := config.Load(".env")
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return store.NewFileStore(cfg.Paths(), nil), nil
}

func validate(ctx context.Context, fs *store.FileStore) ([]string, error) {
	d, err := fs.Domain(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load domain data: %w", err)
	}
	recipes, err := fs.RawRecipes(ctx)
	if errors.Is(err, store.ErrNotFound) {
		recipes = nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}
	return catalog.Check(d, recipes), nil
}

func aliases(ctx context.Context, fs *store.FileStore) ([]string, error) {
	d, err := fs.Domain(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load domain data: %w", err)
	}
	conflicts := catalog.FindConflicts(d.Products)

	keys := make([]string, 0, len(conflicts))
	for alias := range conflicts {
		keys = append(keys, alias)
	}
	sort.Strings(keys)

	problems := make([]string, 0, len(keys))
	for _, alias := range keys {
		problems = append(problems, fmt.Sprintf("alias %q claimed by %s", alias, strings.Join(conflicts[alias], ", ")))
	}
	return problems, nil
}

func write(w io.Writer, format string, rep report) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	}

	if rep.OK {
		_, err := fmt.Fprintf(w, "%s: ok\n", rep.Command)
		return err
	}
	for _, p := range rep.Problems {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s: %d problem(s)\n", rep.Command, len(rep.Problems))
	return err
}
