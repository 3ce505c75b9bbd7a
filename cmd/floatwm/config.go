package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/floatwm/internal/config"
)

func loadConfig(path string) (*config.LoadResult, error) {
	if path == "" {
		return config.LoadWithSources()
	}
	return config.LoadFromPath(path)
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  floatwm config validate [--path PATH]")
	fmt.Fprintln(w, "  floatwm config print [--path PATH] [--defaults]")
	fmt.Fprintln(w, "  floatwm config explain [--path PATH] <yaml.path>")
}

// configFlags returns a flag set carrying the shared --path flag.
func configFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/floatwm/config.yaml)")
	return fs, path
}

func runConfig(args []string) int {
	if len(args) == 0 {
		printConfigUsage(os.Stderr)
		return 2
	}
	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:])
	case "print":
		return runConfigPrint(args[1:])
	case "explain":
		return runConfigExplain(args[1:])
	case "help", "-h", "--help":
		printConfigUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config subcommand: %s\n", args[0])
		return 2
	}
}

func runConfigValidate(args []string) int {
	fs, path := configFlags("validate")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(res.Files) == 0 {
		fmt.Println("config: ok (no file, using defaults)")
	} else {
		fmt.Printf("config: ok (%d file(s))\n", len(res.Files))
	}
	return 0
}

func runConfigPrint(args []string) int {
	fs, path := configFlags("print")
	defaults := fs.Bool("defaults", false, "Print built-in defaults without reading any file")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	cfg := config.DefaultConfig()
	if !*defaults {
		res, err := loadConfig(*path)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		cfg = res.Config
	}
	return printYAML(os.Stdout, cfg)
}

func runConfigExplain(args []string) int {
	fs, path := configFlags("explain")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "explain requires exactly one <yaml.path>, e.g. border.thickness")
		return 2
	}
	query := fs.Arg(0)

	res, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	value, src, err := config.Explain(res, query)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("path: %s\n", query)
	fmt.Printf("source: %s\n", formatSource(src))
	fmt.Println("value:")
	return printYAML(os.Stdout, value)
}

func printYAML(w io.Writer, v any) int {
	data, err := yaml.Marshal(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	w.Write(data)
	return 0
}

func formatSource(src config.Source) string {
	switch src.Kind {
	case config.SourceDefault:
		if src.Name == "" {
			return "default"
		}
		return "default:" + src.Name
	case config.SourceFile:
		switch {
		case src.File == "":
			return "file"
		case src.Line > 0:
			return fmt.Sprintf("file:%s:%d:%d", src.File, src.Line, src.Column)
		default:
			return "file:" + src.File
		}
	default:
		return string(src.Kind)
	}
}
