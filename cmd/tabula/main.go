// cmd/tabula/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"tabula/internal/frame"
	"tabula/internal/source/csv"
	"tabula/internal/source/json"
)

const version = "0.1.0"

// Command aliases, modeled on the teacher's cmd/sentra command-alias map.
var commandAliases = map[string]string{
	"l": "load",
	"d": "describe",
	"c": "convert",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	if cmd == "--help" || cmd == "-h" || cmd == "help" {
		showUsage()
		return
	}
	if cmd == "--version" || cmd == "-v" || cmd == "version" {
		fmt.Println("tabula", version)
		return
	}

	switch cmd {
	case "load":
		if err := loadCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "describe":
		if err := describeCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	case "convert":
		if err := convertCommand(args[1:]); err != nil {
			log.Fatalf("Error: %v", err)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`tabula - in-memory columnar table engine demo CLI

Usage:
  tabula load <file>               Load a CSV/JSON file and print its shape
  tabula describe <file>           Load a file and print per-column statistics
  tabula convert <in> <out>        Convert between CSV and JSON by extension

Aliases: l=load, d=describe, c=convert`)
}

// readByExt dispatches to the csv or json adapter by file extension, the
// same extension-sniffing the teacher's own file-command handlers use
// before delegating to a dedicated package.
func readByExt(path string) (*frame.Frame[int, string], error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Read(path, nil)
	case ".csv":
		return csv.Read(path, nil)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", path)
	}
}

func writeByExt(f *frame.Frame[int, string], path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Write(f, path, nil)
	case ".csv":
		return csv.Write(f, path, nil)
	default:
		return fmt.Errorf("unsupported file extension: %s", path)
	}
}

func loadCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: tabula load <file>")
	}
	f, err := readByExt(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d rows x %d cols\n", args[0], f.RowCount(), f.ColCount())
	return nil
}

// describeCommand prints a banner around the stats table when stdout is an
// interactive terminal; piped/redirected output (the common case feeding
// another tool) gets the bare table instead.
func describeCommand(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: tabula describe <file>")
	}
	f, err := readByExt(args[0])
	if err != nil {
		return err
	}
	out, err := f.Describe("count", "mean", "stddev", "min", "max")
	if err != nil {
		return err
	}
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Printf("== %s (%d rows x %d cols) ==\n", args[0], f.RowCount(), f.ColCount())
		fmt.Print(out)
		fmt.Println()
	} else {
		fmt.Print(out)
	}
	return nil
}

func convertCommand(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: tabula convert <in> <out>")
	}
	f, err := readByExt(args[0])
	if err != nil {
		return err
	}
	return writeByExt(f, args[1])
}
