package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/MWATelescope/subtool/delaytable"
	"github.com/MWATelescope/subtool/loader"
)

func cmdGet(args []string) int {
	fs := newFlagSet("get")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: subtool get <subfile> <key>")
		return 2
	}

	l, code := openLoader(fs.Arg(0))
	if l == nil {
		return code
	}
	defer l.Close()

	val, ok := l.Header().GetString(fs.Arg(1))
	if !ok {
		return fail(fmt.Errorf("key %q not set", fs.Arg(1)))
	}

	fmt.Println(val)

	return 0
}

func cmdSet(args []string) int {
	fs := newFlagSet("set")
	force := fs.Bool("force", false, "allow setting an unregistered key")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 3 {
		fmt.Fprintln(os.Stderr, "usage: subtool set [--force] <subfile> <key> <value>")
		return 2
	}

	l, code := openLoader(fs.Arg(0))
	if l == nil {
		return code
	}
	defer l.Close()

	if err := l.Header().Set(fs.Arg(1), fs.Arg(2), *force); err != nil {
		return fail(err)
	}

	return rewriteHeaderInPlace(fs.Arg(0), l)
}

func cmdUnset(args []string) int {
	fs := newFlagSet("unset")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "usage: subtool unset <subfile> <key>")
		return 2
	}

	l, code := openLoader(fs.Arg(0))
	if l == nil {
		return code
	}
	defer l.Close()

	l.Header().Unset(fs.Arg(1))

	return rewriteHeaderInPlace(fs.Arg(0), l)
}

// rewriteHeaderInPlace overwrites path's 4096-byte header section with the
// loader's in-memory (possibly edited) header, leaving every other section
// and all data blocks untouched.
func rewriteHeaderInPlace(path string, l *loader.Loader) int {
	buf, err := l.Header().Bytes()
	if err != nil {
		return fail(err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	if _, err := f.WriteAt(buf, l.Metadata().HeaderOffset); err != nil {
		return fail(err)
	}

	return 0
}

func cmdDt(args []string) int {
	fs := newFlagSet("dt")
	in := fs.StringP("in", "i", "", "input delay-table file (csv or binary)")
	out := fs.StringP("out", "o", "", "output delay-table file")
	formatOut := fs.StringP("format", "f", "csv", "output format: csv|bin")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *in == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: subtool dt --in <file> --out <file> [--format csv|bin]")
		return 2
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		return fail(err)
	}

	table, err := decodeDelayTable(raw)
	if err != nil {
		return fail(err)
	}

	var outBuf []byte
	switch *formatOut {
	case "csv":
		outBuf = []byte(delaytable.SerialiseCSV(table))
	case "bin":
		outBuf, err = delaytable.SerialiseBinary(table)
		if err != nil {
			return fail(err)
		}
	default:
		return fail(fmt.Errorf("unsupported --format %q", *formatOut))
	}

	if err := os.WriteFile(*out, outBuf, 0o644); err != nil {
		return fail(err)
	}

	return 0
}

// decodeDelayTable auto-detects whether raw is a CSV or binary delay table
// and parses it accordingly (spec §4.2's format.TableAuto behaviour).
func decodeDelayTable(raw []byte) (delaytable.Table, error) {
	if version, err := delaytable.DetectVersion(raw); err == nil {
		structure, err := delaytable.InferStructure(raw)
		if err != nil {
			return delaytable.Table{}, err
		}

		return delaytable.ParseBinary(raw, version, structure.RowCount, structure.FracCount)
	}

	var rows [][]string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		rows = append(rows, strings.Split(line, ","))
	}

	version, err := delaytable.DetectCSVVersion(rows)
	if err != nil {
		return delaytable.Table{}, err
	}

	return delaytable.ParseCSV(string(raw), version)
}
