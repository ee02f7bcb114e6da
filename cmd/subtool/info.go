package main

import (
	"fmt"
	"os"

	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/internal/cli"
	"github.com/MWATelescope/subtool/internal/integrity"
)

func cmdInfo(args []string) int {
	fs := newFlagSet("info")
	formatOut := fs.StringP("format", "f", "pretty", "output format: pretty|csv")
	verify := fs.Bool("verify", false, "also print an xxHash64 checksum of every section")
	hexOffsets := fs.Bool("hex", false, "print offsets in hexadecimal")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: subtool info [flags] <subfile>")
		return 2
	}

	outFmt, err := parseTableFormat(*formatOut, false)
	if err != nil {
		return fail(err)
	}

	opts, err := cli.New(cli.WithFormatOut(outFmt), cli.WithHexOffsets(*hexOffsets))
	if err != nil {
		return fail(err)
	}

	l, code := openLoader(fs.Arg(0))
	if l == nil {
		return code
	}
	defer l.Close()

	text, err := l.Header().Print(opts.FormatOut)
	if err != nil {
		return fail(err)
	}
	fmt.Print(text)

	meta := l.Metadata()

	fmt.Printf("version=%s blocks_per_sub=%d num_sources=%d samples_per_line=%d\n",
		meta.MwaxSubVersion, meta.BlocksPerSub, meta.NumSources, meta.SamplesPerLine)
	fmt.Printf("header=%s dt=%s udpmap=%s margin=%s data=%s\n",
		opts.FormatOffset(meta.HeaderOffset), opts.FormatOffset(meta.DtOffset), opts.FormatOffset(meta.UDPMapOffset),
		opts.FormatOffset(meta.MarginOffset), opts.FormatOffset(meta.DataOffset))

	if *verify {
		sums, err := integrity.SectionChecksums(l.Reader(), true)
		if err != nil {
			return fail(err)
		}

		for _, s := range sums {
			fmt.Printf("checksum %-8s %016x\n", s.Section, s.Sum)
		}
	}

	return 0
}

func cmdShow(args []string) int {
	fs := newFlagSet("show")
	formatOut := fs.StringP("format", "f", "pretty", "output format: pretty|csv|bin")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: subtool show [flags] <subfile>")
		return 2
	}

	outFmt, err := parseTableFormat(*formatOut, true)
	if err != nil {
		return fail(err)
	}

	l, code := openLoader(fs.Arg(0))
	if l == nil {
		return code
	}
	defer l.Close()

	text, err := l.DelayTable().Print(outFmt)
	if err != nil {
		return fail(err)
	}
	fmt.Print(text)

	return 0
}

// parseTableFormat maps a CLI --format string to format.TableFormat.
// allowBin additionally accepts "bin", which info never emits (binary
// header output is meaningless on a terminal) but show does.
func parseTableFormat(s string, allowBin bool) (format.TableFormat, error) {
	switch s {
	case "pretty":
		return format.TablePretty, nil
	case "csv":
		return format.TableCSV, nil
	case "bin":
		if allowBin {
			return format.TableBinary, nil
		}
	}

	return 0, fmt.Errorf("unsupported --format %q", s)
}
