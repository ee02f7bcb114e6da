package main

import (
	"fmt"
	"os"

	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/internal/archive"
	"github.com/MWATelescope/subtool/loader"
)

func cmdDump(args []string) int {
	fs := newFlagSet("dump")
	section := fs.StringP("section", "s", "data", "section to dump: header|dt|udpmap|margin|data")
	block := fs.Int64P("block", "b", -1, "data block to dump (requires --section data); -1 dumps every block")
	source := fs.Int64P("source", "r", -1, "rf_input to restrict a data dump to; -1 dumps every source")
	compress := fs.Bool("compress", false, "zstd-compress the dumped bytes")
	out := fs.StringP("out", "o", "", "output file; defaults to stdout")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: subtool dump [flags] <subfile>")
		return 2
	}

	sec, err := parseSection(*section)
	if err != nil {
		return fail(err)
	}

	l, code := openLoader(fs.Arg(0))
	if l == nil {
		return code
	}
	defer l.Close()

	var buf []byte

	if sec == format.SectionData {
		buf, err = dumpData(l, *block, *source)
	} else {
		buf, err = l.Reader().ReadSection(sec)
	}
	if err != nil {
		return fail(err)
	}

	if *compress {
		buf, err = archive.Compress(buf)
		if err != nil {
			return fail(err)
		}
	}

	if *out == "" {
		_, err = os.Stdout.Write(buf)
	} else {
		err = os.WriteFile(*out, buf, 0o644)
	}
	if err != nil {
		return fail(err)
	}

	return 0
}

func dumpData(l *loader.Loader, block, source int64) ([]byte, error) {
	meta := l.Metadata()

	var out []byte

	blocks := []int64{block}
	if block < 0 {
		blocks = make([]int64, meta.BlocksPerSub)
		for i := range blocks {
			blocks[i] = int64(i) + 1
		}
	}

	for _, b := range blocks {
		data, err := l.Reader().ReadBlock(b)
		if err != nil {
			return nil, err
		}

		if source < 0 {
			out = append(out, data...)
			continue
		}

		idx := sourceIndex(l, uint16(source))
		if idx < 0 {
			return nil, fmt.Errorf("source %d not present in this subfile", source)
		}

		line := data[idx*meta.SubLineSize : (idx+1)*meta.SubLineSize]
		out = append(out, line...)
	}

	return out, nil
}

func sourceIndex(l *loader.Loader, rfInput uint16) int {
	for i, s := range l.Sources() {
		if s == rfInput {
			return i
		}
	}

	return -1
}

func parseSection(s string) (format.Section, error) {
	switch s {
	case "header":
		return format.SectionHeader, nil
	case "dt":
		return format.SectionDelayTable, nil
	case "udpmap":
		return format.SectionUDPMap, nil
	case "margin":
		return format.SectionMargin, nil
	case "data":
		return format.SectionData, nil
	default:
		return 0, fmt.Errorf("unknown section %q", s)
	}
}

func cmdPatch(args []string) int {
	fs := newFlagSet("patch")
	section := fs.StringP("section", "s", "", "section to overwrite: header|dt|udpmap|margin")
	in := fs.StringP("in", "i", "", "file whose bytes replace the section")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || *section == "" || *in == "" {
		fmt.Fprintln(os.Stderr, "usage: subtool patch --section <name> --in <file> <subfile>")
		return 2
	}

	sec, err := parseSection(*section)
	if err != nil {
		return fail(err)
	}
	if sec == format.SectionData {
		return fail(fmt.Errorf("patch does not support the data section; use repoint/replace/resample instead"))
	}

	l, code := openLoader(fs.Arg(0))
	if l == nil {
		return code
	}
	defer l.Close()

	patch, err := os.ReadFile(*in)
	if err != nil {
		return fail(err)
	}

	offset, length, err := l.Metadata().SectionOffsetLength(sec)
	if err != nil {
		return fail(err)
	}
	if int64(len(patch)) != length {
		return fail(fmt.Errorf("patch file is %d bytes, section %s is %d bytes", len(patch), sec, length))
	}

	f, err := os.OpenFile(fs.Arg(0), os.O_WRONLY, 0)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	if _, err := f.WriteAt(patch, offset); err != nil {
		return fail(err)
	}

	return 0
}
