package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MWATelescope/subtool/cache"
	"github.com/MWATelescope/subtool/delaytable"
	"github.com/MWATelescope/subtool/format"
	"github.com/MWATelescope/subtool/internal/cli"
	"github.com/MWATelescope/subtool/loader"
	"github.com/MWATelescope/subtool/reader"
	"github.com/MWATelescope/subtool/transform/remap"
	"github.com/MWATelescope/subtool/transform/resample"
	"github.com/MWATelescope/subtool/writer"
)

// passthroughSections reads the input's udpmap and margin sections
// verbatim, for transforms (repoint, replace, resample) that don't change
// subfile geometry and so carry those sections through unmodified.
func passthroughSections(l *loader.Loader) (udpmap, margin writer.SectionContent, err error) {
	u, err := l.Reader().ReadSection(format.SectionUDPMap)
	if err != nil {
		return nil, nil, err
	}

	m, err := l.Reader().ReadSection(format.SectionMargin)
	if err != nil {
		return nil, nil, err
	}

	return writer.BufferContent(u), writer.BufferContent(m), nil
}

func createOutput(path string) (*os.File, int) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fail(err)
	}

	return f, 0
}

func cmdRepoint(args []string) int {
	fs := newFlagSet("repoint")
	dtFile := fs.StringP("dt", "d", "", "target delay-table file (csv or binary)")
	zero := fs.Bool("zero", false, "repoint to a zero delay table instead of --dt")
	out := fs.StringP("out", "o", "", "output subfile path")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || *out == "" || (*dtFile == "" && !*zero) {
		fmt.Fprintln(os.Stderr, "usage: subtool repoint --out <file> (--dt <file> | --zero) <subfile>")
		return 2
	}

	l, code := openLoader(fs.Arg(0))
	if l == nil {
		return code
	}
	defer l.Close()

	from := l.DelayTable()

	var to delaytable.Table
	if *zero {
		to = zeroTable(from)
	} else {
		raw, err := os.ReadFile(*dtFile)
		if err != nil {
			return fail(err)
		}

		to, err = decodeDelayTable(raw)
		if err != nil {
			return fail(err)
		}
	}

	udpmap, margin, err := passthroughSections(l)
	if err != nil {
		return fail(err)
	}

	f, code := createOutput(*out)
	if f == nil {
		return code
	}
	defer f.Close()

	desc := &writer.OutputDescriptor{
		Meta:      l.Metadata(),
		Header:    writer.HeaderContent{Header: l.Header()},
		DT:        writer.DelayTableContent{Table: to},
		UDPMap:    udpmap,
		Margin:    margin,
		WriteData: true,
		Mode:      format.TransformRepoint,
		Source:    l.Reader(),
		Repoint:   &writer.RepointParams{From: from, To: to},
	}

	if err := writer.Write(desc, f); err != nil {
		return fail(err)
	}

	return 0
}

// zeroTable builds a delay table with the same rf_input ordering as from
// but every delay field zeroed, for "repoint --zero".
func zeroTable(from delaytable.Table) delaytable.Table {
	out := from.Clone()
	for i := range out.Entries {
		e := &out.Entries[i]
		e.WsDelay, e.InitialDelay, e.DeltaDelay, e.DeltaDeltaDelay = 0, 0, 0, 0
		e.StartTotalDelay, e.MiddleTotalDelay, e.EndTotalDelay = 0, 0, 0

		for k := range e.FracDelay {
			e.FracDelay[k] = 0
		}
	}

	return out
}

func cmdReplace(args []string) int {
	fs := newFlagSet("replace")
	mapAll := fs.Int64P("map-all", "a", -1, "make every data slot carry this rf_input's data")
	maps := fs.StringArrayP("map", "m", nil, "slot:to override, repeatable (e.g. --map=101:102)")
	out := fs.StringP("out", "o", "", "output subfile path")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: subtool replace --out <file> [--map-all <rf_input>] [--map slot:to ...] <subfile>")
		return 2
	}

	l, code := openLoader(fs.Arg(0))
	if l == nil {
		return code
	}
	defer l.Close()

	sources := l.Sources()

	var mapping remap.Mapping
	var err error

	if *mapAll >= 0 {
		mapping, err = remap.MapAll(sources, uint16(*mapAll))
	} else {
		mapping = remap.Identity(sources)
	}
	if err != nil {
		return fail(err)
	}

	for _, spec := range *maps {
		slot, to, perr := parseMapSpec(spec)
		if perr != nil {
			return fail(perr)
		}

		mapping, err = mapping.Set(slot, to)
		if err != nil {
			return fail(err)
		}
	}

	udpmap, margin, err := passthroughSections(l)
	if err != nil {
		return fail(err)
	}

	f, code := createOutput(*out)
	if f == nil {
		return code
	}
	defer f.Close()

	desc := &writer.OutputDescriptor{
		Meta:      l.Metadata(),
		Header:    writer.HeaderContent{Header: l.Header()},
		DT:        writer.DelayTableContent{Table: l.DelayTable()},
		UDPMap:    udpmap,
		Margin:    margin,
		WriteData: true,
		Mode:      format.TransformRemap,
		Source:    l.Reader(),
		Remap:     &writer.RemapParams{Mapping: mapping},
	}

	if err := writer.Write(desc, f); err != nil {
		return fail(err)
	}

	return 0
}

func parseMapSpec(spec string) (slot, to uint16, err error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--map value %q must be slot:to", spec)
	}

	s, err1 := strconv.ParseUint(parts[0], 10, 16)
	t, err2 := strconv.ParseUint(parts[1], 10, 16)
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("--map value %q must be two integers separated by ':'", spec)
	}

	return uint16(s), uint16(t), nil
}

func cmdResample(args []string) int {
	fs := newFlagSet("resample")
	rules := fs.StringArrayP("rule", "r", nil, "source:scale:factor or source:linear:rate:initial, repeatable")
	region := fs.Int64P("region", "n", 4, "samples of neighbouring context a linear transform may read")
	out := fs.StringP("out", "o", "", "output subfile path")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || *out == "" || len(*rules) == 0 {
		fmt.Fprintln(os.Stderr, "usage: subtool resample --out <file> --rule <spec> [--rule <spec> ...] <subfile>")
		return 2
	}

	l, code := openLoader(fs.Arg(0))
	if l == nil {
		return code
	}
	defer l.Close()

	transforms := map[uint16]resample.Func{}
	for _, spec := range *rules {
		src, fn, err := parseResampleRule(spec)
		if err != nil {
			return fail(err)
		}

		transforms[src] = fn
	}

	udpmap, margin, err := passthroughSections(l)
	if err != nil {
		return fail(err)
	}

	f, code := createOutput(*out)
	if f == nil {
		return code
	}
	defer f.Close()

	desc := &writer.OutputDescriptor{
		Meta:      l.Metadata(),
		Header:    writer.HeaderContent{Header: l.Header()},
		DT:        writer.DelayTableContent{Table: l.DelayTable()},
		UDPMap:    udpmap,
		Margin:    margin,
		WriteData: true,
		Mode:      format.TransformResample,
		Source:    l.Reader(),
		Resample:  &writer.ResampleParams{Sources: l.Sources(), Transforms: transforms, Region: *region},
	}

	if err := writer.Write(desc, f); err != nil {
		return fail(err)
	}

	return 0
}

func parseResampleRule(spec string) (uint16, resample.Func, error) {
	parts := strings.Split(spec, ":")
	if len(parts) < 3 {
		return 0, nil, fmt.Errorf("--rule value %q must be source:kind:params", spec)
	}

	src, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return 0, nil, fmt.Errorf("--rule value %q: bad source: %v", spec, err)
	}

	switch parts[1] {
	case "scale":
		factor, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return 0, nil, fmt.Errorf("--rule value %q: bad scale factor: %v", spec, err)
		}

		return uint16(src), resample.Scale(factor), nil

	case "linear":
		if len(parts) != 4 {
			return 0, nil, fmt.Errorf("--rule value %q: linear needs rate:initial", spec)
		}

		rate, err1 := strconv.ParseFloat(parts[2], 64)
		initial, err2 := strconv.ParseFloat(parts[3], 64)
		if err1 != nil || err2 != nil {
			return 0, nil, fmt.Errorf("--rule value %q: bad rate/initial", spec)
		}

		return uint16(src), resample.Linear(rate, initial), nil

	default:
		return 0, nil, fmt.Errorf("--rule value %q: unknown kind %q", spec, parts[1])
	}
}

func cmdBake(args []string) int {
	fs := newFlagSet("bake")
	fftSize := fs.IntP("fft-size", "n", 128, "FFT chunk size, must be a power of two")
	out := fs.StringP("out", "o", "", "output subfile path")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: subtool bake --out <file> [--fft-size N] <subfile>")
		return 2
	}
	if _, err := cli.New(cli.WithBakeFFTSize(*fftSize)); err != nil {
		return fail(err)
	}

	l, code := openLoader(fs.Arg(0))
	if l == nil {
		return code
	}
	defer l.Close()

	table := l.DelayTable()
	meta := l.Metadata()

	outFile, code := createOutput(*out)
	if outFile == nil {
		return code
	}
	defer outFile.Close()

	udpmap, margin, err := passthroughSections(l)
	if err != nil {
		return fail(err)
	}

	// Baking folds the fractional delays into the samples, so the output's
	// delay table carries zeroed frac_delay arrays.
	bakedTable := table.Clone()
	for i := range bakedTable.Entries {
		for k := range bakedTable.Entries[i].FracDelay {
			bakedTable.Entries[i].FracDelay[k] = 0
		}
	}

	preambleDesc := &writer.OutputDescriptor{
		Meta:      meta,
		Header:    writer.HeaderContent{Header: l.Header()},
		DT:        writer.DelayTableContent{Table: bakedTable},
		UDPMap:    udpmap,
		Margin:    margin,
		WriteData: false,
	}
	if err := writer.Write(preambleDesc, outFile); err != nil {
		return fail(err)
	}

	opts := resample.BakeOptions{FFTSize: *fftSize, SampleRate: meta.SampleRate, CentreFrequency: 157000000}

	// Bake reads every block once per source (source-major), so the
	// default block-window cache would thrash; size it to hold the whole
	// subfile's data instead.
	r := l.Reader().WithCache(cache.New(reader.BakeCacheBytes))

	sources := l.Sources()
	outData := make([]byte, meta.BlocksPerSub*meta.BlockLength)

	for idx, rfInput := range sources {
		stream := make([]resample.Sample, 0, meta.BlocksPerSub*meta.SamplesPerLine)

		for block := int64(1); block <= meta.BlocksPerSub; block++ {
			data, err := r.ReadBlock(block)
			if err != nil {
				return fail(err)
			}

			line := data[int64(idx)*meta.SubLineSize : (int64(idx)+1)*meta.SubLineSize]
			stream = append(stream, lineToSamples(line)...)
		}

		// The table holds delays in samples; Bake takes microsamples.
		row := table.Entries[table.IndexOf(rfInput)]
		delays := make([]float64, len(row.FracDelay))
		for k, d := range row.FracDelay {
			delays[k] = d * 1e6
		}

		baked, err := resample.Bake(stream, delays, opts)
		if err != nil {
			return fail(err)
		}

		for block := int64(1); block <= meta.BlocksPerSub; block++ {
			blockStart := (block - 1) * meta.BlockLength
			outLine := outData[blockStart+int64(idx)*meta.SubLineSize : blockStart+(int64(idx)+1)*meta.SubLineSize]
			chunkStart := (block - 1) * meta.SamplesPerLine
			samplesToLine(outLine, baked[chunkStart:chunkStart+meta.SamplesPerLine])
		}
	}

	if _, err := outFile.Write(outData); err != nil {
		return fail(err)
	}

	return 0
}

func lineToSamples(line []byte) []resample.Sample {
	out := make([]resample.Sample, len(line)/2)
	for i := range out {
		out[i] = resample.Sample{Re: int8(line[2*i]), Im: int8(line[2*i+1])}
	}

	return out
}

func samplesToLine(line []byte, samples []resample.Sample) {
	for i, s := range samples {
		line[2*i] = byte(s.Re)
		line[2*i+1] = byte(s.Im)
	}
}

func cmdUpgrade(args []string) int {
	fs := newFlagSet("upgrade")
	out := fs.StringP("out", "o", "", "output subfile path")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || *out == "" {
		fmt.Fprintln(os.Stderr, "usage: subtool upgrade --out <file> <subfile>")
		return 2
	}

	l, code := openLoader(fs.Arg(0))
	if l == nil {
		return code
	}
	defer l.Close()

	up, err := l.Upgrade()
	if err != nil {
		return fail(err)
	}

	f, code := createOutput(*out)
	if f == nil {
		return code
	}
	defer f.Close()

	desc := &writer.OutputDescriptor{
		Meta:      up.Metadata,
		Header:    writer.HeaderContent{Header: up.Header},
		DT:        writer.DelayTableContent{Table: up.Table},
		UDPMap:    writer.BufferContent(up.UDPMap),
		Margin:    writer.BufferContent(up.Margin),
		WriteData: true,
		Mode:      format.TransformPassthrough,
		Source:    l.Reader(),
	}

	if err := writer.Write(desc, f); err != nil {
		return fail(err)
	}

	return 0
}
