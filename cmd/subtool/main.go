// Command subtool inspects and manipulates MWA voltage capture subfiles:
// printing and editing the text header, reading and rewriting the delay
// table, and streaming repointed/remapped/resampled copies of the data
// blocks.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/MWATelescope/subtool/loader"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "subtool"})

func main() {
	os.Exit(run(os.Args[1:]))
}

type command struct {
	name string
	help string
	run  func(args []string) int
}

var commands = []command{
	{"info", "print header and geometry summary", cmdInfo},
	{"show", "print the delay table", cmdShow},
	{"get", "print one header field", cmdGet},
	{"set", "set one header field", cmdSet},
	{"unset", "remove one header field", cmdUnset},
	{"dt", "convert a delay table between csv and binary", cmdDt},
	{"dump", "extract a section, block, or source line", cmdDump},
	{"patch", "overwrite one preamble section in place", cmdPatch},
	{"repoint", "rewrite data blocks for a new delay table", cmdRepoint},
	{"replace", "permute which source occupies each data slot", cmdReplace},
	{"resample", "apply a per-sample transform to selected sources", cmdResample},
	{"bake", "apply an FFT-domain fractional-delay correction", cmdBake},
	{"upgrade", "rewrite a v1 subfile's preamble to v2", cmdUpgrade},
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	name, rest := args[0], args[1:]

	for _, c := range commands {
		if c.name == name {
			return c.run(rest)
		}
	}

	fmt.Fprintf(os.Stderr, "subtool: unknown command %q\n", name)
	usage()

	return 2
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: subtool <command> [flags]")
	fmt.Fprintln(os.Stderr, "commands:")

	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.help)
	}
}

// newFlagSet builds a pflag.FlagSet for subcommand name, printing to stderr
// on a parse error rather than panicking (pflag's default ExitOnError would
// terminate the process before the caller can translate the error into a
// subtool exit code).
func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	return fs
}

func fail(err error) int {
	logger.Error(err.Error())

	return 1
}

// openLoader opens path, printing a consistent error on failure.
func openLoader(path string) (*loader.Loader, int) {
	l, err := loader.Open(path)
	if err != nil {
		return nil, fail(err)
	}

	return l, 0
}
