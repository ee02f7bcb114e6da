package header

import (
	"fmt"
	"strings"

	"github.com/MWATelescope/subtool/errs"
	"github.com/MWATelescope/subtool/format"
)

// keyPad and valPad are the pretty-printer's column widths (spec §4.4).
const (
	keyPad = 19
	valPad = 20
)

// Print renders the header in one of the CLI's output formats.
func (h *Header) Print(f format.TableFormat) (string, error) {
	switch f {
	case format.TablePretty:
		return h.printPretty(), nil
	case format.TableCSV:
		return h.printCSV(), nil
	case format.TableBinary:
		buf, err := h.Bytes()
		if err != nil {
			return "", err
		}

		return string(buf), nil
	default:
		return "", errs.New(errs.InvalidArgument, "unsupported header print format: %v", f)
	}
}

// printPretty lays keys out four per line, each column padded to keyPad
// characters and each value padded to valPad characters.
func (h *Header) printPretty() string {
	keys := h.Keys()

	var b strings.Builder
	for i := 0; i < len(keys); i += 4 {
		end := i + 4
		if end > len(keys) {
			end = len(keys)
		}

		for _, key := range keys[i:end] {
			val, _ := h.GetString(key)
			fmt.Fprintf(&b, "%-*s%-*s", keyPad, key, valPad, val)
		}

		b.WriteByte('\n')
	}

	return b.String()
}

func (h *Header) printCSV() string {
	var b strings.Builder
	for _, key := range h.Keys() {
		val, _ := h.GetString(key)
		fmt.Fprintf(&b, "%s,%s\n", key, val)
	}

	return b.String()
}
