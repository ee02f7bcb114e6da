package delaytable

import (
	"fmt"
	"strings"

	"github.com/MWATelescope/subtool/errs"
	"github.com/MWATelescope/subtool/format"
)

// Print renders the table in one of the CLI's output formats, mirroring
// Header.Print's dispatch.
func (t Table) Print(f format.TableFormat) (string, error) {
	switch f {
	case format.TablePretty:
		return t.printPretty(), nil
	case format.TableCSV:
		return SerialiseCSV(t), nil
	case format.TableBinary:
		buf, err := SerialiseBinary(t)
		if err != nil {
			return "", err
		}

		return string(buf), nil
	default:
		return "", errs.New(errs.InvalidArgument, "unsupported delay table print format: %v", f)
	}
}

func (t Table) printPretty() string {
	var b strings.Builder

	fmt.Fprintf(&b, "version=%s num_frac_delays=%d rows=%d\n", t.Version, t.NumFracDelays, len(t.Entries))

	for _, e := range t.Entries {
		fmt.Fprintf(&b, "rf_input=%-6d ws_delay=%-6d initial=%-12.4f delta=%-12.6f delta_delta=%-12.8f\n",
			e.RfInput, e.WsDelay, e.InitialDelay, e.DeltaDelay, e.DeltaDeltaDelay)
	}

	return b.String()
}
