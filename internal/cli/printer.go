package cli

import "fmt"

// FormatOffset renders an offset either as a plain decimal or, when
// Options.HexOffsets is set, as a 0x-prefixed hexadecimal value — the one
// piece of cross-cutting presentation logic every "show offsets" command
// shares.
func (o *Options) FormatOffset(v int64) string {
	if o.HexOffsets {
		return fmt.Sprintf("0x%x", v)
	}

	return fmt.Sprintf("%d", v)
}
