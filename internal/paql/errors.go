package paql

import "github.com/synton-db/syntondb/internal/syntonerr"

// ParseErrorAt builds the (offset, expected, found) parse error spec
// §4.5.1 requires, via syntonerr.ParseError.
func ParseErrorAt(offset int, expected, found string) *syntonerr.Error {
	return syntonerr.ParseError(offset, expected, found)
}
