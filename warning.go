package linksheet

import (
	"strings"

	"github.com/tsawler/linksheet/model"
)

// Warning is a non-fatal problem found while building a report. Item is the
// zero-based item index, or -1 for problems not tied to one item.
type Warning = model.Warning

// FormatWarnings joins warnings into one line per warning.
func FormatWarnings(warnings []Warning) string {
	lines := make([]string, len(warnings))
	for i, w := range warnings {
		lines[i] = w.String()
	}
	return strings.Join(lines, "\n")
}
