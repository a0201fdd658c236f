// Package inspect reads a finished page back and reports what was drawn
// where.
//
// TextRuns executes the page content, including Form XObjects, and returns
// every shown string with its bounding box computed from the font's
// /Widths. CheckLinks pairs every URI link annotation with the run it
// covers best and reports how much of that run the clickable area spans
// horizontally:
//
//	checks, err := inspect.CheckFile("report.pdf")
//	for _, c := range checks {
//	    fmt.Printf("%s covers %.0f%% of %q\n", c.URI, c.Coverage*100, c.Text)
//	}
package inspect
