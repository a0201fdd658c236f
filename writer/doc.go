// Package writer holds a PDF as an editable set of objects and serializes
// it back to a file.
//
// A Document is created empty with New or loaded from an existing file with
// Open or Read. Objects are addressed by number; Add appends a new object and
// returns a reference to it. On output only objects reachable from the
// catalog and the info dictionary are written, renumbered densely, with a
// classic cross-reference table and a fresh /ID:
//
//	doc, err := writer.Open("template.pdf")
//	page, err := doc.Page(0)
//	...
//	err = doc.WriteFile("out.pdf")
//
// WriteFile replaces the destination atomically: the document is written to
// a temporary file in the same directory which is synced and renamed into
// place. On failure the temporary file is removed and the destination is
// left untouched.
package writer
