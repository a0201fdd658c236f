// Package font measures and embeds the TrueType faces the overlay is drawn
// with, and reads character widths back from fonts already in a PDF.
//
// # Faces and roles
//
// A [Face] is a parsed TrueType font restricted to WinAnsiEncoding. Its
// per-code advance widths, in 1/1000 em rounded to integers, are computed
// once from the font program and used both for measuring text and for the
// /Widths array written when the face is embedded, so what is measured is
// exactly what a viewer renders.
//
// A [Registry] maps role names such as "header" and "body" to faces. It is
// built once at startup and passed to whatever needs to measure or draw:
//
//	reg, err := font.DefaultRegistry()
//	w := reg.MeasureText("example.com/page", "header", 11)
//
// # Reading fonts back
//
// [SimpleFont] extracts /FirstChar, /Widths and /Encoding from a simple
// (single-byte) font dictionary, falling back to built-in metrics for the
// standard 14 fonts.
package font
