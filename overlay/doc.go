// Package overlay lays item records out on the page and renders them as a
// PDF content stream.
//
// Each item occupies one fixed slot of the page. Within a slot the title
// sits at the left margin, the link label is right-aligned to the link
// column and underlined, and the subheader and bullets follow below:
//
//	eng, err := overlay.NewEngine(model.DefaultGeometry(), fonts)
//	ov, err := eng.Render(items)
//	// ov.Content is the content stream, ov.Fonts the faces it names.
//
// Widths come from font.Registry.MeasureText, the same measurement the
// links package uses to place clickable regions, so a label and its
// annotation always cover the same span.
package overlay
