// Package links places clickable URI annotations over the link labels the
// overlay package draws.
//
// Regions are derived from the same geometry and the same text measurement
// the layout engine uses, so a region always spans its label exactly:
//
//	rc, err := links.NewReconstructor(geom, fonts)
//	if err != nil {
//	    // handle error
//	}
//	err = rc.AttachFile("report.pdf", items)
//
// Annotation targets are the raw item links. PDF URI strings are 7-bit
// ASCII, so internationalised host names are converted to their ASCII form
// and other non-ASCII bytes are percent-encoded.
package links
