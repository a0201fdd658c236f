package links

import (
	"fmt"

	"github.com/tsawler/linksheet/core"
	"github.com/tsawler/linksheet/font"
	"github.com/tsawler/linksheet/internal/logging"
	"github.com/tsawler/linksheet/model"
	"github.com/tsawler/linksheet/overlay"
	"github.com/tsawler/linksheet/writer"
)

// Region is the clickable area of one item.
type Region struct {
	Item int
	URI  string

	// TopDown is the region with the origin at the top-left of the page.
	TopDown model.Rect

	// Rect is the same region in PDF user space, as written to /Rect.
	Rect model.Rect
}

// Reconstructor computes link regions and attaches them to documents.
type Reconstructor struct {
	geom  model.Geometry
	fonts *font.Registry
}

// Clickable reports whether the region has a label to sit over. Empty and
// scheme-only links measure zero width and get no annotation.
func (r Region) Clickable() bool {
	return r.Rect.Width() > 0
}

// NewReconstructor validates geom and checks that fonts has a face for the
// header role the link labels are measured in.
func NewReconstructor(geom model.Geometry, fonts *font.Registry) (*Reconstructor, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	if fonts == nil {
		return nil, fmt.Errorf("font registry is nil")
	}
	if _, ok := fonts.Face(geom.HeaderFace); !ok {
		return nil, fmt.Errorf("no font registered for role %q", geom.HeaderFace)
	}
	return &Reconstructor{geom: geom, fonts: fonts}, nil
}

// Regions returns one region per item in item order.
func (rc *Reconstructor) Regions(items []model.Item) []Region {
	g := rc.geom
	regions := make([]Region, 0, len(items))
	for i, item := range items {
		yBase := g.SlotTop(i)
		label := overlay.DisplayLink(item.Link)
		width := rc.fonts.MeasureText(label, g.HeaderFace, g.FontSize)

		x1 := g.LinkRightX
		x0 := x1 - width
		y0 := g.ToTopDown(yBase + g.LinkDY1)
		y1 := g.ToTopDown(yBase + g.LinkDY0)

		regions = append(regions, Region{
			Item:    i,
			URI:     item.Link,
			TopDown: model.Rect{X0: x0, Y0: y0, X1: x1, Y1: y1},
			Rect:    model.Rect{X0: x0, Y0: g.ToBottomUp(y1), X1: x1, Y1: g.ToBottomUp(y0)},
		})
	}
	return regions
}

// Attach appends one URI link annotation per item to the /Annots of page
// pageIndex, in item order. Items whose region is not clickable get no
// annotation.
func (rc *Reconstructor) Attach(doc *writer.Document, pageIndex int, items []model.Item) error {
	page, err := doc.Page(pageIndex)
	if err != nil {
		return fmt.Errorf("failed to get page %d: %w", pageIndex, err)
	}
	annots, err := page.Annots()
	if err != nil {
		return fmt.Errorf("page %d: %w", pageIndex, err)
	}
	// Copy so that an /Annots array shared with other pages is left alone.
	merged := append(core.Array(nil), annots...)

	for _, region := range rc.Regions(items) {
		if !region.Clickable() {
			logging.Logger().Warn("item has no link label, skipping annotation", "item", region.Item, "link", region.URI)
			continue
		}
		uri, err := ASCIIURI(region.URI)
		if err != nil {
			return fmt.Errorf("item %d: %w", region.Item, err)
		}
		merged = append(merged, doc.Add(annotation(region.Rect, uri, page.Ref())))
		logging.Logger().Debug("link attached", "item", region.Item, "uri", uri,
			"x0", region.Rect.X0, "y0", region.Rect.Y0, "x1", region.Rect.X1, "y1", region.Rect.Y1)
	}

	page.Dict().Set("Annots", merged)
	return nil
}

// AttachFile opens the PDF at path, attaches the annotations to its first
// page and atomically replaces the file.
func (rc *Reconstructor) AttachFile(path string, items []model.Item) error {
	doc, err := writer.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if err := rc.Attach(doc, 0, items); err != nil {
		return err
	}
	if err := doc.WriteFile(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

func annotation(rect model.Rect, uri string, page core.IndirectRef) core.Dict {
	return core.Dict{
		"Type":    core.Name("Annot"),
		"Subtype": core.Name("Link"),
		"Rect": core.Array{
			core.Real(rect.X0), core.Real(rect.Y0), core.Real(rect.X1), core.Real(rect.Y1),
		},
		"Border": core.Array{core.Int(0), core.Int(0), core.Int(0)},
		"F":      core.Int(4),
		"P":      page,
		"A": core.Dict{
			"Type": core.Name("Action"),
			"S":    core.Name("URI"),
			"URI":  core.String(uri),
		},
	}
}
