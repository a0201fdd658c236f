// Package stamp merges a rendered overlay onto an existing page.
//
// The overlay is wrapped in a Form XObject that carries its own font
// resources, so its resource names can never collide with the page's. The
// page content is bracketed so the original drawing runs inside its own
// q/Q pair and cannot leak graphics state into the overlay.
package stamp

import (
	"fmt"
	"sort"

	"github.com/tsawler/linksheet/core"
	"github.com/tsawler/linksheet/internal/logging"
	"github.com/tsawler/linksheet/overlay"
	"github.com/tsawler/linksheet/writer"
)

// formPrefix is the resource name prefix for the stamped form.
const formPrefix = "LsOverlay"

// Apply draws ov on top of page pageIndex of doc.
func Apply(doc *writer.Document, pageIndex int, ov *overlay.Overlay) error {
	if ov == nil {
		return fmt.Errorf("overlay is nil")
	}
	page, err := doc.Page(pageIndex)
	if err != nil {
		return fmt.Errorf("failed to get page %d: %w", pageIndex, err)
	}

	mediaBox, err := page.MediaBox()
	if err != nil {
		return fmt.Errorf("page %d: %w", pageIndex, err)
	}

	fonts, err := embedFonts(doc, ov)
	if err != nil {
		return err
	}

	form, err := core.NewFlateStream(core.Dict{
		"Type":     core.Name("XObject"),
		"Subtype":  core.Name("Form"),
		"FormType": core.Int(1),
		"BBox": core.Array{
			core.Real(mediaBox[0]), core.Real(mediaBox[1]),
			core.Real(mediaBox[2]), core.Real(mediaBox[3]),
		},
		"Resources": core.Dict{
			"Font":    fonts,
			"ProcSet": core.Array{core.Name("PDF"), core.Name("Text")},
		},
	}, ov.Content)
	if err != nil {
		return fmt.Errorf("failed to compress overlay: %w", err)
	}
	formRef := doc.Add(form)

	resources, err := page.Resources()
	if err != nil {
		return fmt.Errorf("page %d: %w", pageIndex, err)
	}
	resources, name, err := withXObject(doc, resources, formRef)
	if err != nil {
		return fmt.Errorf("page %d: %w", pageIndex, err)
	}

	contents, err := page.ContentRefs()
	if err != nil {
		return fmt.Errorf("page %d: %w", pageIndex, err)
	}
	open := doc.Add(core.NewStream(core.Dict{}, []byte("q\n")))
	closing := doc.Add(core.NewStream(core.Dict{}, []byte("Q\nq /"+name+" Do Q\n")))

	merged := make(core.Array, 0, len(contents)+2)
	merged = append(merged, open)
	merged = append(merged, contents...)
	merged = append(merged, closing)

	dict := page.Dict()
	dict.Set("Contents", merged)
	dict.Set("Resources", resources)

	logging.Logger().Debug("overlay stamped",
		"page", pageIndex, "form", name, "fonts", len(fonts), "streams", len(merged))
	return nil
}

// embedFonts embeds every overlay face once and returns the font resource
// dictionary for the form.
func embedFonts(doc *writer.Document, ov *overlay.Overlay) (core.Dict, error) {
	names := make([]string, 0, len(ov.Fonts))
	for name := range ov.Fonts {
		names = append(names, name)
	}
	sort.Strings(names)

	fonts := core.Dict{}
	for _, name := range names {
		ref, err := ov.Fonts[name].Embed(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to embed font %s: %w", name, err)
		}
		fonts.Set(name, ref)
	}
	return fonts, nil
}

// withXObject returns a copy of resources with form added to its XObject
// dictionary under a name that is not already taken.
func withXObject(doc *writer.Document, resources core.Dict, form core.IndirectRef) (core.Dict, string, error) {
	out := resources.Clone()

	xobjects := core.Dict{}
	if obj := resources.Get("XObject"); obj != nil {
		resolved, err := doc.Resolve(obj)
		if err != nil {
			return nil, "", fmt.Errorf("failed to resolve XObject resources: %w", err)
		}
		existing, ok := resolved.(core.Dict)
		if !ok {
			return nil, "", fmt.Errorf("invalid XObject resources type: %T", resolved)
		}
		xobjects = existing.Clone()
	}

	name := formPrefix
	for i := 1; xobjects.Has(name); i++ {
		name = fmt.Sprintf("%s%d", formPrefix, i)
	}
	xobjects.Set(name, form)
	out.Set("XObject", xobjects)
	return out, name, nil
}
