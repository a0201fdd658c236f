package inspect

import (
	"fmt"
	"math"

	"golang.org/x/text/encoding/charmap"

	"github.com/tsawler/linksheet/core"
	"github.com/tsawler/linksheet/font"
	"github.com/tsawler/linksheet/graphicsstate"
	"github.com/tsawler/linksheet/internal/logging"
	"github.com/tsawler/linksheet/model"
	"github.com/tsawler/linksheet/writer"
)

// Run is a shown string in bottom-up page coordinates.
type Run struct {
	Text     string
	FontName string
	FontSize float64
	Origin   model.Point
	Bounds   model.Rect
}

// Page holds everything drawn on one page.
type Page struct {
	Runs     []Run
	Segments []graphicsstate.Segment
}

// Draw executes the content of page pageIndex.
func Draw(doc *writer.Document, pageIndex int) (*Page, error) {
	page, err := doc.Page(pageIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to get page %d: %w", pageIndex, err)
	}
	content, err := page.ContentData()
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", pageIndex, err)
	}
	resources, err := page.Resources()
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", pageIndex, err)
	}

	proc := graphicsstate.NewProcessor()
	if err := proc.Run(content, newResources(doc, resources)); err != nil {
		return nil, fmt.Errorf("page %d: %w", pageIndex, err)
	}

	decoder := charmap.Windows1252.NewDecoder()
	out := &Page{Segments: proc.Segments()}
	for _, r := range proc.TextRuns() {
		text, err := decoder.Bytes(r.Text)
		if err != nil {
			text = r.Text
		}
		out.Runs = append(out.Runs, Run{
			Text:     string(text),
			FontName: r.FontName,
			FontSize: r.FontSize,
			Origin:   r.Origin,
			Bounds:   r.Bounds,
		})
	}
	return out, nil
}

// TextRuns returns every string shown on page pageIndex in drawing order.
func TextRuns(doc *writer.Document, pageIndex int) ([]Run, error) {
	p, err := Draw(doc, pageIndex)
	if err != nil {
		return nil, err
	}
	return p.Runs, nil
}

// resources resolves page or form resources against a document.
type resources struct {
	doc   *writer.Document
	dict  core.Dict
	fonts map[string]graphicsstate.Font
}

func newResources(doc *writer.Document, dict core.Dict) *resources {
	return &resources{doc: doc, dict: dict, fonts: make(map[string]graphicsstate.Font)}
}

func (r *resources) entry(category, name string) (core.Object, error) {
	catObj, err := r.doc.Resolve(r.dict.Get(category))
	if err != nil {
		return nil, err
	}
	cat, ok := catObj.(core.Dict)
	if !ok {
		return nil, nil
	}
	return r.doc.Resolve(cat.Get(name))
}

// Font returns nil for fonts that are missing or not simple fonts; text in
// them is skipped.
func (r *resources) Font(name string) (graphicsstate.Font, error) {
	if f, ok := r.fonts[name]; ok {
		return f, nil
	}
	obj, err := r.entry("Font", name)
	if err != nil {
		return nil, fmt.Errorf("font %s: %w", name, err)
	}

	var f graphicsstate.Font
	if dict, ok := obj.(core.Dict); ok {
		sf, err := font.NewSimpleFont(dict, r.doc.ResolveReference)
		if err != nil {
			logging.Logger().Debug("skipping font", "name", name, "err", err)
		} else {
			f = sf
		}
	}
	r.fonts[name] = f
	return f, nil
}

// Form returns nil for image XObjects.
func (r *resources) Form(name string) (*graphicsstate.Form, error) {
	obj, err := r.entry("XObject", name)
	if err != nil {
		return nil, fmt.Errorf("xobject %s: %w", name, err)
	}
	stream, ok := obj.(*core.Stream)
	if !ok {
		return nil, nil
	}
	if subtype, _ := stream.Dict.GetName("Subtype"); subtype != "Form" {
		return nil, nil
	}

	data, err := stream.Decode()
	if err != nil {
		return nil, fmt.Errorf("form %s: %w", name, err)
	}

	matrix := model.Identity()
	if arr, ok := stream.Dict.GetArray("Matrix"); ok && len(arr) == 6 {
		for i := range arr {
			matrix[i], _ = core.ToFloat(arr[i])
		}
	}

	// Forms without their own resources use the caller's.
	res := r
	if resObj := stream.Dict.Get("Resources"); resObj != nil {
		resolved, err := r.doc.Resolve(resObj)
		if err != nil {
			return nil, fmt.Errorf("form %s resources: %w", name, err)
		}
		if dict, ok := resolved.(core.Dict); ok {
			res = newResources(r.doc, dict)
		}
	}
	return &graphicsstate.Form{Content: data, Matrix: matrix, Resources: res}, nil
}

// round keeps reported numbers readable.
func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
