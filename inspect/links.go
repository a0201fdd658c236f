package inspect

import (
	"fmt"

	"github.com/tsawler/linksheet/core"
	"github.com/tsawler/linksheet/model"
	"github.com/tsawler/linksheet/writer"
)

// underlineReach is how far below a baseline a stroke still counts as an
// underline.
const underlineReach = 5.0

// LinkCheck describes one link annotation and the text it sits over.
type LinkCheck struct {
	Index int
	URI   string
	Rect  model.Rect

	// Text and TextBounds describe the best covered run; Text is empty
	// when no run lies under the annotation.
	Text       string
	TextBounds model.Rect

	// Coverage is the fraction of the run's width inside Rect.
	Coverage float64

	// Underlined reports whether a stroke runs under the text.
	Underlined bool
}

// CheckLinks reports every /Link annotation of page pageIndex in
// annotation order.
func CheckLinks(doc *writer.Document, pageIndex int) ([]LinkCheck, error) {
	drawn, err := Draw(doc, pageIndex)
	if err != nil {
		return nil, err
	}
	page, err := doc.Page(pageIndex)
	if err != nil {
		return nil, err
	}
	annots, err := page.Annots()
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", pageIndex, err)
	}

	var checks []LinkCheck
	for i, a := range annots {
		obj, err := doc.Resolve(a)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		annot, ok := obj.(core.Dict)
		if !ok {
			continue
		}
		if subtype, _ := annot.GetName("Subtype"); subtype != "Link" {
			continue
		}
		rect, ok := rectOf(annot)
		if !ok {
			return nil, fmt.Errorf("annotation %d has no usable /Rect", i)
		}

		check := LinkCheck{Index: len(checks), URI: uriOf(doc, annot), Rect: rect}
		if run, cover := bestRun(rect, drawn.Runs); run != nil {
			check.Text = run.Text
			check.TextBounds = run.Bounds
			check.Coverage = round(cover)
			check.Underlined = underlined(run, drawn)
		}
		checks = append(checks, check)
	}
	return checks, nil
}

// CheckFile opens path and checks the links of its first page.
func CheckFile(path string) ([]LinkCheck, error) {
	doc, err := writer.Open(path)
	if err != nil {
		return nil, err
	}
	return CheckLinks(doc, 0)
}

func rectOf(annot core.Dict) (model.Rect, bool) {
	arr, ok := annot.GetArray("Rect")
	if !ok || len(arr) != 4 {
		return model.Rect{}, false
	}
	var v [4]float64
	for i := range arr {
		if v[i], ok = core.ToFloat(arr[i]); !ok {
			return model.Rect{}, false
		}
	}
	return model.NewRect(v[0], v[1], v[2], v[3]), true
}

func uriOf(doc *writer.Document, annot core.Dict) string {
	obj, err := doc.Resolve(annot.Get("A"))
	if err != nil {
		return ""
	}
	action, ok := obj.(core.Dict)
	if !ok {
		return ""
	}
	if s, _ := action.GetName("S"); s != "URI" {
		return ""
	}
	uri, _ := action.GetString("URI")
	return string(uri)
}

// bestRun picks the run whose width rect covers most among the runs it
// overlaps vertically.
func bestRun(rect model.Rect, runs []Run) (*Run, float64) {
	var best *Run
	bestCover := 0.0
	for i := range runs {
		r := &runs[i]
		if rect.VerticalOverlap(r.Bounds) <= 0 {
			continue
		}
		if cover := rect.HorizontalOverlap(r.Bounds); cover > bestCover {
			best, bestCover = r, cover
		}
	}
	return best, bestCover
}

// underlined reports whether a horizontal stroke spanning most of the run
// lies just below its baseline.
func underlined(run *Run, p *Page) bool {
	for _, s := range p.Segments {
		if !s.IsHorizontal(0.01) {
			continue
		}
		y := s.Start.Y
		if y > run.Origin.Y || y < run.Origin.Y-underlineReach {
			continue
		}
		line := model.NewRect(s.Start.X, y, s.End.X, y)
		if line.HorizontalOverlap(run.Bounds) >= 0.9 {
			return true
		}
	}
	return false
}
