package graphicsstate

import (
	"fmt"

	"github.com/tsawler/linksheet/contentstream"
	"github.com/tsawler/linksheet/core"
	"github.com/tsawler/linksheet/model"
)

// maxFormDepth bounds nested Form XObject invocation.
const maxFormDepth = 16

// Font supplies the metrics needed to place shown strings.
// font.SimpleFont satisfies it.
type Font interface {
	Advance(code byte) float64
	VerticalExtent() (descent, ascent float64)
}

// Resources resolves the names a content stream refers to. Font returns a
// nil Font for fonts whose metrics cannot be read; strings shown in such a
// font are not reported. Form returns nil for XObjects that are not forms.
type Resources interface {
	Font(name string) (Font, error)
	Form(name string) (*Form, error)
}

// Form is a Form XObject ready to be executed.
type Form struct {
	Content   []byte
	Matrix    model.Matrix
	Resources Resources
}

// TextRun is one shown string with its device space placement.
type TextRun struct {
	Text     []byte
	FontName string
	FontSize float64
	Origin   model.Point
	Bounds   model.Rect
}

// Processor executes content streams and records the text and stroked
// lines they draw.
type Processor struct {
	gs       *GraphicsState
	path     Path
	font     Font
	runs     []TextRun
	segments []Segment
	depth    int
}

// NewProcessor creates a processor with a fresh graphics state.
func NewProcessor() *Processor {
	return &Processor{gs: NewGraphicsState()}
}

// GraphicsState returns the current state.
func (p *Processor) GraphicsState() *GraphicsState {
	return p.gs
}

// TextRuns returns every string shown so far in drawing order.
func (p *Processor) TextRuns() []TextRun {
	return p.runs
}

// Segments returns every stroked straight segment so far.
func (p *Processor) Segments() []Segment {
	return p.segments
}

// Run parses and executes content against res.
func (p *Processor) Run(content []byte, res Resources) error {
	ops, err := contentstream.NewParser(content).Parse()
	if err != nil {
		return fmt.Errorf("failed to parse content stream: %w", err)
	}
	for _, op := range ops {
		if err := p.execute(op, res); err != nil {
			return fmt.Errorf("operator %s: %w", op.Operator, err)
		}
	}
	return nil
}

func (p *Processor) execute(op contentstream.Operation, res Resources) error {
	gs := p.gs
	args := op.Operands

	switch op.Operator {
	case "q":
		gs.Save()
	case "Q":
		if err := gs.Restore(); err != nil {
			return err
		}
		p.font = nil
		if res != nil && gs.Text.FontName != "" {
			f, err := res.Font(gs.Text.FontName)
			if err != nil {
				return err
			}
			p.font = f
		}
	case "cm":
		if v, ok := floats(args, 6); ok {
			gs.Transform(model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]})
		}
	case "w":
		if v, ok := floats(args, 1); ok {
			gs.SetLineWidth(v[0])
		}
	case "G":
		if v, ok := floats(args, 1); ok {
			gs.SetStrokeColorRGB(v[0], v[0], v[0])
		}
	case "g":
		if v, ok := floats(args, 1); ok {
			gs.SetFillColorRGB(v[0], v[0], v[0])
		}
	case "RG":
		if v, ok := floats(args, 3); ok {
			gs.SetStrokeColorRGB(v[0], v[1], v[2])
		}
	case "rg":
		if v, ok := floats(args, 3); ok {
			gs.SetFillColorRGB(v[0], v[1], v[2])
		}
	case "K":
		if v, ok := floats(args, 4); ok {
			gs.SetStrokeColorRGB(cmykToRGB(v[0], v[1], v[2], v[3]))
		}
	case "k":
		if v, ok := floats(args, 4); ok {
			gs.SetFillColorRGB(cmykToRGB(v[0], v[1], v[2], v[3]))
		}

	case "BT":
		gs.BeginText()
	case "ET":
	case "Tf":
		if len(args) < 2 {
			return nil
		}
		name, _ := args[0].(core.Name)
		size, _ := core.ToFloat(args[1])
		gs.SetFont(string(name), size)
		if res == nil {
			p.font = nil
			return nil
		}
		f, err := res.Font(string(name))
		if err != nil {
			return err
		}
		p.font = f
	case "Tc":
		if v, ok := floats(args, 1); ok {
			gs.SetCharSpacing(v[0])
		}
	case "Tw":
		if v, ok := floats(args, 1); ok {
			gs.SetWordSpacing(v[0])
		}
	case "Tz":
		if v, ok := floats(args, 1); ok {
			gs.SetHorizontalScaling(v[0])
		}
	case "TL":
		if v, ok := floats(args, 1); ok {
			gs.SetLeading(v[0])
		}
	case "Tr":
		if v, ok := floats(args, 1); ok {
			gs.SetRenderingMode(int(v[0]))
		}
	case "Ts":
		if v, ok := floats(args, 1); ok {
			gs.SetTextRise(v[0])
		}
	case "Tm":
		if v, ok := floats(args, 6); ok {
			gs.SetTextMatrix(model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]})
		}
	case "Td":
		if v, ok := floats(args, 2); ok {
			gs.TranslateText(v[0], v[1])
		}
	case "TD":
		if v, ok := floats(args, 2); ok {
			gs.TranslateTextSetLeading(v[0], v[1])
		}
	case "T*":
		gs.NextLine()
	case "Tj":
		if len(args) > 0 {
			if s, ok := args[0].(core.String); ok {
				p.show([]byte(s))
			}
		}
	case "'":
		gs.NextLine()
		if len(args) > 0 {
			if s, ok := args[0].(core.String); ok {
				p.show([]byte(s))
			}
		}
	case "\"":
		if len(args) < 3 {
			return nil
		}
		if v, ok := floats(args[:2], 2); ok {
			gs.SetWordSpacing(v[0])
			gs.SetCharSpacing(v[1])
		}
		gs.NextLine()
		if s, ok := args[2].(core.String); ok {
			p.show([]byte(s))
		}
	case "TJ":
		if len(args) > 0 {
			if arr, ok := args[0].(core.Array); ok {
				p.showArray(arr)
			}
		}

	case "m":
		if v, ok := floats(args, 2); ok {
			p.path.MoveTo(p.device(v[0], v[1]))
		}
	case "l":
		if v, ok := floats(args, 2); ok {
			p.path.LineTo(p.device(v[0], v[1]))
		}
	case "c":
		if v, ok := floats(args, 6); ok {
			p.path.CurveTo(p.device(v[4], v[5]))
		}
	case "v", "y":
		if v, ok := floats(args, 4); ok {
			p.path.CurveTo(p.device(v[2], v[3]))
		}
	case "h":
		p.path.Close()
	case "re":
		if v, ok := floats(args, 4); ok {
			x, y, w, h := v[0], v[1], v[2], v[3]
			p.path.Rectangle([4]model.Point{
				p.device(x, y), p.device(x+w, y), p.device(x+w, y+h), p.device(x, y+h),
			})
		}
	case "S", "B", "B*":
		p.stroke()
	case "s", "b", "b*":
		p.path.Close()
		p.stroke()
	case "f", "F", "f*", "n":
		p.path.Reset()

	case "Do":
		if len(args) == 0 || res == nil {
			return nil
		}
		name, _ := args[0].(core.Name)
		form, err := res.Form(string(name))
		if err != nil {
			return err
		}
		if form != nil {
			return p.runForm(form)
		}
	}
	return nil
}

// runForm executes a form inside its own saved state.
func (p *Processor) runForm(form *Form) error {
	if p.depth >= maxFormDepth {
		return fmt.Errorf("form XObjects nested deeper than %d", maxFormDepth)
	}
	p.depth++
	defer func() { p.depth-- }()

	saved := p.font
	p.gs.Save()
	p.gs.Transform(form.Matrix)
	err := p.Run(form.Content, form.Resources)
	if rerr := p.gs.Restore(); err == nil && rerr != nil {
		err = rerr
	}
	p.font = saved
	return err
}

// device maps a user space point through the CTM.
func (p *Processor) device(x, y float64) model.Point {
	return p.gs.CTM.Transform(model.Point{X: x, Y: y})
}

func (p *Processor) stroke() {
	width := p.gs.LineWidth * abs(p.gs.CTM[3])
	p.segments = append(p.segments, p.path.Segments(width)...)
	p.path.Reset()
}

// show places codes glyph by glyph and records the run.
func (p *Processor) show(codes []byte) {
	if p.font == nil || len(codes) == 0 {
		return
	}
	gs := p.gs
	descent, ascent := p.font.VerticalExtent()

	run := TextRun{
		Text:     append([]byte(nil), codes...),
		FontName: gs.Text.FontName,
		FontSize: gs.GetEffectiveFontSize(),
	}
	run.Origin = gs.TextRenderingMatrix().Transform(model.Point{})

	first := true
	for _, c := range codes {
		w0 := p.font.Advance(c)
		glyph := gs.TextRenderingMatrix().TransformRect(model.Rect{X0: 0, Y0: descent, X1: w0, Y1: ascent})
		if first {
			run.Bounds = glyph
			first = false
		} else {
			run.Bounds = run.Bounds.Union(glyph)
		}
		gs.Advance(w0, c == ' ')
	}
	p.runs = append(p.runs, run)
}

// showArray handles TJ, where numbers shift the position between strings.
func (p *Processor) showArray(arr core.Array) {
	for _, item := range arr {
		switch v := item.(type) {
		case core.String:
			p.show([]byte(v))
		case core.Int, core.Real:
			adjust, _ := core.ToFloat(v)
			p.gs.Kern(adjust)
		}
	}
}

// floats converts the first n operands to numbers.
func floats(args []core.Object, n int) ([]float64, bool) {
	if len(args) < n {
		return nil, false
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, ok := core.ToFloat(args[i])
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

func cmykToRGB(c, m, y, k float64) (r, g, b float64) {
	return (1 - c) * (1 - k), (1 - m) * (1 - k), (1 - y) * (1 - k)
}
