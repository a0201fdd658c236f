package overlay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tsawler/linksheet/contentstream"
	"github.com/tsawler/linksheet/font"
	"github.com/tsawler/linksheet/internal/logging"
	"github.com/tsawler/linksheet/model"
)

var (
	// ErrSlotOverflow is returned when an item has more bullets than fit in
	// its slot and the overflow policy is OverflowError.
	ErrSlotOverflow = errors.New("bullets overflow slot")

	// ErrTooManyItems is returned when there are more items than slots.
	ErrTooManyItems = errors.New("more items than slots")
)

// OverflowPolicy decides what happens to bullets that do not fit.
type OverflowPolicy int

const (
	// OverflowError fails the render with ErrSlotOverflow.
	OverflowError OverflowPolicy = iota
	// OverflowClip drops the extra bullets and records a warning.
	OverflowClip
)

func (p OverflowPolicy) String() string {
	switch p {
	case OverflowError:
		return "error"
	case OverflowClip:
		return "clip"
	}
	return fmt.Sprintf("OverflowPolicy(%d)", int(p))
}

// ParseOverflow parses "error" or "clip". The empty string means error.
func ParseOverflow(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "error":
		return OverflowError, nil
	case "clip":
		return OverflowClip, nil
	}
	return OverflowError, fmt.Errorf("unknown overflow policy %q", s)
}

// Option configures an Engine.
type Option func(*Engine)

// WithOverflow sets the bullet overflow policy.
func WithOverflow(p OverflowPolicy) Option {
	return func(e *Engine) {
		e.overflow = p
	}
}

// Engine renders items into an overlay.
type Engine struct {
	geom     model.Geometry
	fonts    *font.Registry
	overflow OverflowPolicy

	// resource name per font role
	names map[string]string
	faces map[string]*font.Face
}

// NewEngine validates geom and checks that fonts has a face for both the
// header and body roles.
func NewEngine(geom model.Geometry, fonts *font.Registry, opts ...Option) (*Engine, error) {
	if err := geom.Validate(); err != nil {
		return nil, err
	}
	if fonts == nil {
		return nil, fmt.Errorf("font registry is nil")
	}

	e := &Engine{
		geom:  geom,
		fonts: fonts,
		names: make(map[string]string),
		faces: make(map[string]*font.Face),
	}
	for _, role := range []string{geom.HeaderFace, geom.BodyFace} {
		face, ok := fonts.Face(role)
		if !ok {
			return nil, fmt.Errorf("no font registered for role %q", role)
		}
		name := fmt.Sprintf("F%d", len(e.names)+1)
		e.names[role] = name
		e.faces[name] = face
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Geometry returns the engine's layout constants.
func (e *Engine) Geometry() model.Geometry {
	return e.geom
}

// Overlay is a rendered page overlay.
type Overlay struct {
	// Content is the content stream in bottom-up page coordinates.
	Content []byte

	// Fonts maps the resource names used in Content to their faces.
	Fonts map[string]*font.Face

	Placements []Placement
	Warnings   []model.Warning
}

// Placement records where the parts of one item were drawn. Points are
// baseline origins in bottom-up page coordinates.
type Placement struct {
	Item      int
	Title     model.Point
	Label     string
	LabelRect model.Rect
	Underline [2]model.Point
	Subheader model.Point
	Bullets   []model.Point
}

// Render lays out items, one per slot, and returns the overlay. Errors are
// ErrTooManyItems and ErrSlotOverflow; everything else is reported as a
// warning.
func (e *Engine) Render(items []model.Item) (*Overlay, error) {
	if len(items) > e.geom.SlotCount {
		return nil, fmt.Errorf("%w: %d items, %d slots", ErrTooManyItems, len(items), e.geom.SlotCount)
	}

	capacity := e.geom.BulletCapacity()
	if e.overflow == OverflowError {
		for i, item := range items {
			if len(item.Bullets) > capacity {
				return nil, fmt.Errorf("%w: item %d has %d bullets, slot holds %d",
					ErrSlotOverflow, i, len(item.Bullets), capacity)
			}
		}
	}

	r := &renderer{
		engine: e,
		w:      contentstream.NewWriter(),
	}
	r.w.Save().SetGray(0, false).SetGray(0, true)
	for i, item := range items {
		r.item(i, item, capacity)
	}
	r.w.Restore()

	fonts := make(map[string]*font.Face, len(e.faces))
	for name, face := range e.faces {
		fonts[name] = face
	}

	logging.Logger().Debug("overlay rendered",
		"items", len(items), "bytes", r.w.Len(), "warnings", len(r.warnings))

	return &Overlay{
		Content:    r.w.Bytes(),
		Fonts:      fonts,
		Placements: r.placements,
		Warnings:   r.warnings,
	}, nil
}

// renderer holds the state of a single Render call.
type renderer struct {
	engine     *Engine
	w          *contentstream.Writer
	placements []Placement
	warnings   []model.Warning
}

func (r *renderer) warn(item int, field, format string, args ...any) {
	w := model.Warning{Item: item, Field: field, Message: fmt.Sprintf(format, args...)}
	r.warnings = append(r.warnings, w)
	logging.Logger().Warn(w.Message, "item", item, "field", field)
}

func (r *renderer) item(i int, item model.Item, capacity int) {
	g := r.engine.geom
	header, body := g.HeaderFace, g.BodyFace

	p := Placement{
		Item:      i,
		Title:     model.Point{X: g.Margin, Y: g.TitleBaseline(i)},
		Subheader: model.Point{X: g.Margin, Y: g.SubheaderBaseline(i)},
	}

	r.text(i, "title", header, p.Title, item.Title)

	label := DisplayLink(item.Link)
	width := r.engine.fonts.MeasureText(label, header, g.FontSize)
	x0 := g.LinkRightX - width
	baseline := g.TitleBaseline(i)
	p.Label = label
	if r.text(i, "link", header, model.Point{X: x0, Y: baseline}, label) {
		face := r.engine.faces[r.engine.names[header]]
		p.LabelRect = model.Rect{
			X0: x0,
			Y0: baseline + float64(face.Descent())*g.FontSize/1000,
			X1: g.LinkRightX,
			Y1: baseline + float64(face.Ascent())*g.FontSize/1000,
		}
		uy := baseline - g.UnderlineGap
		p.Underline = [2]model.Point{{X: x0, Y: uy}, {X: g.LinkRightX, Y: uy}}
		r.w.Save().SetLineWidth(g.UnderlineWidth).Line(x0, uy, g.LinkRightX, uy).Restore()
	}

	r.text(i, "subheader", body, p.Subheader, item.Subheader)

	bullets := item.Bullets
	if len(bullets) > capacity {
		r.warn(i, "bullets", "%d of %d bullets do not fit and were dropped", len(bullets)-capacity, len(bullets))
		bullets = bullets[:capacity]
	}
	for j, bullet := range bullets {
		at := model.Point{X: g.Margin - g.BulletIndent, Y: g.BulletBaseline(i, j)}
		p.Bullets = append(p.Bullets, at)
		r.text(i, fmt.Sprintf("bullet %d", j), body, at, g.BulletGlyph+g.BulletGap+bullet)
	}

	r.placements = append(r.placements, p)
}

// text draws s at p in the face of role. Empty strings are not drawn and
// are reported; it returns whether anything was drawn.
func (r *renderer) text(item int, field, role string, p model.Point, s string) bool {
	if s == "" {
		r.warn(item, field, "empty")
		return false
	}
	name := r.engine.names[role]
	face := r.engine.faces[name]

	codes, missing := face.Encode(s)
	if len(missing) > 0 {
		r.warn(item, field, "replaced %d character(s) with no glyph: %q", len(missing), string(missing))
	}
	r.w.BeginText().
		SetFont(name, r.engine.geom.FontSize).
		MoveText(p.X, p.Y).
		ShowText(codes).
		EndText()
	return true
}
