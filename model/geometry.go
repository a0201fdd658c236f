package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidGeometry is returned by Validate for inconsistent settings.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Geometry is the set of layout constants shared by the layout engine and
// the link region reconstructor. Offsets ending in DY are measured upward
// from a slot's top line (its y base).
type Geometry struct {
	PageWidth  float64 `yaml:"page_width"`
	PageHeight float64 `yaml:"page_height"`

	// Slot i has its base line at YStart - SlotHeight*i.
	YStart     float64 `yaml:"y_start"`
	SlotHeight float64 `yaml:"slot_height"`
	SlotCount  int     `yaml:"slot_count"`

	Margin     float64 `yaml:"margin"`
	LinkRightX float64 `yaml:"link_right_x"`

	TitleDY      float64 `yaml:"title_dy"`
	SubheaderDY  float64 `yaml:"subheader_dy"`
	BulletsDY    float64 `yaml:"bullets_dy"`
	BulletIndent float64 `yaml:"bullet_indent"`

	UnderlineGap   float64 `yaml:"underline_gap"`
	UnderlineWidth float64 `yaml:"underline_width"`

	// Clickable band around the link label, relative to the y base.
	LinkDY0 float64 `yaml:"link_dy0"`
	LinkDY1 float64 `yaml:"link_dy1"`

	FontSize    float64 `yaml:"font_size"`
	LineSpacing float64 `yaml:"line_spacing"`

	HeaderFace  string `yaml:"header_face"`
	BodyFace    string `yaml:"body_face"`
	BulletGlyph string `yaml:"bullet_glyph"`
	BulletGap   string `yaml:"bullet_gap"`
}

// DefaultGeometry returns the US Letter layout with five item slots.
func DefaultGeometry() Geometry {
	return Geometry{
		PageWidth:      612,
		PageHeight:     792,
		YStart:         459,
		SlotHeight:     72.5,
		SlotCount:      5,
		Margin:         36,
		LinkRightX:     575,
		TitleDY:        57,
		SubheaderDY:    44,
		BulletsDY:      30,
		BulletIndent:   3,
		UnderlineGap:   2,
		UnderlineWidth: 0.5,
		LinkDY0:        54,
		LinkDY1:        67,
		FontSize:       11,
		LineSpacing:    1.2,
		HeaderFace:     "header",
		BodyFace:       "body",
		BulletGlyph:    "•",
		BulletGap:      "     ",
	}
}

// SlotTop returns the y base of slot i.
func (g Geometry) SlotTop(i int) float64 {
	return g.YStart - g.SlotHeight*float64(i)
}

// LineHeight is the distance between consecutive bullet baselines.
func (g Geometry) LineHeight() float64 {
	return g.FontSize * g.LineSpacing
}

// TitleBaseline returns the baseline shared by the title and link label of
// slot i.
func (g Geometry) TitleBaseline(i int) float64 {
	return g.SlotTop(i) + g.TitleDY
}

// SubheaderBaseline returns the subheader baseline of slot i.
func (g Geometry) SubheaderBaseline(i int) float64 {
	return g.SlotTop(i) + g.SubheaderDY
}

// BulletBaseline returns the baseline of bullet j in slot i.
func (g Geometry) BulletBaseline(i, j int) float64 {
	return g.SlotTop(i) + g.BulletsDY - float64(j)*g.LineHeight()
}

// maxBullets bounds BulletCapacity for degenerate line heights.
const maxBullets = 1 << 16

// BulletCapacity returns how many bullets fit in a slot, that is how many
// baselines stay at or above the slot's y base.
func (g Geometry) BulletCapacity() int {
	if g.LineHeight() <= 0 || g.BulletsDY < 0 {
		return 0
	}
	n := math.Floor(g.BulletsDY/g.LineHeight()) + 1
	if n > maxBullets {
		return maxBullets
	}
	return int(n)
}

// ToTopDown converts a bottom-up y coordinate to top-down.
func (g Geometry) ToTopDown(y float64) float64 {
	return g.PageHeight - y
}

// ToBottomUp converts a top-down y coordinate to bottom-up.
func (g Geometry) ToBottomUp(y float64) float64 {
	return g.PageHeight - y
}

// SlotRect returns the region reserved for slot i in bottom-up space.
func (g Geometry) SlotRect(i int) Rect {
	top := g.SlotTop(i)
	return Rect{X0: 0, Y0: top, X1: g.PageWidth, Y1: top + g.SlotHeight}
}

// extent is how far an item reaches above its y base: the top of the title
// line or of the link band, whichever is higher.
func (g Geometry) extent() float64 {
	top := g.TitleDY + g.FontSize
	if g.LinkDY1 > top {
		top = g.LinkDY1
	}
	return top
}

// Validate reports the first inconsistency in g, wrapped in
// ErrInvalidGeometry.
func (g Geometry) Validate() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidGeometry, fmt.Sprintf(format, args...))
	}

	switch {
	case g.PageWidth <= 0 || g.PageHeight <= 0:
		return fail("page size %gx%g must be positive", g.PageWidth, g.PageHeight)
	case g.SlotCount <= 0:
		return fail("slot count %d must be positive", g.SlotCount)
	case g.SlotHeight <= 0:
		return fail("slot height %g must be positive", g.SlotHeight)
	case g.FontSize <= 0:
		return fail("font size %g must be positive", g.FontSize)
	case g.LineSpacing <= 0:
		return fail("line spacing %g must be positive", g.LineSpacing)
	case g.SlotHeight <= g.extent():
		return fail("slot height %g does not exceed item extent %g", g.SlotHeight, g.extent())
	case g.LinkDY1 <= g.LinkDY0:
		return fail("link band [%g, %g] is empty", g.LinkDY0, g.LinkDY1)
	case g.LinkRightX <= g.Margin || g.LinkRightX > g.PageWidth:
		return fail("link column %g outside (%g, %g]", g.LinkRightX, g.Margin, g.PageWidth)
	case g.Margin-g.BulletIndent < 0:
		return fail("bullet column %g is left of the page", g.Margin-g.BulletIndent)
	case g.SlotTop(g.SlotCount-1) < 0:
		return fail("slot %d starts below the page at %g", g.SlotCount-1, g.SlotTop(g.SlotCount-1))
	case g.SlotTop(0)+g.extent() > g.PageHeight:
		return fail("slot 0 extends above the page")
	case g.HeaderFace == "" || g.BodyFace == "":
		return fail("font roles must be named")
	case g.HeaderFace == g.BodyFace:
		return fail("header and body share the font role %q", g.HeaderFace)
	}
	return nil
}
