package font

import (
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/encoding/charmap"
)

// Replacement is the code substituted for runes the face cannot encode.
const Replacement = '?'

// Face is a TrueType font used with WinAnsiEncoding.
type Face struct {
	name   string
	data   []byte
	widths [256]int
	glyphs [256]bool

	ascent      int
	descent     int
	capHeight   int
	bbox        [4]int
	italicAngle float64
	fixedPitch  bool
	bold        bool
}

// LoadFace reads and parses a TrueType file.
func LoadFace(path string) (*Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	face, err := ParseFace(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return face, nil
}

// ParseFace parses a TrueType font program and computes its WinAnsi
// metrics.
func ParseFace(data []byte) (*Face, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	var buf sfnt.Buffer
	upem := float64(f.UnitsPerEm())
	if upem <= 0 {
		return nil, fmt.Errorf("parse font: invalid units per em %v", upem)
	}
	// At ppem == unitsPerEm every 26.6 value is font units times 64.
	ppem := fixed.I(int(f.UnitsPerEm()))
	toThousandths := func(v fixed.Int26_6) int {
		return int(math.Round(float64(v) / 64 * 1000 / upem))
	}

	face := &Face{data: data}

	name, err := f.Name(&buf, sfnt.NameIDPostScript)
	if err != nil || name == "" {
		name = "Embedded"
	}
	face.name = sanitizeName(name)
	face.bold = strings.Contains(strings.ToLower(name), "bold")

	for code := 32; code < 256; code++ {
		r := charmap.Windows1252.DecodeByte(byte(code))
		if r == unicode.ReplacementChar || unicode.IsControl(r) {
			continue
		}
		gi, err := f.GlyphIndex(&buf, r)
		if err != nil || gi == 0 {
			continue
		}
		adv, err := f.GlyphAdvance(&buf, gi, ppem, xfont.HintingNone)
		if err != nil {
			continue
		}
		face.widths[code] = toThousandths(adv)
		face.glyphs[code] = true
	}
	if !face.glyphs[Replacement] {
		return nil, fmt.Errorf("parse font: %s has no glyph for %q", face.name, Replacement)
	}

	metrics, err := f.Metrics(&buf, ppem, xfont.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("parse font metrics: %w", err)
	}
	face.ascent = toThousandths(metrics.Ascent)
	face.descent = -toThousandths(metrics.Descent)
	face.capHeight = toThousandths(metrics.CapHeight)
	if face.capHeight == 0 {
		face.capHeight = face.ascent
	}

	// sfnt bounds have y pointing down.
	bounds, err := f.Bounds(&buf, ppem, xfont.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("parse font bounds: %w", err)
	}
	face.bbox = [4]int{
		toThousandths(bounds.Min.X),
		-toThousandths(bounds.Max.Y),
		toThousandths(bounds.Max.X),
		-toThousandths(bounds.Min.Y),
	}

	if post := f.PostTable(); post != nil {
		face.italicAngle = post.ItalicAngle
		face.fixedPitch = post.IsFixedPitch
	}

	return face, nil
}

// sanitizeName keeps the characters allowed in a PDF font name.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if r > 0x20 && r < 0x7f && !strings.ContainsRune("()<>[]{}/%#", r) {
			return r
		}
		return -1
	}, name)
}

// Name returns the PostScript name used as /BaseFont.
func (f *Face) Name() string { return f.name }

// Widths returns the advance width of every WinAnsi code in 1/1000 em.
// Codes without a glyph have width 0.
func (f *Face) Widths() [256]int { return f.widths }

// Width returns the advance of a single code in 1/1000 em.
func (f *Face) Width(code byte) int { return f.widths[code] }

// Ascent returns the ascender height in 1/1000 em.
func (f *Face) Ascent() int { return f.ascent }

// Descent returns the descender depth in 1/1000 em, as a negative number.
func (f *Face) Descent() int { return f.descent }

// Encode converts s to WinAnsi codes. Runes that have no code or no glyph
// in this face are replaced with '?' and returned in the second value.
func (f *Face) Encode(s string) ([]byte, []rune) {
	out := make([]byte, 0, len(s))
	var missing []rune
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok || !f.glyphs[b] {
			missing = append(missing, r)
			b = Replacement
		}
		out = append(out, b)
	}
	return out, missing
}

// MeasureCodes returns the advance of already encoded text at size points.
func (f *Face) MeasureCodes(codes []byte, size float64) float64 {
	total := 0
	for _, c := range codes {
		total += f.widths[c]
	}
	return float64(total) * size / 1000
}

// Measure returns the advance of s at size points.
func (f *Face) Measure(s string, size float64) float64 {
	codes, _ := f.Encode(s)
	return f.MeasureCodes(codes, size)
}
