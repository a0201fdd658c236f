package font

import (
	"fmt"
	"strings"

	"github.com/tsawler/linksheet/core"
)

// Resolver resolves indirect references inside a font dictionary.
type Resolver func(core.IndirectRef) (core.Object, error)

// defaultWidth is used for codes no metrics are known for.
const defaultWidth = 500

// SimpleFont holds the metrics of a single-byte PDF font (Type1, TrueType,
// MMType1 or Type3) as declared in its font dictionary.
type SimpleFont struct {
	BaseFont     string
	Subtype      string
	Encoding     string
	FirstChar    int
	Widths       []float64
	MissingWidth float64

	// Ascent and Descent come from the font descriptor in glyph space
	// units, defaulting to 800 and -200.
	Ascent  float64
	Descent float64

	// FontMatrix maps glyph space to text space. Only Type3 fonts set it;
	// for all others it is the 1/1000 scale.
	FontMatrix [6]float64
}

// NewSimpleFont reads a simple font dictionary. Composite (Type0) fonts are
// rejected.
func NewSimpleFont(fontDict core.Dict, resolve Resolver) (*SimpleFont, error) {
	subtype, _ := fontDict.GetName("Subtype")
	if subtype == "Type0" {
		return nil, fmt.Errorf("composite fonts are not supported")
	}
	baseFont, _ := fontDict.GetName("BaseFont")

	sf := &SimpleFont{
		BaseFont:   stripSubsetPrefix(string(baseFont)),
		Subtype:    string(subtype),
		Encoding:   "StandardEncoding",
		Ascent:     800,
		Descent:    -200,
		FontMatrix: [6]float64{0.001, 0, 0, 0.001, 0, 0},
	}

	if err := sf.parseEncoding(fontDict, resolve); err != nil {
		return nil, fmt.Errorf("failed to parse encoding: %w", err)
	}
	if err := sf.parseWidths(fontDict, resolve); err != nil {
		return nil, fmt.Errorf("failed to parse widths: %w", err)
	}
	sf.parseDescriptor(fontDict, resolve)

	if subtype == "Type3" {
		if m, ok := fontDict.GetArray("FontMatrix"); ok && len(m) == 6 {
			for i := range m {
				sf.FontMatrix[i], _ = core.ToFloat(m[i])
			}
		}
	}

	return sf, nil
}

// stripSubsetPrefix removes an "ABCDEF+" subset tag.
func stripSubsetPrefix(name string) string {
	if len(name) < 8 || name[6] != '+' {
		return name
	}
	for i := 0; i < 6; i++ {
		if name[i] < 'A' || name[i] > 'Z' {
			return name
		}
	}
	return name[7:]
}

func resolveObj(obj core.Object, resolve Resolver) (core.Object, error) {
	if ref, ok := obj.(core.IndirectRef); ok && resolve != nil {
		return resolve(ref)
	}
	return obj, nil
}

func (sf *SimpleFont) parseEncoding(fontDict core.Dict, resolve Resolver) error {
	enc, err := resolveObj(fontDict.Get("Encoding"), resolve)
	if err != nil {
		return err
	}
	switch v := enc.(type) {
	case nil:
	case core.Name:
		sf.Encoding = string(v)
	case core.Dict:
		// Differences only rename glyphs; widths are still indexed by code.
		if base, ok := v.GetName("BaseEncoding"); ok {
			sf.Encoding = string(base)
		}
	default:
		return fmt.Errorf("invalid encoding type: %T", enc)
	}
	return nil
}

func (sf *SimpleFont) parseWidths(fontDict core.Dict, resolve Resolver) error {
	if first, ok := fontDict.GetInt("FirstChar"); ok {
		sf.FirstChar = int(first)
	}

	obj, err := resolveObj(fontDict.Get("Widths"), resolve)
	if err != nil {
		return err
	}
	if obj == nil {
		return nil
	}
	arr, ok := obj.(core.Array)
	if !ok {
		return fmt.Errorf("widths is not an array: %T", obj)
	}

	sf.Widths = make([]float64, len(arr))
	for i, w := range arr {
		w, err := resolveObj(w, resolve)
		if err != nil {
			return err
		}
		v, ok := core.ToFloat(w)
		if !ok {
			return fmt.Errorf("invalid width type at index %d: %T", i, w)
		}
		sf.Widths[i] = v
	}
	return nil
}

func (sf *SimpleFont) parseDescriptor(fontDict core.Dict, resolve Resolver) {
	obj, err := resolveObj(fontDict.Get("FontDescriptor"), resolve)
	if err != nil {
		return
	}
	if fd, ok := obj.(core.Dict); ok {
		sf.MissingWidth, _ = fd.GetNumber("MissingWidth")
		if v, ok := fd.GetNumber("Ascent"); ok && v != 0 {
			sf.Ascent = v
		}
		if v, ok := fd.GetNumber("Descent"); ok && v != 0 {
			sf.Descent = v
		}
	}
}

// Width returns the advance of code in glyph space units (1/1000 em for
// everything but Type3).
func (sf *SimpleFont) Width(code byte) float64 {
	if i := int(code) - sf.FirstChar; sf.Widths != nil && i >= 0 && i < len(sf.Widths) {
		return sf.Widths[i]
	}
	if sf.Widths == nil {
		if w, ok := standardWidth(sf.BaseFont, code); ok {
			return w
		}
	}
	if sf.MissingWidth > 0 {
		return sf.MissingWidth
	}
	if sf.Widths != nil {
		return 0
	}
	return defaultWidth
}

// StringWidth returns the advance of a shown string in text space units
// before scaling by the font size.
func (sf *SimpleFont) StringWidth(codes []byte) float64 {
	total := 0.0
	for _, c := range codes {
		total += sf.Width(c)
	}
	return total * sf.FontMatrix[0]
}

// IsStandard reports whether the font is one of the standard 14 fonts that
// viewers supply metrics for.
func (sf *SimpleFont) IsStandard() bool {
	_, ok := standardWidths[sf.BaseFont]
	return ok || strings.HasPrefix(sf.BaseFont, "Courier") ||
		sf.BaseFont == "Symbol" || sf.BaseFont == "ZapfDingbats"
}

// Advance returns the advance of code in text space units before scaling by
// the font size.
func (sf *SimpleFont) Advance(code byte) float64 {
	return sf.Width(code) * sf.FontMatrix[0]
}

// VerticalExtent returns the descent and ascent in text space units before
// scaling by the font size.
func (sf *SimpleFont) VerticalExtent() (descent, ascent float64) {
	scale := sf.FontMatrix[3]
	if scale == 0 {
		scale = 0.001
	}
	return sf.Descent * scale, sf.Ascent * scale
}
