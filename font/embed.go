package font

import (
	"fmt"

	"github.com/tsawler/linksheet/core"
)

// ObjectAdder stores an object in a document and returns its reference.
type ObjectAdder interface {
	Add(obj core.Object) core.IndirectRef
}

const (
	firstEmbeddedChar = 32
	lastEmbeddedChar  = 255

	flagNonsymbolic = 1 << 5
	flagFixedPitch  = 1 << 0
	flagItalic      = 1 << 6
)

// Embed adds the font program, descriptor and font dictionary to doc and
// returns the reference to the font dictionary.
func (f *Face) Embed(doc ObjectAdder) (core.IndirectRef, error) {
	program, err := core.NewFlateStream(core.Dict{"Length1": core.Int(len(f.data))}, f.data)
	if err != nil {
		return core.IndirectRef{}, fmt.Errorf("embed %s: %w", f.name, err)
	}
	programRef := doc.Add(program)

	descriptorRef := doc.Add(f.descriptor(programRef))

	widths := make(core.Array, 0, lastEmbeddedChar-firstEmbeddedChar+1)
	for code := firstEmbeddedChar; code <= lastEmbeddedChar; code++ {
		widths = append(widths, core.Int(f.widths[code]))
	}

	return doc.Add(core.Dict{
		"Type":           core.Name("Font"),
		"Subtype":        core.Name("TrueType"),
		"BaseFont":       core.Name(f.name),
		"FirstChar":      core.Int(firstEmbeddedChar),
		"LastChar":       core.Int(lastEmbeddedChar),
		"Widths":         widths,
		"Encoding":       core.Name("WinAnsiEncoding"),
		"FontDescriptor": descriptorRef,
	}), nil
}

func (f *Face) descriptor(program core.IndirectRef) core.Dict {
	flags := flagNonsymbolic
	if f.fixedPitch {
		flags |= flagFixedPitch
	}
	if f.italicAngle != 0 {
		flags |= flagItalic
	}
	// No font program records stem widths; these are the customary guesses.
	stemV := 80
	if f.bold {
		stemV = 120
	}

	return core.Dict{
		"Type":        core.Name("FontDescriptor"),
		"FontName":    core.Name(f.name),
		"Flags":       core.Int(flags),
		"FontBBox":    core.Array{core.Int(f.bbox[0]), core.Int(f.bbox[1]), core.Int(f.bbox[2]), core.Int(f.bbox[3])},
		"ItalicAngle": core.Real(f.italicAngle),
		"Ascent":      core.Int(f.ascent),
		"Descent":     core.Int(f.descent),
		"CapHeight":   core.Int(f.capHeight),
		"StemV":       core.Int(stemV),
		"FontFile2":   program,
	}
}
