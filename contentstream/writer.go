package contentstream

import (
	"bytes"

	"github.com/tsawler/linksheet/core"
)

// Writer builds a content stream one operation at a time. Operands are
// serialized with core.Serialize so that strings and names are escaped the
// same way as in the rest of the document.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty content stream writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Op appends an operator with its operands on a line of its own.
func (w *Writer) Op(operator string, operands ...core.Object) *Writer {
	for _, operand := range operands {
		w.buf.Write(core.Serialize(operand))
		w.buf.WriteByte(' ')
	}
	w.buf.WriteString(operator)
	w.buf.WriteByte('\n')
	return w
}

// Raw appends pre-built content. A newline is added if data does not end
// with one.
func (w *Writer) Raw(data []byte) *Writer {
	w.buf.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		w.buf.WriteByte('\n')
	}
	return w
}

// Save emits q.
func (w *Writer) Save() *Writer { return w.Op("q") }

// Restore emits Q.
func (w *Writer) Restore() *Writer { return w.Op("Q") }

// BeginText emits BT.
func (w *Writer) BeginText() *Writer { return w.Op("BT") }

// EndText emits ET.
func (w *Writer) EndText() *Writer { return w.Op("ET") }

// SetFont emits Tf.
func (w *Writer) SetFont(name string, size float64) *Writer {
	return w.Op("Tf", core.Name(name), num(size))
}

// MoveText emits Td.
func (w *Writer) MoveText(tx, ty float64) *Writer {
	return w.Op("Td", num(tx), num(ty))
}

// ShowText emits Tj with already encoded single byte codes.
func (w *Writer) ShowText(codes []byte) *Writer {
	return w.Op("Tj", core.String(codes))
}

// SetLineWidth emits w.
func (w *Writer) SetLineWidth(width float64) *Writer {
	return w.Op("w", num(width))
}

// SetGray emits g (fill) or G (stroke).
func (w *Writer) SetGray(gray float64, stroke bool) *Writer {
	if stroke {
		return w.Op("G", num(gray))
	}
	return w.Op("g", num(gray))
}

// Line strokes a single segment from (x0, y0) to (x1, y1).
func (w *Writer) Line(x0, y0, x1, y1 float64) *Writer {
	w.Op("m", num(x0), num(y0))
	w.Op("l", num(x1), num(y1))
	return w.Op("S")
}

// Concat emits cm.
func (w *Writer) Concat(a, b, c, d, e, f float64) *Writer {
	return w.Op("cm", num(a), num(b), num(c), num(d), num(e), num(f))
}

// Do paints the named XObject.
func (w *Writer) Do(name string) *Writer {
	return w.Op("Do", core.Name(name))
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return w.buf.Len()
}

// Bytes returns a copy of the content written so far.
func (w *Writer) Bytes() []byte {
	return bytes.Clone(w.buf.Bytes())
}

// num keeps whole numbers as integers so the output stays compact.
func num(v float64) core.Object {
	if v == float64(int64(v)) {
		return core.Int(int64(v))
	}
	return core.Real(v)
}
