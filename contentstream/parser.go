package contentstream

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/tsawler/linksheet/core"
)

// Operation represents a single content stream operation consisting of an
// operator and its operands. Operands are PDF objects that precede the operator.
type Operation struct {
	Operator string
	Operands []core.Object
}

// Parser parses PDF content streams into a sequence of operations.
type Parser struct {
	data     []byte
	pos      int
	ops      []Operation
	operands []core.Object
}

// NewParser creates a new content stream parser for the given data.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Parse parses the content stream and returns all operations in order.
// Operands left over at the end of the stream are discarded.
func (p *Parser) Parse() ([]Operation, error) {
	for {
		p.skipSpaceAndComments()
		if p.pos >= len(p.data) {
			return p.ops, nil
		}
		if err := p.parseNext(); err != nil {
			return nil, err
		}
	}
}

// parseNext reads either an operand, which is pushed onto the stack, or an
// operator, which consumes the stack.
func (p *Parser) parseNext() error {
	start := p.pos
	c := p.data[p.pos]

	if isRegular(c) && !isNumberStart(c) {
		word := p.readWord()
		switch word {
		case "true":
			p.operands = append(p.operands, core.Bool(true))
		case "false":
			p.operands = append(p.operands, core.Bool(false))
		case "null":
			p.operands = append(p.operands, core.Null{})
		case "BI":
			return p.skipInlineImage()
		default:
			p.emit(word)
		}
		return nil
	}

	operand, err := p.parseOperand()
	if err != nil {
		return fmt.Errorf("at position %d: %w", start, err)
	}
	p.operands = append(p.operands, operand)
	return nil
}

func (p *Parser) emit(operator string) {
	op := Operation{Operator: operator}
	if len(p.operands) > 0 {
		op.Operands = p.operands
		p.operands = nil
	}
	p.ops = append(p.ops, op)
}

// readWord reads a run of regular characters. The quote operators ' and "
// are words too.
func (p *Parser) readWord() string {
	start := p.pos
	for p.pos < len(p.data) && isRegular(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// skipInlineImage skips "BI <dict> ID <data> EI" and records a single BI
// operation without operands.
func (p *Parser) skipInlineImage() error {
	idx := bytes.Index(p.data[p.pos:], []byte("ID"))
	if idx == -1 {
		return fmt.Errorf("inline image without ID")
	}
	p.pos += idx + 2
	for {
		idx := bytes.Index(p.data[p.pos:], []byte("EI"))
		if idx == -1 {
			return fmt.Errorf("inline image without EI")
		}
		p.pos += idx + 2
		before := p.pos - 3
		if before >= 0 && isWhitespace(p.data[before]) && (p.pos >= len(p.data) || !isRegular(p.data[p.pos])) {
			break
		}
	}
	p.operands = nil
	p.emit("BI")
	return nil
}

// parseOperand parses a number, string, name, array or dictionary.
func (p *Parser) parseOperand() (core.Object, error) {
	p.skipSpaceAndComments()
	if p.pos >= len(p.data) {
		return nil, fmt.Errorf("unexpected end of stream")
	}

	c := p.data[p.pos]
	switch {
	case isNumberStart(c):
		return p.parseNumber()
	case c == '(':
		return p.parseString()
	case c == '<' && p.pos+1 < len(p.data) && p.data[p.pos+1] == '<':
		return p.parseDict()
	case c == '<':
		return p.parseHexString()
	case c == '/':
		return p.parseName(), nil
	case c == '[':
		return p.parseArray()
	case isRegular(c):
		switch word := p.readWord(); word {
		case "true":
			return core.Bool(true), nil
		case "false":
			return core.Bool(false), nil
		case "null":
			return core.Null{}, nil
		default:
			return nil, fmt.Errorf("unexpected keyword %q inside operand", word)
		}
	}
	return nil, fmt.Errorf("unexpected character %q", c)
}

func (p *Parser) parseNumber() (core.Object, error) {
	start := p.pos
	if p.data[p.pos] == '+' || p.data[p.pos] == '-' {
		p.pos++
	}
	hasDecimal := false
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c == '.' && !hasDecimal {
			hasDecimal = true
		} else if c < '0' || c > '9' {
			break
		}
		p.pos++
	}

	numStr := string(p.data[start:p.pos])
	if hasDecimal {
		val, err := strconv.ParseFloat(numStr, 64)
		if err != nil {
			// "-." and similar degenerate reals read as zero.
			return core.Real(0), nil
		}
		return core.Real(val), nil
	}
	val, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return core.Int(0), nil
	}
	return core.Int(val), nil
}

// parseString parses a literal string (...) with escape sequence handling.
func (p *Parser) parseString() (core.Object, error) {
	p.pos++ // (

	var result bytes.Buffer
	depth := 1
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		p.pos++

		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return core.String(result.Bytes()), nil
			}
		case '\\':
			p.readEscape(&result)
			continue
		}
		result.WriteByte(c)
	}
	return nil, fmt.Errorf("unclosed string")
}

func (p *Parser) readEscape(out *bytes.Buffer) {
	if p.pos >= len(p.data) {
		return
	}
	next := p.data[p.pos]
	p.pos++

	switch next {
	case 'n':
		out.WriteByte('\n')
	case 'r':
		out.WriteByte('\r')
	case 't':
		out.WriteByte('\t')
	case 'b':
		out.WriteByte('\b')
	case 'f':
		out.WriteByte('\f')
	case '\r':
		if p.pos < len(p.data) && p.data[p.pos] == '\n' {
			p.pos++
		}
	case '\n':
	case '0', '1', '2', '3', '4', '5', '6', '7':
		val := int(next - '0')
		for i := 0; i < 2 && p.pos < len(p.data); i++ {
			d := p.data[p.pos]
			if d < '0' || d > '7' {
				break
			}
			val = val*8 + int(d-'0')
			p.pos++
		}
		out.WriteByte(byte(val))
	default:
		out.WriteByte(next)
	}
}

// parseHexString parses <...>; an odd final digit is padded with 0.
func (p *Parser) parseHexString() (core.Object, error) {
	p.pos++ // <

	var digits []byte
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		p.pos++
		if c == '>' {
			if len(digits)%2 == 1 {
				digits = append(digits, '0')
			}
			out := make([]byte, len(digits)/2)
			for i := range out {
				out[i] = hexValue(digits[2*i])<<4 | hexValue(digits[2*i+1])
			}
			return core.String(out), nil
		}
		if isWhitespace(c) {
			continue
		}
		if !isHexDigit(c) {
			return nil, fmt.Errorf("invalid hex digit: %c", c)
		}
		digits = append(digits, c)
	}
	return nil, fmt.Errorf("unclosed hex string")
}

// parseName parses /Name with #xx escapes.
func (p *Parser) parseName() core.Object {
	p.pos++ // /

	var result bytes.Buffer
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if isWhitespace(c) || isDelimiter(c) {
			break
		}
		if c == '#' && p.pos+2 < len(p.data) && isHexDigit(p.data[p.pos+1]) && isHexDigit(p.data[p.pos+2]) {
			result.WriteByte(hexValue(p.data[p.pos+1])<<4 | hexValue(p.data[p.pos+2]))
			p.pos += 3
			continue
		}
		result.WriteByte(c)
		p.pos++
	}
	return core.Name(result.String())
}

func (p *Parser) parseArray() (core.Object, error) {
	p.pos++ // [

	arr := core.Array{}
	for {
		p.skipSpaceAndComments()
		if p.pos >= len(p.data) {
			return nil, fmt.Errorf("unclosed array")
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return arr, nil
		}
		obj, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

// parseDict parses <<...>>, which appears as a BDC property list.
func (p *Parser) parseDict() (core.Object, error) {
	p.pos += 2 // <<

	dict := make(core.Dict)
	for {
		p.skipSpaceAndComments()
		if p.pos+1 >= len(p.data) {
			return nil, fmt.Errorf("unclosed dictionary")
		}
		if p.data[p.pos] == '>' && p.data[p.pos+1] == '>' {
			p.pos += 2
			return dict, nil
		}
		if p.data[p.pos] != '/' {
			return nil, fmt.Errorf("dictionary key must be a name")
		}
		key := p.parseName().(core.Name)

		value, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		dict[string(key)] = value
	}
}

func (p *Parser) skipSpaceAndComments() {
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch {
		case isWhitespace(c):
			p.pos++
		case c == '%':
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
		default:
			return
		}
	}
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	switch c {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// isRegular reports whether c can be part of an operator or keyword.
func isRegular(c byte) bool {
	return !isWhitespace(c) && !isDelimiter(c)
}

func isNumberStart(c byte) bool {
	return c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9')
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}
