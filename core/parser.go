package core

import (
	"fmt"
	"io"
	"strconv"
)

// ReferenceResolver resolves indirect references. The parser needs one to
// read streams whose /Length is stored as a separate object.
type ReferenceResolver interface {
	ResolveReference(ref IndirectRef) (Object, error)
}

// Parser parses PDF objects from an io.Reader using a Lexer for tokenization.
type Parser struct {
	lexer    *Lexer
	current  *Token
	peek     *Token
	resolver ReferenceResolver
}

// NewParser creates a new PDF parser for the given reader and loads the first
// two tokens for lookahead.
func NewParser(r io.Reader) *Parser {
	p := &Parser{lexer: NewLexer(r)}
	p.advance()
	p.advance()
	return p
}

// SetReferenceResolver sets the resolver used for indirect stream lengths.
func (p *Parser) SetReferenceResolver(resolver ReferenceResolver) {
	p.resolver = resolver
}

// advance shifts the lookahead. Once "stream" becomes the current token the
// lexer is left untouched, because what follows is binary data.
func (p *Parser) advance() error {
	p.current = p.peek
	if p.current != nil && p.current.Type == TokenKeyword && string(p.current.Value) == "stream" {
		p.peek = nil
		return nil
	}

	token, err := p.lexer.NextToken()
	if err != nil {
		p.peek = nil
		return err
	}
	p.peek = token
	return nil
}

func (p *Parser) skipComments() {
	for p.current != nil && p.current.Type == TokenComment {
		p.advance()
	}
}

func (p *Parser) atKeyword(kw string) bool {
	return p.current != nil && p.current.Type == TokenKeyword && string(p.current.Value) == kw
}

// ParseObject parses and returns the next PDF object from the input.
func (p *Parser) ParseObject() (Object, error) {
	p.skipComments()
	if p.current == nil {
		return nil, fmt.Errorf("unexpected end of input")
	}

	tok := p.current
	switch tok.Type {
	case TokenEOF:
		return nil, io.EOF

	case TokenKeyword:
		switch string(tok.Value) {
		case "null":
			p.advance()
			return Null{}, nil
		case "true":
			p.advance()
			return Bool(true), nil
		case "false":
			p.advance()
			return Bool(false), nil
		}
		return nil, fmt.Errorf("unexpected keyword %q at position %d", tok.Value, tok.Pos)

	case TokenInteger:
		return p.parseNumber()

	case TokenReal:
		val, err := strconv.ParseFloat(string(tok.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid real number %q: %w", tok.Value, err)
		}
		p.advance()
		return Real(val), nil

	case TokenString:
		p.advance()
		return String(tok.Value), nil

	case TokenHexString:
		p.advance()
		return decodeHexString(tok.Value)

	case TokenName:
		p.advance()
		return Name(tok.Value), nil

	case TokenArrayStart:
		return p.parseArray()

	case TokenDictStart:
		return p.parseDict()
	}

	return nil, fmt.Errorf("unexpected token type %v at position %d", tok.Type, tok.Pos)
}

// parseNumber parses an integer, or an indirect reference when the integer is
// followed by another integer and R.
func (p *Parser) parseNumber() (Object, error) {
	first, err := strconv.ParseInt(string(p.current.Value), 10, 64)
	if err != nil {
		// Things like "1-2" lex as integers; treat them as reals if possible.
		f, ferr := strconv.ParseFloat(string(p.current.Value), 64)
		if ferr != nil {
			return nil, fmt.Errorf("invalid number %q", p.current.Value)
		}
		p.advance()
		return Real(f), nil
	}

	if p.peek != nil && p.peek.Type == TokenInteger {
		if second, err := strconv.ParseInt(string(p.peek.Value), 10, 64); err == nil {
			p.advance() // now at the second integer
			if p.peek != nil && p.peek.Type == TokenIndirectRef {
				p.advance() // R
				p.advance()
				return IndirectRef{Number: int(first), Generation: int(second)}, nil
			}
			// Plain integer; the second one stays current for the caller.
			return Int(first), nil
		}
	}

	p.advance()
	return Int(first), nil
}

func (p *Parser) parseArray() (Object, error) {
	p.advance() // [

	arr := Array{}
	for {
		p.skipComments()
		if p.current == nil || p.current.Type == TokenEOF {
			return nil, fmt.Errorf("unexpected end of input in array")
		}
		if p.current.Type == TokenArrayEnd {
			p.advance()
			return arr, nil
		}

		obj, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("error parsing array element: %w", err)
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDict() (Object, error) {
	p.advance() // <<

	dict := make(Dict)
	for {
		p.skipComments()
		if p.current == nil || p.current.Type == TokenEOF {
			return nil, fmt.Errorf("unexpected end of input in dictionary")
		}
		if p.current.Type == TokenDictEnd {
			p.advance()
			return dict, nil
		}
		if p.current.Type != TokenName {
			return nil, fmt.Errorf("expected name for dictionary key, got %v at position %d", p.current.Type, p.current.Pos)
		}

		key := string(p.current.Value)
		p.advance()

		value, err := p.ParseObject()
		if err != nil {
			return nil, fmt.Errorf("error parsing dictionary value for key '%s': %w", key, err)
		}
		dict[key] = value
	}
}

// ParseIndirectObject parses "num gen obj <object> endobj", where the object
// may be a dictionary followed by stream data.
func (p *Parser) ParseIndirectObject() (*IndirectObject, error) {
	p.skipComments()

	num, err := p.expectInt("object number")
	if err != nil {
		return nil, err
	}
	gen, err := p.expectInt("generation number")
	if err != nil {
		return nil, err
	}
	if !p.atKeyword("obj") {
		return nil, fmt.Errorf("expected 'obj' keyword after %d %d", num, gen)
	}
	p.advance()

	obj, err := p.ParseObject()
	if err != nil {
		return nil, fmt.Errorf("error parsing indirect object value: %w", err)
	}

	if p.atKeyword("stream") {
		dict, ok := obj.(Dict)
		if !ok {
			return nil, fmt.Errorf("stream must follow a dictionary")
		}
		stream, err := p.parseStream(dict)
		if err != nil {
			return nil, fmt.Errorf("error parsing stream: %w", err)
		}
		obj = stream
	}

	// A missing endobj is tolerated: many writers are sloppy about it and the
	// xref table already tells us where the next object starts.
	if p.atKeyword("endobj") {
		p.advance()
	}

	return &IndirectObject{
		Ref:    IndirectRef{Number: num, Generation: gen},
		Object: obj,
	}, nil
}

func (p *Parser) expectInt(what string) (int, error) {
	if p.current == nil || p.current.Type != TokenInteger {
		return 0, fmt.Errorf("expected %s", what)
	}
	v, err := strconv.Atoi(string(p.current.Value))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", what, err)
	}
	p.advance()
	return v, nil
}

// parseStream reads /Length bytes of data after the "stream" keyword and
// checks for "endstream".
func (p *Parser) parseStream(dict Dict) (*Stream, error) {
	length, err := p.streamLength(dict)
	if err != nil {
		return nil, err
	}

	if err := p.lexer.SkipStreamEOL(); err != nil {
		return nil, fmt.Errorf("failed to skip EOL after stream keyword: %w", err)
	}
	data, err := p.lexer.ReadBytes(length)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream data: %w", err)
	}

	token, err := p.lexer.NextToken()
	if err != nil {
		return nil, fmt.Errorf("failed to read token after stream data: %w", err)
	}
	if token.Type != TokenKeyword || string(token.Value) != "endstream" {
		return nil, fmt.Errorf("expected 'endstream' keyword, got %q", token.Value)
	}

	// Reload the lookahead past endstream.
	p.current, p.peek = nil, nil
	p.advance()
	p.advance()

	return &Stream{Dict: dict, Data: data}, nil
}

func (p *Parser) streamLength(dict Dict) (int, error) {
	var length Object = dict.Get("Length")
	if ref, ok := length.(IndirectRef); ok {
		if p.resolver == nil {
			return 0, fmt.Errorf("indirect reference for stream length requires a reference resolver")
		}
		resolved, err := p.resolver.ResolveReference(ref)
		if err != nil {
			return 0, fmt.Errorf("failed to resolve stream length reference: %w", err)
		}
		length = resolved
	}

	n, ok := length.(Int)
	if !ok {
		return 0, fmt.Errorf("invalid stream length: %v", length)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid stream length: %d", n)
	}
	return int(n), nil
}

// decodeHexString converts the digits of a hex string token to bytes. An odd
// trailing digit is padded with 0.
func decodeHexString(digits []byte) (Object, error) {
	if len(digits)%2 != 0 {
		digits = append(append([]byte{}, digits...), '0')
	}
	out := make([]byte, len(digits)/2)
	for i := 0; i < len(out); i++ {
		out[i] = hexValue(digits[2*i])<<4 | hexValue(digits[2*i+1])
	}
	return String(out), nil
}
