package tagstream

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/FocuswithJustin/opusread/core/errors"
)

const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

type frame struct {
	name  string
	attrs Attributes
	text  strings.Builder
}

// Parser is a pull cursor over a tag stream.
type Parser struct {
	name  string
	dec   *xml.Decoder
	stack []*frame
	err   error
}

// NewParser returns a parser reading from r.
func NewParser(r io.Reader) *Parser {
	return NewNamedParser("", r)
}

// NewNamedParser returns a parser whose errors mention name.
func NewNamedParser(name string, r io.Reader) *Parser {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	// No entity expansion beyond the predefined XML entities.
	dec.Entity = map[string]string{}
	return &Parser{name: name, dec: dec}
}

// Next returns the next block in document order. It returns io.EOF once the
// stream is exhausted. After a ParseError every call returns that error.
func (p *Parser) Next() (Block, error) {
	if p.err != nil {
		return Block{}, p.err
	}
	for {
		tok, err := p.dec.Token()
		if err == io.EOF {
			if len(p.stack) > 0 {
				return Block{}, p.fail(nil, fmt.Sprintf("unexpected end of input inside <%s>", p.stack[len(p.stack)-1].name))
			}
			p.err = io.EOF
			return Block{}, io.EOF
		}
		if err != nil {
			return Block{}, p.fail(err, "")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			f := &frame{name: qualify(t.Name), attrs: convertAttrs(t.Attr)}
			p.stack = append(p.stack, f)
			return Block{Name: f.name, Attrs: f.attrs}, nil

		case xml.EndElement:
			f := p.stack[len(p.stack)-1]
			p.stack = p.stack[:len(p.stack)-1]
			return Block{Name: f.name, Attrs: f.attrs, Data: f.text.String(), Close: true}, nil

		case xml.CharData:
			if n := len(p.stack); n > 0 {
				p.stack[n-1].text.Write(t)
			}
		}
		// Comments, processing instructions and directives carry no blocks.
	}
}

func (p *Parser) fail(err error, msg string) error {
	line, _ := p.dec.InputPos()
	var syntax *xml.SyntaxError
	switch {
	case err == nil:
		p.err = &errors.ParseError{Format: "xml", Path: p.name, Line: line, Message: msg}
	case errors.As(err, &syntax):
		p.err = &errors.ParseError{Format: "xml", Path: p.name, Line: syntax.Line, Message: syntax.Msg, Err: err}
	default:
		p.err = errors.NewIO("read", p.name, err)
	}
	return p.err
}

func qualify(n xml.Name) string {
	switch n.Space {
	case "":
		return n.Local
	case xmlNamespace, "xml":
		return "xml:" + n.Local
	case "xmlns":
		return "xmlns:" + n.Local
	default:
		return n.Local
	}
}

func convertAttrs(in []xml.Attr) Attributes {
	if len(in) == 0 {
		return nil
	}
	out := make(Attributes, len(in))
	for i, a := range in {
		out[i] = Attr{Name: qualify(a.Name), Value: a.Value}
	}
	return out
}
