// Package xml checks produced XML outputs: well-formedness and XPath
// queries over TMX and cesAlign files.
//
// Entity expansion is disabled in validation; xmlquery parses through
// encoding/xml and never fetches external entities.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/opusread/core/errors"
)

// Document is a parsed XML document.
type Document struct {
	root *xmlquery.Node
}

// Node is an element of a Document.
type Node struct {
	node *xmlquery.Node
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError locates one well-formedness error.
type ValidationError struct {
	Line    int
	Message string
}

func (e ValidationError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parse parses XML data.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &errors.ParseError{Format: "xml", Message: err.Error(), Err: err}
	}
	return &Document{root: root}, nil
}

// Validate checks that data is well-formed. Only the first error is reported.
func Validate(data []byte) ValidationResult {
	result := ValidationResult{Valid: true}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Entity = map[string]string{}

	for {
		_, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, _ := decoder.InputPos()
			if se, ok := err.(*xml.SyntaxError); ok {
				line = se.Line
			}
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{Line: line, Message: err.Error()})
			break
		}
	}
	return result
}

// Count returns the number of nodes matching expr in data.
func Count(data []byte, expr string) (int, error) {
	doc, err := Parse(data)
	if err != nil {
		return 0, err
	}
	nodes, err := doc.XPath(expr)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

// Root returns the document element.
func (d *Document) Root() *Node {
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return &Node{node: child}
		}
	}
	return nil
}

// XPath returns the nodes matching expr.
func (d *Document) XPath(expr string) ([]*Node, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, errors.NewValidation("xpath", expr, err.Error())
	}
	nodes := xmlquery.QuerySelectorAll(d.root, compiled)
	result := make([]*Node, len(nodes))
	for i, n := range nodes {
		result[i] = &Node{node: n}
	}
	return result, nil
}

// XPathFirst returns the first node matching expr, or nil.
func (d *Document) XPathFirst(expr string) (*Node, error) {
	nodes, err := d.XPath(expr)
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0], nil
}

// Name returns the element name.
func (n *Node) Name() string {
	return n.node.Data
}

// Text returns the text content of the node and its descendants.
func (n *Node) Text() string {
	return n.node.InnerText()
}

// Attr returns the value of an attribute.
func (n *Node) Attr(name string) string {
	return n.node.SelectAttr(name)
}

// Children returns the child elements.
func (n *Node) Children() []*Node {
	var children []*Node
	for child := n.node.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			children = append(children, &Node{node: child})
		}
	}
	return children
}
