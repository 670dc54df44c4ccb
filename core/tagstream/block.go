// Package tagstream turns a nested-tag character stream into a forward-only
// sequence of Block events.
//
// A Parser never holds more than the chain of currently open tags, so corpus
// files of any size can be processed with a bounded footprint. A Grouper
// layered on a Parser yields the blocks of one unit tag at a time (a
// sentence, a link group), which is how both sentence documents and
// alignment files are consumed.
package tagstream

import "sort"

// Attr is a single name/value attribute pair.
type Attr struct {
	Name  string
	Value string
}

// Attributes is an attribute list in document order.
type Attributes []Attr

// Get returns the value of the named attribute and whether it exists.
func (a Attributes) Get(name string) (string, bool) {
	for _, at := range a {
		if at.Name == name {
			return at.Value, true
		}
	}
	return "", false
}

// Value returns the value of the named attribute, or "" if absent.
func (a Attributes) Value(name string) string {
	v, _ := a.Get(name)
	return v
}

// Has reports whether the named attribute exists.
func (a Attributes) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// Names returns attribute names in document order.
func (a Attributes) Names() []string {
	names := make([]string, len(a))
	for i, at := range a {
		names[i] = at.Name
	}
	return names
}

// Sorted returns a copy ordered by attribute name.
func (a Attributes) Sorted() Attributes {
	out := make(Attributes, len(a))
	copy(out, a)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// With returns a copy with name set to value, replacing an existing
// attribute in place or appending a new one.
func (a Attributes) With(name, value string) Attributes {
	out := make(Attributes, len(a), len(a)+1)
	copy(out, a)
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Attr{Name: name, Value: value})
}

// Map returns the attributes as a map.
func (a Attributes) Map() map[string]string {
	m := make(map[string]string, len(a))
	for _, at := range a {
		m[at.Name] = at.Value
	}
	return m
}

// Block is one tag event.
//
// Opening events carry the tag name and attributes. Closing events carry the
// same name and attributes plus Data, the character data found directly
// inside the element (text inside child elements belongs to the children).
type Block struct {
	Name  string
	Attrs Attributes
	Data  string
	Close bool
}

// Unit is the ordered run of blocks from an opening unit tag up to and
// including its matching close.
type Unit []Block

// Open returns the opening block of the unit.
func (u Unit) Open() Block {
	return u[0]
}

// Close returns the closing block of the unit.
func (u Unit) Close() Block {
	return u[len(u)-1]
}

// Closed returns the closing blocks named name, in document order.
func (u Unit) Closed(name string) []Block {
	var out []Block
	for _, b := range u {
		if b.Close && b.Name == name {
			out = append(out, b)
		}
	}
	return out
}
