package surface

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// Attr is a single attribute on an [Element].
type Attr struct {
	Name  string
	Value string
}

// Element is a node in an in-memory SVG tree.
//
// Attributes keep their insertion order so output is deterministic. Setting an
// attribute that already exists replaces its value in place, which means the
// last writer wins (a node style applied after a class style overrides it).
type Element struct {
	Name     string
	Text     string
	Children []*Element

	attrs []Attr
}

// New creates an element with the given tag name.
func New(name string) *Element {
	return &Element{Name: name}
}

// Group creates a <g> element.
func Group() *Element { return New("g") }

// Path creates a <path> element with the given path data.
func Path(d string) *Element { return New("path").Attr("d", d) }

// Text creates a <text> element.
func Text(s string) *Element {
	e := New("text")
	e.Text = s
	return e
}

// Attr sets name to value and returns e for chaining.
func (e *Element) Attr(name, value string) *Element {
	for i := range e.attrs {
		if e.attrs[i].Name == name {
			e.attrs[i].Value = value
			return e
		}
	}
	e.attrs = append(e.attrs, Attr{Name: name, Value: value})
	return e
}

// Get returns the value of the named attribute.
func (e *Element) Get(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Remove deletes the named attribute if present.
func (e *Element) Remove(name string) *Element {
	for i, a := range e.attrs {
		if a.Name == name {
			e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
			break
		}
	}
	return e
}

// Attrs returns a copy of the element's attributes in insertion order.
func (e *Element) Attrs() []Attr {
	out := make([]Attr, len(e.attrs))
	copy(out, e.attrs)
	return out
}

// Append adds child as the last child and returns the child.
func (e *Element) Append(child *Element) *Element {
	e.Children = append(e.Children, child)
	return child
}

// Insert adds child as the first child and returns the child.
func (e *Element) Insert(child *Element) *Element {
	e.Children = append([]*Element{child}, e.Children...)
	return child
}

// HasClass reports whether the class attribute contains class.
func (e *Element) HasClass(class string) bool {
	v, _ := e.Get("class")
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// Find returns the first descendant (depth-first, including e) for which
// match returns true.
func (e *Element) Find(match func(*Element) bool) *Element {
	if match(e) {
		return e
	}
	for _, c := range e.Children {
		if f := c.Find(match); f != nil {
			return f
		}
	}
	return nil
}

// rawAttrs formats attributes, except the excluded ones, as name="value"
// strings suitable for the svgo writer.
func (e *Element) rawAttrs(exclude ...string) []string {
	out := make([]string, 0, len(e.attrs))
	for _, a := range e.attrs {
		if contains(exclude, a.Name) {
			continue
		}
		out = append(out, a.Name+`="`+EscapeXML(a.Value)+`"`)
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// EscapeXML escapes s for use in XML text or attribute values.
func EscapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
