package surface

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// Document is a standalone SVG document wrapping an element tree.
type Document struct {
	Width, Height float64 // Canvas size in pixels (rounded up)
	MinX, MinY    float64 // Top-left of the view box
	Title         string  // Optional <title>
	Root          *Element
}

// Render writes doc as SVG to w.
func Render(w io.Writer, doc Document) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)

	// Snap the view box outwards so the content's far edges stay inside.
	minX, minY := floor(doc.MinX), floor(doc.MinY)
	width := ceil(doc.MinX+doc.Width) - minX
	height := ceil(doc.MinY+doc.Height) - minY
	canvas.Startview(width, height, minX, minY, width, height)
	if doc.Title != "" {
		canvas.Title(doc.Title)
	}
	if doc.Root != nil {
		writeElement(canvas, doc.Root)
	}
	canvas.End()
	return ew.err
}

// Bytes renders doc into memory.
func Bytes(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeElement(canvas *svg.SVG, e *Element) {
	switch e.Name {
	case "g":
		canvas.Group(e.rawAttrs()...)
		for _, c := range e.Children {
			writeElement(canvas, c)
		}
		canvas.Gend()
	case "path":
		d, _ := e.Get("d")
		canvas.Path(d, e.rawAttrs("d")...)
	case "text":
		if _, ok := e.Get("x"); ok {
			writeGeneric(canvas.Writer, e)
			return
		}
		canvas.Text(0, 0, e.Text, e.rawAttrs("x", "y")...)
	case "title":
		canvas.Title(e.Text)
	default:
		writeGeneric(canvas.Writer, e)
	}
}

func writeGeneric(w io.Writer, e *Element) {
	open := e.Name
	if attrs := e.rawAttrs(); len(attrs) > 0 {
		open += " " + strings.Join(attrs, " ")
	}
	if len(e.Children) == 0 && e.Text == "" {
		fmt.Fprintf(w, "<%s/>\n", open)
		return
	}
	fmt.Fprintf(w, "<%s>", open)
	if e.Text != "" {
		io.WriteString(w, EscapeXML(e.Text))
	}
	for _, c := range e.Children {
		writeGeneric(w, c)
	}
	fmt.Fprintf(w, "</%s>\n", e.Name)
}

func ceil(v float64) int  { return int(math.Ceil(v)) }
func floor(v float64) int { return int(math.Floor(v)) }

// errWriter remembers the first write error so svgo's error-less API can
// still report failures.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	if err != nil {
		ew.err = err
	}
	return n, err
}
