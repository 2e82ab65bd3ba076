package surface

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestAttrReplacesInPlace(t *testing.T) {
	e := New("path").Attr("class", "a").Attr("style", "fill:red").Attr("class", "b")

	attrs := e.Attrs()
	if len(attrs) != 2 {
		t.Fatalf("len(Attrs()) = %d, want 2", len(attrs))
	}
	if attrs[0].Name != "class" || attrs[0].Value != "b" {
		t.Errorf("attrs[0] = %+v, want class=b", attrs[0])
	}

	e.Remove("class")
	if _, ok := e.Get("class"); ok {
		t.Error("Remove() left class attribute behind")
	}
}

func TestInsertAndAppendOrder(t *testing.T) {
	g := Group()
	g.Append(New("a"))
	g.Append(New("b"))
	g.Insert(New("first"))

	var names []string
	for _, c := range g.Children {
		names = append(names, c.Name)
	}
	if got := strings.Join(names, ","); got != "first,a,b" {
		t.Errorf("children = %s, want first,a,b", got)
	}
}

func TestFindAndHasClass(t *testing.T) {
	g := Group().Attr("class", "node")
	label := g.Append(Group().Attr("class", "label big"))

	found := g.Find(func(e *Element) bool { return e.HasClass("label") })
	if found != label {
		t.Errorf("Find() = %v, want label group", found)
	}
	if g.Find(func(e *Element) bool { return e.HasClass("missing") }) != nil {
		t.Error("Find() should return nil when nothing matches")
	}
}

func TestRender(t *testing.T) {
	root := Group().Attr("class", "node").Attr("transform", "translate(10, 5)")
	root.Append(Path("M0,0 L10,0")).Attr("style", "fill:#fff")
	root.Append(Text("A & B")).Attr("transform", "translate(1.5, 2)")
	root.Append(New("rect").Attr("width", "4.5").Attr("height", "2"))

	data, err := Bytes(Document{Width: 20.2, Height: 10, Title: "demo", Root: root})
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`<svg`,
		`<title>demo</title>`,
		`class="node"`,
		`<path d="M0,0 L10,0"`,
		`style="fill:#fff"`,
		`A &amp; B`,
		`<rect width="4.5" height="2"/>`,
		`</svg>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() output missing %q\nGot: %s", want, out)
		}
	}
}

func TestEscapeXML(t *testing.T) {
	if got := EscapeXML(`<a href="x">`); got != "&lt;a href=&#34;x&#34;&gt;" {
		t.Errorf("EscapeXML() = %q", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRenderReportsWriteErrors(t *testing.T) {
	err := Render(failingWriter{}, Document{Width: 1, Height: 1, Root: Group()})
	if err == nil || err.Error() != "disk full" {
		t.Errorf("Render() error = %v, want disk full", err)
	}

	var buf bytes.Buffer
	if err := Render(&buf, Document{Width: 1, Height: 1}); err != nil {
		t.Errorf("Render() with nil root error = %v", err)
	}
}

func TestRenderPositionedText(t *testing.T) {
	root := Group()
	root.Append(Text("a<b")).Attr("x", "16.5").Attr("y", "21").Attr("class", "packetLabel")

	data, err := Bytes(Document{Width: 10, Height: 10, Root: root})
	if err != nil {
		t.Fatal(err)
	}
	want := `<text x="16.5" y="21" class="packetLabel">a&lt;b</text>`
	if !strings.Contains(string(data), want) {
		t.Errorf("output missing %q\nGot: %s", want, data)
	}
}

func TestRenderViewBoxCoversContent(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{"origin", Document{Width: 20.2, Height: 10}, `width="21" height="10"`},
		{"fractional offset", Document{MinX: -10.5, MinY: -5.5, Width: 20.6, Height: 11}, `viewBox="-11 -6 22 12"`},
		{"integral offset", Document{MinX: -4, MinY: 2, Width: 8, Height: 3}, `viewBox="-4 2 8 3"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Bytes(tt.doc)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("output missing %q\nGot: %s", tt.want, data)
			}
		})
	}
}
