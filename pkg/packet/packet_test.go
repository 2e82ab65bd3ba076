package packet

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/diagramkit/pkg/errors"
	"github.com/matzehuels/diagramkit/pkg/lang"
	langpacket "github.com/matzehuels/diagramkit/pkg/lang/packet"
)

func parse(t *testing.T, src string) *langpacket.Packet {
	t.Helper()
	b, err := langpacket.CreateServices(lang.EmptyFileSystem)
	if err != nil {
		t.Fatal(err)
	}
	ast, err := langpacket.Parse(b.Packet, src)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return ast
}

func TestBuildRows(t *testing.T) {
	ast := parse(t, `packet-beta
title TCP
0-15: "Source Port"
16-31: "Destination Port"
32-63: "Sequence Number"
+4: "Data Offset"
68: "Flag"
`)
	d, err := Build(ast, 0)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	want := [][]Block{
		{{0, 15, 16, "Source Port"}, {16, 31, 16, "Destination Port"}},
		{{32, 63, 32, "Sequence Number"}},
		{{64, 67, 4, "Data Offset"}, {68, 68, 1, "Flag"}},
	}
	if diff := cmp.Diff(want, d.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if d.Title != "TCP" || d.BitsPerRow != DefaultBitsPerRow {
		t.Errorf("Title = %q, BitsPerRow = %d", d.Title, d.BitsPerRow)
	}
}

func TestBuildSplitsAcrossRows(t *testing.T) {
	ast := parse(t, "packet-beta\n0-9: \"head\"\n10-69: \"payload\"\n")
	d, err := Build(ast, 32)
	if err != nil {
		t.Fatal(err)
	}

	want := [][]Block{
		{{0, 9, 10, "head"}, {10, 31, 22, "payload"}},
		{{32, 63, 32, "payload"}},
		{{64, 69, 6, "payload"}},
	}
	if diff := cmp.Diff(want, d.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if got := d.BlockCount(); got != 4 {
		t.Errorf("BlockCount() = %d, want 4", got)
	}
}

func TestBuildCustomRowWidth(t *testing.T) {
	ast := parse(t, "packet\n+8: \"a\"\n+8: \"b\"\n+4: \"c\"\n")
	d, err := Build(ast, 8)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(d.Rows))
	}
	if got := d.Rows[2][0]; got.Start != 16 || got.End != 19 {
		t.Errorf("last block = %+v", got)
	}
}

func TestBuildEmpty(t *testing.T) {
	d, err := Build(parse(t, "packet-beta\n"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if d.Rows == nil || len(d.Rows) != 0 {
		t.Errorf("Rows = %#v, want empty non-nil", d.Rows)
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"gap", "packet-beta\n0-7: \"a\"\n9-15: \"b\"", "line 3: packet block 9 - 15 is not contiguous, it should start from 8"},
		{"overlap", "packet-beta\n0-7: \"a\"\n7: \"b\"", "not contiguous"},
		{"late start", "packet-beta\n1: \"a\"", "should start from 0"},
		{"reversed", "packet-beta\n0-7: \"a\"\n15-8: \"b\"", "end must be greater than start"},
		{"zero bits", "packet-beta\n+0: \"a\"", "at least one bit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(parse(t, tt.src), 0)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidPacket) {
				t.Errorf("code = %s, want INVALID_PACKET", errors.GetCode(err))
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestBuildRowLimit(t *testing.T) {
	ast := parse(t, "packet-beta\n+320032: \"huge\"\n")
	_, err := Build(ast, 32)
	if !errors.Is(err, errors.ErrCodeInvalidPacket) {
		t.Errorf("Build() error = %v, want row limit", err)
	}
}

func TestBlockCountNil(t *testing.T) {
	var d *Diagram
	if d.BlockCount() != 0 {
		t.Error("nil diagram should have no blocks")
	}
}

func TestBuildNil(t *testing.T) {
	if _, err := Build(nil, 0); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Build(nil) error = %v", err)
	}
}
