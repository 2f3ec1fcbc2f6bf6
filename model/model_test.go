package model

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNewBBoxNormalizesCorners(t *testing.T) {
	b := NewBBox(10, 20, 5, 8)
	if b.X0 != 5 || b.Y0 != 8 || b.X1 != 10 || b.Y1 != 20 {
		t.Errorf("got %+v, want corners normalized to (5,8)-(10,20)", b)
	}
}

func TestBBoxDimensions(t *testing.T) {
	b := NewBBox(0, 0, 4, 3)
	if !almostEqual(b.Width(), 4) {
		t.Errorf("Width = %v, want 4", b.Width())
	}
	if !almostEqual(b.Height(), 3) {
		t.Errorf("Height = %v, want 3", b.Height())
	}
	if !almostEqual(b.Area(), 12) {
		t.Errorf("Area = %v, want 12", b.Area())
	}
	c := b.Center()
	if !almostEqual(c.X, 2) || !almostEqual(c.Y, 1.5) {
		t.Errorf("Center = %+v, want (2, 1.5)", c)
	}
}

func TestBBoxIntersection(t *testing.T) {
	a := NewBBox(0, 0, 10, 10)
	b := NewBBox(5, 5, 15, 15)

	if !a.Intersects(b) {
		t.Fatal("expected boxes to intersect")
	}
	inter := a.Intersection(b)
	if !almostEqual(inter.Area(), 25) {
		t.Errorf("intersection area = %v, want 25", inter.Area())
	}

	far := NewBBox(20, 20, 30, 30)
	if a.Intersects(far) {
		t.Error("disjoint boxes reported as intersecting")
	}
	if got := a.Intersection(far); !got.IsEmpty() {
		t.Errorf("intersection of disjoint boxes = %+v, want empty", got)
	}
}

func TestBBoxIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b BBox
		want float64
	}{
		{"identical", NewBBox(0, 0, 10, 10), NewBBox(0, 0, 10, 10), 1.0},
		{"disjoint", NewBBox(0, 0, 10, 10), NewBBox(20, 20, 30, 30), 0.0},
		{"half overlap", NewBBox(0, 0, 10, 10), NewBBox(0, 0, 10, 20), 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.IoU(tt.b); !almostEqual(got, tt.want) {
				t.Errorf("IoU = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBBoxOverlapRatioUsesSmallerBox(t *testing.T) {
	small := NewBBox(0, 0, 5, 5)
	big := NewBBox(0, 0, 100, 100)
	if got := small.OverlapRatio(big); !almostEqual(got, 1.0) {
		t.Errorf("OverlapRatio = %v, want 1.0 (small box fully covered)", got)
	}
}

func TestBBoxClamp(t *testing.T) {
	b := NewBBox(-5, -5, 50, 50)
	bounds := NewBBox(0, 0, 40, 40)
	got := b.Clamp(bounds)
	if got.X0 != 0 || got.Y0 != 0 || got.X1 != 40 || got.Y1 != 40 {
		t.Errorf("Clamp = %+v, want bounds box", got)
	}
}

func TestLineOrientation(t *testing.T) {
	v := Line{P0: Point{X: 10, Y: 0}, P1: Point{X: 10.5, Y: 100}}
	if !v.IsVertical(1.0) {
		t.Error("near-vertical line not detected with tol 1.0")
	}
	if v.IsHorizontal(1.0) {
		t.Error("vertical line reported horizontal")
	}

	h := Line{P0: Point{X: 0, Y: 30}, P1: Point{X: 200, Y: 30.2}}
	if !h.IsHorizontal(1.0) {
		t.Error("near-horizontal line not detected with tol 1.0")
	}
	if !almostEqual(h.Y(), 30.1) {
		t.Errorf("Y = %v, want 30.1", h.Y())
	}
}

func TestRowClusterBoxAndText(t *testing.T) {
	r := RowCluster{
		Tokens: []Token{
			{Text: "PAC-1", Box: NewBBox(100, 10, 140, 20)},
			{Text: "unit", Box: NewBBox(10, 12, 60, 22)},
		},
	}
	r.SortTokens()
	if r.Tokens[0].Text != "unit" {
		t.Errorf("tokens not sorted left to right: %q first", r.Tokens[0].Text)
	}
	if got := r.Text(" "); got != "unit PAC-1" {
		t.Errorf("Text = %q, want %q", got, "unit PAC-1")
	}
	box := r.Box()
	if box.X0 != 10 || box.X1 != 140 {
		t.Errorf("union box = %+v, want X span 10..140", box)
	}
}
