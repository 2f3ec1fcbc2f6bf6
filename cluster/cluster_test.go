package cluster

import (
	"math"
	"testing"

	"github.com/hayashi-antas/plan2table/model"
)

func tok(text string, x0, y0, x1, y1 float64) model.Token {
	return model.Token{Text: text, Box: model.NewBBox(x0, y0, x1, y1), Conf: 90}
}

func TestByYEmpty(t *testing.T) {
	if got := ByY(nil, 8); got != nil {
		t.Errorf("ByY(nil) = %v, want nil", got)
	}
}

func TestByYGroupsNearbyCenters(t *testing.T) {
	tokens := []model.Token{
		tok("b", 50, 100, 80, 110),
		tok("a", 10, 102, 40, 112),
		tok("c", 10, 140, 40, 150),
	}
	rows := ByY(tokens, 8)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if got := rows[0].Text(" "); got != "a b" {
		t.Errorf("first row = %q, want %q (left-to-right order)", got, "a b")
	}
	if got := rows[1].Text(" "); got != "c" {
		t.Errorf("second row = %q, want %q", got, "c")
	}
	if rows[0].CenterY >= rows[1].CenterY {
		t.Error("rows not ordered top to bottom")
	}
}

// A gently sloping sequence must stay in one row as long as each token
// is within threshold of the running centroid.
func TestByYRunningCentroid(t *testing.T) {
	var tokens []model.Token
	for i := 0; i < 5; i++ {
		y := 100.0 + float64(i)*3 // centers 105, 108, ... drift slowly
		tokens = append(tokens, tok("w", float64(i*30), y, float64(i*30+20), y+10))
	}
	rows := ByY(tokens, 8)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 (centroid should absorb drift)", len(rows))
	}
}

func TestByYIsDeterministic(t *testing.T) {
	tokens := []model.Token{
		tok("x", 0, 0, 10, 10),
		tok("y", 20, 1, 30, 11),
		tok("z", 0, 50, 10, 60),
	}
	a := ByY(tokens, 5)
	b := ByY(tokens, 5)
	if len(a) != len(b) {
		t.Fatalf("row counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Text("|") != b[i].Text("|") {
			t.Errorf("row %d differs between runs", i)
		}
	}
}

// Every input token must land in exactly one row.
func TestByYPartitions(t *testing.T) {
	tokens := []model.Token{
		tok("a", 0, 0, 10, 10),
		tok("b", 0, 7, 10, 17),
		tok("c", 0, 100, 10, 110),
		tok("d", 0, 55, 10, 65),
	}
	rows := ByY(tokens, 6)
	total := 0
	for _, r := range rows {
		total += len(r.Tokens)
	}
	if total != len(tokens) {
		t.Errorf("partition lost tokens: %d clustered, %d in", total, len(tokens))
	}
}

func TestSplitByXGap(t *testing.T) {
	row := model.RowCluster{Tokens: []model.Token{
		tok("left1", 0, 0, 30, 10),
		tok("left2", 35, 0, 60, 10),
		tok("right", 200, 0, 230, 10),
	}}
	parts := SplitByXGap(row, 50)
	if len(parts) != 2 {
		t.Fatalf("got %d segments, want 2", len(parts))
	}
	if got := parts[0].Text(" "); got != "left1 left2" {
		t.Errorf("left segment = %q", got)
	}
	if got := parts[1].Text(" "); got != "right" {
		t.Errorf("right segment = %q", got)
	}
}

func TestSplitByXGapNoSplit(t *testing.T) {
	row := model.RowCluster{Tokens: []model.Token{
		tok("a", 0, 0, 30, 10),
		tok("b", 40, 0, 60, 10),
	}}
	parts := SplitByXGap(row, 50)
	if len(parts) != 1 {
		t.Fatalf("got %d segments, want 1", len(parts))
	}
}

func TestValues(t *testing.T) {
	got := Values([]float64{10.2, 9.8, 10.0, 50.1, 49.9}, 1.0)
	if len(got) != 2 {
		t.Fatalf("got %d clusters, want 2: %v", len(got), got)
	}
	if math.Abs(got[0]-10.0) > 0.01 {
		t.Errorf("first cluster mean = %v, want ~10.0", got[0])
	}
	if math.Abs(got[1]-50.0) > 0.01 {
		t.Errorf("second cluster mean = %v, want ~50.0", got[1])
	}
}

func TestXOverlapRatio(t *testing.T) {
	a := model.NewBBox(0, 0, 10, 10)
	b := model.NewBBox(5, 100, 15, 110) // Y-disjoint; only X matters
	if got := XOverlapRatio(a, b); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("XOverlapRatio = %v, want 0.5", got)
	}
	c := model.NewBBox(20, 0, 30, 10)
	if got := XOverlapRatio(a, c); got != 0 {
		t.Errorf("disjoint X intervals: got %v, want 0", got)
	}
}

func TestMedian(t *testing.T) {
	if got := Median([]float64{3, 1, 2}); got != 2 {
		t.Errorf("odd median = %v, want 2", got)
	}
	if got := Median([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("even median = %v, want 2.5", got)
	}
	if got := Median(nil); got != 0 {
		t.Errorf("empty median = %v, want 0", got)
	}
}

func TestMergedLength(t *testing.T) {
	cases := []struct {
		name      string
		intervals [][2]float64
		want      float64
	}{
		{"empty", nil, 0},
		{"disjoint", [][2]float64{{0, 30}, {70, 100}}, 60},
		{"overlapping", [][2]float64{{0, 40}, {20, 90}}, 90},
		{"touching", [][2]float64{{0, 50}, {50, 100}}, 100},
		{"reversed pair", [][2]float64{{100, 0}}, 100},
	}
	for _, c := range cases {
		if got := MergedLength(c.intervals); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("%s: MergedLength = %v, want %v", c.name, got, c.want)
		}
	}
}
