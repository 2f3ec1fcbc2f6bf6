package plan2table

import (
	"context"
	"testing"

	"github.com/hayashi-antas/plan2table/model"
	"github.com/hayashi-antas/plan2table/reconcile"
)

func vectorFixturePage() model.PageGeometry {
	vline := func(x, y0, y1 float64) model.Line {
		return model.Line{P0: model.Point{X: x, Y: y0}, P1: model.Point{X: x, Y: y1}}
	}
	hline := func(y, x0, x1 float64) model.Line {
		return model.Line{P0: model.Point{X: x0, Y: y}, P1: model.Point{X: x1, Y: y}}
	}
	tok := func(text string, cx, cy float64) model.Token {
		return model.Token{Text: text, Box: model.NewBBox(cx-10, cy-5, cx+10, cy+5), Conf: -1}
	}

	// Two 19-column border grids with one data row each.
	rowYs := []float64{50, 110, 140, 170}
	grid := func(x0, colW float64) []model.Line {
		x1 := x0 + colW*19
		var out []model.Line
		for i := 0; i <= 19; i++ {
			out = append(out, vline(x0+colW*float64(i), rowYs[0], rowYs[len(rowYs)-1]))
		}
		for _, y := range rowYs {
			out = append(out, hline(y, x0, x1))
		}
		return out
	}
	lines := append(grid(20, 50), grid(1000, 50)...)

	col := func(x0, colW float64, i int) float64 { return x0 + colW*float64(i) + colW/2 }

	words := []model.Token{
		// Header block above the first data row.
		tok("EQUIPMENT", col(20, 50, 0), 60), tok("NAME", col(20, 50, 1), 60),
		tok("CAPACITY", col(20, 50, 9), 60), tok("COUNT", col(20, 50, 15), 60),
		tok("NO.", col(20, 50, 0), 80),
		tok("(kW)", col(20, 50, 9), 100),

		tok("SF-P-1", col(20, 50, 0), 120), tok("supply fan", col(20, 50, 1), 120),
		tok("3.7", col(20, 50, 9), 120), tok("2", col(20, 50, 15), 120),

		tok("PAC-1", col(1000, 50, 0), 120), tok("A/C unit", col(1000, 50, 1), 120),
		tok("2.2", col(1000, 50, 9), 120), tok("1", col(1000, 50, 15), 120),

		tok("DRAWING", 1800, 1380), tok("NO.", 1830, 1380), tok("M-201", 1870, 1380),
	}

	return model.PageGeometry{
		Number: 1,
		Width:  2000,
		Height: 1400,
		Lines:  lines,
		Words:  words,
		Tables: []model.BBox{model.NewBBox(20, 50, 970, 170), model.NewBBox(1000, 50, 1950, 170)},
	}
}

func TestChainMethodsDoNotMutateReceiver(t *testing.T) {
	base := New()
	strict := base.StrictCapacity().Tolerance(0.05)

	if base.options.reconcile.Policy != reconcile.PreferMax {
		t.Error("StrictCapacity mutated the base job")
	}
	if base.options.reconcile.Tolerance != 0.1 {
		t.Error("Tolerance mutated the base job")
	}
	if strict.options.reconcile.Policy != reconcile.Strict || strict.options.reconcile.Tolerance != 0.05 {
		t.Errorf("chained job lost its configuration: %+v", strict.options.reconcile)
	}
}

func TestNegativeToleranceFailsFast(t *testing.T) {
	_, err := New().Tolerance(-1).Run(context.Background())
	if err == nil {
		t.Fatal("expected an error for a negative tolerance")
	}
}

func TestRunRequiresWordSourceForSecondaryPages(t *testing.T) {
	_, err := New().SecondaryPages(RasterPage{Number: 1}).Run(context.Background())
	if err == nil {
		t.Fatal("expected an error when secondary pages have no word source")
	}
}

func TestRunEmptyDocuments(t *testing.T) {
	res, err := New().Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("expected no records, got %d", len(res.Records))
	}
}

func TestRunPrimaryOnly(t *testing.T) {
	res, err := New().
		PrimaryPages(vectorFixturePage()).
		Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Primary.Rows) != 2 {
		t.Fatalf("expected 2 primary rows, got %v", res.Primary.Rows)
	}
	if len(res.Records) != 2 {
		t.Fatalf("expected 2 reconciled records, got %d", len(res.Records))
	}

	rec := res.Records[0]
	if rec.EquipmentID != "SF-P-1" {
		t.Errorf("first record id = %q, want SF-P-1", rec.EquipmentID)
	}
	if rec.Verdict != reconcile.JudgmentMismatch {
		t.Errorf("verdict = %s, want mismatch for a record missing from the secondary document", rec.Verdict)
	}
	if rec.PrimaryDrawing != "M-201" {
		t.Errorf("primary drawing = %q, want M-201", rec.PrimaryDrawing)
	}
}

func TestMustPanicsOnError(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Must to panic on error")
		}
	}()
	Must(New().Tolerance(-1).Run(context.Background()))
}
