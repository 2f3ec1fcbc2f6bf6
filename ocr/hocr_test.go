package ocr

import (
	"strings"
	"testing"
)

const sampleHOCR = `<!DOCTYPE html>
<html>
<body>
<div class='ocr_page' title='image "page.png"; bbox 0 0 1200 800'>
 <span class='ocr_line' title='bbox 100 60 400 90'>
  <span class='ocrx_word' title='bbox 120 66 210 88; x_wconf 93'>SF-P-1</span>
  <span class='ocrx_word' title='bbox 230 66 380 88; x_wconf 87'>SUPPLY</span>
 </span>
 <span class='ocr_line' title='bbox 100 100 400 130'>
  <span class='ocrx_word' title='bbox 120 106 180 128'>3.7</span>
  <span class='ocrx_word' title='bbox 200 106 260 128; x_wconf 91'>   </span>
 </span>
</div>
</body>
</html>`

func TestParseHOCR(t *testing.T) {
	tokens, err := parseHOCR(strings.NewReader(sampleHOCR))
	if err != nil {
		t.Fatalf("parseHOCR failed: %v", err)
	}

	// The whitespace-only word must be dropped.
	if len(tokens) != 3 {
		t.Fatalf("Expected 3 tokens, got %d", len(tokens))
	}

	first := tokens[0]
	if first.Text != "SF-P-1" {
		t.Errorf("Expected text SF-P-1, got %q", first.Text)
	}
	if first.Box.X0 != 120 || first.Box.Y0 != 66 || first.Box.X1 != 210 || first.Box.Y1 != 88 {
		t.Errorf("Unexpected bbox: %+v", first.Box)
	}
	if first.Conf != 93 {
		t.Errorf("Expected confidence 93, got %v", first.Conf)
	}

	if tokens[1].Text != "SUPPLY" || tokens[1].Conf != 87 {
		t.Errorf("Unexpected second token: %+v", tokens[1])
	}

	// No x_wconf property means unknown confidence.
	if tokens[2].Text != "3.7" {
		t.Errorf("Expected text 3.7, got %q", tokens[2].Text)
	}
	if tokens[2].Conf != -1 {
		t.Errorf("Expected confidence -1, got %v", tokens[2].Conf)
	}
}

func TestParseHOCRSkipsWordsWithoutBBox(t *testing.T) {
	doc := `<html><body>
<span class='ocrx_word' title='x_wconf 50'>orphan</span>
<span class='ocrx_word' title='bbox 0 0 10 10; x_wconf 50'>kept</span>
</body></html>`

	tokens, err := parseHOCR(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parseHOCR failed: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Text != "kept" {
		t.Fatalf("Expected only the word with a bbox, got %+v", tokens)
	}
}

func TestParseHOCREmptyDocument(t *testing.T) {
	tokens, err := parseHOCR(strings.NewReader("<html><body></body></html>"))
	if err != nil {
		t.Fatalf("parseHOCR failed: %v", err)
	}
	if len(tokens) != 0 {
		t.Fatalf("Expected no tokens, got %d", len(tokens))
	}
}

func TestParseHOCRNestedText(t *testing.T) {
	// Tesseract sometimes wraps word text in emphasis tags.
	doc := `<html><body>
<span class='ocrx_word' title='bbox 5 5 60 20; x_wconf 80'><strong>EF-B2-3</strong></span>
</body></html>`

	tokens, err := parseHOCR(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parseHOCR failed: %v", err)
	}
	if len(tokens) != 1 || tokens[0].Text != "EF-B2-3" {
		t.Fatalf("Expected nested text to be collected, got %+v", tokens)
	}
}
