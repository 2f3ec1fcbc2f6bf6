package ocr

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/hayashi-antas/plan2table/model"
)

// parseHOCR extracts word tokens from Tesseract hOCR markup. Each word
// is a span with class "ocrx_word" and a title attribute carrying the
// bounding box and confidence:
//
//	<span class='ocrx_word' title='bbox 120 66 210 88; x_wconf 93'>SF-P-1</span>
func parseHOCR(r io.Reader) ([]model.Token, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hOCR: %w", err)
	}

	var tokens []model.Token
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocrx_word") {
			if t, ok := wordToken(n); ok {
				tokens = append(tokens, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return tokens, nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func wordToken(n *html.Node) (model.Token, bool) {
	text := strings.TrimSpace(nodeText(n))
	if text == "" {
		return model.Token{}, false
	}

	box, conf, ok := parseTitle(attr(n, "title"))
	if !ok {
		return model.Token{}, false
	}
	return model.Token{Text: text, Box: box, Conf: conf}, true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}

// parseTitle reads the hOCR title properties. The bbox is required;
// x_wconf is optional and reported as -1 when absent.
func parseTitle(title string) (model.BBox, float64, bool) {
	var box model.BBox
	conf := -1.0
	haveBox := false

	for _, prop := range strings.Split(title, ";") {
		fields := strings.Fields(strings.TrimSpace(prop))
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "bbox":
			if len(fields) != 5 {
				continue
			}
			vals := make([]float64, 4)
			ok := true
			for i, f := range fields[1:] {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					ok = false
					break
				}
				vals[i] = v
			}
			if ok {
				box = model.NewBBox(vals[0], vals[1], vals[2], vals[3])
				haveBox = true
			}
		case "x_wconf":
			if len(fields) == 2 {
				if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
					conf = v
				}
			}
		}
	}

	return box, conf, haveBox
}
