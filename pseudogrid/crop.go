package pseudogrid

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/hayashi-antas/plan2table/model"
)

// WordSource produces positioned word tokens for an image. The OCR
// adapter satisfies this; tests substitute fixtures.
type WordSource interface {
	Words(img image.Image) ([]model.Token, error)
}

// cropImage copies the region of img bounded by box (page pixels)
// into a standalone RGBA image.
func cropImage(img image.Image, box model.BBox) *image.RGBA {
	r := image.Rect(int(box.X0), int(box.Y0), int(box.X1), int(box.Y1)).
		Intersect(img.Bounds())
	if r.Empty() {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Copy(dst, image.Point{}, img, r, xdraw.Src, nil)
	return dst
}

// ocrCrop runs the word source over a crop, upscaling narrow crops
// first (small glyphs OCR poorly) and mapping the boxes back to crop
// coordinates afterwards.
func ocrCrop(src WordSource, crop image.Image, cfg Config) ([]model.Token, error) {
	w := crop.Bounds().Dx()
	h := crop.Bounds().Dy()
	if w < 1 || h < 1 {
		return nil, nil
	}

	scale := 1.0
	if w < cfg.MinCropWidth {
		scale = float64(cfg.MinCropWidth) / float64(w)
		if scale > cfg.MaxUpscale {
			scale = cfg.MaxUpscale
		}
	}
	if scale <= 1.0 {
		return src.Words(crop)
	}

	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), crop, crop.Bounds(), xdraw.Src, nil)

	words, err := src.Words(dst)
	if err != nil {
		return nil, fmt.Errorf("re-ocr upscaled crop: %w", err)
	}
	for i := range words {
		words[i].Box = words[i].Box.Scale(1 / scale)
	}
	return words, nil
}

// sideBoxes returns the fixed left/right half-page regions used by the
// legacy extraction path.
func sideBoxes(w, h float64) map[string]model.BBox {
	return map[string]model.BBox{
		"L": {X0: 0, Y0: 0, X1: w / 2, Y1: h},
		"R": {X0: w / 2, Y0: 0, X1: w, Y1: h},
	}
}
