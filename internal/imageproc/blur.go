// Package imageproc renders stored photos with their detected regions blurred.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
	"github.com/disintegration/imaging"
)

// BlurRegions blurs the bounding box of every polygon. Boxes are clipped to the
// image; polygons lying fully outside are ignored.
func BlurRegions(r io.Reader, polygons []model.Polygon, format imaging.Format) (io.Reader, int64, error) {
	if r == nil {
		return nil, 0, errors.New("nil-reader image provided")
	}

	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, fmt.Errorf("decode image: %w", err)
	}

	rects := clippedRects(polygons, src.Bounds())

	var result image.Image = src
	if len(rects) > 0 {
		sigma := Sigma(rects)
		// окно с запасом в радиус ядра: внутри области результат тот же, что у размытия всей картинки
		margin := int(math.Ceil(sigma * 3))
		whole := image.Rect(0, 0, src.Bounds().Dx(), src.Bounds().Dy())

		out := imaging.Clone(src)
		for _, rc := range rects {
			window := rc.Inset(-margin).Intersect(whole)
			blurred := imaging.Blur(imaging.Crop(src, window), sigma)
			out = imaging.Paste(out, imaging.Crop(blurred, rc.Sub(window.Min)), rc.Min)
		}
		result = out
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, result, format); err != nil {
		return nil, 0, fmt.Errorf("encode result image: %w", err)
	}

	return &buf, int64(buf.Len()), nil
}

// MaxSigma caps the blur strength and with it the kernel radius.
const MaxSigma = 40

// Sigma grows with the average region area: area/10000*12, rounded up,
// at least 1 and at most MaxSigma.
func Sigma(rects []image.Rectangle) float64 {
	if len(rects) == 0 {
		return 1
	}
	var total float64
	for _, rc := range rects {
		total += float64(rc.Dx() * rc.Dy())
	}
	s := math.Ceil(total / float64(len(rects)) / 10000 * 12)
	return math.Min(math.Max(s, 1), MaxSigma)
}

func clippedRects(polygons []model.Polygon, bounds image.Rectangle) []image.Rectangle {
	rects := make([]image.Rectangle, 0, len(polygons))
	for _, p := range polygons {
		rc := p.Bounds().Intersect(bounds)
		if rc.Empty() {
			continue
		}
		// imaging.Crop/Paste работают в координатах от нуля
		rects = append(rects, rc.Sub(bounds.Min))
	}
	return rects
}
