// Package imagemetrics measures photographic quality from decoded JPEG or
// PNG pixels: resolution, exposure, contrast and focus.
package imagemetrics

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"docverify/internal/verification/models"
)

const (
	// images are sampled on a grid so the longer side has at most this many points
	maxSamples = 1024

	// Laplacian variance at which focus scores 100
	sharpnessReference = 300.0

	// luminance standard deviation at which contrast scores 100
	contrastReference = 64.0
)

// Analyzer implements document.QualityAnalyzer without any remote call.
type Analyzer struct{}

func New() *Analyzer { return &Analyzer{} }

// AssessQuality decodes image and scores it. Width and Height are the full
// decoded dimensions; the scores are computed on a sampled grid.
func (a *Analyzer) AssessQuality(ctx context.Context, data []byte) (models.ImageQuality, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return models.ImageQuality{}, fmt.Errorf("decode image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return models.ImageQuality{}, err
	}
	return Measure(img), nil
}

// Measure scores an already decoded image.
func Measure(img image.Image) models.ImageQuality {
	b := img.Bounds()
	q := models.ImageQuality{Width: b.Dx(), Height: b.Dy()}
	gray, w, h := sample(img)
	if w < 3 || h < 3 {
		return q
	}

	mean, std := meanStd(gray)
	q.Brightness = round1(100 - math.Abs(mean-128)/128*100)
	q.Contrast = round1(math.Min(100, std/contrastReference*100))
	q.Sharpness = round1(math.Min(100, laplacianVariance(gray, w, h)/sharpnessReference*100))
	return q
}

func sample(img image.Image) ([]float64, int, int) {
	b := img.Bounds()
	step := 1
	if longest := max(b.Dx(), b.Dy()); longest > maxSamples {
		step = (longest + maxSamples - 1) / maxSamples
	}
	w := (b.Dx() + step - 1) / step
	h := (b.Dy() + step - 1) / step
	out := make([]float64, 0, w*h)
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			out = append(out, float64(g.Y))
		}
	}
	return out, w, h
}

func meanStd(v []float64) (float64, float64) {
	var sum float64
	for _, x := range v {
		sum += x
	}
	mean := sum / float64(len(v))
	var sq float64
	for _, x := range v {
		sq += (x - mean) * (x - mean)
	}
	return mean, math.Sqrt(sq / float64(len(v)))
}

// laplacianVariance is the variance of the 4-neighbour Laplacian over the
// interior pixels. Blurred images have little high-frequency energy.
func laplacianVariance(g []float64, w, h int) float64 {
	lap := make([]float64, 0, (w-2)*(h-2))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			lap = append(lap, g[i-w]+g[i+w]+g[i-1]+g[i+1]-4*g[i])
		}
	}
	_, std := meanStd(lap)
	return std * std
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
