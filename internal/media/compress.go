package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// CompressionStats reports what the re-encode changed.
type CompressionStats struct {
	OriginalSize   int64   `json:"original_size"`
	CompressedSize int64   `json:"compressed_size"`
	Ratio          float64 `json:"ratio"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

// compress decodes the image, downsizes it preserving aspect ratio, and
// re-encodes it as JPEG at the given quality.
func compress(data []byte, maxWidth, maxHeight, quality int) ([]byte, CompressionStats, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, CompressionStats{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	newWidth, newHeight := fitDimensions(width, height, maxWidth, maxHeight)

	out := src
	if newWidth != width || newHeight != height {
		scaled := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, CompressionStats{}, fmt.Errorf("encode jpeg: %w", err)
	}

	stats := CompressionStats{
		OriginalSize:   int64(len(data)),
		CompressedSize: int64(buf.Len()),
		Width:          newWidth,
		Height:         newHeight,
	}
	if stats.OriginalSize > 0 {
		stats.Ratio = float64(stats.CompressedSize) / float64(stats.OriginalSize)
	}
	return buf.Bytes(), stats, nil
}

// fitDimensions caps the longer side at its maximum, scaling the other
// side to keep the aspect ratio. Images already inside the box are left
// alone.
func fitDimensions(width, height, maxWidth, maxHeight int) (int, int) {
	if width > height {
		if width > maxWidth {
			height = height * maxWidth / width
			width = maxWidth
		}
	} else {
		if height > maxHeight {
			width = width * maxHeight / height
			height = maxHeight
		}
	}
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return width, height
}
