package cover

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/png"

	"github.com/disintegration/imaging"
)

const (
	DefaultMaxWidth    = 600
	defaultJPEGQuality = 90
	defaultMaxPixels   = 100 * 1000 * 1000 // 100 megapixels
)

// Normalizer shrinks covers wider than MaxWidth. Covers stored with a
// ".png" extension stay PNG, everything else is re-encoded as JPEG.
type Normalizer struct {
	MaxWidth    int
	JPEGQuality int
	MaxPixels   int // Total pixel count limit for decode (width * height)
}

// Normalized holds the bytes to store and their dimensions.
// Warning is set when the input was kept as-is because it could not be
// processed; Data is usable either way.
type Normalized struct {
	Data    []byte
	Width   int
	Height  int
	Resized bool
	Warning string
}

// NewNormalizer creates a normalizer resizing covers to maxWidth pixels.
// A non-positive maxWidth disables resizing.
func NewNormalizer(maxWidth int) *Normalizer {
	return &Normalizer{
		MaxWidth:    maxWidth,
		JPEGQuality: defaultJPEGQuality,
		MaxPixels:   defaultMaxPixels,
	}
}

// Normalize returns data resized to the normalizer width when it is wider.
// Only encoding errors that prevent producing any output return an error.
func (n *Normalizer) Normalize(data []byte, ext string) (Normalized, error) {
	out := Normalized{Data: data}
	if n.MaxWidth <= 0 {
		return out, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		out.Warning = fmt.Sprintf("image decode failed: %v", err)
		return out, nil
	}
	out.Width, out.Height = cfg.Width, cfg.Height

	if cfg.Width <= n.MaxWidth {
		return out, nil
	}

	pixels := uint64(cfg.Width) * uint64(cfg.Height)
	if n.MaxPixels > 0 && pixels > uint64(n.MaxPixels) {
		out.Warning = fmt.Sprintf("image too large to decode: %dx%d (%d pixels)", cfg.Width, cfg.Height, pixels)
		return out, nil
	}

	if animated, err := isAnimatedGIF(data); err == nil && animated {
		out.Warning = "animated gif kept as-is"
		return out, nil
	}

	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		out.Warning = fmt.Sprintf("image decode failed: %v", err)
		return out, nil
	}

	resized := imaging.Resize(src, n.MaxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if ext == ".png" {
		err = imaging.Encode(&buf, resized, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
	} else {
		quality := n.JPEGQuality
		if quality <= 0 || quality > 100 {
			quality = defaultJPEGQuality
		}
		err = imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality))
	}
	if err != nil {
		return out, fmt.Errorf("cover encode failed: %w", err)
	}

	out.Data = buf.Bytes()
	out.Width = resized.Bounds().Dx()
	out.Height = resized.Bounds().Dy()
	out.Resized = true

	return out, nil
}

func isAnimatedGIF(data []byte) (bool, error) {
	if !bytes.HasPrefix(data, []byte("GIF8")) {
		return false, nil
	}
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	return len(g.Image) > 1, nil
}
