// Package texture converts decoded bitmaps into Go images and writes them out
// in the formats the asset pipeline produces.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/draw"

	"github.com/Faultbox/gltut/pkg/formats"
)

// ErrInvalidColorKey is returned by ParseColorKey for unrecognized input.
var ErrInvalidColorKey = errors.New("invalid color key")

// Magenta is the conventional transparency key of legacy BMP textures.
var Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}

// FromBMP converts a decoded bitmap to RGBA. BMP rows are stored bottom-up
// in BGR order; the result is top-down and fully opaque.
func FromBMP(bmp *formats.BMP) *image.RGBA {
	width, height := int(bmp.Width), int(bmp.Height)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowLen := bmp.RowStride()

	for y := 0; y < height; y++ {
		src := bmp.Pixels[(height-1-y)*rowLen:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			dst[x*4] = src[x*3+2]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3]
			dst[x*4+3] = 255
		}
	}

	return img
}

// ParseColorKey parses "magenta", "#rrggbb", or "" (no key).
// The bool result reports whether a key was given.
func ParseColorKey(s string) (color.RGBA, bool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "none":
		return color.RGBA{}, false, nil
	case "magenta":
		return Magenta, true, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.RGBA{}, false, fmt.Errorf("%w: %q", ErrInvalidColorKey, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false, fmt.Errorf("%w: %q", ErrInvalidColorKey, s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true, nil
}

// MatchesKey checks if an RGB color is within tolerance of the key on every channel.
func MatchesKey(r, g, b uint8, key color.RGBA, tolerance uint8) bool {
	return within(r, key.R, tolerance) && within(g, key.G, tolerance) && within(b, key.B, tolerance)
}

// ApplyColorKey modifies an RGBA image in-place, making keyed pixels transparent.
// Also sets RGB to black on transparent pixels to prevent color bleeding during filtering.
func ApplyColorKey(img *image.RGBA, key color.RGBA, tolerance uint8) int {
	keyed := 0
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			i := img.PixOffset(x, y)
			if MatchesKey(img.Pix[i], img.Pix[i+1], img.Pix[i+2], key, tolerance) {
				img.Pix[i] = 0
				img.Pix[i+1] = 0
				img.Pix[i+2] = 0
				img.Pix[i+3] = 0
				keyed++
			}
		}
	}
	return keyed
}

// Fit scales img down so neither side exceeds maxSize, keeping the aspect ratio.
// Images already within bounds, or maxSize <= 0, are returned unchanged.
func Fit(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	if maxSize <= 0 || (b.Dx() <= maxSize && b.Dy() <= maxSize) {
		return img
	}

	w, h := maxSize, maxSize
	if b.Dx() > b.Dy() {
		h = max(1, b.Dy()*maxSize/b.Dx())
	} else {
		w = max(1, b.Dx()*maxSize/b.Dy())
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func within(v, target, tolerance uint8) bool {
	if v > target {
		return v-target <= tolerance
	}
	return target-v <= tolerance
}
