package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"

	"github.com/Faultbox/gltut/pkg/formats"
)

// buildBMP writes a 24-bit bottom-up BMP with 4-byte aligned rows.
// pixel returns the RGB color of (x, y) in top-down coordinates.
func buildBMP(width, height int, pixel func(x, y int) color.RGBA) []byte {
	rowLen := (width*3 + 3) &^ 3
	imageSize := rowLen * height

	var buf bytes.Buffer
	buf.WriteString("BM")
	binary.Write(&buf, binary.LittleEndian, uint32(formats.BMPHeaderSize+imageSize))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, uint32(formats.BMPHeaderSize))

	binary.Write(&buf, binary.LittleEndian, uint32(40))
	binary.Write(&buf, binary.LittleEndian, uint32(width))
	binary.Write(&buf, binary.LittleEndian, uint32(height))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(24))
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	binary.Write(&buf, binary.LittleEndian, uint32(imageSize))
	buf.Write(make([]byte, 16))

	row := make([]byte, rowLen)
	for y := height - 1; y >= 0; y-- {
		for x := 0; x < width; x++ {
			c := pixel(x, y)
			row[x*3] = c.B
			row[x*3+1] = c.G
			row[x*3+2] = c.R
		}
		buf.Write(row)
	}
	return buf.Bytes()
}

func gradient(x, y int) color.RGBA {
	return color.RGBA{R: uint8(x * 40), G: uint8(y * 60), B: uint8(x + y), A: 255}
}

func TestFromBMP_MatchesReferenceDecoder(t *testing.T) {
	data := buildBMP(3, 2, gradient)

	decoded, err := formats.ParseBMP(data)
	if err != nil {
		t.Fatalf("failed to parse BMP: %v", err)
	}
	got := FromBMP(decoded)

	want, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("reference decoder failed: %v", err)
	}

	if got.Bounds() != want.Bounds() {
		t.Fatalf("bounds: expected %v, got %v", want.Bounds(), got.Bounds())
	}
	b := got.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := got.RGBAAt(x, y)
			r, gg, bb, a := want.At(x, y).RGBA()
			w := color.RGBA{R: uint8(r >> 8), G: uint8(gg >> 8), B: uint8(bb >> 8), A: uint8(a >> 8)}
			if g != w {
				t.Errorf("pixel (%d,%d): expected %v, got %v", x, y, w, g)
			}
		}
	}
}

func TestFromBMP_TopRowFirst(t *testing.T) {
	decoded, err := formats.ParseBMP(buildBMP(1, 2, func(x, y int) color.RGBA {
		if y == 0 {
			return color.RGBA{R: 255, A: 255}
		}
		return color.RGBA{B: 255, A: 255}
	}))
	if err != nil {
		t.Fatalf("failed to parse BMP: %v", err)
	}

	img := FromBMP(decoded)
	if c := img.RGBAAt(0, 0); c != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("top pixel: expected red, got %v", c)
	}
	if c := img.RGBAAt(0, 1); c != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("bottom pixel: expected blue, got %v", c)
	}
}

func TestParseColorKey(t *testing.T) {
	tests := []struct {
		input   string
		want    color.RGBA
		ok      bool
		wantErr bool
	}{
		{"", color.RGBA{}, false, false},
		{"none", color.RGBA{}, false, false},
		{"magenta", Magenta, true, false},
		{" Magenta ", Magenta, true, false},
		{"#00ff80", color.RGBA{R: 0, G: 255, B: 128, A: 255}, true, false},
		{"102030", color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 255}, true, false},
		{"#fff", color.RGBA{}, false, true},
		{"#gggggg", color.RGBA{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok, err := ParseColorKey(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidColorKey) {
					t.Fatalf("expected ErrInvalidColorKey, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tt.ok || got != tt.want {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.want, tt.ok, got, ok)
			}
		})
	}
}

func TestApplyColorKey(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 1))
	img.SetRGBA(0, 0, Magenta)
	img.SetRGBA(1, 0, color.RGBA{R: 250, G: 4, B: 252, A: 255})
	img.SetRGBA(2, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	keyed := ApplyColorKey(img, Magenta, 5)
	if keyed != 2 {
		t.Errorf("expected 2 keyed pixels, got %d", keyed)
	}
	if c := img.RGBAAt(0, 0); c != (color.RGBA{}) {
		t.Errorf("exact match: expected transparent black, got %v", c)
	}
	if c := img.RGBAAt(1, 0); c != (color.RGBA{}) {
		t.Errorf("near match: expected transparent black, got %v", c)
	}
	if c := img.RGBAAt(2, 0); c.A != 255 {
		t.Errorf("non-key pixel: expected opaque, got %v", c)
	}
}

func TestMatchesKey_Tolerance(t *testing.T) {
	if MatchesKey(240, 0, 255, Magenta, 10) {
		t.Error("expected no match at distance 15 with tolerance 10")
	}
	if !MatchesKey(245, 10, 255, Magenta, 10) {
		t.Error("expected match at distance 10 with tolerance 10")
	}
}

func TestFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 200, 100))

	tests := []struct {
		name    string
		maxSize int
		want    image.Rectangle
	}{
		{"no limit", 0, image.Rect(0, 0, 200, 100)},
		{"within bounds", 256, image.Rect(0, 0, 200, 100)},
		{"wide image", 50, image.Rect(0, 0, 50, 25)},
		{"minimum one pixel", 1, image.Rect(0, 0, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fit(src, tt.maxSize).Bounds(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	tall := Fit(image.NewRGBA(image.Rect(0, 0, 30, 120)), 60)
	if tall.Bounds() != image.Rect(0, 0, 15, 60) {
		t.Errorf("tall image: expected 15x60, got %v", tall.Bounds())
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{".WEBP", FormatWebP, false},
		{"tga", FormatTGA, false},
		{"jpg", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("%q: expected ErrUnsupportedFormat, got %v", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%q: expected %q, got %q (err %v)", tt.input, tt.want, got, err)
		}
	}
}

func TestEncode_PNGRoundTrip(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(1, 1, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	var buf bytes.Buffer
	if err := Encode(&buf, src, FormatPNG); err != nil {
		t.Fatalf("failed to encode: %v", err)
	}

	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("failed to decode PNG: %v", err)
	}
	r, g, b, _ := img.At(1, 1).RGBA()
	if r>>8 != 1 || g>>8 != 2 || b>>8 != 3 {
		t.Errorf("expected (1,2,3), got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestEncode_AllFormats(t *testing.T) {
	src := mustDecodeRGBA(t, buildBMP(4, 4, gradient))

	for _, f := range []Format{FormatPNG, FormatWebP, FormatTGA} {
		var buf bytes.Buffer
		if err := Encode(&buf, src, f); err != nil {
			t.Errorf("%s: failed to encode: %v", f, err)
			continue
		}
		if buf.Len() == 0 {
			t.Errorf("%s: expected output, got none", f)
		}
	}

	if err := Encode(&bytes.Buffer{}, src, Format("gif")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "tex.png")

	if err := Save(path, image.NewRGBA(image.Rect(0, 0, 1, 1))); err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected file at %s: %v", path, err)
	}

	if err := Save(filepath.Join(dir, "tex.bmp"), image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat for .bmp output, got %v", err)
	}
}

func mustDecodeRGBA(t *testing.T, data []byte) *image.RGBA {
	t.Helper()
	decoded, err := formats.ParseBMP(data)
	if err != nil {
		t.Fatalf("failed to parse BMP: %v", err)
	}
	return FromBMP(decoded)
}
