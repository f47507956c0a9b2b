package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// BMP format errors.
var (
	ErrInvalidBMPMagic    = errors.New("invalid BMP magic: expected 'BM'")
	ErrTruncatedHeader    = errors.New("truncated BMP header")
	ErrTruncatedPixelData = errors.New("truncated BMP pixel data")
	ErrInvalidDataOffset  = errors.New("invalid BMP pixel data offset")
	ErrInvalidImageSize   = errors.New("invalid image dimensions")
)

// BMPHeaderSize is the size of the fixed file + info header.
const BMPHeaderSize = 54

// Header field offsets.
const (
	bmpOffsetDataPos   = 0x0A
	bmpOffsetWidth     = 0x12
	bmpOffsetHeight    = 0x16
	bmpOffsetImageSize = 0x22
)

// maxBMPPixelBytes bounds the pixel buffer a header may ask for.
const maxBMPPixelBytes = 1 << 30

// BMPHeader holds the fields extracted from a BMP header.
// DataOffset and ImageSize are the values after default filling.
type BMPHeader struct {
	DataOffset uint32
	ImageSize  uint32
	Width      uint32
	Height     uint32
}

// BMP is a decoded bitmap. Pixels hold 3 bytes per pixel in the order stored
// in the file (BGR, bottom row first); no channel conversion is done.
type BMP struct {
	Header BMPHeader
	Width  uint32
	Height uint32
	Pixels []byte
}

// RowStride returns the unpadded length of one pixel row in bytes.
func (b *BMP) RowStride() int {
	return int(b.Width) * 3
}

// ParseBMPHeader extracts the header fields from the first 54 bytes of a BMP file.
// A zero image size is derived as width*height*3 and a zero data offset
// defaults to the end of the header.
func ParseBMPHeader(header []byte) (BMPHeader, error) {
	if len(header) < BMPHeaderSize {
		return BMPHeader{}, fmt.Errorf("%w: got %d of %d bytes", ErrTruncatedHeader, len(header), BMPHeaderSize)
	}
	if header[0] != 'B' || header[1] != 'M' {
		return BMPHeader{}, ErrInvalidBMPMagic
	}

	h := BMPHeader{
		DataOffset: readUint32LE(header, bmpOffsetDataPos),
		ImageSize:  readUint32LE(header, bmpOffsetImageSize),
		Width:      readUint32LE(header, bmpOffsetWidth),
		Height:     readUint32LE(header, bmpOffsetHeight),
	}

	derived := uint64(h.Width) * uint64(h.Height) * 3
	if derived > maxBMPPixelBytes {
		return BMPHeader{}, fmt.Errorf("%w: %dx%d", ErrInvalidImageSize, h.Width, h.Height)
	}

	// Some BMP writers leave these fields empty.
	if h.ImageSize == 0 {
		h.ImageSize = uint32(derived)
	}
	if h.DataOffset == 0 {
		h.DataOffset = BMPHeaderSize
	}
	if h.DataOffset < BMPHeaderSize {
		return BMPHeader{}, fmt.Errorf("%w: %d points inside the header", ErrInvalidDataOffset, h.DataOffset)
	}
	if uint64(h.ImageSize) > maxBMPPixelBytes {
		return BMPHeader{}, fmt.Errorf("%w: declared size %d", ErrInvalidImageSize, h.ImageSize)
	}

	return h, nil
}

// DecodeBMP decodes a BMP stream. Only the header fields needed to locate the
// pixel data are interpreted.
func DecodeBMP(r io.Reader) (*BMP, error) {
	header := make([]byte, BMPHeaderSize)
	n, err := io.ReadFull(r, header)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: got %d of %d bytes", ErrTruncatedHeader, n, BMPHeaderSize)
		}
		return nil, fmt.Errorf("reading BMP header: %w", err)
	}

	h, err := ParseBMPHeader(header)
	if err != nil {
		return nil, err
	}

	// Skip anything between the header and the pixel array (palette, masks, ICC).
	if gap := int64(h.DataOffset) - BMPHeaderSize; gap > 0 {
		skipped, err := io.CopyN(io.Discard, r, gap)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: file ends at %d, data offset is %d",
					ErrTruncatedPixelData, BMPHeaderSize+skipped, h.DataOffset)
			}
			return nil, fmt.Errorf("seeking to BMP pixel data: %w", err)
		}
	}

	// ReadAll over a limited reader so a lying header cannot force a huge allocation.
	data, err := io.ReadAll(io.LimitReader(r, int64(h.ImageSize)))
	if err != nil {
		return nil, fmt.Errorf("reading BMP pixel data: %w", err)
	}
	if len(data) < int(h.ImageSize) {
		return nil, fmt.Errorf("%w: got %d of %d bytes", ErrTruncatedPixelData, len(data), h.ImageSize)
	}

	pixels, err := packPixelRows(data, h.Width, h.Height)
	if err != nil {
		return nil, err
	}

	return &BMP{
		Header: h,
		Width:  h.Width,
		Height: h.Height,
		Pixels: pixels,
	}, nil
}

// ParseBMP decodes a BMP file held in memory.
func ParseBMP(data []byte) (*BMP, error) {
	return DecodeBMP(bytes.NewReader(data))
}

// ParseBMPFile decodes a BMP file from disk.
func ParseBMPFile(path string) (*BMP, error) {
	f, err := openAsset(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := DecodeBMP(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// packPixelRows returns exactly width*height*3 pixel bytes from data.
// Rows written with 4-byte alignment have their padding removed.
func packPixelRows(data []byte, width, height uint32) ([]byte, error) {
	rowLen := int(width) * 3
	want := rowLen * int(height)

	switch {
	case len(data) == want:
		return data, nil
	case len(data) < want:
		return nil, fmt.Errorf("%w: declared size %d is smaller than %dx%d RGB (%d bytes)",
			ErrTruncatedPixelData, len(data), width, height, want)
	}

	paddedRow := (rowLen + 3) &^ 3
	if paddedRow != rowLen && len(data) >= paddedRow*int(height) {
		pixels := make([]byte, want)
		for y := 0; y < int(height); y++ {
			copy(pixels[y*rowLen:(y+1)*rowLen], data[y*paddedRow:])
		}
		return pixels, nil
	}

	// Trailing bytes past the last row are ignored.
	return data[:want:want], nil
}

// readUint32LE reads a little-endian uint32 at the given header offset.
func readUint32LE(b []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(b[offset : offset+4])
}
