//go:build ignore

// This program generates the test BMP file for unit tests.
// Run with: go run generate_bmp.go
package main

import (
	"bytes"
	"encoding/binary"
	"os"
)

func main() {
	// 2x2 24-bit bitmap, rows bottom-up, each row padded to 8 bytes.
	// Bottom row: blue, green. Top row: red, white.
	rows := [][]byte{
		{255, 0, 0, 0, 255, 0, 0, 0},
		{0, 0, 255, 255, 255, 255, 0, 0},
	}
	imageSize := uint32(len(rows) * len(rows[0]))

	var buf bytes.Buffer

	// File header
	buf.WriteString("BM")
	binary.Write(&buf, binary.LittleEndian, uint32(54)+imageSize) // file size
	binary.Write(&buf, binary.LittleEndian, uint32(0))            // reserved
	binary.Write(&buf, binary.LittleEndian, uint32(54))           // data offset

	// Info header
	binary.Write(&buf, binary.LittleEndian, uint32(40)) // header size
	binary.Write(&buf, binary.LittleEndian, int32(2))   // width
	binary.Write(&buf, binary.LittleEndian, int32(2))   // height
	binary.Write(&buf, binary.LittleEndian, uint16(1))  // planes
	binary.Write(&buf, binary.LittleEndian, uint16(24)) // bits per pixel
	binary.Write(&buf, binary.LittleEndian, uint32(0))  // BI_RGB
	binary.Write(&buf, binary.LittleEndian, imageSize)
	binary.Write(&buf, binary.LittleEndian, int32(2835)) // 72 DPI
	binary.Write(&buf, binary.LittleEndian, int32(2835))
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // colors used
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // important colors

	for _, row := range rows {
		buf.Write(row)
	}

	if err := os.WriteFile("checker.bmp", buf.Bytes(), 0644); err != nil {
		panic(err)
	}
}
