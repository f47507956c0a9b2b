// Package formats provides decoders for the image and mesh files used by the
// OpenGL tutorial programs: uncompressed 24-bit BMP textures and triangulated
// Wavefront OBJ meshes.
package formats

import (
	"errors"
	"fmt"
	"os"
)

// ErrFileOpen is returned when an asset file cannot be opened for reading.
// The underlying *fs.PathError is wrapped as well.
var ErrFileOpen = errors.New("cannot open asset file")

// openAsset opens path for reading. The caller owns the returned file.
func openAsset(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFileOpen, err)
	}
	return f, nil
}
