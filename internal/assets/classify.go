package assets

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// Kind is the decoder an asset file belongs to.
type Kind int

// Asset kinds.
const (
	KindUnknown Kind = iota
	KindTexture
	KindMesh
)

func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

// sniffLen is how many leading bytes filetype needs to recognize a format.
const sniffLen = 262

// Classify decides the kind of the file at path. Known extensions win;
// otherwise the file content is sniffed so misnamed bitmaps are still found.
// OBJ is plain text and is recognized by extension only.
func Classify(path string) Kind {
	if k := kindFromExt(path); k != KindUnknown {
		return k
	}

	f, err := os.Open(path)
	if err != nil {
		return KindUnknown
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && n == 0 {
		return KindUnknown
	}
	return ClassifyContent(head[:n])
}

// ClassifyContent sniffs the leading bytes of a file.
func ClassifyContent(head []byte) Kind {
	t, err := filetype.Match(head)
	if err != nil || t == filetype.Unknown {
		return KindUnknown
	}
	if t.Extension == "bmp" {
		return KindTexture
	}
	return KindUnknown
}

func kindFromExt(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".bmp":
		return KindTexture
	case ".obj":
		return KindMesh
	default:
		return KindUnknown
	}
}
