package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrMalformedFace   = errors.New("malformed OBJ face: expected three v/vt/vn triplets")
	ErrMalformedVertex = errors.New("malformed OBJ vertex attribute")
	ErrIndexOutOfRange = errors.New("OBJ face index out of range")
)

// maxOBJLine is the longest record the scanner accepts.
const maxOBJLine = 1 << 20

// OBJ is a flattened triangle mesh. Element i of Positions, UVs and Normals
// describes the same face corner; shared vertices are not merged, so every
// slice holds exactly 3*FaceCount() entries.
type OBJ struct {
	Positions [][3]float32
	UVs       [][2]float32
	Normals   [][3]float32
}

// FaceCount returns the number of triangles in the mesh.
func (o *OBJ) FaceCount() int {
	return len(o.Positions) / 3
}

// objPools holds the attribute pools and face index lists as declared in the
// file. Indices are kept 1-based and unvalidated until resolve.
type objPools struct {
	positions [][3]float32
	uvs       [][2]float32
	normals   [][3]float32

	positionIdx []int
	uvIdx       []int
	normalIdx   []int

	faceLines []int // source line of each face, for error context
}

// DecodeOBJ decodes an OBJ stream. Only v, vt, vn and triangular f records with
// full v/vt/vn triplets are understood; every other record kind is skipped.
func DecodeOBJ(r io.Reader) (*OBJ, error) {
	pools := &objPools{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxOBJLine)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var v [3]float32
			if v, err = parseVec3(fields[1:]); err == nil {
				pools.positions = append(pools.positions, v)
			}
		case "vt":
			var uv [2]float32
			if uv, err = parseVec2(fields[1:]); err == nil {
				pools.uvs = append(pools.uvs, uv)
			}
		case "vn":
			var n [3]float32
			if n, err = parseVec3(fields[1:]); err == nil {
				pools.normals = append(pools.normals, n)
			}
		case "f":
			err = pools.addFace(fields[1:], lineNo)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ data: %w", err)
	}

	return pools.resolve()
}

// ParseOBJ decodes an OBJ file held in memory.
func ParseOBJ(data []byte) (*OBJ, error) {
	return DecodeOBJ(bytes.NewReader(data))
}

// ParseOBJFile decodes an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	f, err := openAsset(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mesh, err := DecodeOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return mesh, nil
}

// addFace parses the three corner triplets of a face record. Nothing is
// appended unless all nine indices parse.
func (p *objPools) addFace(corners []string, lineNo int) error {
	if len(corners) != 3 {
		return fmt.Errorf("%w: got %d corners", ErrMalformedFace, len(corners))
	}

	var pos, uv, normal [3]int
	for i, corner := range corners {
		parts := strings.Split(corner, "/")
		if len(parts) != 3 {
			return fmt.Errorf("%w: corner %q", ErrMalformedFace, corner)
		}
		var err error
		if pos[i], err = strconv.Atoi(parts[0]); err != nil {
			return fmt.Errorf("%w: corner %q", ErrMalformedFace, corner)
		}
		if uv[i], err = strconv.Atoi(parts[1]); err != nil {
			return fmt.Errorf("%w: corner %q", ErrMalformedFace, corner)
		}
		if normal[i], err = strconv.Atoi(parts[2]); err != nil {
			return fmt.Errorf("%w: corner %q", ErrMalformedFace, corner)
		}
	}

	p.positionIdx = append(p.positionIdx, pos[:]...)
	p.uvIdx = append(p.uvIdx, uv[:]...)
	p.normalIdx = append(p.normalIdx, normal[:]...)
	p.faceLines = append(p.faceLines, lineNo)
	return nil
}

// resolve dereferences every face index against its pool in declaration order.
func (p *objPools) resolve() (*OBJ, error) {
	count := len(p.positionIdx)
	obj := &OBJ{
		Positions: make([][3]float32, count),
		UVs:       make([][2]float32, count),
		Normals:   make([][3]float32, count),
	}

	for i := 0; i < count; i++ {
		face := i / 3
		if err := checkIndex(p.positionIdx[i], len(p.positions), "position", face, p.faceLines[face]); err != nil {
			return nil, err
		}
		if err := checkIndex(p.uvIdx[i], len(p.uvs), "uv", face, p.faceLines[face]); err != nil {
			return nil, err
		}
		if err := checkIndex(p.normalIdx[i], len(p.normals), "normal", face, p.faceLines[face]); err != nil {
			return nil, err
		}

		obj.Positions[i] = p.positions[p.positionIdx[i]-1]
		obj.UVs[i] = p.uvs[p.uvIdx[i]-1]
		obj.Normals[i] = p.normals[p.normalIdx[i]-1]
	}

	return obj, nil
}

// checkIndex validates a 1-based index against a pool of the given size.
func checkIndex(idx, poolSize int, pool string, face, lineNo int) error {
	if idx < 1 || idx > poolSize {
		return fmt.Errorf("%w: line %d: face %d: %s index %d not in [1, %d]",
			ErrIndexOutOfRange, lineNo, face+1, pool, idx, poolSize)
	}
	return nil
}

func parseVec3(fields []string) ([3]float32, error) {
	var v [3]float32
	if len(fields) < 3 {
		return v, fmt.Errorf("%w: expected 3 components, got %d", ErrMalformedVertex, len(fields))
	}
	for i := range v {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, fmt.Errorf("%w: component %q", ErrMalformedVertex, fields[i])
		}
		v[i] = float32(f)
	}
	return v, nil
}

func parseVec2(fields []string) ([2]float32, error) {
	var v [2]float32
	if len(fields) < 2 {
		return v, fmt.Errorf("%w: expected 2 components, got %d", ErrMalformedVertex, len(fields))
	}
	for i := range v {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, fmt.Errorf("%w: component %q", ErrMalformedVertex, fields[i])
		}
		v[i] = float32(f)
	}
	return v, nil
}
