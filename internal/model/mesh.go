package model

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/gltut/pkg/formats"
	"github.com/Faultbox/gltut/pkg/math"
)

// degenerateSinSq bounds sin² of the corner angle below which a triangle is
// treated as degenerate, independent of its size.
const degenerateSinSq = 1e-12

// BuildMesh creates a mesh from a decoded OBJ file.
// Returns nil if the OBJ has no faces.
func BuildMesh(obj *formats.OBJ, opts BuildOptions) *Mesh {
	faces := obj.FaceCount()
	if faces == 0 {
		return nil
	}

	vertices := make([]Vertex, 0, faces*3)
	bounds := Bounds{
		Min: obj.Positions[0],
		Max: obj.Positions[0],
	}

	for f := 0; f < faces; f++ {
		base := f * 3

		var faceNormal [3]float32
		if opts.GenerateNormals {
			faceNormal = FaceNormal(obj.Positions[base], obj.Positions[base+1], obj.Positions[base+2])
		}

		for j := 0; j < 3; j++ {
			i := base + j
			pos := obj.Positions[i]
			updateBounds(&bounds, pos)

			normal := obj.Normals[i]
			if opts.GenerateNormals && math.V3(normal).Length() == 0 {
				normal = faceNormal
			}

			uv := obj.UVs[i]
			if opts.FlipV {
				uv = math.V2(uv).FlipV().Array()
			}

			vertices = append(vertices, Vertex{
				Position: pos,
				Normal:   normal,
				TexCoord: uv,
			})
		}
	}

	mesh := &Mesh{
		Vertices: vertices,
		Bounds:   bounds,
	}
	if opts.Indexed {
		mesh.Vertices, mesh.Indices = Deduplicate(vertices)
	}
	return mesh
}

// FaceNormal returns the unit normal of a counter-clockwise triangle, or the
// zero vector for a degenerate triangle.
func FaceNormal(a, b, c [3]float32) [3]float32 {
	v0, v1, v2 := math.V3(a), math.V3(b), math.V3(c)
	e1, e2 := v1.Sub(v0), v2.Sub(v0)
	n := e1.Cross(e2)
	if n.Dot(n) <= degenerateSinSq*e1.Dot(e1)*e2.Dot(e2) {
		return [3]float32{}
	}
	return n.Normalize().Array()
}

// Deduplicate merges bit-identical vertices, returning the unique vertices in
// first-seen order and an index list that reproduces the input sequence.
// +0 and -0 stay distinct and identical NaNs merge.
func Deduplicate(vertices []Vertex) ([]Vertex, []uint32) {
	unique := make([]Vertex, 0, len(vertices))
	indices := make([]uint32, len(vertices))
	seen := make(map[vertexKey]uint32, len(vertices))

	for i, v := range vertices {
		k := keyOf(v)
		idx, ok := seen[k]
		if !ok {
			idx = uint32(len(unique))
			seen[k] = idx
			unique = append(unique, v)
		}
		indices[i] = idx
	}
	return unique, indices
}

// vertexKey is the bit pattern of a vertex's interleaved components.
type vertexKey [VertexStride]uint32

func keyOf(v Vertex) vertexKey {
	return vertexKey{
		math32.Float32bits(v.Position[0]), math32.Float32bits(v.Position[1]), math32.Float32bits(v.Position[2]),
		math32.Float32bits(v.Normal[0]), math32.Float32bits(v.Normal[1]), math32.Float32bits(v.Normal[2]),
		math32.Float32bits(v.TexCoord[0]), math32.Float32bits(v.TexCoord[1]),
	}
}

// Interleave packs the vertices into a single float32 slice with
// VertexStride values per vertex.
func (m *Mesh) Interleave() []float32 {
	out := make([]float32, 0, len(m.Vertices)*VertexStride)
	for _, v := range m.Vertices {
		out = append(out,
			v.Position[0], v.Position[1], v.Position[2],
			v.Normal[0], v.Normal[1], v.Normal[2],
			v.TexCoord[0], v.TexCoord[1],
		)
	}
	return out
}

// DrawCount returns the number of vertices a triangle draw call consumes.
func (m *Mesh) DrawCount() int {
	if m.Indices != nil {
		return len(m.Indices)
	}
	return len(m.Vertices)
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return m.DrawCount() / 3
}

// Center returns the center of the bounding box.
func (b Bounds) Center() [3]float32 {
	return math.V3(b.Min).Add(math.V3(b.Max)).Scale(0.5).Array()
}

// Size returns the extent of the bounding box along each axis.
func (b Bounds) Size() [3]float32 {
	return math.V3(b.Max).Sub(math.V3(b.Min)).Array()
}

func updateBounds(b *Bounds, p [3]float32) {
	b.Min = math.V3(b.Min).Min(math.V3(p)).Array()
	b.Max = math.V3(b.Max).Max(math.V3(p)).Array()
}
