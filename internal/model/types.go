// Package model turns decoded OBJ meshes into vertex data ready for GPU upload.
package model

// VertexStride is the number of float32 values per interleaved vertex:
// position (3), normal (3), texture coordinate (2).
const VertexStride = 8

// Vertex represents a mesh vertex with position, normal, and texture coordinates.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Mesh holds the complete mesh data ready for GPU upload.
// Indices is nil for a flattened mesh, which is drawn with one vertex per
// face corner; an indexed mesh is drawn with an element buffer.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Bounds   Bounds
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// BuildOptions contains options for mesh building.
type BuildOptions struct {
	// FlipV replaces each texture coordinate v with 1-v, for textures whose
	// rows are stored top-down.
	FlipV bool
	// GenerateNormals replaces zero-length normals with the face normal.
	GenerateNormals bool
	// Indexed merges identical vertices and fills Mesh.Indices.
	Indexed bool
}
