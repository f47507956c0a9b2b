package math

// Vec2 is a 2D vector, used for texture coordinates.
type Vec2 struct {
	X, Y float32
}

// V2 converts an array pair into a Vec2.
func V2(a [2]float32) Vec2 {
	return Vec2{a[0], a[1]}
}

// Array returns the components as an array.
func (v Vec2) Array() [2]float32 {
	return [2]float32{v.X, v.Y}
}

// FlipV mirrors a texture coordinate vertically (v -> 1-v), converting between
// top-down and bottom-up image row order.
func (v Vec2) FlipV() Vec2 {
	return Vec2{v.X, 1 - v.Y}
}
