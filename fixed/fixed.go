/*
Package fixed converts floating point scene geometry into the fixed-point
values used by the console geometry transformation engine.

Matrix entries and normals use 12 fractional bits so 1.0 is 4096. Positions
are scaled so that one GTE unit of world space maps to 4096. The console's Y
axis points down, so the Y component of positions and normals is negated
during conversion, as is the Y angle of object rotation matrices. Z is left
as-is.
*/
package fixed

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// One is 1.0 in 4.12 fixed-point
const One = 4096

// WorldToFixed multiplies v by scale and rounds to the nearest integer.
// Values outside the int16 range are clamped rather than wrapped.
func WorldToFixed(v, scale float64) int16 {
	f := math.Round(v * scale)
	switch {
	case math.IsNaN(f):
		return 0
	case f > math.MaxInt16:
		return math.MaxInt16
	case f < math.MinInt16:
		return math.MinInt16
	}
	return int16(f)
}

// PositionScale returns the multiplier that maps world units to GTE units
// for the given GTE scaling factor
func PositionScale(gteScaling float64) float64 {
	return One / gteScaling
}

// Position converts a world space position
func Position(p [3]float64, scale float64) [3]int16 {
	return [3]int16{
		WorldToFixed(p[0], scale),
		WorldToFixed(-p[1], scale),
		WorldToFixed(p[2], scale),
	}
}

func Normal(n [3]float64) [3]int16 {
	return Position(n, One)
}

// Angles converts Euler angles in degrees to fixed-point radians. Unlike
// positions no axis is flipped.
func Angles(deg [3]float64) [3]int16 {
	var out [3]int16
	for i, d := range deg {
		out[i] = WorldToFixed(mgl64.DegToRad(d), One)
	}
	return out
}

// RotationMatrix builds the rotation matrix for Euler angles in degrees,
// applied in Z, X, Y order, after negating the Y angle. The result is
// indexed by row then column.
func RotationMatrix(deg [3]float64) [3][3]int16 {
	x := mgl64.DegToRad(deg[0])
	y := mgl64.DegToRad(-deg[1])
	z := mgl64.DegToRad(deg[2])

	m := mgl64.Rotate3DY(y).Mul3(mgl64.Rotate3DX(x)).Mul3(mgl64.Rotate3DZ(z))

	var out [3][3]int16
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			out[row][col] = WorldToFixed(m.At(row, col), One)
		}
	}
	return out
}

// UV converts a normalized texture coordinate into a texel offset for a
// texture of the given size. V is flipped so that 0 is the top row.
func UV(uv [2]float64, width, height int) [2]uint8 {
	texel := func(v float64, size int) uint8 {
		t := math.Round(v * float64(size-1))
		switch {
		case math.IsNaN(t) || t < 0:
			return 0
		case t > float64(size-1):
			return uint8(size - 1)
		}
		return uint8(t)
	}
	return [2]uint8{texel(uv[0], width), texel(1-uv[1], height)}
}
