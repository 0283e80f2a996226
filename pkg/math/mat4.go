// Package math provides the matrix types used by the scene graph and renderer.
package math

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Mat4 is a 4x4 matrix in column-major order (OpenGL and glTF compatible).
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4(mgl32.Ident4())
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	return Mat4(mgl32.Translate3D(x, y, z))
}

// Scale returns a scale matrix.
func Scale(x, y, z float32) Mat4 {
	return Mat4(mgl32.Scale3D(x, y, z))
}

// UniformScale returns a matrix scaling all three axes by s.
func UniformScale(s float32) Mat4 {
	return Scale(s, s, s)
}

// RotateY returns a rotation of angle radians around the Y axis.
func RotateY(angle float32) Mat4 {
	return Mat4(mgl32.HomogRotate3DY(angle))
}

// FromTRS builds T * R * S from a translation, a unit quaternion (x, y, z, w)
// and a scale.
func FromTRS(t [3]float32, r [4]float32, s [3]float32) Mat4 {
	q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}
	if q.Len() == 0 {
		q = mgl32.QuatIdent()
	}
	m := mgl32.Translate3D(t[0], t[1], t[2]).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	return Mat4(m)
}

// FromFloat64 converts a column-major float64 matrix.
func FromFloat64(src [16]float64) Mat4 {
	var m Mat4
	for i, v := range src {
		m[i] = float32(v)
	}
	return m
}

// Mul multiplies this matrix by another (m * other).
func (m Mat4) Mul(other Mat4) Mat4 {
	var result Mat4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			result[col*4+row] =
				m[0*4+row]*other[col*4+0] +
					m[1*4+row]*other[col*4+1] +
					m[2*4+row]*other[col*4+2] +
					m[3*4+row]*other[col*4+3]
		}
	}
	return result
}

// TransformPoint transforms a 3D point by this matrix (assumes w=1).
func (m Mat4) TransformPoint(p [3]float32) [3]float32 {
	x := m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12]
	y := m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13]
	z := m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14]
	w := m[3]*p[0] + m[7]*p[1] + m[11]*p[2] + m[15]
	if w != 0 && w != 1 {
		return [3]float32{x / w, y / w, z / w}
	}
	return [3]float32{x, y, z}
}

// Translation returns the translation column.
func (m Mat4) Translation() [3]float32 {
	return [3]float32{m[12], m[13], m[14]}
}

// IsZero reports whether every element is zero.
func (m Mat4) IsZero() bool {
	return m == Mat4{}
}

// ApproxEqual reports whether every element of m and other differ by at most eps.
func (m Mat4) ApproxEqual(other Mat4, eps float32) bool {
	for i := range m {
		if !ApproxEqual32(m[i], other[i], eps) {
			return false
		}
	}
	return true
}

// Ptr returns a pointer to the first element (for OpenGL uniform calls).
func (m *Mat4) Ptr() *float32 {
	return &m[0]
}

// Length returns the magnitude of a 3D vector.
func Length(v [3]float32) float32 {
	return float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
}

// ApproxEqual32 reports whether a and b differ by at most eps.
func ApproxEqual32(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}
