package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NDCDepth selects the clip-space depth range of projection matrices.
type NDCDepth uint8

const (
	NDCDepthMinusOneToOne NDCDepth = iota
	NDCDepthZeroToOne
)

func NDCDepthFromHomogeneous(homogeneous bool) NDCDepth {
	if homogeneous {
		return NDCDepthMinusOneToOne
	}
	return NDCDepthZeroToOne
}

// NearClipZ is the clip-space depth of the near plane.
func (n NDCDepth) NearClipZ() float32 {
	if n == NDCDepthZeroToOne {
		return 0
	}
	return -1
}

// remaps z from [-1,1] to [0,1]
var zeroToOneDepth = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

func Perspective(fovyRadians, aspect, near, far float32, ndc NDCDepth) mgl32.Mat4 {
	m := mgl32.Perspective(fovyRadians, aspect, near, far)
	if ndc == NDCDepthZeroToOne {
		return zeroToOneDepth.Mul4(m)
	}
	return m
}

func Ortho(left, right, bottom, top, near, far float32, ndc NDCDepth) mgl32.Mat4 {
	m := mgl32.Ortho(left, right, bottom, top, near, far)
	if ndc == NDCDepthZeroToOne {
		return zeroToOneDepth.Mul4(m)
	}
	return m
}

// StableUp returns up unless it is nearly parallel to dir, in which case it
// falls back to an axis that is not.
func StableUp(dir, up mgl32.Vec3) mgl32.Vec3 {
	d := dir.Normalize()
	if float32(math.Abs(float64(d.Dot(up.Normalize())))) < 0.999 {
		return up
	}
	if float32(math.Abs(float64(d.Y()))) < 0.999 {
		return mgl32.Vec3{0, 1, 0}
	}
	return mgl32.Vec3{0, 0, 1}
}

type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAABB is inverted so merging any point into it yields that point.
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

func (b AABB) IsEmpty() bool {
	return b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y() || b.Min.Z() > b.Max.Z()
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Extents() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

func (b AABB) ContainsPoint(p mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

func (b AABB) ExpandPoint(p mgl32.Vec3) AABB {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
	return b
}

func (b AABB) Merge(o AABB) AABB {
	if o.IsEmpty() {
		return b
	}
	return b.ExpandPoint(o.Min).ExpandPoint(o.Max)
}

func (b AABB) Corners() [8]mgl32.Vec3 {
	return [8]mgl32.Vec3{
		{b.Min.X(), b.Min.Y(), b.Min.Z()},
		{b.Max.X(), b.Min.Y(), b.Min.Z()},
		{b.Min.X(), b.Max.Y(), b.Min.Z()},
		{b.Max.X(), b.Max.Y(), b.Min.Z()},
		{b.Min.X(), b.Min.Y(), b.Max.Z()},
		{b.Max.X(), b.Min.Y(), b.Max.Z()},
		{b.Min.X(), b.Max.Y(), b.Max.Z()},
		{b.Max.X(), b.Max.Y(), b.Max.Z()},
	}
}

// Transform returns the box bounding b after m is applied.
func (b AABB) Transform(m mgl32.Mat4) AABB {
	if b.IsEmpty() {
		return b
	}
	out := EmptyAABB()
	for _, c := range b.Corners() {
		out = out.ExpandPoint(mgl32.TransformCoordinate(c, m))
	}
	return out
}

// Frustum holds normalized planes Ax+By+Cz+D=0 in the order
// left, right, bottom, top, near, far.
type Frustum [6]mgl32.Vec4

// ExtractFrustum reads the planes from a view-projection matrix.
func ExtractFrustum(vp mgl32.Mat4, ndc NDCDepth) Frustum {
	row := func(r int) mgl32.Vec4 {
		return mgl32.Vec4{vp.At(r, 0), vp.At(r, 1), vp.At(r, 2), vp.At(r, 3)}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	var f Frustum
	f[0] = r3.Add(r0)
	f[1] = r3.Sub(r0)
	f[2] = r3.Add(r1)
	f[3] = r3.Sub(r1)
	if ndc == NDCDepthZeroToOne {
		f[4] = r2
	} else {
		f[4] = r3.Add(r2)
	}
	f[5] = r3.Sub(r2)

	for i := range f {
		l := f[i].Vec3().Len()
		if l > 0 {
			f[i] = f[i].Mul(1 / l)
		}
	}
	return f
}

// IntersectsAABB is conservative: boxes straddling a plane count as inside.
func (f Frustum) IntersectsAABB(b AABB) bool {
	for _, p := range f {
		positive := mgl32.Vec3{b.Min.X(), b.Min.Y(), b.Min.Z()}
		for i := 0; i < 3; i++ {
			if p[i] >= 0 {
				positive[i] = b.Max[i]
			}
		}
		if p.Vec3().Dot(positive)+p.W() < 0 {
			return false
		}
	}
	return true
}
