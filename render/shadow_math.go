package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/scene"
)

const (
	pointShadowNear = 0.01
	spotShadowNear  = 0.1
	maxSpotFov      = 179
)

// FrustumCorners un-projects the corners of the clip cube through
// invViewProj. Corners come in pairs: 2i lies on the near plane and 2i+1 on
// the far plane along the same edge.
func FrustumCorners(invViewProj mgl32.Mat4, ndc scene.NDCDepth) [8]mgl32.Vec3 {
	nearZ := ndc.NearClipZ()
	var out [8]mgl32.Vec3
	i := 0
	for _, x := range [2]float32{-1, 1} {
		for _, y := range [2]float32{-1, 1} {
			out[i] = mgl32.TransformCoordinate(mgl32.Vec3{x, y, nearZ}, invViewProj)
			out[i+1] = mgl32.TransformCoordinate(mgl32.Vec3{x, y, 1}, invViewProj)
			i += 2
		}
	}
	return out
}

// SliceCorners cuts the part of a frustum between the normalized depths from
// and to, as returned by LightComponent.CascadeSplits.
func SliceCorners(corners [8]mgl32.Vec3, from, to float32) [8]mgl32.Vec3 {
	var out [8]mgl32.Vec3
	for i := 0; i < 8; i += 2 {
		edge := corners[i+1].Sub(corners[i])
		out[i] = corners[i].Add(edge.Mul(from))
		out[i+1] = corners[i].Add(edge.Mul(to))
	}
	return out
}

// ShadowFit is a directional light camera fitted around a set of corners.
// Bounds are in light view space.
type ShadowFit struct {
	View   mgl32.Mat4
	Proj   mgl32.Mat4
	Bounds scene.AABB
}

func (f ShadowFit) ViewProj() mgl32.Mat4 {
	return f.Proj.Mul4(f.View)
}

// FitDirectionalShadow looks at the centroid of corners along lightDir and
// sizes an orthographic projection to the corners' light-space extent.
func FitDirectionalShadow(corners [8]mgl32.Vec3, lightDir mgl32.Vec3, ndc scene.NDCDepth) ShadowFit {
	var center mgl32.Vec3
	for _, c := range corners {
		center = center.Add(c)
	}
	center = center.Mul(1.0 / 8)

	dir := lightDir.Normalize()
	view := mgl32.LookAtV(center.Sub(dir), center, scene.StableUp(dir, mgl32.Vec3{0, 1, 0}))

	bounds := scene.EmptyAABB()
	for _, c := range corners {
		bounds = bounds.ExpandPoint(mgl32.TransformCoordinate(c, view))
	}
	// light view space looks down -Z
	proj := scene.Ortho(
		bounds.Min.X(), bounds.Max.X(),
		bounds.Min.Y(), bounds.Max.Y(),
		-bounds.Max.Z(), -bounds.Min.Z(),
		ndc,
	)
	return ShadowFit{View: view, Proj: proj, Bounds: bounds}
}

var cubeFaces = [6]struct{ dir, up mgl32.Vec3 }{
	{mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{-1, 0, 0}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, -1}},
	{mgl32.Vec3{0, -1, 0}, mgl32.Vec3{0, 0, 1}},
	{mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 1, 0}},
	{mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 1, 0}},
}

// PointShadowViews returns the six cube face views (+X, -X, +Y, -Y, +Z, -Z)
// of a point light and the shared 90 degree projection reaching far.
func PointShadowViews(pos mgl32.Vec3, far float32, ndc scene.NDCDepth) ([6]mgl32.Mat4, mgl32.Mat4) {
	var views [6]mgl32.Mat4
	for i, face := range cubeFaces {
		views[i] = mgl32.LookAtV(pos, pos.Add(face.dir), face.up)
	}
	proj := scene.Perspective(mgl32.DegToRad(90), 1, pointShadowNear, max(far, pointShadowNear*2), ndc)
	return views, proj
}

// SpotShadowViewProj builds the single perspective view of a spot light.
// The field of view spans the outer cone.
func SpotShadowViewProj(pos, dir mgl32.Vec3, outerDegree, far float32, ndc scene.NDCDepth) (mgl32.Mat4, mgl32.Mat4) {
	dir = dir.Normalize()
	view := mgl32.LookAtV(pos, pos.Add(dir), scene.StableUp(dir, mgl32.Vec3{0, 1, 0}))
	fov := min(2*outerDegree, maxSpotFov)
	proj := scene.Perspective(mgl32.DegToRad(fov), 1, spotShadowNear, max(far, spotShadowNear*2), ndc)
	return view, proj
}
