package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/gekko3d/lumen/scene"
)

const epsilon = 1e-3

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], epsilon, "component %d of %v", i, got)
	}
}

func TestFrustumCorners_IdentityIsClipCube(t *testing.T) {
	for _, ndc := range []scene.NDCDepth{scene.NDCDepthMinusOneToOne, scene.NDCDepthZeroToOne} {
		corners := FrustumCorners(mgl32.Ident4(), ndc)
		for i := 0; i < 8; i += 2 {
			assert.InDelta(t, ndc.NearClipZ(), corners[i].Z(), epsilon)
			assert.InDelta(t, 1, corners[i+1].Z(), epsilon)
			assert.Equal(t, corners[i].X(), corners[i+1].X())
			assert.Equal(t, corners[i].Y(), corners[i+1].Y())
		}
	}
}

func TestSliceCorners(t *testing.T) {
	corners := FrustumCorners(mgl32.Ident4(), scene.NDCDepthMinusOneToOne)
	slice := SliceCorners(corners, 0.25, 0.5)
	for i := 0; i < 8; i += 2 {
		assert.InDelta(t, -0.5, slice[i].Z(), epsilon)
		assert.InDelta(t, 0, slice[i+1].Z(), epsilon)
	}
}

func TestFitDirectionalShadow_ContainsFrustum(t *testing.T) {
	tests := []struct {
		name string
		dir  mgl32.Vec3
	}{
		{"straight down", mgl32.Vec3{0, -1, 0}},
		{"slanted", mgl32.Vec3{1, -1, -0.5}},
		{"horizontal", mgl32.Vec3{0, 0, -1}},
	}
	for _, ndc := range []scene.NDCDepth{scene.NDCDepthMinusOneToOne, scene.NDCDepthZeroToOne} {
		proj := scene.Perspective(mgl32.DegToRad(60), 1.5, 0.5, 50, ndc)
		view := mgl32.LookAtV(mgl32.Vec3{0, 5, 10}, mgl32.Vec3{0, 5, 0}, mgl32.Vec3{0, 1, 0})
		corners := FrustumCorners(proj.Mul4(view).Inv(), ndc)

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				fit := FitDirectionalShadow(corners, tt.dir, ndc)
				vp := fit.ViewProj()
				for _, c := range corners {
					p := mgl32.TransformCoordinate(c, vp)
					assert.GreaterOrEqual(t, p.X(), float32(-1-epsilon))
					assert.LessOrEqual(t, p.X(), float32(1+epsilon))
					assert.GreaterOrEqual(t, p.Y(), float32(-1-epsilon))
					assert.LessOrEqual(t, p.Y(), float32(1+epsilon))
					assert.GreaterOrEqual(t, p.Z(), ndc.NearClipZ()-epsilon)
					assert.LessOrEqual(t, p.Z(), float32(1+epsilon))
				}
			})
		}
	}
}

func TestPointShadowViews_FacesLookAlongAxes(t *testing.T) {
	pos := mgl32.Vec3{1, 2, 3}
	dirs := [6]mgl32.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

	views, proj := PointShadowViews(pos, 20, scene.NDCDepthMinusOneToOne)
	for i, dir := range dirs {
		assertVec3(t, mgl32.Vec3{0, 0, -2}, mgl32.TransformCoordinate(pos.Add(dir.Mul(2)), views[i]))
	}

	// 90 degrees: the face edge at unit distance lands on the clip border
	edge := mgl32.TransformCoordinate(mgl32.Vec3{1, 1, -1}, proj)
	assert.InDelta(t, 1, edge.X(), epsilon)
	assert.InDelta(t, 1, edge.Y(), epsilon)
}

func TestSpotShadowViewProj(t *testing.T) {
	pos := mgl32.Vec3{0, 4, 0}
	dir := mgl32.Vec3{0, -1, 0}

	view, proj := SpotShadowViewProj(pos, dir, 45, 10, scene.NDCDepthZeroToOne)
	assertVec3(t, mgl32.Vec3{0, 0, -3}, mgl32.TransformCoordinate(pos.Add(dir.Mul(3)), view))

	// a 90 degree cone: the cone edge at distance d is d off axis
	edge := mgl32.TransformCoordinate(mgl32.Vec3{2, 0, -2}, proj)
	assert.InDelta(t, 1, edge.X(), epsilon)
	assert.GreaterOrEqual(t, edge.Z(), float32(0))

	_, wide := SpotShadowViewProj(pos, dir, 120, 10, scene.NDCDepthZeroToOne)
	want := scene.Perspective(mgl32.DegToRad(maxSpotFov), 1, spotShadowNear, 10, scene.NDCDepthZeroToOne)
	assert.InDelta(t, want[5], wide[5], 1e-6)
}
