package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// BloomSettings are the per-camera post-process parameters the bloom pass reads.
type BloomSettings struct {
	Enable             bool
	DownSampleTimes    int
	DownSampleMaxTimes int
	BlurEnable         bool
	BlurTimes          int
	BlurSize           float32
	BlurScaling        int
	BlurMaxTimes       int
	LuminanceThreshold float32
	Intensity          float32
}

func DefaultBloomSettings() BloomSettings {
	return BloomSettings{
		Enable:             true,
		DownSampleTimes:    4,
		DownSampleMaxTimes: 8,
		BlurEnable:         false,
		BlurTimes:          2,
		BlurSize:           1,
		BlurScaling:        1,
		BlurMaxTimes:       10,
		LuminanceThreshold: 1,
		Intensity:          1,
	}
}

type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// CameraComponent caches view and projection matrices. Setters mark the
// affected matrix dirty; Build* rebuilds only dirty matrices.
type CameraComponent struct {
	eye    mgl32.Vec3
	lookAt mgl32.Vec3
	up     mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32
	ndc    NDCDepth

	view       mgl32.Mat4
	projection mgl32.Mat4
	viewState  CacheState
	projState  CacheState

	Bloom BloomSettings
}

func (c *CameraComponent) Reset() {
	c.eye = mgl32.Vec3{0, 0, 10}
	c.lookAt = mgl32.Vec3{0, 0, -1}
	c.up = mgl32.Vec3{0, 1, 0}
	c.fov = 45
	c.aspect = 1.778
	c.near = 0.1
	c.far = 1000
	c.ndc = NDCDepthMinusOneToOne
	c.viewState = CacheDirty
	c.projState = CacheDirty
	c.Bloom = DefaultBloomSettings()
}

func (c *CameraComponent) Eye() mgl32.Vec3    { return c.eye }
func (c *CameraComponent) LookAt() mgl32.Vec3 { return c.lookAt }
func (c *CameraComponent) Up() mgl32.Vec3     { return c.up }
func (c *CameraComponent) Fov() float32       { return c.fov }
func (c *CameraComponent) Aspect() float32    { return c.aspect }
func (c *CameraComponent) NearPlane() float32 { return c.near }
func (c *CameraComponent) FarPlane() float32  { return c.far }
func (c *CameraComponent) NDCDepth() NDCDepth { return c.ndc }

func (c *CameraComponent) SetEye(eye mgl32.Vec3) {
	c.eye = eye
	c.viewState = CacheDirty
}

// SetLookAt sets the view direction, not a target point.
func (c *CameraComponent) SetLookAt(dir mgl32.Vec3) {
	if dir.Len() == 0 {
		return
	}
	c.lookAt = dir.Normalize()
	c.viewState = CacheDirty
}

func (c *CameraComponent) SetUp(up mgl32.Vec3) {
	c.up = up
	c.viewState = CacheDirty
}

// SetFov takes the vertical field of view in degrees.
func (c *CameraComponent) SetFov(fov float32) {
	c.fov = fov
	c.projState = CacheDirty
}

func (c *CameraComponent) SetAspect(aspect float32) {
	if aspect <= 0 || aspect == c.aspect {
		return
	}
	c.aspect = aspect
	c.projState = CacheDirty
}

func (c *CameraComponent) SetNearPlane(near float32) {
	c.near = near
	c.projState = CacheDirty
}

func (c *CameraComponent) SetFarPlane(far float32) {
	c.far = far
	c.projState = CacheDirty
}

func (c *CameraComponent) SetNDCDepth(ndc NDCDepth) {
	c.ndc = ndc
	c.projState = CacheDirty
}

func (c *CameraComponent) IsViewDirty() bool       { return c.viewState == CacheDirty }
func (c *CameraComponent) IsProjectionDirty() bool { return c.projState == CacheDirty }

func (c *CameraComponent) BuildViewMatrix() {
	if c.viewState == CacheClean {
		return
	}
	c.view = mgl32.LookAtV(c.eye, c.eye.Add(c.lookAt), StableUp(c.lookAt, c.up))
	c.viewState = CacheClean
}

func (c *CameraComponent) BuildProjectionMatrix() {
	if c.projState == CacheClean {
		return
	}
	c.projection = Perspective(mgl32.DegToRad(c.fov), c.aspect, c.near, c.far, c.ndc)
	c.projState = CacheClean
}

func (c *CameraComponent) Build() {
	c.BuildViewMatrix()
	c.BuildProjectionMatrix()
}

// GetViewMatrix returns the cached matrix; call Build once per frame first.
func (c *CameraComponent) GetViewMatrix() mgl32.Mat4       { return c.view }
func (c *CameraComponent) GetProjectionMatrix() mgl32.Mat4 { return c.projection }

func (c *CameraComponent) GetFrustum() Frustum {
	c.Build()
	return ExtractFrustum(c.projection.Mul4(c.view), c.ndc)
}

// FrameAll moves the eye back along the view direction until box fits the
// vertical field of view.
func (c *CameraComponent) FrameAll(box AABB) {
	if box.IsEmpty() {
		return
	}
	radius := box.Extents().Len()
	half := mgl32.DegToRad(c.fov) * 0.5
	distance := radius / float32(math.Sin(float64(half)))
	c.SetEye(box.Center().Sub(c.lookAt.Mul(distance)))
	if c.far < distance+radius {
		c.SetFarPlane(distance + radius*2)
	}
}

// EmitRay builds a world-space ray through a window pixel, origin top-left.
func (c *CameraComponent) EmitRay(screenX, screenY, width, height float32) Ray {
	c.Build()
	x := 2*screenX/width - 1
	y := 1 - 2*screenY/height
	inv := c.projection.Mul4(c.view).Inv()

	near := mgl32.TransformCoordinate(mgl32.Vec3{x, y, c.ndc.NearClipZ()}, inv)
	far := mgl32.TransformCoordinate(mgl32.Vec3{x, y, 1}, inv)
	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}
