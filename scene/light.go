package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/logging"
)

type LightType uint32

const (
	LightTypePoint LightType = iota
	LightTypeDirectional
	LightTypeSpot
	LightTypeSphere
	LightTypeDisk
	LightTypeRectangle
	LightTypeTube
)

func (t LightType) String() string {
	switch t {
	case LightTypePoint:
		return "Point"
	case LightTypeDirectional:
		return "Directional"
	case LightTypeSpot:
		return "Spot"
	case LightTypeSphere:
		return "Sphere"
	case LightTypeDisk:
		return "Disk"
	case LightTypeRectangle:
		return "Rectangle"
	case LightTypeTube:
		return "Tube"
	}
	return fmt.Sprintf("LightType(%d)", uint32(t))
}

func (t LightType) IsAreaLight() bool {
	return t >= LightTypeSphere && t <= LightTypeTube
}

const (
	MaxLightCount = 16
	// LightStride is the number of vec4 registers one light occupies.
	LightStride = 6
	// LightUniformFloats is the float32 count of one packed LightUniform.
	LightUniformFloats = LightStride * 4

	spotEpsilon = 0.001
)

// LightUniform mirrors the shader-side light struct register by register.
// It holds only float32 data so a []LightUniform is a valid GPU array.
type LightUniform struct {
	Type     float32
	Position mgl32.Vec3

	Intensity float32
	Color     mgl32.Vec3

	Range     float32
	Direction mgl32.Vec3

	Radius float32
	Up     mgl32.Vec3

	Width       float32
	Height      float32
	AngleScale  float32
	AngleOffset float32

	CastShadow    float32
	ShadowBias    float32
	ShadowMapSize float32
	CastVolume    float32
}

// AppendTo appends the record to dst in register order.
func (u *LightUniform) AppendTo(dst []float32) []float32 {
	return append(dst,
		u.Type, u.Position[0], u.Position[1], u.Position[2],
		u.Intensity, u.Color[0], u.Color[1], u.Color[2],
		u.Range, u.Direction[0], u.Direction[1], u.Direction[2],
		u.Radius, u.Up[0], u.Up[1], u.Up[2],
		u.Width, u.Height, u.AngleScale, u.AngleOffset,
		u.CastShadow, u.ShadowBias, u.ShadowMapSize, u.CastVolume,
	)
}

// FrameBufferReleaser destroys frame buffers a light owns and reports
// failures through its logger.
type FrameBufferReleaser interface {
	DestroyFrameBuffer(h gfx.FrameBufferHandle) error
	Logger() logging.Logger
}

type CascadePartition uint8

const (
	CascadePartitionUniform CascadePartition = iota
	CascadePartitionLogarithmic
	CascadePartitionPSSM
	CascadePartitionManual
)

const MaxCascadeCount = 4

// LightComponent keeps the uniform record first; everything after it is CPU
// state and never reaches the GPU.
type LightComponent struct {
	uniform LightUniform

	innerDegree float32
	outerDegree float32
	innerSet    bool
	outerSet    bool

	cascadeNum       int
	cascadePartition CascadePartition
	cascadeLambda    float32
	manualSplits     [MaxCascadeCount]float32

	shadowMapFBs   []gfx.FrameBufferHandle
	lightViewProjs []mgl32.Mat4
	releaser       FrameBufferReleaser
}

func (l *LightComponent) Reset() {
	l.ClearShadowMapFBs()
	*l = LightComponent{}
	l.uniform.Type = float32(LightTypePoint)
	l.uniform.Intensity = 1
	l.uniform.Color = mgl32.Vec3{1, 1, 1}
	l.uniform.Range = 100
	l.uniform.Direction = mgl32.Vec3{0, -1, 0}
	l.uniform.Up = mgl32.Vec3{0, 0, 1}
	l.uniform.ShadowBias = 0.005
	l.uniform.ShadowMapSize = 1024
	l.cascadeNum = 1
	l.cascadePartition = CascadePartitionPSSM
	l.cascadeLambda = 0.5
	l.innerDegree = 30
	l.outerDegree = 45
	l.RecalculateScaleAndOffset()
}

func (l *LightComponent) Uniform() *LightUniform { return &l.uniform }

func (l *LightComponent) Type() LightType         { return LightType(l.uniform.Type) }
func (l *LightComponent) Position() mgl32.Vec3    { return l.uniform.Position }
func (l *LightComponent) Direction() mgl32.Vec3   { return l.uniform.Direction }
func (l *LightComponent) Up() mgl32.Vec3          { return l.uniform.Up }
func (l *LightComponent) Color() mgl32.Vec3       { return l.uniform.Color }
func (l *LightComponent) Intensity() float32      { return l.uniform.Intensity }
func (l *LightComponent) Range() float32          { return l.uniform.Range }
func (l *LightComponent) Radius() float32         { return l.uniform.Radius }
func (l *LightComponent) Width() float32          { return l.uniform.Width }
func (l *LightComponent) Height() float32         { return l.uniform.Height }
func (l *LightComponent) IsCastShadow() bool      { return l.uniform.CastShadow != 0 }
func (l *LightComponent) IsCastVolume() bool      { return l.uniform.CastVolume != 0 }
func (l *LightComponent) ShadowBias() float32     { return l.uniform.ShadowBias }
func (l *LightComponent) ShadowMapSize() uint16   { return uint16(l.uniform.ShadowMapSize) }
func (l *LightComponent) GetAngleScale() float32  { return l.uniform.AngleScale }
func (l *LightComponent) GetAngleOffset() float32 { return l.uniform.AngleOffset }

// SetType does not touch cached shadow maps; call ClearShadowMapFBs when the
// new type needs a different map layout.
func (l *LightComponent) SetType(t LightType)        { l.uniform.Type = float32(t) }
func (l *LightComponent) SetPosition(p mgl32.Vec3)   { l.uniform.Position = p }
func (l *LightComponent) SetColor(c mgl32.Vec3)      { l.uniform.Color = c }
func (l *LightComponent) SetIntensity(i float32)     { l.uniform.Intensity = i }
func (l *LightComponent) SetRange(r float32)         { l.uniform.Range = r }
func (l *LightComponent) SetRadius(r float32)        { l.uniform.Radius = r }
func (l *LightComponent) SetWidth(w float32)         { l.uniform.Width = w }
func (l *LightComponent) SetHeight(h float32)        { l.uniform.Height = h }
func (l *LightComponent) SetShadowBias(bias float32) { l.uniform.ShadowBias = bias }

func (l *LightComponent) SetDirection(d mgl32.Vec3) {
	if d.Len() == 0 {
		return
	}
	l.uniform.Direction = d.Normalize()
}

func (l *LightComponent) SetUp(u mgl32.Vec3) {
	if u.Len() == 0 {
		return
	}
	l.uniform.Up = u.Normalize()
}

func (l *LightComponent) SetCastShadow(cast bool) {
	l.uniform.CastShadow = boolToFloat(cast)
}

func (l *LightComponent) SetCastVolume(cast bool) {
	l.uniform.CastVolume = boolToFloat(cast)
}

// SetShadowMapSize takes effect for frame buffers created afterwards.
func (l *LightComponent) SetShadowMapSize(size uint16) {
	l.uniform.ShadowMapSize = float32(size)
}

// SetInnerDegree sets the inner half-angle of a spot cone. Until an outer
// angle is set explicitly, the outer angle follows as 1.25 * inner.
func (l *LightComponent) SetInnerDegree(inner float32) {
	l.innerDegree = inner
	l.innerSet = true
	if !l.outerSet {
		l.outerDegree = inner * 1.25
	}
	l.RecalculateScaleAndOffset()
}

// SetOuterDegree sets the outer half-angle of a spot cone. Until an inner
// angle is set explicitly, the inner angle follows as 0.75 * outer.
func (l *LightComponent) SetOuterDegree(outer float32) {
	l.outerDegree = outer
	l.outerSet = true
	if !l.innerSet {
		l.innerDegree = outer * 0.75
	}
	l.RecalculateScaleAndOffset()
}

func (l *LightComponent) SetInnerAndOuter(inner, outer float32) {
	l.innerDegree, l.outerDegree = inner, outer
	l.innerSet, l.outerSet = true, true
	l.RecalculateScaleAndOffset()
}

func (l *LightComponent) GetInnerAndOuter() (float32, float32) {
	return l.innerDegree, l.outerDegree
}

// RecalculateScaleAndOffset precomputes the smoothstep falloff terms
// scale = 1/max(cos(inner)-cos(outer), eps) and offset = -cos(outer)*scale.
func (l *LightComponent) RecalculateScaleAndOffset() {
	cosOuter := math.Cos(float64(mgl32.DegToRad(l.outerDegree)))
	cosInner := math.Cos(float64(mgl32.DegToRad(l.innerDegree)))
	scale := 1 / math.Max(cosInner-cosOuter, spotEpsilon)
	l.uniform.AngleScale = float32(scale)
	l.uniform.AngleOffset = float32(-cosOuter * scale)
}

// Cascades

func (l *LightComponent) CascadeNum() int { return l.cascadeNum }

func (l *LightComponent) SetCascadeNum(n int) {
	l.cascadeNum = max(1, min(n, MaxCascadeCount))
}

func (l *LightComponent) CascadePartition() CascadePartition { return l.cascadePartition }

func (l *LightComponent) SetCascadePartition(mode CascadePartition, lambda float32) {
	l.cascadePartition = mode
	l.cascadeLambda = lambda
}

// SetManualSplits sets normalized far distances per cascade for
// CascadePartitionManual.
func (l *LightComponent) SetManualSplits(splits ...float32) {
	copy(l.manualSplits[:], splits)
}

// CascadeSplits returns the normalized far edge of each cascade in [0,1] of
// the near..far camera range.
func (l *LightComponent) CascadeSplits(near, far float32) []float32 {
	n := max(l.cascadeNum, 1)
	splits := make([]float32, n)
	if l.cascadePartition == CascadePartitionManual {
		copy(splits, l.manualSplits[:n])
		splits[n-1] = 1
		return splits
	}

	clipRange := far - near
	ratio := float64(far / near)
	for i := 0; i < n; i++ {
		p := float64(i+1) / float64(n)
		uniform := float64(near) + float64(clipRange)*p
		log := float64(near) * math.Pow(ratio, p)

		var d float64
		switch l.cascadePartition {
		case CascadePartitionUniform:
			d = uniform
		case CascadePartitionLogarithmic:
			d = log
		default:
			lambda := float64(l.cascadeLambda)
			d = lambda*(log-uniform) + uniform
		}
		splits[i] = float32((d - float64(near)) / float64(clipRange))
	}
	return splits
}

// Shadow maps

// RequiredShadowMapCount is the number of frame buffers a light of this type
// renders into: 6 for a point light cube, one per cascade for directional.
func (l *LightComponent) RequiredShadowMapCount() int {
	switch l.Type() {
	case LightTypePoint:
		return 6
	case LightTypeDirectional:
		return l.cascadeNum
	case LightTypeSpot:
		return 1
	}
	return 0
}

func (l *LightComponent) AddShadowMapFB(releaser FrameBufferReleaser, fb gfx.FrameBufferHandle) {
	l.releaser = releaser
	l.shadowMapFBs = append(l.shadowMapFBs, fb)
}

func (l *LightComponent) GetShadowMapFBs() []gfx.FrameBufferHandle {
	return l.shadowMapFBs
}

func (l *LightComponent) IsShadowMapFBsValid() bool {
	return len(l.shadowMapFBs) > 0
}

// ClearShadowMapFBs destroys the cached shadow maps so the next shadow pass
// recreates them.
func (l *LightComponent) ClearShadowMapFBs() {
	if l.releaser != nil {
		for _, fb := range l.shadowMapFBs {
			if err := l.releaser.DestroyFrameBuffer(fb); err != nil {
				logging.OrNop(l.releaser.Logger()).Warnf("light shadow map %s: %v", fb, err)
			}
		}
	}
	l.shadowMapFBs = nil
}

func (l *LightComponent) AddLightViewProjMatrix(m mgl32.Mat4) {
	l.lightViewProjs = append(l.lightViewProjs, m)
}

func (l *LightComponent) ClearLightViewProjMatrix() {
	l.lightViewProjs = l.lightViewProjs[:0]
}

func (l *LightComponent) GetLightViewProjMatrices() []mgl32.Mat4 {
	return l.lightViewProjs
}

func (l *LightComponent) ReleaseResources() {
	l.ClearShadowMapFBs()
}

func boolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
