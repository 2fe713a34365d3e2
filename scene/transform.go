package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// CacheState tracks whether a cached derived value must be rebuilt.
type CacheState uint8

const (
	CacheDirty CacheState = iota
	CacheClean
)

type TransformComponent struct {
	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3

	world mgl32.Mat4
	state CacheState
}

func (t *TransformComponent) Reset() {
	t.position = mgl32.Vec3{}
	t.rotation = mgl32.QuatIdent()
	t.scale = mgl32.Vec3{1, 1, 1}
	t.state = CacheDirty
}

func (t *TransformComponent) Position() mgl32.Vec3 { return t.position }
func (t *TransformComponent) Rotation() mgl32.Quat { return t.rotation }
func (t *TransformComponent) Scale() mgl32.Vec3    { return t.scale }

func (t *TransformComponent) SetPosition(p mgl32.Vec3) {
	t.position = p
	t.state = CacheDirty
}

func (t *TransformComponent) SetRotation(q mgl32.Quat) {
	t.rotation = q.Normalize()
	t.state = CacheDirty
}

func (t *TransformComponent) SetScale(s mgl32.Vec3) {
	t.scale = s
	t.state = CacheDirty
}

func (t *TransformComponent) Translate(d mgl32.Vec3) {
	t.SetPosition(t.position.Add(d))
}

// GetWorldMatrix returns T * R * S, rebuilding it only after a change.
func (t *TransformComponent) GetWorldMatrix() mgl32.Mat4 {
	if t.state == CacheDirty {
		translate := mgl32.Translate3D(t.position.X(), t.position.Y(), t.position.Z())
		scale := mgl32.Scale3D(t.scale.X(), t.scale.Y(), t.scale.Z())
		t.world = translate.Mul4(t.rotation.Mat4()).Mul4(scale)
		t.state = CacheClean
	}
	return t.world
}

func (t *TransformComponent) IsDirty() bool {
	return t.state == CacheDirty
}

// GetWorldToObject inverts the transform piecewise: inv(S) * inv(R) * inv(T).
func (t *TransformComponent) GetWorldToObject() mgl32.Mat4 {
	invScale := mgl32.Scale3D(1/t.scale.X(), 1/t.scale.Y(), 1/t.scale.Z())
	invRotate := t.rotation.Conjugate().Mat4()
	invTranslate := mgl32.Translate3D(-t.position.X(), -t.position.Y(), -t.position.Z())
	return invScale.Mul4(invRotate).Mul4(invTranslate)
}
