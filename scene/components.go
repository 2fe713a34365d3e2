package scene

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/gekko3d/lumen/ecs"
	"github.com/gekko3d/lumen/gfx"
)

const MaxBoneCount = 128

// AnimationComponent marks a skinned mesh; the skinning pass draws it
// instead of the static mesh passes.
type AnimationComponent struct {
	SkeletonName string
	BoneMatrices []mgl32.Mat4
	Playing      bool
	Time         float32
}

func (a *AnimationComponent) Reset() {
	*a = AnimationComponent{}
}

// BoneData flattens the palette for upload, clamped to MaxBoneCount.
func (a *AnimationComponent) BoneData() []float32 {
	n := min(len(a.BoneMatrices), MaxBoneCount)
	out := make([]float32, 0, n*16)
	for _, m := range a.BoneMatrices[:n] {
		out = append(out, m[:]...)
	}
	return out
}

// DDGITexture indexes the four probe textures of a DDGI volume.
type DDGITexture uint8

const (
	DDGIClassification DDGITexture = iota
	DDGIDistance
	DDGIIrradiance
	DDGIRelocation

	DDGITextureCount
)

type DDGIComponent struct {
	VolumeOrigin      mgl32.Vec3
	ProbeSpacing      mgl32.Vec3
	ProbeCount        [3]uint32
	AmbientMultiplier float32
	NormalBias        float32
	ViewBias          float32

	// Raw probe data files, one per DDGITexture.
	DataPaths [DDGITextureCount]string
	Textures  [DDGITextureCount]gfx.TextureHandle
}

func (d *DDGIComponent) Reset() {
	*d = DDGIComponent{
		ProbeSpacing:      mgl32.Vec3{1, 1, 1},
		ProbeCount:        [3]uint32{8, 8, 8},
		AmbientMultiplier: 1,
		NormalBias:        0.1,
		ViewBias:          0.1,
	}
	for i := range d.Textures {
		d.Textures[i] = gfx.InvalidTexture
	}
}

type NameComponent struct {
	Name string
	GUID uuid.UUID
}

type HierarchyComponent struct {
	Parent   ecs.Entity
	Children []ecs.Entity
}

func (h *HierarchyComponent) Reset() {
	*h = HierarchyComponent{Parent: ecs.InvalidEntity}
}

func (h *HierarchyComponent) addChild(child ecs.Entity) {
	if !slices.Contains(h.Children, child) {
		h.Children = append(h.Children, child)
	}
}

func (h *HierarchyComponent) removeChild(child ecs.Entity) {
	if i := slices.Index(h.Children, child); i >= 0 {
		h.Children = slices.Delete(h.Children, i, i+1)
	}
}
