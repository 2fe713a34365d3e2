package scene

import (
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/shader"
)

// MaterialType names a shading model: the uber program it draws with and the
// feature sets that program understands. Passes select their entities by it.
type MaterialType struct {
	name    string
	program string
	shaders []string
	schema  *shader.ShaderSchema
}

func NewMaterialType(name, program string, shaders []string, schema *shader.ShaderSchema) *MaterialType {
	schema.Build()
	return &MaterialType{name: name, program: program, shaders: shaders, schema: schema}
}

func (t *MaterialType) Name() string                 { return t.name }
func (t *MaterialType) ProgramName() string          { return t.program }
func (t *MaterialType) Shaders() []string            { return t.shaders }
func (t *MaterialType) Schema() *shader.ShaderSchema { return t.schema }

type MaterialTextureType uint8

const (
	TextureBaseColor MaterialTextureType = iota
	TextureNormal
	TextureORM
	TextureEmissive

	materialTextureCount
)

var textureFeatures = [materialTextureCount]shader.ShaderFeature{
	TextureBaseColor: shader.FeatureAlbedoMap,
	TextureNormal:    shader.FeatureNormalMap,
	TextureORM:       shader.FeatureORMMap,
	TextureEmissive:  shader.FeatureEmissiveMap,
}

var textureSamplers = [materialTextureCount]string{
	TextureBaseColor: "s_texBaseColor",
	TextureNormal:    "s_texNormal",
	TextureORM:       "s_texORM",
	TextureEmissive:  "s_texEmissive",
}

func (t MaterialTextureType) Feature() shader.ShaderFeature { return textureFeatures[t] }
func (t MaterialTextureType) SamplerName() string           { return textureSamplers[t] }

func MaterialTextureTypes() []MaterialTextureType {
	return []MaterialTextureType{TextureBaseColor, TextureNormal, TextureORM, TextureEmissive}
}

type TextureInfo struct {
	Texture  gfx.TextureHandle
	Slot     uint8
	UVOffset mgl32.Vec2
	UVScale  mgl32.Vec2
}

type BlendMode uint8

const (
	BlendOpaque BlendMode = iota
	BlendMask
	BlendTransparent
)

// CelluloidParams are the toon-shading terms read by the celluloid pass.
type CelluloidParams struct {
	FirstShadowColor  mgl32.Vec3
	SecondShadowColor mgl32.Vec3
	RimLightColor     mgl32.Vec3
	// x: first shadow edge, y: second shadow edge, z: specular edge, w: edge softness
	DividLine         mgl32.Vec4
	Specular          mgl32.Vec4
	RimLight          mgl32.Vec4
	OutlineWidth      float32
	OutlineColor      mgl32.Vec3
}

func DefaultCelluloidParams() CelluloidParams {
	return CelluloidParams{
		FirstShadowColor:  mgl32.Vec3{0.6, 0.6, 0.6},
		SecondShadowColor: mgl32.Vec3{0.3, 0.3, 0.3},
		RimLightColor:     mgl32.Vec3{1, 1, 1},
		DividLine:         mgl32.Vec4{0.5, 0.2, 0.9, 0.02},
		Specular:          mgl32.Vec4{0.1, 0.5, 0, 0},
		RimLight:          mgl32.Vec4{0.8, 0.1, 0.5, 0},
		OutlineWidth:      0.01,
	}
}

type MaterialComponent struct {
	materialType *MaterialType
	textures     [materialTextureCount]TextureInfo
	extra        []shader.ShaderFeature

	AlbedoColor   mgl32.Vec4
	EmissiveColor mgl32.Vec4
	Metallic      float32
	Roughness     float32
	AlphaCutOff   float32
	BlendMode     BlendMode
	TwoSided      bool
	Celluloid     CelluloidParams
}

func (m *MaterialComponent) Reset() {
	*m = MaterialComponent{
		AlbedoColor: mgl32.Vec4{1, 1, 1, 1},
		Metallic:    0.1,
		Roughness:   0.9,
		AlphaCutOff: 0.5,
		Celluloid:   DefaultCelluloidParams(),
	}
	for i := range m.textures {
		m.textures[i] = TextureInfo{
			Texture: gfx.InvalidTexture,
			Slot:    uint8(i),
			UVScale: mgl32.Vec2{1, 1},
		}
	}
}

func (m *MaterialComponent) MaterialType() *MaterialType { return m.materialType }

func (m *MaterialComponent) SetTexture(kind MaterialTextureType, texture gfx.TextureHandle) {
	m.textures[kind].Texture = texture
}

func (m *MaterialComponent) SetUVTransform(kind MaterialTextureType, offset, scale mgl32.Vec2) {
	m.textures[kind].UVOffset = offset
	m.textures[kind].UVScale = scale
}

// Texture reports the binding of kind and whether a texture is assigned.
func (m *MaterialComponent) Texture(kind MaterialTextureType) (TextureInfo, bool) {
	info := m.textures[kind]
	return info, info.Texture.IsValid()
}

// AddFeature requests a feature not implied by the bound textures.
func (m *MaterialComponent) AddFeature(f shader.ShaderFeature) {
	if !slices.Contains(m.extra, f) {
		m.extra = append(m.extra, f)
	}
}

func (m *MaterialComponent) Features() []shader.ShaderFeature {
	features := slices.Clone(m.extra)
	for _, kind := range MaterialTextureTypes() {
		if m.textures[kind].Texture.IsValid() {
			features = append(features, kind.Feature())
		}
	}
	return features
}

// FeaturesCombine resolves the variant key of this material, with extra
// per-frame features such as the sky mode.
func (m *MaterialComponent) FeaturesCombine(extra ...shader.ShaderFeature) string {
	if m.materialType == nil {
		return ""
	}
	return m.materialType.schema.GetFeaturesCombine(append(m.Features(), extra...)...)
}
