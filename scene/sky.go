package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/shader"
)

type SkyType uint8

const (
	SkyTypeNone SkyType = iota
	SkyTypeSkyBox
	SkyTypeAtmosphericScattering
)

const (
	DefaultIrradiancePath = "Textures/skybox/defaultSkybox_irr.dds"
	DefaultRadiancePath   = "Textures/skybox/defaultSkybox_rad.dds"
)

func (t SkyType) ShaderFeature() shader.ShaderFeature {
	switch t {
	case SkyTypeSkyBox:
		return shader.FeatureIBL
	case SkyTypeAtmosphericScattering:
		return shader.FeatureATM
	}
	return shader.FeatureDefault
}

type SkyComponent struct {
	Type           SkyType
	IrradiancePath string
	RadiancePath   string

	// Set by the skybox pass once the cube maps are uploaded.
	IrradianceTexture gfx.TextureHandle
	RadianceTexture   gfx.TextureHandle

	SunDirection mgl32.Vec3
	HeightOffset float32
	ShadowLength float32
}

func (s *SkyComponent) Reset() {
	*s = SkyComponent{
		Type:              SkyTypeSkyBox,
		IrradiancePath:    DefaultIrradiancePath,
		RadiancePath:      DefaultRadiancePath,
		IrradianceTexture: gfx.InvalidTexture,
		RadianceTexture:   gfx.InvalidTexture,
		SunDirection:      mgl32.Vec3{0, -1, -1}.Normalize(),
		HeightOffset:      0.2,
		ShadowLength:      0.5,
	}
}

// UsesSkyBoxPass is true for the sky types the cube-map pass draws.
func (s *SkyComponent) UsesSkyBoxPass() bool {
	return s.Type == SkyTypeSkyBox || s.Type == SkyTypeNone
}
