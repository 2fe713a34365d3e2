package render

// Uniform and sampler names shared with the shader sources.
const (
	uCameraPos             = "u_cameraPos"
	uLightCountAndStride   = "u_lightCountAndStride"
	uLightParams           = "u_lightParams"
	uAlbedoColor           = "u_albedoColor"
	uEmissiveColor         = "u_emissiveColor"
	uMetallicRoughness     = "u_metallicRoughnessFactor"
	uAlbedoUVOffsetScale   = "u_albedoUVOffsetAndScale"
	uAlphaCutOff           = "u_alphaCutOff"
	uLightDir              = "u_LightDir"
	uHeightOffsetShadowLen = "u_HeightOffsetAndshadowLength"
	uLightWorldPosFarPlane = "u_lightWorldPos_farPlane"
	uBoneMatrices          = "u_boneMatrices"

	sTexSkybox  = "s_texSkybox"
	sTexCubeIrr = "s_texCubeIrr"
	sTexCubeRad = "s_texCubeRad"
	sTexLUT     = "s_texLUT"
	sShadowMap  = "s_texShadowMap"

	iblBRDFLUT = "Textures/lut/ibl_brdf_lut.dds"
)

// Texture stages past the material slots.
const (
	stageIrradiance uint8 = 4 + iota
	stageRadiance
	stageLUT
)
