package render

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/lumen/gfx"
	"github.com/gekko3d/lumen/scene"
)

// PackLights flattens lights into the u_lightParams register layout,
// scene.LightStride vec4 registers per light. More than scene.MaxLightCount
// lights panics.
func PackLights(lights []scene.LightComponent) []float32 {
	if len(lights) > scene.MaxLightCount {
		panic(fmt.Sprintf("%d lights exceed the maximum of %d", len(lights), scene.MaxLightCount))
	}
	out := make([]float32, 0, len(lights)*scene.LightUniformFloats)
	for i := range lights {
		out = lights[i].Uniform().AppendTo(out)
	}
	return out
}

func createLightUniforms(r *rendererBase) {
	r.declareUniform(uLightCountAndStride, gfx.UniformVec4, 1)
	r.declareUniform(uLightParams, gfx.UniformVec4, scene.MaxLightCount*scene.LightStride)
}

// fillLightUniforms uploads every light of the scene for the next submit.
func fillLightUniforms(ctx *gfx.RenderContext, sw *scene.SceneWorld) {
	lights := sw.GetLightComponents()
	ctx.FillVec4(uLightCountAndStride, mgl32.Vec4{float32(len(lights)), scene.LightStride, 0, 0})
	if len(lights) > 0 {
		ctx.FillUniform(uLightParams, PackLights(lights))
	}
}
