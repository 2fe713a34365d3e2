package shader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShaderVariantCollections_Register(t *testing.T) {
	c := NewShaderVariantCollections(nil)

	assert.True(t, c.RegisterNonUberShader("SkyProgram", []string{"vs_skybox", "fs_skybox"}))
	assert.False(t, c.RegisterNonUberShader("SkyProgram", []string{"other"}))
	assert.True(t, c.IsNonUberShader("SkyProgram"))
	assert.Equal(t, []string{""}, c.GetFeatureCombines("SkyProgram"))
	assert.True(t, c.HasFeatureCombine("SkyProgram", ""))

	assert.True(t, c.RegisterUberShader("WorldProgram", []string{"vs_PBR", "fs_PBR"}, []string{"IBL;", "ATM;"}))
	assert.True(t, c.IsUberShader("WorldProgram"))
	assert.Equal(t, []string{"", "IBL;", "ATM;"}, c.GetFeatureCombines("WorldProgram"))
	assert.Equal(t, []string{"vs_PBR", "fs_PBR"}, c.GetShaders("WorldProgram"))
	assert.Equal(t, []string{"SkyProgram", "WorldProgram"}, c.Programs())
}

func TestShaderVariantCollections_AddDeleteCombine(t *testing.T) {
	c := NewShaderVariantCollections(nil)
	c.RegisterUberShader("WorldProgram", []string{"vs_PBR", "fs_PBR"}, nil)

	assert.True(t, c.AddFeatureCombine("WorldProgram", "ALBEDOMAP;"))
	assert.False(t, c.AddFeatureCombine("WorldProgram", "ALBEDOMAP;"))
	assert.False(t, c.AddFeatureCombine("Missing", "ALBEDOMAP;"))
	assert.True(t, c.HasFeatureCombine("WorldProgram", "ALBEDOMAP;"))

	assert.True(t, c.DeleteFeatureCombine("WorldProgram", "ALBEDOMAP;"))
	assert.False(t, c.DeleteFeatureCombine("WorldProgram", "ALBEDOMAP;"))
	assert.False(t, c.HasFeatureCombine("WorldProgram", "ALBEDOMAP;"))
	assert.Nil(t, c.GetShaders("Missing"))
}
