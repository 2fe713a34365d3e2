package shader

import (
	"fmt"
	"slices"
)

type ShaderFeature uint32

const (
	FeatureDefault ShaderFeature = iota
	FeatureAlbedoMap
	FeatureNormalMap
	FeatureORMMap
	FeatureEmissiveMap
	FeatureIBL
	FeatureParticleInstance
	FeatureATM
	FeatureAreaLight

	featureCount
)

// Feature names are concatenated into combine keys, so each ends with ';'.
var featureNames = [featureCount]string{
	FeatureDefault:          "",
	FeatureAlbedoMap:        "ALBEDOMAP;",
	FeatureNormalMap:        "NORMALMAP;",
	FeatureORMMap:           "ORMMAP;",
	FeatureEmissiveMap:      "EMISSIVEMAP;",
	FeatureIBL:              "IBL;",
	FeatureParticleInstance: "PARTICLEINSTANCE;",
	FeatureATM:              "ATM;",
	FeatureAreaLight:        "AREALLIGHT;",
}

func (f ShaderFeature) Name() string {
	if f >= featureCount {
		panic(fmt.Sprintf("unknown shader feature %d", uint32(f)))
	}
	return featureNames[f]
}

func (f ShaderFeature) String() string {
	if f == FeatureDefault {
		return "DEFAULT"
	}
	if f >= featureCount {
		return fmt.Sprintf("ShaderFeature(%d)", uint32(f))
	}
	name := featureNames[f]
	return name[:len(name)-1]
}

// FeatureSet is a sorted, duplicate-free group of mutually exclusive features.
type FeatureSet []ShaderFeature

func NewFeatureSet(features ...ShaderFeature) FeatureSet {
	set := slices.Clone(features)
	slices.Sort(set)
	return slices.Compact(set)
}

func (s FeatureSet) Contains(feature ShaderFeature) bool {
	_, found := slices.BinarySearch(s, feature)
	return found
}
