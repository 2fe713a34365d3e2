package shader

import (
	"slices"
	"strings"

	"github.com/gekko3d/lumen/logging"
)

// ShaderSchema tracks the feature sets an uber shader understands and the
// closure of legal feature combinations over them. The combination list is
// only valid after Build.
type ShaderSchema struct {
	logger      logging.Logger
	featureSets []FeatureSet

	// Combines in insertion order; allCombines indexes the same strings.
	combines    []string
	allCombines map[string]struct{}
	isDirty     bool
}

func NewShaderSchema(logger logging.Logger) *ShaderSchema {
	return &ShaderSchema{
		logger:      logging.OrNop(logger),
		combines:    []string{""},
		allCombines: map[string]struct{}{"": {}},
	}
}

// AddFeatureSet registers set unless one of its features already belongs to
// a registered set, in which case it logs and leaves the schema unchanged.
func (s *ShaderSchema) AddFeatureSet(set FeatureSet) bool {
	set = NewFeatureSet(set...)
	for _, feature := range set {
		if feature == FeatureDefault {
			s.logger.Warnf("shader schema: DEFAULT cannot be part of a feature set")
			return false
		}
		if s.Contains(feature) {
			s.logger.Warnf("shader schema: feature %s is already registered in another set", feature)
			return false
		}
	}
	if len(set) == 0 {
		return false
	}

	s.featureSets = append(s.featureSets, set)
	s.isDirty = true
	return true
}

func (s *ShaderSchema) Contains(feature ShaderFeature) bool {
	for _, set := range s.featureSets {
		if set.Contains(feature) {
			return true
		}
	}
	return false
}

func (s *ShaderSchema) IsDirty() bool {
	return s.isDirty
}

func (s *ShaderSchema) FeatureSets() []FeatureSet {
	return s.featureSets
}

// Build extends the combination list with every set registered since the
// last build. Each new feature is appended to every combination that existed
// before its set was processed, so two features of one set never meet.
func (s *ShaderSchema) Build() {
	if !s.isDirty {
		return
	}

	for _, set := range s.pendingSets() {
		existing := slices.Clone(s.combines)
		for _, feature := range set {
			for _, combine := range existing {
				s.addCombine(combine + feature.Name())
			}
		}
	}
	s.isDirty = false
}

// pendingSets returns the sets whose features appear in no combination yet.
func (s *ShaderSchema) pendingSets() []FeatureSet {
	built := make(map[string]struct{})
	for _, combine := range s.combines {
		for _, name := range splitCombine(combine) {
			built[name] = struct{}{}
		}
	}

	var pending []FeatureSet
	for _, set := range s.featureSets {
		if _, ok := built[set[0].Name()]; !ok {
			pending = append(pending, set)
		}
	}
	return pending
}

func (s *ShaderSchema) addCombine(combine string) {
	if _, ok := s.allCombines[combine]; ok {
		return
	}
	s.allCombines[combine] = struct{}{}
	s.combines = append(s.combines, combine)
}

// GetAllFeatureCombines panics while the schema is dirty.
func (s *ShaderSchema) GetAllFeatureCombines() []string {
	if s.isDirty {
		panic("shader schema is dirty, call Build before reading feature combines")
	}
	return slices.Clone(s.combines)
}

func (s *ShaderSchema) IsFeatureCombineValid(combine string) bool {
	if s.isDirty {
		panic("shader schema is dirty, call Build before reading feature combines")
	}
	_, ok := s.allCombines[combine]
	return ok
}

// GetFeaturesCombine maps any requested features to the canonical key: the
// names of the registered ones, in set registration order.
func (s *ShaderSchema) GetFeaturesCombine(features ...ShaderFeature) string {
	requested := NewFeatureSet(features...)

	var sb strings.Builder
	for _, set := range s.featureSets {
		for _, feature := range set {
			if requested.Contains(feature) {
				sb.WriteString(feature.Name())
			}
		}
	}
	return sb.String()
}

func splitCombine(combine string) []string {
	var names []string
	for _, part := range strings.Split(combine, ";") {
		if part != "" {
			names = append(names, part+";")
		}
	}
	return names
}
