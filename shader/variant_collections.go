package shader

import (
	"slices"

	"github.com/gekko3d/lumen/logging"
)

type programEntry struct {
	shaders  []string
	uber     bool
	combines []string
}

// ShaderVariantCollections maps program names to their shader files and,
// for uber programs, to the feature combines that must be compiled.
type ShaderVariantCollections struct {
	logger   logging.Logger
	programs map[string]*programEntry
}

func NewShaderVariantCollections(logger logging.Logger) *ShaderVariantCollections {
	return &ShaderVariantCollections{
		logger:   logging.OrNop(logger),
		programs: make(map[string]*programEntry),
	}
}

func (c *ShaderVariantCollections) RegisterNonUberShader(program string, shaders []string) bool {
	if _, ok := c.programs[program]; ok {
		c.logger.Warnf("shader program %s is already registered", program)
		return false
	}
	c.programs[program] = &programEntry{shaders: slices.Clone(shaders)}
	return true
}

// RegisterUberShader registers program together with its combines. The
// empty combine is always included.
func (c *ShaderVariantCollections) RegisterUberShader(program string, shaders []string, combines []string) bool {
	if _, ok := c.programs[program]; ok {
		c.logger.Warnf("shader program %s is already registered", program)
		return false
	}
	entry := &programEntry{shaders: slices.Clone(shaders), uber: true, combines: []string{""}}
	c.programs[program] = entry
	for _, combine := range combines {
		c.AddFeatureCombine(program, combine)
	}
	return true
}

func (c *ShaderVariantCollections) AddFeatureCombine(program string, combine string) bool {
	entry, ok := c.programs[program]
	if !ok || !entry.uber {
		c.logger.Warnf("shader program %s is not a registered uber shader", program)
		return false
	}
	if slices.Contains(entry.combines, combine) {
		return false
	}
	entry.combines = append(entry.combines, combine)
	return true
}

func (c *ShaderVariantCollections) DeleteFeatureCombine(program string, combine string) bool {
	entry, ok := c.programs[program]
	if !ok || !entry.uber {
		return false
	}
	i := slices.Index(entry.combines, combine)
	if i < 0 {
		return false
	}
	entry.combines = slices.Delete(entry.combines, i, i+1)
	return true
}

func (c *ShaderVariantCollections) IsRegistered(program string) bool {
	_, ok := c.programs[program]
	return ok
}

func (c *ShaderVariantCollections) IsUberShader(program string) bool {
	entry, ok := c.programs[program]
	return ok && entry.uber
}

func (c *ShaderVariantCollections) IsNonUberShader(program string) bool {
	entry, ok := c.programs[program]
	return ok && !entry.uber
}

func (c *ShaderVariantCollections) HasFeatureCombine(program string, combine string) bool {
	entry, ok := c.programs[program]
	if !ok {
		return false
	}
	if !entry.uber {
		return combine == ""
	}
	return slices.Contains(entry.combines, combine)
}

func (c *ShaderVariantCollections) GetShaders(program string) []string {
	if entry, ok := c.programs[program]; ok {
		return entry.shaders
	}
	return nil
}

// GetFeatureCombines returns the combines to compile for program. Non-uber
// programs have the single empty combine.
func (c *ShaderVariantCollections) GetFeatureCombines(program string) []string {
	entry, ok := c.programs[program]
	if !ok {
		return nil
	}
	if !entry.uber {
		return []string{""}
	}
	return slices.Clone(entry.combines)
}

func (c *ShaderVariantCollections) Programs() []string {
	names := make([]string, 0, len(c.programs))
	for name := range c.programs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
