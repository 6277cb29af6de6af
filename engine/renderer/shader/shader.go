// Package shader composes the WGSL permutations the instancing pipelines are built from. A single
// template is specialized per mesh vertex layout, instance buffer backing, material extension and
// shader definitions, then checked against the Go-side GPU record layouts before it is compiled.
package shader

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-instancing/engine/instance"
	"github.com/Carmen-Shannon/oxy-instancing/engine/mesh"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
)

// instancedTemplate is the built-in instancing shader template.
//
//go:embed assets/instanced.wgsl
var instancedTemplate string

// Definitions derived from the mesh vertex layout.
const (
	DefVertexNormal = "VERTEX_NORMAL"
	DefVertexUV     = "VERTEX_UV"
	DefVertexColor  = "VERTEX_COLOR"
)

// namedLocations maps the template's named vertex inputs to their location, WGSL type and the
// definition set when the mesh provides them.
var namedLocations = map[uint32]struct {
	name string
	typ  string
	def  string
}{
	mesh.LocationPosition: {"position", "vec3<f32>", ""},
	mesh.LocationNormal:   {"normal", "vec3<f32>", DefVertexNormal},
	mesh.LocationUV:       {"uv", "vec2<f32>", DefVertexUV},
	mesh.LocationColor:    {"color", "vec4<f32>", DefVertexColor},
}

// Permutation identifies one specialization of the template.
type Permutation struct {
	Layout          mesh.VertexLayout
	Defs            []string
	Backing         instance.Backing
	Capacity        uint32
	ExtensionStride uint32
}

// Key returns a canonical string for the permutation. Definitions are compared as a set.
//
// Returns:
//   - string: the permutation key
func (p Permutation) Key() string {
	defs := slices.Clone(p.Defs)
	slices.Sort(defs)
	defs = slices.Compact(defs)
	return fmt.Sprintf("%s#%s#%s/%d#ext%d", p.Layout.Key(), strings.Join(defs, ","), p.Backing, p.Capacity, p.ExtensionStride)
}

// shader is the implementation of the Shader interface.
type shader struct {
	key            string
	source         string
	vertexEntry    string
	fragmentEntry  string
	bindGroups     [][]renderer.BindingLayout
	defs           []string
	instanceStride uint32
}

// Shader is a composed WGSL module together with what pipeline creation needs to know about it.
type Shader interface {
	// Key returns the permutation key the shader was composed for.
	//
	// Returns:
	//   - string: the permutation key
	Key() string

	// Source returns the composed WGSL source.
	//
	// Returns:
	//   - string: the WGSL source
	Source() string

	// VertexEntry returns the vertex entry point name.
	VertexEntry() string

	// FragmentEntry returns the fragment entry point name.
	FragmentEntry() string

	// BindGroups returns the layout of each bind group the module declares, indexed by group.
	//
	// Returns:
	//   - [][]renderer.BindingLayout: the bind group layouts
	BindGroups() [][]renderer.BindingLayout

	// Defs returns the full sorted definition set, including those derived from the vertex layout.
	//
	// Returns:
	//   - []string: the definitions
	Defs() []string

	// InstanceStride returns the byte size of the module's MeshInstance struct.
	//
	// Returns:
	//   - uint32: the instance stride
	InstanceStride() uint32
}

var _ Shader = &shader{}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) VertexEntry() string {
	return s.vertexEntry
}

func (s *shader) FragmentEntry() string {
	return s.fragmentEntry
}

func (s *shader) BindGroups() [][]renderer.BindingLayout {
	return s.bindGroups
}

func (s *shader) Defs() []string {
	return s.defs
}

func (s *shader) InstanceStride() uint32 {
	return s.instanceStride
}

// composer is the implementation of the Composer interface.
type composer struct {
	template string
	pp       PreProcessor
}

// Composer specializes the shader template for a permutation.
type Composer interface {
	// Compose builds the WGSL module for p. The mesh layout must provide a float32x3 position
	// at location 0, the uniform backing needs a non-zero capacity and INSTANCE_COLOR needs an
	// extension of at least 16 bytes. The composed module's MeshInstance layout is checked
	// against the packer's stride and its VertexInput against the mesh layout.
	//
	// Parameters:
	//   - p: the permutation
	//
	// Returns:
	//   - Shader: the composed shader
	//   - error: an error describing why the permutation cannot be built
	Compose(p Permutation) (Shader, error)
}

var _ Composer = &composer{}

// NewComposer creates a Composer over the built-in template.
//
// Parameters:
//   - options: variadic list of ComposerBuilderOption functions
//
// Returns:
//   - Composer: the composer
func NewComposer(options ...ComposerBuilderOption) Composer {
	c := &composer{
		template: instancedTemplate,
		pp:       NewPreProcessor(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *composer) Compose(p Permutation) (Shader, error) {
	pos, ok := p.Layout.Attribute(mesh.LocationPosition)
	if !ok || pos.Format != wgpu.VertexFormatFloat32x3 {
		return nil, fmt.Errorf("vertex layout has no float32x3 position at location %d", mesh.LocationPosition)
	}
	if p.Backing == instance.BackingUniform && p.Capacity == 0 {
		return nil, fmt.Errorf("uniform instance backing with zero capacity")
	}

	defs := slices.Clone(p.Defs)
	vertexInput, vertexDefs, err := generateVertexInput(p.Layout)
	if err != nil {
		return nil, err
	}
	defs = append(defs, vertexDefs...)
	slices.Sort(defs)
	defs = slices.Compact(defs)

	if slices.Contains(defs, material.DefInstanceColor) && p.ExtensionStride < 16 {
		return nil, fmt.Errorf("INSTANCE_COLOR needs a 16 byte instance extension, have %d", p.ExtensionStride)
	}

	source, err := c.pp.Process(c.template, defs, Generated{
		Instances:   generateInstances(p.Backing, p.Capacity, p.ExtensionStride),
		VertexInput: vertexInput,
	})
	if err != nil {
		return nil, fmt.Errorf("pre-process: %w", err)
	}

	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)
	sizes := computeStructSizes(structs)

	want := instance.Stride(p.ExtensionStride)
	got, ok := sizes["MeshInstance"]
	if !ok || got.size != uint64(want) {
		return nil, fmt.Errorf("MeshInstance is %d bytes in WGSL, packer stride is %d", got.size, want)
	}

	if err := checkVertexInput(structs, p.Layout); err != nil {
		return nil, err
	}

	groups, err := bindGroupLayouts(parseBindings(cleaned), wgpu.ShaderStageVertex|wgpu.ShaderStageFragment)
	if err != nil {
		return nil, err
	}

	s := &shader{
		key:            p.Key(),
		source:         source,
		vertexEntry:    parseEntryPoint(cleaned, wgpu.ShaderStageVertex),
		fragmentEntry:  parseEntryPoint(cleaned, wgpu.ShaderStageFragment),
		bindGroups:     groups,
		defs:           defs,
		instanceStride: want,
	}
	if s.vertexEntry == "" || s.fragmentEntry == "" {
		return nil, fmt.Errorf("template is missing a vertex or fragment entry point")
	}
	return s, nil
}

// generateVertexInput writes the VertexInput struct for layout and returns the definitions for
// the named inputs it provides with the expected type.
func generateVertexInput(layout mesh.VertexLayout) (string, []string, error) {
	attrs := slices.Clone(layout.Attributes)
	slices.SortFunc(attrs, func(a, b wgpu.VertexAttribute) int {
		return int(a.ShaderLocation) - int(b.ShaderLocation)
	})

	var sb strings.Builder
	var defs []string
	sb.WriteString("struct VertexInput {\n")
	for _, a := range attrs {
		typ, ok := wgslVertexTypeMap[a.Format]
		if !ok {
			return "", nil, fmt.Errorf("location %d: unsupported vertex format %v", a.ShaderLocation, a.Format)
		}
		name := fmt.Sprintf("attr%d", a.ShaderLocation)
		if named, ok := namedLocations[a.ShaderLocation]; ok && named.typ == typ {
			name = named.name
			if named.def != "" {
				defs = append(defs, named.def)
			}
		}
		fmt.Fprintf(&sb, "    @location(%d) %s: %s,\n", a.ShaderLocation, name, typ)
	}
	sb.WriteString("}")
	return sb.String(), defs, nil
}

// generateInstances writes the MeshInstance struct with the material extension and the group 2
// binding for the backing.
func generateInstances(backing instance.Backing, capacity, extension uint32) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(instance.GPUMeshInstanceSource, "\n"))
	sb.WriteString("\n")
	if ext := roundUpAlign(16, uint64(extension)); ext > 0 {
		fmt.Fprintf(&sb, "    extension: array<vec4<f32>, %d>,\n", ext/16)
	}
	sb.WriteString("}\n\n")

	if backing == instance.BackingUniform {
		fmt.Fprintf(&sb, "@group(%d) @binding(0) var<uniform> instances: array<MeshInstance, %d>;", renderer.GroupInstance, capacity)
	} else {
		fmt.Fprintf(&sb, "@group(%d) @binding(0) var<storage, read> instances: array<MeshInstance>;", renderer.GroupInstance)
	}
	return sb.String()
}

// checkVertexInput verifies the composed VertexInput reads every attribute of layout with the
// attribute's format.
func checkVertexInput(structs []parsedStruct, layout mesh.VertexLayout) error {
	ps, ok := findStruct(structs, "VertexInput")
	if !ok {
		return fmt.Errorf("composed module has no VertexInput")
	}
	formats, ok := vertexInputFormats(ps)
	if !ok {
		return fmt.Errorf("VertexInput is not a pure vertex input struct")
	}
	if len(formats) != len(layout.Attributes) {
		return fmt.Errorf("VertexInput has %d inputs, layout has %d attributes", len(formats), len(layout.Attributes))
	}
	for _, a := range layout.Attributes {
		if formats[a.ShaderLocation] != a.Format {
			return fmt.Errorf("location %d: VertexInput reads %v, layout provides %v", a.ShaderLocation, formats[a.ShaderLocation], a.Format)
		}
	}
	return nil
}
