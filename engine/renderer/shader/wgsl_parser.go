package shader

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgslVertexFormatMap maps WGSL type names to their corresponding wgpu vertex format
var wgslVertexFormatMap = map[string]wgpu.VertexFormat{
	"f32":       wgpu.VertexFormatFloat32,
	"vec2f":     wgpu.VertexFormatFloat32x2,
	"vec2<f32>": wgpu.VertexFormatFloat32x2,
	"vec3f":     wgpu.VertexFormatFloat32x3,
	"vec3<f32>": wgpu.VertexFormatFloat32x3,
	"vec4f":     wgpu.VertexFormatFloat32x4,
	"vec4<f32>": wgpu.VertexFormatFloat32x4,
	"i32":       wgpu.VertexFormatSint32,
	"vec2<i32>": wgpu.VertexFormatSint32x2,
	"vec3<i32>": wgpu.VertexFormatSint32x3,
	"vec4<i32>": wgpu.VertexFormatSint32x4,
	"u32":       wgpu.VertexFormatUint32,
	"vec2<u32>": wgpu.VertexFormatUint32x2,
	"vec3<u32>": wgpu.VertexFormatUint32x3,
	"vec4<u32>": wgpu.VertexFormatUint32x4,
}

// wgslVertexTypeMap maps the vertex formats a mesh layout may use to the WGSL type the
// generated VertexInput struct declares for them.
var wgslVertexTypeMap = map[wgpu.VertexFormat]string{
	wgpu.VertexFormatFloat32:   "f32",
	wgpu.VertexFormatFloat32x2: "vec2<f32>",
	wgpu.VertexFormatFloat32x3: "vec3<f32>",
	wgpu.VertexFormatFloat32x4: "vec4<f32>",
	wgpu.VertexFormatSint32:    "i32",
	wgpu.VertexFormatSint32x2:  "vec2<i32>",
	wgpu.VertexFormatSint32x3:  "vec3<i32>",
	wgpu.VertexFormatSint32x4:  "vec4<i32>",
	wgpu.VertexFormatUint32:    "u32",
	wgpu.VertexFormatUint32x2:  "vec2<u32>",
	wgpu.VertexFormatUint32x3:  "vec3<u32>",
	wgpu.VertexFormatUint32x4:  "vec4<u32>",
}

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	// The type capture (.+) is greedy to handle parameterized types like array<T, N>.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> view: ViewUniform;
	// or handle types: @group(1) @binding(1) var base_texture: texture_2d<f32>;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseBindings extracts every @group(N) @binding(M) resource declaration from WGSL source in
// source order.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedBinding: the declarations found
func parseBindings(source string) []parsedBinding {
	matches := bindGroupDeclRegex.FindAllStringSubmatch(source, -1)
	out := make([]parsedBinding, 0, len(matches))
	for _, match := range matches {
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		out = append(out, parsedBinding{
			group:        group,
			binding:      binding,
			addressSpace: strings.TrimSpace(match[3]),
			varName:      strings.TrimSpace(match[4]),
			typeName:     strings.TrimSpace(match[5]),
		})
	}
	return out
}

// bindGroupLayouts converts parsed declarations into per-group binding layouts indexed by group.
// Groups with no declarations below the highest declared group are left empty. Each group's
// entries are sorted by binding index.
//
// Parameters:
//   - bindings: the parsed declarations
//   - visibility: the shader stage visibility flag to set on each entry
//
// Returns:
//   - [][]renderer.BindingLayout: layouts keyed by group index
//   - error: an error if a declaration binds an unsupported resource or repeats a binding
func bindGroupLayouts(bindings []parsedBinding, visibility wgpu.ShaderStage) ([][]renderer.BindingLayout, error) {
	maxGroup := -1
	for _, b := range bindings {
		maxGroup = max(maxGroup, b.group)
	}

	groups := make([][]renderer.BindingLayout, maxGroup+1)
	for _, b := range bindings {
		kind, ok := classifyResource(b.addressSpace, b.typeName)
		if !ok {
			return nil, fmt.Errorf("group %d binding %d: unsupported resource %q", b.group, b.binding, b.typeName)
		}
		for _, existing := range groups[b.group] {
			if existing.Binding == uint32(b.binding) {
				return nil, fmt.Errorf("group %d binding %d declared twice", b.group, b.binding)
			}
		}
		groups[b.group] = append(groups[b.group], renderer.BindingLayout{
			Binding:    uint32(b.binding),
			Kind:       kind,
			Visibility: visibility,
		})
	}

	for _, entries := range groups {
		slices.SortFunc(entries, func(a, b renderer.BindingLayout) int {
			return int(a.Binding) - int(b.Binding)
		})
	}
	return groups, nil
}

// parseEntryPoint extracts the entry point function name for the given stage from WGSL source.
// Returns an empty string if no matching entry point attribute is found.
//
// Parameters:
//   - source: WGSL source with comments already stripped
//   - stage: wgpu.ShaderStageVertex or wgpu.ShaderStageFragment
//
// Returns:
//   - string: the entry point function name, or empty string if not found
func parseEntryPoint(source string, stage wgpu.ShaderStage) string {
	var re *regexp.Regexp
	switch stage {
	case wgpu.ShaderStageVertex:
		re = vertexEntryRegex
	case wgpu.ShaderStageFragment:
		re = fragmentEntryRegex
	default:
		return ""
	}

	if match := re.FindStringSubmatch(source); match != nil {
		return match[1]
	}
	return ""
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))

	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}

	return structs
}

// parseStructFields parses the body of a struct block into individual fields,
// extracting @location and @builtin attributes along with the field name and type
//
// Parameters:
//   - body: the content between { and } of a struct declaration
//
// Returns:
//   - []parsedField: all fields found in the struct body
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		if builtinRegex.MatchString(line) {
			field.isBuiltin = true
		}
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}

	return fields
}

// findStruct returns the parsed struct with the given name.
func findStruct(structs []parsedStruct, name string) (parsedStruct, bool) {
	for _, ps := range structs {
		if ps.name == name {
			return ps, true
		}
	}
	return parsedStruct{}, false
}

// vertexInputFormats maps each @location field of a vertex input struct to the vertex format
// its WGSL type reads. Returns false if the struct has a builtin field or a type with no
// vertex format.
//
// Parameters:
//   - ps: the parsed vertex input struct
//
// Returns:
//   - map[uint32]wgpu.VertexFormat: formats keyed by shader location
//   - bool: false if the struct is not a pure vertex input
func vertexInputFormats(ps parsedStruct) (map[uint32]wgpu.VertexFormat, bool) {
	out := make(map[uint32]wgpu.VertexFormat, len(ps.fields))
	for _, f := range ps.fields {
		if f.isBuiltin || f.location < 0 {
			return nil, false
		}
		format, ok := wgslVertexFormatMap[f.typeName]
		if !ok {
			return nil, false
		}
		out[uint32(f.location)] = format
	}
	return out, true
}
