// pre_processor.go implements the Oxy WGSL shader pre-processor. It scans a shader template
// for @oxy: annotations, injects shared struct sources and generated declarations, and keeps or
// drops conditional sections according to the permutation's shader definitions.
package shader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Carmen-Shannon/oxy-instancing/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-instancing/engine/view"
)

// registryEntry pairs a WGSL struct source string (embedded from a .wgsl asset file)
// with the WGSL type name it declares.
type registryEntry struct {
	Source string
	Type   string
}

// Generated holds the per-permutation WGSL blocks substituted for @oxy:instances and
// @oxy:vertex_input.
type Generated struct {
	Instances   string
	VertexInput string
}

// condition is one open @oxy:if / @oxy:ifnot section.
type condition struct {
	line     int
	parentOn bool
	matched  bool
	seenElse bool
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	structRegistry map[AnnotationArg]registryEntry
}

// PreProcessor expands @oxy: annotations in a WGSL template into a complete shader module.
type PreProcessor interface {
	// Process expands source. @oxy:include annotations are replaced with the registered struct
	// source, @oxy:instances and @oxy:vertex_input with the generated blocks, and conditional
	// sections are kept only when their condition holds for defs. Annotations inside dropped
	// sections are not expanded.
	//
	// Parameters:
	//   - source: the WGSL template
	//   - defs: the shader definitions set for this permutation
	//   - gen: the generated blocks
	//
	// Returns:
	//   - string: the expanded WGSL source
	//   - error: an error if an annotation is malformed or the conditional sections are unbalanced
	Process(source string, defs []string, gen Generated) (string, error)
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a new PreProcessor with the view and material uniform structs registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgView:     {Source: view.GPUViewUniformSource, Type: "ViewUniform"},
			AnnotationArgMaterial: {Source: material.GPUMaterialUniformSource, Type: "MaterialUniform"},
		},
	}
}

func (p *preProcessor) Process(source string, defs []string, gen Generated) (string, error) {
	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))
	var stack []condition
	on := true

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			if on {
				out = append(out, line)
			}
			continue
		}

		switch a.Type {
		case annotationTypeIf, annotationTypeIfNot:
			set := slices.Contains(defs, string(a.Args[0]))
			matched := set == (a.Type == annotationTypeIf)
			stack = append(stack, condition{line: a.Line, parentOn: on, matched: matched})
			on = on && matched
		case annotationTypeElse:
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: @oxy else without if", a.Line)
			}
			top := &stack[len(stack)-1]
			if top.seenElse {
				return "", fmt.Errorf("line %d: duplicate @oxy else", a.Line)
			}
			top.seenElse = true
			on = top.parentOn && !top.matched
		case annotationTypeEndIf:
			if len(stack) == 0 {
				return "", fmt.Errorf("line %d: @oxy endif without if", a.Line)
			}
			on = stack[len(stack)-1].parentOn
			stack = stack[:len(stack)-1]
		case annotationTypeInclude:
			if on {
				out = append(out, p.structRegistry[a.Args[0]].Source)
			}
		case annotationTypeInstances:
			if on {
				out = append(out, gen.Instances)
			}
		case annotationTypeVertexInput:
			if on {
				out = append(out, gen.VertexInput)
			}
		}
	}

	if len(stack) > 0 {
		return "", fmt.Errorf("line %d: unterminated @oxy %s", stack[len(stack)-1].line, annotationTypeIf)
	}
	return strings.Join(out, "\n"), nil
}
