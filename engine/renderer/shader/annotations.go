// annotations.go defines the annotation types and parser for the Oxy WGSL pre-processor.
// Annotations are single-line WGSL comments prefixed with @oxy: that inject shared struct
// sources, generated declarations and conditional sections into a shader template.
package shader

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// annotationPrefix is the marker that identifies an Oxy annotation within a WGSL comment line.
// Every annotation must appear on a line beginning with "//" followed by this prefix.
const annotationPrefix = "@oxy:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment line.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct definition.
	//
	// Syntax: //@oxy:include <struct_type>
	annotationTypeInclude AnnotationType = "include"

	// annotationTypeIf keeps the following lines when the definition is set.
	//
	// Syntax: //@oxy:if <DEF>
	annotationTypeIf AnnotationType = "if"

	// annotationTypeIfNot keeps the following lines when the definition is not set.
	//
	// Syntax: //@oxy:ifnot <DEF>
	annotationTypeIfNot AnnotationType = "ifnot"

	// annotationTypeElse flips the innermost conditional section.
	annotationTypeElse AnnotationType = "else"

	// annotationTypeEndIf closes the innermost conditional section.
	annotationTypeEndIf AnnotationType = "endif"

	// annotationTypeInstances is replaced with the MeshInstance struct and its group 2 binding,
	// generated for the permutation's extension stride and instance buffer backing.
	annotationTypeInstances AnnotationType = "instances"

	// annotationTypeVertexInput is replaced with the VertexInput struct generated from the
	// mesh vertex layout.
	annotationTypeVertexInput AnnotationType = "vertex_input"
)

// Annotation represents a single parsed @oxy: annotation from a WGSL shader source line.
type Annotation struct {
	// Type identifies which annotation was parsed.
	Type AnnotationType

	// Args holds the annotation's single argument for include, if and ifnot. Empty otherwise.
	Args []AnnotationArg

	// Line is the 1-based line number in the template source, used for error reporting.
	Line int
}

// AnnotationArg is a typed string used as an annotation argument.
type AnnotationArg string

const (
	// AnnotationArgView identifies the ViewUniform struct.
	// Source: engine/view/assets/view_uniform.wgsl
	AnnotationArgView AnnotationArg = "view"

	// AnnotationArgMaterial identifies the MaterialUniform struct.
	// Source: engine/renderer/material/assets/material_uniform.wgsl
	AnnotationArgMaterial AnnotationArg = "material"
)

// validStructTypes lists the AnnotationArg values accepted by @oxy:include.
var validStructTypes = []AnnotationArg{
	AnnotationArgView,
	AnnotationArgMaterial,
}

// defRegex matches shader definition names: upper case letters, digits and underscores.
var defRegex = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// parseAnnotation attempts to parse a single line of WGSL source as an @oxy: annotation.
// Returns nil with no error for lines that do not contain the annotation prefix.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	after, ok := strings.CutPrefix(trimmed, "//"+annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @oxy annotation", lineNum)
	}

	a := &Annotation{Type: AnnotationType(args[0]), Line: lineNum}
	switch a.Type {
	case annotationTypeInclude:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @oxy include annotation", lineNum, args[1])
		}
		a.Args = []AnnotationArg{AnnotationArg(args[1])}
	case annotationTypeIf, annotationTypeIfNot:
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @oxy %s annotation requires exactly one definition", lineNum, a.Type)
		}
		if !defRegex.MatchString(args[1]) {
			return nil, fmt.Errorf("line %d: invalid definition name %q", lineNum, args[1])
		}
		a.Args = []AnnotationArg{AnnotationArg(args[1])}
	case annotationTypeElse, annotationTypeEndIf, annotationTypeInstances, annotationTypeVertexInput:
		if len(args) != 1 {
			return nil, fmt.Errorf("line %d: @oxy %s annotation takes no arguments", lineNum, a.Type)
		}
	default:
		return nil, fmt.Errorf("line %d: unknown @oxy annotation type %q", lineNum, args[0])
	}
	return a, nil
}
