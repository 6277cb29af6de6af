package pipeline

import "github.com/Carmen-Shannon/oxy-instancing/engine/renderer/shader"

// SpecializerBuilderOption is a function that configures a specializer.
type SpecializerBuilderOption func(*specializer)

// WithValidator replaces the shader validator. A nil validator skips validation.
//
// Parameters:
//   - v: the validator
//
// Returns:
//   - SpecializerBuilderOption: a function that applies the validator to a specializer
func WithValidator(v shader.Validator) SpecializerBuilderOption {
	return func(s *specializer) {
		s.validator = v
	}
}

// WithComposer replaces the shader composer.
//
// Parameters:
//   - c: the composer
//
// Returns:
//   - SpecializerBuilderOption: a function that applies the composer to a specializer
func WithComposer(c shader.Composer) SpecializerBuilderOption {
	return func(s *specializer) {
		s.composer = c
	}
}
