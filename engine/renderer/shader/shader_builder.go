package shader

// ComposerBuilderOption is a function that configures a composer.
type ComposerBuilderOption func(*composer)

// WithTemplate replaces the built-in template. The template must declare the @oxy:instances and
// @oxy:vertex_input injection points and one vertex and one fragment entry point.
//
// Parameters:
//   - source: the WGSL template source
//
// Returns:
//   - ComposerBuilderOption: a function that applies the template to a composer
func WithTemplate(source string) ComposerBuilderOption {
	return func(c *composer) {
		c.template = source
	}
}
