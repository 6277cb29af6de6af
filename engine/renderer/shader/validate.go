package shader

import (
	"fmt"

	"github.com/gogpu/naga"
)

// Validator checks a composed WGSL module before it reaches the GPU driver.
type Validator func(source string) error

// Validate compiles source with naga and reports the first problem found. The compiled output
// is discarded.
//
// Parameters:
//   - source: the WGSL source
//
// Returns:
//   - error: nil if the module is valid
func Validate(source string) error {
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("naga: %w", err)
	}
	return nil
}
