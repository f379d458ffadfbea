package shader

import (
	"fmt"
	"strings"

	"github.com/gogpu/naga"
)

// Validate parses and validates plain WGSL source, returning the first error naga reports.
//
// Parameters:
//   - source: WGSL with every annotation already expanded
//
// Returns:
//   - error: nil when the source is valid
func Validate(source string) error {
	if _, err := naga.Compile(source); err != nil {
		return fmt.Errorf("shader: validate: %w", err)
	}
	return nil
}

// IsUnsupported reports whether err comes from a WGSL feature naga does not handle yet rather than from a
// mistake in the source.
func IsUnsupported(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"not yet implemented", "not supported", "unsupported"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
