package window

// WindowBuilderOption is a functional option for configuring a window before it opens.
type WindowBuilderOption func(s *settings)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(s *settings) {
		s.title = title
	}
}

// WithSize sets the initial window size.
//
// Parameters:
//   - width, height: size in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(s *settings) {
		if width > 0 {
			s.width = width
		}
		if height > 0 {
			s.height = height
		}
	}
}

// WithSizeLimits bounds the size the user can resize the window to. Zero maximums leave it unbounded.
//
// Parameters:
//   - minWidth, minHeight: the smallest size
//   - maxWidth, maxHeight: the largest size
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(s *settings) {
		s.minWidth, s.minHeight = minWidth, minHeight
		s.maxWidth, s.maxHeight = maxWidth, maxHeight
	}
}

// WithResizable allows or forbids resizing.
func WithResizable(resizable bool) WindowBuilderOption {
	return func(s *settings) {
		s.resizable = resizable
	}
}
