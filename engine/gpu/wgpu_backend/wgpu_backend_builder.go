package wgpu_backend

// BackendBuilderOption is a function that configures the backend during construction.
type BackendBuilderOption func(*Device)

// WithForceFallbackAdapter requests the software fallback adapter.
//
// Parameters:
//   - force: whether to force the fallback adapter
//
// Returns:
//   - BackendBuilderOption: a function that sets the adapter preference
func WithForceFallbackAdapter(force bool) BackendBuilderOption {
	return func(d *Device) {
		d.forceFallbackAdapter = force
	}
}

// WithPresentMode sets the present mode. Defaults to PresentModeUncapped.
//
// Parameters:
//   - mode: the present mode
//
// Returns:
//   - BackendBuilderOption: a function that sets the present mode
func WithPresentMode(mode PresentMode) BackendBuilderOption {
	return func(d *Device) {
		d.presentMode = mode
	}
}

// WithCompileWorkers sets how many goroutines validate shaders for asynchronous pipeline compiles.
//
// Parameters:
//   - n: the worker count, ignored when not positive
//
// Returns:
//   - BackendBuilderOption: a function that sets the worker count
func WithCompileWorkers(n int) BackendBuilderOption {
	return func(d *Device) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithValidation toggles WGSL validation before pipeline creation. Enabled by default.
func WithValidation(enabled bool) BackendBuilderOption {
	return func(d *Device) {
		d.validate = enabled
	}
}
