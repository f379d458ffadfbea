package common

// OrDefault returns v, or def when v is the zero value. Descriptor fields use it for "unset means default".
func OrDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
