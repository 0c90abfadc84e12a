package common

// Coalesce returns the first value that is not the zero value of T.
// It is used to layer fallbacks, e.g. an API field over a content field over a constant.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}
