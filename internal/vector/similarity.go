package vector

// InnerProduct returns the inner product of two vectors of equal length, or 0 when they differ.
func InnerProduct(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}
