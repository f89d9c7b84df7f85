package driven

// RandomSource picks uniformly distributed indices for member assignment.
// Production wiring must use a cryptographically strong source so that
// assignment cannot be predicted.
type RandomSource interface {
	// Intn returns a uniform integer in [0, n). n must be positive.
	Intn(n int) (int, error)
}
