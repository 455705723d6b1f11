package routines

// Exact matches identical terms
type Exact struct{}

// Name returns the display name of the routine
func (Exact) Name() string { return "Exact Match" }

// Key returns the routine key
func (Exact) Key() string { return "exact" }

// Weight returns the routine weight
func (Exact) Weight() int { return 100 }

// Test reports whether a and b are equal
func (Exact) Test(a, b string, _ Options, _ any) (Result, error) {
	return match(a == b), nil
}
