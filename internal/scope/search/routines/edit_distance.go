package routines

// EditDistance matches distinct terms within a maximum edit distance
type EditDistance struct{}

// Name returns the display name of the routine
func (EditDistance) Name() string { return "Edit Distance" }

// Key returns the routine key
func (EditDistance) Key() string { return "edit_distance" }

// Weight returns the routine weight
func (EditDistance) Weight() int { return 10 }

// Test reports whether 0 < d(a, b) <= MaxEditDistance. Identical terms are
// left to the exact routine.
func (EditDistance) Test(a, b string, opts Options, _ any) (Result, error) {
	d := Distance(a, b)
	return Result{
		IsMatch:    d > 0 && d <= opts.MaxEditDistance,
		Properties: map[string]any{"edit_distance": d},
	}, nil
}
