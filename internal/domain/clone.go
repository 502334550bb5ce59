package domain

// clonePtr copies the pointee so the clone stops aliasing the original.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
