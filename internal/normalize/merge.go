// Package normalize merges resolved venue data into the unified Quote shape
// consumed by the detectors. Its coalesce primitive is shared with the
// registry's hierarchy accumulation: both are "prefer the newer value, but
// only when it is actually present" joins.
package normalize

// Coalesce returns *right when right is present (non-nil) and left otherwise.
// It is the non-destructive merge rule used when joining supplementary
// columns onto a base row: a present right-hand value wins, absence never
// overwrites.
func Coalesce[T any](left T, right *T) T {
	if right != nil {
		return *right
	}
	return left
}
