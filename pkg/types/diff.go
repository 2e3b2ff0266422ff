package types

// DiffSets returns the members of desired missing from current (to insert)
// and the members of current missing from desired (to delete). Duplicates
// are collapsed and input order is preserved.
func DiffSets[T comparable](desired, current []T) (toInsert, toDelete []T) {
	want := make(map[T]bool, len(desired))
	for _, v := range desired {
		want[v] = true
	}
	have := make(map[T]bool, len(current))
	for _, v := range current {
		have[v] = true
	}

	seen := make(map[T]bool, len(desired))
	for _, v := range desired {
		if !have[v] && !seen[v] {
			toInsert = append(toInsert, v)
		}
		seen[v] = true
	}
	seen = make(map[T]bool, len(current))
	for _, v := range current {
		if !want[v] && !seen[v] {
			toDelete = append(toDelete, v)
		}
		seen[v] = true
	}
	return toInsert, toDelete
}
