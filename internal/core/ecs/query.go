package ecs

// Each2 visits entities that hold both component A and B, passing the first
// instance of each. It walks the smaller store and probes the larger one.
// The visitor may remove the visited entity from either store.
func Each2[A, B any](sa *Store[A], sb *Store[B], fn func(EntityID, *A, *B)) {
	if sa.Len() <= sb.Len() {
		for id := range sa.Entities() {
			a, okA := sa.First(id)
			b, okB := sb.First(id)
			if okA && okB {
				fn(id, a, b)
			}
		}
		return
	}
	for id := range sb.Entities() {
		a, okA := sa.First(id)
		b, okB := sb.First(id)
		if okA && okB {
			fn(id, a, b)
		}
	}
}
