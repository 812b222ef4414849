// Package comm coordinates cooperating simulation processes. Root boxes are
// partitioned into contiguous blocks, one block per peer; particles and
// essential tree cells migrate between peers through blocking websocket
// exchanges that act as a per-phase barrier.
package comm

// Partition identifies this process within the cooperating set.
type Partition struct {
	Rank int
	Size int
}

// OwnerOf maps a root box index to the rank owning it. The mapping is
// monotone, so every rank owns one contiguous block, balanced to within one
// box.
func (p Partition) OwnerOf(root, rootN int) int {
	if p.Size <= 1 || rootN <= 0 {
		return 0
	}
	return root * p.Size / rootN
}

// Owns reports whether this rank owns the given root box.
func (p Partition) Owns(root, rootN int) bool {
	return p.OwnerOf(root, rootN) == p.Rank
}
