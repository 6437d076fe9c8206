// Package unionfind provides a disjoint-set forest with path compression and
// union by rank. Spanning-tree construction uses it to reject edges that would
// close a cycle.
package unionfind

// UnionFind tracks a partition of the integers 0..size-1.
type UnionFind struct {
	parent []int
	rank   []int
	sets   int
}

// New returns a UnionFind with size singleton sets.
func New(size int) *UnionFind {
	if size < 0 {
		size = 0
	}
	uf := &UnionFind{
		parent: make([]int, size),
		rank:   make([]int, size),
		sets:   size,
	}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

// Size returns the number of elements.
func (uf *UnionFind) Size() int {
	return len(uf.parent)
}

// Sets returns the number of disjoint sets.
func (uf *UnionFind) Sets() int {
	return uf.sets
}

// Find returns the representative of x's set. Every node on the path from x
// is re-parented directly to the root.
func (uf *UnionFind) Find(x int) int {
	root := x
	for uf.parent[root] != root {
		root = uf.parent[root]
	}
	for uf.parent[x] != root {
		next := uf.parent[x]
		uf.parent[x] = root
		x = next
	}
	return root
}

// Union merges the sets holding x and y. It returns false if they were
// already in the same set.
func (uf *UnionFind) Union(x, y int) bool {
	rootX, rootY := uf.Find(x), uf.Find(y)
	if rootX == rootY {
		return false
	}

	// Attach the shallower tree under the deeper one.
	switch {
	case uf.rank[rootX] < uf.rank[rootY]:
		uf.parent[rootX] = rootY
	case uf.rank[rootX] > uf.rank[rootY]:
		uf.parent[rootY] = rootX
	default:
		uf.parent[rootY] = rootX
		uf.rank[rootX]++
	}
	uf.sets--
	return true
}

// Connected reports whether x and y share a set.
func (uf *UnionFind) Connected(x, y int) bool {
	return uf.Find(x) == uf.Find(y)
}
