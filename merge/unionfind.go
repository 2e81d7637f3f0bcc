package merge

// unionFind groups candidates into merge components over the overlap graph.
// Using union-find rather than greedy pairwise chaining keeps the merge
// result independent of input order.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {

	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}

	for i := range uf.parent {
		uf.parent[i] = i
	}

	return uf
}

// find returns the component root of x with path compression
func (uf *unionFind) find(x int) int {

	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}

	return x
}

// union joins the components containing x and y
func (uf *unionFind) union(x, y int) {

	rx := uf.find(x)
	ry := uf.find(y)

	if rx == ry {
		return
	}

	if uf.rank[rx] < uf.rank[ry] {
		rx, ry = ry, rx
	}

	uf.parent[ry] = rx

	if uf.rank[rx] == uf.rank[ry] {
		uf.rank[rx]++
	}
}
