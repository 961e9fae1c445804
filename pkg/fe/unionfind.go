package fe

// unionFind is a disjoint-set forest with path halving and union by size.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n), size: make([]int, n)}
	for i := range u.parent {
		u.parent[i] = i
		u.size[i] = 1
	}
	return u
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
}

// components groups 0..n-1 by root, in order of first member.
func (u *unionFind) components() [][]int {
	label := make(map[int]int)
	var out [][]int
	for i := range u.parent {
		r := u.find(i)
		k, ok := label[r]
		if !ok {
			k = len(out)
			label[r] = k
			out = append(out, nil)
		}
		out[k] = append(out[k], i)
	}
	return out
}

// connectedComponents labels an undirected graph given as adjacency lists.
func connectedComponents(adj [][]int) [][]int {
	u := newUnionFind(len(adj))
	for i, ns := range adj {
		for _, j := range ns {
			u.union(i, j)
		}
	}
	return u.components()
}
