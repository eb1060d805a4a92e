package diff

// AlignKind classifies an entry of a column alignment
type AlignKind int

const (
	Removed AlignKind = iota
	Kept
	Added
)

func (k AlignKind) String() string {
	switch k {
	case Removed:
		return "removed"
	case Kept:
		return "kept"
	case Added:
		return "added"
	default:
		return "unknown"
	}
}

// AlignItem is one entry of an alignment. Prev and Cur index into the
// previous and current sequences; the side that does not apply is -1.
type AlignItem struct {
	Kind AlignKind
	Prev int
	Cur  int
}

// Align computes a longest-common-subsequence alignment of two name
// sequences. Kept items preserve relative order in both inputs; at each
// divergence removals are listed before additions.
func Align(prev, cur []string) []AlignItem {
	n, m := len(prev), len(cur)

	// lcs[i][j] is the LCS length of prev[i:] and cur[j:]
	lcs := make([][]int, n+1)
	for i := range lcs {
		lcs[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if prev[i] == cur[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	items := make([]AlignItem, 0, max(n, m))
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case prev[i] == cur[j]:
			items = append(items, AlignItem{Kind: Kept, Prev: i, Cur: j})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			items = append(items, AlignItem{Kind: Removed, Prev: i, Cur: -1})
			i++
		default:
			items = append(items, AlignItem{Kind: Added, Prev: -1, Cur: j})
			j++
		}
	}
	for ; i < n; i++ {
		items = append(items, AlignItem{Kind: Removed, Prev: i, Cur: -1})
	}
	for ; j < m; j++ {
		items = append(items, AlignItem{Kind: Added, Prev: -1, Cur: j})
	}

	return items
}

// appendOnly reports whether every added item follows the last kept item
func appendOnly(items []AlignItem) bool {
	firstAdded, lastKept := -1, -1
	for idx, item := range items {
		switch item.Kind {
		case Added:
			if firstAdded < 0 {
				firstAdded = idx
			}
		case Kept:
			lastKept = idx
		}
	}
	return firstAdded < 0 || lastKept < 0 || firstAdded > lastKept
}
