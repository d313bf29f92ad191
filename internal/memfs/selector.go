package memfs

import (
	"slices"
)

// dataNode is a simulated datanode. Fields are guarded by the cluster lock.
type dataNode struct {
	id       string
	host     string
	capacity int64
	used     int64
	healthy  bool
}

func (n *dataNode) free() int64 { return n.capacity - n.used }

// DataNodeInfo is a point-in-time view of one datanode.
type DataNodeInfo struct {
	ID       string
	Host     string
	Capacity int64
	Used     int64
	Healthy  bool
}

type nodeSelector struct {
	nodes func() []*dataNode
}

func newNodeSelector(nodes func() []*dataNode) *nodeSelector {
	return &nodeSelector{nodes: nodes}
}

// SelectBestNodes picks up to n healthy nodes with room for size bytes,
// preferring the least used. Nodes in exclude are skipped. The bool reports
// whether n nodes were found.
func (s *nodeSelector) SelectBestNodes(n int, size int64, exclude ...*dataNode) ([]*dataNode, bool) {
	candidates := make([]*dataNode, 0)
	for _, node := range s.nodes() {
		if !node.healthy || node.free() < size || slices.Contains(exclude, node) {
			continue
		}
		candidates = append(candidates, node)
	}

	slices.SortStableFunc(candidates, func(a, b *dataNode) int {
		switch {
		case a.used < b.used:
			return -1
		case a.used > b.used:
			return 1
		default:
			return 0
		}
	})

	if n < 0 {
		n = 0
	}
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates, n > 0 && len(candidates) >= n
}
