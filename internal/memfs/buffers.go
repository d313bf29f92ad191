package memfs

import (
	"sync/atomic"

	"github.com/mochivi/dfs-facade/pkg/native"
)

// resource is the bookkeeping shared by every native buffer and stream the
// cluster hands out.
type resource struct {
	cluster *Cluster
	freed   atomic.Bool
}

func (c *Cluster) track(r *resource) {
	r.cluster = c
	c.outstanding.Add(1)
}

func (r *resource) release() bool {
	if !r.freed.CompareAndSwap(false, true) {
		r.cluster.doubleFrees.Add(1)
		return false
	}
	r.cluster.outstanding.Add(-1)
	return true
}

type fileInfoList struct {
	resource
	entries []native.FileInfo
}

func (l *fileInfoList) Entries() []native.FileInfo { return l.entries }
func (l *fileInfoList) Len() int                   { return len(l.entries) }
func (l *fileInfoList) Free()                      { l.release() }

type blockHosts struct {
	resource
	blocks [][]string
}

func (h *blockHosts) Blocks() [][]string { return h.blocks }
func (h *blockHosts) Free()              { h.release() }
