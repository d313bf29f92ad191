package memfs

import (
	"bytes"
	"log/slog"
	"slices"
	"syscall"

	"github.com/mochivi/dfs-facade/internal/storage/block"
)

// dropBlocks frees the payloads and replica accounting of a file's blocks.
// It must be called with c.mu held for writing.
func (c *Cluster) dropBlocks(n *inode) {
	for _, b := range n.blocks {
		for _, node := range b.nodes {
			node.used -= b.size
		}
		if err := c.store.Delete(b.id); err != nil {
			c.logger.Warn("failed to delete block", slog.String("block_id", b.id), slog.String("error", err.Error()))
		}
	}
	n.blocks = nil
	n.size = 0
}

// writeContent replaces a file's content with data. It must be called with
// c.mu held for writing.
func (c *Cluster) writeContent(n *inode, data []byte) syscall.Errno {
	c.dropBlocks(n)

	blocks := make([]*blockInfo, 0)
	for index, offset := 0, int64(0); offset < int64(len(data)); index++ {
		end := min(offset+n.blockSize, int64(len(data)))
		payload := data[offset:end]

		nodes, _ := c.selector.SelectBestNodes(int(n.replication), int64(len(payload)))
		if len(nodes) == 0 {
			n.blocks = blocks
			c.dropBlocks(n)
			return syscall.ENOSPC
		}

		id := block.FormatBlockID(n.id, index)
		if _, err := c.store.Put(id, payload); err != nil {
			c.logger.Error("failed to store block", slog.String("block_id", id), slog.String("error", err.Error()))
			n.blocks = blocks
			c.dropBlocks(n)
			return syscall.EIO
		}
		for _, node := range nodes {
			node.used += int64(len(payload))
		}
		blocks = append(blocks, &blockInfo{id: id, offset: offset, size: int64(len(payload)), nodes: nodes})
		offset = end
	}

	n.blocks = blocks
	n.size = int64(len(data))
	n.mtime = c.now()
	return 0
}

// readContent assembles a file's content from its blocks. It must be called
// with c.mu held.
func (c *Cluster) readContent(n *inode) ([]byte, syscall.Errno) {
	var buf bytes.Buffer
	buf.Grow(int(n.size))
	for _, b := range n.blocks {
		data, err := c.store.Get(b.id)
		if err != nil {
			c.logger.Error("failed to read block", slog.String("block_id", b.id), slog.String("error", err.Error()))
			return nil, syscall.EIO
		}
		buf.Write(data)
	}
	return buf.Bytes(), 0
}

// replicate brings every block of n to its replication factor, trimming
// surplus replicas or placing new ones where nodes are available. It must be
// called with c.mu held for writing.
func (c *Cluster) replicate(n *inode) {
	want := int(n.replication)
	for _, b := range n.blocks {
		if len(b.nodes) > want {
			for _, node := range b.nodes[want:] {
				node.used -= b.size
			}
			b.nodes = slices.Clone(b.nodes[:want])
			continue
		}
		extra, _ := c.selector.SelectBestNodes(want-len(b.nodes), b.size, b.nodes...)
		for _, node := range extra {
			node.used += b.size
		}
		b.nodes = append(b.nodes, extra...)
	}
}
