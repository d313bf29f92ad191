package dfs

// BlockLocationSet holds one host set per block overlapping a byte range,
// ordered by block offset ascending.
type BlockLocationSet [][]string

// Len returns the number of blocks in the set.
func (s BlockLocationSet) Len() int { return len(s) }

// Hosts returns the distinct hosts across all blocks in first-seen order.
func (s BlockLocationSet) Hosts() []string {
	seen := make(map[string]struct{})
	hosts := make([]string, 0)
	for _, block := range s {
		for _, h := range block {
			if _, ok := seen[h]; ok {
				continue
			}
			seen[h] = struct{}{}
			hosts = append(hosts, h)
		}
	}
	return hosts
}

// GetHosts resolves the hosts holding each block of path that overlaps
// [start, start+length). A zero length yields an empty set.
func (c *Connection) GetHosts(path string, start, length int64) (BlockLocationSet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	oc := opContext{kind: KindLocation, op: "get_hosts", path: path}
	if err := c.live(oc); err != nil {
		return nil, err
	}

	res, errno := c.session.GetHosts(path, start, length)
	hosts, err := trapNil(c, res, errno, oc)
	if err != nil {
		return nil, err
	}
	defer hosts.Free()

	blocks := hosts.Blocks()
	set := make(BlockLocationSet, 0, len(blocks))
	for _, block := range blocks {
		set = append(set, append([]string(nil), block...))
	}
	return set, nil
}
