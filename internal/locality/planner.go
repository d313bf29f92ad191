// Package locality turns block host sets into input splits with preferred
// hosts, the way a batch scheduler places work next to its data.
package locality

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mochivi/dfs-facade/pkg/dfs"
	"github.com/mochivi/dfs-facade/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// Resolver is the part of *dfs.Connection the planner needs.
type Resolver interface {
	ListDirectory(path string) ([]dfs.DirectoryEntry, error)
	Stat(path string) (dfs.DirectoryEntry, error)
	GetHosts(path string, start, length int64) (dfs.BlockLocationSet, error)
}

// Split is a contiguous byte range of one file.
type Split struct {
	Path   string   `json:"path" yaml:"path"`
	Offset int64    `json:"offset" yaml:"offset"`
	Length int64    `json:"length" yaml:"length"`
	Hosts  []string `json:"hosts" yaml:"hosts"` // most blocks first
}

type Planner struct {
	resolver    Resolver
	splitSize   int64
	concurrency int
}

func NewPlanner(resolver Resolver, splitSize int64, concurrency int) (*Planner, error) {
	if splitSize <= 0 {
		return nil, fmt.Errorf("split size must be positive, got %d", splitSize)
	}
	if concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", concurrency)
	}
	return &Planner{
		resolver:    resolver,
		splitSize:   splitSize,
		concurrency: concurrency,
	}, nil
}

// Plan splits every file named by paths. A directory contributes the regular
// files directly inside it. Splits keep the order of paths, then offset.
// Diagnostics go to the logger carried by ctx.
func (p *Planner) Plan(ctx context.Context, paths ...string) ([]Split, error) {
	ctx, logger := logging.FromContextWithOperation(ctx, "plan",
		slog.String(logging.LogComponent, "locality"), slog.Int("paths", len(paths)))

	files, err := p.expand(paths)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	// each goroutine owns one slot
	results := make([][]Split, len(files))
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			splits, err := p.planFile(ctx, file)
			if err != nil {
				return fmt.Errorf("failed to plan %s: %w", file.Name, err)
			}
			results[i] = splits
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var splits []Split
	for _, r := range results {
		splits = append(splits, r...)
	}
	logger.Debug("planned splits", slog.Int("files", len(files)), slog.Int("splits", len(splits)))
	return splits, nil
}

func (p *Planner) expand(paths []string) ([]dfs.DirectoryEntry, error) {
	if len(paths) == 0 {
		return nil, errors.New("no paths to plan")
	}

	files := make([]dfs.DirectoryEntry, 0, len(paths))
	for _, path := range paths {
		entry, err := p.resolver.Stat(path)
		if err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			files = append(files, entry)
			continue
		}

		children, err := p.resolver.ListDirectory(path)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			if child.Kind == dfs.EntryFile {
				files = append(files, child)
			}
		}
	}
	return files, nil
}

func (p *Planner) planFile(ctx context.Context, file dfs.DirectoryEntry) ([]Split, error) {
	splits := make([]Split, 0, (file.Size+p.splitSize-1)/p.splitSize)
	for offset := int64(0); offset < file.Size; offset += p.splitSize {
		length := min(p.splitSize, file.Size-offset)
		blocks, err := p.resolver.GetHosts(file.Name, offset, length)
		if err != nil {
			return nil, err
		}
		splits = append(splits, Split{
			Path:   file.Name,
			Offset: offset,
			Length: length,
			Hosts:  rankHosts(blocks),
		})
	}
	logging.FromContext(ctx).Debug("planned file", slog.String("path", file.Name), slog.Int("splits", len(splits)))
	return splits, nil
}

// rankHosts orders the hosts of a split by how many of its blocks they hold,
// breaking ties by first appearance.
func rankHosts(blocks dfs.BlockLocationSet) []string {
	hosts := blocks.Hosts()
	counts := make(map[string]int, len(hosts))
	for _, block := range blocks {
		seen := make(map[string]bool, len(block))
		for _, host := range block {
			if !seen[host] {
				seen[host] = true
				counts[host]++
			}
		}
	}
	sort.SliceStable(hosts, func(i, j int) bool {
		return counts[hosts[i]] > counts[hosts[j]]
	})
	return hosts
}
