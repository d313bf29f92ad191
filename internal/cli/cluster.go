package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/mochivi/dfs-facade/internal/locality"
	"github.com/mochivi/dfs-facade/pkg/dfs"
	"github.com/spf13/cobra"
)

type blockHosts struct {
	Path   string               `json:"path" yaml:"path"`
	Start  int64                `json:"start" yaml:"start"`
	Length int64                `json:"length" yaml:"length"`
	Blocks dfs.BlockLocationSet `json:"blocks" yaml:"blocks"`
}

func (a *app) hostsCommand() *cobra.Command {
	var start, length int64
	cmd := &cobra.Command{
		Use:   "hosts <path>",
		Short: "Show which hosts hold each block of a file",
		Long: `Show the host set of every block overlapping [start, start+length).
Without --length the range runs to the end of the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				n := length
				if n < 0 {
					entry, err := conn.Stat(args[0])
					if err != nil {
						return err
					}
					n = max(entry.Size-start, 0)
				}
				blocks, err := conn.GetHosts(args[0], start, n)
				if err != nil {
					return err
				}

				result := blockHosts{Path: args[0], Start: start, Length: n, Blocks: blocks}
				return a.render(cmd.OutOrStdout(), result, func(w io.Writer) error {
					for i, block := range blocks {
						if _, err := fmt.Fprintf(w, "block %d: %s\n", i, strings.Join(block, ",")); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
	cmd.Flags().Int64Var(&start, "start", 0, "range start offset")
	cmd.Flags().Int64Var(&length, "length", -1, "range length in bytes")
	return cmd
}

func (a *app) dfCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "df",
		Short: "Show filesystem capacity and usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				stats, err := conn.Stats()
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), stats, func(w io.Writer) error {
					var pct float64
					if stats.Capacity > 0 {
						pct = float64(stats.Used) / float64(stats.Capacity) * 100
					}
					tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
					fmt.Fprintf(tw, "Filesystem:\t%s\n", conn.Endpoint())
					fmt.Fprintf(tw, "Capacity:\t%s\n", humanize.IBytes(uint64(stats.Capacity)))
					fmt.Fprintf(tw, "Used:\t%s (%.1f%%)\n", humanize.IBytes(uint64(stats.Used)), pct)
					fmt.Fprintf(tw, "Available:\t%s\n", humanize.IBytes(uint64(max(stats.Capacity-stats.Used, 0))))
					fmt.Fprintf(tw, "Block size:\t%s\n", humanize.IBytes(uint64(stats.DefaultBlockSize)))
					return tw.Flush()
				})
			})
		},
	}
}

func (a *app) splitsCommand() *cobra.Command {
	var splitSize int64
	var concurrency int
	cmd := &cobra.Command{
		Use:   "splits <path>...",
		Short: "Plan input splits with preferred hosts",
		Long: `Cut files into splits of --split-size bytes and attach the hosts holding most
of each split's blocks. A directory contributes the files directly inside it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("split-size") {
				splitSize = a.cfg.Locality.SplitSize
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = a.cfg.Locality.Concurrency
			}
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				planner, err := locality.NewPlanner(conn, splitSize, concurrency)
				if err != nil {
					return err
				}
				splits, err := planner.Plan(cmd.Context(), args...)
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), splits, func(w io.Writer) error {
					tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
					for _, s := range splits {
						fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.Path, s.Offset, s.Length, strings.Join(s.Hosts, ","))
					}
					return tw.Flush()
				})
			})
		},
	}
	cmd.Flags().Int64Var(&splitSize, "split-size", 0, "split size in bytes (default from config)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "files planned in parallel (default from config)")
	return cmd
}
