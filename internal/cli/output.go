package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mochivi/dfs-facade/pkg/dfs"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// render writes v as JSON or YAML, or calls text for the default format.
func (a *app) render(w io.Writer, v any, text func(io.Writer) error) error {
	switch a.output {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return text(w)
	}
}

func formatSize(size int64, human bool) string {
	if human && size >= 0 {
		return humanize.IBytes(uint64(size))
	}
	return fmt.Sprint(size)
}

func formatTime(t time.Time) string {
	if t.IsZero() || t.Unix() == 0 {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}

func writeEntries(w io.Writer, entries []dfs.DirectoryEntry, human bool) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		replication := "-"
		if !e.IsDir() {
			replication = fmt.Sprint(e.Replication)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Mode(), replication, e.Owner, e.Group, formatSize(e.Size, human), formatTime(e.LastMod), e.Name)
	}
	return tw.Flush()
}

func writeEntry(w io.Writer, e dfs.DirectoryEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", e.Name)
	fmt.Fprintf(tw, "Kind:\t%s\n", e.Kind)
	fmt.Fprintf(tw, "Mode:\t%s (%04o)\n", e.Mode(), e.Permissions)
	fmt.Fprintf(tw, "Owner:\t%s:%s\n", e.Owner, e.Group)
	fmt.Fprintf(tw, "Size:\t%d (%s)\n", e.Size, humanize.IBytes(uint64(max(e.Size, 0))))
	if !e.IsDir() {
		fmt.Fprintf(tw, "Replication:\t%d\n", e.Replication)
		fmt.Fprintf(tw, "Block size:\t%s\n", humanize.IBytes(uint64(max(e.BlockSize, 0))))
	}
	fmt.Fprintf(tw, "Modified:\t%s\n", formatTime(e.LastMod))
	fmt.Fprintf(tw, "Accessed:\t%s\n", formatTime(e.LastAccess))
	return tw.Flush()
}
