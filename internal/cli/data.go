package cli

import (
	"errors"
	"io"
	"os"

	"github.com/mochivi/dfs-facade/pkg/dfs"
	"github.com/spf13/cobra"
)

const transferBufferSize = 64 * 1024

func (a *app) catCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a file's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				h, err := conn.Open(args[0], dfs.ModeRead, dfs.OpenHints{})
				if err != nil {
					return err
				}
				_, err = io.CopyBuffer(cmd.OutOrStdout(), h, make([]byte, transferBufferSize))
				return errors.Join(err, h.Close())
			})
		},
	}
}

func (a *app) putCommand() *cobra.Command {
	var (
		appendTo bool
		hints    dfs.OpenHints
	)
	cmd := &cobra.Command{
		Use:   "put <local|-> <path>",
		Short: "Write a local file, or stdin, to a path",
		Long: `Write a local file to path, replacing its content. Use - to read stdin.
The file is committed when the stream closes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}

			mode := dfs.ModeWrite
			if appendTo {
				mode = dfs.ModeAppend
			}
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				h, err := conn.Open(args[1], mode, hints)
				if err != nil {
					return err
				}
				_, err = io.CopyBuffer(h, src, make([]byte, transferBufferSize))
				return errors.Join(err, h.Close())
			})
		},
	}
	cmd.Flags().BoolVarP(&appendTo, "append", "a", false, "append to an existing file")
	cmd.Flags().Int16Var(&hints.Replication, "replication", 0, "replication factor (0 uses the filesystem default)")
	cmd.Flags().Int64Var(&hints.BlockSize, "block-size", 0, "block size in bytes (0 uses the filesystem default)")
	cmd.Flags().IntVar(&hints.BufferSize, "buffer-size", 0, "client buffer size hint")
	return cmd
}
