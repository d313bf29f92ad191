package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mochivi/dfs-facade/pkg/dfs"
	"github.com/spf13/cobra"
)

func (a *app) lsCommand() *cobra.Command {
	var human bool
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory",
		Long: `List the entries of a directory by absolute name. Listing a file shows the
file itself. Without a path the working directory is listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				path, err := pathOrCwd(conn, args)
				if err != nil {
					return err
				}
				entries, err := conn.ListDirectory(path)
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), entries, func(w io.Writer) error {
					return writeEntries(w, entries, human)
				})
			})
		},
	}
	cmd.Flags().BoolVarP(&human, "human-readable", "H", false, "print sizes like 1.5 MiB")
	return cmd
}

func pathOrCwd(conn *dfs.Connection, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return conn.WorkingDirectory()
}

func (a *app) statCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <path>",
		Short: "Show the status of a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				entry, err := conn.Stat(args[0])
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), entry, func(w io.Writer) error {
					return writeEntry(w, entry)
				})
			})
		},
	}
}

func (a *app) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <path>",
		Short: "Show the first entry of a path's listing",
		Long: `Show path information the way libhdfs clients derive it: the first entry of
the path's listing. For a directory that is its first child.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				entry, err := conn.GetPathInfo(args[0])
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), entry, func(w io.Writer) error {
					return writeEntry(w, entry)
				})
			})
		},
	}
}

func (a *app) mkdirCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>...",
		Short: "Create directories and any missing parents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				for _, path := range args {
					if err := conn.CreateDirectory(path); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func (a *app) rmCommand() *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Delete files or directories",
		Long:  `Delete paths. A non-empty directory needs -r.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				for _, path := range args {
					del := conn.Delete
					if recursive {
						del = conn.DeleteAll
					}
					if err := del(path); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "delete directories and their contents")
	return cmd
}

func (a *app) mvCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mv <src> <dst>",
		Short: "Move a path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				return conn.Move(args[0], conn, args[1])
			})
		},
	}
}

func (a *app) cpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cp <src> <dst>",
		Short: "Copy a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				return conn.Copy(args[0], conn, args[1])
			})
		},
	}
}

func (a *app) renameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a path in place",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				return conn.Rename(args[0], args[1])
			})
		},
	}
}

func (a *app) pwdCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pwd",
		Short: "Print the session working directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				cwd, err := conn.WorkingDirectory()
				if err != nil {
					return err
				}
				return a.render(cmd.OutOrStdout(), map[string]string{"working_directory": cwd}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, cwd)
					return err
				})
			})
		},
	}
}

func (a *app) setrepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "setrep <path> <replication>",
		Short: "Change the replication factor of a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			replication, err := strconv.ParseInt(args[1], 10, 16)
			if err != nil || replication < 1 {
				return fmt.Errorf("invalid replication %q", args[1])
			}
			return a.withConnection(cmd, func(conn *dfs.Connection) error {
				return conn.SetReplication(args[0], int16(replication))
			})
		},
	}
}
