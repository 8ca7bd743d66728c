package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/example/mapgen/internal/logging"
	"github.com/example/mapgen/internal/watch"
	"github.com/example/mapgen/internal/wire"
)

// IndexCmd returns the index command
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the mapper namespace index",
		Long: `Index scans the configured roots for mapper xml files and records their
namespaces in .mapgen/index.db so later lookups skip the full scan.

With --watch the index is kept current until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, _ := cmd.Flags().GetBool("list")
			watchMode, _ := cmd.Flags().GetBool("watch")

			if _, _, err := startSession(sessionOptions{}); err != nil {
				return err
			}
			adapter, err := wire.IndexAdapter()
			if err != nil {
				return err
			}

			if list {
				_, err = adapter.List(cmd.Context())
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if _, err := adapter.Rebuild(ctx); err != nil {
				return err
			}
			if !watchMode {
				return nil
			}

			scanner, err := wire.Scanner()
			if err != nil {
				return err
			}
			watcher, err := watch.New(watch.Options{
				Roots:   scanner.Roots(),
				Exclude: scanner.Excluded,
			}, func(ctx context.Context, paths []string) error {
				_, err := adapter.Refresh(ctx, paths)
				return err
			}, logging.Named("watch"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Watching %d root(s) for mapper changes (Ctrl+C to stop)\n", len(scanner.Roots()))
			return watcher.Run(ctx)
		},
	}
	cmd.Flags().BoolP("list", "l", false, "list indexed documents instead of rebuilding")
	cmd.Flags().BoolP("watch", "w", false, "keep the index current as files change")
	return cmd
}
