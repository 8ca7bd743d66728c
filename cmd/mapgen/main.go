package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/example/mapgen/internal/cli"
	"github.com/example/mapgen/internal/logging"
	"github.com/example/mapgen/internal/version"
	"github.com/example/mapgen/internal/wire"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "mapgen",
		Short:   "mapgen - MyBatis mapper statement generator",
		Version: version.String(),
		Long: `mapgen generates statement elements in MyBatis mapper XML files for the
methods of mapper interfaces, choosing the statement kind from the method name.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cli.AddPersistentFlags(rootCmd)

	// Add subcommands
	rootCmd.AddCommand(cli.GenerateCmd())
	rootCmd.AddCommand(cli.ClassifyCmd())
	rootCmd.AddCommand(cli.MappersCmd())
	rootCmd.AddCommand(cli.IndexCmd())
	rootCmd.AddCommand(cli.HistoryCmd())
	rootCmd.AddCommand(cli.ConfigCmd())

	err := rootCmd.Execute()
	if closeErr := wire.Close(); err == nil {
		err = closeErr
	}
	logging.Sync()
	if err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}
