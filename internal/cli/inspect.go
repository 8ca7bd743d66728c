package cli

import (
	"github.com/spf13/cobra"

	"github.com/example/mapgen/internal/ports/primary"
	"github.com/example/mapgen/internal/wire"
)

// ClassifyCmd returns the classify command
func ClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [method]",
		Short: "Show which statement kinds a method name maps to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := startSession(sessionOptions{}); err != nil {
				return err
			}
			adapter, err := wire.GenerationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.Classify(cmd.Context(), args[0])
			return err
		},
	}
}

// MappersCmd returns the mappers command
func MappersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mappers [interface]",
		Short: "List the mapper xml files bound to an interface",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := startSession(sessionOptions{}); err != nil {
				return err
			}
			adapter, err := wire.GenerationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.Mappers(cmd.Context(), args[0])
			return err
		},
	}
}

// HistoryCmd returns the history command
func HistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded generation requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			declaringType, _ := cmd.Flags().GetString("interface")
			outcome, _ := cmd.Flags().GetString("outcome")
			limit, _ := cmd.Flags().GetInt("limit")

			if _, _, err := startSession(sessionOptions{}); err != nil {
				return err
			}
			adapter, err := wire.GenerationAdapter()
			if err != nil {
				return err
			}
			_, err = adapter.History(cmd.Context(), primary.GenerationFilters{
				DeclaringType: declaringType,
				Outcome:       outcome,
				Limit:         limit,
			})
			return err
		},
	}
	cmd.Flags().StringP("interface", "i", "", "only requests for this interface")
	cmd.Flags().String("outcome", "", "only this outcome (generated, existing, no_mapper_found, cancelled)")
	cmd.Flags().IntP("limit", "n", 20, "maximum number of entries")
	return cmd
}
