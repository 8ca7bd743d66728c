package cli

import (
	"os"
	"os/signal"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/example/mapgen/internal/adapters/selection"
	"github.com/example/mapgen/internal/core/statement"
	"github.com/example/mapgen/internal/ports/primary"
	"github.com/example/mapgen/internal/wire"
)

// GenerateCmd returns the generate command
func GenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a mapper statement for an interface method",
		Long: `Generate adds a statement element for a mapper interface method to the
mapper XML whose namespace is the interface's qualified name.

The statement kind is chosen from the method name. When several kinds or
several mapper files fit, mapgen asks; --kind and --mapper answer up front.`,
		Example: `  mapgen generate --interface com.example.UserMapper --method findById --returns User
  mapgen generate --interface com.example.UserMapper --method deleteById --kind delete
  mapgen generate --source src/main/java/com/example/UserMapper.java --method findByEmail
  mapgen generate --source src/main/java/com/example/UserMapper.java --missing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			iface, _ := cmd.Flags().GetString("interface")
			method, _ := cmd.Flags().GetString("method")
			returns, _ := cmd.Flags().GetString("returns")
			source, _ := cmd.Flags().GetString("source")
			missing, _ := cmd.Flags().GetBool("missing")
			kind, _ := cmd.Flags().GetString("kind")
			mapper, _ := cmd.Flags().GetString("mapper")
			open, _ := cmd.Flags().GetBool("open")
			yes, _ := cmd.Flags().GetBool("yes")

			if missing {
				if source == "" {
					return errors.WithHint(errors.New("--missing needs the interface source"), "pass --source path/to/Mapper.java")
				}
			} else if method == "" || (iface == "" && source == "") {
				return errors.WithHint(errors.New("--method and one of --interface or --source are required"),
					"or use --source with --missing to generate every missing statement")
			}
			if kind != "" {
				if _, err := statement.ParseKind(kind); err != nil {
					return errors.WithHint(err, "--kind must be one of: "+kindNames())
				}
			}

			selector := newSelector(yes, kind, mapper)
			if missing {
				// One answer per distinct question across the whole interface.
				selector = selection.NewMemoSelector(selector)
			}
			if _, _, err := startSession(sessionOptions{selector: selector, openEditor: open}); err != nil {
				return err
			}
			adapter, err := wire.GenerationAdapter()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if missing {
				_, err = adapter.GenerateMissing(ctx, primary.GenerateMissingRequest{SourcePath: source})
				return err
			}
			_, err = adapter.Generate(ctx, primary.GenerateRequest{
				Method: primary.Method{
					Name:          method,
					DeclaringType: iface,
					ReturnType:    returns,
				},
				SourcePath: source,
			})
			return err
		},
	}

	cmd.Flags().StringP("interface", "i", "", "fully qualified mapper interface name")
	cmd.Flags().StringP("method", "m", "", "method to generate a statement for")
	cmd.Flags().StringP("returns", "r", "", "method return type as written, e.g. List<User> (empty means void)")
	cmd.Flags().StringP("source", "s", "", "interface source file, used to resolve imported result types")
	cmd.Flags().Bool("missing", false, "generate every method of --source that has no statement")
	cmd.Flags().StringP("kind", "k", "", "statement kind to use when several fit ("+kindNames()+")")
	cmd.Flags().String("mapper", "", "mapper xml to use when several share the namespace")
	cmd.Flags().BoolP("open", "o", false, "open the editor at the statement")
	cmd.Flags().BoolP("yes", "y", false, "never prompt; cancel when a choice is ambiguous")
	return cmd
}

func kindNames() string {
	kinds := statement.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
