package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/example/mapgen/internal/ports/primary"
)

// IndexAdapter translates CLI operations to IndexService calls.
type IndexAdapter struct {
	service primary.IndexService
	out     io.Writer
}

// NewIndexAdapter creates a new IndexAdapter with the given service.
func NewIndexAdapter(service primary.IndexService, out io.Writer) *IndexAdapter {
	return &IndexAdapter{service: service, out: out}
}

// Rebuild rescans the project and replaces the index.
func (a *IndexAdapter) Rebuild(ctx context.Context) (*primary.IndexSummary, error) {
	summary, err := a.service.Rebuild(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild index: %w", err)
	}
	fmt.Fprintf(a.out, "%s Indexed %d mapper documents (%d removed)\n", okMark(), summary.Indexed, summary.Removed)
	return summary, nil
}

// Refresh re-reads changed files.
func (a *IndexAdapter) Refresh(ctx context.Context, paths []string) (*primary.IndexSummary, error) {
	summary, err := a.service.Refresh(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh index: %w", err)
	}
	fmt.Fprintf(a.out, "%s Refreshed %d, removed %d\n", okMark(), summary.Indexed, summary.Removed)
	return summary, nil
}

// List prints every indexed document.
func (a *IndexAdapter) List(ctx context.Context) ([]*primary.MapperDocument, error) {
	docs, err := a.service.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list index: %w", err)
	}
	if len(docs) == 0 {
		fmt.Fprintln(a.out, "Index is empty.")
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, "Build it with:")
		fmt.Fprintln(a.out, "  mapgen index")
		return docs, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAMESPACE\tSTATEMENTS\tPATH")
	fmt.Fprintln(w, "---------\t----------\t----")
	for _, d := range docs {
		fmt.Fprintf(w, "%s\t%d\t%s\n", d.Namespace, len(d.StatementIDs), d.Path)
	}
	w.Flush()
	return docs, nil
}
