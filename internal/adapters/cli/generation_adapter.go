// Package cli contains thin adapters that translate CLI operations into
// primary port calls and render the results.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/example/mapgen/internal/ports/primary"
)

func okMark() string { return color.New(color.FgGreen).Sprint("✓") }
func warnMark() string { return color.New(color.FgYellow).Sprint("!") }

// GenerationAdapter is a thin adapter that translates CLI operations to
// GenerationService calls.
type GenerationAdapter struct {
	service primary.GenerationService
	out     io.Writer
}

// NewGenerationAdapter creates a new GenerationAdapter with the given service.
func NewGenerationAdapter(service primary.GenerationService, out io.Writer) *GenerationAdapter {
	return &GenerationAdapter{
		service: service,
		out:     out,
	}
}

// Generate runs one generation request and reports its outcome.
func (a *GenerationAdapter) Generate(ctx context.Context, req primary.GenerateRequest) (*primary.GenerateResponse, error) {
	resp, err := a.service.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate statement for %s: %w", req.Method.Name, err)
	}
	a.printResult(req.Method.DeclaringType, resp.Method, resp)
	return resp, nil
}

// GenerateMissing generates every missing statement of an interface.
func (a *GenerationAdapter) GenerateMissing(ctx context.Context, req primary.GenerateMissingRequest) (*primary.GenerateMissingResponse, error) {
	resp, err := a.service.GenerateMissing(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate statements for %s: %w", req.SourcePath, err)
	}

	fmt.Fprintf(a.out, "Interface: %s\n", resp.Interface)
	counts := map[string]int{}
	for _, r := range resp.Results {
		counts[r.Outcome]++
		a.printResult(resp.Interface, r.Method, r)
	}
	for _, s := range resp.Skipped {
		fmt.Fprintf(a.out, "  - skipped %s: %s\n", s.Name, s.Reason)
	}
	if resp.Cancelled {
		fmt.Fprintf(a.out, "%s Cancelled; statements already generated were kept.\n", warnMark())
	}
	fmt.Fprintf(a.out, "\n%d generated, %d existing, %d skipped\n",
		counts["generated"], counts["existing"], len(resp.Skipped))
	return resp, nil
}

func (a *GenerationAdapter) printResult(declaringType, method string, resp *primary.GenerateResponse) {
	switch resp.Outcome {
	case "generated":
		st := resp.Statement
		fmt.Fprintf(a.out, "%s Generated <%s id=%q> in %s\n", okMark(), st.Kind, st.ID, locationString(st.Location))
	case "existing":
		st := resp.Statement
		fmt.Fprintf(a.out, "%s Statement %q already exists in %s\n", okMark(), st.ID, locationString(st.Location))
	case "no_mapper_found":
		fmt.Fprintf(a.out, "%s No mapper xml found for %s\n", warnMark(), declaringType)
		fmt.Fprintln(a.out, "  A mapper needs <mapper namespace=\""+declaringType+"\"> under one of the scan roots.")
	case "cancelled":
		fmt.Fprintf(a.out, "%s Cancelled %s; no changes made.\n", warnMark(), method)
	default:
		fmt.Fprintf(a.out, "%s %s\n", warnMark(), resp.Outcome)
	}
}

func locationString(loc primary.Location) string {
	return fmt.Sprintf("%s:%d:%d", loc.Path, loc.Line, loc.Column)
}

// Classify lists the candidate generators for a method name.
func (a *GenerationAdapter) Classify(ctx context.Context, methodName string) ([]*primary.Generator, error) {
	generators, err := a.service.Classify(ctx, methodName)
	if err != nil {
		return nil, fmt.Errorf("failed to classify %s: %w", methodName, err)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "GENERATOR\tKIND\tPATTERNS")
	fmt.Fprintln(w, "---------\t----\t--------")
	for _, g := range generators {
		fmt.Fprintf(w, "%s\t%s\t%s\n", g.ID, g.Kind, strings.Join(g.Patterns, ", "))
	}
	w.Flush()
	return generators, nil
}

// Mappers lists the mapper documents bound to a declaring type.
func (a *GenerationAdapter) Mappers(ctx context.Context, declaringType string) ([]*primary.MapperDocument, error) {
	docs, err := a.service.ResolveMappers(ctx, declaringType)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve mappers: %w", err)
	}

	if len(docs) == 0 {
		fmt.Fprintf(a.out, "No mapper xml found for %s.\n", declaringType)
		return docs, nil
	}
	for _, d := range docs {
		fmt.Fprintf(a.out, "%s\n", d.Path)
		if len(d.StatementIDs) == 0 {
			fmt.Fprintln(a.out, "  (no statements)")
			continue
		}
		for _, id := range d.StatementIDs {
			fmt.Fprintf(a.out, "  - %s\n", id)
		}
		if len(d.Duplicates) > 0 {
			fmt.Fprintf(a.out, "  %s duplicate ids: %s\n", warnMark(), strings.Join(d.Duplicates, ", "))
		}
	}
	return docs, nil
}

// History lists recorded generation requests.
func (a *GenerationAdapter) History(ctx context.Context, filters primary.GenerationFilters) ([]*primary.Generation, error) {
	generations, err := a.service.ListGenerations(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}

	if len(generations) == 0 {
		fmt.Fprintln(a.out, "No generations recorded.")
		return generations, nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "WHEN\tOUTCOME\tKIND\tMETHOD\tDOCUMENT")
	fmt.Fprintln(w, "----\t-------\t----\t------\t--------")
	for _, g := range generations {
		kind := g.Kind
		if kind == "" {
			kind = "-"
		}
		doc := g.DocumentPath
		if doc == "" {
			doc = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s.%s\t%s\n", g.CreatedAt, g.Outcome, kind, g.DeclaringType, g.Method, doc)
	}
	w.Flush()
	return generations, nil
}
