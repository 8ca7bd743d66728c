package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/example/mapgen/internal/ports/primary"
)

func init() {
	color.NoColor = true
}

// mockGenerationService implements primary.GenerationService for testing
type mockGenerationService struct {
	classifyFn        func(ctx context.Context, methodName string) ([]*primary.Generator, error)
	resolveMappersFn  func(ctx context.Context, declaringType string) ([]*primary.MapperDocument, error)
	generateFn        func(ctx context.Context, req primary.GenerateRequest) (*primary.GenerateResponse, error)
	generateMissingFn func(ctx context.Context, req primary.GenerateMissingRequest) (*primary.GenerateMissingResponse, error)
	listFn            func(ctx context.Context, filters primary.GenerationFilters) ([]*primary.Generation, error)

	lastFilters primary.GenerationFilters
}

func (m *mockGenerationService) Classify(ctx context.Context, methodName string) ([]*primary.Generator, error) {
	if m.classifyFn != nil {
		return m.classifyFn(ctx, methodName)
	}
	return []*primary.Generator{
		{ID: "DeleteGenerator", Kind: "delete", DisplayText: "Delete Statement", Patterns: []string{"cancel", "del"}},
	}, nil
}

func (m *mockGenerationService) ResolveMappers(ctx context.Context, declaringType string) ([]*primary.MapperDocument, error) {
	if m.resolveMappersFn != nil {
		return m.resolveMappersFn(ctx, declaringType)
	}
	return []*primary.MapperDocument{}, nil
}

func (m *mockGenerationService) Generate(ctx context.Context, req primary.GenerateRequest) (*primary.GenerateResponse, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, req)
	}
	return generated(req.Method.Name), nil
}

func (m *mockGenerationService) GenerateMissing(ctx context.Context, req primary.GenerateMissingRequest) (*primary.GenerateMissingResponse, error) {
	if m.generateMissingFn != nil {
		return m.generateMissingFn(ctx, req)
	}
	return nil, errors.New("not implemented in mock")
}

func (m *mockGenerationService) ListGenerations(ctx context.Context, filters primary.GenerationFilters) ([]*primary.Generation, error) {
	m.lastFilters = filters
	if m.listFn != nil {
		return m.listFn(ctx, filters)
	}
	return []*primary.Generation{}, nil
}

func generated(name string) *primary.GenerateResponse {
	return &primary.GenerateResponse{
		RequestID:    "req-1",
		Method:       name,
		Outcome:      "generated",
		Kind:         "delete",
		DocumentPath: "/m/UserMapper.xml",
		Statement: &primary.Statement{
			ID:       name,
			Kind:     "delete",
			Body:     " ",
			Location: primary.Location{Path: "/m/UserMapper.xml", Offset: 200, Line: 12, Column: 10},
		},
	}
}

func TestGenerationAdapter_Generate(t *testing.T) {
	tests := []struct {
		name string
		resp *primary.GenerateResponse
		want []string
	}{
		{
			name: "generated",
			resp: generated("deleteById"),
			want: []string{"✓ Generated <delete id=\"deleteById\"> in /m/UserMapper.xml:12:10"},
		},
		{
			name: "existing",
			resp: func() *primary.GenerateResponse {
				r := generated("deleteById")
				r.Outcome = "existing"
				return r
			}(),
			want: []string{"✓ Statement \"deleteById\" already exists in /m/UserMapper.xml:12:10"},
		},
		{
			name: "no mapper",
			resp: &primary.GenerateResponse{Method: "deleteById", Outcome: "no_mapper_found"},
			want: []string{"No mapper xml found for com.example.UserMapper", `<mapper namespace="com.example.UserMapper">`},
		},
		{
			name: "cancelled",
			resp: &primary.GenerateResponse{Method: "deleteById", Outcome: "cancelled"},
			want: []string{"Cancelled deleteById; no changes made."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockGenerationService{
				generateFn: func(ctx context.Context, req primary.GenerateRequest) (*primary.GenerateResponse, error) {
					return tt.resp, nil
				},
			}
			var out bytes.Buffer
			adapter := NewGenerationAdapter(svc, &out)

			_, err := adapter.Generate(context.Background(), primary.GenerateRequest{
				Method: primary.Method{Name: "deleteById", DeclaringType: "com.example.UserMapper"},
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out.String(), w) {
					t.Errorf("output missing %q, got:\n%s", w, out.String())
				}
			}
		})
	}
}

func TestGenerationAdapter_GenerateError(t *testing.T) {
	svc := &mockGenerationService{
		generateFn: func(ctx context.Context, req primary.GenerateRequest) (*primary.GenerateResponse, error) {
			return nil, errors.New("read-only file")
		},
	}
	adapter := NewGenerationAdapter(svc, &bytes.Buffer{})

	_, err := adapter.Generate(context.Background(), primary.GenerateRequest{Method: primary.Method{Name: "deleteById"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "read-only file") {
		t.Errorf("error should wrap cause, got %v", err)
	}
}

func TestGenerationAdapter_GenerateMissing(t *testing.T) {
	svc := &mockGenerationService{
		generateMissingFn: func(ctx context.Context, req primary.GenerateMissingRequest) (*primary.GenerateMissingResponse, error) {
			return &primary.GenerateMissingResponse{
				Interface: "com.example.UserMapper",
				Results: []*primary.GenerateResponse{
					generated("deleteById"),
					generated("insertUser"),
					{Method: "updateUser", Outcome: "cancelled"},
				},
				Skipped:   []primary.SkippedMethod{{Name: "countAll", Reason: "annotated with @Select"}},
				Cancelled: true,
			}, nil
		},
	}
	var out bytes.Buffer
	adapter := NewGenerationAdapter(svc, &out)

	if _, err := adapter.GenerateMissing(context.Background(), primary.GenerateMissingRequest{SourcePath: "UserMapper.java"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.String()
	for _, w := range []string{
		"Interface: com.example.UserMapper",
		"Generated <delete id=\"insertUser\">",
		"Cancelled updateUser; no changes made.",
		"skipped countAll: annotated with @Select",
		"statements already generated were kept",
		"2 generated, 0 existing, 1 skipped",
	} {
		if !strings.Contains(got, w) {
			t.Errorf("output missing %q, got:\n%s", w, got)
		}
	}
}

func TestGenerationAdapter_Classify(t *testing.T) {
	var out bytes.Buffer
	adapter := NewGenerationAdapter(&mockGenerationService{}, &out)

	gens, err := adapter.Classify(context.Background(), "deleteById")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gens) != 1 {
		t.Fatalf("expected 1 generator, got %d", len(gens))
	}
	if !strings.Contains(out.String(), "GENERATOR") || !strings.Contains(out.String(), "cancel, del") {
		t.Errorf("unexpected table:\n%s", out.String())
	}
}

func TestGenerationAdapter_Mappers(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		var out bytes.Buffer
		adapter := NewGenerationAdapter(&mockGenerationService{}, &out)
		if _, err := adapter.Mappers(context.Background(), "com.example.UserMapper"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "No mapper xml found for com.example.UserMapper") {
			t.Errorf("unexpected output: %s", out.String())
		}
	})

	t.Run("with statements", func(t *testing.T) {
		svc := &mockGenerationService{
			resolveMappersFn: func(ctx context.Context, declaringType string) ([]*primary.MapperDocument, error) {
				return []*primary.MapperDocument{
					{Path: "/a/UserMapper.xml", Namespace: declaringType, StatementIDs: []string{"findById"}},
					{Path: "/b/UserMapper.xml", Namespace: declaringType},
				}, nil
			},
		}
		var out bytes.Buffer
		adapter := NewGenerationAdapter(svc, &out)
		if _, err := adapter.Mappers(context.Background(), "com.example.UserMapper"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "/a/UserMapper.xml\n  - findById\n/b/UserMapper.xml\n  (no statements)\n"
		if out.String() != want {
			t.Errorf("got:\n%s\nwant:\n%s", out.String(), want)
		}
	})

	t.Run("duplicate ids", func(t *testing.T) {
		svc := &mockGenerationService{
			resolveMappersFn: func(ctx context.Context, declaringType string) ([]*primary.MapperDocument, error) {
				return []*primary.MapperDocument{
					{Path: "/a/UserMapper.xml", Namespace: declaringType, StatementIDs: []string{"findById", "findById"}, Duplicates: []string{"findById"}},
				}, nil
			},
		}
		var out bytes.Buffer
		adapter := NewGenerationAdapter(svc, &out)
		if _, err := adapter.Mappers(context.Background(), "com.example.UserMapper"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(out.String(), "  ! duplicate ids: findById\n") {
			t.Errorf("expected duplicate warning, got:\n%s", out.String())
		}
	})
}

func TestGenerationAdapter_History(t *testing.T) {
	svc := &mockGenerationService{
		listFn: func(ctx context.Context, filters primary.GenerationFilters) ([]*primary.Generation, error) {
			return []*primary.Generation{
				{ID: "g1", Method: "deleteById", DeclaringType: "com.example.UserMapper", Kind: "delete", DocumentPath: "/m/UserMapper.xml", Outcome: "generated", CreatedAt: "2026-01-20T12:00:00Z"},
				{ID: "g2", Method: "find", DeclaringType: "com.example.Other", Outcome: "no_mapper_found", CreatedAt: "2026-01-20T11:00:00Z"},
			}, nil
		},
	}
	var out bytes.Buffer
	adapter := NewGenerationAdapter(svc, &out)

	if _, err := adapter.History(context.Background(), primary.GenerationFilters{Limit: 20}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.lastFilters.Limit != 20 {
		t.Errorf("filters not passed through: %+v", svc.lastFilters)
	}
	got := out.String()
	if !strings.Contains(got, "com.example.UserMapper.deleteById") {
		t.Errorf("missing method column:\n%s", got)
	}
	if !strings.Contains(got, "no_mapper_found") {
		t.Errorf("missing outcome:\n%s", got)
	}
}

func TestGenerationAdapter_HistoryEmpty(t *testing.T) {
	var out bytes.Buffer
	adapter := NewGenerationAdapter(&mockGenerationService{}, &out)
	if _, err := adapter.History(context.Background(), primary.GenerationFilters{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "No generations recorded.") {
		t.Errorf("unexpected output: %s", out.String())
	}
}
