package wiki

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ziadkadry99/repowiki/internal/analyzer"
	"github.com/ziadkadry99/repowiki/internal/generator"
	"github.com/ziadkadry99/repowiki/internal/scanner"
	"github.com/ziadkadry99/repowiki/internal/vectorstore"
)

func sampleAnalysis(t *testing.T) *analyzer.ProjectAnalysis {
	t.Helper()
	files := []scanner.File{
		{RelPath: "main.go", Language: "Go", Content: "package main\n\nfunc main() {}\n", Importance: 5},
		{RelPath: "internal/service/service.go", Language: "Go", Content: "package service\n", Importance: 3},
		{RelPath: "go.mod", Language: "", Content: "module example.com/demo\n\nrequire github.com/gin-gonic/gin v1.9.0\n"},
	}
	a, err := analyzer.Analyze("/repos/demo", files)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return a
}

func TestBuild_BaselineWithoutGenerator(t *testing.T) {
	a := sampleAnalysis(t)
	data := Build(a)

	if data.ProjectName != a.ProjectName {
		t.Errorf("ProjectName = %q, want %q", data.ProjectName, a.ProjectName)
	}
	if data.Overview == "" {
		t.Error("expected non-empty Overview")
	}
	if data.FileStructure == "" {
		t.Error("expected non-empty FileStructure")
	}
	if data.Dependencies == "" {
		t.Error("expected non-empty Dependencies")
	}
	if len(data.CodeAnalysis) == 0 {
		t.Error("expected at least one CodeAnalysisSection")
	}
	if data.GeneratedAt.IsZero() {
		t.Error("expected GeneratedAt to be set")
	}
}

func TestBuild_EmptyRepository(t *testing.T) {
	a, err := analyzer.Analyze("/repos/empty", nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	data := Build(a)

	if !strings.Contains(data.Overview, "empty repository") {
		t.Errorf("Overview = %q, want mention of empty repository", data.Overview)
	}
	if len(data.CodeAnalysis) != 0 {
		t.Errorf("expected no CodeAnalysisSections for an empty repo, got %d", len(data.CodeAnalysis))
	}
}

type stubProvider struct {
	content string
	err     error
}

func (s stubProvider) Complete(ctx context.Context, req generator.CompletionRequest) (*generator.CompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &generator.CompletionResponse{Content: s.content}, nil
}

func (s stubProvider) Name() string { return "stub" }

func TestBuildEnriched_OverwritesFromResponse(t *testing.T) {
	a := sampleAnalysis(t)
	resp := "===OVERVIEW===\nA richer overview.\n===ARCHITECTURE===\nA richer architecture.\n" +
		"===SETUP===\nrun make setup\n===USAGE===\nrun the binary"
	data := BuildEnriched(context.Background(), a, stubProvider{content: resp}, "test-model")

	if data.Overview != "A richer overview." {
		t.Errorf("Overview = %q, want enriched text", data.Overview)
	}
	if data.Architecture != "A richer architecture." {
		t.Errorf("Architecture = %q, want enriched text", data.Architecture)
	}
	if data.Setup != "run make setup" {
		t.Errorf("Setup = %q, want enriched text", data.Setup)
	}
	if data.Usage != "run the binary" {
		t.Errorf("Usage = %q, want enriched text", data.Usage)
	}
}

func TestBuildEnriched_FallsBackOnError(t *testing.T) {
	a := sampleAnalysis(t)
	baseline := Build(a)
	data := BuildEnriched(context.Background(), a, stubProvider{err: errors.New("boom")}, "test-model")

	if data.Overview != baseline.Overview {
		t.Errorf("Overview changed despite generator error: got %q, want %q", data.Overview, baseline.Overview)
	}
	if data.Setup != baseline.Setup {
		t.Errorf("Setup changed despite generator error: got %q, want %q", data.Setup, baseline.Setup)
	}
}

func TestBuildEnriched_NilGeneratorReturnsBaseline(t *testing.T) {
	a := sampleAnalysis(t)
	baseline := Build(a)
	data := BuildEnriched(context.Background(), a, nil, "test-model")

	if data.Overview != baseline.Overview {
		t.Errorf("Overview = %q, want baseline %q", data.Overview, baseline.Overview)
	}
}

func TestDocuments_ProducesSixWikiSections(t *testing.T) {
	a := sampleAnalysis(t)
	data := Build(a)
	docs := data.Documents()

	if len(docs) != 6 {
		t.Fatalf("len(Documents()) = %d, want 6", len(docs))
	}
	wantPaths := map[string]bool{
		"wiki/overview": true, "wiki/architecture": true, "wiki/file-structure": true,
		"wiki/dependencies": true, "wiki/setup": true, "wiki/usage": true,
	}
	for _, d := range docs {
		if !wantPaths[d.Path] {
			t.Errorf("unexpected document path %q", d.Path)
		}
		if d.Type != vectorstore.DocTypeWiki {
			t.Errorf("Documents()[%q].Type = %q, want %q", d.Path, d.Type, vectorstore.DocTypeWiki)
		}
		if d.ID != d.Path {
			t.Errorf("Documents()[%q].ID = %q, want equal to Path", d.Path, d.ID)
		}
	}
}

func TestBuildEnriched_IgnoresMissingMarkers(t *testing.T) {
	a := sampleAnalysis(t)
	baseline := Build(a)
	data := BuildEnriched(context.Background(), a, stubProvider{content: "no markers here at all"}, "test-model")

	if data.Overview != baseline.Overview {
		t.Errorf("Overview changed with no markers present: got %q, want %q", data.Overview, baseline.Overview)
	}
}
