package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ziadkadry99/repowiki/internal/indexcache"
)

func TestNextState_AdvancesThroughIntermediateIterations(t *testing.T) {
	state := NewDeepResearchState()
	if state.IterationType != IterationFirst || state.IterationIndex != 1 {
		t.Fatalf("unexpected initial state: %+v", state)
	}

	state, _ = NextState(state, "some first-pass findings, nothing conclusive")
	if state.IterationType != IterationIntermediate || state.IterationIndex != 2 || state.ResearchComplete {
		t.Fatalf("after 1st gen: %+v", state)
	}

	state, _ = NextState(state, "## Research Update 2\nmore findings")
	if state.IterationType != IterationIntermediate || state.IterationIndex != 3 {
		t.Fatalf("after 2nd gen: %+v", state)
	}

	state, _ = NextState(state, "## Research Update 3\nmore findings")
	if state.IterationType != IterationIntermediate || state.IterationIndex != 4 {
		t.Fatalf("after 3rd gen: %+v", state)
	}

	state, _ = NextState(state, "## Research Update 4\nmore findings")
	if state.IterationType != IterationFinal || state.IterationIndex != 5 || state.ResearchComplete {
		t.Fatalf("after 4th gen (should move to final, not yet complete): %+v", state)
	}

	state, text := NextState(state, "still no conclusion reached")
	if !state.ResearchComplete {
		t.Fatalf("expected forced completion at iteration 5: %+v", state)
	}
	if !strings.Contains(text, "## Final Conclusion") {
		t.Errorf("expected forced conclusion to be appended, got: %q", text)
	}
}

func TestNextState_EarlyCompletionViaFinalConclusionMarker(t *testing.T) {
	state := NewDeepResearchState()
	state, text := NextState(state, "Here is the answer.\n\n## Final Conclusion\nDone.")
	if !state.ResearchComplete {
		t.Errorf("expected early completion, got %+v", state)
	}
	if text != "Here is the answer.\n\n## Final Conclusion\nDone." {
		t.Errorf("text should be unchanged on natural completion, got %q", text)
	}
}

func TestNextState_ConclusionHeadingWithContinuationPhraseDoesNotComplete(t *testing.T) {
	state := NewDeepResearchState()
	state, _ = NextState(state, "## Conclusion so far\nI will now proceed to the next iteration.")
	if state.ResearchComplete {
		t.Error("a Conclusion heading paired with a continuation phrase should not complete")
	}
}

func TestNextState_FinalAndConclusionKeywordsComplete(t *testing.T) {
	state := NewDeepResearchState()
	state, _ = NextState(state, "This is our Final analysis and Conclusion of the matter.")
	if !state.ResearchComplete {
		t.Error("expected completion when both 'Final' and 'Conclusion' appear")
	}
}

func TestBuildPrompt_FirstIterationIncludesFingerprint(t *testing.T) {
	fp := RepoFingerprint{ProjectName: "demo", ProjectType: "Go", PrimaryLanguage: "Go", MainDirectories: []string{"internal", "cmd"}}
	prompt := BuildPrompt(NewDeepResearchState(), "what does this do?", fp, nil, "")
	if !strings.Contains(prompt, "demo") || !strings.Contains(prompt, "Research Plan") {
		t.Errorf("expected fingerprint and Research Plan instruction in first-iteration prompt, got: %q", prompt)
	}
}

func TestBuildPrompt_FinalIterationInstructsConclusion(t *testing.T) {
	state := DeepResearchState{IterationType: IterationFinal, IterationIndex: 5}
	prompt := BuildPrompt(state, "summarize", RepoFingerprint{}, nil, "some context")
	if !strings.Contains(prompt, "Final Conclusion") {
		t.Errorf("expected Final Conclusion instruction, got: %q", prompt)
	}
}

type stubAnswerer struct {
	responses []string
	i         int
}

func (s *stubAnswerer) Answer(ctx context.Context, prompt string) (string, error) {
	if s.i >= len(s.responses) {
		return "## Final Conclusion\nforced stop", nil
	}
	r := s.responses[s.i]
	s.i++
	return r, nil
}

func TestRunDeepResearch_TerminatesWithinFiveIterations(t *testing.T) {
	cache := indexcache.Open(t.TempDir())
	mgr := NewManager(cache)

	answerer := &stubAnswerer{responses: []string{
		"first pass, nothing conclusive",
		"## Research Update 2\nstill going",
		"## Research Update 3\nstill going",
		"## Research Update 4\nstill going",
		"still nothing",
	}}

	var sleeps int
	noSleep := func(d time.Duration) { sleeps++ }

	answer, state, err := RunDeepResearch(context.Background(), mgr, answerer, "", "investigate the architecture",
		RepoFingerprint{ProjectName: "demo"}, nil, noSleep)
	if err != nil {
		t.Fatalf("RunDeepResearch: %v", err)
	}
	if !state.ResearchComplete {
		t.Errorf("expected research to complete, got %+v", state)
	}
	if !strings.Contains(answer, "Final Conclusion") {
		t.Errorf("expected final answer to contain a conclusion, got %q", answer)
	}
	if sleeps == 0 {
		t.Error("expected at least one auto-continuation sleep")
	}
}

func TestRunDeepResearch_StopsEarlyOnNaturalCompletion(t *testing.T) {
	cache := indexcache.Open(t.TempDir())
	mgr := NewManager(cache)

	answerer := &stubAnswerer{responses: []string{
		"This concludes our research into the topic.",
	}}

	answer, state, err := RunDeepResearch(context.Background(), mgr, answerer, "", "quick question",
		RepoFingerprint{ProjectName: "demo"}, nil, func(time.Duration) {})
	if err != nil {
		t.Fatalf("RunDeepResearch: %v", err)
	}
	if !state.ResearchComplete || state.IterationIndex != 1 {
		t.Errorf("expected early completion at iteration 1, got %+v", state)
	}
	if answer == "" {
		t.Error("expected a non-empty answer")
	}
}

