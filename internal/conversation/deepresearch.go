package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// IterationType is the phase of a deep-research run (spec.md §4.9).
type IterationType string

const (
	IterationFirst        IterationType = "first"
	IterationIntermediate IterationType = "intermediate"
	IterationFinal        IterationType = "final"
)

// forcedIterationIndex is the iteration at which the controller forces
// completion regardless of the completion predicates.
const forcedIterationIndex = 5

// DeepResearchState tracks one deep-research conversation's position in
// its bounded multi-iteration state machine.
type DeepResearchState struct {
	IterationType    IterationType
	IterationIndex   int
	ResearchComplete bool
}

// NewDeepResearchState returns the initial state for the first query of
// a deep-research conversation.
func NewDeepResearchState() DeepResearchState {
	return DeepResearchState{IterationType: IterationFirst, IterationIndex: 1}
}

// completionPhrases triggers completion regardless of heading structure.
var completionPhrases = []string{
	"This concludes our research",
	"This completes our investigation",
	"This concludes the deep research process",
	"Key Findings and Implementation Details",
	"In conclusion,",
}

// continuationPhrases, if present alongside a Conclusion/Summary
// heading, indicate the model intends to keep going rather than stop.
var continuationPhrases = []string{
	"I will now proceed to",
	"Next Steps",
	"next iteration",
}

// isComplete implements spec.md §4.9's completion predicates: any one
// triggers done.
func isComplete(text string) bool {
	if strings.Contains(text, "## Final Conclusion") {
		return true
	}

	hasConclusionHeading := strings.Contains(text, "## Conclusion") || strings.Contains(text, "## Summary")
	if hasConclusionHeading && !containsAny(text, continuationPhrases) {
		return true
	}

	if containsAny(text, completionPhrases) {
		return true
	}
	if strings.Contains(text, "Final") && strings.Contains(text, "Conclusion") {
		return true
	}
	return false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

// forcedConclusionParagraph is appended to the generated text when iteration 5
// is reached without a naturally detected completion, so downstream
// consumers always see a closed research trajectory.
const forcedConclusionParagraph = "\n\n## Final Conclusion\n\nThe research has reached its maximum number of iterations. The findings gathered across the prior iterations represent the best available answer given the evidence retrieved."

// NextState evaluates the transition rules in spec.md §4.9 against the
// text just generated at current's iteration, returning the next state
// and the (possibly forcibly amended) generated text.
func NextState(current DeepResearchState, generated string) (DeepResearchState, string) {
	complete := isComplete(generated)

	if current.IterationIndex >= forcedIterationIndex {
		if !complete {
			generated += forcedConclusionParagraph
		}
		return DeepResearchState{
			IterationType:    IterationFinal,
			IterationIndex:   current.IterationIndex,
			ResearchComplete: true,
		}, generated
	}

	if complete {
		return DeepResearchState{
			IterationType:    current.IterationType,
			IterationIndex:   current.IterationIndex,
			ResearchComplete: true,
		}, generated
	}

	switch current.IterationType {
	case IterationFirst:
		return DeepResearchState{IterationType: IterationIntermediate, IterationIndex: 2}, generated
	case IterationIntermediate:
		if current.IterationIndex < 4 {
			return DeepResearchState{IterationType: IterationIntermediate, IterationIndex: current.IterationIndex + 1}, generated
		}
		return DeepResearchState{IterationType: IterationFinal, IterationIndex: forcedIterationIndex}, generated
	default: // IterationFinal below the forced index should not occur, but terminate defensively.
		return DeepResearchState{IterationType: IterationFinal, IterationIndex: current.IterationIndex, ResearchComplete: true}, generated
	}
}

// RepoFingerprint is the small repository summary the first-iteration
// prompt presents (spec.md §6's "present the repository fingerprint").
type RepoFingerprint struct {
	ProjectName     string
	ProjectType     string
	PrimaryLanguage string
	MainDirectories []string
}

// historyWindow is how many prior turns are included in intermediate
// and final prompts.
const historyWindow = 10

// BuildPrompt assembles the generation prompt for one deep-research
// iteration, per spec.md §6's deep-research prompt-assembly contract.
func BuildPrompt(state DeepResearchState, question string, fp RepoFingerprint, history []Message, retrievedContext string) string {
	var b strings.Builder

	switch state.IterationType {
	case IterationFirst:
		fmt.Fprintf(&b, "Repository: %s (%s)\n", fp.ProjectName, fp.ProjectType)
		if fp.PrimaryLanguage != "" {
			fmt.Fprintf(&b, "Primary language: %s\n", fp.PrimaryLanguage)
		}
		if len(fp.MainDirectories) > 0 {
			fmt.Fprintf(&b, "Main directories: %s\n", strings.Join(fp.MainDirectories, ", "))
		}
		fmt.Fprintf(&b, "\nQuestion: %s\n\n", question)
		b.WriteString("Produce a `## Research Plan` section describing how you will investigate this, " +
			"followed by your immediate first-pass findings.")

	case IterationIntermediate, IterationFinal:
		if len(history) > 0 {
			b.WriteString("## Prior Turns\n")
			start := 0
			if len(history) > historyWindow {
				start = len(history) - historyWindow
			}
			for _, m := range history[start:] {
				fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
			}
			b.WriteString("\n")
		}
		if retrievedContext != "" {
			fmt.Fprintf(&b, "## Relevant Context\n%s\n\n", retrievedContext)
		}
		fmt.Fprintf(&b, "Question: %s\n\n", question)

		if state.IterationType == IterationFinal {
			b.WriteString("Produce a `## Final Conclusion` section summarizing the findings across all iterations.")
		} else {
			fmt.Fprintf(&b, "Produce a `## Research Update %d` section with your next findings.", state.IterationIndex)
		}
	}

	return b.String()
}

// ContinuationPrompt is the fixed user turn issued to auto-continue a
// deep-research conversation (spec.md §4.9).
const ContinuationPrompt = "[DEEP RESEARCH] Continue the research"

// AutoContinueDelay is how long the controller waits between iterations
// before issuing the continuation prompt.
const AutoContinueDelay = 1 * time.Second

// Answerer is the minimal generation contract the deep-research
// controller needs, so this package stays decoupled from the
// RAG/vectorstore/generator stack, mirroring the teacher's own
// llm.Provider decoupling. internal/rag.Engine has no Answer method and
// this module ships no adapter for it; callers supply their own Answerer.
type Answerer interface {
	Answer(ctx context.Context, prompt string) (string, error)
}

// Sleeper abstracts the 1-second auto-continuation delay so tests can
// run the state machine without waiting on a real clock.
type Sleeper func(time.Duration)

// RunDeepResearch drives the bounded iteration loop: build a prompt for
// the current state, generate, evaluate the transition, persist the
// turn, and — unless the run is done — sleep AutoContinueDelay and
// issue the fixed continuation prompt for the next iteration. It always
// terminates in at most 5 iterations (spec.md §8).
func RunDeepResearch(ctx context.Context, mgr *Manager, answerer Answerer, sessionID, question string, fp RepoFingerprint, retrieve func(prompt string) string, sleep Sleeper) (string, DeepResearchState, error) {
	if sleep == nil {
		sleep = time.Sleep
	}

	state := NewDeepResearchState()
	currentQuestion := question
	var lastAnswer string

	for {
		sid, _, err := mgr.AppendMessage(sessionID, RoleUser, currentQuestion, nil, nil)
		if err != nil {
			return "", state, err
		}
		sessionID = sid

		sess, _ := mgr.GetSession(sessionID)
		var history []Message
		if sess != nil {
			history = sess.Messages
		}

		var retrievedContext string
		if retrieve != nil {
			retrievedContext = retrieve(currentQuestion)
		}

		prompt := BuildPrompt(state, currentQuestion, fp, history, retrievedContext)

		answer, err := answerer.Answer(ctx, prompt)
		if err != nil {
			return "", state, fmt.Errorf("conversation: deep research generation: %w", err)
		}

		nextState, finalAnswer := NextState(state, answer)
		lastAnswer = finalAnswer

		if _, _, err := mgr.AppendMessage(sessionID, RoleAssistant, finalAnswer, nil, nil); err != nil {
			return "", nextState, err
		}

		state = nextState
		if state.ResearchComplete {
			return lastAnswer, state, nil
		}

		select {
		case <-ctx.Done():
			return lastAnswer, state, ctx.Err()
		default:
		}
		sleep(AutoContinueDelay)
		currentQuestion = ContinuationPrompt
	}
}
