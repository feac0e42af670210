package orchestration

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/chiyokera/audio-sdk/core/agents"
	"github.com/chiyokera/audio-sdk/core/conversations"
	"github.com/chiyokera/audio-sdk/core/guardrails"
	"github.com/chiyokera/audio-sdk/core/llms"
)

type stubContentChunk struct{ content string }

func (c stubContentChunk) FinishReason() *string { return nil }
func (c stubContentChunk) Content() string       { return c.content }

type stubToolCallChunk struct{ toolCall llms.ToolCall }

func (c stubToolCallChunk) FinishReason() *string   { return nil }
func (c stubToolCallChunk) ToolCall() llms.ToolCall { return c.toolCall }

type stubStream struct {
	chunks []llms.StreamChunk
	err    error
}

func (s stubStream) Chunks(context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		if s.err != nil {
			yield(nil, s.err)
			return
		}
		for _, chunk := range s.chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

type scriptedLLM struct {
	responses []stubStream
	calls     int
}

func (l *scriptedLLM) StreamResponse(_ context.Context, _ string, _ []llms.Message, _ []llms.Tool) llms.Stream {
	response := l.responses[min(l.calls, len(l.responses)-1)]
	l.calls++
	return response
}

type stubClassifier struct {
	verdict *guardrails.Verdict
	err     error
	inputs  []string
}

func (c *stubClassifier) Classify(_ context.Context, input string) (*guardrails.Verdict, error) {
	c.inputs = append(c.inputs, input)
	if c.err != nil {
		return nil, c.err
	}
	return c.verdict, nil
}

func testRoster(t *testing.T) *agents.Roster {
	t.Helper()
	roster, err := agents.NewRoster(
		&agents.Agent{Name: "triage_agent", DisplayName: "Triage Agent", Handoffs: []string{"ordering_agent"}},
		&agents.Agent{Name: "ordering_agent", DisplayName: "Ordering Agent", Handoffs: []string{"triage_agent"}},
	)
	if err != nil {
		t.Fatalf("failed to build roster: %v", err)
	}
	return roster
}

func TestNewSessionValidation(t *testing.T) {
	roster := testRoster(t)

	if _, err := NewSession(roster, "triage_agent", nil); err == nil {
		t.Fatalf("expected session without an llm to be rejected")
	}
	if _, err := NewSession(roster, "unknown_agent", nil, WithLLM(&scriptedLLM{})); err == nil {
		t.Fatalf("expected unknown entry agent to be rejected")
	} else if !strings.Contains(err.Error(), "triage_agent") {
		t.Fatalf("expected the error to name the available agents, got %q", err)
	}

	session, err := NewSession(roster, "triage_agent", nil, WithLLM(&scriptedLLM{
		responses: []stubStream{{chunks: []llms.StreamChunk{stubContentChunk{content: "Hello!"}}}},
	}))
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	if len(session.ID()) != 16 {
		t.Fatalf("expected 16 character session id, got %q", session.ID())
	}
	if session.CurrentAgent().Name != "triage_agent" {
		t.Fatalf("expected entry agent to answer first, got %q", session.CurrentAgent().Name)
	}
}

func TestProcessTurnCommitsHistoryAndAnswer(t *testing.T) {
	session, err := NewSession(testRoster(t), "triage_agent", conversations.NewContext(), WithLLM(&scriptedLLM{
		responses: []stubStream{{chunks: []llms.StreamChunk{stubContentChunk{content: "Hello, how can I help?"}}}},
	}))
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	reply, err := session.ProcessTurn(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("failed to process turn: %v", err)
	}
	if reply != "Hello, how can I help?" {
		t.Fatalf("unexpected reply: %q", reply)
	}

	history := session.History()
	if len(history) != 2 {
		t.Fatalf("expected user and assistant messages in history, got %d", len(history))
	}
	if history[0].Role != llms.MessageRoleUser || history[0].Content != "Hi" {
		t.Fatalf("unexpected first history message: %+v", history[0])
	}
	if history[1].Role != llms.MessageRoleAssistant || history[1].Content != reply {
		t.Fatalf("unexpected second history message: %+v", history[1])
	}
}

func TestProcessTurnFollowsHandoff(t *testing.T) {
	var agentChanges []string
	session, err := NewSession(testRoster(t), "triage_agent", nil,
		WithLLM(&scriptedLLM{responses: []stubStream{
			{chunks: []llms.StreamChunk{stubToolCallChunk{toolCall: llms.ToolCall{
				ID: "call-1", Name: "transfer_to_ordering_agent", Arguments: "{}",
			}}}},
			{chunks: []llms.StreamChunk{stubContentChunk{content: "What would you like to order?"}}},
		}}),
		WithAgentChangedCallback(func(agent *agents.Agent) {
			agentChanges = append(agentChanges, agent.Name)
		}),
	)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	reply, err := session.ProcessTurn(context.Background(), "I want to buy headphones")
	if err != nil {
		t.Fatalf("failed to process turn: %v", err)
	}
	if reply != "What would you like to order?" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if session.CurrentAgent().Name != "ordering_agent" {
		t.Fatalf("expected ordering agent to own the conversation, got %q", session.CurrentAgent().Name)
	}
	if len(agentChanges) != 1 || agentChanges[0] != "ordering_agent" {
		t.Fatalf("unexpected agent change callbacks: %v", agentChanges)
	}
}

func TestProcessTurnGuardrailTripResetsToEntryAgent(t *testing.T) {
	classifier := &stubClassifier{verdict: &guardrails.Verdict{}}
	var tripped []guardrails.Verdict
	session, err := NewSession(testRoster(t), "triage_agent", nil,
		WithLLM(&scriptedLLM{responses: []stubStream{
			{chunks: []llms.StreamChunk{stubToolCallChunk{toolCall: llms.ToolCall{
				ID: "call-1", Name: "transfer_to_ordering_agent", Arguments: "{}",
			}}}},
			{chunks: []llms.StreamChunk{stubContentChunk{content: "What would you like to order?"}}},
		}}),
		WithGuardrail(classifier),
		WithGuardrailTrippedCallback(func(verdict guardrails.Verdict) {
			tripped = append(tripped, verdict)
		}),
	)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if _, err := session.ProcessTurn(context.Background(), "I want to buy headphones"); err != nil {
		t.Fatalf("failed to process turn: %v", err)
	}
	if session.CurrentAgent().Name != "ordering_agent" {
		t.Fatalf("expected handoff to ordering agent, got %q", session.CurrentAgent().Name)
	}
	historyBefore := len(session.History())

	classifier.verdict = &guardrails.Verdict{Reasoning: "not about airline travel", IsAbnormal: true}
	reply, err := session.ProcessTurn(context.Background(), "Write me a poem about strawberries")
	if err != nil {
		t.Fatalf("failed to process guarded turn: %v", err)
	}
	if reply != guardrailApology {
		t.Fatalf("expected the guardrail apology, got %q", reply)
	}
	if session.CurrentAgent().Name != "triage_agent" {
		t.Fatalf("expected reset to the entry agent, got %q", session.CurrentAgent().Name)
	}
	if len(tripped) != 1 || !tripped[0].IsAbnormal {
		t.Fatalf("unexpected tripped callbacks: %v", tripped)
	}

	history := session.History()
	if len(history) != historyBefore+1 {
		t.Fatalf("expected only the apology added to history, got %d messages", len(history))
	}
	if history[len(history)-1].Content != guardrailApology {
		t.Fatalf("expected apology as last history message, got %q", history[len(history)-1].Content)
	}
}

func TestProcessTurnGuardrailFailureLetsInputThrough(t *testing.T) {
	classifier := &stubClassifier{err: fmt.Errorf("classifier unavailable")}
	session, err := NewSession(testRoster(t), "triage_agent", nil,
		WithLLM(&scriptedLLM{
			responses: []stubStream{{chunks: []llms.StreamChunk{stubContentChunk{content: "Hello!"}}}},
		}),
		WithGuardrail(classifier),
	)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	reply, err := session.ProcessTurn(context.Background(), "Hi")
	if err != nil {
		t.Fatalf("expected classifier failure to not fail the turn: %v", err)
	}
	if reply != "Hello!" {
		t.Fatalf("expected the turn to go through, got %q", reply)
	}
	if len(classifier.inputs) != 1 {
		t.Fatalf("expected classifier to see the input, got %v", classifier.inputs)
	}
}

func TestProcessTurnRunFailureRollsBackHistory(t *testing.T) {
	llm := &scriptedLLM{responses: []stubStream{
		{chunks: []llms.StreamChunk{stubContentChunk{content: "Hello!"}}},
		{err: fmt.Errorf("model unavailable")},
	}}
	session, err := NewSession(testRoster(t), "triage_agent", nil, WithLLM(llm))
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if _, err := session.ProcessTurn(context.Background(), "Hi"); err != nil {
		t.Fatalf("failed to process turn: %v", err)
	}
	historyBefore := session.History()

	reply, err := session.ProcessTurn(context.Background(), "And my baggage?")
	if err != nil {
		t.Fatalf("expected run failure to be absorbed, got: %v", err)
	}
	if reply != runFailureApology {
		t.Fatalf("expected the failure apology, got %q", reply)
	}

	history := session.History()
	if len(history) != len(historyBefore) {
		t.Fatalf("expected history rollback, got %d messages instead of %d", len(history), len(historyBefore))
	}
	for i := range history {
		if history[i].Role != historyBefore[i].Role || history[i].Content != historyBefore[i].Content {
			t.Fatalf("history message %d changed after rollback: %+v", i, history[i])
		}
	}
}

func TestResetKeepsConversationContext(t *testing.T) {
	conversation := conversations.NewContext()
	conversation.SetCustomerName("Ada")
	session, err := NewSession(testRoster(t), "triage_agent", conversation, WithLLM(&scriptedLLM{
		responses: []stubStream{{chunks: []llms.StreamChunk{stubContentChunk{content: "Hello!"}}}},
	}))
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	if _, err := session.ProcessTurn(context.Background(), "Hi"); err != nil {
		t.Fatalf("failed to process turn: %v", err)
	}

	session.Reset()
	if len(session.History()) != 0 {
		t.Fatalf("expected empty history after reset")
	}
	if session.Conversation().CustomerName() != "Ada" {
		t.Fatalf("expected customer context to survive reset")
	}
}
