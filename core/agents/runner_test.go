package agents

import (
	"context"
	"strings"
	"testing"

	"github.com/chiyokera/audio-sdk/core/conversations"
	"github.com/chiyokera/audio-sdk/core/llms"
)

type stubContentChunk struct{ content string }

func (c stubContentChunk) FinishReason() *string { return nil }
func (c stubContentChunk) Content() string       { return c.content }

type stubToolCallChunk struct{ toolCall llms.ToolCall }

func (c stubToolCallChunk) FinishReason() *string   { return nil }
func (c stubToolCallChunk) ToolCall() llms.ToolCall { return c.toolCall }

type stubStream struct{ chunks []llms.StreamChunk }

func (s stubStream) Chunks(context.Context) func(func(llms.StreamChunk, error) bool) {
	return func(yield func(llms.StreamChunk, error) bool) {
		for _, chunk := range s.chunks {
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

type recordedCall struct {
	instructions string
	history      []llms.Message
	tools        []llms.Tool
}

type scriptedLLM struct {
	responses []stubStream
	calls     []recordedCall
}

func (l *scriptedLLM) StreamResponse(
	_ context.Context,
	instructions string,
	history []llms.Message,
	tools []llms.Tool,
) llms.Stream {
	l.calls = append(l.calls, recordedCall{
		instructions: instructions,
		history:      append([]llms.Message(nil), history...),
		tools:        tools,
	})
	if len(l.responses) == 0 {
		return stubStream{}
	}
	response := l.responses[0]
	l.responses = l.responses[1:]
	return response
}

func testRoster(t *testing.T) (*Roster, *Agent, *Agent) {
	t.Helper()
	triage := &Agent{
		Name:         "triage_agent",
		DisplayName:  "Triage Agent",
		Instructions: "Route the customer.",
		Handoffs:     []string{"product_info_agent"},
	}
	product := &Agent{
		Name:         "product_info_agent",
		DisplayName:  "Product Information Agent",
		Instructions: "Answer product questions.",
		Handoffs:     []string{"triage_agent"},
	}
	roster, err := NewRoster(triage, product)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return roster, triage, product
}

func TestRun_PlainMessageEndsRun(t *testing.T) {
	roster, triage, _ := testRoster(t)
	llm := &scriptedLLM{responses: []stubStream{
		{chunks: []llms.StreamChunk{
			stubContentChunk{content: "Hello, "},
			stubContentChunk{content: "who am I speaking with?"},
		}},
	}}
	runner := NewRunner(llm, roster)

	input := []llms.Message{{Role: llms.MessageRoleUser, Content: "hi"}}
	result, err := runner.Run(context.Background(), triage, input, conversations.NewContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FinalAgent != triage {
		t.Fatalf("unexpected final agent: %s", result.FinalAgent.Name)
	}
	if result.FinalOutput != "Hello, who am I speaking with?" {
		t.Fatalf("unexpected final output: %q", result.FinalOutput)
	}
	if len(result.NewItems) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.NewItems))
	}
	if _, ok := result.NewItems[0].(MessageItem); !ok {
		t.Fatalf("expected a message item, got %T", result.NewItems[0])
	}

	inputList := result.InputList()
	if len(inputList) != 2 {
		t.Fatalf("expected 2 messages in the input list, got %d", len(inputList))
	}
	if inputList[1].Role != llms.MessageRoleAssistant || inputList[1].Content != result.FinalOutput {
		t.Fatalf("unexpected final message: %+v", inputList[1])
	}
	if len(input) != 1 {
		t.Fatalf("expected the input slice to be untouched, got %d messages", len(input))
	}
}

func TestRun_ToolCallsAreExecutedAndFedBack(t *testing.T) {
	roster, triage, _ := testRoster(t)
	triage.Tools = []llms.Tool{llms.NewTool("lookup", "Looks things up",
		map[string]llms.ParameterBase{"q": {Type: "string"}},
		func(parameters struct {
			Q string `json:"q"`
		}) (string, error) {
			return "answer to " + parameters.Q, nil
		})}

	llm := &scriptedLLM{responses: []stubStream{
		{chunks: []llms.StreamChunk{
			stubToolCallChunk{toolCall: llms.ToolCall{ID: "call_1", Name: "lookup", Arguments: `{"q":"wifi"}`}},
		}},
		{chunks: []llms.StreamChunk{
			stubContentChunk{content: "We have free wifi."},
		}},
	}}
	runner := NewRunner(llm, roster)

	result, err := runner.Run(context.Background(), triage,
		[]llms.Message{{Role: llms.MessageRoleUser, Content: "wifi?"}},
		conversations.NewContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.NewItems) != 3 {
		t.Fatalf("expected 3 items, got %d", len(result.NewItems))
	}
	if _, ok := result.NewItems[0].(ToolCallItem); !ok {
		t.Fatalf("expected a tool call item, got %T", result.NewItems[0])
	}
	output, ok := result.NewItems[1].(ToolOutputItem)
	if !ok {
		t.Fatalf("expected a tool output item, got %T", result.NewItems[1])
	}
	if output.Output != "answer to wifi" {
		t.Fatalf("unexpected tool output: %q", output.Output)
	}

	if len(llm.calls) != 2 {
		t.Fatalf("expected 2 model calls, got %d", len(llm.calls))
	}
	secondCallHistory := llm.calls[1].history
	last := secondCallHistory[len(secondCallHistory)-1]
	if last.Role != llms.MessageRoleAssistant || len(last.ToolCalls) != 1 {
		t.Fatalf("unexpected assistant message: %+v", last)
	}
	if last.ToolCalls[0].Response != "answer to wifi" {
		t.Fatalf("expected the tool response to be fed back, got: %+v", last.ToolCalls[0])
	}
}

func TestRun_HandoffMovesTheConversation(t *testing.T) {
	roster, triage, product := testRoster(t)
	hookRan := false
	product.OnHandoff = func(_ context.Context, _ *conversations.Context) {
		hookRan = true
	}

	llm := &scriptedLLM{responses: []stubStream{
		{chunks: []llms.StreamChunk{
			stubToolCallChunk{toolCall: llms.ToolCall{ID: "call_1", Name: "transfer_to_product_info_agent"}},
		}},
		{chunks: []llms.StreamChunk{
			stubContentChunk{content: "Ask me anything about our services."},
		}},
	}}

	var handoffs []string
	runner := NewRunner(llm, roster, WithHandoffCallback(func(from *Agent, to *Agent) {
		handoffs = append(handoffs, from.Name+"->"+to.Name)
	}))

	result, err := runner.Run(context.Background(), triage,
		[]llms.Message{{Role: llms.MessageRoleUser, Content: "I have a product question"}},
		conversations.NewContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FinalAgent != product {
		t.Fatalf("expected the product agent to finish, got %s", result.FinalAgent.Name)
	}
	if !hookRan {
		t.Fatal("expected the hand-off hook to run")
	}
	if len(handoffs) != 1 || handoffs[0] != "triage_agent->product_info_agent" {
		t.Fatalf("unexpected hand-offs: %+v", handoffs)
	}
	if len(llm.calls) != 2 || !strings.Contains(llm.calls[1].instructions, product.Instructions) {
		t.Fatal("expected the second model call to use the product agent's instructions")
	}

	foundHandoffItem := false
	for _, item := range result.NewItems {
		if handoff, ok := item.(HandoffItem); ok {
			foundHandoffItem = true
			if handoff.From != triage || handoff.To != product {
				t.Fatalf("unexpected hand-off item: %+v", handoff)
			}
		}
	}
	if !foundHandoffItem {
		t.Fatal("expected a hand-off item")
	}
}

func TestRun_DisallowedHandoffIsRefused(t *testing.T) {
	triage := &Agent{Name: "triage_agent", DisplayName: "Triage Agent", Handoffs: []string{"product_info_agent"}}
	product := &Agent{Name: "product_info_agent", DisplayName: "Product Information Agent", Handoffs: []string{"triage_agent"}}
	ordering := &Agent{Name: "ordering_agent", DisplayName: "Ordering Agent", Handoffs: []string{"triage_agent"}}
	roster, err := NewRoster(triage, product, ordering)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The product agent tries to reach the ordering agent directly, which
	// the graph does not allow.
	llm := &scriptedLLM{responses: []stubStream{
		{chunks: []llms.StreamChunk{
			stubToolCallChunk{toolCall: llms.ToolCall{ID: "call_1", Name: "transfer_to_ordering_agent"}},
		}},
		{chunks: []llms.StreamChunk{
			stubContentChunk{content: "Let me send you back to triage instead."},
		}},
	}}
	runner := NewRunner(llm, roster)

	result, err := runner.Run(context.Background(), product,
		[]llms.Message{{Role: llms.MessageRoleUser, Content: "I want to buy headphones"}},
		conversations.NewContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FinalAgent != product {
		t.Fatalf("expected the conversation to stay with the product agent, got %s", result.FinalAgent.Name)
	}
	for _, item := range result.NewItems {
		if _, ok := item.(HandoffItem); ok {
			t.Fatal("expected no hand-off item for a refused transfer")
		}
	}

	secondCallHistory := llm.calls[1].history
	last := secondCallHistory[len(secondCallHistory)-1]
	if !strings.Contains(last.ToolCalls[0].Response, "Cannot transfer") {
		t.Fatalf("expected the refusal to be fed back to the model, got: %+v", last.ToolCalls[0])
	}
}

func TestRun_SecondHandoffInOneResponseIsRefused(t *testing.T) {
	triage := &Agent{Name: "triage_agent", DisplayName: "Triage Agent", Handoffs: []string{"product_info_agent", "ordering_agent"}}
	product := &Agent{Name: "product_info_agent", DisplayName: "Product Information Agent", Handoffs: []string{"triage_agent"}}
	ordering := &Agent{Name: "ordering_agent", DisplayName: "Ordering Agent", Handoffs: []string{"triage_agent"}}
	roster, err := NewRoster(triage, product, ordering)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	llm := &scriptedLLM{responses: []stubStream{
		{chunks: []llms.StreamChunk{
			stubToolCallChunk{toolCall: llms.ToolCall{ID: "call_1", Name: "transfer_to_product_info_agent"}},
			stubToolCallChunk{toolCall: llms.ToolCall{ID: "call_2", Name: "transfer_to_ordering_agent"}},
		}},
		{chunks: []llms.StreamChunk{stubContentChunk{content: "Happy to help."}}},
	}}
	runner := NewRunner(llm, roster)

	result, err := runner.Run(context.Background(), triage,
		[]llms.Message{{Role: llms.MessageRoleUser, Content: "hello"}},
		conversations.NewContext())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.FinalAgent != product {
		t.Fatalf("expected the first transfer to win, got %s", result.FinalAgent.Name)
	}
}

func TestRun_StopsAfterTooManyModelCalls(t *testing.T) {
	roster, triage, _ := testRoster(t)
	triage.Tools = []llms.Tool{llms.NewTool("noop", "Does nothing", nil,
		func(struct{}) (string, error) { return "done", nil })}

	looping := stubStream{chunks: []llms.StreamChunk{
		stubToolCallChunk{toolCall: llms.ToolCall{ID: "call", Name: "noop"}},
	}}
	llm := &scriptedLLM{}
	for range maxTurns + 1 {
		llm.responses = append(llm.responses, looping)
	}
	runner := NewRunner(llm, roster)

	_, err := runner.Run(context.Background(), triage,
		[]llms.Message{{Role: llms.MessageRoleUser, Content: "loop"}},
		conversations.NewContext())
	if err == nil {
		t.Fatal("expected an error for a never-ending tool loop")
	}
}

func TestRun_ExposesHandoffToolsToTheModel(t *testing.T) {
	roster, triage, _ := testRoster(t)
	llm := &scriptedLLM{responses: []stubStream{
		{chunks: []llms.StreamChunk{stubContentChunk{content: "hi"}}},
	}}
	runner := NewRunner(llm, roster)

	if _, err := runner.Run(context.Background(), triage,
		[]llms.Message{{Role: llms.MessageRoleUser, Content: "hi"}},
		conversations.NewContext()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, tool := range llm.calls[0].tools {
		if tool.Name == "transfer_to_product_info_agent" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a transfer tool, got: %+v", llm.calls[0].tools)
	}
}
