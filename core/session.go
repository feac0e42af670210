package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/chiyokera/audio-sdk/core/agents"
	"github.com/chiyokera/audio-sdk/core/conversations"
	"github.com/chiyokera/audio-sdk/core/guardrails"
	"github.com/chiyokera/audio-sdk/core/llms"
)

const (
	// guardrailApology is the canned answer for input the guardrail rejected.
	guardrailApology = "Sorry, I can only answer questions related to airline travel."
	// runFailureApology is the canned answer when a turn could not be completed.
	runFailureApology = "Sorry, something went wrong on our end. Could you say that again?"
)

// Session holds one customer conversation: the shared customer context, the
// message history and the agent that will answer the next turn.
//
// A Session is not safe for concurrent ProcessTurn calls from the session
// owner's side; turns are serialized internally.
type Session struct {
	id string

	llm       agents.ResponseStreamer
	guardrail guardrails.Classifier

	roster       *agents.Roster
	entryAgent   *agents.Agent
	currentAgent *agents.Agent
	runner       *agents.Runner

	conversation *conversations.Context
	history      []llms.Message

	callbacks sessionCallbacks

	mu        sync.Mutex
	closeOnce sync.Once
}

func NewSession(roster *agents.Roster, entryAgent string, conversation *conversations.Context, opts ...SessionOption) (*Session, error) {
	if roster == nil {
		return nil, fmt.Errorf("roster is required")
	}
	entry, ok := roster.Get(entryAgent)
	if !ok {
		return nil, fmt.Errorf("unknown entry agent %q, have %s",
			entryAgent, strings.Join(roster.Names(), ", "))
	}
	if conversation == nil {
		conversation = conversations.NewContext()
	}

	session := &Session{
		id:           fmt.Sprintf("%x", [16]byte(uuid.New()))[:16],
		roster:       roster,
		entryAgent:   entry,
		currentAgent: entry,
		conversation: conversation,
	}

	for _, opt := range opts {
		opt(session)
	}

	if session.llm == nil {
		return nil, fmt.Errorf("llm client is required")
	}

	runnerOpts := []agents.RunnerOption{}
	if session.callbacks.onResponseDelta != nil {
		runnerOpts = append(runnerOpts, agents.WithContentDeltaCallback(session.callbacks.onResponseDelta))
	}
	if session.callbacks.onToolCall != nil {
		runnerOpts = append(runnerOpts, agents.WithToolCallCallback(session.callbacks.onToolCall))
	}
	if session.callbacks.onHandoff != nil {
		runnerOpts = append(runnerOpts, agents.WithHandoffCallback(session.callbacks.onHandoff))
	}
	session.runner = agents.NewRunner(session.llm, roster, runnerOpts...)

	return session, nil
}

// ID returns the stable identifier of this conversation.
func (s *Session) ID() string { return s.id }

// CurrentAgent returns the agent that will answer the next turn.
func (s *Session) CurrentAgent() *agents.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentAgent
}

// Conversation returns the customer context shared by all agents.
func (s *Session) Conversation() *conversations.Context { return s.conversation }

// History returns a copy of the conversation history.
func (s *Session) History() []llms.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llms.Message(nil), s.history...)
}

// ProcessTurn screens the customer input, runs the agents on it and returns
// the final answer.
//
// Input rejected by the guardrail gets a canned apology, is recorded in the
// history, and resets the conversation back to the entry agent. If the run
// itself fails the history is rolled back to its state before the turn and a
// canned apology is returned alongside no error; the failure is logged.
func (s *Session) ProcessTurn(ctx context.Context, input string) (string, error) {
	ctx, span := tracer.Start(ctx, "process turn")
	defer span.End()
	span.SetAttributes(attribute.String("session.id", s.id))

	s.mu.Lock()
	defer s.mu.Unlock()

	if tripped, verdict := s.screenInput(ctx, input); tripped {
		span.SetAttributes(attribute.Bool("guardrail.tripped", true))
		// The rejected input is not recorded, only the apology is.
		s.history = append(s.history,
			llms.Message{Role: llms.MessageRoleAssistant, Content: guardrailApology},
		)
		if s.currentAgent != s.entryAgent {
			s.currentAgent = s.entryAgent
			if s.callbacks.onAgentChanged != nil {
				s.callbacks.onAgentChanged(s.currentAgent)
			}
		}
		if s.callbacks.onGuardrailTripped != nil {
			s.callbacks.onGuardrailTripped(*verdict)
		}
		return guardrailApology, nil
	}

	var snapshot []llms.Message
	if err := copier.CopyWithOption(&snapshot, s.history, copier.Option{DeepCopy: true}); err != nil {
		return "", fmt.Errorf("failed to snapshot history: %w", err)
	}

	messages := append(s.history, llms.Message{Role: llms.MessageRoleUser, Content: input})

	result, err := s.runner.Run(ctx, s.currentAgent, messages, s.conversation)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.ErrorContext(ctx, "Failed to complete turn", "error", err, "session", s.id)
		s.history = snapshot
		return runFailureApology, nil
	}

	s.history = result.InputList()
	if result.FinalAgent != s.currentAgent {
		s.currentAgent = result.FinalAgent
		if s.callbacks.onAgentChanged != nil {
			s.callbacks.onAgentChanged(s.currentAgent)
		}
	}

	return result.FinalOutput, nil
}

// screenInput runs the guardrail classifier over the input. Classifier
// failures let the input through so a flaky classifier cannot take the whole
// session down.
func (s *Session) screenInput(ctx context.Context, input string) (bool, *guardrails.Verdict) {
	if s.guardrail == nil {
		return false, nil
	}

	verdict, err := s.guardrail.Classify(ctx, input)
	if err != nil {
		var tripped *guardrails.TrippedError
		if errors.As(err, &tripped) {
			return true, &tripped.Verdict
		}

		logger.WarnContext(ctx, "Guardrail classification failed, letting input through",
			"error", err, "session", s.id)
		return false, nil
	}

	if verdict.IsAbnormal {
		return true, verdict
	}
	return false, nil
}

// Reset drops the history and puts the entry agent back in charge. The
// customer context is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	if s.currentAgent != s.entryAgent {
		s.currentAgent = s.entryAgent
		if s.callbacks.onAgentChanged != nil {
			s.callbacks.onAgentChanged(s.currentAgent)
		}
	}
}

// Close releases session resources. It is safe to call more than once.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		logger.InfoContext(ctx, "Session closed", "session", s.id)
	})
	return nil
}
