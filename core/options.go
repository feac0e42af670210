package orchestration

import (
	"context"

	"github.com/chiyokera/audio-sdk/core/agents"
	"github.com/chiyokera/audio-sdk/core/audio"
	"github.com/chiyokera/audio-sdk/core/guardrails"
	"github.com/chiyokera/audio-sdk/core/llms"
	"github.com/chiyokera/audio-sdk/core/speechtotext"
	"github.com/chiyokera/audio-sdk/core/texttospeech"
)

type SessionOption func(*Session)

// WithLLM sets the model client used to drive the agents.
func WithLLM(client agents.ResponseStreamer) SessionOption {
	return func(s *Session) {
		s.llm = client
	}
}

// WithGuardrail sets the classifier that screens customer input before it
// reaches any agent. Without a classifier every input goes straight through.
func WithGuardrail(classifier guardrails.Classifier) SessionOption {
	return func(s *Session) {
		s.guardrail = classifier
	}
}

func WithResponseDeltaCallback(callback func(agent *agents.Agent, delta string)) SessionOption {
	return func(s *Session) {
		s.callbacks.onResponseDelta = callback
	}
}

func WithToolCallCallback(callback func(agent *agents.Agent, toolCall llms.ToolCall)) SessionOption {
	return func(s *Session) {
		s.callbacks.onToolCall = callback
	}
}

func WithHandoffCallback(callback func(from *agents.Agent, to *agents.Agent)) SessionOption {
	return func(s *Session) {
		s.callbacks.onHandoff = callback
	}
}

// WithAgentChangedCallback is called whenever the agent that will answer the
// next turn changes, including the reset after a tripped guardrail.
func WithAgentChangedCallback(callback func(agent *agents.Agent)) SessionOption {
	return func(s *Session) {
		s.callbacks.onAgentChanged = callback
	}
}

func WithGuardrailTrippedCallback(callback func(verdict guardrails.Verdict)) SessionOption {
	return func(s *Session) {
		s.callbacks.onGuardrailTripped = callback
	}
}

type sessionCallbacks struct {
	onResponseDelta    func(agent *agents.Agent, delta string)
	onToolCall         func(agent *agents.Agent, toolCall llms.ToolCall)
	onHandoff          func(from *agents.Agent, to *agents.Agent)
	onAgentChanged     func(agent *agents.Agent)
	onGuardrailTripped func(verdict guardrails.Verdict)
}

// SpeechToText is the transcription client surface the voice pipeline needs.
type SpeechToText interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
}

// TextToSpeech is the speech synthesis client surface the voice pipeline needs.
type TextToSpeech interface {
	NewSpeechGenerator(ctx context.Context, opts ...texttospeech.TextToSpeechOption) (texttospeech.SpeechGenerator, error)
}

type audioInputBase interface {
	EncodingInfo() audio.EncodingInfo
	Stream(ctx context.Context, onAudio func(audio []byte)) error
	Close()
}

// AudioInput is an audio source that streams captured audio continuously.
type AudioInput interface {
	audioInputBase
}

// AudioInputFine is an audio source with explicit capture controls, used for
// push-to-talk style recording.
type AudioInputFine interface {
	audioInputBase
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
}

// AudioOutput is a playback sink for generated speech.
type AudioOutput interface {
	EncodingInfo() audio.EncodingInfo
	SendAudio(audio []byte) error
	ClearBuffer()
	AwaitMark() error
}
