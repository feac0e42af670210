package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// promptQueueSize bounds how many finished utterances can wait for a turn.
// Utterances that arrive while the queue is full are dropped.
const promptQueueSize = 4

// VoicePipeline connects audio input, transcription, a session and speech
// synthesis into a spoken conversation.
//
// Audio flows capture -> speech-to-text; each finished utterance becomes a
// session turn; the answer is synthesized and played back. Capture is gated
// by StartRecording/StopRecording so playback is not transcribed back into
// the conversation.
type VoicePipeline struct {
	session *Session

	speechToText *speechToText
	textToSpeech *textToSpeech
	audioInput   *audioInput
	audioOutput  *audioOutput

	prompts chan string

	onTranscription        func(transcript string)
	onInterimTranscription func(transcript string)
	onReply                func(reply string)

	started   atomic.Bool
	cancel    context.CancelFunc
	closeOnce sync.Once
}

type VoicePipelineOption func(*VoicePipeline)

func WithSpeechToTextClient(client SpeechToText) VoicePipelineOption {
	return func(p *VoicePipeline) {
		p.speechToText.set(client)
	}
}

func WithTextToSpeechClient(client TextToSpeech) VoicePipelineOption {
	return func(p *VoicePipeline) {
		p.textToSpeech.set(client)
	}
}

func WithAudioInput(client AudioInput) VoicePipelineOption {
	return func(p *VoicePipeline) {
		p.audioInput.set(client)
	}
}

func WithAudioOutput(client AudioOutput) VoicePipelineOption {
	return func(p *VoicePipeline) {
		p.audioOutput.set(client)
	}
}

// WithTranscriptionCallback is called with each finished utterance, before
// the session answers it.
func WithTranscriptionCallback(callback func(transcript string)) VoicePipelineOption {
	return func(p *VoicePipeline) {
		p.onTranscription = callback
	}
}

// WithInterimTranscriptionCallback is called with the running transcript of
// the current utterance while the customer is still speaking.
func WithInterimTranscriptionCallback(callback func(transcript string)) VoicePipelineOption {
	return func(p *VoicePipeline) {
		p.onInterimTranscription = callback
	}
}

// WithReplyCallback is called with the session's answer to each utterance.
func WithReplyCallback(callback func(reply string)) VoicePipelineOption {
	return func(p *VoicePipeline) {
		p.onReply = callback
	}
}

func NewVoicePipeline(session *Session, opts ...VoicePipelineOption) (*VoicePipeline, error) {
	if session == nil {
		return nil, fmt.Errorf("session is required")
	}

	pipeline := &VoicePipeline{
		session:      session,
		speechToText: newSpeechToText(nil),
		textToSpeech: newTextToSpeech(nil),
		audioOutput:  newAudioOutput(nil),
		prompts:      make(chan string, promptQueueSize),
	}
	pipeline.audioInput = newAudioInput(nil, func(audio []byte) {
		if err := pipeline.speechToText.SendAudio(audio); err != nil {
			logger.Warn("Failed to forward audio to transcription", "error", err)
		}
	})

	for _, opt := range opts {
		opt(pipeline)
	}

	return pipeline, nil
}

// Start opens the transcription and speech generation streams and begins
// processing utterances. Capture starts muted; call StartRecording to let
// audio through.
func (p *VoicePipeline) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return fmt.Errorf("voice pipeline already started")
	}

	ctx, p.cancel = context.WithCancel(ctx)

	p.speechToText.callbacks = speechToTextCallbacks{
		onTranscription:        p.enqueuePrompt,
		onInterimTranscription: p.onInterimTranscription,
	}
	if err := p.speechToText.Start(ctx, p.audioInput.EncodingInfo()); err != nil {
		return fmt.Errorf("failed to start transcription: %w", err)
	}

	p.textToSpeech.onAudio = p.audioOutput.SendAudio
	if err := p.textToSpeech.Start(ctx, p.audioOutput.EncodingInfo()); err != nil {
		return fmt.Errorf("failed to start speech generation: %w", err)
	}

	p.audioInput.Start(ctx)

	go p.processPrompts(ctx)

	return nil
}

// StartRecording lets captured audio through to transcription. Speech still
// being generated is cancelled and queued playback is cleared so the
// assistant does not talk over the customer.
func (p *VoicePipeline) StartRecording(ctx context.Context) error {
	if err := p.textToSpeech.Cancel(); err != nil {
		logger.Warn("Failed to cancel queued speech", "error", err)
	}
	p.audioOutput.Clear()
	return p.audioInput.EnableCapture(ctx)
}

// StopRecording stops forwarding captured audio to transcription.
func (p *VoicePipeline) StopRecording() error {
	return p.audioInput.DisableCapture()
}

func (p *VoicePipeline) IsRecording() bool {
	return p.audioInput.IsCaptureEnabled()
}

func (p *VoicePipeline) enqueuePrompt(transcript string) {
	if p.onTranscription != nil {
		p.onTranscription(transcript)
	}

	select {
	case p.prompts <- transcript:
	default:
		logger.Warn("Dropping utterance, turn queue is full", "transcript", transcript)
	}
}

func (p *VoicePipeline) processPrompts(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case prompt := <-p.prompts:
			reply, err := p.session.ProcessTurn(ctx, prompt)
			if err != nil {
				logger.ErrorContext(ctx, "Failed to process utterance", "error", err)
				continue
			}

			if p.onReply != nil {
				p.onReply(reply)
			}
			if err := p.textToSpeech.Speak(reply); err != nil {
				logger.Warn("Failed to synthesize answer", "error", err)
			}
		}
	}
}

// Close shuts the pipeline down. It is safe to call more than once.
func (p *VoicePipeline) Close(ctx context.Context) error {
	var errs error
	p.closeOnce.Do(func() {
		if p.cancel != nil {
			p.cancel()
		}

		errs = errors.Join(errs,
			p.speechToText.Close(ctx),
			p.textToSpeech.Close(ctx),
			p.audioInput.Close(),
			p.audioOutput.Close(ctx),
		)
	})
	return errs
}
