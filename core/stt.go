package orchestration

import (
	"context"
	"fmt"

	"github.com/chiyokera/audio-sdk/core/audio"
	"github.com/chiyokera/audio-sdk/core/speechtotext"
)

type speechToTextCallbacks struct {
	onTranscription        func(transcript string)
	onInterimTranscription func(transcript string)
	onSpeechStarted        func()
	onSpeechEnded          func()
}

type speechToText struct {
	// client stores the configured speech-to-text implementation.
	client SpeechToText

	callbacks speechToTextCallbacks
}

func newSpeechToText(client SpeechToText) *speechToText {
	return &speechToText{client: client}
}

func (s *speechToText) set(client SpeechToText) {
	if s != nil {
		s.client = client
	}
}

func (s *speechToText) isConfigured() bool {
	return s != nil && s.client != nil
}

func (s *speechToText) Start(ctx context.Context, encodingInfo audio.EncodingInfo) error {
	if !s.isConfigured() {
		return nil
	}

	sttOptions := []speechtotext.TranscriptionOption{
		speechtotext.WithEncodingInfo(encodingInfo),
	}
	if s.callbacks.onTranscription != nil {
		sttOptions = append(sttOptions, speechtotext.WithTranscriptionCallback(s.callbacks.onTranscription))
	}
	if s.callbacks.onInterimTranscription != nil {
		sttOptions = append(sttOptions, speechtotext.WithInterimTranscriptionCallback(s.callbacks.onInterimTranscription))
	}
	if s.callbacks.onSpeechStarted != nil {
		sttOptions = append(sttOptions, speechtotext.WithSpeechStartedCallback(s.callbacks.onSpeechStarted))
	}
	if s.callbacks.onSpeechEnded != nil {
		sttOptions = append(sttOptions, speechtotext.WithSpeechEndedCallback(s.callbacks.onSpeechEnded))
	}

	if err := s.client.Transcribe(ctx, sttOptions...); err != nil {
		return fmt.Errorf("failed to start transcribing: %w", err)
	}

	return nil
}

func (s *speechToText) SendAudio(audio []byte) error {
	if !s.isConfigured() {
		return nil
	}

	return s.client.SendAudio(audio)
}

func (s *speechToText) Close(ctx context.Context) error {
	if !s.isConfigured() {
		return nil
	}

	switch c := s.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			return fmt.Errorf("failed to close speech-to-text client: %w", err)
		}
	case interface{ Close() }:
		c.Close()
	}

	return nil
}
