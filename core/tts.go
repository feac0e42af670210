package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/chiyokera/audio-sdk/core/audio"
	"github.com/chiyokera/audio-sdk/core/texttospeech"
)

type textToSpeech struct {
	// client stores the configured text-to-speech implementation.
	client TextToSpeech

	generator   texttospeech.SpeechGenerator
	generatorMu sync.Mutex

	// connected reports whether a speech generator is currently open.
	connected atomic.Bool

	// onAudio is called with every generated speech chunk.
	onAudio func(audio []byte)
	// onMark is called when speech has been generated up to a mark.
	onMark func(mark string)
}

func newTextToSpeech(client TextToSpeech) *textToSpeech {
	return &textToSpeech{
		client:  client,
		onAudio: func([]byte) {},
		onMark:  func(string) {},
	}
}

func (t *textToSpeech) set(client TextToSpeech) {
	if t != nil {
		t.client = client
	}
}

func (t *textToSpeech) isConfigured() bool {
	return t != nil && t.client != nil
}

func (t *textToSpeech) Start(ctx context.Context, encodingInfo audio.EncodingInfo) error {
	if !t.isConfigured() {
		return nil
	}

	generator, err := t.client.NewSpeechGenerator(ctx,
		texttospeech.WithSpeechAudioCallback(func(audio []byte) { t.onAudio(audio) }),
		texttospeech.WithSpeechMarkCallback(func(mark string) { t.onMark(mark) }),
		texttospeech.WithEncodingInfo(encodingInfo),
		texttospeech.WithErrorCallback(func(err error) {
			logger.Warn("Speech generation error", "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create speech generator: %w", err)
	}

	t.generatorMu.Lock()
	t.generator = generator
	t.generatorMu.Unlock()
	t.connected.Store(true)

	return nil
}

// Speak queues text for speech generation and marks its end, so onMark fires
// once the whole text has been generated.
func (t *textToSpeech) Speak(text string) error {
	t.generatorMu.Lock()
	defer t.generatorMu.Unlock()

	if t.generator == nil {
		return nil
	}

	if err := t.generator.SendText(text); err != nil {
		return fmt.Errorf("failed to send text to speech generator: %w", err)
	}
	if err := t.generator.Mark(); err != nil {
		return fmt.Errorf("failed to mark speech generator text: %w", err)
	}
	return nil
}

// Cancel stops generation of any queued speech.
func (t *textToSpeech) Cancel() error {
	t.generatorMu.Lock()
	defer t.generatorMu.Unlock()

	if t.generator == nil {
		return nil
	}
	return t.generator.Cancel()
}

func (t *textToSpeech) Close(ctx context.Context) error {
	var errs error

	t.generatorMu.Lock()
	if t.generator != nil {
		if err := t.generator.Close(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to close speech generator: %w", err))
		}
		t.generator = nil
	}
	t.generatorMu.Unlock()
	t.connected.Store(false)

	switch c := t.client.(type) {
	case interface{ Close(context.Context) error }:
		if err := c.Close(ctx); err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to close text-to-speech client: %w", err))
		}
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		if err := c.Close(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to close text-to-speech client: %w", err))
		}
	case interface{ Close() }:
		c.Close()
	}

	return errs
}
