package deepgram

import (
	"context"
	"fmt"
	"slices"

	"github.com/chiyokera/audio-sdk/core/texttospeech"
)

type TextToSpeechClient struct {
	voice deepgramVoice
}

func NewTextToSpeechClient(ctx context.Context, voice deepgramVoice) (*TextToSpeechClient, error) {
	if voice == "" {
		voice = defaultVoice
	}
	if !slices.Contains(GetAvailableVoices(), voice) {
		return nil, fmt.Errorf("invalid voice")
	}

	return &TextToSpeechClient{voice: voice}, nil
}

func (c *TextToSpeechClient) SetVoice(voice deepgramVoice) {
	c.voice = voice
}

func (c *TextToSpeechClient) NewSpeechGenerator(ctx context.Context, opts ...texttospeech.TextToSpeechOption) (texttospeech.SpeechGenerator, error) {
	return c.newStreamingRequest(ctx, opts...)
}
