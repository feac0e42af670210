package deepgram

import (
	"context"
	"testing"

	"github.com/chiyokera/audio-sdk/core/texttospeech"
)

func TestNewTextToSpeechClientRejectsUnknownVoice(t *testing.T) {
	if _, err := NewTextToSpeechClient(context.Background(), deepgramVoice("aura-nonexistent-en")); err == nil {
		t.Fatalf("expected unknown voice to be rejected")
	}

	client, err := NewTextToSpeechClient(context.Background(), "")
	if err != nil {
		t.Fatalf("expected empty voice to fall back to the default, got error: %v", err)
	}
	if client.voice != defaultVoice {
		t.Fatalf("expected default voice %q, got %q", defaultVoice, client.voice)
	}
}

func TestStreamingRequestRejectsTextAfterClose(t *testing.T) {
	req := &streamingRequest{closed: true}

	if err := req.SendText("hello"); err == nil {
		t.Fatalf("expected SendText to error after close")
	}
	if err := req.Mark(); err == nil {
		t.Fatalf("expected Mark to error after close")
	}
	if err := req.EndOfText(); err == nil {
		t.Fatalf("expected EndOfText to error after close")
	}
}

func TestStreamingRequestRejectsTextAfterEndOfText(t *testing.T) {
	ended := 0
	req := &streamingRequest{
		options: streamingRequestOptions{
			TextToSpeechOptions: texttospeech.TextToSpeechOptions{
				SpeechEndedCallback: func(texttospeech.SpeechEndedReport) { ended++ },
			},
		},
	}

	if err := req.EndOfText(); err != nil {
		t.Fatalf("expected EndOfText with no pending text to succeed, got: %v", err)
	}
	if ended != 1 {
		t.Fatalf("expected speech ended callback to fire once, got %d", ended)
	}
	if err := req.SendText("more"); err == nil {
		t.Fatalf("expected SendText to error after end of text")
	}
}
