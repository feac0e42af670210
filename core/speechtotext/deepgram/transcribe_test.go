package deepgram

import (
	"context"
	"fmt"
	"testing"

	"github.com/chiyokera/audio-sdk/core/audio"
	"github.com/chiyokera/audio-sdk/core/speechtotext"
)

func resultsMessage(transcript string, isFinal, speechFinal bool) []byte {
	return fmt.Appendf(nil,
		`{"type":"Results","is_final":%t,"speech_final":%t,"channel":{"alternatives":[{"transcript":%q}]}}`,
		isFinal, speechFinal, transcript,
	)
}

func TestProcessMessageAccumulatesFinalFragments(t *testing.T) {
	client := NewTranscriptionClient()

	var transcripts []string
	options := speechtotext.TranscriptionOptions{
		TranscriptionCallback: func(transcript string) { transcripts = append(transcripts, transcript) },
	}

	ctx := context.Background()
	client.processMessage(ctx, resultsMessage("I want to", true, false), options)
	client.processMessage(ctx, resultsMessage("change my seat", true, false), options)
	client.processMessage(ctx, resultsMessage("", true, true), options)

	if len(transcripts) != 1 {
		t.Fatalf("expected a single full transcript, got %v", transcripts)
	}
	if got, want := transcripts[0], "I want to change my seat"; got != want {
		t.Fatalf("expected full transcript %q, got %q", want, got)
	}
	if client.accumulatedTranscript != "" {
		t.Fatalf("expected accumulated transcript to reset, got %q", client.accumulatedTranscript)
	}
}

func TestProcessMessageUtteranceEndFlushesUnendedSegment(t *testing.T) {
	client := NewTranscriptionClient()

	var transcripts []string
	speechStarted, speechEnded := 0, 0
	options := speechtotext.TranscriptionOptions{
		TranscriptionCallback: func(transcript string) { transcripts = append(transcripts, transcript) },
		SpeechStartedCallback: func() { speechStarted++ },
		SpeechEndedCallback:   func() { speechEnded++ },
	}

	ctx := context.Background()
	client.processMessage(ctx, []byte(`{"type":"SpeechStarted"}`), options)
	client.processMessage(ctx, resultsMessage("hello", true, false), options)
	client.processMessage(ctx, []byte(`{"type":"UtteranceEnd"}`), options)

	if speechStarted != 1 || speechEnded != 1 {
		t.Fatalf("expected one speech started and one speech ended, got %d and %d", speechStarted, speechEnded)
	}
	if len(transcripts) != 1 || transcripts[0] != "hello" {
		t.Fatalf("expected transcript to flush on utterance end, got %v", transcripts)
	}

	// a second utterance end without new speech should not re-fire
	client.processMessage(ctx, []byte(`{"type":"UtteranceEnd"}`), options)
	if speechEnded != 1 {
		t.Fatalf("expected utterance end without speech to be ignored, got %d endings", speechEnded)
	}
}

func TestProcessMessageInterimIncludesAccumulatedTranscript(t *testing.T) {
	client := NewTranscriptionClient()

	var interims []string
	options := speechtotext.TranscriptionOptions{
		TranscriptionCallback:        func(string) {},
		InterimTranscriptionCallback: func(transcript string) { interims = append(interims, transcript) },
	}

	ctx := context.Background()
	client.processMessage(ctx, resultsMessage("my bag is", true, false), options)
	client.processMessage(ctx, resultsMessage("missing", false, false), options)

	if len(interims) != 1 {
		t.Fatalf("expected a single interim transcript, got %v", interims)
	}
	if got, want := interims[0], " my bag is missing"; got != want {
		t.Fatalf("expected interim transcript %q, got %q", want, got)
	}
}

func TestConvertEncoding(t *testing.T) {
	encoding, err := convertEncoding(audio.EncodingInfo{SampleRate: 24000, Format: audio.EncodingLinear16})
	if err != nil {
		t.Fatalf("expected linear16 at 24kHz to convert, got error: %v", err)
	}
	if encoding.Format.Name() != "linear16" || encoding.SampleRate != 24000 {
		t.Fatalf("unexpected encoding: %+v", encoding)
	}

	if _, err := convertEncoding(audio.EncodingInfo{SampleRate: 44100, Format: audio.EncodingLinear16}); err == nil {
		t.Fatalf("expected unsupported sample rate to error")
	}
	if _, err := convertEncoding(audio.EncodingInfo{SampleRate: 16000, Format: audio.EncodingMulaw}); err == nil {
		t.Fatalf("expected mulaw above 8kHz to error")
	}
}
