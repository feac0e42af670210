package orchestration

import (
	"context"
	"reflect"

	"github.com/chiyokera/audio-sdk/core/audio"
)

// audioOutput wraps the configured playback client.
//
// Methods do best-effort forwarding and ignore client return errors because
// the voice pipeline treats audio output as a non-fatal side effect.
type audioOutput struct {
	// base stores the configured output client.
	base AudioOutput
}

func newAudioOutput(client AudioOutput) *audioOutput {
	audioOutput := audioOutput{}
	audioOutput.set(client)
	return &audioOutput
}

// set replaces the configured output client. Nil and typed-nil clients are
// treated as unconfigured.
func (a *audioOutput) set(client AudioOutput) {
	if a == nil {
		return
	}

	a.base = nil
	if isNilAudioOutput(client) {
		return
	}
	a.base = client
}

func (a *audioOutput) isConfigured() bool {
	return a != nil && a.base != nil
}

func (a *audioOutput) SendAudio(audio []byte) {
	if a.isConfigured() {
		_ = a.base.SendAudio(audio)
	}
}

func (a *audioOutput) Clear() {
	if a.isConfigured() {
		a.base.ClearBuffer()
	}
}

// Mark bridges the client's blocking mark-wait to a callback so pipeline
// logic can stay callback-driven. Without output configured, the callback is
// invoked immediately so turn state can continue progressing.
func (a *audioOutput) Mark(mark string, callback func(string)) {
	if !a.isConfigured() {
		callback(mark)
		return
	}

	go func() {
		_ = a.base.AwaitMark()
		callback(mark)
	}()
}

func (a *audioOutput) EncodingInfo() audio.EncodingInfo {
	if !a.isConfigured() {
		return audio.GetDefaultEncodingInfo()
	}

	return a.base.EncodingInfo()
}

func (a *audioOutput) Close(ctx context.Context) error {
	if !a.isConfigured() {
		return nil
	}

	switch c := a.base.(type) {
	case interface{ Close(context.Context) error }:
		return c.Close(ctx)
	case interface{ Close(context.Context) }:
		c.Close(ctx)
	case interface{ Close() error }:
		return c.Close()
	case interface{ Close() }:
		c.Close()
	}

	return nil
}

// isNilAudioOutput detects nil and typed-nil interface values so set can
// avoid storing unusable interface wrappers as configured clients.
func isNilAudioOutput(client AudioOutput) bool {
	if client == nil {
		return true
	}

	v := reflect.ValueOf(client)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
