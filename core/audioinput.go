package orchestration

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/chiyokera/audio-sdk/core/audio"
)

type audioInput struct {
	// base stores the configured input client used for streaming audio.
	base audioInputBase
	// fineCaptureControl is set when the input client supports explicit
	// capture controls.
	fineCaptureControl AudioInputFine

	// connected reports whether a concrete input client is currently configured.
	connected atomic.Bool
	// isCapturing reports whether the input client is currently capturing audio.
	isCapturing atomic.Bool
	// captureEnabled gates whether captured audio is forwarded downstream.
	captureEnabled atomic.Bool

	// onInputAudio is called when input audio is received
	onInputAudio func(audio []byte)
}

func newAudioInput(client audioInputBase, onInputAudio func(audio []byte)) *audioInput {
	if onInputAudio == nil {
		onInputAudio = func(audio []byte) {}
	}

	audioInput := audioInput{onInputAudio: onInputAudio}
	audioInput.set(client)
	return &audioInput
}

func (a *audioInput) set(client audioInputBase) {
	if a == nil {
		return
	}

	a.base = client
	a.fineCaptureControl = nil
	a.connected.Store(false)
	a.isCapturing.Store(false)

	if client == nil {
		return
	}

	a.connected.Store(true)
	if fine, ok := client.(AudioInputFine); ok {
		a.fineCaptureControl = fine
	}
}

func (a *audioInput) isConfigured() bool { return a != nil && a.connected.Load() }
func (a *audioInput) supportsCaptureControls() bool {
	return a != nil && a.fineCaptureControl != nil
}
func (a *audioInput) IsCapturing() bool      { return a != nil && a.isCapturing.Load() }
func (a *audioInput) IsCaptureEnabled() bool { return a != nil && a.captureEnabled.Load() }

// EnableCapture lets captured audio through and, when the client supports
// capture controls, starts the capture device.
func (a *audioInput) EnableCapture(ctx context.Context) error {
	if a == nil {
		return nil
	}

	a.captureEnabled.Store(true)
	return a.capture(ctx)
}

// DisableCapture stops forwarding captured audio and, when the client supports
// capture controls, stops the capture device.
func (a *audioInput) DisableCapture() error {
	if a == nil {
		return nil
	}

	a.captureEnabled.Store(false)
	if !a.supportsCaptureControls() {
		return nil
	}
	if !a.isCapturing.CompareAndSwap(true, false) {
		return nil
	}

	return a.fineCaptureControl.StopCapture()
}

// Start begins streaming for clients without capture controls. The stream
// runs continuously; captured audio is only forwarded while capture is
// enabled. Clients with capture controls start capturing on EnableCapture.
func (a *audioInput) Start(ctx context.Context) {
	if a.isConfigured() && !a.supportsCaptureControls() {
		_ = a.capture(ctx)
	}
}

func (a *audioInput) capture(ctx context.Context) error {
	if !a.isConfigured() {
		return nil
	}

	if !a.isCapturing.CompareAndSwap(false, true) {
		return nil
	}

	if a.supportsCaptureControls() {
		go func() {
			if err := a.fineCaptureControl.StartCapture(ctx, a.onAudio); err != nil {
				a.isCapturing.Store(false)
				logger.Warn("Failed to start audio capture", "error", err)
			}
		}()
		return nil
	}

	go func() {
		if err := a.base.Stream(ctx, a.onAudio); err != nil {
			a.isCapturing.Store(false)
			logger.Warn("Failed to start audio input stream", "error", err)
		}
	}()
	return nil
}

func (a *audioInput) Close() error {
	var errs error
	if a.isConfigured() {
		if a.fineCaptureControl != nil && a.isCapturing.Load() {
			if err := a.fineCaptureControl.StopCapture(); err != nil {
				errs = errors.Join(errs, err)
			}
		}

		a.base.Close()
	}
	a.isCapturing.Store(false)

	return errs
}

func (a *audioInput) EncodingInfo() audio.EncodingInfo {
	if a == nil || a.base == nil {
		return audio.GetDefaultEncodingInfo()
	}

	return a.base.EncodingInfo()
}

// onAudio drops audio captured while capture is disabled, so clients without
// capture controls still honor the recording toggle.
func (a *audioInput) onAudio(audio []byte) {
	if !a.IsCaptureEnabled() {
		return
	}

	a.onInputAudio(audio)
}
