// SPDX-License-Identifier: MIT
package source

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"

	"waveform/internal/log"
	"waveform/internal/pipeline"
)

// DefaultDevice selects the system default input device.
const DefaultDevice = -1

// Initialize sets up the PortAudio subsystem.
// This must be called before any input is opened and paired with a Terminate() call.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate cleanly shuts down the PortAudio subsystem.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// inputDevice retrieves the input device for the given index, or the system
// default for DefaultDevice.
func inputDevice(index int) (*portaudio.DeviceInfo, error) {
	if index == DefaultDevice {
		return portaudio.DefaultInputDevice()
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(devices) {
		return nil, fmt.Errorf("invalid device ID: %d", index)
	}
	if devices[index].MaxInputChannels < 1 {
		return nil, fmt.Errorf("device %d (%s) has no inputs", index, devices[index].Name)
	}
	return devices[index], nil
}

// PortAudioInput forwards a PortAudio input stream. PortAudio must be
// initialized before Start.
type PortAudioInput struct {
	fanout

	device int
	info   pipeline.AudioInfo
	frames int

	mu     sync.Mutex
	stream *portaudio.Stream
}

// NewPortAudioInput describes an input on device with the given format. The
// device is opened by Start.
func NewPortAudioInput(device int, sampleRate float64, channels, frames int) *PortAudioInput {
	return &PortAudioInput{
		device: device,
		info:   pipeline.AudioInfo{SampleRate: sampleRate, Channels: channels},
		frames: frames,
	}
}

func (p *PortAudioInput) Info() pipeline.AudioInfo { return p.info }

// Start opens and starts a non-interleaved float32 stream. The stream stops
// when ctx is done.
func (p *PortAudioInput) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil {
		return fmt.Errorf("portaudio: device %d already started", p.device)
	}

	dev, err := inputDevice(p.device)
	if err != nil {
		return err
	}
	latency := dev.DefaultLowInputLatency

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: p.info.Channels,
			Device:   dev,
			Latency:  latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: p.frames,
		SampleRate:      p.info.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, p.process)
	if err != nil {
		return fmt.Errorf("failed to open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	p.stream = stream
	log.Infof("Source: Opened input %q (%.0f Hz, %d ch, latency %s)",
		dev.Name, p.info.SampleRate, p.info.Channels, latency.Round(time.Microsecond))

	go func() {
		<-ctx.Done()
		if err := p.Close(); err != nil {
			log.Warnf("Source: %v", err)
		}
	}()
	return nil
}

// process runs on the PortAudio callback thread.
func (p *PortAudioInput) process(in [][]float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if len(in) == 0 {
		return
	}
	p.emit(in, len(in[0]), false)
}

func (p *PortAudioInput) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return nil
	}
	stream := p.stream
	p.stream = nil
	if err := stream.Stop(); err != nil {
		stream.Close()
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close input stream: %w", err)
	}
	return nil
}
