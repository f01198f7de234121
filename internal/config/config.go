// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the host process.
const (
	// Default values for the host configuration
	DefaultSampleRate      = 48000 // Host mixer rate (Hz)
	DefaultChannels        = 2     // Stereo capture
	DefaultFPS             = 60    // Video tick rate
	DefaultFramesPerBuffer = 512   // Balanced latency/performance
	DefaultLogLevel        = "info"
	DefaultToneSource      = "tone"

	// Hardware and processing limits
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxChannels     = 2      // The pipeline mixes or duplicates to at most two
	MaxBufferFrames = 8192   // Maximum frames per capture buffer

	// Transport defaults
	DefaultUDPTargetAddress = "127.0.0.1:9090"
	DefaultUDPSendInterval  = 33 * time.Millisecond // ~30Hz
	DefaultWebSocketAddress = "127.0.0.1:8080"
	DefaultWebSocketMinSend = 16 * time.Millisecond

	// Recording defaults
	DefaultRecordingDir = "./recordings"
	DefaultBitDepth     = 16
)

// Source kinds understood by the host.
const (
	SourceTone      = "tone"
	SourceWAV       = "wav"
	SourcePortAudio = "portaudio"
)

// DefaultConfig returns the built-in configuration: a single demo tone source
// feeding the default visualizer, no transports, no recording.
func DefaultConfig() Config {
	visual := DefaultSettings()
	visual.Source = DefaultToneSource

	return Config{
		Debug:    false,
		LogLevel: DefaultLogLevel,
		Host: HostConfig{
			SampleRate: DefaultSampleRate,
			Channels:   DefaultChannels,
			FPS:        DefaultFPS,
			Sources: []SourceConfig{{
				Name:            DefaultToneSource,
				Kind:            SourceTone,
				Frequencies:     []float64{110, 440, 1760, 7040},
				Amplitude:       0.25,
				FramesPerBuffer: DefaultFramesPerBuffer,
			}},
		},
		Visual: visual,
		Transport: TransportConfig{
			UDPEnabled:          false,
			UDPTargetAddress:    DefaultUDPTargetAddress,
			UDPSendInterval:     DefaultUDPSendInterval,
			WebSocketEnabled:    false,
			WebSocketAddress:    DefaultWebSocketAddress,
			WebSocketMinSendGap: DefaultWebSocketMinSend,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: DefaultRecordingDir,
			BitDepth:  DefaultBitDepth,
		},
	}
}
