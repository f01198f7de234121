// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"waveform/internal/log"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug mode (verbose logging).
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Host      HostConfig      `yaml:"host"`      // Audio and video rates, named sources.
	Visual    Settings        `yaml:"visual"`    // Visualizer settings.
	Transport TransportConfig `yaml:"transport"` // Data transport settings (UDP, WebSocket).
	Recording RecordingConfig `yaml:"recording"` // Audio recording settings.
}

// HostConfig describes the environment the visualizer runs in.
type HostConfig struct {
	SampleRate float64        `yaml:"sample_rate"` // Mixer sample rate in Hz.
	Channels   int            `yaml:"channels"`    // Mixer channel count, 1 or 2.
	FPS        int            `yaml:"fps"`         // Video frame rate.
	Headless   bool           `yaml:"headless"`    // Run without a window.
	Sources    []SourceConfig `yaml:"sources"`     // Named audio sources.
}

// SourceConfig declares one named audio source.
type SourceConfig struct {
	Name            string    `yaml:"name"`
	Kind            string    `yaml:"kind"`             // tone, wav or portaudio.
	Path            string    `yaml:"path,omitempty"`   // WAV file path.
	Loop            bool      `yaml:"loop,omitempty"`   // Restart the WAV file at its end.
	Device          int       `yaml:"device,omitempty"` // PortAudio device index, -1 for default.
	Frequencies     []float64 `yaml:"frequencies,omitempty"`
	Amplitude       float64   `yaml:"amplitude,omitempty"`
	FramesPerBuffer int       `yaml:"frames_per_buffer"`        // Frames delivered per callback.
	GateThreshold   float64   `yaml:"gate_threshold,omitempty"` // Peak below which blocks are muted, 0 disables.
}

// TransportConfig holds settings related to sending processed data over the network.
type TransportConfig struct {
	UDPEnabled          bool          `yaml:"udp_enabled"`            // Enable sending spectrum data over UDP.
	UDPTargetAddress    string        `yaml:"udp_target_address"`     // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval     time.Duration `yaml:"udp_send_interval"`      // Interval between sending UDP packets.
	WebSocketEnabled    bool          `yaml:"websocket_enabled"`      // Serve rendered frames over WebSocket.
	WebSocketAddress    string        `yaml:"websocket_address"`      // Listen address for the frame server.
	WebSocketMinSendGap time.Duration `yaml:"websocket_min_send_gap"` // Minimum time between broadcasts.
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record the followed source to a WAV file.
	OutputDir string `yaml:"output_dir"` // Directory to save recorded audio files.
	BitDepth  int    `yaml:"bit_depth"`  // Bit depth for recorded audio (16 or 24).
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		candidates := []string{
			"config.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate rejects configurations the host cannot run with. Degenerate
// visual ranges are not errors; Settings.Normalize repairs them.
func (c *Config) Validate() error {
	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("log_level '%s' is not a known level", c.LogLevel)
	}

	if c.Host.SampleRate < MinSampleRate || c.Host.SampleRate > MaxSampleRate {
		return fmt.Errorf("host.sample_rate %.0f outside [%d, %d]", c.Host.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Host.Channels < 1 || c.Host.Channels > MaxChannels {
		return fmt.Errorf("host.channels must be 1 or 2, got %d", c.Host.Channels)
	}
	if c.Host.FPS < 0 {
		return fmt.Errorf("host.fps must not be negative, got %d", c.Host.FPS)
	}

	seen := make(map[string]bool, len(c.Host.Sources))
	for i, src := range c.Host.Sources {
		if src.Name == "" || src.Name == NoSource {
			return fmt.Errorf("host.sources[%d]: name '%s' is reserved or empty", i, src.Name)
		}
		if seen[src.Name] {
			return fmt.Errorf("host.sources[%d]: duplicate name '%s'", i, src.Name)
		}
		seen[src.Name] = true

		switch src.Kind {
		case SourceTone:
		case SourceWAV:
			if src.Path == "" {
				return fmt.Errorf("host.sources[%d]: wav source '%s' needs a path", i, src.Name)
			}
		case SourcePortAudio:
		default:
			return fmt.Errorf("host.sources[%d]: unknown kind '%s'", i, src.Kind)
		}
		if src.FramesPerBuffer < 0 || src.FramesPerBuffer > MaxBufferFrames {
			return fmt.Errorf("host.sources[%d]: frames_per_buffer %d outside [0, %d]", i, src.FramesPerBuffer, MaxBufferFrames)
		}
		if src.GateThreshold < 0 || src.GateThreshold > 1 {
			return fmt.Errorf("host.sources[%d]: gate_threshold %g outside [0, 1]", i, src.GateThreshold)
		}
	}

	if _, err := c.Visual.Modes(); err != nil {
		return err
	}

	if c.Transport.UDPEnabled {
		if _, _, err := net.SplitHostPort(c.Transport.UDPTargetAddress); err != nil {
			return fmt.Errorf("transport.udp_target_address '%s' appears invalid: %w", c.Transport.UDPTargetAddress, err)
		}
		if c.Transport.UDPSendInterval <= 0 {
			return fmt.Errorf("transport.udp_send_interval must be positive when UDP is enabled")
		}
	}
	if c.Transport.WebSocketEnabled {
		if _, _, err := net.SplitHostPort(c.Transport.WebSocketAddress); err != nil {
			return fmt.Errorf("transport.websocket_address '%s' appears invalid: %w", c.Transport.WebSocketAddress, err)
		}
	}

	if c.Recording.Enabled && c.Recording.BitDepth != 16 && c.Recording.BitDepth != 24 {
		return fmt.Errorf("recording.bit_depth must be 16 or 24, got %d", c.Recording.BitDepth)
	}

	return nil
}

// applyEnvOverrides applies ENV_* variables on top of the loaded values.
// Unparseable values are ignored.
func (c *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
			log.Debugf("Config: Overriding debug from env: %v", bVal)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		c.LogLevel = val
		log.Debugf("Config: Overriding log_level from env: %s", val)
	}

	// ENV_AUDIO_SOURCE
	if val, ok := os.LookupEnv("ENV_AUDIO_SOURCE"); ok {
		c.Visual.Source = val
		log.Debugf("Config: Overriding visual.source from env: %s", val)
	}
	// ENV_FFT_SIZE
	if val, ok := os.LookupEnv("ENV_FFT_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Visual.FFTSize = n
			c.Visual.AutoFFTSize = false
			log.Debugf("Config: Overriding visual.fft_size from env: %d", n)
		}
	}

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
			log.Debugf("Config: Overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
		log.Debugf("Config: Overriding transport.udp_target_address from env: %s", val)
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
			log.Debugf("Config: Overriding transport.udp_send_interval from env: %s", dur)
		}
	}
	// ENV_WS_ADDRESS
	if val, ok := os.LookupEnv("ENV_WS_ADDRESS"); ok {
		c.Transport.WebSocketAddress = val
		c.Transport.WebSocketEnabled = val != ""
		log.Debugf("Config: Overriding transport.websocket_address from env: %s", val)
	}
}
