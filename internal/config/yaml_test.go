// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if cfg.Visual.Source != DefaultToneSource || len(cfg.Host.Sources) != 1 {
		t.Errorf("default config should follow the tone source, got %q with %d sources",
			cfg.Visual.Source, len(cfg.Host.Sources))
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeTempConfig(t, `
log_level: debug
host:
  sample_rate: 44100
  channels: 1
  fps: 30
  sources:
    - name: music
      kind: wav
      path: /tmp/music.wav
      loop: true
visual:
  source: music
  stereo: true
  display: stepped_bars
  render_mode: gradient
  color_base: 0xff336699
  floor: -90
transport:
  udp_enabled: true
  udp_target_address: "10.0.0.2:7000"
  udp_send_interval: 50ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.Host.SampleRate != 44100 || cfg.Host.Channels != 1 || cfg.Host.FPS != 30 {
		t.Errorf("host section not applied: %+v", cfg.Host)
	}
	if len(cfg.Host.Sources) != 1 || cfg.Host.Sources[0].Name != "music" || !cfg.Host.Sources[0].Loop {
		t.Errorf("sources = %+v", cfg.Host.Sources)
	}

	v := cfg.Visual
	if v.Source != "music" || !v.Stereo || v.Display != "stepped_bars" || v.RenderMode != "gradient" {
		t.Errorf("visual section not applied: %+v", v)
	}
	if v.ColorBase != 0xff336699 {
		t.Errorf("color_base = %#x, want 0xff336699", v.ColorBase)
	}
	if v.Floor != -90 {
		t.Errorf("floor = %d, want -90", v.Floor)
	}
	// Keys missing from the file keep their defaults.
	if v.Width != DefaultWidth || v.Gravity != DefaultGravity || v.BarWidth != DefaultBarWidth {
		t.Errorf("defaults lost: width=%d gravity=%v bar_width=%d", v.Width, v.Gravity, v.BarWidth)
	}

	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPSendInterval != 50*time.Millisecond {
		t.Errorf("transport = %+v", cfg.Transport)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("ENV_AUDIO_SOURCE", "mic")
	t.Setenv("ENV_FFT_SIZE", "4096")
	t.Setenv("ENV_UDP_ENABLED", "true")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "10ms")
	t.Setenv("ENV_WS_ADDRESS", "127.0.0.1:9999")
	t.Setenv("ENV_DEBUG", "not-a-bool")

	path := writeTempConfig(t, "debug: true\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Visual.Source != "mic" || cfg.Visual.FFTSize != 4096 {
		t.Errorf("visual overrides = %q, %d", cfg.Visual.Source, cfg.Visual.FFTSize)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPSendInterval != 10*time.Millisecond {
		t.Errorf("udp overrides = %+v", cfg.Transport)
	}
	if !cfg.Transport.WebSocketEnabled || cfg.Transport.WebSocketAddress != "127.0.0.1:9999" {
		t.Errorf("websocket overrides = %+v", cfg.Transport)
	}
	if !cfg.Debug {
		t.Error("unparseable ENV_DEBUG should leave the file value")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errSub string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
		{"low sample rate", func(c *Config) { c.Host.SampleRate = 100 }, "sample_rate"},
		{"three channels", func(c *Config) { c.Host.Channels = 3 }, "channels"},
		{"reserved source name", func(c *Config) { c.Host.Sources[0].Name = NoSource }, "reserved"},
		{"duplicate source", func(c *Config) {
			c.Host.Sources = append(c.Host.Sources, c.Host.Sources[0])
		}, "duplicate"},
		{"wav without path", func(c *Config) { c.Host.Sources[0].Kind = SourceWAV }, "needs a path"},
		{"unknown kind", func(c *Config) { c.Host.Sources[0].Kind = "midi" }, "unknown kind"},
		{"gate above full scale", func(c *Config) { c.Host.Sources[0].GateThreshold = 1.5 }, "gate_threshold"},
		{"unknown window", func(c *Config) { c.Visual.Window = "kaiser" }, "window"},
		{"udp without port", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPTargetAddress = "localhost"
		}, "udp_target_address"},
		{"udp zero interval", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPSendInterval = 0
		}, "udp_send_interval"},
		{"disabled udp ignores address", func(c *Config) { c.Transport.UDPTargetAddress = "bogus" }, ""},
		{"bad bit depth", func(c *Config) {
			c.Recording.Enabled = true
			c.Recording.BitDepth = 8
		}, "bit_depth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errSub == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("error = %v, want mention of %q", err, tt.errSub)
			}
		})
	}
}
