// SPDX-License-Identifier: MIT
package source

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"waveform/internal/config"
	"waveform/internal/log"
	"waveform/internal/pipeline"
)

// Registry maps names to sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds src under name. Names are unique and "none" is reserved.
func (r *Registry) Register(name string, src Source) error {
	if name == "" || name == config.NoSource {
		return fmt.Errorf("source name '%s' is reserved or empty", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[name]; ok {
		return fmt.Errorf("source '%s' already registered", name)
	}
	r.sources[name] = src
	return nil
}

// Lookup returns the source registered under name.
func (r *Registry) Lookup(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[name]
	return src, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// StartAll starts every source. On failure, sources already started are
// closed.
func (r *Registry) StartAll(ctx context.Context) error {
	var started []Source
	for _, name := range r.Names() {
		src, _ := r.Lookup(name)
		if err := src.Start(ctx); err != nil {
			for _, s := range started {
				s.Close()
			}
			return fmt.Errorf("failed to start source '%s': %w", name, err)
		}
		started = append(started, src)
	}
	return nil
}

// Close closes every source and joins their errors.
func (r *Registry) Close() error {
	var errs []error
	for _, name := range r.Names() {
		src, _ := r.Lookup(name)
		if err := src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("source '%s': %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds a registry holding every source in cfg.Sources, all
// producing cfg.SampleRate audio with cfg.Channels channels.
func FromConfig(cfg config.HostConfig) (*Registry, error) {
	reg := NewRegistry()
	rate := cfg.SampleRate
	for _, sc := range cfg.Sources {
		frames := sc.FramesPerBuffer
		if frames == 0 {
			frames = config.DefaultFramesPerBuffer
		}

		var src Source
		var err error
		switch sc.Kind {
		case config.SourceTone:
			freqs := sc.Frequencies
			if len(freqs) == 0 {
				freqs = []float64{440}
			}
			amp := sc.Amplitude
			if amp == 0 {
				amp = 0.25
			}
			src, err = NewTone(freqs, amp, rate, cfg.Channels, frames)
		case config.SourceWAV:
			var w *WAVFile
			w, err = OpenWAV(sc.Path, sc.Loop, cfg.Channels, frames)
			if err == nil && w.Info().SampleRate != rate {
				log.Warnf("Source: %s plays at %.0f Hz on a %.0f Hz host", sc.Path, w.Info().SampleRate, rate)
			}
			src = w
		case config.SourcePortAudio:
			src = NewPortAudioInput(sc.Device, rate, cfg.Channels, frames)
		default:
			err = fmt.Errorf("unknown kind '%s'", sc.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("source '%s': %w", sc.Name, err)
		}
		if sc.GateThreshold > 0 {
			src.Gate().SetThreshold(sc.GateThreshold)
			src.Gate().Enable()
		}
		if err := reg.Register(sc.Name, src); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// NeedsPortAudio reports whether any configured source is a PortAudio input.
func NeedsPortAudio(cfg config.HostConfig) bool {
	return slices.ContainsFunc(cfg.Sources, func(sc config.SourceConfig) bool {
		return sc.Kind == config.SourcePortAudio
	})
}

// Host adapts a registry to pipeline.Host.
type Host struct {
	registry *Registry
	info     pipeline.AudioInfo
	fps      float64
}

// NewHost returns a pipeline host backed by reg with the mixer format and
// frame rate from cfg.
func NewHost(reg *Registry, cfg config.HostConfig) *Host {
	return &Host{
		registry: reg,
		info:     pipeline.AudioInfo{SampleRate: cfg.SampleRate, Channels: cfg.Channels},
		fps:      float64(cfg.FPS),
	}
}

func (h *Host) AudioInfo() pipeline.AudioInfo { return h.info }

func (h *Host) VideoFPS() float64 { return h.fps }

func (h *Host) LookupSource(name string) (pipeline.Source, bool) {
	src, ok := h.registry.Lookup(name)
	if !ok {
		return nil, false
	}
	return src, true
}
