// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/harmonica"
)

// SmoothingMode selects how a spectrum decays between frames.
type SmoothingMode int

const (
	SmoothNone SmoothingMode = iota
	SmoothExponential
	SmoothSpring
)

// attackRate is the weight given to a rising value when fast peaks is off.
const attackRate = 0.7

func (m SmoothingMode) String() string {
	switch m {
	case SmoothNone:
		return "none"
	case SmoothExponential:
		return "exponential"
	case SmoothSpring:
		return "spring"
	default:
		return fmt.Sprintf("smoothing(%d)", int(m))
	}
}

// ParseSmoothingMode converts a configuration name to a SmoothingMode.
func ParseSmoothingMode(name string) (SmoothingMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return SmoothNone, nil
	case "exponential", "exp":
		return SmoothExponential, nil
	case "spring":
		return SmoothSpring, nil
	default:
		return SmoothExponential, fmt.Errorf("unknown smoothing mode: '%s'", name)
	}
}

// Smoother holds per-bin decay state for one channel.
type Smoother struct {
	mode      SmoothingMode
	gravity   float32
	fastPeaks bool

	state    []float32
	velocity []float64 // spring mode only
	spring   harmonica.Spring
}

// NewSmoother returns a smoother over bins values with its state at DBMin.
// fps only affects the spring mode.
func NewSmoother(mode SmoothingMode, bins int, gravity float32, fastPeaks bool, fps int) *Smoother {
	if gravity < 0 {
		gravity = 0
	} else if gravity > 1 {
		gravity = 1
	}
	s := &Smoother{
		mode:      mode,
		gravity:   gravity,
		fastPeaks: fastPeaks,
		state:     make([]float32, bins),
	}
	if mode == SmoothSpring {
		if fps <= 0 {
			fps = 60
		}
		// Heavier gravity lowers the spring frequency so bins fall slower.
		freq := 24 + (2-24)*float64(gravity)
		s.spring = harmonica.NewSpring(harmonica.FPS(fps), freq, 1.0)
		s.velocity = make([]float64, bins)
	}
	s.Reset()
	return s
}

// Mode returns the configured smoothing mode.
func (s *Smoother) Mode() SmoothingMode { return s.mode }

// Reset fills the state with DBMin.
func (s *Smoother) Reset() {
	for i := range s.state {
		s.state[i] = DBMin
	}
	clear(s.velocity)
}

// State returns the smoothed spectrum. The slice is owned by the smoother.
func (s *Smoother) State() []float32 { return s.state }

// Apply folds a new spectrum into the state. In SmoothNone the state is a copy
// of the input.
func (s *Smoother) Apply(spectrum []float32) {
	n := min(len(spectrum), len(s.state))
	switch s.mode {
	case SmoothExponential:
		s.applyExponential(spectrum[:n])
	case SmoothSpring:
		s.applySpring(spectrum[:n])
	default:
		copy(s.state, spectrum[:n])
	}
}

func (s *Smoother) applyExponential(spectrum []float32) {
	g := s.gravity
	state := s.state
	for i, v := range spectrum {
		old := state[i]
		switch {
		case v > old && s.fastPeaks:
			state[i] = v
		case v > old:
			state[i] = (1-attackRate)*old + attackRate*v
		default:
			state[i] = v + g*(old-v)
		}
	}
}

func (s *Smoother) applySpring(spectrum []float32) {
	state := s.state
	for i, v := range spectrum {
		old := state[i]
		if old <= DBMin || (s.fastPeaks && v > old) {
			state[i] = v
			s.velocity[i] = 0
			continue
		}
		pos, vel := s.spring.Update(float64(old), s.velocity[i], float64(v))
		state[i] = clampDB(float32(pos))
		s.velocity[i] = vel
	}
}
