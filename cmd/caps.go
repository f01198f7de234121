// SPDX-License-Identifier: MIT
package cmd

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"waveform/internal/analysis"
	"waveform/internal/cpuinfo"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Width(14).
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	onStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#25A065")).
		Bold(true)

	offStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})
)

// RenderCaps formats the feature matrix and the kernels it selects.
func RenderCaps(caps cpuinfo.Caps) string {
	features := []struct {
		name string
		on   bool
	}{
		{"SSE2", caps.SSE2},
		{"SSE4.1", caps.SSE41},
		{"AVX", caps.AVX},
		{"AVX2", caps.AVX2},
		{"FMA3", caps.FMA3},
		{"ASIMD", caps.ASIMD},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("CPU capabilities"))
	b.WriteString("\n\n")
	for _, f := range features {
		mark := offStyle.Render("no")
		if f.on {
			mark = onStyle.Render("yes")
		}
		b.WriteString(labelStyle.Render(f.name) + mark + "\n")
	}

	filterPath := "reference"
	if caps.HasWideFilter() {
		filterPath = "accelerated"
	}
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("FFT kernel") + onStyle.Render(analysis.SelectKernel(caps).String()) + "\n")
	b.WriteString(labelStyle.Render("Gauss filter") + onStyle.Render(filterPath) + "\n")
	return b.String()
}
