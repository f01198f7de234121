// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"waveform/internal/analysis"
	"waveform/internal/config"
	"waveform/pkg/build"
)

// Commands selected on the command line.
const (
	CommandRun     = "run"
	CommandCaps    = "caps"
	CommandVersion = "version"
)

// Options holds the parsed command line.
type Options struct {
	Command    string
	ConfigPath string

	Source   string
	FFTSize  int
	Display  string
	Window   string
	Kernel   string
	Verbose  bool
	Headless bool
	Record   bool

	changed map[string]bool
}

// overridable lists the flags that replace configuration values when given.
var overridable = []string{"source", "fft-size", "display", "window", "verbose", "headless", "record"}

// ParseArgs parses args (without the program name).
func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{changed: make(map[string]bool)}

	record := func(cmd *cobra.Command) {
		for _, name := range overridable {
			if cmd.Flags().Changed(name) {
				options.changed[name] = true
			}
		}
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time audio spectrum visualizer",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandRun
			record(cmd)
			return nil
		},
	}
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(&cobra.Command{
		Use:   CommandCaps,
		Short: "Show detected CPU features and the kernels they select",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandCaps
			record(cmd)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   CommandVersion,
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = CommandVersion
		},
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", "",
		"Path to a YAML config file (default: ./config.yaml if present)")
	flags.StringVarP(&options.Source, "source", "s", "",
		"Name of the audio source to visualize, or 'none'")
	flags.IntVarP(&options.FFTSize, "fft-size", "f", 0,
		"FFT length in samples (multiple of 16, at least 128)")
	flags.StringVarP(&options.Display, "display", "d", "",
		"Display mode: curve, bars or stepped_bars")
	flags.StringVarP(&options.Window, "window", "w", "",
		"Analysis window: none, hann, hamming, blackman or blackman_harris")
	flags.StringVarP(&options.Kernel, "kernel", "k", "",
		"Force a spectral kernel: generic, sse2, avx or avx2")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false,
		"Show verbose output")
	flags.BoolVar(&options.Headless, "headless", false,
		"Run without a window; frames go to the configured transports")
	flags.BoolVarP(&options.Record, "record", "r", false,
		"Record the visualized source to a WAV file")

	// A nil slice would make cobra fall back to os.Args.
	if args == nil {
		args = []string{}
	}
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}

// Changed reports whether the named flag was given.
func (o *Options) Changed(name string) bool { return o.changed[name] }

// KernelKind returns the forced kernel, if any.
func (o *Options) KernelKind() (analysis.KernelKind, bool, error) {
	if o.Kernel == "" {
		return 0, false, nil
	}
	k, err := analysis.ParseKernelKind(o.Kernel)
	if err != nil {
		return 0, false, err
	}
	return k, true, nil
}

// Apply overrides cfg with the flags that were given and validates the
// result.
func (o *Options) Apply(cfg *config.Config) error {
	if o.Changed("source") {
		cfg.Visual.Source = o.Source
	}
	if o.Changed("fft-size") {
		cfg.Visual.FFTSize = o.FFTSize
		cfg.Visual.AutoFFTSize = false
	}
	if o.Changed("display") {
		cfg.Visual.Display = o.Display
	}
	if o.Changed("window") {
		cfg.Visual.Window = o.Window
	}
	if o.Changed("verbose") && o.Verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}
	if o.Changed("headless") {
		cfg.Host.Headless = o.Headless
	}
	if o.Changed("record") {
		cfg.Recording.Enabled = o.Record
	}
	if _, _, err := o.KernelKind(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
