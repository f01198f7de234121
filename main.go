// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"waveform/cmd"
	"waveform/internal/config"
	"waveform/internal/cpuinfo"
	"waveform/internal/log"
	"waveform/internal/pipeline"
	"waveform/internal/render"
	"waveform/internal/source"
	"waveform/internal/transport"
	"waveform/internal/transport/udp"
	"waveform/pkg/build"
)

// main is the entry point for the visualizer.
// The program flow is divided into three phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Execute one-off commands if requested
//   - Build sources, the pipeline and its transports
//
// 2. Concurrent Phase (Hot Path):
//   - Sources deliver audio to the pipeline
//   - The render loop ticks the pipeline and draws or publishes frames
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop recording if active
//   - Clean up resources
func main() {
	if err := run(); err != nil {
		log.Fatalf("%v", err)
	}
}

func run() error {
	// ==================== STARTUP PHASE (Cold Path) ====================

	if err := build.Initialize(); err != nil {
		log.Debugf("Build: Using development metadata: %v", err)
	}

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		return err
	}

	switch opts.Command {
	case cmd.CommandVersion:
		fmt.Println(build.GetBuildFlags())
		return nil
	case cmd.CommandCaps:
		fmt.Print(cmd.RenderCaps(cpuinfo.Detect()))
		return nil
	}

	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return err
	}
	if err := opts.Apply(cfg); err != nil {
		return err
	}
	if level, ok := log.ParseLevel(cfg.LogLevel); ok {
		log.SetLevel(level)
	}
	if cfg.Debug {
		log.SetLevel(log.LevelDebug)
	}
	log.Infof("Starting %s", build.GetBuildFlags())

	if source.NeedsPortAudio(cfg.Host) {
		if err := source.Initialize(); err != nil {
			return err
		}
		defer source.Terminate()
	}

	registry, err := source.FromConfig(cfg.Host)
	if err != nil {
		return err
	}
	defer func() {
		if err := registry.Close(); err != nil {
			log.Errorf("Error closing sources: %v", err)
		}
	}()

	var pipelineOpts []pipeline.Option
	if kind, forced, err := opts.KernelKind(); err != nil {
		return err
	} else if forced {
		pipelineOpts = append(pipelineOpts, pipeline.WithKernel(kind))
	}
	vis := pipeline.New(source.NewHost(registry, cfg.Host), cfg.Visual, pipelineOpts...)
	defer vis.Close()

	out, err := openTransports(cfg, vis)
	if err != nil {
		return err
	}
	defer out.close()

	stopRecording, err := startRecording(cfg, registry)
	if err != nil {
		return err
	}
	defer stopRecording()

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := registry.StartAll(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if out.ws != nil || out.udp != nil {
		g.Go(func() error {
			out.report(gctx, statsInterval)
			return nil
		})
	}

	var runErr error
	if cfg.Host.Headless || !render.WindowAvailable {
		g.Go(func() error {
			return render.RunHeadless(gctx, vis, out.sink, cfg.Host.FPS)
		})
	} else {
		// The window owns the main goroutine until it closes.
		runErr = render.RunWindow(gctx, vis, out.sink, cfg.Host.FPS, build.GetBuildFlags().Name)
		stop()
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Infof("Shutting down")
	return runErr
}

// statsInterval is how often transport statistics are logged.
const statsInterval = 10 * time.Second

// outputs holds the opened transports.
type outputs struct {
	sink    transport.Transport
	ws      *transport.WebSocketTransport
	udp     *udp.UDPSender
	closers []func() error
}

// close closes everything in reverse opening order.
func (o *outputs) close() {
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil {
			log.Errorf("Error closing transport: %v", err)
		}
	}
}

// report logs transport statistics every interval until ctx is done.
func (o *outputs) report(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if o.ws != nil {
				log.Debugf("Transport: %d WebSocket clients", o.ws.Clients())
			}
			if o.udp != nil {
				packets, bytes := o.udp.Stats()
				log.Debugf("Transport: %d UDP packets (%d bytes) to %s", packets, bytes, o.udp.Target())
			}
		}
	}
}

// openTransports builds the frame sink and starts the UDP spectrum
// publisher. On error everything opened so far is closed.
func openTransports(cfg *config.Config, vis *pipeline.Pipeline) (*outputs, error) {
	o := &outputs{}
	var sinks transport.Multi

	if cfg.Debug {
		sinks = append(sinks, transport.NewLoggingTransport())
	}

	if cfg.Transport.WebSocketEnabled {
		ws := transport.NewWebSocketTransport(cfg.Transport.WebSocketMinSendGap)
		addr, err := ws.Listen(cfg.Transport.WebSocketAddress)
		if err != nil {
			ws.Close()
			o.close()
			return nil, err
		}
		log.Infof("Serving frames on ws://%s%s", addr, transport.FramesPath)
		sinks = append(sinks, ws)
		o.ws = ws
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewUDPSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			o.close()
			return nil, err
		}
		o.closers = append(o.closers, sender.Close)
		o.udp = sender

		publisher, err := udp.NewUDPPublisher(cfg.Transport.UDPSendInterval, sender, vis)
		if err != nil {
			o.close()
			return nil, err
		}
		publisher.Start()
		o.closers = append(o.closers, publisher.Close)
	}

	o.closers = append(o.closers, sinks.Close)
	o.sink = sinks
	return o, nil
}

// startRecording attaches a WAV recorder to the followed source when
// recording is enabled. The returned function detaches and finalizes it.
func startRecording(cfg *config.Config, registry *source.Registry) (func(), error) {
	if !cfg.Recording.Enabled {
		return func() {}, nil
	}
	src, ok := registry.Lookup(cfg.Visual.Source)
	if !ok {
		return nil, fmt.Errorf("cannot record: source '%s' is not configured", cfg.Visual.Source)
	}

	info := src.Info()
	rec, err := source.NewRecorder(info.SampleRate, info.Channels, cfg.Recording.BitDepth)
	if err != nil {
		return nil, err
	}
	path := source.RecordingPath(cfg.Recording.OutputDir, time.Now())
	if err := rec.Start(path); err != nil {
		return nil, err
	}
	detach := src.AddCaptureCallback(rec.Capture)

	return func() {
		detach()
		if err := rec.Stop(); err != nil {
			log.Errorf("Error stopping recording: %v", err)
			return
		}
		fmt.Printf("\nRecording saved to: %s (%d frames)\n", path, rec.Frames())
	}, nil
}
