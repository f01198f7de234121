// SPDX-License-Identifier: MIT
package transport

import (
	"sync/atomic"

	"waveform/internal/geometry"
	"waveform/internal/log"
)

// LoggingTransport implements the Transport interface by logging a summary of
// each frame at debug level.
type LoggingTransport struct {
	sent atomic.Uint64
}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	log.Infof("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data. It never fails.
func (lt *LoggingTransport) Send(data any) error {
	n := lt.sent.Add(1)
	switch v := data.(type) {
	case *geometry.Frame:
		vertices := 0
		for _, ch := range v.Channels {
			vertices += len(ch)
		}
		log.Debugf("LOG_TRANSPORT: Frame %d (%dx%d, %d channels, %d vertices, %d indices)",
			n, v.Width, v.Height, len(v.Channels), vertices, len(v.Indices))
	default:
		log.Debugf("LOG_TRANSPORT: Received %d (%T)", n, data)
	}
	return nil
}

// Sent returns the number of Send calls so far.
func (lt *LoggingTransport) Sent() uint64 { return lt.sent.Load() }

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	log.Debugf("LOG_TRANSPORT: Close called after %d sends.", lt.sent.Load())
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
