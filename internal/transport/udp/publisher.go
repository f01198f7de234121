// SPDX-License-Identifier: MIT
package udp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"waveform/internal/log"
)

// HeaderSize is the fixed packet prefix: sequence, timestamp and count.
const HeaderSize = 4 + 8 + 2

// MaxMagnitudes is the largest count a packet header can carry.
const MaxMagnitudes = math.MaxUint16

// MagnitudeProvider supplies the spectrum to publish.
type MagnitudeProvider interface {
	// MagnitudesInto copies channel ch's decibel spectrum into dst and
	// returns the number of values copied.
	MagnitudesInto(ch int, dst []float32) int
	// FFTSize returns the transform length; the spectrum holds FFTSize()/2 bins.
	FFTSize() int
}

// packetSender is the part of UDPSender the publisher needs.
type packetSender interface {
	SendSpectrum(seq uint32, timestamp int64, mags []float32) error
}

// UDPPublisher periodically fetches channel 0 of a spectrum and hands it to
// the sender, which frames it as described at AppendPacket.
// It runs in a separate goroutine managed by Start and Stop.
type UDPPublisher struct {
	sender   packetSender
	source   MagnitudeProvider
	interval time.Duration

	ticker   *time.Ticker   // Ticker that triggers packet sending.
	doneChan chan struct{}  // Signals the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects ticker and doneChan during Start/Stop.

	sequenceNum uint32

	magBuffer []float32 // reused between ticks
}

// NewUDPPublisher creates a publisher. If the interval is invalid (<= 0),
// it defaults to 16ms (~60Hz).
func NewUDPPublisher(interval time.Duration, sender *UDPSender, source MagnitudeProvider) (*UDPPublisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	return newPublisher(interval, sender, source)
}

func newPublisher(interval time.Duration, sender packetSender, source MagnitudeProvider) (*UDPPublisher, error) {
	if source == nil {
		return nil, fmt.Errorf("UDPPublisher: magnitude source cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		log.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}
	log.Infof("UDPPublisher: Initializing (Interval: %s, FFT Bins: %d)", interval, source.FFTSize()/2)

	return &UDPPublisher{
		sender:   sender,
		source:   source,
		interval: interval,
	}, nil
}

// Start begins the periodic publishing process. Calling Start while running
// is a no-op.
func (p *UDPPublisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		log.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Local copies keep the goroutine off p.ticker and p.doneChan.
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Debugf("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket(time.Now())
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times.
func (p *UDPPublisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	log.Debugf("UDPPublisher: Publisher goroutine finished.")
	return nil
}

/*
AppendPacket appends one packet to dst. All fields are BigEndian.

	+-----------------+---------+--------------+--------------------------+
	| Field           | Type    | Size (Bytes) | Description              |
	|-----------------|---------|--------------|--------------------------|
	| Sequence Number | uint32  | 4            | Monotonically increasing |
	| Timestamp       | int64   | 8            | Nanoseconds since epoch  |
	| Magnitude Count | uint16  | 2            | Number of floats (N)     |
	| Magnitudes      | float32 | N * 4        | Decibel spectrum         |
	+-----------------+---------+--------------+--------------------------+

Magnitudes beyond MaxMagnitudes are dropped.
*/
func AppendPacket(dst []byte, seq uint32, timestamp int64, mags []float32) []byte {
	mags = mags[:min(len(mags), MaxMagnitudes)]
	dst = binary.BigEndian.AppendUint32(dst, seq)
	dst = binary.BigEndian.AppendUint64(dst, uint64(timestamp))
	dst = binary.BigEndian.AppendUint16(dst, uint16(len(mags)))
	for _, v := range mags {
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// Packet is a decoded spectrum packet.
type Packet struct {
	Sequence   uint32
	Timestamp  int64
	Magnitudes []float32
}

// ParsePacket decodes a packet produced by AppendPacket.
func ParsePacket(b []byte) (Packet, error) {
	if len(b) < HeaderSize {
		return Packet{}, errors.New("udp: short packet header")
	}
	pk := Packet{
		Sequence:  binary.BigEndian.Uint32(b[0:4]),
		Timestamp: int64(binary.BigEndian.Uint64(b[4:12])),
	}
	n := int(binary.BigEndian.Uint16(b[12:14]))
	body := b[HeaderSize:]
	if len(body) != 4*n {
		return Packet{}, fmt.Errorf("udp: packet declares %d magnitudes but carries %d bytes", n, len(body))
	}
	pk.Magnitudes = make([]float32, n)
	for i := range pk.Magnitudes {
		pk.Magnitudes[i] = math.Float32frombits(binary.BigEndian.Uint32(body[4*i:]))
	}
	return pk, nil
}

// buildAndSendPacket runs on each tick: fetch channel 0 and send it.
func (p *UDPPublisher) buildAndSendPacket(now time.Time) {
	bins := p.source.FFTSize() / 2
	if cap(p.magBuffer) < bins {
		p.magBuffer = make([]float32, bins)
	}
	p.magBuffer = p.magBuffer[:bins]

	n := p.source.MagnitudesInto(0, p.magBuffer)
	if n == 0 {
		return
	}

	p.sequenceNum++
	// The sender logs its own errors.
	if err := p.sender.SendSpectrum(p.sequenceNum, now.UnixNano(), p.magBuffer[:n]); err == nil {
		log.Debugf("UDPPublisher: Sent packet %d (%d bins)", p.sequenceNum, n)
	}
}

// Close implements the io.Closer interface. It stops the publisher goroutine.
func (p *UDPPublisher) Close() error {
	return p.Stop()
}

// Ensure UDPPublisher satisfies the io.Closer interface at compile time.
var _ interface{ Close() error } = (*UDPPublisher)(nil)
