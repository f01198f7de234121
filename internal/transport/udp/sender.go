// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"waveform/internal/log"
)

// ErrClosed is returned by SendSpectrum after Close.
var ErrClosed = errors.New("udp: sender is closed")

// UDPSender frames spectra as packets (see AppendPacket) and writes them to
// one connected UDP target.
type UDPSender struct {
	target *net.UDPAddr

	mu     sync.Mutex // guards conn and packet; a write never races Close
	conn   *net.UDPConn
	packet []byte

	packets atomic.Uint64
	bytes   atomic.Uint64
}

// NewUDPSender connects to targetAddress ("host:port", e.g. "127.0.0.1:9090").
func NewUDPSender(targetAddress string) (*UDPSender, error) {
	addr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve UDP target address '%s': %w", targetAddress, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial UDP for target '%s': %w", targetAddress, err)
	}
	log.Infof("UDPSender: Sending spectra to %s", conn.RemoteAddr())
	return &UDPSender{target: addr, conn: conn}, nil
}

// Target returns the resolved destination address.
func (s *UDPSender) Target() *net.UDPAddr { return s.target }

// SendSpectrum frames one packet into a reused buffer and writes it.
func (s *UDPSender) SendSpectrum(seq uint32, timestamp int64, mags []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return ErrClosed
	}

	s.packet = AppendPacket(s.packet[:0], seq, timestamp, mags)
	n, err := s.conn.Write(s.packet)
	if err != nil {
		log.Debugf("UDPSender: Packet %d to %s failed: %v", seq, s.target, err)
		return fmt.Errorf("failed to send UDP packet: %w", err)
	}
	s.packets.Add(1)
	s.bytes.Add(uint64(n))
	return nil
}

// Stats returns the number of packets and bytes written so far.
func (s *UDPSender) Stats() (packets, bytes uint64) {
	return s.packets.Load(), s.bytes.Load()
}

// Close closes the connection. Later calls are no-ops.
func (s *UDPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	conn := s.conn
	s.conn = nil
	packets, bytes := s.Stats()
	log.Debugf("UDPSender: Closing %s after %d packets (%d bytes)", s.target, packets, bytes)
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close UDP connection: %w", err)
	}
	return nil
}

var _ packetSender = (*UDPSender)(nil)
