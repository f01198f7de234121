// SPDX-License-Identifier: MIT
package udp

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"waveform/internal/log"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	m.Run()
}

type fakeSpectrum struct {
	mu   sync.Mutex
	size int
	mags []float32
}

func (f *fakeSpectrum) MagnitudesInto(ch int, dst []float32) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ch != 0 {
		return 0
	}
	return copy(dst, f.mags)
}

func (f *fakeSpectrum) FFTSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.size
}

type recordingSender struct {
	packets [][]byte
	err     error
}

func (r *recordingSender) SendSpectrum(seq uint32, timestamp int64, mags []float32) error {
	r.packets = append(r.packets, AppendPacket(nil, seq, timestamp, mags))
	return r.err
}

func TestPacketRoundTrip(t *testing.T) {
	mags := []float32{-120, -60.5, 0, 3.25}
	b := AppendPacket(nil, 7, 1234567890123, mags)
	if len(b) != HeaderSize+4*len(mags) {
		t.Fatalf("packet length = %d", len(b))
	}
	// Header layout: sequence, then timestamp, then count.
	if b[3] != 7 || b[13] != byte(len(mags)) {
		t.Errorf("header bytes = % x", b[:HeaderSize])
	}

	pk, err := ParsePacket(b)
	if err != nil {
		t.Fatal(err)
	}
	if pk.Sequence != 7 || pk.Timestamp != 1234567890123 {
		t.Errorf("header = %+v", pk)
	}
	for i, v := range mags {
		if pk.Magnitudes[i] != v {
			t.Errorf("magnitude %d = %v, want %v", i, pk.Magnitudes[i], v)
		}
	}
}

func TestParsePacketErrors(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
	}{
		{"empty", nil},
		{"short header", make([]byte, HeaderSize-1)},
		{"truncated body", AppendPacket(nil, 1, 0, []float32{1, 2})[:HeaderSize+5]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePacket(tt.b); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestAppendPacketCapsCount(t *testing.T) {
	b := AppendPacket(nil, 1, 0, make([]float32, MaxMagnitudes+10))
	pk, err := ParsePacket(b)
	if err != nil {
		t.Fatal(err)
	}
	if len(pk.Magnitudes) != MaxMagnitudes {
		t.Errorf("count = %d, want %d", len(pk.Magnitudes), MaxMagnitudes)
	}
}

func TestBuildAndSendPacket(t *testing.T) {
	src := &fakeSpectrum{size: 8, mags: []float32{-1, -2, -3, -4}}
	sender := &recordingSender{}
	p, err := newPublisher(time.Second, sender, src)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Unix(10, 5)
	p.buildAndSendPacket(now)
	p.buildAndSendPacket(now)

	if len(sender.packets) != 2 {
		t.Fatalf("sent %d packets, want 2", len(sender.packets))
	}
	for i, b := range sender.packets {
		pk, err := ParsePacket(b)
		if err != nil {
			t.Fatal(err)
		}
		if pk.Sequence != uint32(i+1) || pk.Timestamp != now.UnixNano() || len(pk.Magnitudes) != 4 {
			t.Errorf("packet %d = %+v", i, pk)
		}
	}

	// The buffer follows FFT size changes.
	src.mu.Lock()
	src.size = 16
	src.mags = make([]float32, 8)
	src.mu.Unlock()
	p.buildAndSendPacket(now)
	pk, _ := ParsePacket(sender.packets[2])
	if len(pk.Magnitudes) != 8 {
		t.Errorf("count after resize = %d, want 8", len(pk.Magnitudes))
	}

	// Nothing to publish, nothing sent.
	src.mu.Lock()
	src.mags = nil
	src.mu.Unlock()
	p.buildAndSendPacket(now)
	if len(sender.packets) != 3 {
		t.Errorf("sent %d packets for an empty spectrum", len(sender.packets))
	}

	// A failing send still consumes the sequence number.
	src.mags = []float32{1}
	sender.err = errors.New("unreachable")
	p.buildAndSendPacket(now)
	if p.sequenceNum != 4 {
		t.Errorf("sequence = %d, want 4", p.sequenceNum)
	}
}

func TestNewUDPPublisherValidation(t *testing.T) {
	if _, err := NewUDPPublisher(time.Second, nil, &fakeSpectrum{size: 8}); err == nil {
		t.Error("expected an error for a nil sender")
	}
	if _, err := newPublisher(time.Second, &recordingSender{}, nil); err == nil {
		t.Error("expected an error for a nil source")
	}
	p, err := newPublisher(0, &recordingSender{}, &fakeSpectrum{size: 8})
	if err != nil {
		t.Fatal(err)
	}
	if p.interval != 16*time.Millisecond {
		t.Errorf("default interval = %v", p.interval)
	}
}

func TestPublisherOverLoopback(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	sender, err := NewUDPSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer sender.Close()

	src := &fakeSpectrum{size: 8, mags: []float32{-10, -20, -30, -40}}
	pub, err := NewUDPPublisher(5*time.Millisecond, sender, src)
	if err != nil {
		t.Fatal(err)
	}
	pub.Start()
	pub.Start()
	defer pub.Close()

	buf := make([]byte, 1024)
	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, _, err := listener.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	pk, err := ParsePacket(buf[:n])
	if err != nil {
		t.Fatal(err)
	}
	if pk.Sequence == 0 || len(pk.Magnitudes) != 4 || pk.Magnitudes[3] != -40 {
		t.Errorf("received %+v", pk)
	}

	if err := pub.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := pub.Stop(); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestSenderClose(t *testing.T) {
	sender, err := NewUDPSender("127.0.0.1:9")
	if err != nil {
		t.Fatal(err)
	}
	if err := sender.Close(); err != nil {
		t.Fatal(err)
	}
	if err := sender.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := sender.SendSpectrum(1, 0, []float32{1}); !errors.Is(err, ErrClosed) {
		t.Errorf("SendSpectrum after Close = %v, want ErrClosed", err)
	}
	if _, err := NewUDPSender("not an address"); err == nil {
		t.Error("expected a resolve error")
	}
}

func TestSenderFramesSpectrum(t *testing.T) {
	listener, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatal(err)
	}
	defer listener.Close()

	sender, err := NewUDPSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer sender.Close()

	if got := sender.Target().Port; got != listener.LocalAddr().(*net.UDPAddr).Port {
		t.Errorf("Target().Port = %d", got)
	}

	mags := []float32{-90, -45.5}
	for seq := uint32(1); seq <= 2; seq++ {
		if err := sender.SendSpectrum(seq, 42, mags); err != nil {
			t.Fatal(err)
		}
	}

	buf := make([]byte, 256)
	listener.SetReadDeadline(time.Now().Add(2 * time.Second))
	for want := uint32(1); want <= 2; want++ {
		n, _, err := listener.ReadFromUDP(buf)
		if err != nil {
			t.Fatalf("ReadFromUDP: %v", err)
		}
		pk, err := ParsePacket(buf[:n])
		if err != nil {
			t.Fatal(err)
		}
		if pk.Sequence != want || pk.Timestamp != 42 || len(pk.Magnitudes) != 2 || pk.Magnitudes[1] != -45.5 {
			t.Errorf("packet = %+v", pk)
		}
	}

	packets, bytes := sender.Stats()
	if packets != 2 || bytes != uint64(2*(HeaderSize+4*len(mags))) {
		t.Errorf("Stats() = %d packets, %d bytes", packets, bytes)
	}
}
