// internal/link/link.go
package link

import (
	"errors"
	"time"

	"github.com/goburrow/serial"
	"github.com/rs/zerolog"

	"github.com/SensorsIot/Modbus-Proxy/internal/modbus"
)

var (
	// ErrTimeout: no first byte, or no inter-frame gap, within the budget.
	ErrTimeout = errors.New("link: frame timeout")
	// ErrBadFrame: a byte burst was delimited but failed length or CRC
	// checks. The frame is dropped; the caller retries its outer loop.
	ErrBadFrame = errors.New("link: malformed frame dropped")
	// ErrShortWrite: the channel accepted fewer bytes than requested.
	ErrShortWrite = errors.New("link: short write")
)

// Port is the serial channel a Link drives. Read must block for at most
// a short, port-configured interval and return (0, timeout) when no data
// arrived; goburrow/serial behaves this way with Config.Timeout set.
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
}

// CharTime is the transmission time of one character at the given baud
// rate: 11 bits per character covers start, stop and parity framing.
func CharTime(baud int) time.Duration {
	if baud <= 0 {
		baud = 9600
	}
	return time.Duration(11_000_000/baud) * time.Microsecond
}

// SilenceInterval is the inter-frame idle period that delimits RTU
// frames: 3.5 character times plus a small guard.
func SilenceInterval(baud int) time.Duration {
	return time.Duration(3.5*float64(CharTime(baud))) + 2*time.Microsecond
}

// Link frames a half-duplex RTU byte stream. Not safe for concurrent
// use; the orchestrator owns both links exclusively.
type Link struct {
	name    string
	port    Port
	silence time.Duration
	buf     [modbus.MaxFrame]byte
	log     zerolog.Logger
}

// New wraps an open port. baud only feeds the silence clock; the port
// itself is configured by the caller.
func New(name string, port Port, baud int, log zerolog.Logger) *Link {
	return &Link{
		name:    name,
		port:    port,
		silence: SilenceInterval(baud),
		log:     log.With().Str("link", name).Logger(),
	}
}

// Read accumulates one frame, delimited by a silence gap of at least
// 3.5 character times, and parses it. The first byte must arrive before
// timeout elapses, and the gap must be seen before timeout elapses;
// otherwise ErrTimeout. Bytes beyond the buffer capacity are dropped
// but still reset the gap clock.
func (l *Link) Read(timeout time.Duration) (modbus.Message, error) {
	deadline := time.Now().Add(timeout)
	n := 0

	// Wait for the first byte.
	for n == 0 {
		rd, err := l.port.Read(l.buf[:])
		if err != nil && !isTimeout(err) {
			return modbus.Message{}, err
		}
		n += rd
		if n == 0 && !time.Now().Before(deadline) {
			return modbus.Message{}, ErrTimeout
		}
	}
	lastByte := time.Now()

	var scratch [32]byte
	for {
		dst := l.buf[n:]
		if len(dst) == 0 {
			dst = scratch[:]
		}
		rd, err := l.port.Read(dst)
		if err != nil && !isTimeout(err) {
			return modbus.Message{}, err
		}
		if rd > 0 {
			if n < len(l.buf) {
				n += rd
			}
			lastByte = time.Now()
			// Credits the gap clock but never the deadline: a stream
			// with no gap must still end at timeout.
			if !lastByte.Before(deadline) {
				return modbus.Message{}, ErrTimeout
			}
			continue
		}
		if time.Since(lastByte) >= l.silence {
			break
		}
		if !time.Now().Before(deadline) {
			return modbus.Message{}, ErrTimeout
		}
	}

	msg, ok := modbus.Parse(l.buf[:n])
	if !ok {
		l.log.Debug().Int("len", n).Msg("dropped malformed frame")
		return modbus.Message{}, ErrBadFrame
	}
	return msg, nil
}

// Write observes the pre-transmission silence requirement, then sends
// the whole frame. Partial acceptance is ErrShortWrite.
func (l *Link) Write(frame []byte) error {
	time.Sleep(l.silence)
	n, err := l.port.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		l.log.Warn().Int("written", n).Int("want", len(frame)).Msg("short write")
		return ErrShortWrite
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, serial.ErrTimeout) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
