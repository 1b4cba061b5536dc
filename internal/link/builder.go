// internal/link/builder.go
package link

import (
	"time"

	"github.com/goburrow/serial"
	"github.com/rs/zerolog"
)

// SerialConfig is the per-link port configuration. 8N1 is fixed; the
// DTSU-666 and its masters speak nothing else.
type SerialConfig struct {
	Device string
	Baud   int
}

// Open opens a serial port and wraps it in a Link. The port read
// timeout is set well below the silence interval so the gap clock is
// sampled often enough.
func Open(name string, cfg SerialConfig, log zerolog.Logger) (*Link, func() error, error) {
	poll := SilenceInterval(cfg.Baud) / 2
	if poll < time.Millisecond {
		poll = time.Millisecond
	}

	port, err := serial.Open(&serial.Config{
		Address:  cfg.Device,
		BaudRate: cfg.Baud,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  poll,
	})
	if err != nil {
		return nil, nil, err
	}

	return New(name, port, cfg.Baud, log), port.Close, nil
}
