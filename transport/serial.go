package transport

import (
	"fmt"

	"github.com/tarm/serial"
)

// SerialConfig describes how to open a physical serial port for RTU or
// ASCII framing. Mirrors the fields github.com/tarm/serial.Config exposes.
type SerialConfig struct {
	// Name is the device path, e.g. "/dev/ttyUSB0" or "COM3".
	Name string
	// Baud is the line speed; also used to size the RTU inter-frame gap.
	Baud int
	// Size is the data bits per character; 8 unless the device demands otherwise.
	Size byte
	// Parity is serial.ParityNone/Odd/Even.
	Parity serial.Parity
	// StopBits is serial.Stop1 or serial.Stop2.
	StopBits serial.StopBits
}

// OpenRTU opens a serial port per cfg and wraps it as an RTU transport.
// dir may be nil when the line has no RS-485 direction pin to drive.
func OpenRTU(cfg SerialConfig, dir DirectionController) (*RTU, error) {
	port, err := openSerial(cfg)
	if err != nil {
		return nil, err
	}
	return NewRTU(port, cfg.Baud, dir), nil
}

// OpenASCII opens a serial port per cfg and wraps it as an ASCII transport.
// dir may be nil when the line has no RS-485 direction pin to drive.
func OpenASCII(cfg SerialConfig, dir DirectionController) (*ASCII, error) {
	port, err := openSerial(cfg)
	if err != nil {
		return nil, err
	}
	return NewASCII(port, dir), nil
}

func openSerial(cfg SerialConfig) (*serial.Port, error) {
	size := cfg.Size
	if size == 0 {
		size = 8
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Name,
		Baud:        cfg.Baud,
		Size:        size,
		Parity:      cfg.Parity,
		StopBits:    cfg.StopBits,
		ReadTimeout: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("modbus: open serial port %s: %w", cfg.Name, err)
	}
	return port, nil
}
