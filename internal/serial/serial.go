package serial

import (
	"fmt"
	"os"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is the SHDLC default for Sensirion sensors.
const DefaultBaudRate = 115200

// DefaultReadTimeout is how long a single Read waits for data.
const DefaultReadTimeout = 100 * time.Millisecond

// ErrTimeout is returned by Read when no byte arrived within the read
// timeout. It wraps os.ErrDeadlineExceeded.
var ErrTimeout = fmt.Errorf("serial: read timeout: %w", os.ErrDeadlineExceeded)

// Port wraps a serial port configured for 8N1 framing.
type Port struct {
	port     serial.Port
	portName string
	baudRate int
}

// Open opens a serial port with the specified baud rate and read timeout.
func Open(portName string, baudRate int, readTimeout time.Duration) (*Port, error) {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", portName, err)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &Port{
		port:     port,
		portName: portName,
		baudRate: baudRate,
	}, nil
}

// Close closes the serial port.
func (p *Port) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Write writes data to the serial port.
func (p *Port) Write(data []byte) (int, error) {
	return p.port.Write(data)
}

// Read reads data from the serial port.
// The underlying driver reports a timeout as (0, nil); that is turned into
// ErrTimeout so buffered readers don't mistake it for a stalled stream.
func (p *Port) Read(buf []byte) (int, error) {
	n, err := p.port.Read(buf)
	if n == 0 && err == nil && len(buf) > 0 {
		return 0, ErrTimeout
	}
	return n, err
}

// Flush discards any buffered input.
func (p *Port) Flush() error {
	return p.port.ResetInputBuffer()
}

// PortName returns the port name.
func (p *Port) PortName() string {
	return p.portName
}

// BaudRate returns the current baud rate.
func (p *Port) BaudRate() int {
	return p.baudRate
}

// ListPorts returns a list of available serial ports.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	return ports, nil
}
