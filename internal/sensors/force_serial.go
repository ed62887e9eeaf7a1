package sensors

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	serial "github.com/jacobsa/go-serial/serial"
)

// ForceReader reads force values from the Pico bridge: one reading per
// line, either a bare integer or CSV with the force value last.
type ForceReader struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
}

// OpenForceSerial opens the serial port the force sensor bridge writes to.
func OpenForceSerial(portName string, baud int) (*ForceReader, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("force serial %s: %w", portName, err)
	}
	return NewForceReader(port), nil
}

// NewForceReader wraps any line-oriented stream.
func NewForceReader(rc io.ReadCloser) *ForceReader {
	return &ForceReader{rc: rc, scanner: bufio.NewScanner(rc)}
}

// Next returns the next force value, skipping headers and noise lines.
// It returns io.EOF when the stream ends.
func (r *ForceReader) Next() (int, error) {
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		v, err := strconv.Atoi(strings.TrimSpace(fields[len(fields)-1]))
		if err != nil {
			continue
		}
		return v, nil
	}
	if err := r.scanner.Err(); err != nil {
		return 0, fmt.Errorf("force serial read: %w", err)
	}
	return 0, io.EOF
}

func (r *ForceReader) Close() error {
	return r.rc.Close()
}
