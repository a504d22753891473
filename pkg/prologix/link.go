package prologix

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"
)

// Link is the byte stream to the controller. Read returns (0, nil) when the
// read timeout passes without data, as go.bug.st/serial ports do.
type Link interface {
	io.ReadWriteCloser
	SetReadTimeout(timeout time.Duration) error
}

// OpenSerialLink opens a GPIB-USB controller's virtual COM port at 8N1
func OpenSerialLink(portName string, baudRate int) (Link, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush serial port %s: %w", portName, err)
	}
	return port, nil
}

// ListSerialPorts returns the serial ports present on the system
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}

type tcpLink struct {
	net.Conn
	timeout time.Duration
}

// OpenTCPLink connects to a GPIB-ETHERNET controller; the port defaults to 1234
func OpenTCPLink(host string) (Link, error) {
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(strings.Trim(host, "[]"), strconv.Itoa(DefaultTCPPort))
	}
	conn, err := net.DialTimeout("tcp", host, DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", host, err)
	}
	return &tcpLink{Conn: conn}, nil
}

func (l *tcpLink) SetReadTimeout(timeout time.Duration) error {
	l.timeout = timeout
	return nil
}

func (l *tcpLink) Read(p []byte) (int, error) {
	var deadline time.Time
	if l.timeout > 0 {
		deadline = time.Now().Add(l.timeout)
	}
	if err := l.Conn.SetReadDeadline(deadline); err != nil {
		return 0, fmt.Errorf("failed to set read deadline: %w", err)
	}
	n, err := l.Conn.Read(p)
	var netErr net.Error
	if err != nil && errors.As(err, &netErr) && netErr.Timeout() {
		return n, nil
	}
	return n, err
}
