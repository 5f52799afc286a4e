// Package discovery finds the serial device a pager is reachable through.
package discovery

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"

	"github.com/moffa90/go-pmeeprom/transport"
)

// DefaultPollInterval is how often WaitForDevice looks for a device.
const DefaultPollInterval = 100 * time.Millisecond

// DefaultPatterns match IrCOMM ports and the usual USB-IrDA dongles.
var DefaultPatterns = []string{
	"/dev/ircomm*",
	"/dev/ttyUSB*",
	"/dev/ttyACM*",
}

// Port describes a serial port found on the system.
type Port struct {
	Name    string
	Product string
}

// Discoverer finds at most one device.
type Discoverer interface {
	// DiscoverOneDevice returns nil, nil when no device is present.
	DiscoverOneDevice() (*transport.Endpoint, error)
}

// Scanner discovers devices by matching serial port names against glob
// patterns.
type Scanner struct {
	// Patterns are filepath.Match patterns; earlier patterns win
	Patterns []string

	// List enumerates the ports (optional, defaults to the system list)
	List func() ([]Port, error)
}

// NewScanner returns a scanner using patterns, or DefaultPatterns if none
// are given.
func NewScanner(patterns ...string) *Scanner {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &Scanner{Patterns: patterns, List: SystemPorts}
}

// DiscoverOneDevice returns the first port matching the scanner patterns.
func (s *Scanner) DiscoverOneDevice() (*transport.Endpoint, error) {
	list := s.List
	if list == nil {
		list = SystemPorts
	}

	ports, err := list()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })

	for _, pattern := range s.Patterns {
		for _, p := range ports {
			ok, err := filepath.Match(pattern, p.Name)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			if ok {
				return &transport.Endpoint{Address: p.Name, Name: p.Product}, nil
			}
		}
	}
	return nil, nil
}

// SystemPorts lists the serial ports of the host. USB details are used when
// the platform provides them.
func SystemPorts() ([]Port, error) {
	if details, err := enumerator.GetDetailedPortsList(); err == nil {
		ports := make([]Port, 0, len(details))
		for _, d := range details {
			ports = append(ports, Port{Name: d.Name, Product: d.Product})
		}
		return ports, nil
	}

	names, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	ports := make([]Port, 0, len(names))
	for _, n := range names {
		ports = append(ports, Port{Name: n})
	}
	return ports, nil
}

// WaitForDevice polls d every interval until it reports a device or ctx is
// done. Discovery errors are treated as "not found yet". A non-positive
// interval selects DefaultPollInterval.
func WaitForDevice(ctx context.Context, d Discoverer, interval time.Duration) (*transport.Endpoint, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if ep, err := d.DiscoverOneDevice(); err == nil && ep != nil {
			return ep, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for device: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
